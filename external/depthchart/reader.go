package depthchart

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/gridironlabs/roster-engine/internal/domain/observation"
	"github.com/gridironlabs/roster-engine/internal/platform/logging"
	"github.com/gridironlabs/roster-engine/internal/usecase"
)

const sourceID = "depthchart"

// Reader harvests roster observations from a locally maintained depth-chart
// CSV export. Expected header: player,team,position[,status]. Column order
// is taken from the header row, extra columns are ignored.
type Reader struct {
	path   string
	logger *logging.Logger
}

var _ usecase.ObservationSource = (*Reader)(nil)

func NewReader(path string, logger *logging.Logger) *Reader {
	if logger == nil {
		logger = logging.Default()
	}
	return &Reader{path: path, logger: logger}
}

func (r *Reader) SourceID() string { return sourceID }

func (r *Reader) FetchRoster(ctx context.Context) ([]observation.Raw, error) {
	file, err := os.Open(r.path)
	if err != nil {
		return nil, fmt.Errorf("open depth chart %s: %w", r.path, err)
	}
	defer func() {
		_ = file.Close()
	}()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read depth chart header: %w", err)
	}
	columns, err := mapColumns(header)
	if err != nil {
		return nil, err
	}

	observedAt := time.Now().UTC()
	out := make([]observation.Raw, 0, 64)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read depth chart row: %w", err)
		}

		name := field(row, columns.player)
		team := field(row, columns.team)
		if name == "" || team == "" {
			continue
		}
		out = append(out, observation.Raw{
			RawName:    name,
			TeamCode:   strings.ToUpper(team),
			Position:   strings.ToUpper(field(row, columns.position)),
			Status:     field(row, columns.status),
			SourceID:   sourceID,
			ObservedAt: observedAt,
		})
	}

	r.logger.DebugContext(ctx, "depth chart read", "path", r.path, "rows", len(out))
	return out, nil
}

type columnIndexes struct {
	player   int
	team     int
	position int
	status   int
}

func mapColumns(header []string) (columnIndexes, error) {
	columns := columnIndexes{player: -1, team: -1, position: -1, status: -1}
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "player", "player_name", "name":
			columns.player = i
		case "team", "team_code":
			columns.team = i
		case "position", "pos":
			columns.position = i
		case "status":
			columns.status = i
		}
	}
	if columns.player < 0 || columns.team < 0 {
		return columns, fmt.Errorf("depth chart header must include player and team columns, got %v", header)
	}
	return columns, nil
}

func field(row []string, index int) string {
	if index < 0 || index >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[index])
}
