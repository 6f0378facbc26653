package sleeperfeed

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/valyala/fasthttp"

	"github.com/gridironlabs/roster-engine/internal/domain/observation"
	"github.com/gridironlabs/roster-engine/internal/platform/logging"
	"github.com/gridironlabs/roster-engine/internal/platform/resilience"
	"github.com/gridironlabs/roster-engine/internal/usecase"
)

const (
	sourceID       = "sleeper"
	defaultBaseURL = "https://api.sleeper.app/v1"
	maxBodyBytes   = 64 << 20
)

var errTransient = crerr.New("sleeper feed transient failure")

type ClientConfig struct {
	BaseURL        string
	Timeout        time.Duration
	Season         int
	Week           int
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client harvests roster observations and weekly activity from the Sleeper
// public API. The players endpoint returns the full NFL player map in one
// large payload, so the client keeps it cached for the activity join.
type Client struct {
	httpClient     *fasthttp.Client
	baseURL        string
	season         int
	week           int
	logger         *logging.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
	timeout        time.Duration

	mu      sync.Mutex
	players map[string]sleeperPlayer
}

var (
	_ usecase.ObservationSource = (*Client)(nil)
	_ usecase.ActivitySource    = (*Client)(nil)
)

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 12 * time.Second
	}
	season := cfg.Season
	if season <= 0 {
		season = time.Now().UTC().Year()
	}
	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)

	return &Client{
		httpClient:     &fasthttp.Client{ReadTimeout: timeout, WriteTimeout: timeout, MaxResponseBodySize: maxBodyBytes},
		baseURL:        baseURL,
		season:         season,
		week:           cfg.Week,
		logger:         logger,
		breaker:        resilience.NewCircuitBreaker(breakerCfg.FailureThreshold, breakerCfg.OpenTimeout, breakerCfg.HalfOpenMaxReq),
		circuitEnabled: breakerCfg.Enabled,
		timeout:        timeout,
	}
}

func (c *Client) SourceID() string { return sourceID }

type sleeperPlayer struct {
	FullName     string `json:"full_name"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Team         string `json:"team"`
	Position     string `json:"position"`
	Status       string `json:"status"`
	InjuryStatus string `json:"injury_status"`
	Active       bool   `json:"active"`
}

func (p sleeperPlayer) name() string {
	if p.FullName != "" {
		return p.FullName
	}
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// FetchRoster pulls the full player map and keeps active players that carry
// a team assignment.
func (c *Client) FetchRoster(ctx context.Context) ([]observation.Raw, error) {
	players, err := c.fetchPlayers(ctx)
	if err != nil {
		return nil, err
	}

	observedAt := time.Now().UTC()
	out := make([]observation.Raw, 0, len(players)/2)
	for _, player := range players {
		if !player.Active || player.Team == "" || player.name() == "" {
			continue
		}
		status := player.InjuryStatus
		if status == "" {
			status = player.Status
		}
		out = append(out, observation.Raw{
			RawName:    player.name(),
			TeamCode:   strings.ToUpper(player.Team),
			Position:   player.Position,
			Status:     status,
			SourceID:   sourceID,
			ObservedAt: observedAt,
		})
	}

	c.logger.DebugContext(ctx, "sleeper roster fetched", "rows", len(out))
	return out, nil
}

// FetchActivity joins the weekly stat map against the cached player map.
// With no configured week there is no activity signal, which is not an
// error.
func (c *Client) FetchActivity(ctx context.Context) ([]observation.Activity, error) {
	if c.week <= 0 {
		return []observation.Activity{}, nil
	}

	players, err := c.fetchPlayers(ctx)
	if err != nil {
		return nil, err
	}

	path := fmt.Sprintf("/stats/nfl/regular/%d/%d", c.season, c.week)
	var stats map[string]map[string]float64
	if err := c.doJSON(ctx, path, &stats); err != nil {
		return nil, fmt.Errorf("fetch week %d stats: %w", c.week, err)
	}

	out := make([]observation.Activity, 0, len(stats))
	for playerID, statLine := range stats {
		if len(statLine) == 0 {
			continue
		}
		player, ok := players[playerID]
		if !ok || player.name() == "" {
			continue
		}
		out = append(out, observation.Activity{
			RawName:  player.name(),
			TeamCode: strings.ToUpper(player.Team),
			Week:     c.week,
			SourceID: sourceID,
		})
	}

	c.logger.DebugContext(ctx, "sleeper activity fetched", "rows", len(out), "week", c.week)
	return out, nil
}

func (c *Client) fetchPlayers(ctx context.Context) (map[string]sleeperPlayer, error) {
	c.mu.Lock()
	cached := c.players
	c.mu.Unlock()
	if cached != nil {
		return cached, nil
	}

	var players map[string]sleeperPlayer
	if err := c.doJSON(ctx, "/players/nfl", &players); err != nil {
		return nil, fmt.Errorf("fetch player map: %w", err)
	}

	c.mu.Lock()
	c.players = players
	c.mu.Unlock()
	return players, nil
}

func (c *Client) doJSON(ctx context.Context, path string, target any) error {
	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "sleeper circuit breaker rejected request", "state", c.breaker.State())
			return fmt.Errorf("%w: sleeper feed is temporarily unavailable", usecase.ErrSourceUnavailable)
		}
	}

	raw, err := c.executeRequest(ctx, c.baseURL+path)
	if c.circuitEnabled {
		if err != nil && crerr.Is(err, errTransient) {
			c.breaker.RecordFailure()
		} else {
			c.breaker.RecordSuccess()
		}
	}
	if err != nil {
		return err
	}

	if err := sonic.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("decode sleeper payload: %w", err)
	}
	return nil
}

func (c *Client) executeRequest(ctx context.Context, fullURL string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(fullURL)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("accept", "application/json")

	deadline := time.Now().Add(c.timeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}
	if err := c.httpClient.DoDeadline(req, resp, deadline); err != nil {
		return nil, fmt.Errorf("%w: send request: %v", errTransient, err)
	}

	status := resp.StatusCode()
	if status < 200 || status >= 300 {
		if status >= 500 || status == fasthttp.StatusTooManyRequests {
			return nil, fmt.Errorf("%w: sleeper status=%d", errTransient, status)
		}
		return nil, fmt.Errorf("sleeper status=%d", status)
	}

	return append([]byte(nil), resp.Body()...), nil
}
