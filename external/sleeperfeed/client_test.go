package sleeperfeed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gridironlabs/roster-engine/internal/platform/logging"
	"github.com/gridironlabs/roster-engine/internal/platform/resilience"
)

const playersPayload = `{
	"4046": {"full_name": "Patrick Mahomes", "team": "KC", "position": "QB", "status": "Active", "active": true},
	"1466": {"full_name": "Travis Kelce", "team": "KC", "position": "TE", "injury_status": "Questionable", "active": true},
	"9999": {"full_name": "Retired Guy", "team": "", "position": "RB", "active": false}
}`

const statsPayload = `{
	"4046": {"pass_yd": 305, "pass_td": 3},
	"1466": {},
	"0000": {"rush_yd": 50}
}`

func newTestClient(serverURL string, week int) *Client {
	return NewClient(ClientConfig{
		BaseURL: serverURL,
		Timeout: time.Second,
		Season:  2026,
		Week:    week,
		Logger:  logging.NewNop(),
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          true,
			FailureThreshold: 2,
			OpenTimeout:      time.Minute,
			HalfOpenMaxReq:   1,
		},
	})
}

func newSleeperStub(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/players/nfl":
			_, _ = w.Write([]byte(playersPayload))
		case "/stats/nfl/regular/2026/1":
			_, _ = w.Write([]byte(statsPayload))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func TestFetchRosterSkipsInactiveAndTeamlessPlayers(t *testing.T) {
	server := newSleeperStub(t)
	defer server.Close()

	client := newTestClient(server.URL, 0)
	rows, err := client.FetchRoster(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2)

	names := map[string]string{}
	for _, row := range rows {
		names[row.RawName] = row.Status
	}
	require.Contains(t, names, "Patrick Mahomes")
	require.Equal(t, "Questionable", names["Travis Kelce"])
}

func TestFetchActivityJoinsStatsAgainstPlayerMap(t *testing.T) {
	server := newSleeperStub(t)
	defer server.Close()

	client := newTestClient(server.URL, 1)
	rows, err := client.FetchActivity(context.Background())
	require.NoError(t, err)

	// Only Mahomes has both a stat line and a known player entry.
	require.Len(t, rows, 1)
	require.Equal(t, "Patrick Mahomes", rows[0].RawName)
	require.Equal(t, 1, rows[0].Week)
}

func TestFetchActivityWithoutConfiguredWeekIsEmpty(t *testing.T) {
	server := newSleeperStub(t)
	defer server.Close()

	client := newTestClient(server.URL, 0)
	rows, err := client.FetchActivity(context.Background())
	require.NoError(t, err)
	require.Empty(t, rows)
}

func TestFetchRosterServerErrorFails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newTestClient(server.URL, 0)
	_, err := client.FetchRoster(context.Background())
	require.Error(t, err)
}
