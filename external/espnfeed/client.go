package espnfeed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"

	"github.com/gridironlabs/roster-engine/internal/domain/observation"
	"github.com/gridironlabs/roster-engine/internal/platform/logging"
	"github.com/gridironlabs/roster-engine/internal/platform/resilience"
	"github.com/gridironlabs/roster-engine/internal/usecase"
)

const (
	sourceID       = "espn"
	defaultBaseURL = "https://site.api.espn.com/apis/site/v2/sports/football/nfl"
	maxBodyBytes   = 8 << 20
)

var errTransient = crerr.New("espn feed transient failure")

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	Timeout        time.Duration
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client harvests NFL roster observations from the public ESPN site API.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	logger         *logging.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
}

var _ usecase.ObservationSource = (*Client)(nil)

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 12 * time.Second
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)

	return &Client{
		httpClient:     httpClient,
		baseURL:        baseURL,
		logger:         logger,
		breaker:        resilience.NewCircuitBreaker(breakerCfg.FailureThreshold, breakerCfg.OpenTimeout, breakerCfg.HalfOpenMaxReq),
		circuitEnabled: breakerCfg.Enabled,
	}
}

func (c *Client) SourceID() string { return sourceID }

type teamListEnvelope struct {
	Sports []struct {
		Leagues []struct {
			Teams []struct {
				Team struct {
					ID           string `json:"id"`
					Abbreviation string `json:"abbreviation"`
				} `json:"team"`
			} `json:"teams"`
		} `json:"leagues"`
	} `json:"sports"`
}

type rosterEnvelope struct {
	Athletes []struct {
		Items []rosterAthlete `json:"items"`
	} `json:"athletes"`
}

type rosterAthlete struct {
	FullName string `json:"fullName"`
	Position struct {
		Abbreviation string `json:"abbreviation"`
	} `json:"position"`
	Status struct {
		Name string `json:"name"`
	} `json:"status"`
}

// FetchRoster walks every NFL team and flattens its roster into raw
// observations tagged with this source id.
func (c *Client) FetchRoster(ctx context.Context) ([]observation.Raw, error) {
	var teams teamListEnvelope
	if err := c.doJSON(ctx, "/teams", &teams); err != nil {
		return nil, fmt.Errorf("fetch team list: %w", err)
	}

	observedAt := time.Now().UTC()
	out := make([]observation.Raw, 0, 32*53)
	for _, sport := range teams.Sports {
		for _, league := range sport.Leagues {
			for _, wrapper := range league.Teams {
				team := wrapper.Team
				if team.ID == "" || team.Abbreviation == "" {
					continue
				}

				var roster rosterEnvelope
				if err := c.doJSON(ctx, "/teams/"+team.ID+"/roster", &roster); err != nil {
					return nil, fmt.Errorf("fetch roster for %s: %w", team.Abbreviation, err)
				}
				for _, group := range roster.Athletes {
					for _, athlete := range group.Items {
						if strings.TrimSpace(athlete.FullName) == "" {
							continue
						}
						out = append(out, observation.Raw{
							RawName:    athlete.FullName,
							TeamCode:   strings.ToUpper(team.Abbreviation),
							Position:   athlete.Position.Abbreviation,
							Status:     athlete.Status.Name,
							SourceID:   sourceID,
							ObservedAt: observedAt,
						})
					}
				}
			}
		}
	}

	c.logger.DebugContext(ctx, "espn roster fetched", "rows", len(out))
	return out, nil
}

func (c *Client) doJSON(ctx context.Context, path string, target any) error {
	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "espn circuit breaker rejected request", "state", c.breaker.State())
			return fmt.Errorf("%w: espn feed is temporarily unavailable", usecase.ErrSourceUnavailable)
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
		return fmt.Errorf("decode espn payload: %w", err)
	}
	return nil
}

func (c *Client) executeRequest(ctx context.Context, fullURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: send request: %v", errTransient, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read response body: %v", errTransient, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			return nil, fmt.Errorf("%w: espn status=%d", errTransient, resp.StatusCode)
		}
		return nil, fmt.Errorf("espn status=%d", resp.StatusCode)
	}
	return raw, nil
}
