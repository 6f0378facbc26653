package app

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"

	"github.com/gridironlabs/roster-engine/external/depthchart"
	"github.com/gridironlabs/roster-engine/external/espnfeed"
	"github.com/gridironlabs/roster-engine/external/sleeperfeed"
	"github.com/gridironlabs/roster-engine/internal/config"
	"github.com/gridironlabs/roster-engine/internal/infrastructure/repository/postgres"
	"github.com/gridironlabs/roster-engine/internal/platform/id"
	"github.com/gridironlabs/roster-engine/internal/platform/logging"
	"github.com/gridironlabs/roster-engine/internal/platform/resilience"
	"github.com/gridironlabs/roster-engine/internal/usecase"
)

const dbPingTimeout = 5 * time.Second

// App owns the wired pipeline and the resources behind it.
type App struct {
	Pipeline *usecase.PipelineService

	db     *sqlx.DB
	logger *logging.Logger
}

// New opens the database, builds the enabled feed adapters and assembles the
// reconciliation pipeline from cfg.
func New(ctx context.Context, cfg config.Config, logger *logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Default()
	}

	db, err := openDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	pipeline, err := buildPipeline(cfg, db, logger)
	if err != nil {
		closeErr := db.Close()
		if closeErr != nil {
			logger.Warn("close database after wiring failure", "error", closeErr)
		}
		return nil, err
	}

	return &App{Pipeline: pipeline, db: db, logger: logger}, nil
}

func (a *App) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}

func openDB(ctx context.Context, cfg config.Config) (*sqlx.DB, error) {
	dsn := normalizeDBURL(cfg.DBURL, cfg.DBDisablePreparedBinary)

	db, err := otelsqlx.Open("postgres", dsn,
		otelsql.WithAttributes(semconv.DBSystemPostgreSQL),
		otelsql.WithDBName(dbNameFromURL(cfg.DBURL)),
		otelsql.WithQueryFormatter(formatDBQueryForTrace),
	)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, dbPingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return db, nil
}

func buildPipeline(cfg config.Config, db *sqlx.DB, logger *logging.Logger) (*usecase.PipelineService, error) {
	rosterSources, activitySources, err := buildSources(cfg, logger)
	if err != nil {
		return nil, err
	}

	priority := make(map[string]int, len(cfg.SourcePriorities))
	for _, entry := range cfg.SourcePriorities {
		priority[entry.SourceID] = entry.Weight
	}
	authoritative := toSet(cfg.AuthoritativeSources)
	reliable := toSet(cfg.ReliableTeamSources)

	retry := resilience.RetryConfig{
		MaxRetries: cfg.CommitMaxRetries,
		Backoff:    cfg.CommitRetryBackoff,
	}

	return usecase.NewPipelineService(usecase.PipelineDeps{
		Harvester: usecase.NewHarvestService(usecase.HarvestConfig{
			Concurrency:   cfg.HarvestConcurrency,
			SourceTimeout: cfg.HarvestTimeout,
		}, rosterSources, activitySources, logger),
		Merger: usecase.NewMergeService(usecase.MergeConfig{
			SourcePriority:       priority,
			AuthoritativeSources: authoritative,
		}, logger),
		Capper: usecase.NewCapperService(usecase.CapperConfig{
			RosterCap:      cfg.RosterCap,
			SourcePriority: priority,
		}, logger),
		Matcher: usecase.NewMatchService(usecase.MatcherConfig{
			FuzzyThreshold:      cfg.FuzzyThreshold,
			ReliableTeamSources: reliable,
		}, id.NewUUIDGenerator("mm"), logger),
		Pruner: usecase.NewPruneService(usecase.PrunerConfig{
			StalenessDays: cfg.StalenessDays,
		}, logger),
		Validator: usecase.NewValidatorService(logger),

		RosterRepo:   postgres.NewRosterRepository(db, retry),
		InjuryRepo:   postgres.NewInjuryRepository(db, retry),
		MismatchRepo: postgres.NewMismatchRepository(db, retry),
		RunRepo:      postgres.NewRunRepository(db, retry),

		IDGenerator: id.NewUUIDGenerator("run"),
		Logger:      logger,
	})
}

func buildSources(cfg config.Config, logger *logging.Logger) ([]usecase.ObservationSource, []usecase.ActivitySource, error) {
	breaker := resilience.CircuitBreakerConfig{
		Enabled:          cfg.FeedCircuitEnabled,
		FailureThreshold: cfg.FeedCircuitFailureCount,
		OpenTimeout:      cfg.FeedCircuitOpenTimeout,
		HalfOpenMaxReq:   cfg.FeedCircuitHalfOpenMaxReq,
	}

	rosterSources := make([]usecase.ObservationSource, 0, 3)
	activitySources := make([]usecase.ActivitySource, 0, 1)

	if cfg.ESPNFeedEnabled {
		rosterSources = append(rosterSources, espnfeed.NewClient(espnfeed.ClientConfig{
			BaseURL:        cfg.ESPNFeedBaseURL,
			Timeout:        cfg.ESPNFeedTimeout,
			Logger:         logger,
			CircuitBreaker: breaker,
		}))
	}

	if cfg.SleeperFeedEnabled {
		sleeper := sleeperfeed.NewClient(sleeperfeed.ClientConfig{
			BaseURL:        cfg.SleeperFeedBaseURL,
			Timeout:        cfg.SleeperFeedTimeout,
			Week:           cfg.SleeperSeasonWeek,
			Logger:         logger,
			CircuitBreaker: breaker,
		})
		rosterSources = append(rosterSources, sleeper)
		activitySources = append(activitySources, sleeper)
	}

	if cfg.DepthChartEnabled {
		rosterSources = append(rosterSources, depthchart.NewReader(cfg.DepthChartPath, logger))
	}

	if len(rosterSources) == 0 {
		return nil, nil, fmt.Errorf("at least one roster feed must be enabled")
	}

	return rosterSources, activitySources, nil
}

func toSet(values []string) map[string]struct{} {
	out := make(map[string]struct{}, len(values))
	for _, v := range values {
		out[v] = struct{}{}
	}
	return out
}
