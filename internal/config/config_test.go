package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.RunMode != RunModeOnce {
		t.Fatalf("unexpected RunMode: %q", cfg.RunMode)
	}
	if cfg.RosterCap != 53 {
		t.Fatalf("unexpected RosterCap: %d", cfg.RosterCap)
	}
	if cfg.FuzzyThreshold != 0.88 {
		t.Fatalf("unexpected FuzzyThreshold: %v", cfg.FuzzyThreshold)
	}
	if cfg.StalenessDays != 10 {
		t.Fatalf("unexpected StalenessDays: %d", cfg.StalenessDays)
	}
	if cfg.CommitRetryBackoff != 250*time.Millisecond {
		t.Fatalf("unexpected CommitRetryBackoff: %s", cfg.CommitRetryBackoff)
	}
	if len(cfg.SourcePriorities) != 3 {
		t.Fatalf("unexpected SourcePriorities: %+v", cfg.SourcePriorities)
	}
}

func TestLoad_AppEnvValidation(t *testing.T) {
	t.Setenv("APP_ENV", "invalid")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for invalid APP_ENV")
	}
}

func TestLoad_RunModeValidation(t *testing.T) {
	t.Setenv("RUN_MODE", "forever")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for invalid RUN_MODE")
	}
}

func TestLoad_SourcePriorityParsing(t *testing.T) {
	t.Setenv("SOURCE_PRIORITY", "depthchart:2, espn:5 ,sleeper:4")
	t.Setenv("AUTHORITATIVE_SOURCES", "espn")
	t.Setenv("RELIABLE_TEAM_SOURCES", "espn,sleeper")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.SourcePriorities[0].SourceID != "espn" || cfg.SourcePriorities[0].Weight != 5 {
		t.Fatalf("expected espn first by weight, got %+v", cfg.SourcePriorities)
	}
	if cfg.SourcePriorities[2].SourceID != "depthchart" {
		t.Fatalf("expected depthchart last, got %+v", cfg.SourcePriorities)
	}
	if got := cfg.PriorityFor("sleeper"); got != 4 {
		t.Fatalf("unexpected sleeper priority: %d", got)
	}
	if got := cfg.PriorityFor("unknown"); got != 0 {
		t.Fatalf("unexpected unknown priority: %d", got)
	}
}

func TestLoad_SourcePriorityRejectsDuplicates(t *testing.T) {
	t.Setenv("SOURCE_PRIORITY", "espn:5,espn:3")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for duplicate source id")
	}
}

func TestLoad_SourcePriorityRejectsBadWeight(t *testing.T) {
	t.Setenv("SOURCE_PRIORITY", "espn:zero")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for non-numeric weight")
	}
}

func TestLoad_AuthoritativeMustBeKnown(t *testing.T) {
	t.Setenv("SOURCE_PRIORITY", "espn:5")
	t.Setenv("AUTHORITATIVE_SOURCES", "espn,mystery")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for authoritative source missing from priorities")
	}
}

func TestLoad_ReliableMustBeKnown(t *testing.T) {
	t.Setenv("SOURCE_PRIORITY", "espn:5")
	t.Setenv("AUTHORITATIVE_SOURCES", "espn")
	t.Setenv("RELIABLE_TEAM_SOURCES", "sleeper")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for reliable source missing from priorities")
	}
}

func TestLoad_FuzzyThresholdBounds(t *testing.T) {
	t.Setenv("FUZZY_THRESHOLD", "1.5")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for FUZZY_THRESHOLD > 1")
	}
}

func TestLoad_DepthChartRequiresPathWhenEnabled(t *testing.T) {
	t.Setenv("DEPTH_CHART_ENABLED", "true")
	t.Setenv("DEPTH_CHART_PATH", "")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error when DEPTH_CHART_ENABLED=true without DEPTH_CHART_PATH")
	}
}

func TestLoad_UptraceRequiresDSNWhenEnabled(t *testing.T) {
	t.Setenv("UPTRACE_ENABLED", "true")
	t.Setenv("UPTRACE_DSN", "")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error when UPTRACE_ENABLED=true without UPTRACE_DSN")
	}
}

func TestLoad_PyroscopeRequiresServerWhenEnabled(t *testing.T) {
	t.Setenv("PYROSCOPE_ENABLED", "true")
	t.Setenv("PYROSCOPE_SERVER_ADDRESS", "")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error when PYROSCOPE_ENABLED=true without PYROSCOPE_SERVER_ADDRESS")
	}
}

func TestLoad_DaemonSettings(t *testing.T) {
	t.Setenv("RUN_MODE", "daemon")
	t.Setenv("DAEMON_CRON_SPEC", "*/10 * * * *")
	t.Setenv("METRICS_ADDR", ":9191")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.RunMode != RunModeDaemon {
		t.Fatalf("unexpected RunMode: %q", cfg.RunMode)
	}
	if cfg.DaemonCronSpec != "*/10 * * * *" {
		t.Fatalf("unexpected DaemonCronSpec: %q", cfg.DaemonCronSpec)
	}
	if cfg.MetricsAddr != ":9191" {
		t.Fatalf("unexpected MetricsAddr: %q", cfg.MetricsAddr)
	}
}
