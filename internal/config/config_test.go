package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SCORING_HISTORY_LIMIT", "")
	t.Setenv("SCORING_CREATION_STRATEGY", "")
	t.Setenv("EMBEDDING_MODEL", "")
	t.Setenv("SLA_SWEEP_SCHEDULE", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Scoring.HistoryLimit != 200 {
		t.Errorf("history limit = %d, want 200", cfg.Scoring.HistoryLimit)
	}
	if cfg.Scoring.CreationStrategy != "quick" {
		t.Errorf("creation strategy = %q", cfg.Scoring.CreationStrategy)
	}
	if cfg.Embedding.Model != "text-embedding-3-small" {
		t.Errorf("model = %q", cfg.Embedding.Model)
	}
	if cfg.SLA.SweepSchedule != "@every 5m" {
		t.Errorf("schedule = %q", cfg.SLA.SweepSchedule)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SCORING_HISTORY_LIMIT", "50")
	t.Setenv("SCORING_FALLBACK_TO_QUICK", "true")
	t.Setenv("SCORING_CREATION_STRATEGY", "FULL")
	t.Setenv("EMBEDDING_TIMEOUT_SECONDS", "3")
	t.Setenv("EMBEDDING_BASE_URL", "http://embedder:8000/v1")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Scoring.HistoryLimit != 50 || !cfg.Scoring.FallbackToQuick || cfg.Scoring.CreationStrategy != "full" {
		t.Errorf("scoring = %+v", cfg.Scoring)
	}
	if cfg.Embedding.Timeout().Seconds() != 3 || !cfg.Embedding.Enabled() {
		t.Errorf("embedding = %+v", cfg.Embedding)
	}
}

func TestLoadRejectsBadStrategy(t *testing.T) {
	t.Setenv("SCORING_CREATION_STRATEGY", "random")
	if _, err := Load(); err == nil {
		t.Fatal("expected error")
	}
}

func TestLoadRejectsBadRedisDB(t *testing.T) {
	t.Setenv("REDIS_DB", "one")
	if _, err := Load(); err == nil {
		t.Fatal("expected error")
	}
}
