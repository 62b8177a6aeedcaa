package config

import (
	"strings"
	"testing"
	"time"
)

func TestValidateDefaultsPass(t *testing.T) {
	cfg := Defaults()
	if err := Validate(cfg); err != nil {
		t.Fatalf("Defaults should pass validation: %v", err)
	}
}

func TestValidateOrchestrator(t *testing.T) {
	cfg := Defaults()
	cfg.Orchestrator.WorkerTimeout = 0
	cfg.Orchestrator.MaxParallelWorkers = 0
	cfg.Orchestrator.ContextWindow = -1
	cfg.Orchestrator.DisabledAgents = []string{"analytics", "sales-bot", "orchestrator"}
	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected validation error")
	}
	assertContains(t, err.Error(), "orchestrator.worker_timeout must be > 0")
	assertContains(t, err.Error(), "orchestrator.max_parallel_workers must be > 0")
	assertContains(t, err.Error(), "orchestrator.context_window must be > 0")
	assertContains(t, err.Error(), `unknown agent "sales-bot"`)
	assertContains(t, err.Error(), `unknown agent "orchestrator"`)
	if strings.Contains(err.Error(), `"analytics"`) {
		t.Error("analytics is a known agent and should not be reported")
	}
}

func TestValidateSessions(t *testing.T) {
	cfg := Defaults()
	cfg.Sessions.MaxSessions = 0
	cfg.Sessions.IdleTTL = -time.Second
	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected validation error")
	}
	assertContains(t, err.Error(), "sessions.max_sessions must be > 0")
	assertContains(t, err.Error(), "sessions.idle_ttl must be > 0")
}

func TestValidateLLMProvider(t *testing.T) {
	cfg := Defaults()
	cfg.LLM.Provider = "bedrock"
	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected validation error")
	}
	assertContains(t, err.Error(), `llm.provider "bedrock" is not supported`)
}

func TestValidateLLMOpenAIRequiresEndpoint(t *testing.T) {
	cfg := Defaults()
	cfg.LLM.Provider = "openai"
	cfg.LLM.BaseURL = ""
	cfg.LLM.Model = ""
	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected validation error")
	}
	assertContains(t, err.Error(), "llm.base_url is required")
	assertContains(t, err.Error(), "llm.model is required")
}

func TestValidateLLMTemperature(t *testing.T) {
	cfg := Defaults()
	cfg.LLM.Temperature = 3
	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected validation error")
	}
	assertContains(t, err.Error(), "llm.temperature")
}

func TestValidateLogger(t *testing.T) {
	cfg := Defaults()
	cfg.Logger.Level = "verbose"
	cfg.Logger.Format = "xml"
	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected validation error")
	}
	assertContains(t, err.Error(), `logger.level "verbose"`)
	assertContains(t, err.Error(), `logger.format "xml"`)
}

func TestValidateTracerExporterOnlyWhenEnabled(t *testing.T) {
	cfg := Defaults()
	cfg.Tracer.Exporter = "jaeger"
	if err := Validate(cfg); err != nil {
		t.Fatalf("disabled tracer should not be validated: %v", err)
	}

	cfg.Tracer.Enabled = true
	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected validation error")
	}
	assertContains(t, err.Error(), `tracer.exporter "jaeger"`)
}

func TestValidationErrorCollectsAll(t *testing.T) {
	cfg := Defaults()
	cfg.Orchestrator.WorkerTimeout = 0
	cfg.Sessions.MaxSessions = 0
	err := Validate(cfg)
	ve, ok := err.(*ValidationError)
	if !ok {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
	if len(ve.Errors) != 2 {
		t.Errorf("Errors = %v, want 2 entries", ve.Errors)
	}
}

func assertContains(t *testing.T, s, substr string) {
	t.Helper()
	if !strings.Contains(s, substr) {
		t.Errorf("expected %q to contain %q", s, substr)
	}
}
