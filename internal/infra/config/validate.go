package config

import (
	"fmt"
	"strings"

	"salesdesk/internal/domain"
)

// ValidationError accumulates config validation errors.
type ValidationError struct {
	Errors []string
}

func (v *ValidationError) Error() string {
	return "config validation failed:\n  - " + strings.Join(v.Errors, "\n  - ")
}

// HasErrors reports whether any validation errors have been recorded.
func (v *ValidationError) HasErrors() bool {
	return len(v.Errors) > 0
}

// Add records a formatted validation error.
func (v *ValidationError) Add(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}

// Validate checks cfg for structural correctness. It returns a *ValidationError
// when one or more problems are found, allowing callers to inspect all issues.
func Validate(cfg *Config) error {
	ve := &ValidationError{}
	validateOrchestrator(cfg, ve)
	validateSessions(cfg, ve)
	validateLLM(cfg, ve)
	validateLogger(cfg, ve)
	validateTracer(cfg, ve)
	if ve.HasErrors() {
		return ve
	}
	return nil
}

func validateOrchestrator(cfg *Config, ve *ValidationError) {
	o := cfg.Orchestrator
	if o.WorkerTimeout <= 0 {
		ve.Add("orchestrator.worker_timeout must be > 0")
	}
	if o.MaxParallelWorkers <= 0 {
		ve.Add("orchestrator.max_parallel_workers must be > 0")
	}
	if o.ContextWindow <= 0 {
		ve.Add("orchestrator.context_window must be > 0")
	}
	if o.InitTimeout <= 0 {
		ve.Add("orchestrator.init_timeout must be > 0")
	}
	for _, tag := range o.DisabledAgents {
		if !domain.AgentTag(tag).IsWorker() {
			ve.Add("orchestrator.disabled_agents: unknown agent %q", tag)
		}
	}
}

func validateSessions(cfg *Config, ve *ValidationError) {
	if cfg.Sessions.MaxSessions <= 0 {
		ve.Add("sessions.max_sessions must be > 0")
	}
	if cfg.Sessions.IdleTTL <= 0 {
		ve.Add("sessions.idle_ttl must be > 0")
	}
}

func validateLLM(cfg *Config, ve *ValidationError) {
	l := cfg.LLM
	switch l.Provider {
	case "canned":
	case "openai":
		if l.BaseURL == "" {
			ve.Add("llm.base_url is required for provider openai")
		}
		if l.Model == "" {
			ve.Add("llm.model is required for provider openai")
		}
	default:
		ve.Add("llm.provider %q is not supported (want openai or canned)", l.Provider)
	}
	if l.RequestsPerMinute < 0 {
		ve.Add("llm.requests_per_minute must be >= 0")
	}
	if l.Temperature < 0 || l.Temperature > 2 {
		ve.Add("llm.temperature must be within [0, 2]")
	}
}

func validateLogger(cfg *Config, ve *ValidationError) {
	switch strings.ToLower(cfg.Logger.Level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		ve.Add("logger.level %q is not valid", cfg.Logger.Level)
	}
	switch strings.ToLower(cfg.Logger.Format) {
	case "", "text", "json":
	default:
		ve.Add("logger.format %q is not valid (want text or json)", cfg.Logger.Format)
	}
}

func validateTracer(cfg *Config, ve *ValidationError) {
	if !cfg.Tracer.Enabled {
		return
	}
	switch cfg.Tracer.Exporter {
	case "", "noop", "stdout":
	default:
		ve.Add("tracer.exporter %q is not supported", cfg.Tracer.Exporter)
	}
}
