package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strings"

	"salesdesk/internal/adapter/render"
	"salesdesk/internal/infra/config"
	"salesdesk/internal/usecase/scheduling"
)

// CheckStatus represents the result of a health check.
type CheckStatus string

const (
	StatusPass CheckStatus = "PASS"
	StatusWarn CheckStatus = "WARN"
	StatusFail CheckStatus = "FAIL"
)

// CheckResult holds the outcome of a single health check.
type CheckResult struct {
	Name    string
	Status  CheckStatus
	Message string
	Fix     string // optional fix suggestion
	Detail  string // optional multi-line output printed under the result
}

// Check is a named health check function.
type Check struct {
	Name string
	Fn   func(ctx context.Context, cfg *config.Config) CheckResult
}

// runDoctor executes all health checks and reports results.
func runDoctor(ctx context.Context, flags cliFlags) error {
	cfgPath := configPath(flags)

	// Some checks work without a config.
	cfg, cfgErr := config.Load(cfgPath)

	checks := []Check{
		{Name: "Config file", Fn: checkConfigFile(cfgPath, cfgErr)},
		{Name: "LLM provider", Fn: checkLLMProvider},
		{Name: "Health schedule", Fn: checkHealthSchedule},
		{Name: "Agents", Fn: checkAgents(flags)},
	}
	return reportChecks(ctx, os.Stdout, cfg, checks)
}

func reportChecks(ctx context.Context, out io.Writer, cfg *config.Config, checks []Check) error {
	fmt.Fprintln(out, "salesdesk doctor")
	fmt.Fprintln(out, strings.Repeat("=", 50))
	fmt.Fprintln(out)

	var pass, warn, fail int
	for _, check := range checks {
		result := check.Fn(ctx, cfg)
		result.Name = check.Name

		fmt.Fprintf(out, "  %s %s: %s\n", statusIcon(result.Status), result.Name, result.Message)
		if result.Fix != "" {
			fmt.Fprintf(out, "      Fix: %s\n", result.Fix)
		}
		if result.Detail != "" {
			for line := range strings.Lines(result.Detail) {
				fmt.Fprintf(out, "      %s", line)
			}
		}

		switch result.Status {
		case StatusPass:
			pass++
		case StatusWarn:
			warn++
		case StatusFail:
			fail++
		}
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, strings.Repeat("-", 50))
	fmt.Fprintf(out, "Results: %d passed, %d warnings, %d failed\n", pass, warn, fail)

	if fail > 0 {
		fmt.Fprintln(out, "\nFix the FAIL issues above before running salesdesk.")
		return fmt.Errorf("%d check(s) failed", fail)
	}
	if warn > 0 {
		fmt.Fprintln(out, "\nsalesdesk should work, but consider addressing the warnings.")
	} else {
		fmt.Fprintln(out, "\nAll checks passed! salesdesk is ready to run.")
	}
	return nil
}

func statusIcon(s CheckStatus) string {
	switch s {
	case StatusPass:
		return "[PASS]"
	case StatusWarn:
		return "[WARN]"
	case StatusFail:
		return "[FAIL]"
	default:
		return "[????]"
	}
}

// checkConfigFile reports whether the config file loaded. A missing file is
// only a warning since defaults run offline.
func checkConfigFile(cfgPath string, cfgErr error) func(context.Context, *config.Config) CheckResult {
	return func(context.Context, *config.Config) CheckResult {
		if cfgErr != nil {
			var ve *config.ValidationError
			fix := "Check " + cfgPath + " syntax and permissions"
			if errors.As(cfgErr, &ve) {
				fix = "Correct the listed settings in " + cfgPath
			}
			return CheckResult{
				Status:  StatusFail,
				Message: fmt.Sprintf("config error: %v", cfgErr),
				Fix:     fix,
			}
		}

		if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
			return CheckResult{
				Status:  StatusWarn,
				Message: fmt.Sprintf("no config file at %s, using defaults", cfgPath),
				Fix:     "Create " + cfgPath + " or set SALESDESK_CONFIG",
			}
		}

		return CheckResult{
			Status:  StatusPass,
			Message: fmt.Sprintf("config loaded from %s", cfgPath),
		}
	}
}

// checkLLMProvider verifies the completion provider is usable.
func checkLLMProvider(_ context.Context, cfg *config.Config) CheckResult {
	if cfg == nil {
		return CheckResult{Status: StatusFail, Message: "cannot check, config not loaded"}
	}

	switch cfg.LLM.Provider {
	case "canned":
		return CheckResult{
			Status:  StatusWarn,
			Message: "offline mode, replies use built-in templates",
			Fix:     "Set llm.provider to openai for model-written replies",
		}
	case "openai":
		if cfg.LLM.APIKey == "" {
			return CheckResult{
				Status:  StatusWarn,
				Message: fmt.Sprintf("no API key for %s (fine for local endpoints)", cfg.LLM.BaseURL),
				Fix:     "Set SALESDESK_LLM_API_KEY",
			}
		}
		return CheckResult{
			Status:  StatusPass,
			Message: fmt.Sprintf("%s at %s", cfg.LLM.Model, cfg.LLM.BaseURL),
		}
	default:
		return CheckResult{
			Status:  StatusFail,
			Message: fmt.Sprintf("unsupported provider %q", cfg.LLM.Provider),
		}
	}
}

// checkHealthSchedule validates the schedule used by `salesdesk serve`.
func checkHealthSchedule(_ context.Context, cfg *config.Config) CheckResult {
	if cfg == nil {
		return CheckResult{Status: StatusFail, Message: "cannot check, config not loaded"}
	}
	if cfg.Health.Schedule == "" {
		return CheckResult{Status: StatusWarn, Message: "scheduled health report disabled"}
	}
	if _, err := scheduling.ParseSchedule(cfg.Health.Schedule); err != nil {
		return CheckResult{
			Status:  StatusFail,
			Message: err.Error(),
			Fix:     `Use a cron expression, a descriptor such as "@every 5m", or a duration`,
		}
	}
	return CheckResult{Status: StatusPass, Message: fmt.Sprintf("health report %s", cfg.Health.Schedule)}
}

// checkAgents initializes every agent and collects the complete health report.
func checkAgents(flags cliFlags) func(context.Context, *config.Config) CheckResult {
	return func(ctx context.Context, cfg *config.Config) CheckResult {
		if cfg == nil {
			return CheckResult{Status: StatusFail, Message: "cannot check, config not loaded"}
		}

		flags.Plain = true
		rt, err := initRuntimeWithConfig(ctx, cfg, flags)
		if err != nil {
			return CheckResult{
				Status:  StatusFail,
				Message: err.Error(),
				Fix:     "Run with SALESDESK_LOG_LEVEL=debug for details",
			}
		}
		defer rt.close()

		report := rt.factory.HealthReport(ctx)
		statuses := rt.orchestrator.Registry().Statuses(ctx)
		result := CheckResult{
			Detail: rt.renderer.Health(report) + rt.renderer.Agents(statuses),
		}
		if !render.Healthy(report) {
			var bad []string
			for _, agent := range slices.Sorted(maps.Keys(report)) {
				if !report[agent] {
					bad = append(bad, agent)
				}
			}
			result.Status = StatusFail
			result.Message = "unhealthy: " + strings.Join(bad, ", ")
			return result
		}
		result.Status = StatusPass
		result.Message = fmt.Sprintf("%d agents healthy", len(report)-1)
		return result
	}
}
