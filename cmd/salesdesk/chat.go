package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strings"

	"salesdesk/internal/adapter/render"
	"salesdesk/internal/adapter/tui/chat"
	"salesdesk/internal/domain"
	"salesdesk/internal/usecase/scheduling"
)

const prompt = "> "

func runAsk(ctx context.Context, flags cliFlags, message string) error {
	if strings.TrimSpace(message) == "" {
		return fmt.Errorf("usage: salesdesk ask MESSAGE")
	}
	rt, err := initRuntime(ctx, flags)
	if err != nil {
		return err
	}
	defer rt.close()

	fmt.Print(rt.ask(ctx, message))
	return nil
}

func runChat(ctx context.Context, flags cliFlags) error {
	flags.interactive = !flags.Plain
	rt, err := initRuntime(ctx, flags)
	if err != nil {
		return err
	}
	defer rt.close()

	return converse(ctx, rt)
}

// runServe is the chat plus a health report on cfg.Health.Schedule.
func runServe(ctx context.Context, flags cliFlags) error {
	flags.interactive = !flags.Plain
	rt, err := initRuntime(ctx, flags)
	if err != nil {
		return err
	}
	defer rt.close()

	if rt.cfg.Health.Schedule != "" {
		sched := scheduling.NewScheduler(rt.log)
		if err := sched.AddTask(healthReportTask(rt)); err != nil {
			return fmt.Errorf("scheduler: %w", err)
		}
		if err := sched.Start(ctx); err != nil {
			return fmt.Errorf("scheduler: %w", err)
		}
		defer sched.Stop()
	}

	return converse(ctx, rt)
}

// converse runs the chat view, or the line loop when output is plain.
func converse(ctx context.Context, rt *runtime) error {
	if rt.plain {
		fmt.Printf("salesdesk session %s. Type /help for commands.\n", rt.session)
		return chatLoop(ctx, rt, os.Stdin, os.Stdout)
	}
	return chat.Run(ctx, chatModel(rt), rt.bus)
}

// chatModel wires the chat view to the runtime.
func chatModel(rt *runtime) chat.Model {
	return chat.NewModel(chat.Deps{
		Ask: func(ctx context.Context, message string) chat.Exchange {
			res := rt.orchestrator.ProcessMessage(ctx, message, rt.seed, rt.session)
			return chat.Exchange{Reply: res.Response, Trace: res.Trace}
		},
		Health: rt.factory.HealthReport,
		Agents: func(ctx context.Context) []domain.AgentStatus {
			return rt.orchestrator.Registry().Statuses(ctx)
		},
		Renderer:  rt.renderer,
		SessionID: rt.session,
		Trace:     rt.trace,
	})
}

// healthReportTask logs the complete health report of every agent.
func healthReportTask(rt *runtime) scheduling.ScheduledTask {
	return scheduling.ScheduledTask{
		Name:     "health-report",
		Schedule: rt.cfg.Health.Schedule,
		Timeout:  rt.cfg.Orchestrator.WorkerTimeout,
		Run: func(ctx context.Context) error {
			report := rt.factory.HealthReport(ctx)
			args := make([]any, 0, 2*len(report))
			for _, agent := range slices.Sorted(maps.Keys(report)) {
				args = append(args, agent, report[agent])
			}
			if !render.Healthy(report) {
				rt.log.Warn("health report: unhealthy agents", args...)
				return fmt.Errorf("unhealthy agents")
			}
			rt.log.Info("health report", args...)
			return nil
		},
	}
}

// chatLoop reads one message per line from in until EOF, /quit or ctx is
// done. Lines starting with "/" are local commands. It serves --plain, where
// the terminal is not handed to the chat view.
func chatLoop(ctx context.Context, rt *runtime, in io.Reader, out io.Writer) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		fmt.Fprint(out, prompt)
		var line string
		select {
		case <-ctx.Done():
			fmt.Fprintln(out)
			return nil
		case l, ok := <-lines:
			if !ok {
				fmt.Fprintln(out)
				return nil
			}
			line = strings.TrimSpace(l)
		}

		switch line {
		case "":
			continue
		case "/quit", "/exit":
			return nil
		case "/help":
			fmt.Fprintln(out, "/health  show agent health\n/trace   toggle the agent trace\n/session show the session id\n/quit    leave")
			continue
		case "/health":
			fmt.Fprint(out, rt.renderer.Health(rt.factory.HealthReport(ctx)))
			fmt.Fprintln(out, rt.renderer.Agents(rt.orchestrator.Registry().Statuses(ctx)))
			continue
		case "/trace":
			rt.trace = !rt.trace
			fmt.Fprintf(out, "trace %s\n", onOff(rt.trace))
			continue
		case "/session":
			fmt.Fprintln(out, rt.session)
			continue
		}

		fmt.Fprint(out, rt.ask(ctx, line))
	}
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
