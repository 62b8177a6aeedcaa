package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"salesdesk/internal/domain"
)

// Run starts the chat program and blocks until the user quits or ctx is
// done. When bus is set, routing and task events for the model's session
// are shown as activity while a request is in flight.
func Run(ctx context.Context, m Model, bus domain.EventBus, opts ...tea.ProgramOption) error {
	opts = append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}, opts...)
	p := tea.NewProgram(m, opts...)

	if bus != nil {
		forward := func(_ context.Context, ev domain.Event) {
			if ev.SessionID != m.deps.SessionID {
				return
			}
			if text, ok := Activity(ev); ok {
				p.Send(ActivityMsg{Text: text})
			}
		}
		for _, t := range []domain.EventType{domain.EventAgentRouted, domain.EventTaskCompleted, domain.EventTaskFailed} {
			unsub := bus.Subscribe(t, forward)
			defer unsub()
		}
	}

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

// Activity describes a routing or task event in a few words. It reports
// false for events that carry nothing worth showing.
func Activity(ev domain.Event) (string, bool) {
	switch ev.Type {
	case domain.EventAgentRouted:
		var p domain.RoutedEventPayload
		if json.Unmarshal(ev.Payload, &p) != nil || p.Primary == "" {
			return "", false
		}
		if len(p.Supporting) == 0 || !p.Parallel {
			return fmt.Sprintf("Asking %s...", p.Primary), true
		}
		return fmt.Sprintf("Asking %s with %d supporting agents...", p.Primary, len(p.Supporting)), true

	case domain.EventTaskCompleted, domain.EventTaskFailed:
		var p domain.TaskEventPayload
		if json.Unmarshal(ev.Payload, &p) != nil || p.Agent == "" {
			return "", false
		}
		if ev.Type == domain.EventTaskFailed {
			return fmt.Sprintf("%s failed, composing reply...", p.Agent), true
		}
		return fmt.Sprintf("%s answered in %dms...", p.Agent, p.DurationMs), true
	}
	return "", false
}
