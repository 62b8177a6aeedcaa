package chat

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"salesdesk/internal/domain"
)

// askCmd runs ask in a background goroutine with a cancellable context.
// gen identifies the request so stale replies can be discarded.
func askCmd(ctx context.Context, ask func(context.Context, string) Exchange, message string, gen uint64) tea.Cmd {
	return func() tea.Msg {
		return ReplyMsg{Exchange: ask(ctx, message), Gen: gen}
	}
}

// healthCmd collects the health report and, when agents is set, the
// registered agents' capabilities.
func healthCmd(ctx context.Context, health func(context.Context) map[string]bool, agents func(context.Context) []domain.AgentStatus) tea.Cmd {
	return func() tea.Msg {
		msg := HealthMsg{Report: health(ctx)}
		if agents != nil {
			msg.Agents = agents(ctx)
		}
		return msg
	}
}
