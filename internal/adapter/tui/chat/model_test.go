package chat

import (
	"context"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesdesk/internal/adapter/render"
	"salesdesk/internal/domain"
)

type fakeDesk struct {
	asks    atomic.Int32
	healths atomic.Int32
}

func (f *fakeDesk) ask(_ context.Context, message string) Exchange {
	f.asks.Add(1)
	return Exchange{
		Reply: domain.Message{Content: "Here are your leads for: " + message, Suggestions: []string{"Draft an email"}},
		Trace: []domain.AgentTrace{{AgentTag: domain.AgentLeadResearch, Action: domain.ActionExecute, Success: true, Output: "3 leads"}},
	}
}

func (f *fakeDesk) health(context.Context) map[string]bool {
	f.healths.Add(1)
	return map[string]bool{"orchestrator": true, "analytics": false}
}

func (f *fakeDesk) agents(context.Context) []domain.AgentStatus {
	return []domain.AgentStatus{{Tag: domain.AgentAnalytics, Capabilities: []string{"campaign-reporting"}}}
}

func newTestModel(t *testing.T) (Model, *fakeDesk) {
	t.Helper()
	desk := &fakeDesk{}
	m := NewModel(Deps{
		Ask:       desk.ask,
		Health:    desk.health,
		Agents:    desk.agents,
		Renderer:  render.New(render.WithPlain()),
		SessionID: "sess-1",
	})
	return update(t, m, tea.WindowSizeMsg{Width: 100, Height: 40}), desk
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok)
	return out
}

// submit types value and presses Enter, returning the model and the command
// it produced.
func submit(t *testing.T, m Model, value string) (Model, tea.Cmd) {
	t.Helper()
	m.input.SetValue(value)
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	out, ok := next.(Model)
	require.True(t, ok)
	return out, cmd
}

func transcript(m Model) string {
	return strings.Join(m.transcript, "\n")
}

func TestModelInitializingView(t *testing.T) {
	m := NewModel(Deps{Renderer: render.New(render.WithPlain()), SessionID: "s"})
	assert.Equal(t, "  Initializing...", m.View())
	assert.NotNil(t, m.Init())
}

func TestModelAskRendersReply(t *testing.T) {
	m, desk := newTestModel(t)

	m, cmd := submit(t, m, "find CTOs at Acme Corp")
	require.NotNil(t, cmd)
	assert.True(t, m.waiting)
	assert.Empty(t, m.input.Value())
	assert.Contains(t, transcript(m), "find CTOs at Acme Corp")

	m = update(t, m, ActivityMsg{Text: "Asking lead-research..."})
	assert.Contains(t, m.View(), "Asking lead-research...")

	reply, ok := cmd().(ReplyMsg)
	require.True(t, ok)
	assert.Equal(t, int32(1), desk.asks.Load())

	m = update(t, m, reply)
	assert.False(t, m.waiting)
	assert.Contains(t, transcript(m), "Here are your leads for: find CTOs at Acme Corp")
	assert.Contains(t, transcript(m), "What next?")
	assert.NotContains(t, transcript(m), "3 leads", "trace is off by default")
}

func TestModelTraceToggle(t *testing.T) {
	m, _ := newTestModel(t)

	m, cmd := submit(t, m, "/trace")
	assert.Nil(t, cmd)
	assert.True(t, m.trace)
	assert.Contains(t, transcript(m), "Trace on.")
	assert.Contains(t, m.View(), "trace on")

	m, cmd = submit(t, m, "show me leads")
	m = update(t, m, cmd())
	assert.Contains(t, transcript(m), "3 leads")
}

func TestModelHealthCommand(t *testing.T) {
	m, desk := newTestModel(t)

	m, cmd := submit(t, m, "/health")
	require.NotNil(t, cmd)
	assert.False(t, m.waiting, "health does not block the input")

	msg, ok := cmd().(HealthMsg)
	require.True(t, ok)
	assert.Equal(t, int32(1), desk.healths.Load())

	m = update(t, m, msg)
	out := transcript(m)
	assert.Contains(t, out, "[ERR] analytics")
	assert.Contains(t, out, "campaign-reporting")
}

func TestModelSessionAndUnknownCommands(t *testing.T) {
	m, _ := newTestModel(t)

	m, _ = submit(t, m, "/session")
	assert.Contains(t, transcript(m), "Session sess-1")

	m, _ = submit(t, m, "/Nope extra")
	assert.Contains(t, transcript(m), "Unknown command: /nope")

	m, _ = submit(t, m, "/cancel")
	assert.Contains(t, transcript(m), "No active request to cancel.")

	m, _ = submit(t, m, "/clear")
	assert.Len(t, m.transcript, 1)
}

func TestModelQuitCommands(t *testing.T) {
	for _, input := range []string{"/quit", "/exit"} {
		m, _ := newTestModel(t)
		m, cmd := submit(t, m, input)
		require.NotNil(t, cmd, input)
		assert.IsType(t, tea.QuitMsg{}, cmd(), input)
		assert.Equal(t, "Goodbye!\n", m.View())
	}

	m, _ := newTestModel(t)
	next, cmd := m.Update(QuitMsg{})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.True(t, next.(Model).quitting)
}

func TestModelCancelDropsStaleReply(t *testing.T) {
	m, _ := newTestModel(t)

	m, cmd := submit(t, m, "plan a campaign")
	require.True(t, m.waiting)

	next, quitCmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	m = next.(Model)
	assert.Nil(t, quitCmd, "the first Ctrl+C only cancels")
	assert.False(t, m.waiting)
	assert.Contains(t, transcript(m), "Request cancelled.")

	before := len(m.transcript)
	m = update(t, m, cmd())
	assert.Len(t, m.transcript, before, "reply to the cancelled request is dropped")

	_, quitCmd = m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, quitCmd)
	assert.IsType(t, tea.QuitMsg{}, quitCmd())
}

func TestModelCancelAbortsAskContext(t *testing.T) {
	started := make(chan struct{})
	done := make(chan error, 1)
	m := NewModel(Deps{
		Ask: func(ctx context.Context, _ string) Exchange {
			close(started)
			<-ctx.Done()
			done <- ctx.Err()
			return Exchange{}
		},
		Renderer:  render.New(render.WithPlain()),
		SessionID: "s",
	})
	m = update(t, m, tea.WindowSizeMsg{Width: 80, Height: 20})

	m, cmd := submit(t, m, "slow question")
	go cmd()
	<-started

	m = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, m.waiting)
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("ask context was not cancelled")
	}
}

func TestModelIgnoresEnterWhileWaiting(t *testing.T) {
	m, desk := newTestModel(t)

	m, _ = submit(t, m, "first")
	m, cmd := submit(t, m, "second")
	assert.Nil(t, cmd)
	assert.NotContains(t, transcript(m), "second")
	assert.Zero(t, desk.asks.Load())
}

func TestModelActivityIgnoredWhenIdle(t *testing.T) {
	m, _ := newTestModel(t)
	m = update(t, m, ActivityMsg{Text: "late event"})
	assert.Empty(t, m.activity)
}
