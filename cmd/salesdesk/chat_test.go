package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesdesk/internal/adapter/tui/chat"
	"salesdesk/internal/domain"
	"salesdesk/internal/infra/config"
)

func newTestRuntime(t *testing.T, flags cliFlags) *runtime {
	t.Helper()
	cfg := config.Defaults()
	cfg.Logger.Output = "discard"
	flags.Plain = true

	rt, err := initRuntimeWithConfig(context.Background(), cfg, flags)
	require.NoError(t, err)
	t.Cleanup(func() { rt.close() })
	return rt
}

func TestRuntimeAnswersOffline(t *testing.T) {
	rt := newTestRuntime(t, cliFlags{SessionID: "s-offline", UserName: "Dana", Company: "Acme"})

	out := rt.ask(context.Background(), "Find CTO leads at fintech companies in Berlin")
	assert.NotEmpty(t, strings.TrimSpace(out))
	assert.NotContains(t, out, "something went wrong")

	conv, err := rt.orchestrator.Store().Get("s-offline")
	require.NoError(t, err)
	assert.Equal(t, 2, conv.Len())
	assert.Equal(t, "Acme", conv.Snapshot().UserProfile.Company)
}

func TestRuntimeGeneratesSessionID(t *testing.T) {
	rt := newTestRuntime(t, cliFlags{})
	assert.NotEmpty(t, rt.session)
	assert.Equal(t, "local", rt.seed.UserID)
	assert.Nil(t, rt.seed.UserProfile)
}

func TestRuntimeTraceOutput(t *testing.T) {
	rt := newTestRuntime(t, cliFlags{Trace: true})
	out := rt.ask(context.Background(), "Write a cold email for our analytics product")
	assert.Contains(t, out, "AGENT")
	assert.Contains(t, out, "orchestrator")
}

func TestRuntimeDisabledAgentsAreSkipped(t *testing.T) {
	cfg := config.Defaults()
	cfg.Logger.Output = "discard"
	cfg.Orchestrator.DisabledAgents = []string{"analytics"}

	rt, err := initRuntimeWithConfig(context.Background(), cfg, cliFlags{Plain: true})
	require.NoError(t, err)
	defer rt.close()

	report := rt.factory.HealthReport(context.Background())
	assert.Len(t, report, 6)
	assert.NotContains(t, report, "analytics")
}

func TestChatLoop(t *testing.T) {
	rt := newTestRuntime(t, cliFlags{SessionID: "s-chat"})

	in := strings.NewReader("/session\n\nHow do I improve my reply rate?\n/trace\n/health\n/quit\nnever read\n")
	var out bytes.Buffer
	require.NoError(t, chatLoop(context.Background(), rt, in, &out))

	got := out.String()
	assert.Contains(t, got, "s-chat")
	assert.Contains(t, got, "trace on")
	assert.Contains(t, got, "healthy")
	assert.True(t, rt.trace)

	conv, err := rt.orchestrator.Store().Get("s-chat")
	require.NoError(t, err)
	assert.Equal(t, 2, conv.Len(), "only the one real message is processed")
}

func TestChatModelUsesRuntime(t *testing.T) {
	rt := newTestRuntime(t, cliFlags{SessionID: "s-tui"})
	var m tea.Model = chatModel(rt)
	m, _ = m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("How do I improve my reply rate?")})
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)

	reply, ok := cmd().(chat.ReplyMsg)
	require.True(t, ok)
	assert.NotEmpty(t, reply.Exchange.Reply.Content)
	assert.NotEmpty(t, reply.Exchange.Trace)

	m, _ = m.Update(reply)
	assert.Contains(t, m.View(), "s-tui")

	conv, err := rt.orchestrator.Store().Get("s-tui")
	require.NoError(t, err)
	assert.Equal(t, 2, conv.Len())
}

func TestRuntimeBusDeliversBeforeReply(t *testing.T) {
	rt := newTestRuntime(t, cliFlags{SessionID: "s-bus"})
	var activity []string
	rt.bus.Subscribe(domain.EventAgentRouted, func(_ context.Context, ev domain.Event) {
		if text, ok := chat.Activity(ev); ok {
			activity = append(activity, text)
		}
	})

	rt.ask(context.Background(), "Find CTO leads at fintech companies in Berlin")
	require.Len(t, activity, 1, "routing activity is delivered before ask returns")
	assert.True(t, strings.HasPrefix(activity[0], "Asking "), activity[0])
}

func TestChatLoopStopsAtEOF(t *testing.T) {
	rt := newTestRuntime(t, cliFlags{})
	var out bytes.Buffer
	require.NoError(t, chatLoop(context.Background(), rt, strings.NewReader(""), &out))
	assert.Equal(t, prompt+"\n", out.String())
}

func TestChatLoopStopsOnCancel(t *testing.T) {
	rt := newTestRuntime(t, cliFlags{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// The reader never returns, so only ctx can end the loop.
	blocked := &blockingReader{done: make(chan struct{})}
	defer close(blocked.done)

	var out bytes.Buffer
	require.NoError(t, chatLoop(ctx, rt, blocked, &out))
}

func TestHealthReportTask(t *testing.T) {
	rt := newTestRuntime(t, cliFlags{})
	task := healthReportTask(rt)
	assert.Equal(t, "@every 5m", task.Schedule)
	assert.NoError(t, task.Run(context.Background()))

	require.NoError(t, rt.factory.Shutdown(context.Background()))
	assert.Error(t, task.Run(context.Background()), "orchestrator is down after shutdown")
}

type blockingReader struct {
	done chan struct{}
}

func (r *blockingReader) Read([]byte) (int, error) {
	<-r.done
	return 0, context.Canceled
}
