package render

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesdesk/internal/domain"
)

func TestReplyMarkdown(t *testing.T) {
	got := ReplyMarkdown("Here are some leads:\n\nLEADS\n", []string{"Refine the search", "Draft a message"})
	want := "Here are some leads:\n\nLEADS\n\n**What next?**\n\n- Refine the search\n- Draft a message\n"
	assert.Equal(t, want, got)

	assert.Equal(t, "just text\n", ReplyMarkdown("just text", nil))
}

func TestPlainReplyIsMarkdown(t *testing.T) {
	r := New(WithPlain())
	msg := domain.Message{Content: "Body", Suggestions: []string{"Next"}}
	assert.Equal(t, ReplyMarkdown("Body", []string{"Next"}), r.Reply(msg))
}

func TestStyledReplyKeepsText(t *testing.T) {
	r := New(WithWidth(60))
	out := r.Reply(domain.Message{Content: "Start with a saved search", Suggestions: []string{"Export leads"}})
	assert.Contains(t, out, "saved search")
	assert.Contains(t, out, "Export leads")
}

func TestTrace(t *testing.T) {
	r := New(WithPlain())
	out := r.Trace([]domain.AgentTrace{
		{AgentTag: domain.AgentOrchestrator, Action: domain.ActionClassify, Output: "lead-generation (0.40)", Duration: 300 * time.Microsecond, Success: true},
		{AgentTag: domain.AgentLeadResearch, Action: domain.ActionExecute, Error: "timed out", Duration: 1500 * time.Millisecond},
	})

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.GreaterOrEqual(t, len(lines), 4)
	assert.Contains(t, out, "AGENT")
	assert.Contains(t, out, "lead-generation (0.40)")
	assert.Contains(t, out, "[OK]")
	assert.Contains(t, out, "[ERR]")
	assert.Contains(t, out, "timed out")
	assert.Contains(t, out, "1.5s")
	assert.Contains(t, out, "<1ms")

	assert.Empty(t, r.Trace(nil))
}

func TestHealth(t *testing.T) {
	r := New(WithPlain())
	out := r.Health(map[string]bool{
		"knowledge-base": true,
		"orchestrator":   true,
		"analytics":      false,
	})
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "[OK] orchestrator"))
	assert.True(t, strings.HasPrefix(lines[1], "[ERR] analytics"))
	assert.Contains(t, lines[1], "unhealthy")
	assert.Contains(t, lines[2], "knowledge-base")
}

func TestAgents(t *testing.T) {
	r := New(WithPlain())
	out := r.Agents([]domain.AgentStatus{
		{Tag: domain.AgentLeadResearch, Healthy: true, Capabilities: []string{"prospect-search", "lead-scoring"}},
		{Tag: domain.AgentAnalytics, Healthy: false, Capabilities: []string{"reporting"}},
	})
	assert.Contains(t, out, "CAPABILITIES")
	assert.Contains(t, out, "prospect-search, lead-scoring")
	assert.Less(t, strings.Index(out, "lead-research"), strings.Index(out, "analytics"), "registration order")
	assert.Contains(t, out, "[ERR]")
	assert.Empty(t, r.Agents(nil))
}

func TestHealthy(t *testing.T) {
	assert.True(t, Healthy(map[string]bool{"orchestrator": true, "analytics": true}))
	assert.False(t, Healthy(map[string]bool{"orchestrator": true, "analytics": false}))
	assert.False(t, Healthy(nil))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "a b", truncate("a\n  b", 10))
	assert.Equal(t, "abcd…", truncate("abcdefgh", 5))
}

func TestDetectSymbols(t *testing.T) {
	t.Setenv("SALESDESK_ASCII_SYMBOLS", "1")
	assert.Equal(t, asciiSymbols, detectSymbols())

	t.Setenv("SALESDESK_ASCII_SYMBOLS", "")
	t.Setenv("LC_ALL", "en_US.UTF-8")
	assert.Equal(t, unicodeSymbols, detectSymbols())

	t.Setenv("LC_ALL", "C")
	assert.Equal(t, asciiSymbols, detectSymbols())
}
