// Package render turns orchestrator replies, traces and health reports into
// terminal output.
package render

import (
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"salesdesk/internal/domain"
)

const (
	defaultWidth  = 80
	maxDetailRune = 60
)

// Renderer formats output for a terminal. A plain renderer emits markdown
// and uncolored text, which suits pipes and tests.
type Renderer struct {
	width   int
	plain   bool
	symbols symbolSet
	md      *glamour.TermRenderer
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithWidth sets the word-wrap width.
func WithWidth(width int) Option {
	return func(r *Renderer) {
		if width > 0 {
			r.width = width
		}
	}
}

// WithPlain disables markdown styling and colors.
func WithPlain() Option {
	return func(r *Renderer) { r.plain = true }
}

// New creates a Renderer. If the markdown renderer cannot be built the
// Renderer falls back to plain markdown.
func New(opts ...Option) *Renderer {
	r := &Renderer{width: defaultWidth, symbols: detectSymbols()}
	for _, opt := range opts {
		opt(r)
	}
	if r.plain {
		r.symbols = asciiSymbols
		return r
	}
	md, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(r.width),
	)
	if err != nil {
		r.plain = true
		return r
	}
	r.md = md
	return r
}

// ReplyMarkdown is the markdown form of a reply: the body, then the
// suggestions as a "What next?" list.
func ReplyMarkdown(body string, suggestions []string) string {
	var sb strings.Builder
	sb.WriteString(strings.TrimRight(body, "\n"))
	if len(suggestions) > 0 {
		sb.WriteString("\n\n**What next?**\n")
		for _, s := range suggestions {
			sb.WriteString("\n- ")
			sb.WriteString(s)
		}
	}
	sb.WriteString("\n")
	return sb.String()
}

// Reply renders an orchestrator message.
func (r *Renderer) Reply(msg domain.Message) string {
	src := ReplyMarkdown(msg.Content, msg.Suggestions)
	if r.plain || r.md == nil {
		return src
	}
	out, err := r.md.Render(src)
	if err != nil {
		return src
	}
	return out
}

// Trace renders the audit trail as a table, one row per step.
func (r *Renderer) Trace(trace []domain.AgentTrace) string {
	if len(trace) == 0 {
		return ""
	}
	rows := make([][]string, 0, len(trace))
	for i, step := range trace {
		status := r.symbols.Success
		detail := step.Output
		if !step.Success {
			status = r.symbols.Error
			detail = step.Error
		}
		rows = append(rows, []string{
			fmt.Sprint(i + 1),
			string(step.AgentTag),
			step.Action,
			formatDuration(step.Duration),
			status,
			truncate(detail, maxDetailRune),
		})
	}

	t := table.New().
		Headers("#", "AGENT", "ACTION", "TIME", "OK", "DETAIL").
		Rows(rows...)
	if r.plain {
		return t.Border(lipgloss.ASCIIBorder()).String()
	}
	return t.
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorBorder)).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case row < 0 || row >= len(trace):
				return cellStyle
			case col == 4 && !trace[row].Success:
				return cellStyle.Inherit(textError)
			case col == 4:
				return cellStyle.Inherit(textSuccess)
			case col == 1:
				return cellStyle.Inherit(textAccent)
			default:
				return cellStyle
			}
		}).
		String()
}

// Health renders a health report with the orchestrator first and the
// workers in alphabetical order.
func (r *Renderer) Health(report map[string]bool) string {
	names := make([]string, 0, len(report))
	for name := range report {
		if name != string(domain.AgentOrchestrator) {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	if _, ok := report[string(domain.AgentOrchestrator)]; ok {
		names = append([]string{string(domain.AgentOrchestrator)}, names...)
	}

	var sb strings.Builder
	for _, name := range names {
		mark, state := r.symbols.Success, "healthy"
		if !report[name] {
			mark, state = r.symbols.Error, "unhealthy"
		}
		if !r.plain {
			if report[name] {
				mark = textSuccess.Render(mark)
			} else {
				mark = textError.Render(mark)
			}
			state = textMuted.Render(state)
		}
		fmt.Fprintf(&sb, "%s %-20s %s\n", mark, name, state)
	}
	return sb.String()
}

// Agents renders registered workers as a table of health and capabilities,
// in registration order.
func (r *Renderer) Agents(statuses []domain.AgentStatus) string {
	if len(statuses) == 0 {
		return ""
	}
	rows := make([][]string, 0, len(statuses))
	for _, st := range statuses {
		mark := r.symbols.Success
		if !st.Healthy {
			mark = r.symbols.Error
		}
		rows = append(rows, []string{string(st.Tag), mark, strings.Join(st.Capabilities, ", ")})
	}

	t := table.New().
		Headers("AGENT", "OK", "CAPABILITIES").
		Rows(rows...)
	if r.plain {
		return t.Border(lipgloss.ASCIIBorder()).String()
	}
	return t.
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorBorder)).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case row < 0 || row >= len(statuses):
				return cellStyle
			case col == 1 && !statuses[row].Healthy:
				return cellStyle.Inherit(textError)
			case col == 1:
				return cellStyle.Inherit(textSuccess)
			case col == 0:
				return cellStyle.Inherit(textAccent)
			default:
				return cellStyle
			}
		}).
		String()
}

// Healthy reports whether every entry in report is true.
func Healthy(report map[string]bool) bool {
	for _, ok := range report {
		if !ok {
			return false
		}
	}
	return len(report) > 0
}

func formatDuration(d time.Duration) string {
	switch {
	case d < time.Millisecond:
		return "<1ms"
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	default:
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n-1]) + "…"
}
