package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"salesdesk/internal/adapter/render"
	"salesdesk/internal/domain"
)

const helpText = `Commands:
  /health    Show agent health and capabilities
  /trace     Toggle the agent trace under each reply
  /session   Show the session id
  /cancel    Cancel the active request
  /clear     Clear the screen (the session is kept)
  /quit      Leave

Keys:
  Enter      Send message
  Esc        Cancel the active request
  PgUp/PgDn  Scroll
  Ctrl+C     Cancel, then quit`

var (
	styleUser    = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#1565c0", Dark: "#64b5f6"}).Bold(true)
	styleSystem  = lipgloss.NewStyle().Faint(true)
	styleDivider = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#bdbdbd", Dark: "#424242"})
	styleStatus  = lipgloss.NewStyle().Faint(true)
)

// Deps are the chat model's collaborators.
type Deps struct {
	Ask       func(ctx context.Context, message string) Exchange
	Health    func(ctx context.Context) map[string]bool
	Agents    func(ctx context.Context) []domain.AgentStatus // optional
	Renderer  *render.Renderer
	SessionID string
	Trace     bool // show the agent trace under each reply
}

// Model is the root Bubble Tea model for the chat view.
type Model struct {
	deps Deps

	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model

	transcript []string
	ready      bool
	width      int
	height     int
	quitting   bool

	waiting  bool
	activity string
	trace    bool

	// gen is incremented on every request; replies with an older gen are
	// discarded.
	gen      uint64
	cancelFn context.CancelFunc
}

// NewModel creates the chat model.
func NewModel(deps Deps) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot

	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask about leads, campaigns, content or metrics"
	ti.CharLimit = 4000
	ti.Focus()

	return Model{
		deps:    deps,
		input:   ti,
		spinner: s,
		trace:   deps.Trace,
		transcript: []string{
			styleSystem.Render(fmt.Sprintf("salesdesk session %s. Type /help for commands.", deps.SessionID)),
		},
	}
}

// Init starts the spinner and the cursor blink.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, textinput.Blink)
}

// Update handles all incoming messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case ReplyMsg:
		if msg.Gen != m.gen {
			return m, nil
		}
		m.finishRequest()
		out := m.deps.Renderer.Reply(msg.Exchange.Reply)
		if m.trace && len(msg.Exchange.Trace) > 0 {
			out += "\n" + m.deps.Renderer.Trace(msg.Exchange.Trace)
		}
		m.appendLine(strings.TrimRight(out, "\n"))
		return m, nil

	case HealthMsg:
		out := m.deps.Renderer.Health(msg.Report)
		if len(msg.Agents) > 0 {
			out += m.deps.Renderer.Agents(msg.Agents)
		}
		m.appendLine(strings.TrimRight(out, "\n"))
		return m, nil

	case ActivityMsg:
		if m.waiting {
			m.activity = msg.Text
		}
		return m, nil

	case QuitMsg:
		return m.quit()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	if !m.waiting {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
	}
	if m.ready {
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

// View renders the transcript, the input line and the status line.
func (m Model) View() string {
	if m.quitting {
		return "Goodbye!\n"
	}
	if !m.ready {
		return "  Initializing..."
	}

	inputView := m.input.View()
	if m.waiting {
		activity := m.activity
		if activity == "" {
			activity = "Thinking..."
		}
		inputView = m.spinner.View() + " " + activity
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.viewport.View(),
		styleDivider.Render(strings.Repeat("─", max(m.width, 1))),
		inputView,
		styleStatus.Render(m.statusLine()),
	)
}

func (m Model) statusLine() string {
	return fmt.Sprintf("session %s  trace %s  /help", m.deps.SessionID, onOff(m.trace))
}

// layout sizes the viewport to everything above the divider, input and
// status lines.
func (m *Model) layout() {
	h := max(m.height-3, 3)
	if !m.ready {
		m.viewport = viewport.New(m.width, h)
		m.ready = true
	} else {
		m.viewport.Width = m.width
		m.viewport.Height = h
	}
	m.input.Width = max(m.width-len(m.input.Prompt)-1, 10)
	m.refresh()
}

func (m *Model) refresh() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(strings.Join(m.transcript, "\n"))
	m.viewport.GotoBottom()
}

func (m *Model) appendLine(s string) {
	m.transcript = append(m.transcript, s)
	m.refresh()
}

func (m *Model) system(s string) {
	m.appendLine(styleSystem.Render(s))
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		if m.waiting {
			m.cancelRequest("Request cancelled.")
			return m, nil
		}
		return m.quit()

	case tea.KeyEsc:
		if m.waiting {
			m.cancelRequest("Request cancelled.")
		}
		return m, nil

	case tea.KeyPgUp, tea.KeyPgDown:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case tea.KeyEnter:
		if m.waiting {
			return m, nil
		}
		value := strings.TrimSpace(m.input.Value())
		m.input.Reset()
		return m.handleSubmit(value)
	}

	if m.waiting {
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleSubmit(value string) (tea.Model, tea.Cmd) {
	if value == "" {
		return m, nil
	}
	if strings.HasPrefix(value, "/") {
		return m.handleSlashCommand(strings.ToLower(strings.Fields(value)[0]))
	}

	m.appendLine(styleUser.Render("you ") + value)

	m.gen++
	ctx, cancel := context.WithCancel(context.Background())
	m.cancelFn = cancel
	m.waiting = true
	m.activity = ""
	return m, askCmd(ctx, m.deps.Ask, value, m.gen)
}

func (m Model) handleSlashCommand(cmd string) (tea.Model, tea.Cmd) {
	switch cmd {
	case "/help":
		m.system(helpText)
		return m, nil

	case "/quit", "/exit":
		return m.quit()

	case "/health":
		return m, healthCmd(context.Background(), m.deps.Health, m.deps.Agents)

	case "/trace":
		m.trace = !m.trace
		m.system("Trace " + onOff(m.trace) + ".")
		return m, nil

	case "/session":
		m.system("Session " + m.deps.SessionID)
		return m, nil

	case "/clear":
		m.transcript = nil
		m.system("Screen cleared. The session is kept.")
		return m, nil

	case "/cancel":
		if m.waiting {
			m.cancelRequest("Request cancelled.")
		} else {
			m.system("No active request to cancel.")
		}
		return m, nil

	default:
		m.system(fmt.Sprintf("Unknown command: %s. Type /help for available commands.", cmd))
		return m, nil
	}
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	m.finishRequest()
	m.quitting = true
	return m, tea.Quit
}

// cancelRequest abandons the in-flight request. Its reply, if it still
// arrives, carries an older gen and is dropped.
func (m *Model) cancelRequest(reason string) {
	m.gen++
	m.finishRequest()
	m.system(reason)
}

func (m *Model) finishRequest() {
	if m.cancelFn != nil {
		m.cancelFn()
		m.cancelFn = nil
	}
	m.waiting = false
	m.activity = ""
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
