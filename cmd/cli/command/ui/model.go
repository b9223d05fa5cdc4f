package ui

// model.go = the interactive panel. Key handling only mutates parameters; their
// observers take care of sending.

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"navpanel/internal/panel"
	"navpanel/internal/param"
	"navpanel/internal/protocol"
	"navpanel/internal/schema"
	"navpanel/internal/transport"
)

const (
	coarseStep = param.Resolution / 100
	fineStep   = param.Resolution / 1000
)

// Session is what the panel needs from the running connection.
type Session interface {
	Reconnect(ctx context.Context, host string) (*panel.Panel, error)
	Stats() transport.Stats
}

type editField int

const (
	editNone editField = iota
	editValue
	editMin
	editMax
	editHost
)

func (f editField) String() string {
	switch f {
	case editValue:
		return "value"
	case editMin:
		return "min"
	case editMax:
		return "max"
	case editHost:
		return "host"
	}
	return ""
}

type reconnectedMsg struct {
	host  string
	panel *panel.Panel
	err   error
}

type tickMsg struct{}

// Model is the bubbletea model for the control panel.
type Model struct {
	title   string
	session Session
	panel   *panel.Panel

	focused int
	width   int

	editing editField
	input   textinput.Model

	status    string
	statusErr bool
	stats     transport.Stats
}

func NewModel(title string, p *panel.Panel, s Session) Model {
	ti := textinput.New()
	ti.Prompt = ""
	ti.CharLimit = 256
	ti.Width = 30

	if p == nil {
		p = panel.Build(nil)
	}
	m := Model{title: title, session: s, panel: p, input: ti, width: 80}
	if s != nil {
		m.stats = s.Stats()
	}
	return m
}

func (m Model) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg { return tickMsg{} })
}

func (m Model) focusedControl() (panel.Control, bool) {
	controls := m.panel.Controls()
	if m.focused < 0 || m.focused >= len(controls) {
		return panel.Control{}, false
	}
	return controls[m.focused], true
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tickMsg:
		if m.session != nil {
			m.stats = m.session.Stats()
		}
		return m, tick()

	case reconnectedMsg:
		if msg.err != nil {
			m.setError(fmt.Sprintf("connect to %s failed: %v", msg.host, msg.err))
			return m, nil
		}
		m.panel = msg.panel
		m.focused = 0
		m.setStatus("connected to " + msg.host)
		if m.session != nil {
			m.stats = m.session.Stats()
		}
		return m, nil

	case tea.KeyMsg:
		if m.editing != editNone {
			return m.updateEditing(msg)
		}
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	n := m.panel.Len()

	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "up", "k":
		if m.focused > 0 {
			m.focused--
		}
		return m, nil
	case "down", "j":
		if m.focused < n-1 {
			m.focused++
		}
		return m, nil
	case "c":
		return m.startEdit(editHost, m.stats.Host)
	}

	c, ok := m.focusedControl()
	if !ok {
		return m, nil
	}

	switch c.Kind {
	case schema.EntrySlider:
		r := c.Ranged
		switch msg.String() {
		case "left", "h":
			r.Step(-coarseStep)
		case "right", "l":
			r.Step(coarseStep)
		case "shift+left", "H":
			r.Step(-fineStep)
		case "shift+right", "L":
			r.Step(fineStep)
		case "home":
			r.SetPosition(0)
		case "end":
			r.SetPosition(param.Resolution)
		case "enter", "e":
			return m.startEdit(editValue, protocol.FormatNumber(r.Value()))
		case "m":
			return m.startEdit(editMin, protocol.FormatNumber(r.Min()))
		case "M":
			return m.startEdit(editMax, protocol.FormatNumber(r.Max()))
		}
	case schema.EntryCheckbox:
		switch msg.String() {
		case "enter", " ":
			c.Toggle.Flip()
		}
	case schema.EntryButton:
		switch msg.String() {
		case "enter", " ":
			c.Command.Fire()
			m.setStatus("sent " + c.Command.Payload())
		}
	}
	return m, nil
}

func (m Model) startEdit(field editField, initial string) (tea.Model, tea.Cmd) {
	m.editing = field
	m.input.SetValue(initial)
	m.input.CursorEnd()
	return m, m.input.Focus()
}

func (m Model) updateEditing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "ctrl+c":
		m.stopEdit()
		return m, nil
	case "enter":
		field := m.editing
		text := strings.TrimSpace(m.input.Value())
		m.stopEdit()
		return m.commitEdit(field, text)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) stopEdit() {
	m.editing = editNone
	m.input.Blur()
}

func (m Model) commitEdit(field editField, text string) (tea.Model, tea.Cmd) {
	if field == editHost {
		if text == "" || m.session == nil {
			return m, nil
		}
		m.setStatus("connecting to " + text + "...")
		s := m.session
		return m, func() tea.Msg {
			p, err := s.Reconnect(context.Background(), text)
			return reconnectedMsg{host: text, panel: p, err: err}
		}
	}

	c, ok := m.focusedControl()
	if !ok || c.Kind != schema.EntrySlider {
		return m, nil
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		m.setError(fmt.Sprintf("%s: %q is not a number", field, text))
		return m, nil
	}

	switch field {
	case editValue:
		c.Ranged.SetValue(v)
	case editMin:
		c.Ranged.SetMin(v)
	case editMax:
		c.Ranged.SetMax(v)
	}
	m.status = ""
	return m, nil
}

func (m *Model) setStatus(s string) {
	m.status = s
	m.statusErr = false
}

func (m *Model) setError(s string) {
	m.status = s
	m.statusErr = true
}

func (m Model) View() string {
	w := max(60, m.width-4)
	b := &strings.Builder{}

	conn := offlineStyle.Render("offline")
	if m.stats.Connected {
		conn = onlineStyle.Render("online")
	}
	host := m.stats.Host
	if host == "" {
		host = "-"
	}
	fmt.Fprintln(b, lipgloss.JoinHorizontal(lipgloss.Top,
		titleStyle.Render(m.title), "  ", conn, "  ",
		dimStyle.Render(fmt.Sprintf("%s  sent %d  failed %d", host, m.stats.MessagesSent, m.stats.SendFailures)),
	))

	if m.panel.Len() == 0 {
		fmt.Fprintln(b, sectionStyle.Render("No controls"))
		fmt.Fprintln(b, dimStyle.Render("  the control schema is missing or invalid, see the log"))
	}

	section := schema.EntryKind(-1)
	for i, c := range m.panel.Controls() {
		if c.Kind != section {
			section = c.Kind
			fmt.Fprintln(b, sectionStyle.Render(sectionTitle(section)))
		}
		focused := i == m.focused
		switch c.Kind {
		case schema.EntrySlider:
			line := renderSlider(c.Ranged, w)
			if focused {
				line = focusStyle.Render(line)
			}
			fmt.Fprintln(b, " "+line)
		case schema.EntryCheckbox:
			fmt.Fprintln(b, "  "+renderToggle(c.Toggle.Label(), c.Toggle.Value(), focused))
		case schema.EntryButton:
			fmt.Fprintln(b, renderButton(c.Command.Label(), focused))
		}
	}

	fmt.Fprintln(b, "")
	if m.editing != editNone {
		fmt.Fprintf(b, "%s: %s\n", focusStyle.Render("Set "+m.editing.String()), m.input.View())
		fmt.Fprintln(b, helpStyle.Render("enter apply  esc cancel"))
		return b.String()
	}
	if m.status != "" {
		if m.statusErr {
			fmt.Fprintln(b, errorStyle.Render(m.status))
		} else {
			fmt.Fprintln(b, dimStyle.Render(m.status))
		}
	}
	fmt.Fprintln(b, helpStyle.Render("↑/↓ navigate  ←/→ adjust  shift fine  enter toggle/fire/edit  m/M min/max  c connect  q quit"))
	return b.String()
}

func sectionTitle(k schema.EntryKind) string {
	switch k {
	case schema.EntryButton:
		return "Commands"
	case schema.EntryCheckbox:
		return "Toggles"
	default:
		return "Parameters"
	}
}
