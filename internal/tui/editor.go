package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"rpgm-translator/internal/edit"
)

const defaultHeight = 24

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("69"))
	cursorStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	rawStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	changedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	helpStyle    = lipgloss.NewStyle().Faint(true)
	frameStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("62")).Padding(0, 1)
)

// saveResultMsg carries the outcome of a save back into the update loop.
type saveResultMsg struct {
	sessionID string
	ref       string
	err       error
}

// EditorModel is the interactive view over one edit session.
type EditorModel struct {
	ctx     context.Context
	session *edit.Session
	fields  []edit.Field
	cursor  int
	offset  int
	input   textinput.Model
	editing bool
	saving  bool
	status  string
	failed  bool
	ref     string
	closed  bool
	width   int
	height  int
}

func NewEditorModel(ctx context.Context, s *edit.Session) EditorModel {
	if ctx == nil {
		ctx = context.Background()
	}
	ti := textinput.New()
	ti.Placeholder = "Translated text"
	ti.CharLimit = 4000
	ti.Width = 60
	return EditorModel{
		ctx:     ctx,
		session: s,
		fields:  s.Fields(),
		input:   ti,
		width:   80,
		height:  defaultHeight,
	}
}

func (m EditorModel) Init() tea.Cmd {
	return nil
}

// SavedRef is the download reference produced by a successful save, or "".
func (m EditorModel) SavedRef() string { return m.ref }

// Closed reports whether the editor has finished, saved or not.
func (m EditorModel) Closed() bool { return m.closed }

func (m EditorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		w := msg.Width - 10
		if w > 100 {
			w = 100
		}
		if w < 20 {
			w = 20
		}
		m.input.Width = w
		m.scroll()
		return m, nil
	case saveResultMsg:
		return m.handleSaveResult(msg)
	case tea.KeyMsg:
		if m.editing {
			return m.updateEditing(msg)
		}
		return m.updateBrowsing(msg)
	}
	return m, nil
}

func (m EditorModel) updateBrowsing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q", "ctrl+c":
		return m.close()
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
			m.scroll()
		}
	case "down", "j":
		if m.cursor < len(m.fields)-1 {
			m.cursor++
			m.scroll()
		}
	case "enter":
		if m.saving || len(m.fields) == 0 {
			return m, nil
		}
		m.editing = true
		m.input.SetValue(m.fields[m.cursor].Translated)
		m.input.CursorEnd()
		cmd := m.input.Focus()
		return m, cmd
	case "ctrl+s":
		return m.save()
	}
	return m, nil
}

func (m EditorModel) updateEditing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.editing = false
		m.input.Blur()
		return m, nil
	case "enter":
		m.commit()
		return m, nil
	case "ctrl+s":
		m.commit()
		return m.save()
	case "ctrl+c":
		return m.close()
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *EditorModel) commit() {
	m.editing = false
	m.input.Blur()
	if err := m.session.SetTranslation(m.cursor, m.input.Value()); err != nil {
		m.status = err.Error()
		m.failed = true
		return
	}
	m.refresh()
}

func (m *EditorModel) refresh() {
	m.fields = m.session.Fields()
	if m.cursor >= len(m.fields) {
		m.cursor = len(m.fields) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m EditorModel) save() (tea.Model, tea.Cmd) {
	if m.saving {
		return m, nil
	}
	m.saving = true
	m.failed = false
	m.status = "Saving..."
	ctx, s := m.ctx, m.session
	return m, func() tea.Msg {
		ref, err := s.Save(ctx)
		return saveResultMsg{sessionID: s.ID(), ref: ref, err: err}
	}
}

func (m EditorModel) handleSaveResult(msg saveResultMsg) (tea.Model, tea.Cmd) {
	if msg.sessionID != m.session.ID() || m.closed {
		return m, nil
	}
	m.saving = false
	if msg.err != nil {
		if errors.Is(msg.err, edit.ErrSessionClosed) {
			m.closed = true
			return m, tea.Quit
		}
		m.status = "Save failed: " + msg.err.Error()
		m.failed = true
		return m, nil
	}
	m.ref = msg.ref
	m.closed = true
	m.status = "Saved."
	return m, tea.Quit
}

func (m EditorModel) close() (tea.Model, tea.Cmd) {
	m.session.Close()
	m.closed = true
	m.editing = false
	return m, tea.Quit
}

// visibleRows is how many entries fit, each taking three lines.
func (m EditorModel) visibleRows() int {
	n := (m.height - 8) / 3
	if n < 1 {
		n = 1
	}
	return n
}

func (m *EditorModel) scroll() {
	rows := m.visibleRows()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+rows {
		m.offset = m.cursor - rows + 1
	}
	if m.offset < 0 {
		m.offset = 0
	}
}

func (m EditorModel) View() string {
	if m.closed {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", titleStyle.Render(fmt.Sprintf("Edit translations: job %s", m.session.JobID())))
	fmt.Fprintf(&b, "%d editable of %d entries, %d changed\n\n", len(m.fields), m.session.Total(), m.session.Changed())

	if len(m.fields) == 0 {
		b.WriteString(rawStyle.Render("No editable entries."))
		b.WriteString("\n")
	}
	end := m.offset + m.visibleRows()
	if end > len(m.fields) {
		end = len(m.fields)
	}
	for i := m.offset; i < end; i++ {
		f := m.fields[i]
		marker := "  "
		header := fmt.Sprintf("%s (%d/%d) %s", f.Kind, f.Index, f.Total, f.File)
		if i == m.cursor {
			marker = cursorStyle.Render("> ")
			header = cursorStyle.Render(header)
		}
		if f.Changed {
			header += changedStyle.Render(" *")
		}
		fmt.Fprintf(&b, "%s%s\n", marker, header)
		fmt.Fprintf(&b, "    %s\n", rawStyle.Render("Raw: "+f.Raw))
		if i == m.cursor && m.editing {
			fmt.Fprintf(&b, "    %s\n", m.input.View())
		} else {
			fmt.Fprintf(&b, "    Translated: %s\n", f.Translated)
		}
	}

	b.WriteString("\n")
	if m.status != "" {
		if m.failed {
			b.WriteString(errorStyle.Render(m.status))
		} else {
			b.WriteString(m.status)
		}
		b.WriteString("\n")
	}
	if m.editing {
		b.WriteString(helpStyle.Render("enter apply  esc cancel  ctrl+s apply and save"))
	} else {
		b.WriteString(helpStyle.Render("up/down move  enter edit  ctrl+s save  esc close"))
	}
	return frameStyle.Render(b.String())
}

// RunEditor runs the editor full-screen and returns the new download
// reference, or "" if the user closed without saving.
func RunEditor(ctx context.Context, s *edit.Session) (string, error) {
	program := tea.NewProgram(NewEditorModel(ctx, s), tea.WithAltScreen(), tea.WithContext(ctx))
	final, err := program.Run()
	if err != nil {
		s.Close()
		return "", err
	}
	m, ok := final.(EditorModel)
	if !ok {
		return "", fmt.Errorf("unexpected editor model %T", final)
	}
	return m.SavedRef(), nil
}
