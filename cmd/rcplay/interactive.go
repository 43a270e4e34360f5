package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/rcell/arc"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	strongStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	weakStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	deadStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			Strikethrough(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

// slot is one handle owned by the inspector. Exactly one field is set.
type slot struct {
	strong *arc.Strong[int]
	weak   *arc.Weak[int]
}

func (s slot) release() {
	if s.strong != nil {
		s.strong.Release()
	}
	if s.weak != nil {
		s.weak.Release()
	}
}

type interactiveModel struct {
	err      error
	env      *env
	status   string
	slots    []slot
	input    textinput.Model
	selected int
	editing  bool
}

func newInteractiveModel(e *env) *interactiveModel {
	ti := textinput.New()
	ti.Placeholder = "int"
	ti.Prompt = "value: "
	ti.Width = 20
	return &interactiveModel{env: e, input: ti}
}

func (m *interactiveModel) Init() tea.Cmd {
	return nil
}

func (m *interactiveModel) current() (slot, bool) {
	if m.selected < 0 || m.selected >= len(m.slots) {
		return slot{}, false
	}
	return m.slots[m.selected], true
}

func (m *interactiveModel) add(s slot) {
	m.slots = append(m.slots, s)
	m.selected = len(m.slots) - 1
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	if m.editing {
		return m.updateEditing(key)
	}

	m.err = nil
	m.status = ""
	cur, hasCur := m.current()

	switch key.String() {
	case "ctrl+c", "q":
		for _, s := range m.slots {
			s.release()
		}
		m.slots = nil
		return m, tea.Quit

	case "up", "k":
		if m.selected > 0 {
			m.selected--
		}

	case "down", "j":
		if m.selected < len(m.slots)-1 {
			m.selected++
		}

	case "n":
		m.add(slot{strong: arc.New(0, arc.WithAllocator(m.env.tracker))})
		m.status = "new cell"

	case "c":
		switch {
		case hasCur && cur.strong != nil:
			m.add(slot{strong: cur.strong.Clone()})
		case hasCur:
			m.add(slot{weak: cur.weak.Clone()})
		}

	case "d":
		if hasCur && cur.strong != nil {
			m.add(slot{weak: cur.strong.Downgrade()})
		} else {
			m.err = fmt.Errorf("select a strong handle to downgrade")
		}

	case "u":
		if !hasCur || cur.weak == nil {
			m.err = fmt.Errorf("select a weak handle to upgrade")
			break
		}
		if s, ok := cur.weak.Upgrade(); ok {
			m.add(slot{strong: s})
		} else {
			m.status = "upgrade failed: value already dropped"
		}

	case "r":
		if !hasCur {
			break
		}
		cur.release()
		m.slots = append(m.slots[:m.selected], m.slots[m.selected+1:]...)
		if m.selected >= len(m.slots) && m.selected > 0 {
			m.selected--
		}
		m.status = "released"

	case "+":
		if hasCur && cur.strong != nil {
			*cur.strong.MutUnchecked()++
		} else {
			m.err = fmt.Errorf("select a strong handle to mutate")
		}

	case "e":
		if hasCur && cur.strong != nil {
			m.editing = true
			m.input.SetValue(strconv.Itoa(cur.strong.Load()))
			m.input.Focus()
			return m, textinput.Blink
		}
		m.err = fmt.Errorf("select a strong handle to edit")
	}

	return m, nil
}

func (m *interactiveModel) updateEditing(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key.String() {
	case "esc":
		m.editing = false
		m.input.Blur()
		return m, nil

	case "enter":
		m.editing = false
		m.input.Blur()
		v, err := strconv.Atoi(strings.TrimSpace(m.input.Value()))
		if err != nil {
			m.err = fmt.Errorf("invalid value: %w", err)
			return m, nil
		}
		if cur, ok := m.current(); ok && cur.strong != nil {
			cur.strong.Set(v)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(key)
	return m, cmd
}

func (m *interactiveModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("rcell inspector"))
	b.WriteString("\n\n")

	if len(m.slots) == 0 {
		b.WriteString("No handles. Press n to create a cell.\n")
	}
	for i, s := range m.slots {
		line := m.formatSlot(s)
		if i == m.selected {
			b.WriteString(selectedStyle.Render("> " + line))
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	stats := m.env.heap.Stats()
	b.WriteString(fmt.Sprintf("blocks allocated %d, live values %d, live blocks %d\n",
		stats.Allocations, stats.LiveValues, stats.LiveBlocks))

	if m.editing {
		b.WriteString("\n")
		b.WriteString(m.input.View())
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter set • esc cancel"))
		return b.String()
	}

	if m.err != nil {
		b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		b.WriteString("\n")
	} else if m.status != "" {
		b.WriteString(m.status)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("n new • c clone • d downgrade • u upgrade • r release • + increment • e edit • q quit"))
	return b.String()
}

func (m *interactiveModel) formatSlot(s slot) string {
	if s.strong != nil {
		c := s.strong.Counts()
		return strongStyle.Render(fmt.Sprintf("strong %s", s.strong.Identity())) +
			fmt.Sprintf("  value=%d strong=%d weak=%d", s.strong.Load(), c.Strong, c.Weak)
	}

	label := weakStyle.Render(fmt.Sprintf("weak   %s", s.weak.Identity()))
	if !s.weak.Upgradable() {
		return label + "  " + deadStyle.Render("value dropped")
	}
	c := s.weak.Counts()
	return label + fmt.Sprintf("  strong=%d weak=%d", c.Strong, c.Weak)
}

func runInteractive(e *env) error {
	p := tea.NewProgram(newInteractiveModel(e), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
