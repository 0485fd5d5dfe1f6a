// Package ui provides the terminal board viewer.
package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rlazarev/planner-go/internal/manager"
	"github.com/rlazarev/planner-go/internal/storage"
	"github.com/rlazarev/planner-go/internal/task"
)

const tickInterval = 2 * time.Second

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("62")).Padding(0, 1)
	tabActive     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205")).Padding(0, 1)
	tabInactive   = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Padding(0, 1)
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	statusStyles  = map[task.Status]lipgloss.Style{
		task.StatusNew:        lipgloss.NewStyle().Foreground(lipgloss.Color("220")),
		task.StatusInProgress: lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
		task.StatusDone:       lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
	}
)

var tabNames = []string{"Board", "Schedule", "History"}

// Run starts the viewer over the given store.
func Run(ctx context.Context, store *storage.FileStore) error {
	program := tea.NewProgram(newModel(store), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := program.Run()
	return err
}

type tickMsg time.Time

type model struct {
	store       *storage.FileStore
	tab         int
	snap        *manager.Snapshot
	prioritized []*task.Task
	width       int
}

func newModel(store *storage.FileStore) *model {
	m := &model{store: store}
	m.reload()
	return m
}

// reload reads through Snapshot so browsing never pollutes history.
func (m *model) reload() {
	mgr := m.store.Manager()
	m.snap = mgr.Snapshot()
	m.prioritized = mgr.Prioritized()
}

func (m *model) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	case tickMsg:
		m.reload()
		return m, tick()
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "tab", "right", "l":
			m.tab = (m.tab + 1) % len(tabNames)
		case "shift+tab", "left", "h":
			m.tab = (m.tab + len(tabNames) - 1) % len(tabNames)
		case "1", "2", "3":
			m.tab = int(msg.String()[0] - '1')
		case "r":
			m.reload()
		}
	}
	return m, nil
}

func (m *model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(" planner "))
	b.WriteString("  ")
	for i, name := range tabNames {
		style := tabInactive
		if i == m.tab {
			style = tabActive
		}
		b.WriteString(style.Render(name))
	}
	b.WriteString("\n\n")

	switch m.tab {
	case 0:
		m.renderBoard(&b)
	case 1:
		m.renderSchedule(&b)
	case 2:
		m.renderHistory(&b)
	}

	b.WriteString("\n")
	b.WriteString(dimStyle.Render("tab: switch view • r: reload • q: quit"))
	return b.String()
}

func (m *model) renderBoard(b *strings.Builder) {
	counts := map[task.Status]int{}
	for _, groups := range [][]*task.Task{m.snap.Tasks, m.snap.Subtasks} {
		for _, t := range groups {
			counts[t.Status]++
		}
	}
	fmt.Fprintf(b, "  %s %d   %s %d   %s %d\n\n",
		statusStyles[task.StatusNew].Render("new"), counts[task.StatusNew],
		statusStyles[task.StatusInProgress].Render("in progress"), counts[task.StatusInProgress],
		statusStyles[task.StatusDone].Render("done"), counts[task.StatusDone],
	)

	b.WriteString(headerStyle.Render("  Tasks"))
	b.WriteString("\n")
	if len(m.snap.Tasks) == 0 {
		b.WriteString(dimStyle.Render("    (none)") + "\n")
	}
	for _, t := range m.snap.Tasks {
		renderEntity(b, t, "    ")
	}

	b.WriteString("\n" + headerStyle.Render("  Epics") + "\n")
	if len(m.snap.Epics) == 0 {
		b.WriteString(dimStyle.Render("    (none)") + "\n")
	}
	children := map[int][]*task.Task{}
	for _, s := range m.snap.Subtasks {
		children[s.EpicID] = append(children[s.EpicID], s)
	}
	for _, e := range m.snap.Epics {
		renderEntity(b, e, "    ")
		for _, s := range children[e.ID] {
			renderEntity(b, s, "        ")
		}
	}
}

func (m *model) renderSchedule(b *strings.Builder) {
	b.WriteString(headerStyle.Render("  Scheduled, earliest first") + "\n")
	if len(m.prioritized) == 0 {
		b.WriteString(dimStyle.Render("    (nothing scheduled)") + "\n")
		return
	}
	for _, t := range m.prioritized {
		window := ""
		if t.Start != nil {
			window = t.Start.Format("2006-01-02 15:04")
			if end := t.EndTime(); end != nil {
				window += " – " + end.Format("15:04")
			}
		}
		fmt.Fprintf(b, "    %s  %s\n", dimStyle.Render(window), entityLine(t))
	}
}

func (m *model) renderHistory(b *strings.Builder) {
	b.WriteString(headerStyle.Render("  Recently viewed, oldest first") + "\n")
	if len(m.snap.History) == 0 {
		b.WriteString(dimStyle.Render("    (empty)") + "\n")
		return
	}
	for _, t := range m.snap.History {
		renderEntity(b, t, "    ")
	}
}

func renderEntity(b *strings.Builder, t *task.Task, indent string) {
	fmt.Fprintf(b, "%s%s\n", indent, entityLine(t))
}

func entityLine(t *task.Task) string {
	status := statusStyles[t.Status].Render(string(t.Status))
	return fmt.Sprintf("#%d %s %s %s", t.ID, t.Name, dimStyle.Render(strings.ToLower(string(t.Kind))), status)
}
