package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/fyrsmithlabs/voicetask/internal/extraction"
	"github.com/fyrsmithlabs/voicetask/internal/service"
	"github.com/fyrsmithlabs/voicetask/internal/throttle"
)

var (
	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("51")).
			Bold(true).
			Padding(0, 1)

	sectionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("51")).
			Bold(true).
			MarginTop(1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("45")).
			Width(10)

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("231")).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	listeningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("226"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	containerStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("238")).
			Padding(1, 2)

	footerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			MarginTop(1)

	footerKeyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("51")).
			Bold(true)

	priorityStyles = map[extraction.Priority]lipgloss.Style{
		extraction.PriorityHigh:   lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
		extraction.PriorityMedium: lipgloss.NewStyle().Foreground(lipgloss.Color("226")).Bold(true),
		extraction.PriorityLow:    lipgloss.NewStyle().Foreground(lipgloss.Color("46")).Bold(true),
	}
)

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render("voicetask"))
	b.WriteString("\n\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")

	b.WriteString(m.statusView())
	b.WriteString(m.validationView())

	if m.result != nil {
		b.WriteString(resultView(m.result))
	}

	b.WriteString(m.footerView())
	return containerStyle.Render(b.String())
}

func (m Model) statusView() string {
	var lines []string

	switch {
	case m.listening:
		elapsed := m.now().Sub(m.listenStart)
		pct := float64(elapsed) / float64(m.maxDuration)
		if pct > 1 {
			pct = 1
		}
		lines = append(lines, listeningStyle.Render("● listening ")+m.listenBar.ViewAs(pct))
	case m.submitting:
		lines = append(lines, dimStyle.Render("processing..."))
	}

	if m.retryAfter > 0 {
		secs := throttle.Decision{RetryAfter: m.retryAfter}.RetryAfterSeconds()
		lines = append(lines, warningStyle.Render(fmt.Sprintf("wait %ds before submitting again", secs)))
	}
	if m.captureErr != "" {
		lines = append(lines, errorStyle.Render("capture error: "+string(m.captureErr)))
	}
	if m.err != nil {
		lines = append(lines, errorStyle.Render("processing failed, try again"))
	}
	if !m.session.Available() {
		lines = append(lines, dimStyle.Render("voice capture unavailable, type instead"))
	}

	if len(lines) == 0 {
		return ""
	}
	return "\n" + strings.Join(lines, "\n") + "\n"
}

func (m Model) validationView() string {
	var lines []string
	for _, e := range m.validation.Errors {
		lines = append(lines, errorStyle.Render("✗ "+e))
	}
	for _, w := range m.validation.Warnings {
		lines = append(lines, warningStyle.Render("⚠ "+w))
	}
	if len(lines) == 0 {
		return ""
	}
	return "\n" + strings.Join(lines, "\n") + "\n"
}

func resultView(resp *service.Response) string {
	var b strings.Builder
	b.WriteString(sectionStyle.Render("Task"))
	b.WriteString("\n")

	row := func(label, value string) {
		b.WriteString(labelStyle.Render(label))
		b.WriteString(value)
		b.WriteString("\n")
	}

	d := resp.Task
	row("Title", valueStyle.Render(d.Title))
	pStyle, ok := priorityStyles[d.Priority]
	if !ok {
		pStyle = valueStyle
	}
	row("Priority", pStyle.Render(string(d.Priority)))
	row("Category", valueStyle.Render(string(d.Category)))
	if d.DueDate != nil {
		due := d.DueDate.Format("Mon Jan 2 15:04")
		if phrase := resp.Analysis.Deadline.Phrase(); phrase != "" {
			due += dimStyle.Render(fmt.Sprintf(" (%q)", phrase))
		}
		row("Due", valueStyle.Render(due))
	} else {
		row("Due", dimStyle.Render("none"))
	}
	if d.ContactPerson != "" {
		row("Contact", valueStyle.Render(d.ContactPerson))
	}
	if resp.Record != nil {
		row("Saved", dimStyle.Render(resp.Record.ID+" at "+resp.Record.CreatedAt.Local().Format(time.Kitchen)))
	}
	return b.String()
}

func (m Model) footerView() string {
	keys := []struct{ key, desc string }{
		{"enter", "submit"},
		{"ctrl+r", "start/stop voice"},
		{"esc", "quit"},
	}
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = footerKeyStyle.Render(k.key) + " " + k.desc
	}
	return footerStyle.Render(strings.Join(parts, "  "))
}
