package views

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tgienger/mixreview/internal/ui/styles"
)

// prompt is a single-line modal input
type prompt struct {
	active   bool
	title    string
	label    string
	input    textinput.Model
	required bool
	err      string
	submit   func(value string) tea.Cmd
}

func newPrompt() prompt {
	in := textinput.New()
	in.CharLimit = 200
	return prompt{input: in}
}

func (p *prompt) open(title, label, value string, required bool, submit func(string) tea.Cmd) tea.Cmd {
	p.active = true
	p.title = title
	p.label = label
	p.required = required
	p.err = ""
	p.submit = submit
	p.input.Placeholder = label
	p.input.SetValue(value)
	p.input.CursorEnd()
	p.input.Focus()
	return textinput.Blink
}

func (p *prompt) close() {
	p.active = false
	p.input.Blur()
}

func (p *prompt) update(msg tea.Msg) tea.Cmd {
	if k, ok := msg.(tea.KeyMsg); ok {
		switch k.String() {
		case "esc":
			p.close()
			return nil
		case "enter", "ctrl+s":
			value := p.input.Value()
			if p.required && strings.TrimSpace(value) == "" {
				p.err = strings.ToLower(p.label) + " is required"
				return nil
			}
			p.close()
			return p.submit(value)
		}
	}
	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	return cmd
}

func (p *prompt) view(s *styles.Styles, width, height int) string {
	contentWidth := styles.ContentWidth(width)
	inputWidth := clamp(contentWidth-6, 20, 50)

	rows := []string{
		s.Title.Render(p.title),
		"",
		p.label + ":",
		s.InputFocused.Width(inputWidth).Render(p.input.View()),
	}
	if p.err != "" {
		rows = append(rows, "", s.StatusError.Render(p.err))
	}
	rows = append(rows, "", s.TitleMuted.Render("Enter: save • Esc: cancel"))

	centered := lipgloss.Place(contentWidth, height,
		lipgloss.Center, lipgloss.Center,
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
	return styles.CenterView(centered, width, height)
}

// confirm is a yes/no modal
type confirm struct {
	active bool
	title  string
	detail string
	yes    func() tea.Cmd
}

func (c *confirm) open(title, detail string, yes func() tea.Cmd) {
	c.active = true
	c.title = title
	c.detail = detail
	c.yes = yes
}

func (c *confirm) update(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "y", "Y":
		c.active = false
		return c.yes()
	case "n", "N", "esc":
		c.active = false
	}
	return nil
}

func (c *confirm) view(s *styles.Styles, width, height int) string {
	contentWidth := styles.ContentWidth(width)

	content := lipgloss.JoinVertical(lipgloss.Center,
		s.Title.Foreground(styles.Current.Error).Render(c.title),
		"",
		s.TitleMuted.Width(clamp(contentWidth-4, 20, 70)).Align(lipgloss.Center).Render(c.detail),
		"",
		lipgloss.JoinHorizontal(lipgloss.Center,
			s.ButtonPrimary.Render(" Y - Yes "),
			"  ",
			s.Button.Render(" N - No "),
		),
	)

	centered := lipgloss.Place(contentWidth, height,
		lipgloss.Center, lipgloss.Center,
		content,
	)
	return styles.CenterView(centered, width, height)
}
