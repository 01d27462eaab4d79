package views

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tgienger/mixreview/internal/ui/styles"
)

// MessageView is a terminal screen of the reviewer console: any key quits
type MessageView struct {
	title  string
	lines  []string
	styles *styles.Styles
	width  int
	height int
}

// NewNotFoundView is shown for a share link that resolves to no project
func NewNotFoundView(link string) *MessageView {
	return &MessageView{
		title: "Project not found",
		lines: []string{
			"The link " + link + " does not point to a project.",
			"It may have been deleted. Ask for a new link.",
		},
		styles: styles.NewStyles(),
	}
}

// NewErrorView is shown when the project could not be loaded at all
func NewErrorView(err error) *MessageView {
	return &MessageView{
		title:  "Could not load the project",
		lines:  []string{ErrorText(err)},
		styles: styles.NewStyles(),
	}
}

func (v *MessageView) Init() tea.Cmd { return nil }

func (v *MessageView) Restyle() { v.styles = styles.NewStyles() }

func (v *MessageView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
	case tea.KeyMsg:
		return v, tea.Quit
	}
	return v, nil
}

func (v *MessageView) View() string {
	s := v.styles
	rows := []string{s.Title.Foreground(styles.Current.Error).Render(v.title), ""}
	for _, l := range v.lines {
		rows = append(rows, s.TitleMuted.Render(l))
	}
	rows = append(rows, "", s.TitleMuted.Render("Press any key to quit"))

	centered := lipgloss.Place(styles.ContentWidth(v.width), v.height,
		lipgloss.Center, lipgloss.Center,
		lipgloss.JoinVertical(lipgloss.Center, rows...),
	)
	return styles.CenterView(centered, v.width, v.height)
}
