package views

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/tgienger/mixreview/internal/models"
	"github.com/tgienger/mixreview/internal/ui/keys"
	"github.com/tgienger/mixreview/internal/ui/styles"
)

type projectItem struct {
	project models.ProjectSummary
}

func (i projectItem) Title() string { return i.project.Title }
func (i projectItem) Description() string {
	return fmt.Sprintf("%s • %s • created %s",
		plural(i.project.SongCount, "song"),
		plural(i.project.CommentCount, "comment"),
		humanize.Time(i.project.CreatedAt),
	)
}
func (i projectItem) FilterValue() string { return i.project.Title }

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return humanize.Comma(int64(n)) + " " + noun + "s"
}

type projectDelegate struct {
	styles *styles.Styles
	width  int
}

func (d projectDelegate) Height() int                               { return 2 }
func (d projectDelegate) Spacing() int                              { return 1 }
func (d projectDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }

func (d projectDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	p, ok := item.(projectItem)
	if !ok {
		return
	}

	selected := index == m.Index()
	width := max(d.width-4, 20)

	var titleStyle, descStyle lipgloss.Style
	if selected {
		titleStyle = d.styles.ListSelected.Width(width)
		descStyle = d.styles.ListSelected.Foreground(styles.Current.ForegroundDim).Width(width)
	} else {
		titleStyle = d.styles.ListItem.Width(width)
		descStyle = d.styles.ListItem.Foreground(styles.Current.ForegroundDim).Width(width)
	}

	fmt.Fprintf(w, "%s\n%s", titleStyle.Render(p.Title()), descStyle.Render(p.Description()))
}

// ProjectListView is the admin landing page
type ProjectListView struct {
	env      *Env
	list     list.Model
	delegate *projectDelegate
	styles   *styles.Styles
	keys     keys.KeyMap
	width    int
	height   int
	loaded   bool
	status   string

	// Create and rename share one single-field form
	editing   bool
	renaming  bool
	renameID  string
	nameInput textinput.Model
	focusIdx  int // 0=name, 1=confirm
	formError string

	confirmingDelete bool
	deleteTargetID   string
	deleteTargetName string

	showHelpPopup bool
}

// NewProjectListView creates the admin project list
func NewProjectListView(env *Env) *ProjectListView {
	s := styles.NewStyles()

	nameInput := textinput.New()
	nameInput.Placeholder = "Project title"
	nameInput.CharLimit = 200

	delegate := &projectDelegate{styles: s, width: 80}

	l := list.New([]list.Item{}, delegate, 0, 0)
	l.Title = "Projects"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)
	l.Styles.Title = s.Title
	l.SetShowHelp(false)

	return &ProjectListView{
		env:       env,
		list:      l,
		delegate:  delegate,
		styles:    s,
		keys:      keys.DefaultKeyMap(),
		nameInput: nameInput,
	}
}

// Restyle picks up the current theme
func (v *ProjectListView) Restyle() {
	s := styles.NewStyles()
	v.styles = s
	v.delegate.styles = s
	v.list.Styles.Title = s.Title
}

func (v *ProjectListView) Init() tea.Cmd {
	return v.loadProjects
}

type projectsLoadedMsg struct {
	projects []models.ProjectSummary
}

type projectSavedMsg struct {
	id  string
	err error
}

func (v *ProjectListView) loadProjects() tea.Msg {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	projects, err := v.env.API.ListProjects(ctx)
	if err != nil {
		return StatusMsg{Err: err}
	}
	return projectsLoadedMsg{projects: projects}
}

func (v *ProjectListView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		contentWidth := styles.ContentWidth(msg.Width)
		v.delegate.width = contentWidth
		v.list.SetSize(contentWidth-4, msg.Height-6)
		return v, nil

	case projectsLoadedMsg:
		items := make([]list.Item, len(msg.projects))
		for i, p := range msg.projects {
			items[i] = projectItem{project: p}
		}
		v.list.SetItems(items)
		v.loaded = true
		return v, nil

	case projectSavedMsg:
		if msg.err != nil {
			v.formError = ErrorText(msg.err)
			return v, nil
		}
		v.editing = false
		if v.renaming {
			v.renaming = false
			v.env.Cache.Invalidate(msg.id)
			return v, v.loadProjects
		}
		id := msg.id
		return v, func() tea.Msg { return SelectedProject{Key: id} }

	case StatusMsg:
		v.loaded = true
		if msg.Err != nil {
			v.status = ErrorText(msg.Err)
		} else {
			v.status = msg.Text
		}
		return v, nil

	case tea.KeyMsg:
		if v.showHelpPopup {
			v.showHelpPopup = false
			return v, nil
		}

		if v.confirmingDelete {
			return v.updateConfirmDelete(msg)
		}

		if v.editing {
			return v.updateEditing(msg)
		}

		// typing into the list filter
		if v.list.FilterState() == list.Filtering {
			break
		}

		v.status = ""
		switch {
		case key.Matches(msg, v.keys.Quit):
			return v, tea.Quit
		case key.Matches(msg, v.keys.Back):
			return v, nil
		case key.Matches(msg, v.keys.New):
			v.startEditing("", "")
			return v, textinput.Blink
		case key.Matches(msg, v.keys.Rename):
			if item, ok := v.list.SelectedItem().(projectItem); ok {
				v.startEditing(item.project.ID, item.project.Title)
				return v, textinput.Blink
			}
		case key.Matches(msg, v.keys.Help):
			v.showHelpPopup = true
			return v, nil
		case key.Matches(msg, v.keys.Settings):
			return v, navigate(v.env.Nav.OpenSettings)
		case key.Matches(msg, v.keys.Theme):
			return v, toggleTheme(v.env)
		case key.Matches(msg, v.keys.Logout):
			return v, Logout(v.env)
		case key.Matches(msg, v.keys.Enter):
			if item, ok := v.list.SelectedItem().(projectItem); ok {
				id := item.project.ID
				return v, func() tea.Msg { return SelectedProject{Key: id} }
			}
		case key.Matches(msg, v.keys.Delete):
			if item, ok := v.list.SelectedItem().(projectItem); ok {
				v.confirmingDelete = true
				v.deleteTargetID = item.project.ID
				v.deleteTargetName = item.project.Title
				return v, nil
			}
		}
	}

	var cmd tea.Cmd
	v.list, cmd = v.list.Update(msg)
	return v, cmd
}

func (v *ProjectListView) startEditing(id, title string) {
	v.editing = true
	v.renaming = id != ""
	v.renameID = id
	v.focusIdx = 0
	v.formError = ""
	v.nameInput.SetValue(title)
	v.nameInput.CursorEnd()
	v.nameInput.Focus()
}

func (v *ProjectListView) updateConfirmDelete(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		v.confirmingDelete = false
		id, name := v.deleteTargetID, v.deleteTargetName
		return v, tea.Sequence(
			mutation(fmt.Sprintf("Deleted %q", name), func(ctx context.Context) error {
				if err := v.env.API.DeleteProject(ctx, id); err != nil {
					return err
				}
				return v.env.Nav.ProjectDeleted(ctx, id)
			}),
			v.loadProjects,
		)
	case "n", "N", "esc":
		v.confirmingDelete = false
		return v, nil
	}
	return v, nil
}

func (v *ProjectListView) save() tea.Cmd {
	title := v.nameInput.Value()
	id, renaming := v.renameID, v.renaming
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		if renaming {
			return projectSavedMsg{id: id, err: v.env.API.RenameProject(ctx, id, title)}
		}
		p, err := v.env.API.CreateProject(ctx, title)
		if err != nil {
			return projectSavedMsg{err: err}
		}
		return projectSavedMsg{id: p.ID}
	}
}

func (v *ProjectListView) updateEditing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.String() == "esc":
		v.editing = false
		v.renaming = false
		return v, nil

	case key.Matches(msg, v.keys.Save):
		return v, v.save()

	case key.Matches(msg, v.keys.Tab) || msg.String() == "shift+tab":
		v.focusIdx = (v.focusIdx + 1) % 2
		v.updateFocus()
		return v, nil

	case key.Matches(msg, v.keys.Enter):
		if v.focusIdx == 0 && strings.TrimSpace(v.nameInput.Value()) == "" {
			v.formError = "title is required"
			return v, nil
		}
		return v, v.save()
	}

	var cmd tea.Cmd
	if v.focusIdx == 0 {
		v.nameInput, cmd = v.nameInput.Update(msg)
	}
	return v, cmd
}

func (v *ProjectListView) updateFocus() {
	v.nameInput.Blur()
	if v.focusIdx == 0 {
		v.nameInput.Focus()
	}
}

// View renders the view
func (v *ProjectListView) View() string {
	if v.showHelpPopup {
		return v.renderHelpPopup()
	}

	if v.confirmingDelete {
		return v.renderDeleteConfirm()
	}

	if v.editing {
		return v.renderForm()
	}

	if !v.loaded {
		return v.styles.TitleMuted.Render("Loading...")
	}

	if len(v.list.Items()) == 0 {
		return v.renderEmpty()
	}

	content := v.list.View() + "\n" + v.renderStatus() + v.renderHelp()
	return styles.CenterView(content, v.width, v.height)
}

func (v *ProjectListView) renderStatus() string {
	if v.status == "" {
		return ""
	}
	return v.styles.StatusBar.Render(v.status) + "\n"
}

func (v *ProjectListView) renderEmpty() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	rows := []string{
		s.Title.Render("No Projects"),
		"",
		s.TitleMuted.Render("Press 'n' to create your first project"),
		"",
		s.ButtonPrimary.Render(" New Project "),
	}
	if v.status != "" {
		rows = append(rows, "", s.StatusBar.Render(v.status))
	}

	centered := lipgloss.Place(contentWidth, v.height,
		lipgloss.Center, lipgloss.Center,
		lipgloss.JoinVertical(lipgloss.Center, rows...),
	)
	return styles.CenterView(centered, v.width, v.height)
}

func (v *ProjectListView) renderForm() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	nameStyle, btnStyle := s.Input, s.Button
	if v.focusIdx == 0 {
		nameStyle = s.InputFocused
	} else {
		btnStyle = s.ButtonFocused
	}

	title, button := "New Project", " Create "
	if v.renaming {
		title, button = "Rename Project", " Save "
	}

	inputWidth := clamp(contentWidth-6, 20, 50)

	rows := []string{
		s.Title.Render(title),
		"",
		"Title:",
		nameStyle.Width(inputWidth).Render(v.nameInput.View()),
		"",
		btnStyle.Render(button),
	}
	if v.formError != "" {
		rows = append(rows, "", s.StatusError.Render(v.formError))
	}
	rows = append(rows, "", s.TitleMuted.Render("Tab: next • Ctrl+S: save • Esc: cancel"))

	centered := lipgloss.Place(contentWidth, v.height,
		lipgloss.Center, lipgloss.Center,
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
	return styles.CenterView(centered, v.width, v.height)
}

func (v *ProjectListView) renderHelp() string {
	contentWidth := styles.ContentWidth(v.width)
	if contentWidth > 0 && contentWidth < 60 {
		return v.styles.Help.Render(v.styles.HelpKey.Render("?") + " help")
	}
	return v.styles.Help.Render(
		fmt.Sprintf("%s open • %s new • %s rename • %s del • %s settings • %s quit",
			v.styles.HelpKey.Render("↵"),
			v.styles.HelpKey.Render("n"),
			v.styles.HelpKey.Render("r"),
			v.styles.HelpKey.Render("d"),
			v.styles.HelpKey.Render("s"),
			v.styles.HelpKey.Render("q"),
		),
	)
}

func (v *ProjectListView) renderHelpPopup() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	helpItems := []string{
		s.HelpKey.Render("↵") + "      open project",
		s.HelpKey.Render("n") + "      new project",
		s.HelpKey.Render("r") + "      rename project",
		s.HelpKey.Render("d") + "      delete project",
		s.HelpKey.Render("/") + "      filter",
		s.HelpKey.Render("s") + "      display settings",
		s.HelpKey.Render("T") + "      toggle light/dark",
		s.HelpKey.Render("L") + "      log out",
		s.HelpKey.Render("q") + "      quit",
		"",
		s.TitleMuted.Render("Press any key to close"),
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		append([]string{s.Title.Render("Keyboard Shortcuts"), ""}, helpItems...)...,
	)

	centered := lipgloss.Place(contentWidth, v.height,
		lipgloss.Center, lipgloss.Center,
		s.Panel.Render(content),
	)
	return styles.CenterView(centered, v.width, v.height)
}

func (v *ProjectListView) renderDeleteConfirm() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	content := lipgloss.JoinVertical(lipgloss.Center,
		s.Title.Foreground(styles.Current.Error).Render("Delete Project?"),
		"",
		s.TitleMuted.Render(fmt.Sprintf("%q and all its songs, versions and comments will be removed.", v.deleteTargetName)),
		"",
		lipgloss.JoinHorizontal(lipgloss.Center,
			s.ButtonPrimary.Render(" Y - Yes "),
			"  ",
			s.Button.Render(" N - No "),
		),
	)

	centered := lipgloss.Place(contentWidth, v.height,
		lipgloss.Center, lipgloss.Center,
		content,
	)
	return styles.CenterView(centered, v.width, v.height)
}
