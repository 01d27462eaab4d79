package views

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tgienger/mixreview/internal/models"
	"github.com/tgienger/mixreview/internal/navigator"
	"github.com/tgienger/mixreview/internal/ui/keys"
	"github.com/tgienger/mixreview/internal/ui/styles"
)

type songItem struct {
	song models.Song
}

func (i songItem) Title() string { return i.song.Title }
func (i songItem) Description() string {
	return plural(i.song.VersionCount, "version") + " • " + plural(i.song.CommentCount, "comment")
}
func (i songItem) FilterValue() string { return i.song.Title }

type songDelegate struct {
	styles *styles.Styles
	width  int
}

func (d songDelegate) Height() int                               { return 2 }
func (d songDelegate) Spacing() int                              { return 1 }
func (d songDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }

func (d songDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(songItem)
	if !ok {
		return
	}

	width := max(d.width-4, 20)
	titleStyle := d.styles.ListItem
	descStyle := d.styles.ListItem.Foreground(styles.Current.ForegroundDim)
	if index == m.Index() {
		titleStyle = d.styles.ListSelected
		descStyle = d.styles.ListSelected.Foreground(styles.Current.ForegroundDim)
	}

	title := it.Title()
	if it.song.OpenCount > 0 {
		title += "  " + d.styles.Badge.Render(fmt.Sprintf("%d open", it.song.OpenCount))
	}
	fmt.Fprintf(w, "%s\n%s", titleStyle.Width(width).Render(title), descStyle.Width(width).Render(it.Description()))
}

// ProjectView lists the songs of the open project
type ProjectView struct {
	env      *Env
	state    navigator.State
	list     list.Model
	delegate *songDelegate
	styles   *styles.Styles
	keys     keys.KeyMap
	width    int
	height   int
	status   string

	prompt  prompt
	confirm confirm

	showHelpPopup bool
}

// NewProjectView creates the song list of a project
func NewProjectView(env *Env, state navigator.State) *ProjectView {
	s := styles.NewStyles()
	delegate := &songDelegate{styles: s, width: 80}

	l := list.New([]list.Item{}, delegate, 0, 0)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = s.Title
	l.SetShowHelp(false)

	v := &ProjectView{
		env:      env,
		list:     l,
		delegate: delegate,
		styles:   s,
		keys:     keys.DefaultKeyMap(),
		prompt:   newPrompt(),
	}
	v.SetState(state)
	return v
}

// SetState shows a new snapshot of the project, keeping the cursor
func (v *ProjectView) SetState(state navigator.State) {
	v.state = state
	p := state.Project
	if p == nil {
		v.list.SetItems(nil)
		return
	}
	v.list.Title = p.Title
	items := make([]list.Item, len(p.Songs))
	selected := 0
	for i, song := range p.Songs {
		items[i] = songItem{song: song}
		if song.ID == state.SongID {
			selected = i
		}
	}
	v.list.SetItems(items)
	if state.SongID != 0 {
		v.list.Select(selected)
	}
}

// Restyle picks up the current theme
func (v *ProjectView) Restyle() {
	s := styles.NewStyles()
	v.styles = s
	v.delegate.styles = s
	v.list.Styles.Title = s.Title
}

func (v *ProjectView) Init() tea.Cmd {
	return nil
}

func (v *ProjectView) selected() (models.Song, bool) {
	it, ok := v.list.SelectedItem().(songItem)
	return it.song, ok
}

func (v *ProjectView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		contentWidth := styles.ContentWidth(msg.Width)
		v.delegate.width = contentWidth
		v.list.SetSize(contentWidth-4, msg.Height-8)
		return v, nil

	case StatusMsg:
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
		if v.confirm.active {
			return v, v.confirm.update(msg)
		}
		if v.prompt.active {
			return v, v.prompt.update(msg)
		}
		return v.updateNormal(msg)
	}

	if v.prompt.active {
		return v, v.prompt.update(msg)
	}
	return v, nil
}

func (v *ProjectView) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	v.status = ""
	admin := v.env.Admin()

	switch {
	case key.Matches(msg, v.keys.Quit):
		return v, tea.Quit

	case key.Matches(msg, v.keys.Back):
		if v.state.CanGoBack() {
			return v, navigate(v.env.Nav.Back)
		}
		return v, nil

	case key.Matches(msg, v.keys.Enter):
		if song, ok := v.selected(); ok {
			id := song.ID
			return v, navigate(func(ctx context.Context) error {
				return v.env.Nav.OpenSong(ctx, id)
			})
		}
		return v, nil

	case key.Matches(msg, v.keys.Help):
		v.showHelpPopup = true
		return v, nil

	case key.Matches(msg, v.keys.Theme):
		return v, toggleTheme(v.env)

	case admin && key.Matches(msg, v.keys.Settings):
		return v, navigate(v.env.Nav.OpenSettings)

	case admin && key.Matches(msg, v.keys.New):
		projectID := v.state.Project.ID
		return v, v.prompt.open("New Song", "Title", "", true, func(title string) tea.Cmd {
			return navigate(func(ctx context.Context) error {
				if _, err := v.env.API.CreateSong(ctx, projectID, title); err != nil {
					return err
				}
				return v.env.Nav.Reload(ctx)
			})
		})

	case admin && key.Matches(msg, v.keys.Rename):
		song, ok := v.selected()
		if !ok {
			return v, nil
		}
		return v, v.prompt.open("Rename Song", "Title", song.Title, true, func(title string) tea.Cmd {
			return navigate(func(ctx context.Context) error {
				if err := v.env.API.RenameSong(ctx, song.ID, title); err != nil {
					return err
				}
				return v.env.Nav.Reload(ctx)
			})
		})

	case admin && key.Matches(msg, v.keys.Delete):
		song, ok := v.selected()
		if !ok {
			return v, nil
		}
		v.confirm.open("Delete Song?",
			fmt.Sprintf("%q and all its versions and comments will be removed.", song.Title),
			func() tea.Cmd {
				return navigate(func(ctx context.Context) error {
					if err := v.env.API.DeleteSong(ctx, song.ID); err != nil {
						return err
					}
					return v.env.Nav.SongDeleted(ctx, song.ID)
				})
			})
		return v, nil
	}

	var cmd tea.Cmd
	v.list, cmd = v.list.Update(msg)
	return v, cmd
}

// View renders the view
func (v *ProjectView) View() string {
	if v.showHelpPopup {
		return v.renderHelpPopup()
	}
	if v.confirm.active {
		return v.confirm.view(v.styles, v.width, v.height)
	}
	if v.prompt.active {
		return v.prompt.view(v.styles, v.width, v.height)
	}

	s := v.styles
	p := v.state.Project
	if p == nil {
		return s.TitleMuted.Render("Loading...")
	}

	header := ""
	if v.env.Admin() {
		header = s.StatusBar.Render("Share link: "+v.env.API.BaseURL()+"/"+p.ShareLink) + "\n"
	}

	body := v.list.View()
	if len(p.Songs) == 0 {
		hint := "No songs yet"
		if v.env.Admin() {
			hint = "No songs yet. Press 'n' to add one"
		}
		body = s.Title.Render(p.Title) + "\n\n" + s.TitleMuted.Render(hint)
	}

	status := ""
	if v.status != "" {
		status = s.StatusBar.Render(v.status) + "\n"
	}

	content := header + body + "\n" + status + v.renderHelp()
	return styles.CenterView(content, v.width, v.height)
}

func (v *ProjectView) renderHelp() string {
	s := v.styles
	if w := styles.ContentWidth(v.width); w > 0 && w < 60 {
		return s.Help.Render(s.HelpKey.Render("?") + " help")
	}
	if v.env.Admin() {
		return s.Help.Render(fmt.Sprintf("%s open • %s new • %s rename • %s del • %s settings • %s back • %s quit",
			s.HelpKey.Render("↵"),
			s.HelpKey.Render("n"),
			s.HelpKey.Render("r"),
			s.HelpKey.Render("d"),
			s.HelpKey.Render("s"),
			s.HelpKey.Render("esc"),
			s.HelpKey.Render("q"),
		))
	}
	return s.Help.Render(fmt.Sprintf("%s open • %s theme • %s quit",
		s.HelpKey.Render("↵"),
		s.HelpKey.Render("T"),
		s.HelpKey.Render("q"),
	))
}

func (v *ProjectView) renderHelpPopup() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	items := []string{s.HelpKey.Render("↵") + "      open song"}
	if v.env.Admin() {
		items = append(items,
			s.HelpKey.Render("n")+"      new song",
			s.HelpKey.Render("r")+"      rename song",
			s.HelpKey.Render("d")+"      delete song",
			s.HelpKey.Render("s")+"      settings",
		)
	}
	if v.state.CanGoBack() {
		items = append(items, s.HelpKey.Render("esc")+"    back")
	}
	items = append(items,
		s.HelpKey.Render("T")+"      toggle light/dark",
		s.HelpKey.Render("q")+"      quit",
		"",
		s.TitleMuted.Render("Press any key to close"),
	)

	content := lipgloss.JoinVertical(lipgloss.Left,
		append([]string{s.Title.Render("Keyboard Shortcuts"), ""}, items...)...,
	)
	centered := lipgloss.Place(contentWidth, v.height,
		lipgloss.Center, lipgloss.Center,
		s.Panel.Render(content),
	)
	return styles.CenterView(centered, v.width, v.height)
}
