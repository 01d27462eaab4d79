package ui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tgienger/mixreview/internal/api"
	"github.com/tgienger/mixreview/internal/navigator"
	"github.com/tgienger/mixreview/internal/player"
	"github.com/tgienger/mixreview/internal/ui/styles"
	"github.com/tgienger/mixreview/internal/ui/views"
)

// Screen is the currently active view
type Screen int

const (
	ScreenLoading Screen = iota
	ScreenLogin
	ScreenProjects
	ScreenProject
	ScreenSong
	ScreenSettings
	ScreenNotFound
)

// restyler is implemented by views that cache theme styles
type restyler interface {
	Restyle()
}

// App routes messages to the view matching the navigator state
type App struct {
	env    *views.Env
	screen Screen
	view   tea.Model

	// the project list persists so it keeps its cursor and filter
	projectList *views.ProjectListView

	positions   chan player.PositionEvent
	unsubscribe func()

	width  int
	height int
}

// NewApp creates the console described by env
func NewApp(env *views.Env) *App {
	a := &App{
		env:       env,
		positions: make(chan player.PositionEvent, 1),
	}
	a.unsubscribe = env.Player.Subscribe(a.forwardPosition)
	return a
}

// forwardPosition runs on the player's tick goroutine. Only the latest event
// is kept for the UI loop.
func (a *App) forwardPosition(ev player.PositionEvent) {
	select {
	case a.positions <- ev:
		return
	default:
	}
	select {
	case <-a.positions:
	default:
	}
	select {
	case a.positions <- ev:
	default:
	}
}

func (a *App) listenPositions() tea.Msg {
	return views.PositionMsg(<-a.positions)
}

// Close stops the position stream and releases the audio device
func (a *App) Close() {
	a.unsubscribe()
	a.env.Player.Teardown()
}

func (a *App) loadTheme() tea.Msg {
	ctx, cancel := context.WithTimeout(context.Background(), api.DefaultTimeout)
	defer cancel()
	if _, err := a.env.Cache.Settings(ctx); err != nil {
		a.env.Log.Warn().Err(err).Msg("load display settings")
	}
	mode, err := a.env.Identity.Theme()
	if err != nil {
		a.env.Log.Warn().Err(err).Msg("read theme")
	}
	return views.ThemeChanged{Mode: mode}
}

func (a *App) Init() tea.Cmd {
	cmds := []tea.Cmd{a.listenPositions, a.loadTheme}

	if a.env.Admin() {
		a.screen = ScreenLogin
		a.view = views.NewLoginView(a.env)
		cmds = append(cmds, a.view.Init())
		return tea.Batch(cmds...)
	}

	a.screen = ScreenLoading
	link := a.env.ShareLink
	cmds = append(cmds, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), api.DefaultTimeout*2)
		defer cancel()
		return views.NavigatedMsg{Err: a.env.Nav.OpenProject(ctx, link)}
	})
	return tea.Batch(cmds...)
}

func (a *App) resize() tea.Cmd {
	return func() tea.Msg {
		return tea.WindowSizeMsg{Width: a.width, Height: a.height}
	}
}

// openProject opens a project of the admin console and binds the comment
// store to its share link
func (a *App) openProject(id string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), api.DefaultTimeout*2)
		defer cancel()
		if err := a.env.Nav.OpenProject(ctx, id); err != nil {
			return views.NavigatedMsg{Err: err}
		}
		if p := a.env.Nav.State().Project; p != nil {
			a.env.Comments.SetStore(api.NewAdminComments(a.env.API, p.ShareLink))
		}
		return views.NavigatedMsg{}
	}
}

func screenFor(v navigator.View) Screen {
	switch v {
	case navigator.ProjectDetail:
		return ScreenProject
	case navigator.SongDetail:
		return ScreenSong
	case navigator.Settings:
		return ScreenSettings
	}
	return ScreenProjects
}

// sync shows the view matching the navigator state. A view of the same kind
// is updated in place unless rebuild is set.
func (a *App) sync(rebuild bool) tea.Cmd {
	st := a.env.Nav.State()
	if st.Console == navigator.Public && st.Project == nil {
		return nil
	}
	next := screenFor(st.View)

	if a.env.Admin() {
		last := ""
		if st.Project != nil && st.View != navigator.ProjectList && st.View != navigator.Settings {
			last = st.Project.ID
		}
		if err := a.env.Identity.SetLastProject(last); err != nil {
			a.env.Log.Warn().Err(err).Msg("remember project")
		}
	}

	if next == a.screen && !rebuild {
		switch v := a.view.(type) {
		case *views.ProjectView:
			v.SetState(st)
		case *views.SongView:
			v.SetState(st)
		case *views.ProjectListView:
			return v.Init()
		}
		return nil
	}

	a.screen = next
	switch next {
	case ScreenProjects:
		if a.projectList == nil || rebuild {
			a.projectList = views.NewProjectListView(a.env)
		}
		a.view = a.projectList
	case ScreenProject:
		a.view = views.NewProjectView(a.env, st)
	case ScreenSong:
		a.view = views.NewSongView(a.env, st)
	case ScreenSettings:
		a.view = views.NewSettingsView(a.env)
	}
	return tea.Batch(a.view.Init(), a.resize())
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		if a.projectList != nil && a.view != tea.Model(a.projectList) {
			a.projectList.Update(msg)
		}

	case views.PositionMsg:
		var cmd tea.Cmd
		if a.view != nil {
			_, cmd = a.view.Update(msg)
		}
		return a, tea.Batch(cmd, a.listenPositions)

	case views.ThemeChanged:
		styles.Apply(a.env.Cache.CachedSettings(), msg.Mode)
		if a.projectList != nil {
			a.projectList.Restyle()
		}
		if r, ok := a.view.(restyler); ok {
			r.Restyle()
		}
		return a, nil

	case views.LoggedIn:
		cmd := a.sync(true)
		last, err := a.env.Identity.LastProject()
		if err != nil {
			a.env.Log.Warn().Err(err).Msg("read last project")
		}
		if last != "" {
			return a, tea.Batch(cmd, a.openProject(last))
		}
		return a, cmd

	case views.LoggedOut:
		a.projectList = nil
		a.screen = ScreenLogin
		a.view = views.NewLoginView(a.env)
		return a, tea.Batch(
			navigateReset(a.env),
			a.view.Init(),
			a.resize(),
		)

	case views.SelectedProject:
		return a, a.openProject(msg.Key)

	case views.NavigatedMsg:
		return a, a.navigated(msg)
	}

	if a.view == nil {
		return a, nil
	}
	var cmd tea.Cmd
	_, cmd = a.view.Update(msg)
	return a, cmd
}

// navigateReset puts the navigator back on the project list after logout
func navigateReset(env *views.Env) tea.Cmd {
	return func() tea.Msg {
		if err := env.Nav.OpenProjectList(context.Background()); err != nil {
			env.Log.Warn().Err(err).Msg("reset navigation")
		}
		return nil
	}
}

func (a *App) navigated(msg views.NavigatedMsg) tea.Cmd {
	if msg.Err != nil {
		a.env.Log.Debug().Err(msg.Err).Msg("navigation failed")
	}

	if a.screen == ScreenLogin {
		return nil
	}

	// an unknown share link is terminal for the reviewer console
	st := a.env.Nav.State()
	if !a.env.Admin() && st.Project == nil {
		if msg.Err != nil && api.IsNotFound(msg.Err) {
			a.screen = ScreenNotFound
			a.view = views.NewNotFoundView(a.env.ShareLink)
			return a.resize()
		}
		if msg.Err != nil {
			a.screen = ScreenNotFound
			a.view = views.NewErrorView(msg.Err)
			return a.resize()
		}
	}

	if msg.Err != nil && api.IsUnauthorized(msg.Err) && a.env.Admin() {
		return views.Logout(a.env)
	}

	cmd := a.sync(false)
	if msg.Err == nil && msg.Text == "" {
		return cmd
	}
	status := views.StatusMsg{Text: msg.Text, Err: msg.Err}
	return tea.Sequence(cmd, func() tea.Msg { return status })
}

func (a *App) View() string {
	if a.view == nil {
		return styles.NewStyles().TitleMuted.Render("Loading...")
	}
	return a.view.View()
}
