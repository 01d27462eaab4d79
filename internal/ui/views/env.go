package views

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/tgienger/mixreview/internal/api"
	"github.com/tgienger/mixreview/internal/cache"
	"github.com/tgienger/mixreview/internal/comments"
	"github.com/tgienger/mixreview/internal/identity"
	"github.com/tgienger/mixreview/internal/navigator"
	"github.com/tgienger/mixreview/internal/player"
)

// Env is what every view needs to talk to the engine
type Env struct {
	Console  navigator.Console
	API      *api.Client
	Cache    *cache.Cache
	Player   *player.Controller
	Comments *comments.Synchronizer
	Nav      *navigator.Navigator
	Identity *identity.Store
	Log      zerolog.Logger

	// ShareLink is the link the public console was started with
	ShareLink string
}

// Admin reports whether this is the admin console
func (e *Env) Admin() bool {
	return e.Console == navigator.Admin
}

// opTimeout bounds a single UI-triggered operation, audio loading included
const opTimeout = 2 * time.Minute

// NavigatedMsg is sent after a navigator operation. The app re-reads the
// navigator state and shows the matching view.
type NavigatedMsg struct {
	Text string
	Err  error
}

// StatusMsg is a one-shot status line message
type StatusMsg struct {
	Text string
	Err  error
}

// SelectedProject asks the app to open a project
type SelectedProject struct {
	Key string
}

// LoggedIn is sent once the admin console holds a valid token
type LoggedIn struct{}

// LoggedOut is sent after the token was cleared
type LoggedOut struct{}

// ThemeChanged is sent after the theme mode or palette changed. The app
// applies it and restyles the views.
type ThemeChanged struct {
	Mode string
}

// navigate runs a navigator operation off the UI goroutine
func navigate(fn func(ctx context.Context) error) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		return NavigatedMsg{Err: fn(ctx)}
	}
}

// navigateDone is navigate with a status text on success
func navigateDone(done string, fn func(ctx context.Context) error) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			return NavigatedMsg{Err: err}
		}
		return NavigatedMsg{Text: done}
	}
}

// mutation runs a mutating call and reports its outcome on the status line
func mutation(done string, fn func(ctx context.Context) error) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			return StatusMsg{Err: err}
		}
		return StatusMsg{Text: done}
	}
}

// toggleTheme flips and persists the theme mode
func toggleTheme(env *Env) tea.Cmd {
	return func() tea.Msg {
		mode, err := env.Identity.ToggleTheme()
		if err != nil {
			return StatusMsg{Err: err}
		}
		return ThemeChanged{Mode: mode}
	}
}

// Logout releases the player and forgets the token and every snapshot
func Logout(env *Env) tea.Cmd {
	return func() tea.Msg {
		env.Player.Teardown()
		env.Comments.Clear()
		env.Cache.Flush()
		env.API.SetToken("")
		if err := env.Identity.ClearToken(); err != nil {
			env.Log.Warn().Err(err).Msg("clear token")
		}
		return LoggedOut{}
	}
}

// ErrorText is the user-facing text of an error
func ErrorText(err error) string {
	var (
		verr *api.ValidationError
		rerr *api.RequestError
		nerr *api.NotFoundError
		terr *api.TransportError
	)
	switch {
	case errors.As(err, &verr):
		return verr.Message
	case errors.As(err, &nerr):
		return nerr.Error()
	case errors.As(err, &terr):
		return "No playable version"
	case errors.Is(err, api.ErrNotPermitted):
		return "Not permitted"
	case errors.As(err, &rerr):
		return rerr.Message
	}
	return err.Error()
}

// FormatTimecode renders seconds as m:ss
func FormatTimecode(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) {
		seconds = 0
	}
	total := int(seconds)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

// clamp returns val clamped between minVal and maxVal
func clamp(val, minVal, maxVal int) int {
	if val < minVal {
		return minVal
	}
	if val > maxVal {
		return maxVal
	}
	return val
}
