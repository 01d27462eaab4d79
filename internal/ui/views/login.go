package views

import (
	"context"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tgienger/mixreview/internal/models"
	"github.com/tgienger/mixreview/internal/ui/keys"
	"github.com/tgienger/mixreview/internal/ui/styles"
)

// LoginView asks for admin credentials. Before the first account exists it
// runs the first-run setup instead of a login.
type LoginView struct {
	env    *Env
	styles *styles.Styles
	keys   keys.KeyMap

	width  int
	height int

	checked  bool
	setup    bool
	busy     bool
	errText  string
	username textinput.Model
	password textinput.Model
	focusIdx int // 0=username, 1=password, 2=submit
}

// NewLoginView creates the login form
func NewLoginView(env *Env) *LoginView {
	username := textinput.New()
	username.Placeholder = "Username"
	username.CharLimit = 100
	username.Focus()

	password := textinput.New()
	password.Placeholder = "Password"
	password.CharLimit = 200
	password.EchoMode = textinput.EchoPassword

	return &LoginView{
		env:      env,
		styles:   styles.NewStyles(),
		keys:     keys.DefaultKeyMap(),
		username: username,
		password: password,
	}
}

type authStatusMsg struct {
	status models.AuthStatus
	err    error
}

type loginFailedMsg struct {
	err error
}

// Restyle picks up the current theme
func (v *LoginView) Restyle() { v.styles = styles.NewStyles() }

// Init checks whether the stored token still works, then whether setup is needed
func (v *LoginView) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, v.probe)
}

func (v *LoginView) probe() tea.Msg {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	if v.env.API.Token() != "" {
		if err := v.env.API.Probe(ctx); err == nil {
			return LoggedIn{}
		}
		v.env.API.SetToken("")
		if err := v.env.Identity.ClearToken(); err != nil {
			v.env.Log.Warn().Err(err).Msg("clear stale token")
		}
	}
	status, err := v.env.API.AuthStatus(ctx)
	return authStatusMsg{status: status, err: err}
}

func (v *LoginView) submit() tea.Msg {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	creds := models.Credentials{Username: v.username.Value(), Password: v.password.Value()}
	var (
		token string
		err   error
	)
	if v.setup {
		token, err = v.env.API.Setup(ctx, creds)
	} else {
		token, err = v.env.API.Login(ctx, creds)
	}
	if err != nil {
		return loginFailedMsg{err: err}
	}
	if err := v.env.Identity.SetToken(token); err != nil {
		v.env.Log.Warn().Err(err).Msg("persist token")
	}
	if err := v.env.Identity.SetAdminName(creds.Username); err != nil {
		v.env.Log.Warn().Err(err).Msg("persist admin name")
	}
	return LoggedIn{}
}

// Update handles messages
func (v *LoginView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		return v, nil

	case authStatusMsg:
		v.checked = true
		if msg.err != nil {
			v.errText = ErrorText(msg.err)
			return v, nil
		}
		v.setup = !msg.status.SetupComplete
		return v, nil

	case loginFailedMsg:
		v.busy = false
		v.errText = ErrorText(msg.err)
		v.password.Reset()
		v.focusIdx = 1
		v.updateFocus()
		return v, nil

	case tea.KeyMsg:
		if v.busy {
			return v, nil
		}
		switch {
		case msg.String() == "ctrl+c" || msg.String() == "esc":
			return v, tea.Quit
		case msg.String() == "shift+tab" || msg.String() == "up":
			v.focusIdx = (v.focusIdx + 2) % 3
			v.updateFocus()
			return v, nil
		case key.Matches(msg, v.keys.Tab) || msg.String() == "down":
			v.focusIdx = (v.focusIdx + 1) % 3
			v.updateFocus()
			return v, nil
		case key.Matches(msg, v.keys.Enter):
			if v.focusIdx < 2 {
				v.focusIdx++
				v.updateFocus()
				return v, nil
			}
			if !v.checked {
				return v, nil
			}
			v.busy = true
			v.errText = ""
			return v, v.submit
		}
	}

	var cmd tea.Cmd
	switch v.focusIdx {
	case 0:
		v.username, cmd = v.username.Update(msg)
	case 1:
		v.password, cmd = v.password.Update(msg)
	}
	return v, cmd
}

func (v *LoginView) updateFocus() {
	v.username.Blur()
	v.password.Blur()
	switch v.focusIdx {
	case 0:
		v.username.Focus()
	case 1:
		v.password.Focus()
	}
}

// View renders the form
func (v *LoginView) View() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	if !v.checked && v.errText == "" {
		return s.TitleMuted.Render("Connecting to " + v.env.API.BaseURL() + "...")
	}

	title, button := "Admin Login", " Log in "
	if v.setup {
		title, button = "Create Admin Account", " Create "
	}

	userStyle, passStyle, btnStyle := s.Input, s.Input, s.Button
	switch v.focusIdx {
	case 0:
		userStyle = s.InputFocused
	case 1:
		passStyle = s.InputFocused
	case 2:
		btnStyle = s.ButtonFocused
	}
	inputWidth := clamp(contentWidth-6, 20, 40)

	rows := []string{
		s.Title.Render(title),
		s.TitleMuted.Render(v.env.API.BaseURL()),
		"",
		"Username:",
		userStyle.Width(inputWidth).Render(v.username.View()),
		"",
		"Password:",
		passStyle.Width(inputWidth).Render(v.password.View()),
		"",
		btnStyle.Render(button),
	}
	if v.busy {
		rows = append(rows, "", s.TitleMuted.Render("Please wait..."))
	}
	if v.errText != "" {
		rows = append(rows, "", s.StatusError.Render(v.errText))
	}
	rows = append(rows, "", s.TitleMuted.Render("Tab: next • Enter: submit • Esc: quit"))

	centered := lipgloss.Place(contentWidth, v.height,
		lipgloss.Center, lipgloss.Center,
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
	return styles.CenterView(centered, v.width, v.height)
}
