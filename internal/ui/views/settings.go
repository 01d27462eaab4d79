package views

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tgienger/mixreview/internal/api"
	"github.com/tgienger/mixreview/internal/models"
	"github.com/tgienger/mixreview/internal/ui/keys"
	"github.com/tgienger/mixreview/internal/ui/styles"
)

var hexColor = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// settingField is one editable display setting
type settingField struct {
	label string
	get   func(models.DisplaySettings) string
	set   func(u *models.SettingsUpdate, value string)
	color bool
}

func colorField(label string, get func(models.DisplaySettings) string, ptr func(*models.SettingsUpdate) **string) settingField {
	return settingField{
		label: label,
		get:   get,
		set:   func(u *models.SettingsUpdate, value string) { *ptr(u) = &value },
		color: true,
	}
}

var settingFields = []settingField{
	colorField("Accent", func(s models.DisplaySettings) string { return s.AccentColor },
		func(u *models.SettingsUpdate) **string { return &u.AccentColor }),
	colorField("Background 900", func(s models.DisplaySettings) string { return s.Dark900 },
		func(u *models.SettingsUpdate) **string { return &u.Dark900 }),
	colorField("Background 800", func(s models.DisplaySettings) string { return s.Dark800 },
		func(u *models.SettingsUpdate) **string { return &u.Dark800 }),
	colorField("Background 700", func(s models.DisplaySettings) string { return s.Dark700 },
		func(u *models.SettingsUpdate) **string { return &u.Dark700 }),
	colorField("Background 600", func(s models.DisplaySettings) string { return s.Dark600 },
		func(u *models.SettingsUpdate) **string { return &u.Dark600 }),
	colorField("Text", func(s models.DisplaySettings) string { return s.TextColor },
		func(u *models.SettingsUpdate) **string { return &u.TextColor }),
	colorField("Waveform", func(s models.DisplaySettings) string { return s.WaveformColor },
		func(u *models.SettingsUpdate) **string { return &u.WaveformColor }),
	colorField("Waveform progress", func(s models.DisplaySettings) string { return s.WaveformProgressColor },
		func(u *models.SettingsUpdate) **string { return &u.WaveformProgressColor }),
	colorField("Light accent", func(s models.DisplaySettings) string { return s.LightAccentColor },
		func(u *models.SettingsUpdate) **string { return &u.LightAccentColor }),
	colorField("Light background 900", func(s models.DisplaySettings) string { return s.LightBg900 },
		func(u *models.SettingsUpdate) **string { return &u.LightBg900 }),
	colorField("Light background 800", func(s models.DisplaySettings) string { return s.LightBg800 },
		func(u *models.SettingsUpdate) **string { return &u.LightBg800 }),
	colorField("Light background 700", func(s models.DisplaySettings) string { return s.LightBg700 },
		func(u *models.SettingsUpdate) **string { return &u.LightBg700 }),
	colorField("Light background 600", func(s models.DisplaySettings) string { return s.LightBg600 },
		func(u *models.SettingsUpdate) **string { return &u.LightBg600 }),
	colorField("Light text", func(s models.DisplaySettings) string { return s.LightTextColor },
		func(u *models.SettingsUpdate) **string { return &u.LightTextColor }),
	colorField("Light waveform", func(s models.DisplaySettings) string { return s.LightWaveformColor },
		func(u *models.SettingsUpdate) **string { return &u.LightWaveformColor }),
	colorField("Light waveform progress", func(s models.DisplaySettings) string { return s.LightWaveformProgressColor },
		func(u *models.SettingsUpdate) **string { return &u.LightWaveformProgressColor }),
	{
		label: "Logo height",
		get:   func(s models.DisplaySettings) string { return strconv.Itoa(s.LogoHeight) },
		set: func(u *models.SettingsUpdate, value string) {
			if n, err := strconv.Atoi(value); err == nil {
				u.LogoHeight = &n
			}
		},
	},
}

// buildUpdate collects the changed fields. The first invalid value is returned
// as a ValidationError.
func buildUpdate(current models.DisplaySettings, values []string, canResolve bool) (models.SettingsUpdate, bool, error) {
	var (
		upd     models.SettingsUpdate
		changed bool
	)
	for i, f := range settingFields {
		value := strings.TrimSpace(values[i])
		if value == f.get(current) {
			continue
		}
		if f.color && !hexColor.MatchString(value) {
			return upd, false, &api.ValidationError{Field: f.label, Message: f.label + " must be a color like #1a2b3c"}
		}
		if !f.color {
			if n, err := strconv.Atoi(value); err != nil || n < 0 {
				return upd, false, &api.ValidationError{Field: f.label, Message: f.label + " must be a positive number"}
			}
		}
		f.set(&upd, value)
		changed = true
	}
	if canResolve != current.ClientsCanResolve {
		upd.ClientsCanResolve = &canResolve
		changed = true
	}
	return upd, changed, nil
}

// defaultsUpdate resets every field to the server defaults
func defaultsUpdate() models.SettingsUpdate {
	d := models.DefaultDisplaySettings()
	var upd models.SettingsUpdate
	for _, f := range settingFields {
		f.set(&upd, f.get(d))
	}
	upd.ClientsCanResolve = &d.ClientsCanResolve
	return upd
}

type settingsLoadedMsg struct {
	settings models.DisplaySettings
}

// SettingsView edits the global display settings
type SettingsView struct {
	env    *Env
	styles *styles.Styles
	keys   keys.KeyMap

	width  int
	height int
	status string
	isErr  bool

	loaded     bool
	current    models.DisplaySettings
	inputs     []textinput.Model
	canResolve bool
	focusIdx   int // len(inputs) is the resolve toggle
	scrollY    int

	confirm confirm
	prompt  prompt
}

// NewSettingsView creates the settings page
func NewSettingsView(env *Env) *SettingsView {
	inputs := make([]textinput.Model, len(settingFields))
	for i, f := range settingFields {
		in := textinput.New()
		in.Placeholder = f.label
		in.CharLimit = 7
		if !f.color {
			in.CharLimit = 4
		}
		inputs[i] = in
	}
	p := newPrompt()
	p.input.CharLimit = 1024
	return &SettingsView{
		env:    env,
		styles: styles.NewStyles(),
		keys:   keys.DefaultKeyMap(),
		inputs: inputs,
		prompt: p,
	}
}

// Restyle picks up the current theme
func (v *SettingsView) Restyle() { v.styles = styles.NewStyles() }

func (v *SettingsView) Init() tea.Cmd {
	return v.load
}

func (v *SettingsView) load() tea.Msg {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	s, err := v.env.Cache.RefreshSettings(ctx)
	if err != nil {
		return StatusMsg{Err: err}
	}
	return settingsLoadedMsg{settings: *s}
}

func (v *SettingsView) fill(s models.DisplaySettings) {
	v.current = s
	v.canResolve = s.ClientsCanResolve
	for i, f := range settingFields {
		v.inputs[i].SetValue(f.get(s))
	}
	v.loaded = true
	v.updateFocus()
}

func (v *SettingsView) values() []string {
	out := make([]string, len(v.inputs))
	for i := range v.inputs {
		out[i] = v.inputs[i].Value()
	}
	return out
}

// apply sends an update and makes the result current
func (v *SettingsView) apply(done string, upd models.SettingsUpdate) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		s, err := v.env.API.UpdateSettings(ctx, upd)
		if err != nil {
			return StatusMsg{Err: err}
		}
		v.env.Cache.SetSettings(s)
		return settingsSavedMsg{settings: *s, text: done}
	}
}

type settingsSavedMsg struct {
	settings models.DisplaySettings
	text     string
}

func (v *SettingsView) removeLogo() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		if err := v.env.API.DeleteLogo(ctx); err != nil {
			return StatusMsg{Err: err}
		}
		s, err := v.env.Cache.RefreshSettings(ctx)
		if err != nil {
			return StatusMsg{Err: err}
		}
		return settingsSavedMsg{settings: *s, text: "Logo removed"}
	}
}

func (v *SettingsView) uploadLogo(path string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		s, err := v.env.API.UploadLogo(ctx, strings.TrimSpace(path), nil)
		if err != nil {
			return StatusMsg{Err: err}
		}
		v.env.Cache.SetSettings(s)
		return settingsSavedMsg{settings: *s, text: "Logo uploaded"}
	}
}

func (v *SettingsView) themeMode() string {
	mode, err := v.env.Identity.Theme()
	if err != nil {
		v.env.Log.Warn().Err(err).Msg("read theme")
	}
	return mode
}

func (v *SettingsView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		return v, nil

	case settingsLoadedMsg:
		v.fill(msg.settings)
		return v, nil

	case settingsSavedMsg:
		v.fill(msg.settings)
		v.status, v.isErr = msg.text, false
		mode := v.themeMode()
		return v, func() tea.Msg { return ThemeChanged{Mode: mode} }

	case StatusMsg:
		if msg.Err != nil {
			v.status, v.isErr = ErrorText(msg.Err), true
		} else {
			v.status, v.isErr = msg.Text, false
		}
		return v, nil

	case tea.KeyMsg:
		if v.confirm.active {
			return v, v.confirm.update(msg)
		}
		if v.prompt.active {
			return v, v.prompt.update(msg)
		}
		return v.updateKeys(msg)
	}

	if v.prompt.active {
		return v, v.prompt.update(msg)
	}
	return v, nil
}

func (v *SettingsView) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.String() == "ctrl+c":
		return v, tea.Quit

	case msg.String() == "esc":
		return v, navigate(v.env.Nav.Back)

	case !v.loaded:
		return v, nil

	case key.Matches(msg, v.keys.Save):
		upd, changed, err := buildUpdate(v.current, v.values(), v.canResolve)
		if err != nil {
			v.status, v.isErr = ErrorText(err), true
			return v, nil
		}
		if !changed {
			v.status, v.isErr = "Nothing to save", false
			return v, nil
		}
		return v, v.apply("Settings saved", upd)

	case msg.String() == "ctrl+r":
		v.confirm.open("Reset Settings?", "All colors and options go back to their defaults.", func() tea.Cmd {
			return v.apply("Settings reset", defaultsUpdate())
		})
		return v, nil

	case msg.String() == "ctrl+u":
		return v, v.prompt.open("Upload Logo", "PNG or JPG file", "", true, v.uploadLogo)

	case msg.String() == "ctrl+l":
		v.confirm.open("Remove Logo?", "The custom logo will be deleted.", v.removeLogo)
		return v, nil

	case msg.String() == "shift+tab" || msg.String() == "up":
		v.focusIdx = (v.focusIdx + len(v.inputs)) % (len(v.inputs) + 1)
		v.updateFocus()
		return v, nil

	case key.Matches(msg, v.keys.Tab) || msg.String() == "down" || msg.String() == "enter":
		v.focusIdx = (v.focusIdx + 1) % (len(v.inputs) + 1)
		v.updateFocus()
		return v, nil

	case v.focusIdx == len(v.inputs) && msg.String() == " ":
		v.canResolve = !v.canResolve
		return v, nil
	}

	if v.focusIdx < len(v.inputs) {
		var cmd tea.Cmd
		v.inputs[v.focusIdx], cmd = v.inputs[v.focusIdx].Update(msg)
		return v, cmd
	}
	return v, nil
}

func (v *SettingsView) updateFocus() {
	for i := range v.inputs {
		if i == v.focusIdx {
			v.inputs[i].Focus()
		} else {
			v.inputs[i].Blur()
		}
	}
}

// View renders the view
func (v *SettingsView) View() string {
	if v.confirm.active {
		return v.confirm.view(v.styles, v.width, v.height)
	}
	if v.prompt.active {
		return v.prompt.view(v.styles, v.width, v.height)
	}

	s := v.styles
	if !v.loaded {
		if v.status != "" {
			return s.StatusError.Render(v.status)
		}
		return s.TitleMuted.Render("Loading...")
	}
	contentWidth := styles.ContentWidth(v.width)

	var rows []string
	for i, f := range settingFields {
		label := fmt.Sprintf("%-24s", f.label)
		swatch := ""
		if f.color && hexColor.MatchString(v.inputs[i].Value()) {
			swatch = " " + lipgloss.NewStyle().Background(lipgloss.Color(v.inputs[i].Value())).Render("   ")
		}
		row := label + v.inputs[i].View() + swatch
		if i == v.focusIdx {
			row = s.ListSelected.Render(row)
		} else {
			row = s.ListItem.Render(row)
		}
		rows = append(rows, row)
	}

	check := "[ ]"
	if v.canResolve {
		check = "[x]"
	}
	resolve := fmt.Sprintf("%-24s%s", "Clients can resolve", check)
	if v.focusIdx == len(v.inputs) {
		rows = append(rows, s.ListSelected.Render(resolve))
	} else {
		rows = append(rows, s.ListItem.Render(resolve))
	}

	// keep the focused row visible
	visible := max(v.height-10, 5)
	if v.focusIdx < v.scrollY {
		v.scrollY = v.focusIdx
	} else if v.focusIdx >= v.scrollY+visible {
		v.scrollY = v.focusIdx - visible + 1
	}
	end := min(v.scrollY+visible, len(rows))
	rows = rows[min(v.scrollY, end):end]

	if v.current.LogoURL != "" {
		rows = append(rows, "", s.TitleMuted.Render("Logo: "+v.current.LogoURL))
	}

	sections := []string{s.Title.Render("Display Settings"), ""}
	sections = append(sections, rows...)
	if v.status != "" {
		st := s.StatusBar
		if v.isErr {
			st = s.StatusError
		}
		sections = append(sections, "", st.Render(v.status))
	}
	sections = append(sections, s.Help.Render(fmt.Sprintf("%s save • %s reset • %s upload logo • %s remove logo • %s back",
		s.HelpKey.Render("ctrl+s"),
		s.HelpKey.Render("ctrl+r"),
		s.HelpKey.Render("ctrl+u"),
		s.HelpKey.Render("ctrl+l"),
		s.HelpKey.Render("esc"),
	)))

	content := lipgloss.NewStyle().Width(contentWidth).Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
	return styles.CenterView(content, v.width, v.height)
}
