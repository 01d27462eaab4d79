package views

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/tgienger/mixreview/internal/api"
	"github.com/tgienger/mixreview/internal/models"
	"github.com/tgienger/mixreview/internal/navigator"
	"github.com/tgienger/mixreview/internal/player"
	"github.com/tgienger/mixreview/internal/ui/keys"
	"github.com/tgienger/mixreview/internal/ui/styles"
)

// seekStep is the jump of the seek keys in seconds
const seekStep = 5

// PositionMsg carries a player position event into the UI loop
type PositionMsg player.PositionEvent

// FocusArea is the pane that receives list keys
type FocusArea int

const (
	FocusVersions FocusArea = iota
	FocusComments
)

type formMode int

const (
	formComment formMode = iota
	formReply
	formEdit
)

type uploadProgressMsg struct {
	sent, total int64
}

type uploadDoneMsg struct {
	err error
}

// formDoneMsg reports a posted form. The form stays open until it succeeds.
type formDoneMsg struct {
	text string
	err  error
}

// SongView plays the versions of a song and shows their comments
type SongView struct {
	env    *Env
	state  navigator.State
	styles *styles.Styles
	keys   keys.KeyMap

	width  int
	height int
	status string
	isErr  bool

	position player.PositionEvent

	focus         FocusArea
	versionCursor int
	commentCursor int

	// comment, reply and edit form
	formOpen   bool
	formBusy   bool
	formMode   formMode
	formTarget int64
	formFocus  int // 0=author, 1=text
	author     textinput.Model
	text       textarea.Model

	// upload form
	uploadOpen   bool
	uploading    bool
	uploadFocus  int // 0=path, 1=label, 2=number
	uploadPath   textinput.Model
	uploadLabel  textinput.Model
	uploadNumber textinput.Model
	uploadCh     chan tea.Msg
	uploadSent   int64
	uploadTotal  int64
	bar          progress.Model

	prompt  prompt
	confirm confirm

	showHelpPopup bool
}

// NewSongView creates the song page
func NewSongView(env *Env, state navigator.State) *SongView {
	author := textinput.New()
	author.Placeholder = "Your name"
	author.CharLimit = 100

	text := textarea.New()
	text.Placeholder = "Write a comment..."
	text.CharLimit = 2000
	text.SetWidth(50)
	text.SetHeight(3)
	text.ShowLineNumbers = false

	path := textinput.New()
	path.Placeholder = "/path/to/mix.wav"
	path.CharLimit = 1024

	label := textinput.New()
	label.Placeholder = "Label (optional)"
	label.CharLimit = 200

	number := textinput.New()
	number.Placeholder = "auto"
	number.CharLimit = 4

	v := &SongView{
		env:          env,
		styles:       styles.NewStyles(),
		keys:         keys.DefaultKeyMap(),
		author:       author,
		text:         text,
		uploadPath:   path,
		uploadLabel:  label,
		uploadNumber: number,
		bar:          progress.New(progress.WithDefaultGradient()),
		prompt:       newPrompt(),
		position:     env.Player.Snapshot(),
	}
	v.SetState(state)
	return v
}

// SetState shows a new snapshot of the song
func (v *SongView) SetState(state navigator.State) {
	v.state = state
	song := state.Song()
	if song == nil {
		v.versionCursor = 0
		return
	}
	for i, ver := range song.Versions {
		if ver.ID == state.VersionID {
			v.versionCursor = i
			return
		}
	}
	v.versionCursor = clamp(v.versionCursor, 0, max(len(song.Versions)-1, 0))
}

// Restyle picks up the current theme
func (v *SongView) Restyle() { v.styles = styles.NewStyles() }

func (v *SongView) Init() tea.Cmd {
	return nil
}

func (v *SongView) song() *models.Song {
	return v.state.Song()
}

func (v *SongView) cursorVersion() (models.Version, bool) {
	song := v.song()
	if song == nil || v.versionCursor >= len(song.Versions) {
		return models.Version{}, false
	}
	return song.Versions[v.versionCursor], true
}

func (v *SongView) cursorComment() (models.Thread, bool) {
	active := v.env.Comments.Active()
	if len(active) == 0 {
		return models.Thread{}, false
	}
	v.commentCursor = clamp(v.commentCursor, 0, len(active)-1)
	return active[v.commentCursor], true
}

func (v *SongView) canResolve() bool {
	return v.env.Admin() || v.env.Cache.CachedSettings().ClientsCanResolve
}

func (v *SongView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		contentWidth := styles.ContentWidth(v.width)
		inputWidth := clamp(contentWidth-10, 20, 60)
		v.text.SetWidth(inputWidth)
		v.bar.Width = clamp(contentWidth-10, 10, 60)
		return v, nil

	case PositionMsg:
		v.position = player.PositionEvent(msg)
		return v, nil

	case StatusMsg:
		v.setStatus(msg.Text, msg.Err)
		return v, nil

	case formDoneMsg:
		v.formBusy = false
		if msg.err != nil {
			v.setStatus("", msg.err)
			return v, nil
		}
		v.formOpen = false
		v.text.Reset()
		v.setStatus(msg.text, nil)
		return v, nil

	case uploadProgressMsg:
		v.uploadSent, v.uploadTotal = msg.sent, msg.total
		return v, waitUpload(v.uploadCh)

	case uploadDoneMsg:
		v.uploading = false
		v.uploadCh = nil
		if msg.err != nil {
			v.setStatus("", msg.err)
			return v, nil
		}
		return v, func() tea.Msg { return NavigatedMsg{Text: "Version uploaded"} }

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
		if v.formOpen {
			return v.updateForm(msg)
		}
		if v.uploadOpen {
			return v.updateUpload(msg)
		}
		return v.updateNormal(msg)
	}

	switch {
	case v.prompt.active:
		return v, v.prompt.update(msg)
	case v.formOpen:
		var cmd tea.Cmd
		if v.formFocus == 0 {
			v.author, cmd = v.author.Update(msg)
		} else {
			v.text, cmd = v.text.Update(msg)
		}
		return v, cmd
	case v.uploadOpen:
		var cmd tea.Cmd
		switch v.uploadFocus {
		case 0:
			v.uploadPath, cmd = v.uploadPath.Update(msg)
		case 1:
			v.uploadLabel, cmd = v.uploadLabel.Update(msg)
		case 2:
			v.uploadNumber, cmd = v.uploadNumber.Update(msg)
		}
		return v, cmd
	}
	return v, nil
}

func (v *SongView) setStatus(text string, err error) {
	if err != nil {
		v.status, v.isErr = ErrorText(err), true
		return
	}
	v.status, v.isErr = text, false
}

func (v *SongView) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if v.uploading {
		// only playback while an upload runs
		switch {
		case key.Matches(msg, v.keys.Play):
			return v, v.togglePlay()
		case key.Matches(msg, v.keys.Quit):
			return v, tea.Quit
		}
		return v, nil
	}

	v.status = ""
	switch {
	case key.Matches(msg, v.keys.Quit):
		return v, tea.Quit

	case key.Matches(msg, v.keys.Back):
		if v.state.CanGoBack() {
			return v, navigate(v.env.Nav.Back)
		}
		return v, nil

	case key.Matches(msg, v.keys.Help):
		v.showHelpPopup = true
		return v, nil

	case key.Matches(msg, v.keys.Theme):
		return v, toggleTheme(v.env)

	case key.Matches(msg, v.keys.Tab) || msg.String() == "shift+tab":
		if v.focus == FocusVersions {
			v.focus = FocusComments
		} else {
			v.focus = FocusVersions
		}
		return v, nil

	case key.Matches(msg, v.keys.Play):
		return v, v.togglePlay()

	case key.Matches(msg, v.keys.SeekBack):
		return v, v.seek(player.Seconds(v.env.Player.CurrentPosition() - seekStep))

	case key.Matches(msg, v.keys.SeekFwd):
		return v, v.seek(player.Seconds(v.env.Player.CurrentPosition() + seekStep))

	case key.Matches(msg, v.keys.PrevMark), key.Matches(msg, v.keys.NextMark):
		forward := key.Matches(msg, v.keys.NextMark)
		if m, ok := adjacentMarker(v.env.Comments.Markers(), v.env.Player.CurrentPosition(), forward); ok {
			v.selectComment(m.CommentID)
			return v, v.seek(player.Seconds(m.Seek))
		}
		return v, nil

	case key.Matches(msg, v.keys.Up):
		if v.focus == FocusVersions {
			v.versionCursor = max(v.versionCursor-1, 0)
		} else {
			v.commentCursor = max(v.commentCursor-1, 0)
		}
		return v, nil

	case key.Matches(msg, v.keys.Down):
		if v.focus == FocusVersions {
			if song := v.song(); song != nil {
				v.versionCursor = min(v.versionCursor+1, max(len(song.Versions)-1, 0))
			}
		} else {
			v.commentCursor = min(v.commentCursor+1, max(len(v.env.Comments.Active())-1, 0))
		}
		return v, nil

	case key.Matches(msg, v.keys.Comment):
		if v.state.VersionID == 0 {
			v.setStatus("", &api.ValidationError{Field: "version", Message: "No version to comment on"})
			return v, nil
		}
		return v, v.openForm(formComment, 0, "")

	case key.Matches(msg, v.keys.Upload) && v.env.Admin():
		v.openUpload()
		return v, textinput.Blink

	case key.Matches(msg, v.keys.Settings) && v.env.Admin():
		return v, navigate(v.env.Nav.OpenSettings)
	}

	if v.focus == FocusVersions {
		return v.updateVersions(msg)
	}
	return v.updateComments(msg)
}

func (v *SongView) togglePlay() tea.Cmd {
	if err := v.env.Player.Toggle(); err != nil {
		v.setStatus("", err)
	}
	v.position = v.env.Player.Snapshot()
	return nil
}

func (v *SongView) seek(p player.Position) tea.Cmd {
	if err := v.env.Player.Seek(p); err != nil {
		v.setStatus("", err)
	}
	v.position = v.env.Player.Snapshot()
	return nil
}

func (v *SongView) selectComment(id int64) {
	for i, t := range v.env.Comments.Active() {
		if t.ID == id {
			v.commentCursor = i
			return
		}
	}
}

func (v *SongView) updateVersions(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	ver, ok := v.cursorVersion()
	if !ok {
		return v, nil
	}

	switch {
	case key.Matches(msg, v.keys.Enter):
		if ver.ID == v.state.VersionID {
			return v, v.togglePlay()
		}
		id := ver.ID
		return v, navigate(func(ctx context.Context) error {
			return v.env.Nav.SelectVersion(ctx, id)
		})

	case key.Matches(msg, v.keys.Favourite):
		link := v.state.Project.ShareLink
		return v, navigate(func(ctx context.Context) error {
			var err error
			if v.env.Admin() {
				err = v.env.API.ToggleFavourite(ctx, ver.ID)
			} else {
				err = v.env.API.ToggleFavouriteShared(ctx, link, ver.ID)
			}
			if err != nil {
				return err
			}
			return v.env.Nav.Reload(ctx)
		})

	case v.env.Admin() && key.Matches(msg, v.keys.Rename):
		return v, v.prompt.open("Rename Version", "Label", ver.Label, true, func(label string) tea.Cmd {
			return navigateDone("Version renamed", func(ctx context.Context) error {
				if err := v.env.API.RenameVersion(ctx, ver.ID, label); err != nil {
					return err
				}
				return v.env.Nav.Reload(ctx)
			})
		})

	case v.env.Admin() && key.Matches(msg, v.keys.Delete):
		v.confirm.open("Delete Version?",
			fmt.Sprintf("v%d %s and its comments will be removed.", ver.VersionNumber, ver.Label),
			func() tea.Cmd {
				return navigateDone("Version deleted", func(ctx context.Context) error {
					if err := v.env.API.DeleteVersion(ctx, ver.ID); err != nil {
						return err
					}
					return v.env.Nav.VersionDeleted(ctx, ver.ID)
				})
			})
		return v, nil
	}
	return v, nil
}

func (v *SongView) updateComments(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	t, ok := v.cursorComment()
	if !ok {
		return v, nil
	}

	switch {
	case key.Matches(msg, v.keys.Enter):
		return v, v.seek(player.Seconds(t.Timecode))

	case key.Matches(msg, v.keys.Reply):
		return v, v.openForm(formReply, t.ID, "")

	case key.Matches(msg, v.keys.Solve) && v.canResolve():
		done := "Marked solved"
		if t.Solved {
			done = "Reopened"
		}
		return v, mutation(done, func(ctx context.Context) error {
			return v.env.Comments.SetSolved(ctx, t.ID, !t.Solved)
		})

	case v.env.Admin() && key.Matches(msg, v.keys.Edit):
		return v, v.openForm(formEdit, t.ID, t.Text)

	case v.env.Admin() && key.Matches(msg, v.keys.Delete):
		v.confirm.open("Delete Comment?",
			fmt.Sprintf("The comment by %s and its replies will be removed.", t.AuthorName),
			func() tea.Cmd {
				return mutation("Comment deleted", func(ctx context.Context) error {
					return v.env.Comments.Delete(ctx, t.ID)
				})
			})
		return v, nil
	}
	return v, nil
}

// authorName is the stored name for new comments
func (v *SongView) authorName() string {
	var (
		name string
		err  error
	)
	if v.env.Admin() {
		name, err = v.env.Identity.AdminName()
	} else {
		name, err = v.env.Identity.DisplayName(v.state.Project.ShareLink)
	}
	if err != nil {
		v.env.Log.Warn().Err(err).Msg("read display name")
	}
	return name
}

func (v *SongView) openForm(mode formMode, target int64, text string) tea.Cmd {
	v.formOpen = true
	v.formMode = mode
	v.formTarget = target
	v.author.SetValue(v.authorName())
	v.text.SetValue(text)

	v.formFocus = 1
	if mode != formEdit && !v.env.Admin() && strings.TrimSpace(v.author.Value()) == "" {
		v.formFocus = 0
	}
	v.updateFormFocus()
	return textinput.Blink
}

func (v *SongView) updateFormFocus() {
	v.author.Blur()
	v.text.Blur()
	if v.formFocus == 0 {
		v.author.Focus()
	} else {
		v.text.Focus()
	}
}

// authorEditable reports whether the form shows the name field
func (v *SongView) authorEditable() bool {
	return v.formMode != formEdit && !v.env.Admin()
}

func (v *SongView) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.String() == "esc":
		v.formOpen = false
		return v, nil

	case key.Matches(msg, v.keys.Tab) || msg.String() == "shift+tab":
		if v.authorEditable() {
			v.formFocus = 1 - v.formFocus
			v.updateFormFocus()
		}
		return v, nil

	case key.Matches(msg, v.keys.Save) || (msg.String() == "enter" && v.formFocus == 1):
		if v.formBusy {
			return v, nil
		}
		return v, v.submitForm()

	case msg.String() == "enter" && v.formFocus == 0:
		v.formFocus = 1
		v.updateFormFocus()
		return v, nil
	}

	var cmd tea.Cmd
	if v.formFocus == 0 {
		v.author, cmd = v.author.Update(msg)
	} else {
		v.text, cmd = v.text.Update(msg)
	}
	return v, cmd
}

func (v *SongView) submitForm() tea.Cmd {
	author, text := v.author.Value(), v.text.Value()
	mode, target := v.formMode, v.formTarget

	// validation errors keep the form open with its input
	if strings.TrimSpace(text) == "" {
		v.setStatus("", api.Required("text"))
		v.formFocus = 1
		v.updateFormFocus()
		return nil
	}
	if mode != formEdit && strings.TrimSpace(author) == "" {
		v.setStatus("", api.Required("author"))
		v.formFocus = 0
		v.updateFormFocus()
		return nil
	}
	v.formBusy = true
	v.status = ""

	syncer := v.env.Comments
	link := v.state.Project.ShareLink
	remember := func() {
		if v.env.Admin() {
			return
		}
		if err := v.env.Identity.SetDisplayName(link, author); err != nil {
			v.env.Log.Warn().Err(err).Msg("persist display name")
		}
	}

	switch mode {
	case formReply:
		return postForm("Reply posted", func(ctx context.Context) error {
			if err := syncer.Reply(ctx, target, author, text); err != nil {
				return err
			}
			remember()
			return nil
		})
	case formEdit:
		return postForm("Comment updated", func(ctx context.Context) error {
			return syncer.Edit(ctx, target, text)
		})
	}
	return postForm("Comment posted", func(ctx context.Context) error {
		if err := syncer.Submit(ctx, author, text); err != nil {
			return err
		}
		remember()
		return nil
	})
}

func postForm(done string, fn func(ctx context.Context) error) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			return formDoneMsg{err: err}
		}
		return formDoneMsg{text: done}
	}
}

func (v *SongView) openUpload() {
	v.uploadOpen = true
	v.uploadFocus = 0
	v.uploadPath.Reset()
	v.uploadLabel.Reset()
	v.uploadNumber.Reset()
	v.updateUploadFocus()
}

func (v *SongView) updateUploadFocus() {
	inputs := []*textinput.Model{&v.uploadPath, &v.uploadLabel, &v.uploadNumber}
	for i, in := range inputs {
		if i == v.uploadFocus {
			in.Focus()
		} else {
			in.Blur()
		}
	}
}

func (v *SongView) updateUpload(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.String() == "esc":
		v.uploadOpen = false
		return v, nil

	case msg.String() == "shift+tab":
		v.uploadFocus = (v.uploadFocus + 2) % 3
		v.updateUploadFocus()
		return v, nil

	case key.Matches(msg, v.keys.Tab):
		v.uploadFocus = (v.uploadFocus + 1) % 3
		v.updateUploadFocus()
		return v, nil

	case key.Matches(msg, v.keys.Save) || (msg.String() == "enter" && v.uploadFocus == 2):
		return v, v.submitUpload()

	case msg.String() == "enter":
		v.uploadFocus++
		v.updateUploadFocus()
		return v, nil
	}

	var cmd tea.Cmd
	switch v.uploadFocus {
	case 0:
		v.uploadPath, cmd = v.uploadPath.Update(msg)
	case 1:
		v.uploadLabel, cmd = v.uploadLabel.Update(msg)
	case 2:
		v.uploadNumber, cmd = v.uploadNumber.Update(msg)
	}
	return v, cmd
}

func (v *SongView) submitUpload() tea.Cmd {
	up := api.Upload{
		SongID: v.state.SongID,
		Path:   strings.TrimSpace(v.uploadPath.Value()),
		Label:  v.uploadLabel.Value(),
	}
	if err := api.CheckAudioFile(up.Path); err != nil {
		v.setStatus("", err)
		return nil
	}
	if n := strings.TrimSpace(v.uploadNumber.Value()); n != "" {
		number, err := strconv.Atoi(n)
		if err != nil || number <= 0 {
			v.setStatus("", &api.ValidationError{Field: "version", Message: "Version number must be a positive integer"})
			return nil
		}
		up.VersionNumber = number
	}

	v.uploadOpen = false
	v.uploading = true
	v.uploadSent, v.uploadTotal = 0, 0
	ch := make(chan tea.Msg, 8)
	v.uploadCh = ch

	go func() {
		defer close(ch)
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		_, err := v.env.API.UploadVersion(ctx, up, func(sent, total int64) {
			select {
			case ch <- uploadProgressMsg{sent: sent, total: total}:
			default:
			}
		})
		if err == nil {
			err = v.env.Nav.Reload(ctx)
		}
		ch <- uploadDoneMsg{err: err}
	}()
	return waitUpload(ch)
}

func waitUpload(ch <-chan tea.Msg) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		msg, ok := <-ch
		if !ok {
			return nil
		}
		return msg
	}
}

// View renders the view
func (v *SongView) View() string {
	switch {
	case v.showHelpPopup:
		return v.renderHelpPopup()
	case v.confirm.active:
		return v.confirm.view(v.styles, v.width, v.height)
	case v.prompt.active:
		return v.prompt.view(v.styles, v.width, v.height)
	case v.formOpen:
		return v.renderForm()
	case v.uploadOpen:
		return v.renderUpload()
	}

	s := v.styles
	song := v.song()
	if song == nil {
		return s.TitleMuted.Render("Loading...")
	}
	contentWidth := styles.ContentWidth(v.width)

	title := s.Title.Render(song.Title)
	if v.env.Admin() {
		if open := v.env.Comments.SongUnsolvedCount(); open > 0 {
			title += "  " + s.Badge.Render(fmt.Sprintf("%d open", open))
		}
	}

	sections := []string{
		title + "  " + s.TitleMuted.Render(v.state.Project.Title),
		"",
		v.renderVersions(contentWidth),
		"",
		v.renderPlayer(contentWidth),
		"",
		v.renderComments(contentWidth),
	}
	if v.uploading {
		sections = append(sections, "", v.renderUploadProgress())
	}
	if v.status != "" {
		st := s.StatusBar
		if v.isErr {
			st = s.StatusError
		}
		sections = append(sections, "", st.Render(v.status))
	}
	sections = append(sections, v.renderHelp())

	return styles.CenterView(lipgloss.JoinVertical(lipgloss.Left, sections...), v.width, v.height)
}

func (v *SongView) panel(focused bool) lipgloss.Style {
	if focused {
		return v.styles.PanelFocused
	}
	return v.styles.Panel
}

func (v *SongView) renderVersions(width int) string {
	s := v.styles
	song := v.song()

	var rows []string
	if len(song.Versions) == 0 {
		hint := "No versions yet"
		if v.env.Admin() {
			hint += ". Press 'u' to upload one"
		}
		rows = append(rows, s.TitleMuted.Render(hint))
	}
	for i, ver := range song.Versions {
		line := fmt.Sprintf("v%d", ver.VersionNumber)
		if ver.Label != "" {
			line += "  " + ver.Label
		}
		if ver.Favourite {
			line += "  " + s.Favourite.Render("★")
		}
		if ver.ID == v.state.VersionID {
			line += "  " + s.Timecode.Render("♪")
		}
		if v.env.Admin() {
			if open := v.env.Comments.UnsolvedCount(ver.ID); open > 0 {
				line += "  " + s.Badge.Render(fmt.Sprintf("%d open", open))
			}
		}
		line += "  " + s.TitleMuted.Render(humanize.Time(ver.CreatedAt))

		style := s.ListItem
		if i == v.versionCursor && v.focus == FocusVersions {
			style = s.ListSelected
		}
		rows = append(rows, style.Render(line))
	}

	header := s.TitleMuted.Render("Versions")
	return v.panel(v.focus == FocusVersions).Width(max(width-4, 20)).
		Render(lipgloss.JoinVertical(lipgloss.Left, append([]string{header}, rows...)...))
}

func (v *SongView) renderPlayer(width int) string {
	s := v.styles
	inner := max(width-8, 10)

	if v.state.VersionID == 0 || v.env.Player.VersionID() != v.state.VersionID {
		msg := "Nothing loaded"
		if v.state.VersionID != 0 {
			msg = "No playable version"
		}
		return v.panel(false).Width(max(width-4, 20)).Render(s.TitleMuted.Render(msg))
	}

	pos := v.position
	if pos.VersionID != v.state.VersionID {
		pos = v.env.Player.Snapshot()
	}
	icon := "▶"
	if pos.Playing {
		icon = "⏸"
	}
	clock := fmt.Sprintf("%s  %s / %s", icon, FormatTimecode(pos.Position), FormatTimecode(pos.Duration))
	timeline := renderTimeline(s, inner, pos.Position, pos.Duration, v.env.Comments.Markers())

	return v.panel(false).Width(max(width-4, 20)).
		Render(lipgloss.JoinVertical(lipgloss.Left, s.Timecode.Render(clock), timeline))
}

// commentLines renders one thread
func (v *SongView) commentLines(t models.Thread, selected bool, width int) []string {
	s := v.styles

	state := ""
	if t.Solved {
		state = "  " + s.Solved.Render("✓ solved")
	}
	head := s.Timecode.Render("@"+FormatTimecode(t.Timecode)) + "  " + s.Author.Render(t.AuthorName) + state
	body := lipgloss.NewStyle().Width(max(width-4, 10)).Render(t.Text)

	style := s.ListItem
	if selected {
		style = s.ListSelected
	}
	lines := []string{style.Render(head), style.Render(body)}
	for _, r := range t.Replies {
		lines = append(lines, s.Reply.Render("↳ "+s.Author.Render(r.AuthorName)+": "+r.Text))
	}
	return lines
}

func (v *SongView) renderComments(width int) string {
	s := v.styles
	active := v.env.Comments.Active()

	header := s.TitleMuted.Render(fmt.Sprintf("Comments (%d)", len(active)))
	if len(active) == 0 {
		return v.panel(v.focus == FocusComments).Width(max(width-4, 20)).
			Render(header + "\n" + s.TitleMuted.Render("No comments on this version"))
	}

	v.commentCursor = clamp(v.commentCursor, 0, len(active)-1)

	// show a window of threads around the cursor
	budget := max(v.height-24, 6)
	start := v.commentCursor
	var rows []string
	used := 0
	for i := start; i < len(active); i++ {
		lines := v.commentLines(active[i], i == v.commentCursor && v.focus == FocusComments, width-8)
		if used > 0 && used+len(lines) > budget {
			break
		}
		rows = append(rows, lines...)
		used += len(lines)
	}
	if start > 0 {
		rows = append([]string{s.TitleMuted.Render(fmt.Sprintf("↑ %d more", start))}, rows...)
	}

	return v.panel(v.focus == FocusComments).Width(max(width-4, 20)).
		Render(lipgloss.JoinVertical(lipgloss.Left, append([]string{header}, rows...)...))
}

func (v *SongView) renderUploadProgress() string {
	percent := 0.0
	if v.uploadTotal > 0 {
		percent = float64(v.uploadSent) / float64(v.uploadTotal)
	}
	return v.styles.StatusBar.Render(fmt.Sprintf("Uploading %s / %s",
		humanize.Bytes(uint64(v.uploadSent)), humanize.Bytes(uint64(v.uploadTotal)))) +
		"\n" + v.bar.ViewAs(percent)
}

func (v *SongView) renderForm() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)
	inputWidth := clamp(contentWidth-6, 20, 60)

	title := fmt.Sprintf("Comment at %s", FormatTimecode(v.env.Player.CurrentPosition()))
	switch v.formMode {
	case formReply:
		title = "Reply"
		if t, ok := v.env.Comments.Find(v.formTarget); ok {
			title = "Reply to " + t.AuthorName
		}
	case formEdit:
		title = "Edit Comment"
	}

	rows := []string{s.Title.Render(title), ""}
	if v.authorEditable() {
		authorStyle := s.Input
		if v.formFocus == 0 {
			authorStyle = s.InputFocused
		}
		rows = append(rows, "Name:", authorStyle.Width(inputWidth).Render(v.author.View()), "")
	} else if v.formMode != formEdit {
		rows = append(rows, s.TitleMuted.Render("as "+v.author.Value()), "")
	}
	textStyle := s.Input
	if v.formFocus == 1 {
		textStyle = s.InputFocused
	}
	rows = append(rows, "Text:", textStyle.Render(v.text.View()))
	if v.status != "" && v.isErr {
		rows = append(rows, "", s.StatusError.Render(v.status))
	}
	rows = append(rows, "", s.TitleMuted.Render("Tab: next • Enter: post • Esc: cancel"))

	centered := lipgloss.Place(contentWidth, v.height,
		lipgloss.Center, lipgloss.Center,
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
	return styles.CenterView(centered, v.width, v.height)
}

func (v *SongView) renderUpload() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)
	inputWidth := clamp(contentWidth-6, 20, 60)

	field := func(idx int, label string, in textinput.Model) []string {
		st := s.Input
		if v.uploadFocus == idx {
			st = s.InputFocused
		}
		return []string{label, st.Width(inputWidth).Render(in.View()), ""}
	}

	rows := []string{s.Title.Render("Upload Version"), ""}
	rows = append(rows, field(0, "File (WAV, MP3 or FLAC):", v.uploadPath)...)
	rows = append(rows, field(1, "Label:", v.uploadLabel)...)
	rows = append(rows, field(2, "Version number:", v.uploadNumber)...)
	if v.status != "" && v.isErr {
		rows = append(rows, s.StatusError.Render(v.status), "")
	}
	rows = append(rows, s.TitleMuted.Render("Tab: next • Ctrl+S: upload • Esc: cancel"))

	centered := lipgloss.Place(contentWidth, v.height,
		lipgloss.Center, lipgloss.Center,
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
	return styles.CenterView(centered, v.width, v.height)
}

func (v *SongView) renderHelp() string {
	s := v.styles
	if w := styles.ContentWidth(v.width); w > 0 && w < 70 {
		return s.Help.Render(s.HelpKey.Render("?") + " help")
	}
	return s.Help.Render(fmt.Sprintf("%s play • %s seek • %s comment • %s reply • %s switch pane • %s help",
		s.HelpKey.Render("space"),
		s.HelpKey.Render("←/→"),
		s.HelpKey.Render("c"),
		s.HelpKey.Render("R"),
		s.HelpKey.Render("tab"),
		s.HelpKey.Render("?"),
	))
}

func (v *SongView) renderHelpPopup() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)
	row := func(k, desc string) string {
		return s.HelpKey.Render(fmt.Sprintf("%-7s", k)) + desc
	}

	items := []string{
		row("space", "play / pause"),
		row("←/→", "seek 5 seconds"),
		row("[/]", "previous / next comment"),
		row("tab", "switch versions / comments"),
		row("↵", "load version / jump to comment"),
		row("f", "toggle favourite"),
		row("c", "comment at playhead"),
		row("R", "reply to comment"),
	}
	if v.canResolve() {
		items = append(items, row("x", "solve / reopen comment"))
	}
	if v.env.Admin() {
		items = append(items,
			row("e", "edit comment"),
			row("r", "rename version"),
			row("d", "delete version / comment"),
			row("u", "upload version"),
			row("s", "settings"),
		)
	}
	if v.state.CanGoBack() {
		items = append(items, row("esc", "back"))
	}
	items = append(items,
		row("T", "toggle light/dark"),
		row("q", "quit"),
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
