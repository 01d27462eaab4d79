package models

import (
	"strconv"
	"time"
)

// Project is an open project tree as returned by the server
type Project struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	ShareLink string    `json:"share_link"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Songs     []Song    `json:"songs"`
}

// FindSong returns the song with the given ID, or nil
func (p *Project) FindSong(id int64) *Song {
	if p == nil {
		return nil
	}
	for i := range p.Songs {
		if p.Songs[i].ID == id {
			return &p.Songs[i]
		}
	}
	return nil
}

// ProjectSummary is one row of the admin project list
type ProjectSummary struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	ShareLink    string    `json:"share_link"`
	SongCount    int       `json:"song_count"`
	CommentCount int       `json:"comment_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Song groups the uploaded versions of one track
type Song struct {
	ID           int64     `json:"id"`
	ProjectID    string    `json:"project_id,omitempty"`
	Title        string    `json:"title"`
	Position     int       `json:"position"`
	CreatedAt    time.Time `json:"created_at"`
	VersionCount int       `json:"version_count"`
	CommentCount int       `json:"comment_count"`
	OpenCount    int       `json:"open_count"`
	Versions     []Version `json:"versions"` // ordered by version number
}

// FindVersion returns the version with the given ID, or nil
func (s *Song) FindVersion(id int64) *Version {
	if s == nil {
		return nil
	}
	for i := range s.Versions {
		if s.Versions[i].ID == id {
			return &s.Versions[i]
		}
	}
	return nil
}

// Favourite returns the favourite version, or nil if none is flagged
func (s *Song) Favourite() *Version {
	if s == nil {
		return nil
	}
	for i := range s.Versions {
		if s.Versions[i].Favourite {
			return &s.Versions[i]
		}
	}
	return nil
}

// Latest returns the version with the highest version number, or nil
func (s *Song) Latest() *Version {
	if s == nil {
		return nil
	}
	var latest *Version
	for i := range s.Versions {
		if latest == nil || s.Versions[i].VersionNumber > latest.VersionNumber {
			latest = &s.Versions[i]
		}
	}
	return latest
}

// Version is one uploaded mix of a song
type Version struct {
	ID               int64     `json:"id"`
	SongID           int64     `json:"song_id,omitempty"`
	VersionNumber    int       `json:"version_number"`
	Label            string    `json:"label"`
	OriginalFilename string    `json:"original_filename"`
	Favourite        bool      `json:"favourite"`
	CreatedAt        time.Time `json:"created_at"`
}

// AudioPath is the server path streaming this version's audio
func (v Version) AudioPath() string {
	return AudioPath(v.ID)
}

// AudioPath is the server path streaming the audio of a version ID
func AudioPath(versionID int64) string {
	return "/api/audio/" + strconv.FormatInt(versionID, 10)
}

// Comment is timecode-anchored feedback on a version
type Comment struct {
	ID         int64     `json:"id"`
	VersionID  int64     `json:"version_id"`
	Timecode   float64   `json:"timecode"` // seconds
	AuthorName string    `json:"author_name"`
	Text       string    `json:"text"`
	Solved     bool      `json:"solved"`
	CreatedAt  time.Time `json:"created_at"`
}

// Reply answers a comment. Replies are never nested and have no solved state.
type Reply struct {
	ID         int64     `json:"id"`
	CommentID  int64     `json:"comment_id"`
	AuthorName string    `json:"author_name"`
	Text       string    `json:"text"`
	CreatedAt  time.Time `json:"created_at"`
}

// Thread is a comment with its ordered replies, one level deep
type Thread struct {
	Comment
	Replies []Reply `json:"replies"`
}

// NewComment is the payload for posting a comment
type NewComment struct {
	VersionID  int64   `json:"version_id"`
	Timecode   float64 `json:"timecode"`
	AuthorName string  `json:"author_name"`
	Text       string  `json:"text"`
}

// Palette is one colour scheme of the display settings
type Palette struct {
	Accent           string
	Background900    string
	Background800    string
	Background700    string
	Background600    string
	Text             string
	Waveform         string
	WaveformProgress string
}

// DisplaySettings holds the global look of both consoles
type DisplaySettings struct {
	AccentColor           string `json:"accent_color"`
	Dark900               string `json:"dark_900"`
	Dark800               string `json:"dark_800"`
	Dark700               string `json:"dark_700"`
	Dark600               string `json:"dark_600"`
	TextColor             string `json:"text_color"`
	WaveformColor         string `json:"waveform_color"`
	WaveformProgressColor string `json:"waveform_progress_color"`

	LightAccentColor           string `json:"light_accent_color,omitempty"`
	LightBg900                 string `json:"light_bg_900,omitempty"`
	LightBg800                 string `json:"light_bg_800,omitempty"`
	LightBg700                 string `json:"light_bg_700,omitempty"`
	LightBg600                 string `json:"light_bg_600,omitempty"`
	LightTextColor             string `json:"light_text_color,omitempty"`
	LightWaveformColor         string `json:"light_waveform_color,omitempty"`
	LightWaveformProgressColor string `json:"light_waveform_progress_color,omitempty"`

	LogoURL           string `json:"logo_url,omitempty"`
	LogoHeight        int    `json:"logo_height"`
	ClientsCanResolve bool   `json:"clients_can_resolve"`
}

// DefaultDisplaySettings mirrors the server defaults
func DefaultDisplaySettings() DisplaySettings {
	return DisplaySettings{
		AccentColor:                "#6366f1",
		Dark900:                    "#0f0f0f",
		Dark800:                    "#1a1a1a",
		Dark700:                    "#2a2a2a",
		Dark600:                    "#3a3a3a",
		TextColor:                  "#e5e7eb",
		WaveformColor:              "#4b5563",
		WaveformProgressColor:      "#6366f1",
		LightAccentColor:           "#4f46e5",
		LightBg900:                 "#ffffff",
		LightBg800:                 "#f9fafb",
		LightBg700:                 "#f3f4f6",
		LightBg600:                 "#e5e7eb",
		LightTextColor:             "#111827",
		LightWaveformColor:         "#d1d5db",
		LightWaveformProgressColor: "#4f46e5",
		LogoHeight:                 32,
	}
}

// Palette returns the colours for the given theme mode, falling back to defaults
// for light colours the server has not set
func (s DisplaySettings) Palette(mode string) Palette {
	if mode == "light" {
		d := DefaultDisplaySettings()
		return Palette{
			Accent:           orDefault(s.LightAccentColor, d.LightAccentColor),
			Background900:    orDefault(s.LightBg900, d.LightBg900),
			Background800:    orDefault(s.LightBg800, d.LightBg800),
			Background700:    orDefault(s.LightBg700, d.LightBg700),
			Background600:    orDefault(s.LightBg600, d.LightBg600),
			Text:             orDefault(s.LightTextColor, d.LightTextColor),
			Waveform:         orDefault(s.LightWaveformColor, d.LightWaveformColor),
			WaveformProgress: orDefault(s.LightWaveformProgressColor, d.LightWaveformProgressColor),
		}
	}
	return Palette{
		Accent:           s.AccentColor,
		Background900:    s.Dark900,
		Background800:    s.Dark800,
		Background700:    s.Dark700,
		Background600:    s.Dark600,
		Text:             s.TextColor,
		Waveform:         s.WaveformColor,
		WaveformProgress: s.WaveformProgressColor,
	}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// SettingsUpdate is a partial update of the display settings. Nil fields are left alone.
type SettingsUpdate struct {
	AccentColor                *string `json:"accent_color,omitempty"`
	Dark900                    *string `json:"dark_900,omitempty"`
	Dark800                    *string `json:"dark_800,omitempty"`
	Dark700                    *string `json:"dark_700,omitempty"`
	Dark600                    *string `json:"dark_600,omitempty"`
	TextColor                  *string `json:"text_color,omitempty"`
	WaveformColor              *string `json:"waveform_color,omitempty"`
	WaveformProgressColor      *string `json:"waveform_progress_color,omitempty"`
	LightAccentColor           *string `json:"light_accent_color,omitempty"`
	LightBg900                 *string `json:"light_bg_900,omitempty"`
	LightBg800                 *string `json:"light_bg_800,omitempty"`
	LightBg700                 *string `json:"light_bg_700,omitempty"`
	LightBg600                 *string `json:"light_bg_600,omitempty"`
	LightTextColor             *string `json:"light_text_color,omitempty"`
	LightWaveformColor         *string `json:"light_waveform_color,omitempty"`
	LightWaveformProgressColor *string `json:"light_waveform_progress_color,omitempty"`
	LogoHeight                 *int    `json:"logo_height,omitempty"`
	ClientsCanResolve          *bool   `json:"clients_can_resolve,omitempty"`
}

// AuthStatus reports whether the first admin account exists
type AuthStatus struct {
	SetupComplete bool `json:"setup_complete"`
}

// Credentials are sent on login and first-run setup
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Token is the bearer credential issued on login
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}
