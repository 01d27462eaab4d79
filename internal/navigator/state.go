// Package navigator is the view state machine shared by both consoles.
//
// State is an explicit value; Transition maps (state, event) to the next
// state and the side effects to run, without performing them. The Navigator
// executes transitions: it fetches whatever data the event needs first, so a
// failed fetch leaves the state untouched, then applies the transition and
// runs its effects in order.
package navigator

import (
	"github.com/tgienger/mixreview/internal/models"
)

// Console is the front end a state belongs to
type Console int

const (
	Admin Console = iota
	Public
)

func (c Console) String() string {
	if c == Public {
		return "public"
	}
	return "admin"
}

// View is one of the mutually exclusive screens
type View int

const (
	ProjectList View = iota
	ProjectDetail
	SongDetail
	Settings
)

func (v View) String() string {
	switch v {
	case ProjectList:
		return "project-list"
	case ProjectDetail:
		return "project"
	case SongDetail:
		return "song"
	case Settings:
		return "settings"
	}
	return "unknown"
}

// State is the application state. Project is a shared snapshot and must not
// be modified.
type State struct {
	Console   Console
	View      View
	Project   *models.Project
	SongID    int64
	VersionID int64 // version loaded in the player, 0 for none
}

// Song returns the open song, or nil
func (s State) Song() *models.Song {
	if s.View != SongDetail {
		return nil
	}
	return s.Project.FindSong(s.SongID)
}

// Version returns the loaded version, or nil
func (s State) Version() *models.Version {
	return s.Song().FindVersion(s.VersionID)
}

// CanGoBack reports whether Back leads anywhere
func (s State) CanGoBack() bool {
	next, _ := Transition(s, BackPressed{})
	return next.View != s.View
}

// Event is an input to Transition
type Event interface{ event() }

// ProjectListOpened navigates to the admin project list
type ProjectListOpened struct{}

// ProjectOpened navigates to a project
type ProjectOpened struct{ Project *models.Project }

// SongOpened navigates to a song of a freshly fetched project
type SongOpened struct {
	Project *models.Project
	SongID  int64
}

// VersionSelected switches the loaded version of the open song
type VersionSelected struct{ VersionID int64 }

// SettingsOpened navigates to the admin settings
type SettingsOpened struct{}

// BackPressed navigates one level up
type BackPressed struct{}

// ProjectReloaded replaces the project snapshot after a mutation
type ProjectReloaded struct{ Project *models.Project }

// VersionRemoved reports a deleted version
type VersionRemoved struct{ VersionID int64 }

// SongRemoved reports a deleted song
type SongRemoved struct{ SongID int64 }

// ProjectRemoved reports a deleted project
type ProjectRemoved struct{ ProjectID string }

func (ProjectListOpened) event() {}
func (ProjectOpened) event()     {}
func (SongOpened) event()        {}
func (VersionSelected) event()   {}
func (SettingsOpened) event()    {}
func (BackPressed) event()       {}
func (ProjectReloaded) event()   {}
func (VersionRemoved) event()    {}
func (SongRemoved) event()       {}
func (ProjectRemoved) event()    {}

// Effect is a side effect requested by Transition
type Effect interface{ effect() }

// TeardownPlayer releases the audio transport
type TeardownPlayer struct{}

// LoadVersion opens a version in the player. Preserve keeps the position and
// play state of the previous version.
type LoadVersion struct {
	VersionID int64
	Preserve  bool
}

// LoadComments reloads the comment projections
type LoadComments struct {
	SongID    int64
	VersionID int64
}

// ClearComments empties the comment projections
type ClearComments struct{}

func (TeardownPlayer) effect() {}
func (LoadVersion) effect()    {}
func (LoadComments) effect()   {}
func (ClearComments) effect()  {}

// Selection names the branch that picked a version on entering a song
type Selection int

const (
	SelectNone Selection = iota
	SelectPrevious
	SelectFavourite
	SelectLatest
)

// AutoSelect picks the version to load on entering a song: the previous
// version if the song still has it, else the favourite, else the highest
// version number.
func AutoSelect(song *models.Song, previous int64) (int64, Selection) {
	if song == nil || len(song.Versions) == 0 {
		return 0, SelectNone
	}
	if previous != 0 && song.FindVersion(previous) != nil {
		return previous, SelectPrevious
	}
	if fav := song.Favourite(); fav != nil {
		return fav.ID, SelectFavourite
	}
	return song.Latest().ID, SelectLatest
}

// Transition is the state machine. Events that do not apply to the current
// state return it unchanged with no effects.
func Transition(s State, e Event) (State, []Effect) {
	switch e := e.(type) {
	case ProjectListOpened:
		if s.Console == Public {
			return s, nil
		}
		return leave(s, ProjectList, nil)

	case ProjectOpened:
		if e.Project == nil {
			return s, nil
		}
		return leave(s, ProjectDetail, e.Project)

	case SettingsOpened:
		if s.Console == Public {
			return s, nil
		}
		return leave(s, Settings, nil)

	case BackPressed:
		switch s.View {
		case SongDetail:
			if s.Console == Public && len(s.Project.Songs) <= 1 {
				return s, nil
			}
			return leave(s, ProjectDetail, s.Project)
		case ProjectDetail, Settings:
			if s.Console == Public {
				return s, nil
			}
			return leave(s, ProjectList, nil)
		}
		return s, nil

	case SongOpened:
		if e.Project == nil || e.Project.FindSong(e.SongID) == nil {
			return s, nil
		}
		// the selection only survives while the same song stays open
		var previous int64
		if s.View == SongDetail && s.SongID == e.SongID {
			previous = s.VersionID
		}
		return enterSong(s, e.Project, e.SongID, previous)

	case ProjectReloaded:
		if e.Project == nil {
			return s, nil
		}
		switch s.View {
		case ProjectDetail:
			s.Project = e.Project
			return s, nil
		case SongDetail:
			if e.Project.FindSong(s.SongID) == nil {
				return leave(s, ProjectDetail, e.Project)
			}
			return enterSong(s, e.Project, s.SongID, s.VersionID)
		}
		return s, nil

	case VersionSelected:
		song := s.Song()
		if song == nil || song.FindVersion(e.VersionID) == nil || e.VersionID == s.VersionID {
			return s, nil
		}
		preserve := s.VersionID != 0
		s.VersionID = e.VersionID
		return s, []Effect{
			LoadVersion{VersionID: e.VersionID, Preserve: preserve},
			LoadComments{SongID: s.SongID, VersionID: e.VersionID},
		}

	case VersionRemoved:
		if s.View != SongDetail || s.VersionID != e.VersionID || e.VersionID == 0 {
			return s, nil
		}
		s.VersionID = 0
		return s, []Effect{TeardownPlayer{}, ClearComments{}}

	case SongRemoved:
		if s.View == SongDetail && s.SongID == e.SongID {
			return leave(s, ProjectDetail, s.Project)
		}
		return s, nil

	case ProjectRemoved:
		if s.Project == nil || s.Project.ID != e.ProjectID || s.Console == Public {
			return s, nil
		}
		return leave(s, ProjectList, nil)
	}
	return s, nil
}

// leave moves to a view other than SongDetail, tearing the player down first
// when a song was open
func leave(s State, to View, project *models.Project) (State, []Effect) {
	var effects []Effect
	if s.View == SongDetail {
		effects = []Effect{TeardownPlayer{}, ClearComments{}}
	}
	s.View = to
	s.Project = project
	s.SongID = 0
	s.VersionID = 0
	return s, effects
}

func enterSong(s State, project *models.Project, songID, previous int64) (State, []Effect) {
	song := project.FindSong(songID)
	selected, _ := AutoSelect(song, previous)

	wasLoaded := s.View == SongDetail && s.SongID == songID && s.VersionID != 0
	loaded := s.VersionID

	s.View = SongDetail
	s.Project = project
	s.SongID = songID
	s.VersionID = selected

	if selected == 0 {
		return s, []Effect{TeardownPlayer{}, ClearComments{}}
	}

	comments := LoadComments{SongID: songID, VersionID: selected}
	if wasLoaded && loaded == selected {
		return s, []Effect{comments}
	}
	return s, []Effect{
		LoadVersion{VersionID: selected, Preserve: wasLoaded},
		comments,
	}
}
