package navigator

import (
	"context"
	"errors"
	"strconv"
	"sync"

	"github.com/rs/zerolog"

	"github.com/tgienger/mixreview/internal/api"
	"github.com/tgienger/mixreview/internal/models"
)

// Projects supplies project snapshots. *cache.Cache satisfies it.
type Projects interface {
	Project(ctx context.Context, key string) (*models.Project, error)
	Refresh(ctx context.Context, key string) (*models.Project, error)
	Invalidate(key string)
}

// Player is the part of the player controller the navigator drives
type Player interface {
	Load(ctx context.Context, versionID int64, resume *float64, autoplay bool) error
	Swap(ctx context.Context, versionID int64) error
	Teardown()
}

// Comments is the part of the comment synchronizer the navigator drives
type Comments interface {
	LoadForVersion(ctx context.Context, songID, versionID int64) error
	Clear()
}

// Navigator owns the application state and executes transitions
type Navigator struct {
	console  Console
	projects Projects
	player   Player
	comments Comments
	log      zerolog.Logger

	// mu serializes operations, which may hold it through an audio load.
	// stateMu guards state alone so readers never wait on an operation.
	mu      sync.Mutex
	stateMu sync.RWMutex
	state   State
}

// New creates a navigator starting at the console's first view. The public
// console starts at ProjectDetail once a project is opened.
func New(console Console, projects Projects, player Player, comments Comments, log zerolog.Logger) *Navigator {
	view := ProjectList
	if console == Public {
		view = ProjectDetail
	}
	return &Navigator{
		console:  console,
		projects: projects,
		player:   player,
		comments: comments,
		log:      log.With().Str("component", "navigator").Str("console", console.String()).Logger(),
		state:    State{Console: console, View: view},
	}
}

// State returns a copy of the current state
func (n *Navigator) State() State {
	n.stateMu.RLock()
	defer n.stateMu.RUnlock()
	return n.state
}

// Key returns the cache key of a project for this console
func (n *Navigator) Key(p *models.Project) string {
	if p == nil {
		return ""
	}
	if n.console == Public {
		return p.ShareLink
	}
	return p.ID
}

// OpenProjectList shows the admin project list
func (n *Navigator) OpenProjectList(ctx context.Context) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.apply(ctx, ProjectListOpened{})
}

// OpenProject shows a project, from the cache when possible. The public
// console opens the song of a single-song project directly.
func (n *Navigator) OpenProject(ctx context.Context, key string) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	p, err := n.projects.Project(ctx, key)
	if err != nil {
		return err
	}
	if err := n.apply(ctx, ProjectOpened{Project: p}); err != nil {
		return err
	}
	if n.console == Public && len(p.Songs) == 1 {
		return n.openSong(ctx, p.Songs[0].ID)
	}
	return nil
}

// OpenSong shows a song of the open project. The project is always re-fetched
// so the version list is current.
func (n *Navigator) OpenSong(ctx context.Context, songID int64) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.openSong(ctx, songID)
}

func (n *Navigator) openSong(ctx context.Context, songID int64) error {
	p, err := n.refresh(ctx)
	if err != nil {
		return err
	}
	if p.FindSong(songID) == nil {
		return &api.NotFoundError{Resource: "song", Key: strconv.FormatInt(songID, 10)}
	}
	return n.apply(ctx, SongOpened{Project: p, SongID: songID})
}

// SelectVersion switches the loaded version of the open song
func (n *Navigator) SelectVersion(ctx context.Context, versionID int64) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.apply(ctx, VersionSelected{VersionID: versionID})
}

// OpenSettings shows the admin settings
func (n *Navigator) OpenSettings(ctx context.Context) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.apply(ctx, SettingsOpened{})
}

// Back navigates one level up
func (n *Navigator) Back(ctx context.Context) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.apply(ctx, BackPressed{})
}

// Reload re-fetches the open project after a mutation. In a song the loaded
// version is kept when it still exists.
func (n *Navigator) Reload(ctx context.Context) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	p, err := n.refresh(ctx)
	if err != nil {
		return err
	}
	return n.apply(ctx, ProjectReloaded{Project: p})
}

// VersionDeleted handles a deleted version: the player is released and the
// version pointer cleared before the song is re-fetched.
func (n *Navigator) VersionDeleted(ctx context.Context, versionID int64) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if err := n.apply(ctx, VersionRemoved{VersionID: versionID}); err != nil {
		return err
	}
	p, err := n.refresh(ctx)
	if err != nil {
		return err
	}
	return n.apply(ctx, ProjectReloaded{Project: p})
}

// SongDeleted handles a deleted song and re-fetches its project
func (n *Navigator) SongDeleted(ctx context.Context, songID int64) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if err := n.apply(ctx, SongRemoved{SongID: songID}); err != nil {
		return err
	}
	p, err := n.refresh(ctx)
	if err != nil {
		return err
	}
	return n.apply(ctx, ProjectReloaded{Project: p})
}

// ProjectDeleted handles a deleted project
func (n *Navigator) ProjectDeleted(ctx context.Context, projectID string) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.projects.Invalidate(projectID)
	return n.apply(ctx, ProjectRemoved{ProjectID: projectID})
}

func (n *Navigator) refresh(ctx context.Context) (*models.Project, error) {
	key := n.Key(n.state.Project)
	if key == "" {
		return nil, &api.ValidationError{Field: "project", Message: "no project open"}
	}
	return n.projects.Refresh(ctx, key)
}

// apply runs the transition and its effects. Effects all run; their errors
// are joined.
func (n *Navigator) apply(ctx context.Context, e Event) error {
	prev := n.state
	next, effects := Transition(prev, e)
	n.stateMu.Lock()
	n.state = next
	n.stateMu.Unlock()

	if prev.View != next.View || prev.SongID != next.SongID || prev.VersionID != next.VersionID {
		n.log.Debug().
			Str("from", prev.View.String()).
			Str("to", next.View.String()).
			Int64("song", next.SongID).
			Int64("version", next.VersionID).
			Int("effects", len(effects)).
			Msg("transition")
	}

	var errs []error
	for _, eff := range effects {
		if err := n.run(ctx, eff); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (n *Navigator) run(ctx context.Context, eff Effect) error {
	switch eff := eff.(type) {
	case TeardownPlayer:
		n.player.Teardown()
	case ClearComments:
		n.comments.Clear()
	case LoadVersion:
		if eff.Preserve {
			return n.player.Swap(ctx, eff.VersionID)
		}
		return n.player.Load(ctx, eff.VersionID, nil, false)
	case LoadComments:
		return n.comments.LoadForVersion(ctx, eff.SongID, eff.VersionID)
	}
	return nil
}
