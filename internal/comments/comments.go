// Package comments keeps the comment projections of the open song in step
// with the server.
//
// Every mutation is one call followed by a full reload of the projections;
// nothing is patched locally. The active projection holds the threads of the
// loaded version; the song-wide projection, tracked only by the admin
// console, feeds the unsolved badges. The two are fetched independently and
// may briefly disagree.
package comments

import (
	"context"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/tgienger/mixreview/internal/api"
	"github.com/tgienger/mixreview/internal/models"
)

// Store is the comment backend of one console
type Store interface {
	ListComments(ctx context.Context, filter api.CommentFilter) ([]models.Thread, error)
	CreateComment(ctx context.Context, nc models.NewComment) error
	Reply(ctx context.Context, commentID int64, author, text string) error
	SetSolved(ctx context.Context, commentID int64, solved bool) error
	Edit(ctx context.Context, commentID int64, text string) error
	Delete(ctx context.Context, commentID int64) error
}

// Clock reads the player's playhead
type Clock interface {
	CurrentPosition() float64
	Duration() float64
}

// Marker is a comment placed on the timeline
type Marker struct {
	CommentID int64
	Fraction  float64 // horizontal position in [0, 1]
	Seek      float64 // seconds to jump to
	Solved    bool
}

// Synchronizer holds the comment projections of the open song
type Synchronizer struct {
	store    Store
	clock    Clock
	songWide bool
	log      zerolog.Logger

	// mutMu serializes mutations and reloads
	mutMu sync.Mutex

	mu        sync.RWMutex
	songID    int64
	versionID int64
	active    []models.Thread
	all       []models.Thread
}

// New creates a synchronizer. songWide enables the song-wide projection.
func New(store Store, clock Clock, songWide bool, log zerolog.Logger) *Synchronizer {
	return &Synchronizer{
		store:    store,
		clock:    clock,
		songWide: songWide,
		log:      log.With().Str("component", "comments").Logger(),
	}
}

// SetStore swaps the backend, used when another project is opened
func (s *Synchronizer) SetStore(store Store) {
	s.mutMu.Lock()
	defer s.mutMu.Unlock()
	s.store = store
}

// LoadForVersion fetches the projections for a version and replaces the
// state. On failure the previous state is kept.
func (s *Synchronizer) LoadForVersion(ctx context.Context, songID, versionID int64) error {
	s.mutMu.Lock()
	defer s.mutMu.Unlock()
	return s.load(ctx, songID, versionID)
}

// Reload refreshes the projections of the current version
func (s *Synchronizer) Reload(ctx context.Context) error {
	s.mutMu.Lock()
	defer s.mutMu.Unlock()
	return s.reload(ctx)
}

func (s *Synchronizer) reload(ctx context.Context) error {
	s.mu.RLock()
	songID, versionID := s.songID, s.versionID
	s.mu.RUnlock()
	if versionID == 0 {
		return nil
	}
	return s.load(ctx, songID, versionID)
}

func (s *Synchronizer) load(ctx context.Context, songID, versionID int64) error {
	active, err := s.store.ListComments(ctx, api.CommentFilter{VersionID: versionID})
	if err != nil {
		s.log.Warn().Int64("version", versionID).Err(err).Msg("load failed")
		return err
	}

	var all []models.Thread
	if s.songWide && songID != 0 {
		all, err = s.store.ListComments(ctx, api.CommentFilter{SongID: songID})
		if err != nil {
			s.log.Warn().Int64("song", songID).Err(err).Msg("load song comments failed")
			return err
		}
	}

	s.mu.Lock()
	s.songID = songID
	s.versionID = versionID
	s.active = active
	s.all = all
	s.mu.Unlock()

	s.log.Debug().
		Int64("song", songID).
		Int64("version", versionID).
		Int("active", len(active)).
		Int("song_wide", len(all)).
		Msg("reloaded")
	return nil
}

// Clear empties both projections
func (s *Synchronizer) Clear() {
	s.mutMu.Lock()
	defer s.mutMu.Unlock()
	s.mu.Lock()
	s.songID, s.versionID = 0, 0
	s.active, s.all = nil, nil
	s.mu.Unlock()
}

// VersionID returns the version the active projection belongs to
func (s *Synchronizer) VersionID() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.versionID
}

// Active returns the threads of the loaded version ordered by timecode
func (s *Synchronizer) Active() []models.Thread {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Thread(nil), s.active...)
}

// SongWide returns the threads of every version of the open song
func (s *Synchronizer) SongWide() []models.Thread {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Thread(nil), s.all...)
}

// Find returns an active thread by comment id
func (s *Synchronizer) Find(commentID int64) (models.Thread, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.active {
		if t.ID == commentID {
			return t, true
		}
	}
	return models.Thread{}, false
}

// Submit posts a comment at the player's current position
func (s *Synchronizer) Submit(ctx context.Context, author, text string) error {
	return s.SubmitAt(ctx, author, text, s.clock.CurrentPosition())
}

// SubmitAt posts a comment at an explicit timecode. Empty author or text is
// rejected without a call.
func (s *Synchronizer) SubmitAt(ctx context.Context, author, text string, timecode float64) error {
	author = strings.TrimSpace(author)
	text = strings.TrimSpace(text)
	if author == "" {
		return api.Required("author")
	}
	if text == "" {
		return api.Required("text")
	}

	s.mutMu.Lock()
	defer s.mutMu.Unlock()

	s.mu.RLock()
	versionID := s.versionID
	s.mu.RUnlock()
	if versionID == 0 {
		return &api.ValidationError{Field: "version", Message: "no version loaded"}
	}

	return s.settle(ctx, s.store.CreateComment(ctx, models.NewComment{
		VersionID:  versionID,
		Timecode:   max(timecode, 0),
		AuthorName: author,
		Text:       text,
	}))
}

// Reply answers a comment
func (s *Synchronizer) Reply(ctx context.Context, commentID int64, author, text string) error {
	author = strings.TrimSpace(author)
	text = strings.TrimSpace(text)
	if author == "" {
		return api.Required("author")
	}
	if text == "" {
		return api.Required("text")
	}
	return s.mutate(ctx, func(store Store) error {
		return store.Reply(ctx, commentID, author, text)
	})
}

// SetSolved marks a comment solved or open
func (s *Synchronizer) SetSolved(ctx context.Context, commentID int64, solved bool) error {
	return s.mutate(ctx, func(store Store) error {
		return store.SetSolved(ctx, commentID, solved)
	})
}

// Edit replaces a comment's text
func (s *Synchronizer) Edit(ctx context.Context, commentID int64, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return api.Required("text")
	}
	return s.mutate(ctx, func(store Store) error {
		return store.Edit(ctx, commentID, text)
	})
}

// Delete removes a comment and its replies
func (s *Synchronizer) Delete(ctx context.Context, commentID int64) error {
	return s.mutate(ctx, func(store Store) error {
		return store.Delete(ctx, commentID)
	})
}

func (s *Synchronizer) mutate(ctx context.Context, call func(Store) error) error {
	s.mutMu.Lock()
	defer s.mutMu.Unlock()
	return s.settle(ctx, call(s.store))
}

// settle reloads after a backend call. A failed call may still have changed
// the server, so the reload runs either way and the call's error wins.
// Callers hold mutMu.
func (s *Synchronizer) settle(ctx context.Context, err error) error {
	if err == nil {
		return s.reload(ctx)
	}
	if rerr := s.reload(ctx); rerr != nil {
		s.log.Debug().Err(rerr).Msg("reload after failed mutation")
	}
	return err
}

// Markers places the active comments on the timeline of the clock's
// duration. There are no markers while the duration is unknown.
func (s *Synchronizer) Markers() []Marker {
	d := s.clock.Duration()
	if d <= 0 {
		return nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	markers := make([]Marker, 0, len(s.active))
	for _, t := range s.active {
		markers = append(markers, Marker{
			CommentID: t.ID,
			Fraction:  min(max(t.Timecode/d, 0), 1),
			Seek:      t.Timecode,
			Solved:    t.Solved,
		})
	}
	return markers
}

// UnsolvedCount counts open comments of a version in the song-wide projection
func (s *Synchronizer) UnsolvedCount(versionID int64) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, t := range s.all {
		if t.VersionID == versionID && !t.Solved {
			n++
		}
	}
	return n
}

// SongUnsolvedCount counts open comments across the whole song
func (s *Synchronizer) SongUnsolvedCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, t := range s.all {
		if !t.Solved {
			n++
		}
	}
	return n
}
