package comments

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tgienger/mixreview/internal/api"
	"github.com/tgienger/mixreview/internal/models"
)

const (
	songID = 10
	v1     = 100
	v2     = 101
)

func newTestSync(t *testing.T, songWide bool) (*Synchronizer, *memStore, *fixedClock) {
	t.Helper()
	store := newMemStore(map[int64]int64{v1: songID, v2: songID, 200: 20})
	clock := &fixedClock{duration: 180}
	return New(store, clock, songWide, zerolog.Nop()), store, clock
}

func TestSubmitStampsCurrentPosition(t *testing.T) {
	s, _, clock := newTestSync(t, true)
	ctx := context.Background()
	require.NoError(t, s.LoadForVersion(ctx, songID, v2))

	clock.position = 12.5
	require.NoError(t, s.Submit(ctx, "Jess", "tighten the snare"))

	active := s.Active()
	require.Len(t, active, 1)
	assert.Equal(t, 12.5, active[0].Timecode)
	assert.Equal(t, "Jess", active[0].AuthorName)
	assert.Equal(t, "tighten the snare", active[0].Text)
	assert.False(t, active[0].Solved)
	assert.Empty(t, active[0].Replies)
	assert.Equal(t, 1, s.UnsolvedCount(v2))
	assert.Equal(t, 0, s.UnsolvedCount(v1))
}

func TestSubmitEmptyMakesNoCalls(t *testing.T) {
	tests := []struct {
		name   string
		author string
		text   string
		field  string
	}{
		{"empty author", "", "hello", "author"},
		{"blank author", "   ", "hello", "author"},
		{"empty text", "Jess", "", "text"},
		{"blank text", "Jess", "\t\n ", "text"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, store, _ := newTestSync(t, true)
			ctx := context.Background()
			require.NoError(t, s.LoadForVersion(ctx, songID, v1))
			before := store.callCount()
			list := s.Active()

			err := s.Submit(ctx, tt.author, tt.text)

			var ve *api.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
			assert.Equal(t, before, store.callCount())
			assert.Equal(t, list, s.Active())
		})
	}
}

func TestReplyValidation(t *testing.T) {
	s, store, _ := newTestSync(t, false)
	ctx := context.Background()

	assert.True(t, api.IsValidation(s.Reply(ctx, 1, "", "ok")))
	assert.True(t, api.IsValidation(s.Reply(ctx, 1, "Ann", " ")))
	assert.True(t, api.IsValidation(s.Edit(ctx, 1, "")))
	assert.Zero(t, store.callCount())
}

func TestLoadIsIdempotent(t *testing.T) {
	s, store, _ := newTestSync(t, true)
	ctx := context.Background()
	store.comments = []models.Thread{
		{Comment: models.Comment{ID: 1, VersionID: v1, Timecode: 40, Text: "b"}},
		{Comment: models.Comment{ID: 2, VersionID: v1, Timecode: 5, Text: "a"}},
		{Comment: models.Comment{ID: 3, VersionID: v2, Timecode: 1, Text: "other"}},
	}

	require.NoError(t, s.LoadForVersion(ctx, songID, v1))
	first := s.Active()
	require.NoError(t, s.LoadForVersion(ctx, songID, v1))
	second := s.Active()

	assert.Equal(t, first, second)
	require.Len(t, first, 2)
	assert.Equal(t, int64(2), first[0].ID)
	assert.Len(t, s.SongWide(), 3)
}

func TestSetSolvedRoundTrip(t *testing.T) {
	s, _, _ := newTestSync(t, true)
	ctx := context.Background()
	require.NoError(t, s.LoadForVersion(ctx, songID, v1))
	require.NoError(t, s.SubmitAt(ctx, "Ann", "too much reverb", 30))
	id := s.Active()[0].ID

	require.NoError(t, s.SetSolved(ctx, id, true))
	th, ok := s.Find(id)
	require.True(t, ok)
	assert.True(t, th.Solved)
	assert.Equal(t, 0, s.UnsolvedCount(v1))

	require.NoError(t, s.SetSolved(ctx, id, false))
	th, _ = s.Find(id)
	assert.False(t, th.Solved)
	assert.Equal(t, 1, s.UnsolvedCount(v1))
}

func TestReplyEditDelete(t *testing.T) {
	s, _, _ := newTestSync(t, true)
	ctx := context.Background()
	require.NoError(t, s.LoadForVersion(ctx, songID, v1))
	require.NoError(t, s.SubmitAt(ctx, "Ann", "vocal too quiet", 60))
	id := s.Active()[0].ID

	require.NoError(t, s.Reply(ctx, id, "Admin", " fixed in v3 "))
	th, _ := s.Find(id)
	require.Len(t, th.Replies, 1)
	assert.Equal(t, "fixed in v3", th.Replies[0].Text)

	require.NoError(t, s.Edit(ctx, id, "vocal slightly quiet"))
	th, _ = s.Find(id)
	assert.Equal(t, "vocal slightly quiet", th.Text)
	assert.Len(t, th.Replies, 1, "edit keeps replies")

	require.NoError(t, s.Delete(ctx, id))
	assert.Empty(t, s.Active())
	assert.Empty(t, s.SongWide())
}

func TestFailedMutationKeepsState(t *testing.T) {
	s, store, _ := newTestSync(t, true)
	ctx := context.Background()
	require.NoError(t, s.LoadForVersion(ctx, songID, v1))
	require.NoError(t, s.SubmitAt(ctx, "Ann", "one", 1))
	before := s.Active()

	store.failNext = &api.RequestError{Status: 500, Message: "boom"}
	err := s.SubmitAt(ctx, "Ann", "two", 2)
	require.Error(t, err)
	assert.Equal(t, before, s.Active())

	store.failNext = errors.New("offline")
	require.Error(t, s.LoadForVersion(ctx, songID, v2))
	assert.Equal(t, before, s.Active())
	assert.Equal(t, int64(v1), s.VersionID())
}

// halfSolvedStore applies SetSolved and then reports a failure, the way a
// second request of a two step toggle fails after the first went through
type halfSolvedStore struct {
	*memStore
}

func (h halfSolvedStore) SetSolved(ctx context.Context, id int64, solved bool) error {
	if err := h.memStore.SetSolved(ctx, id, solved); err != nil {
		return err
	}
	return &api.RequestError{Status: 502, Message: "Request failed (502 Bad Gateway)"}
}

func TestFailedMutationReloadsServerState(t *testing.T) {
	s, store, _ := newTestSync(t, true)
	ctx := context.Background()
	require.NoError(t, s.LoadForVersion(ctx, songID, v1))
	require.NoError(t, s.SubmitAt(ctx, "Ann", "too much reverb", 30))
	id := s.Active()[0].ID

	s.SetStore(halfSolvedStore{store})
	err := s.SetSolved(ctx, id, true)

	var re *api.RequestError
	require.ErrorAs(t, err, &re)
	th, ok := s.Find(id)
	require.True(t, ok)
	assert.True(t, th.Solved, "projection follows the server after a partial failure")
	assert.Equal(t, 0, s.UnsolvedCount(v1))
}

func TestSongWideDisabled(t *testing.T) {
	s, store, _ := newTestSync(t, false)
	ctx := context.Background()
	require.NoError(t, s.LoadForVersion(ctx, songID, v1))
	assert.Equal(t, 1, store.callCount())
	require.NoError(t, s.SubmitAt(ctx, "Ann", "x", 0))
	assert.Nil(t, s.SongWide())
	assert.Zero(t, s.SongUnsolvedCount())
}

func TestSubmitWithoutVersion(t *testing.T) {
	s, store, _ := newTestSync(t, true)
	err := s.Submit(context.Background(), "Ann", "hello")
	assert.True(t, api.IsValidation(err))
	assert.Zero(t, store.callCount())
}

func TestMarkers(t *testing.T) {
	s, store, clock := newTestSync(t, false)
	ctx := context.Background()
	store.comments = []models.Thread{
		{Comment: models.Comment{ID: 1, VersionID: v1, Timecode: 0}},
		{Comment: models.Comment{ID: 2, VersionID: v1, Timecode: 45}},
		{Comment: models.Comment{ID: 3, VersionID: v1, Timecode: 180, Solved: true}},
		{Comment: models.Comment{ID: 4, VersionID: v1, Timecode: 400}},
	}
	require.NoError(t, s.LoadForVersion(ctx, songID, v1))

	markers := s.Markers()
	require.Len(t, markers, 4)
	want := []float64{0, 0.25, 1, 1}
	for i, m := range markers {
		assert.InDelta(t, want[i], m.Fraction, 1e-9)
		assert.GreaterOrEqual(t, m.Fraction, 0.0)
		assert.LessOrEqual(t, m.Fraction, 1.0)
	}
	assert.Equal(t, 45.0, markers[1].Seek)
	assert.Equal(t, 400.0, markers[3].Seek)
	assert.True(t, markers[2].Solved)

	clock.duration = 0
	assert.Empty(t, s.Markers())
}

func TestClear(t *testing.T) {
	s, _, _ := newTestSync(t, true)
	ctx := context.Background()
	require.NoError(t, s.LoadForVersion(ctx, songID, v1))
	require.NoError(t, s.SubmitAt(ctx, "Ann", "x", 3))

	s.Clear()
	assert.Empty(t, s.Active())
	assert.Empty(t, s.SongWide())
	assert.Zero(t, s.VersionID())
	assert.Zero(t, s.SongUnsolvedCount())
	require.NoError(t, s.Reload(ctx))
	assert.Empty(t, s.Active())
}

func TestSongUnsolvedCount(t *testing.T) {
	s, store, _ := newTestSync(t, true)
	store.comments = []models.Thread{
		{Comment: models.Comment{ID: 1, VersionID: v1}},
		{Comment: models.Comment{ID: 2, VersionID: v2}},
		{Comment: models.Comment{ID: 3, VersionID: v2, Solved: true}},
		{Comment: models.Comment{ID: 4, VersionID: 200}},
	}
	require.NoError(t, s.LoadForVersion(context.Background(), songID, v1))

	assert.Equal(t, 1, s.UnsolvedCount(v1))
	assert.Equal(t, 1, s.UnsolvedCount(v2))
	assert.Equal(t, 2, s.SongUnsolvedCount(), "comments of other songs are not counted")
}
