package views

import (
	"context"
	"sync"
	"testing"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tgienger/mixreview/internal/api"
	"github.com/tgienger/mixreview/internal/comments"
	"github.com/tgienger/mixreview/internal/models"
	"github.com/tgienger/mixreview/internal/navigator"
	"github.com/tgienger/mixreview/internal/ui/keys"
	"github.com/tgienger/mixreview/internal/ui/styles"
)

// flakyStore keeps comments in memory and rejects posts while err is set
type flakyStore struct {
	mu      sync.Mutex
	err     error
	threads []models.Thread
}

func (f *flakyStore) fail(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}

func (f *flakyStore) ListComments(_ context.Context, filter api.CommentFilter) ([]models.Thread, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Thread{}
	for _, t := range f.threads {
		if filter.VersionID == 0 || t.VersionID == filter.VersionID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *flakyStore) CreateComment(_ context.Context, nc models.NewComment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.threads = append(f.threads, models.Thread{Comment: models.Comment{
		ID: int64(len(f.threads) + 1), VersionID: nc.VersionID, Timecode: nc.Timecode,
		AuthorName: nc.AuthorName, Text: nc.Text,
	}})
	return nil
}

func (f *flakyStore) Reply(context.Context, int64, string, string) error { return f.err }
func (f *flakyStore) SetSolved(context.Context, int64, bool) error       { return f.err }
func (f *flakyStore) Edit(context.Context, int64, string) error          { return f.err }
func (f *flakyStore) Delete(context.Context, int64) error                { return f.err }

type stillClock struct{}

func (stillClock) CurrentPosition() float64 { return 42 }
func (stillClock) Duration() float64        { return 180 }

// newFormView builds an admin song page with the comment form open
func newFormView(t *testing.T, store comments.Store) (*SongView, *comments.Synchronizer) {
	t.Helper()
	syncer := comments.New(store, stillClock{}, true, zerolog.Nop())
	require.NoError(t, syncer.LoadForVersion(context.Background(), 10, 101))

	env := &Env{Console: navigator.Admin, Comments: syncer, Log: zerolog.Nop()}
	v := &SongView{
		env:    env,
		styles: styles.NewStyles(),
		keys:   keys.DefaultKeyMap(),
		author: textinput.New(),
		text:   textarea.New(),
		state: navigator.State{
			Console: navigator.Admin, View: navigator.SongDetail,
			Project: &models.Project{ID: "p1", Title: "Demo", ShareLink: "abc123"},
			SongID:  10, VersionID: 101,
		},
	}
	v.formOpen = true
	v.formMode = formComment
	v.formFocus = 1
	v.author.SetValue("Admin")
	v.text.SetValue("tighten the snare")
	return v, syncer
}

func TestFailedPostKeepsForm(t *testing.T) {
	store := &flakyStore{}
	store.fail(&api.RequestError{Status: 500, Message: "Internal error"})
	v, syncer := newFormView(t, store)

	cmd := v.submitForm()
	require.NotNil(t, cmd)
	assert.True(t, v.formOpen, "form stays open while the post is in flight")

	_, again := v.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	assert.Nil(t, again, "a second save waits for the first")

	v.Update(cmd())
	assert.True(t, v.formOpen)
	assert.Equal(t, "tighten the snare", v.text.Value())
	assert.Equal(t, "Admin", v.author.Value())
	assert.True(t, v.isErr)
	assert.Equal(t, "Internal error", v.status)
	assert.Empty(t, syncer.Active())

	store.fail(nil)
	cmd = v.submitForm()
	require.NotNil(t, cmd)
	v.Update(cmd())
	assert.False(t, v.formOpen)
	assert.Empty(t, v.text.Value())
	assert.False(t, v.isErr)
	assert.Equal(t, "Comment posted", v.status)

	active := syncer.Active()
	require.Len(t, active, 1)
	assert.Equal(t, "tighten the snare", active[0].Text)
	assert.Equal(t, 42.0, active[0].Timecode)
}

func TestEmptyPostKeepsFormWithoutCall(t *testing.T) {
	store := &flakyStore{}
	v, _ := newFormView(t, store)
	v.text.SetValue("   ")

	assert.Nil(t, v.submitForm())
	assert.True(t, v.formOpen)
	assert.False(t, v.formBusy)
	assert.True(t, v.isErr)
	assert.Empty(t, store.threads)
}
