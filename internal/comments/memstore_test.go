package comments

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/tgienger/mixreview/internal/api"
	"github.com/tgienger/mixreview/internal/models"
)

// memStore is an in-memory comment backend keyed by version, with a fixed
// version to song mapping
type memStore struct {
	mu       sync.Mutex
	songOf   map[int64]int64
	comments []models.Thread
	nextID   int64
	calls    int
	failNext error
}

func newMemStore(songOf map[int64]int64) *memStore {
	return &memStore{songOf: songOf, nextID: 1}
}

func (m *memStore) call() error {
	m.calls++
	if err := m.failNext; err != nil {
		m.failNext = nil
		return err
	}
	return nil
}

func (m *memStore) ListComments(_ context.Context, f api.CommentFilter) ([]models.Thread, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call(); err != nil {
		return nil, err
	}
	out := []models.Thread{}
	for _, t := range m.comments {
		if f.VersionID != 0 && t.VersionID != f.VersionID {
			continue
		}
		if f.SongID != 0 && m.songOf[t.VersionID] != f.SongID {
			continue
		}
		cp := t
		cp.Replies = append([]models.Reply{}, t.Replies...)
		out = append(out, cp)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timecode < out[j].Timecode })
	return out, nil
}

func (m *memStore) CreateComment(_ context.Context, nc models.NewComment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call(); err != nil {
		return err
	}
	m.comments = append(m.comments, models.Thread{Comment: models.Comment{
		ID:         m.nextID,
		VersionID:  nc.VersionID,
		Timecode:   nc.Timecode,
		AuthorName: nc.AuthorName,
		Text:       nc.Text,
	}})
	m.nextID++
	return nil
}

func (m *memStore) find(id int64) (*models.Thread, error) {
	for i := range m.comments {
		if m.comments[i].ID == id {
			return &m.comments[i], nil
		}
	}
	return nil, &api.RequestError{Status: 404, Message: "Comment not found"}
}

func (m *memStore) Reply(_ context.Context, id int64, author, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call(); err != nil {
		return err
	}
	t, err := m.find(id)
	if err != nil {
		return err
	}
	t.Replies = append(t.Replies, models.Reply{ID: m.nextID, CommentID: id, AuthorName: author, Text: text})
	m.nextID++
	return nil
}

func (m *memStore) SetSolved(_ context.Context, id int64, solved bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call(); err != nil {
		return err
	}
	t, err := m.find(id)
	if err != nil {
		return err
	}
	t.Solved = solved
	return nil
}

func (m *memStore) Edit(_ context.Context, id int64, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call(); err != nil {
		return err
	}
	t, err := m.find(id)
	if err != nil {
		return err
	}
	t.Text = text
	return nil
}

func (m *memStore) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call(); err != nil {
		return err
	}
	for i := range m.comments {
		if m.comments[i].ID == id {
			m.comments = append(m.comments[:i], m.comments[i+1:]...)
			return nil
		}
	}
	return errors.New("not found")
}

func (m *memStore) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

type fixedClock struct {
	position float64
	duration float64
}

func (c fixedClock) CurrentPosition() float64 { return c.position }
func (c fixedClock) Duration() float64        { return c.duration }
