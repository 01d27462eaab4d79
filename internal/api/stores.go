package api

import (
	"context"
	"strings"

	"github.com/tgienger/mixreview/internal/models"
)

// SharedComments is the comment store of the reviewer console. Reviewers may
// post and reply; resolving depends on the server's clients_can_resolve
// setting; editing and deleting are reserved to the admin console.
type SharedComments struct {
	client     *Client
	link       string
	canResolve bool
}

// NewSharedComments binds a comment store to a share link
func NewSharedComments(c *Client, link string, canResolve bool) *SharedComments {
	return &SharedComments{client: c, link: link, canResolve: canResolve}
}

func (s *SharedComments) ListComments(ctx context.Context, filter CommentFilter) ([]models.Thread, error) {
	return s.client.ListComments(ctx, s.link, filter)
}

func (s *SharedComments) CreateComment(ctx context.Context, nc models.NewComment) error {
	_, err := s.client.CreateComment(ctx, s.link, nc)
	return err
}

func (s *SharedComments) Reply(ctx context.Context, commentID int64, author, text string) error {
	_, err := s.client.ReplyToComment(ctx, s.link, commentID, author, text)
	return err
}

// SetSolved drives the reviewer toggle endpoint to the requested state. If the
// first toggle lands on the wrong state (the comment already had the requested
// state) it toggles once more.
func (s *SharedComments) SetSolved(ctx context.Context, commentID int64, solved bool) error {
	if !s.canResolve {
		return ErrNotPermitted
	}
	t, err := s.client.ToggleResolve(ctx, s.link, commentID)
	if err != nil {
		return err
	}
	if t.Solved != solved {
		_, err = s.client.ToggleResolve(ctx, s.link, commentID)
	}
	return err
}

func (s *SharedComments) Edit(context.Context, int64, string) error {
	return ErrNotPermitted
}

func (s *SharedComments) Delete(context.Context, int64) error {
	return ErrNotPermitted
}

// AdminComments is the comment store of the admin console. Listing, posting
// and replying go through the project's share link like any reviewer;
// moderation goes through the admin endpoints.
type AdminComments struct {
	client *Client
	link   string
}

// NewAdminComments binds an admin comment store to a project's share link
func NewAdminComments(c *Client, link string) *AdminComments {
	return &AdminComments{client: c, link: link}
}

func (a *AdminComments) ListComments(ctx context.Context, filter CommentFilter) ([]models.Thread, error) {
	return a.client.ListComments(ctx, a.link, filter)
}

func (a *AdminComments) CreateComment(ctx context.Context, nc models.NewComment) error {
	_, err := a.client.CreateComment(ctx, a.link, nc)
	return err
}

func (a *AdminComments) Reply(ctx context.Context, commentID int64, author, text string) error {
	_, err := a.client.ReplyToComment(ctx, a.link, commentID, author, text)
	return err
}

func (a *AdminComments) SetSolved(ctx context.Context, commentID int64, solved bool) error {
	_, err := a.client.UpdateComment(ctx, commentID, CommentUpdate{Solved: &solved})
	return err
}

func (a *AdminComments) Edit(ctx context.Context, commentID int64, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return Required("text")
	}
	_, err := a.client.UpdateComment(ctx, commentID, CommentUpdate{Text: &text})
	return err
}

func (a *AdminComments) Delete(ctx context.Context, commentID int64) error {
	return a.client.DeleteComment(ctx, commentID)
}
