package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/tgienger/mixreview/internal/models"
)

// maxAudioBytes caps a single audio download
const maxAudioBytes = 1 << 30

func sharedPath(link string) string {
	return "/api/projects/" + url.PathEscape(link)
}

// GetSharedProject resolves a share link. An unknown link is a *NotFoundError.
func (c *Client) GetSharedProject(ctx context.Context, link string) (*models.Project, error) {
	link = strings.TrimSpace(link)
	if link == "" {
		return nil, Required("share link")
	}
	var p models.Project
	if err := c.Call(ctx, http.MethodGet, sharedPath(link), nil, &p); err != nil {
		if hasStatus(err, http.StatusNotFound) {
			return nil, &NotFoundError{Resource: "project", Key: link}
		}
		return nil, err
	}
	p.ShareLink = link
	return &p, nil
}

// CommentFilter narrows a comment listing to one version or one song
type CommentFilter struct {
	VersionID int64
	SongID    int64
}

func (f CommentFilter) query() string {
	q := url.Values{}
	if f.VersionID != 0 {
		q.Set("version_id", strconv.FormatInt(f.VersionID, 10))
	}
	if f.SongID != 0 {
		q.Set("song_id", strconv.FormatInt(f.SongID, 10))
	}
	if len(q) == 0 {
		return ""
	}
	return "?" + q.Encode()
}

// ListComments returns comment threads of a shared project ordered by timecode
func (c *Client) ListComments(ctx context.Context, link string, filter CommentFilter) ([]models.Thread, error) {
	threads := []models.Thread{}
	if err := c.Call(ctx, http.MethodGet, sharedPath(link)+"/comments"+filter.query(), nil, &threads); err != nil {
		return nil, err
	}
	return threads, nil
}

// CreateComment posts a comment on a version of a shared project
func (c *Client) CreateComment(ctx context.Context, link string, nc models.NewComment) (*models.Thread, error) {
	nc.AuthorName = strings.TrimSpace(nc.AuthorName)
	nc.Text = strings.TrimSpace(nc.Text)
	if nc.AuthorName == "" {
		return nil, Required("author")
	}
	if nc.Text == "" {
		return nil, Required("text")
	}
	if nc.Timecode < 0 {
		nc.Timecode = 0
	}
	var t models.Thread
	if err := c.Call(ctx, http.MethodPost, sharedPath(link)+"/comments", nc, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

type replyBody struct {
	AuthorName string `json:"author_name"`
	Text       string `json:"text"`
}

// ReplyToComment appends a reply to a comment thread
func (c *Client) ReplyToComment(ctx context.Context, link string, commentID int64, author, text string) (*models.Reply, error) {
	author = strings.TrimSpace(author)
	text = strings.TrimSpace(text)
	if author == "" {
		return nil, Required("author")
	}
	if text == "" {
		return nil, Required("text")
	}
	var r models.Reply
	endpoint := fmt.Sprintf("%s/comments/%d/reply", sharedPath(link), commentID)
	if err := c.Call(ctx, http.MethodPost, endpoint, replyBody{author, text}, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// ToggleResolve flips the solved flag through the reviewer endpoint. The server
// answers 403 unless clients may resolve.
func (c *Client) ToggleResolve(ctx context.Context, link string, commentID int64) (*models.Thread, error) {
	var t models.Thread
	endpoint := fmt.Sprintf("%s/comments/%d/resolve-client", sharedPath(link), commentID)
	if err := c.Call(ctx, http.MethodPatch, endpoint, nil, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// ToggleFavouriteShared flips the favourite flag of a version through the share link
func (c *Client) ToggleFavouriteShared(ctx context.Context, link string, versionID int64) error {
	endpoint := fmt.Sprintf("%s/versions/%d/favourite", sharedPath(link), versionID)
	return c.Call(ctx, http.MethodPatch, endpoint, nil, nil)
}

// GetSettings returns the global display settings
func (c *Client) GetSettings(ctx context.Context) (*models.DisplaySettings, error) {
	s := models.DefaultDisplaySettings()
	if err := c.Call(ctx, http.MethodGet, "/api/settings", nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// AudioURL is the absolute locator of a version's audio stream
func (c *Client) AudioURL(versionID int64) string {
	return c.baseURL + models.AudioPath(versionID)
}

// FetchAudio downloads a version's audio and returns it with its content type
func (c *Client) FetchAudio(ctx context.Context, versionID int64) ([]byte, string, error) {
	req, err := http.NewRequest(http.MethodGet, c.AudioURL(versionID), nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := c.do(ctx, req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", decodeResponse(resp, nil)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxAudioBytes))
	if err != nil {
		return nil, "", fmt.Errorf("read audio %d: %w", versionID, err)
	}
	return data, resp.Header.Get("Content-Type"), nil
}
