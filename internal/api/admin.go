package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/tgienger/mixreview/internal/models"
)

// AuthStatus reports whether first-run setup has happened
func (c *Client) AuthStatus(ctx context.Context) (models.AuthStatus, error) {
	var status models.AuthStatus
	err := c.Call(ctx, http.MethodGet, "/admin/auth/status", nil, &status)
	return status, err
}

// Setup creates the first admin account and keeps the issued token
func (c *Client) Setup(ctx context.Context, creds models.Credentials) (string, error) {
	return c.authenticate(ctx, "/admin/auth/setup", creds)
}

// Login exchanges credentials for a token and keeps it
func (c *Client) Login(ctx context.Context, creds models.Credentials) (string, error) {
	return c.authenticate(ctx, "/admin/auth/login", creds)
}

func (c *Client) authenticate(ctx context.Context, endpoint string, creds models.Credentials) (string, error) {
	creds.Username = strings.TrimSpace(creds.Username)
	if creds.Username == "" {
		return "", Required("username")
	}
	if creds.Password == "" {
		return "", Required("password")
	}
	var tok models.Token
	if err := c.Call(ctx, http.MethodPost, endpoint, creds, &tok); err != nil {
		return "", err
	}
	c.SetToken(tok.AccessToken)
	return tok.AccessToken, nil
}

// Probe checks the stored credential with an authenticated call. Any failure
// means "not logged in".
func (c *Client) Probe(ctx context.Context) error {
	if c.Token() == "" {
		return &RequestError{Status: http.StatusUnauthorized, Message: "not logged in"}
	}
	_, err := c.ListProjects(ctx)
	return err
}

// ListProjects returns all projects, most recently updated first
func (c *Client) ListProjects(ctx context.Context) ([]models.ProjectSummary, error) {
	var projects []models.ProjectSummary
	if err := c.Call(ctx, http.MethodGet, "/admin/projects", nil, &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

// GetProject returns a project with its songs and versions
func (c *Client) GetProject(ctx context.Context, id string) (*models.Project, error) {
	var p models.Project
	if err := c.Call(ctx, http.MethodGet, "/admin/projects/"+url.PathEscape(id), nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

type titleBody struct {
	Title string `json:"title"`
}

// CreateProject creates an empty project
func (c *Client) CreateProject(ctx context.Context, title string) (*models.Project, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, Required("title")
	}
	var p models.Project
	if err := c.Call(ctx, http.MethodPost, "/admin/projects", titleBody{title}, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// RenameProject updates a project title
func (c *Client) RenameProject(ctx context.Context, id, title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return Required("title")
	}
	return c.Call(ctx, http.MethodPut, "/admin/projects/"+url.PathEscape(id), titleBody{title}, nil)
}

// DeleteProject deletes a project and everything under it
func (c *Client) DeleteProject(ctx context.Context, id string) error {
	return c.Call(ctx, http.MethodDelete, "/admin/projects/"+url.PathEscape(id), nil, nil)
}

// CreateSong adds a song at the end of a project
func (c *Client) CreateSong(ctx context.Context, projectID, title string) (*models.Song, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, Required("title")
	}
	var s models.Song
	endpoint := "/admin/projects/" + url.PathEscape(projectID) + "/songs"
	if err := c.Call(ctx, http.MethodPost, endpoint, titleBody{title}, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// RenameSong updates a song title
func (c *Client) RenameSong(ctx context.Context, songID int64, title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return Required("title")
	}
	return c.Call(ctx, http.MethodPut, fmt.Sprintf("/admin/songs/%d", songID), titleBody{title}, nil)
}

// DeleteSong deletes a song with its versions and comments
func (c *Client) DeleteSong(ctx context.Context, songID int64) error {
	return c.Call(ctx, http.MethodDelete, fmt.Sprintf("/admin/songs/%d", songID), nil, nil)
}

// RenameVersion updates a version label
func (c *Client) RenameVersion(ctx context.Context, versionID int64, label string) error {
	label = strings.TrimSpace(label)
	if label == "" {
		return Required("label")
	}
	body := map[string]string{"label": label}
	return c.Call(ctx, http.MethodPut, fmt.Sprintf("/admin/versions/%d", versionID), body, nil)
}

// DeleteVersion deletes a version and its comments
func (c *Client) DeleteVersion(ctx context.Context, versionID int64) error {
	return c.Call(ctx, http.MethodDelete, fmt.Sprintf("/admin/versions/%d", versionID), nil, nil)
}

// ToggleFavourite flips the favourite flag of a version. The server clears any
// other favourite in the same song.
func (c *Client) ToggleFavourite(ctx context.Context, versionID int64) error {
	return c.Call(ctx, http.MethodPatch, fmt.Sprintf("/admin/versions/%d/favourite", versionID), nil, nil)
}

// CommentUpdate changes a comment's text and/or solved state. Nil fields are left alone.
type CommentUpdate struct {
	Text   *string `json:"text,omitempty"`
	Solved *bool   `json:"solved,omitempty"`
}

// UpdateComment applies a moderation change to a comment
func (c *Client) UpdateComment(ctx context.Context, commentID int64, upd CommentUpdate) (*models.Thread, error) {
	var t models.Thread
	if err := c.Call(ctx, http.MethodPut, fmt.Sprintf("/admin/comments/%d", commentID), upd, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// DeleteComment deletes a comment and its replies
func (c *Client) DeleteComment(ctx context.Context, commentID int64) error {
	return c.Call(ctx, http.MethodDelete, fmt.Sprintf("/admin/comments/%d", commentID), nil, nil)
}

// UpdateSettings applies a partial update to the display settings
func (c *Client) UpdateSettings(ctx context.Context, upd models.SettingsUpdate) (*models.DisplaySettings, error) {
	var s models.DisplaySettings
	if err := c.Call(ctx, http.MethodPut, "/admin/settings", upd, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// DeleteLogo removes the custom logo
func (c *Client) DeleteLogo(ctx context.Context) error {
	return c.Call(ctx, http.MethodDelete, "/admin/settings/logo", nil, nil)
}
