// Package cache holds the snapshot of the open project tree.
//
// Snapshots are replaced wholesale: there is no incremental patching. After
// any mutation the caller refreshes the project, which re-fetches the whole
// tree from the server. A failed refresh keeps the previous snapshot.
package cache

import (
	"context"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"

	"github.com/tgienger/mixreview/internal/api"
	"github.com/tgienger/mixreview/internal/models"
)

// DefaultTTL bounds how long an untouched snapshot is served without a re-fetch
const DefaultTTL = 5 * time.Minute

const settingsKey = "settings"

// Source fetches project trees and display settings from the server
type Source interface {
	FetchProject(ctx context.Context, key string) (*models.Project, error)
	FetchSettings(ctx context.Context) (*models.DisplaySettings, error)
}

// Cache is the in-memory read replica of the open project tree. Project
// snapshots are shared; callers must not modify them.
type Cache struct {
	src   Source
	store *gocache.Cache
	log   zerolog.Logger
}

// Option configures a Cache
type Option func(*cacheConfig)

type cacheConfig struct {
	ttl time.Duration
	log zerolog.Logger
}

// WithTTL sets the snapshot lifetime
func WithTTL(d time.Duration) Option {
	return func(c *cacheConfig) { c.ttl = d }
}

// WithLogger sets the logger
func WithLogger(l zerolog.Logger) Option {
	return func(c *cacheConfig) { c.log = l }
}

// New creates a cache over src
func New(src Source, opts ...Option) *Cache {
	cfg := cacheConfig{ttl: DefaultTTL, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Cache{
		src:   src,
		store: gocache.New(cfg.ttl, cfg.ttl*2),
		log:   cfg.log.With().Str("component", "cache").Logger(),
	}
}

func projectKey(key string) string {
	return "project:" + key
}

// Project returns the cached snapshot for key, fetching it on a miss
func (c *Cache) Project(ctx context.Context, key string) (*models.Project, error) {
	if cached, found := c.store.Get(projectKey(key)); found {
		return cached.(*models.Project), nil
	}
	return c.Refresh(ctx, key)
}

// Peek returns the cached snapshot without fetching
func (c *Cache) Peek(key string) (*models.Project, bool) {
	cached, found := c.store.Get(projectKey(key))
	if !found {
		return nil, false
	}
	return cached.(*models.Project), true
}

// Refresh re-fetches the whole project tree and replaces the snapshot. On
// failure the previous snapshot stays in place.
func (c *Cache) Refresh(ctx context.Context, key string) (*models.Project, error) {
	start := time.Now()
	p, err := c.src.FetchProject(ctx, key)
	if err != nil {
		c.log.Warn().Str("project", key).Err(err).Msg("refresh failed")
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("refresh project %s: empty response", key)
	}
	c.store.Set(projectKey(key), p, gocache.DefaultExpiration)
	c.log.Debug().
		Str("project", key).
		Int("songs", len(p.Songs)).
		Dur("took", time.Since(start)).
		Msg("refreshed")
	return p, nil
}

// Invalidate drops the snapshot for key
func (c *Cache) Invalidate(key string) {
	c.store.Delete(projectKey(key))
	c.log.Debug().Str("project", key).Msg("invalidated")
}

// Settings returns the display settings, fetching them on a miss
func (c *Cache) Settings(ctx context.Context) (*models.DisplaySettings, error) {
	if cached, found := c.store.Get(settingsKey); found {
		return cached.(*models.DisplaySettings), nil
	}
	return c.RefreshSettings(ctx)
}

// CachedSettings returns the cached display settings or the defaults
func (c *Cache) CachedSettings() models.DisplaySettings {
	if cached, found := c.store.Get(settingsKey); found {
		return *cached.(*models.DisplaySettings)
	}
	return models.DefaultDisplaySettings()
}

// RefreshSettings re-fetches the display settings
func (c *Cache) RefreshSettings(ctx context.Context) (*models.DisplaySettings, error) {
	s, err := c.src.FetchSettings(ctx)
	if err != nil {
		return nil, err
	}
	c.store.Set(settingsKey, s, gocache.NoExpiration)
	return s, nil
}

// SetSettings stores settings returned by an update call
func (c *Cache) SetSettings(s *models.DisplaySettings) {
	c.store.Set(settingsKey, s, gocache.NoExpiration)
}

// Flush drops every snapshot, used on logout
func (c *Cache) Flush() {
	c.store.Flush()
}

// AdminSource reads projects by id through the admin endpoints
type AdminSource struct {
	Client *api.Client
}

func (s AdminSource) FetchProject(ctx context.Context, id string) (*models.Project, error) {
	return s.Client.GetProject(ctx, id)
}

func (s AdminSource) FetchSettings(ctx context.Context) (*models.DisplaySettings, error) {
	return s.Client.GetSettings(ctx)
}

// SharedSource reads projects by share link through the public endpoints
type SharedSource struct {
	Client *api.Client
}

func (s SharedSource) FetchProject(ctx context.Context, link string) (*models.Project, error) {
	return s.Client.GetSharedProject(ctx, link)
}

func (s SharedSource) FetchSettings(ctx context.Context) (*models.DisplaySettings, error) {
	return s.Client.GetSettings(ctx)
}
