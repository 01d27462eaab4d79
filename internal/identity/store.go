// Package identity persists the local identity of the user: display names,
// theme and the admin credential. Nothing here is sent to the server except
// through the names and token the consoles read from it.
package identity

import (
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schema string

const (
	keyAuthor      = "author"
	keyAdminName   = "admin_name"
	keyTheme       = "theme"
	keyToken       = "token"
	keyLastProject = "last_project_id"

	// DefaultAdminName is the author of admin comments until one is set
	DefaultAdminName = "Admin"

	ThemeDark  = "dark"
	ThemeLight = "light"
)

// Store wraps the settings database
type Store struct {
	*sql.DB
}

// Open opens or creates the store in dir. An empty dir uses the XDG data directory.
func Open(dir string) (*Store, error) {
	if dir == "" {
		var err error
		if dir, err = DefaultDir(); err != nil {
			return nil, err
		}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	db, err := sql.Open("sqlite3", filepath.Join(dir, "mixreview.db"))
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &Store{db}, nil
}

// DefaultDir returns the per-user data directory
func DefaultDir() (string, error) {
	// Use XDG data directory or fallback to home directory
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dataDir = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataDir, "mixreview"), nil
}

func (s *Store) get(key string) (string, error) {
	var value string
	err := s.QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return value, err
}

func (s *Store) set(key, value string) error {
	_, err := s.Exec(`
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
	`, key, value)
	return err
}

func (s *Store) remove(key string) error {
	_, err := s.Exec("DELETE FROM settings WHERE key = ?", key)
	return err
}

func linkKey(shareLink string) string {
	return keyAuthor + ":" + shareLink
}

// DisplayName returns the reviewer name for a share link, falling back to
// the last name used anywhere
func (s *Store) DisplayName(shareLink string) (string, error) {
	if shareLink != "" {
		name, err := s.get(linkKey(shareLink))
		if err != nil || name != "" {
			return name, err
		}
	}
	return s.get(keyAuthor)
}

// SetDisplayName remembers a reviewer name for the share link and globally
func (s *Store) SetDisplayName(shareLink, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}
	if shareLink != "" {
		if err := s.set(linkKey(shareLink), name); err != nil {
			return err
		}
	}
	return s.set(keyAuthor, name)
}

// AdminName returns the author used by the admin console
func (s *Store) AdminName() (string, error) {
	name, err := s.get(keyAdminName)
	if err != nil {
		return "", err
	}
	if name == "" {
		return DefaultAdminName, nil
	}
	return name, nil
}

// SetAdminName sets the author used by the admin console
func (s *Store) SetAdminName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}
	return s.set(keyAdminName, name)
}

// Theme returns "dark" or "light"
func (s *Store) Theme() (string, error) {
	theme, err := s.get(keyTheme)
	if err != nil {
		return ThemeDark, err
	}
	if theme != ThemeLight {
		return ThemeDark, nil
	}
	return ThemeLight, nil
}

// SetTheme stores the theme. Anything but "light" is stored as "dark".
func (s *Store) SetTheme(theme string) error {
	if theme != ThemeLight {
		theme = ThemeDark
	}
	return s.set(keyTheme, theme)
}

// ToggleTheme flips the theme and returns the new value
func (s *Store) ToggleTheme() (string, error) {
	theme, err := s.Theme()
	if err != nil {
		return theme, err
	}
	if theme == ThemeDark {
		theme = ThemeLight
	} else {
		theme = ThemeDark
	}
	return theme, s.SetTheme(theme)
}

// Token returns the stored admin credential, "" when logged out
func (s *Store) Token() (string, error) {
	return s.get(keyToken)
}

// SetToken stores the admin credential
func (s *Store) SetToken(token string) error {
	return s.set(keyToken, token)
}

// ClearToken forgets the admin credential
func (s *Store) ClearToken() error {
	return s.remove(keyToken)
}

// LastProject returns the project the admin console had open on exit
func (s *Store) LastProject() (string, error) {
	return s.get(keyLastProject)
}

// SetLastProject remembers the open project. An empty id forgets it.
func (s *Store) SetLastProject(id string) error {
	if id == "" {
		return s.remove(keyLastProject)
	}
	return s.set(keyLastProject, id)
}
