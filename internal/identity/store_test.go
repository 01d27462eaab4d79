package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestDisplayNamePrecedence(t *testing.T) {
	s := openTestStore(t)

	name, err := s.DisplayName("abc123")
	require.NoError(t, err)
	assert.Empty(t, name)

	require.NoError(t, s.SetDisplayName("abc123", "Jess"))
	require.NoError(t, s.SetDisplayName("zzz999", "  Sam "))

	name, err = s.DisplayName("abc123")
	require.NoError(t, err)
	assert.Equal(t, "Jess", name, "per-link name wins")

	name, err = s.DisplayName("zzz999")
	require.NoError(t, err)
	assert.Equal(t, "Sam", name)

	name, err = s.DisplayName("new-link")
	require.NoError(t, err)
	assert.Equal(t, "Sam", name, "falls back to the last global name")

	name, err = s.DisplayName("")
	require.NoError(t, err)
	assert.Equal(t, "Sam", name)
}

func TestSetDisplayNameIgnoresBlank(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.SetDisplayName("abc123", "Jess"))
	require.NoError(t, s.SetDisplayName("abc123", "   "))

	name, err := s.DisplayName("abc123")
	require.NoError(t, err)
	assert.Equal(t, "Jess", name)
}

func TestAdminName(t *testing.T) {
	s := openTestStore(t)

	name, err := s.AdminName()
	require.NoError(t, err)
	assert.Equal(t, DefaultAdminName, name)

	require.NoError(t, s.SetAdminName("producer"))
	name, err = s.AdminName()
	require.NoError(t, err)
	assert.Equal(t, "producer", name)
}

func TestTheme(t *testing.T) {
	s := openTestStore(t)

	theme, err := s.Theme()
	require.NoError(t, err)
	assert.Equal(t, ThemeDark, theme)

	theme, err = s.ToggleTheme()
	require.NoError(t, err)
	assert.Equal(t, ThemeLight, theme)

	require.NoError(t, s.SetTheme("solarized"))
	theme, err = s.Theme()
	require.NoError(t, err)
	assert.Equal(t, ThemeDark, theme)
}

func TestToken(t *testing.T) {
	s := openTestStore(t)

	tok, err := s.Token()
	require.NoError(t, err)
	assert.Empty(t, tok)

	require.NoError(t, s.SetToken("abc"))
	require.NoError(t, s.SetToken("def"))
	tok, err = s.Token()
	require.NoError(t, err)
	assert.Equal(t, "def", tok)

	require.NoError(t, s.ClearToken())
	tok, err = s.Token()
	require.NoError(t, err)
	assert.Empty(t, tok)
}

func TestLastProject(t *testing.T) {
	s := openTestStore(t)

	id, err := s.LastProject()
	require.NoError(t, err)
	assert.Empty(t, id)

	require.NoError(t, s.SetLastProject("p-42"))
	id, err = s.LastProject()
	require.NoError(t, err)
	assert.Equal(t, "p-42", id)

	require.NoError(t, s.SetLastProject(""))
	id, err = s.LastProject()
	require.NoError(t, err)
	assert.Empty(t, id)
}

func TestPersistsAcrossOpen(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, s.SetTheme(ThemeLight))
	require.NoError(t, s.Close())

	s, err = Open(dir)
	require.NoError(t, err)
	defer s.Close()
	theme, err := s.Theme()
	require.NoError(t, err)
	assert.Equal(t, ThemeLight, theme)
}
