package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromWriter(t *testing.T) {
	var buf bytes.Buffer
	l, err := FromWriter(&buf, "info")
	require.NoError(t, err)

	l.Debug().Msg("hidden")
	l.Info().Str("component", "api").Msg("request")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "request", entry["message"])
	assert.Equal(t, "api", entry["component"])
	assert.Equal(t, "mixreview", entry["app"])
	assert.Contains(t, entry, "time")
}

func TestNewFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "mixreview.log")
	l, err := New(path, "debug")
	require.NoError(t, err)
	l.Debug().Msg("hello")
	require.NoError(t, l.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"message":"hello"`)
}

func TestNewDisabled(t *testing.T) {
	l, err := New("", "debug")
	require.NoError(t, err)
	l.Info().Msg("dropped")
	assert.NoError(t, l.Close())
}

func TestInvalidLevel(t *testing.T) {
	_, err := FromWriter(&bytes.Buffer{}, "loud")
	assert.Error(t, err)
}
