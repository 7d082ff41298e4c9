package session

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileIsEmptySession(t *testing.T) {
	m := New(filepath.Join(t.TempDir(), "session.json"))
	require.NoError(t, m.Load())
	require.Empty(t, m.Token())
	require.Empty(t, m.LastChatID())
}

func TestTokenRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	m := New(path)
	require.NoError(t, m.SetToken("  Bearer abc123  "))

	reloaded := New(path)
	require.NoError(t, reloaded.Load())
	require.Equal(t, "Bearer abc123", reloaded.Token())
}

func TestClearToken(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	m := New(path)
	require.NoError(t, m.SetToken("tok"))
	require.NoError(t, m.ClearToken())

	reloaded := New(path)
	require.NoError(t, reloaded.Load())
	require.Empty(t, reloaded.Token())
}

func TestLastChatIDPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	m := New(path)
	require.NoError(t, m.SetLastChatID("c42"))

	reloaded := New(path)
	require.NoError(t, reloaded.Load())
	require.Equal(t, "c42", reloaded.LastChatID())
}

func TestSessionFileIsPrivate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	m := New(path)
	require.NoError(t, m.SetToken("tok"))

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestCorruptSessionIsAnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))
	m := New(path)
	require.Error(t, m.Load())
}

func TestEmptyPathIsInMemoryOnly(t *testing.T) {
	m := New("")
	require.NoError(t, m.Load())
	require.NoError(t, m.SetToken("tok"))
	require.Equal(t, "tok", m.Token())
}
