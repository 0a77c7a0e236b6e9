package workspace

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAcquireCreatesDirectory(t *testing.T) {
	base := t.TempDir()
	m := NewManager(base)

	h, err := m.Acquire("job-1")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(base, "job-1"), h.Path)

	info, err := os.Stat(h.Path)
	require.NoError(t, err)
	require.True(t, info.IsDir())
}

func TestReleaseRemovesDirectoryAndIsIdempotent(t *testing.T) {
	base := t.TempDir()
	m := NewManager(base)

	h, err := m.Acquire("job-2")
	require.NoError(t, err)

	m.Release(h)
	_, err = os.Stat(h.Path)
	require.True(t, os.IsNotExist(err))

	require.NotPanics(t, func() { m.Release(h) })
	require.NotPanics(t, func() { m.Release(Handle{}) })
}

func TestAcquireFailsWhenBasePathUnwritable(t *testing.T) {
	m := NewManager("/proc/inspect-api-cannot-write-here")
	_, err := m.Acquire("job-3")
	require.Error(t, err)
}
