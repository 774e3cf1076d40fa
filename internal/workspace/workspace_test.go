package workspace

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquireSaveRelease(t *testing.T) {
	m, err := NewManager(t.TempDir())
	require.NoError(t, err)

	h, err := m.Acquire()
	require.NoError(t, err)

	path, err := h.Save("report.csv", []byte("a,b\n1,2\n"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(h.Dir(), "report.csv"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "a,b\n1,2\n", string(data))

	// временного .part файла после успешной записи не остаётся
	_, err = os.Stat(path + ".part")
	assert.True(t, os.IsNotExist(err))

	h.Release()
	assert.True(t, h.Released())
	_, err = os.Stat(h.Dir())
	assert.True(t, os.IsNotExist(err))
}

func TestReleaseIdempotent(t *testing.T) {
	m, err := NewManager(t.TempDir())
	require.NoError(t, err)

	h, err := m.Acquire()
	require.NoError(t, err)

	h.Release()
	h.Release()
	assert.True(t, h.Released())
}

func TestSaveAfterRelease(t *testing.T) {
	m, err := NewManager(t.TempDir())
	require.NoError(t, err)

	h, err := m.Acquire()
	require.NoError(t, err)
	h.Release()

	_, err = h.Save("late.txt", []byte("x"))
	require.Error(t, err)
	var se *StorageError
	assert.ErrorAs(t, err, &se)
}

func TestAcquireDistinctDirs(t *testing.T) {
	m, err := NewManager(t.TempDir())
	require.NoError(t, err)

	a, err := m.Acquire()
	require.NoError(t, err)
	b, err := m.Acquire()
	require.NoError(t, err)
	defer a.Release()
	defer b.Release()

	assert.NotEqual(t, a.Dir(), b.Dir())
}

func TestSaveStripsPath(t *testing.T) {
	m, err := NewManager(t.TempDir())
	require.NoError(t, err)

	h, err := m.Acquire()
	require.NoError(t, err)
	defer h.Release()

	path, err := h.Save("../../escape.txt", []byte("x"))
	require.NoError(t, err)
	assert.Equal(t, h.Dir(), filepath.Dir(path))
}
