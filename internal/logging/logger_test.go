package logging

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDailyFile_RotatesOnDateChange(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 3, 1, 23, 59, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	files, err := NewDailyFile(dir, 7, clock)
	require.NoError(t, err)
	defer files.Close()

	_, err = files.Write([]byte("first\n"))
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = files.Write([]byte("second\n"))
	require.NoError(t, err)

	first, err := os.ReadFile(filepath.Join(dir, "app-2026-03-01.log"))
	require.NoError(t, err)
	assert.Equal(t, "first\n", string(first))

	second, err := os.ReadFile(filepath.Join(dir, "app-2026-03-02.log"))
	require.NoError(t, err)
	assert.Equal(t, "second\n", string(second))
}

func TestDailyFile_PrunesOldFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"app-2026-02-01.log", "app-2026-02-27.log", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}

	files, err := NewDailyFile(dir, 3, func() time.Time {
		return time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	})
	require.NoError(t, err)
	defer files.Close()

	_, err = os.Stat(filepath.Join(dir, "app-2026-02-01.log"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(dir, "app-2026-02-27.log"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "notes.txt"))
	assert.NoError(t, err)
}

func TestNew_WithoutFileOutput(t *testing.T) {
	logger, cleanup, err := New(Options{Level: "debug", Format: "console", ServiceName: "test"})
	require.NoError(t, err)
	defer cleanup()
	assert.True(t, logger.Core().Enabled(-1))
}
