package source

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLockIsExclusive(t *testing.T) {
	path := writeTempCSV(t, "locked.csv", "a,b\n1,2\n")

	src, err := Open(path)
	require.NoError(t, err)

	_, err = Open(path)
	assert.ErrorIs(t, err, ErrLocked)

	require.NoError(t, src.Close())

	// Once the first session releases, a new one can open the file.
	second, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, second.Close())
}

func TestCloseRemovesLockFile(t *testing.T) {
	path := writeTempCSV(t, "clean.csv", "a,b\n1,2\n")

	src, err := Open(path)
	require.NoError(t, err)

	lockPath := path + ".lock"
	_, err = os.Stat(lockPath)
	require.NoError(t, err, "lock file exists while the session is open")

	require.NoError(t, src.Close())
	_, err = os.Stat(lockPath)
	assert.True(t, os.IsNotExist(err), "lock file removed on close")
}

func TestStaleLockBlocksOpen(t *testing.T) {
	path := writeTempCSV(t, "stale.csv", "a,b\n1,2\n")

	// A leftover lock from a crashed session must be cleared manually, the
	// adapter never steals it.
	require.NoError(t, os.WriteFile(path+".lock", []byte("pid 1\n"), 0o644))

	_, err := Open(path)
	assert.ErrorIs(t, err, ErrLocked)

	require.NoError(t, os.Remove(path+".lock"))
	src, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, src.Close())
}

func TestReleaseIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "twice.csv")
	require.NoError(t, os.WriteFile(path, []byte("a\n1\n"), 0o644))

	lock, err := acquireLock(path)
	require.NoError(t, err)
	require.NoError(t, lock.Release())
	require.NoError(t, lock.Release())
}
