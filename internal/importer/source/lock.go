package source

import (
	"fmt"
	"os"
)

// sessionLock is an exclusive advisory lock on a source file. The original
// system was known to leave desktop-database locks behind after failed
// imports, so acquisition and release are paired in every adapter's
// Open/Close and release is exercised directly in tests.
type sessionLock struct {
	path     string
	released bool
}

func acquireLock(location string) (*sessionLock, error) {
	path := location + ".lock"
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrLocked, path)
		}
		return nil, fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}
	fmt.Fprintf(f, "pid %d\n", os.Getpid())
	_ = f.Close()
	return &sessionLock{path: path}, nil
}

func (l *sessionLock) Release() error {
	if l == nil || l.released {
		return nil
	}
	l.released = true
	return os.Remove(l.path)
}
