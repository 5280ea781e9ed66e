// Package file provides file utilities, currently an flock-based lock used
// to keep a second daemon instance from binding the same sockets.
package file

import (
	"fmt"
	"io/fs"
	"os"

	"golang.org/x/sys/unix"
)

// _fileMode is the default file mode for creating lock files.
var _fileMode fs.FileMode = 0o600

// FileLock represents an exclusive lock on a file.
type FileLock struct {
	Path string   // Path is the path to the file to be locked.
	File *os.File // File is the file handle used for the lock.
}

// NewFileLock creates a new FileLock instance for the given path.
func NewFileLock(p string) *FileLock {
	return &FileLock{Path: p}
}

// Lock acquires an exclusive lock on the file, creating it if missing.
// The call is non-blocking: when another process holds the lock it returns
// an error immediately instead of waiting.
func (l *FileLock) Lock() error {
	f, err := os.OpenFile(l.Path, os.O_RDWR|os.O_CREATE, _fileMode)
	if err != nil {
		return err
	}
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		_ = f.Close()
		return fmt.Errorf("lock %s: held by another process", l.Path)
	}
	l.File = f
	return nil
}

// Unlock releases the lock and closes the file handle.
func (l *FileLock) Unlock() error {
	if l.File == nil {
		return nil
	}
	defer l.File.Close()
	return unix.Flock(int(l.File.Fd()), unix.LOCK_UN)
}
