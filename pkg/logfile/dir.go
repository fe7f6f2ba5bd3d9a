package logfile

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

var _ Volume = (*DirVolume)(nil)

// DirVolume is a host directory standing in for a removable volume.
type DirVolume struct {
	dir string

	mu      sync.Mutex
	mounted bool
}

// NewDirVolume creates a volume rooted at dir.
func NewDirVolume(dir string) *DirVolume {
	return &DirVolume{dir: dir}
}

// Mount checks that the directory is present, as a card must be inserted.
func (v *DirVolume) Mount() error {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.mounted = false
	info, err := os.Stat(v.dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", v.dir)
	}
	v.mounted = true
	return nil
}

// Exists reports whether the named file exists.
func (v *DirVolume) Exists(name string) (bool, error) {
	if !v.isMounted() {
		return false, ErrNotMounted
	}
	_, err := os.Stat(filepath.Join(v.dir, name))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// OpenFile opens the named file.
func (v *DirVolume) OpenFile(name string, flag int) (File, error) {
	if !v.isMounted() {
		return nil, ErrNotMounted
	}
	f, err := os.OpenFile(filepath.Join(v.dir, name), flag, 0644)
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (v *DirVolume) isMounted() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.mounted
}
