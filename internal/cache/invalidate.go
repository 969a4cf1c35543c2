package cache

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// ClearDir removes dir and recreates it empty, leaving a valid cache
// location behind. Used by operators forcing a full cache reset.
func ClearDir(dir string) error {
	if dir == "" {
		return os.ErrInvalid
	}
	if err := os.RemoveAll(dir); err != nil {
		return err
	}
	return os.MkdirAll(dir, 0o755)
}

// PurgeByAge removes entries in dir older than maxAge, based on each
// file's modification time (set when the entry was saved). Returns the
// count removed.
func PurgeByAge(dir string, maxAge time.Duration) (int, error) {
	if maxAge <= 0 {
		return 0, nil
	}
	removed := 0
	now := time.Now().UTC()
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		info, ierr := d.Info()
		if ierr != nil {
			return nil
		}
		if now.Sub(info.ModTime().UTC()) <= maxAge {
			return nil
		}
		if rmErr := os.Remove(path); rmErr == nil {
			removed++
		}
		return nil
	})
	return removed, err
}

// EnforceLimits evicts the oldest-written entries (by file modification
// time; reads do not refresh it) until dir is within maxBytes and
// maxCount. A non-positive limit disables that dimension.
func EnforceLimits(dir string, maxBytes int64, maxCount int) (int, error) {
	if maxBytes <= 0 && maxCount <= 0 {
		return 0, nil
	}
	type fileInfo struct {
		path  string
		mtime time.Time
		bytes int64
	}
	var files []fileInfo
	var totalBytes int64
	var totalCount int
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		info, ierr := d.Info()
		if ierr != nil {
			return nil
		}
		files = append(files, fileInfo{path: path, mtime: info.ModTime().UTC(), bytes: info.Size()})
		totalBytes += info.Size()
		totalCount++
		return nil
	})
	if err != nil {
		return 0, err
	}
	sort.Slice(files, func(i, j int) bool { return files[i].mtime.Before(files[j].mtime) })

	removed := 0
	over := func() bool {
		if maxCount > 0 && totalCount > maxCount {
			return true
		}
		if maxBytes > 0 && totalBytes > maxBytes {
			return true
		}
		return false
	}
	for i := 0; over() && i < len(files); i++ {
		if rmErr := os.Remove(files[i].path); rmErr != nil {
			continue
		}
		totalBytes -= files[i].bytes
		totalCount--
		removed++
	}
	return removed, nil
}
