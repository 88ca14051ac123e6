package data

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	apperrors "github.com/target/mediafetch/internal/errors"
)

// jobDirPrefix names per-job working directories under the store root.
const jobDirPrefix = "mediafetch-"

// FileStore manages per-job working directories on the local filesystem.
type FileStore struct {
	root string
}

// NewFileStore returns a FileStore rooted at root. An empty root uses os.TempDir().
func NewFileStore(root string) (*FileStore, error) {
	if strings.TrimSpace(root) == "" {
		root = os.TempDir()
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, apperrors.Wrapf(err, apperrors.ErrCodeStorage, "resolve output dir %s", root)
	}
	if err := os.MkdirAll(abs, 0o750); err != nil {
		return nil, apperrors.Wrapf(err, apperrors.ErrCodeStorage, "create output dir %s", abs)
	}
	return &FileStore{root: abs}, nil
}

// Root returns the absolute root directory.
func (s *FileStore) Root() string { return s.root }

// JobDir returns the working directory for a job id without creating it.
func (s *FileStore) JobDir(id string) string {
	return filepath.Join(s.root, jobDirPrefix+filepath.Base(id))
}

// CreateJobDir creates the working directory for a job id.
func (s *FileStore) CreateJobDir(id string) (string, error) {
	dir := s.JobDir(id)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", apperrors.Wrapf(err, apperrors.ErrCodeStorage, "create job dir %s", dir)
	}
	return dir, nil
}

// FirstFile returns the path of the first regular file in dir, in lexical order.
func (s *FileStore) FirstFile(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", apperrors.Wrapf(err, apperrors.ErrCodeStorage, "read job dir %s", dir)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type().IsRegular() && !isPartialDownload(e.Name()) {
			names = append(names, e.Name())
		}
	}
	if len(names) == 0 {
		return "", apperrors.NotFoundf("no file in %s", dir)
	}
	sort.Strings(names)
	return filepath.Join(dir, names[0]), nil
}

// RemoveFile deletes path. A missing file is not an error.
func (s *FileStore) RemoveFile(path string) error {
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return apperrors.Wrapf(err, apperrors.ErrCodeStorage, "remove %s", path)
	}
	return nil
}

// RemoveJobDir deletes the working directory of a job id and anything left in it.
// Paths outside the store root are refused.
func (s *FileStore) RemoveJobDir(id string) error {
	dir := s.JobDir(id)
	if !s.within(dir) {
		return apperrors.Wrap(fmt.Errorf("path %s escapes %s", dir, s.root), apperrors.ErrCodeStorage, "remove job dir")
	}
	if err := os.RemoveAll(dir); err != nil {
		return apperrors.Wrapf(err, apperrors.ErrCodeStorage, "remove job dir %s", dir)
	}
	return nil
}

func (s *FileStore) within(path string) bool {
	rel, err := filepath.Rel(s.root, path)
	return err == nil && rel != "." && !strings.HasPrefix(rel, "..")
}

func isPartialDownload(name string) bool {
	return strings.HasSuffix(name, ".part") || strings.HasSuffix(name, ".ytdl")
}
