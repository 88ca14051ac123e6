package model

import (
	"os"
	"time"
)

// Artifact describes the file a successful job produced.
// The file at Path is owned by the artifact until it is evicted.
type Artifact struct {
	JobID     string    `json:"job_id"`
	Path      string    `json:"-"`
	Filename  string    `json:"filename"`
	CreatedAt time.Time `json:"created_at"`
}

// Expired reports whether the artifact was created before cutoff.
func (a Artifact) Expired(cutoff time.Time) bool {
	return a.CreatedAt.Before(cutoff)
}

// FileHandle is an open artifact ready to be streamed to a client.
// The caller owns File and must close it.
type FileHandle struct {
	File     *os.File
	Filename string
	Size     int64
	ModTime  time.Time
}

// Close closes the underlying file.
func (h *FileHandle) Close() error {
	if h == nil || h.File == nil {
		return nil
	}
	return h.File.Close()
}
