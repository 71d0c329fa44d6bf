package scrub

import (
	"os"

	"github.com/edsrzf/mmap-go"
)

// FileMapping pairs an open file descriptor with its memory-mapped view,
// the unit of acquisition spec.md §9 says must never be read into a single
// contiguous buffer by copying — callers index into Map directly.
type FileMapping struct {
	File *os.File
	Map  mmap.MMap
}

// OpenReadOnly opens path and maps its full current size read-only.
func OpenReadOnly(path string) (*FileMapping, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if info.Size() == 0 {
		// mmap-go rejects zero-length mappings; callers that need to
		// handle empty input files treat this error as an empty input.
		f.Close()
		return nil, os.ErrInvalid
	}
	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		f.Close()
		return nil, err
	}
	return &FileMapping{File: f, Map: m}, nil
}

// CreateReadWrite creates path (failing if it already exists), truncates it
// to size bytes, and maps it read-write.
func CreateReadWrite(path string, size int64) (*FileMapping, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return nil, err
	}
	if err := f.Truncate(size); err != nil {
		f.Close()
		os.Remove(path)
		return nil, err
	}
	m, err := mmap.Map(f, mmap.RDWR, 0)
	if err != nil {
		f.Close()
		os.Remove(path)
		return nil, err
	}
	return &FileMapping{File: f, Map: m}, nil
}

// Sync commits the mapping's writes to disk (msync), required before
// Close on any mapping that was written to.
func (fm *FileMapping) Sync() error {
	return fm.Map.Flush()
}

// Close unmaps then closes the descriptor, in that order, matching the
// reverse-of-acquisition discipline spec.md §4.8 and §9 require.
func (fm *FileMapping) Close() error {
	var firstErr error
	if fm.Map != nil {
		if err := fm.Map.Unmap(); err != nil {
			firstErr = err
		}
		fm.Map = nil
	}
	if fm.File != nil {
		if err := fm.File.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		fm.File = nil
	}
	return firstErr
}

// Session holds the paired input/output mappings for one encrypt or decrypt
// invocation and tears both down, in reverse acquisition order, on every
// exit path. On Abort, if the output file was created, it is removed.
type Session struct {
	Input         *FileMapping
	Output        *FileMapping
	outputPath    string
	outputCreated bool
}

// NewSession records that a (not-yet-created) output path belongs to this
// session, so Abort knows to remove it if it was created before failure.
func NewSession(outputPath string) *Session {
	return &Session{outputPath: outputPath}
}

// MarkOutputCreated records that the output file now exists on disk, so a
// subsequent Abort removes it.
func (s *Session) MarkOutputCreated() {
	s.outputCreated = true
}

// Close tears down Output then Input (reverse of the open-input-then-
// create-output acquisition order every driver in this project follows).
func (s *Session) Close() error {
	var firstErr error
	if s.Output != nil {
		if err := s.Output.Close(); err != nil {
			firstErr = err
		}
	}
	if s.Input != nil {
		if err := s.Input.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Abort tears down both mappings and removes the output file if it was
// ever created, matching spec.md §4.8's "On encrypt or decrypt failure
// after the output file is created, the output file is removed."
func (s *Session) Abort() {
	s.Close()
	if s.outputCreated {
		os.Remove(s.outputPath)
	}
}
