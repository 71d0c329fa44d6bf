// Package scrub provides the secure-scrubbing and scoped-resource machinery
// spec.md §4.8 requires: buffers holding passphrases, derived keys, or
// intermediate hash state are zeroed before release, and every mmap/fd pair
// is torn down in reverse acquisition order on every exit path, including
// error paths, with the output file removed if the operation failed after
// creating it.
package scrub

import (
	"runtime"

	"github.com/rs/zerolog/log"
	"golang.org/x/sys/unix"
)

// Buffer is a byte slice holding secret material (a passphrase or a
// derived key). It attempts to pin itself in physical memory for its
// lifetime and guarantees its contents are overwritten with zeros on
// Release, which every caller must defer immediately after construction.
type Buffer struct {
	b      []byte
	locked bool
}

// NewBuffer allocates a zero-filled buffer of size n and best-effort locks
// it into physical memory. Failure to lock is logged and otherwise ignored
// per spec.md §5 ("Failure to lock is a non-fatal warning").
func NewBuffer(n int) *Buffer {
	buf := &Buffer{b: make([]byte, n)}
	if err := unix.Mlock(buf.b); err != nil {
		log.Debug().Err(err).Msg("mlock failed; secret buffer may be swappable")
	} else {
		buf.locked = true
	}
	return buf
}

// WrapBuffer adopts an existing slice (e.g. one filled by a terminal read)
// as a scrubbed buffer, attempting to lock it the same way NewBuffer does.
func WrapBuffer(b []byte) *Buffer {
	buf := &Buffer{b: b}
	if err := unix.Mlock(buf.b); err != nil {
		log.Debug().Err(err).Msg("mlock failed; secret buffer may be swappable")
	} else {
		buf.locked = true
	}
	return buf
}

// Bytes returns the live backing slice. The caller must not retain it past
// Release.
func (buf *Buffer) Bytes() []byte {
	return buf.b
}

// Release zeroes the buffer's contents and unlocks it. Safe to call more
// than once.
func (buf *Buffer) Release() {
	if buf.b == nil {
		return
	}
	Zero(buf.b)
	if buf.locked {
		_ = unix.Munlock(buf.b)
		buf.locked = false
	}
	buf.b = nil
}

// Zero overwrites b with zeros in a way the compiler cannot prove is
// observationally dead and therefore cannot elide: the write loop is
// followed by runtime.KeepAlive so the slice is provably live across the
// whole loop, and callers always reach this through an exported function
// boundary the compiler cannot inline away the aliasing uncertainty of.
func Zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
	runtime.KeepAlive(b)
}
