// Package passphrase implements the external collaborator contract of
// spec.md §4.1: an echo-suppressed terminal read, with optional
// confirmation, into a locked buffer the caller owns and must scrub.
package passphrase

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"github.com/duskcipher/threecrypt/internal/containererr"
	"github.com/duskcipher/threecrypt/internal/scrub"
)

// MinLength and MaxLength bound passphrase length per spec.md §3.
const (
	MinLength = 1
	MaxLength = 120
)

// Reader reads passphrases from a terminal-like file descriptor. The zero
// value reads from os.Stdin.
type Reader struct {
	// Fd is the file descriptor read from; defaults to os.Stdin's fd.
	Fd int
	// Out is where prompts are written; defaults to os.Stderr so prompts
	// never interleave with -D/--dump or --help output on stdout.
	Out io.Writer

	// readLineFunc, when non-nil, replaces the term.ReadPassword call. Tests
	// use this to supply fixed passphrases without a controlling
	// terminal; production readers leave it nil.
	readLineFunc func() ([]byte, error)
}

// DefaultReader reads from the controlling terminal.
func DefaultReader() *Reader {
	return &Reader{Fd: int(os.Stdin.Fd()), Out: os.Stderr}
}

// NewFixedReader builds a Reader that returns successive entries from
// lines (and, on confirmation prompts, consumes the next entry too),
// never touching a real terminal. Intended for tests only.
func NewFixedReader(lines ...[]byte) *Reader {
	idx := 0
	r := &Reader{Out: io.Discard}
	r.readLineFunc = func() ([]byte, error) {
		if idx >= len(lines) {
			return nil, fmt.Errorf("passphrase: fixed reader exhausted after %d lines", len(lines))
		}
		v := lines[idx]
		idx++
		return v, nil
	}
	return r
}

// Read prompts for a passphrase, optionally confirms it by prompting a
// second time, and returns it in a locked, scrub-on-Release buffer.
func (r *Reader) Read(prompt string, confirm bool) (*scrub.Buffer, error) {
	first, err := r.readLine(prompt)
	if err != nil {
		return nil, err
	}
	if err := validateLength(first.Bytes()); err != nil {
		first.Release()
		return nil, err
	}
	if !confirm {
		return first, nil
	}

	second, err := r.readLine(prompt + " (confirm)")
	if err != nil {
		first.Release()
		return nil, err
	}
	defer second.Release()

	if !constantTimeEqual(first.Bytes(), second.Bytes()) {
		first.Release()
		return nil, containererr.New(containererr.KindPassphraseMismatch, "")
	}
	return first, nil
}

func (r *Reader) readLine(prompt string) (*scrub.Buffer, error) {
	out := r.Out
	if out == nil {
		out = os.Stderr
	}
	fmt.Fprintf(out, "%s: ", prompt)

	if r.readLineFunc != nil {
		raw, err := r.readLineFunc()
		fmt.Fprintln(out)
		if err != nil {
			return nil, containererr.Wrap(containererr.KindIO, "", err)
		}
		return scrub.WrapBuffer(append([]byte(nil), raw...)), nil
	}

	raw, err := term.ReadPassword(r.Fd)
	fmt.Fprintln(out)
	if err != nil {
		return nil, containererr.Wrap(containererr.KindIO, "", err)
	}
	buf := scrub.WrapBuffer(raw)
	return buf, nil
}

func validateLength(b []byte) error {
	if len(b) < MinLength || len(b) > MaxLength {
		return containererr.New(containererr.KindPassphraseLength, "")
	}
	return nil
}

// constantTimeEqual avoids giving a timing oracle on where the two
// confirmation entries first diverge.
func constantTimeEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	var diff byte
	for i := range a {
		diff |= a[i] ^ b[i]
	}
	return diff == 0
}
