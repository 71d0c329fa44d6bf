// Package randsrc implements the CSPRNG collaborator contract of spec.md
// §6: Fill(buf) producing bytes indistinguishable from uniform, with
// support for reseeding from additional operator-supplied entropy before
// key material (salt, tweak, IV) is generated.
package randsrc

import (
	"crypto/rand"
	"fmt"
	"sync"

	"golang.org/x/crypto/chacha20"

	"github.com/duskcipher/threecrypt/internal/skein"
)

// Source is a reseedable CSPRNG: a ChaCha20 keystream keyed from the OS
// random source, optionally remixed with operator-supplied entropy via
// Skein-512 before the keystream that generates any header randomness is
// drawn. crypto/rand itself cannot be reseeded (it is backed directly by
// the kernel's CSPRNG), so Source sits in front of it to give the
// "Reseed with additional entropy" contract a real effect.
type Source struct {
	mu     sync.Mutex
	cipher *chacha20.Cipher
}

// New constructs a Source keyed from the OS CSPRNG.
func New() (*Source, error) {
	s := &Source{}
	if err := s.reseedWith(nil); err != nil {
		return nil, err
	}
	return s, nil
}

// Reseed mixes extra operator-supplied entropy (e.g. bytes typed at
// random, mouse-jitter timing, etc.) into a fresh key via Skein-512,
// combined with a new OS-random seed, before future Fill calls.
func (s *Source) Reseed(extra []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reseedWith(extra)
}

func (s *Source) reseedWith(extra []byte) error {
	var osSeed [chacha20.KeySize]byte
	if _, err := rand.Read(osSeed[:]); err != nil {
		return fmt.Errorf("randsrc: reading OS entropy: %w", err)
	}

	key := osSeed
	if len(extra) > 0 {
		mixed := skein.Sum512(append(osSeed[:], extra...))
		copy(key[:], mixed[:chacha20.KeySize])
	}

	var nonce [chacha20.NonceSize]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return fmt.Errorf("randsrc: reading nonce entropy: %w", err)
	}

	c, err := chacha20.NewUnauthenticatedCipher(key[:], nonce[:])
	if err != nil {
		return fmt.Errorf("randsrc: initializing cipher: %w", err)
	}
	s.cipher = c
	return nil
}

// Fill writes len(buf) bytes of keystream output into buf.
func (s *Source) Fill(buf []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range buf {
		buf[i] = 0
	}
	s.cipher.XORKeyStream(buf, buf)
	return nil
}

// defaultSource is the process-wide Source used by both container formats
// to generate salts, tweaks, and IVs.
var defaultSource struct {
	once sync.Once
	src  *Source
	err  error
}

// Default returns the process-wide randomness source, constructing it on
// first use.
func Default() (*Source, error) {
	defaultSource.once.Do(func() {
		defaultSource.src, defaultSource.err = New()
	})
	return defaultSource.src, defaultSource.err
}
