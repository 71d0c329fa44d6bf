// Package threefish implements the Threefish-512 tweakable block cipher,
// the leaf primitive underneath both the SSPKDF/Skein-512 construction and
// the CBC_V2 container's block cipher mode.
package threefish

import (
	"encoding/binary"
	"fmt"
	"math/bits"
)

const (
	// BlockSize is the Threefish-512 block size in bytes (512 bits).
	BlockSize = 64
	// KeySize is the Threefish-512 key size in bytes (512 bits).
	KeySize = 64
	// TweakSize is the public tweak size in bytes (128 bits).
	TweakSize = 16

	numWords  = 8
	numRounds = 72
	c240      = 0x1BD11BDAA9FC1A22
)

// rotConst[d%8][j] gives the rotation amount for MIX operation j of round d.
var rotConst = [8][4]uint{
	{46, 36, 19, 37},
	{33, 27, 14, 42},
	{17, 49, 36, 39},
	{44, 9, 54, 56},
	{39, 30, 34, 24},
	{13, 50, 10, 17},
	{25, 29, 39, 43},
	{8, 35, 56, 22},
}

// permute is the word permutation applied after each round's MIX pass.
var permute = [numWords]int{2, 1, 4, 7, 6, 5, 0, 3}

var invPermute [numWords]int

func init() {
	for i, p := range permute {
		invPermute[p] = i
	}
}

// Cipher is a keyed, tweaked Threefish-512 instance bound to a single
// (key, tweak) pair. It encrypts and decrypts individual 64-byte blocks.
type Cipher struct {
	subkeys [numRounds/4 + 1][numWords]uint64
}

// New builds a Threefish-512 cipher from a 64-byte key and 16-byte tweak.
func New(key, tweak []byte) (*Cipher, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("threefish: key must be %d bytes, got %d", KeySize, len(key))
	}
	if len(tweak) != TweakSize {
		return nil, fmt.Errorf("threefish: tweak must be %d bytes, got %d", TweakSize, len(tweak))
	}
	var kw [numWords]uint64
	for i := range kw {
		kw[i] = binary.LittleEndian.Uint64(key[i*8:])
	}
	var tw [2]uint64
	tw[0] = binary.LittleEndian.Uint64(tweak[0:8])
	tw[1] = binary.LittleEndian.Uint64(tweak[8:16])
	return NewFromWords(kw, tw), nil
}

// NewFromWords builds a cipher directly from key/tweak words, used by the
// Skein UBI construction which re-keys Threefish on every compression call
// without ever serializing the chaining value to bytes.
func NewFromWords(key [numWords]uint64, tweak [2]uint64) *Cipher {
	e := extendedKey(key)
	t := extendedTweak(tweak)
	c := &Cipher{}
	for s := range c.subkeys {
		for i := 0; i < numWords; i++ {
			c.subkeys[s][i] = e[(s+i)%(numWords+1)]
		}
		c.subkeys[s][5] += t[s%3]
		c.subkeys[s][6] += t[(s+1)%3]
		c.subkeys[s][7] += uint64(s)
	}
	return c
}

func extendedKey(k [numWords]uint64) [numWords + 1]uint64 {
	var e [numWords + 1]uint64
	acc := uint64(c240)
	for i, w := range k {
		e[i] = w
		acc ^= w
	}
	e[numWords] = acc
	return e
}

func extendedTweak(t [2]uint64) [3]uint64 {
	return [3]uint64{t[0], t[1], t[0] ^ t[1]}
}

// EncryptWords encrypts one 512-bit block given as eight 64-bit words,
// without any byte (de)serialization. Used directly by the Skein UBI loop.
func (c *Cipher) EncryptWords(block [numWords]uint64) [numWords]uint64 {
	v := block
	for i := range v {
		v[i] += c.subkeys[0][i]
	}
	for d := 0; d < numRounds; d++ {
		r := rotConst[d%8]
		for j := 0; j < numWords/2; j++ {
			mix(&v[2*j], &v[2*j+1], r[j])
		}
		v = permuteWords(v)
		if (d+1)%4 == 0 {
			s := (d + 1) / 4
			for i := 0; i < numWords; i++ {
				v[i] += c.subkeys[s][i]
			}
		}
	}
	return v
}

// DecryptWords is the exact inverse of EncryptWords.
func (c *Cipher) DecryptWords(block [numWords]uint64) [numWords]uint64 {
	v := block
	for d := numRounds - 1; d >= 0; d-- {
		if (d+1)%4 == 0 {
			s := (d + 1) / 4
			for i := 0; i < numWords; i++ {
				v[i] -= c.subkeys[s][i]
			}
		}
		v = invPermuteWords(v)
		r := rotConst[d%8]
		for j := numWords/2 - 1; j >= 0; j-- {
			unmix(&v[2*j], &v[2*j+1], r[j])
		}
	}
	for i := range v {
		v[i] -= c.subkeys[0][i]
	}
	return v
}

// Encrypt encrypts exactly one 64-byte block from src into dst.
func (c *Cipher) Encrypt(dst, src []byte) error {
	if len(src) != BlockSize || len(dst) != BlockSize {
		return fmt.Errorf("threefish: block must be %d bytes", BlockSize)
	}
	var in [numWords]uint64
	for i := range in {
		in[i] = binary.LittleEndian.Uint64(src[i*8:])
	}
	out := c.EncryptWords(in)
	for i, w := range out {
		binary.LittleEndian.PutUint64(dst[i*8:], w)
	}
	return nil
}

// Decrypt decrypts exactly one 64-byte block from src into dst.
func (c *Cipher) Decrypt(dst, src []byte) error {
	if len(src) != BlockSize || len(dst) != BlockSize {
		return fmt.Errorf("threefish: block must be %d bytes", BlockSize)
	}
	var in [numWords]uint64
	for i := range in {
		in[i] = binary.LittleEndian.Uint64(src[i*8:])
	}
	out := c.DecryptWords(in)
	for i, w := range out {
		binary.LittleEndian.PutUint64(dst[i*8:], w)
	}
	return nil
}

func mix(x, y *uint64, r uint) {
	*x = *x + *y
	*y = bits.RotateLeft64(*y, int(r)) ^ *x
}

func unmix(x, y *uint64, r uint) {
	yOrig := bits.RotateLeft64(*y^*x, -int(r))
	*x = *x - yOrig
	*y = yOrig
}

func permuteWords(v [numWords]uint64) [numWords]uint64 {
	var out [numWords]uint64
	for i := range out {
		out[i] = v[permute[i]]
	}
	return out
}

func invPermuteWords(v [numWords]uint64) [numWords]uint64 {
	var out [numWords]uint64
	for i := range out {
		out[i] = v[invPermute[i]]
	}
	return out
}
