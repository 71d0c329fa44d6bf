// Package sspkdf implements the salted, iterated key derivation function
// specified in spec.md §4.2: a memory-cheap but CPU-hard construction that
// runs num_iter rounds of Skein-512, each round hashing num_concat
// concatenated copies of (passphrase || salt || round index), chained
// through the previous round's digest as the next round's initial state.
package sspkdf

import (
	"encoding/binary"

	"github.com/duskcipher/threecrypt/internal/skein"
)

// KeySize is the size in bytes of the derived key (512 bits).
const KeySize = skein.Size512

// Derive computes the 64-byte derived key from passphrase, salt, and the
// two cost parameters. Both numIter and numConcat must be >= 1; callers are
// expected to have validated this already (spec.md §4.2: "no failure modes
// within the function; inputs are validated upstream").
func Derive(passphrase, salt []byte, numIter, numConcat uint32) [KeySize]byte {
	var digest [KeySize]byte
	var prev *[KeySize]byte

	for round := uint32(0); round < numIter; round++ {
		input := buildRoundInput(passphrase, salt, round, numConcat)
		digest = skein.ChainedDigest512(prev, input)
		prev = &digest
	}
	return digest
}

// buildRoundInput concatenates (passphrase || salt || little-endian round
// index) numConcat times, forcing each round to do work proportional to
// numConcat before it is even hashed.
func buildRoundInput(passphrase, salt []byte, round, numConcat uint32) []byte {
	var idx [8]byte
	binary.LittleEndian.PutUint64(idx[:], uint64(round))

	tupleLen := len(passphrase) + len(salt) + len(idx)
	buf := make([]byte, 0, tupleLen*int(numConcat))
	for i := uint32(0); i < numConcat; i++ {
		buf = append(buf, passphrase...)
		buf = append(buf, salt...)
		buf = append(buf, idx[:]...)
	}
	return buf
}
