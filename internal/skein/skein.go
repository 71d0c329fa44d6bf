// Package skein implements Skein-512 hashing and keyed MAC, built on the
// Unique Block Iteration (UBI) chaining mode over the Threefish-512 block
// cipher. It also exposes a chained-digest primitive used directly by the
// SSPKDF construction (spec §4.2), where each round's digest becomes the
// initial chaining value of the next.
package skein

import (
	"encoding/binary"

	"github.com/duskcipher/threecrypt/internal/threefish"
)

// Size512 is the native Skein-512 digest and chaining-value size in bytes.
const Size512 = 64

// UBI type-field values (Skein spec §3.2).
const (
	typeKey             = 0
	typeConfig          = 4
	typePersonalization = 8
	typePublicKey       = 12
	typeKeyID           = 16
	typeNonce           = 20
	typeMessage         = 48
	typeOutput          = 63
)

const schemaMagic = 0x33414853 // "SHA3" little-endian, Skein's schema identifier

const (
	firstBlockFlag = uint64(1) << 62
	finalBlockFlag = uint64(1) << 63
)

// ubi runs Unique Block Iteration over msg starting from chaining value g,
// tagged with the given UBI type. It always processes at least one block,
// even for an empty message, matching the reference construction.
func ubi(g [8]uint64, ubiType uint64, msg []byte) [8]uint64 {
	numBlocks := (len(msg) + Size512 - 1) / Size512
	if numBlocks == 0 {
		numBlocks = 1
	}
	pos := 0
	cur := g
	for i := 0; i < numBlocks; i++ {
		var block [Size512]byte
		start := i * Size512
		end := start + Size512
		if end > len(msg) {
			end = len(msg)
		}
		n := copy(block[:], msg[start:end])
		pos += n

		tweak1 := ubiType << 56
		if i == 0 {
			tweak1 |= firstBlockFlag
		}
		if i == numBlocks-1 {
			tweak1 |= finalBlockFlag
		}
		cur = compress(cur, block, [2]uint64{uint64(pos), tweak1})
	}
	return cur
}

// compress is the Matyas-Meyer-Oseas feed-forward compression function:
// E_g,tweak(block) XOR block, using Threefish-512 keyed by the current
// chaining value.
func compress(g [8]uint64, block [Size512]byte, tweak [2]uint64) [8]uint64 {
	var m [8]uint64
	for i := range m {
		m[i] = binary.LittleEndian.Uint64(block[i*8:])
	}
	c := threefish.NewFromWords(g, tweak)
	e := c.EncryptWords(m)
	var out [8]uint64
	for i := range out {
		out[i] = e[i] ^ m[i]
	}
	return out
}

// configBlock builds the 32-byte Skein configuration string for a given
// output length in bits, using sequential (non-tree) processing.
func configBlock(outputBits uint64) []byte {
	cfg := make([]byte, 32)
	binary.LittleEndian.PutUint32(cfg[0:4], schemaMagic)
	binary.LittleEndian.PutUint16(cfg[4:6], 1) // version
	binary.LittleEndian.PutUint64(cfg[8:16], outputBits)
	// cfg[16:19] tree leaf/fan-out/max-depth left at 0 (sequential mode)
	return cfg
}

func wordsToBytes(w [8]uint64) [Size512]byte {
	var out [Size512]byte
	for i, v := range w {
		binary.LittleEndian.PutUint64(out[i*8:], v)
	}
	return out
}

func bytesToWords(b *[Size512]byte) [8]uint64 {
	var w [8]uint64
	for i := range w {
		w[i] = binary.LittleEndian.Uint64(b[i*8:])
	}
	return w
}

// extendableOutput produces n bytes of Skein output from a post-message
// chaining value, incrementing an 8-byte counter across output blocks as
// needed (Skein's output transform is a tree of its own, here always
// sequential since n is always small in this project).
func extendableOutput(g [8]uint64, n int) []byte {
	out := make([]byte, 0, n+Size512)
	var counter uint64
	for len(out) < n {
		var ctr [8]byte
		binary.LittleEndian.PutUint64(ctr[:], counter)
		gOut := ubi(g, typeOutput, ctr[:])
		block := wordsToBytes(gOut)
		out = append(out, block[:]...)
		counter++
	}
	return out[:n]
}

// ChainedDigest512 computes Skein-512 over data, using prev (if non-nil) as
// the initial chaining value in place of the all-zero default. This is the
// exact primitive SSPKDF needs: round i's digest seeds round i+1's hash.
func ChainedDigest512(prev *[Size512]byte, data []byte) [Size512]byte {
	var g0 [8]uint64
	if prev != nil {
		g0 = bytesToWords(prev)
	}
	gConfig := ubi(g0, typeConfig, configBlock(Size512*8))
	gMsg := ubi(gConfig, typeMessage, data)
	return wordsToBytes(extendableOutputWords(gMsg))
}

func extendableOutputWords(g [8]uint64) [8]uint64 {
	var ctr [8]byte
	return ubi(g, typeOutput, ctr[:])
}

// Sum512 computes the unkeyed Skein-512 digest of data.
func Sum512(data []byte) [Size512]byte {
	return ChainedDigest512(nil, data)
}

// MAC computes a keyed Skein-512 MAC of data with the given key, producing
// macSize bytes of output. This matches the reference's native Skein MAC,
// where the key is absorbed via a Key-type UBI pass before the message is
// processed, rather than via HMAC's nested-hash construction.
func MAC(key, data []byte, macSize int) []byte {
	var g0 [8]uint64
	if len(key) > 0 {
		g0 = ubi(g0, typeKey, key)
	}
	gConfig := ubi(g0, typeConfig, configBlock(uint64(macSize)*8))
	gMsg := ubi(gConfig, typeMessage, data)
	return extendableOutput(gMsg, macSize)
}
