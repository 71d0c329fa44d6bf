// Package cbcv2 implements the CBC_V2 container format of spec.md §3-4:
// a 125-byte fixed header, Threefish-512 CBC body padded per §4.4, and a
// trailing 64-byte keyed Skein-512 MAC.
package cbcv2

import (
	"encoding/binary"
	"fmt"

	"github.com/duskcipher/threecrypt/internal/containererr"
)

const (
	// HeaderSize is the fixed on-disk size of the CBC_V2 header.
	HeaderSize = 125
	// MACSize is the trailing authentication tag size.
	MACSize = 64
	// BlockSize is the Threefish-512 block size the CBC mode operates on.
	BlockSize = 64

	idOffset        = 0
	idSize          = 13
	totalSizeOffset = 13
	totalSizeSize   = 8
	tweakOffset     = 21
	tweakSize       = 16
	saltOffset      = 37
	saltSize        = 16
	ivOffset        = 53
	ivSize          = 64
	numIterOffset   = 117
	numIterSize     = 4
	numConcatOffset = 121
	numConcatSize   = 4
)

// MagicV2 is the id field value this package writes and reads.
const MagicV2 = "3CRYPT_CBC_V2"

// MagicV1 is a historical variant the dispatcher recognizes read-only,
// per spec.md §4.6; this package never writes it.
const MagicV1 = "3CRYPT_CBC_V1"

// V1HardcodedNumIter is the iteration count CBC_V1 files always carry
// implicitly (the V1 header has no num_iter/num_concat fields at all).
// This package has no decoder for the V1 header.
const V1HardcodedNumIter = 1_250_000

// Header is the decoded form of a CBC_V2 125-byte header.
type Header struct {
	TotalSize uint64
	Tweak     [tweakSize]byte
	Salt      [saltSize]byte
	CBCIV     [ivSize]byte
	NumIter   uint32
	NumConcat uint32
}

// Encode serializes h into a fresh 125-byte buffer, little-endian
// throughout, matching spec.md §3's field table exactly.
func (h *Header) Encode() []byte {
	buf := make([]byte, HeaderSize)
	copy(buf[idOffset:idOffset+idSize], MagicV2)
	binary.LittleEndian.PutUint64(buf[totalSizeOffset:], h.TotalSize)
	copy(buf[tweakOffset:tweakOffset+tweakSize], h.Tweak[:])
	copy(buf[saltOffset:saltOffset+saltSize], h.Salt[:])
	copy(buf[ivOffset:ivOffset+ivSize], h.CBCIV[:])
	binary.LittleEndian.PutUint32(buf[numIterOffset:], h.NumIter)
	binary.LittleEndian.PutUint32(buf[numConcatOffset:], h.NumConcat)
	return buf
}

// DecodeHeader reads the 125-byte prefix of buf into a Header and
// validates it per spec.md §4.3: magic, total_size agreement with the
// actual file size fileSize, and nonzero cost parameters.
func DecodeHeader(buf []byte, fileSize int64) (*Header, error) {
	if len(buf) < HeaderSize {
		return nil, containererr.New(containererr.KindTooSmall, "")
	}
	if string(buf[idOffset:idOffset+idSize]) != MagicV2 {
		return nil, containererr.New(containererr.KindUnrecognizedFormat, "")
	}
	h := &Header{}
	h.TotalSize = binary.LittleEndian.Uint64(buf[totalSizeOffset:])
	copy(h.Tweak[:], buf[tweakOffset:tweakOffset+tweakSize])
	copy(h.Salt[:], buf[saltOffset:saltOffset+saltSize])
	copy(h.CBCIV[:], buf[ivOffset:ivOffset+ivSize])
	h.NumIter = binary.LittleEndian.Uint32(buf[numIterOffset:])
	h.NumConcat = binary.LittleEndian.Uint32(buf[numConcatOffset:])

	if int64(h.TotalSize) != fileSize {
		return nil, containererr.New(containererr.KindTruncatedOrExtended, "")
	}
	if h.NumIter < 1 || h.NumConcat < 1 {
		return nil, containererr.New(containererr.KindInvalidHeader, "")
	}
	return h, nil
}

// BodySize computes the CBC ciphertext body length for a plaintext of
// length p bytes, per spec.md §4.3's padding policy: fewer than one
// block always rounds up to exactly one block; otherwise the body is
// padded to the next block boundary, always adding between 1 and 64
// bytes (never 0), so the pad count is always recoverable from the
// final byte.
func BodySize(p int64) int64 {
	if p < BlockSize {
		return BlockSize
	}
	rem := p % BlockSize
	return p + (BlockSize - rem)
}

// TotalSize computes the full container file size for a plaintext of
// length p bytes: header + body + MAC.
func TotalSize(p int64) int64 {
	return HeaderSize + BodySize(p) + MACSize
}

// IsMagic reports whether buf begins with the CBC_V2 magic.
func IsMagic(buf []byte) bool {
	return len(buf) >= idSize && string(buf[:idSize]) == MagicV2
}

// String renders a Header with the same labels Dump uses: decimal sizes
// and counters, lowercase hex for the random fields. The trailing MAC is
// not part of the header, so unlike Dump it is not printed.
func (h *Header) String() string {
	return fmt.Sprintf(
		"File Header ID : %s\nFile Size : %d\nTweak : %x\nSalt : %x\nCBC IV : %x\nNum Iter : %d\nNum Concat : %d",
		MagicV2, h.TotalSize, h.Tweak[:], h.Salt[:], h.CBCIV[:], h.NumIter, h.NumConcat,
	)
}
