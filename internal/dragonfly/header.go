// Package dragonfly implements the DRAGONFLY_V1 supplemental container
// format: a memory-hard KDF (Argon2id, with a PBKDF2-HMAC-SHA512 fallback)
// sealed by an AEAD cipher, sitting beside CBC_V2 at the container-codec
// layer and sharing its dispatcher, CLI, and scrubbing machinery.
package dragonfly

import (
	"encoding/binary"

	"github.com/duskcipher/threecrypt/internal/containererr"
)

// Magic is the 14-byte ASCII id every DRAGONFLY_V1 file starts with.
const Magic = "3CRYPT_DFLY_V1"

const idSize = 14

// KDF identifiers.
const (
	KDFArgon2id byte = 0
	KDFPBKDF2   byte = 1
)

// Cipher identifiers.
const (
	CipherAES256GCM        byte = 0
	CipherChaCha20Poly1305 byte = 1
)

const (
	fixedFieldsSize = idSize + 8 + 1 + 1 + 1 + 1 + 1 + 4 + 1 + 1 // up to and including nonce_len
)

// Header is the decoded DRAGONFLY_V1 header. Unlike CBC_V2's fixed 125
// bytes, this header's length varies with SaltLen/NonceLen.
type Header struct {
	TotalSize   uint64
	KDFID       byte
	CipherID    byte
	Garlic      byte
	TimeCost    byte
	Parallelism byte
	PBKDF2Iter  uint32
	Salt        []byte
	Nonce       []byte
}

// Len returns this header's total encoded length in bytes.
func (h *Header) Len() int {
	return fixedFieldsSize + len(h.Salt) + len(h.Nonce)
}

// Encode serializes h, little-endian throughout, per SPEC_FULL.md §4.1.
func (h *Header) Encode() []byte {
	buf := make([]byte, h.Len())
	off := 0
	copy(buf[off:off+idSize], Magic)
	off += idSize
	binary.LittleEndian.PutUint64(buf[off:], h.TotalSize)
	off += 8
	buf[off] = h.KDFID
	off++
	buf[off] = h.CipherID
	off++
	buf[off] = h.Garlic
	off++
	buf[off] = h.TimeCost
	off++
	buf[off] = h.Parallelism
	off++
	binary.LittleEndian.PutUint32(buf[off:], h.PBKDF2Iter)
	off += 4
	buf[off] = byte(len(h.Salt))
	off++
	off += copy(buf[off:], h.Salt)
	buf[off] = byte(len(h.Nonce))
	off++
	off += copy(buf[off:], h.Nonce)
	return buf
}

// DecodeHeader reads a DRAGONFLY_V1 header from the start of buf (which
// may be longer than the header itself — the body and AEAD tag follow)
// and validates it against fileSize, returning the header and the number
// of bytes it occupied.
func DecodeHeader(buf []byte, fileSize int64) (*Header, int, error) {
	if len(buf) < fixedFieldsSize {
		return nil, 0, containererr.New(containererr.KindTooSmall, "")
	}
	if string(buf[0:idSize]) != Magic {
		return nil, 0, containererr.New(containererr.KindUnrecognizedFormat, "")
	}
	off := idSize
	h := &Header{}
	h.TotalSize = binary.LittleEndian.Uint64(buf[off:])
	off += 8
	h.KDFID = buf[off]
	off++
	h.CipherID = buf[off]
	off++
	h.Garlic = buf[off]
	off++
	h.TimeCost = buf[off]
	off++
	h.Parallelism = buf[off]
	off++
	h.PBKDF2Iter = binary.LittleEndian.Uint32(buf[off:])
	off += 4

	if off >= len(buf) {
		return nil, 0, containererr.New(containererr.KindTooSmall, "")
	}
	saltLen := int(buf[off])
	off++
	if off+saltLen > len(buf) {
		return nil, 0, containererr.New(containererr.KindTooSmall, "")
	}
	h.Salt = append([]byte(nil), buf[off:off+saltLen]...)
	off += saltLen

	if off >= len(buf) {
		return nil, 0, containererr.New(containererr.KindTooSmall, "")
	}
	nonceLen := int(buf[off])
	off++
	if off+nonceLen > len(buf) {
		return nil, 0, containererr.New(containererr.KindTooSmall, "")
	}
	h.Nonce = append([]byte(nil), buf[off:off+nonceLen]...)
	off += nonceLen

	if int64(h.TotalSize) != fileSize {
		return nil, 0, containererr.New(containererr.KindTruncatedOrExtended, "")
	}
	if h.TimeCost < 1 || len(h.Salt) < 16 || len(h.Salt) > 64 {
		return nil, 0, containererr.New(containererr.KindInvalidHeader, "")
	}
	if h.KDFID == KDFArgon2id && h.Parallelism < 1 {
		return nil, 0, containererr.New(containererr.KindInvalidHeader, "")
	}
	if h.KDFID == KDFPBKDF2 && h.PBKDF2Iter < 1 {
		return nil, 0, containererr.New(containererr.KindInvalidHeader, "")
	}
	return h, off, nil
}

// IsMagic reports whether buf begins with the DRAGONFLY_V1 magic.
func IsMagic(buf []byte) bool {
	return len(buf) >= idSize && string(buf[:idSize]) == Magic
}
