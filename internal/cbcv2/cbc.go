package cbcv2

import (
	"github.com/duskcipher/threecrypt/internal/containererr"
	"github.com/duskcipher/threecrypt/internal/threefish"
)

// EncryptBody CBC-encrypts src (the raw plaintext) into dst, which must be
// exactly BodySize(len(src)) bytes long. The final block is padded per
// spec.md §4.4: the last byte of the padded plaintext is set to the
// pad-byte count k (1..64), recoverable on decrypt without a separate
// length field — resolving §9's open question the way §4.4's own wording
// states it ("the final byte of the last block encodes k").
func EncryptBody(cipher *threefish.Cipher, iv [BlockSize]byte, src, dst []byte) error {
	body := BodySize(int64(len(src)))
	if int64(len(dst)) != body {
		return containererr.New(containererr.KindInvalidHeader, "")
	}

	padded := make([]byte, body)
	copy(padded, src)
	padCount := int(body) - len(src)
	for i := len(src); i < int(body); i++ {
		padded[i] = byte(padCount)
	}

	prev := iv
	var block, out [BlockSize]byte
	for off := 0; off < int(body); off += BlockSize {
		copy(block[:], padded[off:off+BlockSize])
		for i := range block {
			block[i] ^= prev[i]
		}
		if err := cipher.Encrypt(out[:], block[:]); err != nil {
			return err
		}
		copy(dst[off:off+BlockSize], out[:])
		prev = out
	}
	return nil
}

// DecryptBody CBC-decrypts src (the ciphertext body, a multiple of
// BlockSize) into dst (which must be exactly len(src) bytes), then strips
// the padding appended at encrypt time, returning the recovered plaintext
// length. The pad count is read from the final output byte and validated
// to be in [1, BlockSize] and no larger than the body itself; a
// corrupted pad count after successful MAC verification is essentially
// unreachable, but defensively rejected as an InvalidHeader rather than
// trusted blindly.
func DecryptBody(cipher *threefish.Cipher, iv [BlockSize]byte, src, dst []byte) (int, error) {
	if len(src)%BlockSize != 0 || len(src) == 0 {
		return 0, containererr.New(containererr.KindInvalidHeader, "")
	}
	if len(dst) != len(src) {
		return 0, containererr.New(containererr.KindInvalidHeader, "")
	}

	prev := iv
	var block, out [BlockSize]byte
	for off := 0; off < len(src); off += BlockSize {
		copy(block[:], src[off:off+BlockSize])
		if err := cipher.Decrypt(out[:], block[:]); err != nil {
			return 0, err
		}
		for i := range out {
			out[i] ^= prev[i]
		}
		copy(dst[off:off+BlockSize], out[:])
		prev = block
	}

	padCount := int(dst[len(dst)-1])
	if padCount < 1 || padCount > BlockSize || padCount > len(dst) {
		return 0, containererr.New(containererr.KindInvalidHeader, "")
	}
	return len(dst) - padCount, nil
}
