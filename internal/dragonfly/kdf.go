package dragonfly

import (
	"crypto/sha512"
	"fmt"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/pbkdf2"

	"github.com/duskcipher/threecrypt/internal/containererr"
)

// KeySize is the symmetric key size both supported AEADs consume.
const KeySize = 32

// DeriveKey computes a KeySize-byte key from passphrase and the header's
// KDF fields, per SPEC_FULL.md §4.2.
func DeriveKey(passphrase []byte, h *Header) ([]byte, error) {
	switch h.KDFID {
	case KDFArgon2id:
		memoryKiB := uint32(1) << h.Garlic
		key := argon2.IDKey(passphrase, h.Salt, uint32(h.TimeCost), memoryKiB, uint8(h.Parallelism), KeySize)
		return key, nil
	case KDFPBKDF2:
		return pbkdf2.Key(passphrase, h.Salt, int(h.PBKDF2Iter), KeySize, sha512.New), nil
	default:
		return nil, containererr.Wrap(containererr.KindInvalidHeader, "", fmt.Errorf("dragonfly: unknown kdf_id %d", h.KDFID))
	}
}
