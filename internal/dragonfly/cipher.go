package dragonfly

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/duskcipher/threecrypt/internal/containererr"
)

// NewAEAD builds the AEAD cipher.AEAD named by cipherID, keyed by key.
func NewAEAD(cipherID byte, key []byte) (cipher.AEAD, error) {
	switch cipherID {
	case CipherAES256GCM:
		block, err := aes.NewCipher(key)
		if err != nil {
			return nil, containererr.Wrap(containererr.KindIO, "", err)
		}
		return cipher.NewGCM(block)
	case CipherChaCha20Poly1305:
		return chacha20poly1305.New(key)
	default:
		return nil, containererr.Wrap(containererr.KindInvalidHeader, "", fmt.Errorf("dragonfly: unknown cipher_id %d", cipherID))
	}
}
