package dragonfly

import (
	"fmt"
	"io"
	"os"

	"github.com/duskcipher/threecrypt/internal/containererr"
)

// Dump renders a DRAGONFLY_V1 file's header to w. No passphrase is read
// and no key is derived.
func Dump(path string, w io.Writer) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return containererr.New(containererr.KindInputMissing, path)
		}
		return containererr.Wrap(containererr.KindIO, path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return containererr.Wrap(containererr.KindIO, path, err)
	}
	// A header is at most fixedFieldsSize plus two 255-byte length-prefixed
	// fields; reading a small bounded prefix avoids pulling arbitrarily
	// large ciphertext bodies into memory just to print metadata.
	const maxHeaderLen = fixedFieldsSize + 255 + 255
	prefixLen := info.Size()
	if prefixLen > maxHeaderLen {
		prefixLen = maxHeaderLen
	}
	buf := make([]byte, prefixLen)
	if _, err := io.ReadFull(f, buf); err != nil {
		return containererr.Wrap(containererr.KindIO, path, err)
	}
	h, _, err := DecodeHeader(buf, info.Size())
	if err != nil {
		return err
	}

	kdfName := "argon2id"
	if h.KDFID == KDFPBKDF2 {
		kdfName = "pbkdf2-hmac-sha512"
	}
	cipherName := "aes-256-gcm"
	if h.CipherID == CipherChaCha20Poly1305 {
		cipherName = "chacha20-poly1305"
	}

	fmt.Fprintf(w, "File Header ID : %s\n", Magic)
	fmt.Fprintf(w, "File Size : %d\n", h.TotalSize)
	fmt.Fprintf(w, "KDF : %s\n", kdfName)
	fmt.Fprintf(w, "Cipher : %s\n", cipherName)
	fmt.Fprintf(w, "Garlic : %d\n", h.Garlic)
	fmt.Fprintf(w, "Time Cost : %d\n", h.TimeCost)
	fmt.Fprintf(w, "Parallelism : %d\n", h.Parallelism)
	fmt.Fprintf(w, "PBKDF2 Iter : %d\n", h.PBKDF2Iter)
	fmt.Fprintf(w, "Salt : %x\n", h.Salt)
	fmt.Fprintf(w, "Nonce : %x\n", h.Nonce)
	return nil
}
