package dragonfly

import (
	"os"

	"github.com/duskcipher/threecrypt/internal/containererr"
	"github.com/duskcipher/threecrypt/internal/passphrase"
	"github.com/duskcipher/threecrypt/internal/randsrc"
	"github.com/duskcipher/threecrypt/internal/scrub"
)

// Params configures a DRAGONFLY_V1 encryption: KDF choice and cost, AEAD
// choice, and salt/nonce sizes. FixedSalt/FixedNonce exist only for
// deterministic tests, mirroring cbcv2.Params's test hook.
type Params struct {
	KDFID       byte
	CipherID    byte
	Garlic      byte
	TimeCost    byte
	Parallelism byte
	PBKDF2Iter  uint32
	SaltLen     byte
	NonceLen    byte

	FixedSalt  []byte
	FixedNonce []byte
}

// DefaultParams matches a conservative, current Argon2id/AES-256-GCM
// configuration.
func DefaultParams() Params {
	return Params{
		KDFID:       KDFArgon2id,
		CipherID:    CipherAES256GCM,
		Garlic:      16, // 2^16 KiB = 64 MiB
		TimeCost:    3,
		Parallelism: 4,
		SaltLen:     32,
		NonceLen:    12,
	}
}

// Encrypt implements the DRAGONFLY_V1 encrypt driver of SPEC_FULL.md §4.3.
func Encrypt(inputPath, outputPath string, params Params, reader *passphrase.Reader) (err error) {
	info, statErr := os.Stat(inputPath)
	if statErr != nil {
		if os.IsNotExist(statErr) {
			return containererr.New(containererr.KindInputMissing, inputPath)
		}
		return containererr.Wrap(containererr.KindIO, inputPath, statErr)
	}
	if _, statErr := os.Stat(outputPath); statErr == nil {
		return containererr.New(containererr.KindOutputExists, outputPath)
	}
	plainLen := info.Size()

	h := &Header{
		KDFID:       params.KDFID,
		CipherID:    params.CipherID,
		Garlic:      params.Garlic,
		TimeCost:    params.TimeCost,
		Parallelism: params.Parallelism,
		PBKDF2Iter:  params.PBKDF2Iter,
		Salt:        make([]byte, params.SaltLen),
		Nonce:       make([]byte, params.NonceLen),
	}
	if err = fillRandomFields(h, params); err != nil {
		return err
	}

	sess := scrub.NewSession(outputPath)
	defer func() {
		if err != nil {
			sess.Abort()
		} else {
			sess.Close()
		}
	}()

	var emptyInput bool
	sess.Input, err = scrub.OpenReadOnly(inputPath)
	if err != nil {
		if plainLen == 0 {
			emptyInput = true
			err = nil
		} else {
			return containererr.Wrap(containererr.KindIO, inputPath, err)
		}
	}

	pass, err := reader.Read("passphrase", true)
	if err != nil {
		return err
	}
	defer pass.Release()

	key, err := DeriveKey(pass.Bytes(), h)
	if err != nil {
		return err
	}
	defer scrub.Zero(key)
	pass.Release()

	aead, err := NewAEAD(h.CipherID, key)
	if err != nil {
		return err
	}

	headerLen := h.Len()
	total := int64(headerLen) + plainLen + int64(aead.Overhead())
	h.TotalSize = uint64(total)
	headerBytes := h.Encode()

	sess.Output, err = scrub.CreateReadWrite(outputPath, total)
	if err != nil {
		return containererr.Wrap(containererr.KindIO, outputPath, err)
	}
	sess.MarkOutputCreated()

	var plaintext []byte
	if !emptyInput {
		plaintext = sess.Input.Map
	}

	out := sess.Output.Map
	copy(out[:headerLen], headerBytes)
	// Three-index slice caps capacity at exactly total-headerLen spare
	// bytes, so Seal's internal append writes directly into the output
	// mapping's backing array instead of allocating a fresh one.
	aead.Seal(out[:headerLen:int(total)], h.Nonce, plaintext, headerBytes)

	if err = sess.Output.Sync(); err != nil {
		return containererr.Wrap(containererr.KindIO, outputPath, err)
	}
	return nil
}

func fillRandomFields(h *Header, params Params) error {
	if params.FixedSalt != nil {
		copy(h.Salt, params.FixedSalt)
	} else {
		src, err := randsrc.Default()
		if err != nil {
			return containererr.Wrap(containererr.KindIO, "", err)
		}
		if err := src.Fill(h.Salt); err != nil {
			return containererr.Wrap(containererr.KindIO, "", err)
		}
	}
	if params.FixedNonce != nil {
		copy(h.Nonce, params.FixedNonce)
	} else {
		src, err := randsrc.Default()
		if err != nil {
			return containererr.Wrap(containererr.KindIO, "", err)
		}
		if err := src.Fill(h.Nonce); err != nil {
			return containererr.Wrap(containererr.KindIO, "", err)
		}
	}
	return nil
}
