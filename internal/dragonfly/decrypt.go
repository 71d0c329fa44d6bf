package dragonfly

import (
	"os"

	"github.com/duskcipher/threecrypt/internal/containererr"
	"github.com/duskcipher/threecrypt/internal/passphrase"
	"github.com/duskcipher/threecrypt/internal/scrub"
)

// MinContainerSize is the smallest byte count DecodeHeader can possibly
// read: the fixed fields plus a 1-byte salt_len and 1-byte nonce_len with
// both lengths zero (real headers are always larger, but this is the
// floor below which the file cannot even be parsed).
const MinContainerSize = fixedFieldsSize

// Decrypt implements the DRAGONFLY_V1 decrypt driver of SPEC_FULL.md §4.3.
// Because AEAD Open authenticates as part of decryption, this folds
// spec.md's separate MAC-compare and CBC-decrypt states into one step.
func Decrypt(inputPath, outputPath string, reader *passphrase.Reader) (err error) {
	info, statErr := os.Stat(inputPath)
	if statErr != nil {
		if os.IsNotExist(statErr) {
			return containererr.New(containererr.KindInputMissing, inputPath)
		}
		return containererr.Wrap(containererr.KindIO, inputPath, statErr)
	}
	inputLen := info.Size()
	if inputLen < MinContainerSize {
		return containererr.New(containererr.KindTooSmall, inputPath)
	}
	if _, statErr := os.Stat(outputPath); statErr == nil {
		return containererr.New(containererr.KindOutputExists, outputPath)
	}

	sess := scrub.NewSession(outputPath)
	defer func() {
		if err != nil {
			sess.Abort()
		} else {
			sess.Close()
		}
	}()

	sess.Input, err = scrub.OpenReadOnly(inputPath)
	if err != nil {
		return containererr.Wrap(containererr.KindIO, inputPath, err)
	}
	in := sess.Input.Map

	h, headerLen, err := DecodeHeader(in, inputLen)
	if err != nil {
		return err
	}

	pass, err := reader.Read("passphrase", false)
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

	cipherBody := in[headerLen:inputLen]
	if len(cipherBody) < aead.Overhead() {
		return containererr.New(containererr.KindInvalidHeader, inputPath)
	}
	plainLen := int64(len(cipherBody) - aead.Overhead())

	sess.Output, err = scrub.CreateReadWrite(outputPath, plainLen+1)
	if err != nil {
		return containererr.Wrap(containererr.KindIO, outputPath, err)
	}
	sess.MarkOutputCreated()

	out := sess.Output.Map
	headerBytes := in[:headerLen]
	_, openErr := aead.Open(out[:0:plainLen], h.Nonce, cipherBody, headerBytes)
	if openErr != nil {
		return containererr.New(containererr.KindAuthentication, inputPath)
	}

	if err = sess.Output.Sync(); err != nil {
		return containererr.Wrap(containererr.KindIO, outputPath, err)
	}
	if err = sess.Output.Map.Unmap(); err != nil {
		return containererr.Wrap(containererr.KindIO, outputPath, err)
	}
	sess.Output.Map = nil
	if err = sess.Output.File.Truncate(plainLen); err != nil {
		return containererr.Wrap(containererr.KindIO, outputPath, err)
	}
	return nil
}
