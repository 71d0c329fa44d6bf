package cbcv2

import (
	"os"

	"github.com/duskcipher/threecrypt/internal/containererr"
	"github.com/duskcipher/threecrypt/internal/passphrase"
	"github.com/duskcipher/threecrypt/internal/scrub"
	"github.com/duskcipher/threecrypt/internal/skein"
	"github.com/duskcipher/threecrypt/internal/sspkdf"
	"github.com/duskcipher/threecrypt/internal/threefish"
)

// MinContainerSize is the smallest file that could possibly be a valid
// CBC_V2 container: header + one body block + MAC.
const MinContainerSize = HeaderSize + BlockSize + MACSize

// Decrypt implements the S0-S8 state machine of spec.md §4.5.
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

	sess.Output, err = scrub.CreateReadWrite(outputPath, inputLen)
	if err != nil {
		return containererr.Wrap(containererr.KindIO, outputPath, err)
	}
	sess.MarkOutputCreated()

	in := sess.Input.Map
	h, err := DecodeHeader(in[:HeaderSize], inputLen)
	if err != nil {
		return err
	}

	pass, err := reader.Read("passphrase", false)
	if err != nil {
		return err
	}
	defer pass.Release()

	key := sspkdf.Derive(pass.Bytes(), h.Salt[:], h.NumIter, h.NumConcat)
	defer scrub.Zero(key[:])
	pass.Release()

	wantMAC := in[inputLen-MACSize : inputLen]
	gotMAC := skein.MAC(key[:], in[:inputLen-MACSize], MACSize)
	if !constantTimeEqual(gotMAC, wantMAC) {
		return containererr.New(containererr.KindAuthentication, inputPath)
	}

	cipher, err := threefish.New(key[:], h.Tweak[:])
	if err != nil {
		return containererr.Wrap(containererr.KindIO, "", err)
	}

	body := in[HeaderSize : inputLen-MACSize]
	out := sess.Output.Map[:len(body)]
	plainLen, err := DecryptBody(cipher, h.CBCIV, body, out)
	if err != nil {
		return err
	}

	if err = sess.Output.Sync(); err != nil {
		return containererr.Wrap(containererr.KindIO, outputPath, err)
	}
	if err = sess.Output.Map.Unmap(); err != nil {
		return containererr.Wrap(containererr.KindIO, outputPath, err)
	}
	sess.Output.Map = nil
	if err = sess.Output.File.Truncate(int64(plainLen)); err != nil {
		return containererr.Wrap(containererr.KindIO, outputPath, err)
	}
	return nil
}

func constantTimeEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	var diff byte
	for i := range a {
		diff |= a[i] ^ b[i]
	}
	return diff == 0
}
