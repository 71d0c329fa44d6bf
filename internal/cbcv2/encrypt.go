package cbcv2

import (
	"os"

	"github.com/duskcipher/threecrypt/internal/containererr"
	"github.com/duskcipher/threecrypt/internal/passphrase"
	"github.com/duskcipher/threecrypt/internal/randsrc"
	"github.com/duskcipher/threecrypt/internal/scrub"
	"github.com/duskcipher/threecrypt/internal/skein"
	"github.com/duskcipher/threecrypt/internal/sspkdf"
	"github.com/duskcipher/threecrypt/internal/threefish"
)

// Params overrides cost parameters and, for deterministic testing only,
// the random salt/tweak/IV that would otherwise be drawn from the
// CSPRNG — the "fixed salt/tweak/IV injected via a test hook" spec.md §8
// requires for its determinism property.
type Params struct {
	NumIter   uint32
	NumConcat uint32

	// FixedSalt, FixedTweak, FixedIV, if non-nil, replace the CSPRNG draw.
	// Production callers leave these nil.
	FixedSalt  *[16]byte
	FixedTweak *[16]byte
	FixedIV    *[BlockSize]byte
}

// DefaultParams matches the reference implementation's defaults.
func DefaultParams() Params {
	return Params{NumIter: 1_000_000, NumConcat: 1_000_000}
}

// Encrypt implements the S0-S10 state machine of spec.md §4.4, driven
// entirely over memory-mapped input/output files.
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
	total := TotalSize(plainLen)

	sess := scrub.NewSession(outputPath)
	defer func() {
		if err != nil {
			sess.Abort()
		} else {
			sess.Close()
		}
	}()

	sess.Input, err = scrub.OpenReadOnly(inputPath)
	var emptyInput bool
	if err != nil {
		if plainLen == 0 {
			emptyInput = true
			err = nil
		} else {
			return containererr.Wrap(containererr.KindIO, inputPath, err)
		}
	}

	sess.Output, err = scrub.CreateReadWrite(outputPath, total)
	if err != nil {
		return containererr.Wrap(containererr.KindIO, outputPath, err)
	}
	sess.MarkOutputCreated()

	pass, err := reader.Read("passphrase", true)
	if err != nil {
		return err
	}
	defer pass.Release()

	h := &Header{TotalSize: uint64(total), NumIter: params.NumIter, NumConcat: params.NumConcat}
	if err = fillRandomFields(h, params); err != nil {
		return err
	}

	key := sspkdf.Derive(pass.Bytes(), h.Salt[:], h.NumIter, h.NumConcat)
	defer scrub.Zero(key[:])
	pass.Release()

	out := sess.Output.Map
	copy(out[0:HeaderSize], h.Encode())

	cipher, err := threefish.New(key[:], h.Tweak[:])
	if err != nil {
		return containererr.Wrap(containererr.KindIO, "", err)
	}

	var src []byte
	if !emptyInput {
		src = sess.Input.Map
	}
	bodyDst := out[HeaderSize : HeaderSize+int(BodySize(plainLen))]
	if err = EncryptBody(cipher, h.CBCIV, src, bodyDst); err != nil {
		return err
	}

	mac := skein.MAC(key[:], out[:total-MACSize], MACSize)
	copy(out[total-MACSize:total], mac)

	if err = sess.Output.Sync(); err != nil {
		return containererr.Wrap(containererr.KindIO, outputPath, err)
	}
	return nil
}

func fillRandomFields(h *Header, params Params) error {
	if params.FixedSalt != nil {
		h.Salt = *params.FixedSalt
	} else {
		src, err := randsrc.Default()
		if err != nil {
			return containererr.Wrap(containererr.KindIO, "", err)
		}
		if err := src.Fill(h.Salt[:]); err != nil {
			return containererr.Wrap(containererr.KindIO, "", err)
		}
	}
	if params.FixedTweak != nil {
		h.Tweak = *params.FixedTweak
	} else {
		src, err := randsrc.Default()
		if err != nil {
			return containererr.Wrap(containererr.KindIO, "", err)
		}
		if err := src.Fill(h.Tweak[:]); err != nil {
			return containererr.Wrap(containererr.KindIO, "", err)
		}
	}
	if params.FixedIV != nil {
		h.CBCIV = *params.FixedIV
	} else {
		src, err := randsrc.Default()
		if err != nil {
			return containererr.Wrap(containererr.KindIO, "", err)
		}
		if err := src.Fill(h.CBCIV[:]); err != nil {
			return containererr.Wrap(containererr.KindIO, "", err)
		}
	}
	return nil
}
