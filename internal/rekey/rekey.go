// Package rekey implements the CLI convenience of SPEC_FULL.md §6:
// decrypt a container under its current passphrase, then re-encrypt the
// recovered plaintext under a freshly prompted passphrase, in the same
// container format as the input.
//
// The teacher's own key_rotation.go rotates a registry of per-chunk data
// keys inside one already-open encrypted virtual file. There is no such
// registry here — spec.md §1 scopes out parallel/multi-file encryption,
// and this port has no persistent keyring — so rekeying here is the
// single-file-granularity analogue: decrypt to a scrubbed temporary file,
// re-encrypt from it, and always remove the temporary file.
package rekey

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/duskcipher/threecrypt/internal/cbcv2"
	"github.com/duskcipher/threecrypt/internal/containererr"
	"github.com/duskcipher/threecrypt/internal/dispatch"
	"github.com/duskcipher/threecrypt/internal/dragonfly"
	"github.com/duskcipher/threecrypt/internal/passphrase"
	"github.com/duskcipher/threecrypt/internal/scrub"
)

// Rekey decrypts inputPath (prompting once for the current passphrase),
// then re-encrypts the recovered plaintext to outputPath (prompting,
// with confirmation, for a new passphrase), preserving the input's
// container format. The intermediate plaintext is written to a sibling
// temp file that is scrubbed and removed before Rekey returns, whether
// it succeeds or fails.
func Rekey(inputPath, outputPath string, cbcParams cbcv2.Params, dflyParams dragonfly.Params, currentReader, newReader *passphrase.Reader) (err error) {
	method, err := dispatch.Identify(inputPath)
	if err != nil {
		return containererr.Wrap(containererr.KindIO, inputPath, err)
	}
	if method != dispatch.CbcV2 && method != dispatch.DragonflyV1 {
		return containererr.New(containererr.KindUnrecognizedFormat, inputPath)
	}

	tmp, err := os.CreateTemp(filepath.Dir(outputPath), "threecrypt-rekey-*.tmp")
	if err != nil {
		return containererr.Wrap(containererr.KindIO, "", err)
	}
	tmpPath := tmp.Name()
	tmp.Close()
	if err := os.Remove(tmpPath); err != nil {
		return containererr.Wrap(containererr.KindIO, tmpPath, err)
	}

	defer func() {
		if _, statErr := os.Stat(tmpPath); statErr == nil {
			if data, readErr := os.ReadFile(tmpPath); readErr == nil {
				scrub.Zero(data)
				_ = os.WriteFile(tmpPath, data, 0o600)
			}
			os.Remove(tmpPath)
		}
	}()

	switch method {
	case dispatch.CbcV2:
		if err = cbcv2.Decrypt(inputPath, tmpPath, currentReader); err != nil {
			return err
		}
		if err = cbcv2.Encrypt(tmpPath, outputPath, cbcParams, newReader); err != nil {
			return err
		}
	case dispatch.DragonflyV1:
		if err = dragonfly.Decrypt(inputPath, tmpPath, currentReader); err != nil {
			return err
		}
		if err = dragonfly.Encrypt(tmpPath, outputPath, dflyParams, newReader); err != nil {
			return err
		}
	default:
		return fmt.Errorf("rekey: unreachable method %v", method)
	}
	return nil
}
