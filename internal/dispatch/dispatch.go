// Package dispatch identifies which container format a file on disk uses,
// per spec.md §4.6 extended by SPEC_FULL.md §5 to a third variant.
package dispatch

import (
	"io"
	"os"

	"github.com/duskcipher/threecrypt/internal/cbcv2"
	"github.com/duskcipher/threecrypt/internal/dragonfly"
)

// Method names a recognized (or absent) container format.
type Method int

const (
	// None means no known magic matched.
	None Method = iota
	// CbcV1ReadOnly is the historical variant this port recognizes by its
	// magic but never writes (spec.md §4.6). No driver decrypts or dumps it.
	CbcV1ReadOnly
	// CbcV2 is spec.md's primary format.
	CbcV2
	// DragonflyV1 is the SPEC_FULL.md §4 supplemental format.
	DragonflyV1
)

func (m Method) String() string {
	switch m {
	case CbcV1ReadOnly:
		return "3CRYPT_CBC_V1"
	case CbcV2:
		return "3CRYPT_CBC_V2"
	case DragonflyV1:
		return "3CRYPT_DFLY_V1"
	default:
		return "none"
	}
}

// maxMagicLen is the longest magic prefix any recognized format uses.
const maxMagicLen = 14

// Identify reads the longest candidate magic prefix of path and compares
// it against all known magics, longest-first, returning None if the file
// is shorter than the smallest magic or matches none of them.
func Identify(path string) (Method, error) {
	f, err := os.Open(path)
	if err != nil {
		return None, err
	}
	defer f.Close()

	buf := make([]byte, maxMagicLen)
	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return None, err
	}
	buf = buf[:n]

	if dragonfly.IsMagic(buf) {
		return DragonflyV1, nil
	}
	if cbcv2.IsMagic(buf) {
		return CbcV2, nil
	}
	if len(buf) >= len(cbcv2.MagicV1) && string(buf[:len(cbcv2.MagicV1)]) == cbcv2.MagicV1 {
		return CbcV1ReadOnly, nil
	}
	return None, nil
}
