package cbcv2

import (
	"fmt"
	"io"
	"os"

	"github.com/duskcipher/threecrypt/internal/containererr"
)

// Dump renders a CBC_V2 file's header and trailing MAC to w in the fixed
// human-readable form spec.md §4.7 specifies. No passphrase is read and
// no key is derived.
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
	if info.Size() < MinContainerSize {
		return containererr.New(containererr.KindTooSmall, path)
	}

	prefix := make([]byte, HeaderSize)
	if _, err := io.ReadFull(f, prefix); err != nil {
		return containererr.Wrap(containererr.KindIO, path, err)
	}
	h, err := DecodeHeader(prefix, info.Size())
	if err != nil {
		return err
	}

	mac := make([]byte, MACSize)
	if _, err := f.ReadAt(mac, info.Size()-MACSize); err != nil {
		return containererr.Wrap(containererr.KindIO, path, err)
	}

	fmt.Fprintf(w, "File Header ID : %s\n", MagicV2)
	fmt.Fprintf(w, "File Size : %d\n", h.TotalSize)
	fmt.Fprintf(w, "Tweak : %x\n", h.Tweak[:])
	fmt.Fprintf(w, "Salt : %x\n", h.Salt[:])
	fmt.Fprintf(w, "CBC IV : %x\n", h.CBCIV[:])
	fmt.Fprintf(w, "MAC : %x\n", mac)
	fmt.Fprintf(w, "Num Iter : %d\n", h.NumIter)
	fmt.Fprintf(w, "Num Concat : %d\n", h.NumConcat)
	return nil
}
