package rekey

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/duskcipher/threecrypt/internal/cbcv2"
	"github.com/duskcipher/threecrypt/internal/dragonfly"
	"github.com/duskcipher/threecrypt/internal/passphrase"
)

func TestRekeyCbcV2RoundTrip(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "p")
	enc := filepath.Join(dir, "p.3c")
	rekeyed := filepath.Join(dir, "p.rekeyed.3c")
	dec := filepath.Join(dir, "p.final")

	plain := []byte("rekey me please")
	if err := os.WriteFile(in, plain, 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	var iv [64]byte
	cbcParams := cbcv2.Params{NumIter: 1, NumConcat: 1, FixedSalt: &[16]byte{}, FixedTweak: &[16]byte{}, FixedIV: &iv}
	origReader := passphrase.NewFixedReader([]byte("original"), []byte("original"))
	if err := cbcv2.Encrypt(in, enc, cbcParams, origReader); err != nil {
		t.Fatalf("Encrypt: %v", err)
	}

	currentReader := passphrase.NewFixedReader([]byte("original"))
	newReader := passphrase.NewFixedReader([]byte("replacement"), []byte("replacement"))
	if err := Rekey(enc, rekeyed, cbcParams, dragonfly.Params{}, currentReader, newReader); err != nil {
		t.Fatalf("Rekey: %v", err)
	}

	finalReader := passphrase.NewFixedReader([]byte("replacement"))
	if err := cbcv2.Decrypt(rekeyed, dec, finalReader); err != nil {
		t.Fatalf("Decrypt after rekey: %v", err)
	}
	got, err := os.ReadFile(dec)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !bytes.Equal(got, plain) {
		t.Fatalf("rekey round trip mismatch")
	}

	staleReader := passphrase.NewFixedReader([]byte("original"))
	staleOut := filepath.Join(dir, "stale.out")
	if err := cbcv2.Decrypt(rekeyed, staleOut, staleReader); err == nil {
		t.Fatalf("old passphrase still decrypts the rekeyed file")
	}
}

func TestRekeyLeavesNoTempFile(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "p")
	enc := filepath.Join(dir, "p.3c")
	rekeyed := filepath.Join(dir, "p.rekeyed.3c")

	if err := os.WriteFile(in, []byte("temp file check"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	var iv [64]byte
	cbcParams := cbcv2.Params{NumIter: 1, NumConcat: 1, FixedSalt: &[16]byte{}, FixedTweak: &[16]byte{}, FixedIV: &iv}
	reader := passphrase.NewFixedReader([]byte("pw"), []byte("pw"))
	if err := cbcv2.Encrypt(in, enc, cbcParams, reader); err != nil {
		t.Fatalf("Encrypt: %v", err)
	}

	before, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}

	currentReader := passphrase.NewFixedReader([]byte("pw"))
	newReader := passphrase.NewFixedReader([]byte("pw2"), []byte("pw2"))
	if err := Rekey(enc, rekeyed, cbcParams, dragonfly.Params{}, currentReader, newReader); err != nil {
		t.Fatalf("Rekey: %v", err)
	}

	after, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(after) != len(before)+1 {
		t.Fatalf("expected exactly one new file (the rekeyed output), got %d before, %d after", len(before), len(after))
	}
}

func TestRekeyFailsOnWrongCurrentPassphrase(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "p")
	enc := filepath.Join(dir, "p.3c")
	rekeyed := filepath.Join(dir, "p.rekeyed.3c")

	if err := os.WriteFile(in, []byte("wrong passphrase check"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	var iv [64]byte
	cbcParams := cbcv2.Params{NumIter: 1, NumConcat: 1, FixedSalt: &[16]byte{}, FixedTweak: &[16]byte{}, FixedIV: &iv}
	reader := passphrase.NewFixedReader([]byte("pw"), []byte("pw"))
	if err := cbcv2.Encrypt(in, enc, cbcParams, reader); err != nil {
		t.Fatalf("Encrypt: %v", err)
	}

	currentReader := passphrase.NewFixedReader([]byte("not-the-passphrase"))
	newReader := passphrase.NewFixedReader([]byte("pw2"), []byte("pw2"))
	if err := Rekey(enc, rekeyed, cbcParams, dragonfly.Params{}, currentReader, newReader); err == nil {
		t.Fatalf("expected rekey to fail with wrong current passphrase")
	}
	if _, statErr := os.Stat(rekeyed); statErr == nil {
		t.Fatalf("rekeyed output should not exist after failed rekey")
	}
}
