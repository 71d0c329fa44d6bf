package dispatch

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/duskcipher/threecrypt/internal/cbcv2"
	"github.com/duskcipher/threecrypt/internal/dragonfly"
	"github.com/duskcipher/threecrypt/internal/passphrase"
)

func TestIdentifyNoneForShortOrUnrelatedFile(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "junk")
	if err := os.WriteFile(p, []byte("not a container"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	m, err := Identify(p)
	if err != nil {
		t.Fatalf("Identify: %v", err)
	}
	if m != None {
		t.Fatalf("got %v, want None", m)
	}
}

func TestIdentifyCbcV1Magic(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "legacy")
	if err := os.WriteFile(p, []byte(cbcv2.MagicV1+"padding-to-be-long-enough"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	m, err := Identify(p)
	if err != nil {
		t.Fatalf("Identify: %v", err)
	}
	if m != CbcV1ReadOnly {
		t.Fatalf("got %v, want CbcV1ReadOnly", m)
	}
}

func TestIdentifyCbcV2File(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "p")
	enc := filepath.Join(dir, "p.3c")
	if err := os.WriteFile(in, []byte("dispatcher test"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	var iv [64]byte
	params := cbcv2.Params{NumIter: 1, NumConcat: 1, FixedSalt: &[16]byte{}, FixedTweak: &[16]byte{}, FixedIV: &iv}
	reader := passphrase.NewFixedReader([]byte("pw"), []byte("pw"))
	if err := cbcv2.Encrypt(in, enc, params, reader); err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	m, err := Identify(enc)
	if err != nil {
		t.Fatalf("Identify: %v", err)
	}
	if m != CbcV2 {
		t.Fatalf("got %v, want CbcV2", m)
	}
}

func TestIdentifyDragonflyV1File(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "p")
	enc := filepath.Join(dir, "p.3cd")
	if err := os.WriteFile(in, []byte("dispatcher test"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	params := dragonfly.DefaultParams()
	params.Garlic = 10
	params.Parallelism = 1
	reader := passphrase.NewFixedReader([]byte("pw"), []byte("pw"))
	if err := dragonfly.Encrypt(in, enc, params, reader); err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	m, err := Identify(enc)
	if err != nil {
		t.Fatalf("Identify: %v", err)
	}
	if m != DragonflyV1 {
		t.Fatalf("got %v, want DragonflyV1", m)
	}
}

func TestCbcV2NeverMisidentifiedAsDragonfly(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "p")
	enc := filepath.Join(dir, "p.3c")
	if err := os.WriteFile(in, []byte("x"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	var iv [64]byte
	params := cbcv2.Params{NumIter: 1, NumConcat: 1, FixedSalt: &[16]byte{}, FixedTweak: &[16]byte{}, FixedIV: &iv}
	reader := passphrase.NewFixedReader([]byte("pw"), []byte("pw"))
	if err := cbcv2.Encrypt(in, enc, params, reader); err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	m, err := Identify(enc)
	if err != nil {
		t.Fatalf("Identify: %v", err)
	}
	if m == DragonflyV1 {
		t.Fatalf("CBC_V2 file misidentified as DragonflyV1")
	}
}
