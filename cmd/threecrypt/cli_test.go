package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/duskcipher/threecrypt/internal/cbcv2"
	"github.com/duskcipher/threecrypt/internal/passphrase"
)

func TestResolveOutputPathEncryptDefault(t *testing.T) {
	cfg := &config{encrypt: true, input: "secret.txt", format: "cbc_v2"}
	got, err := resolveOutputPath(cfg)
	if err != nil {
		t.Fatalf("resolveOutputPath: %v", err)
	}
	if got != "secret.txt.3c" {
		t.Fatalf("got %q, want secret.txt.3c", got)
	}
}

func TestResolveOutputPathEncryptDragonfly(t *testing.T) {
	cfg := &config{encrypt: true, input: "secret.txt", format: "dragonfly_v1"}
	got, err := resolveOutputPath(cfg)
	if err != nil {
		t.Fatalf("resolveOutputPath: %v", err)
	}
	if got != "secret.txt.3cd" {
		t.Fatalf("got %q, want secret.txt.3cd", got)
	}
}

func TestResolveOutputPathDecryptStripsSuffix(t *testing.T) {
	cfg := &config{decrypt: true, input: "secret.txt.3c"}
	got, err := resolveOutputPath(cfg)
	if err != nil {
		t.Fatalf("resolveOutputPath: %v", err)
	}
	if got != "secret.txt" {
		t.Fatalf("got %q, want secret.txt", got)
	}
}

func TestResolveOutputPathDecryptRequiresSuffixOrOutput(t *testing.T) {
	cfg := &config{decrypt: true, input: "secret.bin"}
	_, err := resolveOutputPath(cfg)
	if err == nil {
		t.Fatalf("expected error when input has no recognized suffix and -o is unset")
	}
}

func TestRunHelpExitsZero(t *testing.T) {
	if code := run([]string{"--help"}); code != 0 {
		t.Fatalf("--help exited %d, want 0", code)
	}
}

func TestRunRequiresExactlyOneMode(t *testing.T) {
	if code := run([]string{"-i", "x"}); code == 0 {
		t.Fatalf("expected nonzero exit when no mode flag is given")
	}
	if code := run([]string{"-e", "-d", "-i", "x"}); code == 0 {
		t.Fatalf("expected nonzero exit when two mode flags are given")
	}
}

func TestRunRejectsMissingInput(t *testing.T) {
	dir := t.TempDir()
	missing := filepath.Join(dir, "does-not-exist")
	if code := run([]string{"-e", "-i", missing, "-o", missing + ".3c"}); code == 0 {
		t.Fatalf("expected nonzero exit for missing input")
	}
}

func TestRunDumpEndToEnd(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "p")
	enc := filepath.Join(dir, "p.3c")
	if err := os.WriteFile(in, []byte("dump via cli"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	var iv [64]byte
	params := cbcv2.Params{NumIter: 1, NumConcat: 1, FixedSalt: &[16]byte{}, FixedTweak: &[16]byte{}, FixedIV: &iv}
	reader := passphrase.NewFixedReader([]byte("pw"), []byte("pw"))
	if err := cbcv2.Encrypt(in, enc, params, reader); err != nil {
		t.Fatalf("Encrypt: %v", err)
	}

	if code := run([]string{"-D", "-i", enc}); code != 0 {
		t.Fatalf("dump exited %d", code)
	}
}
