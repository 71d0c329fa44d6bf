package skein

import (
	"bytes"
	"crypto/rand"
	"testing"
)

func TestSum512Deterministic(t *testing.T) {
	data := []byte("the quick brown fox jumps over the lazy dog")
	a := Sum512(data)
	b := Sum512(data)
	if a != b {
		t.Fatal("Sum512 is not deterministic")
	}
}

func TestSum512DiffersOnInputChange(t *testing.T) {
	a := Sum512([]byte("abc"))
	b := Sum512([]byte("abd"))
	if a == b {
		t.Fatal("distinct inputs produced identical digests")
	}
}

func TestSum512EmptyInput(t *testing.T) {
	a := Sum512(nil)
	b := Sum512([]byte{})
	if a != b {
		t.Fatal("nil and empty-slice input should hash identically")
	}
	var zero [Size512]byte
	if a == zero {
		t.Fatal("empty-input digest should not be the all-zero value")
	}
}

func TestChainedDigestDiffersFromUnchained(t *testing.T) {
	data := []byte("round input")
	unchained := ChainedDigest512(nil, data)
	prev := Sum512([]byte("previous round"))
	chained := ChainedDigest512(&prev, data)
	if unchained == chained {
		t.Fatal("chaining a non-zero previous digest should change the output")
	}
}

func TestChainedDigestIsDeterministic(t *testing.T) {
	prev := Sum512([]byte("seed"))
	data := []byte("payload")
	a := ChainedDigest512(&prev, data)
	b := ChainedDigest512(&prev, data)
	if a != b {
		t.Fatal("ChainedDigest512 is not deterministic for identical inputs")
	}
}

func TestMACLengthAndDeterminism(t *testing.T) {
	key := make([]byte, 64)
	rand.Read(key)
	data := []byte("message to authenticate")

	mac1 := MAC(key, data, 64)
	mac2 := MAC(key, data, 64)
	if len(mac1) != 64 {
		t.Fatalf("expected 64-byte MAC, got %d", len(mac1))
	}
	if !bytes.Equal(mac1, mac2) {
		t.Fatal("MAC is not deterministic")
	}
}

func TestMACSensitiveToKeyAndData(t *testing.T) {
	keyA := bytes.Repeat([]byte{0xAA}, 64)
	keyB := bytes.Repeat([]byte{0xBB}, 64)
	data := []byte("ciphertext bytes")

	macA := MAC(keyA, data, 64)
	macB := MAC(keyB, data, 64)
	if bytes.Equal(macA, macB) {
		t.Fatal("different keys produced identical MACs")
	}

	macData := MAC(keyA, []byte("different ciphertext bytes"), 64)
	if bytes.Equal(macA, macData) {
		t.Fatal("different data produced identical MACs")
	}
}

func TestMACArbitraryLength(t *testing.T) {
	key := bytes.Repeat([]byte{0x42}, 32)
	data := []byte("variable length mac test")

	for _, n := range []int{1, 16, 63, 64, 65, 128, 200} {
		mac := MAC(key, data, n)
		if len(mac) != n {
			t.Fatalf("requested %d bytes, got %d", n, len(mac))
		}
	}
}

func TestMACTamperDetection(t *testing.T) {
	key := bytes.Repeat([]byte{0x11}, 64)
	data := []byte("authenticated payload")
	mac := MAC(key, data, 64)

	tampered := append([]byte(nil), data...)
	tampered[0] ^= 0x01
	macTampered := MAC(key, tampered, 64)

	if bytes.Equal(mac, macTampered) {
		t.Fatal("tampering with data did not change the MAC")
	}
}
