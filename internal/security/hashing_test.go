package security

import "testing"

func TestHasher_HashAndCompare(t *testing.T) {
	h := NewHasher(4) // min cost for test speed
	hash, err := h.Hash([]byte("secret1"))
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if hash == "" || hash == "secret1" {
		t.Fatalf("hash = %q", hash)
	}
	if err := h.Compare(hash, []byte("secret1")); err != nil {
		t.Errorf("Compare matching: %v", err)
	}
	if err := h.Compare(hash, []byte("wrong")); err == nil {
		t.Error("Compare mismatched: want error, got nil")
	}
}

func TestNewHasher_CostClamped(t *testing.T) {
	if got := NewHasher(0).Cost; got < 4 || got > 31 {
		t.Errorf("cost for 0 = %d", got)
	}
	if got := NewHasher(99).Cost; got != 31 {
		t.Errorf("cost for 99 = %d, want 31", got)
	}
	if got := NewHasher(2).Cost; got != 4 {
		t.Errorf("cost for 2 = %d, want 4", got)
	}
}
