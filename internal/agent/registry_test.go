package agent

import (
	"testing"
)

func TestGetOrCreateKeyIdempotent(t *testing.T) {
	r := NewRegistry()

	first, err := r.GetOrCreateKey("host-1")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(first) != 32 {
		t.Errorf("Expected 32 hex chars, got %d: %q", len(first), first)
	}

	second, err := r.GetOrCreateKey("host-1")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if first != second {
		t.Errorf("Expected same key on second call, got %q then %q", first, second)
	}
}

func TestKeysAreUniquePerHost(t *testing.T) {
	r := NewRegistry()

	a, _ := r.GetOrCreateKey("host-a")
	b, _ := r.GetOrCreateKey("host-b")
	if a == b {
		t.Error("Expected different keys for different hosts")
	}
}

func TestVerify(t *testing.T) {
	r := NewRegistry()
	key, _ := r.GetOrCreateKey("host-1")

	if !r.Verify("host-1", key) {
		t.Error("Expected correct key to verify")
	}
	if r.Verify("host-1", "wrong") {
		t.Error("Expected wrong key to fail")
	}
	if r.Verify("unknown-host", key) {
		t.Error("Expected unknown host to fail")
	}
	if r.Verify("host-1", "") {
		t.Error("Expected empty key to fail")
	}
}

func TestRegenerateKeyInvalidatesOld(t *testing.T) {
	r := NewRegistry()
	old, _ := r.GetOrCreateKey("host-1")

	fresh, err := r.RegenerateKey("host-1")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if fresh == old {
		t.Error("Expected a new key after regeneration")
	}
	if r.Verify("host-1", old) {
		t.Error("Expected old key to be invalid after regeneration")
	}
	if !r.Verify("host-1", fresh) {
		t.Error("Expected new key to verify")
	}
}
