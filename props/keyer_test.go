package props

import (
	"strings"
	"testing"
)

// TestFingerprint_Deterministic verifies equal values always digest equally.
func TestFingerprint_Deterministic(t *testing.T) {
	type overrides struct {
		MaxFailures int
		Window      string
	}

	a, err := Fingerprint(overrides{MaxFailures: 5, Window: "10ms"})
	if err != nil {
		t.Fatalf("Fingerprint: %v", err)
	}
	for i := 0; i < 100; i++ {
		b, err := Fingerprint(overrides{MaxFailures: 5, Window: "10ms"})
		if err != nil {
			t.Fatalf("Fingerprint: %v", err)
		}
		if a != b {
			t.Fatalf("fingerprints diverged: %q vs %q", a, b)
		}
	}
	if len(a) != 16 {
		t.Errorf("fingerprint length = %d, want 16", len(a))
	}
}

// TestFingerprint_MapOrderIndependent verifies map-valued overrides digest
// identically regardless of insertion order.
func TestFingerprint_MapOrderIndependent(t *testing.T) {
	m1 := map[string]any{"alpha": 1, "beta": 2, "gamma": 3}
	m2 := map[string]any{"gamma": 3, "alpha": 1, "beta": 2}

	a, err := Fingerprint(m1)
	if err != nil {
		t.Fatalf("Fingerprint(m1): %v", err)
	}
	b, err := Fingerprint(m2)
	if err != nil {
		t.Fatalf("Fingerprint(m2): %v", err)
	}
	if a != b {
		t.Errorf("map order changed fingerprint: %q vs %q", a, b)
	}
}

// TestFingerprint_DistinguishesValues verifies distinct values digest
// differently.
func TestFingerprint_DistinguishesValues(t *testing.T) {
	a, err := Fingerprint(map[string]int{"limit": 5})
	if err != nil {
		t.Fatalf("Fingerprint: %v", err)
	}
	b, err := Fingerprint(map[string]int{"limit": 6})
	if err != nil {
		t.Fatalf("Fingerprint: %v", err)
	}
	if a == b {
		t.Errorf("distinct values share fingerprint %q", a)
	}
}

// TestFingerprint_Unencodable verifies values JSON cannot encode error out.
func TestFingerprint_Unencodable(t *testing.T) {
	if _, err := Fingerprint(make(chan int)); err == nil {
		t.Error("expected error for channel value")
	}
}

// TestBundleKey verifies the key layout and error propagation.
func TestBundleKey(t *testing.T) {
	key, err := BundleKey("circuit", "payments", nil)
	if err != nil {
		t.Fatalf("BundleKey: %v", err)
	}
	if !strings.HasPrefix(key, "circuit:payments:") {
		t.Errorf("key = %q, want circuit:payments: prefix", key)
	}
	if err := ValidateKey(key); err != nil {
		t.Errorf("derived key fails validation: %v", err)
	}

	if _, err := BundleKey("circuit", "payments", make(chan int)); err == nil {
		t.Error("expected error for unencodable overrides")
	}
}
