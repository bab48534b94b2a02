package props

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Fingerprint returns a short deterministic digest of v, suitable for
// embedding an overrides value in a cache key. v is encoded as JSON (the
// encoder sorts map keys, so encoding is stable) and hashed with SHA-256;
// the first 8 bytes are returned as 16 hex characters.
func Fingerprint(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("props: fingerprint overrides: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:8]), nil
}

// BundleKey builds the conventional cache key used by strategies that key on
// a kind, a logical name, and an overrides fingerprint.
// Format: <kind>:<name>:<fingerprint>
func BundleKey(kind, name string, overrides any) (string, error) {
	fp, err := Fingerprint(overrides)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s:%s:%s", kind, name, fp), nil
}
