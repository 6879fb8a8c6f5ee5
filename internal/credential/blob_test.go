package credential

import (
	"encoding/base64"
	"strings"
	"testing"
)

const b64Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"

// fastDerive builds a credential with a low iteration count so tests that
// verify many variants stay quick.
func fastDerive(t *testing.T, password string) string {
	t.Helper()
	salt, err := GenerateRandom(SaltSize)
	if err != nil {
		t.Fatalf("Failed to generate salt: %v", err)
	}
	encoded, err := derive(&KDF{Salt: salt, Iterations: 1000}, []byte(password))
	if err != nil {
		t.Fatalf("Failed to derive: %v", err)
	}
	return encoded
}

func TestDeriveVerifyRoundTrip(t *testing.T) {
	for _, password := range []string{"abc123", "", "pässwörd", strings.Repeat("x", 1000)} {
		encoded, err := Derive([]byte(password))
		if err != nil {
			t.Fatalf("Derive(%q) failed: %v", password, err)
		}
		if !Verify(encoded, []byte(password)) {
			t.Errorf("Verify(Derive(%q), %q) = false, want true", password, password)
		}
	}
}

func TestVerifyWrongPassword(t *testing.T) {
	encoded, err := Derive([]byte("abc123"))
	if err != nil {
		t.Fatalf("Derive failed: %v", err)
	}

	for _, candidate := range []string{"wrong", "abc1234", "ABC123", ""} {
		if Verify(encoded, []byte(candidate)) {
			t.Errorf("Verify accepted %q for password abc123", candidate)
		}
	}
}

func TestDeriveUsesFreshSalt(t *testing.T) {
	first, err := Derive([]byte("same"))
	if err != nil {
		t.Fatalf("Derive failed: %v", err)
	}
	second, err := Derive([]byte("same"))
	if err != nil {
		t.Fatalf("Derive failed: %v", err)
	}
	if first == second {
		t.Error("Two derivations of the same password produced identical blobs")
	}
}

func TestBlobLayout(t *testing.T) {
	encoded, err := Derive([]byte("abc123"))
	if err != nil {
		t.Fatalf("Derive failed: %v", err)
	}

	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		t.Fatalf("Blob is not standard base64: %v", err)
	}
	if len(raw) != 54 {
		t.Fatalf("Blob length = %d, want 54", len(raw))
	}
	if string(raw[:3]) != "v01" {
		t.Errorf("Version tag = %q, want v01", raw[:3])
	}
	iterations := int(raw[19])<<16 | int(raw[20])<<8 | int(raw[21])
	if iterations != DefaultIters {
		t.Errorf("Iterations = %d, want %d", iterations, DefaultIters)
	}

	blob, err := Decode(encoded)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if blob.Iterations != DefaultIters || len(blob.Salt) != SaltSize || len(blob.Key) != KeySize {
		t.Errorf("Decoded blob has unexpected shape: %+v", blob)
	}
}

func TestVerifyRejectsTamperedBlob(t *testing.T) {
	encoded := fastDerive(t, "abc123")
	if !Verify(encoded, []byte("abc123")) {
		t.Fatal("Untampered blob should verify")
	}

	for i := range encoded {
		idx := strings.IndexByte(b64Alphabet, encoded[i])
		flipped := encoded[:i] + string(b64Alphabet[(idx+1)%len(b64Alphabet)]) + encoded[i+1:]
		if Verify(flipped, []byte("abc123")) {
			t.Errorf("Verify accepted blob tampered at position %d", i)
		}
	}
}

func TestVerifyRejectsMalformedBlob(t *testing.T) {
	valid := fastDerive(t, "abc123")
	raw, _ := base64.StdEncoding.DecodeString(valid)

	foreign := append([]byte("v02"), raw[3:]...)
	zeroIters := append([]byte(nil), raw...)
	zeroIters[19], zeroIters[20], zeroIters[21] = 0, 0, 0

	tests := []struct {
		name string
		blob string
	}{
		{"empty", ""},
		{"not base64", "!!!not-base64!!!"},
		{"truncated", valid[:len(valid)-4]},
		{"tag only", base64.StdEncoding.EncodeToString([]byte("v01"))},
		{"too short for tag", base64.StdEncoding.EncodeToString([]byte("v"))},
		{"unknown version", base64.StdEncoding.EncodeToString(foreign)},
		{"zero iterations", base64.StdEncoding.EncodeToString(zeroIters)},
		{"trailing data", base64.StdEncoding.EncodeToString(append(raw, 0))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if Verify(tt.blob, []byte("abc123")) {
				t.Errorf("Verify accepted malformed blob %q", tt.blob)
			}
		})
	}
}

func TestEncodeValidation(t *testing.T) {
	salt := make([]byte, SaltSize)
	key := make([]byte, KeySize)

	tests := []struct {
		name string
		blob Blob
	}{
		{"unknown version", Blob{Version: "v02", Salt: salt, Iterations: 1, Key: key}},
		{"short salt", Blob{Version: VersionV01, Salt: salt[:4], Iterations: 1, Key: key}},
		{"short key", Blob{Version: VersionV01, Salt: salt, Iterations: 1, Key: key[:4]}},
		{"zero iterations", Blob{Version: VersionV01, Salt: salt, Iterations: 0, Key: key}},
		{"iterations overflow", Blob{Version: VersionV01, Salt: salt, Iterations: MaxIters + 1, Key: key}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.blob.Encode(); err == nil {
				t.Error("Expected encode error")
			}
		})
	}
}

func TestClearBytes(t *testing.T) {
	b := []byte("secret")
	ClearBytes(b)
	for i, v := range b {
		if v != 0 {
			t.Fatalf("Byte %d not cleared", i)
		}
	}
}
