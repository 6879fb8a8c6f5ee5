package credential

import (
	"encoding/base64"
	"errors"
	"fmt"
)

// VersionV01 tags the PBKDF2-SHA256 blob layout.
const VersionV01 = "v01"

const (
	versionSize = len(VersionV01)
	iterSize    = 3
	blobSizeV01 = versionSize + SaltSize + iterSize + KeySize
)

var (
	ErrMalformedBlob  = errors.New("malformed credential blob")
	ErrUnknownVersion = errors.New("unknown credential version")
)

// Blob is the decoded form of a stored credential
type Blob struct {
	Version    string
	Salt       []byte
	Iterations int
	Key        []byte
}

// Encode serializes the blob into its printable form
func (b *Blob) Encode() (string, error) {
	if b.Version != VersionV01 {
		return "", ErrUnknownVersion
	}
	if len(b.Salt) != SaltSize || len(b.Key) != KeySize {
		return "", ErrMalformedBlob
	}
	if b.Iterations <= 0 || b.Iterations > MaxIters {
		return "", fmt.Errorf("iteration count %d out of range: %w", b.Iterations, ErrMalformedBlob)
	}

	raw := make([]byte, 0, blobSizeV01)
	raw = append(raw, b.Version...)
	raw = append(raw, b.Salt...)
	raw = append(raw, byte(b.Iterations>>16), byte(b.Iterations>>8), byte(b.Iterations))
	raw = append(raw, b.Key...)

	return base64.StdEncoding.EncodeToString(raw), nil
}

// Decode parses a stored credential. The version tag selects the layout;
// anything unrecognized is rejected before the payload is inspected.
func Decode(encoded string) (*Blob, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedBlob, err)
	}
	if len(raw) < versionSize {
		return nil, ErrMalformedBlob
	}

	switch version := string(raw[:versionSize]); version {
	case VersionV01:
		return decodeV01(raw)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownVersion, version)
	}
}

func decodeV01(raw []byte) (*Blob, error) {
	if len(raw) != blobSizeV01 {
		return nil, ErrMalformedBlob
	}

	payload := raw[versionSize:]
	salt := payload[:SaltSize]
	iter := payload[SaltSize : SaltSize+iterSize]
	key := payload[SaltSize+iterSize:]

	iterations := int(iter[0])<<16 | int(iter[1])<<8 | int(iter[2])
	if iterations == 0 {
		return nil, ErrMalformedBlob
	}

	return &Blob{
		Version:    VersionV01,
		Salt:       append([]byte(nil), salt...),
		Iterations: iterations,
		Key:        append([]byte(nil), key...),
	}, nil
}

// Derive creates a new credential for password with a fresh salt.
// Two calls with the same password yield different strings.
func Derive(password []byte) (string, error) {
	kdf, err := NewKDF()
	if err != nil {
		return "", err
	}
	return derive(kdf, password)
}

func derive(kdf *KDF, password []byte) (string, error) {
	key := kdf.DeriveKey(password)
	defer ClearBytes(key)

	blob := &Blob{
		Version:    VersionV01,
		Salt:       kdf.Salt,
		Iterations: kdf.Iterations,
		Key:        key,
	}
	return blob.Encode()
}

// Verify reports whether password matches the stored credential.
// Malformed or foreign credentials never match.
func Verify(encoded string, password []byte) bool {
	blob, err := Decode(encoded)
	if err != nil {
		return false
	}
	defer ClearBytes(blob.Key)

	kdf := &KDF{Salt: blob.Salt, Iterations: blob.Iterations}
	candidate := kdf.DeriveKey(password)
	defer ClearBytes(candidate)

	return ConstantTimeCompare(candidate, blob.Key)
}
