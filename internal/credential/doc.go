// Package credential derives and verifies password credentials for dehook.
//
// A credential is stored as a single opaque string, never as the password:
//
//	base64("v01" | salt[16] | iterations[3, big-endian] | key[32])
//
// Key derivation uses PBKDF2-HMAC-SHA256 with:
//   - 16-byte random salt, fresh for every Derive call
//   - 100,000 iterations (the count travels inside the blob)
//   - 32-byte derived key
//
// Verify never fails loudly: an unknown version tag, bad encoding, or a
// truncated or tampered blob all verify as false.
//
// Memory safety:
//   - Use ClearBytes() to zero derived keys and passwords after use
package credential
