// Package keyring keeps the unlock password in the OS keyring, one entry
// per daemon address.
package keyring

import (
	"errors"
	"strings"

	"github.com/zalando/go-keyring"
)

const serviceName = "dehook"

// ErrNotFound is returned when no password is stored for an account
var ErrNotFound = keyring.ErrNotFound

// Account derives the keyring account name for a daemon address, so
// "127.0.0.1:7878" and "http://127.0.0.1:7878/" share one entry.
func Account(addr string) string {
	if i := strings.Index(addr, "://"); i >= 0 {
		addr = addr[i+3:]
	}
	return strings.TrimRight(addr, "/")
}

// SavePassword stores a password in the OS keyring
func SavePassword(account string, password string) error {
	return keyring.Set(serviceName, account, password)
}

// GetPassword retrieves a password from the OS keyring
func GetPassword(account string) (string, error) {
	return keyring.Get(serviceName, account)
}

// DeletePassword removes a password from the OS keyring. Deleting a
// missing entry returns ErrNotFound.
func DeletePassword(account string) error {
	return keyring.Delete(serviceName, account)
}

// HasPassword checks if a password is stored in the keyring
func HasPassword(account string) bool {
	_, err := keyring.Get(serviceName, account)
	return err == nil
}

// IsNotFound reports whether err means there is no stored password
func IsNotFound(err error) bool {
	return errors.Is(err, keyring.ErrNotFound)
}
