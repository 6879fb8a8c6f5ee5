package cmd

import (
	"errors"
	"fmt"
	"os"
	"syscall"

	"github.com/illarion/dehook/internal/bus"
	"github.com/illarion/dehook/internal/credential"
	"github.com/illarion/dehook/internal/keyring"
	"golang.org/x/term"
)

// PasswordEnv overrides keyring and prompt when set
const PasswordEnv = "DEHOOK_PASSWORD"

// PasswordSource records where a password came from
type PasswordSource int

const (
	SourceEnv PasswordSource = iota
	SourceKeyring
	SourcePrompt
)

// readPassword is swapped out in tests
var readPassword = ReadPassword

// ReadPassword reads a password from the terminal without echoing
func ReadPassword(prompt string) ([]byte, error) {
	fmt.Print(prompt)

	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()

	if err != nil {
		return nil, fmt.Errorf("failed to read password: %w", err)
	}

	return password, nil
}

// ReadPasswordConfirm reads a new password twice and ensures they match
func ReadPasswordConfirm() ([]byte, error) {
	password1, err := readPassword("New password: ")
	if err != nil {
		return nil, err
	}
	defer credential.ClearBytes(password1)

	if len(password1) == 0 {
		return nil, fmt.Errorf("password must not be empty")
	}

	password2, err := readPassword("Confirm password: ")
	if err != nil {
		return nil, err
	}
	defer credential.ClearBytes(password2)

	if !credential.ConstantTimeCompare(password1, password2) {
		return nil, fmt.Errorf("passwords do not match")
	}

	result := make([]byte, len(password1))
	copy(result, password1)
	return result, nil
}

// GetPasswordFromEnv reads password from DEHOOK_PASSWORD
func GetPasswordFromEnv() []byte {
	password := os.Getenv(PasswordEnv)
	if password == "" {
		return nil
	}
	result := make([]byte, len(password))
	copy(result, password)
	return result
}

// GetPasswordWithRetry finds a password the daemon accepts. It tries
// DEHOOK_PASSWORD, then the keyring entry for account, then a prompt.
// A keyring entry the daemon rejects is treated as stale and the user is
// prompted instead. verify must report a wrong password as an error
// wrapping bus.ErrFailed.
// The caller is responsible for calling credential.ClearBytes on the
// returned password.
func GetPasswordWithRetry(prompt, account string, verify func([]byte) error) ([]byte, PasswordSource, error) {
	if password := GetPasswordFromEnv(); password != nil {
		if err := verify(password); err != nil {
			credential.ClearBytes(password)
			return nil, SourceEnv, err
		}
		return password, SourceEnv, nil
	}

	if account != "" {
		if stored, err := keyring.GetPassword(account); err == nil {
			password := []byte(stored)
			err := verify(password)
			if err == nil {
				return password, SourceKeyring, nil
			}
			credential.ClearBytes(password)
			if !errors.Is(err, bus.ErrFailed) {
				return nil, SourceKeyring, err
			}
			fmt.Fprintln(os.Stderr, "Stored keyring password was rejected, please enter it again")
		}
	}

	password, err := readPassword(prompt)
	if err != nil {
		return nil, SourcePrompt, err
	}
	if err := verify(password); err != nil {
		credential.ClearBytes(password)
		return nil, SourcePrompt, err
	}
	return password, SourcePrompt, nil
}

// OfferToSavePassword asks whether to store a typed password in the
// keyring, and updates a stale entry without asking.
func OfferToSavePassword(account string, password []byte) {
	if account == "" {
		return
	}
	if stored, err := keyring.GetPassword(account); err == nil {
		if stored != string(password) {
			if err := keyring.SavePassword(account, string(password)); err == nil {
				fmt.Println("Keyring updated with new password")
			}
		}
		return
	}

	if !Confirm("Save password to keyring? [y/N] ") {
		return
	}
	if err := keyring.SavePassword(account, string(password)); err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to save to keyring: %s\n", err)
		return
	}
	fmt.Println("Password saved to keyring")
}
