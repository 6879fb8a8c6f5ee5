package cmd

import (
	"fmt"
	"os"

	"github.com/illarion/dehook/internal/credential"
	"github.com/illarion/dehook/internal/keyring"
)

// KeyringSave saves the password for the daemon to the OS keyring.
// The password is not checked here; a wrong entry is detected and
// replaced the next time it is used.
func KeyringSave(env *Env) {
	password, err := readPassword("Enter password: ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
	defer credential.ClearBytes(password)

	if len(password) == 0 {
		fmt.Fprintln(os.Stderr, "Error: password must not be empty")
		os.Exit(1)
	}

	if err := keyring.SavePassword(env.Account(), string(password)); err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to save to keyring: %s\n", err)
		os.Exit(1)
	}

	fmt.Println("Password saved to keyring")
}

// KeyringDelete removes the password from the OS keyring
func KeyringDelete(env *Env) {
	if err := keyring.DeletePassword(env.Account()); err != nil {
		if keyring.IsNotFound(err) {
			fmt.Println("No password stored in keyring")
			return
		}
		fmt.Fprintf(os.Stderr, "Error: failed to delete from keyring: %s\n", err)
		os.Exit(1)
	}

	fmt.Println("Password removed from keyring")
}

// KeyringStatus checks if a password is stored in the keyring
func KeyringStatus(env *Env) {
	if keyring.HasPassword(env.Account()) {
		fmt.Println("Password: stored in keyring")
	} else {
		fmt.Println("Password: not stored")
	}
}
