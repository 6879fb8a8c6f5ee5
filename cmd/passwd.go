package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/illarion/dehook/internal/credential"
	"github.com/illarion/dehook/internal/keyring"
)

// Passwd sets the password, or changes it after checking the current one.
// Either way the settings end up locked.
func Passwd(ctx context.Context, env *Env) {
	s := fetch(ctx, env)
	account := env.Account()

	if s.Protection.HasPassword() {
		// Get current password with retry on stale keyring
		current, _, err := GetPasswordWithRetry("Enter current password: ", account, func(p []byte) error {
			return env.Client.VerifyPassword(ctx, p)
		})
		if err != nil {
			HandleError(err)
		}
		credential.ClearBytes(current)
	}

	// Get new password
	password, err := ReadPasswordConfirm()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
	defer credential.ClearBytes(password)

	if err := env.Client.SetPassword(ctx, password); err != nil {
		HandleError(err)
	}

	// Keep an existing keyring entry in step with the daemon
	if keyring.HasPassword(account) {
		if err := keyring.SavePassword(account, string(password)); err == nil {
			fmt.Println("Keyring updated with new password")
		}
	} else {
		OfferToSavePassword(account, password)
	}

	if s.Protection.HasPassword() {
		fmt.Println("password changed, settings locked")
	} else {
		fmt.Println("password set, settings locked")
	}
}
