package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/illarion/dehook/internal/credential"
	"github.com/illarion/dehook/internal/settings"
)

// Unlock verifies the password with the daemon, opening the unlock window
func Unlock(ctx context.Context, env *Env) {
	s := fetch(ctx, env)

	switch s.Protection.State() {
	case settings.Unconfigured:
		fmt.Println("No password set, settings are not protected")
		fmt.Println("Run 'dehook passwd' to set one")
		return
	case settings.Unlocked:
		fmt.Printf("Already unlocked%s\n", remainingSuffix(&s.Protection))
		return
	}

	// Get password with retry on stale keyring
	password, source, err := GetPasswordWithRetry("Enter password: ", env.Account(), func(p []byte) error {
		return env.Client.VerifyPassword(ctx, p)
	})
	if err != nil {
		HandleError(err)
	}
	defer credential.ClearBytes(password)

	s = fetch(ctx, env)
	fmt.Printf("unlocked%s\n", remainingSuffix(&s.Protection))

	// Offer to save password if it was entered manually
	if source == SourcePrompt {
		OfferToSavePassword(env.Account(), password)
	}
}

// Extend restarts the unlock window without asking for the password again
func Extend(ctx context.Context, env *Env) {
	if err := env.Client.ExtendUnlock(ctx); err != nil {
		HandleError(err)
	}
	s := fetch(ctx, env)
	fmt.Printf("unlock extended%s\n", remainingSuffix(&s.Protection))
}

func remainingSuffix(p *settings.ProtectionSettings) string {
	if remaining := settings.FormatRemaining(p.Remaining(time.Now())); remaining != "" {
		return " (" + remaining + ")"
	}
	return ""
}
