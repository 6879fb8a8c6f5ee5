package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/illarion/dehook/internal/keyring"
	"github.com/illarion/dehook/internal/settings"
)

// Status shows filtering, protection and auto-revert state
func Status(ctx context.Context, env *Env) {
	s := fetch(ctx, env)
	fmt.Print(renderStatus(s, time.Now(), keyring.HasPassword(env.Account())))
}

func renderStatus(s *settings.AppSettings, now time.Time, inKeyring bool) string {
	var out string
	line := func(format string, args ...any) {
		out += fmt.Sprintf(format, args...) + "\n"
	}

	if s.Enabled {
		line("Filtering:   on")
	} else {
		line("Filtering:   off")
	}

	p := &s.Protection
	switch p.State() {
	case settings.Unconfigured:
		line("Protection:  no password set")
	case settings.Locked:
		line("Protection:  locked")
	case settings.Unlocked:
		if remaining := settings.FormatRemaining(p.Remaining(now)); remaining != "" {
			line("Protection:  unlocked (%s)", remaining)
		} else {
			line("Protection:  unlocked")
		}
	}

	if p.AutoRevertEnabled {
		line("Auto-revert: after %d minutes", p.AutoRevertMinutes)
	} else {
		line("Auto-revert: disabled")
	}

	if p.HasPassword() {
		if inKeyring {
			line("Keyring:     password stored")
		} else {
			line("Keyring:     not stored")
		}
	}

	on := 0
	for _, v := range s.Hiding.Map() {
		if v {
			on++
		}
	}
	line("Hiding:      %d of %d flags on", on, len(settings.FlagNames()))
	if d := settings.Diff(settings.DefaultHiding(), s.Hiding); d != "" {
		line("             differs from defaults (see 'dehook diff')")
	}
	return out
}
