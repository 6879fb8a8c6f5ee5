package cmd

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/illarion/dehook/internal/settings"
)

var (
	ErrNoAssignments    = errors.New("nothing to set")
	ErrBadAssignment    = errors.New("expected name=true|false")
	ErrConflictingFlags = errors.New("--on and --off are mutually exclusive")
)

// ParseAssignments turns "name=value" arguments into a patch. The name
// "enabled" toggles filtering as a whole; anything else must be a hiding
// flag.
func ParseAssignments(args []string) (*settings.Patch, error) {
	if len(args) == 0 {
		return nil, ErrNoAssignments
	}

	patch := &settings.Patch{}
	for _, arg := range args {
		name, raw, ok := strings.Cut(arg, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("%w: %q", ErrBadAssignment, arg)
		}
		value, err := parseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrBadAssignment, arg)
		}

		if name == "enabled" {
			patch.Enabled = &value
			continue
		}
		if !settings.IsFlag(name) {
			return nil, fmt.Errorf("%w: %s", settings.ErrUnknownFlag, name)
		}
		if patch.Hiding == nil {
			patch.Hiding = make(map[string]bool)
		}
		patch.Hiding[name] = value
	}
	return patch, nil
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "on", "yes":
		return true, nil
	case "off", "no":
		return false, nil
	}
	return strconv.ParseBool(s)
}

// PolicyPatch builds the auto-revert patch for the autorevert command.
// minutes of zero leaves the window length unchanged.
func PolicyPatch(on, off bool, minutes int) (*settings.Patch, error) {
	if on && off {
		return nil, ErrConflictingFlags
	}
	if minutes < 0 {
		return nil, settings.ErrInvalidMinutes
	}

	pp := &settings.ProtectionPatch{}
	switch {
	case on:
		enabled := true
		pp.AutoRevertEnabled = &enabled
	case off:
		enabled := false
		pp.AutoRevertEnabled = &enabled
	}
	if minutes > 0 {
		pp.AutoRevertMinutes = &minutes
	}
	if pp.AutoRevertEnabled == nil && pp.AutoRevertMinutes == nil {
		return nil, ErrNoAssignments
	}
	patch := &settings.Patch{Protection: pp}
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	return patch, nil
}

// Set applies name=value assignments
func Set(ctx context.Context, env *Env, args []string) {
	patch, err := ParseAssignments(args)
	if err != nil {
		HandleError(err)
	}
	apply(ctx, env, patch)
	fmt.Printf("updated: %d settings\n", len(args))
}

// SetEnabled switches filtering on or off
func SetEnabled(ctx context.Context, env *Env, enabled bool) {
	apply(ctx, env, &settings.Patch{Enabled: &enabled})
	if enabled {
		fmt.Println("filtering enabled")
	} else {
		fmt.Println("filtering disabled")
	}
}

// AutoRevert changes the auto-revert policy
func AutoRevert(ctx context.Context, env *Env, on, off bool, minutes int) {
	patch, err := PolicyPatch(on, off, minutes)
	if err != nil {
		HandleError(err)
	}
	apply(ctx, env, patch)

	s := fetch(ctx, env)
	if s.Protection.AutoRevertEnabled {
		fmt.Printf("auto-revert: after %d minutes\n", s.Protection.AutoRevertMinutes)
	} else {
		fmt.Println("auto-revert: disabled")
	}
}

func apply(ctx context.Context, env *Env, patch *settings.Patch) {
	if err := env.Client.UpdateSettings(ctx, patch); err != nil {
		HandleError(err)
	}
}
