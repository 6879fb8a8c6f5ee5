package cmd

import (
	"context"
	"fmt"

	"github.com/illarion/dehook/internal/settings"
)

// Diff shows how the hiding flags differ from the restrictive defaults
func Diff(ctx context.Context, env *Env) {
	s := fetch(ctx, env)

	out := settings.Diff(settings.DefaultHiding(), s.Hiding)
	if out == "" {
		fmt.Println("hiding flags match defaults")
		return
	}
	fmt.Print(out)
}
