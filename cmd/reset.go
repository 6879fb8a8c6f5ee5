package cmd

import (
	"context"
	"fmt"
)

// Reset restores the restrictive hiding defaults and locks
func Reset(ctx context.Context, env *Env, force bool) {
	if !force && !Confirm("Restore default hiding settings and lock? [y/N] ") {
		fmt.Println("cancelled")
		return
	}
	if err := env.Client.Reset(ctx); err != nil {
		HandleError(err)
	}
	fmt.Println("defaults restored, settings locked")
}
