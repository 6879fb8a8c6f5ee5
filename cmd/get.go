package cmd

import (
	"context"
	"fmt"
)

// Get prints every hiding flag, or only the named ones
func Get(ctx context.Context, env *Env, names []string) {
	s := fetch(ctx, env)

	if len(names) == 0 {
		fmt.Printf("enabled: %t\n", s.Enabled)
		fmt.Print(s.Hiding.Render())
		return
	}

	for _, name := range names {
		if name == "enabled" {
			fmt.Printf("enabled: %t\n", s.Enabled)
			continue
		}
		v, err := s.Hiding.Get(name)
		if err != nil {
			HandleError(err)
		}
		fmt.Printf("%s: %t\n", name, v)
	}
}
