package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/illarion/dehook/internal/settings"
)

// Watch prints a line for every settings broadcast until ctx is cancelled
func Watch(ctx context.Context, env *Env) {
	fmt.Printf("watching %s (Ctrl-C to stop)\n", env.Client.Addr())

	err := env.Client.Watch(ctx, func(s *settings.AppSettings) {
		fmt.Printf("%s %s\n", time.Now().Format(time.TimeOnly), summarize(s))
	})
	if err != nil {
		HandleError(err)
	}
}

func summarize(s *settings.AppSettings) string {
	filtering := "off"
	if s.Enabled {
		filtering = "on"
	}
	return fmt.Sprintf("filtering=%s protection=%s autoRevert=%t/%dm",
		filtering, s.Protection.State(), s.Protection.AutoRevertEnabled, s.Protection.AutoRevertMinutes)
}
