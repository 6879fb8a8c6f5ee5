package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/illarion/dehook/internal/bus"
	"github.com/illarion/dehook/internal/client"
	"github.com/illarion/dehook/internal/config"
	"github.com/illarion/dehook/internal/keyring"
	"github.com/illarion/dehook/internal/protection"
	"github.com/illarion/dehook/internal/settings"
)

// stdin is swapped out in tests
var stdin = bufio.NewReader(os.Stdin)

// Env is what every consumer command needs: resolved configuration and a
// client for the daemon it names.
type Env struct {
	Config *config.Config
	Client *client.Client
}

// Account is the keyring account for the daemon
func (e *Env) Account() string {
	return keyring.Account(e.Client.Addr())
}

// Connect loads configuration and builds a client. A non-empty addr
// overrides the configured listen address.
func Connect(configPath, addr string) *Env {
	cfg, err := config.Load(configPath)
	if err != nil {
		HandleError(err)
	}
	if addr != "" {
		cfg.Listen = addr
	}
	return &Env{Config: cfg, Client: client.New(cfg.Listen)}
}

// fetch reads the current settings or exits
func fetch(ctx context.Context, env *Env) *settings.AppSettings {
	s, err := env.Client.GetSettings(ctx)
	if err != nil {
		HandleError(err)
	}
	return s
}

// Confirm asks a yes/no question, defaulting to no
func Confirm(prompt string) bool {
	fmt.Print(prompt)
	answer, err := stdin.ReadString('\n')
	if err != nil {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}

// HandleError prints err with a hint where one helps and exits
func HandleError(err error) {
	fmt.Fprintln(os.Stderr, describeError(err))
	os.Exit(1)
}

func describeError(err error) string {
	var failure *bus.FailureError
	if errors.As(err, &failure) {
		switch failure.Reason {
		case protection.ErrLocked.Reason:
			return "Error: settings are locked\nRun 'dehook unlock' first"
		case protection.ErrNoPassword.Reason:
			return "Error: no password set\nRun 'dehook passwd' to set one"
		}
		return fmt.Sprintf("Error: %s", failure.Reason)
	}
	if errors.Is(err, client.ErrUnreachable) {
		return fmt.Sprintf("Error: %s\nIs the daemon running? Start it with 'dehook serve'", err)
	}
	return fmt.Sprintf("Error: %s", err)
}
