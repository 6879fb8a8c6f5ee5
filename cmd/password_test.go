package cmd

import (
	"errors"
	"fmt"
	"testing"

	"github.com/illarion/dehook/internal/bus"
	"github.com/illarion/dehook/internal/client"
	"github.com/illarion/dehook/internal/keyring"
	gokeyring "github.com/zalando/go-keyring"
)

const testAccount = "127.0.0.1:7878"

// stubPrompt replaces the terminal prompt with canned answers
func stubPrompt(t *testing.T, answers ...string) *int {
	t.Helper()
	calls := 0
	orig := readPassword
	readPassword = func(string) ([]byte, error) {
		if calls >= len(answers) {
			return nil, fmt.Errorf("unexpected prompt")
		}
		calls++
		return []byte(answers[calls-1]), nil
	}
	t.Cleanup(func() { readPassword = orig })
	return &calls
}

// acceptOnly returns a verify func that accepts one password and rejects
// the rest the way the daemon does
func acceptOnly(password string) func([]byte) error {
	return func(p []byte) error {
		if string(p) == password {
			return nil
		}
		return &bus.FailureError{Reason: "incorrect password"}
	}
}

func TestGetPasswordFromEnvFirst(t *testing.T) {
	gokeyring.MockInit()
	t.Setenv(PasswordEnv, "from-env")
	calls := stubPrompt(t)

	password, source, err := GetPasswordWithRetry("Enter password: ", testAccount, acceptOnly("from-env"))
	if err != nil {
		t.Fatalf("GetPasswordWithRetry failed: %v", err)
	}
	if string(password) != "from-env" || source != SourceEnv {
		t.Errorf("Got %q from %v, want from-env from env", password, source)
	}
	if *calls != 0 {
		t.Error("Should not prompt when env is set")
	}
}

func TestGetPasswordWrongEnvFails(t *testing.T) {
	gokeyring.MockInit()
	t.Setenv(PasswordEnv, "wrong")
	stubPrompt(t)

	_, _, err := GetPasswordWithRetry("Enter password: ", testAccount, acceptOnly("right"))
	if !errors.Is(err, bus.ErrFailed) {
		t.Errorf("Expected rejection, got %v", err)
	}
}

func TestGetPasswordFromKeyring(t *testing.T) {
	gokeyring.MockInit()
	t.Setenv(PasswordEnv, "")
	calls := stubPrompt(t)
	if err := keyring.SavePassword(testAccount, "stored"); err != nil {
		t.Fatalf("SavePassword failed: %v", err)
	}

	password, source, err := GetPasswordWithRetry("Enter password: ", testAccount, acceptOnly("stored"))
	if err != nil {
		t.Fatalf("GetPasswordWithRetry failed: %v", err)
	}
	if string(password) != "stored" || source != SourceKeyring {
		t.Errorf("Got %q from %v, want stored from keyring", password, source)
	}
	if *calls != 0 {
		t.Error("Should not prompt when keyring password is accepted")
	}
}

func TestGetPasswordStaleKeyringFallsBackToPrompt(t *testing.T) {
	gokeyring.MockInit()
	t.Setenv(PasswordEnv, "")
	calls := stubPrompt(t, "typed")
	if err := keyring.SavePassword(testAccount, "stale"); err != nil {
		t.Fatalf("SavePassword failed: %v", err)
	}

	password, source, err := GetPasswordWithRetry("Enter password: ", testAccount, acceptOnly("typed"))
	if err != nil {
		t.Fatalf("GetPasswordWithRetry failed: %v", err)
	}
	if string(password) != "typed" || source != SourcePrompt {
		t.Errorf("Got %q from %v, want typed from prompt", password, source)
	}
	if *calls != 1 {
		t.Errorf("Prompted %d times, want 1", *calls)
	}
}

func TestGetPasswordKeyringTransportErrorDoesNotPrompt(t *testing.T) {
	gokeyring.MockInit()
	t.Setenv(PasswordEnv, "")
	calls := stubPrompt(t, "typed")
	if err := keyring.SavePassword(testAccount, "stored"); err != nil {
		t.Fatalf("SavePassword failed: %v", err)
	}

	_, _, err := GetPasswordWithRetry("Enter password: ", testAccount, func([]byte) error {
		return fmt.Errorf("%w: connection refused", client.ErrUnreachable)
	})
	if !errors.Is(err, client.ErrUnreachable) {
		t.Errorf("Expected unreachable error, got %v", err)
	}
	if *calls != 0 {
		t.Error("Should not prompt when the daemon is unreachable")
	}
}

func TestGetPasswordPromptRejected(t *testing.T) {
	gokeyring.MockInit()
	t.Setenv(PasswordEnv, "")
	stubPrompt(t, "wrong")

	_, source, err := GetPasswordWithRetry("Enter password: ", testAccount, acceptOnly("right"))
	if !errors.Is(err, bus.ErrFailed) {
		t.Errorf("Expected rejection, got %v", err)
	}
	if source != SourcePrompt {
		t.Errorf("Source = %v, want prompt", source)
	}
}

func TestReadPasswordConfirm(t *testing.T) {
	stubPrompt(t, "secret", "secret")
	password, err := ReadPasswordConfirm()
	if err != nil {
		t.Fatalf("ReadPasswordConfirm failed: %v", err)
	}
	if string(password) != "secret" {
		t.Errorf("Got %q, want secret", password)
	}

	stubPrompt(t, "secret", "other")
	if _, err := ReadPasswordConfirm(); err == nil {
		t.Error("Expected mismatch error")
	}

	stubPrompt(t, "")
	if _, err := ReadPasswordConfirm(); err == nil {
		t.Error("Expected empty password error")
	}
}
