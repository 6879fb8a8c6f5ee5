// Package client talks to a running dehook daemon.
package client

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/illarion/dehook/internal/bus"
	"github.com/illarion/dehook/internal/settings"
)

var (
	ErrUnreachable  = errors.New("daemon unreachable")
	ErrStreamClosed = errors.New("event stream closed by daemon")
)

// Client sends protocol messages to one daemon
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a client for addr, either host:port or a full URL
func New(addr string) *Client {
	base := addr
	if !strings.Contains(base, "://") {
		base = "http://" + base
	}
	return &Client{
		baseURL: strings.TrimRight(base, "/"),
		http:    &http.Client{},
	}
}

// Addr returns the daemon base URL
func (c *Client) Addr() string {
	return c.baseURL
}

// Send posts msg and returns the daemon's response. A response with
// success=false is not an error here; use Response.Err.
func (c *Client) Send(ctx context.Context, msg bus.Message) (*bus.Response, error) {
	body, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to encode message: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/message", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	var out bus.Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("bad response from daemon (HTTP %d): %w", resp.StatusCode, err)
	}
	return &out, nil
}

func (c *Client) call(ctx context.Context, t bus.Type, payload any) (*bus.Response, error) {
	msg, err := bus.NewMessage(t, payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode payload: %w", err)
	}
	resp, err := c.Send(ctx, msg)
	if err != nil {
		return nil, err
	}
	if err := resp.Err(); err != nil {
		return nil, err
	}
	return resp, nil
}

// GetSettings returns the current (redacted) settings
func (c *Client) GetSettings(ctx context.Context) (*settings.AppSettings, error) {
	resp, err := c.call(ctx, bus.GetSettings, nil)
	if err != nil {
		return nil, err
	}
	var s settings.AppSettings
	if err := json.Unmarshal(resp.Data, &s); err != nil {
		return nil, fmt.Errorf("failed to decode settings: %w", err)
	}
	return &s, nil
}

// VerifyPassword unlocks the settings
func (c *Client) VerifyPassword(ctx context.Context, password []byte) error {
	_, err := c.call(ctx, bus.VerifyPassword, string(password))
	return err
}

// SetPassword replaces the password and locks
func (c *Client) SetPassword(ctx context.Context, password []byte) error {
	_, err := c.call(ctx, bus.SetPassword, string(password))
	return err
}

// UpdateSettings applies a partial update
func (c *Client) UpdateSettings(ctx context.Context, patch *settings.Patch) error {
	_, err := c.call(ctx, bus.UpdateSettings, patch)
	return err
}

// Reset restores the restrictive defaults and locks
func (c *Client) Reset(ctx context.Context) error {
	_, err := c.call(ctx, bus.ResetToDefaults, nil)
	return err
}

// ExtendUnlock restarts the unlock window
func (c *Client) ExtendUnlock(ctx context.Context) error {
	_, err := c.call(ctx, bus.ExtendUnlock, nil)
	return err
}

// Health checks that the daemon is serving
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/healthz", nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: health check returned HTTP %d", ErrUnreachable, resp.StatusCode)
	}
	return nil
}

// Watch calls fn for every settings broadcast until ctx is cancelled.
// It returns nil on cancellation and ErrStreamClosed if the daemon ends
// the stream.
func (c *Client) Watch(ctx context.Context, fn func(*settings.AppSettings)) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/events", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("event stream returned HTTP %d", resp.StatusCode)
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64<<10), 1<<20)
	for scanner.Scan() {
		line := scanner.Text()
		data, ok := strings.CutPrefix(line, "data: ")
		if !ok {
			continue
		}

		var msg bus.Message
		if err := json.Unmarshal([]byte(data), &msg); err != nil {
			return fmt.Errorf("bad event from daemon: %w", err)
		}
		if msg.Type != bus.SettingsUpdated {
			continue
		}
		var s settings.AppSettings
		if err := json.Unmarshal(msg.Payload, &s); err != nil {
			return fmt.Errorf("bad settings in event: %w", err)
		}
		fn(&s)
	}

	if ctx.Err() != nil {
		return nil
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("event stream failed: %w", err)
	}
	return ErrStreamClosed
}
