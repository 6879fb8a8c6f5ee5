package server

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/illarion/dehook/internal/bus"
	"github.com/illarion/dehook/internal/clock"
	"github.com/illarion/dehook/internal/protection"
	"github.com/illarion/dehook/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func newTestHandler(t *testing.T, logger *zap.Logger) *Handler {
	t.Helper()
	store := storage.NewMemory()
	_, err := store.Initialize(context.Background())
	require.NoError(t, err)

	hub := bus.NewHub(logger, 8)
	machine := protection.New(store, nil, clock.Real(), logger)
	machine.AddNotifier(hub)

	return &Handler{
		Dispatcher: bus.NewDispatcher(machine, logger),
		Hub:        hub,
		Logger:     logger,
	}
}

func postMessage(t *testing.T, url string, body string) (*http.Response, bus.Response) {
	t.Helper()
	resp, err := http.Post(url+"/api/message", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	var out bus.Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp, out
}

func TestHealth(t *testing.T) {
	srv := httptest.NewServer(NewRouter(newTestHandler(t, zap.NewNop())))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestMessageEndpoint(t *testing.T) {
	srv := httptest.NewServer(NewRouter(newTestHandler(t, zap.NewNop())))
	defer srv.Close()

	resp, out := postMessage(t, srv.URL, `{"type":"GET_SETTINGS"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	require.True(t, out.Success)
	assert.Contains(t, string(out.Data), `"enabled":true`)

	resp, out = postMessage(t, srv.URL, `{"type":"EXTEND_UNLOCK"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode, "rejections are not transport errors")
	assert.Equal(t, bus.Response{Error: "already locked"}, out)

	resp, out = postMessage(t, srv.URL, `{"type":"NOPE"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "unknown message type", out.Error)

	resp, out = postMessage(t, srv.URL, `not json`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "invalid payload", out.Error)
}

func TestMessageRequiresJSON(t *testing.T) {
	srv := httptest.NewServer(NewRouter(newTestHandler(t, zap.NewNop())))
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/message", "text/plain", strings.NewReader(`{"type":"GET_SETTINGS"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnsupportedMediaType, resp.StatusCode)
}

func TestRequestLogging(t *testing.T) {
	var buf bytes.Buffer
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
		zapcore.AddSync(&buf),
		zapcore.InfoLevel,
	)
	srv := httptest.NewServer(NewRouter(newTestHandler(t, zap.New(core))))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()

	assert.Contains(t, buf.String(), "/healthz")
	assert.Contains(t, buf.String(), "200")
}

func TestEventsStream(t *testing.T) {
	h := newTestHandler(t, zap.NewNop())
	srv := httptest.NewServer(NewRouter(h))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(line, ": subscribed "), line)
	require.Equal(t, 1, h.Hub.Len())

	_, out := postMessage(t, srv.URL, `{"type":"UPDATE_SETTINGS","payload":{"hiding":{"hideShorts":false}}}`)
	require.True(t, out.Success, out.Error)

	var event, data string
	for data == "" {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimSuffix(line, "\n")
		switch {
		case strings.HasPrefix(line, "event: "):
			event = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data = strings.TrimPrefix(line, "data: ")
		}
	}
	assert.Equal(t, "SETTINGS_UPDATED", event)

	var msg bus.Message
	require.NoError(t, json.Unmarshal([]byte(data), &msg))
	assert.Equal(t, bus.SettingsUpdated, msg.Type)
	assert.Contains(t, string(msg.Payload), `"hideShorts":false`)
}

func TestServeShutsDownWithOpenStream(t *testing.T) {
	h := newTestHandler(t, zap.NewNop())
	s := New(NewRouter(h), zap.NewNop(), h.Hub.Close)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/api/events")
	require.NoError(t, err)
	defer resp.Body.Close()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}
