// Package server exposes the bus over HTTP.
//
// Routes:
//
//	POST /api/message  JSON Message in, JSON Response out
//	GET  /api/events   Server-Sent Events stream of SETTINGS_UPDATED
//	GET  /healthz      liveness
//
// Protocol failures, including rejected requests, are ordinary 200
// responses with success=false. Only a body that is not a Message at all
// gets a 400.
package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/illarion/dehook/internal/bus"
	"go.uber.org/zap"
)

const (
	maxMessageSize    = 64 << 10
	heartbeatInterval = 30 * time.Second
)

// Handler serves the protocol endpoints
type Handler struct {
	Dispatcher *bus.Dispatcher
	Hub        *bus.Hub
	Logger     *zap.Logger
}

// NewRouter mounts h on a chi router with recovery and request logging
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.Recoverer)
	r.Use(WithRequestLogging(h.Logger))

	r.Get("/healthz", h.Health)

	r.Route("/api", func(r chi.Router) {
		r.With(chiMiddleware.AllowContentType("application/json")).
			Post("/message", h.Message)
		r.Get("/events", h.Events)
	})

	return r
}

// Health reports that the daemon is serving
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok\n"))
}

// Message decodes one bus.Message and writes the dispatcher's Response
func (h *Handler) Message(w http.ResponseWriter, r *http.Request) {
	var msg bus.Message
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxMessageSize))
	if err := dec.Decode(&msg); err != nil {
		h.Logger.Debug("undecodable message", zap.Error(err))
		writeJSON(w, http.StatusBadRequest, bus.Response{Error: bus.ReasonInvalidPayload})
		return
	}

	resp := h.Dispatcher.Handle(r.Context(), msg)
	writeJSON(w, http.StatusOK, resp)
}

// Events streams every broadcast to the caller until it disconnects or
// the hub drops it.
func (h *Handler) Events(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	sub := h.Hub.Subscribe()
	defer h.Hub.Unsubscribe(sub.ID)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, ": subscribed %s\n\n", sub.ID)
	flusher.Flush()

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case msg, open := <-sub.C:
			if !open {
				return
			}
			data, err := json.Marshal(msg)
			if err != nil {
				h.Logger.Error("failed to encode event", zap.Error(err))
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", msg.Type, data)
			flusher.Flush()
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
