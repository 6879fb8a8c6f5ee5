// Package bus is the request/response and broadcast protocol between the
// daemon and its consumers.
//
// Consumers send a Message and get a Response. Policy failures come back
// as {success:false, error:reason}; nothing the state machine rejects is
// ever surfaced as a transport error. Every committed change is pushed to
// all subscribers as a SETTINGS_UPDATED message carrying the redacted
// aggregate.
package bus

import (
	"encoding/json"
	"errors"
)

// Type names a message
type Type string

const (
	GetSettings     Type = "GET_SETTINGS"
	VerifyPassword  Type = "VERIFY_PASSWORD"
	SetPassword     Type = "SET_PASSWORD"
	UpdateSettings  Type = "UPDATE_SETTINGS"
	ResetToDefaults Type = "RESET_TO_DEFAULTS"
	ExtendUnlock    Type = "EXTEND_UNLOCK"
	SettingsUpdated Type = "SETTINGS_UPDATED" // push only
)

// Failure reasons produced by the protocol layer itself
const (
	ReasonUnknownType    = "unknown message type"
	ReasonInvalidPayload = "invalid payload"
	ReasonInternal       = "internal error"
)

var ErrFailed = errors.New("request failed")

// Message is a typed request or push
type Message struct {
	Type    Type            `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response is the reply to a Message
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// NewMessage builds a message with payload encoded as JSON. A nil
// payload is omitted.
func NewMessage(t Type, payload any) (Message, error) {
	msg := Message{Type: t}
	if payload == nil {
		return msg, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return Message{}, err
	}
	msg.Payload = data
	return msg, nil
}

// Err returns nil for a successful response and an error carrying the
// reason otherwise. The error wraps ErrFailed.
func (r *Response) Err() error {
	if r.Success {
		return nil
	}
	if r.Error == "" {
		return ErrFailed
	}
	return &FailureError{Reason: r.Error}
}

// FailureError is a failed response seen from the consumer side
type FailureError struct {
	Reason string
}

func (e *FailureError) Error() string { return e.Reason }

func (e *FailureError) Unwrap() error { return ErrFailed }

func ok(data json.RawMessage) Response {
	return Response{Success: true, Data: data}
}

func fail(reason string) Response {
	return Response{Success: false, Error: reason}
}
