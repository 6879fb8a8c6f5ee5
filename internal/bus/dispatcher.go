package bus

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/illarion/dehook/internal/protection"
	"github.com/illarion/dehook/internal/settings"
	"go.uber.org/zap"
)

// Machine is the state machine the dispatcher drives
type Machine interface {
	Settings(ctx context.Context) (*settings.AppSettings, error)
	VerifyPassword(ctx context.Context, password []byte) error
	SetPassword(ctx context.Context, password []byte) error
	UpdateSettings(ctx context.Context, patch *settings.Patch) error
	Reset(ctx context.Context) error
	ExtendUnlock(ctx context.Context) error
}

// Dispatcher routes messages to the state machine
type Dispatcher struct {
	machine Machine
	logger  *zap.Logger
}

// NewDispatcher creates a dispatcher for m
func NewDispatcher(m Machine, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{machine: m, logger: logger}
}

// Handle processes one message. It never returns a transport error: every
// outcome is a Response.
func (d *Dispatcher) Handle(ctx context.Context, msg Message) Response {
	switch msg.Type {
	case GetSettings:
		s, err := d.machine.Settings(ctx)
		if err != nil {
			return d.result(msg.Type, err)
		}
		return d.withSettings(msg.Type, s)

	case VerifyPassword:
		password, ok := decodePassword(msg.Payload)
		if !ok {
			return fail(ReasonInvalidPayload)
		}
		return d.result(msg.Type, d.machine.VerifyPassword(ctx, password))

	case SetPassword:
		password, ok := decodePassword(msg.Payload)
		if !ok {
			return fail(ReasonInvalidPayload)
		}
		return d.result(msg.Type, d.machine.SetPassword(ctx, password))

	case UpdateSettings:
		patch, err := decodePatch(msg.Payload)
		if err != nil {
			d.logger.Debug("rejected update payload", zap.Error(err))
			return fail(ReasonInvalidPayload)
		}
		return d.result(msg.Type, d.machine.UpdateSettings(ctx, patch))

	case ResetToDefaults:
		return d.result(msg.Type, d.machine.Reset(ctx))

	case ExtendUnlock:
		return d.result(msg.Type, d.machine.ExtendUnlock(ctx))

	default:
		return fail(ReasonUnknownType)
	}
}

func (d *Dispatcher) result(t Type, err error) Response {
	if err == nil {
		return ok(nil)
	}
	if r, isRejection := protection.IsRejection(err); isRejection {
		return fail(r.Reason)
	}
	d.logger.Error("request failed", zap.String("type", string(t)), zap.Error(err))
	return fail(ReasonInternal)
}

func (d *Dispatcher) withSettings(t Type, s *settings.AppSettings) Response {
	data, err := json.Marshal(s)
	if err != nil {
		return d.result(t, fmt.Errorf("failed to encode settings: %w", err))
	}
	return ok(data)
}

func decodePassword(payload json.RawMessage) ([]byte, bool) {
	var password *string
	if err := json.Unmarshal(payload, &password); err != nil || password == nil {
		return nil, false
	}
	return []byte(*password), true
}

func decodePatch(payload json.RawMessage) (*settings.Patch, error) {
	if len(payload) == 0 {
		return nil, fmt.Errorf("missing payload")
	}
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.DisallowUnknownFields()

	var patch settings.Patch
	if err := dec.Decode(&patch); err != nil {
		return nil, err
	}
	return &patch, nil
}
