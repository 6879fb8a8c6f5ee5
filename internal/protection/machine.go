package protection

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/illarion/dehook/internal/clock"
	"github.com/illarion/dehook/internal/credential"
	"github.com/illarion/dehook/internal/settings"
	"go.uber.org/zap"
)

// Store is the persisted record the machine operates on
type Store interface {
	Read(ctx context.Context) (*settings.AppSettings, error)
	Write(ctx context.Context, s *settings.AppSettings) error
}

// Scheduler owns the single pending revert task
type Scheduler interface {
	ScheduleAt(t time.Time)
	Cancel()
}

// Notifier receives every committed record, already redacted
type Notifier interface {
	Publish(s *settings.AppSettings)
}

// Machine serializes all transitions of the settings aggregate
type Machine struct {
	store     Store
	scheduler Scheduler
	clock     clock.Clock
	logger    *zap.Logger

	mu        sync.Mutex
	notifiers []Notifier
}

// New creates a state machine over store. sched may be nil until Attach.
func New(store Store, sched Scheduler, c clock.Clock, logger *zap.Logger) *Machine {
	return &Machine{
		store:     store,
		scheduler: sched,
		clock:     c,
		logger:    logger,
	}
}

// Attach sets the revert scheduler
func (m *Machine) Attach(sched Scheduler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scheduler = sched
}

// AddNotifier registers n to receive every committed record
func (m *Machine) AddNotifier(n Notifier) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notifiers = append(m.notifiers, n)
}

// Settings returns the current record with the credential redacted
func (m *Machine) Settings(ctx context.Context) (*settings.AppSettings, error) {
	s, err := m.store.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read settings: %w", err)
	}
	return s.Redacted(), nil
}

// SetPassword replaces the credential and locks. It does not check the
// current password; consumers that want that must verify first.
func (m *Machine) SetPassword(ctx context.Context, password []byte) error {
	if len(password) == 0 {
		return ErrEmptyPassword
	}

	blob, err := credential.Derive(password)
	if err != nil {
		return fmt.Errorf("failed to derive credential: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	_, err = m.commit(ctx, func(s *settings.AppSettings) error {
		s.Protection.PasswordHash = &blob
		s.Protection.Lock()
		return nil
	})
	if err != nil {
		return err
	}

	m.cancelRevert()
	m.logger.Info("password set, settings locked")
	return nil
}

// VerifyPassword unlocks the settings when password matches
func (m *Machine) VerifyPassword(ctx context.Context, password []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.commit(ctx, func(s *settings.AppSettings) error {
		if !s.Protection.HasPassword() {
			return ErrNoPassword
		}
		if !credential.Verify(*s.Protection.PasswordHash, password) {
			return ErrWrongPassword
		}
		s.Protection.Unlock(m.clock.Now())
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrWrongPassword) {
			m.logger.Warn("password verification failed")
		}
		return err
	}

	m.reconcile(&s.Protection)
	m.logger.Info("settings unlocked", zap.Int("autoRevertMinutes", s.Protection.AutoRevertMinutes))
	return nil
}

// UpdateSettings merges patch into the record unless it is locked. The
// lock is checked before the patch is validated.
func (m *Machine) UpdateSettings(ctx context.Context, patch *settings.Patch) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.commit(ctx, func(s *settings.AppSettings) error {
		if !s.Protection.MutationsAllowed() {
			return ErrLocked
		}
		if err := patch.Apply(s); err != nil {
			return invalid(err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if patch.TouchesPolicy() {
		m.reconcile(&s.Protection)
	}
	m.logger.Debug("settings updated")
	return nil
}

// ExtendUnlock restarts the unlock window from now
func (m *Machine) ExtendUnlock(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.commit(ctx, func(s *settings.AppSettings) error {
		if s.Protection.IsLocked {
			return ErrAlreadyLocked
		}
		s.Protection.SetUnlockedAt(m.clock.Now())
		return nil
	})
	if err != nil {
		return err
	}

	m.cancelRevert()
	m.reconcile(&s.Protection)
	m.logger.Info("unlock window extended")
	return nil
}

// Revert restores the restrictive hiding defaults and locks. The password
// and the rest of the record are kept. Safe to call in any state.
func (m *Machine) Revert(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, err := m.commit(ctx, func(s *settings.AppSettings) error {
		s.Hiding = settings.DefaultHiding()
		s.Protection.Lock()
		return nil
	})
	if err != nil {
		return err
	}

	m.cancelRevert()
	m.logger.Info("settings reverted to defaults")
	return nil
}

// Reset is the consumer-initiated form of Revert
func (m *Machine) Reset(ctx context.Context) error {
	return m.Revert(ctx)
}

// commit runs one read-modify-write. fn must leave s untouched when it
// returns an error. Callers hold m.mu.
func (m *Machine) commit(ctx context.Context, fn func(s *settings.AppSettings) error) (*settings.AppSettings, error) {
	s, err := m.store.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read settings: %w", err)
	}
	if err := fn(s); err != nil {
		return nil, err
	}
	if err := m.store.Write(ctx, s); err != nil {
		return nil, fmt.Errorf("failed to write settings: %w", err)
	}

	redacted := s.Redacted()
	for _, n := range m.notifiers {
		n.Publish(redacted)
	}
	return s, nil
}

func (m *Machine) reconcile(p *settings.ProtectionSettings) {
	if m.scheduler == nil {
		return
	}
	if deadline, ok := p.Deadline(); ok {
		m.scheduler.ScheduleAt(deadline)
		return
	}
	m.scheduler.Cancel()
}

func (m *Machine) cancelRevert() {
	if m.scheduler != nil {
		m.scheduler.Cancel()
	}
}
