// Package alarm is a named one-shot timer facility.
//
// Alarms live only in memory: a process restart loses every pending
// alarm. Callers that need a deadline to survive restarts must persist
// the deadline themselves and recreate the alarm on startup.
package alarm

import (
	"context"
	"sync"
	"time"

	"github.com/illarion/dehook/internal/clock"
	"go.uber.org/zap"
)

// Alarm describes a pending or fired alarm
type Alarm struct {
	Name          string
	ScheduledTime time.Time
}

// Listener is called when any alarm fires
type Listener func(ctx context.Context, a Alarm)

type entry struct {
	alarm Alarm
	timer clock.Timer
	gen   uint64
}

// Alarms holds at most one pending alarm per name
type Alarms struct {
	clock  clock.Clock
	logger *zap.Logger

	mu        sync.Mutex
	pending   map[string]*entry
	listeners []Listener
	gen       uint64
	closed    bool
}

// New creates an empty alarm table driven by c
func New(c clock.Clock, logger *zap.Logger) *Alarms {
	return &Alarms{
		clock:   c,
		logger:  logger,
		pending: make(map[string]*entry),
	}
}

// OnAlarm registers a listener for all alarms
func (a *Alarms) OnAlarm(fn Listener) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.listeners = append(a.listeners, fn)
}

// Create schedules name to fire after delay, replacing any pending alarm
// with the same name.
func (a *Alarms) Create(name string, delay time.Duration) Alarm {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return Alarm{Name: name}
	}
	a.stopLocked(name)
	a.gen++
	gen := a.gen
	alarm := Alarm{Name: name, ScheduledTime: a.clock.Now().Add(delay)}
	a.pending[name] = &entry{alarm: alarm, gen: gen}
	a.mu.Unlock()

	a.logger.Debug("alarm created",
		zap.String("name", name),
		zap.Time("scheduled", alarm.ScheduledTime))

	timer := a.clock.AfterFunc(delay, func() { a.fire(name, gen) })

	a.mu.Lock()
	defer a.mu.Unlock()
	if e, ok := a.pending[name]; ok && e.gen == gen {
		e.timer = timer
	} else {
		timer.Stop()
	}
	return alarm
}

// Get returns the pending alarm for name
func (a *Alarms) Get(name string) (Alarm, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	e, ok := a.pending[name]
	if !ok {
		return Alarm{}, false
	}
	return e.alarm, true
}

// Clear cancels the pending alarm for name. Returns false if there was
// none.
func (a *Alarms) Clear(name string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	cleared := a.stopLocked(name)
	if cleared {
		a.logger.Debug("alarm cleared", zap.String("name", name))
	}
	return cleared
}

// Close cancels every pending alarm. Later Create calls are ignored.
func (a *Alarms) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	for name := range a.pending {
		a.stopLocked(name)
	}
	a.closed = true
}

func (a *Alarms) stopLocked(name string) bool {
	e, ok := a.pending[name]
	if !ok {
		return false
	}
	if e.timer != nil {
		e.timer.Stop()
	}
	delete(a.pending, name)
	return true
}

func (a *Alarms) fire(name string, gen uint64) {
	a.mu.Lock()
	e, ok := a.pending[name]
	if !ok || e.gen != gen {
		a.mu.Unlock()
		return
	}
	delete(a.pending, name)
	listeners := append([]Listener(nil), a.listeners...)
	a.mu.Unlock()

	a.logger.Info("alarm fired", zap.String("name", name))
	for _, fn := range listeners {
		fn(context.Background(), e.alarm)
	}
}
