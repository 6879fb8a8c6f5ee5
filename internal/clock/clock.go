// Package clock provides an injectable time source so auto-revert
// deadlines can be tested without sleeping.
//
// Production code uses Real(). Tests use Fake(t) and move time forward
// with Advance, which fires due AfterFunc callbacks synchronously.
package clock

import "time"

// Clock is the subset of the time package dehook schedules against
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// AfterFunc calls f in its own goroutine once d has elapsed (real)
	// or synchronously during Advance (fake).
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is a pending AfterFunc call
type Timer interface {
	// Stop cancels the call. Returns false if it already fired or was
	// stopped.
	Stop() bool
}

// Real returns a Clock backed by the time package
func Real() Clock { return realClock{} }

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
