package settings

import (
	"math"
	"time"
)

// StorageKey is the fixed key the aggregate is persisted under
const StorageKey = "dehook_settings"

const (
	DefaultAutoRevertMinutes = 60
	redactedHash             = "[redacted]"
)

// MaxAutoRevertMinutes is the longest window a time.Duration can hold
const MaxAutoRevertMinutes = math.MaxInt64 / int64(time.Minute)

// State is the protection state derived from ProtectionSettings
type State int

const (
	Unconfigured State = iota // No password; mutations always permitted
	Locked                    // Password set, mutations rejected
	Unlocked                  // Password verified, mutations permitted
)

func (s State) String() string {
	switch s {
	case Unconfigured:
		return "unconfigured"
	case Locked:
		return "locked"
	case Unlocked:
		return "unlocked"
	default:
		return "unknown"
	}
}

// ProtectionSettings controls who may change the rest of the aggregate
type ProtectionSettings struct {
	PasswordHash      *string `json:"passwordHash"`
	IsLocked          bool    `json:"isLocked"`
	AutoRevertEnabled bool    `json:"autoRevertEnabled"`
	AutoRevertMinutes int     `json:"autoRevertMinutes"`
	LastUnlockTime    *int64  `json:"lastUnlockTime"` // Unix milliseconds
}

// AppSettings is the single persisted settings aggregate
type AppSettings struct {
	Enabled    bool               `json:"enabled"`
	Hiding     HidingSettings     `json:"hiding"`
	Protection ProtectionSettings `json:"protection"`
}

// Default returns the first-run settings: filtering on, restrictive
// hiding, no password, auto-revert after an hour.
func Default() *AppSettings {
	return &AppSettings{
		Enabled: true,
		Hiding:  DefaultHiding(),
		Protection: ProtectionSettings{
			IsLocked:          true,
			AutoRevertEnabled: true,
			AutoRevertMinutes: DefaultAutoRevertMinutes,
		},
	}
}

// Clone returns a deep copy
func (s *AppSettings) Clone() *AppSettings {
	c := *s
	if s.Protection.PasswordHash != nil {
		hash := *s.Protection.PasswordHash
		c.Protection.PasswordHash = &hash
	}
	if s.Protection.LastUnlockTime != nil {
		ts := *s.Protection.LastUnlockTime
		c.Protection.LastUnlockTime = &ts
	}
	return &c
}

// Redacted returns a copy safe to hand to consumers: the credential is
// replaced by a marker that only preserves whether one is configured.
func (s *AppSettings) Redacted() *AppSettings {
	c := s.Clone()
	if c.Protection.HasPassword() {
		marker := redactedHash
		c.Protection.PasswordHash = &marker
	}
	return c
}

// HasPassword reports whether a credential is configured
func (p *ProtectionSettings) HasPassword() bool {
	return p.PasswordHash != nil && *p.PasswordHash != ""
}

// State derives the protection state
func (p *ProtectionSettings) State() State {
	switch {
	case !p.HasPassword():
		return Unconfigured
	case p.IsLocked:
		return Locked
	default:
		return Unlocked
	}
}

// MutationsAllowed reports whether non-protection updates may be applied
func (p *ProtectionSettings) MutationsAllowed() bool {
	return p.State() != Locked
}

// Lock clears the unlock timestamp and marks the settings locked
func (p *ProtectionSettings) Lock() {
	p.IsLocked = true
	p.LastUnlockTime = nil
}

// Unlock marks the settings unlocked as of now
func (p *ProtectionSettings) Unlock(now time.Time) {
	p.IsLocked = false
	p.SetUnlockedAt(now)
}

// SetUnlockedAt records the start of the unlock window
func (p *ProtectionSettings) SetUnlockedAt(t time.Time) {
	ms := t.UnixMilli()
	p.LastUnlockTime = &ms
}

// UnlockedAt returns the start of the unlock window, if any
func (p *ProtectionSettings) UnlockedAt() (time.Time, bool) {
	if p.LastUnlockTime == nil {
		return time.Time{}, false
	}
	return time.UnixMilli(*p.LastUnlockTime), true
}

// Window returns the length of an unlock window under the current policy.
// Values beyond MaxAutoRevertMinutes saturate instead of wrapping.
func (p *ProtectionSettings) Window() time.Duration {
	if int64(p.AutoRevertMinutes) > MaxAutoRevertMinutes {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(p.AutoRevertMinutes) * time.Minute
}

// Deadline returns when the current unlock window ends. It reports false
// when there is no window to enforce.
func (p *ProtectionSettings) Deadline() (time.Time, bool) {
	if !p.AutoRevertEnabled || p.IsLocked {
		return time.Time{}, false
	}
	unlockedAt, ok := p.UnlockedAt()
	if !ok {
		return time.Time{}, false
	}
	return unlockedAt.Add(p.Window()), true
}

// Remaining returns how long the unlock window has left, or zero
func (p *ProtectionSettings) Remaining(now time.Time) time.Duration {
	deadline, ok := p.Deadline()
	if !ok {
		return 0
	}
	if remaining := deadline.Sub(now); remaining > 0 {
		return remaining
	}
	return 0
}
