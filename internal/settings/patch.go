package settings

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidMinutes  = errors.New("autoRevertMinutes must be positive")
	ErrMinutesTooLarge = errors.New("autoRevertMinutes is too large")
)

// Patch is a partial update. Nil fields are left untouched.
type Patch struct {
	Enabled    *bool            `json:"enabled,omitempty"`
	Hiding     map[string]bool  `json:"hiding,omitempty"`
	Protection *ProtectionPatch `json:"protection,omitempty"`
}

// ProtectionPatch carries the protection fields a consumer may change
// directly. Credential and lock state only change through their own
// transitions.
type ProtectionPatch struct {
	AutoRevertEnabled *bool `json:"autoRevertEnabled,omitempty"`
	AutoRevertMinutes *int  `json:"autoRevertMinutes,omitempty"`
}

// Validate checks the patch without applying it
func (p *Patch) Validate() error {
	for name := range p.Hiding {
		if !IsFlag(name) {
			return fmt.Errorf("%w: %s", ErrUnknownFlag, name)
		}
	}
	if p.Protection != nil && p.Protection.AutoRevertMinutes != nil {
		switch minutes := int64(*p.Protection.AutoRevertMinutes); {
		case minutes <= 0:
			return ErrInvalidMinutes
		case minutes > MaxAutoRevertMinutes:
			return fmt.Errorf("%w: at most %d", ErrMinutesTooLarge, MaxAutoRevertMinutes)
		}
	}
	return nil
}

// Apply validates the patch and merges it into s. On error s is unchanged.
func (p *Patch) Apply(s *AppSettings) error {
	if err := p.Validate(); err != nil {
		return err
	}

	if p.Enabled != nil {
		s.Enabled = *p.Enabled
	}
	for name, value := range p.Hiding {
		if err := s.Hiding.Set(name, value); err != nil {
			return err
		}
	}
	if p.Protection != nil {
		if p.Protection.AutoRevertEnabled != nil {
			s.Protection.AutoRevertEnabled = *p.Protection.AutoRevertEnabled
		}
		if p.Protection.AutoRevertMinutes != nil {
			s.Protection.AutoRevertMinutes = *p.Protection.AutoRevertMinutes
		}
	}
	return nil
}

// TouchesPolicy reports whether the patch changes auto-revert policy
func (p *Patch) TouchesPolicy() bool {
	return p.Protection != nil &&
		(p.Protection.AutoRevertEnabled != nil || p.Protection.AutoRevertMinutes != nil)
}
