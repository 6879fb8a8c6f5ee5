package protection

import "errors"

// Rejection is a well-formed request refused by the current state
type Rejection struct {
	Reason string
	Err    error
}

func (r *Rejection) Error() string {
	return r.Reason
}

func (r *Rejection) Unwrap() error {
	return r.Err
}

var (
	ErrLocked        = &Rejection{Reason: "settings are locked"}
	ErrAlreadyLocked = &Rejection{Reason: "already locked"}
	ErrNoPassword    = &Rejection{Reason: "no password set"}
	ErrWrongPassword = &Rejection{Reason: "incorrect password"}
	ErrEmptyPassword = &Rejection{Reason: "password must not be empty"}
)

// IsRejection reports whether err is a policy rejection and returns it
func IsRejection(err error) (*Rejection, bool) {
	var r *Rejection
	if errors.As(err, &r) {
		return r, true
	}
	return nil, false
}

func invalid(err error) *Rejection {
	return &Rejection{Reason: err.Error(), Err: err}
}
