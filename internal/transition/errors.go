package transition

import (
	"errors"
	"fmt"
)

var (
	ErrSubmitInFlight = errors.New("submission already in progress")
	ErrStaleAction    = errors.New("pending action no longer matches the draft")
	ErrModalBusy      = errors.New("another contingent action is open")
)

// ValidationError rejects a draft locally; it never reaches the network.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// RemoteUpdateError wraps a failed update call. The draft is kept for retry.
type RemoteUpdateError struct {
	LeadID string
	Err    error
}

func (e *RemoteUpdateError) Error() string {
	if e.LeadID == "" {
		return fmt.Sprintf("update failed: %v", e.Err)
	}
	return fmt.Sprintf("update lead %s: %v", e.LeadID, e.Err)
}

func (e *RemoteUpdateError) Unwrap() error {
	return e.Err
}

// IsValidation reports whether err is a local validation rejection.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
