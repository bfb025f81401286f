package service

import "fmt"

// Precondition reasons surfaced to callers. The reason names the state rule
// the operation ran into; nothing was written when one is returned.
const (
	ReasonClosed        = "closed"
	ReasonAlreadyJoined = "already joined"
	ReasonWaitlistFull  = "waitlist full"
	ReasonNotOnWaitlist = "not on waitlist"
	ReasonStillOpen     = "still open"
	ReasonAlreadyRun    = "already run"
	ReasonNoCandidates  = "no candidates"
	ReasonNotSelected   = "not selected"
)

// PreconditionError reports a named state violation. Precondition checks run
// inside the store transaction, so a failed check aborts atomically.
type PreconditionError struct {
	Reason string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("precondition failed: %s", e.Reason)
}
