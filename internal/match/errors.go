package match

import "errors"

// Reject is a synchronous validation failure: the action was refused with
// a client-visible reason code and no state was mutated.
type Reject struct {
	Code string
}

func (r Reject) Error() string { return r.Code }

func reject(code string) error { return Reject{Code: code} }

// RejectCode extracts the reason code if err is a rejection.
func RejectCode(err error) (string, bool) {
	var r Reject
	if errors.As(err, &r) {
		return r.Code, true
	}
	return "", false
}

const (
	ReasonNotParticipant = "not_participant"
	ReasonWrongPhase     = "wrong_phase"
	ReasonNotYourTurn    = "not_your_turn"
	ReasonAlreadyReady   = "already_ready"
	ReasonBadSquare      = "bad_square"
	ReasonTimeout        = "timeout"
	ReasonConflict       = "conflict"
)
