package domain

import "fmt"

// CallOutcome is the result of a qualification call.
type CallOutcome string

const (
	OutcomeInterested            CallOutcome = "interested"
	OutcomeNotInterested         CallOutcome = "not_interested"
	OutcomeCallBackRequested     CallOutcome = "call_back_requested"
	OutcomeNoAnswerVoicemailLeft CallOutcome = "no_answer_voicemail_left"
	OutcomeNoAnswerUnreachable   CallOutcome = "no_answer_unreachable"
	OutcomeWrongNumber           CallOutcome = "wrong_number"
)

// MaxUnreachableAttempts is the attempt count at which an unreachable lead is lost.
const MaxUnreachableAttempts = 3

var callOutcomes = map[CallOutcome]struct{}{
	OutcomeInterested:            {},
	OutcomeNotInterested:         {},
	OutcomeCallBackRequested:     {},
	OutcomeNoAnswerVoicemailLeft: {},
	OutcomeNoAnswerUnreachable:   {},
	OutcomeWrongNumber:           {},
}

// ParseCallOutcome rejects anything outside the closed outcome set.
func ParseCallOutcome(raw string) (CallOutcome, error) {
	o := CallOutcome(raw)
	if _, ok := callOutcomes[o]; !ok {
		return "", fmt.Errorf("invalid call outcome %q", raw)
	}
	return o, nil
}

// Valid reports whether o belongs to the closed outcome set.
func (o CallOutcome) Valid() bool {
	_, ok := callOutcomes[o]
	return ok
}
