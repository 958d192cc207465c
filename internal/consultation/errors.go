package consultation

import "errors"

var (
	// ErrValidation is returned for malformed user input. No state changes.
	ErrValidation = errors.New("invalid input")
	// ErrBusy is returned when a transition is already running.
	ErrBusy = errors.New("a request for this consultation is already in progress")
	// ErrStale is returned when the consultation was reset while a call was pending.
	ErrStale = errors.New("consultation was reset while the request was pending")
	// ErrGateway is returned when the assistant could not produce a usable answer.
	// The state is unchanged and the same action may be retried.
	ErrGateway = errors.New("the assistant is unavailable, please try again")
	// ErrWrongStep is returned for an action the current step does not accept.
	ErrWrongStep = errors.New("action not allowed at the current step")
	// ErrDiagnosisUnavailable accompanies a successful advance to the
	// conversation step when no diagnosis could be produced.
	ErrDiagnosisUnavailable = errors.New("diagnosis could not be generated; you can continue asking questions")
	// ErrNotFound is returned for unknown consultation IDs.
	ErrNotFound = errors.New("consultation not found")
	// ErrNoDiagnosis is returned when a report is requested before a diagnosis exists.
	ErrNoDiagnosis = errors.New("no diagnosis available")
)
