package domain

// MaxTuningAttempts bounds how many times the prompt optimizer may
// rewrite the template for a single company.
const MaxTuningAttempts = 5

// TuningState tracks per-company prompt optimization attempts. It is
// owned by the goroutine running the discovery and must not be shared.
type TuningState struct {
	Company  string
	attempts int
}

// NewTuningState creates the state for one company.
func NewTuningState(company string) *TuningState {
	return &TuningState{Company: company}
}

// Attempts returns how many optimization attempts were consumed.
func (t *TuningState) Attempts() int {
	return t.attempts
}

// Exhausted reports whether the optimization budget is spent.
func (t *TuningState) Exhausted() bool {
	return t.attempts >= MaxTuningAttempts
}

// Consume records one attempt. Returns false when the budget was
// already spent; the counter never exceeds its bound.
func (t *TuningState) Consume() bool {
	if t.Exhausted() {
		return false
	}
	t.attempts++
	return true
}
