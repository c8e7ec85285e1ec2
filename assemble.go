package persuader

import "time"

// assembler aggregates the attempts of one pipeline run into the final
// Result: timing from first attempt start to finalization, token usage and
// cost summed across attempts and enhancement rounds, session id preserved.
type assembler struct {
	sessionID string
	attempts  []*Attempt
	usage     TokenUsage
	startedAt time.Time
	rounds    int
}

func newAssembler(sessionID string) *assembler {
	return &assembler{sessionID: sessionID}
}

// add records a completed attempt. The first attempt's timestamp anchors
// the run's start time.
func (a *assembler) add(att *Attempt) {
	if len(a.attempts) == 0 {
		a.startedAt = att.Timestamp
	}
	a.usage.Add(att.Usage)
	a.attempts = append(a.attempts, att)
}

// addUsage folds in usage from an enhancement round, which is not an
// attempt.
func (a *assembler) addUsage(u *TokenUsage) {
	a.usage.Add(u)
}

func (a *assembler) noteRound() {
	a.rounds++
}

// success finalizes a successful run with the winning candidate.
func (a *assembler) success(cand *Candidate) *Result {
	res := &Result{
		Outcome:  OutcomeSuccess,
		Value:    cand.Value,
		RawValue: cand.Raw,
	}
	a.finalize(res)
	return res
}

// failExhausted finalizes a run whose budget ran out, carrying the final
// attempt's full error detail.
func (a *assembler) failExhausted(errs []*FieldError) *Result {
	res := &Result{
		Outcome: OutcomeFailure,
		Errors:  errs,
	}
	a.finalize(res)
	res.Metadata.FailureReason = FailureExhaustedRetries
	return res
}

// failFatal finalizes a run aborted by a fatal error, carrying the
// classification reason.
func (a *assembler) failFatal(err error) *Result {
	res := &Result{
		Outcome: OutcomeFailure,
		Err:     err,
	}
	a.finalize(res)
	res.Metadata.FailureReason = FailureFatal
	return res
}

func (a *assembler) finalize(res *Result) {
	now := time.Now()
	started := a.startedAt
	if started.IsZero() {
		started = now
	}

	res.Attempts = a.attempts
	res.SessionID = a.sessionID
	res.Metadata = Metadata{
		StartedAt:         started,
		CompletedAt:       now,
		Duration:          now.Sub(started),
		TotalUsage:        a.usage,
		EnhancementRounds: a.rounds,
	}
}
