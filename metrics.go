package persuader

import "time"

// SessionMetrics summarizes the pipeline runs recorded against a session.
type SessionMetrics struct {
	// Operations is the number of completed pipeline runs.
	Operations int

	// SuccessRate is successes / operations, 0 when no runs completed.
	SuccessRate float64

	// AvgAttemptsToSuccess is the mean attempt count over successful runs.
	AvgAttemptsToSuccess float64

	// OperationsWithRetries counts runs that needed more than one attempt.
	OperationsWithRetries int

	// AvgExecutionTime is the mean run duration.
	AvgExecutionTime time.Duration

	// TotalUsage sums token usage across all runs.
	TotalUsage TokenUsage
}

func (s *sessionStats) metrics() *SessionMetrics {
	m := &SessionMetrics{
		Operations:            s.operations,
		OperationsWithRetries: s.withRetries,
		TotalUsage:            s.usage,
	}
	if s.operations > 0 {
		m.SuccessRate = float64(s.successes) / float64(s.operations)
		m.AvgExecutionTime = s.totalDuration / time.Duration(s.operations)
	}
	if s.successes > 0 {
		m.AvgAttemptsToSuccess = float64(s.attemptsToSuccess) / float64(s.successes)
	}
	return m
}
