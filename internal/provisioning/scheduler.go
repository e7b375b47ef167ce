package provisioning

import (
	"context"
	"fmt"
)

// TerminalState is the single terminal state of a search.
type TerminalState int

const (
	// StateAcquired means exactly one instance was created and started.
	StateAcquired TerminalState = iota
	// StateExhausted means every candidate was tried without success.
	StateExhausted
	// StateFatal means a candidate failed in a way no later candidate
	// could fix, so the search stopped early.
	StateFatal
)

func (s TerminalState) String() string {
	switch s {
	case StateAcquired:
		return "acquired"
	case StateExhausted:
		return "exhausted"
	case StateFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// AttemptRunner tries one candidate. Implemented by Provisioner; tests
// substitute fakes.
type AttemptRunner interface {
	Attempt(ctx context.Context, cand Candidate) (*AcquiredInstance, ProvisionAttempt)
}

// SearchResult is the terminal record of one acquisition search.
type SearchResult struct {
	State    TerminalState
	Instance *AcquiredInstance // non-nil iff State == StateAcquired
	Attempts []ProvisionAttempt
}

// Scheduler drives the candidate search strictly serially: no later
// candidate is attempted until the earlier one has fully resolved, and the
// search halts at the first success so at most one instance exists.
type Scheduler struct {
	runner AttemptRunner
	log    Logger
}

// NewScheduler creates a scheduler over the given attempt runner.
func NewScheduler(runner AttemptRunner, log Logger) *Scheduler {
	return &Scheduler{runner: runner, log: log}
}

// Run walks the candidates in order and produces exactly one terminal
// result. The returned error is non-nil for the Exhausted and Fatal
// states; the result is returned alongside it so callers can report every
// attempt.
func (s *Scheduler) Run(ctx context.Context, candidates []Candidate) (*SearchResult, error) {
	result := &SearchResult{}
	s.log.Printf("%d candidates to try", len(candidates))

	for i, cand := range candidates {
		if err := ctx.Err(); err != nil {
			result.State = StateFatal
			return result, fmt.Errorf("search cancelled at candidate %d: %w", i+1, err)
		}

		s.log.Printf("candidate %d/%d: %s", i+1, len(candidates), cand)
		instance, attempt := s.runner.Attempt(ctx, cand)
		result.Attempts = append(result.Attempts, attempt)

		switch {
		case instance != nil:
			result.State = StateAcquired
			result.Instance = instance
			s.log.Printf("acquired %s in %s", instance.InstanceName, instance.Zone)
			return result, nil
		case attempt.Outcome == OutcomeFatalError:
			result.State = StateFatal
			return result, fmt.Errorf("fatal provider error on candidate %s: %s", cand, attempt.Detail)
		}
		// Quota, stockout, and exhausted transient retries all mean:
		// move on to the next candidate.
	}

	result.State = StateExhausted
	return result, fmt.Errorf("no instance acquired after trying %d candidates", len(result.Attempts))
}
