// Package submit provides the Submitter implementations used by the wizard.
package submit

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/mark3labs/dealflow/internal/logger"
	"github.com/mark3labs/dealflow/internal/wizard"
)

// DefaultDelay is the artificial latency of the simulated backend.
const DefaultDelay = 1500 * time.Millisecond

// ErrSimulatedFailure is returned by a Simulated submitter configured to fail.
var ErrSimulatedFailure = errors.New("simulated backend failure")

// Simulated pretends to send the form to a backend. It waits Delay, then
// returns a generated request id. FailEvery makes every Nth call fail.
type Simulated struct {
	Delay     time.Duration
	FailEvery int
	Now       func() time.Time

	mu    sync.Mutex
	calls int
}

// NewSimulated returns a simulated backend with the given delay.
func NewSimulated(delay time.Duration) *Simulated {
	return &Simulated{Delay: delay, Now: time.Now}
}

// Submit implements wizard.Submitter.
func (s *Simulated) Submit(ctx context.Context, sub wizard.Submission) (wizard.Receipt, error) {
	s.mu.Lock()
	s.calls++
	call := s.calls
	s.mu.Unlock()

	if s.Delay > 0 {
		t := time.NewTimer(s.Delay)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return wizard.Receipt{}, ctx.Err()
		case <-t.C:
		}
	}

	if s.FailEvery > 0 && call%s.FailEvery == 0 {
		logger.Debug("simulated submit %d failing on purpose", call)
		return wizard.Receipt{}, ErrSimulatedFailure
	}

	now := time.Now()
	if s.Now != nil {
		now = s.Now()
	}
	id := sub.ID
	if id == "" {
		id = NewRequestID(now, nil)
	}
	return wizard.Receipt{RequestID: id, SubmittedAt: now}, nil
}

// Calls returns how many submissions were attempted.
func (s *Simulated) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}
