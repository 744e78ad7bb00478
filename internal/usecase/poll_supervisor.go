package usecase

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"docuparse-client/internal/domain/model"
	"docuparse-client/internal/domain/ports/adapter"
)

// PollerState is a read-only view of the supervisor's active poller, served
// by the operational HTTP endpoint.
type PollerState struct {
	JobID    string         `json:"job_id"`
	RunID    string         `json:"run_id,omitempty"`
	Polling  bool           `json:"polling"`
	Progress model.Progress `json:"progress"`
	LastErr  string         `json:"last_error,omitempty"`
}

// PollSupervisor owns at most one live StatusPoller and guarantees that
// switching the watched job stops the previous loop before a new one starts.
// Leaking an interval against a stale identifier would silently keep a dead
// progress bar alive, so Switch and Shutdown always tear down first.
type PollSupervisor struct {
	api  adapter.JobAPI
	opts PollOptions
	log  *zerolog.Logger

	mu     sync.Mutex
	poller *StatusPoller
}

func NewPollSupervisor(api adapter.JobAPI, opts PollOptions, log *zerolog.Logger) *PollSupervisor {
	return &PollSupervisor{api: api, opts: opts, log: log}
}

// Switch points the supervisor at a job/run. The same target returns the
// existing poller, after a refetch when it is dormant so files registered
// since the mount wake it; a different one closes the old poller first.
// Network work runs outside s.mu, so State stays responsive while a slow
// first sample is in flight.
func (s *PollSupervisor) Switch(ctx context.Context, jobID, runID string) *StatusPoller {
	s.mu.Lock()
	old := s.poller
	if old != nil {
		if j, r := old.Target(); j == jobID && r == runID {
			s.mu.Unlock()
			if !old.IsPolling() {
				_ = old.Refetch(ctx)
			}
			return old
		}
	}
	p := NewStatusPoller(s.api, s.opts, s.log)
	s.poller = p
	s.mu.Unlock()

	if old != nil {
		old.Close()
	}
	p.SetTarget(ctx, jobID, runID)

	s.mu.Lock()
	superseded := s.poller != p
	s.mu.Unlock()
	if superseded {
		// A concurrent Switch won; this poller must not keep a loop alive.
		p.Close()
		return p
	}
	s.log.Debug().Str("job_id", jobID).Str("run_id", runID).Msg("poll supervisor switched target")
	return p
}

// Active returns the current poller, or nil when nothing is watched.
func (s *PollSupervisor) Active() *StatusPoller {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.poller
}

// State reports the active poller for observability; ok is false when idle.
func (s *PollSupervisor) State() (PollerState, bool) {
	s.mu.Lock()
	p := s.poller
	s.mu.Unlock()
	if p == nil {
		return PollerState{}, false
	}
	jobID, runID := p.Target()
	st := PollerState{
		JobID:    jobID,
		RunID:    runID,
		Polling:  p.IsPolling(),
		Progress: p.Progress(),
	}
	if err := p.Err(); err != nil {
		st.LastErr = err.Error()
	}
	return st, true
}

// Shutdown closes the active poller. Safe to call on every exit path.
func (s *PollSupervisor) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.poller != nil {
		s.poller.Close()
		s.poller = nil
	}
}
