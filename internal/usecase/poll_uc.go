// File: internal/usecase/poll_uc.go
package usecase

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"docuparse-client/internal/domain/model"
	"docuparse-client/internal/domain/ports/adapter"
	"docuparse-client/internal/infra/metrics"
)

// DefaultPollInterval is used when PollOptions.Interval is unset.
const DefaultPollInterval = 2 * time.Second

// PollOptions configures a StatusPoller. Callbacks are optional and are
// invoked from the polling goroutine without internal locks held. A callback
// may call StopPolling or Close on its own poller; such a call returns
// without waiting for the loop to exit.
type PollOptions struct {
	// Enabled gates all polling; a disabled poller only serves Refetch.
	Enabled bool
	// Interval between samples; defaults to DefaultPollInterval.
	Interval time.Duration
	// StopWhenComplete self-terminates the loop once the operation
	// finishes. Unset means true.
	StopWhenComplete *bool
	// OnStatusChange fires whenever a fetched snapshot differs from the
	// previous one (aggregate counts, not per-file details).
	OnStatusChange func(status *model.OperationStatus)
	// OnComplete fires exactly once, the first time the operation is seen
	// complete, regardless of StopWhenComplete.
	OnComplete func(status *model.OperationStatus)
	// OnError fires on every failed sample. Errors never stop the loop.
	OnError func(err error)
}

func (o PollOptions) interval() time.Duration {
	if o.Interval <= 0 {
		return DefaultPollInterval
	}
	return o.Interval
}

func (o PollOptions) stopWhenComplete() bool {
	if o.StopWhenComplete == nil {
		return true
	}
	return *o.StopWhenComplete
}

// StatusPoller turns the import-status fetch into a self-managing progress
// stream: it samples on a ticker, derives progress, detects completion and
// invokes the lifecycle callbacks. The authoritative state is remote; the
// poller only ever holds the latest snapshot it has seen.
//
// A slow response that resolves after the target changed is discarded via a
// generation counter, so a stale fetch can never overwrite newer state or
// resurrect a finished progress bar for the wrong job.
type StatusPoller struct {
	api adapter.JobAPI
	log *zerolog.Logger

	enabled          bool
	interval         time.Duration
	stopWhenComplete bool
	onStatusChange   func(*model.OperationStatus)
	onComplete       func(*model.OperationStatus)
	onError          func(error)

	mu            sync.Mutex
	jobID         string
	runID         string
	gen           uint64 // bumped on target switch; stale-response guard
	cancel        context.CancelFunc
	done          chan struct{}
	status        *model.OperationStatus
	lastErr       error
	polling       bool
	completeFired bool

	// inCallback is true while a lifecycle callback runs on the loop
	// goroutine; StopPolling must not wait for the loop then.
	inCallback atomic.Bool
}

func NewStatusPoller(api adapter.JobAPI, opts PollOptions, log *zerolog.Logger) *StatusPoller {
	return &StatusPoller{
		api:              api,
		log:              log,
		enabled:          opts.Enabled,
		interval:         opts.interval(),
		stopWhenComplete: opts.stopWhenComplete(),
		onStatusChange:   opts.OnStatusChange,
		onComplete:       opts.OnComplete,
		onError:          opts.OnError,
	}
}

// SetTarget points the poller at a job (and optionally a run), stopping any
// loop for the previous target first. State from the old target is discarded.
// One synchronous sample is taken; any sample that reveals registered files
// on an incomplete operation auto-starts the loop. A target with zero files
// does not start the loop, so the poller never spins before ingestion has
// begun; a later Refetch that sees the files will start it.
func (p *StatusPoller) SetTarget(ctx context.Context, jobID, runID string) {
	p.StopPolling()

	p.mu.Lock()
	p.jobID = jobID
	p.runID = runID
	p.gen++
	p.status = nil
	p.lastErr = nil
	p.completeFired = false
	p.mu.Unlock()

	if !p.enabled || jobID == "" {
		return
	}
	_ = p.Refetch(ctx)
}

// StartPolling begins the ticker loop for the current target. It is a no-op
// when the poller is disabled, already polling, or has no target.
func (p *StatusPoller) StartPolling(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.enabled || p.jobID == "" {
		return
	}
	p.startLocked(ctx)
}

// startLocked requires p.mu held.
func (p *StatusPoller) startLocked(ctx context.Context) {
	if p.polling {
		return
	}
	loopCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})
	p.polling = true
	go p.loop(loopCtx, p.gen, p.done)
}

func (p *StatusPoller) loop(ctx context.Context, gen uint64, done chan struct{}) {
	ticker := time.NewTicker(p.interval)
	defer func() {
		ticker.Stop()
		close(done)
	}()
	for {
		select {
		case <-ctx.Done():
			p.mu.Lock()
			if p.gen == gen {
				p.polling = false
				p.cancel = nil
			}
			p.mu.Unlock()
			return
		case <-ticker.C:
			if stop := p.sample(ctx, gen); stop {
				p.mu.Lock()
				if p.gen == gen {
					p.polling = false
					p.cancel = nil
				}
				p.mu.Unlock()
				return
			}
		}
	}
}

// StopPolling cancels the active loop and waits for it to exit. Idempotent,
// safe on a poller that never started. When called from inside a lifecycle
// callback the wait is skipped; blocking there would deadlock, since the
// loop goroutine is the one running the callback.
func (p *StatusPoller) StopPolling() {
	p.mu.Lock()
	cancel := p.cancel
	done := p.done
	p.cancel = nil
	p.polling = false
	p.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil && !p.inCallback.Load() {
		<-done
	}
}

// Close releases the poller. Any in-flight sample for the old generation is
// discarded when it lands.
func (p *StatusPoller) Close() {
	p.StopPolling()
	p.mu.Lock()
	p.gen++
	p.mu.Unlock()
}

// Refetch takes one sample immediately, outside the ticker cadence. A sample
// that reveals registered files on an incomplete operation starts the loop,
// so a poller mounted before ingestion wakes up once files appear.
func (p *StatusPoller) Refetch(ctx context.Context) error {
	p.mu.Lock()
	gen := p.gen
	p.mu.Unlock()
	p.sample(ctx, gen)
	return p.Err()
}

// sample fetches one snapshot and applies it. The returned flag asks the
// loop to terminate (completion reached with stopWhenComplete set).
func (p *StatusPoller) sample(ctx context.Context, gen uint64) (stopLoop bool) {
	p.mu.Lock()
	jobID, runID := p.jobID, p.runID
	p.mu.Unlock()

	status, err := p.api.ImportStatus(ctx, jobID, runID)

	var fireChange, fireComplete bool
	p.mu.Lock()
	if p.gen != gen {
		// Target switched while the request was in flight; a stale
		// snapshot must not overwrite newer state.
		p.mu.Unlock()
		metrics.IncStaleDiscard("import_status")
		return true
	}
	if err != nil {
		p.lastErr = err
		p.mu.Unlock()
		metrics.IncPollTick("error")
		if p.onError != nil {
			p.inCallback.Store(true)
			p.onError(err)
			p.inCallback.Store(false)
		}
		return false
	}
	p.lastErr = nil
	fireChange = !status.Equal(p.status)
	p.status = status
	complete := status.IsComplete()
	if complete && !p.completeFired {
		p.completeFired = true
		fireComplete = true
	}
	stopLoop = complete && p.stopWhenComplete
	if p.enabled && !p.polling && p.jobID != "" && ctx.Err() == nil &&
		status.TotalFiles > 0 && !complete {
		p.startLocked(ctx)
	}
	p.mu.Unlock()

	metrics.IncPollTick("ok")
	if fireChange || fireComplete {
		p.inCallback.Store(true)
		if fireChange && p.onStatusChange != nil {
			p.onStatusChange(status)
		}
		if fireComplete {
			metrics.IncPollCompleted(status.Failed > 0)
			if p.onComplete != nil {
				p.onComplete(status)
			}
		}
		p.inCallback.Store(false)
	}
	return stopLoop
}

// Status returns the latest snapshot, or ok=false before the first
// successful fetch of the current target.
func (p *StatusPoller) Status() (status *model.OperationStatus, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status, p.status != nil
}

// Progress derives the display record from the latest snapshot.
func (p *StatusPoller) Progress() model.Progress {
	p.mu.Lock()
	defer p.mu.Unlock()
	return model.DeriveProgress(p.status)
}

// IsPolling reports whether the ticker loop is active.
func (p *StatusPoller) IsPolling() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.polling
}

// Err returns the error of the most recent failed sample, cleared by the
// next successful one. Transient fetch failures never stop the loop; the
// caller decides whether repeated errors are fatal.
func (p *StatusPoller) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastErr
}

// Target returns the currently polled identifiers.
func (p *StatusPoller) Target() (jobID, runID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.jobID, p.runID
}
