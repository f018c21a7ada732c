// Package job owns the extraction job lifecycle: queueing, aggregation,
// dedup, and the outbound event stream.
package job

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mailsift/mailsift/internal/crawl"
	"github.com/mailsift/mailsift/internal/events"
	"github.com/mailsift/mailsift/internal/worker"
)

// State is the lifecycle state of the current job.
type State string

// Lifecycle states. Completed is terminal until the next Start.
const (
	StateIdle      State = "idle"
	StateRunning   State = "running"
	StatePaused    State = "paused"
	StateStopping  State = "stopping"
	StateCompleted State = "completed"
)

// ErrBusy is returned when Start is called while a job is in flight.
var ErrBusy = errors.New("a job is already in progress")

// ErrNotRunning is returned for pause/resume/stop outside a running job.
var ErrNotRunning = errors.New("no job is running")

// FetcherFactory builds the fetch stack for one job run. displayMode asks
// for a visible browser viewport; cleanup releases the stack once the pool
// has drained.
type FetcherFactory func(displayMode bool) (fetcher crawl.Fetcher, cleanup func(), err error)

// Options configures an Orchestrator.
type Options struct {
	Concurrency int
	Extractor   crawl.EmailExtractor
	NewFetcher  FetcherFactory
	Emitter     events.Sink
	Logger      *zap.Logger
	// Clock stamps failure records; defaults to time.Now.
	Clock func() time.Time
}

// Orchestrator drives one job at a time: it feeds the worker pool, owns all
// shared job state, and is the single writer of the outbound event stream.
// All aggregation happens in the mutex-guarded outcome path, so workers need
// no locks of their own.
type Orchestrator struct {
	mu sync.Mutex

	state       State
	control     *crawl.Control
	jobID       string
	total       int
	processed   int
	emails      map[string]struct{}
	failed      []events.FailedURL
	noEmail     []events.NoEmailURL
	internalErr string

	runCtx    context.Context
	runCancel context.CancelFunc
	done      chan struct{}

	concurrency int
	extractor   crawl.EmailExtractor
	newFetcher  FetcherFactory
	emitter     events.Sink
	logger      *zap.Logger
	clock       func() time.Time
}

// New constructs an idle Orchestrator.
func New(opts Options) *Orchestrator {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Emitter == nil {
		opts.Emitter = events.Fanout{}
	}
	return &Orchestrator{
		state:       StateIdle,
		concurrency: opts.Concurrency,
		extractor:   opts.Extractor,
		newFetcher:  opts.NewFetcher,
		emitter:     opts.Emitter,
		logger:      opts.Logger,
		clock:       opts.Clock,
	}
}

// State reports the current lifecycle state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Emails returns the deduplicated emails found so far, unordered.
func (o *Orchestrator) Emails() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]string, 0, len(o.emails))
	for email := range o.emails {
		out = append(out, email)
	}
	return out
}

// FailedURLs returns a copy of the failure records.
func (o *Orchestrator) FailedURLs() []events.FailedURL {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]events.FailedURL(nil), o.failed...)
}

// NoEmailURLs returns a copy of the no-email records.
func (o *Orchestrator) NoEmailURLs() []events.NoEmailURL {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]events.NoEmailURL(nil), o.noEmail...)
}

// Done exposes the current run's completion channel; nil when idle.
func (o *Orchestrator) Done() <-chan struct{} {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.done
}

// Start resets all job state and launches the worker pool over urls. Valid
// only from Idle or Completed.
func (o *Orchestrator) Start(urls []string, displayMode bool) error {
	if len(urls) == 0 {
		return errors.New("at least one URL required")
	}

	o.mu.Lock()
	if o.state != StateIdle && o.state != StateCompleted {
		o.mu.Unlock()
		return ErrBusy
	}
	o.jobID = uuid.NewString()
	o.state = StateRunning
	o.control = crawl.NewControl()
	o.total = len(urls)
	o.processed = 0
	o.emails = make(map[string]struct{})
	o.failed = nil
	o.noEmail = nil
	o.internalErr = ""
	o.runCtx, o.runCancel = context.WithCancel(context.Background())
	o.done = make(chan struct{})

	jobID := o.jobID
	ctx := o.runCtx
	control := o.control
	o.emit(events.Log(events.LevelInfo, fmt.Sprintf("Starting extraction of %d URLs...", len(urls))))
	o.mu.Unlock()

	o.logger.Info("job started",
		zap.String("job_id", jobID),
		zap.Int("urls", len(urls)),
		zap.Bool("display_mode", displayMode),
	)

	go o.run(ctx, control, urls, displayMode)
	return nil
}

// Pause holds workers at their next suspension point. In-flight fetches
// finish first.
func (o *Orchestrator) Pause() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state != StateRunning {
		return ErrNotRunning
	}
	o.state = StatePaused
	o.control.Pause()
	o.emit(events.Log(events.LevelWarning, "Extraction paused"))
	o.logger.Info("job paused", zap.String("job_id", o.jobID))
	return nil
}

// Resume releases paused workers.
func (o *Orchestrator) Resume() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state != StatePaused {
		return ErrNotRunning
	}
	o.state = StateRunning
	o.control.Resume()
	o.emit(events.Log(events.LevelInfo, "Extraction resumed"))
	o.logger.Info("job resumed", zap.String("job_id", o.jobID))
	return nil
}

// Stop prevents further dequeues and lets in-flight fetches finish. The job
// transitions to Completed once the pool drains.
func (o *Orchestrator) Stop() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state != StateRunning && o.state != StatePaused {
		return ErrNotRunning
	}
	o.state = StateStopping
	o.control.Stop()
	o.emit(events.Log(events.LevelWarning, "Stopping extraction..."))
	o.logger.Info("job stopping", zap.String("job_id", o.jobID))
	return nil
}

// Close aborts any run, canceling in-flight fetches. Used when the control
// channel disconnects.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	if o.state == StateRunning || o.state == StatePaused {
		o.state = StateStopping
		o.control.Stop()
	}
	cancel := o.runCancel
	o.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// run executes one job to completion on its own goroutine.
func (o *Orchestrator) run(ctx context.Context, control *crawl.Control, urls []string, displayMode bool) {
	fetch, cleanup, err := o.newFetcher(displayMode)
	if err != nil {
		o.logger.Error("fetcher init failed", zap.String("job_id", o.jobID), zap.Error(err))
		o.mu.Lock()
		o.internalErr = fmt.Sprintf("browser startup failed: %v", err)
		o.emit(events.Error(o.internalErr))
		o.finishLocked()
		o.mu.Unlock()
		return
	}
	defer cleanup()

	queue := crawl.NewQueue(urls)
	pool := worker.New(o.concurrency, fetch, o.extractor, control, o.logger)
	pool.Run(ctx, queue, o.handleOutcome)

	o.mu.Lock()
	o.finishLocked()
	o.mu.Unlock()
}

// handleOutcome is the single aggregation point. Outcomes arrive
// concurrently from pool slots but are processed one at a time; an
// unexpected panic here is surfaced as an error event instead of wedging
// the job.
func (o *Orchestrator) handleOutcome(out crawl.Outcome) {
	o.mu.Lock()
	defer o.mu.Unlock()
	defer func() {
		if r := recover(); r != nil {
			o.internalErr = fmt.Sprintf("outcome handling failed: %v", r)
			o.logger.Error("outcome handling panicked",
				zap.String("job_id", o.jobID),
				zap.String("url", out.URL),
				zap.Any("panic", r),
			)
			o.emit(events.Error(o.internalErr))
			// Force the job toward completion rather than leaving it
			// in an unresponsive half-state.
			if o.state == StateRunning || o.state == StatePaused {
				o.state = StateStopping
				o.control.Stop()
			}
		}
	}()

	if o.state == StateCompleted {
		return
	}

	if out.Failed {
		o.recordFailureLocked(out)
	} else {
		o.recordExtractionLocked(out)
	}

	o.processed++
	o.emit(events.Progress(o.processed * 100 / o.total))
}

func (o *Orchestrator) recordFailureLocked(out crawl.Outcome) {
	o.failed = append(o.failed, events.FailedURL{
		URL:       out.URL,
		Error:     out.Reason,
		Timestamp: o.clock(),
	})
	o.emit(events.Log(events.LevelError,
		fmt.Sprintf("Failed to load %s (%s)", out.URL, out.Reason)))
	o.emit(events.FailedURLsSnapshot(append([]events.FailedURL(nil), o.failed...)))
}

func (o *Orchestrator) recordExtractionLocked(out crawl.Outcome) {
	var added []string
	for _, email := range out.Emails {
		if _, dup := o.emails[email]; dup {
			continue
		}
		o.emails[email] = struct{}{}
		added = append(added, email)
	}

	if len(added) == 0 {
		o.noEmail = append(o.noEmail, events.NoEmailURL{
			URL:       out.URL,
			Timestamp: o.clock(),
		})
		o.emit(events.Log(events.LevelWarning,
			fmt.Sprintf("No emails found at %s", out.URL)))
		o.emit(events.NoEmailURLsSnapshot(append([]events.NoEmailURL(nil), o.noEmail...)))
		return
	}

	o.emit(events.Log(events.LevelSuccess,
		fmt.Sprintf("Found %d new emails at %s", len(added), out.URL)))
	o.emit(events.Email(added))
}

// finishLocked transitions to Completed and emits the completion event.
// Callers hold o.mu.
func (o *Orchestrator) finishLocked() {
	if o.state == StateCompleted {
		return
	}
	stopped := o.control != nil && o.control.Stopped() && o.processed < o.total
	o.state = StateCompleted

	var message string
	switch {
	case o.internalErr != "":
		message = fmt.Sprintf("Extraction ended with an error after %d of %d URLs", o.processed, o.total)
	case stopped:
		message = fmt.Sprintf("Extraction stopped after %d of %d URLs", o.processed, o.total)
	default:
		message = fmt.Sprintf("Extraction complete: %d unique emails from %d URLs", len(o.emails), o.total)
	}
	o.emit(events.Complete(message))
	o.logger.Info("job completed",
		zap.String("job_id", o.jobID),
		zap.Int("processed", o.processed),
		zap.Int("total", o.total),
		zap.Int("emails", len(o.emails)),
		zap.Bool("stopped", stopped),
	)
	if o.done != nil {
		close(o.done)
	}
}

// emit forwards to the sink while holding o.mu, preserving emission order.
func (o *Orchestrator) emit(evt events.Event) {
	o.emitter.Emit(evt)
}
