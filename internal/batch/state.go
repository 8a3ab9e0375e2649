// Package batch runs probes over a list of entries with a fixed-size worker
// pool, cooperative cancellation and coalesced progress notifications.
package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc"

	"github.com/August26/proxyprobe/internal/model"
)

var (
	ErrInvalidConcurrency = errors.New("batch: concurrency limit must be positive")
	ErrAlreadyStarted     = errors.New("batch: run already started")
)

// Prober is implemented by *checker.Client.
type Prober interface {
	Probe(ctx context.Context, ep model.Endpoint) model.Outcome
}

// ProberFunc adapts a function to Prober.
type ProberFunc func(ctx context.Context, ep model.Endpoint) model.Outcome

func (f ProberFunc) Probe(ctx context.Context, ep model.Endpoint) model.Outcome {
	return f(ctx, ep)
}

// ProgressFunc receives (completed, total). Calls are serialised and may be
// coalesced; the final count is always delivered.
type ProgressFunc func(done, total int)

type Option func(*State)

// WithPreemptive passes the run context into probes, so cancelling the run
// also aborts in-flight network calls.
func WithPreemptive() Option {
	return func(s *State) { s.preemptive = true }
}

func WithLogger(log *slog.Logger) Option {
	return func(s *State) {
		if log != nil {
			s.log = log
		}
	}
}

// State is one run over a fixed list of entries. Each slot is written by the
// worker that claimed its index and nobody else.
type State struct {
	id      uuid.UUID
	entries []model.Entry
	slots   []atomic.Pointer[model.Outcome]
	limit   int

	cursor    atomic.Int64
	completed atomic.Int64
	inflight  atomic.Int64
	cancelled atomic.Bool
	started   atomic.Bool
	done      chan struct{}

	// live reports whether the owning session still considers this run
	// current. Nil means always live.
	live       func() bool
	generation uint64

	preemptive bool
	log        *slog.Logger

	afterClaim func(i int64) // test hook
}

// NewState copies entries and prepares one slot per entry. Entries that
// already carry a terminal outcome are probed again.
func NewState(entries []model.Entry, limit int, opts ...Option) (*State, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidConcurrency, limit)
	}

	s := &State{
		id:      uuid.New(),
		entries: append([]model.Entry(nil), entries...),
		slots:   make([]atomic.Pointer[model.Outcome], len(entries)),
		limit:   limit,
		done:    make(chan struct{}),
		log:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	for i := range s.slots {
		s.slots[i].Store(&model.Outcome{Status: model.StatusPending})
	}
	return s, nil
}

func (s *State) ID() string { return s.id.String() }
func (s *State) Generation() uint64 { return s.generation }
func (s *State) Total() int { return len(s.entries) }
func (s *State) Completed() int { return int(s.completed.Load()) }
func (s *State) InFlight() int { return int(s.inflight.Load()) }
func (s *State) Cancelled() bool { return s.cancelled.Load() }
func (s *State) Done() <-chan struct{} { return s.done }

// Cancel stops workers from claiming new indexes. Probes already in flight
// finish unless the state is preemptive.
func (s *State) Cancel() {
	if s.cancelled.CompareAndSwap(false, true) {
		s.log.Info("run cancelled", "run_id", s.ID(), "completed", s.Completed(), "total", s.Total())
	}
}

// Snapshot returns the entries with their current outcomes, in submission
// order. Safe to call while the run is in progress.
func (s *State) Snapshot() []model.Entry {
	out := make([]model.Entry, len(s.entries))
	for i := range s.entries {
		out[i] = s.entries[i]
		out[i].Outcome = *s.slots[i].Load()
	}
	return out
}

// Run probes every entry and returns once all workers have exited.
func (s *State) Run(ctx context.Context, prober Prober, progress ProgressFunc) error {
	if !s.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}
	defer close(s.done)

	total := len(s.entries)
	if total == 0 {
		return nil
	}

	workers := min(s.limit, total)
	s.log.Info("run started", "run_id", s.ID(), "generation", s.generation, "total", total, "workers", workers)

	stop := context.AfterFunc(ctx, s.Cancel)
	defer stop()

	probeCtx := context.WithoutCancel(ctx)
	if s.preemptive {
		probeCtx = ctx
	}

	notify := make(chan struct{}, 1)
	dispatched := make(chan struct{})
	go s.dispatch(notify, dispatched, progress)

	var wg conc.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Go(func() { s.work(ctx, probeCtx, prober, notify) })
	}
	wg.Wait()

	close(notify)
	<-dispatched

	s.log.Info("run finished",
		"run_id", s.ID(),
		"completed", s.Completed(),
		"total", total,
		"cancelled", s.Cancelled(),
	)
	return nil
}

func (s *State) work(runCtx, probeCtx context.Context, prober Prober, notify chan<- struct{}) {
	total := int64(len(s.entries))
	for {
		if runCtx.Err() != nil {
			s.Cancel()
		}
		i, ok := s.claim(total)
		if !ok {
			return
		}

		s.inflight.Add(1)
		s.commit(int(i), model.Outcome{Status: model.StatusInFlight})
		out := s.probeIsolated(probeCtx, prober, s.entries[i].Endpoint)
		s.inflight.Add(-1)

		if s.commit(int(i), out) {
			s.completed.Add(1)
		}

		// Coalesce: a pending notification already covers this one.
		select {
		case notify <- struct{}{}:
		default:
		}
	}
}

// claim takes the next unclaimed index. A Cancel that lands after the
// index is taken still wins: the slot stays Pending.
func (s *State) claim(total int64) (int64, bool) {
	if s.cancelled.Load() {
		return 0, false
	}
	i := s.cursor.Add(1) - 1
	if i >= total {
		return 0, false
	}
	if s.afterClaim != nil {
		s.afterClaim(i)
	}
	if s.cancelled.Load() {
		return 0, false
	}
	return i, true
}

// probeIsolated turns a panic in the prober into a failure outcome.
func (s *State) probeIsolated(ctx context.Context, prober Prober, ep model.Endpoint) (out model.Outcome) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("probe panicked", "run_id", s.ID(), "proxy", ep.Redacted(), "panic", fmt.Sprint(r))
			out = model.Failed(fmt.Sprintf("probe panicked: %v", r))
		}
	}()
	out = prober.Probe(ctx, ep)
	if !out.Status.Terminal() {
		out = model.Failed("probe returned non-terminal status " + out.Status.String())
	}
	return out
}

// commit stores out in slot i unless the run has been superseded.
func (s *State) commit(i int, out model.Outcome) bool {
	if !s.isLive() {
		s.log.Debug("discarding stale write", "run_id", s.ID(), "generation", s.generation, "index", i)
		return false
	}
	s.slots[i].Store(&out)
	return true
}

func (s *State) isLive() bool {
	return s.live == nil || s.live()
}

// dispatch delivers progress from a single goroutine so observers never see
// concurrent calls and workers never wait on them.
func (s *State) dispatch(notify <-chan struct{}, dispatched chan<- struct{}, progress ProgressFunc) {
	defer close(dispatched)
	total := len(s.entries)
	for range notify {
		if progress != nil && s.isLive() {
			progress(s.Completed(), total)
		}
	}
	if progress != nil && s.isLive() {
		progress(s.Completed(), total)
	}
}
