package batch

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/August26/proxyprobe/internal/model"
)

// Session owns the current run and a generation counter. Starting or
// clearing bumps the generation, and any state launched under an older
// generation has its slot writes and progress dropped.
type Session struct {
	mu      sync.Mutex
	gen     atomic.Uint64
	current *State

	log  *slog.Logger
	opts []Option
}

func NewSession(log *slog.Logger, opts ...Option) *Session {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Session{log: log, opts: opts}
}

// Start cancels the current run and launches a new one in the background.
// Wait on the returned state's Done channel for completion.
func (s *Session) Start(ctx context.Context, entries []model.Entry, limit int, prober Prober, progress ProgressFunc) (*State, error) {
	opts := append([]Option{WithLogger(s.log)}, s.opts...)
	st, err := NewState(entries, limit, opts...)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.current != nil {
		s.current.Cancel()
	}
	gen := s.gen.Add(1)
	st.generation = gen
	st.live = func() bool { return s.gen.Load() == gen }
	s.current = st
	s.mu.Unlock()

	s.log.Debug("session run launched", "run_id", st.ID(), "generation", gen)
	go func() {
		if err := st.Run(ctx, prober, progress); err != nil {
			s.log.Error("session run failed", "run_id", st.ID(), "err", err)
		}
	}()
	return st, nil
}

// Clear cancels the current run and forgets it.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != nil {
		s.current.Cancel()
	}
	s.gen.Add(1)
	s.current = nil
}

func (s *Session) Current() *State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

func (s *Session) Generation() uint64 {
	return s.gen.Load()
}
