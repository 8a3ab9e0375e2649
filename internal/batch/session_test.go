package batch

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/August26/proxyprobe/internal/model"
)

func waitDone(t *testing.T, st *State) {
	t.Helper()
	select {
	case <-st.Done():
	case <-time.After(5 * time.Second):
		t.Fatalf("run %s did not finish", st.ID())
	}
}

func TestSession_StaleRunWritesDiscarded(t *testing.T) {
	release := make(chan struct{})
	var started atomic.Int64
	slow := ProberFunc(func(_ context.Context, ep model.Endpoint) model.Outcome {
		started.Add(1)
		<-release
		return model.Outcome{Status: model.StatusSuccess, IP: "stale"}
	})

	s := NewSession(nil)
	var firstProgress progressLog
	first, err := s.Start(context.Background(), testEntries(4), 2, slow, firstProgress.record)
	if err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool { return started.Load() == 2 })

	var secondProgress progressLog
	second, err := s.Start(context.Background(), testEntries(3), 2, echoProber, secondProgress.record)
	if err != nil {
		t.Fatal(err)
	}
	if !first.Cancelled() {
		t.Fatalf("starting a new run must cancel the previous one")
	}
	if second.Generation() <= first.Generation() {
		t.Fatalf("generation did not advance: %d -> %d", first.Generation(), second.Generation())
	}
	waitDone(t, second)

	close(release)
	waitDone(t, first)

	if first.Completed() != 0 {
		t.Fatalf("stale run recorded %d completions", first.Completed())
	}
	for i, e := range first.Snapshot() {
		if e.Outcome.IP == "stale" {
			t.Fatalf("slot %d accepted a stale write", i)
		}
	}
	if len(firstProgress.snapshot()) != 0 {
		t.Fatalf("stale run reported progress: %v", firstProgress.snapshot())
	}

	for i, e := range second.Snapshot() {
		if !e.Outcome.OK() {
			t.Fatalf("slot %d: %#v", i, e.Outcome)
		}
	}
	calls := secondProgress.snapshot()
	if calls[len(calls)-1] != [2]int{3, 3} {
		t.Fatalf("last progress %v", calls)
	}
	if s.Current() != second {
		t.Fatalf("current should be the second run")
	}
}

func TestSession_Clear(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	blocking := ProberFunc(func(_ context.Context, ep model.Endpoint) model.Outcome {
		<-release
		return model.Outcome{Status: model.StatusSuccess, IP: ep.Host}
	})

	s := NewSession(nil)
	st, err := s.Start(context.Background(), testEntries(5), 1, blocking, nil)
	if err != nil {
		t.Fatal(err)
	}
	before := s.Generation()
	s.Clear()

	if !st.Cancelled() {
		t.Fatalf("clear must cancel the current run")
	}
	if s.Current() != nil {
		t.Fatalf("clear must forget the current run")
	}
	if s.Generation() != before+1 {
		t.Fatalf("generation %d, want %d", s.Generation(), before+1)
	}
}

func TestSession_StartRejectsBadLimit(t *testing.T) {
	s := NewSession(nil)
	if _, err := s.Start(context.Background(), testEntries(1), 0, echoProber, nil); err == nil {
		t.Fatalf("expected error")
	}
	if s.Generation() != 0 {
		t.Fatalf("a rejected start must not bump the generation")
	}
}
