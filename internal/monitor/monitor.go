// Package monitor polls the caller's own exit identity and reports changes.
package monitor

import (
	"context"
	"time"

	"github.com/August26/proxyprobe/internal/model"
)

const DefaultInterval = 2 * time.Second

// LookupFunc returns the current exit identity, e.g. checker.Client.Lookup.
type LookupFunc func(ctx context.Context) model.Outcome

type Sample struct {
	At      time.Time
	Outcome model.Outcome
	Changed bool // IP differs from the previous successful sample
	Changes int
	Unique  int
}

type Monitor struct {
	Interval time.Duration

	lastIP  string
	changes int
	seen    map[string]struct{}
}

// Run looks up once immediately, then every Interval, until ctx is done.
// Failed lookups are reported but leave the change tracking untouched.
func (m *Monitor) Run(ctx context.Context, lookup LookupFunc, onSample func(Sample)) error {
	interval := m.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	if m.seen == nil {
		m.seen = make(map[string]struct{})
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		out := lookup(ctx)
		if err := ctx.Err(); err != nil {
			return err
		}
		onSample(m.observe(time.Now(), out))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (m *Monitor) observe(at time.Time, out model.Outcome) Sample {
	s := Sample{At: at, Outcome: out}
	if out.OK() {
		if m.lastIP != "" && out.IP != m.lastIP {
			s.Changed = true
			m.changes++
		}
		m.lastIP = out.IP
		m.seen[out.IP] = struct{}{}
	}
	s.Changes = m.changes
	s.Unique = len(m.seen)
	return s
}
