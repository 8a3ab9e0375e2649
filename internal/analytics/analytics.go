package analytics

import (
	"fmt"
	"strings"
	"time"

	"github.com/August26/proxyprobe/internal/model"
)

// Compute aggregates a run. Entries still pending or in flight count toward
// Total and Pending only.
func Compute(entries []model.Entry, duration time.Duration) model.BatchStats {
	stats := model.BatchStats{
		Total:                 len(entries),
		TotalProcessingTimeMs: duration.Milliseconds(),
	}

	proxies := make(map[string]struct{})
	ips := make(map[string]struct{})

	var latencySum int64
	var latencyCount int64

	for _, e := range entries {
		proxies[e.Endpoint.String()] = struct{}{}

		switch e.Outcome.Status {
		case model.StatusSuccess:
			stats.Succeeded++
			ips[e.Outcome.IP] = struct{}{}
			if e.Outcome.LatencyMs > 0 {
				latencySum += e.Outcome.LatencyMs
				latencyCount++
			}
		case model.StatusFailure:
			stats.Failed++
		default:
			stats.Pending++
		}
	}

	stats.UniqueProxies = len(proxies)
	stats.UniqueIPs = len(ips)

	if finished := stats.Succeeded + stats.Failed; finished > 0 {
		stats.SuccessRatePct = float64(stats.Succeeded) / float64(finished) * 100.0
	}
	if latencyCount > 0 {
		stats.AvgLatencyMs = float64(latencySum) / float64(latencyCount)
	}
	return stats
}

// UniqueIPs returns the exit IPs of successful entries in first-seen order.
func UniqueIPs(entries []model.Entry) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, e := range entries {
		if !e.Outcome.OK() {
			continue
		}
		if _, ok := seen[e.Outcome.IP]; ok {
			continue
		}
		seen[e.Outcome.IP] = struct{}{}
		out = append(out, e.Outcome.IP)
	}
	return out
}

// Filter selects the rows shown in the results view.
type Filter string

const (
	FilterAll    Filter = "all"
	FilterOK     Filter = "ok"
	FilterFail   Filter = "fail"
	FilterUnique Filter = "unique" // first successful entry per exit IP
)

func ParseFilter(s string) (Filter, error) {
	switch f := Filter(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FilterAll, nil
	case FilterAll, FilterOK, FilterFail, FilterUnique:
		return f, nil
	default:
		return "", fmt.Errorf("unknown filter %q (want all, ok, fail or unique)", s)
	}
}

// Row is an entry together with its position in the submitted list.
type Row struct {
	Index int
	Entry model.Entry
}

func Rows(entries []model.Entry) []Row {
	return Apply(entries, FilterAll)
}

// Apply returns the entries matching f, keeping submission order and the
// original indexes.
func Apply(entries []model.Entry, f Filter) []Row {
	seen := make(map[string]struct{})
	var rows []Row
	for i, e := range entries {
		switch f {
		case FilterOK:
			if !e.Outcome.OK() {
				continue
			}
		case FilterFail:
			if e.Outcome.Status != model.StatusFailure {
				continue
			}
		case FilterUnique:
			if !e.Outcome.OK() {
				continue
			}
			if _, dup := seen[e.Outcome.IP]; dup {
				continue
			}
			seen[e.Outcome.IP] = struct{}{}
		}
		rows = append(rows, Row{Index: i, Entry: e})
	}
	return rows
}
