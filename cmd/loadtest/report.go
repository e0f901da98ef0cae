package main

import (
	"fmt"
	"io"
	"sort"
	"sync"
	"time"
)

// latencies tracks when each stroke was drawn and when the teacher saw it.
type latencies struct {
	mu      sync.Mutex
	sent    map[string]time.Time
	samples []time.Duration
}

func newLatencies() *latencies {
	return &latencies{sent: map[string]time.Time{}}
}

func (l *latencies) Sent(id string, at time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sent[id] = at
}

// Received records the first time a stroke is seen. Later echoes are ignored.
func (l *latencies) Received(id string, at time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	sent, found := l.sent[id]
	if !found {
		return
	}
	delete(l.sent, id)
	l.samples = append(l.samples, at.Sub(sent))
}

func (l *latencies) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.sent)
}

type report struct {
	Received, Lost     int
	P50, P95, P99, Max time.Duration
}

func (l *latencies) Report() report {
	l.mu.Lock()
	defer l.mu.Unlock()

	samples := append([]time.Duration{}, l.samples...)
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	r := report{Received: len(samples), Lost: len(l.sent)}
	if len(samples) == 0 {
		return r
	}
	r.P50 = percentile(samples, 50)
	r.P95 = percentile(samples, 95)
	r.P99 = percentile(samples, 99)
	r.Max = samples[len(samples)-1]
	return r
}

// percentile expects sorted samples.
func percentile(samples []time.Duration, p int) time.Duration {
	i := (len(samples)*p+99)/100 - 1
	if i < 0 {
		i = 0
	}
	return samples[i]
}

func (r report) Print(w io.Writer) {
	fmt.Fprintf(w, "strokes received: %d, lost: %d\n", r.Received, r.Lost)
	fmt.Fprintf(w, "latency p50=%s p95=%s p99=%s max=%s\n", r.P50, r.P95, r.P99, r.Max)
}
