// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package telemetry

import (
	"sync"
	"time"
)

// =============================================================================
// REQUEST STATS
// =============================================================================

// Outcome classifies a finished backend request.
type Outcome string

const (
	OutcomeSuccess     Outcome = "success"
	OutcomeApplication Outcome = "application_error"
	OutcomeTransport   Outcome = "transport_error"
)

// RequestRecord is one finished backend request.
type RequestRecord struct {
	Endpoint string
	Status   int
	Outcome  Outcome
	Duration time.Duration
	At       time.Time
}

// Summary aggregates the records of a session.
type Summary struct {
	Requests    int
	Failures    int
	MeanLatency time.Duration
	LastLatency time.Duration
	ByEndpoint  map[string]int
}

// Stats tracks request statistics for the running session.
// Safe for concurrent use.
type Stats struct {
	mu        sync.RWMutex
	started   time.Time
	requests  int
	failures  int
	total     time.Duration
	last      time.Duration
	endpoints map[string]int
	recent    []RequestRecord
}

// maxRecent bounds the recent-request ring.
const maxRecent = 50

// NewStats creates an empty tracker.
func NewStats() *Stats {
	return &Stats{
		started:   time.Now(),
		endpoints: make(map[string]int),
	}
}

// Record adds a finished request.
func (s *Stats) Record(rec RequestRecord) {
	if s == nil {
		return
	}
	if rec.At.IsZero() {
		rec.At = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.requests++
	if rec.Outcome != OutcomeSuccess {
		s.failures++
	}
	s.total += rec.Duration
	s.last = rec.Duration
	s.endpoints[rec.Endpoint]++

	s.recent = append(s.recent, rec)
	if len(s.recent) > maxRecent {
		s.recent = s.recent[len(s.recent)-maxRecent:]
	}
}

// Summary returns the aggregated statistics.
func (s *Stats) Summary() Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sum := Summary{
		Requests:    s.requests,
		Failures:    s.failures,
		LastLatency: s.last,
		ByEndpoint:  make(map[string]int, len(s.endpoints)),
	}
	if s.requests > 0 {
		sum.MeanLatency = s.total / time.Duration(s.requests)
	}
	for k, v := range s.endpoints {
		sum.ByEndpoint[k] = v
	}
	return sum
}

// Recent returns up to the last 50 requests, oldest first.
func (s *Stats) Recent() []RequestRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]RequestRecord, len(s.recent))
	copy(out, s.recent)
	return out
}

// Uptime returns the time since the tracker was created.
func (s *Stats) Uptime() time.Duration {
	return time.Since(s.started)
}
