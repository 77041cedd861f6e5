// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package telemetry

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// STATS TESTS
// =============================================================================

func TestStats_Summary(t *testing.T) {
	s := NewStats()
	s.Record(RequestRecord{Endpoint: "send_message", Outcome: OutcomeSuccess, Duration: 100 * time.Millisecond})
	s.Record(RequestRecord{Endpoint: "send_message", Outcome: OutcomeTransport, Duration: 300 * time.Millisecond})
	s.Record(RequestRecord{Endpoint: "upload_image", Outcome: OutcomeApplication, Duration: 200 * time.Millisecond})

	sum := s.Summary()
	assert.Equal(t, 3, sum.Requests)
	assert.Equal(t, 2, sum.Failures)
	assert.Equal(t, 200*time.Millisecond, sum.MeanLatency)
	assert.Equal(t, 200*time.Millisecond, sum.LastLatency)
	assert.Equal(t, map[string]int{"send_message": 2, "upload_image": 1}, sum.ByEndpoint)
}

func TestStats_Empty(t *testing.T) {
	sum := NewStats().Summary()
	assert.Zero(t, sum.Requests)
	assert.Zero(t, sum.MeanLatency)
}

func TestStats_NilRecordIsSafe(t *testing.T) {
	var s *Stats
	assert.NotPanics(t, func() { s.Record(RequestRecord{}) })
}

func TestStats_RecentIsBounded(t *testing.T) {
	s := NewStats()
	for i := 0; i < maxRecent+10; i++ {
		s.Record(RequestRecord{Endpoint: "send_message", Outcome: OutcomeSuccess})
	}
	assert.Len(t, s.Recent(), maxRecent)
	assert.Equal(t, maxRecent+10, s.Summary().Requests)
}

func TestStats_Concurrent(t *testing.T) {
	s := NewStats()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Record(RequestRecord{Endpoint: "x", Outcome: OutcomeSuccess})
			_ = s.Summary()
		}()
	}
	wg.Wait()
	assert.Equal(t, 20, s.Summary().Requests)
}

// =============================================================================
// INSTRUMENTS TESTS
// =============================================================================

func TestInstruments_RecordsStats(t *testing.T) {
	stats := NewStats()
	inst := NewInstruments(nil, stats)

	_, done := inst.Start(context.Background(), "send_message")
	done(200, OutcomeSuccess, nil)

	_, done = inst.Start(context.Background(), "clear_history")
	done(0, OutcomeTransport, errors.New("connection refused"))

	sum := stats.Summary()
	assert.Equal(t, 2, sum.Requests)
	assert.Equal(t, 1, sum.Failures)

	recent := stats.Recent()
	require.Len(t, recent, 2)
	assert.Equal(t, "clear_history", recent[1].Endpoint)
}

func TestInstruments_NilIsSafe(t *testing.T) {
	var inst *Instruments
	ctx, done := inst.Start(context.Background(), "send_message")
	assert.NotNil(t, ctx)
	assert.NotPanics(t, func() { done(200, OutcomeSuccess, nil) })
}

// =============================================================================
// SETUP TESTS
// =============================================================================

func TestSetup_Disabled(t *testing.T) {
	p, err := Setup(context.Background(), Config{})
	require.NoError(t, err)
	assert.NotNil(t, p.Tracer())
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestSetup_RequiresDir(t *testing.T) {
	_, err := Setup(context.Background(), Config{Enabled: true})
	assert.Error(t, err)
}

func TestSetup_WritesTraces(t *testing.T) {
	dir := t.TempDir()
	p, err := Setup(context.Background(), Config{Enabled: true, Dir: dir, Version: "test"})
	require.NoError(t, err)

	inst := NewInstruments(p, nil)
	_, done := inst.Start(context.Background(), "send_message")
	done(200, OutcomeSuccess, nil)

	require.NoError(t, p.Shutdown(context.Background()))

	data, err := os.ReadFile(filepath.Join(dir, "traces.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "tutor.send_message")
}
