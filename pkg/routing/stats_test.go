package routing

import (
	"sync"
	"testing"

	"ccswitch-hq/ccswitch/pkg/providers"
)

func TestAtomicStats(t *testing.T) {
	s := NewAtomicStats()

	s.IncrementRoutes()
	s.IncrementRoutes()
	s.IncrementSuccesses()
	s.IncrementFailure(FailureAllChannelsFailed)
	s.RecordAttempt(AttemptResult{Channel: "A", Outcome: OutcomeFailed, Kind: providers.KindTimeout})
	s.RecordAttempt(AttemptResult{Channel: "A", Outcome: OutcomeUnhealthy, Kind: providers.KindAuth})
	s.RecordAttempt(AttemptResult{Channel: "B", Outcome: OutcomeSuccess})

	snap := s.Snapshot()
	if snap.TotalRoutes != 2 || snap.Successes != 1 {
		t.Errorf("unexpected totals %+v", snap)
	}
	if snap.Failures[FailureAllChannelsFailed] != 1 {
		t.Errorf("expected one all_channels_failed, got %v", snap.Failures)
	}
	if snap.ChannelAttempts["A"] != 2 || snap.ChannelAttempts["B"] != 1 {
		t.Errorf("unexpected attempts %v", snap.ChannelAttempts)
	}
	if snap.ChannelFailures["A"][providers.KindTimeout] != 1 || snap.ChannelFailures["A"][providers.KindAuth] != 1 {
		t.Errorf("unexpected failures %v", snap.ChannelFailures)
	}
	if _, ok := snap.ChannelFailures["B"]; ok {
		t.Error("successful attempts must not count as failures")
	}

	before := snap.LastResetTime
	s.Reset()
	snap = s.Snapshot()
	if snap.TotalRoutes != 0 || len(snap.ChannelAttempts) != 0 || len(snap.Failures) != 0 {
		t.Errorf("expected empty stats after reset, got %+v", snap)
	}
	if snap.LastResetTime.Before(before) {
		t.Error("reset time should advance")
	}
}

func TestAtomicStats_Concurrent(t *testing.T) {
	s := NewAtomicStats()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.IncrementRoutes()
			s.RecordAttempt(AttemptResult{Channel: "A", Outcome: OutcomeFailed, Kind: providers.KindNetwork})
			_ = s.Snapshot()
		}()
	}
	wg.Wait()

	snap := s.Snapshot()
	if snap.TotalRoutes != 50 || snap.ChannelFailures["A"][providers.KindNetwork] != 50 {
		t.Errorf("unexpected stats %+v", snap)
	}
}
