package routing

import (
	"sync"
	"sync/atomic"
	"time"

	"ccswitch-hq/ccswitch/pkg/providers"
)

// AtomicStats implements thread-safe routing statistics using atomic operations.
type AtomicStats struct {
	// totalRoutes is the total number of routes started
	totalRoutes atomic.Int64

	// successes is the number of routes that returned a response
	successes atomic.Int64

	// failures counts failed routes by kind
	failures sync.Map // map[FailureKind]*atomic.Int64

	// channelAttempts counts attempts per channel
	channelAttempts sync.Map // map[string]*atomic.Int64

	// channelFailures counts failed attempts per channel and kind
	channelFailures sync.Map // map[channelKind]*atomic.Int64

	// lastResetTime is when statistics were last reset
	lastResetTime time.Time

	// mu protects lastResetTime
	mu sync.RWMutex
}

type channelKind struct {
	channel string
	kind    providers.ErrorKind
}

// NewAtomicStats creates a new atomic routing statistics tracker.
func NewAtomicStats() *AtomicStats {
	return &AtomicStats{
		lastResetTime: time.Now(),
	}
}

// IncrementRoutes increments the total route counter.
func (s *AtomicStats) IncrementRoutes() {
	s.totalRoutes.Add(1)
}

// IncrementSuccesses increments the successful route counter.
func (s *AtomicStats) IncrementSuccesses() {
	s.successes.Add(1)
}

// IncrementFailure increments the counter for a route failure kind.
func (s *AtomicStats) IncrementFailure(kind FailureKind) {
	counter(&s.failures, kind).Add(1)
}

// RecordAttempt counts an attempt on channel, and a failure of kind when
// the attempt did not succeed.
func (s *AtomicStats) RecordAttempt(attempt AttemptResult) {
	counter(&s.channelAttempts, attempt.Channel).Add(1)
	if attempt.Outcome != OutcomeSuccess {
		counter(&s.channelFailures, channelKind{attempt.Channel, attempt.Kind}).Add(1)
	}
}

func counter(m *sync.Map, key any) *atomic.Int64 {
	val, _ := m.LoadOrStore(key, &atomic.Int64{})
	return val.(*atomic.Int64)
}

// Snapshot returns a point-in-time snapshot of the statistics.
// The returned Stats struct is safe to read without locks.
func (s *AtomicStats) Snapshot() *Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	failures := make(map[FailureKind]int64)
	s.failures.Range(func(key, value interface{}) bool {
		failures[key.(FailureKind)] = value.(*atomic.Int64).Load()
		return true
	})

	attempts := make(map[string]int64)
	s.channelAttempts.Range(func(key, value interface{}) bool {
		attempts[key.(string)] = value.(*atomic.Int64).Load()
		return true
	})

	channelFailures := make(map[string]map[providers.ErrorKind]int64)
	s.channelFailures.Range(func(key, value interface{}) bool {
		ck := key.(channelKind)
		if channelFailures[ck.channel] == nil {
			channelFailures[ck.channel] = make(map[providers.ErrorKind]int64)
		}
		channelFailures[ck.channel][ck.kind] = value.(*atomic.Int64).Load()
		return true
	})

	return &Stats{
		TotalRoutes:     s.totalRoutes.Load(),
		Successes:       s.successes.Load(),
		Failures:        failures,
		ChannelAttempts: attempts,
		ChannelFailures: channelFailures,
		LastResetTime:   s.lastResetTime,
	}
}

// Reset resets all statistics to zero.
func (s *AtomicStats) Reset() {
	s.totalRoutes.Store(0)
	s.successes.Store(0)

	for _, m := range []*sync.Map{&s.failures, &s.channelAttempts, &s.channelFailures} {
		m.Range(func(key, value interface{}) bool {
			m.Delete(key)
			return true
		})
	}

	s.mu.Lock()
	s.lastResetTime = time.Now()
	s.mu.Unlock()
}
