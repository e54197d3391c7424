package observability

import (
	"log/slog"
	"sync"
	"sync/atomic"
)

// Observer receives pipeline events. Implementations must be cheap;
// they are called inline on the pipeline goroutine.
type Observer interface {
	FragmentSeen()
	CandidateDiscarded(reason string)
	RecordEmitted()
	LoadFinished(iterations int, reason string)
}

// Nop is an Observer that ignores every event.
type Nop struct{}

func (Nop) FragmentSeen() {}
func (Nop) CandidateDiscarded(string) {}
func (Nop) RecordEmitted() {}
func (Nop) LoadFinished(int, string) {}

// Observers fans events out to several observers in order.
type Observers []Observer

func (o Observers) FragmentSeen() {
	for _, ob := range o {
		ob.FragmentSeen()
	}
}

func (o Observers) CandidateDiscarded(reason string) {
	for _, ob := range o {
		ob.CandidateDiscarded(reason)
	}
}

func (o Observers) RecordEmitted() {
	for _, ob := range o {
		ob.RecordEmitted()
	}
}

func (o Observers) LoadFinished(iterations int, reason string) {
	for _, ob := range o {
		ob.LoadFinished(iterations, reason)
	}
}

// Stats tracks run counters in memory.
type Stats struct {
	FragmentsSeen     atomic.Int64
	CandidatesDropped atomic.Int64
	RecordsEmitted    atomic.Int64
	LoadIterations    atomic.Int64

	mu        sync.Mutex
	discards  map[string]int64
	stopCause string

	logger *slog.Logger
}

// NewStats creates a new Stats instance.
func NewStats(logger *slog.Logger) *Stats {
	return &Stats{
		discards: make(map[string]int64),
		logger:   logger.With("component", "stats"),
	}
}

// FragmentSeen implements Observer.
func (s *Stats) FragmentSeen() {
	s.FragmentsSeen.Add(1)
}

// CandidateDiscarded implements Observer.
func (s *Stats) CandidateDiscarded(reason string) {
	s.CandidatesDropped.Add(1)
	s.mu.Lock()
	s.discards[reason]++
	s.mu.Unlock()
	s.logger.Debug("candidate discarded", "reason", reason)
}

// RecordEmitted implements Observer.
func (s *Stats) RecordEmitted() {
	s.RecordsEmitted.Add(1)
}

// LoadFinished implements Observer.
func (s *Stats) LoadFinished(iterations int, reason string) {
	s.LoadIterations.Store(int64(iterations))
	s.mu.Lock()
	s.stopCause = reason
	s.mu.Unlock()
}

// Discards returns the discard count for one reason.
func (s *Stats) Discards(reason string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.discards[reason]
}

// Snapshot is a point-in-time copy of Stats.
type Snapshot struct {
	FragmentsSeen     int64            `json:"fragments_seen"`
	CandidatesDropped int64            `json:"candidates_dropped"`
	RecordsEmitted    int64            `json:"records_emitted"`
	LoadIterations    int64            `json:"load_iterations"`
	LoadStop          string           `json:"load_stop"`
	Discards          map[string]int64 `json:"discards"`
}

// Snapshot returns all counters.
func (s *Stats) Snapshot() Snapshot {
	s.mu.Lock()
	discards := make(map[string]int64, len(s.discards))
	for k, v := range s.discards {
		discards[k] = v
	}
	stop := s.stopCause
	s.mu.Unlock()

	return Snapshot{
		FragmentsSeen:     s.FragmentsSeen.Load(),
		CandidatesDropped: s.CandidatesDropped.Load(),
		RecordsEmitted:    s.RecordsEmitted.Load(),
		LoadIterations:    s.LoadIterations.Load(),
		LoadStop:          stop,
		Discards:          discards,
	}
}
