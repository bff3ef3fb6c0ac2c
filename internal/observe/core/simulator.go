// Package core provides the synthetic latency and failure simulator.
package core

import (
	"math/rand/v2"
	"net/http"
	"sync"
	"time"
)

const (
	HelloText   = "hello world"
	FetchedText = "fetched some data"

	DefaultFetchMinDelay   = 200 * time.Millisecond
	DefaultFetchMaxDelay   = 10 * time.Second
	DefaultTimeoutDelay    = 3 * time.Second
	DefaultRandomErrorRate = 0.2
)

// SimulatorOptions configures a Simulator.
type SimulatorOptions struct {
	FetchMinDelay   time.Duration
	FetchMaxDelay   time.Duration
	TimeoutDelay    time.Duration
	RandomErrorRate float64
	// Seed makes the random source deterministic when non-zero.
	Seed uint64
	// Float64 overrides the random source; it must return values in [0, 1).
	Float64 func() float64
	// Sleep overrides time.Sleep.
	Sleep func(time.Duration)
}

// Simulator serves the synthetic demo endpoints.
type Simulator struct {
	fetchMin  time.Duration
	fetchMax  time.Duration
	timeout   time.Duration
	errorRate float64
	float64   func() float64
	sleep     func(time.Duration)
}

// NewSimulator constructs a Simulator, filling defaults for zero options.
func NewSimulator(opts SimulatorOptions) *Simulator {
	if opts.FetchMinDelay <= 0 {
		opts.FetchMinDelay = DefaultFetchMinDelay
	}
	if opts.FetchMaxDelay <= 0 {
		opts.FetchMaxDelay = DefaultFetchMaxDelay
	}
	if opts.FetchMaxDelay < opts.FetchMinDelay {
		opts.FetchMaxDelay = opts.FetchMinDelay
	}
	if opts.TimeoutDelay <= 0 {
		opts.TimeoutDelay = DefaultTimeoutDelay
	}
	if opts.RandomErrorRate < 0 {
		opts.RandomErrorRate = 0
	}
	if opts.RandomErrorRate > 1 {
		opts.RandomErrorRate = 1
	}
	source := opts.Float64
	if source == nil {
		if opts.Seed != 0 {
			source = newLockedRand(opts.Seed).Float64
		} else {
			source = rand.Float64
		}
	}
	sleep := opts.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}
	return &Simulator{
		fetchMin:  opts.FetchMinDelay,
		fetchMax:  opts.FetchMaxDelay,
		timeout:   opts.TimeoutDelay,
		errorRate: opts.RandomErrorRate,
		float64:   source,
		sleep:     sleep,
	}
}

// Hello returns the fixed greeting.
func (s *Simulator) Hello() string {
	return HelloText
}

// Fetch sleeps a uniformly random duration within the fetch bounds.
func (s *Simulator) Fetch() (string, time.Duration) {
	span := s.fetchMax - s.fetchMin
	delay := s.fetchMin + time.Duration(s.float64()*float64(span))
	s.sleep(delay)
	return FetchedText, delay
}

// Timeout sleeps the fixed timeout delay.
func (s *Simulator) Timeout() time.Duration {
	s.sleep(s.timeout)
	return s.timeout
}

// RandomOutcome fails with probability RandomErrorRate.
func (s *Simulator) RandomOutcome() Outcome {
	if s.float64() < s.errorRate {
		return Outcome{Status: http.StatusInternalServerError, Body: map[string]any{"error": "Random failure"}}
	}
	return Outcome{Status: http.StatusOK, Body: map[string]any{"ok": true, "msg": "Success"}}
}

type lockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

func newLockedRand(seed uint64) *lockedRand {
	return &lockedRand{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (l *lockedRand) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Float64()
}
