package core

import (
	"net/http"
	"sync"
	"testing"
	"time"
)

func TestSimulator_FetchDelayWithinBounds(t *testing.T) {
	t.Parallel()

	var slept []time.Duration
	values := []float64{0, 0.5, 0.999999}
	i := 0
	sim := NewSimulator(SimulatorOptions{
		FetchMinDelay: 200 * time.Millisecond,
		FetchMaxDelay: 10 * time.Second,
		Float64: func() float64 {
			v := values[i]
			i++
			return v
		},
		Sleep: func(d time.Duration) { slept = append(slept, d) },
	})

	for range values {
		text, delay := sim.Fetch()
		if text != FetchedText {
			t.Fatalf("unexpected fetch text %q", text)
		}
		if delay < 200*time.Millisecond || delay > 10*time.Second {
			t.Fatalf("delay %v out of bounds", delay)
		}
	}
	if slept[0] != 200*time.Millisecond {
		t.Fatalf("expected minimum delay got %v", slept[0])
	}
	if slept[1] != 5100*time.Millisecond {
		t.Fatalf("expected midpoint delay got %v", slept[1])
	}
}

func TestSimulator_TimeoutSleepsFixedDelay(t *testing.T) {
	t.Parallel()

	var slept time.Duration
	sim := NewSimulator(SimulatorOptions{Sleep: func(d time.Duration) { slept = d }})
	if got := sim.Timeout(); got != DefaultTimeoutDelay {
		t.Fatalf("expected %v got %v", DefaultTimeoutDelay, got)
	}
	if slept != DefaultTimeoutDelay {
		t.Fatalf("expected sleep of %v got %v", DefaultTimeoutDelay, slept)
	}
	if sim.Hello() != "hello world" {
		t.Fatalf("unexpected hello text")
	}
}

func TestSimulator_RandomOutcomeThreshold(t *testing.T) {
	t.Parallel()

	cases := []struct {
		draw   float64
		status int
	}{
		{0, http.StatusInternalServerError},
		{0.1999, http.StatusInternalServerError},
		{0.2, http.StatusOK},
		{0.95, http.StatusOK},
	}
	for _, tc := range cases {
		draw := tc.draw
		sim := NewSimulator(SimulatorOptions{Float64: func() float64 { return draw }})
		outcome := sim.RandomOutcome()
		if outcome.Status != tc.status {
			t.Fatalf("draw %v: expected %d got %d", tc.draw, tc.status, outcome.Status)
		}
		body := outcome.Body.(map[string]any)
		if tc.status == http.StatusOK {
			if body["ok"] != true || body["msg"] != "Success" {
				t.Fatalf("unexpected success body %v", body)
			}
		} else if body["error"] != "Random failure" {
			t.Fatalf("unexpected failure body %v", body)
		}
	}
}

func TestSimulator_RandomOutcomeRate(t *testing.T) {
	t.Parallel()

	sim := NewSimulator(SimulatorOptions{Seed: 7})
	const calls = 5000
	var wg sync.WaitGroup
	var mu sync.Mutex
	failures := 0
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < calls/4; i++ {
				if sim.RandomOutcome().Status == http.StatusInternalServerError {
					mu.Lock()
					failures++
					mu.Unlock()
				}
			}
		}()
	}
	wg.Wait()

	rate := float64(failures) / calls
	if rate < 0.16 || rate > 0.24 {
		t.Fatalf("failure rate %.3f outside expected band", rate)
	}
}

func TestSimulator_ClampsOptions(t *testing.T) {
	t.Parallel()

	always := NewSimulator(SimulatorOptions{RandomErrorRate: 3, Float64: func() float64 { return 0.99 }})
	if always.RandomOutcome().Status != http.StatusInternalServerError {
		t.Fatalf("expected rate clamped to 1")
	}

	var slept time.Duration
	fixed := NewSimulator(SimulatorOptions{
		FetchMinDelay: time.Second,
		FetchMaxDelay: time.Millisecond,
		Float64:       func() float64 { return 0.5 },
		Sleep:         func(d time.Duration) { slept = d },
	})
	fixed.Fetch()
	if slept != time.Second {
		t.Fatalf("expected max clamped to min got %v", slept)
	}
}
