package circuitbreaker

import (
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestNew_AppliesThresholdAndResetTimeoutDefaults(t *testing.T) {
	b := New(Config{}, zap.NewNop())
	if b.cfg.Threshold != 5 {
		t.Fatalf("default Threshold = %d, want 5", b.cfg.Threshold)
	}
	if b.cfg.ResetTimeout != 30*time.Second {
		t.Fatalf("default ResetTimeout = %v, want 30s", b.cfg.ResetTimeout)
	}
	if b.State() != StateClosed {
		t.Fatalf("new breaker state = %v, want closed", b.State())
	}
}

func TestBreaker_OpensAfterThresholdFailures(t *testing.T) {
	b := New(Config{Threshold: 3, ResetTimeout: time.Minute}, zap.NewNop())
	for i := 0; i < 2; i++ {
		b.Failure()
		if b.State() != StateClosed {
			t.Fatalf("breaker opened early after %d failures", i+1)
		}
	}
	b.Failure()
	if b.State() != StateOpen {
		t.Fatalf("state = %v, want open after reaching threshold", b.State())
	}
}

func TestBreaker_SuccessResetsFailureCountInClosed(t *testing.T) {
	b := New(Config{Threshold: 2, ResetTimeout: time.Minute}, zap.NewNop())
	b.Failure()
	b.Success()
	b.Failure()
	if b.State() != StateClosed {
		t.Fatalf("state = %v, want closed: success should have reset the failure count", b.State())
	}
}

func TestBreaker_Allow_OpenRejectsBeforeResetTimeout(t *testing.T) {
	b := New(Config{Threshold: 1, ResetTimeout: time.Hour}, zap.NewNop())
	b.Failure()
	if err := b.Allow(); err != ErrOpen {
		t.Fatalf("Allow() = %v, want ErrOpen", err)
	}
}

func TestBreaker_Allow_TransitionsToHalfOpenAfterResetTimeout(t *testing.T) {
	b := New(Config{Threshold: 1, ResetTimeout: time.Millisecond}, zap.NewNop())
	b.Failure()
	time.Sleep(5 * time.Millisecond)

	if err := b.Allow(); err != nil {
		t.Fatalf("Allow() = %v, want nil (half-open probe admitted)", err)
	}
	if b.State() != StateHalfOpen {
		t.Fatalf("state = %v, want half_open", b.State())
	}
}

func TestBreaker_Allow_HalfOpenAdmitsOnlyOneProbe(t *testing.T) {
	b := New(Config{Threshold: 1, ResetTimeout: time.Millisecond}, zap.NewNop())
	b.Failure()
	time.Sleep(5 * time.Millisecond)

	if err := b.Allow(); err != nil {
		t.Fatalf("first half-open Allow() = %v, want nil", err)
	}
	if err := b.Allow(); err != ErrOpen {
		t.Fatalf("second concurrent half-open Allow() = %v, want ErrOpen", err)
	}
}

func TestBreaker_HalfOpenSuccessCloses(t *testing.T) {
	b := New(Config{Threshold: 1, ResetTimeout: time.Millisecond}, zap.NewNop())
	b.Failure()
	time.Sleep(5 * time.Millisecond)
	b.Allow()
	b.Success()

	if b.State() != StateClosed {
		t.Fatalf("state = %v, want closed after half-open success", b.State())
	}
}

func TestBreaker_HalfOpenFailureReopens(t *testing.T) {
	b := New(Config{Threshold: 1, ResetTimeout: time.Millisecond}, zap.NewNop())
	b.Failure()
	time.Sleep(5 * time.Millisecond)
	b.Allow()
	b.Failure()

	if b.State() != StateOpen {
		t.Fatalf("state = %v, want open after half-open failure", b.State())
	}
}

func TestBreaker_Reset_ForcesClosed(t *testing.T) {
	b := New(Config{Threshold: 1, ResetTimeout: time.Hour}, zap.NewNop())
	b.Failure()
	if b.State() != StateOpen {
		t.Fatalf("setup: expected open before reset")
	}
	b.Reset()
	if b.State() != StateClosed {
		t.Fatalf("state = %v, want closed after Reset", b.State())
	}
	if err := b.Allow(); err != nil {
		t.Fatalf("Allow() after Reset = %v, want nil", err)
	}
}

func TestBreaker_OnStateChange_FiresOnTransition(t *testing.T) {
	type transition struct{ from, to State }
	changes := make(chan transition, 4)

	b := New(Config{Threshold: 1, ResetTimeout: time.Hour, OnStateChange: func(from, to State) {
		changes <- transition{from, to}
	}}, zap.NewNop())
	b.Failure()

	select {
	case tr := <-changes:
		if tr.from != StateClosed || tr.to != StateOpen {
			t.Fatalf("got transition %+v, want closed->open", tr)
		}
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for OnStateChange callback")
	}
}

func TestState_String(t *testing.T) {
	cases := map[State]string{
		StateClosed:   "closed",
		StateOpen:     "open",
		StateHalfOpen: "half_open",
	}
	for state, want := range cases {
		if got := state.String(); got != want {
			t.Fatalf("%v.String() = %q, want %q", state, got, want)
		}
	}
}

func TestManager_For_CreatesOnePerProviderAndReusesIt(t *testing.T) {
	seen := map[string]int{}
	m := NewManager(zap.NewNop(), func(provider string) Config {
		seen[provider]++
		return Config{Threshold: 5, ResetTimeout: time.Minute}
	})

	openaiBreaker := m.For("openai")
	anthropicBreaker := m.For("anthropic")
	again := m.For("openai")

	if openaiBreaker != again {
		t.Fatalf("expected the same breaker instance on repeated For(\"openai\")")
	}
	if openaiBreaker == anthropicBreaker {
		t.Fatalf("expected distinct breakers per provider")
	}
	if seen["openai"] != 1 {
		t.Fatalf("newCfg called %d times for openai, want 1 (config built once, then cached)", seen["openai"])
	}
}
