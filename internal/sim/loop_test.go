package sim

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bobblez1/blob2/internal/modes"
	"github.com/bobblez1/blob2/internal/world"
	"github.com/bobblez1/blob2/logging"
)

type steppingClock struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

func (c *steppingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(c.step)
	return c.now
}

func TestLoopAdvanceSamplesInput(t *testing.T) {
	e, _, _ := newTestEngine(t, quietConfig(modes.Classic))
	start := e.Snapshot().Player.X
	loop := NewLoop(e, LoopConfig{TickRate: 60, CatchupMaxTicks: 4}, LoopHooks{
		Input: func() Input { return Input{Direction: world.Vec{X: 1}} },
	})

	step := loop.Advance(frame)
	if step.Err != nil {
		t.Fatalf("unexpected error: %v", step.Err)
	}
	if step.Result.Tick != 1 || step.Snapshot.Tick != 1 {
		t.Fatalf("expected tick 1, got result %d snapshot %d", step.Result.Tick, step.Snapshot.Tick)
	}
	if step.Snapshot.Player.X <= start {
		t.Fatalf("expected the sampled input to move the player")
	}
	if step.Budget != time.Second/60 || step.MaxDelta != 4*time.Second/60 {
		t.Fatalf("unexpected budget %v / max delta %v", step.Budget, step.MaxDelta)
	}
}

func TestNewLoopDefaults(t *testing.T) {
	if NewLoop(nil, LoopConfig{}, LoopHooks{}) != nil {
		t.Fatalf("expected nil loop for nil engine")
	}
	e, _, _ := newTestEngine(t, quietConfig(modes.Classic))
	loop := NewLoop(e, LoopConfig{}, LoopHooks{})
	if loop.Budget() != time.Second/60 || loop.MaxDelta() != loop.Budget() {
		t.Fatalf("expected 60Hz budget with no catch-up, got %v / %v", loop.Budget(), loop.MaxDelta())
	}
}

func TestLoopRunStopsWhenSessionEnds(t *testing.T) {
	cfg := quietConfig(modes.BattleRoyale)
	e, err := NewEngine(cfg, Deps{Clock: &steppingClock{now: time.Unix(0, 0), step: time.Second}})
	if err != nil {
		t.Fatalf("NewEngine returned error: %v", err)
	}
	addBotAtPlayer(e, 10)

	var steps []LoopStepResult
	var ended *Result
	loop := NewLoop(e, LoopConfig{TickRate: 500, CatchupMaxTicks: 3}, LoopHooks{
		AfterStep:    func(s LoopStepResult) { steps = append(steps, s) },
		OnSessionEnd: func(r Result) { ended = &r },
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := loop.Run(ctx); err != nil {
		t.Fatalf("expected nil once the session ended, got %v", err)
	}
	if ended == nil || ended.Cause != modes.CauseLastStanding {
		t.Fatalf("expected last_standing session end, got %+v", ended)
	}
	if len(steps) != 1 {
		t.Fatalf("expected a single step, got %d", len(steps))
	}
	if !steps[0].ClampedDelta || steps[0].Delta != 3*loop.Budget() {
		t.Fatalf("expected dt clamped to %v, got %v (clamped=%v)", 3*loop.Budget(), steps[0].Delta, steps[0].ClampedDelta)
	}
}

func TestLoopRunHonoursCancellation(t *testing.T) {
	e, err := NewEngine(quietConfig(modes.Classic), Deps{Clock: logging.ClockFunc(time.Now)})
	if err != nil {
		t.Fatalf("NewEngine returned error: %v", err)
	}
	var mu sync.Mutex
	ticks := 0
	loop := NewLoop(e, LoopConfig{TickRate: 200, CatchupMaxTicks: 4}, LoopHooks{
		AfterStep: func(LoopStepResult) {
			mu.Lock()
			ticks++
			mu.Unlock()
		},
	})

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	if err := loop.Run(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	mu.Lock()
	defer mu.Unlock()
	if ticks == 0 {
		t.Fatalf("expected the loop to tick before cancellation")
	}
}
