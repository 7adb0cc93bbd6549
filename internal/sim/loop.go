package sim

import (
	"context"
	"errors"
	"time"
)

// LoopConfig tunes the fixed-timestep runner.
type LoopConfig struct {
	TickRate        int
	CatchupMaxTicks int
}

// LoopHooks let the process plug input and output into the loop. Every hook
// runs on the loop goroutine.
type LoopHooks struct {
	// Input samples the latest player input at tick start.
	Input func() Input
	// AfterStep observes every committed or aborted tick.
	AfterStep func(LoopStepResult)
	// OnSessionEnd runs once when the session finishes.
	OnSessionEnd func(Result)
}

// LoopStepResult describes one loop iteration.
type LoopStepResult struct {
	Result       Result
	Snapshot     Snapshot
	Err          error
	Delta        time.Duration
	Duration     time.Duration
	Budget       time.Duration
	ClampedDelta bool
	MaxDelta     time.Duration
}

// Loop drives an Engine at a fixed rate.
type Loop struct {
	engine *Engine
	config LoopConfig
	hooks  LoopHooks
}

// NewLoop wraps engine with a ticker-driven runner.
func NewLoop(engine *Engine, cfg LoopConfig, hooks LoopHooks) *Loop {
	if engine == nil {
		return nil
	}
	if cfg.TickRate <= 0 {
		cfg.TickRate = 60
	}
	if cfg.CatchupMaxTicks < 1 {
		cfg.CatchupMaxTicks = 1
	}
	return &Loop{engine: engine, config: cfg, hooks: hooks}
}

// Engine returns the driven engine.
func (l *Loop) Engine() *Engine {
	return l.engine
}

// Budget is the wall time allotted to one tick.
func (l *Loop) Budget() time.Duration {
	return time.Second / time.Duration(l.config.TickRate)
}

// MaxDelta is the largest dt a single tick absorbs after a stall.
func (l *Loop) MaxDelta() time.Duration {
	return l.Budget() * time.Duration(l.config.CatchupMaxTicks)
}

// Advance runs one tick with the given elapsed time.
func (l *Loop) Advance(dt time.Duration) LoopStepResult {
	var in Input
	if l.hooks.Input != nil {
		in = l.hooks.Input()
	}
	clock := l.engine.deps.Clock
	start := clock.Now()
	res, err := l.engine.Step(dt, in)
	step := LoopStepResult{
		Result:   res,
		Err:      err,
		Delta:    dt,
		Duration: clock.Now().Sub(start),
		Budget:   l.Budget(),
		MaxDelta: l.MaxDelta(),
	}
	if err == nil {
		step.Snapshot = l.engine.Snapshot()
	}
	return step
}

// Run ticks until ctx is cancelled or the session ends. It returns nil when
// the session ended and ctx.Err() on cancellation. Aborted ticks are
// reported through AfterStep and do not stop the loop.
func (l *Loop) Run(ctx context.Context) error {
	if l == nil {
		return nil
	}
	budget := l.Budget()
	maxDt := l.MaxDelta()
	ticker := time.NewTicker(budget)
	defer ticker.Stop()

	clock := l.engine.deps.Clock
	last := clock.Now()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			now := clock.Now()
			dt := now.Sub(last)
			clamped := false
			if dt <= 0 {
				dt = budget
			} else if dt > maxDt {
				dt = maxDt
				clamped = true
			}
			last = now

			step := l.Advance(dt)
			step.ClampedDelta = clamped
			if l.hooks.AfterStep != nil {
				l.hooks.AfterStep(step)
			}
			if errors.Is(step.Err, ErrSessionEnded) || step.Result.Ended {
				if l.hooks.OnSessionEnd != nil {
					l.hooks.OnSessionEnd(step.Result)
				}
				return nil
			}
		}
	}
}
