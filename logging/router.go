package logging

import (
	"context"
	"log"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

// Clock stamps events published without a time.
type Clock interface {
	Now() time.Time
}

type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time {
	return f()
}

type Sink interface {
	Write(Event) error
	Close(context.Context) error
}

type NamedSink struct {
	Name string
	Sink Sink
}

const (
	defaultBufferSize = 512
	dropWarnInterval  = 5 * time.Second
)

// Router decouples the tick loop from the sinks. Publish never blocks: the
// router queue and every per-sink queue drop what does not fit and count it.
type Router struct {
	minSeverity Severity
	clock       Clock
	queue       chan Event
	workers     []*sinkWorker
	warn        *log.Logger

	stop   chan struct{}
	closed atomic.Bool
	wg     sync.WaitGroup

	forwarded    atomic.Uint64
	dropped      atomic.Uint64
	nextDropWarn atomic.Int64
}

type RouterStats struct {
	EventsTotal  uint64            `json:"eventsTotal"`
	DroppedTotal uint64            `json:"droppedTotal"`
	SinkDrops    map[string]uint64 `json:"sinkDrops,omitempty"`
	SinkFailures map[string]uint64 `json:"sinkFailures,omitempty"`
}

// NewRouter starts the dispatch goroutine and one worker per sink. A nil
// clock uses time.Now.
func NewRouter(clock Clock, cfg Config, namedSinks []NamedSink) *Router {
	if clock == nil {
		clock = ClockFunc(time.Now)
	}
	size := cfg.BufferSize
	if size <= 0 {
		size = defaultBufferSize
	}
	r := &Router{
		minSeverity: cfg.MinimumSeverity,
		clock:       clock,
		queue:       make(chan Event, size),
		warn:        log.New(os.Stderr, "[logging] ", log.LstdFlags),
		stop:        make(chan struct{}),
	}
	for _, named := range namedSinks {
		if named.Sink == nil {
			continue
		}
		r.workers = append(r.workers, &sinkWorker{
			name:   named.Name,
			sink:   named.Sink,
			events: make(chan Event, size),
		})
	}

	r.wg.Add(1 + len(r.workers))
	go r.dispatch()
	for _, w := range r.workers {
		go func(w *sinkWorker) {
			defer r.wg.Done()
			w.run(r.warn)
		}(w)
	}
	return r
}

func (r *Router) dispatch() {
	defer r.wg.Done()
	defer func() {
		for _, w := range r.workers {
			close(w.events)
		}
	}()
	for {
		select {
		case event := <-r.queue:
			r.forward(event)
		case <-r.stop:
			for {
				select {
				case event := <-r.queue:
					r.forward(event)
				default:
					return
				}
			}
		}
	}
}

func (r *Router) forward(event Event) {
	if event.Severity < r.minSeverity {
		return
	}
	if event.Time.IsZero() {
		event.Time = r.clock.Now()
	}
	r.forwarded.Add(1)
	for _, w := range r.workers {
		w.enqueue(event, r.warn)
	}
}

// Publish enqueues event. Untyped events and events published after Close
// are ignored.
func (r *Router) Publish(_ context.Context, event Event) {
	if event.Type == "" || r.closed.Load() {
		return
	}
	select {
	case r.queue <- event:
	default:
		r.dropped.Add(1)
		r.warnDrop(event)
	}
}

// warnDrop logs at most one dropped event per interval.
func (r *Router) warnDrop(event Event) {
	now := time.Now().UnixNano()
	next := r.nextDropWarn.Load()
	if now < next || !r.nextDropWarn.CompareAndSwap(next, now+int64(dropWarnInterval)) {
		return
	}
	r.warn.Printf("queue full, dropping %s at tick %d", event.Type, event.Tick)
}

// Close stops accepting events, drains the queue into the sinks and closes
// them. The first sink error is returned.
func (r *Router) Close(ctx context.Context) error {
	if !r.closed.CompareAndSwap(false, true) {
		return nil
	}
	close(r.stop)
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	var firstErr error
	for _, w := range r.workers {
		if err := w.sink.Close(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (r *Router) Stats() RouterStats {
	stats := RouterStats{
		EventsTotal:  r.forwarded.Load(),
		DroppedTotal: r.dropped.Load(),
	}
	for _, w := range r.workers {
		stats.SinkDrops = addNonZero(stats.SinkDrops, w.name, w.dropped.Load())
		stats.SinkFailures = addNonZero(stats.SinkFailures, w.name, w.failures.Load())
	}
	return stats
}

func addNonZero(m map[string]uint64, key string, n uint64) map[string]uint64 {
	if n == 0 {
		return m
	}
	if m == nil {
		m = make(map[string]uint64)
	}
	m[key] = n
	return m
}

type sinkWorker struct {
	name     string
	sink     Sink
	events   chan Event
	dropped  atomic.Uint64
	failures atomic.Uint64
}

func (w *sinkWorker) enqueue(event Event, warn *log.Logger) {
	select {
	case w.events <- cloneEvent(event):
	default:
		if w.dropped.Add(1) == 1 {
			warn.Printf("sink %s backlog full, dropping %s", w.name, event.Type)
		}
	}
}

// run writes until the queue is closed. A failing sink keeps receiving
// events; only the first failure of a streak and the recovery are logged.
func (w *sinkWorker) run(warn *log.Logger) {
	failing := false
	for event := range w.events {
		if err := w.sink.Write(event); err != nil {
			w.failures.Add(1)
			if !failing {
				warn.Printf("sink %s write failed: %v", w.name, err)
			}
			failing = true
			continue
		}
		if failing {
			warn.Printf("sink %s recovered", w.name)
			failing = false
		}
	}
}
