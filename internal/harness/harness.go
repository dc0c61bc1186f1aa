package harness

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/roach88/fieldmap/internal/logging"
	"github.com/roach88/fieldmap/internal/mapfeature"
	"github.com/roach88/fieldmap/internal/point"
	"github.com/roach88/fieldmap/internal/store/memory"
)

// Defaults for Run.
const (
	DefaultTimeout = 2 * time.Second
	DefaultQuiet   = 50 * time.Millisecond
)

// Option configures Run.
type Option func(*Harness)

// WithLogger sets the logger given to the feature and store.
// Defaults to a logger that discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Harness) {
		h.logger = logger
	}
}

// WithTimeout bounds each await step.
func WithTimeout(d time.Duration) Option {
	return func(h *Harness) {
		h.timeout = d
	}
}

// WithQuiet sets how long the feature must stay silent before the final
// expectations are checked.
func WithQuiet(d time.Duration) Option {
	return func(h *Harness) {
		h.quiet = d
	}
}

// Harness is the scenario execution engine.
type Harness struct {
	store   *memory.Store
	feature *mapfeature.Feature
	rec     *recorder
	timeout time.Duration
	quiet   time.Duration
	logger  *slog.Logger
}

// Run executes a scenario against a fresh feature and store.
//
// Execution flow:
//  1. seed an in-memory store with the initial points
//  2. subscribe the recorder, then start the feature
//  3. execute the steps in order
//  4. wait for the feature to go quiet and evaluate expectations
//
// The returned error reports a scenario that could not be set up; failed
// expectations are reported in the Result.
func Run(ctx context.Context, scenario *Scenario, opts ...Option) (*Result, error) {
	h := &Harness{timeout: DefaultTimeout, quiet: DefaultQuiet}
	for _, opt := range opts {
		opt(h)
	}
	if h.logger == nil {
		h.logger = logging.NewNop()
	}

	initial := make([]point.MapPoint, 0, len(scenario.Initial))
	for i, p := range scenario.Initial {
		mp, err := p.MapPoint()
		if err != nil {
			return nil, fmt.Errorf("initial[%d]: %w", i, err)
		}
		initial = append(initial, mp)
	}

	h.store = memory.New(initial, memory.WithLogger(h.logger))
	defer h.store.Close()

	h.feature = mapfeature.New(h.store, mapfeature.WithLogger(h.logger))
	h.rec = newRecorder()
	pumps := h.rec.attach(h.feature)

	h.feature.Start()

	result := NewResult()
	for i, step := range scenario.Steps {
		if err := h.execute(ctx, step); err != nil {
			result.AddError(fmt.Sprintf("steps[%d] (%s): %v", i, step.Kind(), err))
			break
		}
		h.logger.Debug("scenario step completed", "scenario", scenario.Name, "step", i, "kind", step.Kind())
	}

	h.rec.settle(ctx, h.quiet, h.timeout)

	result.Points = h.feature.State().Points
	result.Saved = point.IDs(h.store.Saved())

	h.feature.Dispose()
	pumps.Wait()
	result.Trace = h.rec.snapshot()

	for _, msg := range EvaluateExpect(result, scenario.Expect) {
		result.AddError(msg)
	}

	h.logger.Info("scenario finished",
		"scenario", scenario.Name,
		"pass", result.Pass,
		"states", len(result.Trace.States),
		"news", len(result.Trace.News),
	)
	return result, nil
}

func (h *Harness) execute(ctx context.Context, step Step) error {
	switch step.Kind() {
	case StepPush:
		points := make([]point.MapPoint, 0, len(*step.Push))
		for _, p := range *step.Push {
			mp, err := p.MapPoint()
			if err != nil {
				return err
			}
			points = append(points, mp)
		}
		h.store.Push(points)
	case StepPushRecords:
		records := make([][]byte, len(step.PushRecords))
		for i, r := range step.PushRecords {
			records[i] = []byte(r)
		}
		// A malformed batch fails the update stream; that is the
		// behaviour under test, not a harness error.
		if err := h.store.PushRecords(records); err != nil {
			h.logger.Debug("pushed records rejected", "error", err)
		}
	case StepFailUpdates:
		h.store.FailUpdates(errors.New(step.FailUpdates))
	case StepSave:
		t, err := point.ParseType(step.Save.Type)
		if err != nil {
			return err
		}
		h.feature.Accept(mapfeature.SaveMapPoint{Point: point.MapPoint{
			ID:       step.Save.ID,
			Type:     t,
			Location: point.Location{Latitude: step.Save.Latitude, Longitude: step.Save.Longitude},
		}})
	case StepShowResults:
		h.feature.Accept(mapfeature.ShowResults{})
	case StepFailNextSave:
		h.store.FailNextSave(errors.New(step.FailNextSave))
	case StepAwait:
		return h.rec.await(ctx, *step.Await, h.timeout)
	default:
		return fmt.Errorf("unknown step kind")
	}
	return nil
}

// recorder collects what the feature emits.
type recorder struct {
	mu      sync.Mutex
	trace   Trace
	changed chan struct{} // closed and replaced on every record
}

func newRecorder() *recorder {
	return &recorder{
		trace:   Trace{States: []StateEvent{}, News: []NewsEvent{}},
		changed: make(chan struct{}),
	}
}

// attach subscribes to f. The returned group finishes once f is disposed.
func (r *recorder) attach(f *mapfeature.Feature) *sync.WaitGroup {
	states := f.States()
	news := f.News()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for s := range states.C() {
			r.record(func(t *Trace) { t.States = append(t.States, stateEvent(s)) })
		}
	}()
	go func() {
		defer wg.Done()
		for n := range news.C() {
			r.record(func(t *Trace) { t.News = append(t.News, newsEvent(n)) })
		}
	}()
	return &wg
}

func (r *recorder) record(fn func(*Trace)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn(&r.trace)
	close(r.changed)
	r.changed = make(chan struct{})
}

func (r *recorder) counts() (states, news int, changed <-chan struct{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.trace.States), len(r.trace.News), r.changed
}

func (r *recorder) snapshot() Trace {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Trace{
		States: append([]StateEvent{}, r.trace.States...),
		News:   append([]NewsEvent{}, r.trace.News...),
	}
}

func (r *recorder) await(ctx context.Context, want Await, timeout time.Duration) error {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	for {
		states, news, changed := r.counts()
		if states >= want.States && news >= want.News {
			return nil
		}

		select {
		case <-changed:
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			return fmt.Errorf("timed out after %v waiting for %d states and %d news (have %d and %d)",
				timeout, want.States, want.News, states, news)
		}
	}
}

// settle returns once nothing was recorded for quiet, or after timeout.
func (r *recorder) settle(ctx context.Context, quiet, timeout time.Duration) {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	for {
		_, _, changed := r.counts()
		idle := time.NewTimer(quiet)

		select {
		case <-changed:
			idle.Stop()
		case <-idle.C:
			return
		case <-ctx.Done():
			idle.Stop()
			return
		case <-deadline.C:
			idle.Stop()
			return
		}
	}
}
