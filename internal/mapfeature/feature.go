// Package mapfeature is the map screen's state machine: it keeps the list of
// marked points in sync with the store, saves new points, and announces
// errors and results to the view.
package mapfeature

import (
	"context"
	"log/slog"

	"github.com/roach88/fieldmap/internal/mvi"
	"github.com/roach88/fieldmap/internal/point"
	"github.com/roach88/fieldmap/internal/store"
)

// DataSource is the part of store.Store the feature needs.
type DataSource interface {
	Updates(ctx context.Context) <-chan store.Update
	Save(ctx context.Context, p point.MapPoint) error
}

// Feature is the assembled map feature.
type Feature = mvi.Feature[Wish, Action, Effect, State, News]

// Option configures the feature.
type Option func(*options)

type options struct {
	logger   *slog.Logger
	observer mvi.Observer
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithObserver attaches an engine observer.
func WithObserver(obs mvi.Observer) Option {
	return func(o *options) {
		o.observer = obs
	}
}

// New assembles a map feature over src. The feature is Created; call Start
// to begin receiving store updates.
func New(src DataSource, opts ...Option) *Feature {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	mviOpts := []mvi.Option{mvi.WithName("map"), mvi.WithLogger(o.logger)}
	if o.observer != nil {
		mviOpts = append(mviOpts, mvi.WithObserver(o.observer))
	}

	return mvi.New(State{}, Elements(src, o.logger), mviOpts...)
}

// Elements returns the feature's building blocks.
func Elements(src DataSource, logger *slog.Logger) mvi.Elements[Wish, Action, Effect, State, News] {
	if logger == nil {
		logger = slog.Default()
	}
	return mvi.Elements[Wish, Action, Effect, State, News]{
		WishToAction:  WishToAction,
		Actor:         Actor(src),
		Reducer:       Reduce,
		Bootstrapper:  Bootstrapper(src, logger),
		NewsPublisher: PublishNews,
	}
}

// WishToAction wraps every wish in ExecuteWish.
func WishToAction(w Wish) Action {
	return ExecuteWish{Wish: w}
}

// Bootstrapper turns the store's update stream into actions. Consecutive
// pushes of an identical list are collapsed into one.
func Bootstrapper(src DataSource, logger *slog.Logger) mvi.Bootstrapper[Action] {
	return func(ctx context.Context) <-chan Action {
		out := make(chan Action)

		go func() {
			defer close(out)

			last := ""
			for u := range src.Updates(ctx) {
				var action Action
				if u.Err != nil {
					action = HandleSourceFailed{Err: u.Err}
				} else {
					rev, err := point.Revision(u.Points)
					if err == nil && rev == last {
						logger.Debug("duplicate push collapsed", "revision", rev[:12])
						continue
					}
					last = rev
					action = HandlePointsUpdated{Points: u.Points}
				}

				select {
				case out <- action:
				case <-ctx.Done():
					return
				}
			}
		}()

		return out
	}
}

// Actor executes actions. Saving is the only asynchronous operation.
func Actor(src DataSource) mvi.Actor[State, Action, Effect] {
	return func(ctx context.Context, state State, action Action) <-chan Effect {
		switch a := action.(type) {
		case ExecuteWish:
			return executeWish(ctx, src, state, a.Wish)
		case HandlePointsUpdated:
			return mvi.Just[Effect](MapPointsUpdated{Points: a.Points})
		case HandleSourceFailed:
			return mvi.Just[Effect](ErrorHappened{Err: a.Err})
		default:
			panic(mvi.Unhandled("action", action))
		}
	}
}

func executeWish(ctx context.Context, src DataSource, state State, wish Wish) <-chan Effect {
	switch w := wish.(type) {
	case SaveMapPoint:
		if err := w.Point.Validate(); err != nil {
			return mvi.Just[Effect](ErrorHappened{Err: err})
		}
		// Success yields no effect: the new list arrives through the store's
		// update stream.
		return mvi.Async(ctx,
			func(ctx context.Context) ([]Effect, error) {
				return nil, src.Save(ctx, w.Point)
			},
			func(err error) Effect {
				return ErrorHappened{Err: err}
			},
		)
	case ShowResults:
		return mvi.Just[Effect](ResultsLoaded{Points: state.Points})
	default:
		panic(mvi.Unhandled("wish", wish))
	}
}

// Reduce folds an effect into the state. Only MapPointsUpdated changes it.
func Reduce(state State, effect Effect) State {
	switch e := effect.(type) {
	case MapPointsUpdated:
		return State{Points: e.Points}
	case ErrorHappened, ResultsLoaded:
		return state
	default:
		panic(mvi.Unhandled("effect", effect))
	}
}

// PublishNews derives news from errors and loaded results.
func PublishNews(_ Action, effect Effect, _ State) (News, bool) {
	switch e := effect.(type) {
	case ErrorHappened:
		return ErrorNews{Err: e.Err}, true
	case ResultsLoaded:
		return ResultsNews{Points: e.Points}, true
	case MapPointsUpdated:
		return nil, false
	default:
		panic(mvi.Unhandled("effect", effect))
	}
}
