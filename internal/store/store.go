package store

import (
	"context"
	"errors"

	"github.com/roach88/fieldmap/internal/point"
)

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("store closed")

// Update is one value of an Updates stream.
//
// Exactly one of Points or Err is meaningful. An Update carrying Err is the
// last value before the stream closes.
type Update struct {
	Points []point.MapPoint
	Err    error
}

// Store is the map point store collaborator.
type Store interface {
	// Updates streams the full point list: first the current list, then the
	// list after every change. The channel closes when ctx is cancelled, the
	// store is closed, or after a terminal error Update.
	Updates(ctx context.Context) <-chan Update

	// Save persists p, replacing any point with the same id.
	Save(ctx context.Context, p point.MapPoint) error

	// List returns the current point list.
	List(ctx context.Context) ([]point.MapPoint, error)

	// Close releases resources and ends every open Updates stream.
	Close() error
}
