// Package sensor provides the pull-style position and heading providers the
// views render from. Providers return ok == false when no value is known.
package sensor

import (
	"math"
	"sync"

	"github.com/roach88/fieldmap/internal/point"
)

// LocationProvider returns the device's current position, if known.
type LocationProvider interface {
	Location() (point.Location, bool)
}

// HeadingProvider returns the device's heading in degrees within
// [-180, 180], if known.
type HeadingProvider interface {
	Heading() (float64, bool)
}

// LocationFunc adapts a function to LocationProvider.
type LocationFunc func() (point.Location, bool)

func (f LocationFunc) Location() (point.Location, bool) { return f() }

// HeadingFunc adapts a function to HeadingProvider.
type HeadingFunc func() (float64, bool)

func (f HeadingFunc) Heading() (float64, bool) { return f() }

// Unknown reports no location and no heading.
type Unknown struct{}

func (Unknown) Location() (point.Location, bool) { return point.Location{}, false }
func (Unknown) Heading() (float64, bool)         { return 0, false }

// NormalizeHeading folds degrees into [-180, 180].
func NormalizeHeading(deg float64) float64 {
	if math.IsNaN(deg) || math.IsInf(deg, 0) {
		return deg
	}
	for deg < -180 {
		deg += 360
	}
	for deg > 180 {
		deg -= 360
	}
	return deg
}

// FixedLocation is a settable LocationProvider, e.g. fed from configuration
// or a command.
type FixedLocation struct {
	mu    sync.RWMutex
	loc   point.Location
	known bool
}

// NewFixedLocation returns a provider holding loc.
func NewFixedLocation(loc point.Location) *FixedLocation {
	return &FixedLocation{loc: loc, known: true}
}

func (f *FixedLocation) Location() (point.Location, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.loc, f.known
}

// Set records a new position.
func (f *FixedLocation) Set(loc point.Location) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loc = loc
	f.known = true
}

// Clear forgets the position.
func (f *FixedLocation) Clear() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.known = false
}
