package sensor

import (
	"math"
	"sync"
)

// Rotation is the screen rotation in quarter turns, as reported by the
// display.
type Rotation int

const (
	Rotation0 Rotation = iota
	Rotation90
	Rotation180
	Rotation270
)

// correction is the heading offset the rotation implies.
func (r Rotation) correction() float64 {
	switch r {
	case Rotation90:
		return 90
	case Rotation180:
		return 180
	case Rotation270:
		return -90
	default:
		return 0
	}
}

// Compass turns raw azimuth readings into a heading.
//
// Each reading is corrected for screen rotation and magnetic declination
// and passed through sin/cos so the result is continuous across ±180.
type Compass struct {
	mu          sync.RWMutex
	rotation    Rotation
	declination float64
	heading     float64
	known       bool
}

// NewCompass returns a compass with no reading.
func NewCompass() *Compass {
	return &Compass{}
}

// SetRotation records the current screen rotation.
func (c *Compass) SetRotation(r Rotation) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rotation = r
}

// SetDeclination records the magnetic declination in degrees.
func (c *Compass) SetDeclination(deg float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.declination = deg
}

// Update feeds one azimuth reading in degrees.
func (c *Compass) Update(azimuth float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	value := azimuth + c.rotation.correction() + c.declination
	rad := value * math.Pi / 180
	c.heading = NormalizeHeading(math.Atan2(math.Sin(rad), math.Cos(rad)) * 180 / math.Pi)
	c.known = true
}

// Reset forgets the last reading, as when the sensor is unregistered.
func (c *Compass) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.known = false
}

// Heading implements HeadingProvider.
func (c *Compass) Heading() (float64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.heading, c.known
}
