package point

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

var (
	// ErrUnknownType is returned when a type name is outside the closed set.
	ErrUnknownType = errors.New("unknown point type")

	// ErrInvalidPoint is returned by Validate.
	ErrInvalidPoint = errors.New("invalid map point")
)

// Type is the kind of object marked on the map.
type Type int

const (
	PowerPylon Type = iota + 1
	Streetlight
	Tree
	Mailbox
	Hydrant
)

// Types lists every Type in display order.
var Types = []Type{PowerPylon, Streetlight, Tree, Mailbox, Hydrant}

var typeNames = map[Type]string{
	PowerPylon:  "POWER_PYLON",
	Streetlight: "STREETLIGHT",
	Tree:        "TREE",
	Mailbox:     "MAILBOX",
	Hydrant:     "HYDRANT",
}

var typeLabels = map[Type]string{
	PowerPylon:  "power line pylon",
	Streetlight: "street light",
	Tree:        "tree",
	Mailbox:     "mailbox",
	Hydrant:     "fire hydrant",
}

// String returns the wire name, e.g. "POWER_PYLON".
func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

// Label returns the human-readable name shown to users.
func (t Type) Label() string {
	if label, ok := typeLabels[t]; ok {
		return label
	}
	return t.String()
}

// Valid reports whether t is one of the known types.
func (t Type) Valid() bool {
	_, ok := typeNames[t]
	return ok
}

// ParseType parses a wire name. Matching is exact; "tree" is not "TREE".
func ParseType(s string) (Type, error) {
	for t, name := range typeNames {
		if name == s {
			return t, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownType, s)
}

// ParseTypeFold is ParseType ignoring case and accepting '-' for '_'.
// Used for command-line input.
func ParseTypeFold(s string) (Type, error) {
	return ParseType(strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(s)), "-", "_"))
}

// MarshalText encodes the wire name.
func (t Type) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownType, int(t))
	}
	return []byte(t.String()), nil
}

// UnmarshalText decodes a wire name.
func (t *Type) UnmarshalText(b []byte) error {
	parsed, err := ParseType(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Location is a WGS84 coordinate in degrees.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Validate checks the coordinate ranges.
func (l Location) Validate() error {
	if math.IsNaN(l.Latitude) || l.Latitude < -90 || l.Latitude > 90 {
		return fmt.Errorf("%w: latitude %v out of range", ErrInvalidPoint, l.Latitude)
	}
	if math.IsNaN(l.Longitude) || l.Longitude < -180 || l.Longitude > 180 {
		return fmt.Errorf("%w: longitude %v out of range", ErrInvalidPoint, l.Longitude)
	}
	return nil
}

func (l Location) String() string {
	return fmt.Sprintf("lat/lng: (%v,%v)", l.Latitude, l.Longitude)
}

// MapPoint is one marked object. Points are immutable values; the ID is the
// identity and is assigned by the creator.
type MapPoint struct {
	ID       string   `json:"id"`
	Type     Type     `json:"type"`
	Location Location `json:"location"`
}

// Validate checks that p can be stored.
func (p MapPoint) Validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidPoint)
	}
	if !p.Type.Valid() {
		return fmt.Errorf("%w: %v", ErrInvalidPoint, p.Type)
	}
	return p.Location.Validate()
}

// IDs returns the ids of points in order.
func IDs(points []MapPoint) []string {
	ids := make([]string, len(points))
	for i, p := range points {
		ids[i] = p.ID
	}
	return ids
}
