package view

import (
	"fmt"
	"io"
	"slices"
	"sync"

	"github.com/roach88/fieldmap/internal/mvi"
	"github.com/roach88/fieldmap/internal/point"
	"github.com/roach88/fieldmap/internal/relay"
	"github.com/roach88/fieldmap/internal/sensor"
)

// Text is a headless view that writes to an io.Writer.
//
// Render and Execute may be called from different goroutines; output lines
// never interleave.
type Text struct {
	mu       sync.Mutex
	out      io.Writer
	location sensor.LocationProvider
	heading  sensor.HeadingProvider

	rendered bool
	last     []point.MapPoint

	events *relay.Publish[Event]
}

// TextOption configures a Text view.
type TextOption func(*Text)

// WithLocation sets the position provider shown in the status line.
func WithLocation(p sensor.LocationProvider) TextOption {
	return func(v *Text) {
		v.location = p
	}
}

// WithHeading sets the heading provider shown in the status line.
func WithHeading(p sensor.HeadingProvider) TextOption {
	return func(v *Text) {
		v.heading = p
	}
}

// NewText creates a text view writing to out.
func NewText(out io.Writer, opts ...TextOption) *Text {
	v := &Text{
		out:      out,
		location: sensor.Unknown{},
		heading:  sensor.Unknown{},
		events:   relay.NewPublish[Event](),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Subscribe makes the view a relay.Source of its events.
func (v *Text) Subscribe() *relay.Subscription[Event] {
	return v.events.Subscribe()
}

// Emit publishes a user event.
func (v *Text) Emit(e Event) {
	v.events.Publish(e)
}

// Close completes the event stream.
func (v *Text) Close() {
	v.events.Close()
}

// Render draws the marker list and status line. A model whose points equal
// the last rendered ones is not redrawn.
func (v *Text) Render(m Model) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.rendered && slices.Equal(v.last, m.Points) {
		return
	}
	v.rendered = true
	v.last = slices.Clone(m.Points)

	fmt.Fprintf(v.out, "map: %d object(s)\n", len(m.Points))
	for _, p := range m.Points {
		fmt.Fprintf(v.out, "  * %s [%s] %s\n", p.Type.Label(), p.ID, p.Location)
	}
	fmt.Fprintln(v.out, v.statusLine())
}

func (v *Text) statusLine() string {
	pos := "position: unknown"
	if loc, ok := v.location.Location(); ok {
		pos = "position: " + loc.String()
	}
	if h, ok := v.heading.Heading(); ok {
		return fmt.Sprintf("%s, heading: %.0f°", pos, sensor.NormalizeHeading(h))
	}
	return pos
}

// Execute performs a one-shot action.
func (v *Text) Execute(a Action) {
	v.mu.Lock()
	defer v.mu.Unlock()

	switch act := a.(type) {
	case HandleError:
		fmt.Fprintf(v.out, "error: %v\n", act.Err)
	case ShowResults:
		v.writeResults(act.Points)
	default:
		panic(mvi.Unhandled("view action", a))
	}
}

func (v *Text) writeResults(points []point.MapPoint) {
	if len(points) == 0 {
		fmt.Fprintln(v.out, "results: no objects marked yet")
		return
	}

	fmt.Fprintf(v.out, "results: %d object(s)\n", len(points))
	fmt.Fprintln(v.out, `  (type "share" to send by e-mail)`)
	for i, p := range points {
		fmt.Fprintf(v.out, "  %d. %s  id: %s  %s\n", i+1, p.Type.Label(), p.ID, p.Location)
	}
}
