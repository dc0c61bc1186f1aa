package harness

import (
	"github.com/roach88/fieldmap/internal/mapfeature"
	"github.com/roach88/fieldmap/internal/mvi"
	"github.com/roach88/fieldmap/internal/point"
)

// News kinds as they appear in traces and expect clauses.
const (
	NewsResults = "results"
	NewsError   = "error"
)

// StateEvent is one recorded state.
type StateEvent struct {
	Loaded bool     `json:"loaded"`
	IDs    []string `json:"ids"`
}

// NewsEvent is one recorded news item.
type NewsEvent struct {
	Kind  string   `json:"kind"`
	IDs   []string `json:"ids,omitempty"`
	Error string   `json:"error,omitempty"`
}

// Trace is everything a scenario observed.
type Trace struct {
	States []StateEvent `json:"states"`
	News   []NewsEvent  `json:"news"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every expectation held.
	Pass bool `json:"pass"`

	// Trace is the recording used for expectations and golden comparison.
	Trace Trace `json:"trace"`

	// Points is the final point list.
	Points []point.MapPoint `json:"points"`

	// Saved lists the ids the store accepted, in call order.
	Saved []string `json:"saved"`

	// Errors contains expectation failures. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  Trace{States: []StateEvent{}, News: []NewsEvent{}},
		Saved:  []string{},
		Errors: []string{},
	}
}

// AddError records a failed expectation.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

func stateEvent(s mapfeature.State) StateEvent {
	return StateEvent{Loaded: s.Points != nil, IDs: point.IDs(s.Points)}
}

func newsEvent(n mapfeature.News) NewsEvent {
	switch v := n.(type) {
	case mapfeature.ResultsNews:
		return NewsEvent{Kind: NewsResults, IDs: point.IDs(v.Points)}
	case mapfeature.ErrorNews:
		return NewsEvent{Kind: NewsError, Error: v.Err.Error()}
	default:
		panic(mvi.Unhandled("news", n))
	}
}
