// Package view holds the map screen's view contract and a headless text
// rendition of it.
//
// A view consumes Models (rendered continuously) and Actions (one-shot), and
// produces Events from user input.
package view

import "github.com/roach88/fieldmap/internal/point"

// Event is user input. Closed set: MapPointCreated, ShowResultsClicked,
// SendByEmailClicked.
type Event interface {
	isEvent()
}

// MapPointCreated is emitted when the user marks a new object.
type MapPointCreated struct {
	Point point.MapPoint
}

// ShowResultsClicked is emitted when the user asks for the results sheet.
type ShowResultsClicked struct{}

// SendByEmailClicked is emitted from the results sheet's share control.
type SendByEmailClicked struct{}

func (MapPointCreated) isEvent()    {}
func (ShowResultsClicked) isEvent() {}
func (SendByEmailClicked) isEvent() {}

// Model is what the view renders. Points is never nil.
type Model struct {
	Points []point.MapPoint
}

// Action is a one-shot command for the view. Closed set: HandleError,
// ShowResults.
type Action interface {
	isAction()
}

// HandleError shows an error message.
type HandleError struct {
	Err error
}

// ShowResults opens the results sheet. Points may be nil when no list has
// been received yet.
type ShowResults struct {
	Points []point.MapPoint
}

func (HandleError) isAction() {}
func (ShowResults) isAction() {}
