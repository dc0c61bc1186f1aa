// Package mapper converts between the map feature and its views.
package mapper

import (
	"github.com/roach88/fieldmap/internal/mapfeature"
	"github.com/roach88/fieldmap/internal/mvi"
	"github.com/roach88/fieldmap/internal/point"
	"github.com/roach88/fieldmap/internal/view"
)

// UIEventToWish maps a view event to a feature wish. SendByEmailClicked is
// handled outside the feature and maps to no wish.
func UIEventToWish(e view.Event) (mapfeature.Wish, bool) {
	switch ev := e.(type) {
	case view.MapPointCreated:
		return mapfeature.SaveMapPoint{Point: ev.Point}, true
	case view.ShowResultsClicked:
		return mapfeature.ShowResults{}, true
	case view.SendByEmailClicked:
		return nil, false
	default:
		panic(mvi.Unhandled("view event", e))
	}
}

// StateToModel maps feature state to a view model. A state that has not
// received points yet renders as an empty list.
func StateToModel(s mapfeature.State) (view.Model, bool) {
	points := s.Points
	if points == nil {
		points = []point.MapPoint{}
	}
	return view.Model{Points: points}, true
}

// NewsToAction maps feature news to a view action.
func NewsToAction(n mapfeature.News) (view.Action, bool) {
	switch news := n.(type) {
	case mapfeature.ErrorNews:
		return view.HandleError{Err: news.Err}, true
	case mapfeature.ResultsNews:
		return view.ShowResults{Points: news.Points}, true
	default:
		panic(mvi.Unhandled("news", n))
	}
}
