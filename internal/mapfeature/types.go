package mapfeature

import "github.com/roach88/fieldmap/internal/point"

// Wish is an external intent. Closed set: SaveMapPoint, ShowResults.
type Wish interface {
	isWish()
}

// SaveMapPoint asks to persist a new point.
type SaveMapPoint struct {
	Point point.MapPoint
}

// ShowResults asks for the list of marked points.
type ShowResults struct{}

func (SaveMapPoint) isWish() {}
func (ShowResults) isWish()  {}

// Action is the feature's internal input. Closed set: ExecuteWish,
// HandlePointsUpdated, HandleSourceFailed.
type Action interface {
	isAction()
}

// ExecuteWish wraps an accepted wish.
type ExecuteWish struct {
	Wish Wish
}

// HandlePointsUpdated carries a list pushed by the store.
type HandlePointsUpdated struct {
	Points []point.MapPoint
}

// HandleSourceFailed carries the terminal error of the store's update stream.
type HandleSourceFailed struct {
	Err error
}

func (ExecuteWish) isAction()         {}
func (HandlePointsUpdated) isAction() {}
func (HandleSourceFailed) isAction()  {}

// Effect is an actor outcome. Closed set: MapPointsUpdated, ErrorHappened,
// ResultsLoaded.
type Effect interface {
	isEffect()
}

// MapPointsUpdated replaces the point list.
type MapPointsUpdated struct {
	Points []point.MapPoint
}

// ErrorHappened reports a failed operation. State is left untouched.
type ErrorHappened struct {
	Err error
}

// ResultsLoaded carries the points to show.
type ResultsLoaded struct {
	Points []point.MapPoint
}

func (MapPointsUpdated) isEffect() {}
func (ErrorHappened) isEffect()    {}
func (ResultsLoaded) isEffect()    {}

// News is a one-shot notification. Closed set: ErrorNews, ResultsNews.
type News interface {
	isNews()
}

// ErrorNews tells the view an operation failed.
type ErrorNews struct {
	Err error
}

// ResultsNews tells the view to show the results sheet.
type ResultsNews struct {
	Points []point.MapPoint
}

func (ErrorNews) isNews()   {}
func (ResultsNews) isNews() {}

// State is the feature's state. Points is nil until the store's first push.
type State struct {
	Points []point.MapPoint
}
