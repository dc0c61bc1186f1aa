package mapper

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/fieldmap/internal/mapfeature"
	"github.com/roach88/fieldmap/internal/point"
	"github.com/roach88/fieldmap/internal/view"
)

var tree = point.MapPoint{ID: "p-1", Type: point.Tree}

func TestUIEventToWish(t *testing.T) {
	tests := []struct {
		name   string
		event  view.Event
		want   mapfeature.Wish
		wantOK bool
	}{
		{"point created", view.MapPointCreated{Point: tree}, mapfeature.SaveMapPoint{Point: tree}, true},
		{"show results", view.ShowResultsClicked{}, mapfeature.ShowResults{}, true},
		{"send by email", view.SendByEmailClicked{}, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := UIEventToWish(tt.event)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStateToModel(t *testing.T) {
	m, ok := StateToModel(mapfeature.State{})
	assert.True(t, ok)
	assert.NotNil(t, m.Points)
	assert.Empty(t, m.Points)

	m, _ = StateToModel(mapfeature.State{Points: []point.MapPoint{tree}})
	assert.Equal(t, []point.MapPoint{tree}, m.Points)
}

func TestNewsToAction(t *testing.T) {
	boom := errors.New("boom")

	a, ok := NewsToAction(mapfeature.ErrorNews{Err: boom})
	assert.True(t, ok)
	assert.Equal(t, view.HandleError{Err: boom}, a)

	a, ok = NewsToAction(mapfeature.ResultsNews{Points: []point.MapPoint{tree}})
	assert.True(t, ok)
	assert.Equal(t, view.ShowResults{Points: []point.MapPoint{tree}}, a)

	a, _ = NewsToAction(mapfeature.ResultsNews{})
	assert.Equal(t, view.ShowResults{}, a, "absent points stay absent")
}

func TestUnknownVariantsPanic(t *testing.T) {
	assert.Panics(t, func() { UIEventToWish(nil) })
	assert.Panics(t, func() { NewsToAction(nil) })
}
