package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/fieldmap/internal/mvi"
)

func TestObserver_Counts(t *testing.T) {
	reg := prometheus.NewRegistry()
	o := NewObserver(reg, "map")

	o.ActionReceived(mvi.SourceWish)
	o.ActionReceived(mvi.SourceWish)
	o.ActionReceived(mvi.SourceBootstrap)
	o.EffectFolded()
	o.NewsPublished()
	o.EffectDropped()
	o.EffectDropped()

	assert.Equal(t, 2.0, testutil.ToFloat64(o.actions.WithLabelValues("wish")))
	assert.Equal(t, 1.0, testutil.ToFloat64(o.actions.WithLabelValues("bootstrap")))
	assert.Equal(t, 1.0, testutil.ToFloat64(o.folded))
	assert.Equal(t, 1.0, testutil.ToFloat64(o.news))
	assert.Equal(t, 2.0, testutil.ToFloat64(o.dropped))

	expected := `
# HELP fieldmap_effects_dropped_total Effects discarded because the feature was disposed.
# TYPE fieldmap_effects_dropped_total counter
fieldmap_effects_dropped_total{feature="map"} 2
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "fieldmap_effects_dropped_total"))
}

func TestObserver_DuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewObserver(reg, "map")
	assert.Panics(t, func() { NewObserver(reg, "map") })
}
