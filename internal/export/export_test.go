package export

import (
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/fieldmap/internal/point"
)

func TestEmailBody(t *testing.T) {
	points := []point.MapPoint{
		{ID: "p-1", Type: point.Tree, Location: point.Location{Latitude: 30.2672, Longitude: -97.7431}},
		{ID: "p-2", Type: point.PowerPylon, Location: point.Location{Latitude: 1, Longitude: 2}},
	}

	want := "Name: tree, id: p-1, location: lat/lng: (30.2672,-97.7431)\n\n" +
		"Name: power line pylon, id: p-2, location: lat/lng: (1,2)\n\n"
	assert.Equal(t, want, EmailBody(points))
	assert.Equal(t, "", EmailBody(nil))
}

func TestMailtoURL(t *testing.T) {
	link := MailtoURL(Subject, "a b&c\n")

	assert.True(t, strings.HasPrefix(link, "mailto:?"))
	assert.NotContains(t, link, "+")

	u, err := url.Parse(link)
	require.NoError(t, err)
	q, err := url.ParseQuery(u.RawQuery)
	require.NoError(t, err)
	assert.Equal(t, Subject, q.Get("subject"))
	assert.Equal(t, "a b&c\n", q.Get("body"))
}
