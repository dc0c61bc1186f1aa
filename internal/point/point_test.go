package point

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseType(t *testing.T) {
	tests := []struct {
		in      string
		want    Type
		wantErr bool
	}{
		{"TREE", Tree, false},
		{"HYDRANT", Hydrant, false},
		{"STREETLIGHT", Streetlight, false},
		{"MAILBOX", Mailbox, false},
		{"POWER_PYLON", PowerPylon, false},
		{"tree", 0, true},
		{"BENCH", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseType(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownType)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.in, got.String())
		})
	}
}

func TestParseTypeFold(t *testing.T) {
	got, err := ParseTypeFold(" power-pylon ")
	require.NoError(t, err)
	assert.Equal(t, PowerPylon, got)

	_, err = ParseTypeFold("bench")
	assert.ErrorIs(t, err, ErrUnknownType)
}

func TestType_Labels(t *testing.T) {
	for _, typ := range Types {
		assert.True(t, typ.Valid())
		assert.NotEmpty(t, typ.Label())
		assert.NotEqual(t, typ.String(), typ.Label())
	}
	assert.Equal(t, "fire hydrant", Hydrant.Label())
	assert.False(t, Type(0).Valid())
	assert.Equal(t, "Type(0)", Type(0).String())
}

func TestMapPoint_JSON(t *testing.T) {
	p := MapPoint{ID: "p1", Type: Hydrant, Location: Location{Latitude: 30.25, Longitude: -97.75}}

	data, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"p1","type":"HYDRANT","location":{"latitude":30.25,"longitude":-97.75}}`, string(data))

	var decoded MapPoint
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, p, decoded)

	err = json.Unmarshal([]byte(`{"id":"p2","type":"BENCH"}`), &decoded)
	assert.ErrorIs(t, err, ErrUnknownType)
}

func TestMapPoint_Validate(t *testing.T) {
	valid := MapPoint{ID: "p1", Type: Tree, Location: Location{Latitude: 1, Longitude: 2}}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name string
		mut  func(p *MapPoint)
	}{
		{"empty id", func(p *MapPoint) { p.ID = "  " }},
		{"unknown type", func(p *MapPoint) { p.Type = 42 }},
		{"latitude too high", func(p *MapPoint) { p.Location.Latitude = 90.5 }},
		{"longitude too low", func(p *MapPoint) { p.Location.Longitude = -181 }},
		{"nan", func(p *MapPoint) { p.Location.Latitude = math.NaN() }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid
			tt.mut(&p)
			assert.ErrorIs(t, p.Validate(), ErrInvalidPoint)
		})
	}
}

func TestLocation_String(t *testing.T) {
	assert.Equal(t, "lat/lng: (30.25,-97.75)", Location{Latitude: 30.25, Longitude: -97.75}.String())
}

func TestFixedGenerator(t *testing.T) {
	gen := NewFixedGenerator("a", "b")
	assert.Equal(t, "a", gen.Generate())
	assert.Equal(t, "b", gen.Generate())
	assert.Panics(t, func() { gen.Generate() })
}

func TestUUIDv7Generator(t *testing.T) {
	var gen UUIDv7Generator
	a := gen.Generate()
	b := gen.Generate()

	assert.Len(t, a, 36)
	assert.Equal(t, byte('7'), a[14], "version nibble")
	assert.NotEqual(t, a, b)
}

func TestIDs(t *testing.T) {
	points := []MapPoint{{ID: "b"}, {ID: "a"}}
	assert.Equal(t, []string{"b", "a"}, IDs(points))
	assert.Equal(t, []string{"a", "b"}, IDs(SortByID(points)))
	assert.Equal(t, "b", points[0].ID, "SortByID must not mutate its input")
}
