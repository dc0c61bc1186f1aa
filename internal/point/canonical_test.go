package point

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonical_Point(t *testing.T) {
	p := MapPoint{ID: "p1", Type: Tree, Location: Location{Latitude: 30.2672, Longitude: -97.7431}}

	got, err := MarshalCanonical(p)
	require.NoError(t, err)
	assert.Equal(t,
		`{"id":"p1","location":{"latitude_e7":302672000,"longitude_e7":-977431000},"type":"TREE"}`,
		string(got))
}

func TestMarshalCanonical_List(t *testing.T) {
	points := []MapPoint{
		{ID: "b", Type: Mailbox, Location: Location{Latitude: 1, Longitude: 2}},
		{ID: "a", Type: Hydrant, Location: Location{Latitude: -1.5, Longitude: 0}},
	}

	got, err := MarshalCanonical(points)
	require.NoError(t, err)
	assert.Equal(t,
		`[{"id":"b","location":{"latitude_e7":10000000,"longitude_e7":20000000},"type":"MAILBOX"},`+
			`{"id":"a","location":{"latitude_e7":-15000000,"longitude_e7":0},"type":"HYDRANT"}]`,
		string(got))

	empty, err := MarshalCanonical([]MapPoint(nil))
	require.NoError(t, err)
	assert.Equal(t, "[]", string(empty))
}

func TestMarshalCanonical_Tree(t *testing.T) {
	v := map[string]any{
		"step":   int64(2),
		"ok":     true,
		"points": []any{MapPoint{ID: "a", Type: Tree, Location: Location{Latitude: 1, Longitude: 2}}},
	}

	got, err := MarshalCanonical(v)
	require.NoError(t, err)
	assert.Equal(t,
		`{"ok":true,"points":[{"id":"a","location":{"latitude_e7":10000000,"longitude_e7":20000000},"type":"TREE"}],"step":2}`,
		string(got))

	_, err = MarshalCanonical(map[string]any{"x": nil})
	assert.Error(t, err)
}

func TestMarshalCanonical_Strings(t *testing.T) {
	tests := []struct {
		name string
		id   string
		want string
	}{
		{"no html escaping", "<a&b>", `"<a&b>"`},
		{"quote and backslash", `a"b\c`, `"a\"b\\c"`},
		{"control characters", "a\nb\x01", `"a\nb\u0001"`},
		{"line separator literal", "a\u2028b", "\"a\u2028b\""},
		{"nfc normalization", "e\u0301", "\"\u00e9\""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MarshalCanonical(MapPoint{ID: tt.id, Type: Tree})
			require.NoError(t, err)
			assert.Contains(t, string(got), `"id":`+tt.want)
		})
	}
}

func TestMarshalCanonical_Rejects(t *testing.T) {
	_, err := MarshalCanonical(MapPoint{ID: "x", Type: 99})
	assert.ErrorIs(t, err, ErrUnknownType)

	_, err = MarshalCanonical(MapPoint{ID: "x", Type: Tree, Location: Location{Latitude: 100}})
	assert.ErrorIs(t, err, ErrInvalidPoint)

	_, err = MarshalCanonical(3.14)
	assert.Error(t, err)
}

func TestCompareUTF16(t *testing.T) {
	// U+1F600 sorts after U+FB01 in UTF-8 but before it in UTF-16, where it
	// encodes as a 0xD83D surrogate pair.
	assert.Negative(t, compareUTF16("\U0001F600", "\uFB01"))
	assert.Negative(t, compareUTF16("a", "b"))
	assert.Zero(t, compareUTF16("same", "same"))
}

func TestE7(t *testing.T) {
	assert.Equal(t, int64(302672000), E7(30.2672))
	assert.Equal(t, int64(-1), E7(-0.0000001))
	assert.Equal(t, int64(0), E7(0))
}

func TestRevision(t *testing.T) {
	a := MapPoint{ID: "a", Type: Tree, Location: Location{Latitude: 1, Longitude: 1}}
	b := MapPoint{ID: "b", Type: Hydrant, Location: Location{Latitude: 2, Longitude: 2}}

	r1 := MustRevision([]MapPoint{a, b})
	r2 := MustRevision([]MapPoint{a, b})
	assert.Equal(t, r1, r2, "revision must be deterministic")
	assert.Len(t, r1, 64)

	assert.NotEqual(t, r1, MustRevision([]MapPoint{b, a}), "order matters")
	assert.NotEqual(t, r1, MustRevision([]MapPoint{a}))
	assert.Equal(t, MustRevision(nil), MustRevision([]MapPoint{}))

	moved := a
	moved.Location.Latitude = 1.0000001
	assert.NotEqual(t, MustRevision([]MapPoint{moved}), MustRevision([]MapPoint{a}))

	_, err := Revision([]MapPoint{{ID: "bad"}})
	assert.Error(t, err)
}
