package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/fieldmap/internal/point"
)

// ErrMalformedRecord is returned for a record that is not valid JSON or is
// missing a required field.
var ErrMalformedRecord = errors.New("malformed point record")

// wireRecord mirrors the record format with pointer fields so missing keys
// can be told apart from zero values.
type wireRecord struct {
	ID       *string       `json:"id"`
	Type     *string       `json:"type"`
	Location *wireLocation `json:"location"`
}

type wireLocation struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// EncodeRecord encodes p in the record format.
func EncodeRecord(p point.MapPoint) ([]byte, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode record %q: %w", p.ID, err)
	}
	return data, nil
}

// DecodeRecord decodes one record.
//
// Returns an error wrapping point.ErrUnknownType when the type is outside
// the known set, and ErrMalformedRecord for any structural problem.
func DecodeRecord(data []byte) (point.MapPoint, error) {
	var rec wireRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return point.MapPoint{}, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}

	switch {
	case rec.ID == nil:
		return point.MapPoint{}, fmt.Errorf("%w: missing id", ErrMalformedRecord)
	case rec.Type == nil:
		return point.MapPoint{}, fmt.Errorf("%w: record %q: missing type", ErrMalformedRecord, *rec.ID)
	case rec.Location == nil || rec.Location.Latitude == nil || rec.Location.Longitude == nil:
		return point.MapPoint{}, fmt.Errorf("%w: record %q: missing location", ErrMalformedRecord, *rec.ID)
	}

	typ, err := point.ParseType(*rec.Type)
	if err != nil {
		return point.MapPoint{}, fmt.Errorf("record %q: %w", *rec.ID, err)
	}

	p := point.MapPoint{
		ID:   *rec.ID,
		Type: typ,
		Location: point.Location{
			Latitude:  *rec.Location.Latitude,
			Longitude: *rec.Location.Longitude,
		},
	}
	if err := p.Validate(); err != nil {
		return point.MapPoint{}, fmt.Errorf("%w: record %q: %w", ErrMalformedRecord, p.ID, err)
	}
	return p, nil
}

// DecodeRecords decodes a snapshot of records into a list ordered by id.
// Records of unknown type are skipped and logged at warn level; any
// malformed record fails the whole snapshot.
func DecodeRecords(records [][]byte, logger *slog.Logger) ([]point.MapPoint, error) {
	if logger == nil {
		logger = slog.Default()
	}

	points := make([]point.MapPoint, 0, len(records))
	for i, data := range records {
		p, err := DecodeRecord(data)
		if errors.Is(err, point.ErrUnknownType) {
			logger.Warn("skipping record", "index", i, "error", err)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		points = append(points, p)
	}

	return point.SortByID(points), nil
}
