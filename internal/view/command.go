package view

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/fieldmap/internal/point"
)

var (
	// ErrEmptyCommand is returned for a blank input line.
	ErrEmptyCommand = errors.New("empty command")

	// ErrUnknownCommand is returned for input that is not a command.
	ErrUnknownCommand = errors.New("unknown command")
)

// Usage describes the commands ParseCommand accepts.
const Usage = `commands:
  add <type> <latitude> <longitude>   mark an object (types: tree, hydrant, streetlight, mailbox, power_pylon)
  results                             show marked objects
  share                               send the marked objects by e-mail`

// ParseCommand turns one line of text input into an Event. New points get
// their id from gen.
func ParseCommand(line string, gen point.IDGenerator) (Event, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil, ErrEmptyCommand
	}

	switch cmd := strings.ToLower(fields[0]); cmd {
	case "add":
		if len(fields) != 4 {
			return nil, fmt.Errorf("usage: add <type> <latitude> <longitude>")
		}
		typ, err := point.ParseTypeFold(fields[1])
		if err != nil {
			return nil, err
		}
		lat, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			return nil, fmt.Errorf("latitude: %w", err)
		}
		lng, err := strconv.ParseFloat(fields[3], 64)
		if err != nil {
			return nil, fmt.Errorf("longitude: %w", err)
		}
		return MapPointCreated{Point: point.MapPoint{
			ID:       gen.Generate(),
			Type:     typ,
			Location: point.Location{Latitude: lat, Longitude: lng},
		}}, nil
	case "results", "list":
		return ShowResultsClicked{}, nil
	case "share", "email":
		return SendByEmailClicked{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, cmd)
	}
}
