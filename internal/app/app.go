// Package app wires the map feature to a view for the lifetime of a scope.
package app

import (
	"log/slog"

	"github.com/roach88/fieldmap/internal/binder"
	"github.com/roach88/fieldmap/internal/export"
	"github.com/roach88/fieldmap/internal/mapfeature"
	"github.com/roach88/fieldmap/internal/mapper"
	"github.com/roach88/fieldmap/internal/point"
	"github.com/roach88/fieldmap/internal/relay"
	"github.com/roach88/fieldmap/internal/view"
)

// View is what a map screen must provide.
type View interface {
	relay.Source[view.Event]
	Render(view.Model)
	Execute(view.Action)
}

// ShareFunc delivers the share-by-email message.
type ShareFunc func(subject, body, mailto string)

// Bind connects f and v under lc:
//   - view events become feature wishes
//   - feature states are rendered
//   - feature news is executed by the view
//   - share requests are answered from the current state via share
//
// The returned binder is released when lc ends.
func Bind(lc binder.Lifecycle, f *mapfeature.Feature, v View, share ShareFunc, logger *slog.Logger) (*binder.Binder, error) {
	if logger == nil {
		logger = slog.Default()
	}
	b := binder.New(lc, binder.WithLogger(logger))

	bindings := []func() error{
		func() error { return binder.Bind(b, relay.Source[view.Event](v), mapper.UIEventToWish, f.Accept) },
		func() error { return binder.Bind(b, relay.Source[mapfeature.State](f), mapper.StateToModel, v.Render) },
		func() error { return binder.Bind(b, f.NewsSource(), mapper.NewsToAction, v.Execute) },
		func() error {
			return binder.Connect(b, relay.Source[view.Event](v), func(e view.Event) {
				if _, ok := e.(view.SendByEmailClicked); ok {
					Share(f.State().Points, share)
				}
			})
		},
	}
	for _, bind := range bindings {
		if err := bind(); err != nil {
			b.Release()
			return nil, err
		}
	}

	logger.Debug("screen bound", "connections", b.Len())
	return b, nil
}

// Share formats points and hands them to share. Nothing is shared before
// the first list has arrived.
func Share(points []point.MapPoint, share ShareFunc) bool {
	if points == nil || share == nil {
		return false
	}
	body := export.EmailBody(points)
	share(export.Subject, body, export.MailtoURL(export.Subject, body))
	return true
}
