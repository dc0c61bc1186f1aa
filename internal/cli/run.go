package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/fieldmap/internal/app"
	"github.com/roach88/fieldmap/internal/binder"
	"github.com/roach88/fieldmap/internal/config"
	"github.com/roach88/fieldmap/internal/mapfeature"
	"github.com/roach88/fieldmap/internal/point"
	"github.com/roach88/fieldmap/internal/sensor"
	"github.com/roach88/fieldmap/internal/view"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions

	// Wait bounds how long a command waits for the feature to answer.
	Wait time.Duration

	// IDGenerator allows overriding id generation (for testing).
	// If nil, defaults to UUIDv7Generator.
	IDGenerator point.IDGenerator
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start an interactive map session",
		Long: `Start a text map session on standard input.

The session shows the marked objects whenever the store changes and
accepts one command per line:

` + view.Usage + `
  quit                                end the session

Example:
  fieldmap run --store sqlite --db ./points.db`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSession(opts, cmd)
		},
	}

	cmd.Flags().DurationVar(&opts.Wait, "wait", 5*time.Second, "how long a command waits for an answer")

	return cmd
}

func runSession(opts *RunOptions, cmd *cobra.Command) error {
	logger := opts.Logger

	st, err := OpenStore(opts.Config.Store, logger)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to open store", err)
	}
	defer closeStore(st, logger)

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, stop := signal.NotifyContext(parentCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := newQuietWriter(cmd.OutOrStdout())
	location, heading := sensors(opts.Config.Sensor)
	v := view.NewText(out, view.WithLocation(location), view.WithHeading(heading))
	f := mapfeature.New(st, mapfeature.WithLogger(logger))

	scope := binder.NewScope()
	if _, err := app.Bind(scope, f, v, printShare(out), logger); err != nil {
		return WrapExitError(ExitFailure, "failed to bind view", err)
	}

	f.Start()
	logger.Info("session started", "store", opts.Config.Store.Backend)

	gen := opts.IDGenerator
	if gen == nil {
		gen = point.UUIDv7Generator{}
	}
	s := &session{feature: f, view: v, out: out, wait: opts.Wait}
	s.loop(ctx, cmd.InOrStdin(), gen)

	// Let the bindings finish drawing before tearing them down.
	out.settle(50*time.Millisecond, time.Second)
	scope.End()
	f.Dispose()
	v.Close()

	logger.Info("session ended")
	return nil
}

// sensors builds the status line providers from the configured readings.
func sensors(cfg config.Sensor) (sensor.LocationProvider, sensor.HeadingProvider) {
	var location sensor.LocationProvider = sensor.Unknown{}
	var heading sensor.HeadingProvider = sensor.Unknown{}

	if cfg.Location != nil {
		location = sensor.NewFixedLocation(point.Location{
			Latitude:  cfg.Location.Latitude,
			Longitude: cfg.Location.Longitude,
		})
	}
	if cfg.Heading != nil {
		compass := sensor.NewCompass()
		compass.Update(*cfg.Heading)
		heading = compass
	}
	return location, heading
}

func printShare(w io.Writer) app.ShareFunc {
	return func(subject, body, mailto string) {
		fmt.Fprintf(w, "share: %s\n%s%s\n", subject, body, mailto)
	}
}

// session feeds input lines to the view one command at a time. Each command
// waits for the feature's answer so output follows input order.
type session struct {
	feature *mapfeature.Feature
	view    *view.Text
	out     io.Writer
	wait    time.Duration
}

func (s *session) loop(ctx context.Context, in io.Reader, gen point.IDGenerator) {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		var line string
		select {
		case <-ctx.Done():
			return
		case l, ok := <-lines:
			if !ok {
				return
			}
			line = strings.TrimSpace(l)
		}

		switch strings.ToLower(line) {
		case "":
			continue
		case "quit", "exit":
			return
		case "help":
			fmt.Fprintln(s.out, view.Usage)
			continue
		}

		e, err := view.ParseCommand(line, gen)
		if err != nil {
			fmt.Fprintf(s.out, "error: %v\n", err)
			if errors.Is(err, view.ErrUnknownCommand) {
				fmt.Fprintln(s.out, view.Usage)
			}
			continue
		}
		s.dispatch(ctx, e)
	}
}

func (s *session) dispatch(ctx context.Context, e view.Event) {
	states := s.feature.States()
	defer states.Close()
	news := s.feature.News()
	defer news.Close()

	s.view.Emit(e)

	var saved string
	switch ev := e.(type) {
	case view.MapPointCreated:
		saved = ev.Point.ID
	case view.ShowResultsClicked:
	default:
		return
	}

	timeout := time.NewTimer(s.wait)
	defer timeout.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timeout.C:
			fmt.Fprintln(s.out, "error: no answer from the map")
			return
		case <-news.C():
			// Any news answers the command; a closed stream means disposal.
			return
		case state, ok := <-states.C():
			if !ok || (saved != "" && slices.Contains(point.IDs(state.Points), saved)) {
				return
			}
		}
	}
}
