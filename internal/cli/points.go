package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/roach88/fieldmap/internal/export"
	"github.com/roach88/fieldmap/internal/point"
)

// AddOptions holds flags for the add command.
type AddOptions struct {
	*RootOptions
	ID string

	// IDGenerator allows overriding id generation (for testing).
	// If nil, defaults to UUIDv7Generator.
	IDGenerator point.IDGenerator
}

// NewAddCommand creates the add command.
func NewAddCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AddOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "add <type> <latitude> <longitude>",
		Short: "Mark an object on the map",
		Long: `Save one map point directly to the configured store.

Types: power_pylon, streetlight, tree, mailbox, hydrant (any case).

Examples:
  fieldmap add tree 30.2672 -97.7431 --db ./points.db --store sqlite
  fieldmap add HYDRANT 30.27 -97.74 --id h-1 --format json`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdd(cmd.Context(), opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.ID, "id", "", "point id (generated when empty)")

	return cmd
}

func runAdd(ctx context.Context, opts *AddOptions, args []string, cmd *cobra.Command) error {
	p, err := parsePoint(args)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid point", err)
	}

	p.ID = opts.ID
	if p.ID == "" {
		gen := opts.IDGenerator
		if gen == nil {
			gen = point.UUIDv7Generator{}
		}
		p.ID = gen.Generate()
	}

	out := opts.formatter(cmd)
	if err := p.Validate(); err != nil {
		_ = out.Error(CodeInvalidPoint, err.Error(), nil)
		return WrapExitError(ExitFailure, "invalid point", err)
	}

	st, err := OpenStore(opts.Config.Store, opts.Logger)
	if err != nil {
		_ = out.Error(CodeStore, err.Error(), nil)
		return WrapExitError(ExitFailure, "failed to open store", err)
	}
	defer closeStore(st, opts.Logger)

	if err := st.Save(ctx, p); err != nil {
		_ = out.Error(CodeStore, err.Error(), nil)
		return WrapExitError(ExitFailure, "failed to save point", err)
	}

	return out.Success(p, func(w io.Writer) {
		fmt.Fprintf(w, "saved %s [%s] %s\n", p.Type.Label(), p.ID, p.Location)
	})
}

func parsePoint(args []string) (point.MapPoint, error) {
	typ, err := point.ParseTypeFold(args[0])
	if err != nil {
		return point.MapPoint{}, err
	}
	lat, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return point.MapPoint{}, fmt.Errorf("latitude: %w", err)
	}
	lng, err := strconv.ParseFloat(args[2], 64)
	if err != nil {
		return point.MapPoint{}, fmt.Errorf("longitude: %w", err)
	}
	return point.MapPoint{Type: typ, Location: point.Location{Latitude: lat, Longitude: lng}}, nil
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the marked objects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			points, err := listPoints(cmd.Context(), rootOpts, cmd)
			if err != nil {
				return err
			}
			return rootOpts.formatter(cmd).Success(points, func(w io.Writer) {
				if len(points) == 0 {
					fmt.Fprintln(w, "no objects marked yet")
					return
				}
				for i, p := range points {
					fmt.Fprintf(w, "%d. %s  id: %s  %s\n", i+1, p.Type.Label(), p.ID, p.Location)
				}
			})
		},
	}
}

// ShareMessage is the share command's JSON payload.
type ShareMessage struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
	Mailto  string `json:"mailto"`
}

// NewShareCommand creates the share command.
func NewShareCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "share",
		Short: "Print the share-by-email message for the marked objects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			points, err := listPoints(cmd.Context(), rootOpts, cmd)
			if err != nil {
				return err
			}

			out := rootOpts.formatter(cmd)
			if len(points) == 0 {
				_ = out.Error(CodeNoPoints, "no objects marked yet", nil)
				return NewExitError(ExitFailure, "nothing to share")
			}

			body := export.EmailBody(points)
			msg := ShareMessage{
				Subject: export.Subject,
				Body:    body,
				Mailto:  export.MailtoURL(export.Subject, body),
			}
			return out.Success(msg, func(w io.Writer) {
				fmt.Fprintf(w, "Subject: %s\n\n%s%s\n", msg.Subject, msg.Body, msg.Mailto)
			})
		},
	}
}

func listPoints(ctx context.Context, opts *RootOptions, cmd *cobra.Command) ([]point.MapPoint, error) {
	out := opts.formatter(cmd)

	st, err := OpenStore(opts.Config.Store, opts.Logger)
	if err != nil {
		_ = out.Error(CodeStore, err.Error(), nil)
		return nil, WrapExitError(ExitFailure, "failed to open store", err)
	}
	defer closeStore(st, opts.Logger)

	points, err := st.List(ctx)
	if err != nil {
		_ = out.Error(CodeStore, err.Error(), nil)
		return nil, WrapExitError(ExitFailure, "failed to list points", err)
	}
	return points, nil
}
