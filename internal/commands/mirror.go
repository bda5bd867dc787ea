package commands

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"hostelfees/internal/amqp"
	"hostelfees/internal/core"
)

func newMirrorCommand(deps Dependencies) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mirror",
		Short: "Copy sheets into the local SQLite mirror",
	}
	cmd.AddCommand(newMirrorRunCommand(deps), newMirrorRequestCommand(deps), newMirrorStatusCommand(deps))
	return cmd
}

func newMirrorRunCommand(deps Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Mirror every valid sheet once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if deps.Mirror == nil {
				return errors.New("mirror is not configured")
			}
			mirror, cleanup, err := deps.Mirror(cmd.Context())
			if err != nil {
				return err
			}
			defer closeQuietly(cleanup)

			report, err := mirror.MirrorAll(cmd.Context(), "hostelctl")
			out := cmd.OutOrStdout()
			for _, name := range report.Mirrored {
				fmt.Fprintf(out, "mirrored %s\n", name)
			}
			for _, name := range slices.Sorted(maps.Keys(report.Failed)) {
				fmt.Fprintf(out, "failed   %s: %v\n", name, report.Failed[name])
			}
			return err
		},
	}
}

func newMirrorRequestCommand(deps Dependencies) *cobra.Command {
	var sheet string
	cmd := &cobra.Command{
		Use:   "request",
		Short: "Ask the mirror worker to copy a sheet (all sheets when --sheet is empty)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if sheet != "" {
				name := core.CanonicalSheetName(sheet)
				if !core.IsValidSheetName(name) {
					return &core.InvalidSheetNameError{Input: sheet}
				}
				sheet = name
			}
			if deps.Publisher == nil {
				return errors.New("AMQP is not configured: set AMQP_URL")
			}
			pub, cleanup, err := deps.Publisher(cmd.Context())
			if err != nil {
				return err
			}
			defer closeQuietly(cleanup)

			req := amqp.NewMirrorRequest(sheet)
			if err := pub.PublishMirrorRequest(cmd.Context(), req); err != nil {
				return fmt.Errorf("publish mirror request: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "requested mirror %s (id %s)\n", describeSheet(sheet), req.ID)
			return nil
		},
	}
	cmd.Flags().StringVarP(&sheet, "sheet", "s", "", "sheet to mirror (default: every valid sheet)")
	return cmd
}

func newMirrorStatusCommand(deps Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "status <sheet>",
		Short: "Show when a sheet was last mirrored",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := core.CanonicalSheetName(args[0])
			if !core.IsValidSheetName(name) {
				return &core.InvalidSheetNameError{Input: args[0]}
			}
			if deps.Status == nil {
				return errors.New("mirror is not configured")
			}
			status, cleanup, err := deps.Status(cmd.Context())
			if err != nil {
				return err
			}
			defer closeQuietly(cleanup)

			st, err := status.Status(cmd.Context(), name)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d rows mirrored at %s (request %s)\n",
				st.Sheet.Name, st.RowCount, st.MirroredAt.UTC().Format(time.RFC3339), st.RequestID)
			return nil
		},
	}
}

func describeSheet(sheet string) string {
	if sheet == "" {
		return "of all sheets"
	}
	return "of " + sheet
}
