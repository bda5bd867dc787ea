package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"hostelfees/internal/amqp"
	"hostelfees/internal/core"
	"hostelfees/internal/services"
	"hostelfees/internal/storage"
	"hostelfees/internal/worker"
)

// Reports is the read side hostelctl prints from.
type Reports interface {
	GetSummary(ctx context.Context, sheet string) (core.Summary, error)
	GetRoomWise(ctx context.Context, sheet string) (core.RoomWise, error)
	GetYearWise(ctx context.Context, sheet string) (core.YearWise, error)
	ListSheets(ctx context.Context) (services.SheetListing, error)
}

// Mirrorer copies every valid sheet into the local mirror.
type Mirrorer interface {
	MirrorAll(ctx context.Context, requestID string) (worker.MirrorReport, error)
}

// MirrorStatus reports when a sheet was last mirrored.
type MirrorStatus interface {
	Status(ctx context.Context, sheet string) (storage.SheetStatus, error)
}

// Publisher sends mirror requests to the worker.
type Publisher interface {
	PublishMirrorRequest(ctx context.Context, req *amqp.MirrorRequest) error
}

// Dependencies opens the collaborators a command needs. Each opener returns
// a cleanup func the command calls when done.
type Dependencies struct {
	Reports   func(ctx context.Context) (Reports, func() error, error)
	Mirror    func(ctx context.Context) (Mirrorer, func() error, error)
	Status    func(ctx context.Context) (MirrorStatus, func() error, error)
	Publisher func(ctx context.Context) (Publisher, func() error, error)
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand(deps Dependencies) *cobra.Command {
	var output string

	rootCmd := &cobra.Command{
		Use:   "hostelctl",
		Short: "Hostel food fee reports and mirror control",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if output != outputJSON && output != outputTable {
				return fmt.Errorf("invalid --output %q: must be %s or %s", output, outputJSON, outputTable)
			}
			return nil
		},
	}
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", outputTable, "output format: table or json")

	format := func() string { return output }
	rootCmd.AddCommand(
		newSummaryCommand(deps, format),
		newRoomWiseCommand(deps, format),
		newYearWiseCommand(deps, format),
		newSheetsCommand(deps, format),
		newDashboardCommand(deps, format),
		newMirrorCommand(deps),
	)

	return rootCmd
}

// openReports opens the report source and hands back its cleanup.
func openReports(ctx context.Context, deps Dependencies) (Reports, func() error, error) {
	if deps.Reports == nil {
		return nil, nil, fmt.Errorf("reports: %w", core.ErrDataSourceUnavailable)
	}
	return deps.Reports(ctx)
}

func closeQuietly(cleanup func() error) {
	if cleanup != nil {
		_ = cleanup()
	}
}
