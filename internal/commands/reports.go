package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"hostelfees/internal/core"
	apphttp "hostelfees/internal/http"
	"hostelfees/internal/services"
)

func newSummaryCommand(deps Dependencies, format func() string) *cobra.Command {
	var sheet string
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print the sheet-wide payment summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reports, cleanup, err := openReports(cmd.Context(), deps)
			if err != nil {
				return err
			}
			defer closeQuietly(cleanup)

			s, err := reports.GetSummary(cmd.Context(), sheet)
			if err != nil {
				return fmt.Errorf("summary error: %w", err)
			}
			if format() == outputJSON {
				return writeJSON(cmd.OutOrStdout(), apphttp.SummaryPayload(s))
			}
			return writeSummaryTable(cmd.OutOrStdout(), s)
		},
	}
	addSheetFlag(cmd, &sheet)
	return cmd
}

func newRoomWiseCommand(deps Dependencies, format func() string) *cobra.Command {
	var sheet string
	cmd := &cobra.Command{
		Use:   "roomwise",
		Short: "Print payment totals per room",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reports, cleanup, err := openReports(cmd.Context(), deps)
			if err != nil {
				return err
			}
			defer closeQuietly(cleanup)

			rw, err := reports.GetRoomWise(cmd.Context(), sheet)
			if err != nil {
				return fmt.Errorf("roomwise error: %w", err)
			}
			if format() == outputJSON {
				return writeJSON(cmd.OutOrStdout(), apphttp.RoomWisePayload(rw))
			}
			return writeBreakdownTable(cmd.OutOrStdout(), rw.Sheet, "ROOM", "PAID AMOUNT", rw.Rooms)
		},
	}
	addSheetFlag(cmd, &sheet)
	return cmd
}

func newYearWiseCommand(deps Dependencies, format func() string) *cobra.Command {
	var sheet string
	cmd := &cobra.Command{
		Use:   "yearwise",
		Short: "Print payment totals per year of study",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reports, cleanup, err := openReports(cmd.Context(), deps)
			if err != nil {
				return err
			}
			defer closeQuietly(cleanup)

			yw, err := reports.GetYearWise(cmd.Context(), sheet)
			if err != nil {
				return fmt.Errorf("yearwise error: %w", err)
			}
			if format() == outputJSON {
				return writeJSON(cmd.OutOrStdout(), apphttp.YearWisePayload(yw))
			}
			return writeBreakdownTable(cmd.OutOrStdout(), yw.Sheet, "YEAR", "COLLECTED", yw.Years)
		},
	}
	addSheetFlag(cmd, &sheet)
	return cmd
}

func newSheetsCommand(deps Dependencies, format func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "sheets",
		Short: "List the month sheets available in the spreadsheet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reports, cleanup, err := openReports(cmd.Context(), deps)
			if err != nil {
				return err
			}
			defer closeQuietly(cleanup)

			listing, err := reports.ListSheets(cmd.Context())
			if err != nil {
				return fmt.Errorf("metadata error: %w", err)
			}
			if format() == outputJSON {
				return writeJSON(cmd.OutOrStdout(), apphttp.SheetsPayload(listing))
			}
			return writeSheetsTable(cmd.OutOrStdout(), listing)
		},
	}
}

// dashboard is everything the dashboard page loads for one sheet.
type dashboard struct {
	Summary  core.Summary
	RoomWise core.RoomWise
	YearWise core.YearWise
	Sheets   services.SheetListing
}

type dashboardPayload struct {
	Summary        any     `json:"summary"`
	RoomWise       any     `json:"room_wise"`
	YearWise       any     `json:"year_wise"`
	Sheets         any     `json:"sheets"`
	CollectionRate float64 `json:"collection_rate"`
}

func newDashboardCommand(deps Dependencies, format func() string) *cobra.Command {
	var sheet string
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Print summary, room and year totals and the sheet list together",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reports, cleanup, err := openReports(cmd.Context(), deps)
			if err != nil {
				return err
			}
			defer closeQuietly(cleanup)

			var d dashboard
			g, ctx := errgroup.WithContext(cmd.Context())
			g.Go(func() (err error) {
				d.Summary, err = reports.GetSummary(ctx, sheet)
				return err
			})
			g.Go(func() (err error) {
				d.RoomWise, err = reports.GetRoomWise(ctx, sheet)
				return err
			})
			g.Go(func() (err error) {
				d.YearWise, err = reports.GetYearWise(ctx, sheet)
				return err
			})
			g.Go(func() (err error) {
				d.Sheets, err = reports.ListSheets(ctx)
				return err
			})
			if err := g.Wait(); err != nil {
				return fmt.Errorf("dashboard error: %w", err)
			}

			if format() == outputJSON {
				return writeJSON(cmd.OutOrStdout(), dashboardPayload{
					Summary:        apphttp.SummaryPayload(d.Summary),
					RoomWise:       apphttp.RoomWisePayload(d.RoomWise),
					YearWise:       apphttp.YearWisePayload(d.YearWise),
					Sheets:         apphttp.SheetsPayload(d.Sheets),
					CollectionRate: d.Summary.CollectionRate(),
				})
			}
			return writeDashboardTable(cmd.OutOrStdout(), d)
		},
	}
	addSheetFlag(cmd, &sheet)
	return cmd
}

func addSheetFlag(cmd *cobra.Command, sheet *string) {
	cmd.Flags().StringVarP(sheet, "sheet", "s", "", `sheet name such as "MARCH 2024" (default: current month)`)
}
