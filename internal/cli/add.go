package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"infinite-experiment/flightlog/internal/services"
)

const dateLayout = "2006-01-02"

func newAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add flights to the log",
	}
	cmd.AddCommand(newAddBCBPCmd(), newAddPassesCmd(), newAddFAFlightIDCmd(), newAddNumberCmd())
	return cmd
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	d, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("date %q must look like %s", s, dateLayout)
	}
	return d, nil
}

// finishImport prints the report and returns err, which may be set even
// when part of the import succeeded.
func finishImport(cmd *cobra.Command, report *services.ImportReport, err error) error {
	if report != nil {
		renderReport(cmd.OutOrStdout(), report)
	}
	return err
}

func newAddBCBPCmd() *cobra.Command {
	var (
		file string
		date string
	)
	cmd := &cobra.Command{
		Use:   "bcbp [barcode text]",
		Short: "Add the flights on a bar-coded boarding pass",
		Long: `Decode an IATA bar-coded boarding pass and log each leg.
The text is taken from the argument, or from --file. Flight dates on the
pass carry no year; they resolve to the latest date on or before --date
(default today), extended by the lookahead setting when one is configured.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := ""
			switch {
			case len(args) == 1:
				text = args[0]
			case file != "":
				data, err := os.ReadFile(file)
				if err != nil {
					return err
				}
				text = strings.TrimRight(string(data), "\r\n")
			default:
				return fmt.Errorf("give the barcode text as an argument or with --file")
			}

			ref, err := parseDate(date)
			if err != nil {
				return err
			}
			report, err := appFrom(cmd).imports.ImportBarcode(cmd.Context(), text, ref)
			return finishImport(cmd, report, err)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "read the barcode text from a file")
	cmd.Flags().StringVar(&date, "date", "", "reference date for the pass ("+dateLayout+")")
	cmd.Flags().Bool("enrich", true, "look legs up on AeroAPI when configured")
	return cmd
}

func newAddPassesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pkpasses [folder]",
		Short: "Add the flights in every .pkpass file of a folder",
		Long: `Import every wallet boarding pass (*.pkpass) in the folder, which
defaults to the configured import path. Fully imported files are moved to
an archive/ subfolder unless --archive=false.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			dir := a.cfg.ImportDir()
			if len(args) == 1 {
				dir = args[0]
			}
			report, err := a.imports.ImportPassFiles(cmd.Context(), dir)
			return finishImport(cmd, report, err)
		},
	}
	cmd.Flags().Bool("archive", true, "archive imported pass files")
	cmd.Flags().Bool("enrich", true, "look legs up on AeroAPI when configured")
	cmd.Flags().String("import-path", "", "default pass folder")
	return cmd
}

func newAddFAFlightIDCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fa-flight-id <id>",
		Short: "Add a flight by its FlightAware flight id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := appFrom(cmd).imports.ImportFAFlightID(cmd.Context(), args[0])
			return finishImport(cmd, report, err)
		},
	}
}

func newAddNumberCmd() *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "number <airline> <flight number>",
		Short: "Add a completed flight by airline and flight number",
		Long: `Look up a completed flight on AeroAPI, e.g. "add number B6 218".
Without --date the most recent completed flight is logged.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			on, err := parseDate(date)
			if err != nil {
				return err
			}
			report, err := appFrom(cmd).imports.ImportDesignator(cmd.Context(), args[0], args[1], on)
			return finishImport(cmd, report, err)
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "UTC departure date ("+dateLayout+")")
	return cmd
}

func newImportRecentCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import-recent",
		Short: "Import recent flights from Flight Historian",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			report, err := appFrom(cmd).imports.ImportRecent(cmd.Context())
			return finishImport(cmd, report, err)
		},
	}
}
