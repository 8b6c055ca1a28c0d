package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"infinite-experiment/flightlog/internal/common"
)

func newSeedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load airport and airline reference data",
	}

	var airportsFile, airportsURL string
	airports := &cobra.Command{
		Use:   "airports",
		Short: "Load airports in mwgg/Airports JSON format",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			loader := common.NewReferenceLoader(appFrom(cmd).store, nil)
			var (
				stats common.LoadStats
				err   error
			)
			if airportsFile != "" {
				f, openErr := os.Open(airportsFile)
				if openErr != nil {
					return openErr
				}
				defer f.Close()
				stats, err = loader.LoadAirports(cmd.Context(), f)
			} else {
				stats, err = loader.FetchAirports(cmd.Context(), airportsURL)
			}
			if err != nil {
				return err
			}
			appFrom(cmd).registry.Reset()
			printStats(cmd, "airports", stats)
			return nil
		},
	}
	airports.Flags().StringVarP(&airportsFile, "file", "f", "", "local airports.json")
	airports.Flags().StringVar(&airportsURL, "url", common.DefaultAirportsURL, "download airports.json from this URL")

	var airlinesFile string
	airlines := &cobra.Command{
		Use:   "airlines",
		Short: "Load airlines from a JSON array of {icao, iata, name, defunct}",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := os.Open(airlinesFile)
			if err != nil {
				return err
			}
			defer f.Close()
			stats, err := common.NewReferenceLoader(appFrom(cmd).store, nil).LoadAirlines(cmd.Context(), f)
			if err != nil {
				return err
			}
			appFrom(cmd).registry.Reset()
			printStats(cmd, "airlines", stats)
			return nil
		},
	}
	airlines.Flags().StringVarP(&airlinesFile, "file", "f", "", "airlines JSON file")
	_ = airlines.MarkFlagRequired("file")

	cmd.AddCommand(airports, airlines)
	return cmd
}

func printStats(cmd *cobra.Command, what string, stats common.LoadStats) {
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %d created, %d updated, %d skipped\n", what, stats.Created, stats.Updated, stats.Skipped)
}
