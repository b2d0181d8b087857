package main

import (
	"github.com/spf13/cobra"

	"github.com/keyxmakerx/placekit/internal/hours"
	"github.com/keyxmakerx/placekit/internal/plugins/places"
)

var hoursCmd = &cobra.Command{
	Use:   "hours [entries.json]",
	Short: "Normalize opening hours into a weekly schedule",
	Long: `Reads a JSON array of {"day": ..., "hours": ...} entries and prints the
normalized schedule. English day names are accepted as well as Vietnamese.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHours,
}

func init() {
	rootCmd.AddCommand(hoursCmd)
}

func runHours(cmd *cobra.Command, args []string) error {
	var entries []hours.RawHourEntry
	if err := decodeInput(cmd, args, &entries); err != nil {
		return err
	}

	payload := places.ProviderPayload{OpeningHours: entries}
	return printJSON(cmd, hours.Normalize(payload.HourEntries()))
}
