package cmd

import (
	"errors"
	"time"

	"github.com/spf13/cobra"
)

// journalCmd represents the journal command
var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "List recent flash operations",
	Long: `List the most recent erase and program operations recorded by the
flash backend, oldest first.

Examples:
  udflash journal
  udflash journal --limit 0`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		if limit < 0 {
			return errors.New("--limit must not be negative")
		}

		rt, err := runtimeFrom(cmd)
		if err != nil {
			return err
		}
		if rt.Journal == nil {
			return errors.New("flash backend keeps no journal")
		}

		entries, err := rt.Journal.Journal(limit)
		if err != nil {
			return err
		}

		if len(entries) == 0 {
			cmd.Printf("No journal entries\n")
			return nil
		}

		for _, e := range entries {
			status := "ok"
			if !e.OK {
				status = "error: " + e.Error
			}
			cmd.Printf("%s %s %-7s 0x%08X 0x%08X %s\n",
				e.At.UTC().Format(time.RFC3339Nano), e.ID, e.Op, e.Address, e.Value, status)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(journalCmd)
	journalCmd.Flags().IntP("limit", "n", 20, "Maximum number of entries to show (0 for all)")
}
