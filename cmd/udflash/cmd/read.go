package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ssargent/udflash/pkg/codec"
	"github.com/ssargent/udflash/pkg/userdata"
)

// readCmd represents the read command
var readCmd = &cobra.Command{
	Use:   "read",
	Short: "Read and validate the record",
	Long: `Read the record from flash, validate its checksum and print a hexdump.

A checksum mismatch is reported as "crc failed" and is not an error: an
erased or partially written record never validates.

Example:
  udflash read`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := runtimeFrom(cmd)
		if err != nil {
			return err
		}

		res, err := rt.Engine.Read()
		if err != nil {
			cmd.Printf("flash read: %s\n", userdata.ResultString(err))
			return err
		}

		printResult(cmd, res)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(readCmd)
}

// printResult prints the validation outcome, the derived state and a hexdump
func printResult(cmd *cobra.Command, res userdata.ReadResult) {
	state := userdata.StateOf(res)
	cmd.Printf("flash read: %s\n", userdata.ResultString(res.Err()))
	cmd.Printf("state: %s\n", state)
	cmd.Printf("checksum: stored 0x%08X computed 0x%08X\n", res.Record.Checksum, res.Computed)
	_ = codec.Dump(cmd.OutOrStderr(), res.Raw)
}
