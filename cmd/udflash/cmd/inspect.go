package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ssargent/udflash/pkg/codec"
)

// inspectCmd represents the inspect command
var inspectCmd = &cobra.Command{
	Use:   "inspect <file>",
	Short: "Validate a raw record dump",
	Long: `Decode a 128-byte record dump read off a device, validate its checksum
with the configured CRC algorithm and print the result. The flash image is
not touched.

Example:
  udflash inspect userdata.bin`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := runtimeFrom(cmd)
		if err != nil {
			return err
		}

		raw, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read dump: %w", err)
		}

		rec, err := codec.NewRecordCodec().Decode(raw)
		if err != nil {
			return err
		}

		printResult(cmd, rt.Engine.Inspect(rec))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}
