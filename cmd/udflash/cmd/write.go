package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ssargent/udflash/pkg/shell"
	"github.com/ssargent/udflash/pkg/userdata"
)

// writeCmd represents the write command
var writeCmd = &cobra.Command{
	Use:   "write <step> [value]",
	Short: "Write one step of the record",
	Long: `Write data word <step> (0, 1 or 2) of the record. Writing step 2 also
seals the record with its checksum. Steps must be written in order after
an erase; rewriting a step is refused with "already".

The value accepts decimal or 0x-prefixed hex. Without a value the console
test patterns 0xAAAAAAAA, 0xBBBBBBBB and 0xCCCCCCCC are written.

Examples:
  udflash write 0
  udflash write 1 0x12345678`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := runtimeFrom(cmd)
		if err != nil {
			return err
		}

		step, err := strconv.ParseUint(args[0], 10, 32)
		if err != nil {
			return fmt.Errorf("invalid step %q: %w", args[0], err)
		}

		var value uint32
		switch {
		case len(args) == 2:
			v, err := strconv.ParseUint(args[1], 0, 32)
			if err != nil {
				return fmt.Errorf("invalid value %q: %w", args[1], err)
			}
			value = uint32(v)
		case step < userdata.StepCount:
			value = shell.DefaultStepValues[step]
		}

		err = rt.Engine.WriteStep(uint32(step), value)
		cmd.Printf("flash write step %d: %s\n", step, userdata.ResultString(err))
		return err
	},
}

func init() {
	rootCmd.AddCommand(writeCmd)
}
