package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/ssargent/udflash/pkg/shell"
)

// shellCmd represents the shell command
var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Drive the record with console keystrokes",
	Long: `Read single-character commands from stdin, one per byte, the same
command set the firmware serves on its UART console:

  r  read and hexdump the record
  0  write step 0 (0xAAAAAAAA)
  1  write step 1 (0xBBBBBBBB)
  2  write step 2 (0xCCCCCCCC) and seal
  e  erase the record

Line endings are ignored; other characters are only echoed.

Example:
  echo "e012r" | udflash shell`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := runtimeFrom(cmd)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		d := shell.New(rt.Engine, cmd.OutOrStdout())
		if err := d.Run(ctx, cmd.InOrStdin()); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(shellCmd)
}
