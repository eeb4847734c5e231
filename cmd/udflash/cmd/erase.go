package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ssargent/udflash/pkg/userdata"
)

// eraseCmd represents the erase command
var eraseCmd = &cobra.Command{
	Use:   "erase",
	Short: "Erase the record page",
	Long: `Erase the flash page holding the record. Every word reads as zero
afterwards and the write protocol can start again at step 0.

Example:
  udflash erase`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := runtimeFrom(cmd)
		if err != nil {
			return err
		}

		err = rt.Engine.Erase()
		cmd.Printf("flash erase: %s\n", userdata.ResultString(err))
		return err
	},
}

func init() {
	rootCmd.AddCommand(eraseCmd)
}
