package cmd

import (
	"github.com/spf13/cobra"
)

// stateCmd represents the state command
var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Show the lifecycle state of the record",
	Long: `Read the record and report where it stands in the write protocol:
erased, partial0, partial1, sealed or corrupt, plus the next step to write.

Example:
  udflash state`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := runtimeFrom(cmd)
		if err != nil {
			return err
		}

		state, err := rt.Engine.State()
		if err != nil {
			return err
		}

		cmd.Printf("state: %s\n", state)
		if next, ok := state.NextStep(); ok {
			cmd.Printf("next step: %d\n", next)
		} else {
			cmd.Printf("next step: none (erase first)\n")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(stateCmd)
}
