package cmd

import (
	"github.com/spf13/cobra"

	"github.com/opentrickler/trickle2go/internal/ui"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of trickle2go",
	Long:  `All software has versions. This is trickle2go's`,
	Run: func(cmd *cobra.Command, args []string) {
		ui.Printfln("0.1.0")
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
