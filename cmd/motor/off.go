package motor

import (
	"github.com/spf13/cobra"
)

var offCmd = &cobra.Command{
	Use:   "off",
	Short: "Turn the trickler motor off",
	Long:  ``,
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := getMotor()
		if err != nil {
			return err
		}
		return m.Stop()
	},
}

func init() {
	Command.AddCommand(offCmd)
}
