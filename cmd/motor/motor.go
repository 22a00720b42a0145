package motor

import (
	"github.com/spf13/cobra"

	"github.com/opentrickler/trickle2go/internal/configuration"
	"github.com/opentrickler/trickle2go/internal/motor"
)

var Command = &cobra.Command{
	Use:              "motor",
	Short:            "Trickler motor related commands",
	Long:             ``,
	TraverseChildren: true,
}

func getMotor() (motor.Motor, error) {
	configuration.ReadConfigFile()
	return motor.NewSysfsMotor(configuration.CurrentConfig.Motor)
}
