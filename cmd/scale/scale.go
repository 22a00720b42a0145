package scale

import (
	"github.com/spf13/cobra"

	"github.com/opentrickler/trickle2go/internal/configuration"
	"github.com/opentrickler/trickle2go/internal/scale"
)

var Command = &cobra.Command{
	Use:              "scale",
	Short:            "Scale related commands",
	Long:             ``,
	TraverseChildren: true,
}

func openScale() (scale.Scale, error) {
	configuration.ReadConfigFile()

	config := configuration.CurrentConfig.Scale
	model, err := scale.GetModel(config.Model)
	if err != nil {
		return nil, err
	}

	return scale.OpenSerial(model, scale.SerialConfig{
		Port:             config.Port,
		BaudRate:         config.BaudRate,
		Timeout:          config.Timeout,
		StatusMapVersion: config.StatusMapVersion,
	})
}
