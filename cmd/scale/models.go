package scale

import (
	"bytes"
	"strconv"

	"github.com/mgutz/ansi"
	"github.com/spf13/cobra"
	"github.com/tomlazar/table"
	"golang.org/x/exp/slices"

	"github.com/opentrickler/trickle2go/cmd/global"
	"github.com/opentrickler/trickle2go/internal/scale"
	"github.com/opentrickler/trickle2go/internal/ui"
	"github.com/opentrickler/trickle2go/internal/units"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Print the supported scale models to console",
	Long:  ``,
	RunE: func(cmd *cobra.Command, args []string) error {
		names := scale.ModelNames()
		slices.Sort(names)

		rows := make([][]string, 0, len(names))
		for _, name := range names {
			model, err := scale.GetModel(name)
			if err != nil {
				return err
			}

			rows = append(rows, []string{
				model.Name,
				strconv.Itoa(model.DefaultBaudRate),
				strconv.FormatBool(model.HasStabilityFlag),
				strconv.FormatBool(model.SupportsUnitChange),
				model.ResolutionMap[units.Grains].String() + " gn",
			})
		}

		tab := table.Table{
			Headers: []string{"Model", "Baud", "Stability flag", "Unit change", "Resolution"},
			Rows:    rows,
		}
		var buf bytes.Buffer
		tableErr := tab.WriteTable(&buf, &table.Config{
			ShowIndex:       false,
			Color:           !global.NoColor,
			AlternateColors: true,
			TitleColorCode:  ansi.ColorCode("white+buf"),
			AltColorCodes: []string{
				ansi.ColorCode("white"),
				ansi.ColorCode("white:236"),
			},
		})
		if tableErr != nil {
			panic(tableErr)
		}
		ui.Printfln(buf.String())

		return nil
	},
}

func init() {
	Command.AddCommand(modelsCmd)
}
