package motor

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/opentrickler/trickle2go/internal/ui"
)

var testCmd = &cobra.Command{
	Use:   "test",
	Short: "Ramp the motor through its speed range to verify the wiring",
	Long:  ``,
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := getMotor()
		if err != nil {
			return err
		}
		defer func() {
			_ = m.Stop()
		}()

		for pwm := 0; pwm <= 100; pwm += 10 {
			ui.Printfln("Motor at %d%%", pwm)
			if err := m.SetPwm(pwm); err != nil {
				return err
			}
			time.Sleep(1 * time.Second)
		}

		ui.Printfln("Motor off")
		return m.Stop()
	},
}

func init() {
	Command.AddCommand(testCmd)
}
