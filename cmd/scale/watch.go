package scale

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/opentrickler/trickle2go/internal/scale"
	"github.com/opentrickler/trickle2go/internal/ui"
)

const watchGraphWidth = 100

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print live scale readings and a weight graph to console",
	Long:  ``,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openScale()
		if err != nil {
			return err
		}
		defer func() {
			_ = s.Close()
		}()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		go func() {
			<-sig
			cancel()
		}()

		var weights []float64
		for {
			reading, err := s.Poll(ctx)
			if err != nil {
				if errors.Is(err, context.Canceled) {
					return nil
				}
				if scale.IsParseError(err) || errors.Is(err, scale.ErrTimeout) {
					ui.Debug("Skipping reading: %v", err)
					continue
				}
				return err
			}

			if !reading.HasWeight() {
				if !reading.Status.IsNominal() {
					ui.Warning("status: %s", reading.Status)
				} else {
					ui.Printfln("status: %s", reading.Status)
				}
				continue
			}

			ui.Printfln("%s %s (stable: %t)", reading.Weight, reading.Unit.Symbol(), reading.Stable)

			weight, _ := reading.Weight.Float64()
			weights = append(weights, weight)
			if len(weights) > watchGraphWidth {
				weights = weights[len(weights)-watchGraphWidth:]
			}
			if len(weights) > 1 {
				graph := asciigraph.Plot(
					weights,
					asciigraph.Height(10),
					asciigraph.Width(watchGraphWidth),
					asciigraph.Caption("weight / reading"),
				)
				ui.Printfln(graph)
			}
		}
	},
}

func init() {
	Command.AddCommand(watchCmd)
}
