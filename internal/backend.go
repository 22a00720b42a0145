package internal

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/oklog/run"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"

	"github.com/opentrickler/trickle2go/internal/api"
	"github.com/opentrickler/trickle2go/internal/ble"
	"github.com/opentrickler/trickle2go/internal/configuration"
	"github.com/opentrickler/trickle2go/internal/controller"
	"github.com/opentrickler/trickle2go/internal/motor"
	"github.com/opentrickler/trickle2go/internal/persistence"
	"github.com/opentrickler/trickle2go/internal/pid"
	"github.com/opentrickler/trickle2go/internal/scale"
	"github.com/opentrickler/trickle2go/internal/state"
	"github.com/opentrickler/trickle2go/internal/statistics"
	"github.com/opentrickler/trickle2go/internal/ui"
)

func RunDaemon() {
	config := configuration.CurrentConfig

	pers := persistence.NewPersistence(config.DbPath)
	if err := pers.Init(); err != nil {
		ui.Fatal("Cannot initialize persistence: %v", err)
	}

	store := state.NewStore()
	bootstrapSettings(pers, store)

	model, err := scale.GetModel(config.Scale.Model)
	if err != nil {
		ui.Fatal("Cannot resolve scale model: %v", err)
	}
	store.SetScaleInfo(model, config.Scale.StatusMapVersion)

	tricklerScale, err := scale.OpenSerial(model, scale.SerialConfig{
		Port:             config.Scale.Port,
		BaudRate:         config.Scale.BaudRate,
		Timeout:          config.Scale.Timeout,
		StatusMapVersion: config.Scale.StatusMapVersion,
	})
	if err != nil {
		ui.Fatal("Cannot open scale: %v", err)
	}

	tricklerMotor, err := motor.NewSysfsMotor(config.Motor)
	if err != nil {
		ui.Fatal("Cannot initialize motor: %v", err)
	}

	pidController := pid.NewController(config.PID, config.Motor)
	inferencer := scale.NewInferencer(model, config.Scale.StableReadingLength)

	var tunerLog *pid.TunerLog
	if config.PID.TunerMode {
		tunerLog = pid.NewTunerLog(config.PID.TunerLogPath)
		ui.Info("PID tuner mode enabled, logging to %s", config.PID.TunerLogPath)
	}

	tricklerController := controller.NewTricklerController(
		tricklerScale, tricklerMotor, pidController, inferencer, store, config.Controller, tunerLog,
	)

	ctx, cancel := context.WithCancel(context.Background())

	var g run.Group
	{
		// === trickle control loop
		g.Add(func() error {
			err := tricklerController.Run(ctx)
			ui.Info("Trickle control loop stopped.")
			return err
		}, func(err error) {
			if err != nil {
				ui.Warning("Error running control loop: %v", err)
			}
			// the motor must never keep running past the control loop
			_ = tricklerMotor.Stop()
			_ = tricklerScale.Close()
		})
	}
	{
		if config.Api.Enabled {
			// === REST api
			echoRest := api.CreateRestService(store)
			g.Add(func() error {
				addr := api.ServerAddress(config.Api)
				ui.Info("Starting REST api on %s", addr)
				if err := echoRest.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			}, func(err error) {
				if err != nil {
					ui.Warning("Error stopping REST api: %v", err)
				}
				timeoutCtx, timeoutCancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer timeoutCancel()
				_ = echoRest.Shutdown(timeoutCtx)
			})
		}
	}
	{
		if config.Bluetooth.Enabled {
			// === BLE peripheral
			peripheral := ble.NewPeripheral(config.Bluetooth, store)
			g.Add(func() error {
				err := peripheral.Run(ctx)
				ui.Info("BLE peripheral stopped.")
				return err
			}, func(err error) {
				if err != nil {
					ui.Warning("Error running BLE peripheral: %v", err)
				}
			})
		}
	}
	{
		if config.Statistics.Enabled {
			// === Prometheus Exporter
			statistics.Register(statistics.NewScaleCollector(store))
			statistics.Register(statistics.NewMotorCollector(store))
			statistics.Register(statistics.NewControllerCollector(tricklerController, store))

			port := config.Statistics.Port
			if port <= 0 || port >= 65535 {
				port = 9000
			}
			addr := fmt.Sprintf(":%d", port)
			server := &http.Server{Addr: addr, Handler: promhttp.Handler()}

			g.Add(func() error {
				ui.Info("Starting statistics server on %s", addr)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					ui.Error("Cannot start prometheus metrics endpoint (%s)", err.Error())
					return err
				}
				return nil
			}, func(err error) {
				if err != nil {
					ui.Warning("Error stopping statistics server: %v", err)
				}
				timeoutCtx, timeoutCancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer timeoutCancel()
				_ = server.Shutdown(timeoutCtx)
			})
		}
	}
	{
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

		g.Add(func() error {
			<-sig
			ui.Info("Received SIGTERM signal, exiting...")
			return nil
		}, func(err error) {
			defer close(sig)
			cancel()
		})
	}

	err = g.Run()

	if saveErr := pers.SaveSettings(store.Settings()); saveErr != nil {
		ui.Warning("Cannot persist settings: %v", saveErr)
	}

	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	} else {
		ui.Info("Done.")
		os.Exit(0)
	}
}

// bootstrapSettings seeds the store with the settings of the previous run.
// Automatic mode is always off after a restart, powder must never start
// flowing without an explicit user action.
func bootstrapSettings(pers persistence.Persistence, store *state.Store) {
	persisted, err := pers.LoadSettings()
	if err != nil {
		if !errors.Is(err, persistence.ErrNotFound) {
			ui.Warning("Cannot load persisted settings: %v", err)
		}
		persisted = state.Settings{
			TargetWeight: decimal.Zero,
		}
	}
	persisted.AutoMode = false
	persisted.ManualSpeed = 0

	store.UpdateSettings(func(settings *state.Settings) {
		*settings = persisted
	})
}
