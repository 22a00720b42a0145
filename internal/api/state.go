package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/qdm12/reprint"

	"github.com/opentrickler/trickle2go/internal/state"
)

type stateResponse struct {
	Mode         string `json:"mode"`
	AutoMode     bool   `json:"auto_mode"`
	TargetWeight string `json:"target_weight"`
	TargetUnit   string `json:"target_unit"`
	ScaleWeight  string `json:"scale_weight"`
	ScaleUnit    string `json:"scale_unit"`
	Resolution   string `json:"scale_resolution"`
	IsStable     bool   `json:"scale_is_stable"`
	Status       string `json:"scale_status"`
	MotorSpeed   int    `json:"trickler_motor_speed"`
	Timestamp    string `json:"timestamp"`
}

func registerStateEndpoints(echoRest *echo.Echo, store *state.Store) {
	echoRest.GET("/state/", func(c echo.Context) error {
		// deep copy so concurrent publishes cannot mutate the snapshot
		// while it is being serialized
		var snapshot state.Snapshot
		if err := reprint.FromTo(ptr(store.Snapshot()), &snapshot); err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}

		return c.JSONPretty(http.StatusOK, stateResponse{
			Mode:         snapshot.Mode.String(),
			AutoMode:     snapshot.AutoMode,
			TargetWeight: snapshot.TargetWeight.String(),
			TargetUnit:   snapshot.TargetUnit.Symbol(),
			ScaleWeight:  snapshot.Weight.String(),
			ScaleUnit:    snapshot.Unit.Symbol(),
			Resolution:   snapshot.Resolution.String(),
			IsStable:     snapshot.Stable,
			Status:       snapshot.Status.String(),
			MotorSpeed:   snapshot.MotorSpeed,
			Timestamp:    snapshot.Timestamp.Format("2006-01-02T15:04:05.000Z07:00"),
		}, prettyIndent)
	})
}

func ptr[T any](value T) *T {
	return &value
}
