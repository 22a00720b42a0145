package api

import (
	"net/http"
	"regexp"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/opentrickler/trickle2go/internal/motor"
	"github.com/opentrickler/trickle2go/internal/state"
	"github.com/opentrickler/trickle2go/internal/units"
)

// targetWeightPattern bounds the accepted charge weights. Powder charges are
// at most three digits before and after the point, anything else is a typo
// or a unit mixup.
var targetWeightPattern = regexp.MustCompile(`^\d{1,3}\.\d{1,3}$`)

type settingsResponse struct {
	AutoMode     bool   `json:"auto_mode"`
	TargetWeight string `json:"target_weight"`
	TargetUnit   string `json:"target_unit"`
	ManualSpeed  int    `json:"manual_speed"`
}

// settingsRequest carries a partial settings update. Absent fields keep
// their current value.
type settingsRequest struct {
	AutoMode     *bool   `json:"auto_mode"`
	TargetWeight *string `json:"target_weight"`
	TargetUnit   *string `json:"target_unit"`
	ManualSpeed  *int    `json:"manual_speed"`
}

func registerSettingsEndpoints(echoRest *echo.Echo, store *state.Store) {
	echoRest.GET("/settings/", func(c echo.Context) error {
		return c.JSONPretty(http.StatusOK, toSettingsResponse(store.Settings()), prettyIndent)
	})

	echoRest.PUT("/settings/", func(c echo.Context) error {
		var request settingsRequest
		if err := c.Bind(&request); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}

		var targetWeight *decimal.Decimal
		if request.TargetWeight != nil {
			if !targetWeightPattern.MatchString(*request.TargetWeight) {
				return echo.NewHTTPError(http.StatusBadRequest, "target_weight must match "+targetWeightPattern.String())
			}
			parsed, err := decimal.NewFromString(*request.TargetWeight)
			if err != nil {
				return echo.NewHTTPError(http.StatusBadRequest, err.Error())
			}
			targetWeight = &parsed
		}

		var targetUnit *units.Unit
		if request.TargetUnit != nil {
			parsed, err := units.Parse(*request.TargetUnit)
			if err != nil {
				return echo.NewHTTPError(http.StatusBadRequest, "target_unit must be one of: g | gn")
			}
			targetUnit = &parsed
		}

		if request.ManualSpeed != nil {
			if *request.ManualSpeed < motor.MinPwmValue || *request.ManualSpeed > motor.MaxPwmValue {
				return echo.NewHTTPError(http.StatusBadRequest, "manual_speed must be within [0, 100]")
			}
		}

		updated := store.UpdateSettings(func(settings *state.Settings) {
			if request.AutoMode != nil {
				settings.AutoMode = *request.AutoMode
			}
			if targetUnit != nil && targetWeight == nil {
				// switching the unit alone converts the current target so
				// the dialed-in charge keeps its physical meaning
				settings.TargetWeight = units.Convert(settings.TargetWeight, settings.TargetUnit, *targetUnit)
			}
			if targetWeight != nil {
				settings.TargetWeight = *targetWeight
			}
			if targetUnit != nil {
				settings.TargetUnit = *targetUnit
			}
			if request.ManualSpeed != nil {
				settings.ManualSpeed = *request.ManualSpeed
			}
		})

		return c.JSONPretty(http.StatusOK, toSettingsResponse(updated), prettyIndent)
	})
}

func toSettingsResponse(settings state.Settings) settingsResponse {
	return settingsResponse{
		AutoMode:     settings.AutoMode,
		TargetWeight: settings.TargetWeight.String(),
		TargetUnit:   settings.TargetUnit.Symbol(),
		ManualSpeed:  settings.ManualSpeed,
	}
}
