package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/opentrickler/trickle2go/internal/state"
	"github.com/opentrickler/trickle2go/internal/units"
)

func performRequest(store *state.Store, method string, path string, body string) *httptest.ResponseRecorder {
	echoRest := CreateRestService(store)
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	echoRest.ServeHTTP(rec, req)
	return rec
}

func TestAlive(t *testing.T) {
	// GIVEN
	store := state.NewStore()

	// WHEN
	rec := performRequest(store, http.MethodGet, "/alive/", "")

	// THEN
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGetSettings(t *testing.T) {
	// GIVEN
	store := state.NewStore()

	// WHEN
	rec := performRequest(store, http.MethodGet, "/settings/", "")

	// THEN
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"auto_mode": false`)
	assert.Contains(t, rec.Body.String(), `"target_unit": "gn"`)
}

func TestPutSettings(t *testing.T) {
	// GIVEN
	store := state.NewStore()

	// WHEN
	rec := performRequest(store, http.MethodPut, "/settings/",
		`{"auto_mode": true, "target_weight": "25.40", "target_unit": "gn"}`)

	// THEN
	assert.Equal(t, http.StatusOK, rec.Code)
	settings := store.Settings()
	assert.True(t, settings.AutoMode)
	assert.Equal(t, "25.4", settings.TargetWeight.String())
	assert.Equal(t, units.Grains, settings.TargetUnit)
}

func TestPutSettingsPartialUpdate(t *testing.T) {
	// GIVEN: a previously configured target
	store := state.NewStore()
	performRequest(store, http.MethodPut, "/settings/",
		`{"target_weight": "10.00", "target_unit": "gn"}`)

	// WHEN: only auto_mode is sent
	rec := performRequest(store, http.MethodPut, "/settings/", `{"auto_mode": true}`)

	// THEN: the target is untouched
	assert.Equal(t, http.StatusOK, rec.Code)
	settings := store.Settings()
	assert.True(t, settings.AutoMode)
	assert.Equal(t, "10", settings.TargetWeight.String())
}

func TestPutSettingsUnitSwitchConvertsTarget(t *testing.T) {
	// GIVEN: a 10 gn target
	store := state.NewStore()
	performRequest(store, http.MethodPut, "/settings/",
		`{"target_weight": "10.00", "target_unit": "gn"}`)

	// WHEN: only the unit is switched to grams
	rec := performRequest(store, http.MethodPut, "/settings/", `{"target_unit": "g"}`)

	// THEN: the target keeps its physical meaning
	assert.Equal(t, http.StatusOK, rec.Code)
	settings := store.Settings()
	assert.Equal(t, units.Grams, settings.TargetUnit)
	assert.Equal(t, "0.648", settings.TargetWeight.String())
}

func TestPutSettingsRejectsMalformedWeight(t *testing.T) {
	store := state.NewStore()

	for _, weight := range []string{"1000.0", "1", ".5", "1.", "-1.0", "1.2345", "abc"} {
		// WHEN
		rec := performRequest(store, http.MethodPut, "/settings/",
			`{"target_weight": "`+weight+`"}`)

		// THEN
		assert.Equal(t, http.StatusBadRequest, rec.Code, "weight %q must be rejected", weight)
	}
}

func TestPutSettingsRejectsUnknownUnit(t *testing.T) {
	// GIVEN
	store := state.NewStore()

	// WHEN
	rec := performRequest(store, http.MethodPut, "/settings/", `{"target_unit": "oz"}`)

	// THEN
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPutSettingsRejectsManualSpeedOutOfRange(t *testing.T) {
	// GIVEN
	store := state.NewStore()

	// WHEN
	rec := performRequest(store, http.MethodPut, "/settings/", `{"manual_speed": 101}`)

	// THEN
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetState(t *testing.T) {
	// GIVEN
	store := state.NewStore()

	// WHEN
	rec := performRequest(store, http.MethodGet, "/state/", "")

	// THEN
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"mode": "IDLE"`)
}
