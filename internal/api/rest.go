package api

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/opentrickler/trickle2go/internal/configuration"
	"github.com/opentrickler/trickle2go/internal/state"
)

const prettyIndent = "  "

// CreateRestService builds the REST server exposing the trickler state and
// settings. The server only ever touches the state store, never the control
// loop directly.
func CreateRestService(store *state.Store) *echo.Echo {
	echoRest := createBaseService()

	registerAliveEndpoint(echoRest)
	registerStateEndpoints(echoRest, store)
	registerSettingsEndpoints(echoRest, store)

	return echoRest
}

func createBaseService() *echo.Echo {
	echoRest := echo.New()
	echoRest.HideBanner = true
	echoRest.Pre(middleware.AddTrailingSlash())
	echoRest.Use(
		middleware.Secure(),
		middleware.Logger(),
		middleware.Recover(),
		echoprometheus.NewMiddleware("trickle2go"),
	)
	return echoRest
}

func registerAliveEndpoint(echoRest *echo.Echo) {
	echoRest.GET("/alive/", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
}

// ServerAddress returns the listen address of the REST server.
func ServerAddress(config configuration.ApiConfig) string {
	return fmt.Sprintf("%s:%d", config.Host, config.Port)
}
