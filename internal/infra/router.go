// Package infra wires connections and http routing.
package infra

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
	echoSwagger "github.com/swaggo/echo-swagger"
	"github.com/umalmyha/intake/internal/handlers"
	"github.com/umalmyha/intake/internal/middleware"
)

// bodyLimit leaves room for multipart overhead so oversized photo is reported by upload rules, not by transport
const bodyLimit = "8M"

// Handlers groups http handlers served by Router
type Handlers struct {
	Intake   *handlers.IntakeHTTPHandler
	Customer *handlers.CustomerHTTPHandler
	Image    *handlers.ImageHTTPHandler
}

func Router(h Handlers, v echo.Validator, sessionCfg middleware.SessionCfg, logger logrus.FieldLogger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = v
	e.HTTPErrorHandler = handlers.ErrorHandler(logger)

	e.Use(middleware.RequestLogger(logger))
	e.Use(echomw.Recover())
	e.Use(echomw.BodyLimit(bodyLimit))

	// API routes
	api := e.Group("/api", middleware.Session(sessionCfg))

	// intake
	api.GET("/intake/token", h.Intake.Token)
	api.POST("/intake", h.Intake.Submit)

	// customers
	api.GET("/customers", h.Customer.FindByEmail)

	// images
	e.GET("/images/:name", h.Image.Download)

	// docs
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}
