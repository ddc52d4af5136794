// Package server assembles the Fiber application from its services.
package server

import (
	"errors"
	"log/slog"

	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ahmetcoskunkizilkaya/udyam-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/udyam-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/udyam-backend/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/udyam-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/udyam-backend/internal/routes"
	"github.com/ahmetcoskunkizilkaya/udyam-backend/internal/schema"
	"github.com/ahmetcoskunkizilkaya/udyam-backend/internal/services"
	"github.com/ahmetcoskunkizilkaya/udyam-backend/internal/store"
)

const bodyLimit = 1 << 20

type Deps struct {
	Registrations *services.RegistrationService
	OTP           *services.OTPService
	OTPStore      store.OTPStore
	FormSchema    *schema.Schema
	Gatherer      prometheus.Gatherer

	// Sentry enables the sentry-go middleware; set it after sentry.Init.
	Sentry bool
	// AccessLog enables the request log line per request.
	AccessLog bool
}

func New(cfg *config.Config, deps Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		BodyLimit:             bodyLimit,
		ErrorHandler:          ErrorHandler,
		DisableStartupMessage: true,
	})

	if deps.Sentry {
		app.Use(sentryfiber.New(sentryfiber.Options{
			Repanic:         true,
			WaitForDelivery: false,
		}))
	}

	app.Use(recover.New())
	app.Use(requestid.New())
	if deps.AccessLog {
		app.Use(fiberlogger.New(fiberlogger.Config{
			Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path} | ${locals:requestid}\n",
		}))
	}
	app.Use(middleware.CORS(cfg))
	app.Use(middleware.SecurityHeaders())

	routes.Setup(app, routes.Handlers{
		Registration: handlers.NewRegistrationHandler(deps.Registrations),
		OTP:          handlers.NewOTPHandler(deps.OTP),
		Health:       handlers.NewHealthHandler(deps.Registrations, deps.OTPStore),
		FormSchema:   handlers.NewFormSchemaHandler(deps.FormSchema),
	}, deps.Gatherer)

	return app
}

// ErrorHandler answers errors no handler dealt with. Details of 5xx errors
// stay in the log.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"
	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
		message = e.Message
	}

	if code >= fiber.StatusInternalServerError {
		slog.Error("unhandled server error", "method", c.Method(), "path", c.Path(), "error", err.Error())
		if hub := sentryfiber.GetHubFromContext(c); hub != nil {
			hub.CaptureException(err)
		}
		message = "Internal server error"
	}

	return c.Status(code).JSON(dto.ErrorResponse{Error: message})
}
