package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ahmetcoskunkizilkaya/udyam-backend/internal/handlers"
)

type Handlers struct {
	Registration *handlers.RegistrationHandler
	OTP          *handlers.OTPHandler
	Health       *handlers.HealthHandler
	FormSchema   *handlers.FormSchemaHandler
}

func Setup(app *fiber.App, h Handlers, gatherer prometheus.Gatherer) {
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	api := app.Group("/api")

	api.Get("/health", h.Health.Check)

	api.Get("/form-schema", h.FormSchema.GetSchema)
	api.Get("/form-schema/fields/:id", h.FormSchema.GetField)

	registrations := api.Group("/registrations")
	registrations.Post("/", h.Registration.Create)
	registrations.Get("/", h.Registration.Get)
	registrations.Get("/:id", h.Registration.GetByID)

	otp := api.Group("/otp")
	otp.Post("/send", h.OTP.Send)
	otp.Post("/verify", h.OTP.Verify)

	// Legacy paths used by the first client build
	api.Post("/submit-registration", h.Registration.Create)
	api.Get("/registration/:id", h.Registration.GetByID)
	api.Post("/validate-aadhaar", h.OTP.Send)
	api.Post("/verify-otp", h.OTP.Verify)
}
