package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/ahmetcoskunkizilkaya/udyam-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/udyam-backend/internal/services"
	"github.com/ahmetcoskunkizilkaya/udyam-backend/internal/store"
)

type HealthHandler struct {
	registrationService *services.RegistrationService
	otpStore            store.OTPStore
}

func NewHealthHandler(registrationService *services.RegistrationService, otpStore store.OTPStore) *HealthHandler {
	return &HealthHandler{registrationService: registrationService, otpStore: otpStore}
}

func (h *HealthHandler) Check(c *fiber.Ctx) error {
	ctx := c.UserContext()

	status := "ok"
	dbStatus := "ok"
	if err := h.registrationService.Ping(ctx); err != nil {
		status = "degraded"
		dbStatus = "unhealthy: " + err.Error()
	}

	otpStatus := "ok"
	if err := h.otpStore.Ping(ctx); err != nil {
		status = "degraded"
		otpStatus = "unhealthy: " + err.Error()
	}

	code := fiber.StatusOK
	if status != "ok" {
		code = fiber.StatusServiceUnavailable
	}
	return c.Status(code).JSON(dto.HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		DB:        dbStatus,
		OTPStore:  otpStatus,
	})
}
