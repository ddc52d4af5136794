package handlers

import (
	"errors"
	"log/slog"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/ahmetcoskunkizilkaya/udyam-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/udyam-backend/internal/services"
)

type RegistrationHandler struct {
	registrationService *services.RegistrationService
}

func NewRegistrationHandler(registrationService *services.RegistrationService) *RegistrationHandler {
	return &RegistrationHandler{registrationService: registrationService}
}

func (h *RegistrationHandler) Create(c *fiber.Ctx) error {
	req, err := dto.DecodeRegistrationRequest(c.Body())
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: "Invalid request body",
		})
	}

	resp, err := h.registrationService.Create(c.UserContext(), req)
	if err != nil {
		var fe *services.FieldError
		switch {
		case errors.As(err, &fe):
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error: fe.Message, Field: fe.Field,
			})
		case errors.Is(err, services.ErrAadhaarTaken):
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error: "This Aadhaar number is already registered", Field: "aadhaar",
			})
		case errors.Is(err, services.ErrPANTaken):
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error: "This PAN is already registered", Field: "pan",
			})
		case errors.Is(err, services.ErrAlreadyRegistered):
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error: "A registration with this Aadhaar or PAN already exists",
			})
		case errors.Is(err, services.ErrAadhaarNotVerified):
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error: "Aadhaar number has not been verified", Field: "verificationToken",
			})
		case errors.Is(err, services.ErrNumberExhausted):
			slog.Error("registration number allocation failed", "request_id", requestID(c), "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
				Error: "could not allocate registration number",
			})
		}
		slog.Error("failed to save registration", "request_id", requestID(c), "method", c.Method(), "path", c.Path(), "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: "Failed to save registration",
		})
	}

	return c.JSON(dto.SuccessResponse{Success: true, Data: resp})
}

// Get looks up by registrationNumber, then nationalId (or aadhaar), and
// otherwise lists the newest registrations.
func (h *RegistrationHandler) Get(c *fiber.Ctx) error {
	ctx := c.UserContext()

	if number := c.Query("registrationNumber"); number != "" {
		reg, err := h.registrationService.GetByRegistrationNumber(ctx, number)
		return h.respondOne(c, reg, err)
	}

	nationalID := c.Query("nationalId")
	if nationalID == "" {
		nationalID = c.Query("aadhaar")
	}
	if nationalID != "" {
		reg, err := h.registrationService.GetByAadhaar(ctx, nationalID)
		return h.respondOne(c, reg, err)
	}

	regs, err := h.registrationService.ListRecent(ctx)
	if err != nil {
		slog.Error("failed to list registrations", "request_id", requestID(c), "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: "Failed to fetch registration",
		})
	}
	return c.JSON(dto.SuccessResponse{Success: true, Data: regs})
}

func (h *RegistrationHandler) GetByID(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || id == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: "Invalid registration id",
		})
	}

	reg, err := h.registrationService.GetByID(c.UserContext(), uint(id))
	return h.respondOne(c, reg, err)
}

func (h *RegistrationHandler) respondOne(c *fiber.Ctx, reg any, err error) error {
	if errors.Is(err, services.ErrRegistrationNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Error: "Registration not found",
		})
	}
	if err != nil {
		slog.Error("failed to fetch registration", "request_id", requestID(c), "path", c.Path(), "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: "Failed to fetch registration",
		})
	}
	return c.JSON(dto.SuccessResponse{Success: true, Data: reg})
}

func requestID(c *fiber.Ctx) string {
	if id, ok := c.Locals("requestid").(string); ok {
		return id
	}
	return c.GetRespHeader(fiber.HeaderXRequestID)
}
