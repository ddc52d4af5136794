package handlers

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/ahmetcoskunkizilkaya/udyam-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/udyam-backend/internal/services"
)

type OTPHandler struct {
	otpService *services.OTPService
}

func NewOTPHandler(otpService *services.OTPService) *OTPHandler {
	return &OTPHandler{otpService: otpService}
}

func (h *OTPHandler) Send(c *fiber.Ctx) error {
	var req dto.SendOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: "Invalid request body",
		})
	}

	resp, err := h.otpService.Send(c.UserContext(), &req)
	if err != nil {
		var fe *services.FieldError
		if errors.As(err, &fe) {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error: fe.Message, Field: fe.Field,
			})
		}
		slog.Error("failed to issue otp", "request_id", requestID(c), "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: "Failed to send OTP",
		})
	}

	return c.JSON(resp)
}

func (h *OTPHandler) Verify(c *fiber.Ctx) error {
	var req dto.VerifyOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: "Invalid request body",
		})
	}

	resp, err := h.otpService.Verify(c.UserContext(), &req)
	if err != nil {
		var fe *services.FieldError
		switch {
		case errors.As(err, &fe):
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error: fe.Message, Field: fe.Field,
			})
		case errors.Is(err, services.ErrInvalidOTP):
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error: "Invalid OTP", Field: "otp",
			})
		case errors.Is(err, services.ErrOTPExpired):
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error: "OTP expired or not requested", Field: "otp",
			})
		}
		slog.Error("failed to verify otp", "request_id", requestID(c), "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: "Failed to verify OTP",
		})
	}

	return c.JSON(resp)
}
