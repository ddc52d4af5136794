package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ahmetcoskunkizilkaya/udyam-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/udyam-backend/internal/schema"
)

// FormSchemaHandler serves the form description the wizard renders from.
type FormSchemaHandler struct {
	schema *schema.Schema
}

func NewFormSchemaHandler(s *schema.Schema) *FormSchemaHandler {
	return &FormSchemaHandler{schema: s}
}

// GetSchema returns the whole document, or one step with ?step=1|2.
func (h *FormSchemaHandler) GetSchema(c *fiber.Ctx) error {
	n := c.QueryInt("step", 0)
	if n == 0 {
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSONCharsetUTF8)
		c.Set(fiber.HeaderCacheControl, "public, max-age=300")
		return c.Send(h.schema.Raw())
	}

	step, err := h.schema.Step(n)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: "step must be 1 or 2",
		})
	}
	return c.JSON(step)
}

// GetField returns a single field definition from either step.
func (h *FormSchemaHandler) GetField(c *fiber.Ctx) error {
	id := c.Params("id")
	for _, n := range []int{1, 2} {
		step, _ := h.schema.Step(n)
		if f, ok := step.Field(id); ok {
			return c.JSON(f)
		}
	}
	return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
		Error: "Field not found",
	})
}
