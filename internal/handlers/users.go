package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/gigconnect/backend/internal/directory"
)

// UserHandler serves the user directory the chat client renders
// participants from.
type UserHandler struct {
	Users directory.UserDirectory
}

func NewUserHandler(users directory.UserDirectory) *UserHandler {
	return &UserHandler{Users: users}
}

func (h *UserHandler) GetUser(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid user ID")
	}

	profile, err := h.Users.Profile(c.Context(), id)
	if err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			return fail(c, fiber.StatusNotFound, "User not found")
		}
		return fail(c, fiber.StatusInternalServerError, "Something went wrong")
	}
	return c.JSON(fiber.Map{"success": true, "data": profile})
}
