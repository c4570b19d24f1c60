package handlers

import (
	"errors"
	"log/slog"

	"github.com/bkoseoglu/mallhub/internal/docstore"
	"github.com/bkoseoglu/mallhub/internal/dto"
	"github.com/bkoseoglu/mallhub/internal/profiles"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// AdminHandler covers user administration and index provisioning. Every
// route is mounted behind the admin guard.
type AdminHandler struct {
	profileSvc  *profiles.Service
	provisioner docstore.Provisioner
}

func NewAdminHandler(profileSvc *profiles.Service, provisioner docstore.Provisioner) *AdminHandler {
	return &AdminHandler{profileSvc: profileSvc, provisioner: provisioner}
}

func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	users, err := h.profileSvc.List(c.UserContext())
	if err != nil {
		slog.Error("failed to list users", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Internal server error",
		})
	}
	return c.JSON(users)
}

// SetRole promotes or demotes a user. This is the only path that grants the
// admin role.
func (h *AdminHandler) SetRole(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid user id",
		})
	}

	var req dto.SetRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	profile, err := h.profileSvc.SetRole(c.UserContext(), id, profiles.Role(req.Role))
	if err != nil {
		if errors.Is(err, profiles.ErrInvalidRole) {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		}
		if errors.Is(err, profiles.ErrProfileNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: "Profile not found",
			})
		}
		slog.Error("failed to set role", "user_id", id, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Internal server error",
		})
	}
	return c.JSON(profile)
}

// ListIndexes reports the composite indexes the store has registered,
// including the pending ones compound queries are waiting on.
func (h *AdminHandler) ListIndexes(c *fiber.Ctx) error {
	indexes, err := h.provisioner.ListIndexes(c.UserContext())
	if err != nil {
		slog.Error("failed to list indexes", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Internal server error",
		})
	}
	return c.JSON(indexes)
}

// MarkIndexReady completes provisioning for one index; ordered compound
// queries against it start succeeding immediately.
func (h *AdminHandler) MarkIndexReady(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid index id",
		})
	}

	if err := h.provisioner.MarkReady(c.UserContext(), id); err != nil {
		slog.Error("failed to mark index ready", "index_id", id, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Internal server error",
		})
	}
	return c.JSON(fiber.Map{"message": "Index marked ready"})
}
