package handlers

import (
	"log/slog"

	"github.com/bkoseoglu/mallhub/internal/directory"
	"github.com/bkoseoglu/mallhub/internal/dto"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// CatalogHandler serves the mall's categories and floors. Reads are public;
// writes are mounted behind the admin guard.
type CatalogHandler struct {
	directory *directory.Service
}

func NewCatalogHandler(svc *directory.Service) *CatalogHandler {
	return &CatalogHandler{directory: svc}
}

func (h *CatalogHandler) ListCategories(c *fiber.Ctx) error {
	categories, err := h.directory.ListCategories(c.UserContext())
	if err != nil {
		slog.Error("failed to list categories", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Internal server error",
		})
	}
	return c.JSON(categories)
}

func (h *CatalogHandler) CreateCategory(c *fiber.Ctx) error {
	var req dto.CategoryRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	category, err := h.directory.CreateCategory(c.UserContext(), &req)
	if err != nil {
		return directoryErrorResponse(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(category)
}

func (h *CatalogHandler) UpdateCategory(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid category id",
		})
	}

	var req dto.CategoryRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	category, err := h.directory.UpdateCategory(c.UserContext(), id, &req)
	if err != nil {
		return directoryErrorResponse(c, err)
	}
	return c.JSON(category)
}

func (h *CatalogHandler) DeleteCategory(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid category id",
		})
	}

	if err := h.directory.DeleteCategory(c.UserContext(), id); err != nil {
		return directoryErrorResponse(c, err)
	}
	return c.JSON(fiber.Map{"message": "Category deleted"})
}

func (h *CatalogHandler) ListFloors(c *fiber.Ctx) error {
	floors, err := h.directory.ListFloors(c.UserContext())
	if err != nil {
		slog.Error("failed to list floors", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Internal server error",
		})
	}
	return c.JSON(floors)
}

func (h *CatalogHandler) CreateFloor(c *fiber.Ctx) error {
	var req dto.FloorRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	floor, err := h.directory.CreateFloor(c.UserContext(), &req)
	if err != nil {
		return directoryErrorResponse(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(floor)
}

func (h *CatalogHandler) UpdateFloor(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid floor id",
		})
	}

	var req dto.FloorRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	floor, err := h.directory.UpdateFloor(c.UserContext(), id, &req)
	if err != nil {
		return directoryErrorResponse(c, err)
	}
	return c.JSON(floor)
}

func (h *CatalogHandler) DeleteFloor(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid floor id",
		})
	}

	if err := h.directory.DeleteFloor(c.UserContext(), id); err != nil {
		return directoryErrorResponse(c, err)
	}
	return c.JSON(fiber.Map{"message": "Floor deleted"})
}
