package handlers

import (
	"errors"
	"log/slog"

	"github.com/bkoseoglu/mallhub/internal/directory"
	"github.com/bkoseoglu/mallhub/internal/dto"
	"github.com/bkoseoglu/mallhub/internal/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type ShopHandler struct {
	directory *directory.Service
}

func NewShopHandler(svc *directory.Service) *ShopHandler {
	return &ShopHandler{directory: svc}
}

// List is the public directory listing, optionally filtered by category.
func (h *ShopHandler) List(c *fiber.Ctx) error {
	shops, err := h.directory.ListShops(c.UserContext(), c.Query("category"))
	if err != nil {
		slog.Error("failed to list shops", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Internal server error",
		})
	}
	return c.JSON(shops)
}

// Search matches shops by name, description or category.
func (h *ShopHandler) Search(c *fiber.Ctx) error {
	shops, err := h.directory.SearchShops(c.UserContext(), c.Query("q"))
	if err != nil {
		slog.Error("shop search failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Internal server error",
		})
	}
	return c.JSON(shops)
}

func (h *ShopHandler) Get(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid shop id",
		})
	}

	shop, err := h.directory.GetShop(c.UserContext(), id)
	if err != nil {
		if errors.Is(err, directory.ErrShopNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: "Shop not found",
			})
		}
		slog.Error("failed to fetch shop", "shop_id", id, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Internal server error",
		})
	}
	return c.JSON(shop)
}

// ListMine returns the shops owned by the caller, newest first.
func (h *ShopHandler) ListMine(c *fiber.Ctx) error {
	state := middleware.SessionFromCtx(c)
	shops, err := h.directory.ListOwnedShops(c.UserContext(), state.Identity.ID)
	if err != nil {
		slog.Error("failed to list owned shops", "user_id", state.Identity.ID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Internal server error",
		})
	}
	return c.JSON(shops)
}

func (h *ShopHandler) Create(c *fiber.Ctx) error {
	state := middleware.SessionFromCtx(c)
	var req dto.ShopRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	shop, err := h.directory.CreateShop(c.UserContext(), state.Identity.ID, &req)
	if err != nil {
		return directoryErrorResponse(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(shop)
}

func (h *ShopHandler) Update(c *fiber.Ctx) error {
	state := middleware.SessionFromCtx(c)
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid shop id",
		})
	}

	var req dto.ShopUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	shop, err := h.directory.UpdateShop(c.UserContext(), id, state.Profile, &req)
	if err != nil {
		return directoryErrorResponse(c, err)
	}
	return c.JSON(shop)
}

func (h *ShopHandler) Delete(c *fiber.Ctx) error {
	state := middleware.SessionFromCtx(c)
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid shop id",
		})
	}

	if err := h.directory.DeleteShop(c.UserContext(), id, state.Profile); err != nil {
		return directoryErrorResponse(c, err)
	}
	return c.JSON(fiber.Map{"message": "Shop deleted"})
}

// Stats summarizes the caller's shops and offers.
func (h *ShopHandler) Stats(c *fiber.Ctx) error {
	state := middleware.SessionFromCtx(c)
	stats, err := h.directory.Stats(c.UserContext(), state.Identity.ID)
	if err != nil {
		slog.Error("failed to compute stats", "user_id", state.Identity.ID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Internal server error",
		})
	}
	return c.JSON(stats)
}

// directoryErrorResponse maps directory sentinels onto HTTP statuses.
func directoryErrorResponse(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, directory.ErrShopNotFound),
		errors.Is(err, directory.ErrOfferNotFound),
		errors.Is(err, directory.ErrCategoryNotFound),
		errors.Is(err, directory.ErrFloorNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Error: true, Message: err.Error(),
		})
	case errors.Is(err, directory.ErrNotOwner):
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
			Error: true, Message: err.Error(),
		})
	case errors.Is(err, directory.ErrNameRequired),
		errors.Is(err, directory.ErrAddressRequired),
		errors.Is(err, directory.ErrCategoryRequired),
		errors.Is(err, directory.ErrTitleRequired),
		errors.Is(err, directory.ErrInvalidValidity):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: err.Error(),
		})
	}
	slog.Error("directory operation failed", "error", err)
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
		Error: true, Message: "Internal server error",
	})
}
