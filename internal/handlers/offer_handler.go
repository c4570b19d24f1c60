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

type OfferHandler struct {
	directory *directory.Service
}

func NewOfferHandler(svc *directory.Service) *OfferHandler {
	return &OfferHandler{directory: svc}
}

// ListForShop returns a shop's offers, newest first.
func (h *OfferHandler) ListForShop(c *fiber.Ctx) error {
	shopID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid shop id",
		})
	}

	offers, err := h.directory.ListShopOffers(c.UserContext(), shopID)
	if err != nil {
		slog.Error("failed to list shop offers", "shop_id", shopID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Internal server error",
		})
	}
	return c.JSON(offers)
}

func (h *OfferHandler) Get(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid offer id",
		})
	}

	offer, err := h.directory.GetOffer(c.UserContext(), id)
	if err != nil {
		if errors.Is(err, directory.ErrOfferNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: "Offer not found",
			})
		}
		slog.Error("failed to fetch offer", "offer_id", id, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Internal server error",
		})
	}
	return c.JSON(offer)
}

// ListMine returns the offers across the caller's shops, newest first.
func (h *OfferHandler) ListMine(c *fiber.Ctx) error {
	state := middleware.SessionFromCtx(c)
	offers, err := h.directory.ListOwnedOffers(c.UserContext(), state.Identity.ID)
	if err != nil {
		slog.Error("failed to list owned offers", "user_id", state.Identity.ID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Internal server error",
		})
	}
	return c.JSON(offers)
}

func (h *OfferHandler) Create(c *fiber.Ctx) error {
	state := middleware.SessionFromCtx(c)
	var req dto.OfferRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	offer, err := h.directory.CreateOffer(c.UserContext(), state.Profile, &req)
	if err != nil {
		return directoryErrorResponse(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(offer)
}

func (h *OfferHandler) Update(c *fiber.Ctx) error {
	state := middleware.SessionFromCtx(c)
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid offer id",
		})
	}

	var req dto.OfferUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	offer, err := h.directory.UpdateOffer(c.UserContext(), id, state.Profile, &req)
	if err != nil {
		return directoryErrorResponse(c, err)
	}
	return c.JSON(offer)
}

func (h *OfferHandler) Delete(c *fiber.Ctx) error {
	state := middleware.SessionFromCtx(c)
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid offer id",
		})
	}

	if err := h.directory.DeleteOffer(c.UserContext(), id, state.Profile); err != nil {
		return directoryErrorResponse(c, err)
	}
	return c.JSON(fiber.Map{"message": "Offer deleted"})
}
