package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/launchlist/waitlist-service/internal/api/dto"
	"github.com/launchlist/waitlist-service/internal/service"
)

// JoinedMessage is returned with every accepted entry.
const JoinedMessage = "You have joined the waiting list."

// WaitlistHandler exposes the collection endpoint.
type WaitlistHandler struct {
	waitlist *service.WaitlistService
}

// NewWaitlistHandler constructs handler.
func NewWaitlistHandler(waitlistService *service.WaitlistService) *WaitlistHandler {
	return &WaitlistHandler{waitlist: waitlistService}
}

// Join handles POST /api/waitlist.
func (h *WaitlistHandler) Join(c *fiber.Ctx) error {
	var req dto.JoinRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	entry, err := h.waitlist.Join(c.UserContext(), service.JoinInput{
		Name:      req.Name,
		Email:     req.Email,
		Timestamp: req.Timestamp,
		ClientKey: c.IP(),
	})
	if err != nil {
		return err
	}

	return c.Status(http.StatusCreated).JSON(dto.JoinResponse{
		Data:    dto.NewEntryResponse(*entry),
		Message: JoinedMessage,
		Success: true,
	})
}

// List handles GET /api/waitlist.
func (h *WaitlistHandler) List(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	pageSize := c.QueryInt("page_size", 20)

	entries, total, err := h.waitlist.List(c.UserContext(), page, pageSize)
	if err != nil {
		return err
	}

	data := make([]dto.EntryResponse, 0, len(entries))
	for _, e := range entries {
		data = append(data, dto.NewEntryResponse(e))
	}
	return c.JSON(dto.EntryListResponse{
		Data:       data,
		Pagination: dto.Pagination{Page: page, PageSize: pageSize, Total: total},
	})
}

// Count handles GET /api/waitlist/count.
func (h *WaitlistHandler) Count(c *fiber.Ctx) error {
	n, err := h.waitlist.Count(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(dto.CountResponse{Count: n})
}
