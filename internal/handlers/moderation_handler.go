package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rohanjain1648/whisper-thrillz/internal/dto"
	"github.com/rohanjain1648/whisper-thrillz/internal/middleware"
	"github.com/rohanjain1648/whisper-thrillz/internal/services"
)

type ModerationHandler struct {
	moderationService *services.ModerationService
}

func NewModerationHandler(moderationService *services.ModerationService) *ModerationHandler {
	return &ModerationHandler{moderationService: moderationService}
}

func (h *ModerationHandler) Queue(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 20)
	offset := c.QueryInt("offset", 0)

	records, total, err := h.moderationService.Queue(c.Context(), limit, offset)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{
		"records": records,
		"total":   total,
	})
}

func (h *ModerationHandler) Claim(c *fiber.Ctx) error {
	reviewerID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}
	recordID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid record ID",
		})
	}
	if err := h.moderationService.ClaimRecord(c.Context(), recordID, reviewerID); err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{"claimed": true})
}

func (h *ModerationHandler) Review(c *fiber.Ctx) error {
	reviewerID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}
	messageID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid message ID",
		})
	}

	var req dto.ReviewMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}
	if req.Decision != services.DecisionApprove && req.Decision != services.DecisionReject {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Decision must be approve or reject",
		})
	}

	message, err := h.moderationService.ReviewMessage(c.Context(), messageID, reviewerID, req.Decision, req.Notes)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(dto.NewMessageResponse(message))
}

func (h *ModerationHandler) Reclassify(c *fiber.Ctx) error {
	messageID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid message ID",
		})
	}
	if err := h.moderationService.Reclassify(c.Context(), messageID); err != nil {
		return serviceError(c, err)
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"queued": true})
}

func (h *ModerationHandler) Reports(c *fiber.Ctx) error {
	status := c.Query("status")
	limit := c.QueryInt("limit", 20)
	offset := c.QueryInt("offset", 0)

	reports, total, err := h.moderationService.ListReports(c.Context(), status, limit, offset)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{
		"reports": reports,
		"total":   total,
	})
}

func (h *ModerationHandler) ActionReport(c *fiber.Ctx) error {
	reportID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid report ID",
		})
	}

	var req dto.ActionReportRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	if err := h.moderationService.ActionReport(c.Context(), reportID, req.Status, req.AdminNote); err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{"updated": true})
}
