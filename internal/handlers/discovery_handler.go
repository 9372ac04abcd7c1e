package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rohanjain1648/whisper-thrillz/internal/dto"
	"github.com/rohanjain1648/whisper-thrillz/internal/middleware"
	"github.com/rohanjain1648/whisper-thrillz/internal/services"
)

type DiscoveryHandler struct {
	discoveryService *services.DiscoveryService
}

func NewDiscoveryHandler(discoveryService *services.DiscoveryService) *DiscoveryHandler {
	return &DiscoveryHandler{discoveryService: discoveryService}
}

func (h *DiscoveryHandler) Nearby(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	lat := c.QueryFloat("lat")
	lng := c.QueryFloat("lng")
	radius := c.QueryFloat("radius", 1000)

	opts := services.DiscoveryOptions{
		Limit:      c.QueryInt("limit", 0),
		Privileged: middleware.Privileged(c),
	}
	if opts.Privileged {
		opts.ModerationStatus = c.Query("moderation_status")
		opts.IncludeExpired = c.QueryBool("include_expired", false)
	}
	if c.QueryBool("exclude_discovered", true) {
		opts.ExcludeDiscoveredBy = &userID
	}

	mood := services.MoodFilter{}
	hasMood := false
	if v := c.Query("min_sentiment"); v != "" {
		f := c.QueryFloat("min_sentiment")
		mood.MinSentiment = &f
		hasMood = true
	}
	if v := c.Query("max_sentiment"); v != "" {
		f := c.QueryFloat("max_sentiment")
		mood.MaxSentiment = &f
		hasMood = true
	}
	if v := c.Query("emotions"); v != "" {
		mood.Emotions = strings.Split(v, ",")
		hasMood = true
	}
	if hasMood {
		opts.Mood = &mood
	}

	messages, err := h.discoveryService.FindNearbyMessages(c.Context(), lng, lat, radius, opts)
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(fiber.Map{
		"messages": dto.NewMessageResponses(messages),
		"count":    len(messages),
	})
}

func (h *DiscoveryHandler) Insights(c *fiber.Ctx) error {
	if _, err := middleware.GetUserID(c); err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	lat := c.QueryFloat("lat")
	lng := c.QueryFloat("lng")
	radius := c.QueryFloat("radius", 1000)

	insights, err := h.discoveryService.GetLocationInsights(c.Context(), lng, lat, radius)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(insights)
}
