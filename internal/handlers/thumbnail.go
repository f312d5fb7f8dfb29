package handlers

import (
	"errors"
	"strconv"

	"github.com/drivehub/backend/internal/services"
	"github.com/drivehub/backend/pkg/utils"
	"github.com/gofiber/fiber/v2"
)

type ThumbnailHandler struct {
	Thumbnails *services.ThumbnailService
}

func NewThumbnailHandler(thumbnails *services.ThumbnailService) *ThumbnailHandler {
	return &ThumbnailHandler{Thumbnails: thumbnails}
}

// GetThumbnail streams a cached thumbnail. A miss is a plain 404: the proxy
// never reaches out to the remote provider, repopulation is the dashboard
// aggregation's job.
func (h *ThumbnailHandler) GetThumbnail(c *fiber.Ctx) error {
	userID := c.Params("userId")
	fileID := c.Params("fileId")
	if userID == "" || fileID == "" {
		return utils.Error(c, fiber.StatusBadRequest, "userId and fileId are required")
	}

	data, contentType, err := h.Thumbnails.GetThumbnail(c.Context(), userID, fileID)
	if errors.Is(err, services.ErrThumbnailNotFound) {
		return utils.Error(c, fiber.StatusNotFound, "thumbnail not found")
	}
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed loading thumbnail")
	}

	// The blob is immutable for its TTL, so aggressive client and CDN
	// caching is safe.
	c.Set(fiber.HeaderContentType, contentType)
	c.Set(fiber.HeaderContentLength, strconv.Itoa(len(data)))
	c.Set(fiber.HeaderCacheControl, "public, max-age=86400, immutable")
	return c.Send(data)
}
