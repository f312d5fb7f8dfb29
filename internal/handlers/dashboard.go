package handlers

import (
	"github.com/drivehub/backend/internal/drive"
	"github.com/drivehub/backend/internal/middleware"
	"github.com/drivehub/backend/internal/services"
	"github.com/drivehub/backend/pkg/logger"
	"github.com/drivehub/backend/pkg/utils"
	"github.com/gofiber/fiber/v2"
)

type DashboardHandler struct {
	Clients         drive.ClientFactory
	Service         *services.DashboardService
	DefaultPageSize int
}

func NewDashboardHandler(clients drive.ClientFactory, service *services.DashboardService, defaultPageSize int) *DashboardHandler {
	return &DashboardHandler{Clients: clients, Service: service, DefaultPageSize: defaultPageSize}
}

// GetDashboard serves both request shapes. Without a pageToken it returns
// the cached quick-access and carousel lists plus a live page; with one it
// returns only a live page, with quickAccess and previewCarousel as empty
// arrays. Clients are expected to keep the first page's lists and must not
// overwrite them with the empties.
func (h *DashboardHandler) GetDashboard(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}
	if !currentUser.HasDriveAccess() {
		return utils.Error(c, fiber.StatusUnauthorized, "google account not linked")
	}

	client := h.Clients(c.Context(), *currentUser.GoogleRefreshToken)
	userID := currentUser.ID.String()
	limit := clampPageSize(parseIntDefault(c.Query("limit"), h.DefaultPageSize), h.DefaultPageSize)
	pageToken := c.Query("pageToken")

	if pageToken != "" {
		page, err := h.Service.ListPage(c.Context(), client, pageToken, limit)
		if err != nil {
			logger.ErrorWithUser(userID, "dashboard_page_failed", err, map[string]interface{}{
				"limit": limit,
			})
			return utils.Error(c, fiber.StatusInternalServerError, "failed loading file listing")
		}

		return utils.Success(c, fiber.StatusOK, services.InitialDashboard{
			QuickAccess:     []drive.File{},
			PreviewCarousel: []drive.File{},
			DashboardPage:   *page,
		})
	}

	dashboard, err := h.Service.InitialDashboard(c.Context(), userID, client, limit)
	if err != nil {
		logger.ErrorWithUser(userID, "dashboard_failed", err, map[string]interface{}{
			"limit": limit,
		})
		return utils.Error(c, fiber.StatusInternalServerError, "failed loading dashboard")
	}

	return utils.Success(c, fiber.StatusOK, dashboard)
}
