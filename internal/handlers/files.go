package handlers

import (
	"fmt"
	"strings"

	"github.com/drivehub/backend/internal/drive"
	"github.com/drivehub/backend/internal/middleware"
	"github.com/drivehub/backend/internal/models"
	"github.com/drivehub/backend/pkg/logger"
	"github.com/drivehub/backend/pkg/utils"
	"github.com/gofiber/fiber/v2"
)

// FilesHandler is a thin pass-through surface: every operation forwards to
// the remote provider and returns its response. No file metadata is kept
// locally.
type FilesHandler struct {
	Clients         drive.ClientFactory
	DefaultPageSize int
}

func NewFilesHandler(clients drive.ClientFactory, defaultPageSize int) *FilesHandler {
	return &FilesHandler{Clients: clients, DefaultPageSize: defaultPageSize}
}

func (h *FilesHandler) client(c *fiber.Ctx) (drive.Client, *models.User, error) {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return nil, nil, utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}
	if !currentUser.HasDriveAccess() {
		return nil, nil, utils.Error(c, fiber.StatusUnauthorized, "google account not linked")
	}
	return h.Clients(c.Context(), *currentUser.GoogleRefreshToken), currentUser, nil
}

func (h *FilesHandler) list(c *fiber.Ctx, query, orderBy string) error {
	client, currentUser, err := h.client(c)
	if client == nil {
		return err
	}

	limit := clampPageSize(parseIntDefault(c.Query("limit"), h.DefaultPageSize), h.DefaultPageSize)

	listing, listErr := client.ListFiles(c.Context(), drive.ListQuery{
		Query:     query,
		OrderBy:   orderBy,
		PageSize:  limit,
		PageToken: c.Query("pageToken"),
	})
	if listErr != nil {
		logger.ErrorWithUser(currentUser.ID.String(), "drive_list_failed", listErr, map[string]interface{}{
			"query": query,
		})
		return utils.Error(c, fiber.StatusInternalServerError, "failed listing files")
	}

	if listing.Files == nil {
		listing.Files = []drive.File{}
	}
	return utils.Success(c, fiber.StatusOK, listing)
}

// List returns the children of a folder, root by default.
func (h *FilesHandler) List(c *fiber.Ctx) error {
	folderID := strings.TrimSpace(c.Query("folderId"))
	if folderID == "" {
		folderID = "root"
	}
	query := fmt.Sprintf("'%s' in parents and trashed = false", drive.EscapeQueryTerm(folderID))
	return h.list(c, query, "folder,name")
}

func (h *FilesHandler) ListStarred(c *fiber.Ctx) error {
	return h.list(c, "starred = true and trashed = false", "modifiedTime desc")
}

func (h *FilesHandler) ListTrash(c *fiber.Ctx) error {
	return h.list(c, "trashed = true", "modifiedTime desc")
}

type createFolderRequest struct {
	Name     string `json:"name"`
	ParentID string `json:"parentId"`
}

func (h *FilesHandler) CreateFolder(c *fiber.Ctx) error {
	client, currentUser, err := h.client(c)
	if client == nil {
		return err
	}

	var req createFolderRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return utils.Error(c, fiber.StatusBadRequest, "name is required")
	}

	folder, createErr := client.CreateFolder(c.Context(), name, strings.TrimSpace(req.ParentID))
	if createErr != nil {
		logger.ErrorWithUser(currentUser.ID.String(), "drive_create_folder_failed", createErr, map[string]interface{}{
			"folder_name": name,
		})
		return utils.Error(c, fiber.StatusInternalServerError, "failed creating folder")
	}

	logger.InfoWithUser(currentUser.ID.String(), "folder_created", map[string]interface{}{
		"file_id":     folder.ID,
		"folder_name": folder.Name,
	})

	return utils.Success(c, fiber.StatusCreated, folder)
}

type starRequest struct {
	Starred bool `json:"starred"`
}

func (h *FilesHandler) Star(c *fiber.Ctx) error {
	var req starRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	return h.patch(c, "file_starred", drive.FilePatch{Starred: &req.Starred})
}

func (h *FilesHandler) Trash(c *fiber.Ctx) error {
	trashed := true
	return h.patch(c, "file_trashed", drive.FilePatch{Trashed: &trashed})
}

func (h *FilesHandler) Restore(c *fiber.Ctx) error {
	trashed := false
	return h.patch(c, "file_restored", drive.FilePatch{Trashed: &trashed})
}

func (h *FilesHandler) patch(c *fiber.Ctx, action string, patch drive.FilePatch) error {
	client, currentUser, err := h.client(c)
	if client == nil {
		return err
	}

	fileID := strings.TrimSpace(c.Params("id"))
	if fileID == "" {
		return utils.Error(c, fiber.StatusBadRequest, "file id is required")
	}

	file, patchErr := client.UpdateFile(c.Context(), fileID, patch)
	if patchErr != nil {
		logger.ErrorWithUser(currentUser.ID.String(), "drive_update_failed", patchErr, map[string]interface{}{
			"file_id": fileID,
		})
		return utils.Error(c, fiber.StatusInternalServerError, "failed updating file")
	}

	logger.InfoWithUser(currentUser.ID.String(), action, map[string]interface{}{
		"file_id":   file.ID,
		"file_name": file.Name,
	})

	return utils.Success(c, fiber.StatusOK, file)
}

func (h *FilesHandler) Delete(c *fiber.Ctx) error {
	client, currentUser, err := h.client(c)
	if client == nil {
		return err
	}

	fileID := strings.TrimSpace(c.Params("id"))
	if fileID == "" {
		return utils.Error(c, fiber.StatusBadRequest, "file id is required")
	}

	if deleteErr := client.DeleteFile(c.Context(), fileID); deleteErr != nil {
		logger.ErrorWithUser(currentUser.ID.String(), "drive_delete_failed", deleteErr, map[string]interface{}{
			"file_id": fileID,
		})
		return utils.Error(c, fiber.StatusInternalServerError, "failed deleting file")
	}

	logger.InfoWithUser(currentUser.ID.String(), "file_deleted", map[string]interface{}{
		"file_id": fileID,
	})

	return utils.Success(c, fiber.StatusOK, fiber.Map{"message": "file deleted"})
}
