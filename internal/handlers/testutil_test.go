package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/drivehub/backend/internal/cache"
	"github.com/drivehub/backend/internal/config"
	"github.com/drivehub/backend/internal/drive"
	"github.com/drivehub/backend/internal/middleware"
	"github.com/drivehub/backend/internal/models"
	"github.com/drivehub/backend/internal/services"
	"github.com/drivehub/backend/pkg/logger"
	"github.com/drivehub/backend/pkg/utils"
	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"gorm.io/gorm"
)

type testEnv struct {
	app    *fiber.App
	db     *gorm.DB
	store  *cache.MemoryStore
	client *fakeDriveClient
}

// fakeDriveClient stands in for the remote provider in handler tests.
type fakeDriveClient struct {
	files     []drive.File
	listErr   error
	deleted   []string
	lastQuery drive.ListQuery
	lastPatch drive.FilePatch
}

func (f *fakeDriveClient) ListFiles(ctx context.Context, q drive.ListQuery) (*drive.FileList, error) {
	f.lastQuery = q
	if f.listErr != nil {
		return nil, f.listErr
	}
	copied := make([]drive.File, len(f.files))
	copy(copied, f.files)
	return &drive.FileList{Files: copied}, nil
}

func (f *fakeDriveClient) GetFile(ctx context.Context, fileID string) (*drive.File, error) {
	for _, file := range f.files {
		if file.ID == fileID {
			found := file
			return &found, nil
		}
	}
	return nil, fiber.ErrNotFound
}

func (f *fakeDriveClient) CreateFolder(ctx context.Context, name, parentID string) (*drive.File, error) {
	file := drive.File{ID: "folder-1", Name: name, MimeType: drive.FolderMimeType}
	f.files = append(f.files, file)
	return &file, nil
}

func (f *fakeDriveClient) UpdateFile(ctx context.Context, fileID string, patch drive.FilePatch) (*drive.File, error) {
	f.lastPatch = patch
	return &drive.File{ID: fileID, Name: "updated"}, nil
}

func (f *fakeDriveClient) DeleteFile(ctx context.Context, fileID string) error {
	f.deleted = append(f.deleted, fileID)
	return nil
}

var testSetupOnce sync.Once

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	testSetupOnce.Do(func() {
		logger.Init()
		utils.ConfigureJWT("test-secret", 24)
	})

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed opening in-memory sqlite database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed getting sql.DB from gorm: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	if err := db.AutoMigrate(&models.User{}); err != nil {
		t.Fatalf("failed automigrating models: %v", err)
	}

	dashCfg := config.DashboardConfig{
		ViewTTL:         time.Hour,
		ThumbnailTTL:    24 * time.Hour,
		FetchTimeout:    5 * time.Second,
		RecentBatchSize: 50,
		DefaultPageSize: 35,
	}

	store := cache.NewMemoryStore()
	client := &fakeDriveClient{}
	clients := drive.ClientFactory(func(ctx context.Context, refreshToken string) drive.Client {
		return client
	})

	thumbnailService := services.NewThumbnailService(store, dashCfg)
	dashboardService := services.NewDashboardService(store, thumbnailService, dashCfg)

	authHandler := NewAuthHandler(db, config.GoogleConfig{
		ClientID:     "test-client",
		ClientSecret: "test-secret",
		RedirectURL:  "http://localhost:8080/api/auth/google/callback",
	})
	dashboardHandler := NewDashboardHandler(clients, dashboardService, dashCfg.DefaultPageSize)
	thumbnailHandler := NewThumbnailHandler(thumbnailService)
	filesHandler := NewFilesHandler(clients, dashCfg.DefaultPageSize)

	authMiddleware := middleware.NewAuthMiddleware(db)

	app := fiber.New(fiber.Config{})
	app.Use(recover.New(recover.Config{EnableStackTrace: true}))
	app.Use(middleware.CORS())
	app.Use(middleware.RequestLogger())

	api := app.Group("/api")

	authRoutes := api.Group("/auth")
	authRoutes.Post("/register", authHandler.Register)
	authRoutes.Post("/login", authHandler.Login)
	authRoutes.Get("/me", authMiddleware.RequireAuth, authHandler.Me)
	authRoutes.Get("/google", authMiddleware.RequireAuth, authHandler.GoogleConnect)
	authRoutes.Get("/google/callback", authHandler.GoogleCallback)

	api.Get("/dashboard", authMiddleware.RequireAuth, dashboardHandler.GetDashboard)
	api.Get("/thumbnail/:userId/:fileId", thumbnailHandler.GetThumbnail)

	fileRoutes := api.Group("/files", authMiddleware.RequireAuth)
	fileRoutes.Get("/", filesHandler.List)
	fileRoutes.Get("/starred", filesHandler.ListStarred)
	fileRoutes.Put("/:id/star", filesHandler.Star)
	fileRoutes.Put("/:id/trash", filesHandler.Trash)
	fileRoutes.Put("/:id/restore", filesHandler.Restore)
	fileRoutes.Delete("/:id", filesHandler.Delete)

	api.Post("/folders", authMiddleware.RequireAuth, filesHandler.CreateFolder)
	api.Get("/trash", authMiddleware.RequireAuth, filesHandler.ListTrash)

	return &testEnv{app: app, db: db, store: store, client: client}
}

func createTestUser(t *testing.T, db *gorm.DB, email string, linked bool) (*models.User, string) {
	t.Helper()

	hash, err := utils.HashPassword("password123")
	if err != nil {
		t.Fatalf("failed hashing password: %v", err)
	}

	user := &models.User{
		Email:        email,
		PasswordHash: hash,
		FirstName:    "Test",
		LastName:     "User",
		Role:         models.UserRoleUser,
	}
	if linked {
		token := "refresh-token"
		user.GoogleRefreshToken = &token
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed creating test user: %v", err)
	}

	token, err := utils.GenerateToken(user)
	if err != nil {
		t.Fatalf("failed generating auth token: %v", err)
	}

	return user, token
}

func authHeaders(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

func performRequest(t *testing.T, app *fiber.App, method, path string, body io.Reader, headers map[string]string) *http.Response {
	t.Helper()

	req := httptest.NewRequest(method, path, body)
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := app.Test(req, int((10 * time.Second).Milliseconds()))
	if err != nil {
		t.Fatalf("request %s %s failed: %v", method, path, err)
	}

	return resp
}

func performJSONRequest(t *testing.T, app *fiber.App, method, path string, payload any, headers map[string]string) *http.Response {
	t.Helper()

	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("failed to marshal payload: %v", err)
		}
		body = bytes.NewReader(encoded)
	}

	requestHeaders := map[string]string{}
	for key, value := range headers {
		requestHeaders[key] = value
	}
	if payload != nil {
		requestHeaders["Content-Type"] = "application/json"
	}

	return performRequest(t, app, method, path, body, requestHeaders)
}

func decodeJSONMap(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed reading response body: %v", err)
	}

	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		t.Fatalf("failed decoding JSON response: %v body=%q", err, string(raw))
	}

	return payload
}

func assertStatus(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Fatalf("expected status %d, got %d", expected, resp.StatusCode)
	}
}

func assertEnvelopeError(t *testing.T, body map[string]any, expected string) {
	t.Helper()
	if success, _ := body["success"].(bool); success {
		t.Fatalf("expected success=false, got %+v", body)
	}
	if got, _ := body["error"].(string); got != expected {
		t.Fatalf("expected error %q, got %q", expected, got)
	}
}
