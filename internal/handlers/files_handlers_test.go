package handlers

import (
	"net/http"
	"strings"
	"testing"

	"github.com/drivehub/backend/internal/drive"
)

func TestFilesRequireAuth(t *testing.T) {
	env := setupTestEnv(t)

	resp := performRequest(t, env.app, http.MethodGet, "/api/files/", nil, nil)
	assertStatus(t, resp, http.StatusUnauthorized)
}

func TestFilesRequireLinkedAccount(t *testing.T) {
	env := setupTestEnv(t)
	_, token := createTestUser(t, env.db, "unlinked@example.com", false)

	resp := performRequest(t, env.app, http.MethodGet, "/api/files/", nil, authHeaders(token))
	assertStatus(t, resp, http.StatusUnauthorized)
	assertEnvelopeError(t, decodeJSONMap(t, resp), "google account not linked")
}

func TestListFilesDefaultsToRoot(t *testing.T) {
	env := setupTestEnv(t)
	_, token := createTestUser(t, env.db, "root@example.com", true)

	env.client.files = []drive.File{{ID: "x1", Name: "a.txt", MimeType: "text/plain"}}

	resp := performRequest(t, env.app, http.MethodGet, "/api/files/", nil, authHeaders(token))
	assertStatus(t, resp, http.StatusOK)

	if got := env.client.lastQuery.Query; got != "'root' in parents and trashed = false" {
		t.Fatalf("unexpected provider query: %q", got)
	}

	data := decodeJSONMap(t, resp)["data"].(map[string]any)
	files, ok := data["files"].([]any)
	if !ok || len(files) != 1 {
		t.Fatalf("expected 1 file, got %+v", data["files"])
	}
}

func TestListFilesEscapesFolderID(t *testing.T) {
	env := setupTestEnv(t)
	_, token := createTestUser(t, env.db, "escape@example.com", true)

	resp := performRequest(t, env.app, http.MethodGet, "/api/files/?folderId=ab'c", nil, authHeaders(token))
	assertStatus(t, resp, http.StatusOK)

	if !strings.Contains(env.client.lastQuery.Query, `ab\'c`) {
		t.Fatalf("expected escaped folder id in query, got %q", env.client.lastQuery.Query)
	}
}

func TestListStarred(t *testing.T) {
	env := setupTestEnv(t)
	_, token := createTestUser(t, env.db, "star@example.com", true)

	resp := performRequest(t, env.app, http.MethodGet, "/api/files/starred", nil, authHeaders(token))
	assertStatus(t, resp, http.StatusOK)

	if got := env.client.lastQuery.Query; got != "starred = true and trashed = false" {
		t.Fatalf("unexpected provider query: %q", got)
	}
}

func TestListTrash(t *testing.T) {
	env := setupTestEnv(t)
	_, token := createTestUser(t, env.db, "trash@example.com", true)

	resp := performRequest(t, env.app, http.MethodGet, "/api/trash", nil, authHeaders(token))
	assertStatus(t, resp, http.StatusOK)

	if got := env.client.lastQuery.Query; got != "trashed = true" {
		t.Fatalf("unexpected provider query: %q", got)
	}
}

func TestCreateFolder(t *testing.T) {
	env := setupTestEnv(t)
	_, token := createTestUser(t, env.db, "mkdir@example.com", true)

	resp := performJSONRequest(t, env.app, http.MethodPost, "/api/folders", map[string]string{
		"name": "Tax Documents",
	}, authHeaders(token))
	assertStatus(t, resp, http.StatusCreated)

	data := decodeJSONMap(t, resp)["data"].(map[string]any)
	if name, _ := data["name"].(string); name != "Tax Documents" {
		t.Fatalf("expected created folder name, got %+v", data)
	}
	if mimeType, _ := data["mimeType"].(string); mimeType != drive.FolderMimeType {
		t.Fatalf("expected folder mime type, got %q", mimeType)
	}
}

func TestCreateFolderRequiresName(t *testing.T) {
	env := setupTestEnv(t)
	_, token := createTestUser(t, env.db, "noname@example.com", true)

	resp := performJSONRequest(t, env.app, http.MethodPost, "/api/folders", map[string]string{
		"name": "   ",
	}, authHeaders(token))
	assertStatus(t, resp, http.StatusBadRequest)
}

func TestStarFile(t *testing.T) {
	env := setupTestEnv(t)
	_, token := createTestUser(t, env.db, "starrer@example.com", true)

	resp := performJSONRequest(t, env.app, http.MethodPut, "/api/files/f1/star", map[string]bool{
		"starred": true,
	}, authHeaders(token))
	assertStatus(t, resp, http.StatusOK)

	if env.client.lastPatch.Starred == nil || !*env.client.lastPatch.Starred {
		t.Fatalf("expected starred=true patch, got %+v", env.client.lastPatch)
	}
	if env.client.lastPatch.Trashed != nil {
		t.Fatal("star patch must not touch trashed")
	}
}

func TestTrashAndRestoreFile(t *testing.T) {
	env := setupTestEnv(t)
	_, token := createTestUser(t, env.db, "trasher@example.com", true)

	resp := performRequest(t, env.app, http.MethodPut, "/api/files/f1/trash", nil, authHeaders(token))
	assertStatus(t, resp, http.StatusOK)
	if env.client.lastPatch.Trashed == nil || !*env.client.lastPatch.Trashed {
		t.Fatalf("expected trashed=true patch, got %+v", env.client.lastPatch)
	}

	resp = performRequest(t, env.app, http.MethodPut, "/api/files/f1/restore", nil, authHeaders(token))
	assertStatus(t, resp, http.StatusOK)
	if env.client.lastPatch.Trashed == nil || *env.client.lastPatch.Trashed {
		t.Fatalf("expected trashed=false patch, got %+v", env.client.lastPatch)
	}
}

func TestDeleteFile(t *testing.T) {
	env := setupTestEnv(t)
	_, token := createTestUser(t, env.db, "deleter@example.com", true)

	resp := performRequest(t, env.app, http.MethodDelete, "/api/files/f1", nil, authHeaders(token))
	assertStatus(t, resp, http.StatusOK)

	if len(env.client.deleted) != 1 || env.client.deleted[0] != "f1" {
		t.Fatalf("expected f1 deleted, got %v", env.client.deleted)
	}
}
