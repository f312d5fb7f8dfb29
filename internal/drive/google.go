package drive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/drivehub/backend/internal/config"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	filesEndpoint = "https://www.googleapis.com/drive/v3/files"

	// Drive only returns the fields asked for, so every call names them.
	fileFields = "id,name,mimeType,modifiedTime,size,thumbnailLink,starred,trashed,parents"
	listFields = "nextPageToken,files(" + fileFields + ")"

	// DriveScope grants full read/write access to the linked account's files.
	DriveScope = "https://www.googleapis.com/auth/drive"
)

// GoogleClient implements Client against the Drive v3 REST API. The
// underlying http.Client refreshes the access token transparently from the
// user's stored refresh token.
type GoogleClient struct {
	http *http.Client
}

// OAuthConfig is the oauth2 configuration for both the account-linking
// consent flow and refresh-token-backed API clients.
func OAuthConfig(cfg config.GoogleConfig) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
		Scopes:       []string{DriveScope},
		Endpoint:     google.Endpoint,
	}
}

func NewGoogleClient(ctx context.Context, cfg config.GoogleConfig, refreshToken string) *GoogleClient {
	source := OAuthConfig(cfg).TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	return &GoogleClient{http: oauth2.NewClient(ctx, source)}
}

// NewClientFactory binds the OAuth configuration into a ClientFactory.
func NewClientFactory(cfg config.GoogleConfig) ClientFactory {
	return func(ctx context.Context, refreshToken string) Client {
		return NewGoogleClient(ctx, cfg, refreshToken)
	}
}

func (g *GoogleClient) ListFiles(ctx context.Context, q ListQuery) (*FileList, error) {
	params := url.Values{}
	params.Set("fields", listFields)
	if q.Query != "" {
		params.Set("q", q.Query)
	}
	if q.OrderBy != "" {
		params.Set("orderBy", q.OrderBy)
	}
	if q.PageSize > 0 {
		params.Set("pageSize", strconv.Itoa(q.PageSize))
	}
	if q.PageToken != "" {
		params.Set("pageToken", q.PageToken)
	}

	var list FileList
	if err := g.doJSON(ctx, http.MethodGet, filesEndpoint+"?"+params.Encode(), nil, &list); err != nil {
		return nil, fmt.Errorf("failed listing files: %w", err)
	}
	return &list, nil
}

func (g *GoogleClient) GetFile(ctx context.Context, fileID string) (*File, error) {
	endpoint := fmt.Sprintf("%s/%s?fields=%s", filesEndpoint, url.PathEscape(fileID), url.QueryEscape(fileFields))

	var file File
	if err := g.doJSON(ctx, http.MethodGet, endpoint, nil, &file); err != nil {
		return nil, fmt.Errorf("failed loading file %s: %w", fileID, err)
	}
	return &file, nil
}

func (g *GoogleClient) CreateFolder(ctx context.Context, name string, parentID string) (*File, error) {
	body := map[string]interface{}{
		"name":     name,
		"mimeType": FolderMimeType,
	}
	if parentID != "" {
		body["parents"] = []string{parentID}
	}

	var folder File
	if err := g.doJSON(ctx, http.MethodPost, filesEndpoint+"?fields="+url.QueryEscape(fileFields), body, &folder); err != nil {
		return nil, fmt.Errorf("failed creating folder: %w", err)
	}
	return &folder, nil
}

func (g *GoogleClient) UpdateFile(ctx context.Context, fileID string, patch FilePatch) (*File, error) {
	endpoint := fmt.Sprintf("%s/%s?fields=%s", filesEndpoint, url.PathEscape(fileID), url.QueryEscape(fileFields))

	var file File
	if err := g.doJSON(ctx, http.MethodPatch, endpoint, patch, &file); err != nil {
		return nil, fmt.Errorf("failed updating file %s: %w", fileID, err)
	}
	return &file, nil
}

func (g *GoogleClient) DeleteFile(ctx context.Context, fileID string) error {
	endpoint := filesEndpoint + "/" + url.PathEscape(fileID)

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		return err
	}

	resp, err := g.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed deleting file %s: %w", fileID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apiError(resp)
	}
	return nil
}

func (g *GoogleClient) doJSON(ctx context.Context, method, endpoint string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := g.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apiError(resp)
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func apiError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	return fmt.Errorf("drive api returned status %d: %s", resp.StatusCode, string(body))
}

// EscapeQueryTerm escapes a value for interpolation into a Drive query
// string, where terms are single-quoted.
func EscapeQueryTerm(value string) string {
	escaped := make([]byte, 0, len(value))
	for i := 0; i < len(value); i++ {
		if value[i] == '\'' || value[i] == '\\' {
			escaped = append(escaped, '\\')
		}
		escaped = append(escaped, value[i])
	}
	return string(escaped)
}
