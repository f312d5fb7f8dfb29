package drive

import (
	"context"
	"time"
)

// FolderMimeType is the reserved MIME type Drive assigns to folders.
const FolderMimeType = "application/vnd.google-apps.folder"

// File is the remote-provider metadata record. It is fetched fresh on every
// aggregation cycle and never persisted locally. ThumbnailLink is a
// short-lived provider-signed URL; the dashboard rewrites it to the local
// proxy once the blob has been cached.
type File struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	MimeType      string    `json:"mimeType"`
	ModifiedTime  time.Time `json:"modifiedTime"`
	Size          int64     `json:"size,string,omitempty"`
	ThumbnailLink string    `json:"thumbnailLink,omitempty"`
	Starred       bool      `json:"starred"`
	Trashed       bool      `json:"trashed"`
	Parents       []string  `json:"parents,omitempty"`
}

// IsFolder reports whether the file is a folder container.
func (f *File) IsFolder() bool {
	return f.MimeType == FolderMimeType
}

// HasThumbnail reports whether the file carries a preview reference.
func (f *File) HasThumbnail() bool {
	return f.ThumbnailLink != ""
}

// FileList is one page of a listing along with the token for the next one.
type FileList struct {
	Files         []File `json:"files"`
	NextPageToken string `json:"nextPageToken,omitempty"`
}

// ListQuery shapes a files.list call. Query uses the provider's query
// syntax, e.g. "trashed = false".
type ListQuery struct {
	Query     string
	OrderBy   string
	PageSize  int
	PageToken string
}

// FilePatch carries the mutable fields of a metadata update. Nil fields are
// left untouched.
type FilePatch struct {
	Name    *string `json:"name,omitempty"`
	Starred *bool   `json:"starred,omitempty"`
	Trashed *bool   `json:"trashed,omitempty"`
}

// Client is the remote storage provider surface the rest of the system
// depends on. The production implementation talks to the Google Drive v3
// REST API; tests substitute a stub.
type Client interface {
	ListFiles(ctx context.Context, q ListQuery) (*FileList, error)
	GetFile(ctx context.Context, fileID string) (*File, error)
	CreateFolder(ctx context.Context, name string, parentID string) (*File, error)
	UpdateFile(ctx context.Context, fileID string, patch FilePatch) (*File, error)
	DeleteFile(ctx context.Context, fileID string) error
}

// ClientFactory builds an authenticated Client from a stored refresh token.
// Injected into handlers so tests can swap in a fake provider.
type ClientFactory func(ctx context.Context, refreshToken string) Client
