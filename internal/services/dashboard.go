package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/drivehub/backend/internal/cache"
	"github.com/drivehub/backend/internal/config"
	"github.com/drivehub/backend/internal/drive"
	"github.com/drivehub/backend/pkg/logger"
)

const (
	quickAccessLimit     = 3
	previewCarouselLimit = 7
)

// DashboardService derives the dashboard views from one batch of recently
// modified Drive metadata. The two fixed-size lists are cached per user;
// the paged listing is always fetched live.
type DashboardService struct {
	views  cache.Store
	thumbs *ThumbnailService
	cfg    config.DashboardConfig
}

func NewDashboardService(views cache.Store, thumbs *ThumbnailService, cfg config.DashboardConfig) *DashboardService {
	return &DashboardService{views: views, thumbs: thumbs, cfg: cfg}
}

// DashboardPage is one live page of the full non-trashed listing. Its page
// token is independent of the cached fixed-size lists.
type DashboardPage struct {
	Files         []drive.File `json:"pagedListing"`
	TotalCount    int          `json:"totalCount"`
	HasNextPage   bool         `json:"hasNextPage"`
	NextPageToken string       `json:"nextPageToken,omitempty"`
}

// InitialDashboard is the first-page response variant: the two cached lists
// plus a live page. Pagination responses reuse the same wire shape with
// empty lists; see the dashboard handler.
type InitialDashboard struct {
	QuickAccess     []drive.File `json:"quickAccess"`
	PreviewCarousel []drive.File `json:"previewCarousel"`
	DashboardPage
}

// dashboardView is the cached portion of the dashboard. Stored as JSON
// under a per-user key for the view TTL.
type dashboardView struct {
	QuickAccess     []drive.File `json:"quickAccess"`
	PreviewCarousel []drive.File `json:"previewCarousel"`
}

// InitialDashboard serves a first-page request. On a view-cache miss it
// issues one recent-files call and computes both fixed-size lists from it;
// on a hit the lists are reused verbatim with no remote call. Either way
// the paged listing is fetched live and thumbnails are (re)pointed at the
// proxy for every cached blob.
func (s *DashboardService) InitialDashboard(ctx context.Context, userID string, client drive.Client, pageSize int) (*InitialDashboard, error) {
	view, hit := s.loadView(ctx, userID)
	if !hit {
		list, err := client.ListFiles(ctx, drive.ListQuery{
			Query:    "trashed = false",
			OrderBy:  "modifiedTime desc",
			PageSize: s.cfg.RecentBatchSize,
		})
		if err != nil {
			return nil, fmt.Errorf("failed fetching recent files: %w", err)
		}

		view = buildView(list.Files)
		s.storeView(ctx, userID, view)
	}

	s.populateThumbnails(ctx, userID, view)

	page, err := s.ListPage(ctx, client, "", pageSize)
	if err != nil {
		return nil, err
	}

	return &InitialDashboard{
		QuickAccess:     view.QuickAccess,
		PreviewCarousel: view.PreviewCarousel,
		DashboardPage:   *page,
	}, nil
}

// ListPage fetches one live page of the non-trashed listing. Never cached.
func (s *DashboardService) ListPage(ctx context.Context, client drive.Client, pageToken string, pageSize int) (*DashboardPage, error) {
	if pageSize <= 0 {
		pageSize = s.cfg.DefaultPageSize
	}

	list, err := client.ListFiles(ctx, drive.ListQuery{
		Query:     "trashed = false",
		OrderBy:   "modifiedTime desc",
		PageSize:  pageSize,
		PageToken: pageToken,
	})
	if err != nil {
		return nil, fmt.Errorf("failed fetching file listing: %w", err)
	}

	files := list.Files
	if files == nil {
		files = []drive.File{}
	}

	return &DashboardPage{
		Files:         files,
		TotalCount:    len(files),
		HasNextPage:   list.NextPageToken != "",
		NextPageToken: list.NextPageToken,
	}, nil
}

// InvalidateView drops a user's cached dashboard lists so the next request
// recomputes them.
func (s *DashboardService) InvalidateView(ctx context.Context, userID string) error {
	return s.views.Delete(ctx, cache.ViewKey(userID))
}

// buildView partitions one metadata batch, in fetch order, into folders,
// previewable files and plain files. Quick access takes the first folders
// and backfills with plain files when folders are scarce; the carousel
// takes the first previewable files.
func buildView(files []drive.File) *dashboardView {
	folders := make([]drive.File, 0, quickAccessLimit)
	previewable := make([]drive.File, 0, previewCarouselLimit)
	plain := make([]drive.File, 0)

	for _, f := range files {
		switch {
		case f.IsFolder():
			folders = append(folders, f)
		case f.HasThumbnail():
			previewable = append(previewable, f)
		default:
			plain = append(plain, f)
		}
	}

	quickAccess := folders
	if len(quickAccess) > quickAccessLimit {
		quickAccess = quickAccess[:quickAccessLimit]
	}
	for _, f := range plain {
		if len(quickAccess) >= quickAccessLimit {
			break
		}
		quickAccess = append(quickAccess, f)
	}

	carousel := previewable
	if len(carousel) > previewCarouselLimit {
		carousel = carousel[:previewCarouselLimit]
	}

	return &dashboardView{QuickAccess: quickAccess, PreviewCarousel: carousel}
}

// populateThumbnails fans out over both lists and caches every entry that
// carries a preview reference, rewriting it to the proxy URL. Fan-out is
// bounded by the list caps (at most 10 fetches) and collects nothing:
// a failed entry keeps its provider URL and is logged, the rest proceed.
func (s *DashboardService) populateThumbnails(ctx context.Context, userID string, view *dashboardView) {
	var wg sync.WaitGroup

	for _, list := range [][]drive.File{view.QuickAccess, view.PreviewCarousel} {
		for i := range list {
			file := &list[i]
			if !file.HasThumbnail() {
				continue
			}

			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := s.thumbs.CacheIfAbsent(ctx, userID, file); err != nil {
					logger.WarnWithUser(userID, "thumbnail_cache_failed", map[string]interface{}{
						"file_id":   file.ID,
						"file_name": file.Name,
						"error":     err.Error(),
					})
				}
			}()
		}
	}

	wg.Wait()
}

func (s *DashboardService) loadView(ctx context.Context, userID string) (*dashboardView, bool) {
	raw, err := s.views.Get(ctx, cache.ViewKey(userID))
	if err != nil {
		if !errors.Is(err, cache.ErrMiss) {
			logger.WarnWithUser(userID, "dashboard_view_read_failed", map[string]interface{}{
				"error": err.Error(),
			})
		}
		return nil, false
	}

	var view dashboardView
	if err := json.Unmarshal([]byte(raw), &view); err != nil {
		logger.WarnWithUser(userID, "dashboard_view_decode_failed", map[string]interface{}{
			"error": err.Error(),
		})
		return nil, false
	}

	if view.QuickAccess == nil {
		view.QuickAccess = []drive.File{}
	}
	if view.PreviewCarousel == nil {
		view.PreviewCarousel = []drive.File{}
	}
	return &view, true
}

// storeView persists the computed lists. A cache write failure degrades to
// recomputation on the next request, so it is logged and swallowed.
func (s *DashboardService) storeView(ctx context.Context, userID string, view *dashboardView) {
	encoded, err := json.Marshal(view)
	if err != nil {
		logger.WarnWithUser(userID, "dashboard_view_encode_failed", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	if err := s.views.Put(ctx, cache.ViewKey(userID), string(encoded), s.cfg.ViewTTL); err != nil {
		logger.WarnWithUser(userID, "dashboard_view_store_failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
}
