package instagram

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/jerilmartin/infini8graph/pkg/telemetry"
)

// mediaInsightMetrics are the per-item insight metrics requested for each post
const mediaInsightMetrics = "impressions,reach,saved"

// GetMediaPage fetches up to limit media items with their insights flattened
// into the returned MediaItems. The second return value is the cursor for the
// next page, empty when the source is exhausted. An item whose insights fetch
// fails is logged and skipped; it never aborts the page.
func (c *Client) GetMediaPage(ctx context.Context, limit int, cursor string) ([]MediaItem, string, error) {
	ctx, span := telemetry.StartSpan(ctx, "instagram.get_media_page")
	defer span.End()

	if limit <= 0 || limit > c.maxPageSize {
		limit = c.maxPageSize
	}

	params := url.Values{}
	params.Set("fields", "id,caption,media_type,media_url,thumbnail_url,permalink,timestamp,like_count,comments_count")
	params.Set("limit", strconv.Itoa(limit))
	if cursor != "" {
		params.Set("after", cursor)
	}

	var page mediaListResponse
	if err := c.doGet(ctx, "/me/media", params, &page); err != nil {
		return nil, "", fmt.Errorf("failed to get media page: %w", err)
	}

	items := make([]MediaItem, 0, len(page.Data))
	for _, raw := range page.Data {
		item, err := c.buildMediaItem(ctx, raw)
		if err != nil {
			c.logger.Warn("Skipping media item, insights fetch failed",
				zap.String("media_id", raw.ID),
				zap.Error(err))
			continue
		}
		items = append(items, *item)
	}

	next := page.Paging.Cursors.After
	if page.Paging.Next == "" {
		// No next link means this was the last page regardless of cursor
		next = ""
	}

	return items, next, nil
}

// GetAllMediaWithInsights pages through the media edge sequentially until
// count items are collected or the cursor is exhausted, whichever first.
func (c *Client) GetAllMediaWithInsights(ctx context.Context, count int) ([]MediaItem, error) {
	ctx, span := telemetry.StartSpan(ctx, "instagram.get_all_media")
	defer span.End()

	if count <= 0 {
		return []MediaItem{}, nil
	}

	items := make([]MediaItem, 0, count)
	cursor := ""
	for len(items) < count {
		pageSize := count - len(items)
		if pageSize > c.maxPageSize {
			pageSize = c.maxPageSize
		}

		page, next, err := c.GetMediaPage(ctx, pageSize, cursor)
		if err != nil {
			return nil, err
		}

		items = append(items, page...)
		if next == "" {
			break
		}
		cursor = next
	}

	if len(items) > count {
		items = items[:count]
	}

	return items, nil
}

// buildMediaItem flattens one raw media object plus its insights sub-resource
func (c *Client) buildMediaItem(ctx context.Context, raw mediaPayload) (*MediaItem, error) {
	insights, err := c.mediaInsights(ctx, raw.ID)
	if err != nil {
		return nil, err
	}

	ts, err := parseTimestamp(raw.Timestamp)
	if err != nil {
		return nil, fmt.Errorf("invalid media timestamp %q: %w", raw.Timestamp, err)
	}

	item := &MediaItem{
		ID:            raw.ID,
		Caption:       raw.Caption,
		MediaType:     raw.MediaType,
		MediaURL:      raw.MediaURL,
		ThumbnailURL:  raw.ThumbnailURL,
		Permalink:     raw.Permalink,
		Timestamp:     ts,
		LikeCount:     raw.LikeCount,
		CommentsCount: raw.CommentsCount,
		Impressions:   insights["impressions"],
		Reach:         insights["reach"],
		Saved:         insights["saved"],
	}

	// The API has not documented an engagement insight for years, but some
	// responses still carry one; prefer it when present.
	if engagement, ok := insights["engagement"]; ok {
		item.Engagement = engagement
	} else {
		item.Engagement = raw.LikeCount + raw.CommentsCount
	}

	return item, nil
}

// mediaInsights fetches the per-item insights sub-resource and flattens it to
// a metric name to value map. Metrics the remote omits are simply absent;
// callers read them as 0.
func (c *Client) mediaInsights(ctx context.Context, mediaID string) (map[string]int, error) {
	params := url.Values{}
	params.Set("metric", mediaInsightMetrics)

	var resp insightsResponse
	if err := c.doGet(ctx, "/"+mediaID+"/insights", params, &resp); err != nil {
		return nil, err
	}

	metrics := make(map[string]int, len(resp.Data))
	for _, entry := range resp.Data {
		if len(entry.Values) == 0 {
			continue
		}
		var value float64
		if err := json.Unmarshal(entry.Values[0].Value, &value); err != nil {
			// Non-numeric value for a media metric; treat as absent
			continue
		}
		metrics[entry.Name] = int(value)
	}

	return metrics, nil
}

// parseTimestamp handles both RFC3339 and the Graph API's +0000 offset format
func parseTimestamp(raw string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, raw); err == nil {
		return ts, nil
	}
	return time.Parse("2006-01-02T15:04:05-0700", raw)
}
