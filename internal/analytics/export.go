package analytics

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
)

// Export formats supported by the export endpoint
const (
	FormatJSON = "json"
	FormatCSV  = "csv"
)

// Export serializes already-computed views. The input is a mapping from view
// name to computed view; computing the views is the caller's job. For CSV the
// overview flattens to key,value lines and post lists to a fixed-column table.
// The second return value is the response content type.
func Export(views map[string]interface{}, format string) ([]byte, string, error) {
	switch format {
	case FormatJSON, "":
		out, err := json.MarshalIndent(views, "", "  ")
		if err != nil {
			return nil, "", fmt.Errorf("failed to serialize export: %w", err)
		}
		return out, "application/json", nil
	case FormatCSV:
		out, err := exportCSV(views)
		if err != nil {
			return nil, "", err
		}
		return out, "text/csv", nil
	default:
		return nil, "", fmt.Errorf("unsupported export format: %s", format)
	}
}

func exportCSV(views map[string]interface{}) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if raw, ok := views[MetricOverview]; ok {
		overview, ok := raw.(*Overview)
		if !ok {
			return nil, fmt.Errorf("overview view has unexpected type %T", raw)
		}
		writeOverviewCSV(w, overview)
	}

	if raw, ok := views[MetricPosts]; ok {
		posts, ok := raw.(*PostsAnalytics)
		if !ok {
			return nil, fmt.Errorf("posts view has unexpected type %T", raw)
		}
		writePostsCSV(w, posts.Posts)
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to write csv: %w", err)
	}
	return buf.Bytes(), nil
}

// writeOverviewCSV flattens the overview metrics into key,value lines
func writeOverviewCSV(w *csv.Writer, overview *Overview) {
	w.Write([]string{"metric", "value"})
	w.Write([]string{"username", overview.Username})
	w.Write([]string{"followers", strconv.Itoa(overview.Followers)})
	w.Write([]string{"following", strconv.Itoa(overview.Following)})
	w.Write([]string{"media_count", strconv.Itoa(overview.MediaCount)})
	w.Write([]string{"engagement_rate", strconv.FormatFloat(overview.EngagementRate, 'f', 2, 64)})
	w.Write([]string{"avg_likes", strconv.Itoa(overview.AvgLikes)})
	w.Write([]string{"avg_comments", strconv.Itoa(overview.AvgComments)})
	w.Write([]string{"total_impressions", strconv.Itoa(overview.TotalImpressions)})
	w.Write([]string{"total_reach", strconv.Itoa(overview.TotalReach)})
	w.Write([]string{"total_saved", strconv.Itoa(overview.TotalSaved)})
	w.Write([]string{})
}

// writePostsCSV writes the post list as a fixed-column table
func writePostsCSV(w *csv.Writer, posts []PostSummary) {
	w.Write([]string{"id", "media_type", "timestamp", "likes", "comments", "engagement", "impressions", "reach", "saved", "permalink"})
	for _, p := range posts {
		w.Write([]string{
			p.ID,
			p.MediaType,
			p.Timestamp.UTC().Format("2006-01-02T15:04:05Z"),
			strconv.Itoa(p.Likes),
			strconv.Itoa(p.Comments),
			strconv.Itoa(p.Engagement),
			strconv.Itoa(p.Impressions),
			strconv.Itoa(p.Reach),
			strconv.Itoa(p.Saved),
			p.Permalink,
		})
	}
}
