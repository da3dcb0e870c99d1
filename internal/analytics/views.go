package analytics

import (
	"time"

	"github.com/jerilmartin/infini8graph/internal/instagram"
)

// Metric types, used as cache keys and TTL table keys
const (
	MetricOverview            = "overview"
	MetricGrowth              = "growth"
	MetricPosts               = "posts"
	MetricReels               = "reels"
	MetricBestTime            = "best_time"
	MetricHashtags            = "hashtags"
	MetricContentIntelligence = "content_intelligence"
)

// PostSummary is the per-post record embedded in views
type PostSummary struct {
	ID           string    `json:"id"`
	Caption      string    `json:"caption"`
	MediaType    string    `json:"media_type"`
	MediaURL     string    `json:"media_url"`
	ThumbnailURL string    `json:"thumbnail_url,omitempty"`
	Permalink    string    `json:"permalink"`
	Timestamp    time.Time `json:"timestamp"`
	Likes        int       `json:"likes"`
	Comments     int       `json:"comments"`
	Engagement   int       `json:"engagement"`
	Impressions  int       `json:"impressions"`
	Reach        int       `json:"reach"`
	Saved        int       `json:"saved"`
}

// Overview is the account dashboard headline view
type Overview struct {
	Username          string                  `json:"username"`
	Name              string                  `json:"name"`
	ProfilePictureURL string                  `json:"profile_picture_url"`
	Biography         string                  `json:"biography"`
	Website           string                  `json:"website"`
	Followers         int                     `json:"followers"`
	Following         int                     `json:"following"`
	MediaCount        int                     `json:"media_count"`
	EngagementRate    float64                 `json:"engagement_rate"`
	AvgLikes          int                     `json:"avg_likes"`
	AvgComments       int                     `json:"avg_comments"`
	TotalImpressions  int                     `json:"total_impressions"`
	TotalReach        int                     `json:"total_reach"`
	TotalSaved        int                     `json:"total_saved"`
	RecentPosts       []PostSummary           `json:"recent_posts"`
	Demographics      *instagram.Demographics `json:"demographics"`
	LastUpdated       time.Time               `json:"last_updated"`
}

// DailyActivity is one calendar-date bucket in the growth view
type DailyActivity struct {
	Date       string `json:"date"`
	Posts      int    `json:"posts"`
	Engagement int    `json:"engagement"`
}

// Growth reports posting and engagement trends over time
type Growth struct {
	Period              string          `json:"period"`
	Daily               []DailyActivity `json:"daily"`
	ThisWeekPosts       int             `json:"this_week_posts"`
	LastWeekPosts       int             `json:"last_week_posts"`
	ThisWeekEngagement  int             `json:"this_week_engagement"`
	LastWeekEngagement  int             `json:"last_week_engagement"`
	EngagementChangePct float64         `json:"engagement_change_pct"`
	LastUpdated         time.Time       `json:"last_updated"`
}

// HourBucket is an hour-of-day engagement bucket (0-23)
type HourBucket struct {
	Hour          int     `json:"hour"`
	Posts         int     `json:"posts"`
	AvgEngagement float64 `json:"avg_engagement"`
}

// DayBucket is a day-of-week engagement bucket, Sunday-first
type DayBucket struct {
	Weekday       int     `json:"weekday"`
	Day           string  `json:"day"`
	Posts         int     `json:"posts"`
	AvgEngagement float64 `json:"avg_engagement"`
}

// BestTime recommends posting hours and days ranked by average engagement
type BestTime struct {
	Hours       []HourBucket `json:"hours"`
	Days        []DayBucket  `json:"days"`
	TopHours    []HourBucket `json:"top_hours"`
	TopDays     []DayBucket  `json:"top_days"`
	LastUpdated time.Time    `json:"last_updated"`
}

// HashtagStats aggregates performance for one case-folded hashtag
type HashtagStats struct {
	Tag             string  `json:"tag"`
	UsageCount      int     `json:"usage_count"`
	TotalEngagement int     `json:"total_engagement"`
	TotalLikes      int     `json:"total_likes"`
	TotalComments   int     `json:"total_comments"`
	AvgEngagement   float64 `json:"avg_engagement"`
	AvgReach        float64 `json:"avg_reach"`
	ReachMultiplier float64 `json:"reach_multiplier"`
}

// HashtagAnalysis ranks hashtags by engagement, usage and reach expansion
type HashtagAnalysis struct {
	TopByEngagement []HashtagStats `json:"top_by_engagement"`
	TopByUsage      []HashtagStats `json:"top_by_usage"`
	ReachExpanders  []HashtagStats `json:"reach_expanders"`
	TotalUnique     int            `json:"total_unique"`
	LastUpdated     time.Time      `json:"last_updated"`
}

// FormatStats aggregates performance for one media type
type FormatStats struct {
	MediaType      string  `json:"media_type"`
	Posts          int     `json:"posts"`
	AvgEngagement  float64 `json:"avg_engagement"`
	AvgReach       float64 `json:"avg_reach"`
	AvgSaved       float64 `json:"avg_saved"`
	EngagementRate float64 `json:"engagement_rate"`
}

// CaptionBucket is one caption-length bucket
type CaptionBucket struct {
	Range         string  `json:"range"`
	Posts         int     `json:"posts"`
	AvgEngagement float64 `json:"avg_engagement"`
}

// PostIntelligence carries the per-post derived KPIs
type PostIntelligence struct {
	ID                 string   `json:"id"`
	MediaType          string   `json:"media_type"`
	ViralCoefficient   float64  `json:"viral_coefficient"`
	SaveToLikeRatio    float64  `json:"save_to_like_ratio"`
	HighValue          bool     `json:"high_value"`
	EngagementVelocity float64  `json:"engagement_velocity"`
	FastStarter        bool     `json:"fast_starter"`
	QualityScore       float64  `json:"quality_score"`
	Grade              string   `json:"grade"`
	Factors            []string `json:"factors,omitempty"`
}

// ScoreDistribution buckets posts by composite quality score
type ScoreDistribution struct {
	Excellent int `json:"excellent"`
	Good      int `json:"good"`
	Average   int `json:"average"`
	Poor      int `json:"poor"`
}

// ContentIntelligence is the deep content-performance view
type ContentIntelligence struct {
	FormatBattle        []FormatStats      `json:"format_battle"`
	Winner              string             `json:"winner"`
	CaptionLengths      []CaptionBucket    `json:"caption_lengths"`
	OptimalLength       string             `json:"optimal_length"`
	AvgViralCoefficient float64            `json:"avg_viral_coefficient"`
	Posts               []PostIntelligence `json:"posts"`
	ScoreDistribution   ScoreDistribution  `json:"score_distribution"`
	LastUpdated         time.Time          `json:"last_updated"`
}

// PartitionStats aggregates one side of the reel/non-reel split
type PartitionStats struct {
	Posts            int     `json:"posts"`
	TotalEngagement  int     `json:"total_engagement"`
	TotalLikes       int     `json:"total_likes"`
	TotalComments    int     `json:"total_comments"`
	TotalImpressions int     `json:"total_impressions"`
	TotalReach       int     `json:"total_reach"`
	AvgEngagement    float64 `json:"avg_engagement"`
	AvgLikes         float64 `json:"avg_likes"`
	AvgComments      float64 `json:"avg_comments"`
	AvgImpressions   float64 `json:"avg_impressions"`
	AvgReach         float64 `json:"avg_reach"`
}

// ReelsAnalytics compares reels and videos against all other formats
type ReelsAnalytics struct {
	Reels          PartitionStats `json:"reels"`
	Others         PartitionStats `json:"others"`
	ReelMultiplier float64        `json:"reel_multiplier"`
	LastUpdated    time.Time      `json:"last_updated"`
}

// PostsAnalytics lists top posts along four independent rankings
type PostsAnalytics struct {
	Limit           int           `json:"limit"`
	TotalPosts      int           `json:"total_posts"`
	TotalEngagement int           `json:"total_engagement"`
	TotalLikes      int           `json:"total_likes"`
	TotalComments   int           `json:"total_comments"`
	TotalReach      int           `json:"total_reach"`
	AvgEngagement   float64       `json:"avg_engagement"`
	TopByEngagement []string      `json:"top_by_engagement"`
	TopByLikes      []string      `json:"top_by_likes"`
	TopByComments   []string      `json:"top_by_comments"`
	TopByReach      []string      `json:"top_by_reach"`
	Posts           []PostSummary `json:"posts"`
	LastUpdated     time.Time     `json:"last_updated"`
}
