package analytics

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jerilmartin/infini8graph/internal/instagram"
	"github.com/jerilmartin/infini8graph/pkg/telemetry"
)

const intelligenceMediaCount = 100

// Composite quality score weights and factor thresholds
const (
	weightEngagement = 0.25
	weightReach      = 0.25
	weightSaves      = 0.20
	weightVirality   = 0.15
	weightComments   = 0.15

	thresholdEngagement = 50.0
	thresholdReach      = 50.0
	thresholdSaves      = 30.0
	thresholdVirality   = 20.0
	thresholdComments   = 20.0

	highValueSaveRatio  = 0.05
	fastStarterVelocity = 10.0
	fastStarterMaxAge   = 24 * time.Hour
)

var captionRanges = []struct {
	label string
	min   int
	max   int // inclusive, -1 for unbounded
}{
	{"0-50", 0, 50},
	{"51-150", 51, 150},
	{"151-300", 151, 300},
	{"300+", 301, -1},
}

// GetContentIntelligence computes the format battle, caption-length analysis
// and the per-post derived KPIs including the composite quality score.
func (s *Service) GetContentIntelligence(ctx context.Context) (*ContentIntelligence, error) {
	if err := s.ensureInitialized(); err != nil {
		return nil, err
	}

	ctx, span := telemetry.StartSpan(ctx, "analytics.content_intelligence")
	defer span.End()

	var cached ContentIntelligence
	if s.cache.Get(ctx, s.accountID, MetricContentIntelligence, defaultRange, &cached) {
		return &cached, nil
	}

	profile, err := s.fetcher.GetProfile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch profile: %w", err)
	}

	media, err := s.fetcher.GetAllMediaWithInsights(ctx, intelligenceMediaCount)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch media: %w", err)
	}

	view := &ContentIntelligence{
		FormatBattle:   s.formatBattle(media, profile.FollowersCount),
		CaptionLengths: captionLengthBuckets(media),
		Posts:          []PostIntelligence{},
		LastUpdated:    s.now(),
	}
	if len(view.FormatBattle) > 0 {
		view.Winner = view.FormatBattle[0].MediaType
	}
	view.OptimalLength = optimalCaptionLength(view.CaptionLengths)

	totalViral := 0.0
	now := s.now()
	for _, m := range media {
		post := s.scorePost(m, profile.FollowersCount, now)
		totalViral += post.ViralCoefficient
		view.Posts = append(view.Posts, post)

		switch post.Grade {
		case "excellent":
			view.ScoreDistribution.Excellent++
		case "good":
			view.ScoreDistribution.Good++
		case "average":
			view.ScoreDistribution.Average++
		default:
			view.ScoreDistribution.Poor++
		}
	}
	if len(media) > 0 {
		view.AvgViralCoefficient = totalViral / float64(len(media))
	}

	s.cache.Put(ctx, s.accountID, MetricContentIntelligence, defaultRange, view)

	return view, nil
}

// formatBattle aggregates per media type and ranks descending by average engagement
func (s *Service) formatBattle(media []instagram.MediaItem, followers int) []FormatStats {
	type accum struct {
		posts      int
		engagement int
		reach      int
		saved      int
	}

	byFormat := make(map[string]*accum)
	for _, m := range media {
		a, ok := byFormat[m.MediaType]
		if !ok {
			a = &accum{}
			byFormat[m.MediaType] = a
		}
		a.posts++
		a.engagement += m.Engagement
		a.reach += m.Reach
		a.saved += m.Saved
	}

	battle := make([]FormatStats, 0, len(byFormat))
	for mediaType, a := range byFormat {
		st := FormatStats{
			MediaType:     mediaType,
			Posts:         a.posts,
			AvgEngagement: round1(float64(a.engagement) / float64(a.posts)),
			AvgReach:      round1(float64(a.reach) / float64(a.posts)),
			AvgSaved:      round1(float64(a.saved) / float64(a.posts)),
		}
		if followers > 0 {
			st.EngagementRate = round2(float64(a.engagement) / float64(a.posts) / float64(followers) * 100)
		}
		battle = append(battle, st)
	}

	sort.SliceStable(battle, func(i, j int) bool {
		if battle[i].AvgEngagement != battle[j].AvgEngagement {
			return battle[i].AvgEngagement > battle[j].AvgEngagement
		}
		return battle[i].MediaType < battle[j].MediaType
	})

	return battle
}

// captionLengthBuckets averages engagement per caption-length bucket
func captionLengthBuckets(media []instagram.MediaItem) []CaptionBucket {
	buckets := make([]CaptionBucket, len(captionRanges))
	engagement := make([]int, len(captionRanges))

	for i, r := range captionRanges {
		buckets[i] = CaptionBucket{Range: r.label}
	}
	for _, m := range media {
		length := len(m.Caption)
		for i, r := range captionRanges {
			if length < r.min {
				continue
			}
			if r.max >= 0 && length > r.max {
				continue
			}
			buckets[i].Posts++
			engagement[i] += m.Engagement
			break
		}
	}
	for i := range buckets {
		if buckets[i].Posts > 0 {
			buckets[i].AvgEngagement = round1(float64(engagement[i]) / float64(buckets[i].Posts))
		}
	}

	return buckets
}

// optimalCaptionLength returns the bucket with the highest average engagement
// among buckets that saw posts
func optimalCaptionLength(buckets []CaptionBucket) string {
	best := ""
	bestAvg := -1.0
	for _, b := range buckets {
		if b.Posts > 0 && b.AvgEngagement > bestAvg {
			best = b.Range
			bestAvg = b.AvgEngagement
		}
	}
	return best
}

// scorePost computes the per-post KPIs and the composite quality score
func (s *Service) scorePost(m instagram.MediaItem, followers int, now time.Time) PostIntelligence {
	post := PostIntelligence{
		ID:        m.ID,
		MediaType: m.MediaType,
	}

	if m.Reach > 0 {
		post.ViralCoefficient = float64(m.Saved) / float64(m.Reach)
	}
	if m.LikeCount > 0 {
		post.SaveToLikeRatio = float64(m.Saved) / float64(m.LikeCount)
	}
	post.HighValue = post.SaveToLikeRatio > highValueSaveRatio

	age := now.Sub(m.Timestamp)
	hours := age.Hours()
	if hours < 1 {
		hours = 1
	}
	post.EngagementVelocity = round1(float64(m.Engagement) / hours)
	post.FastStarter = post.EngagementVelocity > fastStarterVelocity && age <= fastStarterMaxAge

	// Composite score components, each normalized to a comparable scale
	var engagementScore, reachScore float64
	if followers > 0 {
		engagementScore = float64(m.Engagement) / float64(followers) * 1000
		reachScore = float64(m.Reach) / float64(followers) * 100
	}
	savesScore := float64(m.Saved) * 10
	viralityScore := 0.0
	if m.Reach > 0 {
		viralityScore = float64(m.Saved) / float64(m.Reach) * 1000
	}
	commentsScore := float64(m.CommentsCount) * 20

	post.QualityScore = round1(weightEngagement*engagementScore +
		weightReach*reachScore +
		weightSaves*savesScore +
		weightVirality*viralityScore +
		weightComments*commentsScore)

	switch {
	case post.QualityScore >= 80:
		post.Grade = "excellent"
	case post.QualityScore >= 50:
		post.Grade = "good"
	case post.QualityScore >= 20:
		post.Grade = "average"
	default:
		post.Grade = "poor"
	}

	post.Factors = scoreFactors(engagementScore, reachScore, savesScore, viralityScore, commentsScore)

	return post
}

// scoreFactors reports the top two score components above their thresholds
// as human-readable tags
func scoreFactors(engagement, reach, saves, virality, comments float64) []string {
	type factor struct {
		value     float64
		threshold float64
		label     string
	}
	factors := []factor{
		{engagement, thresholdEngagement, "strong engagement for audience size"},
		{reach, thresholdReach, "reach well beyond followers"},
		{saves, thresholdSaves, "highly saveable content"},
		{virality, thresholdVirality, "viral save pattern"},
		{comments, thresholdComments, "sparks conversation"},
	}

	sort.SliceStable(factors, func(i, j int) bool {
		return factors[i].value > factors[j].value
	})

	var labels []string
	for _, f := range factors {
		if f.value > f.threshold {
			labels = append(labels, f.label)
		}
		if len(labels) == 2 {
			break
		}
	}
	return labels
}
