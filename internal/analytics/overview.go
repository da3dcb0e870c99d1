package analytics

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jerilmartin/infini8graph/internal/instagram"
	"github.com/jerilmartin/infini8graph/pkg/telemetry"
)

const (
	overviewMediaCount = 30
	overviewRecent     = 10
	defaultRange       = "default"
)

// GetOverview computes the headline account view. Profile or media failure is
// fatal; a demographics failure degrades to empty breakdowns.
func (s *Service) GetOverview(ctx context.Context) (*Overview, error) {
	if err := s.ensureInitialized(); err != nil {
		return nil, err
	}

	ctx, span := telemetry.StartSpan(ctx, "analytics.overview")
	defer span.End()

	var cached Overview
	if s.cache.Get(ctx, s.accountID, MetricOverview, defaultRange, &cached) {
		return &cached, nil
	}

	profile, err := s.fetcher.GetProfile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch profile: %w", err)
	}

	media, err := s.fetcher.GetAllMediaWithInsights(ctx, overviewMediaCount)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch media: %w", err)
	}

	demographics, err := s.fetcher.GetFollowerDemographics(ctx)
	if err != nil {
		// Best-effort side data, never fatal
		s.logger.Warn("Demographics fetch failed, continuing without", zap.Error(err))
		demographics = instagram.EmptyDemographics()
	}

	view := s.buildOverview(profile, media, demographics)
	s.cache.Put(ctx, s.accountID, MetricOverview, defaultRange, view)

	return view, nil
}

func (s *Service) buildOverview(profile *instagram.Profile, media []instagram.MediaItem, demographics *instagram.Demographics) *Overview {
	view := &Overview{
		Username:          profile.Username,
		Name:              profile.Name,
		ProfilePictureURL: profile.ProfilePictureURL,
		Biography:         profile.Biography,
		Website:           profile.Website,
		Followers:         profile.FollowersCount,
		Following:         profile.FollowsCount,
		MediaCount:        profile.MediaCount,
		EngagementRate:    engagementRate(media, profile.FollowersCount),
		Demographics:      demographics,
		RecentPosts:       []PostSummary{},
		LastUpdated:       s.now(),
	}

	if len(media) > 0 {
		var likes, comments int
		for _, m := range media {
			likes += m.LikeCount
			comments += m.CommentsCount
			view.TotalImpressions += m.Impressions
			view.TotalReach += m.Reach
			view.TotalSaved += m.Saved
		}
		view.AvgLikes = roundInt(float64(likes) / float64(len(media)))
		view.AvgComments = roundInt(float64(comments) / float64(len(media)))
	}

	// Most recent posts by source order
	recent := media
	if len(recent) > overviewRecent {
		recent = recent[:overviewRecent]
	}
	for _, m := range recent {
		view.RecentPosts = append(view.RecentPosts, toPostSummary(m))
	}

	return view
}

func toPostSummary(m instagram.MediaItem) PostSummary {
	return PostSummary{
		ID:           m.ID,
		Caption:      m.Caption,
		MediaType:    m.MediaType,
		MediaURL:     m.MediaURL,
		ThumbnailURL: m.ThumbnailURL,
		Permalink:    m.Permalink,
		Timestamp:    m.Timestamp,
		Likes:        m.LikeCount,
		Comments:     m.CommentsCount,
		Engagement:   m.Engagement,
		Impressions:  m.Impressions,
		Reach:        m.Reach,
		Saved:        m.Saved,
	}
}
