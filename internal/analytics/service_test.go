package analytics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jerilmartin/infini8graph/internal/instagram"
	"github.com/jerilmartin/infini8graph/internal/models"
)

// fixedNow is the reference instant used across the package tests
var fixedNow = time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)

type fakeStore struct {
	entries map[string]*models.MetricCacheEntry
	getErr  error
	putErr  error
	puts    int
}

func newFakeStore() *fakeStore {
	return &fakeStore{entries: make(map[string]*models.MetricCacheEntry)}
}

func storeKey(accountID, metricType, dateRange string) string {
	return accountID + "|" + metricType + "|" + dateRange
}

func (f *fakeStore) GetEntry(ctx context.Context, accountID, metricType, dateRange string) (*models.MetricCacheEntry, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.entries[storeKey(accountID, metricType, dateRange)], nil
}

func (f *fakeStore) Upsert(ctx context.Context, entry *models.MetricCacheEntry) error {
	f.puts++
	if f.putErr != nil {
		return f.putErr
	}
	f.entries[storeKey(entry.AccountID, entry.MetricType, entry.DateRange)] = entry
	return nil
}

type fakeFetcher struct {
	profile *instagram.Profile
	media   []instagram.MediaItem
	demo    *instagram.Demographics

	profileErr error
	mediaErr   error
	demoErr    error

	profileCalls int
	mediaCalls   int
}

func (f *fakeFetcher) GetProfile(ctx context.Context) (*instagram.Profile, error) {
	f.profileCalls++
	if f.profileErr != nil {
		return nil, f.profileErr
	}
	return f.profile, nil
}

func (f *fakeFetcher) GetAllMediaWithInsights(ctx context.Context, count int) ([]instagram.MediaItem, error) {
	f.mediaCalls++
	if f.mediaErr != nil {
		return nil, f.mediaErr
	}
	if len(f.media) > count {
		return f.media[:count], nil
	}
	return f.media, nil
}

func (f *fakeFetcher) GetFollowerDemographics(ctx context.Context) (*instagram.Demographics, error) {
	if f.demoErr != nil {
		return nil, f.demoErr
	}
	if f.demo == nil {
		return instagram.EmptyDemographics(), nil
	}
	return f.demo, nil
}

type staticResolver string

func (r staticResolver) Resolve(ctx context.Context, accountID string) (string, error) {
	if r == "" {
		return "", errors.New("no token")
	}
	return string(r), nil
}

func testTTLs() map[string]time.Duration {
	return map[string]time.Duration{
		MetricOverview:            300 * time.Second,
		MetricGrowth:              600 * time.Second,
		MetricPosts:               300 * time.Second,
		MetricReels:               300 * time.Second,
		MetricBestTime:            600 * time.Second,
		MetricHashtags:            600 * time.Second,
		MetricContentIntelligence: 600 * time.Second,
	}
}

// newTestService builds an initialized service over the fake fetcher with a
// pinned clock and UTC bucketing
func newTestService(t *testing.T, fetcher *fakeFetcher) (*Service, *fakeStore) {
	t.Helper()

	store := newFakeStore()
	metricCache := NewMetricCache(store, nil, testTTLs())
	metricCache.now = func() time.Time { return fixedNow }

	svc := NewService("user-1", "acct-1", staticResolver("tok"),
		func(token string) (MediaFetcher, error) { return fetcher, nil },
		metricCache)
	svc.now = func() time.Time { return fixedNow }
	svc.location = time.UTC

	if err := svc.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize() error: %v", err)
	}
	return svc, store
}

func post(id, mediaType string, likes, comments, reach, saved int, age time.Duration) instagram.MediaItem {
	return instagram.MediaItem{
		ID:            id,
		MediaType:     mediaType,
		Timestamp:     fixedNow.Add(-age),
		LikeCount:     likes,
		CommentsCount: comments,
		Engagement:    likes + comments,
		Reach:         reach,
		Saved:         saved,
		Impressions:   reach + reach/10,
	}
}

func TestViewBeforeInitialize(t *testing.T) {
	metricCache := NewMetricCache(newFakeStore(), nil, testTTLs())
	svc := NewService("user-1", "acct-1", staticResolver("tok"),
		func(token string) (MediaFetcher, error) { return &fakeFetcher{}, nil },
		metricCache)

	if _, err := svc.GetOverview(context.Background()); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("GetOverview() before Initialize = %v, want ErrNotInitialized", err)
	}
	if _, err := svc.GetGrowth(context.Background(), "week"); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("GetGrowth() before Initialize = %v, want ErrNotInitialized", err)
	}
}

func TestInitializeResolverFailure(t *testing.T) {
	metricCache := NewMetricCache(newFakeStore(), nil, testTTLs())
	svc := NewService("user-1", "acct-1", staticResolver(""),
		func(token string) (MediaFetcher, error) { return &fakeFetcher{}, nil },
		metricCache)

	if err := svc.Initialize(context.Background()); err == nil {
		t.Error("Initialize() should propagate resolver failure")
	}
}

func TestOverviewEngagementRate(t *testing.T) {
	media := make([]instagram.MediaItem, 10)
	for i := range media {
		media[i] = post("p", instagram.MediaTypeImage, 40, 10, 1000, 5, 48*time.Hour)
	}
	fetcher := &fakeFetcher{
		profile: &instagram.Profile{Username: "acme", FollowersCount: 10000},
		media:   media,
	}
	svc, _ := newTestService(t, fetcher)

	overview, err := svc.GetOverview(context.Background())
	if err != nil {
		t.Fatalf("GetOverview() error: %v", err)
	}

	// 10 posts at engagement 50, 10000 followers: 50/10000*100 = 0.50
	if overview.EngagementRate != 0.5 {
		t.Errorf("EngagementRate = %v, want 0.5", overview.EngagementRate)
	}
	if overview.AvgLikes != 40 || overview.AvgComments != 10 {
		t.Errorf("averages = %d/%d, want 40/10", overview.AvgLikes, overview.AvgComments)
	}
	if overview.TotalReach != 10000 || overview.TotalSaved != 50 {
		t.Errorf("totals = %d/%d, want 10000/50", overview.TotalReach, overview.TotalSaved)
	}
	if len(overview.RecentPosts) != 10 {
		t.Errorf("RecentPosts = %d, want 10", len(overview.RecentPosts))
	}
}

func TestOverviewDeterminism(t *testing.T) {
	media := []instagram.MediaItem{
		post("p1", instagram.MediaTypeImage, 30, 20, 800, 12, 24*time.Hour),
		post("p2", instagram.MediaTypeReel, 70, 30, 2400, 40, 72*time.Hour),
	}

	var first, second *Overview
	for i, out := range []**Overview{&first, &second} {
		fetcher := &fakeFetcher{
			profile: &instagram.Profile{Username: "acme", FollowersCount: 5000},
			media:   media,
		}
		svc, _ := newTestService(t, fetcher)
		overview, err := svc.GetOverview(context.Background())
		if err != nil {
			t.Fatalf("GetOverview() run %d error: %v", i, err)
		}
		*out = overview
	}

	if first.EngagementRate != second.EngagementRate {
		t.Errorf("EngagementRate differs across identical inputs: %v vs %v", first.EngagementRate, second.EngagementRate)
	}
	if first.AvgLikes != second.AvgLikes || first.TotalReach != second.TotalReach {
		t.Error("overview fields differ across identical inputs")
	}
}

func TestOverviewZeroFollowers(t *testing.T) {
	fetcher := &fakeFetcher{
		profile: &instagram.Profile{Username: "new", FollowersCount: 0},
		media:   []instagram.MediaItem{post("p1", instagram.MediaTypeImage, 40, 10, 100, 2, time.Hour)},
	}
	svc, _ := newTestService(t, fetcher)

	overview, err := svc.GetOverview(context.Background())
	if err != nil {
		t.Fatalf("GetOverview() error: %v", err)
	}
	if overview.EngagementRate != 0 {
		t.Errorf("EngagementRate with 0 followers = %v, want exactly 0", overview.EngagementRate)
	}
}

func TestOverviewDemographicsFailureSoft(t *testing.T) {
	fetcher := &fakeFetcher{
		profile: &instagram.Profile{Username: "acme", FollowersCount: 100},
		media:   []instagram.MediaItem{post("p1", instagram.MediaTypeImage, 5, 5, 50, 1, time.Hour)},
		demoErr: errors.New("insights unavailable"),
	}
	svc, _ := newTestService(t, fetcher)

	overview, err := svc.GetOverview(context.Background())
	if err != nil {
		t.Fatalf("GetOverview() must tolerate demographics failure, got: %v", err)
	}
	if overview.Demographics == nil || len(overview.Demographics.City) != 0 {
		t.Errorf("Demographics = %+v, want empty breakdowns", overview.Demographics)
	}
	if overview.Username != "acme" {
		t.Error("other overview fields must still be populated")
	}
}

func TestOverviewProfileFailureFatal(t *testing.T) {
	fetcher := &fakeFetcher{
		profileErr: &instagram.UpstreamError{StatusCode: 400, Message: "Invalid OAuth access token"},
	}
	svc, _ := newTestService(t, fetcher)

	_, err := svc.GetOverview(context.Background())
	var upstream *instagram.UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("GetOverview() = %v, want wrapped UpstreamError", err)
	}
	if upstream.Message != "Invalid OAuth access token" {
		t.Errorf("upstream message not preserved: %q", upstream.Message)
	}
}

func TestOverviewServedFromCache(t *testing.T) {
	fetcher := &fakeFetcher{
		profile: &instagram.Profile{Username: "acme", FollowersCount: 100},
		media:   []instagram.MediaItem{post("p1", instagram.MediaTypeImage, 5, 5, 50, 1, time.Hour)},
	}
	svc, _ := newTestService(t, fetcher)

	if _, err := svc.GetOverview(context.Background()); err != nil {
		t.Fatalf("first GetOverview() error: %v", err)
	}
	if _, err := svc.GetOverview(context.Background()); err != nil {
		t.Fatalf("second GetOverview() error: %v", err)
	}

	if fetcher.profileCalls != 1 || fetcher.mediaCalls != 1 {
		t.Errorf("fetcher called %d/%d times, want 1/1 (second read cached)", fetcher.profileCalls, fetcher.mediaCalls)
	}
}

func TestGrowthWeekComparison(t *testing.T) {
	media := []instagram.MediaItem{
		// This week: engagement 150
		post("t1", instagram.MediaTypeImage, 80, 20, 500, 5, 2*24*time.Hour),
		post("t2", instagram.MediaTypeImage, 40, 10, 500, 5, 5*24*time.Hour),
		// Previous week: engagement 100
		post("l1", instagram.MediaTypeImage, 90, 10, 500, 5, 9*24*time.Hour),
		// Older: ignored by the weekly windows
		post("o1", instagram.MediaTypeImage, 500, 100, 500, 5, 30*24*time.Hour),
	}
	fetcher := &fakeFetcher{media: media}
	svc, _ := newTestService(t, fetcher)

	growth, err := svc.GetGrowth(context.Background(), "month")
	if err != nil {
		t.Fatalf("GetGrowth() error: %v", err)
	}

	if growth.ThisWeekEngagement != 150 || growth.LastWeekEngagement != 100 {
		t.Errorf("week engagement = %d/%d, want 150/100", growth.ThisWeekEngagement, growth.LastWeekEngagement)
	}
	if growth.ThisWeekPosts != 2 || growth.LastWeekPosts != 1 {
		t.Errorf("week posts = %d/%d, want 2/1", growth.ThisWeekPosts, growth.LastWeekPosts)
	}
	// (150-100)/100*100 = 50.0
	if growth.EngagementChangePct != 50.0 {
		t.Errorf("EngagementChangePct = %v, want 50.0", growth.EngagementChangePct)
	}
	if len(growth.Daily) != 4 {
		t.Errorf("Daily buckets = %d, want 4 distinct dates", len(growth.Daily))
	}
}

func TestGrowthZeroLastWeek(t *testing.T) {
	media := []instagram.MediaItem{
		post("t1", instagram.MediaTypeImage, 80, 20, 500, 5, 24*time.Hour),
	}
	fetcher := &fakeFetcher{media: media}
	svc, _ := newTestService(t, fetcher)

	growth, err := svc.GetGrowth(context.Background(), "week")
	if err != nil {
		t.Fatalf("GetGrowth() error: %v", err)
	}
	if growth.EngagementChangePct != 0 {
		t.Errorf("EngagementChangePct with empty last week = %v, want exactly 0", growth.EngagementChangePct)
	}
}

func TestBestTimeRanking(t *testing.T) {
	media := []instagram.MediaItem{
		// 09:00 posts average 200
		postAt("h1", 9, time.Monday, 150, 50),
		postAt("h2", 9, time.Monday, 180, 20),
		// 15:00 posts average 50
		postAt("h3", 15, time.Wednesday, 40, 10),
		postAt("h4", 15, time.Thursday, 45, 5),
	}
	fetcher := &fakeFetcher{media: media}
	svc, _ := newTestService(t, fetcher)

	best, err := svc.GetBestTimeToPost(context.Background())
	if err != nil {
		t.Fatalf("GetBestTimeToPost() error: %v", err)
	}

	if len(best.TopHours) != 2 {
		t.Fatalf("TopHours = %d buckets, want 2 (only hours with posts)", len(best.TopHours))
	}
	if best.TopHours[0].Hour != 9 || best.TopHours[0].AvgEngagement != 200 {
		t.Errorf("top hour = %d (avg %v), want 9 (avg 200)", best.TopHours[0].Hour, best.TopHours[0].AvgEngagement)
	}
	if best.TopDays[0].Day != "Monday" {
		t.Errorf("top day = %s, want Monday", best.TopDays[0].Day)
	}
	if best.Days[0].Day != "Sunday" {
		t.Errorf("day ordering starts with %s, want Sunday-first", best.Days[0].Day)
	}
	if len(best.Hours) != 24 || len(best.Days) != 7 {
		t.Errorf("bucket counts = %d/%d, want 24/7", len(best.Hours), len(best.Days))
	}
}

// postAt pins a post to a given hour and weekday within the week before fixedNow
func postAt(id string, hour int, weekday time.Weekday, likes, comments int) instagram.MediaItem {
	ts := fixedNow.Add(-24 * time.Hour)
	for ts.Weekday() != weekday {
		ts = ts.Add(-24 * time.Hour)
	}
	ts = time.Date(ts.Year(), ts.Month(), ts.Day(), hour, 30, 0, 0, time.UTC)
	return instagram.MediaItem{
		ID:            id,
		MediaType:     instagram.MediaTypeImage,
		Timestamp:     ts,
		LikeCount:     likes,
		CommentsCount: comments,
		Engagement:    likes + comments,
	}
}
