package instagram

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jerilmartin/infini8graph/pkg/config"
)

func testClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := &config.InstagramConfig{
		BaseURL:        srv.URL,
		TimeoutSeconds: 5,
		RateLimitRPS:   1000,
		RateLimitBurst: 1000,
		MaxPageSize:    25,
	}
	client, err := New(cfg, "test-token")
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return client, srv
}

func TestNewRequiresToken(t *testing.T) {
	cfg := &config.InstagramConfig{BaseURL: "https://graph.instagram.com/v21.0", TimeoutSeconds: 5, MaxPageSize: 25}
	if _, err := New(cfg, ""); err == nil {
		t.Error("New() with empty token should fail")
	}
}

func TestGetProfile(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/me", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("access_token") != "test-token" {
			t.Error("access_token not forwarded")
		}
		fmt.Fprint(w, `{
			"id": "17841400000000001",
			"username": "acme",
			"name": "Acme Co",
			"followers_count": 10000,
			"follows_count": 12,
			"media_count": 240,
			"biography": "we make things",
			"website": "https://acme.test"
		}`)
	})

	client, _ := testClient(t, mux)

	profile, err := client.GetProfile(context.Background())
	if err != nil {
		t.Fatalf("GetProfile() error: %v", err)
	}
	if profile.Username != "acme" {
		t.Errorf("Username = %q, want acme", profile.Username)
	}
	if profile.FollowersCount != 10000 {
		t.Errorf("FollowersCount = %d, want 10000", profile.FollowersCount)
	}
}

func TestGetProfileUpstreamError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/me", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error":{"message":"Invalid OAuth access token","type":"OAuthException","code":190}}`)
	})

	client, _ := testClient(t, mux)

	_, err := client.GetProfile(context.Background())
	if err == nil {
		t.Fatal("GetProfile() should fail on 400")
	}

	var upstream *UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("error should be UpstreamError, got %T: %v", err, err)
	}
	if upstream.Message != "Invalid OAuth access token" {
		t.Errorf("Message = %q, want upstream message preserved", upstream.Message)
	}
	if upstream.Code != 190 {
		t.Errorf("Code = %d, want 190", upstream.Code)
	}
}

func TestGetProfileUnstructuredError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/me", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		fmt.Fprint(w, "gateway exploded")
	})

	client, _ := testClient(t, mux)

	_, err := client.GetProfile(context.Background())
	var upstream *UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("error should be UpstreamError, got %v", err)
	}
	if upstream.StatusCode != http.StatusBadGateway {
		t.Errorf("StatusCode = %d, want 502", upstream.StatusCode)
	}
	if !strings.Contains(upstream.Error(), "502") {
		t.Errorf("Error() = %q, want generic message with status", upstream.Error())
	}
}

func mediaPageJSON(after string, ids ...string) string {
	var items []string
	for _, id := range ids {
		items = append(items, fmt.Sprintf(`{
			"id": %q,
			"caption": "post %s #go",
			"media_type": "IMAGE",
			"media_url": "https://cdn.test/%s.jpg",
			"permalink": "https://instagram.test/p/%s",
			"timestamp": "2026-08-01T10:00:00+0000",
			"like_count": 40,
			"comments_count": 10
		}`, id, id, id, id))
	}
	paging := `"paging": {"cursors": {"after": ""}}`
	if after != "" {
		paging = fmt.Sprintf(`"paging": {"cursors": {"after": %q}, "next": "https://next.test"}`, after)
	}
	return fmt.Sprintf(`{"data": [%s], %s}`, strings.Join(items, ","), paging)
}

func TestGetMediaPageFlattensInsights(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/me/media", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, mediaPageJSON("", "m1", "m2", "m3"))
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/m1/"):
			// Full insight set plus a source-reported engagement value
			fmt.Fprint(w, `{"data": [
				{"name": "impressions", "values": [{"value": 500}]},
				{"name": "reach", "values": [{"value": 400}]},
				{"name": "saved", "values": [{"value": 25}]},
				{"name": "engagement", "values": [{"value": 99}]}
			]}`)
		case strings.HasPrefix(r.URL.Path, "/m2/"):
			// Non-eligible media type: remote omits every metric
			fmt.Fprint(w, `{"data": []}`)
		case strings.HasPrefix(r.URL.Path, "/m3/"):
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprint(w, `{"error":{"message":"Unsupported get request","code":100}}`)
		default:
			http.NotFound(w, r)
		}
	})

	client, _ := testClient(t, mux)

	items, next, err := client.GetMediaPage(context.Background(), 25, "")
	if err != nil {
		t.Fatalf("GetMediaPage() error: %v", err)
	}
	if next != "" {
		t.Errorf("next cursor = %q, want empty on last page", next)
	}

	// m3's insights call failed, so it is skipped, not fatal
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2 (failed item skipped)", len(items))
	}

	m1 := items[0]
	if m1.Impressions != 500 || m1.Reach != 400 || m1.Saved != 25 {
		t.Errorf("m1 insights = %d/%d/%d, want 500/400/25", m1.Impressions, m1.Reach, m1.Saved)
	}
	if m1.Engagement != 99 {
		t.Errorf("m1 engagement = %d, want source-reported 99", m1.Engagement)
	}

	m2 := items[1]
	if m2.Impressions != 0 || m2.Reach != 0 || m2.Saved != 0 {
		t.Errorf("m2 omitted insights should read 0, got %d/%d/%d", m2.Impressions, m2.Reach, m2.Saved)
	}
	if m2.Engagement != 50 {
		t.Errorf("m2 engagement = %d, want likes+comments fallback 50", m2.Engagement)
	}
}

func TestGetAllMediaWithInsightsPagination(t *testing.T) {
	var mediaCalls []string
	mux := http.NewServeMux()
	mux.HandleFunc("/me/media", func(w http.ResponseWriter, r *http.Request) {
		cursor := r.URL.Query().Get("after")
		mediaCalls = append(mediaCalls, cursor)
		switch cursor {
		case "":
			fmt.Fprint(w, mediaPageJSON("cursor-1", "a1", "a2"))
		case "cursor-1":
			fmt.Fprint(w, mediaPageJSON("", "a3"))
		default:
			t.Errorf("unexpected cursor %q", cursor)
		}
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data": [{"name": "reach", "values": [{"value": 100}]}]}`)
	})

	client, _ := testClient(t, mux)
	client.maxPageSize = 2

	items, err := client.GetAllMediaWithInsights(context.Background(), 10)
	if err != nil {
		t.Fatalf("GetAllMediaWithInsights() error: %v", err)
	}
	if len(items) != 3 {
		t.Errorf("got %d items, want 3 (source exhausted before count)", len(items))
	}
	if len(mediaCalls) != 2 {
		t.Errorf("got %d page fetches, want 2", len(mediaCalls))
	}
}

func TestGetAllMediaStopsAtCount(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/me/media", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, mediaPageJSON("more", "b1", "b2"))
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data": []}`)
	})

	client, _ := testClient(t, mux)
	client.maxPageSize = 2

	items, err := client.GetAllMediaWithInsights(context.Background(), 2)
	if err != nil {
		t.Fatalf("GetAllMediaWithInsights() error: %v", err)
	}
	if len(items) != 2 {
		t.Errorf("got %d items, want exactly the requested 2", len(items))
	}
}

func TestGetFollowerDemographicsPartialFailure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/me/insights", func(w http.ResponseWriter, r *http.Request) {
		metric := r.URL.Query().Get("metric")
		switch metric {
		case "audience_city":
			fmt.Fprint(w, `{"data": [{"name": "audience_city", "values": [{"value": {"Athens": 120, "Berlin": 80}}]}]}`)
		case "audience_country":
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprint(w, `{"error":{"message":"(#10) Not enough viewers","code":10}}`)
		case "audience_gender_age":
			fmt.Fprint(w, `{"data": [{"name": "audience_gender_age", "values": [{"value": {"F.25-34": 300}}]}]}`)
		case "online_followers":
			fmt.Fprint(w, `{"data": [{"name": "online_followers", "values": [{"value": {"12": 40, "13": 55}}]}]}`)
		default:
			t.Errorf("unexpected metric %q", metric)
		}
	})

	client, _ := testClient(t, mux)

	demo, err := client.GetFollowerDemographics(context.Background())
	if err != nil {
		t.Fatalf("GetFollowerDemographics() should never fail, got: %v", err)
	}
	if demo.City["Athens"] != 120 {
		t.Errorf("City[Athens] = %d, want 120", demo.City["Athens"])
	}
	if len(demo.Country) != 0 {
		t.Errorf("failed breakdown should be empty, got %v", demo.Country)
	}
	if demo.AgeGender["F.25-34"] != 300 {
		t.Errorf("AgeGender = %v, want F.25-34: 300", demo.AgeGender)
	}
	if demo.OnlineFollowers["13"] != 55 {
		t.Errorf("OnlineFollowers = %v, want 13: 55", demo.OnlineFollowers)
	}
}
