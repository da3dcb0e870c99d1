package instagram

import (
	"encoding/json"
	"time"
)

// Media type values reported by the Graph API
const (
	MediaTypeImage    = "IMAGE"
	MediaTypeVideo    = "VIDEO"
	MediaTypeCarousel = "CAROUSEL_ALBUM"
	MediaTypeReel     = "REEL"
)

// Profile is a snapshot of the connected account
type Profile struct {
	ID                string `json:"id"`
	Username          string `json:"username"`
	Name              string `json:"name"`
	ProfilePictureURL string `json:"profile_picture_url"`
	FollowersCount    int    `json:"followers_count"`
	FollowsCount      int    `json:"follows_count"`
	MediaCount        int    `json:"media_count"`
	Biography         string `json:"biography"`
	Website           string `json:"website"`
}

// MediaItem is one published post or reel with its insights flattened into
// named numeric fields. A metric the remote omits is reported as 0.
type MediaItem struct {
	ID            string    `json:"id"`
	Caption       string    `json:"caption"`
	MediaType     string    `json:"media_type"`
	MediaURL      string    `json:"media_url"`
	ThumbnailURL  string    `json:"thumbnail_url,omitempty"`
	Permalink     string    `json:"permalink"`
	Timestamp     time.Time `json:"timestamp"`
	LikeCount     int       `json:"like_count"`
	CommentsCount int       `json:"comments_count"`
	Impressions   int       `json:"impressions"`
	Reach         int       `json:"reach"`
	Saved         int       `json:"saved"`
	Engagement    int       `json:"engagement"`
}

// Demographics holds the four follower breakdowns. Each is best-effort and
// empty when its fetch failed.
type Demographics struct {
	City            map[string]int `json:"city"`
	Country         map[string]int `json:"country"`
	AgeGender       map[string]int `json:"age_gender"`
	OnlineFollowers map[string]int `json:"online_followers"`
}

// EmptyDemographics returns a Demographics with all breakdowns initialized empty
func EmptyDemographics() *Demographics {
	return &Demographics{
		City:            map[string]int{},
		Country:         map[string]int{},
		AgeGender:       map[string]int{},
		OnlineFollowers: map[string]int{},
	}
}

// mediaPayload is the raw media object returned by the media edge
type mediaPayload struct {
	ID            string `json:"id"`
	Caption       string `json:"caption"`
	MediaType     string `json:"media_type"`
	MediaURL      string `json:"media_url"`
	ThumbnailURL  string `json:"thumbnail_url"`
	Permalink     string `json:"permalink"`
	Timestamp     string `json:"timestamp"`
	LikeCount     int    `json:"like_count"`
	CommentsCount int    `json:"comments_count"`
}

// mediaListResponse is the paginated media edge envelope
type mediaListResponse struct {
	Data   []mediaPayload `json:"data"`
	Paging struct {
		Cursors struct {
			Before string `json:"before"`
			After  string `json:"after"`
		} `json:"cursors"`
		Next string `json:"next"`
	} `json:"paging"`
}

// insightsResponse is the insights edge envelope. Values are numbers for media
// insights and objects (bucket label to count) for audience breakdowns.
type insightsResponse struct {
	Data []struct {
		Name   string `json:"name"`
		Values []struct {
			Value json.RawMessage `json:"value"`
		} `json:"values"`
	} `json:"data"`
}
