package instagram

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"go.uber.org/zap"

	"github.com/jerilmartin/infini8graph/pkg/telemetry"
)

// GetFollowerDemographics fetches the four audience breakdowns. Each breakdown
// is attempted independently and defaults to empty on failure; a demographic
// sub-failure never fails the overall call.
func (c *Client) GetFollowerDemographics(ctx context.Context) (*Demographics, error) {
	ctx, span := telemetry.StartSpan(ctx, "instagram.get_demographics")
	defer span.End()

	demo := EmptyDemographics()

	breakdowns := []struct {
		metric string
		period string
		dest   *map[string]int
	}{
		{"audience_city", "lifetime", &demo.City},
		{"audience_country", "lifetime", &demo.Country},
		{"audience_gender_age", "lifetime", &demo.AgeGender},
		{"online_followers", "lifetime", &demo.OnlineFollowers},
	}

	for _, b := range breakdowns {
		values, err := c.audienceBreakdown(ctx, b.metric, b.period)
		if err != nil {
			c.logger.Warn("Demographic breakdown unavailable",
				zap.String("metric", b.metric),
				zap.Error(err))
			continue
		}
		*b.dest = values
	}

	return demo, nil
}

// audienceBreakdown fetches one account insight whose value is a bucket map
func (c *Client) audienceBreakdown(ctx context.Context, metric, period string) (map[string]int, error) {
	params := url.Values{}
	params.Set("metric", metric)
	params.Set("period", period)

	var resp insightsResponse
	if err := c.doGet(ctx, "/me/insights", params, &resp); err != nil {
		return nil, err
	}

	for _, entry := range resp.Data {
		if entry.Name != metric || len(entry.Values) == 0 {
			continue
		}
		var buckets map[string]int
		if err := json.Unmarshal(entry.Values[0].Value, &buckets); err != nil {
			return nil, fmt.Errorf("unexpected %s value shape: %w", metric, err)
		}
		return buckets, nil
	}

	return map[string]int{}, nil
}
