package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"pmtctportal/internal/model"
)

// SummaryCache handles Redis operations for the admin dashboard: cached
// district summaries and a ZSET ranking of facilities per district.
type SummaryCache interface {
	GetDistrictSummary(ctx context.Context, district string) (*model.DistrictSummary, error)
	SetDistrictSummary(ctx context.Context, summary *model.DistrictSummary) error
	InvalidateDistrict(ctx context.Context, district string) error

	UpdateFacilityScore(ctx context.Context, district, facility string, pct float64) error
	TopFacilities(ctx context.Context, district string, limit int) ([]model.FacilityRank, error)
	FacilityRank(ctx context.Context, district, facility string) (int64, error)
}

type summaryCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSummaryCache creates a new dashboard summary cache.
func NewSummaryCache(client *redis.Client) SummaryCache {
	return &summaryCache{
		client: client,
		ttl:    6 * time.Hour,
	}
}

// Key helpers
func (c *summaryCache) summaryKey(district string) string {
	return fmt.Sprintf("district:%s:summary", district)
}

func (c *summaryCache) rankingKey(district string) string {
	return fmt.Sprintf("district:%s:ranking", district)
}

func (c *summaryCache) GetDistrictSummary(ctx context.Context, district string) (*model.DistrictSummary, error) {
	data, err := c.client.Get(ctx, c.summaryKey(district)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var summary model.DistrictSummary
	if err := json.Unmarshal([]byte(data), &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

func (c *summaryCache) SetDistrictSummary(ctx context.Context, summary *model.DistrictSummary) error {
	summary.UpdatedAt = time.Now()
	data, err := json.Marshal(summary)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.summaryKey(summary.District), data, c.ttl).Err()
}

func (c *summaryCache) InvalidateDistrict(ctx context.Context, district string) error {
	return c.client.Del(ctx, c.summaryKey(district)).Err()
}

func (c *summaryCache) UpdateFacilityScore(ctx context.Context, district, facility string, pct float64) error {
	return c.client.ZAdd(ctx, c.rankingKey(district), redis.Z{
		Score:  pct,
		Member: facility,
	}).Err()
}

func (c *summaryCache) TopFacilities(ctx context.Context, district string, limit int) ([]model.FacilityRank, error) {
	results, err := c.client.ZRevRangeWithScores(ctx, c.rankingKey(district), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}

	ranks := make([]model.FacilityRank, len(results))
	for i, z := range results {
		ranks[i] = model.FacilityRank{
			FacilityName: z.Member.(string),
			OverallPct:   z.Score,
			Rank:         i + 1,
		}
	}
	return ranks, nil
}

func (c *summaryCache) FacilityRank(ctx context.Context, district, facility string) (int64, error) {
	rank, err := c.client.ZRevRank(ctx, c.rankingKey(district), facility).Result()
	if err == redis.Nil {
		return -1, nil
	}
	return rank + 1, err // 1-indexed
}
