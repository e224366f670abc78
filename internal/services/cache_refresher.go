package services

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// StatisticsCacheKey is warmed in the background and read by the statistics
// handler so the aggregation pipeline does not run on every request.
const StatisticsCacheKey = "review_statistics"

type CacheRefresher struct {
	reviewService ReviewService
	redis         *redis.Client
}

func NewCacheRefresher(reviewService ReviewService, rdb *redis.Client) *CacheRefresher {
	return &CacheRefresher{
		reviewService: reviewService,
		redis:         rdb,
	}
}

func (cr *CacheRefresher) Start(ctx context.Context) {
	ticker := time.NewTicker(5 * time.Minute)
	go func() {
		for {
			select {
			case <-ticker.C:
				log.Println("[CACHE] Refreshing review statistics cache...")
				cr.refreshStatisticsCache(ctx)
			case <-ctx.Done():
				log.Println("[CACHE] Stopping cache refresher...")
				ticker.Stop()
				return
			}
		}
	}()
}

func (cr *CacheRefresher) refreshStatisticsCache(ctx context.Context) {
	stats, err := cr.reviewService.Statistics(ctx)
	if err != nil {
		log.Printf("[CACHE] Failed to refresh statistics cache: %v", err)
		return
	}

	data, err := json.Marshal(stats)
	if err != nil {
		log.Printf("[CACHE] Failed to marshal statistics: %v", err)
		return
	}
	if err := cr.redis.Set(ctx, StatisticsCacheKey, data, 10*time.Minute).Err(); err != nil {
		log.Printf("[CACHE] Failed to store statistics cache: %v", err)
	}
}
