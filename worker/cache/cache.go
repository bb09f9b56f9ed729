package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	statusKeyPrefix = "task:status:"
	statusTTL       = 10 * time.Minute
)

type statusEntry struct {
	Status   string `json:"status"`
	Progress string `json:"progress"`
}

// StatusCache mirrors task transitions into redis so the API can
// answer polls without hitting postgres. Writes are best effort.
type StatusCache struct {
	client *redis.Client
}

func NewStatusCache(client *redis.Client) *StatusCache {
	return &StatusCache{client: client}
}

func (c *StatusCache) Set(ctx context.Context, taskID, status, progress string) error {
	data, err := json.Marshal(statusEntry{Status: status, Progress: progress})
	if err != nil {
		return err
	}
	return c.client.Set(ctx, statusKeyPrefix+taskID, data, statusTTL).Err()
}
