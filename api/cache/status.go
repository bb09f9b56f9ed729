package cache

import (
	"context"
	"encoding/json"
	"time"

	"subtitler/api/database"
	"subtitler/api/models"
)

const (
	statusKeyPrefix = "task:status:"
	statusTTL       = 10 * time.Minute
)

// StatusEntry is the lightweight poll view kept in redis. The worker
// refreshes it at every transition; the full record stays in postgres.
type StatusEntry struct {
	Status   models.TaskStatus `json:"status"`
	Progress string            `json:"progress"`
}

type StatusCache struct {
	cache *database.Cache
}

func NewStatusCache(cache *database.Cache) *StatusCache {
	return &StatusCache{cache: cache}
}

func (sc *StatusCache) Get(ctx context.Context, taskID string) (*StatusEntry, error) {
	data, err := sc.cache.Get(ctx, statusKeyPrefix+taskID)
	if err != nil {
		return nil, err
	}

	var entry StatusEntry
	if err := json.Unmarshal([]byte(data), &entry); err != nil {
		return nil, err
	}

	return &entry, nil
}

func (sc *StatusCache) Set(ctx context.Context, taskID string, status models.TaskStatus, progress string) error {
	data, err := json.Marshal(StatusEntry{Status: status, Progress: progress})
	if err != nil {
		return err
	}

	return sc.cache.Set(ctx, statusKeyPrefix+taskID, data, statusTTL)
}

func (sc *StatusCache) Delete(ctx context.Context, taskID string) error {
	return sc.cache.Del(ctx, statusKeyPrefix+taskID)
}
