package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"cargoport/internal/model"
	"cargoport/internal/repository"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const (
	catalogKeyPrefix = "catalog:entry:"
	catalogCacheTTL  = 10 * time.Minute
)

// CatalogCache is a read-through cache of catalog entries, scoped to one
// recompute or synthesis batch. The in-process map lives for the batch only;
// Redis sits underneath as a shared read layer, invalidated on catalog
// writes. Negative results are cached per batch so a stale assignment is
// looked up once, not per aggregation pass.
type CatalogCache struct {
	repo    repository.CatalogRepository
	rdb     *redis.Client // nil in unit tests
	entries map[uuid.UUID]*model.CatalogEntry
	misses  map[uuid.UUID]bool
}

func NewCatalogCache(repo repository.CatalogRepository, rdb *redis.Client) *CatalogCache {
	return &CatalogCache{
		repo:    repo,
		rdb:     rdb,
		entries: make(map[uuid.UUID]*model.CatalogEntry),
		misses:  make(map[uuid.UUID]bool),
	}
}

// Entry resolves a catalog entry by ID. Returns gorm.ErrRecordNotFound for
// missing entries — callers decide whether that is fatal or skippable.
func (c *CatalogCache) Entry(ctx context.Context, id uuid.UUID) (*model.CatalogEntry, error) {
	if e, ok := c.entries[id]; ok {
		return e, nil
	}
	if c.misses[id] {
		return nil, gorm.ErrRecordNotFound
	}

	if c.rdb != nil {
		if raw, err := c.rdb.Get(ctx, catalogKeyPrefix+id.String()).Bytes(); err == nil {
			var e model.CatalogEntry
			if json.Unmarshal(raw, &e) == nil {
				c.entries[id] = &e
				return &e, nil
			}
		}
	}

	e, err := c.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.misses[id] = true
		}
		return nil, err
	}
	c.entries[id] = e

	if c.rdb != nil {
		if raw, err := json.Marshal(e); err == nil {
			c.rdb.Set(ctx, catalogKeyPrefix+id.String(), raw, catalogCacheTTL)
		}
	}
	return e, nil
}

// InvalidateCatalogEntry drops the shared Redis copy after a catalog write.
func InvalidateCatalogEntry(ctx context.Context, rdb *redis.Client, id uuid.UUID) {
	if rdb == nil {
		return
	}
	rdb.Del(ctx, catalogKeyPrefix+id.String())
}
