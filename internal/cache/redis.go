package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/quantumhc/assessment/config"
)

// redisCache is the shared RankingCache for multi-instance deployments.
// Keys for one template are tracked in a per-template set so Invalidate
// can drop the whole bucket without a SCAN.
type redisCache struct {
	rdb *goredis.Client
}

func NewRedisCache(cfg *config.Config) (RankingCache, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        cfg.Redis.Addr,
		Password:    cfg.Redis.Password,
		DB:          cfg.Redis.DB,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &redisCache{rdb: rdb}, nil
}

func indexKey(templateID uint) string {
	return templatePrefix(templateID) + "index"
}

func (c *redisCache) Get(ctx context.Context, key Key) ([]BaseRow, bool) {
	raw, err := c.rdb.Get(ctx, key.String()).Bytes()
	if err != nil {
		if err != goredis.Nil {
			log.Warn().Err(err).Str("key", key.String()).Msg("Ranking cache read failed")
		}
		return nil, false
	}
	var rows []BaseRow
	if err := json.Unmarshal(raw, &rows); err != nil {
		log.Warn().Err(err).Str("key", key.String()).Msg("Ranking cache entry corrupt, dropping")
		_ = c.rdb.Del(ctx, key.String()).Err()
		return nil, false
	}
	return rows, true
}

func (c *redisCache) Put(ctx context.Context, key Key, rows []BaseRow) {
	raw, err := json.Marshal(rows)
	if err != nil {
		log.Error().Err(err).Msg("Ranking cache marshal failed")
		return
	}
	pipe := c.rdb.TxPipeline()
	pipe.Set(ctx, key.String(), raw, 0)
	pipe.SAdd(ctx, indexKey(key.TemplateID), key.String())
	if _, err := pipe.Exec(ctx); err != nil {
		log.Warn().Err(err).Str("key", key.String()).Msg("Ranking cache write failed")
	}
}

func (c *redisCache) Invalidate(ctx context.Context, templateID uint) {
	members, err := c.rdb.SMembers(ctx, indexKey(templateID)).Result()
	if err != nil {
		log.Warn().Err(err).Uint("templateID", templateID).Msg("Ranking cache invalidate failed")
		return
	}
	if len(members) > 0 {
		_ = c.rdb.Del(ctx, members...).Err()
	}
	_ = c.rdb.Del(ctx, indexKey(templateID)).Err()
}

func (c *redisCache) Clear(ctx context.Context) {
	iter := c.rdb.Scan(ctx, 0, "rank:*", 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		log.Warn().Err(err).Msg("Ranking cache clear scan failed")
		return
	}
	if len(keys) > 0 {
		_ = c.rdb.Del(ctx, keys...).Err()
	}
}
