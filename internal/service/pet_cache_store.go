package service

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/yockii/knorm/internal/constant"
	"github.com/yockii/knorm/internal/model"
	"github.com/yockii/knorm/pkg/config"
	"github.com/yockii/knorm/pkg/logger"
)

const petCachePrefix = "knorm:pet:"

type petCacheStore struct {
	rdb    *redis.Client
	expire time.Duration
}

// NewRedisClient 按配置创建redis客户端
func NewRedisClient() *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     config.GetRedisAddress(),
		Password: config.GetString("cache.redis.password"),
		DB:       config.GetInt("cache.redis.db"),
		PoolSize: config.GetInt("cache.redis.pool_size"),
	})
}

// NewPetCacheStore expire 为0时永不过期
func NewPetCacheStore(rdb *redis.Client, expire time.Duration) *petCacheStore {
	return &petCacheStore{
		rdb:    rdb,
		expire: expire,
	}
}

func petCacheKey(uuid uint64) string {
	return petCachePrefix + strconv.FormatUint(uuid, 10)
}

// Publish 单个pipeline写入全部缓存
func (s *petCacheStore) Publish(ctx context.Context, caches ...*model.PetCache) error {
	if len(caches) == 0 {
		return nil
	}
	pipe := s.rdb.Pipeline()
	for _, c := range caches {
		if c == nil {
			continue
		}
		data, err := json.Marshal(c)
		if err != nil {
			logger.Error("序列化模板缓存失败", logger.F("uuid", c.UUID), logger.F("error", err))
			return constant.ErrSerializeError
		}
		pipe.Set(ctx, petCacheKey(c.UUID), data, s.expire)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		logger.Error("写入模板缓存失败", logger.F("error", err))
		return constant.ErrCacheError
	}
	return nil
}

// Get 缓存不存在时返回nil
func (s *petCacheStore) Get(ctx context.Context, uuid uint64) (*model.PetCache, error) {
	data, err := s.rdb.Get(ctx, petCacheKey(uuid)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		logger.Error("读取模板缓存失败", logger.F("uuid", uuid), logger.F("error", err))
		return nil, constant.ErrCacheError
	}
	c := &model.PetCache{}
	if err := json.Unmarshal(data, c); err != nil {
		logger.Error("反序列化模板缓存失败", logger.F("uuid", uuid), logger.F("error", err))
		return nil, constant.ErrDeserializeError
	}
	return c, nil
}

func (s *petCacheStore) Remove(ctx context.Context, uuid uint64) error {
	if err := s.rdb.Del(ctx, petCacheKey(uuid)).Err(); err != nil {
		logger.Error("删除模板缓存失败", logger.F("uuid", uuid), logger.F("error", err))
		return constant.ErrCacheError
	}
	return nil
}
