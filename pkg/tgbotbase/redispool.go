package tgbotbase

import (
	"context"
	"strings"

	"github.com/go-redis/redis/v8"
	log "github.com/sirupsen/logrus"
)

type RedisPool interface {
	GetConnByID(dbID int) *redis.Client
	GetConnByName(dbName string) *redis.Client
}

type RedisConfig struct {
	Server string
	Pass   string
}

type RedisPoolImpl struct {
	cfg RedisConfig
	db  map[string]int
}

// NewRedisPool discovers named databases from "db:<name>" keys of DB 0.
func NewRedisPool(ctx context.Context, cfg RedisConfig) RedisPool {
	impl := RedisPoolImpl{cfg: cfg,
		db: make(map[string]int, 10)}

	conn := impl.GetConnByID(0)
	defer conn.Close()

	keys, err := GetAllKeys(ctx, conn, "db:*")
	if err != nil {
		log.WithFields(log.Fields{"server": cfg.Server, "err": err}).Error("Could not discover Redis databases, using DB 0 for everything")
		return &impl
	}
	for _, key := range keys {
		dbID, err := conn.Get(ctx, key).Int64()
		if err != nil {
			log.WithFields(log.Fields{"key": key, "err": err}).Error("Could not get db ID, skipping")
			continue
		}
		dbname := strings.TrimPrefix(key, "db:")
		log.WithFields(log.Fields{"name": dbname, "id": dbID}).Debug("Redis DB discovered")
		impl.db[dbname] = int(dbID)
	}

	return &impl
}

func (pool *RedisPoolImpl) GetConnByID(dbID int) *redis.Client {
	opts := redis.Options{Addr: pool.cfg.Server,
		Password: pool.cfg.Pass,
		DB:       dbID}
	return redis.NewClient(&opts)
}

// GetConnByName falls back to DB 0 for names which were not discovered.
func (pool *RedisPoolImpl) GetConnByName(dbName string) *redis.Client {
	dbID, found := pool.db[dbName]
	if !found {
		log.WithField("name", dbName).Warn("DB name not known to the pool, using DB 0")
	}
	return pool.GetConnByID(dbID)
}

// GetAllKeys returns unique slice of keys matching the pattern
func GetAllKeys(ctx context.Context, conn *redis.Client, matchPattern string) ([]string, error) {
	result := make([]string, 0)
	var cursor uint64 = 0
	for {
		keys, newcursor, err := conn.Scan(ctx, cursor, matchPattern, 100).Result()
		if err != nil {
			return nil, err
		}
		cursor = newcursor
		result = append(result, keys...)
		if cursor == 0 {
			break
		}
	}
	log.WithFields(log.Fields{"pattern": matchPattern, "keys": len(result)}).Debug("Scan finished")
	return uniqueStringSlice(result), nil
}

func uniqueStringSlice(s []string) []string {
	result := make([]string, 0, len(s))
	seen := make(map[string]bool, len(s))
	for _, elem := range s {
		if _, found := seen[elem]; found {
			continue
		}
		result = append(result, elem)
		seen[elem] = true
	}
	return result
}
