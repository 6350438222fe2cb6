package tgbotbase

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-redis/redis/v8"
	log "github.com/sirupsen/logrus"
)

type RedisPropertyStorage struct {
	client *redis.Client
}

func NewRedisPropertyStorage(pool RedisPool) *RedisPropertyStorage {
	r := &RedisPropertyStorage{client: pool.GetConnByName("property")}
	return r
}

func redisPropertyKey(name string, user UserID, chat ChatID) string {
	if strings.Contains(name, ":") {
		panic(fmt.Sprintf("Property key %q contains forbidden symbol %q", name, ":"))
	}
	return fmt.Sprintf("tg:property:%s:%d:%d", name, user, chat)
}

// parsePropertyKey is the reverse of redisPropertyKey.
func parsePropertyKey(key string) (UserID, ChatID, error) {
	parts := strings.Split(key, ":")
	if len(parts) != 5 {
		return 0, 0, fmt.Errorf("key %q has unexpected number of parts", key)
	}
	user, err := strconv.ParseInt(parts[3], 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("key %q has bad user: %w", key, err)
	}
	chat, err := strconv.ParseInt(parts[4], 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("key %q has bad chat: %w", key, err)
	}
	return UserID(user), ChatID(chat), nil
}

func (r *RedisPropertyStorage) SetPropertyForUserInChat(ctx context.Context, name string, user UserID, chat ChatID, value interface{}) error {
	log.WithFields(log.Fields{"property": name, "user": user, "chat": chat, "value": value}).Debug("Setting property")
	key := redisPropertyKey(name, user, chat)
	return r.client.Set(ctx, key, value, 0).Err()
}

func (r *RedisPropertyStorage) SetPropertyForUser(ctx context.Context, name string, user UserID, value interface{}) error {
	return r.SetPropertyForUserInChat(ctx, name, user, ChatID(user), value)
}

func (r *RedisPropertyStorage) SetPropertyForChat(ctx context.Context, name string, chat ChatID, value interface{}) error {
	return r.SetPropertyForUserInChat(ctx, name, 0, chat, value)
}

// GetProperty looks for the value set for the user in the chat, then for the user anywhere,
// then for the whole chat. No value at all is not an error.
func (r *RedisPropertyStorage) GetProperty(ctx context.Context, name string, user UserID, chat ChatID) (string, error) {
	for _, key := range []string{
		redisPropertyKey(name, user, chat),
		redisPropertyKey(name, user, ChatID(user)),
		redisPropertyKey(name, 0, chat),
	} {
		val, err := r.client.Get(ctx, key).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return "", err
		}
		return val, nil
	}

	log.WithFields(log.Fields{"property": name, "user": user, "chat": chat}).Debug("No property, returning empty value")
	return "", nil
}

func (r *RedisPropertyStorage) GetEveryHavingProperty(ctx context.Context, name string) ([]PropertyValue, error) {
	pattern := fmt.Sprintf("tg:property:%s:*:*", name)
	keys, err := GetAllKeys(ctx, r.client, pattern)
	if err != nil {
		return nil, err
	}
	props := make([]PropertyValue, 0, len(keys))
	for _, k := range keys {
		value, err := r.client.Get(ctx, k).Result()
		if err != nil {
			log.WithFields(log.Fields{"key": k, "err": err}).Error("Property could not be retrieved")
			continue
		}

		user, chat, err := parsePropertyKey(k)
		if err != nil {
			log.WithFields(log.Fields{"key": k, "err": err}).Error("Skipping malformed property key")
			continue
		}

		props = append(props, PropertyValue{
			User:  user,
			Chat:  chat,
			Value: value})
	}

	return props, nil
}

var _ PropertyStorage = &RedisPropertyStorage{}
