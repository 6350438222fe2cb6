package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/ilyalavrinov/coviddash/pkg/diseasesh"
)

// Storage keeps the latest value of every resource across restarts.
type Storage interface {
	Save(ctx context.Context, res Resource, refreshed time.Time, value interface{}) error
	Load(ctx context.Context) (Snapshot, error)
}

type RedisStorage struct {
	client *redis.Client
	ttl    time.Duration
}

var _ Storage = &RedisStorage{}

// NewRedisStorage stores snapshots in client. ttl of 0 keeps them forever.
func NewRedisStorage(client *redis.Client, ttl time.Duration) *RedisStorage {
	return &RedisStorage{client: client, ttl: ttl}
}

func snapshotKey(res Resource) string {
	return fmt.Sprintf("coviddash:snapshot:%s", res)
}

type storedValue struct {
	Refreshed time.Time       `json:"refreshed"`
	Value     json.RawMessage `json:"value"`
}

func (r *RedisStorage) Save(ctx context.Context, res Resource, refreshed time.Time, value interface{}) error {
	data, err := encodeStored(refreshed, value)
	if err != nil {
		return fmt.Errorf("cannot encode %s: %w", res, err)
	}
	return r.client.Set(ctx, snapshotKey(res), data, r.ttl).Err()
}

func (r *RedisStorage) Load(ctx context.Context) (Snapshot, error) {
	snap := Snapshot{Refreshed: map[Resource]time.Time{}}
	for _, res := range Resources {
		data, err := r.client.Get(ctx, snapshotKey(res)).Bytes()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return Snapshot{}, err
		}
		if err := decodeStored(&snap, res, data); err != nil {
			logger.Warnw("skipping undecodable snapshot",
				"resource", res,
				"err", err)
		}
	}
	return snap, nil
}

func encodeStored(refreshed time.Time, value interface{}) ([]byte, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	return json.Marshal(storedValue{Refreshed: refreshed, Value: raw})
}

func decodeStored(snap *Snapshot, res Resource, data []byte) error {
	var sv storedValue
	if err := json.Unmarshal(data, &sv); err != nil {
		return err
	}
	switch res {
	case ResourceGlobal:
		var g diseasesh.Global
		if err := json.Unmarshal(sv.Value, &g); err != nil {
			return err
		}
		snap.Global = &g
	case ResourceCountry:
		var c diseasesh.Country
		if err := json.Unmarshal(sv.Value, &c); err != nil {
			return err
		}
		snap.Country = &c
	case ResourceGlobalHistory:
		var t diseasesh.Timeline
		if err := json.Unmarshal(sv.Value, &t); err != nil {
			return err
		}
		snap.GlobalHistory = &t
	case ResourceCountryHistory:
		var h diseasesh.CountryHistory
		if err := json.Unmarshal(sv.Value, &h); err != nil {
			return err
		}
		snap.CountryHistory = &h
	case ResourceCountries:
		var cs []diseasesh.Country
		if err := json.Unmarshal(sv.Value, &cs); err != nil {
			return err
		}
		if cs == nil {
			return errors.New("stored country list is empty")
		}
		snap.Countries = cs
	default:
		return fmt.Errorf("unknown resource %q", res)
	}
	snap.Refreshed[res] = sv.Refreshed
	return nil
}
