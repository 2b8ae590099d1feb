package redis

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/baechuer/real-time-ressys/services/rsvp-service/internal/domain"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type Cache struct {
	Client *redis.Client
}

func New(addr, pass string, db int) *Cache {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr, Password: pass, DB: db,
	})
	return &Cache{Client: rdb}
}

func (c *Cache) Ping(ctx context.Context) error {
	return c.Client.Ping(ctx).Err()
}

func (c *Cache) Close() error { return c.Client.Close() }

func capacityKey(eventID uuid.UUID) string {
	return "rsvp:capacity:" + eventID.String()
}

func generationKey(eventID uuid.UUID) string {
	return "rsvp:capacity:gen:" + eventID.String()
}

// generationTTL must outlive any snapshot TTL.
const generationTTL = 24 * time.Hour

type capacitySnapshot struct {
	Effective  int   `json:"effective"`
	Max        int   `json:"max"`
	Generation int64 `json:"gen"`
}

// GetCapacity reports ok=false on a miss. A corrupt entry is treated as a
// miss, as is a snapshot taken before the last InvalidateCapacity.
func (c *Cache) GetCapacity(ctx context.Context, eventID uuid.UUID) (domain.Capacity, bool, error) {
	vals, err := c.Client.MGet(ctx, capacityKey(eventID), generationKey(eventID)).Result()
	if err != nil {
		return domain.Capacity{}, false, err
	}
	raw, ok := vals[0].(string)
	if !ok {
		return domain.Capacity{}, false, nil
	}
	var snap capacitySnapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		_ = c.Client.Del(ctx, capacityKey(eventID)).Err()
		return domain.Capacity{}, false, nil
	}
	gen, err := parseGeneration(vals[1])
	if err != nil {
		return domain.Capacity{}, false, err
	}
	if snap.Generation != gen {
		return domain.Capacity{}, false, nil
	}
	return domain.Capacity{EventID: eventID, EffectiveGuests: snap.Effective, MaxGuests: snap.Max}, true, nil
}

// CapacityGeneration returns the current invalidation generation. Read it
// before counting and hand it to SetCapacity.
func (c *Cache) CapacityGeneration(ctx context.Context, eventID uuid.UUID) (int64, error) {
	gen, err := c.Client.Get(ctx, generationKey(eventID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

func (c *Cache) SetCapacity(ctx context.Context, capacity domain.Capacity, gen int64, ttl time.Duration) error {
	raw, err := json.Marshal(capacitySnapshot{
		Effective:  capacity.EffectiveGuests,
		Max:        capacity.MaxGuests,
		Generation: gen,
	})
	if err != nil {
		return err
	}
	return c.Client.Set(ctx, capacityKey(capacity.EventID), raw, ttl).Err()
}

// InvalidateCapacity bumps the generation so that snapshots counted before
// this call are never served, even if they are written after it.
func (c *Cache) InvalidateCapacity(ctx context.Context, eventID uuid.UUID) error {
	_, err := c.Client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, generationKey(eventID))
		pipe.Expire(ctx, generationKey(eventID), generationTTL)
		pipe.Del(ctx, capacityKey(eventID))
		return nil
	})
	return err
}

func parseGeneration(v any) (int64, error) {
	s, ok := v.(string)
	if !ok {
		return 0, nil
	}
	return strconv.ParseInt(s, 10, 64)
}

// AllowRequest: simple fixed window rate limit keyed by scope and caller.
func (c *Cache) AllowRequest(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	key = "ratelimit:" + key
	count, err := c.Client.Incr(ctx, key).Result()
	if err != nil {
		return true, nil // fail open
	}
	if count == 1 {
		_ = c.Client.Expire(ctx, key, window).Err()
	}
	return count <= int64(limit), nil
}
