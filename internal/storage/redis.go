package storage

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig locates a Redis server.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRedis connects to Redis and verifies the connection.
func NewRedis(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(ctxPing).Err(); err != nil {
		_ = client.Close() //nolint:errcheck
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

const (
	redisTokenPrefix  = "jarviz:token:"
	redisLevelPrefix  = "jarviz:tokens:level:"
	redisLevelsSetKey = "jarviz:tokens:levels"
)

// Compile-time interface satisfaction check.
var _ TokenStore = (*RedisTokenStore)(nil)

// RedisTokenStore keeps each token in a hash at jarviz:token:<hash> that
// expires with the token. A sorted set per level, scored by expiry, answers
// level queries.
type RedisTokenStore struct {
	client redis.UniversalClient
	now    func() time.Time
}

// NewRedisTokenStore creates a token store on top of client.
func NewRedisTokenStore(client redis.UniversalClient) *RedisTokenStore {
	return &RedisTokenStore{client: client, now: time.Now}
}

func tokenKey(hash string) string {
	return redisTokenPrefix + hash
}

func levelKey(level int) string {
	return redisLevelPrefix + strconv.Itoa(level)
}

// SaveToken stores the token with a TTL matching its expiry.
func (s *RedisTokenStore) SaveToken(ctx context.Context, t *Token) error {
	key := tokenKey(t.Hash)

	// WATCH makes the existence check and the write one transaction.
	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		n, err := tx.Exists(ctx, key).Result()
		if err != nil {
			return err
		}
		if n > 0 {
			return ErrDuplicate
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key,
				"client_id", t.ClientID,
				"level", t.Level,
				"expires_at", t.ExpiresAt.Unix(),
			)
			pipe.ExpireAt(ctx, key, t.ExpiresAt)
			pipe.ZAdd(ctx, levelKey(t.Level), redis.Z{Score: float64(t.ExpiresAt.Unix()), Member: t.Hash})
			pipe.SAdd(ctx, redisLevelsSetKey, t.Level)
			return nil
		})
		return err
	}, key)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrDuplicate), errors.Is(err, redis.TxFailedErr):
		return ErrDuplicate
	default:
		return fmt.Errorf("failed to save token: %w", err)
	}
}

// GetTokenByHash returns ErrNotFound for unknown or expired tokens.
func (s *RedisTokenStore) GetTokenByHash(ctx context.Context, hash string) (*Token, error) {
	vals, err := s.client.HGetAll(ctx, tokenKey(hash)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get token by hash: %w", err)
	}
	if len(vals) == 0 {
		return nil, ErrNotFound
	}

	clientID, err := strconv.ParseInt(vals["client_id"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid client_id for token: %w", err)
	}
	level, err := strconv.Atoi(vals["level"])
	if err != nil {
		return nil, fmt.Errorf("invalid level for token: %w", err)
	}
	expires, err := strconv.ParseInt(vals["expires_at"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid expires_at for token: %w", err)
	}

	t := &Token{Hash: hash, ClientID: clientID, Level: level, ExpiresAt: time.Unix(expires, 0)}
	if t.Expired(s.now()) {
		return nil, ErrNotFound
	}
	return t, nil
}

// HasTokenAtLevel checks the per-level sets for an unexpired member.
func (s *RedisTokenStore) HasTokenAtLevel(ctx context.Context, level int) (bool, error) {
	levels, err := s.levels(ctx)
	if err != nil {
		return false, err
	}

	floor := strconv.FormatInt(s.now().Unix(), 10)
	for _, l := range levels {
		if l < level {
			continue
		}
		n, err := s.client.ZCount(ctx, levelKey(l), "("+floor, "+inf").Result()
		if err != nil {
			return false, fmt.Errorf("failed to count tokens: %w", err)
		}
		if n > 0 {
			return true, nil
		}
	}
	return false, nil
}

// DeleteExpiredTokens prunes the per-level sets. The token hashes themselves
// are removed by Redis when their TTL runs out.
func (s *RedisTokenStore) DeleteExpiredTokens(ctx context.Context) (int64, error) {
	levels, err := s.levels(ctx)
	if err != nil {
		return 0, err
	}

	cutoff := strconv.FormatInt(s.now().Unix(), 10)
	var total int64
	for _, l := range levels {
		n, err := s.client.ZRemRangeByScore(ctx, levelKey(l), "-inf", cutoff).Result()
		if err != nil {
			return total, fmt.Errorf("failed to delete expired tokens: %w", err)
		}
		total += n
	}
	return total, nil
}

func (s *RedisTokenStore) levels(ctx context.Context) ([]int, error) {
	members, err := s.client.SMembers(ctx, redisLevelsSetKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list token levels: %w", err)
	}
	levels := make([]int, 0, len(members))
	for _, m := range members {
		l, err := strconv.Atoi(m)
		if err != nil {
			continue
		}
		levels = append(levels, l)
	}
	return levels, nil
}
