package stubserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/comptes-dev/comptes/internal/model"
)

const (
	redisAccountsKey = "comptes:v1:accounts"
	redisSeqKey      = "comptes:v1:seq"
)

// updateScript replaces an account only if its field still exists, so a
// concurrent delete is never undone.
var updateScript = redis.NewScript(`
if redis.call("HEXISTS", KEYS[1], ARGV[1]) == 0 then
	return 0
end
redis.call("HSET", KEYS[1], ARGV[1], ARGV[2])
return 1
`)

// NewRedisClient configures a Redis client and verifies connectivity.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	if url == "" {
		return nil, fmt.Errorf("redis url is required")
	}

	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opt)

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return client, nil
}

// RedisStore keeps every account as JSON in one hash, keyed by id. Ids come
// from an INCR counter.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore wraps client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) List(ctx context.Context) ([]model.Account, error) {
	raw, err := s.client.HGetAll(ctx, redisAccountsKey).Result()
	if err != nil {
		return nil, fmt.Errorf("redis hgetall: %w", err)
	}
	accounts := make([]model.Account, 0, len(raw))
	for id, value := range raw {
		var acct model.Account
		if err := json.Unmarshal([]byte(value), &acct); err != nil {
			return nil, fmt.Errorf("decoding compte %s: %w", id, err)
		}
		accounts = append(accounts, acct)
	}
	sortByID(accounts)
	return accounts, nil
}

func (s *RedisStore) Create(ctx context.Context, p model.Payload) (model.Account, error) {
	n, err := s.client.Incr(ctx, redisSeqKey).Result()
	if err != nil {
		return model.Account{}, fmt.Errorf("redis incr: %w", err)
	}
	acct := fromPayload(model.ID(strconv.FormatInt(n, 10)), p)
	if err := s.put(ctx, acct); err != nil {
		return model.Account{}, err
	}
	return acct, nil
}

func (s *RedisStore) Update(ctx context.Context, id model.ID, p model.Payload) (model.Account, error) {
	acct := fromPayload(id, p)
	data, err := json.Marshal(acct)
	if err != nil {
		return model.Account{}, fmt.Errorf("encoding compte: %w", err)
	}
	updated, err := updateScript.Run(ctx, s.client, []string{redisAccountsKey}, id.String(), data).Int()
	if err != nil {
		return model.Account{}, fmt.Errorf("redis update: %w", err)
	}
	if updated == 0 {
		return model.Account{}, ErrNotFound
	}
	return acct, nil
}

func (s *RedisStore) Delete(ctx context.Context, id model.ID) error {
	n, err := s.client.HDel(ctx, redisAccountsKey, id.String()).Result()
	if err != nil {
		return fmt.Errorf("redis hdel: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) put(ctx context.Context, acct model.Account) error {
	data, err := json.Marshal(acct)
	if err != nil {
		return fmt.Errorf("encoding compte: %w", err)
	}
	if err := s.client.HSet(ctx, redisAccountsKey, acct.ID.String(), data).Err(); err != nil {
		return fmt.Errorf("redis hset: %w", err)
	}
	return nil
}
