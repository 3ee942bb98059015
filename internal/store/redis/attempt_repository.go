package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"paysync/internal/domain/payment"
	"paysync/internal/store/repositories"

	goredis "github.com/redis/go-redis/v9"
)

const keyPrefix = "paysync:attempt:"

// transitionScript applies the state machine atomically per key.
// KEYS[1] = attempt hash
// ARGV[1] = target status
// ARGV[2] = now (unix millis)
// Returns 1 when applied, 0 when the attempt is already terminal.
var transitionScript = goredis.NewScript(`
local key = KEYS[1]
local to = ARGV[1]
local now = ARGV[2]

local current = redis.call("HGET", key, "status")
if not current then
    redis.call("HSET", key, "status", to, "created_at", now, "updated_at", now)
    return 1
end
if current ~= "pending" then
    return 0
end
redis.call("HSET", key, "status", to, "updated_at", now)
return 1
`)

// createScript inserts the attempt hash only if the key is absent.
// Returns 1 when created, 0 when the attempt already exists.
var createScript = goredis.NewScript(`
local key = KEYS[1]
if redis.call("EXISTS", key) == 1 then
    return 0
end
redis.call("HSET", key,
    "status", ARGV[1],
    "amount", ARGV[2],
    "currency", ARGV[3],
    "payer_name", ARGV[4],
    "payer_email", ARGV[5],
    "created_at", ARGV[6],
    "updated_at", ARGV[7])
return 1
`)

// AttemptRepository stores attempts as redis hashes, one key per attempt
type AttemptRepository struct {
	client goredis.UniversalClient
}

func NewAttemptRepository(client goredis.UniversalClient) *AttemptRepository {
	return &AttemptRepository{client: client}
}

// Open connects and pings redis
func Open(ctx context.Context, addr, password string, db int) (*goredis.Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

func key(id string) string { return keyPrefix + id }

func (r *AttemptRepository) Create(ctx context.Context, a *payment.Attempt) error {
	if a == nil || a.ID == "" {
		return fmt.Errorf("attempt ID is required")
	}
	created, err := createScript.Run(ctx, r.client, []string{key(a.ID)},
		string(a.Status),
		int64(a.Amount),
		string(a.Currency),
		a.PayerName,
		a.PayerEmail,
		a.CreatedAt.UnixMilli(),
		a.UpdatedAt.UnixMilli(),
	).Int64()
	if err != nil {
		return fmt.Errorf("redis create attempt: %w", err)
	}
	if created == 0 {
		return repositories.ErrAlreadyExists
	}
	return nil
}

func (r *AttemptRepository) FindByID(ctx context.Context, id string) (*payment.Attempt, error) {
	fields, err := r.client.HGetAll(ctx, key(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis find attempt: %w", err)
	}
	if len(fields) == 0 || fields["status"] == "" {
		return nil, repositories.ErrNotFound
	}

	a := &payment.Attempt{
		ID:         id,
		Status:     payment.Status(fields["status"]),
		Currency:   payment.Currency(fields["currency"]),
		PayerName:  fields["payer_name"],
		PayerEmail: fields["payer_email"],
	}
	if v, err := strconv.ParseInt(fields["amount"], 10, 64); err == nil {
		a.Amount = payment.Money(v)
	}
	a.CreatedAt = parseMillis(fields["created_at"])
	a.UpdatedAt = parseMillis(fields["updated_at"])
	return a, nil
}

func (r *AttemptRepository) Transition(ctx context.Context, id string, to payment.Status) (bool, error) {
	if !to.IsTerminal() {
		return false, fmt.Errorf("transition target must be terminal, got %q", to)
	}
	now := time.Now().UTC().UnixMilli()
	res, err := transitionScript.Run(ctx, r.client, []string{key(id)}, string(to), now).Int64()
	if err != nil && !errors.Is(err, goredis.Nil) {
		return false, fmt.Errorf("redis transition: %w", err)
	}
	return res == 1, nil
}

func parseMillis(s string) time.Time {
	ms, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}
