package queue

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisBroker keeps each queue as a ready list plus a sorted set of
// delayed jobs scored by their ready time. Due delayed jobs are
// promoted onto the ready list before every pop; ZREM is the claim, so
// two promoters can never deliver the same payload twice.
type RedisBroker struct {
	RDB *redis.Client
}

func NewRedisBroker(rdb *redis.Client) *RedisBroker { return &RedisBroker{RDB: rdb} }

func readyKey(queue string) string   { return "queue:" + queue }
func delayedKey(queue string) string { return "queue:" + queue + ":delayed" }

func (b *RedisBroker) Push(ctx context.Context, queue string, payload []byte) error {
	return b.RDB.LPush(ctx, readyKey(queue), payload).Err()
}

func (b *RedisBroker) PushDelayed(ctx context.Context, queue string, payload []byte, readyAt time.Time) error {
	return b.RDB.ZAdd(ctx, delayedKey(queue), redis.Z{
		Score:  float64(readyAt.UnixMilli()),
		Member: payload,
	}).Err()
}

func (b *RedisBroker) Pop(ctx context.Context, queue string, timeout time.Duration) ([]byte, error) {
	if err := b.promoteDue(ctx, queue); err != nil {
		return nil, err
	}
	res, err := b.RDB.BRPop(ctx, timeout, readyKey(queue)).Result()
	if err == redis.Nil {
		return nil, nil // idle timeout
	}
	if err != nil {
		return nil, err
	}
	// BRPOP returns [key, value].
	return []byte(res[1]), nil
}

// promoteDue moves every delayed job whose ready time has passed onto
// the ready list.
func (b *RedisBroker) promoteDue(ctx context.Context, queue string) error {
	now := strconv.FormatInt(time.Now().UnixMilli(), 10)
	due, err := b.RDB.ZRangeByScore(ctx, delayedKey(queue), &redis.ZRangeBy{
		Min: "-inf",
		Max: now,
	}).Result()
	if err != nil {
		return err
	}
	for _, member := range due {
		removed, err := b.RDB.ZRem(ctx, delayedKey(queue), member).Result()
		if err != nil {
			return err
		}
		if removed == 0 {
			continue // claimed by another promoter
		}
		if err := b.RDB.LPush(ctx, readyKey(queue), member).Err(); err != nil {
			return err
		}
	}
	return nil
}
