package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLedger keeps the identity set in a Redis set, for deployments that
// already run Redis and want the ledger to survive host loss. Membership
// is mirrored in memory at construction so Contains never blocks on the
// network; Append writes through.
type RedisLedger struct {
	client *redis.Client
	key    string
	local  *memorySet
}

// NewRedisLedger connects to Redis and loads the existing set stored
// under key. A failure to load is a startup error for the same reason an
// unreadable ledger file is.
func NewRedisLedger(ctx context.Context, client *redis.Client, key string) (*RedisLedger, error) {
	members, err := client.SMembers(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("error loading ledger set %s: %w", key, err)
	}
	local := newMemorySet()
	for _, id := range members {
		local.add(id)
	}
	return &RedisLedger{client: client, key: key, local: local}, nil
}

func (l *RedisLedger) Contains(id string) bool {
	return l.local.contains(id)
}

// Append records id in Redis and the local mirror. The mirror is updated
// first so a Redis outage degrades to the file-ledger failure mode: the
// running process still suppresses the duplicate, at the cost of a
// possible re-notification after restart.
func (l *RedisLedger) Append(id string) error {
	if !l.local.add(id) {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := l.client.SAdd(ctx, l.key, id).Err(); err != nil {
		return fmt.Errorf("error appending to ledger set %s: %w", l.key, err)
	}
	return nil
}
