package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const callGuardPrefix = "intake:call:"

// CallGuard enforces at-most-once intake creation per call ID. The webhook
// platform redelivers on timeouts; the SETNX key turns a redelivery into a
// cheap no-op.
type CallGuard struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCallGuard(client *redis.Client, ttl time.Duration) *CallGuard {
	return &CallGuard{client: client, ttl: ttl}
}

// FirstSeen returns true when this call ID has not been processed within the
// guard TTL, claiming it atomically.
func (g *CallGuard) FirstSeen(ctx context.Context, callID string) (bool, error) {
	ok, err := g.client.SetNX(ctx, callGuardPrefix+callID, 1, g.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("call guard setnx failed: %w", err)
	}
	return ok, nil
}

// Release drops the claim so a failed intake can be redelivered.
func (g *CallGuard) Release(ctx context.Context, callID string) error {
	return g.client.Del(ctx, callGuardPrefix+callID).Err()
}
