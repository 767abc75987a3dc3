package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

// ClaimGuard implements ports.ClaimGuard using Redis SET NX.
type ClaimGuard struct {
	client *goredis.Client
	prefix string
}

// NewClaimGuard creates a new Redis-backed claim guard.
func NewClaimGuard(client *goredis.Client) *ClaimGuard {
	return &ClaimGuard{
		client: client,
		prefix: "reward:claim:",
	}
}

func (g *ClaimGuard) key(eventID, userID uuid.UUID) string {
	return g.prefix + eventID.String() + ":" + userID.String()
}

// Acquire returns true if no other attempt for the pair is in flight.
func (g *ClaimGuard) Acquire(ctx context.Context, eventID, userID uuid.UUID, ttl time.Duration) (bool, error) {
	result, err := g.client.SetArgs(ctx, g.key(eventID, userID), 1, goredis.SetArgs{
		Mode: "NX",
		TTL:  ttl,
	}).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("redis claim guard acquire: %w", err)
	}
	return result == "OK", nil
}

// Release frees the pair after a failed attempt.
func (g *ClaimGuard) Release(ctx context.Context, eventID, userID uuid.UUID) error {
	if err := g.client.Del(ctx, g.key(eventID, userID)).Err(); err != nil {
		return fmt.Errorf("redis claim guard release: %w", err)
	}
	return nil
}
