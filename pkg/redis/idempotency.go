package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type IdempotencyState string

const (
	IdempotencyPending   IdempotencyState = "pending"
	IdempotencyCompleted IdempotencyState = "completed"
)

// pendingTTL bounds how long a crashed handler can hold a key.
const pendingTTL = time.Minute

// IdempotencyRecord is what a mutation leaves under its Idempotency-Key. A
// pending record marks a request in flight; a completed one holds the
// response to replay.
type IdempotencyRecord struct {
	State       IdempotencyState `json:"state"`
	RequestHash string           `json:"request_hash"`
	Status      int              `json:"status,omitempty"`
	ContentType string           `json:"content_type,omitempty"`
	Body        []byte           `json:"body,omitempty"`
}

// IdempotencyKey namespaces a client key within scope.
func (c *Client) IdempotencyKey(scope, id string) string {
	return buildKey("idempotency", scope, id)
}

// ReserveIdempotency claims the key for a new request. When someone else
// holds it, their record is returned with claimed=false.
func (c *Client) ReserveIdempotency(ctx context.Context, scope, id, requestHash string) (*IdempotencyRecord, bool, error) {
	if c.store == nil {
		return nil, false, errNotInitialized
	}
	key := c.IdempotencyKey(scope, id)
	pending, err := json.Marshal(IdempotencyRecord{State: IdempotencyPending, RequestHash: requestHash})
	if err != nil {
		return nil, false, err
	}

	// A second pass covers the holder's record expiring between SETNX and GET.
	for attempt := 0; attempt < 2; attempt++ {
		claimed, err := c.store.SetNX(ctx, key, string(pending), pendingTTL).Result()
		if err != nil {
			return nil, false, err
		}
		if claimed {
			return nil, true, nil
		}

		raw, err := c.store.Get(ctx, key).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return nil, false, err
		}
		var existing IdempotencyRecord
		if err := json.Unmarshal([]byte(raw), &existing); err != nil {
			return nil, false, fmt.Errorf("decode idempotency record %s: %w", key, err)
		}
		return &existing, false, nil
	}
	return nil, false, fmt.Errorf("idempotency key %s kept changing hands", key)
}

// CompleteIdempotency replaces the caller's pending reservation with the
// final response, kept for ttl.
func (c *Client) CompleteIdempotency(ctx context.Context, scope, id string, record IdempotencyRecord, ttl time.Duration) error {
	if c.store == nil {
		return errNotInitialized
	}
	record.State = IdempotencyCompleted
	payload, err := json.Marshal(record)
	if err != nil {
		return err
	}
	key := c.IdempotencyKey(scope, id)
	updated, err := c.store.SetXX(ctx, key, string(payload), ttl).Result()
	if err != nil {
		return err
	}
	if !updated {
		return fmt.Errorf("idempotency reservation %s expired before completion", key)
	}
	return nil
}

// ReleaseIdempotency drops a reservation so the client may retry.
func (c *Client) ReleaseIdempotency(ctx context.Context, scope, id string) error {
	return c.Del(ctx, c.IdempotencyKey(scope, id))
}
