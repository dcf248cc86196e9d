package conversation

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/revgas/gasbot/pkg/logging"
)

const defaultDedupeTTL = 10 * time.Minute

// Dedupe suppresses exact provider message-id replays within a short window.
// The provider retries webhooks on non-200 responses and occasionally
// double-fires; this guard keeps a replay from producing a second reply.
type Dedupe struct {
	redis  *redis.Client
	ttl    time.Duration
	logger *logging.Logger
}

// NewDedupe builds the guard. A nil redis client disables it: every message
// is then treated as first-seen.
func NewDedupe(redisClient *redis.Client, ttl time.Duration, logger *logging.Logger) *Dedupe {
	if ttl <= 0 {
		ttl = defaultDedupeTTL
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Dedupe{redis: redisClient, ttl: ttl, logger: logger}
}

// Seen records messageID and reports whether it had already been recorded
// inside the window. Redis failures are logged and treated as first-seen:
// replying twice is preferable to never replying.
func (d *Dedupe) Seen(ctx context.Context, messageID string) bool {
	if d == nil || d.redis == nil || messageID == "" {
		return false
	}

	set, err := d.redis.SetNX(ctx, dedupeKey(messageID), 1, d.ttl).Result()
	if err != nil {
		d.logger.Warn("dedupe check failed", "error", err, "message_id", messageID)
		return false
	}
	return !set
}

func dedupeKey(messageID string) string {
	return fmt.Sprintf("wa:msg:%s", messageID)
}
