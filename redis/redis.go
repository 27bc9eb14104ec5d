package redis

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const keyPrefix = "pushci:workspace:"

var unlockScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// Overridden by tests.
var pollInterval = 250 * time.Millisecond

// Locker serializes workspace keys across every receiver sharing one Redis
// instance.
type Locker struct {
	c   *redis.Client
	ttl time.Duration
	log *zap.Logger
}

// New connects to url. ttl bounds how long a crashed holder keeps a key
// locked and should exceed the longest possible run.
func New(url string, ttl time.Duration) (*Locker, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	if ttl <= 0 {
		return nil, errors.New("lock ttl must be positive")
	}

	l := &Locker{
		c:   redis.NewClient(opts),
		ttl: ttl,
		log: zap.L().With(zap.String("facility", "redis")),
	}
	if err = l.Ping(); err != nil {
		_ = l.c.Close()
		return nil, err
	}

	l.log.Info("Connected to Redis", zap.String("host", opts.Addr), zap.Duration("lock_ttl", ttl))
	return l, nil
}

func (l *Locker) Ping() error {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	return l.c.Ping(ctx).Err()
}

func (l *Locker) Close() error {
	return l.c.Close()
}

func newToken() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func (l *Locker) Lock(ctx context.Context, key string) (func(), error) {
	token, err := newToken()
	if err != nil {
		return nil, err
	}
	redisKey := keyPrefix + key

	backoff := 1
	for {
		ok, err := l.c.SetNX(ctx, redisKey, token, l.ttl).Result()
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			l.log.Error("SetNX failed", zap.String("key", redisKey), zap.Error(err))
		} else if ok {
			break
		}

		wait := time.Duration(backoff) * pollInterval
		if backoff < 8 {
			backoff *= 2
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}

	l.log.Debug("Acquired workspace lock", zap.String("key", redisKey))
	return func() {
		// The run's context may already be cancelled; release regardless.
		releaseCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := unlockScript.Run(releaseCtx, l.c, []string{redisKey}, token).Err(); err != nil {
			l.log.Error("Failed releasing workspace lock", zap.String("key", redisKey), zap.Error(err))
		}
	}, nil
}
