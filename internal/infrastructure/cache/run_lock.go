package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/rahulmuralitechnology/cartzilla-sub003/internal/domain/erpsync"
)

// DefaultRunLockTTL bounds how long a crashed run can block its tenant
const DefaultRunLockTTL = 2 * time.Hour

const runLockKeyPrefix = "erpsync:run-lock:"

// releaseScript deletes the key only while it still holds the caller's token
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisRunLock implements erpsync.RunLock with SET NX PX and a random token.
// It works across instances sharing one Redis.
type RedisRunLock struct {
	client    redis.UniversalClient
	keyPrefix string
	ttl       time.Duration
	logger    *zap.Logger
}

// NewRedisRunLock creates a lock whose keys expire after ttl
func NewRedisRunLock(client redis.UniversalClient, ttl time.Duration, logger *zap.Logger) *RedisRunLock {
	if ttl <= 0 {
		ttl = DefaultRunLockTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisRunLock{
		client:    client,
		keyPrefix: runLockKeyPrefix,
		ttl:       ttl,
		logger:    logger,
	}
}

// Acquire takes the tenant's lock or returns erpsync.ErrSyncRunInProgress
func (l *RedisRunLock) Acquire(ctx context.Context, tenantID uuid.UUID) (func(context.Context) error, error) {
	key := l.keyPrefix + tenantID.String()
	token := uuid.NewString()

	acquired, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire run lock: %w", err)
	}
	if !acquired {
		return nil, erpsync.ErrSyncRunInProgress
	}

	var once sync.Once
	var releaseErr error
	release := func(ctx context.Context) error {
		once.Do(func() {
			deleted, err := releaseScript.Run(ctx, l.client, []string{key}, token).Int64()
			if err != nil {
				releaseErr = fmt.Errorf("release run lock: %w", err)
				return
			}
			if deleted == 0 {
				l.logger.Warn("Run lock expired before release",
					zap.String("tenant_id", tenantID.String()),
					zap.Duration("ttl", l.ttl))
			}
		})
		return releaseErr
	}
	return release, nil
}

// InMemoryRunLock implements erpsync.RunLock inside one process.
// Use it for single-instance deployments and tests.
type InMemoryRunLock struct {
	mu    sync.Mutex
	ttl   time.Duration
	held  map[uuid.UUID]lockEntry
	clock func() time.Time
}

type lockEntry struct {
	token     string
	expiresAt time.Time
}

// NewInMemoryRunLock creates a process-local lock whose entries expire after ttl
func NewInMemoryRunLock(ttl time.Duration) *InMemoryRunLock {
	if ttl <= 0 {
		ttl = DefaultRunLockTTL
	}
	return &InMemoryRunLock{
		ttl:   ttl,
		held:  make(map[uuid.UUID]lockEntry),
		clock: time.Now,
	}
}

// Acquire takes the tenant's lock or returns erpsync.ErrSyncRunInProgress
func (l *InMemoryRunLock) Acquire(_ context.Context, tenantID uuid.UUID) (func(context.Context) error, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock()
	if e, ok := l.held[tenantID]; ok && now.Before(e.expiresAt) {
		return nil, erpsync.ErrSyncRunInProgress
	}

	token := uuid.NewString()
	l.held[tenantID] = lockEntry{token: token, expiresAt: now.Add(l.ttl)}

	return func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		// a later holder took over after expiry; leave its entry alone
		if e, ok := l.held[tenantID]; ok && e.token == token {
			delete(l.held, tenantID)
		}
		return nil
	}, nil
}

// Held reports whether the tenant's lock is currently taken
func (l *InMemoryRunLock) Held(tenantID uuid.UUID) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.held[tenantID]
	return ok && l.clock().Before(e.expiresAt)
}

var (
	_ erpsync.RunLock = (*RedisRunLock)(nil)
	_ erpsync.RunLock = (*InMemoryRunLock)(nil)
)
