package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/growthacceleratorstaffing/linked-job-seeker-board-sub000/config"

	"github.com/google/uuid"
	"github.com/kataras/golog"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const (
	WorkableSyncLockName = "workable_candidate_sync"

	defaultRedisLockTTL = 2 * time.Hour
	redisLockPrefix     = "lock:"
)

// Locker grants a named single-flight lease. Acquire returns
// ErrSyncAlreadyRunning when another holder has it.
type Locker interface {
	Acquire(ctx context.Context, name string) (release func() error, err error)
}

// NewLocker builds the locker selected by cfg.LockBackend.
func NewLocker(cfg config.WorkableConfig, db *gorm.DB) (Locker, error) {
	switch cfg.LockBackend {
	case config.LockBackendNone:
		return noopLocker{}, nil
	case config.LockBackendRedis:
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("parse REDIS_URL: %w", err)
		}
		return NewRedisLocker(redis.NewClient(opts), defaultRedisLockTTL), nil
	case config.LockBackendDatabase, "":
		return NewDatabaseLocker(db), nil
	default:
		return nil, fmt.Errorf("unknown SYNC_LOCK_BACKEND %q", cfg.LockBackend)
	}
}

type noopLocker struct{}

func (noopLocker) Acquire(context.Context, string) (func() error, error) {
	return func() error { return nil }, nil
}

// DatabaseLocker uses MySQL GET_LOCK or Postgres advisory locks. The lock is
// held on a dedicated connection until release.
type DatabaseLocker struct {
	db *gorm.DB
}

func NewDatabaseLocker(db *gorm.DB) *DatabaseLocker {
	if db == nil {
		db = config.DB
	}
	return &DatabaseLocker{db: db}
}

func (l *DatabaseLocker) Acquire(ctx context.Context, name string) (func() error, error) {
	if strings.TrimSpace(name) == "" {
		return func() error { return nil }, nil
	}

	sqlDB, err := l.db.DB()
	if err != nil {
		return nil, err
	}
	conn, err := sqlDB.Conn(ctx)
	if err != nil {
		return nil, err
	}

	acquireSQL, releaseSQL := "SELECT GET_LOCK(?, 0)", "SELECT RELEASE_LOCK(?)"
	if config.DialectName(l.db) == config.DriverPostgres {
		acquireSQL, releaseSQL = "SELECT pg_try_advisory_lock(hashtext($1))", "SELECT pg_advisory_unlock(hashtext($1))"
	}

	var ok sql.NullBool
	if err := conn.QueryRowContext(ctx, acquireSQL, name).Scan(&ok); err != nil {
		_ = conn.Close()
		return nil, err
	}
	if !ok.Valid || !ok.Bool {
		_ = conn.Close()
		return nil, ErrSyncAlreadyRunning
	}

	releaseCtx := DetachedContext(ctx)
	return func() error {
		defer conn.Close()
		var released sql.NullBool
		if err := conn.QueryRowContext(releaseCtx, releaseSQL, name).Scan(&released); err != nil {
			return err
		}
		return nil
	}, nil
}

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker holds a SET NX key with a random token. Only the token holder
// can release it.
type RedisLocker struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewRedisLocker(client redis.UniversalClient, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = defaultRedisLockTTL
	}
	return &RedisLocker{client: client, ttl: ttl}
}

func (l *RedisLocker) Acquire(ctx context.Context, name string) (func() error, error) {
	key := redisLockPrefix + name
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire redis lock %s: %w", key, err)
	}
	if !ok {
		return nil, ErrSyncAlreadyRunning
	}

	releaseCtx := DetachedContext(ctx)
	return func() error {
		n, err := releaseScript.Run(releaseCtx, l.client, []string{key}, token).Int()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if n == 0 {
			golog.Warnf("redis lock %s expired before release", key)
		}
		return nil
	}, nil
}
