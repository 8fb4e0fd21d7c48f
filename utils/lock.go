package utils

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ErrLockTimeout is returned when a lock could not be acquired before the deadline.
var ErrLockTimeout = errors.New("lock acquisition timed out")

// Locker serializes work on a key. The returned unlock func is safe to call more than once.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

type slot struct {
	ch   chan struct{}
	refs int
}

// LocalLocker is an in-process keyed mutex whose entries are dropped once unused.
type LocalLocker struct {
	mu    sync.Mutex
	slots map[string]*slot
}

// NewLocalLocker creates an empty LocalLocker.
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{slots: map[string]*slot{}}
}

// Lock blocks until key is free or ctx is done.
func (l *LocalLocker) Lock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	s, ok := l.slots[key]
	if !ok {
		s = &slot{ch: make(chan struct{}, 1)}
		l.slots[key] = s
	}
	s.refs++
	l.mu.Unlock()

	select {
	case s.ch <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() {
				<-s.ch
				l.release(key, s)
			})
		}, nil
	case <-ctx.Done():
		l.release(key, s)
		return nil, ErrLockTimeout
	}
}

func (l *LocalLocker) release(key string, s *slot) {
	l.mu.Lock()
	s.refs--
	if s.refs == 0 {
		delete(l.slots, key)
	}
	l.mu.Unlock()
}

// size reports the number of live keys.
func (l *LocalLocker) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.slots)
}

const releaseScript = `if redis.call('GET', KEYS[1]) == ARGV[1] then return redis.call('DEL', KEYS[1]) end return 0`

// RedisLocker takes the local lock first and then a Redis SET NX lock so that
// several instances sharing one Redis also serialize on the key.
type RedisLocker struct {
	rc    *redis.Client
	local *LocalLocker
	ttl   time.Duration
	retry time.Duration
}

// NewLocker returns a RedisLocker when rc is set, otherwise a LocalLocker.
func NewLocker(rc *redis.Client) Locker {
	if rc == nil {
		return NewLocalLocker()
	}
	return &RedisLocker{rc: rc, local: NewLocalLocker(), ttl: 10 * time.Second, retry: 15 * time.Millisecond}
}

// Lock blocks until both locks are held or ctx is done.
func (r *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	unlockLocal, err := r.local.Lock(ctx, key)
	if err != nil {
		return nil, err
	}

	redisKey := "lock:" + key
	token := uuid.NewString()
	for {
		ok, err := r.rc.SetNX(ctx, redisKey, token, r.ttl).Result()
		if err == nil && ok {
			break
		}
		if err != nil && !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, context.Canceled) {
			unlockLocal()
			return nil, err
		}
		select {
		case <-ctx.Done():
			unlockLocal()
			return nil, ErrLockTimeout
		case <-time.After(r.retry):
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			rctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := r.rc.Eval(rctx, releaseScript, []string{redisKey}, token).Err(); err != nil {
				L().Warn("redis lock release failed", zap.String("key", redisKey), zap.Error(err))
			}
			unlockLocal()
		})
	}, nil
}
