package lock

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var ErrLocked = errors.New("已有重新排期任务正在进行，请稍后再试")

// 只有持有者才能释放锁，避免锁过期后误删别人的锁
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// BatchLock 保证同一时间只有一个重新排期批次在运行
type BatchLock struct {
	rdb        *redis.Client
	key        string
	expiration time.Duration
	timeout    time.Duration
}

func NewBatchLock(rdb *redis.Client, key string, expiration, timeout time.Duration) *BatchLock {
	return &BatchLock{
		rdb:        rdb,
		key:        key,
		expiration: expiration,
		timeout:    timeout,
	}
}

// Acquire 成功时返回用于释放锁的函数，锁已被占用时返回 ErrLocked
func (l *BatchLock) Acquire() (func(), error) {
	token := uuid.NewString()

	ctx, cancel := context.WithTimeout(context.Background(), l.timeout)
	defer cancel()

	ok, err := l.rdb.SetNX(ctx, l.key, token, l.expiration).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrLocked
	}

	return func() { l.release(token) }, nil
}

func (l *BatchLock) release(token string) {
	ctx, cancel := context.WithTimeout(context.Background(), l.timeout)
	defer cancel()

	if err := releaseScript.Run(ctx, l.rdb, []string{l.key}, token).Err(); err != nil {
		slog.Warn("无法释放重新排期锁", "key", l.key, "error", err)
	}
}
