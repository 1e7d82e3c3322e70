package redis

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrLockFailed 在等待时间内没有拿到锁
	ErrLockFailed = errors.New("LOCK_FAILED")
)

// releaseScript 只有持有者的 token 匹配时才删除锁
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// GameLocker 基于 SetNX 的游戏分布式锁
// 保证同一局游戏同时只有一个变更在执行
type GameLocker struct {
	client     redis.Cmdable
	ttl        time.Duration
	retryDelay time.Duration
	maxWait    time.Duration
	logger     *slog.Logger
}

// NewGameLocker 创建游戏锁
func NewGameLocker(client redis.Cmdable, ttl, maxWait time.Duration) *GameLocker {
	if ttl <= 0 {
		ttl = DefaultLockTTL
	}
	return &GameLocker{
		client:     client,
		ttl:        ttl,
		retryDelay: 20 * time.Millisecond,
		maxWait:    maxWait,
		logger:     slog.Default().With("component", "GameLocker"),
	}
}

// Lock 获取游戏锁，返回释放函数
func (l *GameLocker) Lock(ctx context.Context, gameID string) (func(), error) {
	key := BuildGameLockKey(gameID)
	token, err := newToken()
	if err != nil {
		return nil, err
	}

	deadline := time.Now().Add(l.maxWait)
	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire lock %s: %w", key, err)
		}
		if ok {
			break
		}
		if !time.Now().Before(deadline) {
			return nil, ErrLockFailed
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.retryDelay):
		}
	}

	release := func() {
		// 用独立的 context，调用方取消后也要释放
		rctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := releaseScript.Run(rctx, l.client, []string{key}, token).Err(); err != nil {
			l.logger.Warn("Failed to release game lock", "gameId", gameID, "error", err)
		}
	}
	return release, nil
}

func newToken() (string, error) {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", fmt.Errorf("generate lock token: %w", err)
	}
	return hex.EncodeToString(b[:]), nil
}
