package redis

import (
	"fmt"
	"time"
)

const (
	// GameLockKeyPrefix 游戏锁 Key 前缀
	GameLockKeyPrefix = "switcher:game:lock:"

	// GameViewKeyPrefix 游戏公开视图 Key 前缀
	GameViewKeyPrefix = "switcher:game:view:"

	// DefaultLockTTL 游戏锁默认 TTL
	DefaultLockTTL = 5 * time.Second

	// DefaultViewTTL 公开视图默认 TTL
	DefaultViewTTL = 30 * time.Minute
)

// BuildGameLockKey 构建游戏锁 Key
// Key: switcher:game:lock:{gameId}
func BuildGameLockKey(gameID string) string {
	return fmt.Sprintf("%s%s", GameLockKeyPrefix, gameID)
}

// BuildGameViewKey 构建游戏视图 Key
// Key: switcher:game:view:{gameId}
func BuildGameViewKey(gameID string) string {
	return fmt.Sprintf("%s%s", GameViewKeyPrefix, gameID)
}
