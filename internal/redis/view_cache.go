package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"sudooom.switcher/pkg/proto"
)

// ErrViewNotCached 缓存中没有该游戏的视图
var ErrViewNotCached = errors.New("view not cached")

// ViewCache 缓存游戏公开视图，供 HTTP 只读接口使用
type ViewCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewViewCache 创建视图缓存
func NewViewCache(client redis.Cmdable, ttl time.Duration) *ViewCache {
	if ttl <= 0 {
		ttl = DefaultViewTTL
	}
	return &ViewCache{client: client, ttl: ttl}
}

// Set 写入视图
func (c *ViewCache) Set(ctx context.Context, view *proto.GameView) error {
	data, err := json.Marshal(view)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, BuildGameViewKey(view.Id), data, c.ttl).Err()
}

// Get 读取视图
func (c *ViewCache) Get(ctx context.Context, gameID string) (*proto.GameView, error) {
	data, err := c.client.Get(ctx, BuildGameViewKey(gameID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrViewNotCached
	}
	if err != nil {
		return nil, err
	}

	var view proto.GameView
	if err := json.Unmarshal(data, &view); err != nil {
		return nil, err
	}
	return &view, nil
}
