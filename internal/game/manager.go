package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"sudooom.switcher/internal/game/switcher"
)

// Store 游戏状态的持久化
type Store interface {
	// Load 不存在时返回 ErrGameNotFound
	Load(ctx context.Context, gameID string) (*switcher.State, error)
	// Save 按 state.Revision 条件写入，存储版本不符时返回 ErrVersionConflict，
	// 成功后把 state.Revision 更新为新版本
	Save(ctx context.Context, state *switcher.State) error
	// Version 返回存储中的当前版本
	Version(ctx context.Context, gameID string) (int64, error)
	Delete(ctx context.Context, gameID string) error
}

// GameManager 游戏管理器
type GameManager struct {
	games sync.Map // gameId -> *Game
	count atomic.Int64
	store Store

	// LRU 配置
	maxGames     int
	evictTimeout time.Duration
	evictTicker  *time.Ticker

	stopChan chan struct{} // 停止信号通道
	stopOnce sync.Once
	closed   atomic.Bool

	newRand func() *rand.Rand
	logger  *slog.Logger
}

// NewGameManager 创建游戏管理器
func NewGameManager(store Store, maxGames int, evictTimeout, evictInterval time.Duration) *GameManager {
	m := &GameManager{
		store:        store,
		maxGames:     maxGames,
		evictTimeout: evictTimeout,
		evictTicker:  time.NewTicker(evictInterval),
		stopChan:     make(chan struct{}),
		newRand: func() *rand.Rand {
			return rand.New(rand.NewSource(time.Now().UnixNano()))
		},
		logger: slog.Default().With("component", "GameManager"),
	}

	go m.evictLoop()

	return m
}

// SetRandSource 替换新游戏使用的随机源
func (m *GameManager) SetRandSource(fn func() *rand.Rand) {
	m.newRand = fn
}

// Create 创建新游戏并立即落库
func (m *GameManager) Create(ctx context.Context, state *switcher.State) (*Game, error) {
	if m.closed.Load() {
		return nil, ErrManagerClosed
	}
	if m.maxGames > 0 && m.Count() >= m.maxGames {
		return nil, ErrTooManyGames
	}

	game := NewGame(state, m.newRand())
	if _, loaded := m.games.LoadOrStore(state.ID, game); loaded {
		return nil, ErrGameExists
	}
	m.count.Add(1)

	saved := state.Clone()
	if err := m.store.Save(ctx, saved); err != nil {
		m.remove(state.ID)
		return nil, fmt.Errorf("save new game: %w", err)
	}
	game.MarkClean(0, saved.Revision)

	m.logger.Info("Created game", "gameId", state.ID)
	return game, nil
}

// Get 获取游戏，内存中没有时从存储加载
func (m *GameManager) Get(ctx context.Context, gameID string) (*Game, error) {
	if val, ok := m.games.Load(gameID); ok {
		return val.(*Game), nil
	}
	if m.closed.Load() {
		return nil, ErrManagerClosed
	}

	state, err := m.store.Load(ctx, gameID)
	if err != nil {
		return nil, err
	}

	game := NewGame(state, m.newRand())
	actual, loaded := m.games.LoadOrStore(gameID, game)
	if !loaded {
		m.count.Add(1)
		m.logger.Debug("Loaded game from store", "gameId", gameID)
	}
	return actual.(*Game), nil
}

// Sync 获取游戏并确认内存副本仍是存储中的最新版本，过期时重新加载
//
// 其他实例可能已经修改过同一局，调用方应先持有该局的分布式锁。
func (m *GameManager) Sync(ctx context.Context, gameID string) (*Game, error) {
	if val, ok := m.games.Load(gameID); ok {
		game := val.(*Game)
		current, err := m.store.Version(ctx, gameID)
		if errors.Is(err, ErrGameNotFound) {
			m.remove(gameID)
			return nil, err
		}
		if err != nil {
			return nil, fmt.Errorf("check game %s version: %w", gameID, err)
		}
		if current == game.Revision() {
			return game, nil
		}
		m.logger.Info("Reloading stale game", "gameId", gameID,
			"cached", game.Revision(), "stored", current, "dirty", game.IsDirty())
		m.remove(gameID)
	}
	return m.Get(ctx, gameID)
}

// Invalidate 丢弃内存副本，下次访问时从存储重新加载
func (m *GameManager) Invalidate(gameID string) {
	m.remove(gameID)
}

// Save 写回游戏状态
func (m *GameManager) Save(ctx context.Context, game *Game) error {
	state, version := game.Snapshot()
	if err := m.store.Save(ctx, state); err != nil {
		return fmt.Errorf("save game %s: %w", game.ID(), err)
	}
	game.MarkClean(version, state.Revision)
	return nil
}

// Remove 从内存和存储中删除游戏
func (m *GameManager) Remove(ctx context.Context, gameID string) error {
	m.remove(gameID)
	if err := m.store.Delete(ctx, gameID); err != nil && !errors.Is(err, ErrGameNotFound) {
		return fmt.Errorf("delete game %s: %w", gameID, err)
	}
	m.logger.Info("Removed game", "gameId", gameID)
	return nil
}

func (m *GameManager) remove(gameID string) {
	if _, loaded := m.games.LoadAndDelete(gameID); loaded {
		m.count.Add(-1)
	}
}

// Count 返回当前内存中的游戏数
func (m *GameManager) Count() int {
	return int(m.count.Load())
}

// evictLoop 淘汰循环
func (m *GameManager) evictLoop() {
	for {
		select {
		case <-m.evictTicker.C:
			m.evictInactive(context.Background())
		case <-m.stopChan:
			m.logger.Info("Evict loop stopped")
			return
		}
	}
}

// evictInactive 淘汰不活跃的游戏，脏游戏先写回
func (m *GameManager) evictInactive(ctx context.Context) {
	now := time.Now()
	toEvict := []*Game{}

	m.games.Range(func(key, value any) bool {
		game := value.(*Game)
		if now.Sub(game.LastActiveTime()) > m.evictTimeout {
			toEvict = append(toEvict, game)
		}
		return true
	})

	for _, game := range toEvict {
		if game.IsDirty() {
			m.logger.Info("Saving game before eviction", "gameId", game.ID())
			err := m.Save(ctx, game)
			if errors.Is(err, ErrVersionConflict) {
				// 存储里已有更新的版本，本地副本作废
				m.logger.Warn("Dropping stale game on eviction", "gameId", game.ID())
				m.remove(game.ID())
				continue
			}
			if err != nil {
				// 保存失败的游戏留在内存，等下一轮
				m.logger.Error("Failed to save game before eviction", "gameId", game.ID(), "error", err)
				continue
			}
		}
		m.remove(game.ID())
		m.logger.Info("Evicted inactive game", "gameId", game.ID())
	}
}

// Flush 写回所有脏游戏，返回第一个错误
func (m *GameManager) Flush(ctx context.Context) error {
	var firstErr error
	m.games.Range(func(key, value any) bool {
		game := value.(*Game)
		if !game.IsDirty() {
			return true
		}
		err := m.Save(ctx, game)
		if errors.Is(err, ErrVersionConflict) {
			m.logger.Warn("Dropping stale game on flush", "gameId", game.ID())
			m.remove(game.ID())
			return true
		}
		if err != nil {
			m.logger.Error("Failed to flush game", "gameId", game.ID(), "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
		return true
	})
	return firstErr
}

// Shutdown 关闭管理器
func (m *GameManager) Shutdown(ctx context.Context) error {
	m.logger.Info("Shutting down GameManager")

	m.stopOnce.Do(func() {
		m.closed.Store(true)
		// 发送停止信号给 evictLoop
		close(m.stopChan)
		m.evictTicker.Stop()
	})

	// 保存所有脏游戏
	err := m.Flush(ctx)

	m.logger.Info("GameManager shutdown complete")
	return err
}
