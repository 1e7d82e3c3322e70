package game

import (
	"math/rand"
	"sync"
	"time"

	"sudooom.switcher/internal/game/switcher"
)

// Game 游戏对象
// 一局 Switcher 的内存副本，所有变更经 mu 串行化
type Game struct {
	mu sync.RWMutex

	id         string
	engine     *switcher.Engine
	lastActive time.Time
	dirty      bool
	version    uint64 // 每次成功变更加一，用于判断保存期间是否又有修改
}

// NewGame 用已有状态创建游戏
func NewGame(state *switcher.State, rng *rand.Rand) *Game {
	return &Game{
		id:         state.ID,
		engine:     switcher.NewEngine(state, rng),
		lastActive: time.Now(),
	}
}

// ID 游戏ID
func (g *Game) ID() string {
	return g.id
}

// Do 在写锁内执行变更，成功后标记为脏
//
// 引擎校验失败时不修改状态，因此出错不标脏。
func (g *Game) Do(fn func(e *switcher.Engine) error) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.lastActive = time.Now()
	if err := fn(g.engine); err != nil {
		return err
	}
	g.dirty = true
	g.version++
	return nil
}

// Read 在读锁内访问引擎，fn 不得修改状态
func (g *Game) Read(fn func(e *switcher.Engine)) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	fn(g.engine)
}

// Snapshot 返回状态副本和对应版本
func (g *Game) Snapshot() (*switcher.State, uint64) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.engine.State().Clone(), g.version
}

// IsDirty 是否有未保存的修改
func (g *Game) IsDirty() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.dirty
}

// Revision 内存副本所基于的存储版本
func (g *Game) Revision() int64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.engine.State().Revision
}

// MarkClean 标记为已保存并记录新的存储版本；保存后又有新修改时保持为脏
func (g *Game) MarkClean(version uint64, revision int64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.engine.State().Revision = revision
	if g.version == version {
		g.dirty = false
	}
}

// LastActiveTime 获取最后活跃时间
func (g *Game) LastActiveTime() time.Time {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.lastActive
}
