package switcher

import (
	"log/slog"
	"math/rand"
	"slices"
	"time"

	"sudooom.switcher/internal/game/switcher/core"
)

// Engine Switcher 规则引擎
//
// 非并发安全，同一局游戏的变更操作必须由调用方串行化。
// 所有操作先校验、后修改，校验失败时状态不变。
type Engine struct {
	state  *State
	rand   *rand.Rand
	logger *slog.Logger
}

// NewEngine 创建引擎，rng 为 nil 时使用基于时间的随机源
func NewEngine(state *State, rng *rand.Rand) *Engine {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	state.normalize()
	return &Engine{
		state:  state,
		rand:   rng,
		logger: slog.Default().With("component", "SwitcherEngine", "gameId", state.ID),
	}
}

// State 返回引擎持有的状态（非副本）
func (e *Engine) State() *State {
	return e.state
}

// CurrentPlayer 当前回合玩家
func (e *Engine) CurrentPlayer() PlayerID {
	return e.state.CurrentPlayer()
}

// EffectiveBoard 叠加当前玩家临时移动后的棋盘
func (e *Engine) EffectiveBoard() core.Grid {
	return e.state.EffectiveBoard()
}

// Figures 当前有效棋盘上的全部图形
func (e *Engine) Figures() []core.FigureMatch {
	if e.state.Status != StatusInGame {
		return nil
	}
	return core.FindAllFigures(e.state.EffectiveBoard(), e.state.ForbiddenColor)
}

// PartialMoveTiles 当前玩家临时移动涉及的格子
func (e *Engine) PartialMoveTiles() core.TileSet {
	if e.state.Status != StatusInGame {
		return nil
	}
	return e.state.PartialMoveTiles(e.state.CurrentPlayer())
}

func (e *Engine) touch() {
	e.state.UpdatedAt = time.Now()
}

// Join 玩家加入等待中的游戏
func (e *Engine) Join(player PlayerID, name string) error {
	s := e.state
	if _, ok := s.Players[player]; ok {
		return core.ErrAlreadyInGame.WithContext("playerId", int64(player))
	}
	switch s.Status {
	case StatusInGame, StatusFinished:
		return core.ErrGameAlreadyStarted
	case StatusFull:
		return core.ErrGameFull
	}
	if s.PlayerCount() >= s.Capacity {
		return core.ErrGameFull
	}

	s.addPlayer(player, name)
	if s.PlayerCount() == s.Capacity {
		s.Status = StatusFull
	}
	e.touch()

	e.logger.Info("Player joined", "playerId", player, "players", s.PlayerCount(), "capacity", s.Capacity)
	return nil
}

// Start 房主在满员后开始游戏
//
// 随机先手、每人 3 张移动卡、生成图形牌堆并补足手牌、生成随机棋盘。
func (e *Engine) Start(player PlayerID) error {
	s := e.state
	if _, err := s.Player(player); err != nil {
		return err
	}
	if player != s.HostID {
		return core.ErrNotHost
	}
	switch s.Status {
	case StatusInGame, StatusFinished:
		return core.ErrGameAlreadyStarted
	case StatusWaiting:
		return core.ErrNotEnoughPlayers.WithContext("players", s.PlayerCount()).WithContext("capacity", s.Capacity)
	}
	if s.PlayerCount() != s.Capacity {
		return core.ErrNotEnoughPlayers.WithContext("players", s.PlayerCount()).WithContext("capacity", s.Capacity)
	}

	s.Status = StatusInGame
	s.Turn = e.rand.Intn(s.PlayerCount())
	s.ForbiddenColor = core.ColorNone
	for _, pid := range s.Order {
		s.dealMovementCards(pid, e.rand)
	}
	s.buildFigureDecks(e.rand)
	for _, pid := range s.Order {
		s.dealFigureCards(pid, e.rand)
	}
	s.Board = core.NewRandomGrid(e.rand)
	e.touch()

	e.logger.Info("Game started", "players", s.PlayerCount(), "firstPlayer", s.CurrentPlayer())
	return nil
}

// requireTurn 游戏进行中且轮到该玩家
func (e *Engine) requireTurn(player PlayerID) error {
	if e.state.Status != StatusInGame {
		return core.ErrGameNotInProgress
	}
	if _, err := e.state.Player(player); err != nil {
		return err
	}
	if !e.state.IsTurnOf(player) {
		return core.ErrNotYourTurn.
			WithContext("playerId", int64(player)).
			WithContext("currentPlayer", int64(e.state.CurrentPlayer()))
	}
	return nil
}

// ApplyMove 用手中的移动卡做一次临时交换
func (e *Engine) ApplyMove(player PlayerID, cardID int64, from, to core.Coordinate) (*PartialMove, error) {
	if err := e.requireTurn(player); err != nil {
		return nil, err
	}
	card := e.state.MovementCards[cardID]
	if card == nil || card.Owner != player || !card.InHand {
		return nil, core.ErrMovementCardNotInHand.WithContext("cardId", cardID)
	}
	if err := core.ValidateMove(card.Type, from, to); err != nil {
		return nil, err
	}
	if len(e.state.PartialMoves(player)) >= MaxPartialMoves {
		return nil, core.ErrPartialMoveLimitReached
	}

	m := e.state.ApplyPartialMove(player, card, from, to)
	e.touch()

	e.logger.Debug("Partial move applied", "playerId", player, "type", card.Type, "from", from, "to", to)
	return m, nil
}

// UndoMove 撤销最近一次临时移动
func (e *Engine) UndoMove(player PlayerID) error {
	if err := e.requireTurn(player); err != nil {
		return err
	}
	n := len(e.state.PartialMoves(player))
	if n == 0 {
		return core.ErrNoPartialMoves
	}
	if !e.state.UndoLastPartialMove(player) {
		e.logger.Warn("Partial move ledger over limit", "playerId", player, "moves", n)
		return core.ErrPartialMoveLimitReached.WithContext("moves", n)
	}
	e.touch()

	e.logger.Debug("Partial move undone", "playerId", player, "remaining", n-1)
	return nil
}

// AdvanceTurn 轮到下一位玩家
func (s *State) AdvanceTurn() {
	if len(s.Order) == 0 {
		return
	}
	s.Turn = (s.Turn + 1) % len(s.Order)
}

// FinishTurn 结束回合
//
// 顺序：归还临时移动用掉的卡、补移动卡、补图形卡（被封锁则跳过）、换人、清除上一位玩家的临时移动。
func (e *Engine) FinishTurn(player PlayerID) error {
	if err := e.requireTurn(player); err != nil {
		return err
	}
	s := e.state

	s.ReturnPartialMoveCards(player)
	s.dealMovementCards(player, e.rand)
	s.dealFigureCards(player, e.rand)
	s.AdvanceTurn()
	s.UndoAllPartialMoves(player)
	e.touch()

	e.logger.Info("Turn finished", "playerId", player, "nextPlayer", s.CurrentPlayer())
	return nil
}

// Quit 玩家离开游戏
//
// 开局前房主不能离开；对局中离开会清掉该玩家的卡和移动，只剩一人时该玩家获胜。
func (e *Engine) Quit(player PlayerID) (*Player, error) {
	s := e.state
	p, err := s.Player(player)
	if err != nil {
		return nil, err
	}
	if s.Status == StatusFinished {
		return nil, core.ErrGameNotInProgress
	}
	if player == s.HostID && s.Status != StatusInGame {
		return nil, core.ErrHostCannotLeave
	}

	idx := s.PlayerIndex(player)
	s.clearCards(player)
	delete(s.Players, player)
	s.Order = slices.Delete(s.Order, idx, idx+1)
	e.touch()

	if s.Status != StatusInGame {
		if s.Status == StatusFull {
			s.Status = StatusWaiting
		}
		e.logger.Info("Player left", "playerId", player, "players", s.PlayerCount())
		return p, nil
	}

	// 离开者在当前玩家之前时索引前移；离开者正是当前玩家时由其下一位接手
	if idx < s.Turn {
		s.Turn--
	}
	if s.Turn >= len(s.Order) {
		s.Turn = 0
	}

	e.logger.Info("Player quit game in progress", "playerId", player, "players", s.PlayerCount())
	if s.PlayerCount() == 1 {
		e.finish(s.Order[0])
	}
	return p, nil
}

// finish 结束游戏并记录胜者
func (e *Engine) finish(winner PlayerID) {
	s := e.state
	s.Status = StatusFinished
	s.Winner = winner
	for _, pid := range s.Order {
		s.Players[pid].Blocked = false
	}
	e.logger.Info("Game won", "winner", winner)
}
