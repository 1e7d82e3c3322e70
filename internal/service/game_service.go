package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"sudooom.switcher/internal/game"
	"sudooom.switcher/internal/game/switcher"
	"sudooom.switcher/internal/game/switcher/core"
	"sudooom.switcher/pkg/proto"
)

// Locker 单局游戏的分布式锁
type Locker interface {
	Lock(ctx context.Context, gameID string) (release func(), err error)
}

// Publisher 游戏事件发布
type Publisher interface {
	Publish(ctx context.Context, gameID, eventType string, payload any) error
}

// ViewStore 公开视图缓存
type ViewStore interface {
	Set(ctx context.Context, view *proto.GameView) error
	Get(ctx context.Context, gameID string) (*proto.GameView, error)
}

// ActionRecorder 操作日志
type ActionRecorder interface {
	Record(action *Action)
}

// IDGenerator 生成新游戏ID
type IDGenerator func() string

// maxSaveAttempts 落库遇到版本冲突时的最多尝试次数
const maxSaveAttempts = 2

// GameService 游戏服务
// 每条命令：加锁 → 取最新游戏 → 引擎操作 → 条件落库 → 刷新视图 → 广播事件
type GameService struct {
	games     *game.GameManager
	locker    Locker
	publisher Publisher
	views     ViewStore
	actions   ActionRecorder
	newID     IDGenerator
	logger    *slog.Logger
}

// NewGameService 创建游戏服务
func NewGameService(
	games *game.GameManager,
	locker Locker,
	publisher Publisher,
	views ViewStore,
	actions ActionRecorder,
	newID IDGenerator,
) *GameService {
	return &GameService{
		games:     games,
		locker:    locker,
		publisher: publisher,
		views:     views,
		actions:   actions,
		newID:     newID,
		logger:    slog.Default(),
	}
}

// event 一条待广播的事件
type event struct {
	Type    string
	Payload any
}

// execute 在游戏锁内执行引擎操作并写回
func (s *GameService) execute(ctx context.Context, gameID string, op func(e *switcher.Engine) error) (*game.Game, error) {
	release, err := s.locker.Lock(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("lock game %s: %w", gameID, err)
	}
	defer release()

	for attempt := 1; ; attempt++ {
		g, err := s.games.Sync(ctx, gameID)
		if err != nil {
			return nil, err
		}
		if err := g.Do(op); err != nil {
			return nil, err
		}
		err = s.games.Save(ctx, g)
		if errors.Is(err, game.ErrVersionConflict) && attempt < maxSaveAttempts {
			// 其他实例在锁外写回了旧副本，丢弃本地结果后在最新状态上重做
			s.logger.Warn("Game changed concurrently, retrying", "gameId", gameID, "attempt", attempt)
			s.games.Invalidate(gameID)
			continue
		}
		if errors.Is(err, game.ErrVersionConflict) {
			s.games.Invalidate(gameID)
			return nil, err
		}
		if err != nil {
			// 内存中的状态已变更且仍为脏，由淘汰或关闭时的写回兜底
			s.logger.Error("Failed to persist game", "gameId", gameID, "error", err)
			return nil, err
		}
		return g, nil
	}
}

// afterCommit 刷新缓存视图、记录操作、广播事件；失败只记日志
func (s *GameService) afterCommit(ctx context.Context, g *game.Game, playerID switcher.PlayerID, action string, payload any, events ...event) *proto.GameView {
	state, _ := g.Snapshot()
	view := BuildGameView(state)

	if err := s.views.Set(ctx, view); err != nil {
		s.logger.Warn("Failed to cache game view", "gameId", state.ID, "error", err)
	}

	s.actions.Record(&Action{
		GameID:   state.ID,
		PlayerID: int64(playerID),
		Type:     action,
		Payload:  payload,
	})

	for _, ev := range events {
		p := ev.Payload
		if p == nil && ev.Type == proto.EventGame {
			p = view
		}
		if err := s.publisher.Publish(ctx, state.ID, ev.Type, p); err != nil {
			s.logger.Warn("Failed to publish event", "gameId", state.ID, "event", ev.Type, "error", err)
		}
	}
	return view
}

// boardEvents 棋盘相关的一组事件：有效棋盘、图形、临时交换格子
func boardEvents(g *game.Game) []event {
	var events []event
	g.Read(func(e *switcher.Engine) {
		events = []event{
			{Type: proto.EventBoard, Payload: BuildBoardView(e.EffectiveBoard())},
			{Type: proto.EventFigures, Payload: BuildFiguresView(e.Figures())},
			{Type: proto.EventPartialMoves, Payload: BuildPartialMovesView(e.PartialMoveTiles())},
		}
	})
	return events
}

func notice(s *switcher.State, id switcher.PlayerID) proto.PlayerNotice {
	n := proto.PlayerNotice{PlayerId: int64(id)}
	if p, ok := s.Players[id]; ok {
		n.PlayerName = p.Name
	}
	return n
}

// Create 创建游戏，创建者成为房主
func (s *GameService) Create(ctx context.Context, playerID switcher.PlayerID, playerName, name string, capacity int) (*proto.GameView, error) {
	if name == "" {
		return nil, ErrInvalidRequest
	}
	state, err := switcher.NewState(s.newID(), name, capacity, playerID, playerName)
	if err != nil {
		return nil, err
	}
	g, err := s.games.Create(ctx, state)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Game created", "gameId", state.ID, "playerId", playerID, "capacity", capacity)
	return s.afterCommit(ctx, g, playerID, proto.CmdCreate, proto.CreateGame{Name: name, PlayerAmount: capacity}), nil
}

// Join 加入游戏
func (s *GameService) Join(ctx context.Context, gameID string, playerID switcher.PlayerID, playerName string) (*proto.GameView, error) {
	g, err := s.execute(ctx, gameID, func(e *switcher.Engine) error {
		return e.Join(playerID, playerName)
	})
	if err != nil {
		return nil, err
	}
	n := proto.PlayerNotice{PlayerId: int64(playerID), PlayerName: playerName}
	return s.afterCommit(ctx, g, playerID, proto.CmdJoin, n,
		event{Type: proto.EventPlayerConnected, Payload: n},
		event{Type: proto.EventGame},
	), nil
}

// Start 开始游戏
func (s *GameService) Start(ctx context.Context, gameID string, playerID switcher.PlayerID) (*proto.GameView, error) {
	var first proto.PlayerNotice
	g, err := s.execute(ctx, gameID, func(e *switcher.Engine) error {
		if err := e.Start(playerID); err != nil {
			return err
		}
		first = notice(e.State(), e.CurrentPlayer())
		return nil
	})
	if err != nil {
		return nil, err
	}
	events := append([]event{{Type: proto.EventGameStarted, Payload: first}}, boardEvents(g)...)
	events = append(events, event{Type: proto.EventGame})
	return s.afterCommit(ctx, g, playerID, proto.CmdStart, first, events...), nil
}

// AddMove 用移动卡做一次临时交换
func (s *GameService) AddMove(ctx context.Context, gameID string, playerID switcher.PlayerID, cardID int64, from, to core.Coordinate) (*proto.GameView, error) {
	var move *switcher.PartialMove
	g, err := s.execute(ctx, gameID, func(e *switcher.Engine) error {
		var err error
		move, err = e.ApplyMove(playerID, cardID, from, to)
		return err
	})
	if err != nil {
		return nil, err
	}
	events := append(boardEvents(g), event{Type: proto.EventGame})
	return s.afterCommit(ctx, g, playerID, proto.CmdMoveAdd, move, events...), nil
}

// UndoMove 撤销最近一次临时交换
func (s *GameService) UndoMove(ctx context.Context, gameID string, playerID switcher.PlayerID) (*proto.GameView, error) {
	g, err := s.execute(ctx, gameID, func(e *switcher.Engine) error {
		return e.UndoMove(playerID)
	})
	if err != nil {
		return nil, err
	}
	events := append(boardEvents(g), event{Type: proto.EventGame})
	return s.afterCommit(ctx, g, playerID, proto.CmdMoveUndo, nil, events...), nil
}

// FinishTurn 结束回合
func (s *GameService) FinishTurn(ctx context.Context, gameID string, playerID switcher.PlayerID) (*proto.GameView, error) {
	var next proto.PlayerNotice
	g, err := s.execute(ctx, gameID, func(e *switcher.Engine) error {
		if err := e.FinishTurn(playerID); err != nil {
			return err
		}
		next = notice(e.State(), e.CurrentPlayer())
		return nil
	})
	if err != nil {
		return nil, err
	}
	events := append(boardEvents(g),
		event{Type: proto.EventGame},
		event{Type: proto.EventFinishTurn, Payload: next},
	)
	return s.afterCommit(ctx, g, playerID, proto.CmdTurnFinish, next, events...), nil
}

// DiscardFigure 打出图形卡
func (s *GameService) DiscardFigure(ctx context.Context, gameID string, playerID switcher.PlayerID, figure core.FigureType, tile core.Coordinate) (*proto.GameView, error) {
	var (
		claim  *switcher.Claim
		winner proto.PlayerNotice
	)
	g, err := s.execute(ctx, gameID, func(e *switcher.Engine) error {
		var err error
		claim, err = e.DiscardFigure(playerID, figure, tile)
		if err == nil && claim.Won {
			winner = notice(e.State(), playerID)
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	events := append(boardEvents(g), event{Type: proto.EventGame})
	if claim.Won {
		events = append(events, event{Type: proto.EventGameWon, Payload: winner})
	}
	return s.afterCommit(ctx, g, playerID, proto.CmdFigureDiscard, claim, events...), nil
}

// BlockFigure 封锁其他玩家的图形卡
func (s *GameService) BlockFigure(ctx context.Context, gameID string, playerID, target switcher.PlayerID, figure core.FigureType, tile core.Coordinate) (*proto.GameView, error) {
	var claim *switcher.Claim
	g, err := s.execute(ctx, gameID, func(e *switcher.Engine) error {
		var err error
		claim, err = e.BlockFigure(playerID, target, figure, tile)
		return err
	})
	if err != nil {
		return nil, err
	}
	events := append(boardEvents(g), event{Type: proto.EventGame})
	return s.afterCommit(ctx, g, playerID, proto.CmdFigureBlock, claim, events...), nil
}

// Quit 离开游戏
func (s *GameService) Quit(ctx context.Context, gameID string, playerID switcher.PlayerID) (*proto.GameView, error) {
	var (
		left     proto.PlayerNotice
		finished bool
		winner   proto.PlayerNotice
	)
	g, err := s.execute(ctx, gameID, func(e *switcher.Engine) error {
		p, err := e.Quit(playerID)
		if err != nil {
			return err
		}
		left = proto.PlayerNotice{PlayerId: int64(p.ID), PlayerName: p.Name}
		if st := e.State(); st.Status == switcher.StatusFinished && st.Winner != 0 {
			finished = true
			winner = notice(st, st.Winner)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	events := []event{{Type: proto.EventPlayerDisconnected, Payload: left}}
	if finished {
		events = append(events, event{Type: proto.EventGameWon, Payload: winner})
	} else {
		events = append(events, boardEvents(g)...)
	}
	events = append(events, event{Type: proto.EventGame})
	return s.afterCommit(ctx, g, playerID, proto.CmdQuit, left, events...), nil
}

// View 游戏公开视图，优先读缓存
func (s *GameService) View(ctx context.Context, gameID string) (*proto.GameView, error) {
	view, err := s.views.Get(ctx, gameID)
	if err == nil {
		return view, nil
	}

	g, err := s.games.Sync(ctx, gameID)
	if err != nil {
		return nil, err
	}
	state, _ := g.Snapshot()
	view = BuildGameView(state)
	if err := s.views.Set(ctx, view); err != nil {
		s.logger.Warn("Failed to cache game view", "gameId", gameID, "error", err)
	}
	return view, nil
}

// Board 当前有效棋盘
func (s *GameService) Board(ctx context.Context, gameID string) (*proto.BoardView, error) {
	g, err := s.games.Sync(ctx, gameID)
	if err != nil {
		return nil, err
	}
	var view *proto.BoardView
	g.Read(func(e *switcher.Engine) {
		if e.State().Status == switcher.StatusWaiting || e.State().Status == switcher.StatusFull {
			return
		}
		view = BuildBoardView(e.EffectiveBoard())
	})
	if view == nil {
		return nil, core.ErrGameNotInProgress
	}
	return view, nil
}

// Figures 当前有效棋盘上形成的图形
func (s *GameService) Figures(ctx context.Context, gameID string) ([]proto.FigureView, error) {
	g, err := s.games.Sync(ctx, gameID)
	if err != nil {
		return nil, err
	}
	var figures []proto.FigureView
	g.Read(func(e *switcher.Engine) {
		figures = BuildFiguresView(e.Figures())
	})
	return figures, nil
}
