package core

import (
	"errors"
	"fmt"
	"maps"
)

// GameError 游戏错误类型
type GameError struct {
	Code    string         // 错误代码
	Message string         // 错误消息
	Cause   error          // 原因错误
	Context map[string]any // 错误上下文
}

func (e *GameError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *GameError) Unwrap() error {
	return e.Cause
}

// Is 按错误代码匹配，使 errors.Is 对 WithCause/WithContext 的副本同样生效
func (e *GameError) Is(target error) bool {
	var t *GameError
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

// NewGameError 创建游戏错误
func NewGameError(code, message string) *GameError {
	return &GameError{
		Code:    code,
		Message: message,
	}
}

func (e *GameError) clone() *GameError {
	c := *e
	c.Context = maps.Clone(e.Context)
	return &c
}

// WithCause 返回附带原因错误的副本
func (e *GameError) WithCause(cause error) *GameError {
	c := e.clone()
	c.Cause = cause
	return c
}

// WithContext 返回附带上下文信息的副本
func (e *GameError) WithContext(key string, value any) *GameError {
	c := e.clone()
	if c.Context == nil {
		c.Context = make(map[string]any)
	}
	c.Context[key] = value
	return c
}

// 移动相关错误
var (
	ErrInvalidMovement         = NewGameError("INVALID_MOVE", "无效的移动")
	ErrUnknownMovementType     = NewGameError("UNKNOWN_MOVEMENT_TYPE", "未知的移动类型")
	ErrMovementCardNotInHand   = NewGameError("MOVEMENT_CARD_NOT_IN_HAND", "手中没有该移动卡")
	ErrNoPartialMoves          = NewGameError("NO_PARTIAL_MOVES", "没有可撤销的临时移动")
	ErrPartialMoveLimitReached = NewGameError("PARTIAL_MOVE_LIMIT", "临时移动数量超出上限")
)

// 回合与状态相关错误
var (
	ErrNotYourTurn        = NewGameError("NOT_YOUR_TURN", "还没轮到你")
	ErrGameNotInProgress  = NewGameError("GAME_NOT_IN_PROGRESS", "游戏未在进行中")
	ErrGameAlreadyStarted = NewGameError("GAME_ALREADY_STARTED", "游戏已经开始")
	ErrGameFull           = NewGameError("GAME_FULL", "游戏人数已满")
	ErrNotEnoughPlayers   = NewGameError("NOT_ENOUGH_PLAYERS", "玩家数量不足")
	ErrInvalidCapacity    = NewGameError("INVALID_CAPACITY", "玩家人数必须在 2 到 4 之间")
	ErrNotHost            = NewGameError("NOT_HOST", "只有房主可以执行该操作")
	ErrHostCannotLeave    = NewGameError("HOST_CANNOT_LEAVE", "房主在游戏开始前不能离开")
	ErrPlayerNotFound     = NewGameError("PLAYER_NOT_FOUND", "玩家不在游戏中")
	ErrAlreadyInGame      = NewGameError("ALREADY_IN_GAME", "玩家已在游戏中")
)

// 图形卡相关错误
var (
	ErrUnknownFigureType       = NewGameError("UNKNOWN_FIGURE_TYPE", "未知的图形类型")
	ErrCardNotInHand           = NewGameError("CARD_NOT_IN_HAND", "图形卡不在玩家手中")
	ErrFigureNotOnBoard        = NewGameError("FIGURE_NOT_ON_BOARD", "棋盘上没有形成该图形")
	ErrForbiddenColor          = NewGameError("FORBIDDEN_COLOR", "图形颜色不能是禁用色")
	ErrBlockedCardLocked       = NewGameError("BLOCKED_CARD_LOCKED", "被封锁的卡只能在最后一张时打出")
	ErrInconsistentBlockedCard = NewGameError("INCONSISTENT_BLOCKED_CARD", "未被封锁的玩家持有被封锁的卡")
)

// 封锁相关错误
var (
	ErrPlayerAlreadyBlocked   = NewGameError("PLAYER_ALREADY_BLOCKED", "该玩家已被封锁")
	ErrCannotBlockWithOneCard = NewGameError("CANNOT_BLOCK_WITH_ONE_CARD", "该玩家手中图形卡不足两张，不能封锁")
	ErrCannotBlockSelf        = NewGameError("CANNOT_BLOCK_SELF", "不能封锁自己")
)
