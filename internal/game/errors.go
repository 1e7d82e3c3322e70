package game

import "errors"

// 游戏管理相关错误定义

var (
	// ErrGameNotFound 游戏不存在
	ErrGameNotFound = errors.New("game not found")

	// ErrGameExists 游戏已存在
	ErrGameExists = errors.New("game already exists")

	// ErrTooManyGames 内存中的游戏数已达上限
	ErrTooManyGames = errors.New("too many active games")

	// ErrVersionConflict 存储中的版本已被其他实例推进
	ErrVersionConflict = errors.New("game version conflict")

	// ErrManagerClosed 管理器已关闭
	ErrManagerClosed = errors.New("game manager closed")
)
