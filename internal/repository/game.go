package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"sudooom.switcher/internal/game"
	"sudooom.switcher/internal/game/switcher"
)

// DB pgxpool.Pool 中用到的方法
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

var _ DB = (*pgxpool.Pool)(nil)

// GameRepository 游戏仓库
// 整局状态以 JSONB 存放，常用字段冗余成列便于查询
type GameRepository struct {
	db DB
}

// NewGameRepository 创建游戏仓库
func NewGameRepository(db DB) *GameRepository {
	return &GameRepository{db: db}
}

var _ game.Store = (*GameRepository)(nil)

// gameRow switcher_games 表的一行
type gameRow struct {
	ID          string
	Name        string
	Status      string
	HostID      int64
	PlayerCount int
	Winner      *int64
	State       []byte
}

func encodeState(state *switcher.State) (*gameRow, error) {
	data, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("marshal game state: %w", err)
	}
	row := &gameRow{
		ID:          state.ID,
		Name:        state.Name,
		Status:      string(state.Status),
		HostID:      int64(state.HostID),
		PlayerCount: state.PlayerCount(),
		State:       data,
	}
	if state.Winner != 0 {
		w := int64(state.Winner)
		row.Winner = &w
	}
	return row, nil
}

func decodeState(data []byte) (*switcher.State, error) {
	var state switcher.State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("unmarshal game state: %w", err)
	}
	return &state, nil
}

// uniqueViolation PostgreSQL 唯一约束冲突的 SQLSTATE
const uniqueViolation = "23505"

// Load 根据 ID 加载游戏状态，Revision 取自 version 列
func (r *GameRepository) Load(ctx context.Context, gameID string) (*switcher.State, error) {
	query := `SELECT state, version FROM switcher_games WHERE id = $1`

	var (
		data    []byte
		version int64
	)
	err := r.db.QueryRow(ctx, query, gameID).Scan(&data, &version)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, game.ErrGameNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load game %s: %w", gameID, err)
	}

	state, err := decodeState(data)
	if err != nil {
		return nil, err
	}
	state.Revision = version
	return state, nil
}

// Version 查询存储中的当前版本
func (r *GameRepository) Version(ctx context.Context, gameID string) (int64, error) {
	var version int64
	err := r.db.QueryRow(ctx, `SELECT version FROM switcher_games WHERE id = $1`, gameID).Scan(&version)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, game.ErrGameNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("query game %s version: %w", gameID, err)
	}
	return version, nil
}

// Save 插入或更新游戏状态
//
// Revision 为 0 时插入版本 1；否则只在库中版本仍等于 Revision 时更新并加一，
// 两种情况下被抢先都返回 game.ErrVersionConflict。
func (r *GameRepository) Save(ctx context.Context, state *switcher.State) error {
	row, err := encodeState(state)
	if err != nil {
		return err
	}

	if state.Revision == 0 {
		_, err = r.db.Exec(ctx, `
			INSERT INTO switcher_games (id, name, status, host_id, player_count, winner_id, state, version, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, 1, $8, $9)
		`, row.ID, row.Name, row.Status, row.HostID, row.PlayerCount, row.Winner, row.State, state.CreatedAt, state.UpdatedAt)
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return game.ErrVersionConflict
		}
		if err != nil {
			return fmt.Errorf("insert game %s: %w", row.ID, err)
		}
		state.Revision = 1
		return nil
	}

	tag, err := r.db.Exec(ctx, `
		UPDATE switcher_games
		SET name = $2, status = $3, host_id = $4, player_count = $5, winner_id = $6, state = $7, version = version + 1, updated_at = $8
		WHERE id = $1 AND version = $9
	`, row.ID, row.Name, row.Status, row.HostID, row.PlayerCount, row.Winner, row.State, state.UpdatedAt, state.Revision)
	if err != nil {
		return fmt.Errorf("update game %s: %w", row.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return game.ErrVersionConflict
	}
	state.Revision++
	return nil
}

// Delete 删除游戏
func (r *GameRepository) Delete(ctx context.Context, gameID string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM switcher_games WHERE id = $1`, gameID)
	if err != nil {
		return fmt.Errorf("delete game %s: %w", gameID, err)
	}
	if tag.RowsAffected() == 0 {
		return game.ErrGameNotFound
	}
	return nil
}
