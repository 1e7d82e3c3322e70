package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"sudooom.switcher/internal/snowflake"
)

// ActionLogConfig 批量写入配置
type ActionLogConfig struct {
	BatchSize     int           // 批量大小阈值
	FlushInterval time.Duration // 强制刷新间隔
}

// Action 一条玩家操作记录，对应游戏内的操作日志
type Action struct {
	ID        int64
	GameID    string
	PlayerID  int64
	Type      string
	Payload   any
	CreatedAt time.Time
}

// BatchSender pgxpool.Pool 的批量接口
type BatchSender interface {
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// ActionLog 操作日志批量写入器
type ActionLog struct {
	db         BatchSender
	sf         *snowflake.Node
	config     ActionLogConfig
	actionChan chan *Action
	logger     *slog.Logger
	wg         sync.WaitGroup
	stopChan   chan struct{}
	stopOnce   sync.Once
}

// NewActionLog 创建操作日志写入器
func NewActionLog(db BatchSender, sf *snowflake.Node, config ActionLogConfig) *ActionLog {
	// 设置默认值
	if config.BatchSize <= 0 {
		config.BatchSize = 100
	}
	if config.FlushInterval <= 0 {
		config.FlushInterval = 2 * time.Second
	}

	return &ActionLog{
		db:         db,
		sf:         sf,
		config:     config,
		actionChan: make(chan *Action, config.BatchSize*10),
		logger:     slog.Default().With("component", "ActionLog"),
		stopChan:   make(chan struct{}),
	}
}

// Start 启动批量写入器
func (l *ActionLog) Start(ctx context.Context) {
	l.wg.Add(1)
	go l.worker(ctx)
	l.logger.Info("ActionLog started",
		"batchSize", l.config.BatchSize,
		"flushInterval", l.config.FlushInterval,
	)
}

// Stop 停止并刷入剩余记录
func (l *ActionLog) Stop() {
	l.stopOnce.Do(func() {
		close(l.stopChan)
		l.wg.Wait()
		l.logger.Info("ActionLog stopped")
	})
}

// Record 异步记录一条操作，不等待落库
func (l *ActionLog) Record(action *Action) {
	action.ID = l.sf.Generate().Int64()
	if action.CreatedAt.IsZero() {
		action.CreatedAt = time.Now()
	}

	select {
	case l.actionChan <- action:
	default:
		// 队列满，记录警告，同步等待
		l.logger.Warn("Action queue full, waiting...")
		select {
		case l.actionChan <- action:
		case <-l.stopChan:
			l.logger.Warn("ActionLog stopped, dropping action", "gameId", action.GameID, "type", action.Type)
		}
	}
}

// worker 后台工作协程
func (l *ActionLog) worker(ctx context.Context) {
	defer l.wg.Done()

	batch := make([]*Action, 0, l.config.BatchSize)
	ticker := time.NewTicker(l.config.FlushInterval)
	defer ticker.Stop()

	drain := func() {
		for {
			select {
			case a := <-l.actionChan:
				batch = append(batch, a)
			default:
				return
			}
		}
	}

	for {
		select {
		case <-ctx.Done():
			drain()
			l.flush(context.Background(), batch)
			return
		case <-l.stopChan:
			drain()
			l.flush(context.Background(), batch)
			return
		case a := <-l.actionChan:
			batch = append(batch, a)
			// 达到批量大小阈值，立即刷入
			if len(batch) >= l.config.BatchSize {
				l.flush(ctx, batch)
				batch = make([]*Action, 0, l.config.BatchSize)
			}
		case <-ticker.C:
			if len(batch) > 0 {
				l.flush(ctx, batch)
				batch = make([]*Action, 0, l.config.BatchSize)
			}
		}
	}
}

// flush 批量写入数据库
func (l *ActionLog) flush(ctx context.Context, batch []*Action) {
	if len(batch) == 0 {
		return
	}

	startTime := time.Now()

	pgBatch := &pgx.Batch{}
	query := `
		INSERT INTO switcher_game_actions (id, game_id, player_id, action, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	queued := make([]*Action, 0, len(batch))
	for _, a := range batch {
		payload, err := json.Marshal(a.Payload)
		if err != nil {
			l.logger.Error("Failed to marshal action payload", "actionId", a.ID, "error", err)
			continue
		}
		pgBatch.Queue(query, a.ID, a.GameID, a.PlayerID, a.Type, payload, a.CreatedAt)
		queued = append(queued, a)
	}
	if len(queued) == 0 {
		return
	}

	br := l.db.SendBatch(ctx, pgBatch)
	defer func() {
		if err := br.Close(); err != nil {
			l.logger.Error("Failed to close batch results", "error", err)
		}
	}()

	failed := 0
	for _, a := range queued {
		if _, err := br.Exec(); err != nil {
			failed++
			l.logger.Error("Failed to save action in batch",
				"actionId", a.ID,
				"gameId", a.GameID,
				"error", err,
			)
		}
	}

	elapsed := time.Since(startTime)
	if failed > 0 {
		l.logger.Error("Batch flush completed with errors",
			"count", len(queued),
			"failed", failed,
			"elapsed", elapsed,
		)
	} else {
		l.logger.Debug("Batch flush completed",
			"count", len(queued),
			"elapsed", elapsed,
		)
	}
}

// GetQueueSize 获取当前队列大小（用于监控）
func (l *ActionLog) GetQueueSize() int {
	return len(l.actionChan)
}
