package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"sudooom.switcher/internal/config"
	"sudooom.switcher/internal/game"
	"sudooom.switcher/internal/handler"
	"sudooom.switcher/internal/health"
	switcherNats "sudooom.switcher/internal/nats"
	switcherRedis "sudooom.switcher/internal/redis"
	"sudooom.switcher/internal/repository"
	"sudooom.switcher/internal/router"
	"sudooom.switcher/internal/service"
	"sudooom.switcher/internal/snowflake"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to config file")
	flag.Parse()

	// 加载配置
	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	// 初始化日志
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(cfg.App.LogLevel),
	}))
	slog.SetDefault(logger)

	// 创建上下文
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 连接 NATS
	natsClient, err := switcherNats.NewClient(cfg.NATS, cfg.App.Name)
	if err != nil {
		logger.Error("Failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer natsClient.Close()
	logger.Info("Connected to NATS", "url", cfg.NATS.URL)

	// 连接 Redis
	redisClient := connectRedis(cfg.Redis)
	defer redisClient.Close()
	logger.Info("Connected to Redis", "addr", cfg.Redis.Addr())

	// 连接数据库
	db, err := connectDatabase(ctx, cfg.Database)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	logger.Info("Connected to PostgreSQL", "host", cfg.Database.Host)

	node, err := snowflake.NewNode(cfg.App.NodeID)
	if err != nil {
		logger.Error("Failed to create snowflake node", "error", err)
		os.Exit(1)
	}

	// 初始化游戏管理器和服务
	gameManager := game.NewGameManager(
		repository.NewGameRepository(db),
		cfg.Game.MaxGames,
		cfg.Game.EvictTimeout,
		cfg.Game.EvictInterval,
	)

	actionLog := service.NewActionLog(db, node, service.ActionLogConfig{})
	actionLog.Start(ctx)

	gameService := service.NewGameService(
		gameManager,
		switcherRedis.NewGameLocker(redisClient, cfg.Game.LockTTL, cfg.Game.LockWait),
		switcherNats.NewEventPublisher(natsClient.Conn()),
		switcherRedis.NewViewCache(redisClient, cfg.Game.ViewTTL),
		actionLog,
		func() string { return node.Generate().Base36() },
	)

	// 启动命令订阅
	subscriber := switcherNats.NewCommandSubscriber(natsClient.Conn(), handler.NewGameHandler(gameService), switcherNats.SubscriberConfig{
		WorkerCount:    cfg.Subscriber.WorkerCount,
		BufferSize:     cfg.Subscriber.BufferSize,
		CommandTimeout: cfg.Game.CommandTimeout,
	})
	if err := subscriber.Start(ctx); err != nil {
		logger.Error("Failed to start subscriber", "error", err)
		os.Exit(1)
	}

	// 启动 HTTP 服务：健康检查和只读查询
	checker := health.NewChecker(natsClient, redisClient, db, gameManager.Count)
	server := &http.Server{
		Addr:    cfg.HTTP.Addr,
		Handler: router.SetupRouter(cfg.HTTP.Mode, checker, handler.NewQueryHandler(gameService)),
	}
	go func() {
		logger.Info("HTTP server started", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server failed", "error", err)
		}
	}()

	logger.Info("Switcher service started", "name", cfg.App.Name, "nodeId", cfg.App.NodeID)

	// 优雅退出
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Failed to shutdown HTTP server", "error", err)
	}
	// 先停止接收命令，再写回内存中的游戏
	if err := subscriber.Stop(); err != nil {
		logger.Error("Failed to stop subscriber", "error", err)
	}
	if err := gameManager.Shutdown(shutdownCtx); err != nil {
		logger.Error("Failed to flush games", "error", err)
	}
	actionLog.Stop()
	if err := natsClient.Drain(); err != nil {
		logger.Error("Failed to drain NATS", "error", err)
	}
	cancel()

	logger.Info("Switcher service stopped")
}

// parseLevel 解析日志级别，未知值按 info 处理
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// connectRedis 连接 Redis
func connectRedis(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

// connectDatabase 连接 PostgreSQL
func connectDatabase(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, err
	}

	poolConfig.MaxConns = int32(cfg.MaxOpenConns)
	poolConfig.MinConns = int32(cfg.MaxIdleConns)
	poolConfig.MaxConnLifetime = cfg.ConnMaxLifetime
	poolConfig.MaxConnIdleTime = 10 * time.Minute

	return pgxpool.NewWithConfig(ctx, poolConfig)
}
