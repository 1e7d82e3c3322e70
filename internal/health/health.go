package health

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const (
	statusConnected    = "connected"
	statusDisconnected = "disconnected"
)

// NATSConn *nats.Conn 的连接状态
type NATSConn interface {
	IsConnected() bool
}

// RedisPinger *redis.Client 的 Ping
type RedisPinger interface {
	Ping(ctx context.Context) *redis.StatusCmd
}

// DBPinger *pgxpool.Pool 的 Ping
type DBPinger interface {
	Ping(ctx context.Context) error
}

// Status 健康状态
type Status struct {
	NATS        string `json:"nats"`
	Redis       string `json:"redis"`
	Database    string `json:"database"`
	ActiveGames int    `json:"active_games"`
}

// Healthy 所有依赖都已连接
func (s *Status) Healthy() bool {
	return s.NATS == statusConnected &&
		s.Redis == statusConnected &&
		s.Database == statusConnected
}

// Checker 健康检查器
type Checker struct {
	nc          NATSConn
	redisClient RedisPinger
	db          DBPinger
	activeGames func() int
	timeout     time.Duration
}

// NewChecker 创建健康检查器，activeGames 可为 nil
func NewChecker(nc NATSConn, redisClient RedisPinger, db DBPinger, activeGames func() int) *Checker {
	return &Checker{
		nc:          nc,
		redisClient: redisClient,
		db:          db,
		activeGames: activeGames,
		timeout:     2 * time.Second,
	}
}

func connected(ok bool) string {
	if ok {
		return statusConnected
	}
	return statusDisconnected
}

// Check 执行健康检查
func (h *Checker) Check(ctx context.Context) *Status {
	status := &Status{}

	// 检查 NATS
	status.NATS = connected(h.nc.IsConnected())

	// 检查 Redis
	redisCtx, redisCancel := context.WithTimeout(ctx, h.timeout)
	defer redisCancel()
	status.Redis = connected(h.redisClient.Ping(redisCtx).Err() == nil)

	// 检查 PostgreSQL
	dbCtx, dbCancel := context.WithTimeout(ctx, h.timeout)
	defer dbCancel()
	status.Database = connected(h.db.Ping(dbCtx) == nil)

	if h.activeGames != nil {
		status.ActiveGames = h.activeGames()
	}
	return status
}

// IsHealthy 检查是否健康
func (h *Checker) IsHealthy(ctx context.Context) bool {
	return h.Check(ctx).Healthy()
}

// Health 健康检查端点，任一依赖断开返回 503
// GET /health
func (h *Checker) Health(c *gin.Context) {
	status := h.Check(c.Request.Context())
	if !status.Healthy() {
		c.JSON(http.StatusServiceUnavailable, status)
		return
	}
	c.JSON(http.StatusOK, status)
}

// Ready 就绪探针：NATS 连上才能接收命令
// GET /ready
func (h *Checker) Ready(c *gin.Context) {
	if !h.nc.IsConnected() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"ready": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ready": true})
}
