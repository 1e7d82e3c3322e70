package router

import (
	"github.com/gin-gonic/gin"

	"sudooom.switcher/internal/handler"
	"sudooom.switcher/internal/health"
	"sudooom.switcher/internal/middleware"
)

// SetupRouter 设置路由
func SetupRouter(mode string, checker *health.Checker, queryHandler *handler.QueryHandler) *gin.Engine {
	// 设置 Gin 模式
	if mode != "" {
		gin.SetMode(mode)
	}

	r := gin.New()

	// 全局中间件
	r.Use(gin.Recovery())
	r.Use(middleware.Logger())

	r.GET("/health", checker.Health)
	r.GET("/ready", checker.Ready)

	// API v1，只读
	v1 := r.Group("/api/v1")
	{
		games := v1.Group("/games")
		{
			games.GET("/:id", queryHandler.GetGame)
			games.GET("/:id/board", queryHandler.GetBoard)
			games.GET("/:id/figures", queryHandler.GetFigures)
		}
	}

	return r
}
