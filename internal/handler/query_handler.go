package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"sudooom.switcher/internal/game/switcher/core"
	"sudooom.switcher/pkg/proto"
	"sudooom.switcher/pkg/response"
)

// GameReader 只读查询依赖的游戏服务
type GameReader interface {
	View(ctx context.Context, gameID string) (*proto.GameView, error)
	Board(ctx context.Context, gameID string) (*proto.BoardView, error)
	Figures(ctx context.Context, gameID string) ([]proto.FigureView, error)
}

// QueryHandler 游戏只读 HTTP 接口
type QueryHandler struct {
	reader GameReader
}

// NewQueryHandler 创建只读查询处理器
func NewQueryHandler(reader GameReader) *QueryHandler {
	return &QueryHandler{reader: reader}
}

// httpStatus 错误代码对应的 HTTP 状态码
func httpStatus(code string) int {
	switch code {
	case CodeGameNotFound:
		return http.StatusNotFound
	case core.ErrGameNotInProgress.Code:
		return http.StatusConflict
	case CodeGameBusy:
		return http.StatusServiceUnavailable
	case CodeServerError:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

func writeError(c *gin.Context, err error) {
	code, message := ErrorCode(err)
	response.Error(c, httpStatus(code), code, message)
}

// GetGame 游戏公开视图
// GET /api/v1/games/:id
func (h *QueryHandler) GetGame(c *gin.Context) {
	view, err := h.reader.View(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, view)
}

// GetBoard 当前有效棋盘
// GET /api/v1/games/:id/board
func (h *QueryHandler) GetBoard(c *gin.Context) {
	board, err := h.reader.Board(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, board)
}

// GetFigures 棋盘上形成的图形
// GET /api/v1/games/:id/figures
func (h *QueryHandler) GetFigures(c *gin.Context) {
	figures, err := h.reader.Figures(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, figures)
}
