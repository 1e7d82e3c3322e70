package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"sudooom.switcher/internal/game"
	"sudooom.switcher/internal/game/switcher"
	"sudooom.switcher/internal/game/switcher/core"
	"sudooom.switcher/internal/redis"
	"sudooom.switcher/internal/service"
	"sudooom.switcher/pkg/proto"
)

// 非规则类错误的回复代码
const (
	CodeBadRequest   = "BAD_REQUEST"
	CodeGameNotFound = "GAME_NOT_FOUND"
	CodeGameBusy     = "GAME_BUSY"
	CodeUnknownCmd   = "UNKNOWN_COMMAND"
	CodeServerError  = "SERVER_ERROR"
)

// GameService 处理器依赖的游戏服务
type GameService interface {
	Create(ctx context.Context, playerID switcher.PlayerID, playerName, name string, capacity int) (*proto.GameView, error)
	Join(ctx context.Context, gameID string, playerID switcher.PlayerID, playerName string) (*proto.GameView, error)
	Start(ctx context.Context, gameID string, playerID switcher.PlayerID) (*proto.GameView, error)
	AddMove(ctx context.Context, gameID string, playerID switcher.PlayerID, cardID int64, from, to core.Coordinate) (*proto.GameView, error)
	UndoMove(ctx context.Context, gameID string, playerID switcher.PlayerID) (*proto.GameView, error)
	FinishTurn(ctx context.Context, gameID string, playerID switcher.PlayerID) (*proto.GameView, error)
	DiscardFigure(ctx context.Context, gameID string, playerID switcher.PlayerID, figure core.FigureType, tile core.Coordinate) (*proto.GameView, error)
	BlockFigure(ctx context.Context, gameID string, playerID, target switcher.PlayerID, figure core.FigureType, tile core.Coordinate) (*proto.GameView, error)
	Quit(ctx context.Context, gameID string, playerID switcher.PlayerID) (*proto.GameView, error)
	View(ctx context.Context, gameID string) (*proto.GameView, error)
}

var _ GameService = (*service.GameService)(nil)

// commandFunc 单个命令的处理函数
type commandFunc func(ctx context.Context, cmd *proto.GameCommand) (*proto.GameView, error)

// errBadRequest 命令参数错误，回复 BAD_REQUEST
type errBadRequest struct {
	reason string
}

func (e *errBadRequest) Error() string {
	return e.reason
}

func badRequest(format string, args ...any) error {
	return &errBadRequest{reason: fmt.Sprintf(format, args...)}
}

// GameHandler 游戏命令处理器
type GameHandler struct {
	commands    map[string]commandFunc
	gameService GameService
	logger      *slog.Logger
}

// NewGameHandler 创建游戏命令处理器
func NewGameHandler(gameService GameService) *GameHandler {
	h := &GameHandler{
		commands:    make(map[string]commandFunc),
		gameService: gameService,
		logger:      slog.Default(),
	}

	// 注册各种命令处理函数
	h.registerCommands()

	return h
}

// registerCommands 注册各种命令处理函数
func (h *GameHandler) registerCommands() {
	h.commands[proto.CmdCreate] = h.handleCreate
	h.commands[proto.CmdJoin] = h.handleJoin
	h.commands[proto.CmdStart] = h.handleStart
	h.commands[proto.CmdMoveAdd] = h.handleMoveAdd
	h.commands[proto.CmdMoveUndo] = h.handleMoveUndo
	h.commands[proto.CmdTurnFinish] = h.handleTurnFinish
	h.commands[proto.CmdFigureDiscard] = h.handleFigureDiscard
	h.commands[proto.CmdFigureBlock] = h.handleFigureBlock
	h.commands[proto.CmdQuit] = h.handleQuit
	h.commands[proto.CmdView] = h.handleView
}

// HandleCommand 处理一条游戏命令并生成回复
func (h *GameHandler) HandleCommand(ctx context.Context, cmd *proto.GameCommand) *proto.GameReply {
	reply := &proto.GameReply{
		RequestId: cmd.RequestId,
		GameId:    cmd.GameId,
	}

	fn, ok := h.commands[cmd.Type]
	if !ok {
		h.logger.Warn("Unknown game command", "type", cmd.Type, "playerId", cmd.PlayerId, "requestId", cmd.RequestId)
		reply.Code = CodeUnknownCmd
		reply.Message = fmt.Sprintf("unknown command: %s", cmd.Type)
		return stamp(reply)
	}

	if err := validateCommand(cmd); err != nil {
		return h.fail(reply, cmd, err)
	}

	view, err := fn(ctx, cmd)
	if err != nil {
		return h.fail(reply, cmd, err)
	}

	reply.Ok = true
	reply.Game = view
	if view != nil {
		reply.GameId = view.Id
	}
	return stamp(reply)
}

// validateCommand 所有命令共同的参数检查
func validateCommand(cmd *proto.GameCommand) error {
	if cmd.PlayerId <= 0 {
		return badRequest("player_id is required")
	}
	if cmd.Type != proto.CmdCreate && cmd.GameId == "" {
		return badRequest("game_id is required")
	}
	return nil
}

// ErrorCode 把错误映射为回复代码和消息，未知错误返回 SERVER_ERROR
func ErrorCode(err error) (code, message string) {
	var (
		ge *core.GameError
		br *errBadRequest
	)
	switch {
	case errors.As(err, &ge):
		return ge.Code, ge.Message
	case errors.As(err, &br), errors.Is(err, service.ErrInvalidRequest):
		return CodeBadRequest, err.Error()
	case errors.Is(err, game.ErrGameNotFound):
		return CodeGameNotFound, err.Error()
	case errors.Is(err, redis.ErrLockFailed), errors.Is(err, game.ErrVersionConflict):
		return CodeGameBusy, "game is busy, retry later"
	default:
		return CodeServerError, "internal server error"
	}
}

// fail 填充失败回复
func (h *GameHandler) fail(reply *proto.GameReply, cmd *proto.GameCommand, err error) *proto.GameReply {
	reply.Code, reply.Message = ErrorCode(err)
	if reply.Code == CodeServerError {
		h.logger.Error("Game command failed",
			"type", cmd.Type,
			"gameId", cmd.GameId,
			"playerId", cmd.PlayerId,
			"error", err)
	} else {
		h.logger.Debug("Game command rejected",
			"type", cmd.Type,
			"gameId", cmd.GameId,
			"playerId", cmd.PlayerId,
			"code", reply.Code)
	}
	return stamp(reply)
}

func stamp(reply *proto.GameReply) *proto.GameReply {
	reply.Timestamp = time.Now().UnixMilli()
	return reply
}

func coordOf(c proto.Coordinate) core.Coordinate {
	return service.FromProtoCoord(c)
}

// parseFigure 解析图形卡参数，figure_board 与 figure_card 必须一致
func parseFigure(req *proto.FigureRequest) (core.FigureType, core.Coordinate, error) {
	if req == nil {
		return 0, core.Coordinate{}, badRequest("figure is required")
	}
	if req.FigureBoard != "" && req.FigureBoard != req.FigureCard {
		return 0, core.Coordinate{}, badRequest("figure_board %q does not match figure_card %q", req.FigureBoard, req.FigureCard)
	}
	figure, err := core.ParseFigureType(req.FigureCard)
	if err != nil {
		return 0, core.Coordinate{}, err
	}
	return figure, core.Coord(req.ClickedX, req.ClickedY), nil
}

func (h *GameHandler) handleCreate(ctx context.Context, cmd *proto.GameCommand) (*proto.GameView, error) {
	if cmd.Create == nil {
		return nil, badRequest("create is required")
	}
	return h.gameService.Create(ctx, switcher.PlayerID(cmd.PlayerId), cmd.PlayerName, cmd.Create.Name, cmd.Create.PlayerAmount)
}

func (h *GameHandler) handleJoin(ctx context.Context, cmd *proto.GameCommand) (*proto.GameView, error) {
	return h.gameService.Join(ctx, cmd.GameId, switcher.PlayerID(cmd.PlayerId), cmd.PlayerName)
}

func (h *GameHandler) handleStart(ctx context.Context, cmd *proto.GameCommand) (*proto.GameView, error) {
	return h.gameService.Start(ctx, cmd.GameId, switcher.PlayerID(cmd.PlayerId))
}

func (h *GameHandler) handleMoveAdd(ctx context.Context, cmd *proto.GameCommand) (*proto.GameView, error) {
	if cmd.Move == nil {
		return nil, badRequest("move is required")
	}
	return h.gameService.AddMove(ctx, cmd.GameId, switcher.PlayerID(cmd.PlayerId),
		cmd.Move.CardId, coordOf(cmd.Move.From), coordOf(cmd.Move.To))
}

func (h *GameHandler) handleMoveUndo(ctx context.Context, cmd *proto.GameCommand) (*proto.GameView, error) {
	return h.gameService.UndoMove(ctx, cmd.GameId, switcher.PlayerID(cmd.PlayerId))
}

func (h *GameHandler) handleTurnFinish(ctx context.Context, cmd *proto.GameCommand) (*proto.GameView, error) {
	return h.gameService.FinishTurn(ctx, cmd.GameId, switcher.PlayerID(cmd.PlayerId))
}

func (h *GameHandler) handleFigureDiscard(ctx context.Context, cmd *proto.GameCommand) (*proto.GameView, error) {
	figure, tile, err := parseFigure(cmd.Figure)
	if err != nil {
		return nil, err
	}
	// 打出时关联玩家只能是自己
	if owner := cmd.Figure.AssociatedPlayer; owner != 0 && owner != cmd.PlayerId {
		return nil, badRequest("associated_player must be the caller when discarding")
	}
	return h.gameService.DiscardFigure(ctx, cmd.GameId, switcher.PlayerID(cmd.PlayerId), figure, tile)
}

func (h *GameHandler) handleFigureBlock(ctx context.Context, cmd *proto.GameCommand) (*proto.GameView, error) {
	figure, tile, err := parseFigure(cmd.Figure)
	if err != nil {
		return nil, err
	}
	if cmd.Figure.AssociatedPlayer <= 0 {
		return nil, badRequest("associated_player is required when blocking")
	}
	return h.gameService.BlockFigure(ctx, cmd.GameId, switcher.PlayerID(cmd.PlayerId),
		switcher.PlayerID(cmd.Figure.AssociatedPlayer), figure, tile)
}

func (h *GameHandler) handleQuit(ctx context.Context, cmd *proto.GameCommand) (*proto.GameView, error) {
	return h.gameService.Quit(ctx, cmd.GameId, switcher.PlayerID(cmd.PlayerId))
}

func (h *GameHandler) handleView(ctx context.Context, cmd *proto.GameCommand) (*proto.GameView, error) {
	return h.gameService.View(ctx, cmd.GameId)
}
