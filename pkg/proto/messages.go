package proto

import "encoding/json"

// ============== 命令 (Access -> Switcher) ==============

// 命令类型
const (
	CmdCreate        = "create"
	CmdJoin          = "join"
	CmdStart         = "start"
	CmdMoveAdd       = "move.add"
	CmdMoveUndo      = "move.undo"
	CmdTurnFinish    = "turn.finish"
	CmdFigureDiscard = "figure.discard"
	CmdFigureBlock   = "figure.block"
	CmdQuit          = "quit"
	CmdView          = "view"
)

// GameCommand 玩家发来的游戏命令，PlayerId 已由接入层鉴权
type GameCommand struct {
	RequestId  string         `json:"request_id"`
	Type       string         `json:"type"`
	GameId     string         `json:"game_id,omitempty"`
	PlayerId   int64          `json:"player_id"`
	PlayerName string         `json:"player_name,omitempty"`
	Create     *CreateGame    `json:"create,omitempty"`
	Move       *MoveRequest   `json:"move,omitempty"`
	Figure     *FigureRequest `json:"figure,omitempty"`
	Timestamp  int64          `json:"timestamp"`
}

// CreateGame 建局参数
type CreateGame struct {
	Name         string `json:"name"`
	PlayerAmount int    `json:"player_amount"`
}

// Coordinate 棋盘坐标，x 为行，y 为列
type Coordinate struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// MoveRequest 用一张移动卡交换两格
type MoveRequest struct {
	CardId int64      `json:"card_id"`
	From   Coordinate `json:"piece_1_coordinates"`
	To     Coordinate `json:"piece_2_coordinates"`
}

// FigureRequest 打出或封锁图形卡
// 封锁时 AssociatedPlayer 为被封锁的玩家，打出时为自己
type FigureRequest struct {
	FigureCard       string `json:"figure_card"`
	FigureBoard      string `json:"figure_board,omitempty"`
	AssociatedPlayer int64  `json:"associated_player"`
	ClickedX         int    `json:"clicked_x"`
	ClickedY         int    `json:"clicked_y"`
}

// ============== 回复 (Switcher -> Access) ==============

// GameReply 命令回复
type GameReply struct {
	RequestId string    `json:"request_id"`
	Ok        bool      `json:"ok"`
	Code      string    `json:"code,omitempty"`
	Message   string    `json:"message,omitempty"`
	GameId    string    `json:"game_id,omitempty"`
	Game      *GameView `json:"game,omitempty"`
	Timestamp int64     `json:"timestamp"`
}

// ============== 视图 ==============

// GameView 对外公开的游戏状态
type GameView struct {
	Id             string       `json:"id"`
	Name           string       `json:"name"`
	PlayerAmount   int          `json:"player_amount"`
	Status         string       `json:"status"`
	HostId         int64        `json:"host_id"`
	PlayerTurn     int          `json:"player_turn"`
	CurrentPlayer  int64        `json:"current_player,omitempty"`
	ForbiddenColor string       `json:"forbidden_color"`
	Winner         int64        `json:"winner,omitempty"`
	Players        []PlayerView `json:"players"`
	UpdatedAt      int64        `json:"updated_at"`
}

// PlayerView 玩家及其手牌
type PlayerView struct {
	Id            int64              `json:"id"`
	Name          string             `json:"name"`
	Blocked       bool               `json:"blocked"`
	MovementCards []MovementCardView `json:"movement_cards"`
	FigureCards   []FigureCardView   `json:"figure_cards"`
	DeckSize      int                `json:"deck_size"`
}

// MovementCardView 移动卡
type MovementCardView struct {
	Id               int64  `json:"id"`
	MovementType     string `json:"movement_type"`
	AssociatedPlayer int64  `json:"associated_player"`
	InHand           bool   `json:"in_hand"`
}

// FigureCardView 手中的图形卡
type FigureCardView struct {
	Id               int64  `json:"id"`
	Type             string `json:"type"`
	Difficulty       string `json:"difficulty"`
	AssociatedPlayer int64  `json:"associated_player"`
	Blocked          bool   `json:"blocked"`
}

// BoardView 有效棋盘
type BoardView struct {
	ColorDistribution [][]string `json:"color_distribution"`
}

// FigureView 棋盘上形成的图形
type FigureView struct {
	Fig   string       `json:"fig"`
	Tiles []Coordinate `json:"tiles"`
}

// PartialMovesView 本回合临时交换涉及的格子
type PartialMovesView struct {
	Tiles []Coordinate `json:"tiles"`
}

// ============== 事件 (Switcher -> 订阅者) ==============

// 事件类型
const (
	EventGame               = "game"
	EventBoard              = "board"
	EventFigures            = "figures"
	EventPartialMoves       = "partial_moves"
	EventGameStarted        = "game started"
	EventFinishTurn         = "finish turn"
	EventGameWon            = "game won"
	EventPlayerConnected    = "player connected"
	EventPlayerDisconnected = "player disconnected"
)

// GameEvent 广播给一局游戏所有订阅者的事件
type GameEvent struct {
	Id        string          `json:"id"`
	Type      string          `json:"type"`
	GameId    string          `json:"game_id"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

// PlayerNotice 玩家加入、离开、获胜、轮到谁等通知
type PlayerNotice struct {
	PlayerId   int64  `json:"player_id"`
	PlayerName string `json:"player_name"`
}
