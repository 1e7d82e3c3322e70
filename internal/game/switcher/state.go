package switcher

import (
	"slices"
	"time"

	"sudooom.switcher/internal/game/switcher/core"
)

// PlayerID 玩家ID
type PlayerID int64

// Status 游戏状态
type Status string

const (
	StatusWaiting  Status = "waiting"
	StatusFull     Status = "full"
	StatusInGame   Status = "in game"
	StatusFinished Status = "finished"
)

const (
	// MinPlayers 最少玩家数
	MinPlayers = 2
	// MaxPlayers 最多玩家数
	MaxPlayers = 4
	// HandSize 移动卡与图形卡的手牌上限
	HandSize = 3
	// MaxCopiesPerFigure 每种图形卡在牌堆中的最大张数
	MaxCopiesPerFigure = 2
)

// MovementCard 移动卡
type MovementCard struct {
	ID     int64             `json:"id"`
	Type   core.MovementType `json:"movement_type"`
	Owner  PlayerID          `json:"associated_player"`
	InHand bool              `json:"in_hand"`
}

// FigureCard 图形卡
type FigureCard struct {
	ID      int64           `json:"id"`
	Type    core.FigureType `json:"type"`
	Owner   PlayerID        `json:"associated_player"`
	InHand  bool            `json:"in_hand"`
	Blocked bool            `json:"blocked"`
}

// PartialMove 本回合内尚未确定的交换
type PartialMove struct {
	ID     int64             `json:"id"`
	Type   core.MovementType `json:"movement_type"`
	CardID int64             `json:"card_id"`
	Player PlayerID          `json:"player_id"`
	From   core.Coordinate   `json:"from"`
	To     core.Coordinate   `json:"to"`
	Final  bool              `json:"final_movement"`
}

// Player 玩家，只持有各实体的 ID
type Player struct {
	ID            PlayerID `json:"id"`
	Name          string   `json:"name"`
	Blocked       bool     `json:"blocked"`
	MovementCards []int64  `json:"movement_cards"`
	FigureCards   []int64  `json:"figure_cards"`
	Moves         []int64  `json:"moves"`
}

func (p *Player) clone() *Player {
	c := *p
	c.MovementCards = slices.Clone(p.MovementCards)
	c.FigureCards = slices.Clone(p.FigureCards)
	c.Moves = slices.Clone(p.Moves)
	return &c
}

// State 一局游戏的全部数据
//
// 实体按 ID 存放在各自的表里，归属关系只由 Player 上的 ID 列表表达。
type State struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	HostID         PlayerID   `json:"host_id"`
	Capacity       int        `json:"player_amount"`
	Status         Status     `json:"status"`
	Board          core.Grid  `json:"board"`
	ForbiddenColor core.Color `json:"forbidden_color"`
	Turn           int        `json:"player_turn"`
	Order          []PlayerID `json:"order"`
	Winner         PlayerID   `json:"winner,omitempty"`

	Players       map[PlayerID]*Player     `json:"players"`
	MovementCards map[int64]*MovementCard `json:"movement_cards"`
	FigureCards   map[int64]*FigureCard   `json:"figure_cards"`
	Moves         map[int64]*PartialMove  `json:"moves"`

	NextID    int64     `json:"next_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Revision 该状态所基于的存储版本，0 表示尚未落库
	Revision int64 `json:"-"`
}

// NewState 创建等待中的游戏，房主自动加入
func NewState(id, name string, capacity int, host PlayerID, hostName string) (*State, error) {
	if capacity < MinPlayers || capacity > MaxPlayers {
		return nil, core.ErrInvalidCapacity.WithContext("capacity", capacity)
	}

	now := time.Now()
	s := &State{
		ID:             id,
		Name:           name,
		HostID:         host,
		Capacity:       capacity,
		Status:         StatusWaiting,
		ForbiddenColor: core.ColorNone,
		Order:          []PlayerID{},
		Players:        make(map[PlayerID]*Player),
		MovementCards:  make(map[int64]*MovementCard),
		FigureCards:    make(map[int64]*FigureCard),
		Moves:          make(map[int64]*PartialMove),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	s.addPlayer(host, hostName)
	return s, nil
}

// Clone 深拷贝
func (s *State) Clone() *State {
	c := *s
	c.Order = slices.Clone(s.Order)
	c.Players = make(map[PlayerID]*Player, len(s.Players))
	for id, p := range s.Players {
		c.Players[id] = p.clone()
	}
	c.MovementCards = make(map[int64]*MovementCard, len(s.MovementCards))
	for id, card := range s.MovementCards {
		cc := *card
		c.MovementCards[id] = &cc
	}
	c.FigureCards = make(map[int64]*FigureCard, len(s.FigureCards))
	for id, card := range s.FigureCards {
		cc := *card
		c.FigureCards[id] = &cc
	}
	c.Moves = make(map[int64]*PartialMove, len(s.Moves))
	for id, m := range s.Moves {
		mm := *m
		c.Moves[id] = &mm
	}
	return &c
}

// normalize 补齐反序列化后可能为 nil 的表
func (s *State) normalize() {
	if s.Players == nil {
		s.Players = make(map[PlayerID]*Player)
	}
	if s.MovementCards == nil {
		s.MovementCards = make(map[int64]*MovementCard)
	}
	if s.FigureCards == nil {
		s.FigureCards = make(map[int64]*FigureCard)
	}
	if s.Moves == nil {
		s.Moves = make(map[int64]*PartialMove)
	}
}

func (s *State) nextID() int64 {
	s.NextID++
	return s.NextID
}

func (s *State) addPlayer(id PlayerID, name string) *Player {
	p := &Player{ID: id, Name: name}
	s.Players[id] = p
	s.Order = append(s.Order, id)
	return p
}

// Player 根据 ID 获取玩家
func (s *State) Player(id PlayerID) (*Player, error) {
	p, ok := s.Players[id]
	if !ok {
		return nil, core.ErrPlayerNotFound.WithContext("playerId", int64(id))
	}
	return p, nil
}

// PlayerIndex 玩家在回合顺序中的位置，不存在返回 -1
func (s *State) PlayerIndex(id PlayerID) int {
	return slices.Index(s.Order, id)
}

// CurrentPlayer 当前回合玩家
func (s *State) CurrentPlayer() PlayerID {
	if len(s.Order) == 0 || s.Turn < 0 || s.Turn >= len(s.Order) {
		return 0
	}
	return s.Order[s.Turn]
}

// IsTurnOf 是否轮到该玩家
func (s *State) IsTurnOf(id PlayerID) bool {
	return len(s.Order) > 0 && s.CurrentPlayer() == id
}

// PlayerCount 当前玩家数
func (s *State) PlayerCount() int {
	return len(s.Order)
}

// MovementHand 玩家手中的移动卡，按 ID 升序
func (s *State) MovementHand(id PlayerID) []*MovementCard {
	p, ok := s.Players[id]
	if !ok {
		return nil
	}
	var hand []*MovementCard
	for _, cid := range p.MovementCards {
		if card := s.MovementCards[cid]; card != nil && card.InHand {
			hand = append(hand, card)
		}
	}
	return hand
}

// FigureHand 玩家手中的图形卡，按 ID 升序
func (s *State) FigureHand(id PlayerID) []*FigureCard {
	p, ok := s.Players[id]
	if !ok {
		return nil
	}
	var hand []*FigureCard
	for _, cid := range p.FigureCards {
		if card := s.FigureCards[cid]; card != nil && card.InHand {
			hand = append(hand, card)
		}
	}
	return hand
}

// FigureDeck 玩家尚未发到手里的图形卡
func (s *State) FigureDeck(id PlayerID) []*FigureCard {
	p, ok := s.Players[id]
	if !ok {
		return nil
	}
	var deck []*FigureCard
	for _, cid := range p.FigureCards {
		if card := s.FigureCards[cid]; card != nil && !card.InHand {
			deck = append(deck, card)
		}
	}
	return deck
}

// removeFigureCard 从表和玩家名下删除图形卡
func (s *State) removeFigureCard(card *FigureCard) {
	delete(s.FigureCards, card.ID)
	if p, ok := s.Players[card.Owner]; ok {
		p.FigureCards = slices.DeleteFunc(p.FigureCards, func(id int64) bool { return id == card.ID })
	}
}

// removeMovementCard 从表和玩家名下删除移动卡
func (s *State) removeMovementCard(card *MovementCard) {
	delete(s.MovementCards, card.ID)
	if p, ok := s.Players[card.Owner]; ok {
		p.MovementCards = slices.DeleteFunc(p.MovementCards, func(id int64) bool { return id == card.ID })
	}
}

// removeMove 从表和玩家名下删除移动记录
func (s *State) removeMove(m *PartialMove) {
	delete(s.Moves, m.ID)
	if p, ok := s.Players[m.Player]; ok {
		p.Moves = slices.DeleteFunc(p.Moves, func(id int64) bool { return id == m.ID })
	}
}

// clearCards 删除玩家的全部卡和移动记录
func (s *State) clearCards(id PlayerID) {
	p, ok := s.Players[id]
	if !ok {
		return
	}
	for _, cid := range p.MovementCards {
		delete(s.MovementCards, cid)
	}
	for _, cid := range p.FigureCards {
		delete(s.FigureCards, cid)
	}
	for _, mid := range p.Moves {
		delete(s.Moves, mid)
	}
	p.MovementCards = nil
	p.FigureCards = nil
	p.Moves = nil
}
