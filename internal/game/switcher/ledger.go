package switcher

import (
	"cmp"
	"slices"

	"sudooom.switcher/internal/game/switcher/core"
)

// MaxPartialMoves 一个回合内最多保留的临时移动数
const MaxPartialMoves = HandSize

// PartialMoves 玩家未确定的移动，按插入顺序
func (s *State) PartialMoves(player PlayerID) []*PartialMove {
	p, ok := s.Players[player]
	if !ok {
		return nil
	}
	var moves []*PartialMove
	for _, id := range p.Moves {
		if m := s.Moves[id]; m != nil && !m.Final {
			moves = append(moves, m)
		}
	}
	slices.SortFunc(moves, func(a, b *PartialMove) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return moves
}

// ApplyPartialMove 记录一次临时交换，移动卡离开手牌
//
// 不做合法性校验，由 Engine 在调用前完成。
func (s *State) ApplyPartialMove(player PlayerID, card *MovementCard, from, to core.Coordinate) *PartialMove {
	m := &PartialMove{
		ID:     s.nextID(),
		Type:   card.Type,
		CardID: card.ID,
		Player: player,
		From:   from,
		To:     to,
	}
	s.Moves[m.ID] = m
	if p, ok := s.Players[player]; ok {
		p.Moves = append(p.Moves, m.ID)
	}
	card.InHand = false
	return m
}

// UndoLastPartialMove 撤销最近一次临时移动并归还移动卡
//
// 没有临时移动或数量超过上限时返回 false，状态不变。
func (s *State) UndoLastPartialMove(player PlayerID) bool {
	moves := s.PartialMoves(player)
	if len(moves) == 0 || len(moves) > MaxPartialMoves {
		return false
	}
	last := moves[len(moves)-1]
	s.returnCard(last)
	s.removeMove(last)
	return true
}

// ReturnPartialMoveCards 把临时移动用掉的移动卡全部放回手牌，移动本身保留
func (s *State) ReturnPartialMoveCards(player PlayerID) int {
	moves := s.PartialMoves(player)
	for _, m := range moves {
		s.returnCard(m)
	}
	return len(moves)
}

// UndoAllPartialMoves 清除全部临时移动，不归还移动卡
func (s *State) UndoAllPartialMoves(player PlayerID) int {
	moves := s.PartialMoves(player)
	for _, m := range moves {
		s.removeMove(m)
	}
	return len(moves)
}

// returnCard 把移动对应的卡放回手牌
//
// 优先按卡ID找回；旧数据没有卡ID时按类型找一张已离手的卡。
func (s *State) returnCard(m *PartialMove) {
	if card := s.MovementCards[m.CardID]; card != nil && card.Owner == m.Player {
		card.InHand = true
		return
	}
	p, ok := s.Players[m.Player]
	if !ok {
		return
	}
	for _, cid := range p.MovementCards {
		if card := s.MovementCards[cid]; card != nil && !card.InHand && card.Type == m.Type {
			card.InHand = true
			return
		}
	}
}

// EffectiveBoard 当前回合玩家视角下的棋盘
func (s *State) EffectiveBoard() core.Grid {
	if s.Status != StatusInGame {
		return s.Board
	}
	return s.EffectiveBoardFor(s.CurrentPlayer())
}

// EffectiveBoardFor 在已确定的棋盘上按顺序叠加玩家的临时移动
func (s *State) EffectiveBoardFor(player PlayerID) core.Grid {
	board := s.Board
	for _, m := range s.PartialMoves(player) {
		board.Swap(m.From, m.To)
	}
	return board
}

// FinalizePartialMoves 把临时移动写入棋盘，并丢弃已用掉的移动卡
//
// 移动记录保留为历史，只是标记为已确定。
func (s *State) FinalizePartialMoves(player PlayerID) int {
	moves := s.PartialMoves(player)
	s.Board = s.EffectiveBoardFor(player)
	for _, m := range moves {
		m.Final = true
	}

	if p, ok := s.Players[player]; ok {
		for _, cid := range slices.Clone(p.MovementCards) {
			if card := s.MovementCards[cid]; card != nil && !card.InHand {
				s.removeMovementCard(card)
			}
		}
	}
	return len(moves)
}

// PartialMoveTiles 临时移动涉及的格子，按首次出现顺序去重
func (s *State) PartialMoveTiles(player PlayerID) core.TileSet {
	var tiles core.TileSet
	for _, m := range s.PartialMoves(player) {
		for _, c := range [2]core.Coordinate{m.From, m.To} {
			if !tiles.Contains(c) {
				tiles = append(tiles, c)
			}
		}
	}
	return tiles
}
