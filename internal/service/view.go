package service

import (
	"sudooom.switcher/internal/game/switcher"
	"sudooom.switcher/internal/game/switcher/core"
	"sudooom.switcher/pkg/proto"
)

func toProtoCoord(c core.Coordinate) proto.Coordinate {
	return proto.Coordinate{X: c.Row, Y: c.Col}
}

func toProtoCoords(tiles core.TileSet) []proto.Coordinate {
	out := make([]proto.Coordinate, 0, len(tiles))
	for _, c := range tiles {
		out = append(out, toProtoCoord(c))
	}
	return out
}

// FromProtoCoord 协议坐标转为棋盘坐标
func FromProtoCoord(c proto.Coordinate) core.Coordinate {
	return core.Coord(c.X, c.Y)
}

// BuildGameView 公开视图：图形卡只展示手中的，牌堆只给数量
func BuildGameView(s *switcher.State) *proto.GameView {
	view := &proto.GameView{
		Id:             s.ID,
		Name:           s.Name,
		PlayerAmount:   s.Capacity,
		Status:         string(s.Status),
		HostId:         int64(s.HostID),
		PlayerTurn:     s.Turn,
		ForbiddenColor: s.ForbiddenColor.String(),
		Winner:         int64(s.Winner),
		Players:        make([]proto.PlayerView, 0, len(s.Order)),
		UpdatedAt:      s.UpdatedAt.UnixMilli(),
	}
	if s.Status == switcher.StatusInGame {
		view.CurrentPlayer = int64(s.CurrentPlayer())
	}

	for _, pid := range s.Order {
		p := s.Players[pid]
		pv := proto.PlayerView{
			Id:            int64(p.ID),
			Name:          p.Name,
			Blocked:       p.Blocked,
			MovementCards: []proto.MovementCardView{},
			FigureCards:   []proto.FigureCardView{},
			DeckSize:      len(s.FigureDeck(pid)),
		}
		for _, id := range p.MovementCards {
			card := s.MovementCards[id]
			if card == nil {
				continue
			}
			pv.MovementCards = append(pv.MovementCards, proto.MovementCardView{
				Id:               card.ID,
				MovementType:     card.Type.String(),
				AssociatedPlayer: int64(card.Owner),
				InHand:           card.InHand,
			})
		}
		for _, card := range s.FigureHand(pid) {
			pv.FigureCards = append(pv.FigureCards, proto.FigureCardView{
				Id:               card.ID,
				Type:             card.Type.Name(),
				Difficulty:       card.Type.Difficulty().String(),
				AssociatedPlayer: int64(card.Owner),
				Blocked:          card.Blocked,
			})
		}
		view.Players = append(view.Players, pv)
	}
	return view
}

// BuildBoardView 棋盘视图
func BuildBoardView(board core.Grid) *proto.BoardView {
	return &proto.BoardView{ColorDistribution: board.Rows()}
}

// BuildFiguresView 图形视图，格子按行列排序
func BuildFiguresView(matches []core.FigureMatch) []proto.FigureView {
	out := make([]proto.FigureView, 0, len(matches))
	for _, m := range matches {
		out = append(out, proto.FigureView{
			Fig:   m.Type.Name(),
			Tiles: toProtoCoords(m.Tiles.Sorted()),
		})
	}
	return out
}

// BuildPartialMovesView 临时交换涉及的格子
func BuildPartialMovesView(tiles core.TileSet) *proto.PartialMovesView {
	return &proto.PartialMovesView{Tiles: toProtoCoords(tiles)}
}
