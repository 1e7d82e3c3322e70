package switcher

import (
	"sudooom.switcher/internal/game/switcher/core"
)

// Claim 一次成功的图形认领
type Claim struct {
	Player         PlayerID        `json:"player_id"`
	Target         PlayerID        `json:"target_id"`
	CardID         int64           `json:"card_id"`
	Figure         core.FigureType `json:"figure"`
	Tiles          core.TileSet    `json:"tiles"`
	ForbiddenColor core.Color      `json:"forbidden_color"`
	Blocked        bool            `json:"blocked"`
	Won            bool            `json:"won"`
}

// claimCheck 认领前的校验结果，提交阶段直接使用
type claimCheck struct {
	color core.Color
	card  *FigureCard
	tiles core.TileSet
}

// checkClaim 校验 target 手中的 figure 卡能否用 tile 所在的图形认领
//
// 依次检查：点击格颜色不是禁用色、卡在手中且符合封锁规则、图形在有效棋盘上成立。
func (e *Engine) checkClaim(target PlayerID, figure core.FigureType, tile core.Coordinate) (*claimCheck, error) {
	s := e.state
	if !figure.Valid() {
		return nil, core.ErrUnknownFigureType.WithContext("figure", int(figure))
	}
	if !tile.InBounds() {
		return nil, core.ErrFigureNotOnBoard.WithContext("tile", tile.String())
	}

	board := s.EffectiveBoard()
	color := board.At(tile)
	if color == s.ForbiddenColor {
		return nil, core.ErrForbiddenColor.WithContext("color", color.String())
	}

	card, err := e.selectFigureCard(target, figure)
	if err != nil {
		return nil, err
	}

	tiles, ok := core.FindFigureAt(figure, board, s.ForbiddenColor, tile)
	if !ok {
		return nil, core.ErrFigureNotOnBoard.
			WithContext("figure", figure.Name()).
			WithContext("tile", tile.String())
	}

	return &claimCheck{color: color, card: card, tiles: tiles}, nil
}

// selectFigureCard 在手牌中找该类型的卡，优先未被封锁的
//
// 只有被封锁的卡可用时：被封锁的玩家须只剩这一张；未被封锁的玩家持有封锁卡属于状态不一致。
func (e *Engine) selectFigureCard(owner PlayerID, figure core.FigureType) (*FigureCard, error) {
	p, err := e.state.Player(owner)
	if err != nil {
		return nil, err
	}
	hand := e.state.FigureHand(owner)

	var blocked *FigureCard
	for _, card := range hand {
		if card.Type != figure {
			continue
		}
		if !card.Blocked {
			return card, nil
		}
		if blocked == nil {
			blocked = card
		}
	}
	if blocked == nil {
		return nil, core.ErrCardNotInHand.
			WithContext("playerId", int64(owner)).
			WithContext("figure", figure.Name())
	}

	if !p.Blocked {
		e.logger.Error("Unblocked player holds a blocked card", "playerId", owner, "cardId", blocked.ID)
		return nil, core.ErrInconsistentBlockedCard.WithContext("cardId", blocked.ID)
	}
	if len(hand) > 1 {
		return nil, core.ErrBlockedCardLocked.WithContext("cardId", blocked.ID)
	}
	return blocked, nil
}

// commitClaim 更新禁用色，当前玩家的临时移动写入棋盘
func (e *Engine) commitClaim(check *claimCheck) {
	s := e.state
	s.ForbiddenColor = check.color
	s.FinalizePartialMoves(s.CurrentPlayer())
}

// DiscardFigure 当前玩家打出一张图形卡
//
// 打出后手里只剩一张时解除该卡的封锁，手牌打空则解除玩家封锁；名下图形卡全部用完即获胜。
func (e *Engine) DiscardFigure(player PlayerID, figure core.FigureType, tile core.Coordinate) (*Claim, error) {
	if err := e.requireTurn(player); err != nil {
		return nil, err
	}
	check, err := e.checkClaim(player, figure, tile)
	if err != nil {
		return nil, err
	}

	s := e.state
	p := s.Players[player]
	e.commitClaim(check)
	s.removeFigureCard(check.card)

	hand := s.FigureHand(player)
	switch len(hand) {
	case 1:
		hand[0].Blocked = false
	case 0:
		p.Blocked = false
	}

	claim := &Claim{
		Player:         player,
		Target:         player,
		CardID:         check.card.ID,
		Figure:         figure,
		Tiles:          check.tiles,
		ForbiddenColor: check.color,
	}
	e.touch()
	e.logger.Info("Figure discarded", "playerId", player, "figure", figure, "forbiddenColor", check.color)

	if len(p.FigureCards) == 0 {
		claim.Won = true
		e.finish(player)
	}
	return claim, nil
}

// BlockFigure 当前玩家用棋盘上的图形封锁另一位玩家的图形卡
func (e *Engine) BlockFigure(player, target PlayerID, figure core.FigureType, tile core.Coordinate) (*Claim, error) {
	if err := e.requireTurn(player); err != nil {
		return nil, err
	}
	s := e.state
	t, err := s.Player(target)
	if err != nil {
		return nil, err
	}
	if target == player {
		return nil, core.ErrCannotBlockSelf
	}
	if t.Blocked {
		return nil, core.ErrPlayerAlreadyBlocked.WithContext("playerId", int64(target))
	}
	if len(s.FigureHand(target)) < 2 {
		return nil, core.ErrCannotBlockWithOneCard.WithContext("playerId", int64(target))
	}

	check, err := e.checkClaim(target, figure, tile)
	if err != nil {
		return nil, err
	}

	e.commitClaim(check)
	check.card.Blocked = true
	t.Blocked = true
	e.touch()

	e.logger.Info("Figure blocked", "playerId", player, "targetId", target, "figure", figure, "forbiddenColor", check.color)
	return &Claim{
		Player:         player,
		Target:         target,
		CardID:         check.card.ID,
		Figure:         figure,
		Tiles:          check.tiles,
		ForbiddenColor: check.color,
		Blocked:        true,
	}, nil
}
