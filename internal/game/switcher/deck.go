package switcher

import (
	"math/rand"
	"slices"

	"sudooom.switcher/internal/game/switcher/core"
)

// dealMovementCards 补足玩家名下的移动卡到 HandSize 张
//
// 计数包含已打出但还没被清理的卡。
func (s *State) dealMovementCards(player PlayerID, rng *rand.Rand) int {
	p, ok := s.Players[player]
	if !ok {
		return 0
	}
	types := core.AllMovementTypes()
	dealt := 0
	for len(p.MovementCards) < HandSize {
		card := &MovementCard{
			ID:     s.nextID(),
			Type:   types[rng.Intn(len(types))],
			Owner:  player,
			InHand: true,
		}
		s.MovementCards[card.ID] = card
		p.MovementCards = append(p.MovementCards, card.ID)
		dealt++
	}
	return dealt
}

// figureDeckSize 每位玩家分到的某难度图形卡张数
func figureDeckSize(d core.Difficulty, players int) int {
	total := core.DifficultFigureCount
	if d == core.Easy {
		total = core.EasyFigureCount
	}
	return total * MaxCopiesPerFigure / players
}

// buildFigureDecks 为每位玩家生成图形卡牌堆
//
// 全局每种图形最多 MaxCopiesPerFigure 张，每张从仍有余量的类型中随机挑选。
func (s *State) buildFigureDecks(rng *rand.Rand) {
	n := len(s.Order)
	if n == 0 {
		return
	}
	used := make(map[core.FigureType]int)

	for _, pid := range s.Order {
		p := s.Players[pid]
		for _, d := range []core.Difficulty{core.Easy, core.Difficult} {
			pool := core.FigureTypesByDifficulty(d)
			for range figureDeckSize(d, n) {
				available := slices.DeleteFunc(slices.Clone(pool), func(t core.FigureType) bool {
					return used[t] >= MaxCopiesPerFigure
				})
				if len(available) == 0 {
					break
				}
				t := available[rng.Intn(len(available))]
				used[t]++

				card := &FigureCard{ID: s.nextID(), Type: t, Owner: pid}
				s.FigureCards[card.ID] = card
				p.FigureCards = append(p.FigureCards, card.ID)
			}
		}
	}
}

// dealFigureCards 被封锁的玩家不发牌，否则从牌堆随机补到 HandSize 张
func (s *State) dealFigureCards(player PlayerID, rng *rand.Rand) int {
	p, ok := s.Players[player]
	if !ok || p.Blocked {
		return 0
	}
	dealt := 0
	for len(s.FigureHand(player)) < HandSize {
		deck := s.FigureDeck(player)
		if len(deck) == 0 {
			break
		}
		deck[rng.Intn(len(deck))].InHand = true
		dealt++
	}
	return dealt
}
