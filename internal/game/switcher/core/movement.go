package core

import (
	"fmt"
	"sync"
)

// MovementType 移动卡类型
type MovementType int8

const (
	Mov01 MovementType = iota // 对角隔一格
	Mov02                     // 横竖隔一格
	Mov03                     // 横竖相邻
	Mov04                     // 对角相邻
	Mov05                     // 马步 (-2,+1) / (-1,-2)
	Mov06                     // 马步 (-2,-1) / (-1,+2)
	Mov07                     // 横竖隔三格

	movementTypeCount
)

// AllMovementTypes 所有移动卡类型
func AllMovementTypes() []MovementType {
	types := make([]MovementType, 0, movementTypeCount)
	for t := MovementType(0); t < movementTypeCount; t++ {
		types = append(types, t)
	}
	return types
}

// Valid 是否为已知类型
func (t MovementType) Valid() bool {
	return t >= 0 && t < movementTypeCount
}

func (t MovementType) String() string {
	if !t.Valid() {
		return "unknown"
	}
	return fmt.Sprintf("mov%02d", int(t)+1)
}

// ParseMovementType 解析 "mov01".."mov07"
func ParseMovementType(s string) (MovementType, error) {
	for t := MovementType(0); t < movementTypeCount; t++ {
		if t.String() == s {
			return t, nil
		}
	}
	return 0, ErrUnknownMovementType.WithContext("type", s)
}

// MarshalText 以类型名称序列化
func (t MovementType) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, ErrUnknownMovementType.WithContext("type", int(t))
	}
	return []byte(t.String()), nil
}

// UnmarshalText 从类型名称反序列化
func (t *MovementType) UnmarshalText(text []byte) error {
	parsed, err := ParseMovementType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Swap 一次交换，From 与 To 即 (r1,c1,r2,c2)
type Swap struct {
	From Coordinate
	To   Coordinate
}

// Reverse 反向交换
func (s Swap) Reverse() Swap {
	return Swap{From: s.To, To: s.From}
}

type moveSet map[Swap]struct{}

// addBoth 同时登记正反两个方向
func (m moveSet) addBoth(r1, c1, r2, c2 int) {
	a, b := Coord(r1, c1), Coord(r2, c2)
	m[Swap{From: a, To: b}] = struct{}{}
	m[Swap{From: b, To: a}] = struct{}{}
}

// moveGenerators 按 MovementType 下标排列，数组长度与类型数量绑定
var moveGenerators = [movementTypeCount]func() moveSet{
	Mov01: generateMov01,
	Mov02: generateMov02,
	Mov03: generateMov03,
	Mov04: generateMov04,
	Mov05: generateMov05,
	Mov06: generateMov06,
	Mov07: generateMov07,
}

// validMoves 全部合法交换表，首次使用时生成，之后只读
var validMoves = sync.OnceValue(func() [movementTypeCount]moveSet {
	var tables [movementTypeCount]moveSet
	for t, gen := range moveGenerators {
		if gen == nil {
			panic(fmt.Sprintf("no move generator for %v", MovementType(t)))
		}
		tables[t] = gen()
	}
	return tables
})

// ValidMoves 返回某类型的合法交换集合（只读副本）
func ValidMoves(t MovementType) []Swap {
	if !t.Valid() {
		return nil
	}
	set := validMoves()[t]
	swaps := make([]Swap, 0, len(set))
	for s := range set {
		swaps = append(swaps, s)
	}
	return swaps
}

// IsValidMove 判断交换是否属于该类型
func IsValidMove(t MovementType, a, b Coordinate) bool {
	if !t.Valid() {
		return false
	}
	_, ok := validMoves()[t][Swap{From: a, To: b}]
	return ok
}

// ValidateMove 校验一次交换，只看结构不看颜色
func ValidateMove(t MovementType, a, b Coordinate) error {
	if !t.Valid() {
		return ErrUnknownMovementType.WithContext("type", int(t))
	}
	if !IsValidMove(t, a, b) {
		return ErrInvalidMovement.
			WithContext("type", t.String()).
			WithContext("from", a.String()).
			WithContext("to", b.String())
	}
	return nil
}

func generateMov01() moveSet {
	m := moveSet{}
	for r := 2; r < BoardSize; r++ {
		for c := 0; c < BoardSize-2; c++ {
			m.addBoth(r, c, r-2, c+2)
		}
		for c := 2; c < BoardSize; c++ {
			m.addBoth(r, c, r-2, c-2)
		}
	}
	return m
}

func generateMov02() moveSet {
	m := moveSet{}
	for r := 0; r < BoardSize; r++ {
		for c := 0; c < BoardSize; c++ {
			if r+2 < BoardSize {
				m.addBoth(r, c, r+2, c)
			}
			if c+2 < BoardSize {
				m.addBoth(r, c, r, c+2)
			}
		}
	}
	return m
}

func generateMov03() moveSet {
	m := moveSet{}
	for r := 0; r < BoardSize; r++ {
		for c := 0; c < BoardSize; c++ {
			if r+1 < BoardSize {
				m.addBoth(r, c, r+1, c)
			}
			if c+1 < BoardSize {
				m.addBoth(r, c, r, c+1)
			}
		}
	}
	return m
}

func generateMov04() moveSet {
	m := moveSet{}
	for r := 0; r < BoardSize-1; r++ {
		for c := 0; c < BoardSize-1; c++ {
			m.addBoth(r, c, r+1, c+1)
			m.addBoth(r+1, c, r, c+1)
		}
	}
	return m
}

func generateMov05() moveSet {
	m := moveSet{}
	for r := 0; r < BoardSize; r++ {
		for c := 0; c < BoardSize; c++ {
			if r-2 >= 0 && c+1 < BoardSize {
				m.addBoth(r, c, r-2, c+1)
			}
			if r-1 >= 0 && c-2 >= 0 {
				m.addBoth(r, c, r-1, c-2)
			}
		}
	}
	return m
}

func generateMov06() moveSet {
	m := moveSet{}
	for r := 0; r < BoardSize; r++ {
		for c := 0; c < BoardSize; c++ {
			if r-2 >= 0 && c-1 >= 0 {
				m.addBoth(r, c, r-2, c-1)
			}
			if r-1 >= 0 && c+2 < BoardSize {
				m.addBoth(r, c, r-1, c+2)
			}
		}
	}
	return m
}

func generateMov07() moveSet {
	m := moveSet{}
	for r := 0; r < BoardSize; r++ {
		for c := 0; c < BoardSize; c++ {
			if r+4 < BoardSize {
				m.addBoth(r, c, r+4, c)
			}
			if c+4 < BoardSize {
				m.addBoth(r, c, r, c+4)
			}
		}
	}
	return m
}
