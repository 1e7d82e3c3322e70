package core

import "fmt"

// Step 路径模板中的一步
type Step int8

const (
	Up Step = iota
	Down
	Left
	Right
	// 临时步：检查该方向下一格同色并计入图形，但光标停留在原地
	TUp
	TDown
	TLeft
	TRight
)

// Temporal 是否为临时步
func (s Step) Temporal() bool {
	return s >= TUp
}

// Delta 行列偏移量
func (s Step) Delta() (dr, dc int) {
	switch s {
	case Up, TUp:
		return -1, 0
	case Down, TDown:
		return 1, 0
	case Left, TLeft:
		return 0, -1
	case Right, TRight:
		return 0, 1
	default:
		return 0, 0
	}
}

func (s Step) String() string {
	switch s {
	case Up:
		return "up"
	case Down:
		return "down"
	case Left:
		return "left"
	case Right:
		return "right"
	case TUp:
		return "temporal up"
	case TDown:
		return "temporal down"
	case TLeft:
		return "temporal left"
	case TRight:
		return "temporal right"
	default:
		return "unknown"
	}
}

// Path 路径模板（从起点出发的一串相对步）
type Path []Step

// Difficulty 图形难度
type Difficulty int8

const (
	Easy Difficulty = iota
	Difficult
)

func (d Difficulty) String() string {
	switch d {
	case Easy:
		return "easy"
	case Difficult:
		return "difficult"
	default:
		return "unknown"
	}
}

// FigureType 图形类型：fig01..fig18 为五格（困难），fige01..fige07 为四格（简单）
type FigureType int8

const (
	Fig01 FigureType = iota
	Fig02
	Fig03
	Fig04
	Fig05
	Fig06
	Fig07
	Fig08
	Fig09
	Fig10
	Fig11
	Fig12
	Fig13
	Fig14
	Fig15
	Fig16
	Fig17
	Fig18
	Fige01
	Fige02
	Fige03
	Fige04
	Fige05
	Fige06
	Fige07

	figureTypeCount
)

const (
	// DifficultFigureCount 困难图形种类数
	DifficultFigureCount = int(Fige01)
	// EasyFigureCount 简单图形种类数
	EasyFigureCount = int(figureTypeCount - Fige01)
)

// figurePaths 每种图形的全部朝向，按 FigureType 下标排列
var figurePaths = [figureTypeCount][]Path{
	Fig01: {
		{Down, TDown, Right, Right},
		{Right, TRight, Down, Down},
		{Right, Right, TUp, Down},
		{Down, Down, TLeft, Right},
	},
	Fig02: {
		{Right, Down, Right, Right},
		{Down, Left, Down, Down},
		{Right, Right, Down, Right},
		{Down, Down, Left, Down},
	},
	Fig03: {
		{Right, Right, Up, Right},
		{Down, Down, Right, Down},
		{Right, Up, Right, Right},
		{Down, Right, Down, Down},
	},
	Fig04: {
		{Down, Right, Down, Right},
		{Up, Right, Up, Right},
		{Right, Down, Right, Down},
		{Right, Up, Right, Up},
	},
	Fig05: {
		{Right, Right, Right, Right},
		{Down, Down, Down, Down},
	},
	Fig06: {
		{Down, Down, Right, Right},
		{Left, Left, Down, Down},
		{Right, Right, Down, Down},
		{Right, Right, Up, Up},
	},
	Fig07: {
		{Right, Right, Right, Down},
		{Down, Down, Down, Left},
		{Left, Left, Left, Up},
		{Up, Up, Up, Right},
	},
	Fig08: {
		{Right, Right, Right, Up},
		{Down, Down, Down, Right},
		{Left, Left, Left, Down},
		{Up, Up, Up, Left},
	},
	Fig09: {
		{Right, TDown, Right, Up},
		{Right, TUp, Down, Right},
		{Up, Right, TUp, Right},
		{Right, Down, TRight, Down},
	},
	Fig10: {
		{Up, Right, Right, Up},
		{Right, Down, Down, Right},
	},
	Fig11: {
		{Down, Right, TDown, Right},
		{Right, TDown, Up, Right},
		{Right, TUp, Right, Down},
		{Down, TRight, Down, Left},
	},
	Fig12: {
		{Down, Right, Right, Down},
		{Right, Up, Up, Right},
	},
	Fig13: {
		{Right, Right, TDown, Right},
		{Down, Down, TLeft, Down},
		{Right, TUp, Right, Right},
		{Down, TRight, Down, Down},
	},
	Fig14: {
		{Right, Right, TUp, Right},
		{Down, Down, TRight, Down},
		{Right, TDown, Right, Right},
		{Down, TLeft, Down, Down},
	},
	Fig15: {
		{Right, Up, Right, Down},
		{Down, Right, Down, Left},
		{Down, Right, Up, Right},
		{Up, Up, Left, Down},
	},
	Fig16: {
		{Down, Right, Right, Up},
		{Left, Down, Down, Right},
		{Up, Right, Right, Down},
		{Right, Down, Down, Left},
	},
	Fig17: {
		{Right, TUp, TRight, TDown},
	},
	Fig18: {
		{Right, Right, Down, Left},
		{Down, Down, Left, Up},
		{Left, Left, Up, Right},
		{Up, Up, Right, Down},
	},
	Fige01: {
		{Right, Up, Right},
		{Down, Right, Down},
	},
	Fige02: {
		{Right, Down, Left},
	},
	Fige03: {
		{Right, Down, Right},
		{Down, Left, Down},
	},
	Fige04: {
		{Right, TUp, Right},
		{Down, TRight, Down},
		{Right, TDown, Right},
		{Down, TLeft, Down},
	},
	Fige05: {
		{Right, Right, Down},
		{Down, Down, Left},
		{Down, Right, Right},
		{Up, Up, Right},
	},
	Fige06: {
		{Right, Right, Right},
		{Down, Down, Down},
	},
	Fige07: {
		{Right, Right, Up},
		{Down, Down, Right},
		{Up, Right, Right},
		{Right, Down, Down},
	},
}

// AllFigureTypes 所有图形类型，困难在前
func AllFigureTypes() []FigureType {
	types := make([]FigureType, 0, figureTypeCount)
	for t := FigureType(0); t < figureTypeCount; t++ {
		types = append(types, t)
	}
	return types
}

// FigureTypesByDifficulty 某难度下的全部图形类型
func FigureTypesByDifficulty(d Difficulty) []FigureType {
	var types []FigureType
	for _, t := range AllFigureTypes() {
		if t.Difficulty() == d {
			types = append(types, t)
		}
	}
	return types
}

// Valid 是否为已知类型
func (t FigureType) Valid() bool {
	return t >= 0 && t < figureTypeCount
}

// Difficulty 图形难度
func (t FigureType) Difficulty() Difficulty {
	if t >= Fige01 {
		return Easy
	}
	return Difficult
}

// Name 图形名称，如 "fig05"、"fige03"
func (t FigureType) Name() string {
	switch {
	case !t.Valid():
		return "unknown"
	case t >= Fige01:
		return fmt.Sprintf("fige%02d", int(t-Fige01)+1)
	default:
		return fmt.Sprintf("fig%02d", int(t)+1)
	}
}

func (t FigureType) String() string {
	return t.Name()
}

// Paths 图形的全部路径模板
func (t FigureType) Paths() []Path {
	if !t.Valid() {
		return nil
	}
	return figurePaths[t]
}

// TileCount 图形格子数（每一步记一格，再加终点）
func (t FigureType) TileCount() int {
	paths := t.Paths()
	if len(paths) == 0 {
		return 0
	}
	return len(paths[0]) + 1
}

// ParseFigureType 解析图形名称
func ParseFigureType(s string) (FigureType, error) {
	for _, t := range AllFigureTypes() {
		if t.Name() == s {
			return t, nil
		}
	}
	return 0, ErrUnknownFigureType.WithContext("type", s)
}

// MarshalText 以图形名称序列化
func (t FigureType) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, ErrUnknownFigureType.WithContext("type", int(t))
	}
	return []byte(t.Name()), nil
}

// UnmarshalText 从图形名称反序列化
func (t *FigureType) UnmarshalText(text []byte) error {
	parsed, err := ParseFigureType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
