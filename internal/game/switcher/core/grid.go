package core

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"slices"
)

const (
	// BoardSize 棋盘边长
	BoardSize = 6
	// TilesPerColor 每种颜色的格子数量
	TilesPerColor = BoardSize * BoardSize / len(TileColors)
)

// Coordinate 棋盘坐标 (行, 列)
type Coordinate struct {
	Row int `json:"x"`
	Col int `json:"y"`
}

// Coord 创建坐标
func Coord(row, col int) Coordinate {
	return Coordinate{Row: row, Col: col}
}

// InBounds 是否在棋盘范围内
func (c Coordinate) InBounds() bool {
	return c.Row >= 0 && c.Row < BoardSize && c.Col >= 0 && c.Col < BoardSize
}

// Neighbor 按偏移量取相邻坐标，越界时 ok 为 false
func (c Coordinate) Neighbor(dr, dc int) (next Coordinate, ok bool) {
	next = Coordinate{Row: c.Row + dr, Col: c.Col + dc}
	return next, next.InBounds()
}

func (c Coordinate) String() string {
	return fmt.Sprintf("(%d,%d)", c.Row, c.Col)
}

// orthogonal 上下左右四个方向
var orthogonal = [4][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}}

// Grid 6x6 棋盘
type Grid [BoardSize][BoardSize]Color

// NewRandomGrid 生成随机棋盘（四种颜色各 9 格）
func NewRandomGrid(r *rand.Rand) Grid {
	colors := make([]Color, 0, BoardSize*BoardSize)
	for _, c := range TileColors {
		for i := 0; i < TilesPerColor; i++ {
			colors = append(colors, c)
		}
	}

	r.Shuffle(len(colors), func(i, j int) {
		colors[i], colors[j] = colors[j], colors[i]
	})

	var g Grid
	for i, c := range colors {
		g[i/BoardSize][i%BoardSize] = c
	}
	return g
}

// At 获取坐标上的颜色
func (g *Grid) At(c Coordinate) Color {
	return g[c.Row][c.Col]
}

// Swap 交换两个格子
func (g *Grid) Swap(a, b Coordinate) {
	g[a.Row][a.Col], g[b.Row][b.Col] = g[b.Row][b.Col], g[a.Row][a.Col]
}

// Count 统计某种颜色的格子数
func (g *Grid) Count(color Color) int {
	n := 0
	for r := range g {
		for c := range g[r] {
			if g[r][c] == color {
				n++
			}
		}
	}
	return n
}

// Validate 检查棋盘是否合法：每种颜色 9 格，不含 none
func (g *Grid) Validate() error {
	if n := g.Count(ColorNone); n > 0 {
		return fmt.Errorf("board has %d empty tiles", n)
	}
	for _, c := range TileColors {
		if n := g.Count(c); n != TilesPerColor {
			return fmt.Errorf("board has %d %s tiles, want %d", n, c, TilesPerColor)
		}
	}
	return nil
}

// Rows 序列化为颜色名称矩阵
func (g *Grid) Rows() [][]string {
	rows := make([][]string, BoardSize)
	for r := range g {
		rows[r] = make([]string, BoardSize)
		for c := range g[r] {
			rows[r][c] = g[r][c].String()
		}
	}
	return rows
}

// ParseGrid 从颜色名称矩阵解析棋盘
func ParseGrid(rows [][]string) (Grid, error) {
	var g Grid
	if len(rows) != BoardSize {
		return g, fmt.Errorf("board has %d rows, want %d", len(rows), BoardSize)
	}
	for r, row := range rows {
		if len(row) != BoardSize {
			return g, fmt.Errorf("board row %d has %d columns, want %d", r, len(row), BoardSize)
		}
		for c, name := range row {
			color, err := ParseColor(name)
			if err != nil {
				return g, fmt.Errorf("board tile %v: %w", Coord(r, c), err)
			}
			g[r][c] = color
		}
	}
	return g, nil
}

// MarshalJSON 以颜色名称矩阵输出
func (g Grid) MarshalJSON() ([]byte, error) {
	return json.Marshal(g.Rows())
}

// UnmarshalJSON 从颜色名称矩阵读取
func (g *Grid) UnmarshalJSON(data []byte) error {
	var rows [][]string
	if err := json.Unmarshal(data, &rows); err != nil {
		return err
	}
	parsed, err := ParseGrid(rows)
	if err != nil {
		return err
	}
	*g = parsed
	return nil
}

// TileSet 构成一个图形的格子集合
type TileSet []Coordinate

// Contains 是否包含坐标
func (t TileSet) Contains(c Coordinate) bool {
	return slices.Contains(t, c)
}

// SameTiles 无序比较两个集合
func (t TileSet) SameTiles(other TileSet) bool {
	if len(t) != len(other) {
		return false
	}
	for _, c := range other {
		if !t.Contains(c) {
			return false
		}
	}
	return true
}

// Sorted 返回按行优先排序后的副本
func (t TileSet) Sorted() TileSet {
	sorted := slices.Clone(t)
	slices.SortFunc(sorted, func(a, b Coordinate) int {
		if a.Row != b.Row {
			return a.Row - b.Row
		}
		return a.Col - b.Col
	})
	return sorted
}
