package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// checkerGrid 蓝黄相间的棋盘，不存在同色相邻
func checkerGrid() Grid {
	var g Grid
	for r := 0; r < BoardSize; r++ {
		for c := 0; c < BoardSize; c++ {
			if (r+c)%2 == 0 {
				g[r][c] = ColorBlue
			} else {
				g[r][c] = ColorYellow
			}
		}
	}
	return g
}

func paint(g *Grid, color Color, tiles ...Coordinate) {
	for _, tile := range tiles {
		g[tile.Row][tile.Col] = color
	}
}

func TestFigureCatalog(t *testing.T) {
	assert.Len(t, AllFigureTypes(), 25)
	assert.Len(t, FigureTypesByDifficulty(Difficult), DifficultFigureCount)
	assert.Len(t, FigureTypesByDifficulty(Easy), EasyFigureCount)

	for _, ft := range AllFigureTypes() {
		want := 5
		if ft.Difficulty() == Easy {
			want = 4
		}
		require.NotEmpty(t, ft.Paths(), ft.Name())
		for _, p := range ft.Paths() {
			assert.Len(t, p, want-1, ft.Name())
		}
		assert.Equal(t, want, ft.TileCount(), ft.Name())

		parsed, err := ParseFigureType(ft.Name())
		require.NoError(t, err)
		assert.Equal(t, ft, parsed)
	}

	assert.Equal(t, "fig05", Fig05.Name())
	assert.Equal(t, "fige07", Fige07.Name())

	_, err := ParseFigureType("fig19")
	assert.ErrorIs(t, err, ErrUnknownFigureType)
}

// TestFindFiguresVerticalLine 第 0 列前五行为红色，第六行为蓝色
func TestFindFiguresVerticalLine(t *testing.T) {
	g := checkerGrid()
	paint(&g, ColorRed, Coord(0, 0), Coord(1, 0), Coord(2, 0), Coord(3, 0), Coord(4, 0))
	paint(&g, ColorBlue, Coord(5, 0))

	found := FindFigures(Fig05, g, ColorNone)

	require.Len(t, found, 1)
	assert.Equal(t, TileSet{Coord(0, 0), Coord(1, 0), Coord(2, 0), Coord(3, 0), Coord(4, 0)}, found[0])
}

// TestFindFiguresIsolation 六格同色直线中任取五格都不孤立
func TestFindFiguresIsolation(t *testing.T) {
	g := checkerGrid()
	row := make([]Coordinate, 0, BoardSize)
	for c := 0; c < BoardSize; c++ {
		row = append(row, Coord(0, c))
	}
	paint(&g, ColorRed, row...)

	assert.Empty(t, FindFigures(Fig05, g, ColorNone))
	assert.Empty(t, FindFigures(Fige06, g, ColorNone))

	paint(&g, ColorGreen, Coord(0, 5))
	found := FindFigures(Fig05, g, ColorNone)
	require.Len(t, found, 1)
	assert.True(t, found[0].SameTiles(TileSet(row[:5])))
}

// TestFindFiguresSideNeighbor 侧面有同色格子时不算孤立
func TestFindFiguresSideNeighbor(t *testing.T) {
	g := checkerGrid()
	paint(&g, ColorRed, Coord(2, 0), Coord(2, 1), Coord(2, 2), Coord(2, 3))
	require.Len(t, FindFigures(Fige06, g, ColorNone), 1)

	paint(&g, ColorRed, Coord(3, 2))
	assert.Empty(t, FindFigures(Fige06, g, ColorNone))
}

func TestFindFiguresForbiddenColor(t *testing.T) {
	g := checkerGrid()
	paint(&g, ColorRed, Coord(3, 1), Coord(3, 2), Coord(3, 3), Coord(3, 4), Coord(3, 5))

	require.Len(t, FindFigures(Fig05, g, ColorNone), 1)
	assert.Empty(t, FindFigures(Fig05, g, ColorRed))
	assert.Len(t, FindFigures(Fig05, g, ColorGreen), 1)
}

// TestTemporalStep 临时步计入相邻格但不前进
func TestTemporalStep(t *testing.T) {
	t.Run("easy T shape", func(t *testing.T) {
		g := checkerGrid()
		paint(&g, ColorGreen, Coord(1, 0), Coord(1, 1), Coord(1, 2), Coord(0, 1))

		found := FindFigures(Fige04, g, ColorNone)
		require.Len(t, found, 1)
		assert.Len(t, found[0], 4)
		assert.True(t, found[0].SameTiles(TileSet{Coord(1, 0), Coord(1, 1), Coord(1, 2), Coord(0, 1)}))
	})

	t.Run("one temporal three plain", func(t *testing.T) {
		g := checkerGrid()
		want := TileSet{Coord(0, 0), Coord(1, 0), Coord(2, 0), Coord(1, 1), Coord(1, 2)}
		paint(&g, ColorGreen, want...)

		tiles, ok := walkPath(Path{Down, TDown, Right, Right}, &g, Coord(0, 0), ColorNone)
		require.True(t, ok)
		assert.Len(t, tiles, 5)
		assert.True(t, tiles.SameTiles(want))

		found := FindFigures(Fig01, g, ColorNone)
		require.NotEmpty(t, found)
		for _, f := range found {
			assert.True(t, f.SameTiles(want))
		}
	})

	t.Run("plus shape", func(t *testing.T) {
		g := checkerGrid()
		want := TileSet{Coord(2, 1), Coord(2, 2), Coord(2, 3), Coord(1, 2), Coord(3, 2)}
		paint(&g, ColorRed, want...)

		found := FindFigures(Fig17, g, ColorNone)
		require.Len(t, found, 1)
		assert.True(t, found[0].SameTiles(want))
	})
}

func TestWalkPathRejects(t *testing.T) {
	g := checkerGrid()
	paint(&g, ColorRed, Coord(0, 4), Coord(0, 5))

	_, ok := walkPath(Path{Right, Right}, &g, Coord(0, 4), ColorNone)
	assert.False(t, ok, "off the board")

	_, ok = walkPath(Path{Right}, &g, Coord(0, 3), ColorNone)
	assert.False(t, ok, "color changes")

	_, ok = walkPath(Path{Right}, &g, Coord(0, 4), ColorRed)
	assert.False(t, ok, "forbidden start")

	_, ok = walkPath(Path{Right, TLeft}, &g, Coord(0, 4), ColorNone)
	assert.False(t, ok, "temporal step revisits a tile")
}

func TestFindAllFigures(t *testing.T) {
	g := checkerGrid()
	paint(&g, ColorRed, Coord(5, 1), Coord(5, 2), Coord(5, 3), Coord(5, 4), Coord(5, 5))
	paint(&g, ColorGreen, Coord(0, 0), Coord(0, 1), Coord(1, 1), Coord(1, 2))

	matches := FindAllFigures(g, ColorNone)

	var types []FigureType
	for _, m := range matches {
		types = append(types, m.Type)
	}
	assert.Contains(t, types, Fig05)
	assert.Contains(t, types, Fige03)
	assert.NotContains(t, types, Fige06)

	matches = FindAllFigures(g, ColorRed)
	for _, m := range matches {
		assert.NotEqual(t, Fig05, m.Type)
	}
}

func TestFindFigureAt(t *testing.T) {
	g := checkerGrid()
	paint(&g, ColorRed, Coord(4, 0), Coord(4, 1), Coord(4, 2), Coord(4, 3))

	tiles, ok := FindFigureAt(Fige06, g, ColorNone, Coord(4, 2))
	require.True(t, ok)
	assert.Len(t, tiles, 4)

	_, ok = FindFigureAt(Fige06, g, ColorNone, Coord(3, 2))
	assert.False(t, ok)
}
