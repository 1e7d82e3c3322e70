package core

// FigureMatch 棋盘上找到的一个图形
type FigureMatch struct {
	Type  FigureType `json:"fig"`
	Tiles TileSet    `json:"tiles"`
}

// FindFigures 在棋盘上查找某种图形的全部孤立出现
//
// 扫描顺序为模板顺序、再按行优先遍历起点；禁用色的起点直接跳过。
// 同一组格子被不同模板重复找到时不去重，调用方按无序集合比较。
func FindFigures(t FigureType, board Grid, forbidden Color) []TileSet {
	var found []TileSet
	for _, path := range t.Paths() {
		for r := 0; r < BoardSize; r++ {
			for c := 0; c < BoardSize; c++ {
				tiles, ok := walkPath(path, &board, Coord(r, c), forbidden)
				if ok && isIsolated(tiles, &board) {
					found = append(found, tiles)
				}
			}
		}
	}
	return found
}

// FindAllFigures 对所有图形类型查找，与谁手中有卡无关
func FindAllFigures(board Grid, forbidden Color) []FigureMatch {
	var matches []FigureMatch
	for _, t := range AllFigureTypes() {
		for _, tiles := range FindFigures(t, board, forbidden) {
			matches = append(matches, FigureMatch{Type: t, Tiles: tiles})
		}
	}
	return matches
}

// FindFigureAt 查找包含指定格子的某种图形
func FindFigureAt(t FigureType, board Grid, forbidden Color, tile Coordinate) (TileSet, bool) {
	for _, tiles := range FindFigures(t, board, forbidden) {
		if tiles.Contains(tile) {
			return tiles, true
		}
	}
	return nil, false
}

// walkPath 从起点沿模板行走，返回经过的格子
//
// 普通步：相邻格同色时记录当前格并前进。
// 临时步：相邻格同色时记录相邻格，光标不动。
// 任意一步越界或异色，整条候选作废。
func walkPath(path Path, board *Grid, start Coordinate, forbidden Color) (TileSet, bool) {
	color := board.At(start)
	if color == forbidden {
		return nil, false
	}

	cursor := start
	visited := make(TileSet, 0, len(path)+1)
	for _, step := range path {
		dr, dc := step.Delta()
		next, ok := cursor.Neighbor(dr, dc)
		if !ok || board.At(next) != color {
			return nil, false
		}
		if step.Temporal() {
			visited = append(visited, next)
		} else {
			visited = append(visited, cursor)
			cursor = next
		}
	}
	visited = append(visited, cursor)

	for i := range visited {
		if visited[i+1:].Contains(visited[i]) {
			return nil, false
		}
	}
	return visited, true
}

// isIsolated 图形的每一格都不能有集合外的同色正交邻居
func isIsolated(tiles TileSet, board *Grid) bool {
	for _, tile := range tiles {
		color := board.At(tile)
		for _, d := range orthogonal {
			next, ok := tile.Neighbor(d[0], d[1])
			if !ok {
				continue
			}
			if board.At(next) == color && !tiles.Contains(next) {
				return false
			}
		}
	}
	return true
}
