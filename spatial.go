package main

const (
	SpatialCellSize = 50.0 // comfortably above the largest hitbox edge
	SpatialCols     = 17   // ceil(800/50) + 1
	SpatialRows     = 13   // ceil(600/50) + 1
)

// SpatialGrid is a fixed-size grid used as a broad phase for
// laser-meteor queries. Meteor indices are inserted into every cell
// their box overlaps; queries walk the cells under the probe box.
type SpatialGrid struct {
	cells [SpatialCols * SpatialRows][]int
}

// Clear resets all cells (keeps allocated capacity)
func (g *SpatialGrid) Clear() {
	for i := range g.cells {
		g.cells[i] = g.cells[i][:0]
	}
}

func cellCoord(v float64, limit int) int {
	c := int(v / SpatialCellSize)
	if c < 0 {
		return 0
	}
	if c >= limit {
		return limit - 1
	}
	return c
}

// InsertRect adds an index to all cells the rect overlaps
func (g *SpatialGrid) InsertRect(r Rect, idx int) {
	minCX := cellCoord(r.X, SpatialCols)
	maxCX := cellCoord(r.X+r.W, SpatialCols)
	minCY := cellCoord(r.Y, SpatialRows)
	maxCY := cellCoord(r.Y+r.H, SpatialRows)
	for cy := minCY; cy <= maxCY; cy++ {
		for cx := minCX; cx <= maxCX; cx++ {
			cell := cy*SpatialCols + cx
			g.cells[cell] = append(g.cells[cell], idx)
		}
	}
}

// QueryRect visits every index whose cell range overlaps the rect.
// Indices spanning multiple cells are visited once. The visitor
// returns false to stop early.
func (g *SpatialGrid) QueryRect(r Rect, visit func(idx int) bool) {
	minCX := cellCoord(r.X, SpatialCols)
	maxCX := cellCoord(r.X+r.W, SpatialCols)
	minCY := cellCoord(r.Y, SpatialRows)
	maxCY := cellCoord(r.Y+r.H, SpatialRows)
	var seen map[int]bool
	if minCX != maxCX || minCY != maxCY {
		seen = make(map[int]bool, 8)
	}
	for cy := minCY; cy <= maxCY; cy++ {
		for cx := minCX; cx <= maxCX; cx++ {
			for _, idx := range g.cells[cy*SpatialCols+cx] {
				if seen != nil {
					if seen[idx] {
						continue
					}
					seen[idx] = true
				}
				if !visit(idx) {
					return
				}
			}
		}
	}
}
