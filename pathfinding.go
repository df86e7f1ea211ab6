package main

import (
	"container/heap"
	"math"
)

type navNeighbor struct {
	col      int
	row      int
	cost     float64
	diagonal bool
}

var navNeighborOffsets = [...]navNeighbor{
	{col: 0, row: -1, cost: 1},
	{col: 1, row: 0, cost: 1},
	{col: 0, row: 1, cost: 1},
	{col: -1, row: 0, cost: 1},
	{col: 1, row: -1, cost: math.Sqrt2, diagonal: true},
	{col: 1, row: 1, cost: math.Sqrt2, diagonal: true},
	{col: -1, row: 1, cost: math.Sqrt2, diagonal: true},
	{col: -1, row: -1, cost: math.Sqrt2, diagonal: true},
}

// navGrid quantizes the arena into fixed-size cells for potato pathfinding.
// A cell is walkable when a potato-sized circle at its center clears every
// obstacle and the arena bounds.
type navGrid struct {
	cols, rows int
	cellSize   float64
	walkable   []bool
}

func newNavGrid(obstacles []Obstacle, radius float64) *navGrid {
	cols := int(math.Ceil(ArenaWidth / NavCellSize))
	rows := int(math.Ceil(ArenaHeight / NavCellSize))
	grid := &navGrid{
		cols:     cols,
		rows:     rows,
		cellSize: NavCellSize,
		walkable: make([]bool, cols*rows),
	}

	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			center := grid.worldPos(col, row)
			grid.walkable[grid.index(col, row)] = !CircleBlocked(center, radius, obstacles)
		}
	}

	return grid
}

func (g *navGrid) inBounds(col, row int) bool {
	return col >= 0 && row >= 0 && col < g.cols && row < g.rows
}

func (g *navGrid) index(col, row int) int {
	return row*g.cols + col
}

func (g *navGrid) isWalkable(col, row int) bool {
	return g.inBounds(col, row) && g.walkable[g.index(col, row)]
}

func (g *navGrid) worldPos(col, row int) Vec2 {
	return Vec2{
		X: (float64(col) + 0.5) * g.cellSize,
		Y: (float64(row) + 0.5) * g.cellSize,
	}
}

// locate maps a world position to its grid cell
func (g *navGrid) locate(pos Vec2) (int, int) {
	col := int(Clamp(pos.X, 0, ArenaWidth-1) / g.cellSize)
	row := int(Clamp(pos.Y, 0, ArenaHeight-1) / g.cellSize)
	return col, row
}

// canTraverseDiagonal rejects corner cutting: a diagonal step needs both
// adjacent orthogonal cells to be walkable.
func (g *navGrid) canTraverseDiagonal(col, row int, delta navNeighbor) bool {
	if !delta.diagonal {
		return true
	}
	return g.isWalkable(col+delta.col, row) && g.isWalkable(col, row+delta.row)
}

type navPoint struct {
	col int
	row int
}

// heuristic is the octile distance between two cells
func (g *navGrid) heuristic(a, b navPoint) float64 {
	dx := math.Abs(float64(a.col - b.col))
	dy := math.Abs(float64(a.row - b.row))
	if dx > dy {
		return dx + (math.Sqrt2-1)*dy
	}
	return dy + (math.Sqrt2-1)*dx
}

type pathNode struct {
	point  navPoint
	g      float64
	f      float64
	index  int
	parent *pathNode
}

type pathQueue []*pathNode

func (pq pathQueue) Len() int { return len(pq) }

func (pq pathQueue) Less(i, j int) bool { return pq[i].f < pq[j].f }

func (pq pathQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].index = i
	pq[j].index = j
}

func (pq *pathQueue) Push(x any) {
	n := len(*pq)
	item := x.(*pathNode)
	item.index = n
	*pq = append(*pq, item)
}

func (pq *pathQueue) Pop() any {
	old := *pq
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*pq = old[:n-1]
	return item
}

// astar runs a best-first search bounded by PathNodeBudget expansions.
// Exhausting the budget returns ok=false; callers degrade to straight-line
// movement instead of treating that as an error.
func (g *navGrid) astar(start, goal navPoint) ([]navPoint, bool) {
	open := &pathQueue{}
	heap.Init(open)
	heap.Push(open, &pathNode{point: start, f: g.heuristic(start, goal)})
	gScore := map[int]float64{g.index(start.col, start.row): 0}
	closed := make(map[int]struct{})

	expanded := 0
	for open.Len() > 0 && expanded < PathNodeBudget {
		current := heap.Pop(open).(*pathNode)
		currIdx := g.index(current.point.col, current.point.row)
		if _, seen := closed[currIdx]; seen {
			continue
		}
		closed[currIdx] = struct{}{}
		expanded++

		if current.point == goal {
			return reconstructPath(current), true
		}

		for _, delta := range navNeighborOffsets {
			if !g.canTraverseDiagonal(current.point.col, current.point.row, delta) {
				continue
			}
			nc := current.point.col + delta.col
			nr := current.point.row + delta.row
			if !g.isWalkable(nc, nr) {
				continue
			}
			idx := g.index(nc, nr)
			if _, seen := closed[idx]; seen {
				continue
			}
			tentativeG := current.g + delta.cost
			if prev, ok := gScore[idx]; ok && tentativeG >= prev {
				continue
			}
			gScore[idx] = tentativeG
			next := navPoint{col: nc, row: nr}
			heap.Push(open, &pathNode{
				point:  next,
				g:      tentativeG,
				f:      tentativeG + g.heuristic(next, goal),
				parent: current,
			})
		}
	}
	return nil, false
}

func reconstructPath(end *pathNode) []navPoint {
	path := make([]navPoint, 0)
	for node := end; node != nil; node = node.parent {
		path = append(path, node.point)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// FindPath computes waypoints from start to target in world coordinates.
// The final waypoint is replaced by the exact target when the cell path ends
// adjacent to it. Returns ok=false when no path was found within budget.
func (g *navGrid) FindPath(start, target Vec2) ([]Vec2, bool) {
	startCol, startRow := g.locate(start)
	goalCol, goalRow := g.locate(target)

	if !g.isWalkable(goalCol, goalRow) {
		return nil, false
	}
	if !g.isWalkable(startCol, startRow) {
		// The potato can brush a wall the grid considers blocked; search
		// from the nearest open neighbor instead.
		found := false
		for _, delta := range navNeighborOffsets {
			if g.isWalkable(startCol+delta.col, startRow+delta.row) {
				startCol += delta.col
				startRow += delta.row
				found = true
				break
			}
		}
		if !found {
			return nil, false
		}
	}

	nodes, ok := g.astar(navPoint{col: startCol, row: startRow}, navPoint{col: goalCol, row: goalRow})
	if !ok || len(nodes) == 0 {
		return nil, false
	}
	if len(nodes) == 1 {
		return []Vec2{target}, true
	}

	path := make([]Vec2, 0, len(nodes))
	for i := 1; i < len(nodes); i++ {
		path = append(path, g.worldPos(nodes[i].col, nodes[i].row))
	}
	last := path[len(path)-1]
	if Distance(last, target) > 1 {
		path = append(path, target)
	} else {
		path[len(path)-1] = target
	}
	return path, true
}
