package room

import "container/heap"

// PathRequest is one route query against a TileMap.
type PathRequest struct {
	From  Point
	To    Point
	FromZ float64
	Mover int
	// Walkthrough lets intermediate tiles ignore other entities. The goal
	// tile always respects occupancy.
	Walkthrough bool
	Override    bool
}

// FindPath searches an 8-directional route with uniform step cost and a
// Chebyshev heuristic. The result runs from the goal back to the tile
// adjacent to the start, so callers walk it from the last element. An
// empty result means no route exists.
//
// Ties in the open set are broken by heuristic, then by distance from the
// straight start→goal line, then by discovery order, so identical requests
// on an identical map always return the identical route.
func FindPath(m *TileMap, req PathRequest) []Point {
	if req.From == req.To || !m.InBounds(req.From) || !m.InBounds(req.To) {
		return nil
	}
	var flags OccupyFlags
	if req.Override {
		flags |= OverrideOccupancy
	}
	if m.Kind(req.To) == TileVoid {
		return nil
	}
	if !req.Override && (m.TerrainBlocked(req.To) || m.Held(req.To, req.Mover)) {
		return nil
	}

	n := m.sizeX * m.sizeY
	g := make([]int, n)
	parent := make([]int, n)
	closed := make([]bool, n)
	for i := range g {
		g[i] = -1
		parent[i] = -1
	}

	var seq int
	open := &nodeHeap{}
	start := m.idx(req.From)
	g[start] = 0
	heap.Push(open, &pathNode{p: req.From, h: Chebyshev(req.From, req.To), seq: seq})

	for open.Len() > 0 {
		cur := heap.Pop(open).(*pathNode)
		ci := m.idx(cur.p)
		if closed[ci] {
			continue
		}
		closed[ci] = true
		if cur.p == req.To {
			return unwind(m, parent, ci, start)
		}

		curZ := req.FromZ
		if cur.p != req.From {
			curZ = m.StandHeight(cur.p)
		}
		for rot := 0; rot < 8; rot++ {
			next := cur.p.Step(rot)
			if !m.InBounds(next) {
				continue
			}
			ni := m.idx(next)
			if closed[ni] {
				continue
			}
			if rot&1 == 1 && !req.Override && m.cornerBlocked(cur.p, rot) {
				continue
			}
			final := next == req.To
			nflags := flags
			if req.Walkthrough && !final {
				nflags |= IgnoreEntities
			}
			if !m.CanOccupy(next, curZ, final, req.Mover, nflags) {
				continue
			}
			ng := g[ci] + 1
			if g[ni] != -1 && ng >= g[ni] {
				continue
			}
			g[ni] = ng
			parent[ni] = ci
			seq++
			heap.Push(open, &pathNode{
				p:     next,
				g:     ng,
				h:     Chebyshev(next, req.To),
				cross: crossDeviation(next, req.From, req.To),
				seq:   seq,
			})
		}
	}
	return nil
}

// cornerBlocked rejects a diagonal step that would cut past a wall or
// solid furniture on either orthogonal side.
func (m *TileMap) cornerBlocked(from Point, rot int) bool {
	a := from.Step(rot - 1)
	b := from.Step(rot + 1)
	return m.TerrainBlocked(a) || m.TerrainBlocked(b)
}

func unwind(m *TileMap, parent []int, goal, start int) []Point {
	var path []Point
	for i := goal; i != start && i != -1; i = parent[i] {
		path = append(path, Point{X: i / m.sizeY, Y: i % m.sizeY})
	}
	return path
}

// crossDeviation measures how far p strays from the start→goal line.
func crossDeviation(p, start, goal Point) int {
	dx1, dy1 := p.X-goal.X, p.Y-goal.Y
	dx2, dy2 := start.X-goal.X, start.Y-goal.Y
	return abs(dx1*dy2 - dx2*dy1)
}

type pathNode struct {
	p     Point
	g, h  int
	cross int
	seq   int
}

type nodeHeap []*pathNode

func (h nodeHeap) Len() int { return len(h) }

func (h nodeHeap) Less(i, j int) bool {
	a, b := h[i], h[j]
	if fa, fb := a.g+a.h, b.g+b.h; fa != fb {
		return fa < fb
	}
	if a.h != b.h {
		return a.h < b.h
	}
	if a.cross != b.cross {
		return a.cross < b.cross
	}
	return a.seq < b.seq
}

func (h nodeHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *nodeHeap) Push(x any) { *h = append(*h, x.(*pathNode)) }

func (h *nodeHeap) Pop() any {
	old := *h
	n := len(old)
	it := old[n-1]
	*h = old[:n-1]
	return it
}
