// Package systems provides the per-tick simulation systems: spatial indexing,
// perception, movement, collision resolution and target placement.
package systems

import (
	"math"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/orbs/components"
)

// NoExclude can be passed as an exclude ID when no entry should be skipped.
// Entity IDs start at 1.
const NoExclude uint32 = 0

// Quadrant indices, in the order children are stored.
const (
	QuadNE = iota
	QuadNW
	QuadSW
	QuadSE
)

// Rect is an axis-aligned rectangle with its origin at the top-left corner.
type Rect struct {
	X, Y, W, H float32
}

// Contains reports whether the point lies inside the rectangle.
func (r Rect) Contains(x, y float32) bool {
	return x >= r.X && x <= r.X+r.W && y >= r.Y && y <= r.Y+r.H
}

// DistanceTo returns the distance from the point to the nearest point of the
// rectangle, zero when the point is inside.
func (r Rect) DistanceTo(x, y float32) float32 {
	dx := clampFloat(x, r.X, r.X+r.W) - x
	dy := clampFloat(y, r.Y, r.Y+r.H) - y
	return float32(math.Sqrt(float64(dx*dx + dy*dy)))
}

// Entry is a snapshot of one entity placed in the quad-tree.
type Entry struct {
	ID     uint32
	Entity ecs.Entity
	Kind   components.Kind
	X, Y   float32
	Radius float32
}

// valid reports whether the entry has usable geometry.
func (e Entry) valid() bool {
	return !isNaN(e.X) && !isNaN(e.Y) && !isNaN(e.Radius) && e.Radius >= 0
}

type quadNode struct {
	bounds   Rect
	level    int
	entries  []Entry
	children int // index of the NE child in QuadTree.nodes, -1 for a leaf
}

// QuadTree partitions entries by position for proximity queries.
// Nodes live in one slice that is reused across Clear calls, so a tree
// rebuilt every tick stops allocating once it has reached its working size.
type QuadTree struct {
	bounds   Rect
	capacity int
	maxDepth int
	nodes    []quadNode
	count    int
}

// NewQuadTree creates an empty tree covering bounds. A node holding more than
// capacity entries splits unless it is already at maxDepth.
func NewQuadTree(bounds Rect, capacity, maxDepth int) *QuadTree {
	if capacity < 1 {
		capacity = 1
	}
	q := &QuadTree{bounds: bounds, capacity: capacity, maxDepth: maxDepth}
	q.Clear()
	return q
}

// Clear removes every entry and collapses the tree to its root.
func (q *QuadTree) Clear() {
	q.nodes = q.nodes[:0]
	q.count = 0
	q.newNode(q.bounds, 0)
}

// Bounds returns the root rectangle.
func (q *QuadTree) Bounds() Rect { return q.bounds }

// Len returns the number of inserted entries.
func (q *QuadTree) Len() int { return q.count }

// NodeCount returns the number of nodes in use.
func (q *QuadTree) NodeCount() int { return len(q.nodes) }

func (q *QuadTree) newNode(bounds Rect, level int) int {
	idx := len(q.nodes)
	if idx < cap(q.nodes) {
		q.nodes = q.nodes[:idx+1]
		n := &q.nodes[idx]
		n.bounds = bounds
		n.level = level
		n.entries = n.entries[:0]
		n.children = -1
		return idx
	}
	q.nodes = append(q.nodes, quadNode{bounds: bounds, level: level, children: -1})
	return idx
}

// Insert adds an entry. Entries whose circle crosses a split line stay in the
// node that owns the line.
func (q *QuadTree) Insert(e Entry) {
	q.count++
	q.insert(0, e)
}

func (q *QuadTree) insert(idx int, e Entry) {
	if first := q.nodes[idx].children; first >= 0 {
		if quad := quadrantOf(q.nodes[idx].bounds, e); quad >= 0 {
			q.insert(first+quad, e)
			return
		}
	}

	q.nodes[idx].entries = append(q.nodes[idx].entries, e)
	n := q.nodes[idx]
	if n.children >= 0 || len(n.entries) <= q.capacity || n.level >= q.maxDepth {
		return
	}

	first := q.split(idx)
	entries := q.nodes[idx].entries
	kept := entries[:0]
	for _, it := range entries {
		if quad := quadrantOf(n.bounds, it); quad >= 0 {
			q.insert(first+quad, it)
		} else {
			kept = append(kept, it)
		}
	}
	q.nodes[idx].entries = kept
}

// split creates four equal children and returns the index of the first.
func (q *QuadTree) split(idx int) int {
	b := q.nodes[idx].bounds
	level := q.nodes[idx].level + 1
	hw, hh := b.W/2, b.H/2

	first := q.newNode(Rect{X: b.X + hw, Y: b.Y, W: hw, H: hh}, level)
	q.newNode(Rect{X: b.X, Y: b.Y, W: hw, H: hh}, level)
	q.newNode(Rect{X: b.X, Y: b.Y + hh, W: hw, H: hh}, level)
	q.newNode(Rect{X: b.X + hw, Y: b.Y + hh, W: hw, H: hh}, level)
	q.nodes[idx].children = first
	return first
}

// quadrantOf returns the child quadrant fully containing the entry's circle,
// or -1 when it crosses the node's midlines.
func quadrantOf(b Rect, e Entry) int {
	midX := b.X + b.W/2
	midY := b.Y + b.H/2

	top := e.Y+e.Radius < midY
	bottom := e.Y-e.Radius > midY
	left := e.X+e.Radius < midX
	right := e.X-e.Radius > midX

	switch {
	case right && top:
		return QuadNE
	case left && top:
		return QuadNW
	case left && bottom:
		return QuadSW
	case right && bottom:
		return QuadSE
	}
	return -1
}

// Retrieve appends the entries that could touch query's circle to dst.
// It descends into the quadrant holding the query point plus any sibling
// within the query radius. The query itself is skipped by ID.
func (q *QuadTree) Retrieve(dst []Entry, query Entry) []Entry {
	return q.RetrieveRadius(dst, query.X, query.Y, query.Radius, query.ID)
}

// RetrieveRadius appends every entry stored in a node whose rectangle lies
// within radius of (x, y). The result is a superset of the entries actually in
// range; callers filter by exact geometry.
func (q *QuadTree) RetrieveRadius(dst []Entry, x, y, radius float32, exclude uint32) []Entry {
	return q.retrieve(dst, 0, x, y, radius, exclude)
}

func (q *QuadTree) retrieve(dst []Entry, idx int, x, y, radius float32, exclude uint32) []Entry {
	n := &q.nodes[idx]
	for _, e := range n.entries {
		if e.ID != exclude || exclude == NoExclude {
			dst = append(dst, e)
		}
	}
	if n.children < 0 {
		return dst
	}
	for c := n.children; c < n.children+4; c++ {
		if q.nodes[c].bounds.DistanceTo(x, y) <= radius {
			dst = q.retrieve(dst, c, x, y, radius, exclude)
		}
	}
	return dst
}

// VisitNodes calls fn for every node, parents before children.
func (q *QuadTree) VisitNodes(fn func(bounds Rect, level, entries int)) {
	for _, n := range q.nodes {
		fn(n.bounds, n.level, len(n.entries))
	}
}
