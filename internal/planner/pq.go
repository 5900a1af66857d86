package planner

import "github.com/banshee-data/mazesolver/internal/maze"

// node is one partial route in the search, linked back towards the target.
type node struct {
	pos     maze.Coord
	heading maze.Direction // travel direction away from the target
	cost    int
	seq     int
	parent  *node
	index   int
}

// queue orders nodes by cost, breaking ties by discovery order so equal-cost
// routes resolve the same way on every call.
type queue []*node

func (q queue) Len() int { return len(q) }

func (q queue) Less(i, j int) bool {
	if q[i].cost != q[j].cost {
		return q[i].cost < q[j].cost
	}
	return q[i].seq < q[j].seq
}

func (q queue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *queue) Push(x any) {
	n := x.(*node)
	n.index = len(*q)
	*q = append(*q, n)
}

func (q *queue) Pop() any {
	old := *q
	last := len(old) - 1
	n := old[last]
	old[last] = nil
	n.index = -1
	*q = old[:last]
	return n
}
