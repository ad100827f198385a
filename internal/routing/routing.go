// Package routing implements the jump-graph shortest-ETA search (spec.md
// §4.4): Dijkstra over star systems connected by jump-point pairs, used
// both by TravelToSystem order expansion and by every planner that needs
// an ETA between two systems.
package routing

import (
	"container/heap"
	"math"

	"nebulacore/internal/simid"
	"nebulacore/internal/worldstate"
)

// Hop :
// A single jump-point transit on a planned route.
type Hop struct {
	JumpPointId  simid.Id
	LinkedJumpId simid.Id
	SystemId     simid.Id // system entered after this hop
	EtaDays      float64  // cumulative ETA at the moment this hop completes
}

// Route :
// The result of a route search.
type Route struct {
	Ok           bool
	TotalEtaDays float64
	Hops         []Hop
}

func dist(a, b worldstate.Vec2) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// pqItem / priority queue over jump point ids, ordered by tentative distance.
type pqItem struct {
	jumpId simid.Id
	dist   float64
	index  int
}

type priorityQueue []*pqItem

func (pq priorityQueue) Len() int            { return len(pq) }
func (pq priorityQueue) Less(i, j int) bool  { return pq[i].dist < pq[j].dist }
func (pq priorityQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].index = i
	pq[j].index = j
}
func (pq *priorityQueue) Push(x interface{}) {
	item := x.(*pqItem)
	item.index = len(*pq)
	*pq = append(*pq, item)
}
func (pq *priorityQueue) Pop() interface{} {
	old := *pq
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*pq = old[:n-1]
	return item
}

// PlanRoute :
// Computes the shortest-ETA route from (startSystem, startPos) to
// (goalSystem, goalPos) at the given travel speed (spec.md §4.4). When
// `restrictToDiscovered` is true, traversal may only pass through systems
// present in `discovered` (a faction-scoped variant); the start and goal
// systems are always allowed regardless of discovery, since the caller
// already knows about them.
func PlanRoute(state *worldstate.State, startSystem simid.Id, startPos worldstate.Vec2, speedMkmPerDay float64, goalSystem simid.Id, goalPos worldstate.Vec2, restrictToDiscovered bool, discovered map[simid.Id]bool) Route {
	if speedMkmPerDay <= 0 {
		return Route{Ok: false}
	}

	if startSystem == goalSystem {
		return Route{Ok: true, TotalEtaDays: dist(startPos, goalPos) / speedMkmPerDay}
	}

	allowed := func(systemId simid.Id) bool {
		if !restrictToDiscovered {
			return true
		}
		if systemId == startSystem || systemId == goalSystem {
			return true
		}
		return discovered[systemId]
	}

	// distTo[jp] = best known ETA (days) to arrive physically at jp's position.
	distTo := make(map[simid.Id]float64)
	prevHop := make(map[simid.Id]Hop)
	prevJump := make(map[simid.Id]simid.Id)

	pq := &priorityQueue{}
	heap.Init(pq)

	startSys, ok := state.Systems[startSystem]
	if !ok {
		return Route{Ok: false}
	}
	for _, jpId := range sortedIds(startSys.JumpPointIds) {
		jp, ok := state.JumpPoints[jpId]
		if !ok {
			continue
		}
		d := dist(startPos, jp.Position) / speedMkmPerDay
		distTo[jpId] = d
		heap.Push(pq, &pqItem{jumpId: jpId, dist: d})
	}

	for pq.Len() > 0 {
		cur := heap.Pop(pq).(*pqItem)
		jp, ok := state.JumpPoints[cur.jumpId]
		if !ok {
			continue
		}
		if cur.dist > distTo[cur.jumpId]+1e-9 {
			continue // stale entry
		}

		// Transit (zero cost) to the linked jump point, if allowed.
		if jp.LinkedJumpId != simid.InvalidId {
			linked, ok := state.JumpPoints[jp.LinkedJumpId]
			if ok && allowed(linked.SystemId) {
				nd := cur.dist
				if better(distTo, linked.Id, nd) {
					distTo[linked.Id] = nd
					prevJump[linked.Id] = cur.jumpId
					prevHop[linked.Id] = Hop{JumpPointId: jp.Id, LinkedJumpId: jp.LinkedJumpId, SystemId: linked.SystemId, EtaDays: nd}
					heap.Push(pq, &pqItem{jumpId: linked.Id, dist: nd})
				}
			}
		}

		// Intra-system travel to every other jump point in the same system.
		sys, ok := state.Systems[jp.SystemId]
		if !ok {
			continue
		}
		for _, otherId := range sortedIds(sys.JumpPointIds) {
			if otherId == cur.jumpId {
				continue
			}
			other, ok := state.JumpPoints[otherId]
			if !ok {
				continue
			}
			nd := cur.dist + dist(jp.Position, other.Position)/speedMkmPerDay
			if better(distTo, otherId, nd) {
				distTo[otherId] = nd
				prevJump[otherId] = cur.jumpId
				heap.Push(pq, &pqItem{jumpId: otherId, dist: nd})
			}
		}
	}

	// Best arrival: any jump point in the goal system, plus the final leg
	// from that jump point's position to goalPos.
	bestJump := simid.InvalidId
	bestEta := math.Inf(1)
	goalSys, ok := state.Systems[goalSystem]
	if !ok {
		return Route{Ok: false}
	}
	for _, jpId := range sortedIds(goalSys.JumpPointIds) {
		d, ok := distTo[jpId]
		if !ok {
			continue
		}
		jp := state.JumpPoints[jpId]
		total := d + dist(jp.Position, goalPos)/speedMkmPerDay
		if total < bestEta {
			bestEta = total
			bestJump = jpId
		}
	}
	if bestJump == simid.InvalidId {
		return Route{Ok: false}
	}

	// Reconstruct the hop sequence by walking prevJump back to a start jump.
	var hops []Hop
	cur := bestJump
	for {
		prev, hasPrev := prevJump[cur]
		if !hasPrev {
			break
		}
		jpCur := state.JumpPoints[cur]
		h, isTransit := prevHop[cur]
		if isTransit {
			hops = append([]Hop{h}, hops...)
		} else {
			hops = append([]Hop{{JumpPointId: prev, SystemId: jpCur.SystemId, EtaDays: distTo[cur]}}, hops...)
		}
		cur = prev
	}

	return Route{Ok: true, TotalEtaDays: bestEta, Hops: hops}
}

func better(distTo map[simid.Id]float64, id simid.Id, nd float64) bool {
	cur, ok := distTo[id]
	return !ok || nd < cur-1e-12
}

func sortedIds(ids []simid.Id) []simid.Id {
	out := append([]simid.Id{}, ids...)
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j] < out[j-1]; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}
