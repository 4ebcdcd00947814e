package matcher

// A maximum-weight bipartite matching where one side's capacity is
// expanded into unit-capacity seats reduces to a min-cost max-flow problem:
// source -> participant (cap 1, cost 0), participant -> seat (cap 1, cost
// -weight) for every admissible edge, seat -> sink (cap 1, cost 0). Finding
// a min-cost flow of value len(participants) and negating its cost back
// gives the maximum-weight assignment. This package has no third-party
// dependency to reach for: the pack's only matching code (lvlath's
// Christofides helper) explicitly punts on exact weighted matching, so the
// solver below is original, grounded solely in algorithms.cpp's use of
// Boost's maximum_weighted_matching for the same graph shape.

type flowEdge struct {
	to, cap, flow int
	cost          int64
}

type mcmf struct {
	edges []flowEdge
	adj   [][]int // adj[v] = indices into edges of edges leaving v
	n     int
}

func newMCMF(n int) *mcmf {
	return &mcmf{adj: make([][]int, n), n: n}
}

func (m *mcmf) addEdge(from, to, cap int, cost int64) {
	m.adj[from] = append(m.adj[from], len(m.edges))
	m.edges = append(m.edges, flowEdge{to: to, cap: cap, cost: cost})
	m.adj[to] = append(m.adj[to], len(m.edges))
	m.edges = append(m.edges, flowEdge{to: from, cap: 0, cost: -cost})
}

const infCost = int64(1) << 60

// run finds a min-cost flow from s to t of at most maxFlow units using
// successive shortest augmenting paths (Bellman-Ford/SPFA, which tolerates
// the negative edges introduced by negated weights). shouldStop is polled
// between augmentations so a cooperative cancellation request can abort the
// search without corrupting flow state; pass nil to run uninterruptibly.
// Returns the flow value actually achieved, its total cost, and whether the
// run was aborted by shouldStop.
func (m *mcmf) run(s, t, maxFlow int, shouldStop func() bool) (flow int, cost int64, interrupted bool) {
	totalFlow := 0
	var totalCost int64

	dist := make([]int64, m.n)
	inQueue := make([]bool, m.n)
	prevEdge := make([]int, m.n)

	for totalFlow < maxFlow {
		if shouldStop != nil && shouldStop() {
			return totalFlow, totalCost, true
		}

		for i := range dist {
			dist[i] = infCost
			prevEdge[i] = -1
		}
		dist[s] = 0
		queue := []int{s}
		inQueue[s] = true
		for len(queue) > 0 {
			v := queue[0]
			queue = queue[1:]
			inQueue[v] = false
			for _, eid := range m.adj[v] {
				e := m.edges[eid]
				if e.cap-e.flow <= 0 {
					continue
				}
				nd := dist[v] + e.cost
				if nd < dist[e.to] {
					dist[e.to] = nd
					prevEdge[e.to] = eid
					if !inQueue[e.to] {
						queue = append(queue, e.to)
						inQueue[e.to] = true
					}
				}
			}
		}

		if dist[t] == infCost {
			break // no more augmenting paths: max flow reached
		}

		// every path in this construction has unit bottleneck capacity
		augment := 1
		v := t
		for v != s {
			eid := prevEdge[v]
			m.edges[eid].flow += augment
			m.edges[eid^1].flow -= augment
			v = m.edges[eid^1].to
		}
		totalFlow += augment
		totalCost += dist[t] * int64(augment)
	}

	return totalFlow, totalCost, false
}
