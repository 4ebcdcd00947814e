package matcher

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/fsmi/gruppenzuteilung/pkg/assignment/interrupt"
)

// Result is the outcome of one matching calculation: Assignment[p] is the
// group index participant p was matched to, or -1 if p was already
// assigned and therefore excluded from the graph (never -1 for a
// participant that took part in the matching and the run succeeded).
type Result struct {
	Assignment []int
	Weight     int64
}

// Calculate builds the bipartite graph for every unassigned participant and
// finds a maximum-weight assignment of participants to seats. It runs the
// flow search on a worker goroutine so a cooperative interrupt request
// (interrupt.Requested) can abort it between augmenting paths without
// leaving the caller blocked; a second SIGINT is handled by the interrupt
// package itself by exiting the process outright.
//
// Returns an error if any participant has no admissible group, if there is
// not enough total capacity for the participants needing assignment, or if
// the run is interrupted.
func Calculate(s stateView, params Params, log *zap.Logger) (Result, error) {
	g, err := buildGraph(s, params)
	if err != nil {
		return Result{}, err
	}

	numParticipants := len(g.participants)
	numSeats := len(g.seatGroup)

	source := 0
	participantBase := 1
	seatBase := participantBase + numParticipants
	sink := seatBase + numSeats

	flow := newMCMF(sink + 1)
	for i := range g.participants {
		flow.addEdge(source, participantBase+i, 1, 0)
	}
	for j := range g.seatGroup {
		flow.addEdge(seatBase+j, sink, 1, 0)
	}
	for i := range g.participants {
		for j := range g.seatGroup {
			if g.hasEdge(i, j) {
				flow.addEdge(participantBase+i, seatBase+j, 1, -g.edgeWeight(i, j))
			}
		}
	}

	type runResult struct {
		value int
		cost  int64
		ok    bool
	}
	done := make(chan runResult, 1)
	go func() {
		value, cost, interrupted := flow.run(source, sink, numParticipants, interrupt.Requested)
		done <- runResult{value: value, cost: cost, ok: !interrupted}
	}()
	rr := <-done

	if !rr.ok {
		return Result{}, fmt.Errorf("matcher: interrupted during calculation")
	}
	if rr.value < numParticipants {
		return Result{}, fmt.Errorf("matcher: no feasible assignment for all %d participants (matched %d)",
			numParticipants, rr.value)
	}

	assignment := make([]int, s.NumParticipants())
	for i := range assignment {
		assignment[i] = -1
	}
	for i, part := range g.participants {
		found := false
		for _, eid := range flow.adj[participantBase+i] {
			e := flow.edges[eid]
			if e.cap == 1 && e.flow == 1 && e.to >= seatBase && e.to < sink {
				assignment[part] = g.seatGroup[e.to-seatBase]
				found = true
				break
			}
		}
		if !found {
			return Result{}, fmt.Errorf("matcher: participant %d not assigned by a successful flow", part)
		}
	}

	if log != nil {
		log.Debug("matching calculated",
			zap.Int("participants", numParticipants),
			zap.Int("seats", numSeats),
			zap.Int64("weight", -rr.cost))
	}

	return Result{Assignment: assignment, Weight: -rr.cost}, nil
}
