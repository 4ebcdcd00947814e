// Package matcher computes a maximum-weight assignment of unassigned
// participants to group seats, one seat per capacity unit, subject to
// course/degree eligibility and installed filters. The assignment step
// never mutates State itself; callers apply the result through
// state.AssignParticipant (see the scheduler package).
package matcher

import (
	"fmt"
	"math"

	"github.com/fsmi/gruppenzuteilung/pkg/assignment/model"
	"github.com/fsmi/gruppenzuteilung/pkg/assignment/state"
)

// stateView is the subset of *state.State the graph builder needs; kept
// narrow so tests can exercise it against a fake.
type stateView interface {
	NumGroups() int
	NumParticipants() int
	GroupData(g int) model.GroupData
	GroupCapacity(g int) int
	GroupMinSize(g int) int
	GroupIsEnabled(g int) bool
	IsAssigned(p int) bool
	IsTeam(p int) bool
	TeamData(p int) model.TeamData
	StudentData(p int) model.StudentData
	Members(p int) []model.StudentData
	Rating(p int) []model.Rating
	IsExcludedFromGroup(p int, g int) bool
}

// eligible reports whether the course/degree type of a group admits a
// participant, with Any treated as a wildcard on either side (see
// model.CourseCompatible/DegreeCompatible).
func eligible(group model.GroupData, student model.StudentData) bool {
	return model.CourseCompatible(student.CourseType, group.CourseType) &&
		model.DegreeCompatible(student.DegreeType, group.DegreeType)
}

func participantEligible(s stateView, p int, g int) bool {
	gd := s.GroupData(g)
	for _, m := range s.Members(p) {
		if !eligible(gd, m) {
			return false
		}
	}
	return true
}

// MinGroupSizeEffect is the number of distinct rating steps applied across a
// group's seats to bias the matcher toward filling groups up to their
// minimum target size before further improving already-healthy groups. It
// mirrors Config.MinGroupSizeEffect.
type Params struct {
	MinGroupSizeEffect int
	UseMinGroupSizes   bool
}

// graph is a unit-capacity bipartite network: one node per unassigned
// participant, one node per open seat (a group's capacity is expanded into
// that many seat nodes so the per-seat rating step can be encoded as
// distinct edge weights).
type graph struct {
	participants []int // participant index for graph row i
	seatGroup    []int // group index for graph seat j
	// weight[i][j] is 0 (absent) when the edge does not exist, else
	// 1+rating so zero can mean "no edge"; see edgeWeight/hasEdge.
	weight [][]uint32
}

// noAvailableGroupsErr reports a participant with zero admissible groups.
type noAvailableGroupsErr struct {
	name string
}

func (e *noAvailableGroupsErr) Error() string {
	return fmt.Sprintf("matcher: no group available for participant %q", e.name)
}

// buildGraph constructs the bipartite weighted graph for every currently
// unassigned participant against every seat of every enabled group,
// applying the gradual rating step that nudges the solver toward the
// configured minimum group sizes. Returns an error if any participant has
// no admissible group at all, or if there are more participants than
// seats.
func buildGraph(s stateView, params Params) (*graph, error) {
	var seatGroup []int
	groupFirstSeat := make([]int, s.NumGroups()+1)
	for g := 0; g < s.NumGroups(); g++ {
		if s.GroupIsEnabled(g) {
			for j := 0; j < s.GroupCapacity(g); j++ {
				seatGroup = append(seatGroup, g)
			}
		}
		groupFirstSeat[g+1] = len(seatGroup)
	}

	var participants []int
	for p := 0; p < s.NumParticipants(); p++ {
		if !s.IsAssigned(p) {
			participants = append(participants, p)
		}
	}

	if len(participants) > len(seatGroup) {
		return nil, fmt.Errorf("matcher: not enough capacity available: %d participants but only %d seats",
			len(participants), len(seatGroup))
	}

	g := &graph{
		participants: participants,
		seatGroup:    seatGroup,
		weight:       make([][]uint32, len(participants)),
	}

	numGroups := uint32(s.NumGroups())
	for i, part := range participants {
		row := make([]uint32, len(seatGroup))
		rating := s.Rating(part)
		numAvailable := 0
		for group := 0; group < s.NumGroups(); group++ {
			if !s.GroupIsEnabled(group) {
				continue
			}
			if s.IsExcludedFromGroup(part, group) || !participantEligible(s, part, group) {
				continue
			}
			numAvailable++

			capacity := groupFirstSeat[group+1] - groupFirstSeat[group]
			minRating := rating[group].Value(numGroups)
			maxRating := minRating + uint32(params.MinGroupSizeEffect)
			minSize := s.GroupMinSize(group)

			currentRating := maxRating
			currentTarget := float64(minSize)
			stepFactor := 1.0
			if params.UseMinGroupSizes && minSize > 0 && params.MinGroupSizeEffect > 0 {
				stepFactor = math.Pow(float64(capacity)/float64(minSize), 1.0/float64(params.MinGroupSizeEffect))
			}
			for j := 0; j < capacity; j++ {
				seat := groupFirstSeat[group] + j
				row[seat] = currentRating + 1 // +1 so 0 means "absent"
				if params.UseMinGroupSizes && minSize > 0 && float64(j)+1.99 >= currentTarget {
					currentTarget *= stepFactor
					if currentRating > minRating {
						currentRating--
					}
				}
			}
		}

		if numAvailable == 0 {
			return nil, &noAvailableGroupsErr{name: participantName(s, part)}
		}
		g.weight[i] = row
	}

	return g, nil
}

func participantName(s stateView, p int) string {
	if s.IsTeam(p) {
		return s.TeamData(p).ID
	}
	return s.StudentData(p).Name
}

func (g *graph) hasEdge(i, j int) bool {
	return g.weight[i][j] != 0
}

func (g *graph) edgeWeight(i, j int) int64 {
	return int64(g.weight[i][j]) - 1
}
