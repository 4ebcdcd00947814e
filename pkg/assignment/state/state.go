// Package state holds the mutable placement state the assignment engine
// solves over: which group each participant (team or lone student) is
// assigned to, remaining group capacity, accumulated rating weight, and the
// filters installed on each group.
package state

import (
	"fmt"
	"math"

	"github.com/fsmi/gruppenzuteilung/pkg/assignment/filter"
	"github.com/fsmi/gruppenzuteilung/pkg/assignment/model"
)

// Assignment pairs a student index with the participant (team or lone
// student) that owns the seat, preserving team identity inside a group's
// assignment list.
type Assignment struct {
	StudentIndex     int
	ParticipantIndex int
}

// GroupState is the mutable per-group placement state.
type GroupState struct {
	Capacity int // remaining capacity
	Enabled  bool
	Weight   uint32
	Filters  []filter.Filter
}

// Participant is either a team (IsTeam true, Index into Input.Teams) or a
// lone student (IsTeam false, Index into Input.Students). Assignment is -1
// when unassigned, else a group index.
type Participant struct {
	Index      int
	IsTeam     bool
	Assignment int
}

// Params configures invariant checks performed when a State is built.
type Params struct {
	// AllowDefaultRatings replaces missing student ratings with the worst
	// possible rating instead of failing construction.
	AllowDefaultRatings bool
	// CapacityBufferFactor is the minimum ratio of enabled capacity to
	// student count that must hold at construction (invariant 5).
	CapacityBufferFactor float64
}

// State is the mutable placement state derived from an Input.
type State struct {
	input            *model.Input
	groupStates      []GroupState
	groupAssignments [][]Assignment
	participants     []Participant
}

// New builds a State from an Input: backfills team ratings, demotes
// singleton teams to lone students, and checks the capacity-buffer
// invariant. input is retained by reference; callers must not mutate it
// afterwards except through the State's own methods.
func New(input *model.Input, params Params) (*State, error) {
	if err := model.BackfillTeamRatings(input, params.AllowDefaultRatings); err != nil {
		return nil, err
	}

	s := &State{
		input:            input,
		groupStates:      make([]GroupState, len(input.Groups)),
		groupAssignments: make([][]Assignment, len(input.Groups)),
	}
	for g, gd := range input.Groups {
		s.groupStates[g] = GroupState{Capacity: gd.Capacity, Enabled: true}
	}

	inTeam := make([]bool, len(input.Students))
	for ti, team := range input.Teams {
		if len(team.Members) > 1 {
			for _, m := range team.Members {
				inTeam[m] = true
			}
			s.participants = append(s.participants, Participant{Index: ti, IsTeam: true, Assignment: -1})
		}
	}
	for i, used := range inTeam {
		if !used {
			s.participants = append(s.participants, Participant{Index: i, IsTeam: false, Assignment: -1})
		}
	}

	required := math.Ceil(params.CapacityBufferFactor * float64(len(input.Students)))
	if float64(s.TotalActiveGroupCapacity()) < required {
		return nil, fmt.Errorf("state: total active capacity %d below capacity buffer requirement %.0f",
			s.TotalActiveGroupCapacity(), required)
	}

	return s, nil
}

// Input returns the (shared, immutable) input this state was built from.
func (s *State) Input() *model.Input {
	return s.input
}

// NumGroups returns the total number of groups (enabled or not).
func (s *State) NumGroups() int {
	return len(s.input.Groups)
}

// NumActiveGroups returns the number of currently enabled groups.
func (s *State) NumActiveGroups() int {
	n := 0
	for _, gs := range s.groupStates {
		if gs.Enabled {
			n++
		}
	}
	return n
}

// TotalActiveGroupCapacity sums remaining capacity over enabled groups.
func (s *State) TotalActiveGroupCapacity() int {
	total := 0
	for _, gs := range s.groupStates {
		if gs.Enabled {
			total += gs.Capacity
		}
	}
	return total
}

// GroupData returns the immutable data for group g.
func (s *State) GroupData(g int) model.GroupData {
	return s.input.Groups[g]
}

// StudentByIndex returns the immutable data for the student at input index
// i (not a participant index).
func (s *State) StudentByIndex(i int) model.StudentData {
	return s.input.Students[i]
}

// GroupCapacity returns the remaining capacity of group g.
func (s *State) GroupCapacity(g int) int {
	return s.groupStates[g].Capacity
}

// GroupMinSize returns the configured minimum target size for group g (0 if
// unconfigured).
func (s *State) GroupMinSize(g int) int {
	return s.input.Groups[g].MinTargetSize
}

// GroupIsEnabled reports whether group g currently accepts new placements.
func (s *State) GroupIsEnabled(g int) bool {
	return s.groupStates[g].Enabled
}

// GroupAssignmentList returns the (student, owning participant) pairs
// currently placed in group g, in placement order; team members are
// contiguous.
func (s *State) GroupAssignmentList(g int) []Assignment {
	return s.groupAssignments[g]
}

// GroupSize returns the number of students currently placed in group g.
func (s *State) GroupSize(g int) int {
	return len(s.groupAssignments[g])
}

// GroupWeight returns the accumulated rating weight of group g's placements.
func (s *State) GroupWeight(g int) uint32 {
	return s.groupStates[g].Weight
}

// GroupFilters returns the filters installed on group g.
func (s *State) GroupFilters(g int) []filter.Filter {
	return s.groupStates[g].Filters
}

// NumStudents returns the total student count.
func (s *State) NumStudents() int {
	return len(s.input.Students)
}

// NumParticipants returns the total number of participants (teams + lone
// students).
func (s *State) NumParticipants() int {
	return len(s.participants)
}

// IsTeam reports whether participant p is a team.
func (s *State) IsTeam(p int) bool {
	return s.participants[p].IsTeam
}

// IsAssigned reports whether participant p currently holds a group.
func (s *State) IsAssigned(p int) bool {
	return s.participants[p].Assignment >= 0
}

// Assignment returns the group participant p is assigned to. Caller must
// check IsAssigned first.
func (s *State) Assignment(p int) int {
	return s.participants[p].Assignment
}

// StudentData returns the student data for a lone-student participant.
func (s *State) StudentData(p int) model.StudentData {
	return s.input.Students[s.participants[p].Index]
}

// TeamData returns the team data for a team participant.
func (s *State) TeamData(p int) model.TeamData {
	return s.input.Teams[s.participants[p].Index]
}

// PartIDToStudentID returns the student index of a lone-student participant.
func (s *State) PartIDToStudentID(p int) int {
	return s.participants[p].Index
}

// Members returns the StudentData of every member of participant p (one
// element for a lone student, one per member for a team).
func (s *State) Members(p int) []model.StudentData {
	if !s.IsTeam(p) {
		return []model.StudentData{s.StudentData(p)}
	}
	team := s.TeamData(p)
	members := make([]model.StudentData, len(team.Members))
	for i, m := range team.Members {
		members[i] = s.input.Students[m]
	}
	return members
}

// Rating returns the rating vector shared by every member of participant p.
func (s *State) Rating(p int) []model.Rating {
	part := s.participants[p]
	var student int
	if part.IsTeam {
		student = s.input.Teams[part.Index].Members[0]
	} else {
		student = part.Index
	}
	return s.input.Ratings[student]
}

// DisableGroup clears the enabled flag on group g. Monotone: once cleared,
// never set again by anything in this package.
func (s *State) DisableGroup(g int) {
	s.groupStates[g].Enabled = false
}

// AddFilterToGroup installs filter f on group g. Idempotent: installing a
// filter whose id is already present is a no-op (invariant I5).
func (s *State) AddFilterToGroup(g int, f filter.Filter) {
	if s.GroupContainsFilter(g, f) {
		return
	}
	s.groupStates[g].Filters = append(s.groupStates[g].Filters, f)
}

// GroupContainsFilter reports whether group g already has a filter with the
// same id as f installed.
func (s *State) GroupContainsFilter(g int, f filter.Filter) bool {
	for _, existing := range s.groupStates[g].Filters {
		if existing.ID() == f.ID() {
			return true
		}
	}
	return false
}

// studentExcludedFromGroup reports whether a single student is excluded
// from g by any installed filter, honoring the student's
// TypeSpecificAssignment flag.
func (s *State) studentExcludedFromGroup(student int, g int) bool {
	data := s.input.Students[student]
	if !data.TypeSpecificAssignment {
		return false
	}
	for _, f := range s.groupStates[g].Filters {
		if f.Matches(data) {
			return true
		}
	}
	return false
}

// IsExcludedFromGroup reports whether participant p is excluded from group
// g by any installed filter. For a team, exclusion from any single member
// excludes the whole team.
func (s *State) IsExcludedFromGroup(p int, g int) bool {
	if s.IsTeam(p) {
		for _, m := range s.TeamData(p).Members {
			if s.studentExcludedFromGroup(m, g) {
				return true
			}
		}
		return false
	}
	return s.studentExcludedFromGroup(s.participants[p].Index, g)
}

// AssignParticipant places participant p into group target, consuming
// capacity and accumulating weight. Returns false (and does nothing) if the
// group lacks capacity for the whole participant.
func (s *State) AssignParticipant(p int, target int) bool {
	part := &s.participants[p]
	rating := s.Rating(p)
	if part.IsTeam {
		team := s.input.Teams[part.Index]
		if team.Size() > s.groupStates[target].Capacity {
			return false
		}
		s.groupStates[target].Capacity -= team.Size()
		for _, m := range team.Members {
			s.groupAssignments[target] = append(s.groupAssignments[target], Assignment{StudentIndex: m, ParticipantIndex: p})
		}
		s.groupStates[target].Weight += uint32(team.Size()) * rating[target].Value(uint32(s.NumGroups()))
	} else {
		if s.groupStates[target].Capacity == 0 {
			return false
		}
		s.groupStates[target].Capacity--
		s.groupAssignments[target] = append(s.groupAssignments[target], Assignment{StudentIndex: part.Index, ParticipantIndex: p})
		s.groupStates[target].Weight += rating[target].Value(uint32(s.NumGroups()))
	}
	part.Assignment = target
	return true
}

// UnassignParticipant removes participant p's placement from group g,
// reversing capacity and weight accounting.
func (s *State) UnassignParticipant(p int, g int) {
	rating := s.Rating(p)
	list := s.groupAssignments[g]
	filtered := list[:0]
	removedCount := 0
	for _, a := range list {
		if a.ParticipantIndex == p {
			removedCount++
			continue
		}
		filtered = append(filtered, a)
	}
	s.groupAssignments[g] = filtered
	s.groupStates[g].Capacity += removedCount
	s.groupStates[g].Weight -= uint32(removedCount) * rating[g].Value(uint32(s.NumGroups()))
	s.participants[p].Assignment = -1
}

// Reset clears all assignments and weights but preserves disabled groups
// and installed filters.
func (s *State) Reset() {
	for g := range s.groupStates {
		s.groupStates[g].Capacity = s.input.Groups[g].Capacity
		s.groupStates[g].Weight = 0
	}
	for g := range s.groupAssignments {
		s.groupAssignments[g] = nil
	}
	for p := range s.participants {
		s.participants[p].Assignment = -1
	}
}

// SetCapacity overrides the remaining capacity of group g directly (used by
// the team-safe scheduler to temporarily shrink capacities).
func (s *State) SetCapacity(g int, val int) {
	s.groupStates[g].Capacity = val
}

// DisableTypeSpecificAssignment clears the TypeSpecificAssignment flag on a
// student, exempting them from future filter-driven exclusion. This is one
// of the two post-parse mutations Input is allowed to undergo.
func (s *State) DisableTypeSpecificAssignment(student int) {
	s.input.Students[student].TypeSpecificAssignment = false
}

// TypeSpecificAssignment reports whether filters still apply to a student.
func (s *State) TypeSpecificAssignment(student int) bool {
	return s.input.Students[student].TypeSpecificAssignment
}

// ReplaceWith overwrites s's mutable fields with other's, keeping s's
// identity (and Input) intact. Used to commit a working copy produced by
// Clone back into the State a caller is holding a pointer to.
func (s *State) ReplaceWith(other *State) {
	s.groupStates = other.groupStates
	s.groupAssignments = other.groupAssignments
	s.participants = other.participants
}

// Clone returns a deep, independent copy of the State's mutable parts
// (group states, assignment lists, participant vector); Input is shared,
// not copied. This is the working-copy primitive used by every component
// that implements commit-on-success semantics.
func (s *State) Clone() *State {
	clone := &State{
		input:        s.input,
		groupStates:  make([]GroupState, len(s.groupStates)),
		participants: make([]Participant, len(s.participants)),
	}
	for i, gs := range s.groupStates {
		clone.groupStates[i] = GroupState{
			Capacity: gs.Capacity,
			Enabled:  gs.Enabled,
			Weight:   gs.Weight,
			Filters:  append([]filter.Filter(nil), gs.Filters...),
		}
	}
	copy(clone.participants, s.participants)
	clone.groupAssignments = make([][]Assignment, len(s.groupAssignments))
	for i, list := range s.groupAssignments {
		clone.groupAssignments[i] = append([]Assignment(nil), list...)
	}
	return clone
}
