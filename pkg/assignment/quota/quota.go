// Package quota reassigns participants so that every enabled non-empty group
// ends up with either none or at least a configured minimum number of
// students matching each of a set of type filters (e.g. "no Math students
// or at least 3 of them per group"), by
// installing exclusion filters on the worst-offending groups and
// re-running the scheduler until the requirement is met or no further
// progress can be made.
package quota

import (
	"math"

	"go.uber.org/zap"

	"github.com/fsmi/gruppenzuteilung/pkg/assignment/filter"
	"github.com/fsmi/gruppenzuteilung/pkg/assignment/matcher"
	"github.com/fsmi/gruppenzuteilung/pkg/assignment/scheduler"
	"github.com/fsmi/gruppenzuteilung/pkg/assignment/state"
)

// Requirement is one "at least Minimum students matching Filter per group"
// constraint.
type Requirement struct {
	Filter  filter.Filter
	Minimum int
}

// Params configures the loop.
type Params struct {
	MatcherParams           matcher.Params
	DisabledGroupsPerStep   int
	TypeSpecificThreshold   uint32 // 0 disables the rating-based disable pass
}

// groupCount pairs a group index with how many of its currently placed
// students match a filter.
type groupCount struct {
	group int
	num   int
}

// groupsByNumFiltered returns, for every enabled non-empty group, the
// number of its placed students matching f, for every group currently
// under minMembers, sorted ascending by that number (most violating group
// first; the caller reverses the list so that group ends up last and is
// popped first when the list is used as a stack).
func groupsByNumFiltered(s *state.State, minMembers int, f filter.Filter) []groupCount {
	var groups []groupCount
	for g := 0; g < s.NumGroups(); g++ {
		list := s.GroupAssignmentList(g)
		if len(list) == 0 || !s.GroupIsEnabled(g) {
			continue
		}
		num := 0
		for _, a := range list {
			if f.Matches(s.StudentByIndex(a.StudentIndex)) {
				num++
			}
		}
		if num < minMembers {
			groups = append(groups, groupCount{group: g, num: num})
		}
	}
	sortByNumAsc(groups)
	return groups
}

func sortByNumAsc(groups []groupCount) {
	for i := 1; i < len(groups); i++ {
		for j := i; j > 0 && groups[j].num < groups[j-1].num; j-- {
			groups[j], groups[j-1] = groups[j-1], groups[j]
		}
	}
}

// disableTypeSpecificAssignmentBelowThreshold exempts every member whose
// placement rating index exceeds ratingThreshold from future filter-driven
// exclusion, on the theory that a student placed that poorly already lost
// the preference lottery and should not also be at risk of a type-quota
// reassignment. Returns how many students were exempted.
func disableTypeSpecificAssignmentBelowThreshold(s *state.State, ratingThreshold uint32, log *zap.Logger) int {
	numChanged := 0
	disable := func(student int) {
		if s.TypeSpecificAssignment(student) {
			s.DisableTypeSpecificAssignment(student)
			numChanged++
			if log != nil {
				data := s.StudentByIndex(student)
				log.Warn("disabling type specific assignment for low rating", zap.String("student", data.Name))
			}
		}
	}
	for p := 0; p < s.NumParticipants(); p++ {
		if !s.IsAssigned(p) {
			continue
		}
		g := s.Assignment(p)
		r := s.Rating(p)[g]
		if r.Index <= ratingThreshold {
			continue
		}
		if s.IsTeam(p) {
			for _, m := range s.TeamData(p).Members {
				disable(m)
			}
		} else {
			disable(s.PartIDToStudentID(p))
		}
	}
	return numChanged
}

// AssertMinimumNumberPerGroupForSpecificType repeatedly installs exclusion
// filters on the groups furthest from satisfying each requirement (picking,
// each round, up to DisabledGroupsPerStep (group, filter) pairs by the
// heuristic 2*(minimum-num)-num, preferring groups that are both far from
// the minimum and nearly empty of the type) and re-solves, keeping only
// rounds that still produce a feasible assignment. s is mutated in place.
func AssertMinimumNumberPerGroupForSpecificType(s *state.State, reqs []Requirement, p Params, log *zap.Logger) error {
	if log != nil {
		log.Info("calculating reassignments to assert minimum numbers per group")
	}

	changed := false
	success := true
	numDisabled := 0

	for success {
		if p.TypeSpecificThreshold > 0 {
			disabled := disableTypeSpecificAssignmentBelowThreshold(s, p.TypeSpecificThreshold, log)
			numDisabled += disabled
			changed = disabled > 0
		}

		disableOrder := make([][]groupCount, len(reqs))
		totalNumGroups := 0
		for i, req := range reqs {
			order := groupsByNumFiltered(s, req.Minimum, req.Filter)
			var rev []groupCount
			for len(order) > 0 {
				last := order[len(order)-1]
				order = order[:len(order)-1]
				if last.num == 0 {
					s.AddFilterToGroup(last.group, req.Filter)
				} else if !s.GroupContainsFilter(last.group, req.Filter) {
					rev = append(rev, last)
					totalNumGroups++
				}
			}
			disableOrder[i] = rev
		}

		if totalNumGroups == 0 {
			break
		}

		numSteps := p.DisabledGroupsPerStep
		if limit := (totalNumGroups + 3) / 4; limit < numSteps {
			numSteps = limit
		}
		for step := 0; step < numSteps; step++ {
			maxIndex := -1
			maxRating := math.MinInt32
			for j := range disableOrder {
				if len(disableOrder[j]) == 0 {
					continue
				}
				last := disableOrder[j][len(disableOrder[j])-1]
				rating := 2*(reqs[j].Minimum-last.num) - last.num
				if rating > maxRating {
					maxRating = rating
					maxIndex = j
				}
			}
			if maxIndex < 0 {
				break
			}
			last := disableOrder[maxIndex][len(disableOrder[maxIndex])-1]
			disableOrder[maxIndex] = disableOrder[maxIndex][:len(disableOrder[maxIndex])-1]
			s.AddFilterToGroup(last.group, reqs[maxIndex].Filter)
			if log != nil {
				log.Debug("removing students from group for type quota",
					zap.String("filter", reqs[maxIndex].Filter.Name()),
					zap.String("group", s.GroupData(last.group).Name),
					zap.Int("num", last.num))
			}
		}

		working := s.Clone()
		err := scheduler.AssignTeamsAndStudents(working, p.MatcherParams, log)
		success = err == nil
		if success {
			s.ReplaceWith(working)
		} else if log != nil {
			log.Warn("could not continue reassignment, stopping")
		}
	}

	if changed {
		working := s.Clone()
		if err := scheduler.AssignTeamsAndStudents(working, p.MatcherParams, log); err == nil {
			s.ReplaceWith(working)
			success = true
		}
	}

	if success && log != nil {
		log.Info("successfully calculated reassignment", zap.Int("num_disabled", numDisabled))
	}

	return nil
}
