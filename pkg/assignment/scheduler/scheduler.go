// Package scheduler drives the two-phase team-safe assignment loop: teams
// are matched first against temporarily shrunk group capacities (so that
// students matched in the second phase still have room), with large teams
// preassigned directly whenever the shrunk capacity turns out to be too
// tight, before a final full matching covers every remaining participant.
package scheduler

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/fsmi/gruppenzuteilung/pkg/assignment/matcher"
	"github.com/fsmi/gruppenzuteilung/pkg/assignment/state"
)

// Apply commits assignment[p] for every participant p selected by include
// to a working copy of s. If every selected participant fit it returns true
// and the working copy, which the caller commits with s.ReplaceWith;
// otherwise it returns false and s itself, which Apply never modifies.
// This is the single commit-atomicity primitive every scheduling step below
// is built from.
func Apply(s *state.State, assignment []int, include func(p int) bool) (bool, *state.State) {
	working := s.Clone()
	success := true
	for p := 0; p < working.NumParticipants(); p++ {
		if assignment[p] < 0 || !include(p) {
			continue
		}
		if !working.AssignParticipant(p, assignment[p]) {
			success = false
		}
	}
	if success {
		return true, working
	}
	return false, s
}

func includeTeamsOnly(s *state.State) func(int) bool {
	return func(p int) bool { return s.IsTeam(p) }
}

func includeAll(int) bool { return true }

// preassignLargeTeams fixes, in every group whose tentatively-matched teams
// overflow its real capacity, the assignment of that group's largest
// tentatively-matched team(s); this is the fallback taken when a
// shrunk-capacity team matching doesn't actually fit once real capacities
// are restored. Returns the set of groups it touched.
func preassignLargeTeams(s *state.State, assignment []int, log *zap.Logger) []int {
	type groupStat struct {
		teams    []int
		maxSize  int
		total    int
	}
	stats := make([]groupStat, s.NumGroups())
	for p := 0; p < s.NumParticipants(); p++ {
		if s.IsTeam(p) && assignment[p] >= 0 {
			g := assignment[p]
			size := s.TeamData(p).Size()
			stats[g].teams = append(stats[g].teams, p)
			if size > stats[g].maxSize {
				stats[g].maxSize = size
			}
			stats[g].total += size
		}
	}

	var modified []int
	for g := 0; g < s.NumGroups(); g++ {
		if stats[g].total <= s.GroupCapacity(g) {
			continue
		}
		touched := false
		for _, team := range stats[g].teams {
			if s.TeamData(team).Size() != stats[g].maxSize {
				continue
			}
			if !touched {
				modified = append(modified, g)
				touched = true
			}
			if s.AssignParticipant(team, g) {
				if log != nil {
					log.Debug("preassigned large team", zap.String("team", s.TeamData(team).ID), zap.Int("group", g))
				}
			} else if log != nil {
				log.Debug("preassigning large team failed", zap.String("team", s.TeamData(team).ID), zap.Int("group", g))
			}
		}
	}
	return modified
}

// AssignTeamsAndStudents resets s and runs the two-phase matching: a team
// matching against capacities shrunk by reductionFactor (recomputed each
// iteration from the share of students still in unassigned teams, plus any
// capacity already spent on forced preassignments), followed by a final
// unrestricted matching over every remaining participant.
func AssignTeamsAndStudents(s *state.State, params matcher.Params, log *zap.Logger) error {
	s.Reset()

	numStudents := s.NumStudents()
	activeCapacity := s.TotalActiveGroupCapacity()
	if activeCapacity <= numStudents {
		return fmt.Errorf("scheduler: active capacity %d does not exceed student count %d", activeCapacity, numStudents)
	}

	totalReduced := 0
	for {
		additionalStudentsInTeams := 0
		for p := 0; p < s.NumParticipants(); p++ {
			if s.IsTeam(p) && !s.IsAssigned(p) {
				additionalStudentsInTeams += s.TeamData(p).Size() - 1
			}
		}
		teamFactor := float64(numStudents-additionalStudentsInTeams) / float64(numStudents)
		modReducedFactor := float64(activeCapacity+totalReduced) / float64(activeCapacity)
		reductionFactor := teamFactor * modReducedFactor
		if reductionFactor > 1 {
			reductionFactor = 1
		}

		working := s.Clone()
		for g := 0; g < working.NumGroups(); g++ {
			newCapacity := int(math.Ceil(reductionFactor * float64(working.GroupCapacity(g))))
			working.SetCapacity(g, newCapacity)
		}

		result, err := matcher.Calculate(working, params, log)
		if err != nil {
			return fmt.Errorf("scheduler: team assignment failed: %w", err)
		}

		ok, next := Apply(s, result.Assignment, includeTeamsOnly(s))
		if ok {
			s.ReplaceWith(next)
			break
		}
		if log != nil {
			log.Warn("team assignment exceeded capacity, preassigning large teams and retrying")
		}
		modified := preassignLargeTeams(s, result.Assignment, log)
		totalReduced += len(modified)
	}

	result, err := matcher.Calculate(s, params, log)
	if err != nil {
		return fmt.Errorf("scheduler: final assignment failed: %w", err)
	}
	ok, next := Apply(s, result.Assignment, includeAll)
	if !ok {
		return fmt.Errorf("scheduler: final assignment exceeded capacity")
	}
	s.ReplaceWith(next)
	return nil
}
