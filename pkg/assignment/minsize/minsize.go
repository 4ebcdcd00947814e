// Package minsize enforces a minimum number of participants per enabled
// group by iteratively disabling groups that end up under-filled and
// re-running the scheduler, until no further group can be disabled without
// breaching the capacity-buffer invariant.
package minsize

import (
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/fsmi/gruppenzuteilung/pkg/assignment/matcher"
	"github.com/fsmi/gruppenzuteilung/pkg/assignment/scheduler"
	"github.com/fsmi/gruppenzuteilung/pkg/assignment/state"
)

// Params configures the loop.
type Params struct {
	MatcherParams   matcher.Params
	MinCapacity     int
	CapacityBuffer  float64
}

// AssignWithMinimumNumberPerGroup runs the initial team/student matching,
// then repeatedly disables the worst-weighted groups that fall below
// allowedMin (which only ever increases) and retries, stopping when no
// group can be removed without taking total active capacity below the
// capacity-buffer requirement. s is mutated in place; the loop always
// leaves s holding its last successful assignment.
func AssignWithMinimumNumberPerGroup(s *state.State, p Params, log *zap.Logger) error {
	allowedMin := 1
	activeCapacity := s.TotalActiveGroupCapacity()

	if err := scheduler.AssignTeamsAndStudents(s, p.MatcherParams, log); err != nil {
		return err
	}

	for {
		currentMin := math.MaxInt
		for g := 0; g < s.NumGroups(); g++ {
			if s.GroupIsEnabled(g) {
				currentMin = min(currentMin, s.GroupSize(g))
			}
		}

		if currentMin >= p.MinCapacity {
			break
		}

		allowedMin = max(allowedMin, currentMin) + 1
		if log != nil {
			log.Debug("disabling groups below minimum size", zap.Int("allowed_min", allowedMin))
		}

		type candidate struct {
			group  int
			weight uint32
		}
		var toRemove []candidate
		for g := 0; g < s.NumGroups(); g++ {
			if s.GroupIsEnabled(g) && s.GroupSize(g) < allowedMin {
				toRemove = append(toRemove, candidate{group: g, weight: s.GroupWeight(g)})
			}
		}
		sort.Slice(toRemove, func(i, j int) bool { return toRemove[i].weight < toRemove[j].weight })

		required := math.Ceil(p.CapacityBuffer * float64(s.NumStudents()))
		working := s.Clone()
		removed := false
		for _, c := range toRemove {
			capacity := s.GroupData(c.group).Capacity
			if float64(activeCapacity-capacity) >= required {
				if log != nil {
					log.Debug("disabling group", zap.String("group", s.GroupData(c.group).Name), zap.Int("size", s.GroupSize(c.group)))
				}
				working.DisableGroup(c.group)
				activeCapacity -= capacity
				removed = true
			}
		}
		if !removed {
			if log != nil {
				log.Info("no further group could be removed, stopping")
			}
			break
		}

		if err := scheduler.AssignTeamsAndStudents(working, p.MatcherParams, log); err != nil {
			if log != nil {
				log.Warn("could not calculate assignment, falling back to previous solution")
			}
			break
		}
		s.ReplaceWith(working)
	}

	return nil
}
