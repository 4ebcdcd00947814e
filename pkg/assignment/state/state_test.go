package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fsmi/gruppenzuteilung/pkg/assignment/filter"
	"github.com/fsmi/gruppenzuteilung/pkg/assignment/model"
)

func threeGroupInput() *model.Input {
	in := &model.Input{
		Groups: []model.GroupData{
			{ID: "g0", Name: "fc", Capacity: 4, CourseType: model.CourseAny, DegreeType: model.DegreeAny},
			{ID: "g1", Name: "tg", Capacity: 3, CourseType: model.CourseAny, DegreeType: model.DegreeAny},
			{ID: "g2", Name: "mathe", Capacity: 3, CourseType: model.CourseMath, DegreeType: model.DegreeAny},
		},
		Students: make([]model.StudentData, 8),
		Teams:    []model.TeamData{{ID: "A", Members: []int{7}}},
	}
	for i := range in.Students {
		in.Students[i] = model.StudentData{
			ID:                     "s" + string(rune('0'+i)),
			Name:                   "Student" + string(rune('0'+i)),
			CourseType:             model.CourseInfo,
			DegreeType:             model.DegreeBachelor,
			TypeSpecificAssignment: true,
		}
	}
	in.Ratings = make([][]model.Rating, 8)
	for i := range in.Ratings {
		in.Ratings[i] = []model.Rating{{Index: 0}, {Index: 1}, {Index: 2}}
	}
	return in
}

func newTestState(t *testing.T) *State {
	t.Helper()
	s, err := New(threeGroupInput(), Params{CapacityBufferFactor: 1.0})
	require.NoError(t, err)
	return s
}

func TestNewRejectsInsufficientCapacityBuffer(t *testing.T) {
	in := threeGroupInput()
	_, err := New(in, Params{CapacityBufferFactor: 2.0})
	assert.Error(t, err)
}

func TestNewDemotesSingletonTeamToLoneStudent(t *testing.T) {
	s := newTestState(t)
	found := false
	for p := 0; p < s.NumParticipants(); p++ {
		if !s.IsTeam(p) && s.PartIDToStudentID(p) == 7 {
			found = true
		}
	}
	assert.True(t, found, "singleton team member should appear as a lone-student participant")
}

func TestAssignUnassignRoundTripPreservesCapacityAndWeight(t *testing.T) {
	s := newTestState(t)
	var target int = -1
	for p := 0; p < s.NumParticipants(); p++ {
		if !s.IsTeam(p) {
			target = p
			break
		}
	}
	require.GreaterOrEqual(t, target, 0)

	capBefore := s.GroupCapacity(0)
	require.True(t, s.AssignParticipant(target, 0))
	assert.Equal(t, capBefore-1, s.GroupCapacity(0))
	assert.Equal(t, 1, s.GroupSize(0))
	assert.NotZero(t, s.GroupWeight(0))

	s.UnassignParticipant(target, 0)
	assert.Equal(t, capBefore, s.GroupCapacity(0))
	assert.Equal(t, 0, s.GroupSize(0))
	assert.Equal(t, uint32(0), s.GroupWeight(0))
	assert.False(t, s.IsAssigned(target))
}

func TestResetClearsAssignmentsButKeepsFiltersAndDisabledGroups(t *testing.T) {
	s := newTestState(t)
	s.DisableGroup(1)
	f := filter.New([]filter.AtomID{filter.AtomMath}, "math")
	s.AddFilterToGroup(0, f)
	s.AssignParticipant(0, 0)

	s.Reset()

	assert.False(t, s.IsAssigned(0))
	assert.Equal(t, 0, s.GroupSize(0))
	assert.False(t, s.GroupIsEnabled(1))
	assert.True(t, s.GroupContainsFilter(0, f))
}

func TestAddFilterToGroupIsIdempotent(t *testing.T) {
	s := newTestState(t)
	f1 := filter.New([]filter.AtomID{filter.AtomMath}, "math")
	f2 := filter.New([]filter.AtomID{filter.AtomMath}, "math again")
	s.AddFilterToGroup(0, f1)
	s.AddFilterToGroup(0, f2)
	assert.Len(t, s.GroupFilters(0), 1)
}

func TestIsExcludedFromGroupHonorsTypeSpecificFlag(t *testing.T) {
	s := newTestState(t)
	f := filter.New([]filter.AtomID{filter.AtomInfo}, "info")
	s.AddFilterToGroup(0, f)

	assert.True(t, s.IsExcludedFromGroup(0, 0))

	s.DisableTypeSpecificAssignment(0)
	assert.False(t, s.IsExcludedFromGroup(0, 0))
}

func TestCloneIsIndependent(t *testing.T) {
	s := newTestState(t)
	clone := s.Clone()
	clone.AssignParticipant(0, 0)

	assert.False(t, s.IsAssigned(0))
	assert.True(t, clone.IsAssigned(0))
}

func TestAssignParticipantRejectsOverCapacity(t *testing.T) {
	s := newTestState(t)
	s.SetCapacity(0, 0)
	assert.False(t, s.AssignParticipant(0, 0))
}
