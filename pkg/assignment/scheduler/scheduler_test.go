package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fsmi/gruppenzuteilung/pkg/assignment/matcher"
	"github.com/fsmi/gruppenzuteilung/pkg/assignment/model"
	"github.com/fsmi/gruppenzuteilung/pkg/assignment/state"
)

// teamCohesionInput builds spec scenario S2: a size-4 team among otherwise
// lone students, generous capacity on every group.
func teamCohesionInput() *model.Input {
	in := &model.Input{
		Groups: []model.GroupData{
			{ID: "g0", Name: "g0", Capacity: 5, CourseType: model.CourseAny, DegreeType: model.DegreeAny},
			{ID: "g1", Name: "g1", Capacity: 5, CourseType: model.CourseAny, DegreeType: model.DegreeAny},
		},
		Students: make([]model.StudentData, 8),
		Teams:    []model.TeamData{{ID: "A", Members: []int{4, 5, 6, 7}}},
	}
	for i := range in.Students {
		in.Students[i] = model.StudentData{ID: idx(i), Name: idx(i), CourseType: model.CourseAny, DegreeType: model.DegreeAny}
	}
	in.Ratings = make([][]model.Rating, 8)
	for i := 0; i < 4; i++ {
		in.Ratings[i] = []model.Rating{{Index: 0}, {Index: 1}}
	}
	for i := 4; i < 8; i++ {
		in.Ratings[i] = []model.Rating{{Index: 0}, {Index: 1}}
	}
	return in
}

func idx(i int) string { return string(rune('a' + i)) }

func TestAssignTeamsAndStudentsKeepsTeamTogether(t *testing.T) {
	s, err := state.New(teamCohesionInput(), state.Params{CapacityBufferFactor: 1.0})
	require.NoError(t, err)

	err = AssignTeamsAndStudents(s, matcher.Params{MinGroupSizeEffect: 1}, nil)
	require.NoError(t, err)

	var teamGroup = -1
	for p := 0; p < s.NumParticipants(); p++ {
		if s.IsTeam(p) {
			require.True(t, s.IsAssigned(p))
			teamGroup = s.Assignment(p)
		}
	}
	require.GreaterOrEqual(t, teamGroup, 0)

	list := s.GroupAssignmentList(teamGroup)
	teamMembers := 0
	for _, a := range list {
		if a.StudentIndex >= 4 {
			teamMembers++
		}
	}
	assert.Equal(t, 4, teamMembers)
	assert.GreaterOrEqual(t, s.GroupSize(teamGroup), 4)
}

func TestAssignTeamsAndStudentsRejectsInsufficientCapacity(t *testing.T) {
	in := teamCohesionInput()
	for i := range in.Groups {
		in.Groups[i].Capacity = 3
	}
	s, err := state.New(in, state.Params{CapacityBufferFactor: 0})
	require.NoError(t, err)

	err = AssignTeamsAndStudents(s, matcher.Params{MinGroupSizeEffect: 1}, nil)
	assert.Error(t, err)
}

func TestApplyIsAtomicOnOverCapacity(t *testing.T) {
	in := teamCohesionInput()
	s, err := state.New(in, state.Params{CapacityBufferFactor: 1.0})
	require.NoError(t, err)

	assignment := make([]int, s.NumParticipants())
	for i := range assignment {
		assignment[i] = 0 // everyone into group 0, which cannot hold them all
	}

	ok, _ := Apply(s, assignment, includeAllForTest)
	assert.False(t, ok)
	assert.Equal(t, 0, s.GroupSize(0), "original state must be untouched on failed apply")
}

func includeAllForTest(int) bool { return true }
