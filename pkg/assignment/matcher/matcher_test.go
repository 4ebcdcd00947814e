package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fsmi/gruppenzuteilung/pkg/assignment/model"
	"github.com/fsmi/gruppenzuteilung/pkg/assignment/state"
)

// tinyHappyPathInput builds spec scenario S1: three groups (fc/tg/mathe),
// eight students (seven info-bachelors, one lone math-bachelor), mathe
// restricted to Math course type.
func tinyHappyPathInput() *model.Input {
	in := &model.Input{
		Groups: []model.GroupData{
			{ID: "fc", Name: "fc", Capacity: 4, CourseType: model.CourseAny, DegreeType: model.DegreeAny},
			{ID: "tg", Name: "tg", Capacity: 3, CourseType: model.CourseAny, DegreeType: model.DegreeAny},
			{ID: "mathe", Name: "mathe", Capacity: 3, CourseType: model.CourseMath, DegreeType: model.DegreeAny},
		},
		Students: make([]model.StudentData, 8),
	}
	for i := 0; i < 7; i++ {
		in.Students[i] = model.StudentData{ID: idx(i), Name: idx(i), CourseType: model.CourseInfo, DegreeType: model.DegreeBachelor}
	}
	in.Students[7] = model.StudentData{ID: "s7", Name: "s7", CourseType: model.CourseMath, DegreeType: model.DegreeBachelor}

	in.Ratings = make([][]model.Rating, 8)
	for i := 0; i < 7; i++ {
		in.Ratings[i] = []model.Rating{{Index: 0}, {Index: 1}, {Index: 2}}
	}
	in.Ratings[7] = []model.Rating{{Index: 2}, {Index: 1}, {Index: 0}}
	return in
}

func idx(i int) string {
	return string(rune('a' + i))
}

func TestCalculateAssignsMathStudentOnlyToMatheGroup(t *testing.T) {
	s, err := state.New(tinyHappyPathInput(), state.Params{CapacityBufferFactor: 1.0})
	require.NoError(t, err)

	result, err := Calculate(s, Params{MinGroupSizeEffect: 1, UseMinGroupSizes: false}, nil)
	require.NoError(t, err)

	mathParticipant := -1
	for p := 0; p < s.NumParticipants(); p++ {
		if !s.IsTeam(p) && s.PartIDToStudentID(p) == 7 {
			mathParticipant = p
		}
	}
	require.GreaterOrEqual(t, mathParticipant, 0)
	assert.Equal(t, 2, result.Assignment[mathParticipant])
}

func TestCalculateFailsWhenParticipantHasNoEligibleGroup(t *testing.T) {
	in := tinyHappyPathInput()
	in.Groups[0].CourseType = model.CourseMath
	in.Groups[1].CourseType = model.CourseMath
	// every group now admits only Math students, so the info students
	// (0-6) have no admissible group; mathe is additionally restricted to a
	// degree no student has.
	in.Groups[2].DegreeType = model.DegreeMaster

	s, err := state.New(in, state.Params{CapacityBufferFactor: 1.0})
	require.NoError(t, err)

	_, err = Calculate(s, Params{MinGroupSizeEffect: 1}, nil)
	assert.Error(t, err)
}

func TestCalculateAssignsWildcardStudentToConcreteGroup(t *testing.T) {
	in := &model.Input{
		Groups: []model.GroupData{
			{ID: "mathe", Name: "mathe", Capacity: 1, CourseType: model.CourseMath, DegreeType: model.DegreeBachelor},
		},
		Students: []model.StudentData{
			{ID: "s0", Name: "s0", CourseType: model.CourseAny, DegreeType: model.DegreeAny},
		},
		Ratings: [][]model.Rating{{{Index: 0}}},
	}
	s, err := state.New(in, state.Params{CapacityBufferFactor: 1.0})
	require.NoError(t, err)

	result, err := Calculate(s, Params{MinGroupSizeEffect: 1}, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Assignment[0])
}

func TestCalculateFailsWhenNotEnoughCapacity(t *testing.T) {
	in := tinyHappyPathInput()
	for i := range in.Groups {
		in.Groups[i].Capacity = 1
	}
	s, err := state.New(in, state.Params{CapacityBufferFactor: 0})
	require.NoError(t, err)

	_, err = Calculate(s, Params{MinGroupSizeEffect: 1}, nil)
	assert.Error(t, err)
}
