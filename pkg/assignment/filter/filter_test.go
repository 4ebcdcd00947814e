package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fsmi/gruppenzuteilung/pkg/assignment/model"
)

func TestFilterIDIsOrderIndependent(t *testing.T) {
	a := New([]AtomID{AtomMath, AtomBachelor}, "x")
	b := New([]AtomID{AtomBachelor, AtomMath}, "x")
	assert.Equal(t, a.ID(), b.ID())
}

func TestFilterIDDistinguishesAtomSets(t *testing.T) {
	a := New([]AtomID{AtomMath}, "math")
	b := New([]AtomID{AtomMath, AtomBachelor}, "math bachelor")
	assert.NotEqual(t, a.ID(), b.ID())
}

func TestFilterMatchesConjunction(t *testing.T) {
	f := New([]AtomID{AtomMath, AtomBachelor}, "math bachelor")
	mathBachelor := model.StudentData{CourseType: model.CourseMath, DegreeType: model.DegreeBachelor}
	mathMaster := model.StudentData{CourseType: model.CourseMath, DegreeType: model.DegreeMaster}

	assert.True(t, f.Matches(mathBachelor))
	assert.False(t, f.Matches(mathMaster))
}

func TestMatchesParticipantAnyMemberExcludes(t *testing.T) {
	f := New([]AtomID{AtomMath}, "math")
	members := []model.StudentData{
		{CourseType: model.CourseInfo},
		{CourseType: model.CourseMath},
	}
	assert.True(t, MatchesParticipant(f, members))

	members[1].CourseType = model.CourseInfo
	assert.False(t, MatchesParticipant(f, members))
}

func TestParseAtomRoundTrip(t *testing.T) {
	for id := AtomInfo; id <= AtomThirdSemester; id++ {
		parsed, ok := ParseAtom(atomName(id))
		assert.True(t, ok)
		assert.Equal(t, id, parsed)
	}
	_, ok := ParseAtom("zzz")
	assert.False(t, ok)
}

func TestDefaultName(t *testing.T) {
	assert.Equal(t, "Math Bachelors", DefaultName([]AtomID{AtomMath, AtomBachelor}))
}
