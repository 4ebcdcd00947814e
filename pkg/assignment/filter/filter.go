// Package filter implements the conjunctive student-level predicates that
// can be installed on a group to exclude matching students from it.
package filter

import (
	"sort"

	"github.com/fsmi/gruppenzuteilung/pkg/assignment/model"
)

// AtomID is the stable id of one atomic predicate over StudentData.
type AtomID uint32

// The seven atomic predicates recognized by the types file.
const (
	AtomInfo AtomID = iota
	AtomMath
	AtomTeaching
	AtomBachelor
	AtomMaster
	AtomFirstSemester
	AtomThirdSemester
)

// atomPredicate evaluates one atom against a student.
func atomPredicate(id AtomID, s model.StudentData) bool {
	switch id {
	case AtomInfo:
		return s.CourseType == model.CourseInfo
	case AtomMath:
		return s.CourseType == model.CourseMath
	case AtomTeaching:
		return s.CourseType == model.CourseTeaching
	case AtomBachelor:
		return s.DegreeType == model.DegreeBachelor
	case AtomMaster:
		return s.DegreeType == model.DegreeMaster
	case AtomFirstSemester:
		return s.Semester == model.SemesterFirst
	case AtomThirdSemester:
		return s.Semester == model.SemesterThird
	default:
		return false
	}
}

// atomName is the three-letter wire prefix for an atom, used by the types
// file parser (human-readable filter names use atomDisplayName instead).
func atomName(id AtomID) string {
	switch id {
	case AtomInfo:
		return "inf"
	case AtomMath:
		return "mat"
	case AtomTeaching:
		return "leh"
	case AtomBachelor:
		return "bac"
	case AtomMaster:
		return "mas"
	case AtomFirstSemester:
		return "ers"
	case AtomThirdSemester:
		return "dri"
	default:
		return "???"
	}
}

// ParseAtom resolves a three-letter wire prefix to its AtomID.
func ParseAtom(s string) (AtomID, bool) {
	for id := AtomInfo; id <= AtomThirdSemester; id++ {
		if atomName(id) == s {
			return id, true
		}
	}
	return 0, false
}

// Filter is a conjunction of atomic predicates over StudentData: a student
// matches the filter iff every atom matches. Filters are value types and
// compared by their composite ID, not by identity.
type Filter struct {
	atoms []AtomID
	name  string
}

// New builds a Filter from a set of atoms, sorted for a stable composite id.
// Duplicate atoms are harmless (sorting and the fold below tolerate them,
// though callers should not pass duplicates).
func New(atoms []AtomID, name string) Filter {
	sorted := append([]AtomID(nil), atoms...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	return Filter{atoms: sorted, name: name}
}

// Matches reports whether every atom in the filter matches the student.
func (f Filter) Matches(s model.StudentData) bool {
	for _, a := range f.atoms {
		if !atomPredicate(a, s) {
			return false
		}
	}
	return true
}

// ID is a stable, order-independent hash of the filter's atom set: two
// filters with the same atoms (in any construction order) always have the
// same ID, since New sorts atoms before this fold runs.
func (f Filter) ID() uint32 {
	var acc uint32
	for _, a := range f.atoms {
		acc = acc*137 + uint32(a) + 13
	}
	return acc
}

// Name is the human-readable filter name, e.g. "Math Bachelors".
func (f Filter) Name() string {
	return f.name
}

// MatchesParticipant reports whether the filter matches a participant's
// student data. For a lone student that is simply Matches(student); for a
// team, a group with this filter installed excludes the whole team if ANY
// member matches (e.g. "no Math students" excludes every team containing
// one Math student).
func MatchesParticipant(f Filter, members []model.StudentData) bool {
	for _, m := range members {
		if f.Matches(m) {
			return true
		}
	}
	return false
}
