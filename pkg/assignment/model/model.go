// Package model defines the immutable input data of the assignment engine:
// groups, students, teams and their preference ratings.
package model

// GroupData is an immutable tutorial group definition.
type GroupData struct {
	ID            string
	Name          string
	Capacity      int
	MinTargetSize int // 0 means "not configured"
	CourseType    CourseType
	DegreeType    DegreeType
}

// StudentData is an immutable student record.
type StudentData struct {
	ID                     string
	Name                   string
	CourseType             CourseType
	DegreeType             DegreeType
	Semester               Semester
	TypeSpecificAssignment bool
}

// TeamData is an immutable pre-formed team of students.
// Members holds indices into Input.Students. Len(Members) >= 1.
type TeamData struct {
	ID      string
	Members []int
}

// Size returns the number of students in the team.
func (t TeamData) Size() int {
	return len(t.Members)
}

// Input is the complete, immutable (after construction) input to the
// assignment engine: groups, students, teams, and one rating vector per
// student (ratings[studentIndex][groupIndex]).
//
// Input is shared by reference across every State built from it; State must
// not outlive its Input. The only permitted post-construction mutations are
// the two backfills documented on BackfillTeamRatings and on
// state.State.DisableTypeSpecificAssignment (clearing
// StudentData.TypeSpecificAssignment in the type-quota loop).
type Input struct {
	Groups   []GroupData
	Students []StudentData
	Teams    []TeamData
	// Ratings[s][g] is student s's preference for group g. By the time
	// BackfillTeamRatings has run, every student has a complete row of
	// length len(Groups).
	Ratings [][]Rating
}

// NumGroups returns the number of groups in the input.
func (in *Input) NumGroups() int {
	return len(in.Groups)
}

// StudentIDToTeamIndex returns a lookup from student index to the index of
// the team it belongs to (only for teams with more than one member —
// singleton teams are demoted to lone students per spec).
func (in *Input) StudentIDToTeamIndex() map[int]int {
	result := make(map[int]int)
	for ti, team := range in.Teams {
		if len(team.Members) > 1 {
			for _, s := range team.Members {
				result[s] = ti
			}
		}
	}
	return result
}
