// Package ioformat decodes and encodes the engine's JSON input/output and
// the plain-text type-quota file. JSON/CSV are the only serialization
// formats used anywhere in the example pack; both are implemented directly
// on encoding/json and encoding/csv (see DESIGN.md for why no third-party
// library was wired in for this concern).
package ioformat

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fsmi/gruppenzuteilung/internal/config"
	"github.com/fsmi/gruppenzuteilung/pkg/assignment/filter"
	"github.com/fsmi/gruppenzuteilung/pkg/assignment/model"
)

type wireGroup struct {
	Name          string `json:"name"`
	Capacity      int    `json:"capacity"`
	MinTargetSize int    `json:"min_target_size"`
	CourseType    string `json:"course_type"`
	DegreeType    string `json:"degree_type"`
}

type wireStudent struct {
	Name                   string `json:"name"`
	CourseType             string `json:"course_type"`
	DegreeType             string `json:"degree_type"`
	Semester               string `json:"semester"`
	TypeSpecificAssignment *bool  `json:"type_specific_assignment,omitempty"`
}

// wireInput mirrors the four required top-level keys, each an object keyed
// by stable id (groups/students/teams) or by student/team id (ratings, per
// inputPerTeam).
type wireInput struct {
	Groups   map[string]wireGroup       `json:"groups"`
	Students map[string]wireStudent     `json:"students"`
	Teams    map[string][]string        `json:"teams"`
	Ratings  map[string]json.RawMessage `json:"ratings"`
}

func sortedKeys[T any](m map[string]T) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ParseInput decodes the engine's JSON input document into an immutable
// model.Input. ratingInputType selects whether each rating document entry
// is a map[string]int (group id -> priority) or an ordered []string of
// group ids, best first. allowDefaultRatings permits a student with no
// rating entry at all to fall back to the worst rating instead of failing
// parse outright. inputPerTeam selects whether a team's members are rated
// via one shared entry keyed by the team id, rather than individually by
// student id. maxTeamSize rejects any team exceeding it (mirrors the
// assertion at TeamData construction in the original implementation).
func ParseInput(r io.Reader, ratingInputType config.RatingInputType, allowDefaultRatings bool, inputPerTeam bool, maxTeamSize int) (*model.Input, error) {
	var wire wireInput
	if err := json.NewDecoder(r).Decode(&wire); err != nil {
		return nil, fmt.Errorf("ioformat: failed to decode input: %w", err)
	}
	if wire.Groups == nil || wire.Students == nil || wire.Teams == nil || wire.Ratings == nil {
		return nil, fmt.Errorf("ioformat: input must contain the keys groups, students, teams and ratings")
	}

	groupIndex := make(map[string]int, len(wire.Groups))
	groupKeys := sortedKeys(wire.Groups)
	groups := make([]model.GroupData, len(groupKeys))
	for i, id := range groupKeys {
		g := wire.Groups[id]
		courseType, ok := model.ParseCourseType(g.CourseType)
		if !ok {
			return nil, fmt.Errorf("ioformat: group %q: unknown course_type %q", id, g.CourseType)
		}
		degreeType, ok := model.ParseDegreeType(g.DegreeType)
		if !ok {
			return nil, fmt.Errorf("ioformat: group %q: unknown degree_type %q", id, g.DegreeType)
		}
		groups[i] = model.GroupData{
			ID:            id,
			Name:          g.Name,
			Capacity:      g.Capacity,
			MinTargetSize: g.MinTargetSize,
			CourseType:    courseType,
			DegreeType:    degreeType,
		}
		groupIndex[id] = i
	}

	studentIndex := make(map[string]int, len(wire.Students))
	studentKeys := sortedKeys(wire.Students)
	students := make([]model.StudentData, len(studentKeys))
	for i, id := range studentKeys {
		st := wire.Students[id]
		courseType, ok := model.ParseCourseType(st.CourseType)
		if !ok {
			return nil, fmt.Errorf("ioformat: student %q: unknown course_type %q", id, st.CourseType)
		}
		degreeType, ok := model.ParseDegreeType(st.DegreeType)
		if !ok {
			return nil, fmt.Errorf("ioformat: student %q: unknown degree_type %q", id, st.DegreeType)
		}
		semester, ok := model.ParseSemester(st.Semester)
		if !ok {
			return nil, fmt.Errorf("ioformat: student %q: unknown semester %q", id, st.Semester)
		}
		typeSpecific := true
		if st.TypeSpecificAssignment != nil {
			typeSpecific = *st.TypeSpecificAssignment
		}
		students[i] = model.StudentData{
			ID:                     id,
			Name:                   st.Name,
			CourseType:             courseType,
			DegreeType:             degreeType,
			Semester:               semester,
			TypeSpecificAssignment: typeSpecific,
		}
		studentIndex[id] = i
	}

	assignedToTeam := make(map[string]string)
	teamKeys := sortedKeys(wire.Teams)
	teams := make([]model.TeamData, len(teamKeys))
	teamOfStudent := make(map[int]string, len(studentKeys))
	for i, id := range teamKeys {
		memberIDs := wire.Teams[id]
		if maxTeamSize > 0 && len(memberIDs) > maxTeamSize {
			return nil, fmt.Errorf("ioformat: team %q has %d members, exceeding max_team_size %d", id, len(memberIDs), maxTeamSize)
		}
		members := make([]int, len(memberIDs))
		for j, sid := range memberIDs {
			idx, ok := studentIndex[sid]
			if !ok {
				return nil, fmt.Errorf("ioformat: team %q references unknown student %q", id, sid)
			}
			if prior, ok := assignedToTeam[sid]; ok {
				return nil, fmt.Errorf("ioformat: student %q is a member of both team %q and team %q", sid, prior, id)
			}
			assignedToTeam[sid] = id
			members[j] = idx
			teamOfStudent[idx] = id
		}
		teams[i] = model.TeamData{ID: id, Members: members}
	}

	ratings := make([][]model.Rating, len(students))
	for i, id := range studentKeys {
		key := id
		if inputPerTeam {
			if teamID, ok := teamOfStudent[i]; ok {
				key = teamID
			}
		}
		raw, ok := wire.Ratings[key]
		if !ok {
			if !allowDefaultRatings {
				return nil, fmt.Errorf("ioformat: student %q: no rating entry for %q", id, key)
			}
			ratings[i] = nil
			continue
		}
		row, err := parseRatingRow(raw, ratingInputType, groupIndex, len(groups))
		if err != nil {
			return nil, fmt.Errorf("ioformat: student %q: %w", id, err)
		}
		ratings[i] = row
	}

	return &model.Input{Groups: groups, Students: students, Teams: teams, Ratings: ratings}, nil
}

func parseRatingRow(raw json.RawMessage, ratingInputType config.RatingInputType, groupIndex map[string]int, numGroups int) ([]model.Rating, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	row := make([]model.Rating, numGroups)
	for i := range row {
		row[i] = model.MissingRating
	}

	switch ratingInputType {
	case config.RatingInputOrderedList:
		var order []string
		if err := json.Unmarshal(raw, &order); err != nil {
			return nil, fmt.Errorf("invalid ordered rating list: %w", err)
		}
		for priority, id := range order {
			g, ok := groupIndex[id]
			if !ok {
				return nil, fmt.Errorf("rating references unknown group %q", id)
			}
			row[g] = model.Rating{Index: uint32(priority)}
		}
	default:
		var mapping map[string]int
		if err := json.Unmarshal(raw, &mapping); err != nil {
			return nil, fmt.Errorf("invalid rating mapping: %w", err)
		}
		for id, priority := range mapping {
			g, ok := groupIndex[id]
			if !ok {
				return nil, fmt.Errorf("rating references unknown group %q", id)
			}
			row[g] = model.Rating{Index: uint32(priority)}
		}
	}
	return row, nil
}

// ParseTypesFile parses the plain-text type-quota file: each non-empty,
// non-comment line is "ATOM [ATOM...] MINIMUM", one conjunctive filter per
// line, using the three-letter atom prefixes from the filter package.
func ParseTypesFile(r io.Reader) ([]filter.Filter, []int, error) {
	var filters []filter.Filter
	var minimums []int

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return nil, nil, fmt.Errorf("ioformat: types file line %d: expected at least one atom and a minimum", lineNo)
		}
		var atoms []filter.AtomID
		for _, tok := range fields[:len(fields)-1] {
			atom, ok := filter.ParseAtom(tok)
			if !ok {
				return nil, nil, fmt.Errorf("ioformat: types file line %d: unknown atom %q", lineNo, tok)
			}
			atoms = append(atoms, atom)
		}
		var minimum int
		if _, err := fmt.Sscanf(fields[len(fields)-1], "%d", &minimum); err != nil {
			return nil, nil, fmt.Errorf("ioformat: types file line %d: invalid minimum: %w", lineNo, err)
		}
		filters = append(filters, filter.New(atoms, filter.DefaultName(atoms)))
		minimums = append(minimums, minimum)
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, fmt.Errorf("ioformat: failed reading types file: %w", err)
	}
	return filters, minimums, nil
}
