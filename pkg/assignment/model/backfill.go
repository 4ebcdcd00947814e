package model

import "fmt"

// RatingsEqual reports whether two rating vectors are identical, index by
// index.
func RatingsEqual(a, b []Rating) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// BackfillTeamRatings is the one mutation Input undergoes after parsing
// (besides clearing TypeSpecificAssignment in the type-quota loop): for
// every multi-member team, members with an empty rating row inherit the
// team's shared rating vector. Inconsistent non-empty member ratings within
// one team are a configuration error.
//
// AllowDefaultRatings, when true, replaces any remaining invalid
// (zero-length or MissingRating) student rating rows with the worst
// possible rating vector instead of erroring.
func BackfillTeamRatings(in *Input, allowDefaultRatings bool) error {
	if len(in.Students) != len(in.Ratings) {
		return fmt.Errorf("model: %d students but %d rating rows", len(in.Students), len(in.Ratings))
	}

	numGroups := in.NumGroups()
	for _, team := range in.Teams {
		if len(team.Members) <= 1 {
			continue
		}

		var teamRating []Rating
		for _, student := range team.Members {
			row := in.Ratings[student]
			if len(row) == 0 {
				continue
			}
			if len(row) != numGroups {
				return fmt.Errorf("model: student %q has invalid rating row length", in.Students[student].ID)
			}
			if teamRating == nil {
				teamRating = row
			} else if !RatingsEqual(row, teamRating) {
				return fmt.Errorf("model: conflicting ratings for team %q", team.ID)
			}
		}
		if teamRating == nil {
			return fmt.Errorf("model: no rating found for team %q", team.ID)
		}
		for _, student := range team.Members {
			if len(in.Ratings[student]) == 0 {
				in.Ratings[student] = teamRating
			}
		}
	}

	for student, row := range in.Ratings {
		if len(row) == 0 && allowDefaultRatings {
			row = make([]Rating, numGroups)
			for g := range row {
				row[g] = MissingRating
			}
			in.Ratings[student] = row
		}
		if len(row) != numGroups {
			return fmt.Errorf("model: student %q has no rating row", in.Students[student].ID)
		}
		for g, r := range row {
			if !r.IsValid() {
				if !allowDefaultRatings {
					return fmt.Errorf("model: invalid rating for student %q", in.Students[student].ID)
				}
				row[g] = MinRating(uint32(numGroups))
			}
		}
	}

	return nil
}
