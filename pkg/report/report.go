// Package report renders human-readable summaries of a finished
// assignment: one text file per group and a CSV breakdown by filter.
package report

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/fsmi/gruppenzuteilung/pkg/assignment/filter"
	"github.com/fsmi/gruppenzuteilung/pkg/assignment/state"
)

// groupFileName derives a filesystem-safe file name from a group's name and
// the first five characters of its id, so two groups sharing a display
// name never collide.
func groupFileName(name, id string) string {
	idPart := id
	if len(idPart) > 5 {
		idPart = idPart[:5]
	}
	safeName := strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' {
			return '_'
		}
		return r
	}, name)
	return fmt.Sprintf("%s-%s", safeName, idPart)
}

// WriteGroupReports writes one text file per non-empty group into dir,
// listing every assigned student (name, id, course, degree, semester,
// realized rating), plus a RemovedGroups file listing disabled groups.
func WriteGroupReports(dir string, s *state.State) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("report: failed to create output directory %q: %w", dir, err)
	}

	var removed []string
	for g := 0; g < s.NumGroups(); g++ {
		gd := s.GroupData(g)
		if !s.GroupIsEnabled(g) {
			removed = append(removed, gd.Name)
			continue
		}
		list := s.GroupAssignmentList(g)
		if len(list) == 0 {
			continue
		}

		fileName := groupFileName(gd.Name, gd.ID)
		path := filepath.Join(dir, fileName)
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("report: failed to create %q: %w", path, err)
		}

		w := bufio.NewWriter(f)
		fmt.Fprintf(w, "%s (%d members)\n\n", gd.Name, len(list))
		for _, a := range list {
			student := s.StudentByIndex(a.StudentIndex)
			rating := s.Input().Ratings[a.StudentIndex][g]
			fmt.Fprintf(w, "  - %s [%s] (%s, %s, %s) [%s]\n",
				student.Name, student.ID, student.CourseType, student.DegreeType, student.Semester, rating.Name())
		}
		if err := w.Flush(); err != nil {
			f.Close()
			return fmt.Errorf("report: failed to write %q: %w", path, err)
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("report: failed to close %q: %w", path, err)
		}
	}

	removedPath := filepath.Join(dir, "RemovedGroups")
	f, err := os.Create(removedPath)
	if err != nil {
		return fmt.Errorf("report: failed to create %q: %w", removedPath, err)
	}
	w := bufio.NewWriter(f)
	for _, name := range removed {
		fmt.Fprintln(w, name)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("report: failed to write %q: %w", removedPath, err)
	}
	return f.Close()
}

// WriteStats writes Stats.csv: one row per enabled non-empty group with its
// total size and, for every filter, how many of its members match that
// filter; a final "Summe" (sum) row totals every column.
func WriteStats(w *csv.Writer, s *state.State, filters []filter.Filter) error {
	header := []string{"Name", "Size"}
	for _, f := range filters {
		header = append(header, f.Name())
	}
	if err := w.Write(header); err != nil {
		return fmt.Errorf("report: failed to write stats header: %w", err)
	}

	totals := make([]int, len(filters)+1)
	for g := 0; g < s.NumGroups(); g++ {
		if !s.GroupIsEnabled(g) {
			continue
		}
		list := s.GroupAssignmentList(g)
		if len(list) == 0 {
			continue
		}
		row := []string{s.GroupData(g).Name, strconv.Itoa(len(list))}
		totals[0] += len(list)
		for fi, f := range filters {
			count := 0
			for _, a := range list {
				if f.Matches(s.StudentByIndex(a.StudentIndex)) {
					count++
				}
			}
			row = append(row, strconv.Itoa(count))
			totals[fi+1] += count
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("report: failed to write stats row: %w", err)
		}
	}

	sumRow := []string{"Summe"}
	for _, t := range totals {
		sumRow = append(sumRow, strconv.Itoa(t))
	}
	if err := w.Write(sumRow); err != nil {
		return fmt.Errorf("report: failed to write stats summary row: %w", err)
	}
	w.Flush()
	return w.Error()
}
