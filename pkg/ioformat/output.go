package ioformat

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/fsmi/gruppenzuteilung/pkg/assignment/state"
)

// WriteOutput emits the engine's output document: a JSON object mapping
// each assigned entity's id to the group id it was placed in. outputPerTeam
// selects whether teams are reported as a single entry (keyed by team id)
// or expanded into one entry per member student.
func WriteOutput(w io.Writer, s *state.State, outputPerTeam bool) error {
	result := make(map[string]string)
	for p := 0; p < s.NumParticipants(); p++ {
		if !s.IsAssigned(p) {
			continue
		}
		groupID := s.GroupData(s.Assignment(p)).ID
		if s.IsTeam(p) && outputPerTeam {
			result[s.TeamData(p).ID] = groupID
			continue
		}
		for _, member := range s.Members(p) {
			result[member.ID] = groupID
		}
	}

	ids := make([]string, 0, len(result))
	for id := range result {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var buf []byte
	buf = append(buf, '{')
	for i, id := range ids {
		if i > 0 {
			buf = append(buf, ',')
		}
		key, err := json.Marshal(id)
		if err != nil {
			return fmt.Errorf("ioformat: failed to encode output key %q: %w", id, err)
		}
		value, err := json.Marshal(result[id])
		if err != nil {
			return fmt.Errorf("ioformat: failed to encode output value for %q: %w", id, err)
		}
		buf = append(buf, key...)
		buf = append(buf, ':')
		buf = append(buf, value...)
	}
	buf = append(buf, '}')

	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("ioformat: failed to write output: %w", err)
	}
	return nil
}
