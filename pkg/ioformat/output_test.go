package ioformat

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fsmi/gruppenzuteilung/pkg/assignment/model"
	"github.com/fsmi/gruppenzuteilung/pkg/assignment/state"
)

func buildAssignedState(t *testing.T) *state.State {
	t.Helper()
	in := &model.Input{
		Groups: []model.GroupData{
			{ID: "g0", Name: "g0", Capacity: 2, CourseType: model.CourseAny, DegreeType: model.DegreeAny},
		},
		Students: []model.StudentData{{ID: "s0", Name: "Alice"}, {ID: "s1", Name: "Bob"}},
		Ratings:  [][]model.Rating{{{Index: 0}}, {{Index: 0}}},
	}
	s, err := state.New(in, state.Params{CapacityBufferFactor: 1.0})
	require.NoError(t, err)
	for p := 0; p < s.NumParticipants(); p++ {
		require.True(t, s.AssignParticipant(p, 0))
	}
	return s
}

func TestWriteOutputProducesSortedDeterministicJSON(t *testing.T) {
	s := buildAssignedState(t)
	var buf bytes.Buffer
	require.NoError(t, WriteOutput(&buf, s, false))

	var result map[string]string
	require.NoError(t, json.Unmarshal(buf.Bytes(), &result))
	assert.Equal(t, "g0", result["s0"])
	assert.Equal(t, "g0", result["s1"])

	assert.Equal(t, `{"s0":"g0","s1":"g0"}`, buf.String())
}
