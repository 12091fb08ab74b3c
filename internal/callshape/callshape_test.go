package callshape_test

import (
	"errors"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.skyrmion.dev/parmap/internal/callshape"
)

func TestNormalizeValues(t *testing.T) {
	calls, err := callshape.Normalize(callshape.Inputs{
		Values: []any{1, 2, 3},
	})
	require.NoError(t, err)

	want := []callshape.Call{
		{Args: []any{1}, Kwargs: map[string]any{}},
		{Args: []any{2}, Kwargs: map[string]any{}},
		{Args: []any{3}, Kwargs: map[string]any{}},
	}
	if diff := cmp.Diff(want, calls); diff != "" {
		t.Errorf("unexpected calls (-want +got): %s", diff)
	}
}

func TestNormalizeValuesNamed(t *testing.T) {
	calls, err := callshape.Normalize(callshape.Inputs{
		Values:  []any{1, 2},
		ArgName: "x",
		Common:  map[string]any{"scale": 10},
	})
	require.NoError(t, err)

	want := []callshape.Call{
		{Kwargs: map[string]any{"x": 1, "scale": 10}},
		{Kwargs: map[string]any{"x": 2, "scale": 10}},
	}
	if diff := cmp.Diff(want, calls); diff != "" {
		t.Errorf("unexpected calls (-want +got): %s", diff)
	}
}

func TestNormalizeTuples(t *testing.T) {
	calls, err := callshape.Normalize(callshape.Inputs{
		Tuples: [][]any{{1, 2}, {3, 4}},
	})
	require.NoError(t, err)

	want := []callshape.Call{
		{Args: []any{1, 2}, Kwargs: map[string]any{}},
		{Args: []any{3, 4}, Kwargs: map[string]any{}},
	}
	if diff := cmp.Diff(want, calls); diff != "" {
		t.Errorf("unexpected calls (-want +got): %s", diff)
	}
}

func TestNormalizeKwargs(t *testing.T) {
	calls, err := callshape.Normalize(callshape.Inputs{
		Kwargs: []map[string]any{{"x": 1}, {"x": 2}},
		Common: map[string]any{"y": 9},
	})
	require.NoError(t, err)

	want := []callshape.Call{
		{Kwargs: map[string]any{"x": 1, "y": 9}},
		{Kwargs: map[string]any{"x": 2, "y": 9}},
	}
	if diff := cmp.Diff(want, calls); diff != "" {
		t.Errorf("unexpected calls (-want +got): %s", diff)
	}
}

func TestNormalizeShapeValidation(t *testing.T) {
	testCases := []struct {
		name string
		in   callshape.Inputs
	}{
		{"none", callshape.Inputs{}},
		{"values and tuples", callshape.Inputs{Values: []any{1}, Tuples: [][]any{{1}}}},
		{"values and kwargs", callshape.Inputs{Values: []any{1}, Kwargs: []map[string]any{{"x": 1}}}},
		{"all three", callshape.Inputs{
			Values: []any{1},
			Tuples: [][]any{{1}},
			Kwargs: []map[string]any{{"x": 1}},
		}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := callshape.Normalize(tc.in)
			assert.True(t, errors.Is(err, callshape.ErrShape), "got %v", err)
		})
	}
}

func TestNormalizeArgNameValidation(t *testing.T) {
	_, err := callshape.Normalize(callshape.Inputs{
		Tuples:  [][]any{{1}},
		ArgName: "x",
	})
	assert.True(t, errors.Is(err, callshape.ErrArgName), "got %v", err)
}

func TestNormalizeCommonCollision(t *testing.T) {
	_, err := callshape.Normalize(callshape.Inputs{
		Values:  []any{1},
		ArgName: "x",
		Common:  map[string]any{"x": 2},
	})
	assert.ErrorContains(t, err, `"x" collides`)

	_, err = callshape.Normalize(callshape.Inputs{
		Kwargs: []map[string]any{{"x": 1}, {"y": 2}},
		Common: map[string]any{"y": 3},
	})
	assert.ErrorContains(t, err, `"y" collides with task 1`)
}

// Mutating Common after normalization must not affect the calls already
// built from it.
func TestNormalizeCommonSnapshot(t *testing.T) {
	common := map[string]any{"opts": map[string]any{"scale": 10}}
	calls, err := callshape.Normalize(callshape.Inputs{
		Values: []any{1},
		Common: common,
	})
	require.NoError(t, err)

	common["extra"] = true
	common["opts"].(map[string]any)["scale"] = 99

	want := map[string]any{"opts": map[string]any{"scale": 10}}
	if diff := cmp.Diff(want, calls[0].Kwargs); diff != "" {
		t.Errorf("snapshot was not isolated (-want +got): %s", diff)
	}
}

func TestNormalizeKeyedPairing(t *testing.T) {
	index, calls, err := callshape.NormalizeKeyed(callshape.Keyed[string]{
		Values: map[string]any{"a": 1, "b": 2, "c": 3},
	})
	require.NoError(t, err)
	require.Len(t, calls, 3)

	// Map iteration order is unspecified, so check the pairing rather than
	// a fixed order: index[i] must correspond to the i-th call's value.
	wantByKey := map[string]int{"a": 1, "b": 2, "c": 3}
	var keys []string
	for i, key := range index {
		keys = append(keys, key)
		assert.Equal(t, wantByKey[key], calls[i].Args[0])
	}
	sort.Strings(keys)
	assert.Equal(t, []string{"a", "b", "c"}, keys)
}

func TestNormalizeKeyedShapes(t *testing.T) {
	index, calls, err := callshape.NormalizeKeyed(callshape.Keyed[int]{
		Tuples: map[int][]any{7: {1, 2}},
	})
	require.NoError(t, err)
	assert.Equal(t, []int{7}, index)
	assert.Equal(t, []any{1, 2}, calls[0].Args)

	index, calls, err = callshape.NormalizeKeyed(callshape.Keyed[int]{
		Kwargs: map[int]map[string]any{3: {"x": 1}},
	})
	require.NoError(t, err)
	assert.Equal(t, []int{3}, index)
	assert.Equal(t, map[string]any{"x": 1}, calls[0].Kwargs)

	_, _, err = callshape.NormalizeKeyed(callshape.Keyed[int]{})
	assert.True(t, errors.Is(err, callshape.ErrShape), "got %v", err)
}

func TestNormalizeEmpty(t *testing.T) {
	calls, err := callshape.Normalize(callshape.Inputs{Values: []any{}})
	require.NoError(t, err)
	assert.Empty(t, calls)
}
