package transpose_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.skyrmion.dev/parmap/internal/transpose"
)

func TestRecords(t *testing.T) {
	got, err := transpose.Records([]any{
		map[string]any{"a": 1, "b": "x"},
		map[string]any{"a": 2, "b": "y"},
		map[string]any{"a": 3, "b": "z"},
	})
	require.NoError(t, err)

	want := map[string]any{
		"a": []any{1, 2, 3},
		"b": []any{"x", "y", "z"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("unexpected transpose (-want +got): %s", diff)
	}
}

func TestRecordsNested(t *testing.T) {
	got, err := transpose.Records([]any{
		map[string]any{"a": 1, "b": map[string]any{"c": 2}},
		map[string]any{"a": 3, "b": map[string]any{"c": 4}},
	})
	require.NoError(t, err)

	want := map[string]any{
		"a": []any{1, 3},
		"b": map[string]any{"c": []any{2, 4}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("unexpected transpose (-want +got): %s", diff)
	}
}

// A column mixing maps and scalars stays a plain column; only all-map
// columns recurse.
func TestRecordsMixedColumn(t *testing.T) {
	got, err := transpose.Records([]any{
		map[string]any{"a": map[string]any{"c": 1}},
		map[string]any{"a": 2},
	})
	require.NoError(t, err)

	want := map[string]any{
		"a": []any{map[string]any{"c": 1}, 2},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("unexpected transpose (-want +got): %s", diff)
	}
}

func TestRecordsEmpty(t *testing.T) {
	got, err := transpose.Records(nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRecordsHeterogeneous(t *testing.T) {
	_, err := transpose.Records([]any{
		map[string]any{"a": 1},
		map[string]any{"b": 2},
	})
	assert.True(t, errors.Is(err, transpose.ErrHeterogeneous), "got %v", err)
}

func TestRecordsNotMap(t *testing.T) {
	_, err := transpose.Records([]any{1, 2})
	assert.True(t, errors.Is(err, transpose.ErrNotRecord), "got %v", err)

	_, err = transpose.Records([]any{
		map[string]any{"a": 1},
		"not a record",
	})
	assert.True(t, errors.Is(err, transpose.ErrNotRecord), "got %v", err)
}
