// Package transpose reshapes a sequence of uniform map records into a
// single map of per-key sequences.
package transpose

import (
	"errors"
	"fmt"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/samber/lo"
)

// ErrNotRecord is returned when a result expected to be a record is not a
// map.
var ErrNotRecord = errors.New("parmap: result record is not a map")

// ErrHeterogeneous is returned when result records do not share an
// identical key set.
var ErrHeterogeneous = errors.New("parmap: result records have differing keys")

// Records converts N records, each a map[string]any with an identical key
// set, into one map from each shared key to the N-length column of per-record
// values for that key, preserving record order within each column.
//
// Any column whose values are all maps is treated as a nested record
// sequence and transposed recursively. This is a coarse structural
// heuristic: a key that happens to hold only map-typed leaf values is
// always recursed into.
func Records(records []any) (map[string]any, error) {
	if len(records) == 0 {
		return map[string]any{}, nil
	}

	first, ok := records[0].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w (record 0)", ErrNotRecord)
	}
	keys := mapset.NewThreadUnsafeSet(lo.Keys(first)...)

	columns := make(map[string][]any, len(first))
	for key := range first {
		columns[key] = make([]any, 0, len(records))
	}
	for i, r := range records {
		record, ok := r.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w (record %d)", ErrNotRecord, i)
		}
		if !keys.Equal(mapset.NewThreadUnsafeSet(lo.Keys(record)...)) {
			return nil, fmt.Errorf("%w (record %d)", ErrHeterogeneous, i)
		}
		for key, value := range record {
			columns[key] = append(columns[key], value)
		}
	}

	out := make(map[string]any, len(columns))
	for key, column := range columns {
		if lo.EveryBy(column, isMap) {
			nested, err := Records(column)
			if err != nil {
				return nil, err
			}
			out[key] = nested
			continue
		}
		out[key] = column
	}
	return out, nil
}

func isMap(v any) bool {
	_, ok := v.(map[string]any)
	return ok
}
