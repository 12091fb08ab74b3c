// Package callshape normalizes the four task calling conventions into a
// uniform list of [Call] values.
//
// A caller describes its tasks in exactly one shape: a list of single
// positional values (optionally passed under a keyword name), a list of
// positional-argument tuples, or a list of keyword-argument maps. Keyed
// variants accept a map instead of a list and additionally yield the index
// of keys used to re-associate results on output. Normalization merges the
// caller's common arguments into every call and performs all shape
// validation, so the dispatch layers only ever see a flat []Call.
package callshape

import (
	"errors"
	"fmt"

	"github.com/mitchellh/copystructure"
)

// Call is one normalized task invocation: the ordered positional arguments
// and the keyword arguments for a single run of the target function.
type Call struct {
	Args   []any
	Kwargs map[string]any
}

// ErrShape is returned when zero or multiple task shapes are supplied.
var ErrShape = errors.New("parmap: exactly one of Values, Tuples, or Kwargs must be provided")

// ErrArgName is returned when ArgName is combined with a shape other than
// Values.
var ErrArgName = errors.New("parmap: ArgName is only valid with the Values shape")

// Inputs supplies tasks as an ordered sequence. A nil shape field is unset;
// a non-nil empty one describes zero tasks.
type Inputs struct {
	// Values holds one positional value per task.
	Values []any
	// ArgName, when set, passes each value of Values as this keyword
	// argument instead of positionally.
	ArgName string
	// Tuples holds the ordered positional arguments for each task.
	Tuples [][]any
	// Kwargs holds the keyword arguments for each task.
	Kwargs []map[string]any
	// Common is merged into every call. Its keys must not collide with
	// ArgName or with any per-task keyword argument.
	Common map[string]any
}

// Keyed supplies tasks as a map from caller-chosen keys to per-task inputs.
// The extracted keys become the index that re-associates results on output.
type Keyed[K comparable] struct {
	Values  map[K]any
	ArgName string
	Tuples  map[K][]any
	Kwargs  map[K]map[string]any
	Common  map[string]any
}

// Normalize validates in and produces one Call per task, in input order.
func Normalize(in Inputs) ([]Call, error) {
	if err := checkShape(in.Values != nil, in.Tuples != nil, in.Kwargs != nil, in.ArgName); err != nil {
		return nil, err
	}
	common, err := snapshotCommon(in.Common)
	if err != nil {
		return nil, err
	}
	return buildCalls(in, common)
}

// NormalizeKeyed validates in and produces the index of keys along with one
// Call per task. Result i of a dispatch over the calls pairs with index[i].
func NormalizeKeyed[K comparable](in Keyed[K]) ([]K, []Call, error) {
	if err := checkShape(in.Values != nil, in.Tuples != nil, in.Kwargs != nil, in.ArgName); err != nil {
		return nil, nil, err
	}
	common, err := snapshotCommon(in.Common)
	if err != nil {
		return nil, nil, err
	}

	// Collect keys and values in a single pass so that the pairing between
	// index[i] and the i-th call holds no matter how the map iterates.
	var (
		index []K
		seq   Inputs
	)
	switch {
	case in.Values != nil:
		seq.Values = make([]any, 0, len(in.Values))
		for k, v := range in.Values {
			index = append(index, k)
			seq.Values = append(seq.Values, v)
		}
		seq.ArgName = in.ArgName
	case in.Tuples != nil:
		seq.Tuples = make([][]any, 0, len(in.Tuples))
		for k, v := range in.Tuples {
			index = append(index, k)
			seq.Tuples = append(seq.Tuples, v)
		}
	case in.Kwargs != nil:
		seq.Kwargs = make([]map[string]any, 0, len(in.Kwargs))
		for k, v := range in.Kwargs {
			index = append(index, k)
			seq.Kwargs = append(seq.Kwargs, v)
		}
	}

	calls, err := buildCalls(seq, common)
	if err != nil {
		return nil, nil, err
	}
	return index, calls, nil
}

func checkShape(hasValues, hasTuples, hasKwargs bool, argName string) error {
	count := 0
	for _, set := range []bool{hasValues, hasTuples, hasKwargs} {
		if set {
			count++
		}
	}
	if count != 1 {
		return ErrShape
	}
	if argName != "" && !hasValues {
		return ErrArgName
	}
	return nil
}

// snapshotCommon deep-copies the common arguments so that later mutation by
// the caller cannot race with tasks already in flight.
func snapshotCommon(common map[string]any) (map[string]any, error) {
	if common == nil {
		return map[string]any{}, nil
	}
	copied, err := copystructure.Copy(common)
	if err != nil {
		return nil, fmt.Errorf("parmap: snapshotting common arguments: %w", err)
	}
	return copied.(map[string]any), nil
}

func buildCalls(in Inputs, common map[string]any) ([]Call, error) {
	if _, ok := common[in.ArgName]; ok && in.ArgName != "" {
		return nil, fmt.Errorf("parmap: common argument %q collides with ArgName", in.ArgName)
	}

	switch {
	case in.Values != nil && in.ArgName == "":
		calls := make([]Call, len(in.Values))
		for i, v := range in.Values {
			calls[i] = Call{Args: []any{v}, Kwargs: common}
		}
		return calls, nil

	case in.Values != nil:
		calls := make([]Call, len(in.Values))
		for i, v := range in.Values {
			kwargs := make(map[string]any, len(common)+1)
			kwargs[in.ArgName] = v
			mergeCommon(kwargs, common)
			calls[i] = Call{Kwargs: kwargs}
		}
		return calls, nil

	case in.Tuples != nil:
		calls := make([]Call, len(in.Tuples))
		for i, args := range in.Tuples {
			calls[i] = Call{Args: args, Kwargs: common}
		}
		return calls, nil

	default:
		var errs []error
		calls := make([]Call, len(in.Kwargs))
		for i, kw := range in.Kwargs {
			kwargs := make(map[string]any, len(kw)+len(common))
			for k, v := range kw {
				if _, ok := common[k]; ok {
					errs = append(errs, fmt.Errorf("parmap: common argument %q collides with task %d", k, i))
					continue
				}
				kwargs[k] = v
			}
			mergeCommon(kwargs, common)
			calls[i] = Call{Kwargs: kwargs}
		}
		if err := errors.Join(errs...); err != nil {
			return nil, err
		}
		return calls, nil
	}
}

func mergeCommon(dst, common map[string]any) {
	for k, v := range common {
		dst[k] = v
	}
}
