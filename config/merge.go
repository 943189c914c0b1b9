package config

import (
	"fmt"
	"reflect"
)

type Values map[string]interface{}

// mergeSlices concatenates lists of mappings, so storage entries from several
// files add up. Lists of scalars are merged as a set.
func mergeSlices(sliceA, sliceB []interface{}) ([]interface{}, error) {
	if len(sliceA) == 0 {
		return sliceB, nil
	}
	if reflect.ValueOf(sliceA[0]).Kind() == reflect.Map {
		return append(sliceA, sliceB...), nil
	}

	for _, vB := range sliceB {
		found := false
		for _, vA := range sliceA {
			if vA == vB {
				found = true
				break
			}
		}
		if !found {
			sliceA = append(sliceA, vB)
		}
	}
	return sliceA, nil
}

func deepMergeMaps(a, b map[string]interface{}) (map[string]interface{}, error) {
	for k, v := range b {
		current, ok := a[k]
		if !ok {
			a[k] = v
			continue
		}
		res, err := DeepMerge(current, v)
		if err != nil {
			return a, fmt.Errorf("key %q: %w", k, err)
		}
		a[k] = res
	}
	return a, nil
}

// DeepMerge merges b into a. Mappings merge key by key, lists of mappings
// concatenate and any other value of b replaces the one in a.
func DeepMerge(a, b interface{}) (interface{}, error) {
	if a == nil {
		return b, nil
	}
	if b == nil {
		return a, nil
	}

	typeA := reflect.TypeOf(a)
	typeB := reflect.TypeOf(b)

	// We don't support merging different data structures
	if typeA.Kind() != typeB.Kind() {
		return nil, fmt.Errorf("cannot merge %s with %s", typeA.String(), typeB.String())
	}

	switch typeA.Kind() {
	case reflect.Slice:
		sa, okA := a.([]interface{})
		sb, okB := b.([]interface{})
		if okA && okB {
			return mergeSlices(sa, sb)
		}
	case reflect.Map:
		ma, okA := asMap(a)
		mb, okB := asMap(b)
		if okA && okB {
			return deepMergeMaps(ma, mb)
		}
	}

	return b, nil
}

func asMap(v interface{}) (map[string]interface{}, bool) {
	switch m := v.(type) {
	case Values:
		return m, true
	case map[string]interface{}:
		return m, true
	}
	return nil, false
}
