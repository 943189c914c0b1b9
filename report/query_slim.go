//go:build queryslim

package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrQueryPath = errors.New("query path not found")

// Query looks up a path such as disks.[0].partitions.[1].path, or
// disks[0].partitions[1].path, in the JSON form of the report. Only key and
// index steps are understood.
func (r Report) Query(s string) (string, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return "", err
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var node interface{}
	if err := dec.Decode(&node); err != nil {
		return "", err
	}

	for _, step := range pathSteps(s) {
		switch n := node.(type) {
		case map[string]interface{}:
			v, ok := n[step]
			if !ok {
				return "", fmt.Errorf("%w: key %q", ErrQueryPath, step)
			}
			node = v
		case []interface{}:
			i, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(step, "["), "]"))
			if err != nil || i < 0 || i >= len(n) {
				return "", fmt.Errorf("%w: index %s of %d items", ErrQueryPath, step, len(n))
			}
			node = n[i]
		default:
			return "", fmt.Errorf("%w: %q below a scalar", ErrQueryPath, step)
		}
	}

	switch n := node.(type) {
	case string:
		return n, nil
	case json.Number:
		return n.String(), nil
	case nil:
		return "null", nil
	case map[string]interface{}, []interface{}:
		out, err := json.Marshal(n)
		return string(out), err
	}
	return fmt.Sprint(node), nil
}

// pathSteps splits a dotted path into keys and [n] index steps.
func pathSteps(s string) []string {
	var steps []string
	for _, field := range strings.Split(s, ".") {
		for field != "" {
			open := strings.IndexByte(field, '[')
			if open < 0 {
				steps = append(steps, field)
				break
			}
			if open > 0 {
				steps = append(steps, field[:open])
			}
			end := strings.IndexByte(field[open:], ']')
			if end < 0 {
				steps = append(steps, field[open:])
				break
			}
			steps = append(steps, field[open:open+end+1])
			field = field[open+end+1:]
		}
	}
	return steps
}
