//go:build !queryslim

package report

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/itchyny/gojq"
)

// Query runs a jq expression against the JSON form of the report, with the
// leading dot implied. Scalars are printed as is, anything else as JSON, one
// result per line.
func (r Report) Query(s string) (res string, err error) {
	s = fmt.Sprintf(".%s", strings.TrimPrefix(s, "."))
	jsondata := map[string]interface{}{}
	var dat []byte
	dat, err = json.Marshal(r)
	if err != nil {
		return
	}
	err = json.Unmarshal(dat, &jsondata)
	if err != nil {
		return
	}
	query, err := gojq.Parse(s)
	if err != nil {
		return res, err
	}
	var out []string
	iter := query.Run(jsondata)
	for {
		v, ok := iter.Next()
		if !ok {
			break
		}
		if err, ok := v.(error); ok {
			return res, fmt.Errorf("running query %q: %w", s, err)
		}
		switch v := v.(type) {
		case string:
			out = append(out, v)
		case float64:
			out = append(out, strconv.FormatFloat(v, 'f', -1, 64))
		case map[string]interface{}, []interface{}:
			b, err := json.Marshal(v)
			if err != nil {
				return res, err
			}
			out = append(out, string(b))
		default:
			out = append(out, fmt.Sprint(v))
		}
	}
	return strings.Join(out, "\n"), nil
}
