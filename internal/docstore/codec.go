// AngelaMos | 2026
// codec.go

package docstore

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"
)

// encode normalizes a struct or map into the plain JSON value space shared by
// the memory and postgres drivers.
func encode(data any) (map[string]any, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}

	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	if out == nil {
		return nil, fmt.Errorf("encode document: %T is not an object", data)
	}

	return out, nil
}

func encodeValue(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode value: %w", err)
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("encode value: %w", err)
	}
	return out, nil
}

func decode(data map[string]any, dst any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("decode document: %w", err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode document: %w", err)
	}
	return nil
}

type mapSnapshot struct {
	id   string
	data map[string]any
}

func (s *mapSnapshot) ID() string { return s.id }

func (s *mapSnapshot) Exists() bool { return s.data != nil }

func (s *mapSnapshot) DataTo(dst any) error {
	if s.data == nil {
		return fmt.Errorf("decode %s: %w", s.id, ErrNotFound)
	}
	return decode(s.data, dst)
}

// deepMerge writes src into dst. Nested maps merge key by key, every other
// value replaces what was there.
func deepMerge(dst, src map[string]any) map[string]any {
	if dst == nil {
		dst = make(map[string]any, len(src))
	}
	for k, v := range src {
		incoming, ok := v.(map[string]any)
		if !ok {
			dst[k] = v
			continue
		}
		existing, ok := dst[k].(map[string]any)
		if !ok {
			existing = nil
		}
		dst[k] = deepMerge(existing, incoming)
	}
	return dst
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		if nested, ok := v.(map[string]any); ok {
			out[k] = cloneMap(nested)
			continue
		}
		if list, ok := v.([]any); ok {
			out[k] = append([]any(nil), list...)
			continue
		}
		out[k] = v
	}
	return out
}

func lookup(data map[string]any, path string) (any, bool) {
	var cur any = data
	for _, part := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

func matches(data map[string]any, filters []Filter) (bool, error) {
	for _, f := range filters {
		want, err := encodeValue(f.Value)
		if err != nil {
			return false, err
		}
		got, ok := lookup(data, f.Field)
		if !ok || !reflect.DeepEqual(got, want) {
			return false, nil
		}
	}
	return true, nil
}

// compareValues orders the JSON value space: missing < bool < number <
// timestamp < string. Timestamps are RFC 3339 strings compared as instants.
func compareValues(a, b any) int {
	ra, rb := rank(a), rank(b)
	if ra != rb {
		return ra - rb
	}

	switch av := a.(type) {
	case bool:
		bv := b.(bool)
		switch {
		case av == bv:
			return 0
		case !av:
			return -1
		default:
			return 1
		}
	case float64:
		bv := b.(float64)
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		default:
			return 0
		}
	case string:
		bv := b.(string)
		if ta, ok := parseTime(av); ok {
			tb, _ := parseTime(bv)
			return ta.Compare(tb)
		}
		return strings.Compare(av, bv)
	}

	return 0
}

func rank(v any) int {
	switch tv := v.(type) {
	case nil:
		return 0
	case bool:
		return 1
	case float64:
		return 2
	case string:
		if _, ok := parseTime(tv); ok {
			return 3
		}
		return 4
	default:
		return 5
	}
}

func parseTime(s string) (time.Time, bool) {
	t, err := time.Parse(time.RFC3339Nano, s)
	return t, err == nil
}

func sortSnapshots(snaps []*mapSnapshot, field string, desc bool) {
	if field == "" {
		sort.SliceStable(snaps, func(i, j int) bool { return snaps[i].id < snaps[j].id })
		return
	}
	sort.SliceStable(snaps, func(i, j int) bool {
		a, _ := lookup(snaps[i].data, field)
		b, _ := lookup(snaps[j].data, field)
		c := compareValues(a, b)
		if desc {
			return c > 0
		}
		return c < 0
	})
}
