// AngelaMos | 2026
// codec_test.go

package docstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeepMerge(t *testing.T) {
	dst := map[string]any{
		"name":   "X",
		"styles": map[string]any{"color": "#fff", "size": 12.0},
		"tags":   []any{"a"},
	}
	src := map[string]any{
		"styles": map[string]any{"size": 14.0},
		"tags":   []any{"b"},
		"extra":  true,
	}

	got := deepMerge(dst, src)

	assert.Equal(t, "X", got["name"])
	assert.Equal(t, map[string]any{"color": "#fff", "size": 14.0}, got["styles"])
	assert.Equal(t, []any{"b"}, got["tags"], "lists replace rather than merge")
	assert.Equal(t, true, got["extra"])
}

func TestDeepMergeReplacesScalarWithMap(t *testing.T) {
	got := deepMerge(map[string]any{"value": "text"}, map[string]any{
		"value": map[string]any{"title": "Kia ora"},
	})
	assert.Equal(t, map[string]any{"title": "Kia ora"}, got["value"])
}

func TestCompareValues(t *testing.T) {
	tests := []struct {
		name string
		a, b any
		want int
	}{
		{name: "numbers", a: 1.0, b: 2.0, want: -1},
		{name: "equal numbers", a: 2.0, b: 2.0, want: 0},
		{name: "strings", a: "b", b: "a", want: 1},
		{name: "missing sorts first", a: nil, b: "a", want: -1},
		{name: "bool before number", a: true, b: 0.0, want: -1},
		{
			name: "timestamps compare as instants",
			a:    "2026-09-01T08:00:00.5Z",
			b:    "2026-09-01T08:00:00Z",
			want: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := compareValues(tt.a, tt.b)
			switch {
			case tt.want < 0:
				assert.Negative(t, got)
			case tt.want > 0:
				assert.Positive(t, got)
			default:
				assert.Zero(t, got)
			}
		})
	}
}

func TestEncodeRejectsNonObjects(t *testing.T) {
	_, err := encode([]string{"a"})
	require.Error(t, err)
}

func TestBuildListQuery(t *testing.T) {
	query, args, err := buildListQuery("cms_content", Query{
		Where:   []Filter{{Field: "metadata.section", Value: "home"}},
		OrderBy: "key",
		Limit:   5,
	})
	require.NoError(t, err)

	assert.Equal(t,
		`SELECT id, data FROM documents WHERE collection = $1`+
			` AND data #> $2::text[] = $3::jsonb`+
			` ORDER BY data #> $4::text[] ASC, id`+
			` LIMIT $5`,
		query,
	)
	require.Len(t, args, 5)
	assert.Equal(t, "cms_content", args[0])
	assert.Equal(t, []string{"metadata", "section"}, args[1])
	assert.Equal(t, `"home"`, args[2])
	assert.Equal(t, []string{"key"}, args[3])
	assert.Equal(t, 5, args[4])
}
