package query

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krew-solutions/bloc-go/bloc/filter/domain/validation"
)

func TestToDocument(t *testing.T) {
	t.Run("field operators", func(t *testing.T) {
		f := mustParse(t, map[string]any{
			"age":  map[string]any{"$gte": 18, "$mod": []any{2, 0}},
			"name": map[string]any{"$regex": regexp.MustCompile("^A"), "$not": map[string]any{"$eq": "Al"}},
			"tags": map[string]any{"$all": []any{"a"}, "$size": 1},
		})
		doc, err := ToDocument(f)
		require.NoError(t, err)
		assert.Equal(t, map[string]any{
			"age":  map[string]any{"$gte": 18, "$mod": []any{2.0, 0.0}},
			"name": map[string]any{"$regex": "^A", "$not": map[string]any{"$eq": "Al"}},
			"tags": map[string]any{"$all": []any{"a"}, "$size": 1},
		}, doc)
	})
	t.Run("logical", func(t *testing.T) {
		arm := map[string]any{"a": map[string]any{"$in": []any{1, 2}}}
		f := mustParse(t, map[string]any{"$or": []any{arm}, "$nor": []any{arm}})
		doc, err := ToDocument(f)
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"$or": []any{arm}, "$nor": []any{arm}}, doc)
	})
	t.Run("round trip", func(t *testing.T) {
		e := NewEvaluator()
		f := mustParse(t, map[string]any{
			"age": map[string]any{"$lt": 40},
			"$or": []any{
				map[string]any{"tags": map[string]any{"$exists": true}},
				map[string]any{"email.address": map[string]any{"$type": "string"}},
			},
		})
		doc, err := ToDocument(f)
		require.NoError(t, err)
		again, err := ParseFilter(doc, validation.Full)
		require.NoError(t, err)
		assert.Equal(t, names(apply(e, f, people())), names(apply(e, again, people())))
	})
	t.Run("where predicate survives revalidation", func(t *testing.T) {
		f := mustParse(t, map[string]any{"a": map[string]any{"$where": func(any) bool { return true }}})
		doc, err := ToDocument(f)
		require.NoError(t, err)
		_, err = ParseFilter(doc, validation.Full)
		assert.NoError(t, err)
	})
}
