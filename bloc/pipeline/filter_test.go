package pipeline

import (
	"iter"
	"reflect"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krew-solutions/bloc-go/bloc/filter/domain/validation"
)

// =============================================================================
// Test Fixtures
// =============================================================================

func explorers() []Record {
	return []Record{
		map[string]any{
			"name":  "Nigel Thornberry",
			"age":   42,
			"email": map[string]any{"address": "nigel.thornberry@thewildthornberrys.com"},
			"tags":  []any{"explorer", "father", "traveler", "photographer"},
			"hobbies": []any{
				map[string]any{"name": "exploring", "description": "Exploring is cool and such"},
				map[string]any{"name": "rving"},
				map[string]any{"name": "photography", "places": []any{"everywhere"}},
				map[string]any{"name": "backpacking"},
			},
		},
		map[string]any{
			"name":  "Anthony Stark",
			"age":   34,
			"email": map[string]any{"address": "tony@stark.com"},
			"tags":  []any{"billionaire", "playboy", "philanthropist", "iron man"},
			"hobbies": []any{
				map[string]any{"name": "being-awesome"},
				map[string]any{"name": "flying"},
				map[string]any{"name": "shooting-missles"},
			},
		},
	}
}

// assertSame checks that got holds exactly the records of want at the given
// indexes, by identity.
func assertSame(t *testing.T, want []Record, idx []int, got []Record) {
	t.Helper()
	require.Len(t, got, len(idx))
	for i, j := range idx {
		assert.Equal(t, pointerOf(want[j]), pointerOf(got[i]), "record %d", i)
	}
}

// pointerOf identifies a map record.
func pointerOf(r Record) uintptr {
	return reflect.ValueOf(r).Pointer()
}

// =============================================================================
// filter()
// =============================================================================

func TestFilterValidation(t *testing.T) {
	data := explorers()

	t.Run("friendly message on an invalid filter", func(t *testing.T) {
		_, err := Filter(data, Document{"age": Document{}}, WithProfile(validation.Basic))
		require.Error(t, err)
		assert.Equal(t,
			`child "age" fails because ["value" must contain at least one of [$eq, $gt, $gte, $lt, $lte, $ne, $in, $nin, $not]]`,
			err.Error())
	})
	t.Run("full profile lists every operator", func(t *testing.T) {
		_, err := Filter(data, Document{"age": Document{}})
		require.Error(t, err)
		assert.Equal(t,
			`child "age" fails because ["value" must contain at least one of [$eq, $gt, $gte, $lt, $lte, $ne, $in, $nin, $not, $exists, $type, $mod, $regex, $where, $all, $elemMatch, $size]]`,
			err.Error())
		assert.ErrorIs(t, err, validation.ErrInvalid)
	})
	t.Run("typed error names the key", func(t *testing.T) {
		_, err := Filter(data, Document{"age": Document{"$foo": 1}})
		var verr *validation.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, []string{"age"}, verr.Path())
		assert.Equal(t, `child "age" fails because ["$foo" is not allowed]`, verr.Error())
	})
	t.Run("no partial results", func(t *testing.T) {
		pulled := false
		var source iter.Seq[Record] = func(func(Record) bool) {
			pulled = true
		}
		out, err := FilterStream(source, Document{"age": Document{}})
		assert.Error(t, err)
		assert.Nil(t, out)
		assert.False(t, pulled)
	})
}

func TestFilterAll(t *testing.T) {
	data := explorers()

	t.Run("no filter returns everything", func(t *testing.T) {
		out, err := Filter(data, nil)
		require.NoError(t, err)
		assertSame(t, data, []int{0, 1}, out)
	})
	t.Run("empty filter returns everything", func(t *testing.T) {
		out, err := Filter(data, Document{})
		require.NoError(t, err)
		assertSame(t, data, []int{0, 1}, out)
	})
	t.Run("stream instead of results", func(t *testing.T) {
		seq, err := FilterStream(data, Document{})
		require.NoError(t, err)
		assertSame(t, data, []int{0, 1}, slices.Collect(seq))
	})
	t.Run("stream is single pass", func(t *testing.T) {
		seq, err := FilterStream(data, Document{})
		require.NoError(t, err)
		assert.Len(t, slices.Collect(seq), 2)
		assert.Empty(t, slices.Collect(seq))
	})
	t.Run("empty input", func(t *testing.T) {
		out, err := Filter([]Record{}, Document{"age": Document{"$eq": 1}})
		require.NoError(t, err)
		assert.NotNil(t, out)
		assert.Empty(t, out)
	})
}

func TestFilterOperators(t *testing.T) {
	data := explorers()
	tony := Document{"address": "tony@stark.com"}
	nigel := Document{"address": "nigel.thornberry@thewildthornberrys.com"}

	cases := []struct {
		name string
		doc  Document
		want []int
	}{
		{"$eq top level key", Document{"age": Document{"$eq": 34}}, []int{1}},
		{"$eq object", Document{"email": Document{"$eq": tony}}, []int{1}},
		{"$in top level key", Document{"age": Document{"$in": []any{34}}}, []int{1}},
		{"$in object", Document{"email": Document{"$in": []any{tony}}}, []int{1}},
		{"$nin top level key", Document{"age": Document{"$nin": []any{42}}}, []int{1}},
		{"$nin object", Document{"email": Document{"$nin": []any{nigel}}}, []int{1}},
		{"$ne top level key", Document{"age": Document{"$ne": 42}}, []int{1}},
		{"$ne object", Document{"email": Document{"$ne": nigel}}, []int{1}},
		{"$gt", Document{"age": Document{"$gt": 34}}, []int{0}},
		{"$gte", Document{"age": Document{"$gte": 34}}, []int{0, 1}},
		{"$lt", Document{"age": Document{"$lt": 42}}, []int{1}},
		{"$lte", Document{"age": Document{"$lte": 42}}, []int{0, 1}},
		{"$and", Document{"$and": []any{
			Document{"age": Document{"$eq": 34}},
			Document{"name": Document{"$eq": "Anthony Stark"}},
		}}, []int{1}},
		{"$not $eq", Document{"age": Document{"$not": Document{"$eq": 42}}}, []int{1}},
		{"$not $in", Document{"age": Document{"$not": Document{"$in": []any{42}}}}, []int{1}},
		{"$not $nin", Document{"age": Document{"$not": Document{"$nin": []any{34}}}}, []int{1}},
		{"$not $ne", Document{"age": Document{"$not": Document{"$ne": 34}}}, []int{1}},
		{"$not $gt", Document{"age": Document{"$not": Document{"$gt": 42}}}, []int{0, 1}},
		{"$not $gte", Document{"age": Document{"$not": Document{"$gte": 42}}}, []int{1}},
		{"$not $lt", Document{"age": Document{"$not": Document{"$lt": 34}}}, []int{0, 1}},
		{"$not $lte", Document{"age": Document{"$not": Document{"$lte": 34}}}, []int{0}},
		{"dotted path", Document{"email.address": Document{"$eq": "tony@stark.com"}}, []int{1}},
		{"$exists", Document{"email.address": Document{"$exists": true}}, []int{0, 1}},
		{"$exists false", Document{"phone": Document{"$exists": false}}, []int{0, 1}},
		{"$type", Document{"tags": Document{"$type": "array"}}, []int{0, 1}},
		{"$mod", Document{"age": Document{"$mod": []any{4, 2}}}, []int{0, 1}},
		{"$mod no match", Document{"age": Document{"$mod": []any{3, 2}}}, []int{}},
		{"$regex", Document{"name": Document{"$regex": "^Anthony"}}, []int{1}},
		{"$all", Document{"tags": Document{"$all": []any{"playboy", "iron man", "billionaire", "philanthropist"}}}, []int{1}},
		{"$all length sensitive", Document{"tags": Document{"$all": []any{"playboy", "billionaire"}}}, []int{}},
		{"$elemMatch", Document{"tags": Document{"$elemMatch": []any{"father"}}}, []int{0}},
		{"$size", Document{"hobbies": Document{"$size": 3}}, []int{1}},
		{"$where", Document{"age": Document{"$where": func(v any) bool {
			n, ok := v.(int)
			return ok && n%2 == 0 && n > 40
		}}}, []int{0}},
		{"$or", Document{"$or": []any{
			Document{"age": Document{"$eq": 34}},
			Document{"age": Document{"$eq": 42}},
		}}, []int{1, 0}},
		{"$or duplicates", Document{"$or": []any{
			Document{"age": Document{"$gt": 40}},
			Document{"name": Document{"$regex": "Nigel"}},
		}}, []int{0, 0}},
		{"$nor", Document{"$nor": []any{
			Document{"age": Document{"$eq": 34}},
		}}, []int{0}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			out, err := Filter(data, c.doc)
			require.NoError(t, err)
			assertSame(t, data, c.want, out)

			seq, err := FilterStream(data, c.doc)
			require.NoError(t, err)
			assertSame(t, data, c.want, slices.Collect(seq))
		})
	}
}

// =============================================================================
// query()
// =============================================================================

func TestFilterLargeIntegers(t *testing.T) {
	data := []Record{
		Document{"id": int64(9007199254740992)},
		Document{"id": int64(9007199254740993)},
		Document{"id": uint64(1<<64 - 1)},
	}

	cases := []struct {
		name string
		doc  Document
		want []int
	}{
		{"$eq", Document{"id": Document{"$eq": int64(9007199254740992)}}, []int{0}},
		{"$ne", Document{"id": Document{"$ne": int64(9007199254740992)}}, []int{1, 2}},
		{"$in", Document{"id": Document{"$in": []any{uint64(9007199254740993)}}}, []int{1}},
		{"$gt", Document{"id": Document{"$gt": int64(9007199254740992)}}, []int{1, 2}},
		{"$lte", Document{"id": Document{"$lte": int64(9007199254740993)}}, []int{0, 1}},
		{"$regex", Document{"id": Document{"$regex": "3$"}}, []int{1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out, err := Filter(data, tc.doc)
			require.NoError(t, err)
			assertSame(t, data, tc.want, out)
		})
	}
}

func TestQuery(t *testing.T) {
	data := explorers()

	t.Run("match on a top level key", func(t *testing.T) {
		out, err := Query(data, Document{"$match": Document{"age": Document{"$eq": 42}}})
		require.NoError(t, err)
		assertSame(t, data, []int{0}, out)
	})
	t.Run("match with multiple top level keys", func(t *testing.T) {
		out, err := Query(data, Document{"$match": Document{
			"age":  Document{"$eq": 42},
			"name": Document{"$eq": "Nigel Thornberry"},
		}})
		require.NoError(t, err)
		assertSame(t, data, []int{0}, out)
	})
	t.Run("absent query returns everything", func(t *testing.T) {
		out, err := Query(data, nil)
		require.NoError(t, err)
		assertSame(t, data, []int{0, 1}, out)
	})
	t.Run("unsupported key", func(t *testing.T) {
		_, err := Query(data, Document{"unsupportedKey": Document{}})
		require.Error(t, err)
		assert.Equal(t, `"unsupportedKey" is not allowed`, err.Error())
	})
	t.Run("basic profile only", func(t *testing.T) {
		_, err := Query(data, Document{"$match": Document{"tags": Document{"$size": 4}}})
		require.Error(t, err)
		var verr *validation.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "tags", verr.Key())
		assert.Equal(t, `child "$match" fails because [child "tags" fails because ["$size" is not allowed]]`, err.Error())
	})
}
