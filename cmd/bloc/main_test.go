package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Test Fixtures
// =============================================================================

const people = `{"name":"Nigel","age":42,"tags":["explorer","father"]}
{"name":"Tony","age":34,"tags":["playboy"]}

{"name":"Eliza","age":12}
`

type result struct {
	stdout string
	stderr string
	err    error
}

func execute(t *testing.T, stdin string, args ...string) result {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(strings.NewReader(stdin), &stdout, &stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return result{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

func lines(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

// =============================================================================
// filter
// =============================================================================

func TestFilterCommand(t *testing.T) {
	t.Run("matches", func(t *testing.T) {
		r := execute(t, people, "filter", `{"age": {"$gte": 30}}`)
		require.NoError(t, r.err)
		assert.Equal(t, []string{
			`{"age":42,"name":"Nigel","tags":["explorer","father"]}`,
			`{"age":34,"name":"Tony","tags":["playboy"]}`,
		}, lines(r.stdout))
	})
	t.Run("yaml document", func(t *testing.T) {
		r := execute(t, people, "filter", "tags: {$size: 1}")
		require.NoError(t, r.err)
		assert.Equal(t, []string{`{"age":34,"name":"Tony","tags":["playboy"]}`}, lines(r.stdout))
	})
	t.Run("no document writes everything", func(t *testing.T) {
		r := execute(t, people, "filter")
		require.NoError(t, r.err)
		assert.Len(t, lines(r.stdout), 3)
	})
	t.Run("stream", func(t *testing.T) {
		r := execute(t, people, "filter", "--stream", `{"$or": [{"age": {"$lt": 40}}, {"name": {"$regex": "^T"}}]}`)
		require.NoError(t, r.err)
		assert.Equal(t, []string{
			`{"age":34,"name":"Tony","tags":["playboy"]}`,
			`{"age":12,"name":"Eliza"}`,
			`{"age":34,"name":"Tony","tags":["playboy"]}`,
		}, lines(r.stdout))
	})
	t.Run("invalid filter", func(t *testing.T) {
		r := execute(t, people, "filter", "--profile", "basic", `{"age": {}}`)
		require.Error(t, r.err)
		assert.Equal(t,
			`child "age" fails because ["value" must contain at least one of [$eq, $gt, $gte, $lt, $lte, $ne, $in, $nin, $not]]`,
			r.err.Error())
		assert.Empty(t, r.stdout)
	})
	t.Run("explain", func(t *testing.T) {
		r := execute(t, "", "filter", "--explain", `{"age": {"$not": {"$in": [1, 2]}}}`)
		require.NoError(t, r.err)
		assert.Equal(t, []string{`{"age":{"$not":{"$in":[1,2]}}}`}, lines(r.stdout))
	})
	t.Run("document must be a mapping", func(t *testing.T) {
		r := execute(t, people, "filter", `[1, 2]`)
		require.Error(t, r.err)
	})
}

// =============================================================================
// query and aggregate
// =============================================================================

func TestQueryCommand(t *testing.T) {
	t.Run("match", func(t *testing.T) {
		r := execute(t, people, "query", `{"$match": {"name": {"$in": ["Eliza"]}}}`)
		require.NoError(t, r.err)
		assert.Equal(t, []string{`{"age":12,"name":"Eliza"}`}, lines(r.stdout))
	})
	t.Run("unsupported key", func(t *testing.T) {
		r := execute(t, people, "query", `{"unsupportedKey": {}}`)
		require.Error(t, r.err)
		assert.Equal(t, `"unsupportedKey" is not allowed`, r.err.Error())
	})
}

func TestAggregateCommand(t *testing.T) {
	t.Run("mapping", func(t *testing.T) {
		r := execute(t, people, "aggregate", `{"$skip": 1, "$limit": 1}`)
		require.NoError(t, r.err)
		assert.Equal(t, []string{`{"age":34,"name":"Tony","tags":["playboy"]}`}, lines(r.stdout))
	})
	t.Run("pipeline list", func(t *testing.T) {
		r := execute(t, people, "aggregate", "--stream", `[{"$limit": 2}, {"$skip": 1}]`)
		require.NoError(t, r.err)
		assert.Equal(t, []string{`{"age":34,"name":"Tony","tags":["playboy"]}`}, lines(r.stdout))
	})
	t.Run("unknown stage", func(t *testing.T) {
		r := execute(t, people, "aggregate", `{"something": {}}`)
		require.Error(t, r.err)
		assert.Equal(t, `"something" is not allowed`, r.err.Error())
	})
}

// =============================================================================
// Input, configuration and diagnostics
// =============================================================================

func TestInput(t *testing.T) {
	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "people.ndjson")
		require.NoError(t, os.WriteFile(path, []byte(people), 0o600))
		r := execute(t, "", "filter", "--input", path, `{"age": {"$lt": 20}}`)
		require.NoError(t, r.err)
		assert.Equal(t, []string{`{"age":12,"name":"Eliza"}`}, lines(r.stdout))
	})
	t.Run("missing file", func(t *testing.T) {
		r := execute(t, "", "filter", "-i", filepath.Join(t.TempDir(), "nope.ndjson"))
		require.Error(t, r.err)
		assert.Contains(t, r.err.Error(), "open input")
	})
	t.Run("bad lines are reported after the good ones are written", func(t *testing.T) {
		r := execute(t, "{\"a\":1}\n{broken\n{\"a\":2}\nnot json\n", "filter")
		require.Error(t, r.err)
		assert.Equal(t, []string{`{"a":1}`, `{"a":2}`}, lines(r.stdout))
		assert.Contains(t, r.err.Error(), "line 2")
		assert.Contains(t, r.err.Error(), "line 4")
	})
}

func TestConfig(t *testing.T) {
	t.Run("environment", func(t *testing.T) {
		t.Setenv("BLOC_PROFILE", "basic")
		r := execute(t, people, "filter", `{"tags": {"$size": 1}}`)
		require.Error(t, r.err)
		assert.Equal(t, `child "tags" fails because ["$size" is not allowed]`, r.err.Error())
	})
	t.Run("flag overrides environment", func(t *testing.T) {
		t.Setenv("BLOC_PROFILE", "basic")
		r := execute(t, people, "filter", "--profile", "full", `{"tags": {"$size": 1}}`)
		require.NoError(t, r.err)
		assert.Len(t, lines(r.stdout), 1)
	})
	t.Run("config file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bloc.yaml")
		require.NoError(t, os.WriteFile(path, []byte("profile: basic\n"), 0o600))
		r := execute(t, people, "filter", "--config", path, `{"tags": {"$size": 1}}`)
		require.Error(t, r.err)
	})
	t.Run("invalid value", func(t *testing.T) {
		r := execute(t, people, "filter", "--log-format", "xml")
		require.Error(t, r.err)
		assert.Contains(t, r.err.Error(), "invalid config")
		assert.Contains(t, r.err.Error(), "LogFormat")
	})
}

func TestDiagnostics(t *testing.T) {
	t.Run("metrics", func(t *testing.T) {
		r := execute(t, people, "filter", "--metrics", `{"age": {"$gt": 40}}`)
		require.NoError(t, r.err)
		assert.Contains(t, r.stderr, `bloc_invocations_total{operation="filter"} 1`)
		assert.Contains(t, r.stderr, `bloc_records_emitted_total{operation="filter"} 1`)
	})
	t.Run("debug logs", func(t *testing.T) {
		r := execute(t, people, "filter", "--log-level", "debug", "--log-format", "json", `{"age": {"$gt": 40}}`)
		require.NoError(t, r.err)
		assert.Contains(t, r.stderr, `"msg":"invocation started"`)
		assert.Contains(t, r.stderr, `"msg":"records written"`)
		assert.Len(t, lines(r.stdout), 1)
	})
}
