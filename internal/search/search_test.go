package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func identity(s string) string { return s }

func TestFilter_Inactive(t *testing.T) {
	list := []string{"a.txt", "docs"}
	assert.Equal(t, list, Filter(list, identity, Inactive{}))
}

func TestFilter_CaseInsensitiveSubstring(t *testing.T) {
	list := []string{"Report.CSV", "a.txt", "docs", "my-report"}

	got := Filter(list, identity, Files{Query: "REPORT"})
	assert.Equal(t, []string{"Report.CSV", "my-report"}, got)

	got = Filter(list, identity, Containers{Query: "doc"})
	assert.Equal(t, []string{"docs"}, got)
}

func TestFilter_EmptyQueryEqualsUnfiltered(t *testing.T) {
	list := []string{"b", "a", "c"}
	assert.Equal(t, list, Filter(list, identity, Files{}))
	assert.Equal(t, list, Filter(list, identity, Containers{}))
}

func TestFilter_Idempotent(t *testing.T) {
	list := []string{"alpha", "beta", "alphabet", "gamma", "ALP"}
	for _, q := range []string{"", "a", "alp", "zzz", "ET"} {
		t.Run(q, func(t *testing.T) {
			s := Files{Query: q}
			once := Filter(list, identity, s)
			twice := Filter(once, identity, s)
			assert.Equal(t, once, twice)
		})
	}
}

func TestIndices(t *testing.T) {
	names := []string{"a.txt", "docs", "Documents", "img"}
	assert.Equal(t, []int{1, 2}, Indices(names, Files{Query: "doc"}))
	assert.Equal(t, []int{0, 1, 2, 3}, Indices(names, Inactive{}))
	assert.Empty(t, Indices(names, Files{Query: "nope"}))
}

func TestStateHelpers(t *testing.T) {
	q, ok := Query(Inactive{})
	assert.False(t, ok)
	assert.Empty(t, q)

	s := WithCursor(Files{Query: "x"}, 3)
	assert.Equal(t, 3, Cursor(s))

	s = WithQuery(s, "xy")
	assert.Equal(t, Files{Query: "xy"}, s)

	assert.Equal(t, Containers{Query: "b"}, WithQuery(Containers{Query: "a", Cursor: 2}, "b"))
	assert.Equal(t, Inactive{}, WithQuery(Inactive{}, "z"))
}
