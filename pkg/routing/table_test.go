package routing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vyrodovalexey/avaroute/internal/pattern"
)

func testRegistration(t *testing.T, kind Kind, raw string, seq uint64, tags ...string) *Registration {
	t.Helper()

	m, err := pattern.Compile(raw)
	require.NoError(t, err)

	set := newTagSet(tags)
	return &Registration{
		kind:     kind,
		seq:      seq,
		matcher:  m,
		tags:     set,
		tagList:  set.sorted(),
		executor: Inline,
	}
}

func patterns(entries []*Registration) []string {
	out := make([]string, len(entries))
	for i, reg := range entries {
		out[i] = reg.Pattern()
	}
	return out
}

func TestTable_HeadInsertion(t *testing.T) {
	t.Parallel()

	tbl := newTable()
	defer tbl.close()

	require.True(t, tbl.register(testRegistration(t, KindRoute, "a", 1)))
	require.True(t, tbl.register(testRegistration(t, KindRoute, "b", 2)))
	require.True(t, tbl.register(testRegistration(t, KindProxy, "c", 3)))

	assert.Equal(t, []string{"c", "b", "a"}, patterns(tbl.snapshot()))
	assert.Equal(t, 3, tbl.Len())
}

func TestTable_SnapshotIsImmutable(t *testing.T) {
	t.Parallel()

	tbl := newTable()
	defer tbl.close()

	tbl.register(testRegistration(t, KindRoute, "a", 1))
	before := tbl.snapshot()

	tbl.register(testRegistration(t, KindRoute, "b", 2))
	after := tbl.snapshot()

	assert.Equal(t, []string{"a"}, patterns(before))
	assert.Equal(t, []string{"b", "a"}, patterns(after))
}

func TestTable_RegisterAfterClose(t *testing.T) {
	t.Parallel()

	tbl := newTable()
	tbl.close()

	assert.False(t, tbl.register(testRegistration(t, KindRoute, "a", 1)))
	assert.Equal(t, 0, tbl.Len())
}

func TestTable_FilteredByTags(t *testing.T) {
	t.Parallel()

	tbl := newTable()
	defer tbl.close()

	tbl.register(testRegistration(t, KindRoute, "untagged", 1))
	tbl.register(testRegistration(t, KindRoute, "a1", 2, "A"))
	tbl.register(testRegistration(t, KindProxy, "ab", 3, "A", "B"))
	tbl.register(testRegistration(t, KindRoute, "b", 4, "B"))
	tbl.register(testRegistration(t, KindRoute, "a2", 5, "A"))

	tests := []struct {
		name    string
		filters []tagSet
		want    []string
	}{
		{name: "single tag keeps order", filters: []tagSet{newTagSet([]string{"A"})}, want: []string{"a2", "ab", "a1"}},
		{name: "any of several tags", filters: []tagSet{newTagSet([]string{"A", "B"})}, want: []string{"a2", "b", "ab", "a1"}},
		{
			name:    "every level must intersect",
			filters: []tagSet{newTagSet([]string{"A"}), newTagSet([]string{"B"})},
			want:    []string{"ab"},
		},
		{name: "unknown tag", filters: []tagSet{newTagSet([]string{"Z"})}, want: []string{}},
		{name: "empty tag set", filters: []tagSet{newTagSet(nil)}, want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			view := tbl.filteredByTags(tt.filters...)
			assert.Equal(t, tt.want, patterns(view.snapshot()))
		})
	}
}

func TestFirstRouteAndMatchingProxies(t *testing.T) {
	t.Parallel()

	entries := []*Registration{
		testRegistration(t, KindProxy, "app://*", 4),
		testRegistration(t, KindRoute, "app://items/:id", 3),
		testRegistration(t, KindProxy, "app://items/*", 2),
		testRegistration(t, KindRoute, "app://items/*", 1),
	}

	route := firstRoute(entries, "app://items/42")
	require.NotNil(t, route)
	assert.Equal(t, "app://items/:id", route.Pattern())

	route = firstRoute(entries, "app://items/42/reviews")
	require.NotNil(t, route)
	assert.Equal(t, "app://items/*", route.Pattern())

	assert.Nil(t, firstRoute(entries, "other://x"))

	proxies := matchingProxies(entries, "app://items/42")
	assert.Equal(t, []string{"app://*", "app://items/*"}, patterns(proxies))
	assert.Empty(t, matchingProxies(entries, "other://x"))
}

func TestKind_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "route", KindRoute.String())
	assert.Equal(t, "proxy", KindProxy.String())
	assert.Equal(t, "unknown", Kind(9).String())
}

func TestTagSet_Intersects(t *testing.T) {
	t.Parallel()

	a := newTagSet([]string{"x", "y"})
	b := newTagSet([]string{"y", "z", "w"})
	c := newTagSet([]string{"q"})

	assert.True(t, a.intersects(b))
	assert.True(t, b.intersects(a))
	assert.False(t, a.intersects(c))
	assert.False(t, a.intersects(newTagSet(nil)))
	assert.Equal(t, []string{"w", "y", "z"}, b.sorted())
}
