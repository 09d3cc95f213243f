package collections_test

import (
	"testing"

	"github.com/alkime/pagenotes/pkg/collections"

	"github.com/stretchr/testify/require"
)

type page struct {
	Label string
	Num   int
}

func TestApply(t *testing.T) {
	t.Run("basic types", func(t *testing.T) {
		lengths := collections.Apply([]string{"a", "bb", "ccc"}, func(s string) int {
			return len(s)
		})
		require.Equal(t, []int{1, 2, 3}, lengths)
	})

	t.Run("structs", func(t *testing.T) {
		pages := []page{{Label: "intro", Num: 1}, {Label: "body", Num: 2}}
		labels := collections.Apply(pages, func(p page) string { return p.Label })
		require.Equal(t, []string{"intro", "body"}, labels)
	})

	t.Run("empty input", func(t *testing.T) {
		require.Empty(t, collections.Apply([]int(nil), func(i int) int { return i }))
	})
}

func TestFilter(t *testing.T) {
	pages := []page{{Label: "a", Num: 1}, {Label: "b", Num: 2}, {Label: "c", Num: 1}}

	onFirst := collections.Filter(pages, func(p page) bool { return p.Num == 1 })
	require.Equal(t, []page{{Label: "a", Num: 1}, {Label: "c", Num: 1}}, onFirst)

	none := collections.Filter(pages, func(page) bool { return false })
	require.NotNil(t, none)
	require.Empty(t, none)
}
