package discuss_test

import (
	"testing"

	"github.com/nasermirzaei89/threadline/discuss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFlattener(t *testing.T, maxDepth int) *discuss.Flattener {
	t.Helper()

	flattener, err := discuss.NewFlattener(maxDepth)
	require.NoError(t, err)

	return flattener
}

func TestNewFlattener_RejectsNegativeDepth(t *testing.T) {
	t.Parallel()

	flattener, err := discuss.NewFlattener(-1)
	require.Error(t, err)
	assert.Nil(t, flattener)

	invalidMaxDepthErr := &discuss.InvalidMaxDepthError{}
	require.ErrorAs(t, err, &invalidMaxDepthErr)
	assert.Equal(t, -1, invalidMaxDepthErr.MaxDepth)
}

func TestFlattener_PullsDeepRepliesUp(t *testing.T) {
	t.Parallel()

	comments := []discuss.Comment{
		comment("1", "", 0),
		comment("2", "1", 1),
		comment("3", "2", 2),
		comment("4", "3", 3),
	}

	flattened := newFlattener(t, 2).Flatten(discuss.Build(comments))

	require.Equal(t, []string{"1"}, ids(flattened))
	assert.Equal(t, 0, flattened[0].Depth)

	require.Equal(t, []string{"2"}, ids(flattened[0].Children))
	two := flattened[0].Children[0]
	assert.Equal(t, 1, two.Depth)

	require.Equal(t, []string{"3", "4"}, ids(two.Children))

	for _, node := range two.Children {
		assert.Equal(t, 2, node.Depth)
		assert.Empty(t, node.Children)
	}
}

func TestFlattener_BreadthFirstOrder(t *testing.T) {
	t.Parallel()

	flattened := newFlattener(t, 2).Flatten(discuss.Build(sampleThread()))

	require.Equal(t, []string{"a", "j"}, ids(flattened))

	a := flattened[0]
	require.Equal(t, []string{"b", "c"}, ids(a.Children))

	// b's subtree level by level: d, e, then g
	assert.Equal(t, []string{"d", "e", "g"}, ids(a.Children[0].Children))
	assert.Equal(t, []string{"f", "h", "i"}, ids(a.Children[1].Children))
	assert.Empty(t, flattened[1].Children)
}

func TestFlattener_BreadthFirstAcrossSiblings(t *testing.T) {
	t.Parallel()

	comments := []discuss.Comment{
		comment("root", "", 0),
		comment("x", "root", 1),
		comment("y", "root", 2),
		comment("x1", "x", 3),
		comment("y1", "y", 4),
		comment("x2", "x1", 5),
	}

	flattened := newFlattener(t, 1).Flatten(discuss.Build(comments))

	require.Len(t, flattened, 1)
	assert.Equal(t, []string{"x", "y", "x1", "y1", "x2"}, ids(flattened[0].Children))
}

func TestFlattener_ZeroDepthListsEverythingAsRoots(t *testing.T) {
	t.Parallel()

	flattened := newFlattener(t, 0).Flatten(discuss.Build(sampleThread()))

	assert.Equal(t, []string{"a", "j", "b", "c", "d", "e", "f", "g", "h", "i"}, ids(flattened))
	assert.Equal(t, 0, maxDepthOf(flattened))
}

func TestFlattener_ShallowTreeIsUnchanged(t *testing.T) {
	t.Parallel()

	forest := discuss.Build(sampleThread())
	flattened := newFlattener(t, 10).Flatten(forest)

	assert.Equal(t, countNodes(forest), countNodes(flattened))
	assert.Equal(t, maxDepthOf(forest), maxDepthOf(flattened))
	assert.Equal(t, []string{"g"}, ids(flattened[0].Children[0].Children[0].Children))
}

func TestFlattener_DoesNotModifyInput(t *testing.T) {
	t.Parallel()

	forest := discuss.Build(chain(6))
	flattened := newFlattener(t, 1).Flatten(forest)

	require.Len(t, flattened[0].Children, 5)
	assert.Equal(t, 5, maxDepthOf(forest))
	assert.Len(t, forest[0].Children, 1)
	assert.Equal(t, 5, discuss.CountDescendants(forest[0]))
	assert.NotSame(t, forest[0], flattened[0])
}

func TestFlattener_DepthCap(t *testing.T) {
	t.Parallel()

	forests := map[string][]*discuss.CommentNode{
		"sample": discuss.Build(sampleThread()),
		"chain":  discuss.Build(chain(30)),
		"empty":  nil,
	}

	for name, forest := range forests {
		for maxDepth := range 6 {
			flattened := newFlattener(t, maxDepth).Flatten(forest)

			assert.LessOrEqual(t, maxDepthOf(flattened), maxDepth, "%s max depth %d", name, maxDepth)
			assert.Equal(t, countNodes(forest), countNodes(flattened), "%s max depth %d", name, maxDepth)
		}
	}
}

func TestFlattener_PreservesReplyCountsAtCollectionPoints(t *testing.T) {
	t.Parallel()

	const maxDepth = 2

	forest := discuss.Build(sampleThread())
	flattened := newFlattener(t, maxDepth).Flatten(forest)

	original := make(map[discuss.CommentID]*discuss.CommentNode)

	discuss.Walk(forest, func(node *discuss.CommentNode) {
		original[node.ID] = node
	})

	discuss.Walk(flattened, func(node *discuss.CommentNode) {
		if node.Depth != maxDepth-1 {
			return
		}

		assert.Len(t, node.Children, discuss.CountDescendants(original[node.ID]), node.ID.String())
	})
}
