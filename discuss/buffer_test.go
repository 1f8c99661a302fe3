package discuss_test

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/nasermirzaei89/threadline/discuss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func draft(postID, content string) discuss.Comment {
	return discuss.Comment{
		PostID:    postID,
		AuthorID:  "author-1",
		Content:   content,
		CreatedAt: baseTime,
	}
}

func TestBuffer_Add(t *testing.T) {
	t.Parallel()

	buffer := discuss.NewBuffer()

	localID, err := buffer.Add(draft(testPostID, "hello"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(localID.String(), discuss.LocalIDPrefix))

	pending := buffer.Snapshot(testPostID)
	require.Len(t, pending, 1)
	assert.Equal(t, discuss.CommentID(localID), pending[0].ID)
	assert.True(t, pending[0].IsPending())
	assert.Equal(t, "hello", pending[0].Content)

	assert.Empty(t, buffer.Snapshot("other-post"))
}

func TestBuffer_AddValidatesIDs(t *testing.T) {
	t.Parallel()

	buffer := discuss.NewBuffer()

	t.Run("caller provided local id", func(t *testing.T) {
		c := draft(testPostID, "mine")
		c.ID = discuss.LocalID("local-mine")

		localID, err := buffer.Add(c)
		require.NoError(t, err)
		assert.Equal(t, discuss.LocalID("local-mine"), localID)
	})

	t.Run("duplicate local id", func(t *testing.T) {
		c := draft(testPostID, "again")
		c.ID = discuss.LocalID("local-mine")

		_, err := buffer.Add(c)
		require.Error(t, err)

		duplicateErr := &discuss.DuplicateLocalIDError{}
		require.ErrorAs(t, err, &duplicateErr)
	})

	t.Run("local id without prefix", func(t *testing.T) {
		c := draft(testPostID, "bad")
		c.ID = discuss.LocalID("mine")

		_, err := buffer.Add(c)

		invalidErr := &discuss.InvalidLocalIDError{}
		require.ErrorAs(t, err, &invalidErr)
	})

	t.Run("persisted comment", func(t *testing.T) {
		_, err := buffer.Add(comment("s1", "", 0))

		persistedErr := &discuss.PersistedCommentError{}
		require.ErrorAs(t, err, &persistedErr)
		assert.Equal(t, discuss.ServerID("s1"), persistedErr.ID)
	})
}

func TestBuffer_ReconcileIsIdempotent(t *testing.T) {
	t.Parallel()

	buffer := discuss.NewBuffer()

	first, err := buffer.Add(draft(testPostID, "first"))
	require.NoError(t, err)

	second, err := buffer.Add(draft(testPostID, "second"))
	require.NoError(t, err)

	persisted := comment("s1", "", 0)

	buffer.Reconcile(first, persisted)

	afterOnce := buffer.Snapshot(testPostID)

	buffer.Reconcile(first, persisted)

	afterTwice := buffer.Snapshot(testPostID)

	assert.Equal(t, afterOnce, afterTwice)
	assert.Equal(t, []string{second.String()}, commentIDs(afterTwice))

	serverID, ok := buffer.Resolve(first)
	require.True(t, ok)
	assert.Equal(t, discuss.ServerID("s1"), serverID)
}

func TestBuffer_ReconcileUnknownIsNoop(t *testing.T) {
	t.Parallel()

	buffer := discuss.NewBuffer()

	localID, err := buffer.Add(draft(testPostID, "kept"))
	require.NoError(t, err)

	buffer.Reconcile(discuss.LocalID("local-unknown"), comment("s1", "", 0))

	assert.Equal(t, []string{localID.String()}, commentIDs(buffer.Snapshot(testPostID)))

	_, ok := buffer.Resolve(discuss.LocalID("local-unknown"))
	assert.False(t, ok)
}

func TestBuffer_BindAndDiscard(t *testing.T) {
	t.Parallel()

	buffer := discuss.NewBuffer()

	localID, err := buffer.Add(draft(testPostID, "pending"))
	require.NoError(t, err)

	buffer.Bind(localID, discuss.ServerID("s9"))

	serverID, ok := buffer.Resolve(localID)
	require.True(t, ok)
	assert.Equal(t, discuss.ServerID("s9"), serverID)

	buffer.Discard(localID)

	assert.Empty(t, buffer.Snapshot(testPostID))

	_, ok = buffer.Resolve(localID)
	assert.False(t, ok)

	// binding a removed entry has no effect
	buffer.Bind(localID, discuss.ServerID("s10"))

	_, ok = buffer.Resolve(localID)
	assert.False(t, ok)
}

func TestBuffer_Clear(t *testing.T) {
	t.Parallel()

	buffer := discuss.NewBuffer()

	cleared, err := buffer.Add(draft(testPostID, "goes away"))
	require.NoError(t, err)

	kept, err := buffer.Add(draft("post-2", "stays"))
	require.NoError(t, err)

	buffer.Clear(testPostID)

	assert.Empty(t, buffer.Snapshot(testPostID))
	assert.Equal(t, []string{kept.String()}, commentIDs(buffer.Snapshot("post-2")))

	// late confirmation of a cleared draft is ignored
	buffer.Reconcile(cleared, comment("s1", "", 0))

	_, ok := buffer.Resolve(cleared)
	assert.False(t, ok)

	buffer.Clear("never-used")

	again, err := buffer.Add(draft(testPostID, "new session"))
	require.NoError(t, err)
	assert.Equal(t, []string{again.String()}, commentIDs(buffer.Snapshot(testPostID)))
}

func TestBuffer_ConcurrentAddAndReconcile(t *testing.T) {
	t.Parallel()

	const (
		posts   = 4
		perPost = 50
	)

	buffer := discuss.NewBuffer()

	var wg sync.WaitGroup

	for p := range posts {
		postID := fmt.Sprintf("post-%d", p)

		wg.Add(1)

		go func() {
			defer wg.Done()

			for i := range perPost {
				localID, err := buffer.Add(draft(postID, fmt.Sprintf("draft %d", i)))
				if !assert.NoError(t, err) {
					return
				}

				var inner sync.WaitGroup

				inner.Add(2)

				go func() {
					defer inner.Done()

					buffer.Reconcile(localID, discuss.Comment{ID: discuss.ServerID(localID.String() + "-s"), PostID: postID})
				}()

				go func() {
					defer inner.Done()

					_ = buffer.Snapshot(postID)
				}()

				inner.Wait()
			}
		}()
	}

	wg.Wait()

	for p := range posts {
		assert.Empty(t, buffer.Snapshot(fmt.Sprintf("post-%d", p)))
	}
}
