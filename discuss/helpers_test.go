package discuss_test

import (
	"fmt"
	"time"

	"github.com/nasermirzaei89/threadline/discuss"
)

const testPostID = "post-1"

var baseTime = time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)

// comment builds a persisted comment of testPostID created minute minutes after baseTime.
func comment(id, parentID string, minute int) discuss.Comment {
	c := discuss.Comment{
		ID:        discuss.ServerID(id),
		PostID:    testPostID,
		AuthorID:  "author-" + id,
		Content:   "content " + id,
		CreatedAt: baseTime.Add(time.Duration(minute) * time.Minute),
	}

	if parentID != "" {
		c.ParentID = discuss.ServerID(parentID)
	}

	return c
}

// chain returns n comments where each replies to the previous one.
func chain(n int) []discuss.Comment {
	comments := make([]discuss.Comment, 0, n)

	for i := range n {
		parentID := ""
		if i > 0 {
			parentID = idOf(i)
		}

		comments = append(comments, comment(idOf(i+1), parentID, i))
	}

	return comments
}

func idOf(i int) string {
	return fmt.Sprintf("c%02d", i)
}

func ids(nodes []*discuss.CommentNode) []string {
	result := make([]string, 0, len(nodes))

	for _, node := range nodes {
		result = append(result, node.ID.String())
	}

	return result
}

func commentIDs(comments []discuss.Comment) []string {
	result := make([]string, 0, len(comments))

	for _, c := range comments {
		result = append(result, c.ID.String())
	}

	return result
}

func countNodes(forest []*discuss.CommentNode) int {
	count := 0

	discuss.Walk(forest, func(*discuss.CommentNode) {
		count++
	})

	return count
}

func maxDepthOf(forest []*discuss.CommentNode) int {
	maxDepth := -1

	discuss.Walk(forest, func(node *discuss.CommentNode) {
		if node.Depth > maxDepth {
			maxDepth = node.Depth
		}
	})

	return maxDepth
}

// sampleThread is a mixed forest:
//
//	a
//	├── b
//	│   ├── d
//	│   │   └── g
//	│   └── e
//	└── c
//	    └── f
//	        └── h
//	            └── i
//	j
func sampleThread() []discuss.Comment {
	return []discuss.Comment{
		comment("a", "", 0),
		comment("b", "a", 1),
		comment("c", "a", 2),
		comment("d", "b", 3),
		comment("e", "b", 4),
		comment("f", "c", 5),
		comment("g", "d", 6),
		comment("h", "f", 7),
		comment("i", "h", 8),
		comment("j", "", 9),
	}
}
