package discuss

import (
	"context"
	"fmt"
)

// Merger combines persisted and pending comments of a post into one working list.
type Merger struct {
	store  *Store
	buffer *Buffer
}

func NewMerger(store *Store, buffer *Buffer) *Merger {
	return &Merger{
		store:  store,
		buffer: buffer,
	}
}

// Merge returns the persisted comments of a post followed by its pending comments in insertion
// order. Deleted comments are left out and every id appears at most once.
func (m *Merger) Merge(ctx context.Context, postID string) ([]Comment, error) {
	var (
		merged []Comment
		err    error
	)

	m.buffer.View(postID, func(pending []Comment, resolve func(LocalID) (ServerID, bool)) {
		var persisted []Comment

		persisted, err = m.store.ListByPost(ctx, postID)
		if err != nil {
			return
		}

		merged = mergeComments(persisted, pending, resolve)
	})

	if err != nil {
		return nil, fmt.Errorf("failed to merge comments: %w", err)
	}

	return merged, nil
}

func mergeComments(persisted, pending []Comment, resolve func(LocalID) (ServerID, bool)) []Comment {
	merged := make([]Comment, 0, len(persisted)+len(pending))
	seen := make(map[CommentID]struct{}, len(persisted)+len(pending))

	for _, comment := range persisted {
		if comment.Deleted {
			continue
		}

		if _, ok := seen[comment.ID]; ok {
			continue
		}

		seen[comment.ID] = struct{}{}
		merged = append(merged, comment)
	}

	for _, comment := range pending {
		if comment.Deleted {
			continue
		}

		if _, ok := seen[comment.ID]; ok {
			continue
		}

		// already persisted under its bound id, waiting for reconciliation
		if localID, ok := comment.ID.(LocalID); ok {
			if serverID, bound := resolve(localID); bound {
				if _, persistedAlready := seen[serverID]; persistedAlready {
					continue
				}
			}
		}

		if parentID, ok := comment.ParentID.(LocalID); ok {
			if serverID, bound := resolve(parentID); bound {
				if _, persistedParent := seen[serverID]; persistedParent {
					comment.ParentID = serverID
				}
			}
		}

		seen[comment.ID] = struct{}{}
		merged = append(merged, comment)
	}

	return merged
}
