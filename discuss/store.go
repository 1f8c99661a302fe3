package discuss

import (
	"cmp"
	"context"
	"fmt"
	"slices"
)

// Store is the read-only, per-post view over persisted comments.
type Store struct {
	commentRepo CommentRepository
}

func NewStore(commentRepo CommentRepository) *Store {
	return &Store{commentRepo: commentRepo}
}

// ListByPost returns the non-deleted comments of a post ordered by creation time, ties broken by
// id. A post without comments yields an empty slice.
func (s *Store) ListByPost(ctx context.Context, postID string) ([]Comment, error) {
	rows, err := s.commentRepo.ListByPost(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments by post: %w", err)
	}

	comments := make([]Comment, 0, len(rows))

	for _, row := range rows {
		if row == nil || row.ID == nil || row.Deleted || row.PostID != postID {
			continue
		}

		comments = append(comments, *row)
	}

	slices.SortStableFunc(comments, compareComments)

	return comments, nil
}

func compareComments(a, b Comment) int {
	if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
		return c
	}

	return cmp.Compare(a.ID.String(), b.ID.String())
}
