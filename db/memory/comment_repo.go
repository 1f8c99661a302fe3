// Package memory keeps comments in process memory. It backs tests and throwaway deployments.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/nasermirzaei89/threadline/discuss"
)

type CommentRepository struct {
	mu       sync.RWMutex
	comments map[discuss.ServerID]discuss.Comment
	byPost   map[string][]discuss.ServerID
}

var _ discuss.CommentRepository = (*CommentRepository)(nil)

func NewCommentRepository() *CommentRepository {
	return &CommentRepository{
		comments: make(map[discuss.ServerID]discuss.Comment),
		byPost:   make(map[string][]discuss.ServerID),
	}
}

type DuplicateCommentError struct {
	ID discuss.ServerID
}

func (err DuplicateCommentError) Error() string {
	return fmt.Sprintf("comment with id '%s' already exists", err.ID)
}

func (repo *CommentRepository) Insert(_ context.Context, comment *discuss.Comment) error {
	id, ok := comment.ID.(discuss.ServerID)
	if !ok {
		return fmt.Errorf("failed to insert comment: id %v is not a server id", comment.ID)
	}

	repo.mu.Lock()
	defer repo.mu.Unlock()

	if _, exists := repo.comments[id]; exists {
		return &DuplicateCommentError{ID: id}
	}

	repo.comments[id] = *comment
	repo.byPost[comment.PostID] = append(repo.byPost[comment.PostID], id)

	return nil
}

// ListByPost returns comments in insertion order, deleted ones included.
func (repo *CommentRepository) ListByPost(_ context.Context, postID string) ([]*discuss.Comment, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	ids := repo.byPost[postID]
	comments := make([]*discuss.Comment, 0, len(ids))

	for _, id := range ids {
		comment := repo.comments[id]
		comments = append(comments, &comment)
	}

	return comments, nil
}

func (repo *CommentRepository) SoftDelete(_ context.Context, postID string, commentID discuss.ServerID) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	comment, ok := repo.comments[commentID]
	if !ok || comment.PostID != postID || comment.Deleted {
		return &discuss.CommentNotFoundError{ID: commentID.String()}
	}

	comment.Deleted = true
	repo.comments[commentID] = comment

	return nil
}
