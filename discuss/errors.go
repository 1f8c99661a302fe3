package discuss

import "fmt"

type InvalidMaxDepthError struct {
	MaxDepth int
}

func (err InvalidMaxDepthError) Error() string {
	return fmt.Sprintf("invalid max depth %d: must not be negative", err.MaxDepth)
}

type PersistedCommentError struct {
	ID ServerID
}

func (err PersistedCommentError) Error() string {
	return fmt.Sprintf("comment %q is already persisted and cannot be buffered", err.ID)
}

type DuplicateLocalIDError struct {
	ID LocalID
}

func (err DuplicateLocalIDError) Error() string {
	return fmt.Sprintf("local id %q is already buffered", err.ID)
}

type PendingParentError struct {
	ParentID LocalID
}

func (err PendingParentError) Error() string {
	return fmt.Sprintf("parent comment %q is not persisted yet", err.ParentID)
}

type CommentNotFoundError struct {
	ID string
}

func (err CommentNotFoundError) Error() string {
	return fmt.Sprintf("comment with id '%s' not found", err.ID)
}

type InvalidLocalIDError struct {
	ID LocalID
}

func (err InvalidLocalIDError) Error() string {
	return fmt.Sprintf("local id %q must start with %q", err.ID, LocalIDPrefix)
}
