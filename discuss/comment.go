package discuss

import (
	"context"
	"strings"
	"time"
)

// LocalIDPrefix marks identifiers generated for comments that are not persisted yet.
const LocalIDPrefix = "local-"

// CommentID identifies a comment within a post. It is either a ServerID or a LocalID.
type CommentID interface {
	String() string
	isCommentID()
}

// ServerID is a durable identifier assigned by the persistence layer.
type ServerID string

func (id ServerID) String() string { return string(id) }

func (ServerID) isCommentID() {}

// LocalID is a temporary identifier of a buffered comment awaiting confirmation.
type LocalID string

func (id LocalID) String() string { return string(id) }

func (LocalID) isCommentID() {}

// ParseCommentID turns the textual form of an identifier back into a CommentID.
// Empty input yields nil.
func ParseCommentID(s string) CommentID {
	switch {
	case s == "":
		return nil
	case strings.HasPrefix(s, LocalIDPrefix):
		return LocalID(s)
	default:
		return ServerID(s)
	}
}

type Comment struct {
	ID        CommentID
	PostID    string
	AuthorID  string
	ParentID  CommentID
	Content   string
	CreatedAt time.Time
	Deleted   bool
}

// IsPending reports whether the comment only exists in the ephemeral buffer.
func (c *Comment) IsPending() bool {
	_, ok := c.ID.(LocalID)

	return ok
}

type CommentNode struct {
	Comment
	Children []*CommentNode
	Depth    int
}

type CommentRepository interface {
	Insert(ctx context.Context, comment *Comment) (err error)
	ListByPost(ctx context.Context, postID string) (comments []*Comment, err error)
	SoftDelete(ctx context.Context, postID string, commentID ServerID) (err error)
}
