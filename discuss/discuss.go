package discuss

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const ServiceName = "github.com/nasermirzaei89/threadline/discuss"

type Service interface {
	CreateComment(ctx context.Context, req CreateCommentRequest) (*Comment, error)
	ListThread(ctx context.Context, postID string) (*Thread, error)
	CountComments(ctx context.Context, postID string) (int, error)
	DeleteComment(ctx context.Context, postID string, commentID CommentID) error
	DiscardDrafts(ctx context.Context, postID string) error
}

// Thread is the display projection of a post's discussion.
type Thread struct {
	PostID string
	// Comments is the depth-limited forest to render.
	Comments []*CommentNode
	// ReplyCounts holds the number of transitive replies of every comment, computed before
	// flattening.
	ReplyCounts map[CommentID]int
	Total       int
}

func (t *Thread) ReplyCount(id CommentID) int {
	return t.ReplyCounts[id]
}

// Engine implements Service on top of a CommentRepository, keeping optimistic drafts in a Buffer
// until the repository confirms them.
type Engine struct {
	commentRepo CommentRepository
	store       *Store
	buffer      *Buffer
	merger      *Merger
	flattener   *Flattener
	now         func() time.Time
}

var _ Service = (*Engine)(nil)

func NewEngine(commentRepo CommentRepository, buffer *Buffer, flattener *Flattener) *Engine {
	store := NewStore(commentRepo)

	return &Engine{
		commentRepo: commentRepo,
		store:       store,
		buffer:      buffer,
		merger:      NewMerger(store, buffer),
		flattener:   flattener,
		now:         time.Now,
	}
}

type CreateCommentRequest struct {
	PostID   string
	AuthorID string
	Content  string
	ReplyTo  string
}

func (svc *Engine) CreateComment(ctx context.Context, req CreateCommentRequest) (*Comment, error) {
	parentID := ParseCommentID(req.ReplyTo)

	localID, err := svc.buffer.Add(Comment{
		PostID:    req.PostID,
		AuthorID:  req.AuthorID,
		ParentID:  parentID,
		Content:   req.Content,
		CreatedAt: svc.now(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to buffer comment: %w", err)
	}

	if pendingParentID, ok := parentID.(LocalID); ok {
		serverID, resolved := svc.buffer.Resolve(pendingParentID)
		if !resolved {
			svc.buffer.Discard(localID)

			return nil, &PendingParentError{ParentID: pendingParentID}
		}

		parentID = serverID
	}

	serverID := ServerID(uuid.NewString())
	svc.buffer.Bind(localID, serverID)

	comment := &Comment{
		ID:        serverID,
		PostID:    req.PostID,
		AuthorID:  req.AuthorID,
		ParentID:  parentID,
		Content:   req.Content,
		CreatedAt: svc.now().UTC(),
	}

	err = svc.commentRepo.Insert(ctx, comment)
	if err != nil {
		svc.buffer.Discard(localID)

		return nil, fmt.Errorf("failed to insert comment: %w", err)
	}

	svc.buffer.Reconcile(localID, *comment)

	return comment, nil
}

func (svc *Engine) ListThread(ctx context.Context, postID string) (*Thread, error) {
	comments, err := svc.merger.Merge(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to merge comments: %w", err)
	}

	forest := Build(comments)

	return &Thread{
		PostID:      postID,
		Comments:    svc.flattener.Flatten(forest),
		ReplyCounts: ReplyCounts(forest),
		Total:       len(comments),
	}, nil
}

func (svc *Engine) CountComments(ctx context.Context, postID string) (int, error) {
	comments, err := svc.merger.Merge(ctx, postID)
	if err != nil {
		return 0, fmt.Errorf("failed to merge comments: %w", err)
	}

	return len(comments), nil
}

func (svc *Engine) DeleteComment(ctx context.Context, postID string, commentID CommentID) error {
	switch id := commentID.(type) {
	case LocalID:
		svc.buffer.Discard(id)

		return nil
	case ServerID:
		err := svc.commentRepo.SoftDelete(ctx, postID, id)
		if err != nil {
			return fmt.Errorf("failed to soft delete comment: %w", err)
		}

		return nil
	default:
		return &CommentNotFoundError{ID: ""}
	}
}

func (svc *Engine) DiscardDrafts(_ context.Context, postID string) error {
	svc.buffer.Clear(postID)

	return nil
}
