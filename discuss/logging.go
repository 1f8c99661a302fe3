package discuss

import (
	"context"
	"log/slog"
	"time"
)

type LoggingMiddleware struct {
	logger *slog.Logger
	next   Service
}

var _ Service = (*LoggingMiddleware)(nil)

func NewLoggingMiddleware(logger *slog.Logger, next Service) *LoggingMiddleware {
	return &LoggingMiddleware{
		logger: logger.With("service", ServiceName),
		next:   next,
	}
}

func (mw *LoggingMiddleware) log(ctx context.Context, method string, start time.Time, err error, args ...any) {
	args = append(args, "method", method, "took", time.Since(start))

	if err != nil {
		mw.logger.ErrorContext(ctx, "discuss call failed", append(args, "error", err)...)

		return
	}

	mw.logger.DebugContext(ctx, "discuss call succeeded", args...)
}

func (mw *LoggingMiddleware) CreateComment(ctx context.Context, req CreateCommentRequest) (*Comment, error) {
	start := time.Now()

	comment, err := mw.next.CreateComment(ctx, req)

	args := []any{"postId", req.PostID, "authorId", req.AuthorID, "replyTo", req.ReplyTo}
	if comment != nil {
		args = append(args, "commentId", comment.ID.String())
	}

	mw.log(ctx, "CreateComment", start, err, args...)

	return comment, err
}

func (mw *LoggingMiddleware) ListThread(ctx context.Context, postID string) (*Thread, error) {
	start := time.Now()

	thread, err := mw.next.ListThread(ctx, postID)

	args := []any{"postId", postID}
	if thread != nil {
		args = append(args, "total", thread.Total, "roots", len(thread.Comments))
	}

	mw.log(ctx, "ListThread", start, err, args...)

	return thread, err
}

func (mw *LoggingMiddleware) CountComments(ctx context.Context, postID string) (int, error) {
	start := time.Now()

	count, err := mw.next.CountComments(ctx, postID)

	mw.log(ctx, "CountComments", start, err, "postId", postID, "count", count)

	return count, err
}

func (mw *LoggingMiddleware) DeleteComment(ctx context.Context, postID string, commentID CommentID) error {
	start := time.Now()

	err := mw.next.DeleteComment(ctx, postID, commentID)

	id := ""
	if commentID != nil {
		id = commentID.String()
	}

	mw.log(ctx, "DeleteComment", start, err, "postId", postID, "commentId", id)

	return err
}

func (mw *LoggingMiddleware) DiscardDrafts(ctx context.Context, postID string) error {
	start := time.Now()

	err := mw.next.DiscardDrafts(ctx, postID)

	mw.log(ctx, "DiscardDrafts", start, err, "postId", postID)

	return err
}
