package sqlite3

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	sq "github.com/Masterminds/squirrel"
	"github.com/nasermirzaei89/threadline/discuss"
)

const tableComments = "comments"

type CommentRepository struct {
	db *sql.DB
}

var _ discuss.CommentRepository = (*CommentRepository)(nil)

func NewCommentRepository(db *sql.DB) *CommentRepository {
	return &CommentRepository{db: db}
}

const (
	commentFieldID        = "id"
	commentFieldPostID    = "post_id"
	commentFieldAuthorID  = "author_id"
	commentFieldParentID  = "parent_id"
	commentFieldContent   = "content"
	commentFieldCreatedAt = "created_at"
	commentFieldDeleted   = "deleted"
)

func commentColumns() []string {
	return []string{
		commentFieldID,
		commentFieldPostID,
		commentFieldAuthorID,
		commentFieldParentID,
		commentFieldContent,
		commentFieldCreatedAt,
		commentFieldDeleted,
	}
}

func scanComment(row sq.RowScanner) (*discuss.Comment, error) {
	var (
		comment  discuss.Comment
		id       string
		parentID sql.NullString
	)

	err := row.Scan(
		&id,
		&comment.PostID,
		&comment.AuthorID,
		&parentID,
		&comment.Content,
		&comment.CreatedAt,
		&comment.Deleted,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan row: %w", err)
	}

	comment.ID = discuss.ServerID(id)

	if parentID.Valid && parentID.String != "" {
		comment.ParentID = discuss.ServerID(parentID.String)
	}

	return &comment, nil
}

func (repo *CommentRepository) Insert(ctx context.Context, comment *discuss.Comment) error {
	id, ok := comment.ID.(discuss.ServerID)
	if !ok {
		return fmt.Errorf("failed to insert comment: id %v is not a server id", comment.ID)
	}

	var parentID *string

	if comment.ParentID != nil {
		parentServerID, ok := comment.ParentID.(discuss.ServerID)
		if !ok {
			return fmt.Errorf("failed to insert comment: parent id %v is not a server id", comment.ParentID)
		}

		s := parentServerID.String()
		parentID = &s
	}

	q := sq.Insert(tableComments).
		Columns(commentColumns()...).
		Values(
			id.String(),
			comment.PostID,
			comment.AuthorID,
			parentID,
			comment.Content,
			comment.CreatedAt.UTC(),
			comment.Deleted,
		)

	q = q.RunWith(repo.db)

	_, err := q.ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to exec insert: %w", err)
	}

	return nil
}

func (repo *CommentRepository) ListByPost(ctx context.Context, postID string) ([]*discuss.Comment, error) {
	query := sq.Select(commentColumns()...).
		From(tableComments).
		Where(sq.Eq{commentFieldPostID: postID}).
		OrderBy(commentFieldCreatedAt+" ASC", commentFieldID+" ASC")

	query = query.RunWith(repo.db)

	rows, err := query.QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}

	defer func() {
		err := rows.Close()
		if err != nil {
			slog.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	comments := make([]*discuss.Comment, 0)

	for rows.Next() {
		comment, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan comment failed: %w", err)
		}

		comments = append(comments, comment)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}

	return comments, nil
}

func (repo *CommentRepository) SoftDelete(ctx context.Context, postID string, commentID discuss.ServerID) error {
	q := sq.Update(tableComments).
		Set(commentFieldDeleted, true).
		Where(sq.Eq{
			commentFieldID:      commentID.String(),
			commentFieldPostID:  postID,
			commentFieldDeleted: false,
		}).
		RunWith(repo.db)

	res, err := q.ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to exec update: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}

	if affected == 0 {
		return &discuss.CommentNotFoundError{ID: commentID.String()}
	}

	return nil
}
