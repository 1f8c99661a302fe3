package web

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/gorilla/sessions"
	"github.com/nasermirzaei89/threadline/discuss"
)

const maxCommentBodyBytes = 64 << 10

type Handler struct {
	mux         *http.ServeMux
	handler     http.Handler
	discussSvc  discuss.Service
	cookieStore *sessions.CookieStore
	sessionName string
}

var _ http.Handler = (*Handler)(nil)

func NewHandler(
	discussSvc discuss.Service,
	cookieStore *sessions.CookieStore,
	sessionName string,
) (*Handler, error) {
	if discussSvc == nil {
		return nil, errors.New("discuss service must not be nil")
	}

	if cookieStore == nil {
		return nil, errors.New("cookie store must not be nil")
	}

	h := &Handler{
		mux:         nil,
		handler:     nil,
		discussSvc:  discussSvc,
		cookieStore: cookieStore,
		sessionName: sessionName,
	}

	{
		h.mux = &http.ServeMux{}
		h.handler = h.mux

		h.registerRoutes()
	}

	{
		h.handler = h.viewerMiddleware(h.handler)
		h.handler = recoverMiddleware(h.handler)
	}

	return h, nil
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.handler.ServeHTTP(w, r)
}

func (h *Handler) registerRoutes() {
	h.mux.Handle("GET /healthz", h.HandleHealth())

	h.mux.Handle("GET /p/{postId}/comments", h.HandleListComments())
	h.mux.Handle("GET /p/{postId}/comments/count", h.HandleCountComments())
	h.mux.Handle("POST /p/{postId}/comments", h.HandleCreateComment())
	h.mux.Handle("DELETE /p/{postId}/comments/{commentId}", h.HandleDeleteComment())
	h.mux.Handle("DELETE /p/{postId}/drafts", h.HandleDiscardDrafts())
}

func recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func(ctx context.Context) {
			if err := recover(); err != nil {
				slog.ErrorContext(
					ctx,
					"recovered from panic",
					"error",
					err,
					"stack",
					string(debug.Stack()),
				)

				http.Error(w, "internal error occurred", http.StatusInternalServerError)
			}
		}(r.Context())

		next.ServeHTTP(w, r)
	})
}

type CommentResponse struct {
	ID         string             `json:"id"`
	PostID     string             `json:"postId"`
	AuthorID   string             `json:"authorId"`
	ParentID   string             `json:"parentId,omitempty"`
	Content    string             `json:"content"`
	CreatedAt  time.Time          `json:"createdAt"`
	Pending    bool               `json:"pending"`
	Depth      int                `json:"depth"`
	ReplyCount int                `json:"replyCount"`
	Replies    []*CommentResponse `json:"replies"`
}

type ThreadResponse struct {
	PostID   string             `json:"postId"`
	Total    int                `json:"total"`
	Comments []*CommentResponse `json:"comments"`
}

type CommentCountResponse struct {
	PostID string `json:"postId"`
	Count  int    `json:"count"`
}

type CreateCommentBody struct {
	Content string `json:"content"`
	ReplyTo string `json:"replyTo"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func newThreadResponse(thread *discuss.Thread) *ThreadResponse {
	return &ThreadResponse{
		PostID:   thread.PostID,
		Total:    thread.Total,
		Comments: newCommentResponses(thread.Comments, thread.ReplyCounts),
	}
}

func newCommentResponses(nodes []*discuss.CommentNode, replyCounts map[discuss.CommentID]int) []*CommentResponse {
	result := make([]*CommentResponse, 0, len(nodes))

	for _, node := range nodes {
		res := newCommentResponse(&node.Comment)
		res.Depth = node.Depth
		res.ReplyCount = replyCounts[node.ID]
		res.Replies = newCommentResponses(node.Children, replyCounts)

		result = append(result, res)
	}

	return result
}

func newCommentResponse(comment *discuss.Comment) *CommentResponse {
	res := &CommentResponse{
		ID:        comment.ID.String(),
		PostID:    comment.PostID,
		AuthorID:  comment.AuthorID,
		Content:   comment.Content,
		CreatedAt: comment.CreatedAt,
		Pending:   comment.IsPending(),
		Replies:   []*CommentResponse{},
	}

	if comment.ParentID != nil {
		res.ParentID = comment.ParentID.String()
	}

	return res
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		slog.ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func writeError(ctx context.Context, w http.ResponseWriter, status int, message string) {
	writeJSON(ctx, w, status, ErrorResponse{Error: message})
}

func (h *Handler) HandleHealth() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(r.Context(), w, http.StatusOK, map[string]string{"status": "ok"})
	})
}

func (h *Handler) HandleListComments() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		postID := r.PathValue("postId")

		thread, err := h.discussSvc.ListThread(r.Context(), postID)
		if err != nil {
			slog.ErrorContext(r.Context(), "failed to list thread", "postId", postID, "error", err)
			writeError(r.Context(), w, http.StatusInternalServerError, "Failed to list comments")

			return
		}

		writeJSON(r.Context(), w, http.StatusOK, newThreadResponse(thread))
	})
}

func (h *Handler) HandleCountComments() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		postID := r.PathValue("postId")

		count, err := h.discussSvc.CountComments(r.Context(), postID)
		if err != nil {
			slog.ErrorContext(r.Context(), "failed to count comments", "postId", postID, "error", err)
			writeError(r.Context(), w, http.StatusInternalServerError, "Failed to count comments")

			return
		}

		writeJSON(r.Context(), w, http.StatusOK, CommentCountResponse{PostID: postID, Count: count})
	})
}

func (h *Handler) HandleCreateComment() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		postID := r.PathValue("postId")

		viewerID, ok := ViewerIDFromContext(r.Context())
		if !ok {
			writeError(r.Context(), w, http.StatusUnauthorized, "Unknown viewer")

			return
		}

		var body CreateCommentBody

		err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxCommentBodyBytes)).Decode(&body)
		if err != nil {
			writeError(r.Context(), w, http.StatusBadRequest, "Invalid request body")

			return
		}

		body.Content = strings.TrimSpace(body.Content)
		if body.Content == "" {
			writeError(r.Context(), w, http.StatusBadRequest, "Comment must not be empty")

			return
		}

		comment, err := h.discussSvc.CreateComment(r.Context(), discuss.CreateCommentRequest{
			PostID:   postID,
			AuthorID: viewerID,
			Content:  body.Content,
			ReplyTo:  strings.TrimSpace(body.ReplyTo),
		})
		if err != nil {
			var pendingParentErr *discuss.PendingParentError
			if errors.As(err, &pendingParentErr) {
				writeError(r.Context(), w, http.StatusConflict, "Parent comment is not saved yet")

				return
			}

			slog.ErrorContext(r.Context(), "failed to create comment", "postId", postID, "error", err)
			writeError(r.Context(), w, http.StatusInternalServerError, "Failed to create comment")

			return
		}

		writeJSON(r.Context(), w, http.StatusCreated, newCommentResponse(comment))
	})
}

func (h *Handler) HandleDeleteComment() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		postID := r.PathValue("postId")
		commentID := discuss.ParseCommentID(r.PathValue("commentId"))

		err := h.discussSvc.DeleteComment(r.Context(), postID, commentID)
		if err != nil {
			var notFoundErr *discuss.CommentNotFoundError
			if errors.As(err, &notFoundErr) {
				writeError(r.Context(), w, http.StatusNotFound, "Comment not found")

				return
			}

			slog.ErrorContext(r.Context(), "failed to delete comment", "postId", postID, "error", err)
			writeError(r.Context(), w, http.StatusInternalServerError, "Failed to delete comment")

			return
		}

		w.WriteHeader(http.StatusNoContent)
	})
}

func (h *Handler) HandleDiscardDrafts() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		postID := r.PathValue("postId")

		err := h.discussSvc.DiscardDrafts(r.Context(), postID)
		if err != nil {
			slog.ErrorContext(r.Context(), "failed to discard drafts", "postId", postID, "error", err)
			writeError(r.Context(), w, http.StatusInternalServerError, "Failed to discard drafts")

			return
		}

		w.WriteHeader(http.StatusNoContent)
	})
}
