package handler

import (
	"encoding/json"
	"errors"
	"go-blog-api/common"
	"go-blog-api/model"
	"go-blog-api/service"
	"net/http"
)

type CommentHandler struct {
	service *service.CommentService
}

func NewCommentHandler(service *service.CommentService) *CommentHandler {
	return &CommentHandler{service: service}
}

// CreateComment godoc
// @Summary      Comment on a post
// @Tags         comments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        postId path int true "post id"
// @Param        request body model.CreateCommentRequest true "comment payload"
// @Success      201  {object}  model.Comment
// @Failure      404  {object}  common.AppError
// @Router       /comments/{postId} [post]
func (h *CommentHandler) CreateComment(w http.ResponseWriter, r *http.Request) *common.AppError {
	userID, ok := r.Context().Value(UserIDKey).(int)
	if !ok {
		return common.NewAppError(http.StatusUnauthorized, "Not authenticated", nil)
	}

	postID, appErr := pathID(r, "postId")
	if appErr != nil {
		return appErr
	}

	var req model.CreateCommentRequest
	if !common.ValidateAndDecode(w, r, &req) {
		return nil
	}

	comment, err := h.service.CreateComment(postID, userID, req.Text)
	if err != nil {
		if errors.Is(err, service.ErrPostNotFound) {
			return common.NewAppError(http.StatusNotFound, "Post not found", nil)
		}
		return common.NewAppError(http.StatusInternalServerError, "Failed to create comment", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(comment)
	return nil
}

// ListComments godoc
// @Summary      Comments for a post, newest first
// @Tags         comments
// @Produce      json
// @Param        postId path int true "post id"
// @Success      200  {array}  model.Comment
// @Router       /comments/{postId} [get]
func (h *CommentHandler) ListComments(w http.ResponseWriter, r *http.Request) *common.AppError {
	postID, appErr := pathID(r, "postId")
	if appErr != nil {
		return appErr
	}

	comments, err := h.service.ListCommentsByPost(postID)
	if err != nil {
		return common.NewAppError(http.StatusInternalServerError, "Failed to load comments", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(comments)
	return nil
}

// DeleteComment godoc
// @Summary      Delete an owned comment
// @Tags         comments
// @Produce      json
// @Security     BearerAuth
// @Param        commentId path int true "comment id"
// @Success      200  {object}  model.MessageResponse
// @Failure      403  {object}  common.AppError
// @Failure      404  {object}  common.AppError
// @Router       /comments/{commentId} [delete]
func (h *CommentHandler) DeleteComment(w http.ResponseWriter, r *http.Request) *common.AppError {
	userID, ok := r.Context().Value(UserIDKey).(int)
	if !ok {
		return common.NewAppError(http.StatusUnauthorized, "Not authenticated", nil)
	}

	commentID, appErr := pathID(r, "commentId")
	if appErr != nil {
		return appErr
	}

	if err := h.service.DeleteComment(commentID, userID); err != nil {
		switch {
		case errors.Is(err, service.ErrCommentNotFound):
			return common.NewAppError(http.StatusNotFound, "Comment not found", nil)
		case errors.Is(err, service.ErrNotCommentAuthor):
			return common.NewAppError(http.StatusForbidden, "Unauthorized", nil)
		default:
			return common.NewAppError(http.StatusInternalServerError, "Failed to delete comment", err)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(model.MessageResponse{Message: "Comment deleted successfully"})
	return nil
}
