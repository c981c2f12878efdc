package handler

import (
	"encoding/json"
	"errors"
	"go-blog-api/common"
	"go-blog-api/model"
	"go-blog-api/service"
	"net/http"
)

type AdminHandler struct {
	service *service.AdminService
}

func NewAdminHandler(service *service.AdminService) *AdminHandler {
	return &AdminHandler{service: service}
}

// ListUsers godoc
// @Summary      All users
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}  model.User
// @Failure      403  {object}  common.AppError
// @Router       /admin/users [get]
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) *common.AppError {
	users, err := h.service.ListUsers()
	if err != nil {
		return common.NewAppError(http.StatusInternalServerError, "Server error", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(users)
	return nil
}

// DeleteUser godoc
// @Summary      Delete a user and their content
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "user id"
// @Success      200  {object}  model.MessageResponse
// @Failure      404  {object}  common.AppError
// @Router       /admin/users/{id} [delete]
func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) *common.AppError {
	id, appErr := pathID(r, "id")
	if appErr != nil {
		return appErr
	}

	if err := h.service.DeleteUser(id); err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			return common.NewAppError(http.StatusNotFound, "User not found", nil)
		}
		return common.NewAppError(http.StatusInternalServerError, "Server error", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(model.MessageResponse{Message: "User deleted successfully"})
	return nil
}

// ListPosts godoc
// @Summary      All posts
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}  model.Post
// @Router       /admin/posts [get]
func (h *AdminHandler) ListPosts(w http.ResponseWriter, r *http.Request) *common.AppError {
	posts, err := h.service.ListPosts()
	if err != nil {
		return common.NewAppError(http.StatusInternalServerError, "Server error", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(posts)
	return nil
}

// DeletePost godoc
// @Summary      Delete any post
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "post id"
// @Success      200  {object}  model.MessageResponse
// @Failure      404  {object}  common.AppError
// @Router       /admin/posts/{id} [delete]
func (h *AdminHandler) DeletePost(w http.ResponseWriter, r *http.Request) *common.AppError {
	id, appErr := pathID(r, "id")
	if appErr != nil {
		return appErr
	}

	if err := h.service.DeletePost(id); err != nil {
		if errors.Is(err, service.ErrPostNotFound) {
			return common.NewAppError(http.StatusNotFound, "Post not found", nil)
		}
		return common.NewAppError(http.StatusInternalServerError, "Server error", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(model.MessageResponse{Message: "Post deleted successfully"})
	return nil
}

// ListComments godoc
// @Summary      All comments, flattened for moderation
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}  model.AdminComment
// @Router       /admin/comments [get]
func (h *AdminHandler) ListComments(w http.ResponseWriter, r *http.Request) *common.AppError {
	comments, err := h.service.ListComments()
	if err != nil {
		return common.NewAppError(http.StatusInternalServerError, "Failed to load comments", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(comments)
	return nil
}

// DeleteComment godoc
// @Summary      Delete any comment
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "comment id"
// @Success      200  {object}  model.MessageResponse
// @Failure      404  {object}  common.AppError
// @Router       /admin/comments/{id} [delete]
func (h *AdminHandler) DeleteComment(w http.ResponseWriter, r *http.Request) *common.AppError {
	id, appErr := pathID(r, "id")
	if appErr != nil {
		return appErr
	}

	if err := h.service.DeleteComment(id); err != nil {
		if errors.Is(err, service.ErrCommentNotFound) {
			return common.NewAppError(http.StatusNotFound, "Comment not found", nil)
		}
		return common.NewAppError(http.StatusInternalServerError, "Server error", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(model.MessageResponse{Message: "Comment deleted successfully"})
	return nil
}

// Stats godoc
// @Summary      Corpus counts
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  model.AdminStats
// @Router       /admin/stats [get]
func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) *common.AppError {
	stats, err := h.service.Stats()
	if err != nil {
		return common.NewAppError(http.StatusInternalServerError, "Server error", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(stats)
	return nil
}
