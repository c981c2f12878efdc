package handler

import (
	"encoding/json"
	"errors"
	"go-blog-api/common"
	"go-blog-api/logger"
	"go-blog-api/model"
	"go-blog-api/service"
	"net/http"
	"strconv"

	"github.com/sirupsen/logrus"
)

type PostHandler struct {
	service *service.PostService
}

func NewPostHandler(service *service.PostService) *PostHandler {
	return &PostHandler{service: service}
}

// viewerID returns the authenticated user id, or 0 for anonymous requests.
func viewerID(r *http.Request) int {
	if id, ok := r.Context().Value(UserIDKey).(int); ok {
		return id
	}
	return 0
}

func pathID(r *http.Request, name string) (int, *common.AppError) {
	id, err := strconv.Atoi(r.PathValue(name))
	if err != nil || id <= 0 {
		return 0, common.NewAppError(http.StatusBadRequest, "Invalid id in path", err)
	}
	return id, nil
}

func mapPostError(err error) *common.AppError {
	switch {
	case errors.Is(err, service.ErrPostNotFound):
		return common.NewAppError(http.StatusNotFound, "Post not found", nil)
	case errors.Is(err, service.ErrNotPostAuthor):
		return common.NewAppError(http.StatusForbidden, "You are not the author of this post", nil)
	default:
		return common.NewAppError(http.StatusInternalServerError, "Server error", err)
	}
}

// ListPosts godoc
// @Summary      List posts, newest first
// @Tags         posts
// @Produce      json
// @Success      200  {array}  model.Post
// @Router       /posts [get]
func (h *PostHandler) ListPosts(w http.ResponseWriter, r *http.Request) *common.AppError {
	posts, err := h.service.ListPosts(viewerID(r))
	if err != nil {
		return common.NewAppError(http.StatusInternalServerError, "Failed to fetch posts", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(posts)
	return nil
}

// ListMyPosts godoc
// @Summary      List own posts
// @Tags         posts
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}  model.Post
// @Failure      401  {object}  common.AppError
// @Router       /posts/mine [get]
func (h *PostHandler) ListMyPosts(w http.ResponseWriter, r *http.Request) *common.AppError {
	userID, ok := r.Context().Value(UserIDKey).(int)
	if !ok {
		return common.NewAppError(http.StatusUnauthorized, "Not authenticated", nil)
	}

	posts, err := h.service.ListPostsByAuthor(userID, userID)
	if err != nil {
		return common.NewAppError(http.StatusInternalServerError, "Failed to fetch posts", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(posts)
	return nil
}

// ListTrending godoc
// @Summary      Top posts by trending score
// @Tags         posts
// @Produce      json
// @Param        limit query int false "number of posts" default(5)
// @Success      200  {array}  model.Post
// @Router       /posts/trending [get]
func (h *PostHandler) ListTrending(w http.ResponseWriter, r *http.Request) *common.AppError {
	limit := 5
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	posts, err := h.service.ListTrending(limit)
	if err != nil {
		return common.NewAppError(http.StatusInternalServerError, "Failed to fetch trending posts", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(posts)
	return nil
}

// GetPost godoc
// @Summary      Single post with like info
// @Tags         posts
// @Produce      json
// @Param        id path int true "post id"
// @Success      200  {object}  model.Post
// @Failure      404  {object}  common.AppError
// @Router       /posts/{id} [get]
func (h *PostHandler) GetPost(w http.ResponseWriter, r *http.Request) *common.AppError {
	id, appErr := pathID(r, "id")
	if appErr != nil {
		return appErr
	}

	post, err := h.service.GetPost(id, viewerID(r))
	if err != nil {
		return mapPostError(err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(post)
	return nil
}

// CreatePost godoc
// @Summary      Author a post
// @Tags         posts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body model.CreatePostRequest true "post payload"
// @Success      201  {object}  model.Post
// @Failure      400  {object}  common.AppError
// @Failure      401  {object}  common.AppError
// @Router       /posts [post]
func (h *PostHandler) CreatePost(w http.ResponseWriter, r *http.Request) *common.AppError {
	userID, ok := r.Context().Value(UserIDKey).(int)
	if !ok {
		return common.NewAppError(http.StatusUnauthorized, "Not authenticated", nil)
	}
	userName, _ := r.Context().Value(UserNameKey).(string)

	var req model.CreatePostRequest
	if !common.ValidateAndDecode(w, r, &req) {
		return nil
	}

	log := logger.Log.WithFields(logrus.Fields{
		"author_id": userID,
		"category":  req.Category,
	})
	log.Info("Create post request received")

	post, err := h.service.CreatePost(userID, userName, &req)
	if err != nil {
		return common.NewAppError(http.StatusInternalServerError, "Failed to create post", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(post)
	return nil
}

// UpdatePost godoc
// @Summary      Edit an owned post
// @Tags         posts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "post id"
// @Param        request body model.UpdatePostRequest true "edits"
// @Success      200  {object}  model.Post
// @Failure      403  {object}  common.AppError
// @Failure      404  {object}  common.AppError
// @Router       /posts/{id} [put]
func (h *PostHandler) UpdatePost(w http.ResponseWriter, r *http.Request) *common.AppError {
	userID, ok := r.Context().Value(UserIDKey).(int)
	if !ok {
		return common.NewAppError(http.StatusUnauthorized, "Not authenticated", nil)
	}

	id, appErr := pathID(r, "id")
	if appErr != nil {
		return appErr
	}

	var req model.UpdatePostRequest
	if !common.ValidateAndDecode(w, r, &req) {
		return nil
	}

	post, err := h.service.UpdatePost(id, userID, &req)
	if err != nil {
		return mapPostError(err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(post)
	return nil
}

// DeletePost godoc
// @Summary      Delete an owned post
// @Tags         posts
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "post id"
// @Success      200  {object}  model.MessageResponse
// @Failure      403  {object}  common.AppError
// @Failure      404  {object}  common.AppError
// @Router       /posts/{id} [delete]
func (h *PostHandler) DeletePost(w http.ResponseWriter, r *http.Request) *common.AppError {
	userID, ok := r.Context().Value(UserIDKey).(int)
	if !ok {
		return common.NewAppError(http.StatusUnauthorized, "Not authenticated", nil)
	}

	id, appErr := pathID(r, "id")
	if appErr != nil {
		return appErr
	}

	if err := h.service.DeletePost(id, userID); err != nil {
		return mapPostError(err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(model.MessageResponse{Message: "Post deleted successfully"})
	return nil
}

// LikePost godoc
// @Summary      Like a post
// @Tags         posts
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "post id"
// @Success      200  {object}  model.Post
// @Failure      404  {object}  common.AppError
// @Router       /posts/{id}/like [post]
func (h *PostHandler) LikePost(w http.ResponseWriter, r *http.Request) *common.AppError {
	return h.toggleLike(w, r, h.service.LikePost)
}

// UnlikePost godoc
// @Summary      Remove a like
// @Tags         posts
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "post id"
// @Success      200  {object}  model.Post
// @Failure      404  {object}  common.AppError
// @Router       /posts/{id}/unlike [post]
func (h *PostHandler) UnlikePost(w http.ResponseWriter, r *http.Request) *common.AppError {
	return h.toggleLike(w, r, h.service.UnlikePost)
}

func (h *PostHandler) toggleLike(w http.ResponseWriter, r *http.Request, op func(int, int) (*model.Post, error)) *common.AppError {
	userID, ok := r.Context().Value(UserIDKey).(int)
	if !ok {
		return common.NewAppError(http.StatusUnauthorized, "Not authenticated", nil)
	}

	id, appErr := pathID(r, "id")
	if appErr != nil {
		return appErr
	}

	post, err := op(id, userID)
	if err != nil {
		return mapPostError(err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"likes":   post.LikesCount,
		"likedBy": post.LikedBy,
	})
	return nil
}

// RecordView godoc
// @Summary      Count a post view
// @Tags         posts
// @Produce      json
// @Param        id path int true "post id"
// @Success      200  {object}  map[string]int
// @Failure      404  {object}  common.AppError
// @Router       /posts/{id}/view [post]
func (h *PostHandler) RecordView(w http.ResponseWriter, r *http.Request) *common.AppError {
	id, appErr := pathID(r, "id")
	if appErr != nil {
		return appErr
	}

	views, err := h.service.RecordView(id, viewerID(r))
	if err != nil {
		return mapPostError(err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]int{"views": views})
	return nil
}
