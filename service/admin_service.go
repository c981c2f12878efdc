package service

import (
	"database/sql"
	"errors"
	"go-blog-api/logger"
	"go-blog-api/model"
	"go-blog-api/repository"
)

// AdminService handles moderation: unlike the resource services it bypasses
// authorship checks, so every entry point must sit behind the admin gate.
// Content removal goes through PostService so the trending cache is dropped
// along with the content.
type AdminService struct {
	userRepo    repository.IUserRepository
	postRepo    repository.IPostRepository
	commentRepo repository.ICommentRepository
	postService *PostService
}

func NewAdminService(userRepo repository.IUserRepository, postRepo repository.IPostRepository, commentRepo repository.ICommentRepository, postService *PostService) *AdminService {
	return &AdminService{
		userRepo:    userRepo,
		postRepo:    postRepo,
		commentRepo: commentRepo,
		postService: postService,
	}
}

func (s *AdminService) ListUsers() ([]*model.User, error) {
	users, err := s.userRepo.GetAllUsers()
	if err != nil {
		return nil, err
	}
	for _, user := range users {
		user.Password = ""
	}
	return users, nil
}

// DeleteUser removes the user; their posts, comments and session go with them
// via the schema's cascades, so the trending cache must be dropped too.
func (s *AdminService) DeleteUser(id int) error {
	err := s.userRepo.DeleteUser(id)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrUserNotFound
	}
	if err == nil {
		logger.Log.WithField("user_id", id).Warn("User deleted by admin")
		s.postService.InvalidateTrendingCache()
	}
	return err
}

func (s *AdminService) ListPosts() ([]*model.Post, error) {
	return s.postRepo.ListPosts(0)
}

func (s *AdminService) DeletePost(id int) error {
	return s.postService.RemovePost(id)
}

func (s *AdminService) ListComments() ([]*model.AdminComment, error) {
	return s.commentRepo.ListAllComments()
}

func (s *AdminService) DeleteComment(id int) error {
	err := s.commentRepo.DeleteComment(id)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrCommentNotFound
	}
	if err == nil {
		// The comment counter feeds the trending score.
		s.postService.InvalidateTrendingCache()
	}
	return err
}

func (s *AdminService) Stats() (*model.AdminStats, error) {
	users, err := s.userRepo.CountUsers()
	if err != nil {
		return nil, err
	}
	posts, err := s.postRepo.CountPosts()
	if err != nil {
		return nil, err
	}
	comments, err := s.commentRepo.CountComments()
	if err != nil {
		return nil, err
	}
	return &model.AdminStats{Users: users, Posts: posts, Comments: comments}, nil
}
