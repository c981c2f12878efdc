package service

import (
	"database/sql"
	"errors"
	"go-blog-api/model"
	"go-blog-api/repository"
)

var (
	ErrCommentNotFound  = errors.New("comment not found")
	ErrNotCommentAuthor = errors.New("not the author of this comment")
)

// CommentService handles comment business logic. It leans on PostService to
// keep trending scores in step with the comment counters.
type CommentService struct {
	commentRepo repository.ICommentRepository
	postService *PostService
}

func NewCommentService(commentRepo repository.ICommentRepository, postService *PostService) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		postService: postService,
	}
}

func (s *CommentService) CreateComment(postID, authorID int, text string) (*model.Comment, error) {
	if _, err := s.postService.GetPost(postID, authorID); err != nil {
		return nil, err
	}

	comment := &model.Comment{
		PostID:   postID,
		AuthorID: authorID,
		Text:     text,
	}
	if err := s.commentRepo.CreateComment(comment); err != nil {
		return nil, err
	}

	if err := s.postService.RecomputeScore(postID); err != nil {
		return nil, err
	}
	return comment, nil
}

func (s *CommentService) ListCommentsByPost(postID int) ([]*model.Comment, error) {
	return s.commentRepo.ListCommentsByPost(postID)
}

// DeleteComment removes a comment after verifying authorship.
func (s *CommentService) DeleteComment(commentID, userID int) error {
	comment, err := s.commentRepo.GetCommentByID(commentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrCommentNotFound
		}
		return err
	}
	if comment.AuthorID != userID {
		return ErrNotCommentAuthor
	}

	if err := s.commentRepo.DeleteComment(commentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrCommentNotFound
		}
		return err
	}
	return s.postService.RecomputeScore(comment.PostID)
}
