package repository

import (
	"database/sql"
	"go-blog-api/logger"
	"go-blog-api/model"

	"github.com/sirupsen/logrus"
)

// ICommentRepository defines the contract for comment database operations.
type ICommentRepository interface {
	CreateComment(comment *model.Comment) error
	GetCommentByID(id int) (*model.Comment, error)
	ListCommentsByPost(postID int) ([]*model.Comment, error)
	ListAllComments() ([]*model.AdminComment, error)
	DeleteComment(id int) error
	CountComments() (int, error)
}

// CommentRepository implements ICommentRepository on Postgres.
type CommentRepository struct {
	DB *sql.DB
}

func NewCommentRepository(db *sql.DB) *CommentRepository {
	return &CommentRepository{DB: db}
}

// CreateComment inserts the comment and bumps the post's comment counter in
// one transaction so the two never drift apart.
func (r *CommentRepository) CreateComment(comment *model.Comment) error {
	log := logger.Log.WithFields(logrus.Fields{
		"post_id":   comment.PostID,
		"author_id": comment.AuthorID,
	})
	log.Info("Executing transaction to create a new comment")

	tx, err := r.DB.Begin()
	if err != nil {
		log.WithError(err).Error("Failed to begin create comment transaction")
		return err
	}
	defer tx.Rollback()

	query := `INSERT INTO comments (post_id, author_id, text) VALUES ($1, $2, $3) RETURNING id, created_at`
	if err := tx.QueryRow(query, comment.PostID, comment.AuthorID, comment.Text).
		Scan(&comment.ID, &comment.CreatedAt); err != nil {
		log.WithError(err).Error("Failed to insert comment")
		return err
	}

	if _, err := tx.Exec(`UPDATE posts SET comment_count = comment_count + 1 WHERE id = $1`, comment.PostID); err != nil {
		log.WithError(err).Error("Failed to increment comment count")
		return err
	}

	return tx.Commit()
}

func (r *CommentRepository) GetCommentByID(id int) (*model.Comment, error) {
	comment := &model.Comment{}
	query := `SELECT c.id, c.post_id, c.author_id, u.name, c.text, c.created_at
		FROM comments c JOIN users u ON u.id = c.author_id WHERE c.id = $1`
	err := r.DB.QueryRow(query, id).Scan(&comment.ID, &comment.PostID, &comment.AuthorID,
		&comment.AuthorName, &comment.Text, &comment.CreatedAt)
	if err != nil {
		return nil, err
	}
	return comment, nil
}

func (r *CommentRepository) ListCommentsByPost(postID int) ([]*model.Comment, error) {
	query := `SELECT c.id, c.post_id, c.author_id, u.name, c.text, c.created_at
		FROM comments c JOIN users u ON u.id = c.author_id
		WHERE c.post_id = $1 ORDER BY c.created_at DESC`
	rows, err := r.DB.Query(query, postID)
	if err != nil {
		logger.Log.WithError(err).WithField("post_id", postID).Error("Failed to execute list comments query")
		return nil, err
	}
	defer rows.Close()

	var comments []*model.Comment
	for rows.Next() {
		comment := &model.Comment{}
		if err := rows.Scan(&comment.ID, &comment.PostID, &comment.AuthorID,
			&comment.AuthorName, &comment.Text, &comment.CreatedAt); err != nil {
			logger.Log.WithError(err).Error("Failed to scan comment row")
			return nil, err
		}
		comments = append(comments, comment)
	}
	return comments, rows.Err()
}

// ListAllComments returns the flattened moderation view. For moderation use
// only.
func (r *CommentRepository) ListAllComments() ([]*model.AdminComment, error) {
	query := `SELECT c.id, u.name, p.title, c.text
		FROM comments c
		JOIN users u ON u.id = c.author_id
		JOIN posts p ON p.id = c.post_id
		ORDER BY c.created_at DESC`
	rows, err := r.DB.Query(query)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to execute list all comments query")
		return nil, err
	}
	defer rows.Close()

	var comments []*model.AdminComment
	for rows.Next() {
		comment := &model.AdminComment{}
		if err := rows.Scan(&comment.ID, &comment.UserName, &comment.PostTitle, &comment.Text); err != nil {
			logger.Log.WithError(err).Error("Failed to scan admin comment row")
			return nil, err
		}
		comments = append(comments, comment)
	}
	return comments, rows.Err()
}

// DeleteComment removes the comment and decrements the post's counter in one
// transaction.
func (r *CommentRepository) DeleteComment(id int) error {
	log := logger.Log.WithField("comment_id", id)
	log.Info("Executing transaction to delete comment")

	tx, err := r.DB.Begin()
	if err != nil {
		log.WithError(err).Error("Failed to begin delete comment transaction")
		return err
	}
	defer tx.Rollback()

	var postID int
	err = tx.QueryRow(`DELETE FROM comments WHERE id = $1 RETURNING post_id`, id).Scan(&postID)
	if err != nil {
		if err != sql.ErrNoRows {
			log.WithError(err).Error("Failed to delete comment")
		}
		return err
	}

	if _, err := tx.Exec(`UPDATE posts SET comment_count = GREATEST(comment_count - 1, 0) WHERE id = $1`, postID); err != nil {
		log.WithError(err).Error("Failed to decrement comment count")
		return err
	}

	return tx.Commit()
}

func (r *CommentRepository) CountComments() (int, error) {
	var n int
	err := r.DB.QueryRow(`SELECT COUNT(*) FROM comments`).Scan(&n)
	return n, err
}
