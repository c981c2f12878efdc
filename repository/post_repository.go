package repository

import (
	"database/sql"
	"go-blog-api/logger"
	"go-blog-api/model"
	"time"

	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

// PostEngagement is the counter snapshot used to recompute trending scores.
type PostEngagement struct {
	PostID       int
	Likes        int
	CommentCount int
	Views        int
	CreatedAt    time.Time
}

// IPostRepository defines the contract for post database operations.
type IPostRepository interface {
	CreatePost(post *model.Post) error
	GetPostByID(id, viewerID int) (*model.Post, error)
	ListPosts(viewerID int) ([]*model.Post, error)
	ListPostsByAuthor(authorID, viewerID int) ([]*model.Post, error)
	ListTrending(limit int) ([]*model.Post, error)
	UpdatePost(post *model.Post) error
	DeletePost(id int) error
	AddLike(postID, userID int) error
	RemoveLike(postID, userID int) error
	RecordView(postID, viewerID int) (int, error)
	GetEngagement(postID int) (*PostEngagement, error)
	ListEngagements() ([]*PostEngagement, error)
	UpdateTrendingScore(postID int, score float64) error
	CountPosts() (int, error)
}

// PostRepository implements IPostRepository on Postgres.
type PostRepository struct {
	DB *sql.DB
}

func NewPostRepository(db *sql.DB) *PostRepository {
	return &PostRepository{DB: db}
}

func (r *PostRepository) CreatePost(post *model.Post) error {
	log := logger.Log.WithFields(logrus.Fields{
		"author_id": post.AuthorID,
		"category":  post.Category,
	})
	log.Info("Executing query to create a new post")

	query := `INSERT INTO posts (author_id, title, content, category) VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`
	err := r.DB.QueryRow(query, post.AuthorID, post.Title, post.Content, post.Category).
		Scan(&post.ID, &post.CreatedAt, &post.UpdatedAt)
	if err != nil {
		log.WithError(err).Error("Failed to execute create post query")
		return err
	}
	return nil
}

// postSelect joins in the author name and the like aggregate. The viewer id
// parameter ($1 in every query built on it) drives the liked-by-me flag and
// may be 0 for anonymous requests.
const postSelect = `
	SELECT p.id, p.author_id, u.name, p.title, p.content, p.category,
	       p.views, p.comment_count, p.trending_score, p.created_at, p.updated_at,
	       COUNT(pl.user_id), COALESCE(array_agg(lu.name) FILTER (WHERE lu.name IS NOT NULL), '{}'),
	       BOOL_OR(pl.user_id = $1) IS TRUE
	FROM posts p
	JOIN users u ON u.id = p.author_id
	LEFT JOIN post_likes pl ON pl.post_id = p.id
	LEFT JOIN users lu ON lu.id = pl.user_id`

const postGroup = ` GROUP BY p.id, u.name`

func scanPostRows(rows *sql.Rows) ([]*model.Post, error) {
	var posts []*model.Post
	for rows.Next() {
		post := &model.Post{}
		var likedBy []string
		if err := rows.Scan(&post.ID, &post.AuthorID, &post.AuthorName, &post.Title, &post.Content,
			&post.Category, &post.Views, &post.CommentCount, &post.TrendingScore,
			&post.CreatedAt, &post.UpdatedAt,
			&post.LikesCount, pq.Array(&likedBy), &post.LikedByUser); err != nil {
			logger.Log.WithError(err).Error("Failed to scan post row")
			return nil, err
		}
		post.LikedBy = likedBy
		posts = append(posts, post)
	}
	return posts, rows.Err()
}

func (r *PostRepository) GetPostByID(id, viewerID int) (*model.Post, error) {
	query := postSelect + ` WHERE p.id = $2` + postGroup
	rows, err := r.DB.Query(query, viewerID, id)
	if err != nil {
		logger.Log.WithError(err).WithField("post_id", id).Error("Failed to execute get post query")
		return nil, err
	}
	defer rows.Close()

	posts, err := scanPostRows(rows)
	if err != nil {
		return nil, err
	}
	if len(posts) == 0 {
		return nil, sql.ErrNoRows
	}
	return posts[0], nil
}

func (r *PostRepository) ListPosts(viewerID int) ([]*model.Post, error) {
	query := postSelect + postGroup + ` ORDER BY p.created_at DESC`
	rows, err := r.DB.Query(query, viewerID)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to execute list posts query")
		return nil, err
	}
	defer rows.Close()
	return scanPostRows(rows)
}

func (r *PostRepository) ListPostsByAuthor(authorID, viewerID int) ([]*model.Post, error) {
	query := postSelect + ` WHERE p.author_id = $2` + postGroup + ` ORDER BY p.created_at DESC`
	rows, err := r.DB.Query(query, viewerID, authorID)
	if err != nil {
		logger.Log.WithError(err).WithField("author_id", authorID).Error("Failed to execute list posts by author query")
		return nil, err
	}
	defer rows.Close()
	return scanPostRows(rows)
}

func (r *PostRepository) ListTrending(limit int) ([]*model.Post, error) {
	query := postSelect + postGroup + ` ORDER BY p.trending_score DESC, p.created_at DESC LIMIT $2`
	rows, err := r.DB.Query(query, 0, limit)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to execute list trending posts query")
		return nil, err
	}
	defer rows.Close()
	return scanPostRows(rows)
}

func (r *PostRepository) UpdatePost(post *model.Post) error {
	query := `UPDATE posts SET title = $1, content = $2, category = $3, updated_at = now() WHERE id = $4`
	_, err := r.DB.Exec(query, post.Title, post.Content, post.Category, post.ID)
	if err != nil {
		logger.Log.WithError(err).WithField("post_id", post.ID).Error("Failed to execute update post query")
	}
	return err
}

func (r *PostRepository) DeletePost(id int) error {
	res, err := r.DB.Exec(`DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		logger.Log.WithError(err).WithField("post_id", id).Error("Failed to execute delete post query")
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// AddLike is idempotent: liking a post twice leaves a single row.
func (r *PostRepository) AddLike(postID, userID int) error {
	query := `INSERT INTO post_likes (post_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`
	_, err := r.DB.Exec(query, postID, userID)
	if err != nil {
		logger.Log.WithError(err).WithFields(logrus.Fields{"post_id": postID, "user_id": userID}).
			Error("Failed to execute add like query")
	}
	return err
}

func (r *PostRepository) RemoveLike(postID, userID int) error {
	_, err := r.DB.Exec(`DELETE FROM post_likes WHERE post_id = $1 AND user_id = $2`, postID, userID)
	if err != nil {
		logger.Log.WithError(err).WithFields(logrus.Fields{"post_id": postID, "user_id": userID}).
			Error("Failed to execute remove like query")
	}
	return err
}

// RecordView increments the view counter and returns the new total. Signed-in
// viewers are counted once per post; anonymous views always count.
func (r *PostRepository) RecordView(postID, viewerID int) (int, error) {
	if viewerID > 0 {
		res, err := r.DB.Exec(`INSERT INTO post_views (post_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			postID, viewerID)
		if err != nil {
			logger.Log.WithError(err).WithField("post_id", postID).Error("Failed to execute record view query")
			return 0, err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			// Already viewed; report the current count unchanged.
			var views int
			err := r.DB.QueryRow(`SELECT views FROM posts WHERE id = $1`, postID).Scan(&views)
			return views, err
		}
	}

	var views int
	err := r.DB.QueryRow(`UPDATE posts SET views = views + 1 WHERE id = $1 RETURNING views`, postID).Scan(&views)
	if err != nil {
		logger.Log.WithError(err).WithField("post_id", postID).Error("Failed to execute increment views query")
		return 0, err
	}
	return views, nil
}

const engagementSelect = `
	SELECT p.id, COUNT(pl.user_id), p.comment_count, p.views, p.created_at
	FROM posts p
	LEFT JOIN post_likes pl ON pl.post_id = p.id`

func (r *PostRepository) GetEngagement(postID int) (*PostEngagement, error) {
	query := engagementSelect + ` WHERE p.id = $1 GROUP BY p.id`
	e := &PostEngagement{}
	err := r.DB.QueryRow(query, postID).Scan(&e.PostID, &e.Likes, &e.CommentCount, &e.Views, &e.CreatedAt)
	if err != nil {
		if err != sql.ErrNoRows {
			logger.Log.WithError(err).WithField("post_id", postID).Error("Failed to execute get engagement query")
		}
		return nil, err
	}
	return e, nil
}

// ListEngagements returns counter snapshots for every post. Used by the
// trending recalculation command.
func (r *PostRepository) ListEngagements() ([]*PostEngagement, error) {
	rows, err := r.DB.Query(engagementSelect + ` GROUP BY p.id`)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to execute list engagements query")
		return nil, err
	}
	defer rows.Close()

	var engagements []*PostEngagement
	for rows.Next() {
		e := &PostEngagement{}
		if err := rows.Scan(&e.PostID, &e.Likes, &e.CommentCount, &e.Views, &e.CreatedAt); err != nil {
			logger.Log.WithError(err).Error("Failed to scan engagement row")
			return nil, err
		}
		engagements = append(engagements, e)
	}
	return engagements, rows.Err()
}

func (r *PostRepository) UpdateTrendingScore(postID int, score float64) error {
	_, err := r.DB.Exec(`UPDATE posts SET trending_score = $1 WHERE id = $2`, score, postID)
	if err != nil {
		logger.Log.WithError(err).WithField("post_id", postID).Error("Failed to execute update trending score query")
	}
	return err
}

func (r *PostRepository) CountPosts() (int, error) {
	var n int
	err := r.DB.QueryRow(`SELECT COUNT(*) FROM posts`).Scan(&n)
	return n, err
}
