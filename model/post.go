package model

import "time"

type Post struct {
	ID            int       `json:"id"`
	AuthorID      int       `json:"author_id"`
	AuthorName    string    `json:"author_name"`
	Title         string    `json:"title"`
	Content       string    `json:"content"`
	Category      string    `json:"category"`
	Views         int       `json:"views"`
	CommentCount  int       `json:"comment_count"`
	TrendingScore float64   `json:"trending_score"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	// Like info is joined in per request; LikedByUser is only meaningful when
	// the request carried a valid access token.
	LikesCount  int      `json:"likes_count"`
	LikedBy     []string `json:"liked_by"`
	LikedByUser bool     `json:"liked_by_user"`
}
