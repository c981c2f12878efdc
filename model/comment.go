package model

import "time"

type Comment struct {
	ID         int       `json:"id"`
	PostID     int       `json:"post_id"`
	AuthorID   int       `json:"author_id"`
	AuthorName string    `json:"author_name"`
	Text       string    `json:"text"`
	CreatedAt  time.Time `json:"created_at"`
}

// AdminComment is the flattened moderation view joining in the post title.
type AdminComment struct {
	ID        int    `json:"id"`
	UserName  string `json:"user_name"`
	PostTitle string `json:"post_title"`
	Text      string `json:"text"`
}
