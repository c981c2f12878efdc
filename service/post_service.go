// file: service/post_service.go

package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"go-blog-api/model"
	"go-blog-api/repository"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrPostNotFound  = errors.New("post not found")
	ErrNotPostAuthor = errors.New("not the author of this post")
)

const trendingCacheTTL = 5 * time.Minute

// PostService handles post business logic, including engagement counters and
// the trending list. The trending list is served cache-aside from Redis and
// invalidated whenever a score-affecting write lands.
type PostService struct {
	postRepo    repository.IPostRepository
	redisClient *redis.Client
}

func NewPostService(postRepo repository.IPostRepository, redisClient *redis.Client) *PostService {
	return &PostService{
		postRepo:    postRepo,
		redisClient: redisClient,
	}
}

// TrendingScore is the weighted engagement formula, decayed by post age.
func TrendingScore(likes, comments, views int, createdAt, now time.Time) float64 {
	hoursSincePost := now.Sub(createdAt).Hours()
	return (float64(likes)*2 + float64(comments) + float64(views)/5) / (hoursSincePost + 1)
}

// FlatTrendingScore is the batch variant used by the recalculation command;
// it omits the age decay so old popular posts are not zeroed out by a recalc.
func FlatTrendingScore(likes, comments, views int) float64 {
	return float64(likes)*2 + float64(comments) + float64(views)/5
}

func (s *PostService) CreatePost(authorID int, authorName string, req *model.CreatePostRequest) (*model.Post, error) {
	post := &model.Post{
		AuthorID:   authorID,
		AuthorName: authorName,
		Title:      req.Title,
		Content:    req.Content,
		Category:   req.Category,
	}
	if err := s.postRepo.CreatePost(post); err != nil {
		return nil, err
	}
	return post, nil
}

func (s *PostService) GetPost(id, viewerID int) (*model.Post, error) {
	post, err := s.postRepo.GetPostByID(id, viewerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	return post, nil
}

func (s *PostService) ListPosts(viewerID int) ([]*model.Post, error) {
	return s.postRepo.ListPosts(viewerID)
}

func (s *PostService) ListPostsByAuthor(authorID, viewerID int) ([]*model.Post, error) {
	return s.postRepo.ListPostsByAuthor(authorID, viewerID)
}

// UpdatePost applies partial edits after verifying authorship.
func (s *PostService) UpdatePost(postID, userID int, req *model.UpdatePostRequest) (*model.Post, error) {
	post, err := s.GetPost(postID, userID)
	if err != nil {
		return nil, err
	}
	if post.AuthorID != userID {
		return nil, ErrNotPostAuthor
	}

	if req.Title != "" {
		post.Title = req.Title
	}
	if req.Content != "" {
		post.Content = req.Content
	}
	if req.Category != "" {
		post.Category = req.Category
	}

	if err := s.postRepo.UpdatePost(post); err != nil {
		return nil, err
	}
	return post, nil
}

func (s *PostService) DeletePost(postID, userID int) error {
	post, err := s.GetPost(postID, userID)
	if err != nil {
		return err
	}
	if post.AuthorID != userID {
		return ErrNotPostAuthor
	}

	if err := s.postRepo.DeletePost(postID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrPostNotFound
		}
		return err
	}
	s.invalidateTrendingCache()
	return nil
}

// RemovePost deletes a post without an authorship check. Moderation path;
// must sit behind the admin gate.
func (s *PostService) RemovePost(postID int) error {
	if err := s.postRepo.DeletePost(postID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrPostNotFound
		}
		return err
	}
	s.invalidateTrendingCache()
	return nil
}

// InvalidateTrendingCache drops the cached trending lists. Exposed for
// moderation paths that remove content without going through a post write.
func (s *PostService) InvalidateTrendingCache() {
	s.invalidateTrendingCache()
}

// LikePost records the like (idempotently) and recomputes the post's trending
// score.
func (s *PostService) LikePost(postID, userID int) (*model.Post, error) {
	if _, err := s.GetPost(postID, userID); err != nil {
		return nil, err
	}
	if err := s.postRepo.AddLike(postID, userID); err != nil {
		return nil, err
	}
	if err := s.recomputeScore(postID); err != nil {
		return nil, err
	}
	return s.GetPost(postID, userID)
}

func (s *PostService) UnlikePost(postID, userID int) (*model.Post, error) {
	if _, err := s.GetPost(postID, userID); err != nil {
		return nil, err
	}
	if err := s.postRepo.RemoveLike(postID, userID); err != nil {
		return nil, err
	}
	if err := s.recomputeScore(postID); err != nil {
		return nil, err
	}
	return s.GetPost(postID, userID)
}

// RecordView counts a view (once per signed-in user) and returns the new
// total.
func (s *PostService) RecordView(postID, viewerID int) (int, error) {
	if _, err := s.GetPost(postID, viewerID); err != nil {
		return 0, err
	}
	views, err := s.postRepo.RecordView(postID, viewerID)
	if err != nil {
		return 0, err
	}
	if err := s.recomputeScore(postID); err != nil {
		return 0, err
	}
	return views, nil
}

// RecomputeScore refreshes a post's trending score from its current counters.
// Called after comment writes as well, so CommentService shares it.
func (s *PostService) RecomputeScore(postID int) error {
	return s.recomputeScore(postID)
}

func (s *PostService) recomputeScore(postID int) error {
	e, err := s.postRepo.GetEngagement(postID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrPostNotFound
		}
		return err
	}
	score := TrendingScore(e.Likes, e.CommentCount, e.Views, e.CreatedAt, time.Now())
	if err := s.postRepo.UpdateTrendingScore(postID, score); err != nil {
		return err
	}
	s.invalidateTrendingCache()
	return nil
}

// ListTrending returns the top posts by trending score, cache-aside.
func (s *PostService) ListTrending(limit int) ([]*model.Post, error) {
	cacheKey := fmt.Sprintf("posts:trending:%d", limit)
	ctx := context.Background()

	if s.redisClient != nil {
		cached, err := s.redisClient.Get(ctx, cacheKey).Result()
		if err == nil {
			var posts []*model.Post
			if err := json.Unmarshal([]byte(cached), &posts); err == nil {
				return posts, nil
			}
		}
	}

	posts, err := s.postRepo.ListTrending(limit)
	if err != nil {
		return nil, err
	}

	if s.redisClient != nil {
		if data, err := json.Marshal(posts); err == nil {
			s.redisClient.Set(ctx, cacheKey, data, trendingCacheTTL)
		}
	}

	return posts, nil
}

func (s *PostService) invalidateTrendingCache() {
	if s.redisClient == nil {
		return
	}
	ctx := context.Background()
	iter := s.redisClient.Scan(ctx, 0, "posts:trending:*", 0).Iterator()
	for iter.Next(ctx) {
		s.redisClient.Del(ctx, iter.Val())
	}
}
