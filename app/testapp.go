package app

import (
	"database/sql"
	"go-blog-api/handler"
	"go-blog-api/repository"
	"go-blog-api/router"
	"go-blog-api/service"
	"net/http"

	"github.com/redis/go-redis/v9"
)

// buildRouter wires all layers together. This is the dependency injection
// point: repositories, then services, then handlers.
func buildRouter(database *sql.DB, redisClient *redis.Client, mailer service.IMailer) http.Handler {
	userRepo := repository.NewUserRepository(database)
	tokenRepo := repository.NewTokenRepository(database)
	postRepo := repository.NewPostRepository(database)
	commentRepo := repository.NewCommentRepository(database)

	authService := service.NewAuthService(userRepo, tokenRepo, mailer, AuthConfigFromApp())
	userService := service.NewUserService(userRepo)
	postService := service.NewPostService(postRepo, redisClient)
	commentService := service.NewCommentService(commentRepo, postService)
	adminService := service.NewAdminService(userRepo, postRepo, commentRepo, postService)

	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(userService)
	postHandler := handler.NewPostHandler(postService)
	commentHandler := handler.NewCommentHandler(commentService)
	adminHandler := handler.NewAdminHandler(adminService)
	authMW := handler.NewAuthMiddleware(authService)

	return router.NewRouter(authHandler, userHandler, postHandler, commentHandler, adminHandler, authMW)
}

// TestApp bundles the wired router with its backing stores for integration
// tests.
type TestApp struct {
	DB     *sql.DB
	Redis  *redis.Client
	Router http.Handler
}

// NewTestApp wires the full application against test connections. The mailer
// is always the disabled no-op; tests never send mail.
func NewTestApp(database *sql.DB, redisClient *redis.Client, mailer service.IMailer) *TestApp {
	return &TestApp{
		DB:     database,
		Redis:  redisClient,
		Router: buildRouter(database, redisClient, mailer),
	}
}
