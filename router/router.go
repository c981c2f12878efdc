package router

import (
	"go-blog-api/handler"
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger/v2"

	_ "go-blog-api/docs" // swag-generated API docs
)

func NewRouter(
	authHandler *handler.AuthHandler,
	userHandler *handler.UserHandler,
	postHandler *handler.PostHandler,
	commentHandler *handler.CommentHandler,
	adminHandler *handler.AdminHandler,
	authMW *handler.AuthMiddleware,
) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", handler.HealthCheck)
	mux.Handle("GET /swagger/", httpSwagger.WrapHandler)

	// Auth / session lifecycle
	mux.Handle("POST /auth/register", handler.ErrorHandlingMiddleware(authHandler.Register))
	mux.Handle("POST /auth/login", handler.ErrorHandlingMiddleware(authHandler.Login))
	mux.Handle("GET /auth/me", authMW.RequireAuth(handler.ErrorHandlingMiddleware(authHandler.Me)))
	mux.Handle("POST /auth/refresh", handler.ErrorHandlingMiddleware(authHandler.Refresh))
	mux.Handle("POST /auth/logout", handler.ErrorHandlingMiddleware(authHandler.Logout))
	mux.Handle("GET /auth/verify", handler.ErrorHandlingMiddleware(authHandler.Verify))
	mux.Handle("POST /auth/forgot-password", handler.ErrorHandlingMiddleware(authHandler.ForgotPassword))
	mux.Handle("POST /auth/reset-password/{token}", handler.ErrorHandlingMiddleware(authHandler.ResetPassword))

	// Posts
	mux.Handle("GET /posts", authMW.OptionalAuth(handler.ErrorHandlingMiddleware(postHandler.ListPosts)))
	mux.Handle("GET /posts/mine", authMW.RequireAuth(handler.ErrorHandlingMiddleware(postHandler.ListMyPosts)))
	mux.Handle("GET /posts/trending", handler.ErrorHandlingMiddleware(postHandler.ListTrending))
	mux.Handle("GET /posts/{id}", authMW.OptionalAuth(handler.ErrorHandlingMiddleware(postHandler.GetPost)))
	mux.Handle("POST /posts", authMW.RequireAuth(handler.ErrorHandlingMiddleware(postHandler.CreatePost)))
	mux.Handle("PUT /posts/{id}", authMW.RequireAuth(handler.ErrorHandlingMiddleware(postHandler.UpdatePost)))
	mux.Handle("DELETE /posts/{id}", authMW.RequireAuth(handler.ErrorHandlingMiddleware(postHandler.DeletePost)))
	mux.Handle("POST /posts/{id}/like", authMW.RequireAuth(handler.ErrorHandlingMiddleware(postHandler.LikePost)))
	mux.Handle("POST /posts/{id}/unlike", authMW.RequireAuth(handler.ErrorHandlingMiddleware(postHandler.UnlikePost)))
	mux.Handle("POST /posts/{id}/view", authMW.OptionalAuth(handler.ErrorHandlingMiddleware(postHandler.RecordView)))

	// Comments
	mux.Handle("POST /comments/{postId}", authMW.RequireAuth(handler.ErrorHandlingMiddleware(commentHandler.CreateComment)))
	mux.Handle("GET /comments/{postId}", handler.ErrorHandlingMiddleware(commentHandler.ListComments))
	mux.Handle("DELETE /comments/{commentId}", authMW.RequireAuth(handler.ErrorHandlingMiddleware(commentHandler.DeleteComment)))

	// Users
	mux.Handle("GET /users/me", authMW.RequireAuth(handler.ErrorHandlingMiddleware(userHandler.GetCurrentUser)))
	mux.Handle("PUT /users/me", authMW.RequireAuth(handler.ErrorHandlingMiddleware(userHandler.UpdateProfile)))
	mux.Handle("GET /users/{name}", handler.ErrorHandlingMiddleware(userHandler.GetProfileByName))

	// Admin (authentication, then the role gate)
	admin := func(h http.Handler) http.Handler {
		return authMW.RequireAuth(authMW.RequireAdmin(h))
	}
	mux.Handle("GET /admin/users", admin(handler.ErrorHandlingMiddleware(adminHandler.ListUsers)))
	mux.Handle("DELETE /admin/users/{id}", admin(handler.ErrorHandlingMiddleware(adminHandler.DeleteUser)))
	mux.Handle("GET /admin/posts", admin(handler.ErrorHandlingMiddleware(adminHandler.ListPosts)))
	mux.Handle("DELETE /admin/posts/{id}", admin(handler.ErrorHandlingMiddleware(adminHandler.DeletePost)))
	mux.Handle("GET /admin/comments", admin(handler.ErrorHandlingMiddleware(adminHandler.ListComments)))
	mux.Handle("DELETE /admin/comments/{id}", admin(handler.ErrorHandlingMiddleware(adminHandler.DeleteComment)))
	mux.Handle("GET /admin/stats", admin(handler.ErrorHandlingMiddleware(adminHandler.Stats)))

	return mux
}
