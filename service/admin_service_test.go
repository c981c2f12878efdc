package service

import (
	"database/sql"
	"go-blog-api/model"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAdminService(userRepo *mockUserRepo, postRepo *mockPostRepo, commentRepo *mockCommentRepo) *AdminService {
	return NewAdminService(userRepo, postRepo, commentRepo, NewPostService(postRepo, nil))
}

func TestAdminService_ListUsersRedactsPasswords(t *testing.T) {
	userRepo := new(mockUserRepo)
	userRepo.On("GetAllUsers").Return([]*model.User{
		{ID: 1, Name: "alice", Password: "$2a$14$secret"},
		{ID: 2, Name: "bob", Password: "$2a$14$other"},
	}, nil)

	adminService := newTestAdminService(userRepo, new(mockPostRepo), new(mockCommentRepo))
	users, err := adminService.ListUsers()
	require.NoError(t, err)
	for _, user := range users {
		assert.Empty(t, user.Password)
	}
}

// Admin post deletion goes through the post service so the trending cache is
// invalidated along with the post.
func TestAdminService_DeletePost(t *testing.T) {
	postRepo := new(mockPostRepo)
	postRepo.On("DeletePost", 1).Return(nil)

	adminService := newTestAdminService(new(mockUserRepo), postRepo, new(mockCommentRepo))
	assert.NoError(t, adminService.DeletePost(1))
	postRepo.AssertExpectations(t)
}

func TestAdminService_DeletePostNotFound(t *testing.T) {
	postRepo := new(mockPostRepo)
	postRepo.On("DeletePost", 99).Return(sql.ErrNoRows)

	adminService := newTestAdminService(new(mockUserRepo), postRepo, new(mockCommentRepo))
	assert.ErrorIs(t, adminService.DeletePost(99), ErrPostNotFound)
}

func TestAdminService_DeleteUserNotFound(t *testing.T) {
	userRepo := new(mockUserRepo)
	userRepo.On("DeleteUser", 99).Return(sql.ErrNoRows)

	adminService := newTestAdminService(userRepo, new(mockPostRepo), new(mockCommentRepo))
	assert.ErrorIs(t, adminService.DeleteUser(99), ErrUserNotFound)
}
