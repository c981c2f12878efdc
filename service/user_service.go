package service

import (
	"database/sql"
	"errors"
	"go-blog-api/model"
	"go-blog-api/repository"
)

// UserService handles profile-related business logic.
type UserService struct {
	userRepo repository.IUserRepository
}

func NewUserService(userRepo repository.IUserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

// GetProfileByName returns the public profile for a display name. The
// password hash and reset ticket never leave the repository layer unredacted.
func (s *UserService) GetProfileByName(name string) (*model.User, error) {
	user, err := s.userRepo.GetUserByName(name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	user.Password = ""
	return user, nil
}

// GetProfileByID returns the profile for a user id. Callers resolving their
// own record go through this: the id in the access token stays valid across a
// display-name change, the name does not.
func (s *UserService) GetProfileByID(id int) (*model.User, error) {
	user, err := s.userRepo.GetUserByID(id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	user.Password = ""
	return user, nil
}

// UpdateProfile applies partial edits; empty fields keep their current value.
func (s *UserService) UpdateProfile(userID int, req *model.UpdateProfileRequest) (*model.User, error) {
	user, err := s.userRepo.GetUserByID(userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if req.Name != "" {
		user.Name = req.Name
	}
	if req.Bio != "" {
		user.Bio = req.Bio
	}

	if err := s.userRepo.UpdateProfile(user); err != nil {
		return nil, err
	}
	user.Password = ""
	return user, nil
}
