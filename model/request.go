// file: model/request.go

package model

// RegisterRequest defines the payload for creating a new user.
// It includes validation tags to ensure data integrity at the entry point.
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Name     string `json:"name" validate:"required,min=2,max=100"`
}

// LoginRequest defines the payload for user authentication.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest carries the refresh token presented for rotation. The token
// is deliberately not `required` here: the handler distinguishes a missing
// token (401) from an invalid one (403).
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// LogoutRequest carries the refresh token to revoke.
type LogoutRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// ForgotPasswordRequest starts the password reset flow.
type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetPasswordRequest carries the replacement password; the reset token
// itself travels in the URL path.
type ResetPasswordRequest struct {
	Password string `json:"password" validate:"required,min=6"`
}

// CreatePostRequest defines the payload for authoring a post.
type CreatePostRequest struct {
	Title    string `json:"title" validate:"required,max=255"`
	Content  string `json:"content" validate:"required"`
	Category string `json:"category" validate:"required,max=100"`
}

// UpdatePostRequest carries partial post edits; empty fields keep their
// current value.
type UpdatePostRequest struct {
	Title    string `json:"title" validate:"omitempty,max=255"`
	Content  string `json:"content"`
	Category string `json:"category" validate:"omitempty,max=100"`
}

// CreateCommentRequest defines the payload for commenting on a post.
type CreateCommentRequest struct {
	Text string `json:"text" validate:"required"`
}

// UpdateProfileRequest carries profile edits; empty fields keep their current
// value.
type UpdateProfileRequest struct {
	Name string `json:"name" validate:"omitempty,min=2,max=100"`
	Bio  string `json:"bio" validate:"omitempty,max=1000"`
}
