// file: model/response.go

package model

// AuthResponse is returned by register, login and refresh: a fresh token pair
// plus the identity it was minted for.
type AuthResponse struct {
	Token        string     `json:"token"`
	RefreshToken string     `json:"refreshToken"`
	User         PublicInfo `json:"user"`
}

// MessageResponse is the generic {message} body used by logout, password
// reset and the moderation endpoints.
type MessageResponse struct {
	Message string `json:"message"`
}

// AdminStats summarizes the corpus for the admin dashboard.
type AdminStats struct {
	Users    int `json:"users"`
	Posts    int `json:"posts"`
	Comments int `json:"comments"`
}
