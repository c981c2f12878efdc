package model

import "github.com/golang-jwt/jwt/v5"

// AccessClaims is the payload of the short-lived access token. It is fully
// self-contained: middleware can authenticate a request without a store
// lookup.
type AccessClaims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	jwt.RegisteredClaims
}

// RefreshClaims carries only the subject; everything else about the session
// lives in the refresh token ledger.
type RefreshClaims struct {
	jwt.RegisteredClaims
}
