package service

import (
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"go-blog-api/logger"
	"go-blog-api/model"
	"go-blog-api/repository"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// Sentinel errors let handlers map auth failures onto the right status codes
// without inspecting strings.
var (
	ErrUserExists          = errors.New("user already exists")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrRefreshTokenExpired = errors.New("refresh token expired")
	ErrUserNotFound        = errors.New("user not found")
	ErrInvalidResetToken   = errors.New("invalid or expired reset token")
)

const resetTicketTTL = 1 * time.Hour

// AuthConfig carries the token issuer settings. It is built once at startup
// and injected; request handling never reads ambient configuration.
type AuthConfig struct {
	AccessSecret  string
	AccessTTL     time.Duration
	RefreshSecret string
	RefreshTTL    time.Duration
	ClientURL     string
}

// AuthService owns the session and credential lifecycle: password hashing,
// token issuance, refresh rotation, logout and the password reset flow.
type AuthService struct {
	userRepo  repository.IUserRepository
	tokenRepo repository.ITokenRepository
	mailer    IMailer
	cfg       AuthConfig
}

func NewAuthService(userRepo repository.IUserRepository, tokenRepo repository.ITokenRepository, mailer IMailer, cfg AuthConfig) *AuthService {
	return &AuthService{
		userRepo:  userRepo,
		tokenRepo: tokenRepo,
		mailer:    mailer,
		cfg:       cfg,
	}
}

func (s *AuthService) HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), 14)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to hash password")
		return "", err
	}
	return string(bytes), nil
}

func (s *AuthService) CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// hashToken is the at-rest form of refresh and reset tokens. Lookups are
// exact matches on the hex digest.
func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// GenerateAccessToken mints the short-lived, self-contained access token.
// Pure function of user state; no side effects.
func (s *AuthService) GenerateAccessToken(user *model.User) (string, error) {
	now := time.Now()
	claims := &model.AccessClaims{
		Email: user.Email,
		Name:  user.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.Itoa(user.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.AccessTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.cfg.AccessSecret))
	if err != nil {
		logger.Log.WithError(err).WithField("user_id", user.ID).Error("Failed to sign access token")
		return "", fmt.Errorf("failed to sign token string: %w", err)
	}
	return tokenString, nil
}

// ParseAccessToken verifies signature and expiry and returns the claims.
// jwt.ErrTokenExpired is preserved in the error chain so callers can report
// expiry distinctly.
func (s *AuthService) ParseAccessToken(tokenString string) (*model.AccessClaims, error) {
	claims := &model.AccessClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.AccessSecret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, jwt.ErrTokenUnverifiable
	}
	return claims, nil
}

// generateRefreshToken mints a refresh token and records it in the ledger,
// replacing any previously issued token for the user. After this call the
// user holds exactly one valid refresh token.
func (s *AuthService) generateRefreshToken(user *model.User) (string, error) {
	now := time.Now()
	expiresAt := now.Add(s.cfg.RefreshTTL)
	claims := &model.RefreshClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.Itoa(user.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.cfg.RefreshSecret))
	if err != nil {
		logger.Log.WithError(err).WithField("user_id", user.ID).Error("Failed to sign refresh token")
		return "", fmt.Errorf("failed to sign token string: %w", err)
	}

	entry := &model.RefreshToken{
		UserID:    user.ID,
		TokenHash: hashToken(tokenString),
		ExpiresAt: expiresAt,
	}
	if err := s.tokenRepo.Replace(entry); err != nil {
		return "", err
	}
	return tokenString, nil
}

func (s *AuthService) issueTokenPair(user *model.User) (*model.AuthResponse, error) {
	accessToken, err := s.GenerateAccessToken(user)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.generateRefreshToken(user)
	if err != nil {
		return nil, err
	}
	return &model.AuthResponse{
		Token:        accessToken,
		RefreshToken: refreshToken,
		User:         user.PublicInfo(),
	}, nil
}

// Register creates the user and opens their first session.
func (s *AuthService) Register(req *model.RegisterRequest) (*model.AuthResponse, error) {
	if _, err := s.userRepo.GetUserByEmail(req.Email); err == nil {
		return nil, ErrUserExists
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	hashedPassword, err := s.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Email:    req.Email,
		Name:     req.Name,
		Password: hashedPassword,
	}
	if err := s.userRepo.CreateUser(user); err != nil {
		return nil, err
	}

	logger.Log.WithField("user_id", user.ID).Info("User registered")
	return s.issueTokenPair(user)
}

// Login verifies the credentials and rotates the session.
func (s *AuthService) Login(email, password string) (*model.AuthResponse, error) {
	user, err := s.userRepo.GetUserByEmail(email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !s.CheckPasswordHash(password, user.Password) {
		return nil, ErrInvalidCredentials
	}

	return s.issueTokenPair(user)
}

// Refresh exchanges a valid refresh token for a new pair. The presented token
// must verify against the refresh secret AND be the exact token recorded in
// the ledger: a token replayed after rotation fails the ledger consume and is
// rejected, which is what bounds the damage of a stolen refresh token.
func (s *AuthService) Refresh(refreshToken string) (*model.AuthResponse, error) {
	claims := &model.RefreshClaims{}
	_, err := jwt.ParseWithClaims(refreshToken, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.RefreshSecret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrRefreshTokenExpired
		}
		return nil, ErrInvalidRefreshToken
	}

	userID, err := strconv.Atoi(claims.Subject)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}

	// Consume deletes the ledger row only if this exact token is still the
	// recorded one. Of two concurrent refreshes, exactly one gets found=true.
	found, err := s.tokenRepo.Consume(userID, hashToken(refreshToken))
	if err != nil {
		return nil, err
	}
	if !found {
		logger.Log.WithField("user_id", userID).Warn("Refresh token not found in ledger; possible replay")
		return nil, ErrInvalidRefreshToken
	}

	user, err := s.userRepo.GetUserByID(userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	return s.issueTokenPair(user)
}

// Logout revokes the presented refresh token. Revoking a token that is absent
// from the ledger is a no-op.
func (s *AuthService) Logout(refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return s.tokenRepo.DeleteByHash(hashToken(refreshToken))
}

// CurrentUser re-fetches the user record for an authenticated subject,
// catching deletion since the access token was minted.
func (s *AuthService) CurrentUser(userID int) (*model.User, error) {
	user, err := s.userRepo.GetUserByID(userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// ForgotPassword issues a one-time reset ticket and emails the unhashed token
// to the user. A send failure is reported to the caller but does not revoke
// the ticket.
func (s *AuthService) ForgotPassword(email string) error {
	user, err := s.userRepo.GetUserByEmail(email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrUserNotFound
		}
		return err
	}

	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return err
	}
	resetToken := hex.EncodeToString(raw)

	if err := s.userRepo.SetResetTicket(user.ID, hashToken(resetToken), time.Now().Add(resetTicketTTL)); err != nil {
		return err
	}

	resetURL := fmt.Sprintf("%s/reset-password.html?token=%s", s.cfg.ClientURL, resetToken)
	if !s.mailer.IsEnabled() {
		logger.Log.WithField("user_id", user.ID).Warn("Mail disabled; reset ticket issued without delivery")
		return nil
	}
	if err := s.mailer.SendPasswordReset(user.Email, resetURL); err != nil {
		return fmt.Errorf("reset ticket created but email failed: %w", err)
	}
	return nil
}

// ResetPassword consumes a reset ticket. The ticket is cleared by the same
// statement that sets the password, so it is single-use by construction.
func (s *AuthService) ResetPassword(resetToken, newPassword string) error {
	hashedPassword, err := s.HashPassword(newPassword)
	if err != nil {
		return err
	}

	ok, err := s.userRepo.ConsumeResetTicket(hashToken(resetToken), hashedPassword)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidResetToken
	}

	logger.Log.Info("Password reset completed")
	return nil
}
