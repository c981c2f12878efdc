// file: service/auth_service_test.go

package service

import (
	"database/sql"
	"errors"
	"go-blog-api/model"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testAuthConfig uses a low-latency TTL setup; secrets are distinct like in
// production.
func testAuthConfig() AuthConfig {
	return AuthConfig{
		AccessSecret:  "test-access-secret",
		AccessTTL:     15 * time.Minute,
		RefreshSecret: "test-refresh-secret",
		RefreshTTL:    7 * 24 * time.Hour,
		ClientURL:     "http://localhost:5500",
	}
}

// --- In-memory fakes ---
// The token fake guards its single-slot-per-user map with a mutex so the
// concurrent rotation test exercises the same winner/loser semantics the
// SQL implementation gets from its conditional DELETE.

type fakeLedgerEntry struct {
	tokenHash string
	expiresAt time.Time
}

type fakeTokenRepo struct {
	mu      sync.Mutex
	entries map[int]fakeLedgerEntry
}

func newFakeTokenRepo() *fakeTokenRepo {
	return &fakeTokenRepo{entries: make(map[int]fakeLedgerEntry)}
}

func (f *fakeTokenRepo) Replace(token *model.RefreshToken) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[token.UserID] = fakeLedgerEntry{tokenHash: token.TokenHash, expiresAt: token.ExpiresAt}
	return nil
}

func (f *fakeTokenRepo) Consume(userID int, tokenHash string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	entry, ok := f.entries[userID]
	if !ok || entry.tokenHash != tokenHash || !entry.expiresAt.After(time.Now()) {
		return false, nil
	}
	delete(f.entries, userID)
	return true, nil
}

func (f *fakeTokenRepo) DeleteByHash(tokenHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for userID, entry := range f.entries {
		if entry.tokenHash == tokenHash {
			delete(f.entries, userID)
		}
	}
	return nil
}

func (f *fakeTokenRepo) DeleteByUserID(userID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.entries, userID)
	return nil
}

func (f *fakeTokenRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.entries)
}

type fakeUserRepo struct {
	mu     sync.Mutex
	nextID int
	users  map[int]*model.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{nextID: 1, users: make(map[int]*model.User)}
}

func (f *fakeUserRepo) CreateUser(user *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	user.ID = f.nextID
	user.Role = "user"
	user.CreatedAt = time.Now()
	f.nextID++
	clone := *user
	f.users[user.ID] = &clone
	return nil
}

func (f *fakeUserRepo) GetUserByEmail(email string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.users {
		if strings.EqualFold(user.Email, email) {
			clone := *user
			return &clone, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeUserRepo) GetUserByID(id int) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *user
	return &clone, nil
}

func (f *fakeUserRepo) GetUserByName(name string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.users {
		if user.Name == name {
			clone := *user
			return &clone, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeUserRepo) GetAllUsers() ([]*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var users []*model.User
	for _, user := range f.users {
		clone := *user
		users = append(users, &clone)
	}
	return users, nil
}

func (f *fakeUserRepo) UpdateProfile(user *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.users[user.ID]
	if !ok {
		return sql.ErrNoRows
	}
	stored.Name = user.Name
	stored.Bio = user.Bio
	return nil
}

func (f *fakeUserRepo) SetResetTicket(userID int, tokenHash string, expiresAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[userID]
	if !ok {
		return sql.ErrNoRows
	}
	user.ResetTokenHash = sql.NullString{String: tokenHash, Valid: true}
	user.ResetExpiresAt = sql.NullTime{Time: expiresAt, Valid: true}
	return nil
}

func (f *fakeUserRepo) ConsumeResetTicket(tokenHash, newPasswordHash string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.users {
		if user.ResetTokenHash.Valid && user.ResetTokenHash.String == tokenHash &&
			user.ResetExpiresAt.Valid && user.ResetExpiresAt.Time.After(time.Now()) {
			user.Password = newPasswordHash
			user.ResetTokenHash = sql.NullString{}
			user.ResetExpiresAt = sql.NullTime{}
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeUserRepo) DeleteUser(id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[id]; !ok {
		return sql.ErrNoRows
	}
	delete(f.users, id)
	return nil
}

func (f *fakeUserRepo) CountUsers() (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.users), nil
}

type fakeMailer struct {
	mu       sync.Mutex
	sent     []string // reset URLs, in order
	sendErr  error
	disabled bool
}

func (f *fakeMailer) IsEnabled() bool { return !f.disabled }

func (f *fakeMailer) SendPasswordReset(to, resetURL string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, resetURL)
	return nil
}

func (f *fakeMailer) lastResetToken(t *testing.T) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.sent, "expected a reset email to have been sent")
	u, err := url.Parse(f.sent[len(f.sent)-1])
	require.NoError(t, err)
	return u.Query().Get("token")
}

func newTestAuthService() (*AuthService, *fakeUserRepo, *fakeTokenRepo, *fakeMailer) {
	userRepo := newFakeUserRepo()
	tokenRepo := newFakeTokenRepo()
	mailer := &fakeMailer{}
	return NewAuthService(userRepo, tokenRepo, mailer, testAuthConfig()), userRepo, tokenRepo, mailer
}

// --- Tests ---

// TestAuthService_HashAndCheckPassword ensures that password hashing and
// verification work and that hashes are not the plaintext.
func TestAuthService_HashAndCheckPassword(t *testing.T) {
	authService, _, _, _ := newTestAuthService()
	password := "mySecretPassword123"

	hashedPassword, err := authService.HashPassword(password)
	require.NoError(t, err)
	assert.NotEqual(t, password, hashedPassword)

	assert.True(t, authService.CheckPasswordHash(password, hashedPassword))
	assert.False(t, authService.CheckPasswordHash("notMyPassword", hashedPassword))
}

func TestAuthService_RegisterIssuesSingleSession(t *testing.T) {
	authService, userRepo, tokenRepo, _ := newTestAuthService()

	resp, err := authService.Register(&model.RegisterRequest{
		Email:    "a@x.com",
		Password: "secret1",
		Name:     "A",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.NotZero(t, resp.User.ID)
	assert.Equal(t, "a@x.com", resp.User.Email)

	// Exactly one user and one ledger entry exist.
	n, _ := userRepo.CountUsers()
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, tokenRepo.count())

	// The access token decodes to the registered user's id.
	claims, err := authService.ParseAccessToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, strconv.Itoa(resp.User.ID), claims.Subject)
	assert.Equal(t, "a@x.com", claims.Email)
	assert.Equal(t, "A", claims.Name)

	// Duplicate registration conflicts, case-insensitively.
	_, err = authService.Register(&model.RegisterRequest{Email: "A@X.COM", Password: "other99", Name: "B"})
	assert.ErrorIs(t, err, ErrUserExists)
}

func TestAuthService_LoginRotatesRefreshToken(t *testing.T) {
	authService, _, tokenRepo, _ := newTestAuthService()

	first, err := authService.Register(&model.RegisterRequest{Email: "a@x.com", Password: "secret1", Name: "A"})
	require.NoError(t, err)

	second, err := authService.Login("a@x.com", "secret1")
	require.NoError(t, err)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)

	// Rotation invariant: still exactly one ledger entry.
	assert.Equal(t, 1, tokenRepo.count())

	// The pre-rotation token is no longer accepted.
	_, err = authService.Refresh(first.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestAuthService_LoginInvalidCredentials(t *testing.T) {
	authService, _, _, _ := newTestAuthService()

	_, err := authService.Register(&model.RegisterRequest{Email: "a@x.com", Password: "secret1", Name: "A"})
	require.NoError(t, err)

	_, err = authService.Login("a@x.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = authService.Login("nobody@x.com", "secret1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthService_RefreshRotation(t *testing.T) {
	authService, _, tokenRepo, _ := newTestAuthService()

	initial, err := authService.Register(&model.RegisterRequest{Email: "a@x.com", Password: "secret1", Name: "A"})
	require.NoError(t, err)

	rotated, err := authService.Refresh(initial.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, initial.RefreshToken, rotated.RefreshToken)
	assert.Equal(t, 1, tokenRepo.count())

	// Replaying the consumed token fails.
	_, err = authService.Refresh(initial.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)

	// The rotated token still works.
	_, err = authService.Refresh(rotated.RefreshToken)
	assert.NoError(t, err)
}

// TestAuthService_ConcurrentRefresh asserts the single-slot ledger semantics:
// of two simultaneous rotations with the same token, exactly one succeeds and
// exactly one valid refresh token exists afterwards.
func TestAuthService_ConcurrentRefresh(t *testing.T) {
	authService, _, tokenRepo, _ := newTestAuthService()

	initial, err := authService.Register(&model.RegisterRequest{Email: "a@x.com", Password: "secret1", Name: "A"})
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]*model.AuthResponse, 2)
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = authService.Refresh(initial.RefreshToken)
		}(i)
	}
	wg.Wait()

	var winners []*model.AuthResponse
	for i := 0; i < 2; i++ {
		if errs[i] == nil {
			winners = append(winners, results[i])
		} else {
			assert.ErrorIs(t, errs[i], ErrInvalidRefreshToken)
		}
	}
	require.Len(t, winners, 1, "exactly one concurrent refresh must win")
	assert.Equal(t, 1, tokenRepo.count())

	// The winner's token is the single valid one.
	_, err = authService.Refresh(winners[0].RefreshToken)
	assert.NoError(t, err)
}

func TestAuthService_RefreshExpiredToken(t *testing.T) {
	authService, _, _, _ := newTestAuthService()

	// Sign an already-expired refresh token with the right secret.
	claims := &model.RefreshClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	expired, err := token.SignedString([]byte(testAuthConfig().RefreshSecret))
	require.NoError(t, err)

	_, err = authService.Refresh(expired)
	assert.ErrorIs(t, err, ErrRefreshTokenExpired)
}

func TestAuthService_RefreshGarbageToken(t *testing.T) {
	authService, _, _, _ := newTestAuthService()

	_, err := authService.Refresh("not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestAuthService_Logout(t *testing.T) {
	authService, _, tokenRepo, _ := newTestAuthService()

	resp, err := authService.Register(&model.RegisterRequest{Email: "a@x.com", Password: "secret1", Name: "A"})
	require.NoError(t, err)

	require.NoError(t, authService.Logout(resp.RefreshToken))
	assert.Equal(t, 0, tokenRepo.count())

	// The revoked token no longer refreshes.
	_, err = authService.Refresh(resp.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)

	// Revoking again, or revoking nothing, is a no-op.
	assert.NoError(t, authService.Logout(resp.RefreshToken))
	assert.NoError(t, authService.Logout(""))
}

func TestAuthService_PasswordResetFlow(t *testing.T) {
	authService, _, _, mailer := newTestAuthService()

	_, err := authService.Register(&model.RegisterRequest{Email: "a@x.com", Password: "secret1", Name: "A"})
	require.NoError(t, err)

	require.NoError(t, authService.ForgotPassword("a@x.com"))
	resetToken := mailer.lastResetToken(t)
	require.NotEmpty(t, resetToken)

	require.NoError(t, authService.ResetPassword(resetToken, "newPassword9"))

	// The new password works, the old one does not.
	_, err = authService.Login("a@x.com", "newPassword9")
	assert.NoError(t, err)
	_, err = authService.Login("a@x.com", "secret1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	// The ticket is single-use.
	err = authService.ResetPassword(resetToken, "anotherPassword")
	assert.ErrorIs(t, err, ErrInvalidResetToken)
}

func TestAuthService_ForgotPasswordUnknownEmail(t *testing.T) {
	authService, _, _, _ := newTestAuthService()

	err := authService.ForgotPassword("nobody@x.com")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

// A mail delivery failure is reported but does not revoke the ticket: the
// token from a later successful send (or support channel) still works.
func TestAuthService_ForgotPasswordMailFailureKeepsTicket(t *testing.T) {
	authService, userRepo, _, mailer := newTestAuthService()

	resp, err := authService.Register(&model.RegisterRequest{Email: "a@x.com", Password: "secret1", Name: "A"})
	require.NoError(t, err)

	mailer.sendErr = errors.New("smtp unreachable")
	err = authService.ForgotPassword("a@x.com")
	assert.Error(t, err)

	user, err := userRepo.GetUserByID(resp.User.ID)
	require.NoError(t, err)
	assert.True(t, user.ResetTokenHash.Valid, "ticket should survive a failed send")
}

// With mail disabled the ticket is still issued and the request succeeds;
// no delivery is attempted.
func TestAuthService_ForgotPasswordMailDisabled(t *testing.T) {
	authService, userRepo, _, mailer := newTestAuthService()

	resp, err := authService.Register(&model.RegisterRequest{Email: "a@x.com", Password: "secret1", Name: "A"})
	require.NoError(t, err)

	mailer.disabled = true
	require.NoError(t, authService.ForgotPassword("a@x.com"))
	assert.Empty(t, mailer.sent)

	user, err := userRepo.GetUserByID(resp.User.ID)
	require.NoError(t, err)
	assert.True(t, user.ResetTokenHash.Valid, "ticket should be issued even without delivery")
}

func TestAuthService_ParseAccessTokenRejectsWrongSecret(t *testing.T) {
	authService, _, _, _ := newTestAuthService()

	otherCfg := testAuthConfig()
	otherCfg.AccessSecret = "some-other-secret"
	otherService := NewAuthService(nil, nil, nil, otherCfg)

	user := &model.User{ID: 1, Email: "a@x.com", Name: "A"}
	token, err := otherService.GenerateAccessToken(user)
	require.NoError(t, err)

	_, err = authService.ParseAccessToken(token)
	assert.Error(t, err)
}
