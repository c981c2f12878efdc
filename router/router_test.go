// file: router/router_test.go

package router_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"go-blog-api/app"
	"go-blog-api/config"
	"go-blog-api/logger"
	"go-blog-api/model"
	"go-blog-api/service"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testApp *app.TestApp
var authService *service.AuthService
var testRedisClient *redis.Client

func TestMain(m *testing.M) {
	logger.Init()
	config.LoadConfig("../")
	authService = service.NewAuthService(nil, nil, nil, service.AuthConfig{})

	// --- Database Connection ---
	testDbConnStr := fmt.Sprintf("postgres://%s:%s@localhost:5434/%s_test?sslmode=disable",
		config.AppConfig.Database.User,
		config.AppConfig.Database.Password,
		config.AppConfig.Database.Name,
	)
	db, err := sql.Open("postgres", testDbConnStr)
	if err != nil {
		log.Fatalf("could not connect to test database: %v", err)
	}
	for i := 0; i < 5; i++ {
		if err = db.Ping(); err == nil {
			break
		}
		time.Sleep(1 * time.Second)
	}
	if err != nil {
		// No test database running; these are integration tests only.
		log.Printf("test database not ready, skipping integration tests: %v", err)
		os.Exit(0)
	}
	runMigrations(testDbConnStr)

	// --- Redis Connection for Integration Tests ---
	redisAddr := fmt.Sprintf("%s:%s", config.AppConfig.Redis.Host, config.AppConfig.Redis.Port)
	testRedisClient = redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		Password: config.AppConfig.Redis.Password,
		DB:       1, // Use a separate DB for test isolation.
	})
	if _, err := testRedisClient.Ping(context.Background()).Result(); err != nil {
		log.Printf("test redis not ready, skipping integration tests: %v", err)
		os.Exit(0)
	}

	mailer, err := service.NewSMTPMailer(&config.Config{})
	if err != nil {
		log.Fatalf("could not build mailer: %v", err)
	}
	testApp = app.NewTestApp(db, testRedisClient, mailer)

	// --- Run Tests ---
	exitCode := m.Run()

	// --- Teardown ---
	db.Close()
	testRedisClient.Close()
	os.Exit(exitCode)
}

func runMigrations(connStr string) {
	migrationPath := "file://../db/migrations"
	mig, err := migrate.New(migrationPath, connStr)
	if err != nil {
		log.Fatalf("cannot create migrate instance: %v", err)
	}
	if err := mig.Up(); err != nil && err != migrate.ErrNoChange {
		log.Fatalf("failed to run migrate up: %v", err)
	}
}

// --- Test Helper Functions ---

func clearRedis(t *testing.T) {
	err := testRedisClient.FlushDB(context.Background()).Err()
	assert.NoError(t, err)
}

func createUserForTest(t *testing.T, name, email, password string) model.User {
	hashedPassword, _ := authService.HashPassword(password)
	user := model.User{
		Name:     name,
		Email:    email,
		Password: hashedPassword,
	}
	err := testApp.DB.QueryRow(
		`INSERT INTO users (name, email, password) VALUES ($1, $2, $3) RETURNING id`,
		user.Name, user.Email, user.Password,
	).Scan(&user.ID)
	assert.NoError(t, err)
	return user
}

func createUserWithRoleForTest(t *testing.T, name, email, password string, role model.Role) model.User {
	hashedPassword, _ := authService.HashPassword(password)
	user := model.User{
		Name:     name,
		Email:    email,
		Password: hashedPassword,
		Role:     string(role),
	}
	err := testApp.DB.QueryRow(
		`INSERT INTO users (name, email, password, role) VALUES ($1, $2, $3, $4) RETURNING id`,
		user.Name, user.Email, user.Password, user.Role,
	).Scan(&user.ID)
	assert.NoError(t, err)
	return user
}

func loginUserForTest(t *testing.T, email, password string) model.AuthResponse {
	requestBody := fmt.Sprintf(`{"email": "%s", "password": "%s"}`, email, password)
	req, _ := http.NewRequest("POST", "/auth/login", strings.NewReader(requestBody))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	testApp.Router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code, "Login request should be successful")
	var response model.AuthResponse
	err := json.Unmarshal(rr.Body.Bytes(), &response)
	require.NoError(t, err, "Should be able to unmarshal login response")
	require.NotEmpty(t, response.Token, "Access token should not be empty")
	require.NotEmpty(t, response.RefreshToken, "Refresh token should not be empty")
	return response
}

func cleanupUser(t *testing.T, email string) {
	_, err := testApp.DB.Exec("DELETE FROM users WHERE email = $1", email)
	assert.NoError(t, err, "Failed to clean up user")
}

func createPostForTest(t *testing.T, token, title string) model.Post {
	requestBody := fmt.Sprintf(`{"title": "%s", "content": "Some content.", "category": "go"}`, title)
	req, _ := http.NewRequest("POST", "/posts", strings.NewReader(requestBody))
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	testApp.Router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusCreated, rr.Code)
	var post model.Post
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &post))
	return post
}

// --- Test Suites ---

func TestHealthCheck_Integration(t *testing.T) {
	req, _ := http.NewRequest("GET", "/health", nil)
	rr := httptest.NewRecorder()
	testApp.Router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
	expectedBody := `{"status":"API is healthy and running"}`
	assert.JSONEq(t, expectedBody, rr.Body.String())
}

func TestRegister_Integration(t *testing.T) {
	requestBody := `{"name":"integration_test_user","email":"integration@test.com","password":"password123"}`
	req, _ := http.NewRequest("POST", "/auth/register", strings.NewReader(requestBody))
	rr := httptest.NewRecorder()
	defer cleanupUser(t, "integration@test.com")
	testApp.Router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)

	var response model.AuthResponse
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &response))
	assert.NotEmpty(t, response.Token)
	assert.NotEmpty(t, response.RefreshToken)

	var name string
	err := testApp.DB.QueryRow("SELECT name FROM users WHERE email = $1", "integration@test.com").Scan(&name)
	assert.NoError(t, err)
	assert.Equal(t, "integration_test_user", name)

	t.Run("duplicate email conflicts", func(t *testing.T) {
		requestBody := `{"name":"other_name","email":"INTEGRATION@test.com","password":"password123"}`
		req, _ := http.NewRequest("POST", "/auth/register", strings.NewReader(requestBody))
		rr := httptest.NewRecorder()
		testApp.Router.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusConflict, rr.Code)
	})
}

func TestLogin_Integration(t *testing.T) {
	email := "login.test@example.com"
	password := "password123"
	createUserForTest(t, "login_test_user", email, password)
	defer cleanupUser(t, email)
	t.Run("successful login", func(t *testing.T) {
		loginUserForTest(t, email, password)
	})
	t.Run("wrong password", func(t *testing.T) {
		requestBody := fmt.Sprintf(`{"email": "%s", "password": "wrongpassword"}`, email)
		req, _ := http.NewRequest("POST", "/auth/login", strings.NewReader(requestBody))
		rr := httptest.NewRecorder()
		testApp.Router.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func TestAuthFlows_Integration(t *testing.T) {
	email := "authflow@test.com"
	password := "password123"
	user := createUserForTest(t, "authflow_user", email, password)
	defer cleanupUser(t, user.Email)
	loginResponse := loginUserForTest(t, email, password)
	time.Sleep(1 * time.Second)

	var rotatedResponse model.AuthResponse
	t.Run("successful token refresh", func(t *testing.T) {
		refreshBody := fmt.Sprintf(`{"refreshToken": "%s"}`, loginResponse.RefreshToken)
		req, _ := http.NewRequest("POST", "/auth/refresh", strings.NewReader(refreshBody))
		rr := httptest.NewRecorder()
		testApp.Router.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &rotatedResponse))
		assert.NotEmpty(t, rotatedResponse.Token)
		assert.NotEqual(t, loginResponse.Token, rotatedResponse.Token, "New access token should be different")
		assert.NotEqual(t, loginResponse.RefreshToken, rotatedResponse.RefreshToken, "Refresh token should rotate")
	})

	t.Run("replayed refresh token is rejected", func(t *testing.T) {
		refreshBody := fmt.Sprintf(`{"refreshToken": "%s"}`, loginResponse.RefreshToken)
		req, _ := http.NewRequest("POST", "/auth/refresh", strings.NewReader(refreshBody))
		rr := httptest.NewRecorder()
		testApp.Router.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusForbidden, rr.Code, "Consumed refresh token must not work twice")
	})

	t.Run("missing refresh token", func(t *testing.T) {
		req, _ := http.NewRequest("POST", "/auth/refresh", strings.NewReader(`{}`))
		rr := httptest.NewRecorder()
		testApp.Router.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("successful logout", func(t *testing.T) {
		logoutBody := fmt.Sprintf(`{"refreshToken": "%s"}`, rotatedResponse.RefreshToken)
		req, _ := http.NewRequest("POST", "/auth/logout", strings.NewReader(logoutBody))
		rr := httptest.NewRecorder()
		testApp.Router.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusOK, rr.Code)

		refreshBody := fmt.Sprintf(`{"refreshToken": "%s"}`, rotatedResponse.RefreshToken)
		req, _ = http.NewRequest("POST", "/auth/refresh", strings.NewReader(refreshBody))
		rr = httptest.NewRecorder()
		testApp.Router.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusForbidden, rr.Code, "Refresh token should be invalid after logout")
	})
}

func TestForgotPassword_Integration(t *testing.T) {
	email := "forgot@test.com"
	user := createUserForTest(t, "forgot_user", email, "password123")
	defer cleanupUser(t, user.Email)

	requestBody := fmt.Sprintf(`{"email": "%s"}`, email)
	req, _ := http.NewRequest("POST", "/auth/forgot-password", strings.NewReader(requestBody))
	rr := httptest.NewRecorder()
	testApp.Router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)

	var ticketHash sql.NullString
	err := testApp.DB.QueryRow("SELECT reset_token_hash FROM users WHERE id = $1", user.ID).Scan(&ticketHash)
	assert.NoError(t, err)
	assert.True(t, ticketHash.Valid, "A reset ticket should be recorded")

	t.Run("unknown email", func(t *testing.T) {
		req, _ := http.NewRequest("POST", "/auth/forgot-password", strings.NewReader(`{"email":"ghost@test.com"}`))
		rr := httptest.NewRecorder()
		testApp.Router.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestPosts_Integration(t *testing.T) {
	clearRedis(t)
	author := createUserForTest(t, "post_author", "author@test.com", "password123")
	reader := createUserForTest(t, "post_reader", "reader@test.com", "password123")
	defer cleanupUser(t, author.Email)
	defer cleanupUser(t, reader.Email)
	authorToken := loginUserForTest(t, author.Email, "password123").Token
	readerToken := loginUserForTest(t, reader.Email, "password123").Token

	post := createPostForTest(t, authorToken, "Integration Post")

	t.Run("anonymous listing", func(t *testing.T) {
		req, _ := http.NewRequest("GET", "/posts", nil)
		rr := httptest.NewRecorder()
		testApp.Router.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), "Integration Post")
	})

	t.Run("like updates counters", func(t *testing.T) {
		req, _ := http.NewRequest("POST", fmt.Sprintf("/posts/%d/like", post.ID), nil)
		req.Header.Set("Authorization", "Bearer "+readerToken)
		rr := httptest.NewRecorder()
		testApp.Router.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusOK, rr.Code)

		var likes int
		err := testApp.DB.QueryRow("SELECT COUNT(*) FROM post_likes WHERE post_id = $1", post.ID).Scan(&likes)
		assert.NoError(t, err)
		assert.Equal(t, 1, likes)

		var score float64
		err = testApp.DB.QueryRow("SELECT trending_score FROM posts WHERE id = $1", post.ID).Scan(&score)
		assert.NoError(t, err)
		assert.Greater(t, score, 0.0, "Trending score should update on like")
	})

	t.Run("only the author can delete", func(t *testing.T) {
		req, _ := http.NewRequest("DELETE", fmt.Sprintf("/posts/%d", post.ID), nil)
		req.Header.Set("Authorization", "Bearer "+readerToken)
		rr := httptest.NewRecorder()
		testApp.Router.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})
}

func TestTrending_Caching_Integration(t *testing.T) {
	clearRedis(t)
	author := createUserForTest(t, "trending_author", "trending@test.com", "password123")
	defer cleanupUser(t, author.Email)
	authorToken := loginUserForTest(t, author.Email, "password123").Token
	createPostForTest(t, authorToken, "Trending Post")

	// 1. First request: Should be a CACHE MISS.
	req, _ := http.NewRequest("GET", "/posts/trending", nil)
	rr := httptest.NewRecorder()
	testApp.Router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)

	// Verify the cache now contains the key.
	cacheKey := "posts:trending:5"
	cachedValue, err := testRedisClient.Get(context.Background(), cacheKey).Result()
	assert.NoError(t, err)
	assert.NotEmpty(t, cachedValue)

	// 2. A score-affecting write should INVALIDATE the cache.
	createPostForTest(t, authorToken, "Another Post")
	reader := createUserForTest(t, "trending_reader", "trending.reader@test.com", "password123")
	defer cleanupUser(t, reader.Email)
	readerToken := loginUserForTest(t, reader.Email, "password123").Token

	var postID int
	err = testApp.DB.QueryRow("SELECT id FROM posts WHERE title = $1", "Trending Post").Scan(&postID)
	assert.NoError(t, err)
	likeReq, _ := http.NewRequest("POST", fmt.Sprintf("/posts/%d/like", postID), nil)
	likeReq.Header.Set("Authorization", "Bearer "+readerToken)
	rr = httptest.NewRecorder()
	testApp.Router.ServeHTTP(rr, likeReq)
	assert.Equal(t, http.StatusOK, rr.Code)

	_, err = testRedisClient.Get(context.Background(), cacheKey).Result()
	assert.Error(t, err, "Cache key should be deleted after a like")
	assert.Equal(t, redis.Nil, err)
}

func TestComments_Integration(t *testing.T) {
	author := createUserForTest(t, "comment_author", "comment.author@test.com", "password123")
	defer cleanupUser(t, author.Email)
	token := loginUserForTest(t, author.Email, "password123").Token
	post := createPostForTest(t, token, "Commented Post")

	requestBody := `{"text": "First!"}`
	req, _ := http.NewRequest("POST", fmt.Sprintf("/comments/%d", post.ID), strings.NewReader(requestBody))
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	testApp.Router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusCreated, rr.Code)

	var commentCount int
	err := testApp.DB.QueryRow("SELECT comment_count FROM posts WHERE id = $1", post.ID).Scan(&commentCount)
	assert.NoError(t, err)
	assert.Equal(t, 1, commentCount)

	t.Run("public comment listing", func(t *testing.T) {
		req, _ := http.NewRequest("GET", fmt.Sprintf("/comments/%d", post.ID), nil)
		rr := httptest.NewRecorder()
		testApp.Router.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), "First!")
	})
}

func TestAdminModeration_InvalidatesTrendingCache_Integration(t *testing.T) {
	clearRedis(t)
	author := createUserForTest(t, "mod_author", "mod.author@test.com", "password123")
	adminUser := createUserWithRoleForTest(t, "mod_admin", "mod.admin@test.com", "password123", model.RoleAdmin)
	defer cleanupUser(t, author.Email)
	defer cleanupUser(t, adminUser.Email)
	authorToken := loginUserForTest(t, author.Email, "password123").Token
	adminToken := loginUserForTest(t, adminUser.Email, "password123").Token
	post := createPostForTest(t, authorToken, "Moderated Post")

	// Warm the trending cache.
	req, _ := http.NewRequest("GET", "/posts/trending", nil)
	rr := httptest.NewRecorder()
	testApp.Router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
	cacheKey := "posts:trending:5"
	_, err := testRedisClient.Get(context.Background(), cacheKey).Result()
	assert.NoError(t, err)

	// An admin deletion must drop the cached list, not wait out the TTL.
	req, _ = http.NewRequest("DELETE", fmt.Sprintf("/admin/posts/%d", post.ID), nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	rr = httptest.NewRecorder()
	testApp.Router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)

	_, err = testRedisClient.Get(context.Background(), cacheKey).Result()
	assert.Equal(t, redis.Nil, err, "Trending cache should be invalidated by admin deletion")
}

func TestAdminRoutes_Integration(t *testing.T) {
	adminUser := createUserWithRoleForTest(t, "admin_user", "admin@test.com", "password123", model.RoleAdmin)
	regularUser := createUserWithRoleForTest(t, "regular_user", "user@test.com", "password123", model.RoleUser)
	defer cleanupUser(t, adminUser.Email)
	defer cleanupUser(t, regularUser.Email)
	adminToken := loginUserForTest(t, adminUser.Email, "password123").Token
	userToken := loginUserForTest(t, regularUser.Email, "password123").Token
	endpoint := "/admin/users"
	t.Run("admin can access admin routes", func(t *testing.T) {
		req, _ := http.NewRequest("GET", endpoint, nil)
		req.Header.Set("Authorization", "Bearer "+adminToken)
		rr := httptest.NewRecorder()
		testApp.Router.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusOK, rr.Code)
	})
	t.Run("regular user is forbidden from admin routes", func(t *testing.T) {
		req, _ := http.NewRequest("GET", endpoint, nil)
		req.Header.Set("Authorization", "Bearer "+userToken)
		rr := httptest.NewRecorder()
		testApp.Router.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})
}
