package repository

import (
	"database/sql"
	"go-blog-api/logger"
	"go-blog-api/model"
	"time"
)

// IUserRepository defines the contract for user (credential store) database
// operations.
type IUserRepository interface {
	CreateUser(user *model.User) error
	GetUserByEmail(email string) (*model.User, error)
	GetUserByID(id int) (*model.User, error)
	GetUserByName(name string) (*model.User, error)
	GetAllUsers() ([]*model.User, error)
	UpdateProfile(user *model.User) error
	SetResetTicket(userID int, tokenHash string, expiresAt time.Time) error
	ConsumeResetTicket(tokenHash, newPasswordHash string) (bool, error)
	DeleteUser(id int) error
	CountUsers() (int, error)
}

// UserRepository implements IUserRepository on Postgres.
type UserRepository struct {
	DB *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{DB: db}
}

const userColumns = `id, email, name, password, role, COALESCE(bio, ''), COALESCE(profile_photo, ''), reset_token_hash, reset_expires_at, created_at`

func scanUser(row *sql.Row) (*model.User, error) {
	user := &model.User{}
	err := row.Scan(&user.ID, &user.Email, &user.Name, &user.Password, &user.Role,
		&user.Bio, &user.ProfilePhoto, &user.ResetTokenHash, &user.ResetExpiresAt, &user.CreatedAt)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *UserRepository) CreateUser(user *model.User) error {
	query := `INSERT INTO users (email, name, password) VALUES ($1, $2, $3) RETURNING id, role, created_at`
	err := r.DB.QueryRow(query, user.Email, user.Name, user.Password).Scan(&user.ID, &user.Role, &user.CreatedAt)
	if err != nil {
		logger.Log.WithError(err).WithField("email", user.Email).Error("Failed to execute create user query")
		return err
	}
	return nil
}

// GetUserByEmail looks a user up case-insensitively, matching the unique
// index on LOWER(email).
func (r *UserRepository) GetUserByEmail(email string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE LOWER(email) = LOWER($1)`
	return scanUser(r.DB.QueryRow(query, email))
}

func (r *UserRepository) GetUserByID(id int) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.DB.QueryRow(query, id))
}

func (r *UserRepository) GetUserByName(name string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE name = $1`
	return scanUser(r.DB.QueryRow(query, name))
}

func (r *UserRepository) GetAllUsers() ([]*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY id`
	rows, err := r.DB.Query(query)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to execute query for all users")
		return nil, err
	}
	defer rows.Close()

	var users []*model.User
	for rows.Next() {
		user := &model.User{}
		if err := rows.Scan(&user.ID, &user.Email, &user.Name, &user.Password, &user.Role,
			&user.Bio, &user.ProfilePhoto, &user.ResetTokenHash, &user.ResetExpiresAt, &user.CreatedAt); err != nil {
			logger.Log.WithError(err).Error("Failed to scan user row")
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func (r *UserRepository) UpdateProfile(user *model.User) error {
	query := `UPDATE users SET name = $1, bio = $2 WHERE id = $3`
	_, err := r.DB.Exec(query, user.Name, user.Bio, user.ID)
	if err != nil {
		logger.Log.WithError(err).WithField("user_id", user.ID).Error("Failed to execute update profile query")
	}
	return err
}

// SetResetTicket stores the hash of a freshly issued reset token, overwriting
// any previous outstanding ticket for the user.
func (r *UserRepository) SetResetTicket(userID int, tokenHash string, expiresAt time.Time) error {
	log := logger.Log.WithField("user_id", userID)
	log.Info("Executing query to set password reset ticket")

	query := `UPDATE users SET reset_token_hash = $1, reset_expires_at = $2 WHERE id = $3`
	_, err := r.DB.Exec(query, tokenHash, expiresAt, userID)
	if err != nil {
		log.WithError(err).Error("Failed to execute set reset ticket query")
	}
	return err
}

// ConsumeResetTicket sets the new password for the user holding an unexpired
// ticket with the given hash, clearing the ticket in the same statement. The
// conditional UPDATE makes the ticket single-use: a second submission of the
// same token matches zero rows.
func (r *UserRepository) ConsumeResetTicket(tokenHash, newPasswordHash string) (bool, error) {
	query := `UPDATE users
		SET password = $1, reset_token_hash = NULL, reset_expires_at = NULL
		WHERE reset_token_hash = $2 AND reset_expires_at > now()`
	res, err := r.DB.Exec(query, newPasswordHash, tokenHash)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to execute consume reset ticket query")
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// DeleteUser removes the user row; posts, comments, likes and refresh tokens
// go with it via ON DELETE CASCADE.
func (r *UserRepository) DeleteUser(id int) error {
	log := logger.Log.WithField("user_id", id)
	log.Info("Executing query to delete user")

	res, err := r.DB.Exec(`DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		log.WithError(err).Error("Failed to execute delete user query")
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *UserRepository) CountUsers() (int, error) {
	var n int
	err := r.DB.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&n)
	return n, err
}
