// file: repository/token_repository.go

package repository

import (
	"database/sql"
	"go-blog-api/logger"
	"go-blog-api/model"

	"github.com/sirupsen/logrus"
)

// ITokenRepository defines the contract for the refresh token ledger. The
// ledger holds at most one valid token per user; values are SHA-256 hashes of
// the issued token strings.
type ITokenRepository interface {
	Replace(token *model.RefreshToken) error
	Consume(userID int, tokenHash string) (bool, error)
	DeleteByHash(tokenHash string) error
	DeleteByUserID(userID int) error
}

// TokenRepository implements ITokenRepository on Postgres.
type TokenRepository struct {
	DB *sql.DB
}

func NewTokenRepository(db *sql.DB) *TokenRepository {
	return &TokenRepository{DB: db}
}

// Replace deletes every ledger entry for the user and inserts the new one in
// a single transaction. This is the rotation step: after commit the previous
// refresh token can no longer be consumed.
func (r *TokenRepository) Replace(token *model.RefreshToken) error {
	log := logger.Log.WithFields(logrus.Fields{
		"user_id":    token.UserID,
		"expires_at": token.ExpiresAt,
	})
	log.Info("Executing transaction to replace refresh token")

	tx, err := r.DB.Begin()
	if err != nil {
		log.WithError(err).Error("Failed to begin refresh token transaction")
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM refresh_tokens WHERE user_id = $1`, token.UserID); err != nil {
		log.WithError(err).Error("Failed to delete previous refresh tokens")
		return err
	}

	query := `INSERT INTO refresh_tokens (user_id, token_hash, expires_at) VALUES ($1, $2, $3)
		RETURNING id, created_at`
	if err := tx.QueryRow(query, token.UserID, token.TokenHash, token.ExpiresAt).
		Scan(&token.ID, &token.CreatedAt); err != nil {
		log.WithError(err).Error("Failed to insert new refresh token")
		return err
	}

	return tx.Commit()
}

// Consume deletes the exact (user, token) entry and reports whether it was
// present and unexpired. Of two concurrent refreshes with the same token,
// only one observes found=true; the loser must be answered with an invalid
// refresh token error.
func (r *TokenRepository) Consume(userID int, tokenHash string) (bool, error) {
	log := logger.Log.WithField("user_id", userID)
	log.Info("Executing query to consume refresh token")

	query := `DELETE FROM refresh_tokens WHERE user_id = $1 AND token_hash = $2 AND expires_at > now()`
	res, err := r.DB.Exec(query, userID, tokenHash)
	if err != nil {
		log.WithError(err).Error("Failed to execute consume refresh token query")
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// DeleteByHash removes the entry matching the literal token value. Used by
// logout; a missing entry is not an error.
func (r *TokenRepository) DeleteByHash(tokenHash string) error {
	_, err := r.DB.Exec(`DELETE FROM refresh_tokens WHERE token_hash = $1`, tokenHash)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to execute delete refresh token query")
	}
	return err
}

// DeleteByUserID deletes all refresh tokens for a specific user, logging the
// user out of their session.
func (r *TokenRepository) DeleteByUserID(userID int) error {
	_, err := r.DB.Exec(`DELETE FROM refresh_tokens WHERE user_id = $1`, userID)
	if err != nil {
		logger.Log.WithError(err).WithField("user_id", userID).Error("Failed to execute delete refresh tokens query")
	}
	return err
}
