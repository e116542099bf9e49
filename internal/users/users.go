package users

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidResetToken  = errors.New("invalid or expired reset token")
)

// resetTokenTTL is how long a password-reset token stays usable.
const resetTokenTTL = 15 * time.Minute

type Conf struct {
	db *sql.DB
}

func NewConf(db *sql.DB) (*Conf, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}
	return &Conf{db: db}, nil
}

// InsertUser hashes the password and creates the account with the customer
// role.
func (c *Conf) InsertUser(ctx context.Context, nu NewUser) (User, error) {
	var exists bool
	err := c.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`, nu.Email).Scan(&exists)
	if err != nil {
		return User{}, fmt.Errorf("checking email: %w", err)
	}
	if exists {
		return User{}, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(nu.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, fmt.Errorf("hashing password: %w", err)
	}

	user := User{
		ID:           uuid.NewString(),
		Name:         nu.Name,
		Email:        nu.Email,
		PasswordHash: string(hash),
		Phone:        nu.Phone,
		Role:         "customer",
	}

	query := `
		INSERT INTO users (id, name, email, password_hash, phone, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		RETURNING created_at, updated_at
	`
	err = c.db.QueryRowContext(ctx, query, user.ID, user.Name, user.Email,
		user.PasswordHash, user.Phone, user.Role).Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return User{}, fmt.Errorf("inserting user: %w", err)
	}
	return user, nil
}

// Authenticate verifies the email/password pair and returns the user.
func (c *Conf) Authenticate(ctx context.Context, email, password string) (User, error) {
	user, err := c.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return User{}, ErrInvalidCredentials
		}
		return User{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return User{}, ErrInvalidCredentials
	}
	return user, nil
}

func (c *Conf) GetUserByEmail(ctx context.Context, email string) (User, error) {
	query := `
		SELECT id, name, email, password_hash, phone, role, refresh_token, created_at, updated_at
		FROM users WHERE email = $1
	`
	var u User
	err := c.db.QueryRowContext(ctx, query, email).Scan(&u.ID, &u.Name, &u.Email,
		&u.PasswordHash, &u.Phone, &u.Role, &u.RefreshToken, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrUserNotFound
		}
		return User{}, fmt.Errorf("querying user by email: %w", err)
	}
	return u, nil
}

func (c *Conf) GetUserByID(ctx context.Context, id string) (User, error) {
	query := `
		SELECT id, name, email, password_hash, phone, role, refresh_token, created_at, updated_at
		FROM users WHERE id = $1
	`
	var u User
	err := c.db.QueryRowContext(ctx, query, id).Scan(&u.ID, &u.Name, &u.Email,
		&u.PasswordHash, &u.Phone, &u.Role, &u.RefreshToken, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrUserNotFound
		}
		return User{}, fmt.Errorf("querying user by id: %w", err)
	}
	return u, nil
}

// UpdateProfile changes the account's name and phone. Empty fields keep
// their stored value.
func (c *Conf) UpdateProfile(ctx context.Context, userID string, up UpdateUser) (User, error) {
	query := `
		UPDATE users
		SET name = COALESCE(NULLIF($1, ''), name),
			phone = COALESCE(NULLIF($2, ''), phone),
			updated_at = NOW()
		WHERE id = $3
		RETURNING id, name, email, password_hash, phone, role, refresh_token, created_at, updated_at
	`
	var u User
	err := c.db.QueryRowContext(ctx, query, up.Name, up.Phone, userID).Scan(&u.ID, &u.Name,
		&u.Email, &u.PasswordHash, &u.Phone, &u.Role, &u.RefreshToken, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrUserNotFound
		}
		return User{}, fmt.Errorf("updating profile: %w", err)
	}
	return u, nil
}

// DeleteUser removes the account and, via cascade, its cart. Orders are kept:
// the ledger outlives the account.
func (c *Conf) DeleteUser(ctx context.Context, userID string) error {
	res, err := c.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, userID)
	if err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return ErrUserNotFound
	}
	return nil
}

// CreatePasswordResetToken issues a one-time reset token for the account and
// returns it for delivery. Only a SHA-256 digest is stored, so a leaked
// database dump cannot be replayed as a token.
func (c *Conf) CreatePasswordResetToken(ctx context.Context, email string) (string, error) {
	user, err := c.GetUserByEmail(ctx, email)
	if err != nil {
		return "", err
	}

	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating reset token: %w", err)
	}
	token := hex.EncodeToString(buf)
	digest := sha256.Sum256([]byte(token))

	_, err = c.db.ExecContext(ctx, `
		UPDATE users SET reset_token = $1, reset_token_expires_at = $2, updated_at = NOW()
		WHERE id = $3
	`, hex.EncodeToString(digest[:]), time.Now().UTC().Add(resetTokenTTL), user.ID)
	if err != nil {
		return "", fmt.Errorf("storing reset token: %w", err)
	}
	return token, nil
}

// ResetPassword consumes a reset token, sets the new password and revokes all
// sessions by clearing the refresh token.
func (c *Conf) ResetPassword(ctx context.Context, token, password string) error {
	if token == "" {
		return ErrInvalidResetToken
	}
	digest := sha256.Sum256([]byte(token))

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	res, err := c.db.ExecContext(ctx, `
		UPDATE users
		SET password_hash = $1, reset_token = '', reset_token_expires_at = 'epoch',
			refresh_token = '', updated_at = NOW()
		WHERE reset_token = $2 AND reset_token_expires_at > NOW()
	`, string(hash), hex.EncodeToString(digest[:]))
	if err != nil {
		return fmt.Errorf("resetting password: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return ErrInvalidResetToken
	}
	return nil
}

// UpdateRefreshToken stores the active refresh token; an empty value logs the
// user out everywhere.
func (c *Conf) UpdateRefreshToken(ctx context.Context, userID, token string) error {
	res, err := c.db.ExecContext(ctx,
		`UPDATE users SET refresh_token = $1, updated_at = NOW() WHERE id = $2`, token, userID)
	if err != nil {
		return fmt.Errorf("updating refresh token: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return ErrUserNotFound
	}
	return nil
}
