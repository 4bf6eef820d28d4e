package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// PostgresCredentials checks email/password pairs against the credentials table.
type PostgresCredentials struct {
	DB   *sql.DB
	Cost int
}

func NewPostgresCredentials(db *sql.DB) *PostgresCredentials {
	return &PostgresCredentials{DB: db, Cost: bcrypt.DefaultCost}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (c *PostgresCredentials) Verify(ctx context.Context, email, password string) (Identity, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return Identity{}, ErrInvalidCredentials
	}

	var uid, hash string
	err := c.DB.QueryRowContext(ctx,
		`SELECT uid, password_hash FROM credentials WHERE email = $1`, email,
	).Scan(&uid, &hash)
	if errors.Is(err, sql.ErrNoRows) {
		return Identity{}, ErrInvalidCredentials
	}
	if err != nil {
		return Identity{}, fmt.Errorf("read credentials: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return Identity{}, ErrInvalidCredentials
	}
	return Identity{UID: uid, Email: email}, nil
}

// SetPassword creates the account for email or replaces its password, and
// returns the identity with its stable uid.
func (c *PostgresCredentials) SetPassword(ctx context.Context, email, password string) (Identity, error) {
	email = normalizeEmail(email)
	if email == "" {
		return Identity{}, errors.New("email is required")
	}
	if len(password) < 6 {
		return Identity{}, ErrWeakPassword
	}

	cost := c.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return Identity{}, err
	}

	var uid string
	err = c.DB.QueryRowContext(ctx,
		`INSERT INTO credentials (uid, email, password_hash) VALUES ($1, $2, $3)
		 ON CONFLICT (email) DO UPDATE SET password_hash = EXCLUDED.password_hash, updated_at = now()
		 RETURNING uid`,
		uuid.NewString(), email, string(hash),
	).Scan(&uid)
	if err != nil {
		return Identity{}, fmt.Errorf("store credentials: %w", err)
	}
	return Identity{UID: uid, Email: email}, nil
}
