package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/yovohub/hub/internal/logging"
	"github.com/yovohub/hub/internal/models"
)

const (
	bcryptCost        = 12
	sessionDuration   = 30 * 24 * time.Hour // 30 days
	sessionKeyPrefix  = "session:"
	ResetCodeExpiry   = 24 * time.Hour
	resetCodeDigits   = 6
	MinPasswordLength = 6
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrRoleMismatch       = errors.New("role does not match account")
	ErrSessionNotFound    = errors.New("session not found")
	ErrSessionExpired     = errors.New("session expired")
	ErrInvalidResetCode   = errors.New("invalid reset code")
	ErrResetCodeExpired   = errors.New("reset code expired")
)

type AuthService struct {
	db    DB
	redis RedisClient
}

func NewAuthService(db DB, redis RedisClient) *AuthService {
	return &AuthService{
		db:    db,
		redis: redis,
	}
}

func (s *AuthService) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(hash), nil
}

func (s *AuthService) VerifyPassword(hash, password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// Authenticate checks email and password and that the account has the expected role.
func (s *AuthService) Authenticate(ctx context.Context, email, password string, role models.Role) (*models.User, error) {
	user, err := NewUserService(s.db).GetByEmail(ctx, email)
	if errors.Is(err, ErrUserNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !s.VerifyPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	if role != "" && user.Role != role {
		return nil, ErrRoleMismatch
	}
	return user, nil
}

func (s *AuthService) GenerateSessionToken() (token string, hash string, err error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", "", fmt.Errorf("generating random bytes: %w", err)
	}

	token = hex.EncodeToString(bytes)
	hashBytes := sha256.Sum256([]byte(token))
	hash = hex.EncodeToString(hashBytes[:])

	return token, hash, nil
}

func (s *AuthService) hashToken(token string) string {
	hashBytes := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hashBytes[:])
}

func (s *AuthService) CreateSession(ctx context.Context, userID uuid.UUID) (token string, err error) {
	token, tokenHash, err := s.GenerateSessionToken()
	if err != nil {
		return "", err
	}

	expiresAt := time.Now().Add(sessionDuration)

	// Store in Redis for fast lookups
	redisKey := sessionKeyPrefix + tokenHash
	err = s.redis.Set(ctx, redisKey, userID.String(), sessionDuration)
	if err != nil {
		logging.Warn("Redis unavailable for session storage; using database", logging.Fields{
			"error":   err.Error(),
			"user_id": userID.String(),
		})
		// Fall back to PostgreSQL if Redis fails
		_, err = s.db.Exec(ctx,
			`INSERT INTO sessions (user_id, token_hash, expires_at) VALUES ($1, $2, $3)`,
			userID, tokenHash, expiresAt,
		)
		if err != nil {
			return "", fmt.Errorf("creating session in database: %w", err)
		}
	}

	return token, nil
}

func (s *AuthService) ValidateSession(ctx context.Context, token string) (*models.User, error) {
	tokenHash := s.hashToken(token)

	// Try Redis first
	redisKey := sessionKeyPrefix + tokenHash
	userIDStr, err := s.redis.Get(ctx, redisKey)
	if err == nil {
		// Found in Redis, extend session
		_ = s.redis.Expire(ctx, redisKey, sessionDuration)

		userID, err := uuid.Parse(userIDStr)
		if err != nil {
			return nil, fmt.Errorf("parsing user id: %w", err)
		}

		return NewUserService(s.db).GetByID(ctx, userID)
	}

	// Fall back to PostgreSQL
	var session models.Session
	err = s.db.QueryRow(ctx,
		`SELECT id, user_id, token_hash, expires_at, created_at
		 FROM sessions WHERE token_hash = $1`,
		tokenHash,
	).Scan(&session.ID, &session.UserID, &session.TokenHash, &session.ExpiresAt, &session.CreatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying session: %w", err)
	}

	if time.Now().After(session.ExpiresAt) {
		// Clean up expired session
		_, _ = s.db.Exec(ctx, "DELETE FROM sessions WHERE id = $1", session.ID)
		return nil, ErrSessionExpired
	}

	return NewUserService(s.db).GetByID(ctx, session.UserID)
}

func (s *AuthService) DeleteSession(ctx context.Context, token string) error {
	tokenHash := s.hashToken(token)

	_ = s.redis.Del(ctx, sessionKeyPrefix+tokenHash)

	_, err := s.db.Exec(ctx, "DELETE FROM sessions WHERE token_hash = $1", tokenHash)
	if err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}

	return nil
}

func (s *AuthService) DeleteAllUserSessions(ctx context.Context, userID uuid.UUID) error {
	rows, err := s.db.Query(ctx, "SELECT token_hash FROM sessions WHERE user_id = $1", userID)
	if err != nil {
		return fmt.Errorf("querying user sessions: %w", err)
	}
	defer rows.Close()

	var tokenHashes []string
	for rows.Next() {
		var hash string
		if err := rows.Scan(&hash); err != nil {
			return fmt.Errorf("scanning token hash: %w", err)
		}
		tokenHashes = append(tokenHashes, hash)
	}

	for _, hash := range tokenHashes {
		_ = s.redis.Del(ctx, sessionKeyPrefix+hash)
	}

	_, err = s.db.Exec(ctx, "DELETE FROM sessions WHERE user_id = $1", userID)
	if err != nil {
		return fmt.Errorf("deleting user sessions: %w", err)
	}

	return nil
}

// GenerateResetCode returns a zero-padded six digit code.
func GenerateResetCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", fmt.Errorf("generating reset code: %w", err)
	}
	return fmt.Sprintf("%0*d", resetCodeDigits, n.Int64()), nil
}

// CreatePasswordResetCode replaces any outstanding code for email with a new
// one and returns it in clear text. Unknown emails return ErrUserNotFound.
func (s *AuthService) CreatePasswordResetCode(ctx context.Context, email string) (*models.User, string, error) {
	user, err := NewUserService(s.db).GetByEmail(ctx, email)
	if err != nil {
		return nil, "", err
	}

	code, err := GenerateResetCode()
	if err != nil {
		return nil, "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcryptCost)
	if err != nil {
		return nil, "", fmt.Errorf("hashing reset code: %w", err)
	}

	err = withTx(ctx, s.db, func(tx Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM password_reset_codes WHERE email = $1`, user.Email); err != nil {
			return fmt.Errorf("clearing reset codes: %w", err)
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO password_reset_codes (email, code_hash, expires_at) VALUES ($1, $2, $3)`,
			user.Email, string(hash), time.Now().Add(ResetCodeExpiry),
		); err != nil {
			return fmt.Errorf("storing reset code: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, "", err
	}

	return user, code, nil
}

// ResetPassword checks code for email, sets the new password and revokes all
// sessions of the account.
func (s *AuthService) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if len(code) != resetCodeDigits {
		return ErrInvalidResetCode
	}

	var userID uuid.UUID
	err := withTx(ctx, s.db, func(tx Tx) error {
		var (
			id        uuid.UUID
			codeHash  string
			expiresAt time.Time
		)
		err := tx.QueryRow(ctx,
			`SELECT id, code_hash, expires_at FROM password_reset_codes
			 WHERE email = $1 AND used_at IS NULL
			 ORDER BY created_at DESC LIMIT 1
			 FOR UPDATE`,
			email,
		).Scan(&id, &codeHash, &expiresAt)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrInvalidResetCode
		}
		if err != nil {
			return fmt.Errorf("loading reset code: %w", err)
		}
		if bcrypt.CompareHashAndPassword([]byte(codeHash), []byte(code)) != nil {
			return ErrInvalidResetCode
		}
		if time.Now().After(expiresAt) {
			return ErrResetCodeExpired
		}

		hash, err := s.HashPassword(newPassword)
		if err != nil {
			return err
		}
		if err := tx.QueryRow(ctx,
			`UPDATE users SET password_hash = $1, updated_at = NOW() WHERE email = $2 RETURNING id`,
			hash, email,
		).Scan(&userID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrUserNotFound
			}
			return fmt.Errorf("updating password: %w", err)
		}
		if _, err := tx.Exec(ctx, `UPDATE password_reset_codes SET used_at = NOW() WHERE id = $1`, id); err != nil {
			return fmt.Errorf("marking reset code used: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if err := s.DeleteAllUserSessions(ctx, userID); err != nil {
		logging.Error("Failed to revoke sessions after password reset", logging.Fields{
			"error":   err.Error(),
			"user_id": userID.String(),
		})
	}
	return nil
}
