package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/yovohub/hub/internal/models"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailAlreadyExists = errors.New("email already exists")
)

const userColumns = `id, name, email, password_hash, role, photo, bio, location, phone, whatsapp, skills, created_at, updated_at`

type UserService struct {
	db DB
}

func NewUserService(db DB) *UserService {
	return &UserService{db: db}
}

func scanUser(row Row) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.Role, &user.Photo,
		&user.Bio, &user.Location, &user.Phone, &user.WhatsApp, &user.Skills, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if user.Skills == nil {
		user.Skills = []string{}
	}
	return user, nil
}

func (s *UserService) Create(ctx context.Context, params models.CreateUserParams) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(params.Email))

	var exists bool
	err := s.db.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)", email).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("checking email existence: %w", err)
	}
	if exists {
		return nil, ErrEmailAlreadyExists
	}

	bio := params.Bio
	if bio == "" {
		bio = models.DefaultBio(params.Role)
	}
	location := params.Location
	if location == "" {
		location = models.DefaultLocation
	}

	user, err := scanUser(s.db.QueryRow(ctx,
		`INSERT INTO users (name, email, password_hash, role, bio, location, phone, whatsapp, skills)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING `+userColumns,
		params.Name, email, params.PasswordHash, params.Role, bio, location, params.Phone, params.WhatsApp, nonNilStrings(params.Skills),
	))
	if err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}

	return user, nil
}

func (s *UserService) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := scanUser(s.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting user by id: %w", err)
	}
	return user, nil
}

func (s *UserService) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	user, err := scanUser(s.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`,
		strings.ToLower(strings.TrimSpace(email)),
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting user by email: %w", err)
	}
	return user, nil
}

// UpdateProfile applies the non-nil fields of params.
func (s *UserService) UpdateProfile(ctx context.Context, userID uuid.UUID, params models.UpdateProfileParams) (*models.User, error) {
	var skills any
	if params.Skills != nil {
		skills = params.Skills
	}

	user, err := scanUser(s.db.QueryRow(ctx,
		`UPDATE users SET
			name = COALESCE($2, name),
			bio = COALESCE($3, bio),
			location = COALESCE($4, location),
			phone = COALESCE($5, phone),
			whatsapp = COALESCE($6, whatsapp),
			skills = COALESCE($7, skills),
			updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+userColumns,
		userID, params.Name, params.Bio, params.Location, params.Phone, params.WhatsApp, skills,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("updating profile: %w", err)
	}
	return user, nil
}

// UpdatePhoto stores the new photo key and returns the key it replaced, if any.
func (s *UserService) UpdatePhoto(ctx context.Context, userID uuid.UUID, key string) (previous *string, err error) {
	err = s.db.QueryRow(ctx,
		`UPDATE users u SET photo = $2, updated_at = NOW()
		 FROM (SELECT photo FROM users WHERE id = $1 FOR UPDATE) old
		 WHERE u.id = $1
		 RETURNING old.photo`,
		userID, key,
	).Scan(&previous)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("updating photo: %w", err)
	}
	return previous, nil
}

func (s *UserService) UpdatePassword(ctx context.Context, userID uuid.UUID, newPasswordHash string) error {
	result, err := s.db.Exec(ctx,
		`UPDATE users SET password_hash = $1, updated_at = NOW() WHERE id = $2`,
		newPasswordHash, userID,
	)
	if err != nil {
		return fmt.Errorf("updating password: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrUserNotFound
	}

	return nil
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
