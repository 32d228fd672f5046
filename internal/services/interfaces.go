package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/yovohub/hub/internal/models"
)

// UserServiceInterface defines the contract for user operations.
type UserServiceInterface interface {
	Create(ctx context.Context, params models.CreateUserParams) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, params models.UpdateProfileParams) (*models.User, error)
	UpdatePhoto(ctx context.Context, userID uuid.UUID, key string) (*string, error)
	UpdatePassword(ctx context.Context, userID uuid.UUID, newPasswordHash string) error
}

// AuthServiceInterface defines the contract for authentication operations.
type AuthServiceInterface interface {
	HashPassword(password string) (string, error)
	VerifyPassword(hash, password string) bool
	Authenticate(ctx context.Context, email, password string, role models.Role) (*models.User, error)
	CreateSession(ctx context.Context, userID uuid.UUID) (token string, err error)
	ValidateSession(ctx context.Context, token string) (*models.User, error)
	DeleteSession(ctx context.Context, token string) error
	DeleteAllUserSessions(ctx context.Context, userID uuid.UUID) error
	CreatePasswordResetCode(ctx context.Context, email string) (*models.User, string, error)
	ResetPassword(ctx context.Context, email, code, newPassword string) error
}

// EmailServiceInterface defines the contract for transactional email.
type EmailServiceInterface interface {
	SendPasswordResetCode(ctx context.Context, to, name, code string) error
}

// MissionServiceInterface defines the contract for mission operations.
type MissionServiceInterface interface {
	List(ctx context.Context, filter models.MissionFilter) (models.Page[models.Mission], error)
	Create(ctx context.Context, params models.CreateMissionParams) (*models.Mission, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Mission, error)
	Apply(ctx context.Context, userID, missionID uuid.UUID, message *string) (*models.Application, error)
	ListMine(ctx context.Context, user *models.User) ([]models.Mission, error)
}

// SuggestionServiceInterface defines the contract for AI suggestion operations.
type SuggestionServiceInterface interface {
	Generate(ctx context.Context, user *models.User, count int) ([]models.Suggestion, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Suggestion, error)
	Accept(ctx context.Context, userID, id uuid.UUID) (*models.Mission, *models.Suggestion, error)
	Reject(ctx context.Context, userID, id uuid.UUID) (*models.Suggestion, error)
}

// MiniProjectServiceInterface defines the contract for mini-project operations.
type MiniProjectServiceInterface interface {
	List(ctx context.Context, userID uuid.UUID, status string) ([]models.MiniProject, error)
	Create(ctx context.Context, params models.CreateMiniProjectParams) (*models.MiniProject, error)
	Get(ctx context.Context, userID, id uuid.UUID) (*models.MiniProject, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
	GenerateFromSuggestions(ctx context.Context, user *models.User, count int) ([]models.MiniProject, error)
	Accept(ctx context.Context, userID, id uuid.UUID) (*models.MiniProject, error)
	Submit(ctx context.Context, userID, id uuid.UUID, description string, uploads []SubmissionUpload) (*models.MiniProject, error)
	Review(ctx context.Context, reviewerID, id uuid.UUID, params models.ReviewMiniProjectParams) (*models.MiniProject, []models.Badge, error)
}

// BadgeServiceInterface defines the contract for badge and quiz operations.
type BadgeServiceInterface interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Badge, error)
	RecordQuizResult(ctx context.Context, userID uuid.UUID, category string, score, total int) (*models.QuizResult, []models.Badge, error)
}

// Ensure concrete services implement interfaces.
var (
	_ UserServiceInterface        = (*UserService)(nil)
	_ AuthServiceInterface        = (*AuthService)(nil)
	_ EmailServiceInterface       = (*EmailService)(nil)
	_ MissionServiceInterface     = (*MissionService)(nil)
	_ SuggestionServiceInterface  = (*SuggestionService)(nil)
	_ MiniProjectServiceInterface = (*MiniProjectService)(nil)
	_ BadgeServiceInterface       = (*BadgeService)(nil)
	_ SuggestionCreator           = (*SuggestionService)(nil)
	_ ProjectBadgeAwarder         = (*BadgeService)(nil)
)
