package handlers

import (
	"context"

	"github.com/google/uuid"

	"github.com/yovohub/hub/internal/models"
	"github.com/yovohub/hub/internal/services"
)

type mockUserService struct {
	CreateFunc         func(ctx context.Context, params models.CreateUserParams) (*models.User, error)
	GetByIDFunc        func(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmailFunc     func(ctx context.Context, email string) (*models.User, error)
	UpdateProfileFunc  func(ctx context.Context, userID uuid.UUID, params models.UpdateProfileParams) (*models.User, error)
	UpdatePhotoFunc    func(ctx context.Context, userID uuid.UUID, key string) (*string, error)
	UpdatePasswordFunc func(ctx context.Context, userID uuid.UUID, newPasswordHash string) error
}

func (m *mockUserService) Create(ctx context.Context, params models.CreateUserParams) (*models.User, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, params)
	}
	return &models.User{ID: uuid.New(), Name: params.Name, Email: params.Email, Role: params.Role}, nil
}

func (m *mockUserService) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, services.ErrUserNotFound
}

func (m *mockUserService) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.GetByEmailFunc != nil {
		return m.GetByEmailFunc(ctx, email)
	}
	return nil, services.ErrUserNotFound
}

func (m *mockUserService) UpdateProfile(ctx context.Context, userID uuid.UUID, params models.UpdateProfileParams) (*models.User, error) {
	if m.UpdateProfileFunc != nil {
		return m.UpdateProfileFunc(ctx, userID, params)
	}
	return &models.User{ID: userID}, nil
}

func (m *mockUserService) UpdatePhoto(ctx context.Context, userID uuid.UUID, key string) (*string, error) {
	if m.UpdatePhotoFunc != nil {
		return m.UpdatePhotoFunc(ctx, userID, key)
	}
	return nil, nil
}

func (m *mockUserService) UpdatePassword(ctx context.Context, userID uuid.UUID, newPasswordHash string) error {
	if m.UpdatePasswordFunc != nil {
		return m.UpdatePasswordFunc(ctx, userID, newPasswordHash)
	}
	return nil
}

type mockAuthService struct {
	HashPasswordFunc            func(password string) (string, error)
	VerifyPasswordFunc          func(hash, password string) bool
	AuthenticateFunc            func(ctx context.Context, email, password string, role models.Role) (*models.User, error)
	CreateSessionFunc           func(ctx context.Context, userID uuid.UUID) (string, error)
	ValidateSessionFunc         func(ctx context.Context, token string) (*models.User, error)
	DeleteSessionFunc           func(ctx context.Context, token string) error
	DeleteAllUserSessionsFunc   func(ctx context.Context, userID uuid.UUID) error
	CreatePasswordResetCodeFunc func(ctx context.Context, email string) (*models.User, string, error)
	ResetPasswordFunc           func(ctx context.Context, email, code, newPassword string) error
}

func (m *mockAuthService) HashPassword(password string) (string, error) {
	if m.HashPasswordFunc != nil {
		return m.HashPasswordFunc(password)
	}
	return "hashed_" + password, nil
}

func (m *mockAuthService) VerifyPassword(hash, password string) bool {
	if m.VerifyPasswordFunc != nil {
		return m.VerifyPasswordFunc(hash, password)
	}
	return hash == "hashed_"+password
}

func (m *mockAuthService) Authenticate(ctx context.Context, email, password string, role models.Role) (*models.User, error) {
	if m.AuthenticateFunc != nil {
		return m.AuthenticateFunc(ctx, email, password, role)
	}
	return nil, services.ErrInvalidCredentials
}

func (m *mockAuthService) CreateSession(ctx context.Context, userID uuid.UUID) (string, error) {
	if m.CreateSessionFunc != nil {
		return m.CreateSessionFunc(ctx, userID)
	}
	return "session-token", nil
}

func (m *mockAuthService) ValidateSession(ctx context.Context, token string) (*models.User, error) {
	if m.ValidateSessionFunc != nil {
		return m.ValidateSessionFunc(ctx, token)
	}
	return nil, services.ErrUserNotFound
}

func (m *mockAuthService) DeleteSession(ctx context.Context, token string) error {
	if m.DeleteSessionFunc != nil {
		return m.DeleteSessionFunc(ctx, token)
	}
	return nil
}

func (m *mockAuthService) DeleteAllUserSessions(ctx context.Context, userID uuid.UUID) error {
	if m.DeleteAllUserSessionsFunc != nil {
		return m.DeleteAllUserSessionsFunc(ctx, userID)
	}
	return nil
}

func (m *mockAuthService) CreatePasswordResetCode(ctx context.Context, email string) (*models.User, string, error) {
	if m.CreatePasswordResetCodeFunc != nil {
		return m.CreatePasswordResetCodeFunc(ctx, email)
	}
	return nil, "", services.ErrUserNotFound
}

func (m *mockAuthService) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	if m.ResetPasswordFunc != nil {
		return m.ResetPasswordFunc(ctx, email, code, newPassword)
	}
	return nil
}

type mockEmailService struct {
	SendPasswordResetCodeFunc func(ctx context.Context, to, name, code string) error
}

func (m *mockEmailService) SendPasswordResetCode(ctx context.Context, to, name, code string) error {
	if m.SendPasswordResetCodeFunc != nil {
		return m.SendPasswordResetCodeFunc(ctx, to, name, code)
	}
	return nil
}

type mockMissionService struct {
	ListFunc     func(ctx context.Context, filter models.MissionFilter) (models.Page[models.Mission], error)
	CreateFunc   func(ctx context.Context, params models.CreateMissionParams) (*models.Mission, error)
	GetFunc      func(ctx context.Context, id uuid.UUID) (*models.Mission, error)
	ApplyFunc    func(ctx context.Context, userID, missionID uuid.UUID, message *string) (*models.Application, error)
	ListMineFunc func(ctx context.Context, user *models.User) ([]models.Mission, error)
}

func (m *mockMissionService) List(ctx context.Context, filter models.MissionFilter) (models.Page[models.Mission], error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, filter)
	}
	return models.Page[models.Mission]{Data: []models.Mission{}}, nil
}

func (m *mockMissionService) Create(ctx context.Context, params models.CreateMissionParams) (*models.Mission, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, params)
	}
	return &models.Mission{ID: uuid.New(), Title: params.Title}, nil
}

func (m *mockMissionService) Get(ctx context.Context, id uuid.UUID) (*models.Mission, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, id)
	}
	return nil, services.ErrMissionNotFound
}

func (m *mockMissionService) Apply(ctx context.Context, userID, missionID uuid.UUID, message *string) (*models.Application, error) {
	if m.ApplyFunc != nil {
		return m.ApplyFunc(ctx, userID, missionID, message)
	}
	return &models.Application{ID: uuid.New(), UserID: userID, MissionID: missionID, Message: message}, nil
}

func (m *mockMissionService) ListMine(ctx context.Context, user *models.User) ([]models.Mission, error) {
	if m.ListMineFunc != nil {
		return m.ListMineFunc(ctx, user)
	}
	return []models.Mission{}, nil
}

type mockSuggestionService struct {
	GenerateFunc   func(ctx context.Context, user *models.User, count int) ([]models.Suggestion, error)
	ListByUserFunc func(ctx context.Context, userID uuid.UUID) ([]models.Suggestion, error)
	AcceptFunc     func(ctx context.Context, userID, id uuid.UUID) (*models.Mission, *models.Suggestion, error)
	RejectFunc     func(ctx context.Context, userID, id uuid.UUID) (*models.Suggestion, error)
}

func (m *mockSuggestionService) Generate(ctx context.Context, user *models.User, count int) ([]models.Suggestion, error) {
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, user, count)
	}
	return []models.Suggestion{}, nil
}

func (m *mockSuggestionService) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Suggestion, error) {
	if m.ListByUserFunc != nil {
		return m.ListByUserFunc(ctx, userID)
	}
	return []models.Suggestion{}, nil
}

func (m *mockSuggestionService) Accept(ctx context.Context, userID, id uuid.UUID) (*models.Mission, *models.Suggestion, error) {
	if m.AcceptFunc != nil {
		return m.AcceptFunc(ctx, userID, id)
	}
	return nil, nil, services.ErrSuggestionNotFound
}

func (m *mockSuggestionService) Reject(ctx context.Context, userID, id uuid.UUID) (*models.Suggestion, error) {
	if m.RejectFunc != nil {
		return m.RejectFunc(ctx, userID, id)
	}
	return nil, services.ErrSuggestionNotFound
}

type mockMiniProjectService struct {
	ListFunc                    func(ctx context.Context, userID uuid.UUID, status string) ([]models.MiniProject, error)
	CreateFunc                  func(ctx context.Context, params models.CreateMiniProjectParams) (*models.MiniProject, error)
	GetFunc                     func(ctx context.Context, userID, id uuid.UUID) (*models.MiniProject, error)
	DeleteFunc                  func(ctx context.Context, userID, id uuid.UUID) error
	GenerateFromSuggestionsFunc func(ctx context.Context, user *models.User, count int) ([]models.MiniProject, error)
	AcceptFunc                  func(ctx context.Context, userID, id uuid.UUID) (*models.MiniProject, error)
	SubmitFunc                  func(ctx context.Context, userID, id uuid.UUID, description string, uploads []services.SubmissionUpload) (*models.MiniProject, error)
	ReviewFunc                  func(ctx context.Context, reviewerID, id uuid.UUID, params models.ReviewMiniProjectParams) (*models.MiniProject, []models.Badge, error)
}

func (m *mockMiniProjectService) List(ctx context.Context, userID uuid.UUID, status string) ([]models.MiniProject, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, userID, status)
	}
	return []models.MiniProject{}, nil
}

func (m *mockMiniProjectService) Create(ctx context.Context, params models.CreateMiniProjectParams) (*models.MiniProject, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, params)
	}
	return &models.MiniProject{ID: uuid.New(), UserID: params.UserID, Title: params.Title}, nil
}

func (m *mockMiniProjectService) Get(ctx context.Context, userID, id uuid.UUID) (*models.MiniProject, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, userID, id)
	}
	return nil, services.ErrMiniProjectNotFound
}

func (m *mockMiniProjectService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, userID, id)
	}
	return nil
}

func (m *mockMiniProjectService) GenerateFromSuggestions(ctx context.Context, user *models.User, count int) ([]models.MiniProject, error) {
	if m.GenerateFromSuggestionsFunc != nil {
		return m.GenerateFromSuggestionsFunc(ctx, user, count)
	}
	return []models.MiniProject{}, nil
}

func (m *mockMiniProjectService) Accept(ctx context.Context, userID, id uuid.UUID) (*models.MiniProject, error) {
	if m.AcceptFunc != nil {
		return m.AcceptFunc(ctx, userID, id)
	}
	return nil, services.ErrMiniProjectNotFound
}

func (m *mockMiniProjectService) Submit(ctx context.Context, userID, id uuid.UUID, description string, uploads []services.SubmissionUpload) (*models.MiniProject, error) {
	if m.SubmitFunc != nil {
		return m.SubmitFunc(ctx, userID, id, description, uploads)
	}
	return nil, services.ErrMiniProjectNotFound
}

func (m *mockMiniProjectService) Review(ctx context.Context, reviewerID, id uuid.UUID, params models.ReviewMiniProjectParams) (*models.MiniProject, []models.Badge, error) {
	if m.ReviewFunc != nil {
		return m.ReviewFunc(ctx, reviewerID, id, params)
	}
	return nil, nil, services.ErrMiniProjectNotFound
}

type mockBadgeService struct {
	ListByUserFunc       func(ctx context.Context, userID uuid.UUID) ([]models.Badge, error)
	RecordQuizResultFunc func(ctx context.Context, userID uuid.UUID, category string, score, total int) (*models.QuizResult, []models.Badge, error)
}

func (m *mockBadgeService) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Badge, error) {
	if m.ListByUserFunc != nil {
		return m.ListByUserFunc(ctx, userID)
	}
	return []models.Badge{}, nil
}

func (m *mockBadgeService) RecordQuizResult(ctx context.Context, userID uuid.UUID, category string, score, total int) (*models.QuizResult, []models.Badge, error) {
	if m.RecordQuizResultFunc != nil {
		return m.RecordQuizResultFunc(ctx, userID, category, score, total)
	}
	return &models.QuizResult{ID: uuid.New(), UserID: userID, Category: category, Score: score, Total: total}, []models.Badge{}, nil
}

var (
	_ services.UserServiceInterface        = (*mockUserService)(nil)
	_ services.AuthServiceInterface        = (*mockAuthService)(nil)
	_ services.EmailServiceInterface       = (*mockEmailService)(nil)
	_ services.MissionServiceInterface     = (*mockMissionService)(nil)
	_ services.SuggestionServiceInterface  = (*mockSuggestionService)(nil)
	_ services.MiniProjectServiceInterface = (*mockMiniProjectService)(nil)
	_ services.BadgeServiceInterface       = (*mockBadgeService)(nil)
)
