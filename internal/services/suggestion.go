package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/yovohub/hub/internal/logging"
	"github.com/yovohub/hub/internal/models"
	"github.com/yovohub/hub/internal/services/ai"
)

var (
	ErrSuggestionNotFound         = errors.New("suggestion not found")               // 404
	ErrSuggestionNotOwned         = errors.New("suggestion belongs to another user") // 403
	ErrSuggestionAlreadyProcessed = errors.New("suggestion already processed")       // 400
)

const suggestionColumns = `id, user_id, title, description, category, duration, is_paid, amount, skills, location, difficulty_level, ai_generated, status, generated_at, created_at, updated_at`

// SuggestionGenerator produces drafts for a user profile.
type SuggestionGenerator interface {
	Generate(ctx context.Context, userID uuid.UUID, profile ai.Profile, count int) (ai.Result, error)
}

type SuggestionService struct {
	db        DB
	generator SuggestionGenerator
	now       func() time.Time
}

func NewSuggestionService(db DB, generator SuggestionGenerator) *SuggestionService {
	return &SuggestionService{db: db, generator: generator, now: time.Now}
}

func scanSuggestion(row Row) (*models.Suggestion, error) {
	s := &models.Suggestion{}
	err := row.Scan(&s.ID, &s.UserID, &s.Title, &s.Description, &s.Category, &s.Duration, &s.IsPaid, &s.Amount,
		&s.Skills, &s.Location, &s.DifficultyLevel, &s.AIGenerated, &s.Status, &s.GeneratedAt, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if s.Skills == nil {
		s.Skills = []string{}
	}
	return s, nil
}

// Generate asks the generator for count drafts and stores them for user.
// Completion and parse failures have already been absorbed by the generator's
// fallback, so errors here are invalid input or persistence failures.
func (s *SuggestionService) Generate(ctx context.Context, user *models.User, count int) ([]models.Suggestion, error) {
	result, err := s.generator.Generate(ctx, user.ID, ai.ProfileFromUser(user), count)
	if err != nil {
		return nil, err
	}
	return s.Persist(ctx, user.ID, result.Drafts)
}

// Persist stores drafts for userID in a single transaction with status
// suggested and a shared generation timestamp.
func (s *SuggestionService) Persist(ctx context.Context, userID uuid.UUID, drafts []models.SuggestionDraft) ([]models.Suggestion, error) {
	generatedAt := s.now()
	stored := make([]models.Suggestion, 0, len(drafts))

	err := withTx(ctx, s.db, func(tx Tx) error {
		for _, d := range drafts {
			sug, err := scanSuggestion(tx.QueryRow(ctx,
				`INSERT INTO ai_suggestions (user_id, title, description, category, duration, is_paid, amount, skills, location, difficulty_level, ai_generated, status, generated_at)
				 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
				 RETURNING `+suggestionColumns,
				userID, d.Title, d.Description, d.Category, d.Duration, d.IsPaid, d.Amount, nonNilStrings(d.Skills),
				d.Location, d.DifficultyLevel, d.AIGenerated, models.SuggestionSuggested, generatedAt,
			))
			if err != nil {
				return fmt.Errorf("inserting suggestion: %w", err)
			}
			stored = append(stored, *sug)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stored, nil
}

// ListByUser returns the user's suggestions, newest generation first.
func (s *SuggestionService) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Suggestion, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+suggestionColumns+` FROM ai_suggestions
		 WHERE user_id = $1
		 ORDER BY generated_at DESC, created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing suggestions: %w", err)
	}
	defer rows.Close()

	suggestions := []models.Suggestion{}
	for rows.Next() {
		sug, err := scanSuggestion(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning suggestion: %w", err)
		}
		suggestions = append(suggestions, *sug)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating suggestions: %w", err)
	}
	return suggestions, nil
}

// lockOwned loads a suggestion for update and checks ownership and status.
func lockOwned(ctx context.Context, tx Tx, userID, id uuid.UUID) (*models.Suggestion, error) {
	sug, err := scanSuggestion(tx.QueryRow(ctx,
		`SELECT `+suggestionColumns+` FROM ai_suggestions WHERE id = $1 FOR UPDATE`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrSuggestionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading suggestion: %w", err)
	}
	if sug.UserID != userID {
		return nil, ErrSuggestionNotOwned
	}
	if sug.Status != models.SuggestionSuggested {
		return nil, ErrSuggestionAlreadyProcessed
	}
	return sug, nil
}

// transition moves a suggestion from one status to the next. The WHERE clause
// makes a lost race surface as ErrSuggestionAlreadyProcessed.
func transition(ctx context.Context, q Querier, id uuid.UUID, from, to models.SuggestionStatus) error {
	if !from.CanTransitionTo(to) {
		return fmt.Errorf("invalid suggestion transition %s -> %s", from, to)
	}
	tag, err := q.Exec(ctx,
		`UPDATE ai_suggestions SET status = $3, updated_at = NOW() WHERE id = $1 AND status = $2`,
		id, from, to,
	)
	if err != nil {
		return fmt.Errorf("updating suggestion status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrSuggestionAlreadyProcessed
	}
	return nil
}

// Accept converts a suggested record into a mission owned by the same user.
// The whole conversion is one transaction: either the mission exists and the
// suggestion is converted, or nothing changed.
func (s *SuggestionService) Accept(ctx context.Context, userID, id uuid.UUID) (*models.Mission, *models.Suggestion, error) {
	var (
		mission *models.Mission
		sug     *models.Suggestion
	)
	err := withTx(ctx, s.db, func(tx Tx) error {
		var err error
		sug, err = lockOwned(ctx, tx, userID, id)
		if err != nil {
			return err
		}
		if err := transition(ctx, tx, id, models.SuggestionSuggested, models.SuggestionAccepted); err != nil {
			return err
		}

		mission, err = insertMission(ctx, tx, models.CreateMissionParams{
			UserID:       sug.UserID,
			Title:        sug.Title,
			Description:  sug.Description,
			Category:     sug.Category,
			Duration:     sug.Duration,
			IsPaid:       sug.IsPaid,
			Amount:       sug.Amount,
			Skills:       sug.Skills,
			Location:     sug.Location,
			Organization: models.AssistantOrganization,
			Deadline:     s.now().Add(models.ConvertedMissionDeadline),
		})
		if err != nil {
			return err
		}

		return transition(ctx, tx, id, models.SuggestionAccepted, models.SuggestionConverted)
	})
	if err != nil {
		return nil, nil, err
	}

	sug.Status = models.SuggestionConverted
	logging.Info("Suggestion converted to mission", logging.Fields{
		"user_id":       userID.String(),
		"suggestion_id": id.String(),
		"mission_id":    mission.ID.String(),
	})
	return mission, sug, nil
}

// Reject marks a suggested record as rejected.
func (s *SuggestionService) Reject(ctx context.Context, userID, id uuid.UUID) (*models.Suggestion, error) {
	var sug *models.Suggestion
	err := withTx(ctx, s.db, func(tx Tx) error {
		var err error
		sug, err = lockOwned(ctx, tx, userID, id)
		if err != nil {
			return err
		}
		return transition(ctx, tx, id, models.SuggestionSuggested, models.SuggestionRejected)
	})
	if err != nil {
		return nil, err
	}
	sug.Status = models.SuggestionRejected
	return sug, nil
}

// AIUsageLog writes one ai_generation_logs row per generation attempt.
type AIUsageLog struct {
	db DB
}

func NewAIUsageLog(db DB) *AIUsageLog {
	return &AIUsageLog{db: db}
}

func (l *AIUsageLog) RecordUsage(ctx context.Context, userID uuid.UUID, stats ai.UsageStats, status string) error {
	_, err := l.db.Exec(ctx, `
        INSERT INTO ai_generation_logs (user_id, model, tokens_input, tokens_output, duration_ms, status)
        VALUES ($1, $2, $3, $4, $5, $6)
    `, userID, stats.Model, stats.TokensInput, stats.TokensOutput, stats.Duration.Milliseconds(), status)
	if err != nil {
		return fmt.Errorf("logging AI usage: %w", err)
	}
	return nil
}
