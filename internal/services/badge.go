package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/yovohub/hub/internal/logging"
	"github.com/yovohub/hub/internal/models"
)

const badgeColumns = `id, user_id, code, name, category, level, icon, color, date_earned`

type BadgeService struct {
	db DB
}

func NewBadgeService(db DB) *BadgeService {
	return &BadgeService{db: db}
}

func scanBadge(row Row) (*models.Badge, error) {
	b := &models.Badge{}
	if err := row.Scan(&b.ID, &b.UserID, &b.Code, &b.Name, &b.Category, &b.Level, &b.Icon, &b.Color, &b.DateEarned); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *BadgeService) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Badge, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+badgeColumns+` FROM badges WHERE user_id = $1 ORDER BY date_earned DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("listing badges: %w", err)
	}
	defer rows.Close()

	badges := []models.Badge{}
	for rows.Next() {
		b, err := scanBadge(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning badge: %w", err)
		}
		badges = append(badges, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating badges: %w", err)
	}
	return badges, nil
}

// award inserts def for userID. It returns nil when the user already has it.
func award(ctx context.Context, q Querier, userID uuid.UUID, def models.BadgeDefinition) (*models.Badge, error) {
	b, err := scanBadge(q.QueryRow(ctx,
		`INSERT INTO badges (user_id, code, name, category, level, icon, color)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (user_id, code) DO NOTHING
		 RETURNING `+badgeColumns,
		userID, def.Code, def.Name, def.Category, def.Level, def.Icon, def.Color,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("awarding badge %s: %w", def.Code, err)
	}
	return b, nil
}

// awardEarned awards every catalog badge in category whose threshold count reaches.
// Badges with no threshold are awarded when extra is true.
func awardEarned(ctx context.Context, q Querier, userID uuid.UUID, category models.BadgeCategory, count int, extra bool) ([]models.Badge, error) {
	awarded := []models.Badge{}
	for _, def := range models.BadgeCatalog {
		if def.Category != category {
			continue
		}
		earned := (def.Threshold > 0 && count >= def.Threshold) || (def.Threshold == 0 && extra)
		if !earned {
			continue
		}
		b, err := award(ctx, q, userID, def)
		if err != nil {
			return nil, err
		}
		if b != nil {
			awarded = append(awarded, *b)
		}
	}
	return awarded, nil
}

// RecordQuizResult stores a quiz attempt and returns any quiz badges it newly earned.
func (s *BadgeService) RecordQuizResult(ctx context.Context, userID uuid.UUID, category string, score, total int) (*models.QuizResult, []models.Badge, error) {
	if err := requireText("category", category, 100); err != nil {
		return nil, nil, err
	}
	if total <= 0 {
		return nil, nil, invalid("total", "must be positive")
	}
	if score < 0 || score > total {
		return nil, nil, invalid("score", "must be between 0 and %d", total)
	}

	var (
		result  models.QuizResult
		awarded []models.Badge
	)
	err := withTx(ctx, s.db, func(tx Tx) error {
		err := tx.QueryRow(ctx,
			`INSERT INTO quiz_results (user_id, category, score, total, passed)
			 VALUES ($1, $2, $3, $4, $5)
			 RETURNING id, user_id, category, score, total, passed, created_at`,
			userID, category, score, total, models.QuizPassed(score, total),
		).Scan(&result.ID, &result.UserID, &result.Category, &result.Score, &result.Total, &result.Passed, &result.CreatedAt)
		if err != nil {
			return fmt.Errorf("recording quiz result: %w", err)
		}

		var passed int
		if err := tx.QueryRow(ctx,
			`SELECT COUNT(*) FROM quiz_results WHERE user_id = $1 AND passed`, userID,
		).Scan(&passed); err != nil {
			return fmt.Errorf("counting passed quizzes: %w", err)
		}

		awarded, err = awardEarned(ctx, tx, userID, models.BadgeCategoryQuiz, passed, score == total)
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	for _, b := range awarded {
		logging.Info("Badge awarded", logging.Fields{"user_id": userID.String(), "badge": b.Code})
	}
	return &result, awarded, nil
}

// EvaluateProjectBadges awards project badges for the user's completed mini-projects.
func (s *BadgeService) EvaluateProjectBadges(ctx context.Context, userID uuid.UUID) ([]models.Badge, error) {
	var completed int
	if err := s.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM mini_projects WHERE user_id = $1 AND status = $2`,
		userID, models.MiniProjectCompleted,
	).Scan(&completed); err != nil {
		return nil, fmt.Errorf("counting completed mini-projects: %w", err)
	}

	awarded, err := awardEarned(ctx, s.db, userID, models.BadgeCategoryProject, completed, false)
	if err != nil {
		return nil, err
	}
	for _, b := range awarded {
		logging.Info("Badge awarded", logging.Fields{"user_id": userID.String(), "badge": b.Code})
	}
	return awarded, nil
}
