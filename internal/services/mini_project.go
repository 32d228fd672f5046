package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/yovohub/hub/internal/logging"
	"github.com/yovohub/hub/internal/models"
	"github.com/yovohub/hub/internal/storage"
)

const MaxSubmissionFileSize = 10 << 20

var allowedSubmissionExtensions = map[string]bool{
	".pdf": true, ".doc": true, ".docx": true,
	".jpg": true, ".jpeg": true, ".png": true,
	".zip": true,
}

var (
	ErrMiniProjectNotFound = errors.New("mini-project not found")
	ErrSelfReview          = errors.New("cannot review your own mini-project")
)

const miniProjectColumns = `id, user_id, title, description, category, duration, is_paid, amount, skills, location, difficulty_level, status,
	submission_description, submission_files, review_feedback, review_score, submitted_at, reviewed_at, created_at, updated_at`

// SuggestionCreator generates and stores suggestions for a user.
type SuggestionCreator interface {
	Generate(ctx context.Context, user *models.User, count int) ([]models.Suggestion, error)
}

// ProjectBadgeAwarder awards badges earned by completed mini-projects.
type ProjectBadgeAwarder interface {
	EvaluateProjectBadges(ctx context.Context, userID uuid.UUID) ([]models.Badge, error)
}

// SubmissionUpload is one file attached to a submission.
type SubmissionUpload struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
}

// ValidateSubmissionFile checks a file's extension and size.
func ValidateSubmissionFile(name string, size int64) error {
	ext := strings.ToLower(path.Ext(name))
	if !allowedSubmissionExtensions[ext] {
		return invalid("submission_files", "%s: type must be one of pdf, doc, docx, jpg, jpeg, png, zip", name)
	}
	if size > MaxSubmissionFileSize {
		return invalid("submission_files", "%s: must be at most 10 MB", name)
	}
	return nil
}

type MiniProjectService struct {
	db          DB
	store       storage.Store
	suggestions SuggestionCreator
	badges      ProjectBadgeAwarder
	now         func() time.Time
}

func NewMiniProjectService(db DB, store storage.Store, suggestions SuggestionCreator, badges ProjectBadgeAwarder) *MiniProjectService {
	return &MiniProjectService{db: db, store: store, suggestions: suggestions, badges: badges, now: time.Now}
}

func scanMiniProject(row Row) (*models.MiniProject, error) {
	p := &models.MiniProject{}
	err := row.Scan(&p.ID, &p.UserID, &p.Title, &p.Description, &p.Category, &p.Duration, &p.IsPaid, &p.Amount,
		&p.Skills, &p.Location, &p.DifficultyLevel, &p.Status, &p.SubmissionDescription, &p.SubmissionFiles,
		&p.ReviewFeedback, &p.ReviewScore, &p.SubmittedAt, &p.ReviewedAt, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if p.Skills == nil {
		p.Skills = []string{}
	}
	if p.SubmissionFiles == nil {
		p.SubmissionFiles = []models.SubmissionFile{}
	}
	return p, nil
}

// scanOwnedMiniProject scans row, mapping a missing row to ErrMiniProjectNotFound.
func scanOwnedMiniProject(row Row, action string) (*models.MiniProject, error) {
	p, err := scanMiniProject(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrMiniProjectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%s mini-project: %w", action, err)
	}
	return p, nil
}

// List returns the user's mini-projects in a status. An empty status means
// active; "all" disables the filter.
func (s *MiniProjectService) List(ctx context.Context, userID uuid.UUID, status string) ([]models.MiniProject, error) {
	query := `SELECT ` + miniProjectColumns + ` FROM mini_projects WHERE user_id = $1`
	args := []any{userID}

	switch status {
	case "all":
	case "":
		query += ` AND status = $2`
		args = append(args, models.MiniProjectActive)
	default:
		st := models.MiniProjectStatus(status)
		if !st.Valid() {
			return nil, invalid("status", "unknown status %q", status)
		}
		query += ` AND status = $2`
		args = append(args, st)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing mini-projects: %w", err)
	}
	defer rows.Close()

	projects := []models.MiniProject{}
	for rows.Next() {
		p, err := scanMiniProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning mini-project: %w", err)
		}
		projects = append(projects, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating mini-projects: %w", err)
	}
	return projects, nil
}

func validateMiniProject(params models.CreateMiniProjectParams) error {
	checks := []struct {
		field string
		value string
	}{
		{"title", params.Title},
		{"category", params.Category},
		{"duration", params.Duration},
		{"location", params.Location},
	}
	for _, c := range checks {
		if err := requireText(c.field, c.value, models.MaxFieldLength); err != nil {
			return err
		}
	}
	if err := requireText("description", params.Description, 0); err != nil {
		return err
	}
	if err := optionalText("amount", params.Amount, models.MaxFieldLength); err != nil {
		return err
	}
	if len(params.Skills) == 0 {
		return invalid("skills", "is required")
	}
	if !params.DifficultyLevel.Valid() {
		return invalid("difficulty_level", "must be beginner, intermediate or advanced")
	}
	return nil
}

func insertMiniProject(ctx context.Context, q Querier, params models.CreateMiniProjectParams) (*models.MiniProject, error) {
	p, err := scanMiniProject(q.QueryRow(ctx,
		`INSERT INTO mini_projects (user_id, title, description, category, duration, is_paid, amount, skills, location, difficulty_level)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING `+miniProjectColumns,
		params.UserID, params.Title, params.Description, params.Category, params.Duration, params.IsPaid,
		params.Amount, nonNilStrings(params.Skills), params.Location, params.DifficultyLevel,
	))
	if err != nil {
		return nil, fmt.Errorf("creating mini-project: %w", err)
	}
	return p, nil
}

func (s *MiniProjectService) Create(ctx context.Context, params models.CreateMiniProjectParams) (*models.MiniProject, error) {
	if err := validateMiniProject(params); err != nil {
		return nil, err
	}
	return insertMiniProject(ctx, s.db, params)
}

// Get returns one of the user's mini-projects with presigned file URLs.
func (s *MiniProjectService) Get(ctx context.Context, userID, id uuid.UUID) (*models.MiniProject, error) {
	p, err := scanOwnedMiniProject(s.db.QueryRow(ctx,
		`SELECT `+miniProjectColumns+` FROM mini_projects WHERE id = $1 AND user_id = $2`, id, userID), "getting")
	if err != nil {
		return nil, err
	}
	for i := range p.SubmissionFiles {
		url, err := s.store.URL(ctx, p.SubmissionFiles[i].Key)
		if err != nil {
			logging.Warn("Failed to presign submission file", logging.Fields{
				"mini_project_id": id.String(),
				"key":             p.SubmissionFiles[i].Key,
				"error":           err.Error(),
			})
			continue
		}
		p.SubmissionFiles[i].URL = url
	}
	return p, nil
}

// Delete removes an active or rejected mini-project and its stored files.
func (s *MiniProjectService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	var files []models.SubmissionFile
	err := s.db.QueryRow(ctx,
		`DELETE FROM mini_projects
		 WHERE id = $1 AND user_id = $2 AND status IN ($3, $4)
		 RETURNING submission_files`,
		id, userID, models.MiniProjectActive, models.MiniProjectRejected,
	).Scan(&files)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrMiniProjectNotFound
	}
	if err != nil {
		return fmt.Errorf("deleting mini-project: %w", err)
	}

	s.removeFiles(ctx, files)
	return nil
}

func (s *MiniProjectService) removeFiles(ctx context.Context, files []models.SubmissionFile) {
	for _, f := range files {
		if err := s.store.Remove(ctx, f.Key); err != nil {
			logging.Warn("Failed to remove submission file", logging.Fields{"key": f.Key, "error": err.Error()})
		}
	}
}

// GenerateFromSuggestions runs suggestion generation for user and creates one
// mini-project per stored suggestion.
func (s *MiniProjectService) GenerateFromSuggestions(ctx context.Context, user *models.User, count int) ([]models.MiniProject, error) {
	suggestions, err := s.suggestions.Generate(ctx, user, count)
	if err != nil {
		return nil, err
	}

	projects := make([]models.MiniProject, 0, len(suggestions))
	err = withTx(ctx, s.db, func(tx Tx) error {
		for _, sug := range suggestions {
			p, err := insertMiniProject(ctx, tx, models.MiniProjectFromDraft(user.ID, sug.SuggestionDraft))
			if err != nil {
				return err
			}
			projects = append(projects, *p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return projects, nil
}

// Accept starts work on an active mini-project.
func (s *MiniProjectService) Accept(ctx context.Context, userID, id uuid.UUID) (*models.MiniProject, error) {
	return scanOwnedMiniProject(s.db.QueryRow(ctx,
		`UPDATE mini_projects SET status = $4, updated_at = NOW()
		 WHERE id = $1 AND user_id = $2 AND status = $3
		 RETURNING `+miniProjectColumns,
		id, userID, models.MiniProjectActive, models.MiniProjectInProgress,
	), "accepting")
}

// Submit stores the uploaded files and moves an in-progress mini-project to
// submitted. Files stored before a failure are removed again.
func (s *MiniProjectService) Submit(ctx context.Context, userID, id uuid.UUID, description string, uploads []SubmissionUpload) (*models.MiniProject, error) {
	if err := requireText("submission_description", description, 0); err != nil {
		return nil, err
	}
	for _, u := range uploads {
		if err := ValidateSubmissionFile(u.Name, u.Size); err != nil {
			return nil, err
		}
	}

	var status models.MiniProjectStatus
	err := s.db.QueryRow(ctx, `SELECT status FROM mini_projects WHERE id = $1 AND user_id = $2`, id, userID).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) || (err == nil && status != models.MiniProjectInProgress) {
		return nil, ErrMiniProjectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading mini-project: %w", err)
	}

	files := make([]models.SubmissionFile, 0, len(uploads))
	for _, u := range uploads {
		key := storage.SubmissionKey(id, u.Name)
		if err := s.store.Put(ctx, key, u.Body, u.Size, u.ContentType); err != nil {
			s.removeFiles(ctx, files)
			return nil, fmt.Errorf("storing submission file: %w", err)
		}
		files = append(files, models.SubmissionFile{Name: u.Name, Key: key, Size: u.Size, ContentType: u.ContentType})
	}

	p, err := scanOwnedMiniProject(s.db.QueryRow(ctx,
		`UPDATE mini_projects
		 SET status = $4, submission_description = $5, submission_files = $6, submitted_at = $7, updated_at = NOW()
		 WHERE id = $1 AND user_id = $2 AND status = $3
		 RETURNING `+miniProjectColumns,
		id, userID, models.MiniProjectInProgress, models.MiniProjectSubmitted,
		strings.TrimSpace(description), files, s.now(),
	), "submitting")
	if err != nil {
		s.removeFiles(ctx, files)
		return nil, err
	}
	return p, nil
}

// Review scores a submitted mini-project. A score of PassingReviewScore or
// more completes it and may award project badges; anything lower rejects it.
func (s *MiniProjectService) Review(ctx context.Context, reviewerID, id uuid.UUID, params models.ReviewMiniProjectParams) (*models.MiniProject, []models.Badge, error) {
	if err := requireText("review_feedback", params.Feedback, 0); err != nil {
		return nil, nil, err
	}
	if params.Score < 0 || params.Score > 100 {
		return nil, nil, invalid("review_score", "must be between 0 and 100")
	}

	next := models.MiniProjectRejected
	if params.Score >= models.PassingReviewScore {
		next = models.MiniProjectCompleted
	}

	var p *models.MiniProject
	err := withTx(ctx, s.db, func(tx Tx) error {
		var (
			ownerID uuid.UUID
			status  models.MiniProjectStatus
		)
		err := tx.QueryRow(ctx, `SELECT user_id, status FROM mini_projects WHERE id = $1 FOR UPDATE`, id).Scan(&ownerID, &status)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrMiniProjectNotFound
		}
		if err != nil {
			return fmt.Errorf("loading mini-project: %w", err)
		}
		if status != models.MiniProjectSubmitted {
			return ErrMiniProjectNotFound
		}
		if ownerID == reviewerID {
			return ErrSelfReview
		}

		p, err = scanOwnedMiniProject(tx.QueryRow(ctx,
			`UPDATE mini_projects
			 SET status = $2, review_feedback = $3, review_score = $4, reviewed_at = $5, updated_at = NOW()
			 WHERE id = $1
			 RETURNING `+miniProjectColumns,
			id, next, strings.TrimSpace(params.Feedback), params.Score, s.now(),
		), "reviewing")
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	badges := []models.Badge{}
	if p.Status == models.MiniProjectCompleted && s.badges != nil {
		awarded, err := s.badges.EvaluateProjectBadges(ctx, p.UserID)
		if err != nil {
			logging.Error("Failed to evaluate project badges", logging.Fields{
				"user_id": p.UserID.String(),
				"error":   err.Error(),
			})
		} else {
			badges = awarded
		}
	}
	return p, badges, nil
}
