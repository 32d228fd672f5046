package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/yovohub/hub/internal/models"
)

const (
	MissionsPerPage          = 12
	MaxApplicationMessageLen = 1000
)

var (
	ErrMissionNotFound = errors.New("mission not found")
	ErrAlreadyApplied  = errors.New("already applied to this mission")
)

const missionColumns = `id, user_id, title, description, category, duration, is_paid, amount, skills, location, organization, deadline, status, created_at, updated_at`

type MissionService struct {
	db  DB
	now func() time.Time
}

func NewMissionService(db DB) *MissionService {
	return &MissionService{db: db, now: time.Now}
}

func scanMission(row Row) (*models.Mission, error) {
	m := &models.Mission{}
	err := row.Scan(&m.ID, &m.UserID, &m.Title, &m.Description, &m.Category, &m.Duration, &m.IsPaid,
		&m.Amount, &m.Skills, &m.Location, &m.Organization, &m.Deadline, &m.Status, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if m.Skills == nil {
		m.Skills = []string{}
	}
	return m, nil
}

func collectMissions(rows Rows) ([]models.Mission, error) {
	defer rows.Close()
	var missions []models.Mission
	for rows.Next() {
		m, err := scanMission(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning mission: %w", err)
		}
		missions = append(missions, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating missions: %w", err)
	}
	return missions, nil
}

// insertMission is shared with suggestion conversion so both paths write the same row shape.
func insertMission(ctx context.Context, q Querier, params models.CreateMissionParams) (*models.Mission, error) {
	m, err := scanMission(q.QueryRow(ctx,
		`INSERT INTO missions (user_id, title, description, category, duration, is_paid, amount, skills, location, organization, deadline)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 RETURNING `+missionColumns,
		params.UserID, params.Title, params.Description, params.Category, params.Duration, params.IsPaid,
		params.Amount, nonNilStrings(params.Skills), params.Location, params.Organization, params.Deadline,
	))
	if err != nil {
		return nil, fmt.Errorf("creating mission: %w", err)
	}
	return m, nil
}

// List returns one page of active missions matching filter.
func (s *MissionService) List(ctx context.Context, filter models.MissionFilter) (models.Page[models.Mission], error) {
	where := []string{"status = 'active'"}
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if search := strings.TrimSpace(filter.Search); search != "" {
		p := arg("%" + search + "%")
		where = append(where, fmt.Sprintf("(title ILIKE %s OR description ILIKE %s)", p, p))
	}
	if c := strings.TrimSpace(filter.Category); c != "" && c != "all" {
		where = append(where, "category = "+arg(c))
	}
	switch filter.Type {
	case "paid":
		where = append(where, "is_paid = true")
	case "unpaid":
		where = append(where, "is_paid = false")
	}
	if l := strings.TrimSpace(filter.Location); l != "" && l != "all" {
		where = append(where, "location ILIKE "+arg("%"+l+"%"))
	}
	clause := strings.Join(where, " AND ")

	page := filter.Page
	if page < 1 {
		page = 1
	}

	var total int
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM missions WHERE `+clause, args...).Scan(&total); err != nil {
		return models.Page[models.Mission]{}, fmt.Errorf("counting missions: %w", err)
	}

	limit := arg(MissionsPerPage)
	offset := arg((page - 1) * MissionsPerPage)
	rows, err := s.db.Query(ctx,
		`SELECT `+missionColumns+` FROM missions WHERE `+clause+
			` ORDER BY created_at DESC LIMIT `+limit+` OFFSET `+offset,
		args...,
	)
	if err != nil {
		return models.Page[models.Mission]{}, fmt.Errorf("listing missions: %w", err)
	}
	missions, err := collectMissions(rows)
	if err != nil {
		return models.Page[models.Mission]{}, err
	}

	return models.NewPage(missions, page, MissionsPerPage, total), nil
}

func (s *MissionService) validate(params models.CreateMissionParams) error {
	checks := []struct {
		field string
		value string
	}{
		{"title", params.Title},
		{"category", params.Category},
		{"duration", params.Duration},
		{"location", params.Location},
		{"organization", params.Organization},
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
	tomorrow := s.now().UTC().Truncate(24 * time.Hour).Add(24 * time.Hour)
	if params.Deadline.UTC().Before(tomorrow) {
		return invalid("deadline", "must be after today")
	}
	return nil
}

func (s *MissionService) Create(ctx context.Context, params models.CreateMissionParams) (*models.Mission, error) {
	if err := s.validate(params); err != nil {
		return nil, err
	}
	return insertMission(ctx, s.db, params)
}

// Get returns a mission with its applications.
func (s *MissionService) Get(ctx context.Context, id uuid.UUID) (*models.Mission, error) {
	m, err := scanMission(s.db.QueryRow(ctx, `SELECT `+missionColumns+` FROM missions WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrMissionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting mission: %w", err)
	}

	apps, err := s.applicationsFor(ctx, []uuid.UUID{m.ID})
	if err != nil {
		return nil, err
	}
	m.Applications = apps[m.ID]
	return m, nil
}

func (s *MissionService) applicationsFor(ctx context.Context, missionIDs []uuid.UUID) (map[uuid.UUID][]models.Application, error) {
	out := make(map[uuid.UUID][]models.Application, len(missionIDs))
	if len(missionIDs) == 0 {
		return out, nil
	}

	rows, err := s.db.Query(ctx,
		`SELECT id, user_id, mission_id, status, message, applied_at
		 FROM applications WHERE mission_id = ANY($1)
		 ORDER BY applied_at DESC`,
		missionIDs,
	)
	if err != nil {
		return nil, fmt.Errorf("listing applications: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var a models.Application
		if err := rows.Scan(&a.ID, &a.UserID, &a.MissionID, &a.Status, &a.Message, &a.AppliedAt); err != nil {
			return nil, fmt.Errorf("scanning application: %w", err)
		}
		out[a.MissionID] = append(out[a.MissionID], a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating applications: %w", err)
	}
	return out, nil
}

// Apply records userID's application to missionID. A second application
// to the same mission returns ErrAlreadyApplied.
func (s *MissionService) Apply(ctx context.Context, userID, missionID uuid.UUID, message *string) (*models.Application, error) {
	if message != nil {
		trimmed := strings.TrimSpace(*message)
		if len([]rune(trimmed)) > MaxApplicationMessageLen {
			return nil, invalid("message", "must be at most %d characters", MaxApplicationMessageLen)
		}
		if trimmed == "" {
			message = nil
		} else {
			message = &trimmed
		}
	}

	var exists bool
	if err := s.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM missions WHERE id = $1)`, missionID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("checking mission: %w", err)
	}
	if !exists {
		return nil, ErrMissionNotFound
	}

	a := &models.Application{}
	err := s.db.QueryRow(ctx,
		`INSERT INTO applications (user_id, mission_id, message)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (user_id, mission_id) DO NOTHING
		 RETURNING id, user_id, mission_id, status, message, applied_at`,
		userID, missionID, message,
	).Scan(&a.ID, &a.UserID, &a.MissionID, &a.Status, &a.Message, &a.AppliedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrAlreadyApplied
	}
	if err != nil {
		return nil, fmt.Errorf("creating application: %w", err)
	}
	return a, nil
}

// ListMine returns the missions a provider posted, or the missions a young
// user applied to.
func (s *MissionService) ListMine(ctx context.Context, user *models.User) ([]models.Mission, error) {
	var (
		rows Rows
		err  error
	)
	if user.Role == models.RoleProvider {
		rows, err = s.db.Query(ctx,
			`SELECT `+missionColumns+` FROM missions WHERE user_id = $1 ORDER BY created_at DESC`,
			user.ID,
		)
	} else {
		rows, err = s.db.Query(ctx,
			`SELECT `+missionColumns+` FROM missions
			 WHERE id IN (SELECT mission_id FROM applications WHERE user_id = $1)
			 ORDER BY created_at DESC`,
			user.ID,
		)
	}
	if err != nil {
		return nil, fmt.Errorf("listing user missions: %w", err)
	}
	missions, err := collectMissions(rows)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, len(missions))
	for i := range missions {
		ids[i] = missions[i].ID
	}
	apps, err := s.applicationsFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range missions {
		missions[i].Applications = apps[missions[i].ID]
	}
	if missions == nil {
		missions = []models.Mission{}
	}
	return missions, nil
}
