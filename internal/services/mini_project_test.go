package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yovohub/hub/internal/models"
	"github.com/yovohub/hub/internal/storage"
)

func miniProjectValues(id, userID uuid.UUID, status models.MiniProjectStatus) []any {
	d := sampleDraft()
	return []any{id, userID, d.Title, d.Description, d.Category, d.Duration, d.IsPaid, d.Amount, d.Skills,
		d.Location, d.DifficultyLevel, status, nil, nil, nil, nil, nil, nil, suggestionNow, suggestionNow}
}

func miniProjectRow(id, userID uuid.UUID, status models.MiniProjectStatus) Row {
	return rowFromValues(miniProjectValues(id, userID, status)...)
}

type fakeSuggestionCreator struct {
	suggestions []models.Suggestion
	err         error
}

func (f *fakeSuggestionCreator) Generate(ctx context.Context, user *models.User, count int) ([]models.Suggestion, error) {
	return f.suggestions, f.err
}

type fakeBadgeAwarder struct {
	calls  []uuid.UUID
	badges []models.Badge
	err    error
}

func (f *fakeBadgeAwarder) EvaluateProjectBadges(ctx context.Context, userID uuid.UUID) ([]models.Badge, error) {
	f.calls = append(f.calls, userID)
	return f.badges, f.err
}

func newTestMiniProjectService(db DB, store storage.Store, badges ProjectBadgeAwarder) *MiniProjectService {
	svc := NewMiniProjectService(db, store, nil, badges)
	svc.now = func() time.Time { return suggestionNow }
	return svc
}

func TestValidateSubmissionFile(t *testing.T) {
	tests := []struct {
		name  string
		size  int64
		valid bool
	}{
		{"rapport.pdf", 1024, true},
		{"maquette.PNG", 1024, true},
		{"code.zip", MaxSubmissionFileSize, true},
		{"notes.docx", 10, true},
		{"script.exe", 10, false},
		{"noextension", 10, false},
		{"big.pdf", MaxSubmissionFileSize + 1, false},
	}
	for _, tt := range tests {
		err := ValidateSubmissionFile(tt.name, tt.size)
		if tt.valid {
			assert.NoError(t, err, tt.name)
		} else {
			assert.ErrorIs(t, err, ErrValidation, tt.name)
		}
	}
}

func TestMiniProjectService_ListStatusFilter(t *testing.T) {
	userID := uuid.New()
	tests := []struct {
		status   string
		wantArgs []any
		wantErr  bool
	}{
		{"", []any{userID, models.MiniProjectActive}, false},
		{"all", []any{userID}, false},
		{"submitted", []any{userID, models.MiniProjectSubmitted}, false},
		{"bogus", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			var gotArgs []any
			db := &fakeDB{QueryFunc: func(ctx context.Context, sql string, args ...any) (Rows, error) {
				gotArgs = args
				return &fakeRows{rows: [][]any{miniProjectValues(uuid.New(), userID, models.MiniProjectActive)}}, nil
			}}

			projects, err := newTestMiniProjectService(db, nil, nil).List(context.Background(), userID, tt.status)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantArgs, gotArgs)
			require.Len(t, projects, 1)
			assert.NotNil(t, projects[0].SubmissionFiles)
		})
	}
}

func TestMiniProjectService_CreateValidation(t *testing.T) {
	params := models.MiniProjectFromDraft(uuid.New(), sampleDraft())
	params.DifficultyLevel = "expert"

	_, err := newTestMiniProjectService(&fakeDB{}, nil, nil).Create(context.Background(), params)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "difficulty_level", verr.Field)
}

func TestValidateMiniProject_FieldLengths(t *testing.T) {
	limit := strings.Repeat("é", models.MaxFieldLength)
	over := limit + "x"
	tests := []struct {
		name   string
		modify func(*models.CreateMiniProjectParams)
		field  string
	}{
		{"at limit", func(p *models.CreateMiniProjectParams) {
			p.Category, p.Duration, p.Amount = limit, limit, &limit
		}, ""},
		{"nil amount", func(p *models.CreateMiniProjectParams) { p.Amount = nil }, ""},
		{"long category", func(p *models.CreateMiniProjectParams) { p.Category = over }, "category"},
		{"long duration", func(p *models.CreateMiniProjectParams) { p.Duration = over }, "duration"},
		{"long amount", func(p *models.CreateMiniProjectParams) { p.Amount = &over }, "amount"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := models.MiniProjectFromDraft(uuid.New(), sampleDraft())
			tt.modify(&params)

			err := validateMiniProject(params)
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}
			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestMiniProjectService_GetPresignsFiles(t *testing.T) {
	userID, id := uuid.New(), uuid.New()
	store := storage.NewMemoryStore()
	require.NoError(t, store.Put(context.Background(), "k1", strings.NewReader("x"), 1, "application/pdf"))

	values := miniProjectValues(id, userID, models.MiniProjectSubmitted)
	values[13] = []models.SubmissionFile{{Name: "a.pdf", Key: "k1"}, {Name: "gone.pdf", Key: "k2"}}
	db := &fakeDB{QueryRowFunc: func(ctx context.Context, sql string, args ...any) Row {
		assert.Equal(t, []any{id, userID}, args)
		return rowFromValues(values...)
	}}

	p, err := newTestMiniProjectService(db, store, nil).Get(context.Background(), userID, id)
	require.NoError(t, err)
	assert.Equal(t, "memory://k1", p.SubmissionFiles[0].URL)
	assert.Empty(t, p.SubmissionFiles[1].URL)
}

func TestMiniProjectService_GetNotFound(t *testing.T) {
	db := &fakeDB{QueryRowFunc: func(ctx context.Context, sql string, args ...any) Row {
		return fakeRow{scanFunc: func(dest ...any) error { return pgx.ErrNoRows }}
	}}
	_, err := newTestMiniProjectService(db, storage.NewMemoryStore(), nil).Get(context.Background(), uuid.New(), uuid.New())
	assert.ErrorIs(t, err, ErrMiniProjectNotFound)
}

func TestMiniProjectService_DeleteRemovesFiles(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	require.NoError(t, store.Put(ctx, "k1", strings.NewReader("x"), 1, "image/png"))

	db := &fakeDB{QueryRowFunc: func(ctx context.Context, sql string, args ...any) Row {
		assert.Contains(t, sql, "DELETE FROM mini_projects")
		assert.Equal(t, models.MiniProjectActive, args[2])
		assert.Equal(t, models.MiniProjectRejected, args[3])
		return rowFromValues([]models.SubmissionFile{{Key: "k1"}})
	}}

	require.NoError(t, newTestMiniProjectService(db, store, nil).Delete(ctx, uuid.New(), uuid.New()))
	assert.Equal(t, 0, store.Len())
}

func TestMiniProjectService_DeleteNotDeletable(t *testing.T) {
	db := &fakeDB{QueryRowFunc: func(ctx context.Context, sql string, args ...any) Row {
		return fakeRow{scanFunc: func(dest ...any) error { return pgx.ErrNoRows }}
	}}
	err := newTestMiniProjectService(db, storage.NewMemoryStore(), nil).Delete(context.Background(), uuid.New(), uuid.New())
	assert.ErrorIs(t, err, ErrMiniProjectNotFound)
}

func TestMiniProjectService_GenerateFromSuggestions(t *testing.T) {
	user := &models.User{ID: uuid.New()}
	creator := &fakeSuggestionCreator{suggestions: []models.Suggestion{
		{ID: uuid.New(), UserID: user.ID, SuggestionDraft: sampleDraft()},
		{ID: uuid.New(), UserID: user.ID, SuggestionDraft: sampleDraft()},
	}}
	var inserts int
	tx := &fakeTx{QueryRowFunc: func(ctx context.Context, sql string, args ...any) Row {
		assert.Contains(t, sql, "INSERT INTO mini_projects")
		inserts++
		return miniProjectRow(uuid.New(), user.ID, models.MiniProjectActive)
	}}
	db := &fakeDB{BeginFunc: func(ctx context.Context) (Tx, error) { return tx, nil }}

	svc := NewMiniProjectService(db, storage.NewMemoryStore(), creator, nil)
	projects, err := svc.GenerateFromSuggestions(context.Background(), user, 2)
	require.NoError(t, err)
	assert.Len(t, projects, 2)
	assert.Equal(t, 2, inserts)
}

func TestMiniProjectService_GenerateFromSuggestionsError(t *testing.T) {
	creator := &fakeSuggestionCreator{err: errors.New("db down")}
	svc := NewMiniProjectService(&fakeDB{}, storage.NewMemoryStore(), creator, nil)
	_, err := svc.GenerateFromSuggestions(context.Background(), &models.User{ID: uuid.New()}, 3)
	assert.Error(t, err)
}

func TestMiniProjectService_Accept(t *testing.T) {
	userID, id := uuid.New(), uuid.New()
	db := &fakeDB{QueryRowFunc: func(ctx context.Context, sql string, args ...any) Row {
		assert.Equal(t, []any{id, userID, models.MiniProjectActive, models.MiniProjectInProgress}, args)
		return miniProjectRow(id, userID, models.MiniProjectInProgress)
	}}
	p, err := newTestMiniProjectService(db, nil, nil).Accept(context.Background(), userID, id)
	require.NoError(t, err)
	assert.Equal(t, models.MiniProjectInProgress, p.Status)
}

func TestMiniProjectService_Submit(t *testing.T) {
	ctx := context.Background()
	userID, id := uuid.New(), uuid.New()
	store := storage.NewMemoryStore()

	var stored []models.SubmissionFile
	db := &fakeDB{QueryRowFunc: func(ctx context.Context, sql string, args ...any) Row {
		if strings.HasPrefix(sql, "SELECT status") {
			return rowFromValues(models.MiniProjectInProgress)
		}
		stored = args[5].([]models.SubmissionFile)
		values := miniProjectValues(id, userID, models.MiniProjectSubmitted)
		values[12] = args[4]
		values[13] = stored
		values[16] = args[6]
		return rowFromValues(values...)
	}}

	p, err := newTestMiniProjectService(db, store, nil).Submit(ctx, userID, id, " Voici mon travail ", []SubmissionUpload{
		{Name: "rapport.pdf", ContentType: "application/pdf", Size: 4, Body: strings.NewReader("%PDF")},
	})
	require.NoError(t, err)
	assert.Equal(t, models.MiniProjectSubmitted, p.Status)
	assert.Equal(t, "Voici mon travail", *p.SubmissionDescription)
	require.Len(t, stored, 1)
	assert.True(t, strings.HasPrefix(stored[0].Key, "mini-projects/submissions/"+id.String()))
	data, _, ok := store.Get(stored[0].Key)
	require.True(t, ok)
	assert.Equal(t, "%PDF", string(data))
}

func TestMiniProjectService_SubmitWrongState(t *testing.T) {
	store := storage.NewMemoryStore()
	db := &fakeDB{QueryRowFunc: func(ctx context.Context, sql string, args ...any) Row {
		return rowFromValues(models.MiniProjectActive)
	}}
	_, err := newTestMiniProjectService(db, store, nil).Submit(context.Background(), uuid.New(), uuid.New(), "done", []SubmissionUpload{
		{Name: "a.png", Size: 1, Body: strings.NewReader("x")},
	})
	assert.ErrorIs(t, err, ErrMiniProjectNotFound)
	assert.Equal(t, 0, store.Len(), "nothing may be uploaded")
}

func TestMiniProjectService_SubmitLostRaceRemovesFiles(t *testing.T) {
	store := storage.NewMemoryStore()
	db := &fakeDB{QueryRowFunc: func(ctx context.Context, sql string, args ...any) Row {
		if strings.HasPrefix(sql, "SELECT status") {
			return rowFromValues(models.MiniProjectInProgress)
		}
		return fakeRow{scanFunc: func(dest ...any) error { return pgx.ErrNoRows }}
	}}
	_, err := newTestMiniProjectService(db, store, nil).Submit(context.Background(), uuid.New(), uuid.New(), "done", []SubmissionUpload{
		{Name: "a.png", Size: 1, Body: strings.NewReader("x")},
	})
	assert.ErrorIs(t, err, ErrMiniProjectNotFound)
	assert.Equal(t, 0, store.Len())
}

func TestMiniProjectService_SubmitRejectsBadFile(t *testing.T) {
	_, err := newTestMiniProjectService(&fakeDB{}, storage.NewMemoryStore(), nil).Submit(context.Background(), uuid.New(), uuid.New(), "done",
		[]SubmissionUpload{{Name: "virus.exe", Size: 1, Body: strings.NewReader("x")}})
	assert.ErrorIs(t, err, ErrValidation)
}

func reviewTx(ownerID uuid.UUID, status models.MiniProjectStatus) *fakeTx {
	return &fakeTx{QueryRowFunc: func(ctx context.Context, sql string, args ...any) Row {
		if strings.Contains(sql, "FOR UPDATE") {
			return rowFromValues(ownerID, status)
		}
		values := miniProjectValues(args[0].(uuid.UUID), ownerID, args[1].(models.MiniProjectStatus))
		values[14] = args[2]
		values[15] = args[3]
		return rowFromValues(values...)
	}}
}

func TestMiniProjectService_Review(t *testing.T) {
	owner, reviewer := uuid.New(), uuid.New()
	tests := []struct {
		name       string
		score      int
		wantStatus models.MiniProjectStatus
		wantBadges int
	}{
		{"passing", 85, models.MiniProjectCompleted, 1},
		{"threshold", models.PassingReviewScore, models.MiniProjectCompleted, 1},
		{"failing", 69, models.MiniProjectRejected, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := reviewTx(owner, models.MiniProjectSubmitted)
			db := &fakeDB{BeginFunc: func(ctx context.Context) (Tx, error) { return tx, nil }}
			awarder := &fakeBadgeAwarder{badges: []models.Badge{{Code: "project-beginner"}}}

			p, badges, err := newTestMiniProjectService(db, nil, awarder).Review(context.Background(), reviewer, uuid.New(),
				models.ReviewMiniProjectParams{Feedback: "Bon travail", Score: tt.score})
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, p.Status)
			assert.Equal(t, tt.score, *p.ReviewScore)
			assert.Len(t, badges, tt.wantBadges)
			assert.Len(t, awarder.calls, tt.wantBadges)
		})
	}
}

func TestMiniProjectService_ReviewRejections(t *testing.T) {
	owner := uuid.New()
	tests := []struct {
		name     string
		reviewer uuid.UUID
		status   models.MiniProjectStatus
		params   models.ReviewMiniProjectParams
		wantErr  error
	}{
		{"not submitted", uuid.New(), models.MiniProjectInProgress, models.ReviewMiniProjectParams{Feedback: "ok", Score: 90}, ErrMiniProjectNotFound},
		{"own project", owner, models.MiniProjectSubmitted, models.ReviewMiniProjectParams{Feedback: "ok", Score: 90}, ErrSelfReview},
		{"score too high", uuid.New(), models.MiniProjectSubmitted, models.ReviewMiniProjectParams{Feedback: "ok", Score: 101}, ErrValidation},
		{"no feedback", uuid.New(), models.MiniProjectSubmitted, models.ReviewMiniProjectParams{Score: 50}, ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := reviewTx(owner, tt.status)
			db := &fakeDB{BeginFunc: func(ctx context.Context) (Tx, error) { return tx, nil }}
			awarder := &fakeBadgeAwarder{}

			_, _, err := newTestMiniProjectService(db, nil, awarder).Review(context.Background(), tt.reviewer, uuid.New(), tt.params)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, awarder.calls)
		})
	}
}

func TestMiniProjectService_ReviewBadgeFailureIsNotFatal(t *testing.T) {
	tx := reviewTx(uuid.New(), models.MiniProjectSubmitted)
	db := &fakeDB{BeginFunc: func(ctx context.Context) (Tx, error) { return tx, nil }}
	awarder := &fakeBadgeAwarder{err: errors.New("boom")}

	p, badges, err := newTestMiniProjectService(db, nil, awarder).Review(context.Background(), uuid.New(), uuid.New(),
		models.ReviewMiniProjectParams{Feedback: "Excellent", Score: 100})
	require.NoError(t, err)
	assert.Equal(t, models.MiniProjectCompleted, p.Status)
	assert.Empty(t, badges)
}
