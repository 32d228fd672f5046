package models

import (
	"time"

	"github.com/google/uuid"
)

type MiniProjectStatus string

const (
	MiniProjectActive     MiniProjectStatus = "active"
	MiniProjectInProgress MiniProjectStatus = "in_progress"
	MiniProjectSubmitted  MiniProjectStatus = "submitted"
	MiniProjectReviewed   MiniProjectStatus = "reviewed"
	MiniProjectCompleted  MiniProjectStatus = "completed"
	MiniProjectRejected   MiniProjectStatus = "rejected"
)

// PassingReviewScore is the lowest review score that completes a mini-project.
const PassingReviewScore = 70

func (s MiniProjectStatus) Valid() bool {
	switch s {
	case MiniProjectActive, MiniProjectInProgress, MiniProjectSubmitted,
		MiniProjectReviewed, MiniProjectCompleted, MiniProjectRejected:
		return true
	}
	return false
}

// Deletable reports whether a mini-project in this state may be removed.
func (s MiniProjectStatus) Deletable() bool {
	return s == MiniProjectActive || s == MiniProjectRejected
}

type SubmissionFile struct {
	Name        string `json:"name"`
	Key         string `json:"key"`
	Size        int64  `json:"size"`
	ContentType string `json:"type"`
	URL         string `json:"url,omitempty"`
}

type MiniProject struct {
	ID                    uuid.UUID         `json:"id"`
	UserID                uuid.UUID         `json:"user_id"`
	Title                 string            `json:"title"`
	Description           string            `json:"description"`
	Category              string            `json:"category"`
	Duration              string            `json:"duration"`
	IsPaid                bool              `json:"is_paid"`
	Amount                *string           `json:"amount"`
	Skills                []string          `json:"skills"`
	Location              string            `json:"location"`
	DifficultyLevel       Difficulty        `json:"difficulty_level"`
	Status                MiniProjectStatus `json:"status"`
	SubmissionDescription *string           `json:"submission_description,omitempty"`
	SubmissionFiles       []SubmissionFile  `json:"submission_files"`
	ReviewFeedback        *string           `json:"review_feedback,omitempty"`
	ReviewScore           *int              `json:"review_score,omitempty"`
	SubmittedAt           *time.Time        `json:"submitted_at,omitempty"`
	ReviewedAt            *time.Time        `json:"reviewed_at,omitempty"`
	CreatedAt             time.Time         `json:"created_at"`
	UpdatedAt             time.Time         `json:"updated_at"`
}

type CreateMiniProjectParams struct {
	UserID          uuid.UUID
	Title           string
	Description     string
	Category        string
	Duration        string
	IsPaid          bool
	Amount          *string
	Skills          []string
	Location        string
	DifficultyLevel Difficulty
}

// MiniProjectFromDraft copies a suggestion draft into creation params.
func MiniProjectFromDraft(userID uuid.UUID, d SuggestionDraft) CreateMiniProjectParams {
	return CreateMiniProjectParams{
		UserID:          userID,
		Title:           d.Title,
		Description:     d.Description,
		Category:        d.Category,
		Duration:        d.Duration,
		IsPaid:          d.IsPaid,
		Amount:          d.Amount,
		Skills:          d.Skills,
		Location:        d.Location,
		DifficultyLevel: d.DifficultyLevel,
	}
}

type SubmitMiniProjectParams struct {
	Description string
	Files       []SubmissionFile
}

type ReviewMiniProjectParams struct {
	Feedback string
	Score    int
}
