package models

import (
	"time"

	"github.com/google/uuid"
)

type MissionStatus string

const (
	MissionActive    MissionStatus = "active"
	MissionCompleted MissionStatus = "completed"
	MissionCancelled MissionStatus = "cancelled"
)

// AssistantOrganization is the organization recorded on missions converted from AI suggestions.
const AssistantOrganization = "YŌVO IA Assistant"

// ConvertedMissionDeadline is how far out a converted suggestion's deadline is set.
const ConvertedMissionDeadline = 30 * 24 * time.Hour

type Mission struct {
	ID           uuid.UUID     `json:"id"`
	UserID       uuid.UUID     `json:"user_id"`
	Title        string        `json:"title"`
	Description  string        `json:"description"`
	Category     string        `json:"category"`
	Duration     string        `json:"duration"`
	IsPaid       bool          `json:"is_paid"`
	Amount       *string       `json:"amount"`
	Skills       []string      `json:"skills"`
	Location     string        `json:"location"`
	Organization string        `json:"organization"`
	Deadline     time.Time     `json:"deadline"`
	Status       MissionStatus `json:"status"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
	Applications []Application `json:"applications,omitempty"`
}

type CreateMissionParams struct {
	UserID       uuid.UUID
	Title        string
	Description  string
	Category     string
	Duration     string
	IsPaid       bool
	Amount       *string
	Skills       []string
	Location     string
	Organization string
	Deadline     time.Time
}

// MissionFilter narrows the public mission listing.
type MissionFilter struct {
	Search   string
	Category string
	Type     string // "paid", "unpaid" or empty
	Location string
	Page     int
}

type ApplicationStatus string

const (
	ApplicationPending  ApplicationStatus = "pending"
	ApplicationAccepted ApplicationStatus = "accepted"
	ApplicationRejected ApplicationStatus = "rejected"
)

type Application struct {
	ID        uuid.UUID         `json:"id"`
	UserID    uuid.UUID         `json:"user_id"`
	MissionID uuid.UUID         `json:"mission_id"`
	Status    ApplicationStatus `json:"status"`
	Message   *string           `json:"message,omitempty"`
	AppliedAt time.Time         `json:"applied_at"`
}

// Page is one page of a paginated listing.
type Page[T any] struct {
	Data        []T `json:"data"`
	CurrentPage int `json:"current_page"`
	PerPage     int `json:"per_page"`
	Total       int `json:"total"`
	LastPage    int `json:"last_page"`
}

func NewPage[T any](data []T, page, perPage, total int) Page[T] {
	if data == nil {
		data = []T{}
	}
	last := 1
	if total > 0 {
		last = (total + perPage - 1) / perPage
	}
	return Page[T]{Data: data, CurrentPage: page, PerPage: perPage, Total: total, LastPage: last}
}
