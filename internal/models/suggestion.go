package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// MaxFieldLength bounds the short text columns shared by suggestions,
// missions and mini-projects.
const MaxFieldLength = 255

type SuggestionStatus string

const (
	SuggestionSuggested SuggestionStatus = "suggested"
	SuggestionAccepted  SuggestionStatus = "accepted"
	SuggestionRejected  SuggestionStatus = "rejected"
	SuggestionConverted SuggestionStatus = "converted"
)

var suggestionTransitions = map[SuggestionStatus][]SuggestionStatus{
	SuggestionSuggested: {SuggestionAccepted, SuggestionRejected},
	SuggestionAccepted:  {SuggestionConverted},
}

// CanTransitionTo reports whether the lifecycle allows moving from s to next.
// Rejected and converted are terminal.
func (s SuggestionStatus) CanTransitionTo(next SuggestionStatus) bool {
	for _, allowed := range suggestionTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

var difficultyAliases = map[string]Difficulty{
	"beginner":      DifficultyBeginner,
	"débutant":      DifficultyBeginner,
	"debutant":      DifficultyBeginner,
	"intermediate":  DifficultyIntermediate,
	"intermédiaire": DifficultyIntermediate,
	"intermediaire": DifficultyIntermediate,
	"advanced":      DifficultyAdvanced,
	"avancé":        DifficultyAdvanced,
	"avance":        DifficultyAdvanced,
}

func (d Difficulty) Valid() bool {
	return d == DifficultyBeginner || d == DifficultyIntermediate || d == DifficultyAdvanced
}

// ParseDifficulty accepts the English levels and their French labels.
func ParseDifficulty(s string) (Difficulty, bool) {
	d, ok := difficultyAliases[strings.ToLower(strings.TrimSpace(s))]
	return d, ok
}

// SuggestionDraft is a mission idea that has not been stored yet.
type SuggestionDraft struct {
	Title           string     `json:"title" yaml:"title"`
	Description     string     `json:"description" yaml:"description"`
	Category        string     `json:"category" yaml:"category"`
	Duration        string     `json:"duration" yaml:"duration"`
	IsPaid          bool       `json:"is_paid" yaml:"is_paid"`
	Amount          *string    `json:"amount" yaml:"amount"`
	Skills          []string   `json:"skills" yaml:"skills"`
	Location        string     `json:"location" yaml:"location"`
	DifficultyLevel Difficulty `json:"difficulty_level" yaml:"difficulty_level"`
	AIGenerated     bool       `json:"ai_generated" yaml:"-"`
}

type Suggestion struct {
	ID     uuid.UUID `json:"id"`
	UserID uuid.UUID `json:"user_id"`
	SuggestionDraft
	Status      SuggestionStatus `json:"status"`
	GeneratedAt time.Time        `json:"generated_at"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}
