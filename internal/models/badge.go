package models

import (
	"time"

	"github.com/google/uuid"
)

type BadgeCategory string

const (
	BadgeCategoryQuiz    BadgeCategory = "quiz"
	BadgeCategoryMission BadgeCategory = "mission"
	BadgeCategoryProject BadgeCategory = "project"
)

type BadgeLevel string

const (
	BadgeBronze BadgeLevel = "bronze"
	BadgeSilver BadgeLevel = "silver"
	BadgeGold   BadgeLevel = "gold"
)

type Badge struct {
	ID         uuid.UUID     `json:"id"`
	UserID     uuid.UUID     `json:"user_id"`
	Code       string        `json:"code"`
	Name       string        `json:"name"`
	Category   BadgeCategory `json:"category"`
	Level      BadgeLevel    `json:"level"`
	Icon       string        `json:"icon"`
	Color      string        `json:"color"`
	DateEarned time.Time     `json:"date_earned"`
}

// BadgeDefinition describes a badge that can be earned.
type BadgeDefinition struct {
	Code     string
	Name     string
	Category BadgeCategory
	Level    BadgeLevel
	Icon     string
	Color    string
	// Threshold is the count (passed quizzes, completed projects) needed to earn it.
	Threshold int
}

var levelColors = map[BadgeLevel]string{
	BadgeBronze: "#CD7F32",
	BadgeSilver: "#C0C0C0",
	BadgeGold:   "#FFD700",
}

var BadgeCatalog = []BadgeDefinition{
	{Code: "quiz-beginner", Name: "Quiz Débutant", Category: BadgeCategoryQuiz, Level: BadgeBronze, Icon: "🥉", Color: levelColors[BadgeBronze], Threshold: 1},
	{Code: "quiz-intermediate", Name: "Quiz Intermédiaire", Category: BadgeCategoryQuiz, Level: BadgeSilver, Icon: "🥈", Color: levelColors[BadgeSilver], Threshold: 5},
	{Code: "quiz-expert", Name: "Quiz Expert", Category: BadgeCategoryQuiz, Level: BadgeGold, Icon: "🥇", Color: levelColors[BadgeGold]},
	{Code: "project-beginner", Name: "Premier Projet", Category: BadgeCategoryProject, Level: BadgeBronze, Icon: "🛠️", Color: levelColors[BadgeBronze], Threshold: 1},
	{Code: "project-intermediate", Name: "Bâtisseur", Category: BadgeCategoryProject, Level: BadgeSilver, Icon: "🏗️", Color: levelColors[BadgeSilver], Threshold: 5},
	{Code: "project-expert", Name: "Maître Bâtisseur", Category: BadgeCategoryProject, Level: BadgeGold, Icon: "🏆", Color: levelColors[BadgeGold], Threshold: 10},
}

// QuizPassPercent is the minimum percentage for a quiz to count as passed.
const QuizPassPercent = 80

type QuizResult struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Category  string    `json:"category"`
	Score     int       `json:"score"`
	Total     int       `json:"total"`
	Passed    bool      `json:"passed"`
	CreatedAt time.Time `json:"created_at"`
}

// QuizPassed reports whether score out of total meets QuizPassPercent.
func QuizPassed(score, total int) bool {
	if total <= 0 {
		return false
	}
	return score*100 >= total*QuizPassPercent
}
