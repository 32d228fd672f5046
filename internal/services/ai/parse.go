package ai

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/yovohub/hub/internal/models"
)

// rawSuggestion mirrors one element of the completion array. Pointer fields
// distinguish a missing key from a zero value.
type rawSuggestion struct {
	Title           *string          `json:"title"`
	Description     *string          `json:"description"`
	Category        *string          `json:"category"`
	Duration        *string          `json:"duration"`
	IsPaid          *bool            `json:"is_paid"`
	Amount          *json.RawMessage `json:"amount"`
	Skills          *[]string        `json:"skills"`
	Location        *string          `json:"location"`
	DifficultyLevel *string          `json:"difficulty_level"`
}

// ParseSuggestions extracts the first complete JSON array of suggestion
// objects from content and validates every element. At most count drafts are
// returned.
func ParseSuggestions(content string, count int) ([]models.SuggestionDraft, error) {
	items, err := extractObjectArray(stripMarkdownCodeBlock(content))
	if err != nil {
		return nil, err
	}
	if count > 0 && len(items) > count {
		items = items[:count]
	}

	drafts := make([]models.SuggestionDraft, 0, len(items))
	for i, item := range items {
		d, err := validateSuggestion(item)
		if err != nil {
			return nil, &ParseError{Reason: fmt.Sprintf("element %d", i), Err: err}
		}
		drafts = append(drafts, d)
	}
	return drafts, nil
}

// extractObjectArray scans each '[' in order and returns the elements of the
// first complete JSON array whose elements are all objects. Bracketed prose
// such as "[1]" or "[note]" is skipped.
func extractObjectArray(s string) ([]json.RawMessage, error) {
	if !strings.Contains(s, "[") {
		return nil, &ParseError{Reason: "no JSON array in content"}
	}
	var lastErr error
	for i := 0; i < len(s); i++ {
		if s[i] != '[' {
			continue
		}
		var items []json.RawMessage
		if err := json.NewDecoder(strings.NewReader(s[i:])).Decode(&items); err != nil {
			lastErr = err
			continue
		}
		if len(items) == 0 {
			lastErr = fmt.Errorf("empty array at offset %d", i)
			continue
		}
		if !allObjects(items) {
			lastErr = fmt.Errorf("array at offset %d does not hold objects", i)
			continue
		}
		return items, nil
	}
	return nil, &ParseError{Reason: "no complete JSON array in content", Err: lastErr}
}

func allObjects(items []json.RawMessage) bool {
	for _, item := range items {
		trimmed := bytes.TrimSpace(item)
		if len(trimmed) == 0 || trimmed[0] != '{' {
			return false
		}
	}
	return true
}

func validateSuggestion(item json.RawMessage) (models.SuggestionDraft, error) {
	var r rawSuggestion
	if err := json.Unmarshal(item, &r); err != nil {
		return models.SuggestionDraft{}, err
	}

	required := []struct {
		name  string
		value *string
	}{
		{"title", r.Title},
		{"description", r.Description},
		{"category", r.Category},
		{"duration", r.Duration},
	}
	for _, f := range required {
		if f.value == nil || strings.TrimSpace(*f.value) == "" {
			return models.SuggestionDraft{}, fmt.Errorf("missing %s", f.name)
		}
	}
	if r.IsPaid == nil {
		return models.SuggestionDraft{}, fmt.Errorf("missing is_paid")
	}
	if r.Skills == nil {
		return models.SuggestionDraft{}, fmt.Errorf("missing skills")
	}
	if r.Location == nil {
		return models.SuggestionDraft{}, fmt.Errorf("missing location")
	}
	if r.DifficultyLevel == nil {
		return models.SuggestionDraft{}, fmt.Errorf("missing difficulty_level")
	}
	difficulty, ok := models.ParseDifficulty(*r.DifficultyLevel)
	if !ok {
		return models.SuggestionDraft{}, fmt.Errorf("unknown difficulty_level %q", *r.DifficultyLevel)
	}

	amount, err := parseAmount(r.Amount)
	if err != nil {
		return models.SuggestionDraft{}, err
	}

	skills := make([]string, 0, len(*r.Skills))
	for _, s := range *r.Skills {
		if s = strings.TrimSpace(s); s != "" {
			skills = append(skills, s)
		}
	}

	d := models.SuggestionDraft{
		Title:           strings.TrimSpace(*r.Title),
		Description:     strings.TrimSpace(*r.Description),
		Category:        strings.TrimSpace(*r.Category),
		Duration:        strings.TrimSpace(*r.Duration),
		IsPaid:          *r.IsPaid,
		Amount:          amount,
		Skills:          skills,
		Location:        strings.TrimSpace(*r.Location),
		DifficultyLevel: difficulty,
		AIGenerated:     true,
	}
	if err := checkLengths(d); err != nil {
		return models.SuggestionDraft{}, err
	}
	return d, nil
}

// checkLengths rejects fields that would not fit their columns.
func checkLengths(d models.SuggestionDraft) error {
	fields := map[string]string{
		"title":    d.Title,
		"category": d.Category,
		"duration": d.Duration,
		"location": d.Location,
	}
	if d.Amount != nil {
		fields["amount"] = *d.Amount
	}
	for _, name := range []string{"title", "category", "duration", "location", "amount"} {
		if utf8.RuneCountInString(fields[name]) > models.MaxFieldLength {
			return fmt.Errorf("%s exceeds %d characters", name, models.MaxFieldLength)
		}
	}
	return nil
}

// parseAmount accepts a string, null, or an absent key.
func parseAmount(raw *json.RawMessage) (*string, error) {
	if raw == nil || string(bytes.TrimSpace(*raw)) == "null" {
		return nil, nil
	}
	var s string
	if err := json.Unmarshal(*raw, &s); err != nil {
		return nil, fmt.Errorf("amount must be a string or null")
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	return &s, nil
}

// stripMarkdownCodeBlock removes leading and trailing markdown code block fences (```json or ```).
func stripMarkdownCodeBlock(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```json") {
		s = strings.TrimSpace(strings.TrimPrefix(s, "```json"))
	} else if strings.HasPrefix(s, "```") {
		s = strings.TrimSpace(strings.TrimPrefix(s, "```"))
	}
	if strings.HasSuffix(s, "```") {
		s = strings.TrimSpace(strings.TrimSuffix(s, "```"))
	}
	return s
}
