package ai

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/yovohub/hub/internal/models"
)

// DefaultFallbackLocation is used when the profile has no location.
const DefaultFallbackLocation = "Lomé"

//go:embed fallback_templates.yaml
var fallbackTemplatesYAML []byte

var (
	fallbackOnce      sync.Once
	fallbackTemplates []models.SuggestionDraft
	fallbackErr       error
)

func loadFallbackTemplates() ([]models.SuggestionDraft, error) {
	fallbackOnce.Do(func() {
		var drafts []models.SuggestionDraft
		if err := yaml.Unmarshal(fallbackTemplatesYAML, &drafts); err != nil {
			fallbackErr = fmt.Errorf("decoding fallback templates: %w", err)
			return
		}
		for i, d := range drafts {
			if _, ok := models.ParseDifficulty(string(d.DifficultyLevel)); !ok {
				fallbackErr = fmt.Errorf("fallback template %d: unknown difficulty %q", i, d.DifficultyLevel)
				return
			}
		}
		fallbackTemplates = drafts
	})
	return fallbackTemplates, fallbackErr
}

// FallbackSuggestions returns the first min(count, 3) canned suggestions
// localised to location. The result never shares memory with the templates.
func FallbackSuggestions(location string, count int) []models.SuggestionDraft {
	templates, err := loadFallbackTemplates()
	if err != nil {
		// The templates are embedded; this only fires on a broken build.
		panic(err)
	}

	location = strings.TrimSpace(location)
	if location == "" {
		location = DefaultFallbackLocation
	}
	if count > len(templates) {
		count = len(templates)
	}
	if count < 0 {
		count = 0
	}

	out := make([]models.SuggestionDraft, 0, count)
	for _, t := range templates[:count] {
		d := t
		d.Skills = append([]string(nil), t.Skills...)
		if t.Amount != nil {
			amount := *t.Amount
			d.Amount = &amount
		}
		d.Location = location
		d.AIGenerated = false
		out = append(out, d)
	}
	return out
}
