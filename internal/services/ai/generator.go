package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/yovohub/hub/internal/logging"
	"github.com/yovohub/hub/internal/models"
)

const (
	DefaultSuggestionCount = 3
	MaxSuggestionCount     = 5
)

// Usage log statuses written to ai_generation_logs.
const (
	UsageSuccess  = "success"
	UsageError    = "error"
	UsageFallback = "fallback"
)

// UsageRecorder persists one row per generation attempt.
type UsageRecorder interface {
	RecordUsage(ctx context.Context, userID uuid.UUID, stats UsageStats, status string) error
}

// Generator produces suggestion drafts for a user, falling back to canned
// templates whenever the completion endpoint cannot be used.
type Generator struct {
	completer Completer
	usage     UsageRecorder
}

func NewGenerator(completer Completer, usage UsageRecorder) *Generator {
	return &Generator{completer: completer, usage: usage}
}

// Result carries the drafts and whether they came from the model.
type Result struct {
	Drafts      []models.SuggestionDraft
	AIGenerated bool
	Usage       UsageStats
}

// NormalizeCount applies the default and bounds to a requested count.
func NormalizeCount(count int) (int, error) {
	if count == 0 {
		return DefaultSuggestionCount, nil
	}
	if count < 1 || count > MaxSuggestionCount {
		return 0, fmt.Errorf("%w: count must be between 1 and %d, got %d", ErrInvalidInput, MaxSuggestionCount, count)
	}
	return count, nil
}

// Generate returns up to count drafts. Completion and parse failures are
// logged and answered with fallback templates, so the only error returned is
// ErrInvalidInput.
func (g *Generator) Generate(ctx context.Context, userID uuid.UUID, profile Profile, count int) (Result, error) {
	count, err := NormalizeCount(count)
	if err != nil {
		return Result{}, err
	}

	completion, err := g.completer.Complete(ctx, BuildPrompt(profile, count))
	if err != nil {
		fields := logging.Fields{
			"user_id": userID.String(),
			"error":   err.Error(),
		}
		var ce *CompletionError
		if errors.As(err, &ce) && ce.StatusCode != 0 {
			fields["status"] = ce.StatusCode
			fields["body"] = ce.Body
		}
		logging.Error("AI completion failed; serving fallback suggestions", fields)
		g.recordUsage(userID, completion.Usage, UsageError)
		return g.fallback(profile, count, completion.Usage), nil
	}

	drafts, err := ParseSuggestions(completion.Content, count)
	if err != nil {
		logging.Warn("AI response could not be parsed; serving fallback suggestions", logging.Fields{
			"user_id":         userID.String(),
			"error":           err.Error(),
			"response_length": len(completion.Content),
		})
		g.recordUsage(userID, completion.Usage, UsageFallback)
		return g.fallback(profile, count, completion.Usage), nil
	}

	logging.Info("AI suggestions generated", logging.Fields{
		"user_id": userID.String(),
		"count":   len(drafts),
		"tokens":  completion.Usage.TokensInput + completion.Usage.TokensOutput,
	})
	g.recordUsage(userID, completion.Usage, UsageSuccess)
	return Result{Drafts: drafts, AIGenerated: true, Usage: completion.Usage}, nil
}

func (g *Generator) fallback(profile Profile, count int, usage UsageStats) Result {
	return Result{
		Drafts:      FallbackSuggestions(profile.Location, count),
		AIGenerated: false,
		Usage:       usage,
	}
}

// recordUsage runs on its own short deadline so a cancelled request still
// leaves an audit row.
func (g *Generator) recordUsage(userID uuid.UUID, stats UsageStats, status string) {
	if g.usage == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := g.usage.RecordUsage(ctx, userID, stats, status); err != nil {
		logging.Error("Failed to log AI usage", logging.Fields{
			"error":   err.Error(),
			"user_id": userID.String(),
		})
	}
}
