package progress

import (
	"context"

	"github.com/bobblez1/blob2/logging"
)

const (
	// EventScore is emitted whenever the player earns points.
	EventScore logging.EventType = "progress.score"
	// EventChallenge is emitted for challenge counter increments.
	EventChallenge logging.EventType = "progress.challenge"
	// EventLifeConsumed is emitted when a death costs the player a life.
	EventLifeConsumed logging.EventType = "progress.life_consumed"
)

// ScorePayload carries the increment and the running total.
type ScorePayload struct {
	Points int `json:"points"`
	Total  int `json:"total"`
}

// ChallengePayload identifies the challenge counter and its increment.
type ChallengePayload struct {
	Challenge string `json:"challenge"`
	Amount    int    `json:"amount"`
}

// Score publishes a score increment.
func Score(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload ScorePayload, extra map[string]any) {
	if pub == nil || payload.Points == 0 {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventScore,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryProgress,
		Payload:  payload,
		Extra:    extra,
	})
}

// Challenge publishes a challenge progress increment.
func Challenge(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload ChallengePayload, extra map[string]any) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventChallenge,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryProgress,
		Payload:  payload,
		Extra:    extra,
	})
}

// LifeConsumed publishes a life loss.
func LifeConsumed(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, extra map[string]any) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventLifeConsumed,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryProgress,
		Extra:    extra,
	})
}
