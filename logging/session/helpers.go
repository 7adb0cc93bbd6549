package session

import (
	"context"

	"github.com/bobblez1/blob2/logging"
)

const (
	EventStarted     logging.EventType = "session.started"
	EventRevived     logging.EventType = "session.revived"
	EventEnded       logging.EventType = "session.ended"
	EventTickAborted logging.EventType = "session.tick_aborted"
)

// StartedPayload captures the session's starting conditions.
type StartedPayload struct {
	Mode  string `json:"mode"`
	Team  string `json:"team,omitempty"`
	Seed  string `json:"seed"`
	Bots  int    `json:"bots"`
	Foods int    `json:"foods"`
}

// RevivedPayload records the size the player was restored to.
type RevivedPayload struct {
	Size float64 `json:"size"`
}

// EndedPayload is the session summary.
type EndedPayload struct {
	Cause     string  `json:"cause"`
	Score     int     `json:"score"`
	ElapsedMS int64   `json:"elapsedMs"`
	FinalSize float64 `json:"finalSize"`
}

// TickAbortedPayload reports a tick rolled back after a failure.
type TickAbortedPayload struct {
	Reason string `json:"reason"`
}

func Started(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload StartedPayload, extra map[string]any) {
	publish(ctx, pub, EventStarted, logging.SeverityInfo, tick, actor, payload, extra)
}

func Revived(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload RevivedPayload, extra map[string]any) {
	publish(ctx, pub, EventRevived, logging.SeverityInfo, tick, actor, payload, extra)
}

func Ended(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload EndedPayload, extra map[string]any) {
	publish(ctx, pub, EventEnded, logging.SeverityInfo, tick, actor, payload, extra)
}

func TickAborted(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload TickAbortedPayload, extra map[string]any) {
	publish(ctx, pub, EventTickAborted, logging.SeverityError, tick, actor, payload, extra)
}

func publish(ctx context.Context, pub logging.Publisher, typ logging.EventType, sev logging.Severity, tick uint64, actor logging.EntityRef, payload any, extra map[string]any) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     typ,
		Tick:     tick,
		Actor:    actor,
		Severity: sev,
		Category: logging.CategorySession,
		Payload:  payload,
		Extra:    extra,
	})
}
