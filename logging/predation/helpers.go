package predation

import (
	"context"

	"github.com/bobblez1/blob2/logging"
)

const (
	// EventFoodEaten is emitted once per tick for the food batch an actor ate.
	EventFoodEaten logging.EventType = "predation.food_eaten"
	// EventBotConsumed is emitted when one bot eats another.
	EventBotConsumed logging.EventType = "predation.bot_consumed"
	// EventPlayerConsumedBot is emitted when the player eats a bot.
	EventPlayerConsumedBot logging.EventType = "predation.player_consumed_bot"
	// EventPlayerKilled is emitted when a larger bot catches the player.
	EventPlayerKilled logging.EventType = "predation.player_killed"
)

// FoodEatenPayload summarises one tick of food pickups.
type FoodEatenPayload struct {
	Count  int     `json:"count"`
	Growth float64 `json:"growth"`
	Size   float64 `json:"size"`
}

// ConsumedPayload describes a blob swallowing another.
type ConsumedPayload struct {
	PreySize float64 `json:"preySize"`
	Growth   float64 `json:"growth"`
	Points   int     `json:"points,omitempty"`
}

// PlayerKilledPayload captures the fatal contact.
type PlayerKilledPayload struct {
	KillerSize float64 `json:"killerSize"`
	PlayerSize float64 `json:"playerSize"`
	Revived    bool    `json:"revived"`
}

// FoodEaten publishes a food batch event.
func FoodEaten(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload FoodEatenPayload, extra map[string]any) {
	if pub == nil || payload.Count == 0 {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventFoodEaten,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityDebug,
		Category: logging.CategoryPredation,
		Payload:  payload,
		Extra:    extra,
	})
}

// BotConsumed publishes a bot-on-bot predation.
func BotConsumed(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, prey logging.EntityRef, payload ConsumedPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventBotConsumed,
		Tick:     tick,
		Actor:    actor,
		Targets:  []logging.EntityRef{prey},
		Severity: logging.SeverityDebug,
		Category: logging.CategoryPredation,
		Payload:  payload,
		Extra:    extra,
	})
}

// PlayerConsumedBot publishes a player kill.
func PlayerConsumedBot(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, prey logging.EntityRef, payload ConsumedPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventPlayerConsumedBot,
		Tick:     tick,
		Actor:    actor,
		Targets:  []logging.EntityRef{prey},
		Severity: logging.SeverityInfo,
		Category: logging.CategoryPredation,
		Payload:  payload,
		Extra:    extra,
	})
}

// PlayerKilled publishes the player's death. actor is the killer.
func PlayerKilled(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, player logging.EntityRef, payload PlayerKilledPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventPlayerKilled,
		Tick:     tick,
		Actor:    actor,
		Targets:  []logging.EntityRef{player},
		Severity: logging.SeverityWarn,
		Category: logging.CategoryPredation,
		Payload:  payload,
		Extra:    extra,
	})
}
