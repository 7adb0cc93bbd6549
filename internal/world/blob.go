package world

import (
	"fmt"
	"strings"
	"time"
)

// EntityID identifies a blob for its whole lifetime. IDs are allocated
// monotonically per world and never reused.
type EntityID uint64

func (id EntityID) String() string {
	return fmt.Sprintf("%d", uint64(id))
}

// Kind tags the variant stored in an Entity.
type Kind uint8

const (
	KindPlayer Kind = iota + 1
	KindBot
	KindFood
)

func (k Kind) String() string {
	switch k {
	case KindPlayer:
		return "player"
	case KindBot:
		return "bot"
	case KindFood:
		return "food"
	default:
		return "unknown"
	}
}

// Team is the side a blob plays for in Team mode.
type Team uint8

const (
	TeamNone Team = iota
	TeamA
	TeamB
)

func (t Team) String() string {
	switch t {
	case TeamA:
		return "red"
	case TeamB:
		return "blue"
	default:
		return ""
	}
}

// Opponent returns the other team, or TeamNone for TeamNone.
func (t Team) Opponent() Team {
	switch t {
	case TeamA:
		return TeamB
	case TeamB:
		return TeamA
	default:
		return TeamNone
	}
}

// ParseTeam accepts "red"/"a" and "blue"/"b"; the empty string is TeamNone.
func ParseTeam(raw string) (Team, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return TeamNone, nil
	case "red", "a":
		return TeamA, nil
	case "blue", "b":
		return TeamB, nil
	default:
		return TeamNone, fmt.Errorf("unknown team %q", raw)
	}
}

// SameTeam reports whether two blobs are teammates. Blobs without a team are
// never teammates, so outside Team mode every pair is eligible for predation.
func SameTeam(a, b Team) bool {
	return a != TeamNone && a == b
}

// Blob is the shared shape of every arena entity. Size is the diameter.
type Blob struct {
	ID    EntityID
	X     float64
	Y     float64
	Size  float64
	Color string
}

// Pos returns the blob centre.
func (b *Blob) Pos() Vec {
	return Vec{X: b.X, Y: b.Y}
}

// Radius returns half the diameter.
func (b *Blob) Radius() float64 {
	return b.Size / 2
}

// Player is the single controller-driven blob of a session.
type Player struct {
	Blob
	Name string
	Team Team
}

// Bot is an AI-driven blob. Its decision and wander timestamps are measured
// on the session clock so each bot's throttling state is self-contained.
type Bot struct {
	Blob
	Name             string
	Team             Team
	VX               float64
	VY               float64
	Heading          Vec // unscaled wander direction
	Aggression       float64
	LastDecision     time.Duration
	LastWanderChange time.Duration
}

// Velocity returns the bot's current per-frame velocity.
func (b *Bot) Velocity() Vec {
	return Vec{X: b.VX, Y: b.VY}
}

// SetVelocity stores a per-frame velocity.
func (b *Bot) SetVelocity(v Vec) {
	b.VX = v.X
	b.VY = v.Y
}

// Food is a passive pellet consumed on contact.
type Food struct {
	Blob
}

// Entity is a tagged reference to one blob. Exactly the pointer matching Kind
// is set.
type Entity struct {
	Kind   Kind
	Player *Player
	Bot    *Bot
	Food   *Food
}

// PlayerEntity wraps a player.
func PlayerEntity(p *Player) Entity { return Entity{Kind: KindPlayer, Player: p} }

// BotEntity wraps a bot.
func BotEntity(b *Bot) Entity { return Entity{Kind: KindBot, Bot: b} }

// FoodEntity wraps a food pellet.
func FoodEntity(f *Food) Entity { return Entity{Kind: KindFood, Food: f} }

// Blob returns the shared core of the referenced entity.
func (e Entity) Blob() *Blob {
	switch e.Kind {
	case KindPlayer:
		return &e.Player.Blob
	case KindBot:
		return &e.Bot.Blob
	case KindFood:
		return &e.Food.Blob
	default:
		return nil
	}
}

// Team returns the team of players and bots; food never has a team.
func (e Entity) Team() Team {
	switch e.Kind {
	case KindPlayer:
		return e.Player.Team
	case KindBot:
		return e.Bot.Team
	default:
		return TeamNone
	}
}

// ID returns the entity id.
func (e Entity) ID() EntityID {
	if b := e.Blob(); b != nil {
		return b.ID
	}
	return 0
}
