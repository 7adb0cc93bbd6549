package proto

import (
	"github.com/bobblez1/blob2/internal/sim"
	"github.com/bobblez1/blob2/internal/world"
)

const (
	// Version tracks the wire-protocol revision expected by clients.
	Version = 1

	// Server message type identifiers.
	TypeSnapshot = "snapshot"
	TypeEvent    = "event"
	TypeHello    = "hello"

	// Client message type identifiers.
	TypeSteer = "steer"
)

// Roles a websocket client can connect with.
const (
	RoleSpectator = "spectator"
	RolePilot     = "pilot"
)

// Blob is the wire form of a player or bot.
type Blob struct {
	ID    string  `json:"id" msgpack:"id"`
	Name  string  `json:"name,omitempty" msgpack:"name,omitempty"`
	X     float64 `json:"x" msgpack:"x"`
	Y     float64 `json:"y" msgpack:"y"`
	Size  float64 `json:"size" msgpack:"size"`
	Color string  `json:"color,omitempty" msgpack:"color,omitempty"`
	Team  string  `json:"team,omitempty" msgpack:"team,omitempty"`
}

// Food is the wire form of a pellet.
type Food struct {
	ID    string  `json:"id" msgpack:"id"`
	X     float64 `json:"x" msgpack:"x"`
	Y     float64 `json:"y" msgpack:"y"`
	Size  float64 `json:"size" msgpack:"size"`
	Color string  `json:"color,omitempty" msgpack:"color,omitempty"`
}

// Zone describes the Battle Royale safe area.
type Zone struct {
	X      float64 `json:"x" msgpack:"x"`
	Y      float64 `json:"y" msgpack:"y"`
	Radius float64 `json:"radius" msgpack:"radius"`
}

// Snapshot is a full-state frame sent to websocket clients.
type Snapshot struct {
	Ver             int     `json:"ver" msgpack:"ver"`
	Type            string  `json:"type" msgpack:"type"`
	Session         string  `json:"session" msgpack:"session"`
	Tick            uint64  `json:"tick" msgpack:"tick"`
	ElapsedMS       int64   `json:"elapsedMs" msgpack:"elapsedMs"`
	Mode            string  `json:"mode" msgpack:"mode"`
	TimeRemainingMS int64   `json:"timeRemainingMs,omitempty" msgpack:"timeRemainingMs,omitempty"`
	Zone            *Zone   `json:"zone,omitempty" msgpack:"zone,omitempty"`
	Width           float64 `json:"width" msgpack:"width"`
	Height          float64 `json:"height" msgpack:"height"`
	Score           int     `json:"score" msgpack:"score"`
	Stage           string  `json:"stage" msgpack:"stage"`
	Ended           bool    `json:"ended,omitempty" msgpack:"ended,omitempty"`
	Cause           string  `json:"cause,omitempty" msgpack:"cause,omitempty"`
	Player          Blob    `json:"player" msgpack:"player"`
	Bots            []Blob  `json:"bots" msgpack:"bots"`
	Foods           []Food  `json:"foods" msgpack:"foods"`
}

// EventFrame forwards one engine event to clients.
type EventFrame struct {
	Ver     int       `json:"ver" msgpack:"ver"`
	Type    string    `json:"type" msgpack:"type"`
	Session string    `json:"session" msgpack:"session"`
	Event   sim.Event `json:"event" msgpack:"event"`
}

// Hello is the first frame on every connection.
type Hello struct {
	Ver     int    `json:"ver" msgpack:"ver"`
	Type    string `json:"type" msgpack:"type"`
	Session string `json:"session" msgpack:"session"`
	Role    string `json:"role" msgpack:"role"`
	Codec   string `json:"codec" msgpack:"codec"`
}

// ClientMessage is anything a client sends. Only steer is understood.
type ClientMessage struct {
	Ver  int     `json:"ver,omitempty" msgpack:"ver,omitempty"`
	Type string  `json:"type" msgpack:"type"`
	DX   float64 `json:"dx" msgpack:"dx"`
	DY   float64 `json:"dy" msgpack:"dy"`
}

// NewSnapshot converts an engine snapshot into its wire form.
func NewSnapshot(session string, snap sim.Snapshot) Snapshot {
	msg := Snapshot{
		Ver:       Version,
		Type:      TypeSnapshot,
		Session:   session,
		Tick:      snap.Tick,
		ElapsedMS: snap.Elapsed.Milliseconds(),
		Mode:      string(snap.Mode),
		Width:     snap.Bounds.Width,
		Height:    snap.Bounds.Height,
		Score:     snap.Score,
		Stage:     snap.Stage.String(),
		Ended:     snap.Ended,
		Cause:     string(snap.Cause),
		Player: Blob{
			ID:    snap.Player.ID.String(),
			Name:  snap.Player.Name,
			X:     snap.Player.X,
			Y:     snap.Player.Y,
			Size:  snap.Player.Size,
			Color: snap.Player.Color,
			Team:  snap.Player.Team.String(),
		},
		Bots:  make([]Blob, 0, len(snap.Bots)),
		Foods: make([]Food, 0, len(snap.Foods)),
	}
	if snap.TimeRemaining > 0 {
		msg.TimeRemainingMS = snap.TimeRemaining.Milliseconds()
	}
	if snap.SafeRadius > 0 {
		msg.Zone = &Zone{X: snap.Center.X, Y: snap.Center.Y, Radius: snap.SafeRadius}
	}
	for _, b := range snap.Bots {
		msg.Bots = append(msg.Bots, botBlob(b))
	}
	for _, f := range snap.Foods {
		msg.Foods = append(msg.Foods, Food{ID: f.ID.String(), X: f.X, Y: f.Y, Size: f.Size, Color: f.Color})
	}
	return msg
}

func botBlob(b world.Bot) Blob {
	return Blob{
		ID:    b.ID.String(),
		Name:  b.Name,
		X:     b.X,
		Y:     b.Y,
		Size:  b.Size,
		Color: b.Color,
		Team:  b.Team.String(),
	}
}

// NewEventFrame wraps an engine event.
func NewEventFrame(session string, ev sim.Event) EventFrame {
	return EventFrame{Ver: Version, Type: TypeEvent, Session: session, Event: ev}
}

// NewHello builds the greeting frame.
func NewHello(session, role, codec string) Hello {
	return Hello{Ver: Version, Type: TypeHello, Session: session, Role: role, Codec: codec}
}
