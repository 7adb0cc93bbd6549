package ws

import (
	"errors"
	nethttp "net/http"

	"github.com/gorilla/websocket"

	"github.com/bobblez1/blob2/internal/net/proto"
)

// Handler upgrades /ws requests and runs one connection per client.
type Handler struct {
	hub      *Hub
	upgrader websocket.Upgrader
}

func NewHandler(hub *Hub) *Handler {
	return &Handler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *nethttp.Request) bool {
				return true
			},
		},
	}
}

// ServeHTTP accepts ?codec=json|msgpack and ?role=spectator|pilot.
func (h *Handler) ServeHTTP(w nethttp.ResponseWriter, r *nethttp.Request) {
	query := r.URL.Query()
	codec, err := proto.CodecFor(query.Get("codec"))
	if err != nil {
		nethttp.Error(w, err.Error(), nethttp.StatusBadRequest)
		return
	}
	role := query.Get("role")
	switch role {
	case "":
		role = proto.RoleSpectator
	case proto.RoleSpectator, proto.RolePilot:
	default:
		nethttp.Error(w, "unknown role", nethttp.StatusBadRequest)
		return
	}
	if role == proto.RolePilot && h.hub.HasPilot() {
		nethttp.Error(w, ErrPilotTaken.Error(), nethttp.StatusConflict)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.hub.logger.Printf("[ws] upgrade failed: %v", err)
		return
	}

	c := &client{
		conn:  conn,
		codec: codec,
		role:  role,
		send:  make(chan []byte, clientBuffer),
		done:  make(chan struct{}),
	}
	if err := h.hub.register(c); err != nil {
		message := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, err.Error())
		conn.WriteMessage(websocket.CloseMessage, message)
		conn.Close()
		return
	}
	h.hub.logger.Printf("[ws] %s connected codec=%s", role, codec.Name())

	go c.writeLoop(h.hub.logger)
	h.readLoop(c)
}

func (h *Handler) readLoop(c *client) {
	defer h.hub.unregister(c)
	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			var closeErr *websocket.CloseError
			if !errors.As(err, &closeErr) {
				h.hub.logger.Printf("[ws] %s read failed: %v", c.role, err)
			}
			return
		}

		var msg proto.ClientMessage
		if err := c.codec.Unmarshal(payload, &msg); err != nil {
			h.hub.logger.Printf("[ws] discarding malformed message from %s: %v", c.role, err)
			continue
		}

		switch msg.Type {
		case proto.TypeSteer:
			if c.role != proto.RolePilot {
				h.hub.logger.Printf("[ws] steer ignored from spectator")
				continue
			}
			h.hub.Steer(msg.DX, msg.DY)
		default:
			h.hub.logger.Printf("[ws] unknown message type %q from %s", msg.Type, c.role)
		}
	}
}
