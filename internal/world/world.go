package world

const (
	DefaultSeed   = "arena"
	DefaultWidth  = 1000.0
	DefaultHeight = 1500.0
)

// IDSet is a set of entity ids staged for removal.
type IDSet map[EntityID]struct{}

// Add inserts id into the set.
func (s IDSet) Add(id EntityID) { s[id] = struct{}{} }

// Has reports whether id is in the set.
func (s IDSet) Has(id EntityID) bool {
	_, ok := s[id]
	return ok
}

// World owns the entity set of one session: exactly one player plus the bot
// and food populations inside a bounded rectangle.
type World struct {
	Bounds Bounds
	Player *Player
	Bots   []*Bot
	Foods  []*Food

	nextID EntityID
}

// New constructs an empty world. Non-positive dimensions fall back to the
// defaults.
func New(bounds Bounds) *World {
	if bounds.Width <= 0 {
		bounds.Width = DefaultWidth
	}
	if bounds.Height <= 0 {
		bounds.Height = DefaultHeight
	}
	return &World{Bounds: bounds}
}

// NextID allocates a fresh entity id.
func (w *World) NextID() EntityID {
	w.nextID++
	return w.nextID
}

// PlacePlayer creates the session player at the world centre, replacing any
// previous player.
func (w *World) PlacePlayer(name string, size float64, team Team, color string) *Player {
	center := w.Bounds.Center()
	x, y := w.Bounds.Clamp(center.X, center.Y, size)
	w.Player = &Player{
		Blob: Blob{ID: w.NextID(), X: x, Y: y, Size: size, Color: color},
		Name: name,
		Team: team,
	}
	return w.Player
}

// AddBot appends a bot, assigning an id when it has none.
func (w *World) AddBot(b *Bot) *Bot {
	if b == nil {
		return nil
	}
	if b.ID == 0 {
		b.ID = w.NextID()
	}
	w.Bots = append(w.Bots, b)
	return b
}

// AddFood appends a food pellet, assigning an id when it has none.
func (w *World) AddFood(f *Food) *Food {
	if f == nil {
		return nil
	}
	if f.ID == 0 {
		f.ID = w.NextID()
	}
	w.Foods = append(w.Foods, f)
	return f
}

// Bot returns the bot with the given id.
func (w *World) Bot(id EntityID) *Bot {
	for _, b := range w.Bots {
		if b.ID == id {
			return b
		}
	}
	return nil
}

// RemoveBots drops every bot whose id is in removed and returns how many were
// dropped.
func (w *World) RemoveBots(removed IDSet) int {
	if len(removed) == 0 {
		return 0
	}
	kept := w.Bots[:0]
	for _, b := range w.Bots {
		if !removed.Has(b.ID) {
			kept = append(kept, b)
		}
	}
	dropped := len(w.Bots) - len(kept)
	for i := len(kept); i < len(w.Bots); i++ {
		w.Bots[i] = nil
	}
	w.Bots = kept
	return dropped
}

// RemoveFoods drops every food pellet whose id is in removed and returns how
// many were dropped.
func (w *World) RemoveFoods(removed IDSet) int {
	if len(removed) == 0 {
		return 0
	}
	kept := w.Foods[:0]
	for _, f := range w.Foods {
		if !removed.Has(f.ID) {
			kept = append(kept, f)
		}
	}
	dropped := len(w.Foods) - len(kept)
	for i := len(kept); i < len(w.Foods); i++ {
		w.Foods[i] = nil
	}
	w.Foods = kept
	return dropped
}

// Entities lists every live entity: the player first, then bots, then food.
func (w *World) Entities() []Entity {
	out := make([]Entity, 0, 1+len(w.Bots)+len(w.Foods))
	if w.Player != nil {
		out = append(out, PlayerEntity(w.Player))
	}
	for _, b := range w.Bots {
		out = append(out, BotEntity(b))
	}
	for _, f := range w.Foods {
		out = append(out, FoodEntity(f))
	}
	return out
}

// Clone deep-copies the world so a tick can mutate the copy and commit it
// only once the whole tick succeeded.
func (w *World) Clone() *World {
	if w == nil {
		return nil
	}
	cloned := &World{
		Bounds: w.Bounds,
		nextID: w.nextID,
		Bots:   make([]*Bot, len(w.Bots)),
		Foods:  make([]*Food, len(w.Foods)),
	}
	if w.Player != nil {
		p := *w.Player
		cloned.Player = &p
	}
	for i, b := range w.Bots {
		copied := *b
		cloned.Bots[i] = &copied
	}
	for i, f := range w.Foods {
		copied := *f
		cloned.Foods[i] = &copied
	}
	return cloned
}
