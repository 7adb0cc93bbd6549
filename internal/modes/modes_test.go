package modes

import (
	"errors"
	"testing"
	"time"

	"github.com/bobblez1/blob2/internal/world"
)

var testBounds = world.Bounds{Width: 1000, Height: 1500}

func newState(t *testing.T, kind Kind) *State {
	t.Helper()
	s, err := NewState(kind, DefaultParams(testBounds), testBounds.Center())
	if err != nil {
		t.Fatalf("NewState(%s) returned error: %v", kind, err)
	}
	return s
}

func TestParseAcceptsBothSpellings(t *testing.T) {
	cases := map[string]Kind{
		"classic":       Classic,
		"timeAttack":    TimeAttack,
		"time_attack":   TimeAttack,
		"battleRoyale":  BattleRoyale,
		"battle-royale": BattleRoyale,
		" Team ":        Team,
	}
	for raw, want := range cases {
		got, err := Parse(raw)
		if err != nil || got != want {
			t.Fatalf("Parse(%q) = %q, %v; want %q", raw, got, err, want)
		}
	}
}

func TestUnknownModeIsFatal(t *testing.T) {
	if _, err := Parse("deathmatch"); !errors.Is(err, ErrUnknownMode) {
		t.Fatalf("expected ErrUnknownMode, got %v", err)
	}
	if _, err := NewState(Kind("zen"), DefaultParams(testBounds), world.Vec{}); !errors.Is(err, ErrUnknownMode) {
		t.Fatalf("expected NewState to reject unknown modes, got %v", err)
	}
}

func TestTimeAttackCountsWholeSeconds(t *testing.T) {
	s := newState(t, TimeAttack)
	for i := 0; i < 59; i++ {
		s.Advance(16 * time.Millisecond)
	}
	if s.TimeRemaining != 180*time.Second {
		t.Fatalf("less than a second elapsed, countdown should not move: %s", s.TimeRemaining)
	}
	s.Advance(100 * time.Millisecond)
	if s.TimeRemaining != 179*time.Second {
		t.Fatalf("expected one second consumed, got %s", s.TimeRemaining)
	}
	s.Advance(200 * time.Second)
	if s.TimeRemaining != 0 || !s.Expired() {
		t.Fatalf("expected countdown to hit zero, got %s", s.TimeRemaining)
	}
	if got := s.Victory(5, true); got != CauseTimeExpired {
		t.Fatalf("expected time_expired, got %q", got)
	}
	if got := s.ElapsedFraction(); got != 1 {
		t.Fatalf("expected elapsed fraction 1, got %f", got)
	}
}

func TestBattleRoyaleRadiusIsMonotoneAndFloored(t *testing.T) {
	s := newState(t, BattleRoyale)
	if s.SafeRadius != 500 {
		t.Fatalf("expected initial radius 500, got %f", s.SafeRadius)
	}
	prev := s.SafeRadius
	for i := 0; i < 400; i++ {
		s.Advance(700 * time.Millisecond)
		if s.SafeRadius > prev {
			t.Fatalf("radius grew from %f to %f", prev, s.SafeRadius)
		}
		if s.SafeRadius < 100 {
			t.Fatalf("radius %f below floor", s.SafeRadius)
		}
		prev = s.SafeRadius
	}
	if s.SafeRadius != 100 {
		t.Fatalf("expected radius to settle at floor, got %f", s.SafeRadius)
	}
}

func TestOutsideZoneOnlyInBattleRoyale(t *testing.T) {
	br := newState(t, BattleRoyale)
	if !br.OutsideZone(0, 0) {
		t.Fatalf("corner should be outside the initial zone")
	}
	if br.OutsideZone(500, 750) {
		t.Fatalf("centre should be inside the zone")
	}
	classic := newState(t, Classic)
	if classic.OutsideZone(0, 0) {
		t.Fatalf("classic has no zone")
	}
}

func TestVictoryRules(t *testing.T) {
	br := newState(t, BattleRoyale)
	if got := br.Victory(0, true); got != CauseLastStanding {
		t.Fatalf("expected last_standing, got %q", got)
	}
	if got := br.Victory(0, false); got != CauseNone {
		t.Fatalf("dead player cannot win, got %q", got)
	}
	if got := br.Victory(3, true); got != CauseNone {
		t.Fatalf("bots remain, got %q", got)
	}
	if br.RespawnsBots() {
		t.Fatalf("battle royale must not respawn bots")
	}
	classic := newState(t, Classic)
	if got := classic.Victory(0, true); got != CauseNone {
		t.Fatalf("classic has no win condition, got %q", got)
	}
}
