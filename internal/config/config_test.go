package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bobblez1/blob2/internal/modes"
	"github.com/bobblez1/blob2/internal/world"
	"github.com/bobblez1/blob2/logging"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if got := cfg.BotCount(modes.BattleRoyale); got != 20 {
		t.Fatalf("expected 20 battle royale bots, got %d", got)
	}
	if got := cfg.TickInterval(); got != time.Second/60 {
		t.Fatalf("unexpected tick interval %s", got)
	}
	if got := cfg.ModeParams().InitialRadius; got != 500 {
		t.Fatalf("expected initial radius 500, got %f", got)
	}
}

func TestDecodeOverridesDefaults(t *testing.T) {
	cfg, err := Decode([]byte(`
mode: battleRoyale
world:
  width: 800
bots:
  decisionInterval: 200ms
decay:
  interval: 3s
logging:
  sinks: [console, json]
  jsonPath: events.jsonl
`))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	cfg = cfg.Normalized()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid config: %v", err)
	}
	if cfg.ModeKind() != modes.BattleRoyale || cfg.Mode != "battle_royale" {
		t.Fatalf("expected canonical battle royale, got %q", cfg.Mode)
	}
	if cfg.World.Width != 800 || cfg.World.Height != world.DefaultHeight {
		t.Fatalf("expected partial world override, got %+v", cfg.World)
	}
	if cfg.AIParams().DecisionInterval != 200*time.Millisecond {
		t.Fatalf("unexpected decision interval %s", cfg.AIParams().DecisionInterval)
	}
	if cfg.GrowthParams().Interval != 3*time.Second {
		t.Fatalf("unexpected decay interval %s", cfg.GrowthParams().Interval)
	}
	router := cfg.RouterConfig()
	if !router.HasSink(logging.SinkJSON) || router.JSON.FilePath != "events.jsonl" {
		t.Fatalf("unexpected router config %+v", router)
	}
}

func TestDecodeRejectsUnknownKeys(t *testing.T) {
	_, err := Decode([]byte("wrold:\n  width: 10\n"))
	if !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid for unknown key, got %v", err)
	}
}

func TestDecodeRejectsBadDuration(t *testing.T) {
	if _, err := Decode([]byte("decay:\n  interval: soon\n")); err == nil {
		t.Fatalf("expected duration parse error")
	}
}

func TestValidateRejects(t *testing.T) {
	cases := map[string]func(*Config){
		"unknown mode":     func(c *Config) { c.Mode = "zen" },
		"bad team":         func(c *Config) { c.Team = "green" },
		"zero width":       func(c *Config) { c.World.Width = 0 },
		"negative bots":    func(c *Config) { c.Bots.Team = -1 },
		"negative decay":   func(c *Config) { c.Decay.Amount = -0.5 },
		"food sizes":       func(c *Config) { c.Food.MaxSize = 1 },
		"point multiplier": func(c *Config) { c.Modifiers.PointMultiplier = 0.5 },
		"unknown sink":     func(c *Config) { c.Logging.Sinks = []string{"kafka"} },
		"severity":         func(c *Config) { c.Logging.MinimumSeverity = "loud" },
	}
	for name, mutate := range cases {
		cfg := Default()
		mutate(&cfg)
		if err := cfg.Validate(); !errors.Is(err, ErrInvalid) {
			t.Fatalf("%s: expected ErrInvalid, got %v", name, err)
		}
	}
	cfg := Default()
	cfg.Mode = "deathmatch"
	if err := cfg.Validate(); !errors.Is(err, modes.ErrUnknownMode) {
		t.Fatalf("expected unknown mode to surface ErrUnknownMode, got %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "arena.yaml")
	if err := os.WriteFile(path, []byte("seed: fixed\nteam: red\nmode: team\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Seed != "fixed" || cfg.PlayerTeam() != world.TeamA {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
	if cfg, err := Load(""); err != nil || cfg.Seed != world.DefaultSeed {
		t.Fatalf("empty path should return defaults, got %v", err)
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		EnvMode:        "timeAttack",
		EnvSeed:        " s2 ",
		EnvTickRate:    "30",
		EnvEnablePprof: "true",
		EnvAddr:        ":9999",
	}
	cfg, err := Default().ApplyEnv(func(k string) string { return env[k] })
	if err != nil {
		t.Fatalf("apply env: %v", err)
	}
	cfg = cfg.Normalized()
	if cfg.Mode != "time_attack" || cfg.Seed != "s2" || cfg.Tick.Rate != 30 {
		t.Fatalf("unexpected overrides %+v", cfg)
	}
	if !cfg.Observability.EnablePprofTrace || cfg.Server.Addr != ":9999" {
		t.Fatalf("expected pprof and addr overrides")
	}

	env[EnvTickRate] = "fast"
	if _, err := Default().ApplyEnv(func(k string) string { return env[k] }); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid for bad tick rate, got %v", err)
	}
}
