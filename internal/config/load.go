package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Environment variables consulted by ApplyEnv.
const (
	EnvMode        = "ARENA_MODE"
	EnvSeed        = "ARENA_SEED"
	EnvTeam        = "ARENA_TEAM"
	EnvTickRate    = "ARENA_TICK_RATE"
	EnvAddr        = "ARENA_ADDR"
	EnvEnablePprof = "ENABLE_PPROF_TRACE"
)

// Load reads a YAML file over the defaults. Unknown keys are rejected. An
// empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	return Decode(data)
}

// Decode parses YAML over the defaults.
func Decode(data []byte) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return cfg, nil
}

// ApplyEnv overrides fields from the environment. getenv is usually
// os.Getenv; blank values are ignored.
func (c Config) ApplyEnv(getenv func(string) string) (Config, error) {
	if getenv == nil {
		return c, nil
	}
	lookup := func(key string) (string, bool) {
		v := strings.TrimSpace(getenv(key))
		return v, v != ""
	}
	if v, ok := lookup(EnvMode); ok {
		c.Mode = v
	}
	if v, ok := lookup(EnvSeed); ok {
		c.Seed = v
	}
	if v, ok := lookup(EnvTeam); ok {
		c.Team = v
	}
	if v, ok := lookup(EnvAddr); ok {
		c.Server.Addr = v
	}
	if v, ok := lookup(EnvTickRate); ok {
		rate, err := strconv.Atoi(v)
		if err != nil {
			return c, fmt.Errorf("%w: %s: %w", ErrInvalid, EnvTickRate, err)
		}
		c.Tick.Rate = rate
	}
	if v, ok := lookup(EnvEnablePprof); ok {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return c, fmt.Errorf("%w: %s: %w", ErrInvalid, EnvEnablePprof, err)
		}
		c.Observability.EnablePprofTrace = enabled
	}
	return c, nil
}
