package logging

import (
	"slices"
	"time"
)

// Sink names accepted in Config.EnabledSinks.
const (
	SinkConsole = "console"
	SinkJSON    = "json"
)

// Config selects the sinks of the session event log and how much backlog the
// router tolerates before dropping.
type Config struct {
	EnabledSinks    []string
	BufferSize      int
	MinimumSeverity Severity
	JSON            JSONConfig
}

// JSONConfig places the JSON-lines file. An empty FilePath lets the caller
// pick a default.
type JSONConfig struct {
	FilePath      string
	FlushInterval time.Duration
}

func DefaultConfig() Config {
	return Config{
		EnabledSinks:    []string{SinkConsole},
		BufferSize:      defaultBufferSize,
		MinimumSeverity: SeverityInfo,
		JSON:            JSONConfig{FlushInterval: 2 * time.Second},
	}
}

func (c Config) HasSink(name string) bool {
	return slices.Contains(c.EnabledSinks, name)
}
