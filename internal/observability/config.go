package observability

// Config captures opt-in observability toggles that wire into the arena
// server.
type Config struct {
	// EnablePprofTrace mounts net/http/pprof under /debug/pprof.
	EnablePprofTrace bool `yaml:"enablePprofTrace" json:"enablePprofTrace"`
}
