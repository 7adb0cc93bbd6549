package net

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	nethttp "net/http"
	"net/http/pprof"
	"time"

	"github.com/bobblez1/blob2/internal/config"
	"github.com/bobblez1/blob2/internal/modes"
	"github.com/bobblez1/blob2/internal/observability"
	"github.com/bobblez1/blob2/internal/telemetry"
)

// SessionInfo summarises the running session.
type SessionInfo struct {
	ID      string `json:"id"`
	Mode    string `json:"mode"`
	Team    string `json:"team,omitempty"`
	Seed    string `json:"seed"`
	Tick    uint64 `json:"tick"`
	Score   int    `json:"score"`
	Bots    int    `json:"bots"`
	Foods   int    `json:"foods"`
	Ended   bool   `json:"ended"`
	Cause   string `json:"cause,omitempty"`
	Started int64  `json:"startedAt"`
}

// Diagnostics is the /diagnostics payload.
type Diagnostics struct {
	Session   SessionInfo       `json:"session"`
	TickRate  int               `json:"tickRate"`
	Clients   int               `json:"clients"`
	Telemetry map[string]uint64 `json:"telemetry,omitempty"`
	Logging   any               `json:"logging,omitempty"`
}

// RestartRequest selects the mode and team of the next session. Empty
// fields keep the configured values.
type RestartRequest struct {
	Mode string `json:"mode"`
	Team string `json:"team"`
	Seed string `json:"seed"`
}

// Controller is the session manager seen by the HTTP surface.
type Controller interface {
	Diagnostics() Diagnostics
	Restart(ctx context.Context, req RestartRequest) (SessionInfo, error)
}

type HTTPHandlerConfig struct {
	Logger        telemetry.Logger
	Observability observability.Config
	// WebSocket serves /ws when set.
	WebSocket nethttp.Handler
}

func NewHTTPHandler(ctrl Controller, cfg HTTPHandlerConfig) nethttp.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = telemetry.Discard()
	}

	mux := nethttp.NewServeMux()

	mux.HandleFunc("/health", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("ok"))
	})

	mux.HandleFunc("/diagnostics", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		payload := struct {
			Status     string `json:"status"`
			ServerTime int64  `json:"serverTime"`
			Diagnostics
		}{
			Status:      "ok",
			ServerTime:  time.Now().UnixMilli(),
			Diagnostics: ctrl.Diagnostics(),
		}
		writeJSON(w, logger, nethttp.StatusOK, payload)
	})

	mux.HandleFunc("/session/restart", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.Method != nethttp.MethodPost {
			httpError(w, "method not allowed", nethttp.StatusMethodNotAllowed)
			return
		}

		var req RestartRequest
		if r.Body != nil {
			defer r.Body.Close()
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
				httpError(w, "invalid payload", nethttp.StatusBadRequest)
				return
			}
		}

		info, err := ctrl.Restart(r.Context(), req)
		switch {
		case errors.Is(err, modes.ErrUnknownMode), errors.Is(err, config.ErrInvalid):
			httpError(w, err.Error(), nethttp.StatusBadRequest)
			return
		case err != nil:
			logger.Printf("[http] restart failed: %v", err)
			httpError(w, "restart failed", nethttp.StatusInternalServerError)
			return
		}

		response := struct {
			Status  string      `json:"status"`
			Session SessionInfo `json:"session"`
		}{Status: "ok", Session: info}
		writeJSON(w, logger, nethttp.StatusOK, response)
	})

	if cfg.WebSocket != nil {
		mux.Handle("/ws", cfg.WebSocket)
	}

	if cfg.Observability.EnablePprofTrace {
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	}

	return mux
}

func writeJSON(w nethttp.ResponseWriter, logger telemetry.Logger, status int, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		logger.Printf("[http] failed to encode response: %v", err)
		httpError(w, "failed to encode", nethttp.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data)
}

func httpError(w nethttp.ResponseWriter, msg string, code int) {
	nethttp.Error(w, msg, code)
}
