package api

import (
	"net/http"
	"runtime"
	"time"

	"github.com/labstack/echo/v4"
)

type DiagnosticsInfo struct {
	HTTPAddr  string   `json:"http_addr"`
	Store     string   `json:"store"`
	WebDir    string   `json:"web_dir"`
	Providers []string `json:"embedding_providers"`
	Relay     string   `json:"relay"`
}

type DiagnosticsResponse struct {
	Time          time.Time       `json:"time"`
	StartedAt     time.Time       `json:"started_at"`
	UptimeSeconds int64           `json:"uptime_seconds"`
	GoVersion     string          `json:"go_version"`
	Subscribers   int             `json:"subscribers"`
	Info          DiagnosticsInfo `json:"info"`
}

func (s *Server) handleDiagnostics(c echo.Context) error {
	now := time.Now().UTC()
	started := s.StartedAt
	if started.IsZero() {
		started = now
	}
	resp := DiagnosticsResponse{
		Time:          now,
		StartedAt:     started,
		UptimeSeconds: int64(now.Sub(started).Seconds()),
		GoVersion:     runtime.Version(),
		Info:          s.Info,
	}
	if s.Info.Providers == nil {
		resp.Info.Providers = []string{}
	}
	if s.Hub != nil {
		resp.Subscribers = s.Hub.Len()
	}
	return c.JSON(http.StatusOK, resp)
}
