// Package web serves the board's static frontend.
package web

import (
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

type Server struct {
	Dir string
}

// Middleware serves files from Dir without caching. Unknown paths get
// index.html so client-side routes resolve; /api and /ws are left to the
// router.
func (s *Server) Middleware() echo.MiddlewareFunc {
	static := middleware.StaticWithConfig(middleware.StaticConfig{
		Root:    s.Dir,
		Index:   "index.html",
		HTML5:   true,
		Skipper: routed,
	})
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		serve := static(next)
		return func(c echo.Context) error {
			if !routed(c) {
				h := c.Response().Header()
				h.Set("Cache-Control", "no-store")
				h.Set("Pragma", "no-cache")
				h.Set("Expires", "0")
			}
			return serve(c)
		}
	}
}

func routed(c echo.Context) bool {
	p := c.Request().URL.Path
	return p == "/api" || strings.HasPrefix(p, "/api/") || p == "/ws"
}
