package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"

	"github.com/flitsinc/agentboard/internal/board"
	"github.com/flitsinc/agentboard/internal/notify"
)

type Server struct {
	Board     *board.Service
	Hub       *notify.Hub
	Log       logrus.FieldLogger
	StartedAt time.Time
	Info      DiagnosticsInfo
	// Web serves every path outside /api and /ws when set.
	Web echo.MiddlewareFunc
}

func (s *Server) Handler() http.Handler {
	return s.Echo()
}

func (s *Server) Echo() *echo.Echo {
	if s.Log == nil {
		s.Log = logrus.StandardLogger()
	}
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = s.handleHTTPError

	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
	}))
	e.Use(requestLogger(s.Log))

	e.GET("/api/health", s.handleHealth)
	e.GET("/api/diagnostics", s.handleDiagnostics)

	e.GET("/api/boards", s.listBoards)
	e.POST("/api/boards", s.createBoard)
	e.GET("/api/boards/:id", s.getBoard)
	e.DELETE("/api/boards/:id", s.deleteBoard)
	e.GET("/api/boards/:id/tasks", s.listBoardTasks)
	e.GET("/api/boards/:id/members", s.listBoardMembers)
	e.POST("/api/boards/:id/members", s.addBoardMember)
	e.DELETE("/api/boards/:id/members/:mid", s.removeBoardMember)
	e.GET("/api/boards/:id/docs", s.listBoardDocuments)
	e.POST("/api/boards/:id/docs", s.createDocument)

	e.POST("/api/tasks", s.createTask)
	e.GET("/api/tasks/:id", s.getTask)
	e.PUT("/api/tasks/:id", s.updateTask)
	e.GET("/api/tasks/:id/activities", s.listActivities)
	e.GET("/api/search", s.searchTasks)

	e.GET("/api/members", s.listMembers)
	e.POST("/api/members", s.upsertMember)

	e.GET("/api/docs/search", s.searchDocuments)
	e.GET("/api/docs/:id", s.getDocument)
	e.PUT("/api/docs/:id", s.updateDocument)
	e.DELETE("/api/docs/:id", s.deleteDocument)

	e.GET("/ws", s.handleWS)

	if s.Web != nil {
		e.Use(s.Web)
	}
	return e
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{"status": "ok", "time": time.Now().UTC()})
}

// writeError renders err as plain text with the status of its kind.
func (s *Server) writeError(c echo.Context, err error) error {
	status := statusFor(board.KindOf(err))
	if status == http.StatusInternalServerError {
		s.Log.WithError(err).WithFields(logrus.Fields{
			"method": c.Request().Method,
			"path":   c.Path(),
		}).Error("request failed")
	}
	return c.String(status, err.Error())
}

func statusFor(k board.Kind) int {
	switch k {
	case board.KindBadRequest:
		return http.StatusBadRequest
	case board.KindNotFound:
		return http.StatusNotFound
	case board.KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) handleHTTPError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		_ = c.String(he.Code, fmt.Sprint(he.Message))
		return
	}
	_ = s.writeError(c, err)
}

func decodeJSON(body io.Reader, dest any) error {
	if err := json.NewDecoder(body).Decode(dest); err != nil {
		return board.BadRequest("invalid JSON body: %v", err)
	}
	return nil
}

func parseID(c echo.Context, name, target string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, board.BadRequest("invalid %s id %q", target, c.Param(name))
	}
	return id, nil
}

func requestLogger(log logrus.FieldLogger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			log.WithFields(logrus.Fields{
				"method":   c.Request().Method,
				"path":     c.Request().URL.Path,
				"status":   c.Response().Status,
				"duration": time.Since(start).String(),
			}).Debug("request")
			return nil
		}
	}
}
