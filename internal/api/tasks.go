package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/flitsinc/agentboard/internal/board"
)

func (s *Server) createTask(c echo.Context) error {
	var in board.NewTask
	if err := decodeJSON(c.Request().Body, &in); err != nil {
		return s.writeError(c, err)
	}
	t, err := s.Board.CreateTask(c.Request().Context(), in)
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(http.StatusCreated, t)
}

func (s *Server) getTask(c echo.Context) error {
	id, err := parseID(c, "id", "task")
	if err != nil {
		return s.writeError(c, err)
	}
	t, err := s.Board.GetTask(c.Request().Context(), id)
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(http.StatusOK, t)
}

func (s *Server) updateTask(c echo.Context) error {
	id, err := parseID(c, "id", "task")
	if err != nil {
		return s.writeError(c, err)
	}
	var patch board.TaskPatch
	if err := decodeJSON(c.Request().Body, &patch); err != nil {
		return s.writeError(c, err)
	}
	t, err := s.Board.UpdateTask(c.Request().Context(), id, patch)
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(http.StatusOK, t)
}

func (s *Server) listActivities(c echo.Context) error {
	id, err := parseID(c, "id", "task")
	if err != nil {
		return s.writeError(c, err)
	}
	items, err := s.Board.ListActivities(c.Request().Context(), id)
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(http.StatusOK, items)
}

func (s *Server) searchTasks(c echo.Context) error {
	items, err := s.Board.SearchTasks(c.Request().Context(), c.QueryParam("q"), c.QueryParam("board_id"))
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(http.StatusOK, items)
}
