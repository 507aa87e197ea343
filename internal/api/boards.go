package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/flitsinc/agentboard/internal/board"
)

func (s *Server) listBoards(c echo.Context) error {
	items, err := s.Board.ListBoards(c.Request().Context())
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(http.StatusOK, items)
}

func (s *Server) createBoard(c echo.Context) error {
	var in board.NewBoard
	if err := decodeJSON(c.Request().Body, &in); err != nil {
		return s.writeError(c, err)
	}
	b, err := s.Board.CreateBoard(c.Request().Context(), in)
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(http.StatusCreated, b)
}

func (s *Server) getBoard(c echo.Context) error {
	b, err := s.Board.GetBoard(c.Request().Context(), c.Param("id"))
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(http.StatusOK, b)
}

func (s *Server) deleteBoard(c echo.Context) error {
	if err := s.Board.DeleteBoard(c.Request().Context(), c.Param("id")); err != nil {
		return s.writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) listBoardTasks(c echo.Context) error {
	items, err := s.Board.ListTasks(c.Request().Context(), c.Param("id"), board.TaskFilter{
		ListID:     c.QueryParam("list_id"),
		AssigneeID: c.QueryParam("assignee_id"),
	})
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(http.StatusOK, items)
}

func (s *Server) listBoardMembers(c echo.Context) error {
	items, err := s.Board.ListBoardMembers(c.Request().Context(), c.Param("id"))
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(http.StatusOK, items)
}

func (s *Server) addBoardMember(c echo.Context) error {
	var req board.BoardMemberRequest
	if err := decodeJSON(c.Request().Body, &req); err != nil {
		return s.writeError(c, err)
	}
	bm, err := s.Board.AddBoardMember(c.Request().Context(), c.Param("id"), req)
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(http.StatusCreated, bm)
}

func (s *Server) removeBoardMember(c echo.Context) error {
	if err := s.Board.RemoveBoardMember(c.Request().Context(), c.Param("id"), c.Param("mid")); err != nil {
		return s.writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) listMembers(c echo.Context) error {
	items, err := s.Board.ListMembers(c.Request().Context())
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(http.StatusOK, items)
}

func (s *Server) upsertMember(c echo.Context) error {
	var m board.Member
	if err := decodeJSON(c.Request().Body, &m); err != nil {
		return s.writeError(c, err)
	}
	saved, err := s.Board.UpsertMember(c.Request().Context(), m)
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(http.StatusOK, saved)
}
