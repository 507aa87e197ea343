package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/flitsinc/agentboard/internal/board"
)

func (s *Server) listBoardDocuments(c echo.Context) error {
	items, err := s.Board.ListDocuments(c.Request().Context(), c.Param("id"))
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(http.StatusOK, items)
}

func (s *Server) createDocument(c echo.Context) error {
	var in board.NewDocument
	if err := decodeJSON(c.Request().Body, &in); err != nil {
		return s.writeError(c, err)
	}
	d, err := s.Board.CreateDocument(c.Request().Context(), c.Param("id"), in)
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(http.StatusCreated, d)
}

func (s *Server) getDocument(c echo.Context) error {
	id, err := parseID(c, "id", "document")
	if err != nil {
		return s.writeError(c, err)
	}
	d, err := s.Board.GetDocument(c.Request().Context(), id)
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(http.StatusOK, d)
}

func (s *Server) updateDocument(c echo.Context) error {
	id, err := parseID(c, "id", "document")
	if err != nil {
		return s.writeError(c, err)
	}
	var patch board.DocumentPatch
	if err := decodeJSON(c.Request().Body, &patch); err != nil {
		return s.writeError(c, err)
	}
	d, err := s.Board.UpdateDocument(c.Request().Context(), id, patch)
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(http.StatusOK, d)
}

func (s *Server) deleteDocument(c echo.Context) error {
	id, err := parseID(c, "id", "document")
	if err != nil {
		return s.writeError(c, err)
	}
	if err := s.Board.DeleteDocument(c.Request().Context(), id); err != nil {
		return s.writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) searchDocuments(c echo.Context) error {
	items, err := s.Board.SearchDocuments(c.Request().Context(), c.QueryParam("q"), c.QueryParam("board_id"))
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(http.StatusOK, items)
}
