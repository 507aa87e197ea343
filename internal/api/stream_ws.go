package api

import (
	"context"

	"github.com/coder/websocket"
	"github.com/labstack/echo/v4"

	"github.com/flitsinc/agentboard/internal/board"
)

type wsReader interface {
	Read(ctx context.Context) (websocket.MessageType, []byte, error)
}

func (s *Server) handleWS(c echo.Context) error {
	if s.Hub == nil {
		return s.writeError(c, board.Unavailable("realtime hub not configured", nil))
	}
	conn, err := websocket.Accept(c.Response(), c.Request(), &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		return nil
	}
	defer conn.Close(websocket.StatusInternalError, "closed")

	id := s.Hub.Register(conn)
	defer s.Hub.Unregister(id)

	discardInbound(c.Request().Context(), conn)
	return nil
}

// discardInbound reads and drops client messages until the connection fails.
func discardInbound(ctx context.Context, r wsReader) {
	for {
		if _, _, err := r.Read(ctx); err != nil {
			return
		}
	}
}
