package handler

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	progressws "github.com/abndnt/paris-night-sub001/internal/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The engine has no browser-origin policy of its own; the deployment's
	// edge is expected to enforce one.
	CheckOrigin: func(r *http.Request) bool { return true },
}

type WSHandler struct {
	hub *progressws.Hub
}

func NewWSHandler(hub *progressws.Hub) *WSHandler {
	return &WSHandler{hub: hub}
}

// Progress upgrades the connection and streams progress snapshots for one
// search until the client disconnects.
func (h *WSHandler) Progress(c echo.Context) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	h.hub.Subscribe(conn, c.Param("id"))
	return nil
}
