package feed

import (
	"log"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

type Handler struct {
	hub      *Hub
	upgrader websocket.Upgrader
}

// NewHandler builds the websocket endpoint. allowOrigin decides cross-origin
// upgrades; nil allows same-host origins only.
func NewHandler(hub *Hub, allowOrigin func(origin string) bool) *Handler {
	return &Handler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				if allowOrigin != nil && allowOrigin(origin) {
					return true
				}
				u, err := url.Parse(origin)
				return err == nil && u.Host == r.Host
			},
		},
	}
}

// HandleWebSocket godoc
// GET /api/v1/releases/feed
func (h *Handler) HandleWebSocket(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("feed_upgrade_failed client_ip=%s err=%v", c.ClientIP(), err)
		return
	}

	log.Printf("feed_connected client_ip=%s session_id=%s", c.ClientIP(), c.GetString("session_id"))
	h.hub.ServeWS(conn)
}

func (h *Handler) RegisterRoutes(releases *gin.RouterGroup) {
	releases.GET("/feed", h.HandleWebSocket)
}
