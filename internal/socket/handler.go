package socket

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"chovha/internal/auth"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// TokenValidator validates bearer tokens presented at upgrade.
type TokenValidator interface {
	Validate(token string) (*auth.Claims, error)
}

// ServeWS authenticates the handshake and upgrades it into a hub client.
// The token is read from the token query parameter or the Authorization header.
func (h *Hub) ServeWS(tokens TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			token = strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		}
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Access token required"})
			return
		}

		claims, err := tokens.Validate(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			h.log.WithError(err).Warn("websocket upgrade failed")
			return
		}

		client := h.newClient(conn, claims.UserID, claims.UserType)
		h.Register(client)

		go client.writePump()
		go client.readPump()
	}
}
