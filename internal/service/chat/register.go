package chat

import (
	"github.com/gin-gonic/gin"

	"github.com/oggyb/campusmatch/internal/app"
)

// Registrar ties the chat service into the HTTP router.
type Registrar struct {
	svc *Service
}

func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{svc: NewService(appCtx)}
}

// RegisterRoutes mounts message endpoints and the websocket upgrade.
func (r *Registrar) RegisterRoutes(rg gin.IRouter) {
	h := &handlers{svc: r.svc}
	rg.GET("/messages", h.history)
	rg.POST("/messages", h.send)
	rg.POST("/messages/react", h.react)
	rg.POST("/messages/read", h.markRead)
	rg.GET("/ws", h.socket)
}
