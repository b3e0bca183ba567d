package moderation

import (
	"github.com/gin-gonic/gin"

	"github.com/oggyb/campusmatch/internal/app"
)

// Registrar ties the moderation service into the HTTP router.
type Registrar struct {
	svc *Service
}

func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{svc: NewService(appCtx)}
}

func (r *Registrar) RegisterRoutes(rg gin.IRouter) {
	h := &handlers{svc: r.svc}
	rg.POST("/block-user", h.block)
	rg.POST("/unblock-user", h.unblock)
	rg.GET("/blocked-users", h.blocked)
	rg.GET("/block-status", h.status)
	rg.POST("/report", h.report)
	rg.POST("/panic", h.panicButton)
	rg.POST("/share-location", h.shareLocation)
	rg.GET("/safety-events", h.safetyEvents)
}
