package profile

import (
	"github.com/gin-gonic/gin"

	"github.com/oggyb/campusmatch/internal/app"
)

// Registrar ties the profile service into the HTTP router.
type Registrar struct {
	svc *Service
}

func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{svc: NewService(appCtx)}
}

func (r *Registrar) RegisterRoutes(rg gin.IRouter) {
	h := &handlers{svc: r.svc}
	rg.POST("/profile", h.upsert)
	rg.GET("/profile", h.get)
	rg.POST("/profile/photos", h.addPhoto)
}
