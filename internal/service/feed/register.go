package feed

import (
	"github.com/gin-gonic/gin"

	"github.com/oggyb/campusmatch/internal/app"
)

// Registrar ties the confession feed into the HTTP router.
type Registrar struct {
	svc *Service
}

func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{svc: NewService(appCtx)}
}

func (r *Registrar) RegisterRoutes(rg gin.IRouter) {
	h := &handlers{svc: r.svc}
	rg.GET("/get-confessions", h.list)
	rg.POST("/get-confessions", h.scopedList)
	rg.POST("/confessions", h.create)
	rg.POST("/confessions/react", h.react)
	rg.POST("/confessions/comment", h.comment)
	rg.POST("/confessions/comment/react", h.commentReact)
}
