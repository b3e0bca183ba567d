package matching

import (
	"github.com/gin-gonic/gin"
	"google.golang.org/grpc"

	"github.com/oggyb/campusmatch/internal/app"
)

// Registrar ties the matching service into the gRPC server and the HTTP router.
type Registrar struct {
	svc *Service
}

// NewRegistrar creates a new Registrar for the matching service
func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{svc: NewService(appCtx)}
}

// Register attaches MatchService to the gRPC server
func (r *Registrar) Register(s *grpc.Server) {
	s.RegisterService(&MatchServiceDesc, &grpcServer{svc: r.svc})
}

// RegisterRoutes mounts the HTTP endpoints.
func (r *Registrar) RegisterRoutes(rg gin.IRouter) {
	h := &handlers{svc: r.svc}
	rg.POST("/get-matches", h.getMatches)
	rg.POST("/like-user", h.likeUser)
	rg.POST("/liked-you", h.likedYou)
	rg.POST("/liked-you/count", h.likedYouCount)
	rg.POST("/discover", h.discover)
}
