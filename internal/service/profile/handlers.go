package profile

import (
	"github.com/gin-gonic/gin"

	"github.com/oggyb/campusmatch/internal/httpx"
)

type photoRequest struct {
	Email string `json:"email" binding:"required"`
	URL   string `json:"url" binding:"required,http_url"`
}

type handlers struct {
	svc *Service
}

func (h *handlers) upsert(c *gin.Context) {
	var req UpsertRequest
	if !httpx.Bind(c, &req) {
		return
	}
	p, err := h.svc.Upsert(c.Request.Context(), req)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.OK(c, p)
}

func (h *handlers) get(c *gin.Context) {
	p, err := h.svc.Get(c.Request.Context(), c.Query("email"), c.Query("viewer"))
	if err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.OK(c, p)
}

func (h *handlers) addPhoto(c *gin.Context) {
	var req photoRequest
	if !httpx.Bind(c, &req) {
		return
	}
	p, err := h.svc.AddPhoto(c.Request.Context(), req.Email, req.URL)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.OK(c, p)
}
