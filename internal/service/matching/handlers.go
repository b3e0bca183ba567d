package matching

import (
	"github.com/gin-gonic/gin"

	"github.com/oggyb/campusmatch/internal/httpx"
)

// matchesRequest carries no binding rules: get-matches never fails.
type matchesRequest struct {
	Email string `json:"email"`
}

type emailRequest struct {
	Email string `json:"email" binding:"required"`
}

type likeRequest struct {
	CurrentUserEmail string `json:"currentUserEmail" binding:"required"`
	LikedUserEmail   string `json:"likedUserEmail" binding:"required"`
}

type pageRequest struct {
	Email           string  `json:"email" binding:"required"`
	PaginationToken *string `json:"paginationToken"`
	Limit           int     `json:"limit" binding:"gte=0"`
}

// handlers exposes Service over HTTP.
type handlers struct {
	svc *Service
}

func (h *handlers) getMatches(c *gin.Context) {
	var req matchesRequest
	// a malformed body is treated like a missing email
	_ = c.ShouldBindJSON(&req)
	httpx.OK(c, h.svc.GetMatches(c.Request.Context(), req.Email))
}

func (h *handlers) likeUser(c *gin.Context) {
	var req likeRequest
	if !httpx.Bind(c, &req) {
		return
	}
	matched, err := h.svc.LikeUser(c.Request.Context(), req.CurrentUserEmail, req.LikedUserEmail)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.OK(c, gin.H{"success": true, "matched": matched})
}

func (h *handlers) likedYou(c *gin.Context) {
	var req pageRequest
	if !httpx.Bind(c, &req) {
		return
	}
	likers, next, err := h.svc.ListLikedYou(c.Request.Context(), req.Email, req.PaginationToken)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.OK(c, gin.H{"likers": likers, "nextPaginationToken": next})
}

func (h *handlers) likedYouCount(c *gin.Context) {
	var req emailRequest
	if !httpx.Bind(c, &req) {
		return
	}
	n, err := h.svc.CountLikedYou(c.Request.Context(), req.Email)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.OK(c, gin.H{"count": n})
}

func (h *handlers) discover(c *gin.Context) {
	var req pageRequest
	if !httpx.Bind(c, &req) {
		return
	}
	profiles, next, err := h.svc.Discover(c.Request.Context(), req.Email, req.PaginationToken, req.Limit)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.OK(c, gin.H{"profiles": profiles, "nextPaginationToken": next})
}
