package feed

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/oggyb/campusmatch/internal/httpx"
)

// scopedListRequest degrades like the plain list, so nothing is required.
type scopedListRequest struct {
	Email string `json:"email"`
	Skip  int    `json:"skip"`
	Limit int    `json:"limit"`
}

type createRequest struct {
	Email string `json:"email" binding:"required"`
	Text  string `json:"text" binding:"required"`
}

type reactRequest struct {
	ConfessionID string `json:"confessionId" binding:"required"`
	Emoji        string `json:"emoji" binding:"required"`
	Email        string `json:"email" binding:"required"`
	Action       string `json:"action" binding:"omitempty,oneof=add remove"`
}

type commentRequest struct {
	ConfessionID string `json:"confessionId" binding:"required"`
	Email        string `json:"email" binding:"required"`
	Name         string `json:"name"`
	Text         string `json:"text" binding:"required"`
}

type commentReactRequest struct {
	ConfessionID string `json:"confessionId" binding:"required"`
	CommentID    string `json:"commentId" binding:"required"`
	Email        string `json:"email" binding:"required"`
	Action       string `json:"action" binding:"omitempty,oneof=add remove"`
}

type handlers struct {
	svc *Service
}

// list serves the unscoped feed. Unparseable numbers fall back to defaults.
func (h *handlers) list(c *gin.Context) {
	skip, _ := strconv.Atoi(c.Query("skip"))
	limit, _ := strconv.Atoi(c.Query("limit"))
	httpx.OK(c, h.svc.List(c.Request.Context(), "", skip, limit))
}

func (h *handlers) scopedList(c *gin.Context) {
	var req scopedListRequest
	if !httpx.Bind(c, &req) {
		return
	}
	httpx.OK(c, h.svc.List(c.Request.Context(), req.Email, req.Skip, req.Limit))
}

func (h *handlers) create(c *gin.Context) {
	var req createRequest
	if !httpx.Bind(c, &req) {
		return
	}
	out, err := h.svc.Create(c.Request.Context(), req.Email, req.Text)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.OK(c, gin.H{"confession": out})
}

func (h *handlers) react(c *gin.Context) {
	var req reactRequest
	if !httpx.Bind(c, &req) {
		return
	}
	out, err := h.svc.React(c.Request.Context(), req.ConfessionID, req.Emoji, req.Email, req.Action)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.OK(c, gin.H{"confession": out})
}

func (h *handlers) comment(c *gin.Context) {
	var req commentRequest
	if !httpx.Bind(c, &req) {
		return
	}
	out, err := h.svc.Comment(c.Request.Context(), req.ConfessionID, req.Email, req.Name, req.Text)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.OK(c, gin.H{"confession": out})
}

func (h *handlers) commentReact(c *gin.Context) {
	var req commentReactRequest
	if !httpx.Bind(c, &req) {
		return
	}
	out, err := h.svc.CommentReact(c.Request.Context(), req.ConfessionID, req.CommentID, req.Email, req.Action)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.OK(c, gin.H{"confession": out})
}
