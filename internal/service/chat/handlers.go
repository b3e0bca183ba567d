package chat

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oggyb/campusmatch/internal/httpx"
)

type sendRequest struct {
	Sender   string `json:"sender" binding:"required"`
	Receiver string `json:"receiver" binding:"required,nefield=Sender"`
	Text     string `json:"text" binding:"required"`
}

type reactRequest struct {
	MessageID uint64 `json:"messageId" binding:"required"`
	Emoji     string `json:"emoji" binding:"required"`
	Email     string `json:"email" binding:"required"`
	Action    string `json:"action" binding:"omitempty,oneof=add remove"`
}

type readRequest struct {
	Reader string `json:"reader" binding:"required"`
	Sender string `json:"sender" binding:"required,nefield=Reader"`
}

type handlers struct {
	svc *Service
}

func (h *handlers) history(c *gin.Context) {
	msgs := h.svc.History(c.Request.Context(), c.Query("user1"), c.Query("user2"))
	httpx.OK(c, gin.H{"messages": msgs})
}

func (h *handlers) send(c *gin.Context) {
	var req sendRequest
	if !httpx.Bind(c, &req) {
		return
	}
	m, err := h.svc.Send(c.Request.Context(), req.Sender, req.Receiver, req.Text)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.OK(c, gin.H{"message": m})
}

func (h *handlers) react(c *gin.Context) {
	var req reactRequest
	if !httpx.Bind(c, &req) {
		return
	}
	m, err := h.svc.React(c.Request.Context(), req.MessageID, req.Emoji, req.Email, req.Action)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.OK(c, gin.H{"message": m})
}

func (h *handlers) markRead(c *gin.Context) {
	var req readRequest
	if !httpx.Bind(c, &req) {
		return
	}
	n, err := h.svc.MarkRead(c.Request.Context(), req.Reader, req.Sender)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.OK(c, gin.H{"updated": n})
}

// socket upgrades the connection. The caller identifies itself with ?email=.
func (h *handlers) socket(c *gin.Context) {
	email := c.Query("email")
	if email == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "email is required"})
		return
	}
	if err := h.svc.hub.Serve(c.Writer, c.Request, email, h.svc); err != nil {
		h.svc.log(c.Request.Context()).Info("websocket upgrade failed", "email", email, "err", err)
	}
}
