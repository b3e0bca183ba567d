package moderation

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/oggyb/campusmatch/internal/httpx"
)

type blockRequest struct {
	CurrentUserEmail string `json:"currentUserEmail" binding:"required"`
	BlockedUserEmail string `json:"blockedUserEmail" binding:"required"`
}

type safetyRequest struct {
	Email     string   `json:"email" binding:"required"`
	Latitude  *float64 `json:"latitude" binding:"omitempty,gte=-90,lte=90"`
	Longitude *float64 `json:"longitude" binding:"omitempty,gte=-180,lte=180"`
	Note      string   `json:"note" binding:"max=500"`
}

type handlers struct {
	svc *Service
}

func (h *handlers) block(c *gin.Context) {
	var req blockRequest
	if !httpx.Bind(c, &req) {
		return
	}
	if err := h.svc.Block(c.Request.Context(), req.CurrentUserEmail, req.BlockedUserEmail); err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.OK(c, gin.H{"success": true})
}

func (h *handlers) unblock(c *gin.Context) {
	var req blockRequest
	if !httpx.Bind(c, &req) {
		return
	}
	if err := h.svc.Unblock(c.Request.Context(), req.CurrentUserEmail, req.BlockedUserEmail); err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.OK(c, gin.H{"success": true})
}

func (h *handlers) blocked(c *gin.Context) {
	list, err := h.svc.ListBlocked(c.Request.Context(), c.Query("email"))
	if err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.OK(c, gin.H{"blockedUsers": list})
}

func (h *handlers) status(c *gin.Context) {
	st, err := h.svc.Status(c.Request.Context(), c.Query("user1"), c.Query("user2"))
	if err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.OK(c, st)
}

func (h *handlers) report(c *gin.Context) {
	var req ReportRequest
	if !httpx.Bind(c, &req) {
		return
	}
	res, err := h.svc.Report(c.Request.Context(), req)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.OK(c, gin.H{
		"success":           true,
		"reportId":          res.ReportID,
		"confessionDeleted": res.ConfessionDeleted,
	})
}

func (h *handlers) panicButton(c *gin.Context) {
	var req safetyRequest
	if !httpx.Bind(c, &req) {
		return
	}
	ev, err := h.svc.Panic(c.Request.Context(), req.Email, req.Latitude, req.Longitude, req.Note)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.OK(c, gin.H{"success": true, "event": ev})
}

// safetyEvents lists the owner's events. An unparseable limit falls back to the default.
func (h *handlers) safetyEvents(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	evs, err := h.svc.ListSafetyEvents(c.Request.Context(), c.Query("email"), limit)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.OK(c, gin.H{"events": evs})
}

func (h *handlers) shareLocation(c *gin.Context) {
	var req safetyRequest
	if !httpx.Bind(c, &req) {
		return
	}
	ev, err := h.svc.ShareLocation(c.Request.Context(), req.Email, req.Latitude, req.Longitude)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.OK(c, gin.H{"success": true, "event": ev})
}
