package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/yoockh/yoointerview/internal/services"
	"github.com/yoockh/yoointerview/internal/utils"
)

// OperatorHeader identifies the researcher's browsing session.
const OperatorHeader = "X-Dashboard-Session"

type DashboardHandler struct {
	svc services.DashboardService
}

func NewDashboardHandler(svc services.DashboardService) *DashboardHandler {
	return &DashboardHandler{svc: svc}
}

type FilterRequest struct {
	// empty selects all users
	Username string `json:"username"`
}

type GotoRequest struct {
	Index *int `json:"index" binding:"required"`
}

// operator returns the caller's session id, minting one on first contact.
func operator(c *gin.Context) string {
	id := c.GetHeader(OperatorHeader)
	if id == "" {
		id = uuid.NewString()
	}
	c.Header(OperatorHeader, id)
	return id
}

func (h *DashboardHandler) View(c *gin.Context) {
	h.respond(c, func(op string) (*services.DashboardView, error) {
		return h.svc.View(c.Request.Context(), op)
	})
}

func (h *DashboardHandler) Filter(c *gin.Context) {
	var req FilterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "DashboardHandler.Filter", "invalid request body", err))
		return
	}
	h.respond(c, func(op string) (*services.DashboardView, error) {
		return h.svc.SetFilter(c.Request.Context(), op, req.Username)
	})
}

func (h *DashboardHandler) Goto(c *gin.Context) {
	var req GotoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "DashboardHandler.Goto", "index is required", err))
		return
	}
	h.respond(c, func(op string) (*services.DashboardView, error) {
		return h.svc.Goto(c.Request.Context(), op, *req.Index)
	})
}

func (h *DashboardHandler) Next(c *gin.Context) {
	h.respond(c, func(op string) (*services.DashboardView, error) {
		return h.svc.Next(c.Request.Context(), op)
	})
}

func (h *DashboardHandler) Prev(c *gin.Context) {
	h.respond(c, func(op string) (*services.DashboardView, error) {
		return h.svc.Prev(c.Request.Context(), op)
	})
}

func (h *DashboardHandler) RequestDelete(c *gin.Context) {
	h.respond(c, func(op string) (*services.DashboardView, error) {
		return h.svc.RequestDelete(c.Request.Context(), op)
	})
}

func (h *DashboardHandler) ConfirmDelete(c *gin.Context) {
	h.respond(c, func(op string) (*services.DashboardView, error) {
		return h.svc.ConfirmDelete(c.Request.Context(), op)
	})
}

func (h *DashboardHandler) CancelDelete(c *gin.Context) {
	h.respond(c, func(op string) (*services.DashboardView, error) {
		return h.svc.CancelDelete(c.Request.Context(), op)
	})
}

func (h *DashboardHandler) Refresh(c *gin.Context) {
	h.respond(c, func(op string) (*services.DashboardView, error) {
		return h.svc.Refresh(c.Request.Context(), op)
	})
}

func (h *DashboardHandler) Download(c *gin.Context) {
	d, err := h.svc.Download(c.Request.Context(), operator(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", d.Filename))
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(d.Body))
}

func (h *DashboardHandler) respond(c *gin.Context, fn func(operator string) (*services.DashboardView, error)) {
	v, err := fn(operator(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}
