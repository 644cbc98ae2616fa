package httpapi

import (
	"net/http"

	"artisan-marketplace/pkg/db/pagination"
	"artisan-marketplace/pkg/errutil"
	"artisan-marketplace/services/moderation"

	"github.com/gin-gonic/gin"
)

func (h *Handler) listModerationQueue(c *gin.Context) {
	kind, err := moderation.ParseKind(c.Param("kind"))
	if err != nil {
		fail(c, errutil.NotFound("unknown content kind", err))
		return
	}

	status, err := moderation.ParseStatus(c.Query("status"))
	if err != nil {
		fail(c, errutil.ValidationFailed("unknown moderation status", err))
		return
	}

	var page pagination.Pagination
	if err := c.ShouldBindQuery(&page); err != nil {
		fail(c, errutil.ValidationFailed("invalid pagination", err))
		return
	}

	items, err := h.moderation.ListForReview(c.Request.Context(), principal(c), kind, status, page)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": items})
}

func (h *Handler) approveContent(c *gin.Context) {
	kind, err := moderation.ParseKind(c.Param("kind"))
	if err != nil {
		fail(c, errutil.NotFound("unknown content kind", err))
		return
	}

	if err := h.moderation.Approve(c.Request.Context(), principal(c), kind, c.Param("id")); err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

type rejectContentRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) rejectContent(c *gin.Context) {
	kind, err := moderation.ParseKind(c.Param("kind"))
	if err != nil {
		fail(c, errutil.NotFound("unknown content kind", err))
		return
	}

	// reason is optional; an empty body means "no reason given"
	var req rejectContentRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}

	if err := h.moderation.Reject(c.Request.Context(), principal(c), kind, c.Param("id"), req.Reason); err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success"})
}
