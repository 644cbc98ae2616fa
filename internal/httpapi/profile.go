package httpapi

import (
	"net/http"

	"artisan-marketplace/pkg/errutil"
	"artisan-marketplace/services/identity"

	"github.com/gin-gonic/gin"
)

type upsertProfileRequest struct {
	DisplayName string `json:"display_name"`
}

// upsertProfile mirrors the caller's profile into the local users table so
// moderation listings can join a display name. Identity and role come from
// the forwarded auth headers, never from the body.
func (h *Handler) upsertProfile(c *gin.Context) {
	var req upsertProfileRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.DisplayName == "" {
		fail(c, errutil.ValidationFailed("display_name is required", nil))
		return
	}

	p := principal(c)
	u := &identity.User{
		ID:          p.ID,
		DisplayName: req.DisplayName,
		Role:        p.Role,
	}
	if err := h.identity.Upsert(c.Request.Context(), u); err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": u})
}
