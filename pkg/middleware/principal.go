package middleware

import (
	"artisan-marketplace/pkg/authz"
	"artisan-marketplace/pkg/errutil"

	"github.com/gin-gonic/gin"
)

const principalKey = "authz.principal"

// Headers set by the upstream auth layer after session validation.
const (
	HeaderUserID   = "X-User-ID"
	HeaderUserRole = "X-User-Role"
)

// Principal extracts the authenticated principal from the request headers
// and stashes it in the gin context. Routes that require authentication
// wrap handlers with RequireAuth.
func Principal() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderUserID)
		role := authz.Role(c.GetHeader(HeaderUserRole))
		if id != "" && role.Valid() {
			c.Set(principalKey, authz.Principal{ID: id, Role: role})
		}
		c.Next()
	}
}

// PrincipalFrom returns the principal stored by Principal(), if any.
func PrincipalFrom(c *gin.Context) (authz.Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return authz.Principal{}, false
	}
	p, ok := v.(authz.Principal)
	return p, ok
}

// RequireAuth aborts with 401 when no principal was supplied.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := PrincipalFrom(c); !ok {
			be := errutil.Unauthorized("authentication required", nil)
			c.AbortWithStatusJSON(errutil.StatusUnauthorized.HTTPStatus(), be.(errutil.BaseError).JSON())
			return
		}
		c.Next()
	}
}
