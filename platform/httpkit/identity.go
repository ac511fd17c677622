package httpkit

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Caller is the authenticated principal behind a request, as set by
// AuthRequired.
type Caller struct {
	UserID         uuid.UUID
	OrganizationID *uuid.UUID
	Roles          []string
}

// Actor is the string recorded as author of history and audit entries.
func (c Caller) Actor() string { return c.UserID.String() }

// CallerFrom reads the caller from the gin context. ok is false when the
// request did not pass AuthRequired.
func CallerFrom(c *gin.Context) (caller Caller, ok bool) {
	uid, ok := c.Get(ContextUserIDKey)
	if !ok {
		return Caller{}, false
	}
	caller.UserID, ok = uid.(uuid.UUID)
	if !ok {
		return Caller{}, false
	}
	if roles, found := c.Get(ContextRolesKey); found {
		caller.Roles, _ = roles.([]string)
	}
	if raw, found := c.Get(ContextTenantIDKey); found {
		if org, isUUID := raw.(uuid.UUID); isUUID {
			caller.OrganizationID = &org
		}
	}
	return caller, true
}

// RequireCaller is CallerFrom that aborts with 401 when nobody is signed in.
func RequireCaller(c *gin.Context) (Caller, bool) {
	caller, ok := CallerFrom(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Kind: "unauthorized"})
	}
	return caller, ok
}
