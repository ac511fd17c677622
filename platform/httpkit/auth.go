package httpkit

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"training_leads_backend/platform/config"
	"training_leads_backend/platform/logger"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Gin context keys set by AuthRequired and read by CallerFrom.
const (
	ContextUserIDKey   = "userID"
	ContextRolesKey    = "roles"
	ContextTenantIDKey = "tenantID"
)

const tokenTypeAccess = "access"

var (
	errMissingToken = errors.New("missing token")
	errInvalidToken = errors.New("invalid token")
)

// accessClaims is the payload of the access tokens issued by the identity
// service. The subject is the user id; tenant_id is the organization.
type accessClaims struct {
	Type     string   `json:"type"`
	TenantID string   `json:"tenant_id,omitempty"`
	Roles    []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

// AuthRequired rejects requests without a valid HMAC-signed access token.
// The subject becomes the actor on history and audit entries.
func AuthRequired(cfg config.JWTConfig) gin.HandlerFunc {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}))
	secret := []byte(cfg.GetJWTAccessSecret())

	return func(c *gin.Context) {
		claims, err := authenticate(parser, secret, c.GetHeader("Authorization"))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: err.Error(), Kind: "unauthorized"})
			return
		}

		userID, err := uuid.Parse(claims.Subject)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: errInvalidToken.Error(), Kind: "unauthorized"})
			return
		}
		roles := claims.Roles
		if roles == nil {
			roles = []string{}
		}
		c.Set(ContextUserIDKey, userID)
		c.Set(ContextRolesKey, roles)

		if tenant := strings.TrimSpace(claims.TenantID); tenant != "" {
			orgID, err := uuid.Parse(tenant)
			if err != nil {
				c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: errInvalidToken.Error(), Kind: "unauthorized"})
				return
			}
			c.Set(ContextTenantIDKey, orgID)
		}

		c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), logger.ActorKey, userID.String()))
		c.Next()
	}
}

func authenticate(parser *jwt.Parser, secret []byte, header string) (*accessClaims, error) {
	raw, found := strings.CutPrefix(header, "Bearer ")
	raw = strings.TrimSpace(raw)
	if !found || raw == "" {
		return nil, errMissingToken
	}

	var claims accessClaims
	_, err := parser.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) { return secret, nil })
	if err != nil || claims.Type != tokenTypeAccess {
		return nil, errInvalidToken
	}
	return &claims, nil
}
