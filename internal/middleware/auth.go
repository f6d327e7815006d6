package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/lshigami/nodo-plus/config"
	"github.com/lshigami/nodo-plus/internal/dto"
	"github.com/lshigami/nodo-plus/internal/model"
	"github.com/lshigami/nodo-plus/internal/service"
	"github.com/rs/zerolog/log"
)

const (
	userIDKey = "userId"
	roleKey   = "role"
)

// Auth checks bearer tokens and roles.
type Auth struct {
	secret []byte
}

func NewAuth(cfg *config.Config) *Auth {
	return &Auth{secret: []byte(cfg.Auth.JWTSecret)}
}

// Authenticate rejects requests without a valid bearer token and stores the
// token subject and role on the context.
func (a *Auth) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(raw) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "No token provided"})
			return
		}
		claims, err := service.ParseToken(a.secret, strings.TrimSpace(raw))
		if err != nil {
			log.Debug().Err(err).Str("path", c.FullPath()).Msg("Rejected bearer token")
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "Invalid token"})
			return
		}
		c.Set(userIDKey, claims.UserID)
		c.Set(roleKey, claims.Role)
		c.Next()
	}
}

// RequireRole must run after Authenticate.
func (a *Auth) RequireRole(roles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := Role(c)
		for _, r := range roles {
			if r == role {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, dto.ErrorResponse{Error: "Insufficient permissions"})
	}
}

func UserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}

func Role(c *gin.Context) model.Role {
	if v, ok := c.Get(roleKey); ok {
		if r, ok := v.(model.Role); ok {
			return r
		}
	}
	return ""
}
