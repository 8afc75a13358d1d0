package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	model "auction-engine/internal/models"
	"auction-engine/services/bidding/helpers"
	"auction-engine/utils"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// Headers set by a trusted gateway when no JWT secret is configured
const (
	HeaderUserID   = "X-User-ID"
	HeaderUserRole = "X-User-Role"
)

var (
	errMissingToken  = errors.New("missing bearer token")
	errInvalidToken  = errors.New("invalid token")
	errMissingCaller = errors.New("missing caller identity")
	errRoleDenied    = errors.New("role not allowed")
)

// RequestLoggerMiddleware logs incoming requests with timing
func RequestLoggerMiddleware(c *gin.Context) {
	start := time.Now()

	c.Next() // process request

	fields := map[string]any{
		"method":  c.Request.Method,
		"path":    c.Request.URL.Path,
		"status":  c.Writer.Status(),
		"latency": time.Since(start).String(),
	}
	if caller, ok := helpers.CallerFrom(c); ok {
		fields["user_id"] = caller.UserID
	}
	utils.Info("HTTP Request", fields)
}

// IdentityMiddleware resolves the caller for every request. With a secret the
// caller comes from an HS256 bearer token; without one the gateway headers are
// trusted. Requests without any identity pass through anonymously.
func IdentityMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret == "" {
			if id := strings.TrimSpace(c.GetHeader(HeaderUserID)); id != "" {
				helpers.SetCaller(c, model.Caller{UserID: id, Role: strings.TrimSpace(c.GetHeader(HeaderUserRole))})
			}
			c.Next()
			return
		}

		auth := c.GetHeader("Authorization")
		if auth == "" {
			c.Next()
			return
		}
		if !strings.HasPrefix(auth, "Bearer ") {
			utils.JSONAbort(c, http.StatusUnauthorized, errMissingToken, "missing bearer token")
			return
		}

		caller, err := parseToken(strings.TrimPrefix(auth, "Bearer "), secret)
		if err != nil {
			utils.JSONAbort(c, http.StatusUnauthorized, err, "invalid token")
			utils.Warn("IdentityMiddleware: rejected token", map[string]any{
				"path":  c.Request.URL.Path,
				"error": err.Error(),
			})
			return
		}
		helpers.SetCaller(c, caller)
		c.Next()
	}
}

func parseToken(raw, secret string) (model.Caller, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errInvalidToken
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		return model.Caller{}, errInvalidToken
	}

	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return model.Caller{}, errInvalidToken
	}

	var caller model.Caller
	if v, ok := claims["sub"].(string); ok && v != "" {
		caller.UserID = v
	} else if v, ok := claims["user_id"].(string); ok && v != "" {
		caller.UserID = v
	}
	if caller.UserID == "" {
		return model.Caller{}, errInvalidToken
	}
	caller.Role, _ = claims["role"].(string)
	return caller, nil
}

// RequireRole rejects anonymous callers with 401 and callers outside roles with 403.
// With no roles any authenticated caller is accepted.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := helpers.CallerFrom(c)
		if !ok {
			utils.JSONAbort(c, http.StatusUnauthorized, errMissingCaller, "authentication required")
			return
		}
		if len(roles) == 0 {
			c.Next()
			return
		}
		for _, role := range roles {
			if caller.Role == role {
				c.Next()
				return
			}
		}
		utils.JSONAbort(c, http.StatusForbidden, errRoleDenied, "forbidden")
		utils.Warn("RequireRole: caller role not allowed", map[string]any{
			"user_id": caller.UserID,
			"role":    caller.Role,
			"path":    c.Request.URL.Path,
		})
	}
}
