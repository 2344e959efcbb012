package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/suteetoe/perftrack/internal/auth"
	"github.com/suteetoe/perftrack/internal/response"
	"github.com/suteetoe/perftrack/pkg/jwtutil"
	"github.com/suteetoe/perftrack/pkg/logger"
	"github.com/suteetoe/perftrack/prometheus"
	"go.uber.org/zap"
)

// AuthMiddleware validates the JWT token from the Authorization header and
// builds the request principal from its claims
func AuthMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		log := logger.FromContext(c)

		// Get the Authorization header
		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			log.Error("Missing Authorization header")
			prometheus.RecordAuthError("missing_token")
			return response.Error(c, http.StatusUnauthorized, "missing authorization token")
		}

		// Check if it's a Bearer token
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			log.Error("Invalid Authorization header format")
			prometheus.RecordAuthError("invalid_auth_format")
			return response.Error(c, http.StatusUnauthorized, "invalid authorization format, expected Bearer token")
		}

		// Validate the token
		claims, err := jwtutil.ValidateToken(parts[1])
		if err != nil {
			log.Error("Invalid JWT token", zap.Error(err))
			prometheus.RecordAuthError("invalid_token")
			return response.Error(c, http.StatusUnauthorized, "invalid or expired token")
		}

		// Resolve the principal once; a token without a permission payload
		// is rejected here, not treated as empty-allow
		principal, err := auth.NewPrincipal(claims)
		if err != nil {
			log.Error("Token rejected", zap.Error(err))
			prometheus.RecordAuthError("missing_permissions")
			return response.Error(c, http.StatusUnauthorized, "token carries no permission set")
		}

		c.Set("principal", principal)
		c.Set("user_id", principal.UserID)
		c.Set("email", principal.Email)
		if principal.TenantID != nil {
			c.Set("tenant_id", *principal.TenantID)
		}

		log.Debug("Request authenticated",
			zap.Uint("user_id", principal.UserID),
			zap.String("role", principal.Role))

		return next(c)
	}
}

// RequirePermission gates a route on one permission key
func RequirePermission(permission string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			log := logger.FromContext(c)

			principal, ok := c.Get("principal").(*auth.Principal)
			if !ok {
				log.Error("Missing principal in context")
				prometheus.RecordAuthError("missing_principal")
				return response.Error(c, http.StatusUnauthorized, "authentication required")
			}

			if !principal.Can(permission) {
				log.Warn("Permission denied",
					zap.Uint("user_id", principal.UserID),
					zap.String("role", principal.Role),
					zap.String("permission", permission))
				prometheus.RecordAuthError("permission_denied")
				return response.Error(c, http.StatusForbidden, "permission denied")
			}

			return next(c)
		}
	}
}

// GetPrincipal pulls the request principal from the Echo context
func GetPrincipal(c echo.Context) (*auth.Principal, bool) {
	principal, ok := c.Get("principal").(*auth.Principal)
	return principal, ok
}
