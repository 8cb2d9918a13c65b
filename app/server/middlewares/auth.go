package middlewares

import (
	"context"
	"errors"
	"net/http"
	"scaffold-api/app/server/cache"
	"scaffold-api/app/server/constants"
	"scaffold-api/app/server/jwt"
	"scaffold-api/app/server/store"
	"scaffold-api/app/server/types"
	"slices"
	"strings"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// RoleResolver reports the current role of a user.
type RoleResolver interface {
	Lookup(ctx context.Context, id string) (*cache.RoleInfo, error)
}

type Auth struct {
	tokens *jwt.JWT
	roles  RoleResolver
	l      *zap.Logger
}

func NewAuth(tokens *jwt.JWT, roles RoleResolver, l *zap.Logger) *Auth {
	return &Auth{tokens: tokens, roles: roles, l: l}
}

// Required rejects requests without a valid bearer token.
func (m *Auth) Required() echo.MiddlewareFunc {
	return echojwt.WithConfig(m.config(false))
}

// Optional attaches the identity when a valid bearer token is present and
// lets every other request through anonymously.
func (m *Auth) Optional() echo.MiddlewareFunc {
	return echojwt.WithConfig(m.config(true))
}

func (m *Auth) config(optional bool) echojwt.Config {
	return echojwt.Config{
		ContextKey:             constants.ContextKeyIdentity,
		ContinueOnIgnoredError: optional,
		ParseTokenFunc: func(c echo.Context, auth string) (interface{}, error) {
			return m.tokens.Verify(auth)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			if optional {
				// 忽略错误，作为匿名请求继续
				return nil
			}

			if bearerToken(c.Request().Header.Get(echo.HeaderAuthorization)) == "" {
				return c.JSON(http.StatusUnauthorized, &types.ErrorResponse{
					Error:   constants.ErrUnauthenticated,
					Message: "Access token is required",
				})
			}

			m.l.Debug("rejected bearer token", zap.Error(err))
			return c.JSON(http.StatusForbidden, &types.ErrorResponse{
				Error:   constants.ErrInvalidToken,
				Message: "Invalid or expired token",
			})
		},
	}
}

// RequireRole must run after Required. It checks the caller's current role
// instead of the one recorded in the token.
func (m *Auth) RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims := Identity(c)
			if claims == nil {
				return c.JSON(http.StatusUnauthorized, &types.ErrorResponse{
					Error:   constants.ErrUnauthenticated,
					Message: "Authentication required",
				})
			}

			info, err := m.roles.Lookup(c.Request().Context(), claims.UserID)
			if err != nil {
				if errors.Is(err, store.ErrNotFound) {
					return c.JSON(http.StatusUnauthorized, &types.ErrorResponse{
						Error:   constants.ErrUnauthenticated,
						Message: "User no longer exists",
					})
				}
				m.l.Error("failed to resolve user role", zap.String("id", claims.UserID), zap.Error(err))
				return c.JSON(http.StatusInternalServerError, &types.ErrorResponse{
					Error:   constants.ErrInternalFailure,
					Message: http.StatusText(http.StatusInternalServerError),
				})
			}

			if !info.IsActive {
				return c.JSON(http.StatusForbidden, &types.ErrorResponse{
					Error:   constants.ErrForbidden,
					Message: "Account is deactivated",
				})
			}
			if !slices.Contains(roles, info.Role) {
				return c.JSON(http.StatusForbidden, &types.ErrorResponse{
					Error:   constants.ErrForbidden,
					Message: "Insufficient permissions",
				})
			}

			return next(c)
		}
	}
}

// Identity returns the verified claims attached to c, or nil for anonymous
// requests.
func Identity(c echo.Context) *jwt.Claims {
	claims, _ := c.Get(constants.ContextKeyIdentity).(*jwt.Claims)
	return claims
}

// bearerToken extracts the credential of an "Authorization: Bearer <token>"
// header, or returns "" when there is none.
func bearerToken(authHeader string) string {
	if authHeader == "" {
		return ""
	}

	splits := strings.SplitN(authHeader, " ", 2)
	if len(splits) != 2 {
		return ""
	}

	if strings.ToLower(splits[0]) != "bearer" {
		return ""
	}

	return strings.TrimSpace(splits[1])
}
