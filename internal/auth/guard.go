package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"bloggiz/internal/errors"
)

// ContextKey is the echo context key under which resolved session claims are
// stored.
const ContextKey = "session"

// Resolver turns a bearer token into session claims, rejecting tokens that
// were revoked at logout.
type Resolver struct {
	jwtService *JWTService
	tokenStore TokenStoreInterface
}

// NewResolver creates a session resolver.
func NewResolver(jwtService *JWTService, tokenStore TokenStoreInterface) *Resolver {
	return &Resolver{jwtService: jwtService, tokenStore: tokenStore}
}

// Resolve validates a raw token and checks the logout blacklist.
func (r *Resolver) Resolve(ctx context.Context, raw string) (*Claims, error) {
	claims, err := r.jwtService.ValidateToken(raw)
	if err != nil {
		return nil, err
	}
	blacklisted, _ := r.tokenStore.IsAccessTokenBlacklisted(ctx, claims.ID)
	if blacklisted {
		return nil, fmt.Errorf("token revoked")
	}
	return claims, nil
}

// JWTConfig builds the echo-jwt configuration for routes that require a
// session. All failures collapse to 401 so a missing token and a bad token
// are indistinguishable to the caller.
func (r *Resolver) JWTConfig() echojwt.Config {
	return echojwt.Config{
		ContextKey: ContextKey,
		ParseTokenFunc: func(c echo.Context, auth string) (interface{}, error) {
			return r.Resolve(c.Request().Context(), auth)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return echo.NewHTTPError(http.StatusUnauthorized, errors.ErrorResponse{
				Error: "unauthorized",
				Code:  "UNAUTHORIZED",
			})
		},
	}
}

// OptionalSession resolves a session when a bearer token is present but never
// fails the request. Handlers behind it see either claims or no session.
func (r *Resolver) OptionalSession() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if strings.HasPrefix(header, "Bearer ") {
				raw := strings.TrimPrefix(header, "Bearer ")
				if claims, err := r.Resolve(c.Request().Context(), raw); err == nil {
					c.Set(ContextKey, claims)
				}
			}
			return next(c)
		}
	}
}

// RequireRole is the authorization guard: it denies the request unless a
// session was resolved and its role matches. Runs after the jwt middleware so
// an allowed request always carries verified claims.
func RequireRole(role string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims := CurrentSession(c)
			if claims == nil || claims.Role != role {
				return echo.NewHTTPError(http.StatusUnauthorized, errors.ErrorResponse{
					Error: "unauthorized",
					Code:  "UNAUTHORIZED",
				})
			}
			return next(c)
		}
	}
}

// CurrentSession returns the resolved session claims, or nil when the request
// is anonymous.
func CurrentSession(c echo.Context) *Claims {
	claims, ok := c.Get(ContextKey).(*Claims)
	if !ok {
		return nil
	}
	return claims
}
