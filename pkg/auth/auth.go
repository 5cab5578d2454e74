package auth

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

const (
	AuthorizationHeader = "Authorization"
	bearer              = "Bearer "

	RoleStaff  = "staff"
	RoleMember = "member"
)

// JWTKey is the HMAC secret shared with the identity provider.
var JWTKey = []byte("borrowing-service-secret")

type Profile struct {
	UserID   int    `json:"userId"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

type Claims struct {
	Profile Profile `json:"profile"`
	jwt.RegisteredClaims
}

// Caller is the authenticated identity attached to a request context.
type Caller struct {
	UserID   int
	Username string
	IsStaff  bool
}

type contextKey int

const callerKey contextKey = iota + 1

func SetCallerContext(ctx context.Context, caller Caller) context.Context {
	return context.WithValue(ctx, callerKey, caller)
}

func CallerFromContext(ctx context.Context) (Caller, error) {
	caller, ok := ctx.Value(callerKey).(Caller)
	if !ok {
		return Caller{}, errors.New("no caller in context")
	}
	return caller, nil
}

// JwtAuthentication rejects requests without a valid bearer token and
// attaches the caller identity to the request context.
func JwtAuthentication(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authorization := c.Request().Header.Get(AuthorizationHeader)
		if authorization == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "No Authorization Header")
		}
		if !strings.HasPrefix(authorization, bearer) {
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid Authorization Header")
		}
		tokenStr := strings.TrimPrefix(authorization, bearer)
		claims := new(Claims)

		token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
			return JWTKey, nil
		})
		if err != nil || !token.Valid {
			return echo.NewHTTPError(http.StatusUnauthorized, "JwtAccessDenied")
		}
		if claims.ExpiresAt != nil && time.Now().After(claims.ExpiresAt.Time) {
			return echo.NewHTTPError(http.StatusUnauthorized, "TokenExpired")
		}

		req := c.Request()
		ctx := SetCallerContext(req.Context(), Caller{
			UserID:   claims.Profile.UserID,
			Username: claims.Profile.Username,
			IsStaff:  claims.Profile.Role == RoleStaff,
		})
		c.SetRequest(req.WithContext(ctx))

		return next(c)
	}
}
