package middleware

import (
	"errors"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"forumhub/internal/auth"
	apperrors "forumhub/internal/errors"
	"forumhub/internal/model"
)

const (
	claimsKey    = "auth.claims"
	principalKey = "auth.principal"
)

// Authenticate verifies the bearer token with tokens and then resolves the caller
// with resolver. The resolved user is stored in the request context; handlers fetch
// it with Principal and pass it on explicitly.
func Authenticate(tokens *auth.TokenService, resolver *auth.PrincipalResolver) []echo.MiddlewareFunc {
	verify := echojwt.WithConfig(echojwt.Config{
		ContextKey:  claimsKey,
		TokenLookup: "header:" + echo.HeaderAuthorization + ":Bearer ",
		ParseTokenFunc: func(c echo.Context, raw string) (any, error) {
			return tokens.Authenticate(raw)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			switch {
			case errors.Is(err, apperrors.ErrTokenExpired):
				return apperrors.ToEcho(apperrors.ErrTokenExpired)
			case errors.Is(err, apperrors.ErrInvalidSignature):
				return apperrors.ToEcho(apperrors.ErrInvalidSignature)
			default:
				return apperrors.ToEcho(apperrors.ErrNoAuthenticatedPrincipal)
			}
		},
	})

	resolve := func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, _ := c.Get(claimsKey).(*auth.Claims)
			user, err := resolver.Resolve(c.Request().Context(), auth.FromClaims(claims))
			if err != nil {
				return apperrors.ToEcho(err)
			}
			c.Set(principalKey, user)
			return next(c)
		}
	}

	return []echo.MiddlewareFunc{verify, resolve}
}

// Principal returns the user resolved by Authenticate.
func Principal(c echo.Context) (*model.User, error) {
	user, ok := c.Get(principalKey).(*model.User)
	if !ok || user == nil {
		return nil, apperrors.ErrNoAuthenticatedPrincipal
	}
	return user, nil
}
