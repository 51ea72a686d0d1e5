package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"firebase.google.com/go/v4/auth"
	"github.com/campuslink/backend/internal/repositories"
	"github.com/labstack/echo/v4"
)

// FirebaseAuthMiddleware creates an Echo middleware that verifies Firebase
// ID tokens and resolves the local actor for the verified UID, so handlers
// see the same userID/userRole context keys regardless of auth mode.
func FirebaseAuthMiddleware(authClient *auth.Client, users repositories.UserRepository) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Authorization header is missing")
			}

			tokenParts := strings.Split(authHeader, " ")
			if len(tokenParts) != 2 || strings.ToLower(tokenParts[0]) != "bearer" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Authorization header must be in Bearer format")
			}

			idToken := tokenParts[1]

			// Verify the ID token
			token, err := authClient.VerifyIDToken(c.Request().Context(), idToken)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, fmt.Sprintf("Invalid or expired ID token: %v", err))
			}

			user, err := users.GetUserByFirebaseUID(token.UID)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Authenticated user not found in database")
			}

			c.Set("firebaseUID", token.UID)
			c.Set("userID", user.ID)
			c.Set("userRole", user.Role)

			return next(c)
		}
	}
}
