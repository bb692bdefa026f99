package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"chovha/internal/auth"
	"chovha/internal/domain"
)

const claimsKey = "claims"

// TokenValidator verifies bearer tokens.
type TokenValidator interface {
	Validate(token string) (*auth.Claims, error)
}

type errorBody struct {
	Error string `json:"error"`
}

// Authenticate rejects requests without a valid bearer token and stores the
// token claims on the context.
func Authenticate(tokens TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorBody{Error: "Access token required"})
			return
		}

		claims, err := tokens.Validate(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusForbidden, errorBody{Error: "Invalid or expired token"})
			return
		}

		c.Set(claimsKey, claims)
		c.Next()
	}
}

// RequireUserType lets only users of the given type through. It must run
// after Authenticate.
func RequireUserType(userType domain.UserType) gin.HandlerFunc {
	message := "Driver access required"
	if userType == domain.UserTypePassenger {
		message = "Passenger access required"
	}

	return func(c *gin.Context) {
		claims, ok := CurrentUser(c)
		if !ok || claims.UserType != userType {
			c.AbortWithStatusJSON(http.StatusForbidden, errorBody{Error: message})
			return
		}
		c.Next()
	}
}

// CurrentUser returns the claims of the authenticated caller.
func CurrentUser(c *gin.Context) (*auth.Claims, bool) {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*auth.Claims)
	return claims, ok
}

// UserID returns the authenticated caller's ID, or "" when unauthenticated.
func UserID(c *gin.Context) string {
	if claims, ok := CurrentUser(c); ok {
		return claims.UserID
	}
	return ""
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
