package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/stemsi/examcore/internal/authstub"
	"github.com/stemsi/examcore/internal/response"
)

// ContextKeyClaims is the Gin context key the validated bearer claims are
// stored under.
const ContextKeyClaims = "claims"

// RequireStudentAuth validates a bearer token from the Authorization header
// and requires the student role.
func RequireStudentAuth(issuer *authstub.Issuer) gin.HandlerFunc {
	return requireRole(issuer, authstub.RoleStudent, response.ErrStudentAccessOnly)
}

// RequireAdminAuth validates a bearer token from the Authorization header
// and requires the admin role.
func RequireAdminAuth(issuer *authstub.Issuer) gin.HandlerFunc {
	return requireRole(issuer, authstub.RoleAdmin, response.ErrAdminAccessOnly)
}

// RequireStudentWSAuth validates a student bearer token from the ?auth=
// query param, used for the WebSocket upgrade request where headers are
// often unavailable to the client library.
func RequireStudentWSAuth(issuer *authstub.Issuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := c.Query("auth")
		if tokenStr == "" {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}
		claims, err := issuer.Validate(tokenStr)
		if err != nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenInvalid)
			return
		}
		if claims.Role != authstub.RoleStudent {
			response.AbortFail(c, http.StatusForbidden, response.ErrStudentAccessOnly)
			return
		}
		c.Set(ContextKeyClaims, claims)
		c.Next()
	}
}

func requireRole(issuer *authstub.Issuer, role authstub.Role, roleErr response.ErrCode) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := extractAndValidateClaims(c, issuer)
		if err != nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenInvalid)
			return
		}
		if claims.Role != role {
			response.AbortFail(c, http.StatusForbidden, roleErr)
			return
		}
		c.Set(ContextKeyClaims, claims)
		c.Next()
	}
}

// GetClaims retrieves the validated bearer claims from the Gin context.
func GetClaims(c *gin.Context) *authstub.Claims {
	val, exists := c.Get(ContextKeyClaims)
	if !exists {
		return nil
	}
	claims, ok := val.(*authstub.Claims)
	if !ok {
		return nil
	}
	return claims
}

func extractAndValidateClaims(c *gin.Context, issuer *authstub.Issuer) (*authstub.Claims, error) {
	tokenStr := ""

	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			tokenStr = parts[1]
		}
	}

	if tokenStr == "" {
		tokenStr = c.Query("auth")
	}

	if tokenStr == "" {
		return nil, authstub.ErrInvalidToken
	}

	return issuer.Validate(tokenStr)
}
