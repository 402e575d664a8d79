package middleware

import (
	"net/http"
	"strings"

	"bitwise74/blog-api/internal/auth"
	"bitwise74/blog-api/pkg/security"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// NewJWTMiddleware marks the request as authenticated when it carries a
// valid bearer token. It never rejects a request, resolvers decide what
// needs authentication.
func NewJWTMiddleware(tokens *security.TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		info := auth.Info{}

		if raw, ok := bearerToken(c.GetHeader("Authorization")); ok {
			claims, err := tokens.Parse(raw)
			if err != nil {
				zap.L().Debug("Rejected auth token", zap.Error(err), zap.String("requestID", c.GetString("requestID")))
			} else {
				info = auth.Info{
					IsAuth: true,
					UserID: claims.UserID,
					Email:  claims.Email,
				}

				c.Set("userID", claims.UserID)
			}
		}

		c.Request = c.Request.WithContext(auth.WithInfo(c.Request.Context(), info))
		c.Next()
	}
}

// RequireAuth aborts requests that NewJWTMiddleware didn't authenticate
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !auth.FromContext(c.Request.Context()).IsAuth {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":     "Authorization token invalid",
				"requestID": c.GetString("requestID"),
			})
			return
		}

		c.Next()
	}
}

func bearerToken(h string) (string, bool) {
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}

	token = strings.TrimSpace(token)
	return token, token != ""
}
