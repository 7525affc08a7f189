package auth

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"ms-payment/internal/logger"
	"ms-payment/internal/utils"
)

type contextKey string

const userIDKey contextKey = "user_id"

// Middleware authenticates chi routes.
func Middleware(v Verifier, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sub, err := authenticate(r, v)
			if err != nil {
				log.LogSecurity("AUTH", r.Method+" "+r.URL.Path+": "+err.Error())
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), sub)))
		})
	}
}

// GinMiddleware authenticates gin routes.
func GinMiddleware(v Verifier, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		sub, err := authenticate(c.Request, v)
		if err != nil {
			log.LogSecurity("AUTH", c.Request.Method+" "+c.Request.URL.Path+": "+err.Error())
			c.AbortWithStatusJSON(http.StatusUnauthorized, utils.ErrorResponse("Unauthorized", "a valid bearer token is required"))
			return
		}
		c.Request = c.Request.WithContext(WithUserID(c.Request.Context(), sub))
		c.Next()
	}
}

func authenticate(r *http.Request, v Verifier) (string, error) {
	raw, err := ExtractTokenFromRequest(r)
	if err != nil {
		return "", err
	}
	return v.Verify(r.Context(), raw)
}

func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// Helper to extract user ID in handlers
func UserID(ctx context.Context) string {
	if uid, ok := ctx.Value(userIDKey).(string); ok {
		return uid
	}
	return ""
}
