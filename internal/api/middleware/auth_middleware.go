package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"careersite/internal/auth"
)

// RecruiterIDKey 是 handler 读取当前招聘者 ID 的上下文键。
const RecruiterIDKey = "recruiterID"

func abortUnauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
}

// TokenValidator 是中间件对认证服务的依赖。
type TokenValidator interface {
	ValidateToken(token, wantType string) (*auth.TokenClaims, error)
}

// AuthMiddleware 校验访问令牌并将 recruiterID 注入上下文。
func AuthMiddleware(tokens TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		rawToken, ok := BearerToken(c)
		if !ok {
			abortUnauthorized(c)
			return
		}

		claims, err := tokens.ValidateToken(rawToken, auth.TokenTypeAccess)
		if err != nil || claims.RecruiterID == 0 {
			abortUnauthorized(c)
			return
		}

		c.Set(RecruiterIDKey, claims.RecruiterID)
		c.Next()
	}
}

// BearerToken 读取 Authorization: Bearer <token>。
func BearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}
