package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"chunkslate/internal/pkg/ctxutil"
	httputil "chunkslate/internal/pkg/http"
	"chunkslate/internal/pkg/jwt"
)

// Auth JWT 认证中间件
// 从 Authorization header 中提取 Bearer token，验证后注入主体到 context。
// SSE 客户端无法设置 header 时可使用 access_token 查询参数。
func Auth(jwtUtil *jwt.JWT) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := c.Query("access_token")
		if authHeader := c.GetHeader("Authorization"); authHeader != "" {
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				c.AbortWithStatusJSON(http.StatusUnauthorized,
					httputil.NewErrorResponse(httputil.CodeUnauthorized, "Invalid authorization header"))
				return
			}
			tokenString = parts[1]
		}
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				httputil.NewErrorResponse(httputil.CodeUnauthorized, "unauthorized"))
			return
		}

		claims, err := jwtUtil.ValidateToken(tokenString)
		if err != nil {
			message := "invalid token"
			if errors.Is(err, jwt.ErrExpiredToken) {
				message = "token expired"
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				httputil.NewErrorResponse(httputil.CodeTokenInvalid, message))
			return
		}

		c.Request = c.Request.WithContext(ctxutil.WithSubject(c.Request.Context(), claims.Subject))
		c.Next()
	}
}
