package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"trendpub/internal/rpc"
)

// requireBearerToken guards every route except the console page. The check
// runs before any route-specific logic, including the unknown-path handler,
// so a bad credential always answers 401 rather than 404.
func (s *Server) requireBearerToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		if normalizePath(c.Request.URL.Path) == "admin" {
			c.Next()
			return
		}
		if !s.authorized(c.Request.Context(), c.GetHeader("Authorization")) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"jsonrpc": rpc.Version,
				"error": gin.H{
					"code":    rpc.CodeUnauthorized,
					"message": "未授权的访问",
					"data":    gin.H{"error": "缺少有效的 Authorization 请求头"},
				},
			})
			return
		}
		c.Next()
	}
}

// authorized reports whether the Authorization header carries the exact
// configured secret. An unconfigured secret authorizes nothing: the store
// value wins, the static fallback seeds fresh deployments, and when both
// are empty every request is denied.
func (s *Server) authorized(ctx context.Context, header string) bool {
	secret := s.adminSecret(ctx)
	if secret == "" {
		return false
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return false
	}
	return strings.TrimPrefix(header, prefix) == secret
}

func (s *Server) adminSecret(ctx context.Context) string {
	value, ok, err := s.deps.ConfigStore.Get(ctx, apiKeyConfigKey)
	if err != nil {
		s.logger.Error("read %s failed: %v", apiKeyConfigKey, err)
		return ""
	}
	if ok && value != "" {
		return value
	}
	return s.config.FallbackAPIKey
}

// normalizePath strips leading and trailing separators so that "/admin/"
// and "admin" route identically.
func normalizePath(path string) string {
	return strings.Trim(path, "/")
}
