package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// CORS returns a middleware that sets CORS headers for dashboard origins.
// allowedOrigins is "*" or a comma-separated list; an entry like "https://*.example.com" matches
// any subdomain.
func CORS(allowedOrigins string) gin.HandlerFunc {
	exact, wildcards, allowAll := parseOrigins(allowedOrigins)
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		allowOrigin := ""
		switch {
		case allowAll:
			allowOrigin = "*"
		case origin != "" && (exact[origin] || matchesWildcard(origin, wildcards)):
			allowOrigin = origin
			c.Header("Vary", "Origin")
		}
		if allowOrigin != "" {
			c.Header("Access-Control-Allow-Origin", allowOrigin)
			c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, "+HeaderRequestID)
			c.Header("Access-Control-Expose-Headers", HeaderRequestID)
			c.Header("Access-Control-Max-Age", "86400")
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// parseOrigins splits the list into exact origins and "scheme://*.suffix" patterns. An empty
// list allows every origin.
func parseOrigins(s string) (exact map[string]bool, wildcards []string, allowAll bool) {
	exact = make(map[string]bool)
	for _, o := range strings.Split(strings.TrimSpace(s), ",") {
		o = strings.TrimSpace(o)
		switch {
		case o == "":
		case o == "*":
			allowAll = true
		case strings.Contains(o, "://*."):
			wildcards = append(wildcards, o)
		default:
			exact[o] = true
		}
	}
	if len(exact) == 0 && len(wildcards) == 0 {
		allowAll = true
	}
	return exact, wildcards, allowAll
}

func matchesWildcard(origin string, patterns []string) bool {
	for _, p := range patterns {
		scheme, host, _ := strings.Cut(p, "://*")
		if strings.HasPrefix(origin, scheme+"://") && strings.HasSuffix(origin, host) &&
			len(origin) > len(scheme)+3+len(host) {
			return true
		}
	}
	return false
}
