package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "honquedoro/internal/errors"
)

// corsMethods are the methods the session store routes answer to.
const corsMethods = "GET,POST,PUT,DELETE,OPTIONS"

// CORSPolicy lists the browser origins allowed to call the API. An entry of
// "*" allows any origin.
type CORSPolicy struct {
	Origins []string
	MaxAge  time.Duration
}

func (p CORSPolicy) matcher() func(origin string) (string, bool) {
	allowed := make(map[string]struct{}, len(p.Origins))
	anyOrigin := false
	for _, origin := range p.Origins {
		origin = normalizeOrigin(origin)
		if origin == "*" {
			anyOrigin = true
			continue
		}
		if origin != "" {
			allowed[origin] = struct{}{}
		}
	}
	return func(origin string) (string, bool) {
		if anyOrigin {
			return "*", true
		}
		_, ok := allowed[normalizeOrigin(origin)]
		return origin, ok
	}
}

func normalizeOrigin(origin string) string {
	return strings.TrimSuffix(strings.ToLower(strings.TrimSpace(origin)), "/")
}

// CORS answers preflight requests from allowed origins and tags their
// responses. A preflight from any other origin is refused with 403.
func CORS(policy CORSPolicy) gin.HandlerFunc {
	match := policy.matcher()
	maxAge := strconv.Itoa(int(policy.MaxAge / time.Second))

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin == "" {
			c.Next()
			return
		}

		preflight := c.Request.Method == http.MethodOptions &&
			c.GetHeader("Access-Control-Request-Method") != ""
		c.Header("Vary", "Origin")

		allowOrigin, ok := match(origin)
		if !ok {
			if preflight {
				writeError(c, apperrors.New(http.StatusForbidden, "origin_not_allowed", "origin is not allowed"))
				return
			}
			c.Next()
			return
		}

		c.Header("Access-Control-Allow-Origin", allowOrigin)
		if !preflight {
			c.Next()
			return
		}
		c.Header("Access-Control-Allow-Methods", corsMethods)
		c.Header("Access-Control-Allow-Headers", "Authorization,Content-Type")
		if policy.MaxAge > 0 {
			c.Header("Access-Control-Max-Age", maxAge)
		}
		c.AbortWithStatus(http.StatusNoContent)
	}
}
