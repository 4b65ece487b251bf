package middleware

import (
	"net/http"
	"strings"

	"lounge_pos_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// IPChecker reports whether an address may use the API.
type IPChecker interface {
	IsAllowed(ip string) (bool, error)
}

// WhitelistMiddleware rejects requests from addresses that are not enabled in
// the whitelist. Paths starting with one of exemptPrefixes are let through so a
// terminal can still discover its own address.
func WhitelistMiddleware(checker IPChecker, exemptPrefixes ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}
		for _, prefix := range exemptPrefixes {
			if strings.HasPrefix(c.Request.URL.Path, prefix) {
				c.Next()
				return
			}
		}

		ip := utils.NormalizeIP(c.ClientIP())
		allowed, err := checker.IsAllowed(ip)
		if err != nil {
			utils.LogError(err, "WhitelistMiddleware: failed to check client address")
			utils.RespondWithError(c, utils.NewAPIError(http.StatusServiceUnavailable, utils.ErrCodeServiceUnavailable, "Unable to verify client address", ""))
			return
		}
		if !allowed {
			utils.LogWarn(nil, "Request from non-whitelisted address rejected", map[string]interface{}{"client_ip": ip, "path": c.Request.URL.Path})
			utils.RespondWithError(c, utils.NewAPIError(http.StatusForbidden, utils.ErrCodeForbidden, "Access denied", ""))
			return
		}
		c.Set("clientIP", ip)
		c.Next()
	}
}
