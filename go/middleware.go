package foodcourtserver

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Apurer/foodcourt-server/internal/platform/auth"
	"github.com/Apurer/foodcourt-server/internal/platform/ratelimit"
	apierrors "github.com/Apurer/foodcourt-server/internal/shared/errors"
)

// RateLimit throttles callers per identity token, falling back to the client
// IP for requests that carry none in the query string.
func RateLimit(limiter *ratelimit.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := "ip:" + c.ClientIP()
		if token := c.Query("token"); token != "" {
			key = "token:" + token
		}
		if !limiter.Allow(key) {
			c.Header("Retry-After", "1")
			responder.Respond(c, apierrors.ErrRateLimited.WithDetail("slow down"))
			return
		}
		c.Next()
	}
}

// RequireVendor accepts only bearer tokens whose vendor_id claim matches the
// :vendorId path segment.
func RequireVendor(tokens *auth.VendorTokens) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := auth.ExtractBearer(c.Request)
		claims, err := tokens.Parse(raw)
		if err != nil {
			detail := "invalid vendor token"
			if errors.Is(err, auth.ErrMissingToken) {
				detail = "vendor token required"
			}
			c.Header("WWW-Authenticate", `Bearer realm="vendors"`)
			responder.Respond(c, apierrors.ErrUnauthorized.WithDetail(detail))
			return
		}
		if strconv.FormatInt(claims.VendorID, 10) != c.Param("vendorId") {
			responder.Respond(c, apierrors.NewForbiddenProblem("VendorMismatch", "token does not belong to this vendor"))
			return
		}
		c.Next()
	}
}
