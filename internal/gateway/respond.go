package gateway

import (
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// Error codes surfaced on API-shaped paths.
const (
	CodeRateLimited        = "RATE_LIMITED"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeSessionInvalidated = "SESSION_INVALIDATED"
	CodeReadOnly           = "SYSTEM_READ_ONLY"
	CodeSubscriptionLocked = "SUBSCRIPTION_LOCKED"
	CodeFeatureDisabled    = "FEATURE_DISABLED"
	CodeForbidden          = "FORBIDDEN"
)

// Response headers the gateway owns.
const (
	HeaderRequestID    = "X-Request-Id"
	HeaderGraceWarning = "X-Tenant-Grace-Warning"
	HeaderGraceEndsAt  = "X-Tenant-Grace-Ends-At"
)

type errorBody struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	RetryAfterMs int64  `json:"retryAfterMs,omitempty"`
}

type errorEnvelope struct {
	Success bool      `json:"success"`
	Error   errorBody `json:"error"`
}

func writeAPIError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, errorEnvelope{
		Error: errorBody{Code: code, Message: message},
	})
}

func writeRateLimited(c *gin.Context, retryAfter time.Duration) {
	seconds := int64(math.Ceil(retryAfter.Seconds()))
	if seconds < 1 {
		seconds = 1
	}
	c.Header("Retry-After", strconv.FormatInt(seconds, 10))
	c.AbortWithStatusJSON(http.StatusTooManyRequests, errorEnvelope{
		Error: errorBody{
			Code:         CodeRateLimited,
			Message:      "too many requests",
			RetryAfterMs: retryAfter.Milliseconds(),
		},
	})
}

func redirect(c *gin.Context, location string) {
	c.Redirect(http.StatusFound, location)
	c.Abort()
}

func signInRedirect(c *gin.Context, signInPath, callbackURL string) {
	redirect(c, signInPath+"?callbackUrl="+url.QueryEscape(callbackURL))
}

func signInErrorRedirect(c *gin.Context, signInPath, errCode string) {
	redirect(c, signInPath+"?error="+url.QueryEscape(errCode))
}
