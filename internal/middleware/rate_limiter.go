package middleware

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/SeakMengs/AutoCertLMS/internal/util"
	"github.com/gin-gonic/gin"
)

func (m Middleware) RateLimiterMiddleware(ctx *gin.Context) {
	if m.rateLimiter == nil || !m.rateLimiter.Enabled() {
		ctx.Next()
		return
	}

	allowed, retryAfter := m.rateLimiter.Allow(ctx.ClientIP())
	if !allowed {
		ctx.Header("Retry-After", strconv.Itoa(retryAfter))
		util.ResponseFailed(ctx, http.StatusTooManyRequests, "Too many requests", util.GenerateErrorMessages(errors.New("rate limit exceeded"), "rateLimit"), nil)
		return
	}

	ctx.Next()
}
