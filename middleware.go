package main

import (
	"context"
	"crypto/rand"
	"fmt"
	"maps"
	"net/http"
	"slices"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"golang.org/x/time/rate"

	constants "github.com/CodeAndHammer/slovicka/internal/constants"
	models "github.com/CodeAndHammer/slovicka/internal/models"
	util "github.com/CodeAndHammer/slovicka/internal/util"
)

const contentSecurityPolicy = "default-src 'none'; frame-ancestors 'none'; base-uri 'none'; form-action 'self'"

func securityHeadersMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Security-Policy", contentSecurityPolicy)
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		if c.Request.TLS != nil {
			c.Header("Strict-Transport-Security", "max-age=63072000; includeSubDomains; preload")
		}
		c.Next()
	}
}

func (app *server) getLimiter(key string) *rate.Limiter {
	app.LimiterMutex.RLock()
	entry, ok := app.LimiterMap[key]
	app.LimiterMutex.RUnlock()
	if ok {
		app.LimiterMutex.Lock()
		entry.LastAccess = time.Now()
		app.LimiterMutex.Unlock()
		return entry.Limiter
	}

	app.LimiterMutex.Lock()
	defer app.LimiterMutex.Unlock()
	if entry, ok = app.LimiterMap[key]; ok {
		entry.LastAccess = time.Now()
		return entry.Limiter
	}

	if key == "" || key == "::1" {
		util.LogWarn("Rate limiter key is empty or loopback: %q", key)
	}
	rps := app.RateLimitRPS
	if rps <= 0 {
		rps = 1
	}
	lim := rate.NewLimiter(rate.Every(time.Second/time.Duration(rps)), app.RateLimitBurst)
	app.LimiterMap[key] = &models.RateLimiterEntry{
		Limiter:    lim,
		LastAccess: time.Now(),
	}
	return lim
}

// maxRateLimiters bounds the limiter map; past it the sweep also evicts the
// least recently seen half.
const maxRateLimiters = 50000

func (app *server) cleanupStaleRateLimiters() {
	app.LimiterMutex.Lock()
	defer app.LimiterMutex.Unlock()

	before := len(app.LimiterMap)
	cutoff := time.Now().Add(-app.RateLimiterTTL)
	maps.DeleteFunc(app.LimiterMap, func(_ string, e *models.RateLimiterEntry) bool {
		return e.LastAccess.Before(cutoff)
	})
	if stale := before - len(app.LimiterMap); stale > 0 {
		util.LogInfo("Cleaned up %d stale rate limiters", stale)
	}

	if len(app.LimiterMap) > maxRateLimiters {
		keys := lo.Keys(app.LimiterMap)
		slices.SortFunc(keys, func(a, b string) int {
			return app.LimiterMap[a].LastAccess.Compare(app.LimiterMap[b].LastAccess)
		})
		evict := keys[:len(keys)/2]
		for _, key := range evict {
			delete(app.LimiterMap, key)
		}
		util.LogWarn("Rate limiter map over %d entries, evicted %d oldest", maxRateLimiters, len(evict))
	}
}

func (app *server) rateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.ClientIP()
		if !app.getLimiter(key).Allow() {
			util.LogWarnCtx(c.Request.Context(), "Rate limit exceeded for %s", key)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests. Please slow down."})
			return
		}
		c.Next()
	}
}

func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := c.Request.Header.Get("X-Request-Id")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		ctx := context.WithValue(c.Request.Context(), constants.RequestIDKey, reqID)
		c.Request = c.Request.WithContext(ctx)
		c.Header("X-Request-Id", reqID)
		c.Next()
	}
}

// validateCSRFMiddleware enforces the double-submit cookie on state-changing
// requests: the token must arrive both as cookie and as header or form field.
func (app *server) validateCSRFMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if isStateChanging(c.Request.Method) {
			cookie, _ := c.Cookie(constants.CSRFCookieName)
			token := c.GetHeader(constants.CSRFHeaderName)
			if token == "" {
				token = c.PostForm(constants.CSRFCookieName)
			}
			if token == "" || cookie == "" || token != cookie {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "invalid csrf token"})
				return
			}
		}
		c.Next()
	}
}

func (app *server) csrfMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(constants.CSRFCookieName)
		if err != nil || len(token) < 8 {
			b := make([]byte, 32)
			if _, err := rand.Read(b); err == nil {
				token = fmt.Sprintf("%x", b)
				c.SetSameSite(http.SameSiteLaxMode)
				c.SetCookie(constants.CSRFCookieName, token, int(app.CookieMaxAge.Seconds()), "/", "", app.IsProduction, false)
			}
		}
		c.Set(constants.CSRFCookieName, token)
		c.Header(constants.CSRFHeaderName, token)
		c.Next()
	}
}
