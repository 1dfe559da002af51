package main

import (
	"context"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	ginGzip "github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	cachecontrol "go.eigsys.de/gin-cachecontrol/v2"

	config "github.com/CodeAndHammer/slovicka/internal/config"
	handlers "github.com/CodeAndHammer/slovicka/internal/handlers"
	models "github.com/CodeAndHammer/slovicka/internal/models"
	session "github.com/CodeAndHammer/slovicka/internal/session"
	util "github.com/CodeAndHammer/slovicka/internal/util"
	wordlist "github.com/CodeAndHammer/slovicka/internal/wordlist"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		util.LogFatal("Failed to load config: %v", err)
	}
	if err := util.InitLogger(cfg.IsProduction()); err != nil {
		util.LogFatal("Failed to init logger: %v", err)
	}
	defer util.SyncLogger()

	util.LogInfo("Starting Slovicka in %s mode", cfg.Env)

	source := wordlist.NewSource(cfg.WordlistSource, cfg.WordlistTimeout)
	if _, ok := source.(wordlist.FileSource); ok && !util.FileExists(cfg.WordlistSource) {
		util.LogWarn("Word list %s does not exist yet", cfg.WordlistSource)
	}
	loader := wordlist.NewLoader(source, cfg.WordlistSource, cfg.WordlistTimeout)
	if _, err := loader.Load(context.Background()); err != nil {
		// Start anyway; /reload retries and /start stays unavailable until then.
		util.LogWarn("Word list unavailable at startup: %v", err)
	}

	app := newApp(cfg, loader)
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := newRouter(app)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	app.startCleanupRoutines(ctx)
	app.startServer(ctx, router, cfg.Port)
}

const (
	sessionSweepInterval = 10 * time.Minute
	limiterSweepInterval = 30 * time.Minute
)

type server struct {
	*models.App
}

func newApp(cfg *config.Config, loader *wordlist.Loader) *server {
	return &server{&models.App{
		Loader:         loader,
		Players:        make(map[string]*models.Player),
		LimiterMap:     make(map[string]*models.RateLimiterEntry),
		IsProduction:   cfg.IsProduction(),
		StartTime:      time.Now(),
		CookieMaxAge:   cfg.CookieMaxAge,
		SessionTTL:     cfg.SessionTTL,
		AdvanceDelay:   cfg.AdvanceDelay,
		ReverseLimit:   cfg.ReverseLimit,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
		RateLimiterTTL: cfg.RateLimiterTTL,
	}}
}

func newRouter(app *server) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestIDMiddleware())
	router.Use(securityHeadersMiddleware())
	router.Use(app.csrfMiddleware())
	router.Use(ginGzip.Gzip(ginGzip.DefaultCompression))
	router.Use(cachecontrol.New(cachecontrol.Config{
		NoStore:        true,
		NoCache:        true,
		MustRevalidate: true,
	}))

	if err := router.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		util.LogWarn("Failed to set trusted proxies: %v", err)
	}

	handlers.Register(router, app.App, app.validateCSRFMiddleware(), app.rateLimitMiddleware())
	return router
}

// startServer serves until ctx ends, then drains in-flight requests.
func (app *server) startServer(ctx context.Context, router *gin.Engine, port string) {
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		util.LogInfo("Quiz server listening on http://localhost:%s", port)
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		util.LogFatal("Quiz server stopped: %v", err)
	case <-ctx.Done():
	}

	util.LogInfo("Shutting down quiz server, %d active sessions", app.sessionCount())
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		util.LogWarn("Graceful shutdown failed: %v", err)
	}
	util.LogInfo("Quiz server stopped")
}

func (app *server) sessionCount() int {
	app.SessionMutex.RLock()
	defer app.SessionMutex.RUnlock()
	return len(app.Players)
}

// startCleanupRoutines runs the session and rate limiter sweeps until ctx ends.
func (app *server) startCleanupRoutines(ctx context.Context) {
	go session.StartSessionCleanup(ctx, app.App, sessionSweepInterval)
	go func() {
		ticker := time.NewTicker(limiterSweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				app.cleanupStaleRateLimiters()
			}
		}
	}()
}

func isStateChanging(method string) bool {
	return strings.EqualFold(method, http.MethodPost) ||
		strings.EqualFold(method, http.MethodPut) ||
		strings.EqualFold(method, http.MethodDelete) ||
		strings.EqualFold(method, http.MethodPatch)
}
