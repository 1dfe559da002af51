package handlers

import (
	"errors"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"

	constants "github.com/CodeAndHammer/slovicka/internal/constants"
	models "github.com/CodeAndHammer/slovicka/internal/models"
	quiz "github.com/CodeAndHammer/slovicka/internal/quiz"
	session "github.com/CodeAndHammer/slovicka/internal/session"
	util "github.com/CodeAndHammer/slovicka/internal/util"
)

type answerRequest struct {
	Answer string `form:"answer" json:"answer"`
}

type stateResponse struct {
	quiz.View
	AdvancePending bool         `json:"advancePending"`
	Result         *quiz.Result `json:"result,omitempty"`
}

// Register wires the quiz routes. guards run before every state-changing route.
func Register(router gin.IRouter, app *models.App, guards ...gin.HandlerFunc) {
	post := func(path string, h func(*models.App, *gin.Context)) {
		chain := append(append([]gin.HandlerFunc{}, guards...), func(c *gin.Context) { h(app, c) })
		router.POST(path, chain...)
	}
	get := func(path string, h func(*models.App, *gin.Context)) {
		router.GET(path, func(c *gin.Context) { h(app, c) })
	}

	get(constants.RouteHome, StateHandler)
	get(constants.RouteState, StateHandler)
	post(constants.RouteStart, StartHandler)
	post(constants.RouteAnswer, AnswerHandler)
	post(constants.RouteAdvance, AdvanceHandler)
	post(constants.RouteSwitchDirection, SwitchDirectionHandler)
	post(constants.RouteReload, ReloadHandler)

	get(constants.RouteRankedState, RankedStateHandler)
	post(constants.RouteRankedStart, RankedStartHandler)
	post(constants.RouteRankedAnswer, RankedAnswerHandler)
	post(constants.RouteRankedAdvance, RankedAdvanceHandler)

	get(constants.RouteHealthz, HealthzHandler)
}

func StateHandler(app *models.App, c *gin.Context) {
	renderState(app, c, models.ModeMain, nil)
}

func RankedStateHandler(app *models.App, c *gin.Context) {
	renderState(app, c, models.ModeRanked, nil)
}

func StartHandler(app *models.App, c *gin.Context) {
	ctx := c.Request.Context()
	dict, ok := app.Loader.Dictionary()
	if !ok {
		util.LogWarnCtx(ctx, "Start requested before the word list loaded")
		abortWithError(c, http.StatusServiceUnavailable, constants.ErrorCodeNoDictionary)
		return
	}

	sessionID := session.GetOrCreateSession(app, c)
	player := session.GetPlayer(app, ctx, sessionID)

	player.Mu.Lock()
	session.CancelAdvance(player, models.ModeMain)
	player.Main.SetDictionary(dict)
	_, ok = player.Main.Start()
	player.Mu.Unlock()

	if !ok {
		util.LogInfoCtx(ctx, "Session %s started with nothing to ask", sessionID)
	}
	renderPlayer(c, player, models.ModeMain, nil)
}

func RankedStartHandler(app *models.App, c *gin.Context) {
	ctx := c.Request.Context()
	dict, ok := app.Loader.Dictionary()
	if !ok {
		abortWithError(c, http.StatusServiceUnavailable, constants.ErrorCodeNoDictionary)
		return
	}

	sessionID := session.GetOrCreateSession(app, c)
	player := session.GetPlayer(app, ctx, sessionID)

	player.Mu.Lock()
	session.CancelAdvance(player, models.ModeRanked)
	player.Ranked = quiz.NewRanked(dict, app.EngineOptions()...)
	player.Ranked.Start()
	player.Mu.Unlock()

	util.LogInfoCtx(ctx, "Ranked quiz started for session %s with %d words", sessionID, dict.Len())
	renderPlayer(c, player, models.ModeRanked, nil)
}

func AnswerHandler(app *models.App, c *gin.Context) {
	submitAnswer(app, c, models.ModeMain)
}

func RankedAnswerHandler(app *models.App, c *gin.Context) {
	submitAnswer(app, c, models.ModeRanked)
}

func submitAnswer(app *models.App, c *gin.Context, mode models.Mode) {
	ctx := c.Request.Context()
	var req answerRequest
	if err := c.ShouldBind(&req); err != nil {
		util.LogWarnCtx(ctx, "Invalid answer payload: %v", err)
		abortWithError(c, http.StatusBadRequest, constants.ErrorCodeInvalidRequest)
		return
	}

	sessionID := session.GetOrCreateSession(app, c)
	player := session.GetPlayer(app, ctx, sessionID)

	player.Mu.Lock()
	engine := player.Engine(mode)
	if engine == nil {
		player.Mu.Unlock()
		abortWithError(c, http.StatusConflict, constants.ErrorCodeNoRankedSession)
		return
	}
	res, err := engine.SubmitAnswer(req.Answer)
	if err != nil {
		player.Mu.Unlock()
		if errors.Is(err, quiz.ErrNoQuestion) {
			abortWithError(c, http.StatusConflict, constants.ErrorCodeNoQuestion)
			return
		}
		abortWithError(c, http.StatusInternalServerError, err.Error())
		return
	}
	util.LogInfoCtx(ctx, "Session %s (%s) answered %q for %q: %s", sessionID, mode, res.Submitted, res.Word, res.Verdict)

	// Render the verdict before the advance can happen.
	resp := stateFor(player, mode, &res)
	session.ScheduleAdvance(app, player, mode)
	resp.AdvancePending = session.HasPendingAdvance(player, mode)
	player.Mu.Unlock()

	c.JSON(http.StatusOK, resp)
}

func AdvanceHandler(app *models.App, c *gin.Context) {
	advance(app, c, models.ModeMain)
}

func RankedAdvanceHandler(app *models.App, c *gin.Context) {
	advance(app, c, models.ModeRanked)
}

func advance(app *models.App, c *gin.Context, mode models.Mode) {
	sessionID := session.GetOrCreateSession(app, c)
	player := session.GetPlayer(app, c.Request.Context(), sessionID)

	player.Mu.Lock()
	engine := player.Engine(mode)
	if engine == nil {
		player.Mu.Unlock()
		abortWithError(c, http.StatusConflict, constants.ErrorCodeNoRankedSession)
		return
	}
	session.CancelAdvance(player, mode)
	engine.Advance()
	player.Mu.Unlock()

	renderPlayer(c, player, mode, nil)
}

func SwitchDirectionHandler(app *models.App, c *gin.Context) {
	ctx := c.Request.Context()
	sessionID := session.GetOrCreateSession(app, c)
	player := session.GetPlayer(app, ctx, sessionID)

	player.Mu.Lock()
	session.CancelAdvance(player, models.ModeMain)
	err := player.Main.SwitchDirection()
	player.Mu.Unlock()

	if errors.Is(err, quiz.ErrDirectionLocked) {
		abortWithError(c, http.StatusConflict, constants.ErrorCodeDirectionLocked)
		return
	}
	util.LogInfoCtx(ctx, "Session %s switched direction", sessionID)
	renderPlayer(c, player, models.ModeMain, nil)
}

// ReloadHandler refetches the word list and hands the new dictionary to the
// caller's main engine without touching the running session.
func ReloadHandler(app *models.App, c *gin.Context) {
	ctx := c.Request.Context()
	dict, err := app.Loader.Load(ctx)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{
			"error":  constants.ErrorCodeReloadFailed,
			"status": app.Loader.Status(),
		})
		return
	}

	sessionID := session.GetOrCreateSession(app, c)
	player := session.GetPlayer(app, ctx, sessionID)
	player.Mu.Lock()
	player.Main.SetDictionary(dict)
	player.Mu.Unlock()

	c.JSON(http.StatusOK, gin.H{"status": app.Loader.Status()})
}

func HealthzHandler(app *models.App, c *gin.Context) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	uptime := time.Since(app.StartTime)

	app.SessionMutex.RLock()
	sessionCount := len(app.Players)
	app.SessionMutex.RUnlock()

	app.LimiterMutex.RLock()
	limiterCount := len(app.LimiterMap)
	app.LimiterMutex.RUnlock()

	c.JSON(http.StatusOK, gin.H{
		"status":          "ok",
		"env":             map[bool]string{true: "production", false: "development"}[app.IsProduction],
		"wordlist":        app.Loader.Status(),
		"active_sessions": sessionCount,
		"active_limiters": limiterCount,
		"memory_alloc_mb": m.Alloc / 1024 / 1024,
		"memory_sys_mb":   m.Sys / 1024 / 1024,
		"memory_gc_count": m.NumGC,
		"uptime":          util.FormatUptime(uptime),
		"timestamp":       time.Now().UTC().Format(time.RFC3339),
	})
}

func renderState(app *models.App, c *gin.Context, mode models.Mode, res *quiz.Result) {
	sessionID := session.GetOrCreateSession(app, c)
	player := session.GetPlayer(app, c.Request.Context(), sessionID)
	renderPlayer(c, player, mode, res)
}

func renderPlayer(c *gin.Context, player *models.Player, mode models.Mode, res *quiz.Result) {
	player.Mu.Lock()
	if player.Engine(mode) == nil {
		player.Mu.Unlock()
		abortWithError(c, http.StatusNotFound, constants.ErrorCodeNoRankedSession)
		return
	}
	resp := stateFor(player, mode, res)
	player.Mu.Unlock()
	c.JSON(http.StatusOK, resp)
}

// stateFor snapshots the engine. The caller must hold player.Mu.
func stateFor(player *models.Player, mode models.Mode, res *quiz.Result) stateResponse {
	return stateResponse{
		View:           player.Engine(mode).View(),
		AdvancePending: session.HasPendingAdvance(player, mode),
		Result:         res,
	}
}

func abortWithError(c *gin.Context, status int, code string) {
	c.AbortWithStatusJSON(status, gin.H{"error": code})
}
