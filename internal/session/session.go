package session

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	constants "github.com/CodeAndHammer/slovicka/internal/constants"
	models "github.com/CodeAndHammer/slovicka/internal/models"
	quiz "github.com/CodeAndHammer/slovicka/internal/quiz"
	util "github.com/CodeAndHammer/slovicka/internal/util"
)

// GetOrCreateSession returns the session id from the cookie, issuing a fresh
// one when the cookie is missing or not a uuid.
func GetOrCreateSession(app *models.App, c *gin.Context) string {
	if id, err := c.Cookie(constants.SessionCookieName); err == nil {
		if _, err := uuid.Parse(id); err == nil {
			return id
		}
	}

	id := uuid.NewString()
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(constants.SessionCookieName, id, int(app.CookieMaxAge.Seconds()), "/", "", app.IsProduction, true)
	util.LogInfoCtx(c.Request.Context(), "Issued quiz session %s", id)
	return id
}

// GetPlayer returns the player for sessionID, creating one whose main engine
// holds a copy of the currently loaded dictionary.
func GetPlayer(app *models.App, ctx context.Context, sessionID string) *models.Player {
	app.SessionMutex.RLock()
	player, exists := app.Players[sessionID]
	app.SessionMutex.RUnlock()
	if exists {
		player.Mu.Lock()
		player.LastAccessTime = time.Now()
		player.Mu.Unlock()
		return player
	}

	app.SessionMutex.Lock()
	defer app.SessionMutex.Unlock()
	if player, exists = app.Players[sessionID]; exists {
		return player
	}

	engine := quiz.New(app.EngineOptions()...)
	if app.Loader != nil {
		if dict, ok := app.Loader.Dictionary(); ok {
			engine.SetDictionary(dict)
		}
	}
	player = models.NewPlayer(engine)
	app.Players[sessionID] = player
	util.LogInfoCtx(ctx, "Created quiz state for session: %s", sessionID)
	return player
}

// ScheduleAdvance draws the next question for mode after app.AdvanceDelay.
// A zero delay advances immediately. The caller must hold player.Mu.
func ScheduleAdvance(app *models.App, player *models.Player, mode models.Mode) {
	CancelAdvance(player, mode)
	engine := player.Engine(mode)
	if engine == nil {
		return
	}
	if app.AdvanceDelay <= 0 {
		engine.Advance()
		return
	}

	gen := player.TimerGen[mode]
	player.Timers[mode] = time.AfterFunc(app.AdvanceDelay, func() {
		player.Mu.Lock()
		defer player.Mu.Unlock()
		if player.TimerGen[mode] != gen {
			return
		}
		delete(player.Timers, mode)
		if e := player.Engine(mode); e == engine && e.Phase() == quiz.PhaseVerdict {
			e.Advance()
		}
	})
}

// CancelAdvance drops a pending deferred advance. The caller must hold player.Mu.
func CancelAdvance(player *models.Player, mode models.Mode) {
	player.TimerGen[mode]++
	if t, ok := player.Timers[mode]; ok {
		t.Stop()
		delete(player.Timers, mode)
	}
}

// HasPendingAdvance reports whether a deferred advance is scheduled. The
// caller must hold player.Mu.
func HasPendingAdvance(player *models.Player, mode models.Mode) bool {
	_, ok := player.Timers[mode]
	return ok
}

func CleanupExpiredSessions(app *models.App) {
	app.SessionMutex.Lock()
	defer app.SessionMutex.Unlock()

	now := time.Now()
	expiredCount := 0
	for sessionID, player := range app.Players {
		player.Mu.Lock()
		expired := now.Sub(player.LastAccessTime) > app.SessionTTL
		if expired {
			CancelAdvance(player, models.ModeMain)
			CancelAdvance(player, models.ModeRanked)
		}
		player.Mu.Unlock()
		if expired {
			delete(app.Players, sessionID)
			expiredCount++
		}
	}

	if expiredCount > 0 {
		util.LogInfo("Cleaned up %d expired sessions", expiredCount)
	}
}

// StartSessionCleanup sweeps expired sessions every interval until ctx ends.
func StartSessionCleanup(ctx context.Context, app *models.App, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			CleanupExpiredSessions(app)
		}
	}
}
