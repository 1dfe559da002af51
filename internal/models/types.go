package models

import (
	"sync"
	"time"

	"golang.org/x/time/rate"

	quiz "github.com/CodeAndHammer/slovicka/internal/quiz"
	wordlist "github.com/CodeAndHammer/slovicka/internal/wordlist"
)

// Mode selects which of a player's engines a request targets.
type Mode string

const (
	ModeMain   Mode = "main"
	ModeRanked Mode = "ranked"
)

// Player is the quiz state behind one session cookie: the main engine and,
// once requested, an isolated ranked engine. Mu guards everything below it.
type Player struct {
	Mu             sync.Mutex
	Main           *quiz.Engine
	Ranked         *quiz.Engine
	LastAccessTime time.Time
	Timers         map[Mode]*time.Timer
	TimerGen       map[Mode]uint64
}

func NewPlayer(main *quiz.Engine) *Player {
	return &Player{
		Main:           main,
		LastAccessTime: time.Now(),
		Timers:         make(map[Mode]*time.Timer),
		TimerGen:       make(map[Mode]uint64),
	}
}

// Engine returns the engine for mode, or nil when no ranked session exists.
func (p *Player) Engine(mode Mode) *quiz.Engine {
	if mode == ModeRanked {
		return p.Ranked
	}
	return p.Main
}

type RateLimiterEntry struct {
	Limiter    *rate.Limiter
	LastAccess time.Time
}

type App struct {
	Loader         *wordlist.Loader
	Players        map[string]*Player
	SessionMutex   sync.RWMutex
	LimiterMap     map[string]*RateLimiterEntry
	LimiterMutex   sync.RWMutex
	IsProduction   bool
	StartTime      time.Time
	CookieMaxAge   time.Duration
	SessionTTL     time.Duration
	AdvanceDelay   time.Duration
	ReverseLimit   int
	RateLimitRPS   int
	RateLimitBurst int
	RateLimiterTTL time.Duration
	// NewRandom, when set, seeds each new engine; tests use it for
	// deterministic draws.
	NewRandom func() quiz.RandomSource
}

func (app *App) EngineOptions() []quiz.Option {
	opts := []quiz.Option{quiz.WithReverseLimit(app.ReverseLimit)}
	if app.NewRandom != nil {
		opts = append(opts, quiz.WithRandom(app.NewRandom()))
	}
	return opts
}
