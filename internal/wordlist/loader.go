package wordlist

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	quiz "github.com/CodeAndHammer/slovicka/internal/quiz"
	util "github.com/CodeAndHammer/slovicka/internal/util"
)

type Status struct {
	Location  string    `json:"location"`
	Loaded    bool      `json:"loaded"`
	Pairs     int       `json:"pairs"`
	LoadedAt  time.Time `json:"loadedAt,omitzero"`
	LastError string    `json:"lastError,omitempty"`
}

// Loader fetches the word list and keeps the last dictionary that loaded
// successfully. Concurrent loads share a single fetch.
type Loader struct {
	source   Source
	location string
	timeout  time.Duration
	group    singleflight.Group

	mu       sync.RWMutex
	dict     *quiz.Dictionary
	loadedAt time.Time
	lastErr  error
}

func NewLoader(source Source, location string, timeout time.Duration) *Loader {
	return &Loader{source: source, location: location, timeout: timeout}
}

// Load fetches and parses the word list. On failure the previous dictionary,
// if any, stays in place. Concurrent callers join one fetch, which runs
// detached from any single caller's cancellation; a caller whose ctx ends
// stops waiting and gets ctx.Err().
func (l *Loader) Load(ctx context.Context) (*quiz.Dictionary, error) {
	ch := l.group.DoChan("load", func() (any, error) {
		return l.fetch(context.WithoutCancel(ctx))
	})

	select {
	case <-ctx.Done():
		util.LogWarnCtx(ctx, "Stopped waiting for word list load: %v", ctx.Err())
		return nil, ctx.Err()
	case res := <-ch:
		if res.Shared {
			util.LogInfoCtx(ctx, "Joined an in-flight word list load")
		}
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*quiz.Dictionary), nil
	}
}

func (l *Loader) fetch(ctx context.Context) (*quiz.Dictionary, error) {
	fetchCtx := ctx
	if l.timeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	util.LogInfoCtx(ctx, "Loading word list from %s", l.location)
	lines, err := l.source.Lines(fetchCtx)
	if err != nil {
		l.mu.Lock()
		l.lastErr = err
		l.mu.Unlock()
		util.LogWarnCtx(ctx, "Failed to load word list: %v", err)
		return nil, err
	}

	dict := quiz.ParseLines(lines)
	l.mu.Lock()
	l.dict = dict
	l.loadedAt = time.Now()
	l.lastErr = nil
	l.mu.Unlock()
	util.LogInfoCtx(ctx, "Loaded %d word pairs from %d lines", dict.Len(), len(lines))
	return dict, nil
}

// Dictionary returns the last successfully loaded dictionary. Callers must
// not modify it; engines take their own copy.
func (l *Loader) Dictionary() (*quiz.Dictionary, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.dict, l.dict != nil
}

func (l *Loader) Status() Status {
	l.mu.RLock()
	defer l.mu.RUnlock()
	s := Status{
		Location: l.location,
		Loaded:   l.dict != nil,
		Pairs:    l.dict.Len(),
		LoadedAt: l.loadedAt,
	}
	if l.lastErr != nil {
		s.LastError = l.lastErr.Error()
	}
	return s
}
