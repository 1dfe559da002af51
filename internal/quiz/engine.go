package quiz

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/samber/lo"

	util "github.com/CodeAndHammer/slovicka/internal/util"
)

var (
	ErrNoQuestion      = errors.New("no question is awaiting an answer")
	ErrDirectionLocked = errors.New("direction is fixed for this session")
)

type Direction int

const (
	SourceToTarget Direction = iota
	TargetToSource
)

func (d Direction) String() string {
	if d == TargetToSource {
		return "target-to-source"
	}
	return "source-to-target"
}

// From is the language questions are asked in.
func (d Direction) From() string {
	if d == TargetToSource {
		return TargetLanguage
	}
	return SourceLanguage
}

// To is the language answers are expected in.
func (d Direction) To() string {
	if d == TargetToSource {
		return SourceLanguage
	}
	return TargetLanguage
}

func (d Direction) Label() string {
	return d.From() + " to " + d.To()
}

func (d Direction) Toggle() Direction {
	if d == TargetToSource {
		return SourceToTarget
	}
	return TargetToSource
}

type Phase string

const (
	PhaseIdle    Phase = "idle"
	PhaseAsking  Phase = "asking"
	PhaseVerdict Phase = "verdict"
	PhaseEnded   Phase = "ended"
)

type Verdict string

const (
	Correct   Verdict = "correct"
	Incorrect Verdict = "incorrect"
)

func (v Verdict) Title() string {
	if v == Correct {
		return "Correct"
	}
	return "Incorrect"
}

type Question struct {
	Word      string    `json:"word"`
	Expected  string    `json:"expected"`
	Accepted  []string  `json:"-"`
	Direction Direction `json:"-"`
}

type Result struct {
	Verdict   Verdict `json:"verdict"`
	Word      string  `json:"word"`
	Expected  string  `json:"expected"`
	Submitted string  `json:"submitted"`
}

type HistoryEntry struct {
	Word    string  `json:"word"`
	Answer  string  `json:"answer"`
	Verdict Verdict `json:"verdict"`
}

func (h HistoryEntry) String() string {
	return fmt.Sprintf("%s%s%s (%s)", h.Word, Delimiter, h.Answer, h.Verdict.Title())
}

type Stats struct {
	TotalAsked int     `json:"totalAsked"`
	Correct    int     `json:"correct"`
	Incorrect  int     `json:"incorrect"`
	Percentage float64 `json:"percentage"`
}

func (s Stats) Label() string {
	return fmt.Sprintf("Percentage: %.1f%%", s.Percentage)
}

// Engine runs one quiz session over its own dictionary snapshot. It is not
// safe for concurrent use; callers serialize access.
type Engine struct {
	dict         *Dictionary
	direction    Direction
	locked       bool
	rng          RandomSource
	reverseLimit int

	pool         []string
	reverseDrawn int
	started      bool
	phase        Phase
	current      Question
	last         *Result

	correct   int
	incorrect int
	history   []HistoryEntry
}

type Option func(*Engine)

func WithRandom(rng RandomSource) Option {
	return func(e *Engine) { e.rng = rng }
}

// WithReverseLimit caps the number of draws in the target-to-source
// direction. Zero or less means one draw per distinct target word.
func WithReverseLimit(n int) Option {
	return func(e *Engine) { e.reverseLimit = n }
}

func WithDirection(d Direction) Option {
	return func(e *Engine) { e.direction = d }
}

func New(opts ...Option) *Engine {
	e := &Engine{
		dict:  NewDictionary(),
		rng:   cryptoSource{},
		phase: PhaseIdle,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// NewRanked returns an engine fixed to the source-to-target direction that
// owns a private copy of dict.
func NewRanked(dict *Dictionary, opts ...Option) *Engine {
	e := New(opts...)
	e.direction = SourceToTarget
	e.locked = true
	e.dict = dict.Clone()
	return e
}

// LoadDictionary replaces the dictionary. The running session is untouched.
func (e *Engine) LoadDictionary(lines []string) {
	e.dict = ParseLines(lines)
	util.LogInfo("Loaded %d word pairs", e.dict.Len())
}

// SetDictionary replaces the dictionary with a copy of dict.
func (e *Engine) SetDictionary(dict *Dictionary) {
	e.dict = dict.Clone()
}

func (e *Engine) Dictionary() *Dictionary { return e.dict }
func (e *Engine) Direction() Direction    { return e.direction }
func (e *Engine) Phase() Phase            { return e.phase }
func (e *Engine) Ranked() bool            { return e.locked }

func (e *Engine) Current() (Question, bool) {
	if e.phase != PhaseAsking && e.phase != PhaseVerdict {
		return Question{}, false
	}
	return e.current, true
}

func (e *Engine) LastResult() (Result, bool) {
	if e.last == nil {
		return Result{}, false
	}
	return *e.last, true
}

func (e *Engine) History() []HistoryEntry {
	return append([]HistoryEntry(nil), e.history...)
}

// Start resets the score, rebuilds the draw pool and draws the first
// question. ok is false when there is nothing to ask.
func (e *Engine) Start() (Question, bool) {
	e.correct, e.incorrect = 0, 0
	e.history = nil
	e.started = true
	e.rebuildPool()
	util.LogInfo("Quiz started (%s, %d pairs)", e.direction.Label(), e.dict.Len())
	return e.Advance()
}

func (e *Engine) rebuildPool() {
	e.last = nil
	e.reverseDrawn = 0
	if e.direction == SourceToTarget {
		e.pool = e.dict.SourceWords()
		shuffle(e.pool, e.rng)
		return
	}
	e.pool = e.dict.TargetWords()
}

// Advance draws the next question. Source-to-target draws pop the shuffled
// pool; target-to-source draws sample the target words with replacement
// until the reverse limit is reached.
func (e *Engine) Advance() (Question, bool) {
	if !e.started {
		return Question{}, false
	}
	e.last = nil

	var q Question
	switch e.direction {
	case SourceToTarget:
		if len(e.pool) == 0 {
			return e.end()
		}
		word := e.pool[len(e.pool)-1]
		e.pool = e.pool[:len(e.pool)-1]
		answer, _ := e.dict.Lookup(word)
		q = Question{Word: word, Expected: answer, Accepted: []string{answer}, Direction: SourceToTarget}
	case TargetToSource:
		if len(e.pool) == 0 || e.reverseDrawn >= e.reverseLimitFor() {
			return e.end()
		}
		e.reverseDrawn++
		word := e.pool[e.rng.IntN(len(e.pool))]
		accepted := e.dict.SourcesFor(word)
		q = Question{Word: word, Expected: lo.FirstOrEmpty(accepted), Accepted: accepted, Direction: TargetToSource}
	}

	e.current = q
	e.phase = PhaseAsking
	return q, true
}

func (e *Engine) reverseLimitFor() int {
	if e.reverseLimit > 0 {
		return e.reverseLimit
	}
	return len(e.pool)
}

func (e *Engine) end() (Question, bool) {
	if e.phase != PhaseEnded {
		util.LogInfo("Quiz finished: %d/%d correct", e.correct, e.correct+e.incorrect)
	}
	e.phase = PhaseEnded
	e.current = Question{}
	return Question{}, false
}

// SubmitAnswer grades text against the pending question. It never draws the
// next question; the caller advances once the verdict has been shown.
func (e *Engine) SubmitAnswer(text string) (Result, error) {
	if e.phase != PhaseAsking {
		return Result{}, ErrNoQuestion
	}

	submitted := normalize(text)
	verdict := Incorrect
	if lo.ContainsBy(e.current.Accepted, func(a string) bool { return normalize(a) == submitted }) {
		verdict = Correct
		e.correct++
	} else {
		e.incorrect++
	}

	res := Result{
		Verdict:   verdict,
		Word:      e.current.Word,
		Expected:  e.current.Expected,
		Submitted: strings.TrimSpace(text),
	}
	e.history = append(e.history, HistoryEntry{Word: res.Word, Answer: res.Expected, Verdict: verdict})
	e.last = &res
	e.phase = PhaseVerdict
	return res, nil
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// SwitchDirection toggles the direction while keeping score and history. A
// started session gets a fresh pool and a new question.
func (e *Engine) SwitchDirection() error {
	if e.locked {
		return ErrDirectionLocked
	}
	e.direction = e.direction.Toggle()
	util.LogInfo("Direction switched to %s", e.direction.Label())
	if e.started {
		e.rebuildPool()
		e.Advance()
	}
	return nil
}

func (e *Engine) Stats() Stats {
	total := e.correct + e.incorrect
	s := Stats{TotalAsked: total, Correct: e.correct, Incorrect: e.incorrect}
	if total > 0 {
		s.Percentage = math.Round(float64(e.correct)/float64(total)*1000) / 10
	}
	return s
}
