package quiz_test

import (
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	quiz "github.com/CodeAndHammer/slovicka/internal/quiz"
)

func seeded() quiz.Option {
	return quiz.WithRandom(rand.New(rand.NewPCG(7, 11)))
}

func numberedLines(n int) []string {
	lines := make([]string, n)
	for i := range n {
		lines[i] = fmt.Sprintf("Wort%d – slovo%d", i, i)
	}
	return lines
}

func newEngine(lines []string, opts ...quiz.Option) *quiz.Engine {
	e := quiz.New(append([]quiz.Option{seeded()}, opts...)...)
	e.LoadDictionary(lines)
	return e
}

func TestStartVisitsEverySourceWordOnce(t *testing.T) {
	e := newEngine(numberedLines(25))

	seen := map[string]int{}
	q, ok := e.Start()
	for ok {
		seen[q.Word]++
		expected, found := e.Dictionary().Lookup(q.Word)
		require.True(t, found)
		assert.Equal(t, expected, q.Expected)
		_, err := e.SubmitAnswer(q.Expected)
		require.NoError(t, err)
		q, ok = e.Advance()
	}

	assert.Len(t, seen, 25)
	for word, n := range seen {
		assert.Equal(t, 1, n, "word %s asked more than once", word)
	}
	assert.Equal(t, quiz.PhaseEnded, e.Phase())

	_, ok = e.Advance()
	assert.False(t, ok, "no draws after the pool is exhausted")
}

func TestRoundTripAsksBothWords(t *testing.T) {
	e := newEngine([]string{"Haus – dom", "Baum – strom"})

	asked := []string{}
	q, ok := e.Start()
	for ok {
		asked = append(asked, q.Word)
		q, ok = e.Advance()
	}
	assert.ElementsMatch(t, []string{"dom", "strom"}, asked)
}

func TestSubmitAnswerNormalization(t *testing.T) {
	tests := []struct {
		name   string
		answer string
		want   quiz.Verdict
	}{
		{"exact", "Haus", quiz.Correct},
		{"lower case", "haus", quiz.Correct},
		{"upper case", "HAUS", quiz.Correct},
		{"surrounding whitespace", "  Haus  ", quiz.Correct},
		{"wrong", "Baum", quiz.Incorrect},
		{"empty", "", quiz.Incorrect},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEngine([]string{"Haus – dom"})
			q, ok := e.Start()
			require.True(t, ok)
			require.Equal(t, "dom", q.Word)

			res, err := e.SubmitAnswer(tt.answer)
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Verdict)
			assert.Equal(t, "Haus", res.Expected)
			assert.Equal(t, quiz.PhaseVerdict, e.Phase())
		})
	}
}

func TestSubmitAnswerWithoutQuestion(t *testing.T) {
	e := newEngine([]string{"Haus – dom"})

	_, err := e.SubmitAnswer("Haus")
	assert.ErrorIs(t, err, quiz.ErrNoQuestion)

	e.Start()
	_, err = e.SubmitAnswer("Haus")
	require.NoError(t, err)
	_, err = e.SubmitAnswer("Haus")
	assert.ErrorIs(t, err, quiz.ErrNoQuestion, "a verdict must be followed by an advance")

	e.Advance()
	_, err = e.SubmitAnswer("Haus")
	assert.ErrorIs(t, err, quiz.ErrNoQuestion, "ended session has no question")
	assert.Equal(t, 1, e.Stats().TotalAsked)
}

func TestStatsPercentage(t *testing.T) {
	e := newEngine(numberedLines(4))
	assert.Equal(t, quiz.Stats{}, e.Stats())
	assert.Equal(t, "Percentage: 0.0%", e.Stats().Label())

	q, ok := e.Start()
	for i := 0; ok; i++ {
		answer := q.Expected
		if i == 3 {
			answer = "nope"
		}
		_, err := e.SubmitAnswer(answer)
		require.NoError(t, err)
		q, ok = e.Advance()
	}

	stats := e.Stats()
	assert.Equal(t, 4, stats.TotalAsked)
	assert.Equal(t, 3, stats.Correct)
	assert.Equal(t, 1, stats.Incorrect)
	assert.Equal(t, 75.0, stats.Percentage)
	assert.Equal(t, "Percentage: 75.0%", stats.Label())
}

func TestStatsRoundsToOneDecimal(t *testing.T) {
	e := newEngine(numberedLines(3))
	q, ok := e.Start()
	for i := 0; ok; i++ {
		answer := "nope"
		if i == 0 {
			answer = q.Expected
		}
		e.SubmitAnswer(answer)
		q, ok = e.Advance()
	}
	assert.Equal(t, 33.3, e.Stats().Percentage)
}

func TestTotalsInvariant(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 5))
	e := newEngine(numberedLines(40))

	q, ok := e.Start()
	for ok {
		answer := q.Expected
		if rng.IntN(2) == 0 {
			answer = "wrong"
		}
		_, err := e.SubmitAnswer(answer)
		require.NoError(t, err)

		s := e.Stats()
		assert.Equal(t, s.TotalAsked, s.Correct+s.Incorrect)
		assert.Len(t, e.History(), s.TotalAsked)
		q, ok = e.Advance()
	}
}

func TestStartOnEmptyDictionary(t *testing.T) {
	e := quiz.New(seeded())

	_, ok := e.Start()
	assert.False(t, ok)
	assert.Equal(t, quiz.PhaseEnded, e.Phase())

	v := e.View()
	assert.Equal(t, "Quiz finished!", v.Prompt)
	assert.Equal(t, "Great job!", v.Feedback)
	assert.False(t, v.InputEnabled)
}

func TestAdvanceBeforeStart(t *testing.T) {
	e := newEngine([]string{"Haus – dom"})
	_, ok := e.Advance()
	assert.False(t, ok)
	assert.Equal(t, quiz.PhaseIdle, e.Phase())
}

func TestStartResetsScore(t *testing.T) {
	e := newEngine([]string{"Haus – dom", "Baum – strom"})
	e.Start()
	e.SubmitAnswer("wrong")

	e.Start()
	assert.Equal(t, quiz.Stats{}, e.Stats())
	assert.Empty(t, e.History())
}

func TestSwitchDirectionMidSession(t *testing.T) {
	e := newEngine([]string{"Haus – dom", "Baum – strom", "Auto – auto"})

	q, ok := e.Start()
	require.True(t, ok)
	assert.Equal(t, quiz.SourceToTarget, q.Direction)
	assert.Equal(t, fmt.Sprintf("Translate '%s' to German:", q.Word), e.View().Prompt)
	_, err := e.SubmitAnswer(q.Expected)
	require.NoError(t, err)

	require.NoError(t, e.SwitchDirection())
	assert.Equal(t, quiz.TargetToSource, e.Direction())

	cur, ok := e.Current()
	require.True(t, ok)
	assert.Contains(t, []string{"Haus", "Baum", "Auto"}, cur.Word)
	assert.Equal(t, quiz.PhaseAsking, e.Phase())

	v := e.View()
	assert.Equal(t, fmt.Sprintf("Translate '%s' to Slovak:", cur.Word), v.Prompt)
	assert.Equal(t, "German to Slovak", v.DirectionLabel)
	assert.Equal(t, "Switch to Slovak to German", v.SwitchLabel)

	assert.Equal(t, 1, e.Stats().Correct, "score survives a direction switch")
	assert.Len(t, e.History(), 1)
}

func TestSwitchDirectionBeforeStart(t *testing.T) {
	e := newEngine([]string{"Haus – dom"})
	require.NoError(t, e.SwitchDirection())
	assert.Equal(t, quiz.TargetToSource, e.Direction())
	assert.Equal(t, quiz.PhaseIdle, e.Phase())

	q, ok := e.Start()
	require.True(t, ok)
	assert.Equal(t, "Haus", q.Word)
	assert.Equal(t, "dom", q.Expected)
}

func TestSwitchDirectionRestartsEndedSession(t *testing.T) {
	e := newEngine([]string{"Haus – dom"})
	e.Start()
	e.Advance()
	require.Equal(t, quiz.PhaseEnded, e.Phase())

	require.NoError(t, e.SwitchDirection())
	q, ok := e.Current()
	require.True(t, ok)
	assert.Equal(t, "Haus", q.Word)
}

func TestReverseDirectionSamplesWithReplacement(t *testing.T) {
	e := newEngine(numberedLines(3), quiz.WithDirection(quiz.TargetToSource))

	draws := 0
	q, ok := e.Start()
	for ok {
		draws++
		assert.Equal(t, quiz.TargetToSource, q.Direction)
		assert.Contains(t, e.Dictionary().TargetWords(), q.Word)
		q, ok = e.Advance()
	}
	assert.Equal(t, 3, draws, "default limit is one draw per distinct target word")
}

func TestReverseLimit(t *testing.T) {
	e := newEngine(numberedLines(2), quiz.WithDirection(quiz.TargetToSource), quiz.WithReverseLimit(7))

	draws := 0
	_, ok := e.Start()
	for ok {
		draws++
		_, ok = e.Advance()
	}
	assert.Equal(t, 7, draws)
}

func TestReverseDirectionAcceptsSynonyms(t *testing.T) {
	e := newEngine([]string{"Auto – auto", "Auto – vozidlo"}, quiz.WithDirection(quiz.TargetToSource))

	q, ok := e.Start()
	require.True(t, ok)
	assert.Equal(t, "Auto", q.Word)
	assert.Equal(t, "auto", q.Expected, "first source in insertion order")
	assert.Equal(t, []string{"auto", "vozidlo"}, q.Accepted)

	res, err := e.SubmitAnswer("Vozidlo")
	require.NoError(t, err)
	assert.Equal(t, quiz.Correct, res.Verdict)
	assert.Equal(t, "auto", res.Expected)
}

func TestLoadDictionaryKeepsSession(t *testing.T) {
	e := newEngine([]string{"Haus – dom", "Baum – strom"})
	q, _ := e.Start()
	e.SubmitAnswer(q.Expected)

	e.LoadDictionary([]string{"Katze – mačka"})
	assert.Equal(t, 1, e.Dictionary().Len())
	assert.Equal(t, 1, e.Stats().Correct)
	assert.Equal(t, quiz.PhaseVerdict, e.Phase())
	assert.Equal(t, quiz.SourceToTarget, e.Direction())
}

func TestViewFeedbackAndHistory(t *testing.T) {
	e := newEngine([]string{"Haus – dom"})

	v := e.View()
	assert.Equal(t, "Press 'Start Quiz' to begin.", v.Prompt)
	assert.False(t, v.InputEnabled)

	e.Start()
	v = e.View()
	assert.Equal(t, "Translate 'dom' to German:", v.Prompt)
	assert.True(t, v.InputEnabled)
	assert.Equal(t, quiz.FeedbackNeutral, v.FeedbackClass)

	e.SubmitAnswer("Heim")
	v = e.View()
	assert.False(t, v.InputEnabled)
	assert.Equal(t, "Wrong! The correct word is 'Haus'.", v.Feedback)
	assert.Equal(t, quiz.FeedbackIncorrect, v.FeedbackClass)
	require.Len(t, v.History, 1)
	assert.Equal(t, "dom – Haus (Incorrect)", v.History[0].Text)
	assert.Equal(t, quiz.FeedbackIncorrect, v.History[0].Class)
	assert.Equal(t, "Percentage: 0.0%", v.PercentageLabel)

	e.Start()
	e.SubmitAnswer("haus")
	v = e.View()
	assert.Equal(t, "Correct!", v.Feedback)
	assert.Equal(t, quiz.FeedbackCorrect, v.FeedbackClass)
	assert.Equal(t, "dom – Haus (Correct)", v.History[0].Text)
}

func TestRankedEngineIsIsolated(t *testing.T) {
	dict := quiz.ParseLines([]string{"Haus – dom", "Baum – strom"})
	primary := quiz.New(seeded())
	primary.SetDictionary(dict)
	ranked := quiz.NewRanked(dict, seeded())

	dict.Set("mačka", "Katze")
	assert.Equal(t, 2, ranked.Dictionary().Len(), "ranked engine owns a snapshot")
	assert.NotSame(t, primary.Dictionary(), ranked.Dictionary())

	assert.ErrorIs(t, ranked.SwitchDirection(), quiz.ErrDirectionLocked)
	assert.Equal(t, quiz.SourceToTarget, ranked.Direction())

	q, ok := ranked.Start()
	require.True(t, ok)
	ranked.SubmitAnswer(q.Expected)
	assert.Equal(t, 1, ranked.Stats().Correct)
	assert.Equal(t, quiz.Stats{}, primary.Stats())

	v := ranked.View()
	assert.True(t, v.Ranked)
	assert.Empty(t, v.SwitchLabel)

	ranked.Advance()
	_, ok = ranked.Advance()
	assert.False(t, ok)
	assert.Equal(t, "Ranked Quiz finished!", ranked.View().Prompt)
}

func TestRankedIgnoresDirectionOption(t *testing.T) {
	e := quiz.NewRanked(quiz.ParseLines([]string{"Haus – dom"}), quiz.WithDirection(quiz.TargetToSource))
	q, ok := e.Start()
	require.True(t, ok)
	assert.Equal(t, "dom", q.Word)
	assert.Equal(t, "Press 'Start Ranked Quiz' to begin.", quiz.NewRanked(nil).View().Prompt)
}
