package quiz

import (
	"fmt"

	"github.com/samber/lo"
)

const (
	FeedbackCorrect   = "correct"
	FeedbackIncorrect = "incorrect"
	FeedbackNeutral   = "neutral"
)

type HistoryLine struct {
	HistoryEntry
	Text  string `json:"text"`
	Class string `json:"class"`
}

// View is everything a presentation layer needs to render the engine.
type View struct {
	Prompt          string        `json:"prompt"`
	Direction       string        `json:"direction"`
	DirectionLabel  string        `json:"directionLabel"`
	SwitchLabel     string        `json:"switchLabel,omitempty"`
	Phase           Phase         `json:"phase"`
	Ranked          bool          `json:"ranked"`
	InputEnabled    bool          `json:"inputEnabled"`
	Feedback        string        `json:"feedback"`
	FeedbackClass   string        `json:"feedbackClass"`
	Stats           Stats         `json:"stats"`
	PercentageLabel string        `json:"percentageLabel"`
	History         []HistoryLine `json:"history"`
}

func (e *Engine) View() View {
	stats := e.Stats()
	v := View{
		Direction:       e.direction.String(),
		DirectionLabel:  e.direction.Label(),
		Phase:           e.phase,
		Ranked:          e.locked,
		FeedbackClass:   FeedbackNeutral,
		Stats:           stats,
		PercentageLabel: stats.Label(),
		History: lo.Map(e.history, func(h HistoryEntry, _ int) HistoryLine {
			return HistoryLine{HistoryEntry: h, Text: h.String(), Class: string(h.Verdict)}
		}),
	}
	if !e.locked {
		v.SwitchLabel = "Switch to " + e.direction.Toggle().Label()
	}

	switch e.phase {
	case PhaseIdle:
		if e.locked {
			v.Prompt = "Press 'Start Ranked Quiz' to begin."
		} else {
			v.Prompt = "Press 'Start Quiz' to begin."
		}
	case PhaseAsking:
		v.Prompt = e.prompt()
		v.InputEnabled = true
	case PhaseVerdict:
		v.Prompt = e.prompt()
		if e.last != nil && e.last.Verdict == Correct {
			v.Feedback = "Correct!"
			v.FeedbackClass = FeedbackCorrect
		} else if e.last != nil {
			v.Feedback = fmt.Sprintf("Wrong! The correct word is '%s'.", e.last.Expected)
			v.FeedbackClass = FeedbackIncorrect
		}
	case PhaseEnded:
		if e.locked {
			v.Prompt = "Ranked Quiz finished!"
		} else {
			v.Prompt = "Quiz finished!"
			v.Feedback = "Great job!"
		}
	}
	return v
}

func (e *Engine) prompt() string {
	return fmt.Sprintf("Translate '%s' to %s:", e.current.Word, e.current.Direction.To())
}
