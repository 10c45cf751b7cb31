package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	l, ok := ParseLevel(" medium ")
	assert.True(t, ok)
	assert.Equal(t, LevelMedium, l)

	_, ok = ParseLevel("legendary")
	assert.False(t, ok)
}

func TestQuestionValidate(t *testing.T) {
	valid := func() Question {
		return Question{
			Level: LevelEasy,
			Text:  "2 + 2?",
			Choices: []Choice{
				{Text: "4", IsCorrect: true},
				{Text: "5"},
			},
		}
	}

	assert.NoError(t, valid().Validate())

	tests := map[string]func(q *Question){
		"no text":       func(q *Question) { q.Text = " " },
		"unknown level": func(q *Question) { q.Level = "LEGENDARY" },
		"single choice": func(q *Question) { q.Choices = q.Choices[:1] },
		"blank choice":  func(q *Question) { q.Choices[1].Text = "" },
		"two correct":   func(q *Question) { q.Choices[1].IsCorrect = true },
		"none correct":  func(q *Question) { q.Choices[0].IsCorrect = false },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			q := valid()
			mutate(&q)
			assert.ErrorIs(t, q.Validate(), ErrInvalidQuestion)
		})
	}
}
