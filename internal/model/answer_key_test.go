package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnswerKeyMultipleChoice(t *testing.T) {
	q := &Question{
		QuestionType: MultipleChoice,
		Options: []Option{
			{Label: "A", OptionText: "1"},
			{Label: "B", OptionText: "2", IsCorrect: true},
			{Label: "C", OptionText: "3"},
		},
	}

	key, ok := AnswerKeyFor(q)
	require.True(t, ok)
	assert.Equal(t, "B", key.Choice)

	assert.True(t, key.Matches("B"))
	assert.True(t, key.Matches(" B "))
	assert.False(t, key.Matches("A"))
	assert.False(t, key.Matches("b"))
	assert.False(t, key.Matches(""))
}

func TestAnswerKeyMultipleChoiceLabelFallback(t *testing.T) {
	// 没有 is_correct 标记时回退到 correct_answer 里的标签
	q := &Question{
		QuestionType:  MultipleChoice,
		CorrectAnswer: "C",
		Options: []Option{
			{Label: "A"},
			{Label: "C"},
		},
	}

	key, ok := AnswerKeyFor(q)
	require.True(t, ok)
	assert.Equal(t, "C", key.Choice)
	assert.True(t, key.Matches("C"))
}

func TestAnswerKeyMultipleChoiceNoKey(t *testing.T) {
	q := &Question{
		QuestionType: MultipleChoice,
		Options:      []Option{{Label: "A"}, {Label: "B"}},
	}

	_, ok := AnswerKeyFor(q)
	assert.False(t, ok)
}

func TestAnswerKeyShortAnswer(t *testing.T) {
	q := &Question{
		QuestionType:  ShortAnswer,
		CorrectAnswer: `{"accept": ["Cat", "act"]}`,
	}

	key, ok := AnswerKeyFor(q)
	require.True(t, ok)

	assert.True(t, key.Matches("cat"))
	assert.True(t, key.Matches("CAT"))
	assert.True(t, key.Matches("  Act "))
	assert.False(t, key.Matches("dog"))
	assert.False(t, key.Matches(""))
}

func TestAnswerKeyShortAnswerEmptyAcceptList(t *testing.T) {
	q := &Question{
		QuestionType:  ShortAnswer,
		CorrectAnswer: `{"accept": []}`,
	}

	_, ok := AnswerKeyFor(q)
	assert.False(t, ok)
}

func TestAnswerKeyNumeric(t *testing.T) {
	q := &Question{
		QuestionType:  Numeric,
		CorrectAnswer: `{"value": 9}`,
	}

	key, ok := AnswerKeyFor(q)
	require.True(t, ok)

	assert.True(t, key.Matches("9"))
	assert.True(t, key.Matches("9.0"))
	assert.True(t, key.Matches(" 9 "))
	assert.False(t, key.Matches("9.1"))
	assert.False(t, key.Matches("nine"))
	assert.False(t, key.Matches(""))
}

func TestAnswerKeyNumericTolerance(t *testing.T) {
	q := &Question{
		QuestionType:  Numeric,
		CorrectAnswer: `{"value": 3.14, "tolerance": 0.01}`,
	}

	key, ok := AnswerKeyFor(q)
	require.True(t, ok)

	assert.True(t, key.Matches("3.14"))
	assert.True(t, key.Matches("3.141"))
	assert.True(t, key.Matches("3.13"))
	assert.False(t, key.Matches("3.12"))
	assert.False(t, key.Matches("3.16"))
}

func TestAnswerKeyGrid(t *testing.T) {
	q := &Question{
		QuestionType:  Grid,
		CorrectAnswer: `{"cells": ["2", "4", "8"]}`,
	}

	key, ok := AnswerKeyFor(q)
	require.True(t, ok)

	assert.True(t, key.Matches(`["2", "4", "8"]`))
	assert.True(t, key.Matches(`[" 2", "4 ", "8"]`))
	assert.False(t, key.Matches(`["2", "4"]`))
	assert.False(t, key.Matches(`["2", "4", "9"]`))
	assert.False(t, key.Matches(`2,4,8`))
	assert.False(t, key.Matches(""))
}

func TestAnswerKeyUnparseable(t *testing.T) {
	for _, qt := range []QuestionType{ShortAnswer, Numeric, Grid} {
		q := &Question{
			QuestionType:  qt,
			CorrectAnswer: "not json",
		}
		_, ok := AnswerKeyFor(q)
		assert.False(t, ok, "type %s", qt)
	}
}

func TestAnswerKeyUnknownType(t *testing.T) {
	q := &Question{QuestionType: QuestionType("essay"), CorrectAnswer: "x"}
	key, ok := AnswerKeyFor(q)
	assert.False(t, ok)
	assert.False(t, key.Matches("x"))
}
