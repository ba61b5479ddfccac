package grading_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stemsi/examcore/internal/grading"
	"github.com/stemsi/examcore/internal/model"
)

func TestMCQGraderSingleSelect(t *testing.T) {
	g := grading.NewMCQGrader()
	q := &model.Question{
		ID:             uuid.New(),
		Type:           model.QuestionTypeMultipleChoice,
		ExpectedAnswer: "b",
		Points:         10,
	}

	cases := []struct {
		name   string
		answer string
		want   float64
	}{
		{"correct", "b", 10},
		{"wrong", "a", 0},
		{"blank", "", 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := g.Grade(context.Background(), q, tc.answer)
			require.NoError(t, err)
			assert.Equal(t, tc.want, res.Score)
		})
	}
}

func TestMCQGraderMultiSelectPartialCreditAndPenalty(t *testing.T) {
	g := grading.NewMCQGrader()
	q := &model.Question{
		ID:             uuid.New(),
		Type:           model.QuestionTypeMultipleChoice,
		ExpectedAnswer: `["a","b"]`,
		AllowMultiple:  true,
		Points:         10,
	}

	cases := []struct {
		name   string
		answer string
		want   float64
	}{
		{"all correct", `["a","b"]`, 10},
		{"half correct", `["a"]`, 5},
		{"one correct one wrong cancels out", `["a","c"]`, 0},
		{"only wrong", `["c"]`, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := g.Grade(context.Background(), q, tc.answer)
			require.NoError(t, err)
			assert.Equal(t, tc.want, res.Score)
		})
	}
}

func TestMCQGraderMultiSelectPartialCreditFeedbackInterpolatesCounts(t *testing.T) {
	g := grading.NewMCQGrader()
	q := &model.Question{
		ID:             uuid.New(),
		Type:           model.QuestionTypeMultipleChoice,
		ExpectedAnswer: `["a","b","c"]`,
		AllowMultiple:  true,
		Points:         10,
	}

	res, err := g.Grade(context.Background(), q, `["a","b"]`)
	require.NoError(t, err)
	assert.Equal(t, "2 out of 3 correct answers selected.", res.Feedback)
}

func TestMCQGraderScoreNeverExceedsPoints(t *testing.T) {
	g := grading.NewMCQGrader()
	q := &model.Question{
		Type:           model.QuestionTypeMultipleChoice,
		ExpectedAnswer: `["a"]`,
		AllowMultiple:  true,
		Points:         5,
	}
	res, err := g.Grade(context.Background(), q, `["a","a"]`)
	require.NoError(t, err)
	assert.LessOrEqual(t, res.Score, float64(q.Points))
}
