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

func newLexicalGrader() *grading.LexicalGrader {
	return grading.NewLexicalGrader(0.4, 0.6, 0.3)
}

func TestLexicalGraderBlankAnswerScoresZero(t *testing.T) {
	g := newLexicalGrader()
	q := &model.Question{ID: uuid.New(), ExpectedAnswer: "the mitochondria is the powerhouse", Points: 10}

	res, err := g.Grade(context.Background(), q, "   ")
	require.NoError(t, err)
	assert.Equal(t, 0.0, res.Score)
}

func TestLexicalGraderExactMatchScoresFull(t *testing.T) {
	g := newLexicalGrader()
	q := &model.Question{ID: uuid.New(), ExpectedAnswer: "the mitochondria is the powerhouse of the cell", Points: 10}

	res, err := g.Grade(context.Background(), q, "the mitochondria is the powerhouse of the cell")
	require.NoError(t, err)
	assert.Equal(t, float64(q.Points), res.Score)
}

func TestLexicalGraderUnrelatedAnswerScoresZero(t *testing.T) {
	g := newLexicalGrader()
	q := &model.Question{ID: uuid.New(), ExpectedAnswer: "the mitochondria is the powerhouse of the cell", Points: 10}

	res, err := g.Grade(context.Background(), q, "completely unrelated text about rivers")
	require.NoError(t, err)
	assert.Equal(t, 0.0, res.Score)
}

func TestLexicalGraderScoreNeverExceedsPoints(t *testing.T) {
	g := newLexicalGrader()
	q := &model.Question{ID: uuid.New(), ExpectedAnswer: "cat dog cat dog", Points: 7}

	res, err := g.Grade(context.Background(), q, "cat dog cat dog cat dog cat dog")
	require.NoError(t, err)
	assert.LessOrEqual(t, res.Score, float64(q.Points))
	assert.GreaterOrEqual(t, res.Score, 0.0)
}

func TestLexicalGraderPartialOverlapScoresBetweenZeroAndFull(t *testing.T) {
	g := newLexicalGrader()
	q := &model.Question{ID: uuid.New(), ExpectedAnswer: "photosynthesis converts light energy into chemical energy", Points: 10}

	res, err := g.Grade(context.Background(), q, "photosynthesis converts energy")
	require.NoError(t, err)
	assert.Greater(t, res.Score, 0.0)
	assert.Less(t, res.Score, float64(q.Points))
}
