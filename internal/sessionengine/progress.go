package sessionengine

import (
	"context"

	"github.com/stemsi/examcore/internal/model"
)

// Progress is a cheap snapshot of how far a student has gotten, intended
// for frequent polling.
type Progress struct {
	Total            int   `json:"total"`
	Answered         int   `json:"answered"`
	AnsweredOrders   []int `json:"answered_orders"`
	Current          int   `json:"current"`
	TimeRemainingSec int   `json:"time_remaining_seconds"`
	IsExpired        bool  `json:"is_expired"`
}

// GetProgress computes a Progress snapshot for sess.
func (e *Engine) GetProgress(ctx context.Context, sess *model.Session) (*Progress, error) {
	questions, err := e.store.ListQuestions(ctx, sess.ExamID)
	if err != nil {
		return nil, err
	}
	orderByQuestion := make(map[string]int, len(questions))
	for _, q := range questions {
		orderByQuestion[q.ID.String()] = q.Order
	}

	answers, err := e.store.ListAnswers(ctx, sess.ID)
	if err != nil {
		return nil, err
	}

	answeredOrders := make([]int, 0, len(answers))
	for _, a := range answers {
		if order, ok := orderByQuestion[a.QuestionID.String()]; ok {
			answeredOrders = append(answeredOrders, order)
		}
	}

	now := e.clock.Now()
	return &Progress{
		Total:            len(questions),
		Answered:         len(answeredOrders),
		AnsweredOrders:   answeredOrders,
		Current:          sess.CurrentQuestionOrder,
		TimeRemainingSec: int(sess.TimeRemaining(now).Seconds()),
		IsExpired:        sess.IsExpired(now),
	}, nil
}
