package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stemsi/examcore/internal/model"
	"github.com/stemsi/examcore/internal/response"
	"github.com/stemsi/examcore/internal/store"
	"github.com/stemsi/examcore/internal/validator"
)

// AdminQuestionHandler is the minimal authoring surface over questions.
type AdminQuestionHandler struct {
	store *store.Store
}

func NewAdminQuestionHandler(st *store.Store) *AdminQuestionHandler {
	return &AdminQuestionHandler{store: st}
}

// Add handles POST /admin/exams/:id/questions. Appends to the end of the
// exam's question order. Rejected once the exam has any activity.
func (h *AdminQuestionHandler) Add(c *gin.Context) {
	ctx := c.Request.Context()
	examID, err := uuidParam(c, "id")
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}
	if active, err := h.store.ExamHasActivity(ctx, examID); err != nil {
		writeEngineError(c, err)
		return
	} else if active {
		response.Fail(c, http.StatusBadRequest, response.ErrActionForbidden)
		return
	}

	var req model.AddQuestionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	if req.Type == model.QuestionTypeMultipleChoice && len(req.Options) < 2 {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation,
			map[string]string{"options": "multiple-choice questions require at least 2 options"})
		return
	}

	q := &model.Question{
		ExamID:         examID,
		Text:           req.Text,
		Type:           req.Type,
		ExpectedAnswer: req.ExpectedAnswer,
		Options:        req.Options,
		AllowMultiple:  req.AllowMultiple,
		Points:         req.Points,
	}
	if err := h.store.AddQuestion(ctx, q); err != nil {
		writeEngineError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, q)
}

// List handles GET /admin/exams/:id/questions.
func (h *AdminQuestionHandler) List(c *gin.Context) {
	examID, err := uuidParam(c, "id")
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}
	questions, err := h.store.ListQuestions(c.Request.Context(), examID)
	if err != nil {
		writeEngineError(c, err)
		return
	}
	response.Success(c, http.StatusOK, questions)
}

// Delete handles DELETE /admin/questions/:qid. Remaining questions in the
// exam renumber to preserve a contiguous order (Store.DeleteQuestion).
// Rejected once the exam has any activity, same as Add.
func (h *AdminQuestionHandler) Delete(c *gin.Context) {
	ctx := c.Request.Context()
	id, err := uuidParam(c, "qid")
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	examID, err := h.store.QuestionExamID(ctx, id)
	if err != nil {
		writeEngineError(c, err)
		return
	}
	if active, err := h.store.ExamHasActivity(ctx, examID); err != nil {
		writeEngineError(c, err)
		return
	} else if active {
		response.Fail(c, http.StatusBadRequest, response.ErrActionForbidden)
		return
	}

	if err := h.store.DeleteQuestion(ctx, id); err != nil {
		writeEngineError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}
