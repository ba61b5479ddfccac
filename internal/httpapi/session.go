// Package httpapi binds sessionapi, the admin authoring surface, and
// grade-history reads to HTTP. Handlers translate sessionengine error
// sentinels and store.ErrNotFound into the response envelope's error codes;
// they hold no further domain logic.
package httpapi

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/stemsi/examcore/internal/middleware"
	"github.com/stemsi/examcore/internal/response"
	"github.com/stemsi/examcore/internal/sessionapi"
	"github.com/stemsi/examcore/internal/sessionengine"
	"github.com/stemsi/examcore/internal/store"
	"github.com/stemsi/examcore/internal/validator"
)

// SessionHandler exposes the five student session endpoints plus the
// student's grade read (GetGrade).
type SessionHandler struct {
	api   *sessionapi.API
	store *store.Store
}

func NewSessionHandler(api *sessionapi.API, st *store.Store) *SessionHandler {
	return &SessionHandler{api: api, store: st}
}

// StartSession handles POST /exams/:id/start.
func (h *SessionHandler) StartSession(c *gin.Context) {
	examID, err := uuidParam(c, "id")
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}
	studentID := middleware.GetClaims(c).UserID

	result, err := h.api.Start(c.Request.Context(), studentID, examID)
	if err != nil {
		writeEngineError(c, err)
		return
	}

	status := http.StatusOK
	if result.Action == sessionengine.ActionStarted {
		status = http.StatusCreated
	}
	response.Success(c, status, gin.H{
		"session": result.Session,
		"token":   result.Token.Token,
		"action":  result.Action,
	})
}

// GetQuestion handles GET /sessions/:token/questions/:order.
func (h *SessionHandler) GetQuestion(c *gin.Context) {
	order, err := strconv.Atoi(c.Param("order"))
	if err != nil || order < 1 {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
		return
	}
	studentID := middleware.GetClaims(c).UserID

	view, err := h.api.GetQuestion(c.Request.Context(), c.Param("token"), studentID, order)
	if err != nil {
		writeEngineError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"question":     view.Question,
		"saved_answer": view.SavedAnswer,
		"has_answer":   view.HasAnswer,
	})
}

type submitAnswerRequest struct {
	AnswerText string `json:"answer_text" binding:"required"`
}

// SubmitAnswer handles POST /sessions/:token/questions/:order/answer.
func (h *SessionHandler) SubmitAnswer(c *gin.Context) {
	order, err := strconv.Atoi(c.Param("order"))
	if err != nil || order < 1 {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
		return
	}
	var req submitAnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	studentID := middleware.GetClaims(c).UserID

	stored, progress, err := h.api.SubmitAnswer(c.Request.Context(), c.Param("token"), studentID, order, req.AnswerText)
	if err != nil {
		writeEngineError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"answer_text": stored,
		"progress":    progress,
	})
}

// Progress handles GET /sessions/:token/progress.
func (h *SessionHandler) Progress(c *gin.Context) {
	studentID := middleware.GetClaims(c).UserID

	progress, err := h.api.Progress(c.Request.Context(), c.Param("token"), studentID)
	if err != nil {
		writeEngineError(c, err)
		return
	}
	response.Success(c, http.StatusOK, progress)
}

// Submit handles POST /sessions/:token/submit.
func (h *SessionHandler) Submit(c *gin.Context) {
	studentID := middleware.GetClaims(c).UserID

	if err := h.api.Submit(c.Request.Context(), c.Param("token"), studentID); err != nil {
		writeEngineError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "Exam submitted. Grading in progress."})
}

// GetGrade handles GET /sessions/:token/grade. Grading finishes
// asynchronously after completion invalidates the token, so this looks the
// token up regardless of validity and checks ownership directly, rather
// than going through ValidateToken's active-session path.
func (h *SessionHandler) GetGrade(c *gin.Context) {
	ctx := c.Request.Context()
	studentID := middleware.GetClaims(c).UserID

	tok, err := h.store.GetTokenByValue(ctx, c.Param("token"))
	if err != nil {
		writeEngineError(c, err)
		return
	}
	sess, err := h.store.GetSession(ctx, tok.SessionID)
	if err != nil {
		writeEngineError(c, err)
		return
	}
	if sess.StudentID != studentID {
		response.Fail(c, http.StatusBadRequest, response.ErrTokenInvalid)
		return
	}
	if !sess.IsCompleted {
		response.Fail(c, http.StatusBadRequest, response.ErrTokenInvalid)
		return
	}

	grade, err := h.store.GetGradeHistoryBySession(ctx, sess.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			response.Success(c, http.StatusOK, gin.H{"status": "PENDING"})
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, grade)
}
