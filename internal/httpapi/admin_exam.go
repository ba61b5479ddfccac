package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stemsi/examcore/internal/model"
	"github.com/stemsi/examcore/internal/response"
	"github.com/stemsi/examcore/internal/store"
	"github.com/stemsi/examcore/internal/validator"
)

// AdminExamHandler is the minimal authoring surface over exams: enough for
// an admin to build a usable exam and for the session engine to have real
// data to operate on. It does not replicate the rest of a full LMS.
type AdminExamHandler struct {
	store *store.Store
}

func NewAdminExamHandler(st *store.Store) *AdminExamHandler {
	return &AdminExamHandler{store: st}
}

// Create handles POST /admin/exams.
func (h *AdminExamHandler) Create(c *gin.Context) {
	var req model.CreateExamRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	exam := &model.Exam{
		Title:           req.Title,
		Course:          req.Course,
		DurationMinutes: req.DurationMinutes,
	}
	if err := h.store.CreateExam(c.Request.Context(), exam); err != nil {
		writeEngineError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, exam)
}

// List handles GET /admin/exams.
func (h *AdminExamHandler) List(c *gin.Context) {
	exams, err := h.store.ListExams(c.Request.Context())
	if err != nil {
		writeEngineError(c, err)
		return
	}
	response.Success(c, http.StatusOK, exams)
}

// Get handles GET /admin/exams/:id.
func (h *AdminExamHandler) Get(c *gin.Context) {
	id, err := uuidParam(c, "id")
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}
	exam, err := h.store.GetExam(c.Request.Context(), id)
	if err != nil {
		writeEngineError(c, err)
		return
	}
	response.Success(c, http.StatusOK, exam)
}

// Update handles PATCH /admin/exams/:id. Rejected once the exam has any
// session or grade recorded against it.
func (h *AdminExamHandler) Update(c *gin.Context) {
	ctx := c.Request.Context()
	id, err := uuidParam(c, "id")
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	exam, err := h.store.GetExam(ctx, id)
	if err != nil {
		writeEngineError(c, err)
		return
	}
	if active, err := h.store.ExamHasActivity(ctx, id); err != nil {
		writeEngineError(c, err)
		return
	} else if active {
		response.Fail(c, http.StatusBadRequest, response.ErrActionForbidden)
		return
	}

	var req model.UpdateExamRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	if req.Title != "" {
		exam.Title = req.Title
	}
	if req.Course != "" {
		exam.Course = req.Course
	}
	if req.DurationMinutes != 0 {
		exam.DurationMinutes = req.DurationMinutes
	}

	if err := h.store.UpdateExam(ctx, exam); err != nil {
		writeEngineError(c, err)
		return
	}
	response.Success(c, http.StatusOK, exam)
}

// Delete handles DELETE /admin/exams/:id. Rejected once the exam has any
// session or grade recorded against it.
func (h *AdminExamHandler) Delete(c *gin.Context) {
	ctx := c.Request.Context()
	id, err := uuidParam(c, "id")
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}
	if active, err := h.store.ExamHasActivity(ctx, id); err != nil {
		writeEngineError(c, err)
		return
	} else if active {
		response.Fail(c, http.StatusBadRequest, response.ErrActionForbidden)
		return
	}
	if err := h.store.DeleteExam(ctx, id); err != nil {
		writeEngineError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

// Activate handles POST /admin/exams/:id/activate. Requires at least one
// question.
func (h *AdminExamHandler) Activate(c *gin.Context) {
	id, err := uuidParam(c, "id")
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}
	if err := h.store.ActivateExam(c.Request.Context(), id); err != nil {
		writeEngineError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"activated": true})
}
