package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stemsi/examcore/internal/response"
	"github.com/stemsi/examcore/internal/store"
)

// AdminGradeHandler exposes read-only grade-history listing.
type AdminGradeHandler struct {
	store *store.Store
}

func NewAdminGradeHandler(st *store.Store) *AdminGradeHandler {
	return &AdminGradeHandler{store: st}
}

// List handles GET /admin/exams/:id/grades.
func (h *AdminGradeHandler) List(c *gin.Context) {
	examID, err := uuidParam(c, "id")
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}
	grades, err := h.store.ListGradeHistoryByExam(c.Request.Context(), examID)
	if err != nil {
		writeEngineError(c, err)
		return
	}
	response.Success(c, http.StatusOK, grades)
}
