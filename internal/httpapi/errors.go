package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/stemsi/examcore/internal/response"
	"github.com/stemsi/examcore/internal/sessionengine"
	"github.com/stemsi/examcore/internal/store"
)

func uuidParam(c *gin.Context, name string) (uuid.UUID, error) {
	return uuid.Parse(c.Param(name))
}

// writeEngineError maps a sessionengine/store error to the response
// envelope's error code and an appropriate status.
func writeEngineError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, sessionengine.ErrExamNotActive):
		response.Fail(c, http.StatusBadRequest, response.ErrExamNotAvailable)
	case errors.Is(err, sessionengine.ErrAlreadyCompleted):
		response.Fail(c, http.StatusBadRequest, response.ErrAlreadyCompleted)
	case errors.Is(err, sessionengine.ErrTokenInvalid):
		response.Fail(c, http.StatusBadRequest, response.ErrTokenInvalid)
	case errors.Is(err, sessionengine.ErrQuestionNotFound):
		response.Fail(c, http.StatusBadRequest, response.ErrQuestionNotFound)
	case errors.Is(err, sessionengine.ErrValidation):
		response.Fail(c, http.StatusBadRequest, response.ErrValidation)
	case errors.Is(err, store.ErrNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	case errors.Is(err, store.ErrAlreadyExists):
		response.Fail(c, http.StatusConflict, response.ErrConflict)
	case errors.Is(err, store.ErrNoQuestions):
		response.Fail(c, http.StatusBadRequest, response.ErrNoQuestions)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
