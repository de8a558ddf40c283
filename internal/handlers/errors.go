package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"

	"todoboard/internal/dto"
	"todoboard/internal/metrics"
	"todoboard/internal/repo"
	"todoboard/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var errBadJSON = errors.New("invalid JSON body")

// bindJSON decodes the body into dst. A value of the wrong JSON type on a
// known field comes back as a ValidationError for that field.
func bindJSON(c *gin.Context, dst any) error {
	err := c.ShouldBindJSON(dst)
	if err == nil {
		return nil
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return service.NewValidationError(typeErr.Field, typeMessage(typeErr))
	}
	return errBadJSON
}

func typeMessage(e *json.UnmarshalTypeError) string {
	switch e.Type.Kind() {
	case reflect.String:
		return fmt.Sprintf("The %s field must be a string.", e.Field)
	case reflect.Bool:
		return fmt.Sprintf("The %s field must be true or false.", e.Field)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return fmt.Sprintf("The %s field must be an integer.", e.Field)
	case reflect.Slice, reflect.Array:
		return fmt.Sprintf("The %s field must be an array.", e.Field)
	default:
		return fmt.Sprintf("The %s field is invalid.", e.Field)
	}
}

// fail writes the response for err. Storage failures are logged and answered
// with a generic body.
func (h *TodoHandler) fail(c *gin.Context, op string, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusUnprocessableEntity, dto.ValidationErrorResponse{Message: verr.Error(), Errors: verr.Fields})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "not found"})
	case errors.Is(err, errBadJSON):
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
	default:
		fields := []zap.Field{
			zap.String("op", op),
			zap.String("requestID", requestID(c)),
			zap.Error(err),
		}
		if state := repo.SQLState(err); state != "" {
			fields = append(fields, zap.String("sqlstate", state))
		}
		h.log.Error("todo request failed", fields...)
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"})
	}
}

// record counts a finished mutation.
func record(op string, err error) {
	outcome := metrics.OutcomeOK
	var verr *service.ValidationError
	switch {
	case err == nil:
	case errors.As(err, &verr), errors.Is(err, errBadJSON):
		outcome = metrics.OutcomeInvalid
	case errors.Is(err, service.ErrNotFound):
		outcome = metrics.OutcomeNotFound
	default:
		outcome = metrics.OutcomeError
	}
	metrics.TodoMutations.WithLabelValues(op, outcome).Inc()
}
