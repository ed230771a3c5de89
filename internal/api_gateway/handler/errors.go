package handler

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/infyemailer-backoffice/internal/api_gateway/service"
	"github.com/infyemailer-backoffice/internal/domain/credit"
	"github.com/infyemailer-backoffice/internal/domain/entity"
)

type errInvalidType string

func (e errInvalidType) Error() string {
	return fmt.Sprintf("unknown transaction type %q", string(e))
}

// respondError maps domain errors onto the response envelope. Unrecognised
// errors are logged and reported as internal errors.
func respondError(c *gin.Context, logger *slog.Logger, err error) {
	var unsupported service.ErrUnsupportedOperation
	switch {
	case errors.Is(err, entity.ErrNotFound):
		RespondNotFound(c, err.Error())
	case errors.Is(err, credit.ErrInsufficientBalance):
		RespondConflict(c, err.Error())
	case errors.Is(err, credit.ErrInvalidAmount), errors.As(err, &unsupported):
		RespondBadRequest(c, err.Error())
	default:
		logger.Error("Request failed", "path", c.FullPath(), "error", err)
		RespondInternalError(c)
	}
}
