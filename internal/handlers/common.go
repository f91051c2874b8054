package handlers

import (
	"groundlink/internal/apperrors"
	"groundlink/internal/utils"
	"groundlink/internal/validators"

	"github.com/gin-gonic/gin"
)

// renderError maps a core error onto the JSON envelope. Internal
// details never reach the client.
func renderError(c *gin.Context, err error) {
	message := err.Error()
	if apperrors.KindOf(err) == apperrors.KindInternal {
		message = utils.ErrInternalServer
	}

	utils.ErrorResponse(c, apperrors.HTTPStatus(err), apperrors.Code(err), message)
}

// renderValidationErrors flattens validator output into the envelope's
// details map.
func renderValidationErrors(c *gin.Context, errs validators.ValidationErrors) {
	details := make(map[string]string, len(errs))
	for _, e := range errs {
		details[e.Field] = e.Message
	}
	utils.ValidationErrorResponse(c, details)
}
