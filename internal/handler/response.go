package handler

import (
	"errors"
	"net/http"
	"strconv"
	"unicode"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	apperrors "honquedoro/internal/errors"
)

func writeError(c *gin.Context, apiErr *apperrors.APIError) {
	if apiErr == nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": gin.H{
				"code":    "internal_error",
				"message": "internal server error",
			},
		})
		return
	}

	errorBody := gin.H{
		"code":    apiErr.Code,
		"message": apiErr.Message,
	}
	if apiErr.Details != nil {
		errorBody["details"] = apiErr.Details
	}

	c.JSON(apiErr.Status, gin.H{
		"error": errorBody,
	})
}

// bindError converts a binding failure into the error envelope. Validation
// failures list each offending field.
func bindError(err error) *apperrors.APIError {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		fields := make([]gin.H, 0, len(validationErrs))
		for _, fieldErr := range validationErrs {
			fields = append(fields, gin.H{
				"field": lowerFirst(fieldErr.Field()),
				"rule":  fieldErr.Tag(),
				"param": fieldErr.Param(),
			})
		}
		return apperrors.Validation("request validation failed", fields)
	}
	return apperrors.BadRequest("invalid_json", "invalid request body")
}

func parseID(c *gin.Context, name string) (int64, *apperrors.APIError) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.BadRequest("invalid_id", name+" must be a positive integer")
	}
	return id, nil
}

func lowerFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToLower(r)) + s[size:]
}
