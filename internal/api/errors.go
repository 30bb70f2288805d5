package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pageza/foodgram/backend/internal/service"
	"go.uber.org/zap"
)

// APIError is the body of every error answered by the handlers.
type APIError struct {
	Code       string       `json:"code"`
	Message    string       `json:"message"`
	Field      string       `json:"field,omitempty"`
	MissingIDs []uuid.UUID  `json:"missing_ids,omitempty"`
	Fields     []FieldError `json:"fields,omitempty"`
}

func abortWithError(c *gin.Context, status int, body APIError) {
	c.AbortWithStatusJSON(status, gin.H{"error": body})
}

// respondError maps service errors onto HTTP statuses.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		abortWithError(c, http.StatusBadRequest, APIError{
			Code:       string(verr.Kind),
			Message:    verr.Error(),
			Field:      verr.Field,
			MissingIDs: verr.MissingIDs,
		})
	case errors.Is(err, service.ErrAlreadyExists):
		abortWithError(c, http.StatusConflict, APIError{Code: "conflict", Message: err.Error()})
	case errors.Is(err, service.ErrNotFound):
		abortWithError(c, http.StatusNotFound, APIError{Code: "not_found", Message: err.Error()})
	case errors.Is(err, service.ErrForbidden):
		abortWithError(c, http.StatusForbidden, APIError{Code: "forbidden", Message: "you may not modify this recipe"})
	case errors.Is(err, service.ErrInvalidToken):
		abortWithError(c, http.StatusUnauthorized, APIError{Code: "unauthorized", Message: err.Error()})
	default:
		logger.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err))
		abortWithError(c, http.StatusInternalServerError, APIError{Code: "internal", Message: "internal server error"})
	}
}
