package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/types"
)

// MaxBodyBytes caps JSON request bodies: a base64 image at the decoded size
// limit plus room for the other fields.
const MaxBodyBytes = service.MaxImageBytes*4/3 + 64<<10

// FieldError is one failed binding rule.
type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
}

// bindJSON decodes the request body into dst and answers 400 when the body
// is malformed or breaks a binding rule, 413 when it is too large.
func bindJSON(c *gin.Context, dst any) bool {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxBodyBytes)
	err := c.ShouldBindJSON(dst)
	if err == nil {
		return true
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		abortWithError(c, http.StatusRequestEntityTooLarge, APIError{
			Code:    "payload_too_large",
			Message: fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit),
		})
		return false
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]FieldError, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, FieldError{Field: fe.Namespace(), Rule: fe.Tag()})
		}
		abortWithError(c, http.StatusBadRequest, APIError{
			Code:    "invalid_payload",
			Message: "request body failed validation",
			Fields:  fields,
		})
		return false
	}
	abortWithError(c, http.StatusBadRequest, APIError{Code: "invalid_payload", Message: err.Error()})
	return false
}

// pathID parses the :id path parameter.
func pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusNotFound, APIError{Code: "not_found", Message: "invalid id"})
		return uuid.Nil, false
	}
	return id, true
}

// pageQuery reads page and limit from the query string.
func pageQuery(c *gin.Context, defaultLimit int) (types.Page, bool) {
	page := types.Page{Number: 1, Limit: defaultLimit}
	var ok bool
	if page.Number, ok = intQuery(c, "page", 1); !ok {
		return page, false
	}
	if page.Limit, ok = intQuery(c, "limit", defaultLimit); !ok {
		return page, false
	}
	return page.Normalize(), true
}

func intQuery(c *gin.Context, name string, def int) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, APIError{
			Code:    "invalid_query",
			Message: fmt.Sprintf("%s must be an integer", name),
			Field:   name,
		})
		return 0, false
	}
	return v, true
}

// flagQuery treats 1 and true as set.
func flagQuery(c *gin.Context, name string) bool {
	v, err := strconv.ParseBool(c.Query(name))
	return err == nil && v
}
