package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/CodehubPriyanshu/taskhub-central-sub001/internal/authz"
	"github.com/CodehubPriyanshu/taskhub-central-sub001/internal/services"
)

func sessionOf(c *gin.Context) (authz.Session, bool) {
	return authz.SessionFromContext(c.Request.Context())
}

// taskIDParam reads :id and requires a uuid.
func taskIDParam(c *gin.Context) (string, bool) {
	raw := c.Param("id")
	if _, err := uuid.Parse(raw); err != nil {
		return raw, false
	}
	return raw, true
}

// parseTime accepts RFC3339; an empty string yields nil.
func parseTime(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func queryInt64(c *gin.Context, key string) (*int64, error) {
	v, ok := c.GetQuery(key)
	if !ok || v == "" {
		return nil, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func queryBool(c *gin.Context, key string) (bool, error) {
	v, ok := c.GetQuery(key)
	if !ok || v == "" {
		return false, nil
	}
	return strconv.ParseBool(v)
}

// errorStatus maps the workflow error kinds onto HTTP.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, services.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrInvalidTransition), errors.Is(err, services.ErrVersionConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func errorBody(err error) gin.H {
	var we *services.WorkflowError
	if !errors.As(err, &we) {
		return gin.H{"error": "internal error", "kind": "error"}
	}
	body := gin.H{"error": we.Error(), "kind": services.ResultLabel(err)}
	if we.Field != "" {
		body["field"] = we.Field
	}
	if we.State != "" {
		body["state"] = we.State
	}
	return body
}
