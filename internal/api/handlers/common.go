package handlers

import (
	"errors"
	"fmt"
	"io"

	"github.com/gin-gonic/gin"

	"github.com/nebari-dev/authz/internal/apperror"
	"github.com/nebari-dev/authz/internal/auth"
	"github.com/nebari-dev/authz/internal/validation"
)

// Context keys holding validated request input.
const (
	ParamsKey = "params"
	QueryKey  = "query"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Message string `json:"message"`
}

// fail hands err to the error middleware and stops the chain.
func fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// caller returns the authenticated identity, or nil on public routes.
func caller(c *gin.Context) *auth.Identity {
	identity, err := auth.IdentityFromContext(c)
	if err != nil {
		return nil
	}
	return identity
}

func validated(c *gin.Context, key string) map[string]any {
	if values, ok := c.Get(key); ok {
		if m, ok := values.(map[string]any); ok {
			return m
		}
	}
	return map[string]any{}
}

// pathID returns the validated :id parameter.
func pathID(c *gin.Context) (int64, error) {
	raw, ok := validated(c, ParamsKey)["id"].(string)
	if !ok {
		raw = c.Param("id")
	}
	return validation.ParseID(raw)
}

func queryString(c *gin.Context, key string) string {
	s, _ := validated(c, QueryKey)[key].(string)
	return s
}

// bindBody decodes a JSON object body. An empty body is an empty object.
func bindBody(c *gin.Context) (map[string]any, error) {
	body := map[string]any{}
	if err := c.ShouldBindJSON(&body); err != nil && !errors.Is(err, io.EOF) {
		return nil, apperror.BadRequest(fmt.Sprintf("Invalid request body: %v", err), err)
	}
	return body, nil
}
