package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nebari-dev/authz/internal/api/handlers"
	"github.com/nebari-dev/authz/internal/apperror"
	"github.com/nebari-dev/authz/internal/auth"
	"github.com/nebari-dev/authz/internal/rbac"
	"github.com/nebari-dev/authz/internal/validation"
)

const signatureKey = "signature"

const (
	msgMethodNotAllowed = "The requested HTTP method is not supported."
	msgNotFound         = "The requested resource cannot be found."
)

// dispatcher turns route table entries into guarded handler chains.
type dispatcher struct {
	verifier  auth.Verifier
	auditUser *auth.Identity
}

func (d *dispatcher) register(group *gin.RouterGroup, routes []Route) {
	for _, route := range routes {
		group.Handle(route.Method, route.Path, d.chain(route)...)
	}
}

// chain builds: signature, authentication, caller resolution, input
// validation, handler.
func (d *dispatcher) chain(route Route) []gin.HandlerFunc {
	chain := []gin.HandlerFunc{tagSignature(route.Controller + "#" + route.Action)}
	if route.Auth {
		chain = append(chain, auth.Middleware(d.verifier), d.resolveCaller(route.Scopes))
	}
	chain = append(chain, validateInput(route.Params, route.Query), route.Handler)
	return chain
}

func tagSignature(signature string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(signatureKey, signature)
		c.Next()
	}
}

// resolveCaller applies the route scopes to machine callers and completes
// human identities.
func (d *dispatcher) resolveCaller(scopes []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, err := auth.IdentityFromContext(c)
		if err != nil {
			fail(c, apperror.Unauthorized("", err))
			return
		}

		if identity.IsMachine {
			if !auth.ScopesMatch(scopes, identity.Scopes) {
				fail(c, apperror.Forbidden(rbac.ForbiddenMessage))
				return
			}
			identity.UserID = d.auditUser.UserID
			identity.Handle = d.auditUser.Handle
		} else {
			identity.Token = c.GetHeader("Authorization")
			identity.IsAdmin = identity.HasRole(auth.AdministratorRole)
		}
		c.Next()
	}
}

// validateInput checks path parameters and query values. A nil schema skips
// that part of the request.
func validateInput(params, query validation.Schema) gin.HandlerFunc {
	return func(c *gin.Context) {
		if params != nil {
			input := make(map[string]any, len(c.Params))
			for _, p := range c.Params {
				input[p.Key] = p.Value
			}
			valid, err := params.Validate(input)
			if err != nil {
				fail(c, err)
				return
			}
			c.Set(handlers.ParamsKey, valid)
		}

		if query != nil {
			values := c.Request.URL.Query()
			input := make(map[string]any, len(values))
			for key := range values {
				input[key] = values.Get(key)
			}
			valid, err := query.Validate(input)
			if err != nil {
				fail(c, err)
				return
			}
			c.Set(handlers.QueryKey, valid)
		}
		c.Next()
	}
}

func fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

func methodNotAllowed(c *gin.Context) {
	c.JSON(http.StatusMethodNotAllowed, handlers.ErrorResponse{Message: msgMethodNotAllowed})
}

func notFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, handlers.ErrorResponse{Message: msgNotFound})
}
