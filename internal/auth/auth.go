package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	// IdentityContextKey is the key used to store the caller in Gin context
	IdentityContextKey = "authUser"
	// AdministratorRole is the human role that grants write access
	AdministratorRole = "administrator"
)

var (
	ErrNoToken       = errors.New("no token provided")
	ErrInvalidToken  = errors.New("invalid token")
	ErrInvalidIssuer = errors.New("invalid token issuer")
	ErrUnauthorized  = errors.New("unauthorized")
)

// Identity is the authenticated subject of a request, human or machine.
type Identity struct {
	UserID    string   `json:"userId"`
	Handle    string   `json:"handle"`
	Email     string   `json:"email,omitempty"`
	IsMachine bool     `json:"isMachine"`
	Scopes    []string `json:"scopes,omitempty"` // machine callers only
	Roles     []string `json:"roles,omitempty"`  // human callers only
	IsAdmin   bool     `json:"isAdmin"`
	Token     string   `json:"-"` // raw Authorization header of a human caller
}

// HasRole reports whether the identity carries role (exact match).
func (i *Identity) HasRole(role string) bool {
	for _, r := range i.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Verifier validates a bearer token and returns the caller it identifies.
type Verifier interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}

// IdentityFromContext extracts the authenticated caller from the Gin context
func IdentityFromContext(c *gin.Context) (*Identity, error) {
	value, exists := c.Get(IdentityContextKey)
	if !exists {
		return nil, ErrUnauthorized
	}

	identity, ok := value.(*Identity)
	if !ok {
		return nil, errors.New("invalid identity in context")
	}

	return identity, nil
}

// Middleware returns a Gin middleware that authenticates the bearer token.
// Failures are answered with 403 and the legacy envelope
// {"result":{"success":false,"status":403,"content":{"message":...}}}.
func Middleware(v Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, err := bearerToken(c.GetHeader("Authorization"))
		if err != nil {
			abortLegacy(c, "No token provided.")
			return
		}

		identity, err := v.Verify(c.Request.Context(), tokenString)
		if err != nil {
			slog.Warn("Invalid token", "error", err, "signature", c.GetString("signature"))
			abortLegacy(c, "Invalid Token.")
			return
		}

		c.Set(IdentityContextKey, identity)
		c.Next()
	}
}

func bearerToken(header string) (string, error) {
	if header == "" {
		return "", ErrNoToken
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", ErrNoToken
	}
	return strings.TrimSpace(parts[1]), nil
}

func abortLegacy(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
		"result": gin.H{
			"success": false,
			"status":  http.StatusForbidden,
			"content": gin.H{"message": message},
		},
	})
}
