package api

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/nebari-dev/authz/internal/api/handlers"
	"github.com/nebari-dev/authz/internal/apperror"
)

const requestIDHeader = "X-Request-ID"

// exposedHeaders lets browsers read pagination data.
var exposedHeaders = []string{"X-Page", "X-Per-Page", "X-Total", "X-Total-Pages", "X-Prev-Page", "X-Next-Page"}

// loggingMiddleware logs HTTP requests
func loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(requestIDHeader, requestID)

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		slog.Info("HTTP request",
			"method", method,
			"path", path,
			"status", status,
			"latency", latency.String(),
			"ip", c.ClientIP(),
			"request_id", requestID,
			"signature", c.GetString(signatureKey),
		)
	}
}

// corsMiddleware adds CORS headers
func corsMiddleware() gin.HandlerFunc {
	exposed := strings.Join(exposedHeaders, ", ")
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Expose-Headers", exposed)

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// errorMiddleware renders the last error recorded on the context as
// {"message": ...}. Errors without a known kind become 500.
func errorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		status := apperror.StatusOf(err)
		message := "Internal server error"
		if appErr, ok := apperror.As(err); ok && appErr.Kind != apperror.KindInternal {
			message = appErr.Message
		}

		signature := c.GetString(signatureKey)
		if signature == "" {
			signature = c.Request.Method + "_" + c.Request.URL.String()
		}
		if status >= http.StatusInternalServerError {
			slog.Error("Request failed", "component", "api", "signature", signature, "status", status, "error", err)
		} else {
			slog.Debug("Request rejected", "component", "api", "signature", signature, "status", status, "error", err)
		}

		c.JSON(status, handlers.ErrorResponse{Message: message})
	}
}

// legacyAuthMiddleware rewrites 403 responses carrying the token verifier's
// {"result":{"content":{"message":...}}} envelope into 401 {"message":...}.
// Other responses pass through unchanged.
func legacyAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		original := c.Writer
		buffered := &bufferedWriter{ResponseWriter: original}
		c.Writer = buffered

		c.Next()

		c.Writer = original
		status, body := buffered.Status(), buffered.body.Bytes()

		if status == http.StatusForbidden {
			if message, ok := legacyMessage(body); ok {
				rewritten, _ := json.Marshal(handlers.ErrorResponse{Message: message})
				original.Header().Set("Content-Type", "application/json; charset=utf-8")
				original.WriteHeader(http.StatusUnauthorized)
				_, _ = original.Write(rewritten)
				return
			}
		}

		original.WriteHeader(status)
		if len(body) > 0 {
			_, _ = original.Write(body)
		} else if buffered.written {
			original.WriteHeaderNow()
		}
	}
}

func legacyMessage(body []byte) (string, bool) {
	if len(body) == 0 {
		return "", false
	}

	var envelope struct {
		Result struct {
			Content struct {
				Message string `json:"message"`
			} `json:"content"`
		} `json:"result"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		slog.Error("Invalid response body.", "component", "api", "error", err)
		return "", false
	}

	message := envelope.Result.Content.Message
	return message, message != ""
}

// bufferedWriter holds the response until the legacy rewrite has run.
type bufferedWriter struct {
	gin.ResponseWriter
	body    bytes.Buffer
	status  int
	written bool
}

func (w *bufferedWriter) WriteHeader(code int) {
	if code > 0 && !w.written {
		w.status = code
	}
}

func (w *bufferedWriter) WriteHeaderNow() {
	w.written = true
}

func (w *bufferedWriter) Write(data []byte) (int, error) {
	w.written = true
	return w.body.Write(data)
}

func (w *bufferedWriter) WriteString(s string) (int, error) {
	w.written = true
	return w.body.WriteString(s)
}

func (w *bufferedWriter) Status() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}

func (w *bufferedWriter) Size() int {
	if !w.written {
		return -1
	}
	return w.body.Len()
}

func (w *bufferedWriter) Written() bool {
	return w.written
}
