package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	testSecret = "mysecret"
	testIssuer = "https://api.topcoder-dev.com"
)

func signHS256(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return token
}

func humanClaims() jwt.MapClaims {
	return jwt.MapClaims{
		"iss":    testIssuer,
		"exp":    time.Now().Add(time.Hour).Unix(),
		"userId": "40029484",
		"handle": "jcori",
		"email":  "jcori@example.com",
		"roles":  []string{"Topcoder User", "administrator"},
	}
}

func TestVerify_HumanToken(t *testing.T) {
	v := NewJWTVerifier(testSecret, []string{testIssuer})

	identity, err := v.Verify(context.Background(), signHS256(t, testSecret, humanClaims()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if identity.IsMachine {
		t.Error("expected human identity")
	}
	if identity.UserID != "40029484" || identity.Handle != "jcori" {
		t.Errorf("unexpected identity: %+v", identity)
	}
	if !identity.HasRole(AdministratorRole) {
		t.Errorf("expected administrator role, got %v", identity.Roles)
	}
}

func TestVerify_NamespacedClaims(t *testing.T) {
	v := NewJWTVerifier(testSecret, []string{testIssuer})
	claims := jwt.MapClaims{
		"iss":                             testIssuer,
		"exp":                             time.Now().Add(time.Hour).Unix(),
		"https://topcoder-dev.com/userId": float64(8547899),
		"https://topcoder-dev.com/handle": "TonyJ",
		"https://topcoder-dev.com/roles":  []string{"Topcoder User"},
	}

	identity, err := v.Verify(context.Background(), signHS256(t, testSecret, claims))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if identity.UserID != "8547899" {
		t.Errorf("expected userId 8547899, got %q", identity.UserID)
	}
	if identity.Handle != "TonyJ" {
		t.Errorf("expected handle TonyJ, got %q", identity.Handle)
	}
	if identity.HasRole(AdministratorRole) {
		t.Error("did not expect administrator role")
	}
}

func TestVerify_MachineToken(t *testing.T) {
	v := NewJWTVerifier(testSecret, []string{testIssuer})
	claims := jwt.MapClaims{
		"iss":   testIssuer,
		"exp":   time.Now().Add(time.Hour).Unix(),
		"sub":   "enjw1810eDz3XTwSO2Rn2Y9cQTrspn3B@clients",
		"gty":   "client-credentials",
		"scope": "read:roles all:organizations",
	}

	identity, err := v.Verify(context.Background(), signHS256(t, testSecret, claims))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !identity.IsMachine {
		t.Fatal("expected machine identity")
	}
	if len(identity.Scopes) != 2 || identity.Scopes[1] != "all:organizations" {
		t.Errorf("unexpected scopes: %v", identity.Scopes)
	}
}

func TestVerify_Rejections(t *testing.T) {
	v := NewJWTVerifier(testSecret, []string{testIssuer})

	expired := humanClaims()
	expired["exp"] = time.Now().Add(-time.Hour).Unix()

	otherIssuer := humanClaims()
	otherIssuer["iss"] = "https://evil.example.com"

	noUser := humanClaims()
	delete(noUser, "userId")

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{"empty", "", ErrNoToken},
		{"garbage", "not-a-jwt", ErrInvalidToken},
		{"wrong secret", signHS256(t, "other-secret", humanClaims()), ErrInvalidToken},
		{"expired", signHS256(t, testSecret, expired), ErrInvalidToken},
		{"unknown issuer", signHS256(t, testSecret, otherIssuer), ErrInvalidIssuer},
		{"missing userId", signHS256(t, testSecret, noUser), ErrInvalidToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.Verify(context.Background(), tt.token)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header  string
		want    string
		wantErr bool
	}{
		{"Bearer abc", "abc", false},
		{"bearer abc", "abc", false},
		{"", "", true},
		{"Basic abc", "", true},
		{"Bearer ", "", true},
	}

	for _, tt := range tests {
		got, err := bearerToken(tt.header)
		if (err != nil) != tt.wantErr {
			t.Errorf("bearerToken(%q) error = %v, wantErr %v", tt.header, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("bearerToken(%q) = %q, want %q", tt.header, got, tt.want)
		}
	}
}

func newAuthRouter(v *JWTVerifier) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/whoami", Middleware(v), func(c *gin.Context) {
		identity, err := IdentityFromContext(c)
		if err != nil {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, identity)
	})
	return r
}

func TestMiddleware_LegacyEnvelope(t *testing.T) {
	r := newAuthRouter(NewJWTVerifier(testSecret, []string{testIssuer}))

	tests := []struct {
		name    string
		header  string
		message string
	}{
		{"missing header", "", "No token provided."},
		{"invalid token", "Bearer nope", "Invalid Token."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != http.StatusForbidden {
				t.Fatalf("expected 403, got %d", w.Code)
			}

			var body struct {
				Result struct {
					Success bool `json:"success"`
					Status  int  `json:"status"`
					Content struct {
						Message string `json:"message"`
					} `json:"content"`
				} `json:"result"`
			}
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("failed to decode body: %v", err)
			}
			if body.Result.Success || body.Result.Status != 403 {
				t.Errorf("unexpected envelope: %s", w.Body.String())
			}
			if body.Result.Content.Message != tt.message {
				t.Errorf("expected message %q, got %q", tt.message, body.Result.Content.Message)
			}
		})
	}
}

func TestMiddleware_SetsIdentity(t *testing.T) {
	r := newAuthRouter(NewJWTVerifier(testSecret, []string{testIssuer}))

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+signHS256(t, testSecret, humanClaims()))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var identity Identity
	if err := json.Unmarshal(w.Body.Bytes(), &identity); err != nil {
		t.Fatalf("failed to decode identity: %v", err)
	}
	if identity.Handle != "jcori" {
		t.Errorf("expected handle jcori, got %q", identity.Handle)
	}
}
