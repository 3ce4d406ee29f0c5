package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/golang-jwt/jwt/v5"
)

const machineGrantType = "client-credentials"

// JWTVerifier validates HS256 tokens signed with the shared secret and RS256
// tokens signed by one of the accepted issuers (keys fetched from the
// issuer's JWKS endpoint).
type JWTVerifier struct {
	secret  []byte
	issuers []string

	mu      sync.Mutex
	keySets map[string]*oidc.RemoteKeySet
}

// NewJWTVerifier creates a verifier for the given secret and accepted issuers.
func NewJWTVerifier(secret string, issuers []string) *JWTVerifier {
	return &JWTVerifier{
		secret:  []byte(secret),
		issuers: issuers,
		keySets: make(map[string]*oidc.RemoteKeySet),
	}
}

// Verify validates a raw JWT and maps its claims to an Identity.
func (v *JWTVerifier) Verify(ctx context.Context, tokenString string) (*Identity, error) {
	if tokenString == "" {
		return nil, ErrNoToken
	}

	unverified, _, err := jwt.NewParser().ParseUnverified(tokenString, jwt.MapClaims{})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims := unverified.Claims.(jwt.MapClaims)
	issuer, _ := claims.GetIssuer()
	if !v.acceptsIssuer(issuer) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidIssuer, issuer)
	}

	switch unverified.Method.Alg() {
	case jwt.SigningMethodHS256.Alg():
		claims, err = v.verifyHMAC(tokenString)
	case jwt.SigningMethodRS256.Alg():
		claims, err = v.verifyJWKS(ctx, issuer, tokenString)
	default:
		err = fmt.Errorf("unexpected signing method: %v", unverified.Header["alg"])
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	return identityFromClaims(claims)
}

func (v *JWTVerifier) acceptsIssuer(issuer string) bool {
	for _, accepted := range v.issuers {
		if accepted == issuer {
			return true
		}
	}
	return false
}

func (v *JWTVerifier) verifyHMAC(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, ErrUnauthorized
	}
	return claims, nil
}

func (v *JWTVerifier) verifyJWKS(ctx context.Context, issuer, tokenString string) (jwt.MapClaims, error) {
	payload, err := v.keySet(ctx, issuer).VerifySignature(ctx, tokenString)
	if err != nil {
		return nil, err
	}

	claims := jwt.MapClaims{}
	if err := json.Unmarshal(payload, &claims); err != nil {
		return nil, fmt.Errorf("decode claims: %w", err)
	}
	if err := jwt.NewValidator().Validate(claims); err != nil {
		return nil, err
	}
	return claims, nil
}

func (v *JWTVerifier) keySet(ctx context.Context, issuer string) *oidc.RemoteKeySet {
	v.mu.Lock()
	defer v.mu.Unlock()

	if ks, ok := v.keySets[issuer]; ok {
		return ks
	}
	jwksURL := strings.TrimSuffix(issuer, "/") + "/.well-known/jwks.json"
	// The key set outlives the request that first needed it
	ks := oidc.NewRemoteKeySet(context.WithoutCancel(ctx), jwksURL)
	v.keySets[issuer] = ks
	return ks
}

// identityFromClaims maps token claims to a caller. Machine tokens carry a
// client-credentials grant (or an "@clients" subject) and a space separated
// scope claim; human tokens carry userId, handle and roles, possibly under a
// namespaced key such as "https://topcoder.com/claims/roles".
func identityFromClaims(claims jwt.MapClaims) (*Identity, error) {
	gty, _ := claims["gty"].(string)
	sub, _ := claims.GetSubject()

	if gty == machineGrantType || strings.HasSuffix(sub, "@clients") {
		return &Identity{
			UserID:    sub,
			IsMachine: true,
			Scopes:    ParseScopes(claims["scope"]),
		}, nil
	}

	identity := &Identity{
		UserID: claimString(claims, "userId"),
		Handle: claimString(claims, "handle"),
		Email:  claimString(claims, "email"),
		Roles:  claimStrings(claims, "roles"),
	}
	if identity.UserID == "" {
		return nil, fmt.Errorf("%w: missing userId claim", ErrInvalidToken)
	}
	return identity, nil
}

// claimValue finds a claim by exact name or by namespaced suffix ("/name").
func claimValue(claims jwt.MapClaims, name string) (any, bool) {
	if value, ok := claims[name]; ok {
		return value, true
	}
	for key, value := range claims {
		if strings.HasSuffix(key, "/"+name) {
			return value, true
		}
	}
	return nil, false
}

func claimString(claims jwt.MapClaims, name string) string {
	value, ok := claimValue(claims, name)
	if !ok {
		return ""
	}
	switch v := value.(type) {
	case string:
		return v
	case float64:
		return fmt.Sprintf("%.0f", v)
	case json.Number:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

func claimStrings(claims jwt.MapClaims, name string) []string {
	value, ok := claimValue(claims, name)
	if !ok {
		return nil
	}
	items, ok := value.([]any)
	if !ok {
		if s, isString := value.(string); isString && s != "" {
			return []string{s}
		}
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
