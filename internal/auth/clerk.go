// Package auth verifies Clerk session tokens. Tokens are RS256 JWTs signed
// by the Clerk instance; public keys come from the issuer's JWKS endpoint
// and are cached for an hour. Plan entitlement is resolved server-side from
// the Stripe subscription mirror, never from token claims, so a stale token
// cannot grant paid access.
package auth

import (
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken  = errors.New("invalid token")
	ErrTokenExpired  = errors.New("token expired")
	ErrMissingClaims = errors.New("missing required claims")
	ErrJWKSFetch     = errors.New("failed to fetch JWKS")
)

const keyTTL = time.Hour

// ClerkClaims are the claims kindred reads from a Clerk session JWT.
type ClerkClaims struct {
	jwt.RegisteredClaims
	UserID    string `json:"sub"`
	Email     string `json:"email,omitempty"`
	FullName  string `json:"name,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	ImageURL  string `json:"image_url,omitempty"`
	SessionID string `json:"sid,omitempty"`
}

// DisplayName picks the best human-readable name available in the token.
func (c *ClerkClaims) DisplayName() string {
	if c.FullName != "" {
		return c.FullName
	}
	if name := strings.TrimSpace(c.FirstName + " " + c.LastName); name != "" {
		return name
	}
	return c.Email
}

// ClerkVerifier validates session JWTs against a Clerk issuer.
type ClerkVerifier struct {
	issuer  string
	jwksURL string
	client  *http.Client

	mu      sync.RWMutex
	keys    map[string]*rsa.PublicKey
	fetched time.Time
}

// NewClerkVerifier creates a verifier for the given issuer URL, typically
// "https://<instance>.clerk.accounts.dev".
func NewClerkVerifier(issuer string) *ClerkVerifier {
	issuer = strings.TrimSuffix(issuer, "/")
	return &ClerkVerifier{
		issuer:  issuer,
		jwksURL: issuer + "/.well-known/jwks.json",
		client:  &http.Client{Timeout: 10 * time.Second},
		keys:    make(map[string]*rsa.PublicKey),
	}
}

// VerifyToken parses and validates a session JWT, returning its claims.
func (v *ClerkVerifier) VerifyToken(tokenString string) (*ClerkClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &ClerkClaims{}, v.keyfunc,
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithIssuer(v.issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*ClerkClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.UserID == "" {
		return nil, ErrMissingClaims
	}
	return claims, nil
}

func (v *ClerkVerifier) keyfunc(token *jwt.Token) (any, error) {
	kid, _ := token.Header["kid"].(string)
	if kid == "" {
		return nil, errors.New("token has no key ID")
	}

	v.mu.RLock()
	key, ok := v.keys[kid]
	fresh := time.Since(v.fetched) < keyTTL
	v.mu.RUnlock()
	if ok && fresh {
		return key, nil
	}

	if err := v.refresh(); err != nil {
		return nil, err
	}

	v.mu.RLock()
	defer v.mu.RUnlock()
	key, ok = v.keys[kid]
	if !ok {
		return nil, fmt.Errorf("signing key %q not in JWKS", kid)
	}
	return key, nil
}

func (v *ClerkVerifier) refresh() error {
	v.mu.Lock()
	defer v.mu.Unlock()

	// A concurrent request may have refreshed while we waited.
	if time.Since(v.fetched) < keyTTL && len(v.keys) > 0 {
		return nil
	}

	keys, err := v.fetchKeys()
	if err != nil {
		return err
	}
	v.keys = keys
	v.fetched = time.Now()
	return nil
}

func (v *ClerkVerifier) fetchKeys() (map[string]*rsa.PublicKey, error) {
	resp, err := v.client.Get(v.jwksURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrJWKSFetch, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrJWKSFetch, resp.StatusCode)
	}

	var doc struct {
		Keys []struct {
			Kid string `json:"kid"`
			Kty string `json:"kty"`
			Use string `json:"use"`
			N   string `json:"n"`
			E   string `json:"e"`
		} `json:"keys"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrJWKSFetch, err)
	}

	keys := make(map[string]*rsa.PublicKey, len(doc.Keys))
	for _, k := range doc.Keys {
		if k.Kty != "RSA" || k.Use != "sig" {
			continue
		}
		pub, err := rsaKey(k.N, k.E)
		if err != nil {
			continue
		}
		keys[k.Kid] = pub
	}
	return keys, nil
}

// rsaKey builds an RSA public key from base64url-encoded modulus and
// exponent.
func rsaKey(n, e string) (*rsa.PublicKey, error) {
	nb, err := base64.RawURLEncoding.DecodeString(n)
	if err != nil {
		return nil, err
	}
	eb, err := base64.RawURLEncoding.DecodeString(e)
	if err != nil {
		return nil, err
	}
	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(nb),
		E: int(new(big.Int).SetBytes(eb).Int64()),
	}, nil
}
