package main

import (
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// unauthDelay deprioritizes unauthorized/malformed requests, the same
// purpose server/endpoints.go's Endpoint wrapper serves with its
// unauthTimeout sleep before responding HTTP-401/403/500.
const unauthDelay = 250 * time.Millisecond

// apiKeyStore holds bcrypt-hashed API key secrets, keyed by key ID. Mirrors
// the hashing scheme golang.org/x/crypto/bcrypt gives the teacher's own user
// password storage, applied here to machine API keys instead of human
// passwords.
type apiKeyStore struct {
	hashed map[string][]byte
}

func newAPIKeyStore(idToSecret map[string]string) (*apiKeyStore, error) {
	hashed := make(map[string][]byte, len(idToSecret))
	for id, secret := range idToSecret {
		h, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		hashed[id] = h
	}
	return &apiKeyStore{hashed: hashed}, nil
}

func (s *apiKeyStore) verify(keyID, secret string) bool {
	h, ok := s.hashed[keyID]
	if !ok {
		return false
	}
	return bcrypt.CompareHashAndPassword(h, []byte(secret)) == nil
}

// issueToken mints a short-lived bearer JWT for an already-verified keyID,
// mirroring server/token.go's jwt.NewWithClaims/SignedString usage.
func issueToken(secret []byte, keyID string) (string, error) {
	claims := jwt.MapClaims{
		"sub": keyID,
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(time.Hour).Unix(),
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tok.SignedString(secret)
}

// authMiddleware guards next behind a valid bearer JWT signed with secret,
// the routing-layer equivalent of server/token.go's AuthHandler, narrowed to
// the single "is this caller recognized at all" check /parse needs (no
// per-user entity lookup, since nlqserver has no user model).
func authMiddleware(secret []byte, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authz := r.Header.Get("Authorization")
		tokStr, ok := strings.CutPrefix(authz, "Bearer ")
		if !ok || tokStr == "" {
			time.Sleep(unauthDelay)
			writeJSONError(w, http.StatusUnauthorized, "missing or malformed bearer token")
			return
		}

		_, err := jwt.Parse(tokStr, func(t *jwt.Token) (interface{}, error) {
			return secret, nil
		}, jwt.WithValidMethods([]string{"HS256"}))
		if err != nil {
			time.Sleep(unauthDelay)
			writeJSONError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		next.ServeHTTP(w, r)
	})
}
