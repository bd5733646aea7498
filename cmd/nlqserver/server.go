package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dekarrin/nlquery"
)

// Server is the minimal HTTP front-end over an *nlquery.Engine: a token
// exchange endpoint for turning a static API key into a bearer JWT, and the
// parse endpoint itself, guarded by that JWT. Grounded on server/api/api.go's
// API struct (a service handle plus the auth secret, with HTTP* methods
// returning http.HandlerFunc), trimmed down from TunaQuest's full
// user/session/world model to the one resource nlqserver exposes.
type Server struct {
	Engine   *nlquery.Engine
	Cache    *queryCache
	Keys     *apiKeyStore
	Secret   []byte
	DefaultK int
	Log      *log.Logger
}

type tokenRequest struct {
	KeyID  string `json:"key_id"`
	Secret string `json:"secret"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

type parseRequest struct {
	Query string `json:"query"`
	K     int    `json:"k,omitempty"`
}

// Router builds the route table: POST /token is open (it's how a caller
// proves they hold a valid key), POST /parse sits behind authMiddleware.
func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()
	r.Post("/token", s.handleToken)
	r.With(func(next http.Handler) http.Handler {
		return authMiddleware(s.Secret, next)
	}).Post("/parse", s.handleParse)
	return r
}

func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := parseJSON(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	if !s.Keys.verify(req.KeyID, req.Secret) {
		time.Sleep(unauthDelay)
		writeJSONError(w, http.StatusUnauthorized, "unrecognized key_id/secret")
		return
	}

	tok, err := issueToken(s.Secret, req.KeyID)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "could not issue token")
		return
	}

	s.logf("INFO", r, http.StatusCreated, "issued token for key '%s'", req.KeyID)
	writeJSON(w, http.StatusCreated, tokenResponse{Token: tok})
}

func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	var req parseRequest
	if err := parseJSON(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Query == "" {
		writeJSONError(w, http.StatusBadRequest, "query: property is empty or missing from request")
		return
	}

	k := req.K
	if k <= 0 {
		k = s.DefaultK
	}

	cacheKey := fmt.Sprintf("%s\x00%d", req.Query, k)
	if s.Cache != nil {
		if pr, ok := s.Cache.get(cacheKey); ok {
			s.logf("INFO", r, http.StatusOK, "cache hit for query %q", req.Query)
			writeJSON(w, http.StatusOK, pr)
			return
		}
	}

	pr := s.Engine.Parse(req.Query, k)

	if s.Cache != nil {
		if err := s.Cache.put(cacheKey, pr); err != nil {
			s.logf("WARN", r, http.StatusOK, "failed to cache result for query %q: %v", req.Query, err)
		}
	}

	s.logf("INFO", r, http.StatusOK, "parsed query %q into %d tree(s)", req.Query, len(pr.Trees))
	writeJSON(w, http.StatusOK, pr)
}

func (s *Server) logf(level string, r *http.Request, status int, format string, a ...interface{}) {
	if s.Log == nil {
		return
	}
	msg := fmt.Sprintf(format, a...)
	s.Log.Printf("%-5s %s %s: HTTP-%d %s", level, r.Method, r.URL.Path, status, msg)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error string `json:"error"`
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

// parseJSON decodes req's JSON body into v, mirroring server/api's
// parseJSON content-type check (minus the body-rewind dance, which nlqserver
// has no need for since nothing downstream re-reads the raw body).
func parseJSON(r *http.Request, v interface{}) error {
	if ct := r.Header.Get("Content-Type"); ct != "" && ct != "application/json" {
		return fmt.Errorf("request content-type is not application/json")
	}
	dec := json.NewDecoder(r.Body)
	defer r.Body.Close()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("malformed JSON in request: %w", err)
	}
	return nil
}
