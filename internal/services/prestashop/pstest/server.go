// Package pstest provides a fake PrestaShop webservice for tests.
package pstest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

const APIKey = "TESTKEY"

// Server answers /api/* routes registered by the test and counts hits per path.
// Unregistered paths return 404. Requests without the expected basic-auth
// username get 401.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	handlers map[string]http.HandlerFunc
	hits     map[string]int
}

func NewServer(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		handlers: make(map[string]http.HandlerFunc),
		hits:     make(map[string]int),
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(s.Close)
	return s
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	user, pass, ok := r.BasicAuth()
	if !ok || user != APIKey || pass != "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/api/")
	s.mu.Lock()
	s.hits[path]++
	h, found := s.handlers[path]
	s.mu.Unlock()

	if !found {
		http.Error(w, `{"errors":[{"code":404,"message":"not found"}]}`, http.StatusNotFound)
		return
	}
	h(w, r)
}

// HandleFunc registers a handler for /api/{path}.
func (s *Server) HandleFunc(path string, h http.HandlerFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[path] = h
}

// JSON registers a fixed 200 response; v is marshalled unless it is a string.
func (s *Server) JSON(path string, v interface{}) {
	s.Respond(path, http.StatusOK, v)
}

func (s *Server) Respond(path string, status int, v interface{}) {
	var body []byte
	switch b := v.(type) {
	case string:
		body = []byte(b)
	case []byte:
		body = b
	default:
		var err error
		if body, err = json.Marshal(v); err != nil {
			panic(err)
		}
	}
	s.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write(body)
	})
}

// Remove unregisters a path so it answers 404 again.
func (s *Server) Remove(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.handlers, path)
}

func (s *Server) Hits(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[path]
}

func (s *Server) ResetHits() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hits = make(map[string]int)
}
