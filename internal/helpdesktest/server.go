// Package helpdesktest runs an in-process fake of the helpdesk REST API
// for tests. It supports API-key and session (cookie + CSRF) auth, generic
// CRUD over a handful of resources and the private workspace, role and
// department field endpoints.
package helpdesktest

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/gorilla/mux"
	"github.com/gorilla/securecookie"
	"golang.org/x/crypto/bcrypt"
)

const sessionCookie = "_helpdesk_session"

// RecordedRequest is a request the server received.
type RecordedRequest struct {
	Method      string
	Path        string
	CSRF        string
	ContentType string
	Body        string
}

// Options configures the fake server.
type Options struct {
	APIKey   string
	Email    string
	Password string
	// CSRFToken is returned by the bootstrap endpoint unless OmitCSRF is set.
	CSRFToken string
	OmitCSRF  bool
	// BootstrapStatus overrides the bootstrap response status when non-zero.
	BootstrapStatus int
}

// Server is a fake helpdesk tenant.
type Server struct {
	*httptest.Server

	opts         Options
	passwordHash []byte
	cookies      *securecookie.SecureCookie

	mu        sync.Mutex
	nextID    int64
	resources map[string]map[int64]map[string]interface{}
	requests  []RecordedRequest
}

type resource struct {
	singular string
	plural   string
}

var resources = []resource{
	{"requester", "requesters"},
	{"department", "departments"},
	{"agent", "agents"},
	{"ticket", "tickets"},
}

// New starts a fake server; it is closed when the test ends.
func New(t testing.TB, opts Options) *Server {
	t.Helper()
	if opts.APIKey == "" {
		opts.APIKey = "test-api-key"
	}
	if opts.Email == "" {
		opts.Email = "admin@example.com"
	}
	if opts.Password == "" {
		opts.Password = "s3cret"
	}
	if opts.CSRFToken == "" {
		opts.CSRFToken = "csrf-token-123"
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(opts.Password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	s := &Server{
		opts:         opts,
		passwordHash: hash,
		cookies:      securecookie.New(securecookie.GenerateRandomKey(32), securecookie.GenerateRandomKey(32)),
		nextID:       1000,
		resources:    make(map[string]map[int64]map[string]interface{}),
	}
	for _, r := range resources {
		s.resources[r.plural] = make(map[int64]map[string]interface{})
	}
	s.resources["roles"] = make(map[int64]map[string]interface{})
	s.resources["department_fields"] = make(map[int64]map[string]interface{})
	s.resources["workspaces"] = map[int64]map[string]interface{}{
		1: {"id": int64(1), "name": "IT", "primary": true, "state": "active"},
	}

	s.Server = httptest.NewServer(s.router())
	t.Cleanup(s.Server.Close)
	return s
}

// APIBaseURL returns the public base URL including the API prefix.
func (s *Server) APIBaseURL() string { return s.URL + "/api/v2" }

// Options returns the effective options.
func (s *Server) Options() Options { return s.opts }

// Requests returns a copy of all received requests.
func (s *Server) Requests() []RecordedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]RecordedRequest, len(s.requests))
	copy(out, s.requests)
	return out
}

// LastRequest returns the most recent request matching method, if any.
func (s *Server) LastRequest(method string) (RecordedRequest, bool) {
	reqs := s.Requests()
	for i := len(reqs) - 1; i >= 0; i-- {
		if reqs[i].Method == method {
			return reqs[i], true
		}
	}
	return RecordedRequest{}, false
}

// Seed stores an object of the given plural resource and returns its id.
func (s *Server) Seed(plural string, obj map[string]interface{}) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := s.nextID
	obj["id"] = id
	s.resources[plural][id] = obj
	return id
}

// Count returns the number of stored objects for a plural resource.
func (s *Server) Count(plural string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.resources[plural])
}

func (s *Server) router() http.Handler {
	r := mux.NewRouter()
	r.Use(s.record)

	private := r.PathPrefix("/api/_").Subrouter()
	private.HandleFunc("/bootstrap/me", s.handleBootstrap).Methods(http.MethodGet)
	private.Handle("/workspaces", s.requireSession(http.HandlerFunc(s.handleList("workspaces")))).Methods(http.MethodGet)
	private.Handle("/workspaces", s.requireSession(http.HandlerFunc(s.handleCreate("workspace", "workspaces")))).Methods(http.MethodPost)
	private.Handle("/workspaces/{id:[0-9]+}", s.requireSession(http.HandlerFunc(s.handleUpdate("workspace", "workspaces")))).Methods(http.MethodPut)

	roles := r.PathPrefix("/api/admin/roles").Subrouter()
	roles.Use(s.requireSession)
	roles.HandleFunc("", s.handleList("roles")).Methods(http.MethodGet)
	roles.HandleFunc("", s.handleCreate("role", "roles")).Methods(http.MethodPost)
	roles.HandleFunc("/{id:[0-9]+}", s.handleUpdate("role", "roles")).Methods(http.MethodPut)
	roles.HandleFunc("/{id:[0-9]+}", s.handleDelete("roles")).Methods(http.MethodDelete)

	r.Handle("/admin/department_fields", s.requireSession(http.HandlerFunc(s.handleDepartmentFields))).Methods(http.MethodPost)

	api := r.PathPrefix("/api/v2").Subrouter()
	api.Use(s.requireAuth)
	api.HandleFunc("/requesters/merge", s.handleMerge).Methods(http.MethodPost)
	api.HandleFunc("/requester_fields", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"requester_fields": []map[string]interface{}{{"name": "first_name"}, {"name": "primary_email"}},
		})
	}).Methods(http.MethodGet)
	api.HandleFunc("/requesters/{id:[0-9]+}/convert_to_agent", s.handleMove("requesters", "agents", "agent")).Methods(http.MethodPut, http.MethodPost)
	api.HandleFunc("/agents/{id:[0-9]+}/convert_to_requester", s.handleMove("agents", "requesters", "requester")).Methods(http.MethodPut)
	api.HandleFunc("/agents/{id:[0-9]+}", s.handleActive(false)).Methods(http.MethodDelete)
	api.HandleFunc("/agents/{id:[0-9]+}/reactivate", s.handleActive(true)).Methods(http.MethodPut)
	for _, res := range resources {
		base := "/" + res.plural
		api.HandleFunc(base, s.handleList(res.plural)).Methods(http.MethodGet)
		api.HandleFunc(base, s.handleCreate(res.singular, res.plural)).Methods(http.MethodPost)
		api.HandleFunc(base+"/{id:[0-9]+}", s.handleGet(res.singular, res.plural)).Methods(http.MethodGet)
		api.HandleFunc(base+"/{id:[0-9]+}", s.handleUpdate(res.singular, res.plural)).Methods(http.MethodPut)
		api.HandleFunc(base+"/{id:[0-9]+}", s.handleDelete(res.plural)).Methods(http.MethodDelete)
		api.HandleFunc(base+"/{id:[0-9]+}/forget", s.handleDelete(res.plural)).Methods(http.MethodDelete)
	}
	return r
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body []byte
		if r.Body != nil {
			body, _ = io.ReadAll(r.Body)
			r.Body = io.NopCloser(bytes.NewReader(body))
		}
		s.mu.Lock()
		s.requests = append(s.requests, RecordedRequest{
			Method:      r.Method,
			Path:        r.URL.Path,
			CSRF:        r.Header.Get("X-CSRF-Token"),
			ContentType: r.Header.Get("Content-Type"),
			Body:        string(body),
		})
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) checkBasic(r *http.Request) (apiKey bool, session bool) {
	user, pass, ok := r.BasicAuth()
	if !ok {
		return false, false
	}
	if user == s.opts.APIKey && pass == "X" {
		return true, false
	}
	if user == s.opts.Email && bcrypt.CompareHashAndPassword(s.passwordHash, []byte(pass)) == nil {
		return false, true
	}
	return false, false
}

func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apiKey, session := s.checkBasic(r)
		if !apiKey && !session {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"code": "access_denied"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, session := s.checkBasic(r); !session {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"code": "access_denied"})
			return
		}
		cookie, err := r.Cookie(sessionCookie)
		var email string
		if err != nil || s.cookies.Decode(sessionCookie, cookie.Value, &email) != nil || email != s.opts.Email {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"code": "session_required"})
			return
		}
		if r.Method != http.MethodGet && r.Header.Get("X-CSRF-Token") != s.opts.CSRFToken {
			writeJSON(w, http.StatusForbidden, map[string]string{"code": "invalid_csrf_token"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleBootstrap(w http.ResponseWriter, r *http.Request) {
	if s.opts.BootstrapStatus != 0 {
		writeJSON(w, s.opts.BootstrapStatus, map[string]string{"code": "bootstrap_failed"})
		return
	}
	if _, session := s.checkBasic(r); !session {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"code": "access_denied"})
		return
	}
	encoded, err := s.cookies.Encode(sessionCookie, s.opts.Email)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"code": "cookie"})
		return
	}
	http.SetCookie(w, &http.Cookie{Name: sessionCookie, Value: encoded, Path: "/"})

	meta := map[string]interface{}{}
	if !s.opts.OmitCSRF {
		meta["csrf_token"] = s.opts.CSRFToken
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"user": map[string]string{"email": s.opts.Email},
		"meta": meta,
	})
}

func (s *Server) handleList(plural string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		items := make([]map[string]interface{}, 0, len(s.resources[plural]))
		for _, obj := range s.resources[plural] {
			items = append(items, obj)
		}
		s.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]interface{}{plural: items})
	}
}

func (s *Server) handleCreate(singular, plural string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		obj, ok := decodeObject(w, r, singular)
		if !ok {
			return
		}
		id := s.Seed(plural, obj)
		s.mu.Lock()
		stored := s.resources[plural][id]
		s.mu.Unlock()
		writeJSON(w, http.StatusCreated, map[string]interface{}{singular: stored})
	}
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request, plural string) (int64, bool) {
	id, _ := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	s.mu.Lock()
	_, ok := s.resources[plural][id]
	s.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"code": "not_found"})
	}
	return id, ok
}

func (s *Server) handleGet(singular, plural string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := s.lookup(w, r, plural)
		if !ok {
			return
		}
		s.mu.Lock()
		obj := s.resources[plural][id]
		s.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]interface{}{singular: obj})
	}
}

func (s *Server) handleUpdate(singular, plural string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := s.lookup(w, r, plural)
		if !ok {
			return
		}
		patch, ok := decodeObject(w, r, singular)
		if !ok {
			return
		}
		s.mu.Lock()
		obj := s.resources[plural][id]
		for k, v := range patch {
			obj[k] = v
		}
		s.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]interface{}{singular: obj})
	}
}

func (s *Server) handleDelete(plural string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := s.lookup(w, r, plural)
		if !ok {
			return
		}
		s.mu.Lock()
		delete(s.resources[plural], id)
		s.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}
}

// handleMove converts an object from one resource to another.
func (s *Server) handleMove(from, to, singular string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := s.lookup(w, r, from)
		if !ok {
			return
		}
		s.mu.Lock()
		obj := s.resources[from][id]
		delete(s.resources[from], id)
		s.resources[to][id] = obj
		s.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]interface{}{singular: obj})
	}
}

// handleActive deactivates (DELETE) or reactivates an agent in place.
func (s *Server) handleActive(active bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := s.lookup(w, r, "agents")
		if !ok {
			return
		}
		s.mu.Lock()
		obj := s.resources["agents"][id]
		obj["active"] = active
		s.mu.Unlock()
		if !active {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"agent": obj})
	}
}

func (s *Server) handleMerge(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Primary   int64   `json:"primary_requester"`
		Secondary []int64 `json:"secondary_requesters"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"code": "invalid_json"})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	primary, ok := s.resources["requesters"][body.Primary]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"code": "not_found"})
		return
	}
	for _, id := range body.Secondary {
		delete(s.resources["requesters"], id)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"requester": primary})
}

// handleDepartmentFields takes a form with a jsonData list of field changes.
func (s *Server) handleDepartmentFields(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"code": "invalid_form"})
		return
	}
	var changes []map[string]interface{}
	if err := json.Unmarshal([]byte(r.PostForm.Get("jsonData")), &changes); err != nil || len(changes) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"code": "invalid_json_data"})
		return
	}
	created := make([]map[string]interface{}, 0, len(changes))
	for _, change := range changes {
		s.Seed("department_fields", change)
		created = append(created, change)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"department_fields": created})
}

// decodeObject accepts both wrapped ({"requester": {...}}) and bare bodies.
func decodeObject(w http.ResponseWriter, r *http.Request, singular string) (map[string]interface{}, bool) {
	var raw map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"code": "invalid_json"})
		return nil, false
	}
	if inner, ok := raw[singular].(map[string]interface{}); ok {
		return inner, true
	}
	return raw, true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
