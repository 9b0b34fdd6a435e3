// Package testutil provides shared test helpers: a temporary local store
// and a fake notebook server.
package testutil

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/starford/nbshell/internal/localstore"
)

// TestStore creates a temporary prefixed SQLite store that is cleaned up
// automatically.
func TestStore(t *testing.T) localstore.Store {
	t.Helper()
	dbFile, err := os.CreateTemp("", "nbshell-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	s, err := localstore.OpenSQLite(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return localstore.WithPrefix(s, "zeppelin")
}

// QuietLogger returns a logger that only emits errors.
func QuietLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

// Note is a notebook as the fake server lists it.
type Note struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// FakeUpstream is an in-process notebook server exposing the ticket, login
// and notebook listing endpoints under /api.
type FakeUpstream struct {
	Server *httptest.Server

	mu           sync.Mutex
	ticketStatus int
	ticketBody   string
	users        map[string]string
	notes        []Note
	calls        map[string]int
	lastForm     map[string]string
	lastCType    string
}

// NewFakeUpstream starts a fake server. By default the ticket endpoint
// answers 403 and no users or notes exist.
func NewFakeUpstream(t *testing.T) *FakeUpstream {
	t.Helper()
	f := &FakeUpstream{
		ticketStatus: http.StatusForbidden,
		users:        map[string]string{},
		calls:        map[string]int{},
	}

	r := chi.NewRouter()
	r.Get("/api/security/ticket", f.handleTicket)
	r.Post("/api/login", f.handleLogin)
	r.Get("/api/notebook", f.handleNotebooks)

	f.Server = httptest.NewServer(r)
	t.Cleanup(f.Server.Close)
	return f
}

// URL returns the API base URL of the fake server.
func (f *FakeUpstream) URL() string {
	return f.Server.URL + "/api"
}

// SetTicket configures the next ticket responses. body is written raw.
func (f *FakeUpstream) SetTicket(status int, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ticketStatus = status
	f.ticketBody = body
}

// AddUser registers a login.
func (f *FakeUpstream) AddUser(name, password string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[name] = password
}

// SetNotes replaces the notebook listing.
func (f *FakeUpstream) SetNotes(notes ...Note) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notes = append([]Note(nil), notes...)
}

// Calls returns how many times path was requested.
func (f *FakeUpstream) Calls(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[path]
}

// LastLogin returns the form fields and content type of the last login call.
func (f *FakeUpstream) LastLogin() (map[string]string, string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastForm, f.lastCType
}

func (f *FakeUpstream) count(r *http.Request) {
	f.calls[r.URL.Path]++
}

func (f *FakeUpstream) handleTicket(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.count(r)
	status, body := f.ticketStatus, f.ticketBody
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func (f *FakeUpstream) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	user, pass := r.PostForm.Get("userName"), r.PostForm.Get("password")

	f.mu.Lock()
	f.count(r)
	f.lastForm = map[string]string{"userName": user, "password": pass}
	f.lastCType = r.Header.Get("Content-Type")
	want, ok := f.users[user]
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if !ok || want != pass {
		w.WriteHeader(http.StatusForbidden)
		_ = json.NewEncoder(w).Encode(map[string]any{"status": "FORBIDDEN", "message": ""})
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":  "OK",
		"message": "",
		"body":    map[string]string{"principal": user, "ticket": "ticket-" + user},
	})
}

func (f *FakeUpstream) handleNotebooks(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.count(r)
	notes := append([]Note{}, f.notes...)
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if r.URL.Query().Get("ticket") == "" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]any{"status": "OK", "message": "", "body": notes})
}
