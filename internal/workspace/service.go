// Package workspace coordinates the session gate, the sidebar state and the
// notebook listing for the HTTP and MCP surfaces.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/starford/nbshell/internal/apperr"
	"github.com/starford/nbshell/internal/models"
	"github.com/starford/nbshell/internal/session"
	"github.com/starford/nbshell/internal/sidebar"
	"github.com/starford/nbshell/internal/typemap"
)

// NotebookSource lists notebooks for a ticket. *upstream.Client satisfies it.
type NotebookSource interface {
	Notebooks(ctx context.Context, ticket string) ([]models.NotebookRecord, error)
}

// Notifier is told about sidebar changes. *sse.Broker satisfies it.
type Notifier interface {
	PublishSidebarUpdate()
	PublishLanding(noteID string)
}

// SessionStatus is the externally visible session state.
type SessionStatus struct {
	Authenticated bool   `json:"authenticated"`
	Ticket        string `json:"ticket,omitempty"`
}

// SidebarView is the tree plus the default landing notebook.
type SidebarView struct {
	Categories     sidebar.Tree `json:"categories"`
	DefaultLanding string       `json:"defaultLanding,omitempty"`
}

// Service coordinates session, sidebar and formatting operations.
type Service struct {
	gate   *session.Gate
	state  *sidebar.State
	src    NotebookSource
	notify Notifier
	types  *typemap.Map
	logger *slog.Logger
}

// NewService creates a new workspace service. notify and types may be nil.
func NewService(gate *session.Gate, state *sidebar.State, src NotebookSource, notify Notifier, types *typemap.Map, logger *slog.Logger) *Service {
	if types == nil {
		types = typemap.New(nil)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{gate: gate, state: state, src: src, notify: notify, types: types, logger: logger}
}

// Authenticated reports the cached session flag.
func (s *Service) Authenticated() bool {
	return s.gate.IsAuthenticated()
}

// Session returns the current session state.
func (s *Service) Session() SessionStatus {
	ticket, _ := s.gate.GetTicket()
	return SessionStatus{Authenticated: s.gate.IsAuthenticated(), Ticket: ticket}
}

// CheckTicket re-validates the session with the server.
func (s *Service) CheckTicket(ctx context.Context) SessionStatus {
	s.gate.CheckServerTicket(ctx)
	return s.Session()
}

// Login authenticates and, on success, loads the sidebar. Rejected
// credentials return apperr.ErrUnauthenticated; an unreachable or
// misbehaving server returns an error wrapping apperr.ErrTransport or
// apperr.ErrMalformedResponse.
func (s *Service) Login(ctx context.Context, username, password string) (SessionStatus, error) {
	if err := s.gate.Login(ctx, username, password); err != nil {
		if errors.Is(err, apperr.ErrUnauthenticated) {
			return s.Session(), apperr.ErrUnauthenticated
		}
		return s.Session(), fmt.Errorf("workspace: %w", err)
	}
	if _, err := s.RefreshSidebar(ctx); err != nil {
		s.logger.Warn("sidebar refresh after login failed", slog.String("error", err.Error()))
	}
	return s.Session(), nil
}

// Logout clears the session.
func (s *Service) Logout() {
	s.gate.Logout()
}

// Sidebar returns the current tree. It requires an authenticated session.
func (s *Service) Sidebar() (*SidebarView, error) {
	if !s.gate.IsAuthenticated() {
		return nil, apperr.ErrUnauthenticated
	}
	tree, landing, _ := s.state.Snapshot()
	if tree == nil {
		tree = sidebar.Tree{}
	}
	return &SidebarView{Categories: tree, DefaultLanding: landing}, nil
}

// Landing returns the default landing notebook once established.
func (s *Service) Landing() (string, bool) {
	return s.state.Landing()
}

// RefreshSidebar fetches the notebook listing and folds it into the tree.
func (s *Service) RefreshSidebar(ctx context.Context) (sidebar.Change, error) {
	ticket, ok := s.gate.GetTicket()
	if !ok || !s.gate.IsAuthenticated() {
		return sidebar.Change{}, apperr.ErrUnauthenticated
	}
	records, err := s.src.Notebooks(ctx, ticket)
	if err != nil {
		return sidebar.Change{}, fmt.Errorf("workspace: list notebooks: %w", err)
	}

	ch := s.state.Apply(records)
	if ch.TreeChanged {
		s.logger.Debug("sidebar rebuilt", slog.Int("records", len(records)))
		if s.notify != nil {
			s.notify.PublishSidebarUpdate()
		}
	}
	if ch.LandingSet {
		s.logger.Info("default landing set", slog.String("note_id", ch.Landing))
		if s.notify != nil {
			s.notify.PublishLanding(ch.Landing)
		}
	}
	return ch, nil
}

// ToggleCategory flips the expanded flag of a category.
func (s *Service) ToggleCategory(name string) error {
	if !s.state.Toggle(name) {
		return apperr.ErrNotFound
	}
	if s.notify != nil {
		s.notify.PublishSidebarUpdate()
	}
	return nil
}

// Types returns the field → type map.
func (s *Service) Types() map[string]string {
	return s.types.Types()
}

// Format renders every field of rec according to the type map.
func (s *Service) Format(rec map[string]any) map[string]string {
	return s.types.FormatRecord(rec)
}
