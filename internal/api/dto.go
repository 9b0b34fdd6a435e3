package api

import (
	"github.com/starford/nbshell/internal/workspace"
)

// SessionResponse is the session state (aliased from the domain layer).
type SessionResponse = workspace.SessionStatus

// SidebarResponse is the sidebar tree (aliased from the domain layer).
type SidebarResponse = workspace.SidebarView

// RefreshResponse reports the effect of a sidebar refresh.
type RefreshResponse struct {
	TreeChanged    bool   `json:"treeChanged"`
	LandingSet     bool   `json:"landingSet"`
	DefaultLanding string `json:"defaultLanding,omitempty"`
}

// ViewResponse describes the view a navigation resolved to.
type ViewResponse struct {
	View    string            `json:"view"`
	Params  map[string]string `json:"params,omitempty"`
	Message string            `json:"message,omitempty"`
}

// TypesResponse wraps the field → type map.
type TypesResponse struct {
	Types map[string]string `json:"types"`
}

// FormatResponse wraps a formatted record.
type FormatResponse struct {
	Fields map[string]string `json:"fields"`
}
