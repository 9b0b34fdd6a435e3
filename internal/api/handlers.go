package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/starford/nbshell/internal/apperr"
	"github.com/starford/nbshell/internal/navigation"
	"github.com/starford/nbshell/internal/workspace"
)

// maxFormatBody caps the request body accepted by POST /api/format.
const maxFormatBody = 1 << 20

// Handler holds API route handlers.
type Handler struct {
	svc *workspace.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *workspace.Service) *Handler {
	return &Handler{svc: svc}
}

// Session handles GET /api/session.
//
//	@Summary		Current session state
//	@Tags			session
//	@Produce		json
//	@Success		200	{object}	SessionResponse
//	@Router			/session [get]
func (h *Handler) Session(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Session())
}

// CheckSession handles POST /api/session/check.
//
//	@Summary		Re-validate the session with the notebook server
//	@Tags			session
//	@Produce		json
//	@Success		200	{object}	SessionResponse
//	@Router			/session/check [post]
func (h *Handler) CheckSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.CheckTicket(r.Context()))
}

// Login handles POST /api/login.
//
//	@Summary		Log in with user name and password
//	@Tags			session
//	@Accept			x-www-form-urlencoded
//	@Produce		json
//	@Param			userName	formData	string	true	"User name"
//	@Param			password	formData	string	true	"Password"
//	@Success		200			{object}	SessionResponse
//	@Failure		400			{object}	errResponse
//	@Failure		401			{object}	errResponse
//	@Failure		502			{object}	errResponse
//	@Router			/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid form"))
		return
	}
	user := r.PostForm.Get("userName")
	pass := r.PostForm.Get("password")
	if user == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("userName is required"))
		return
	}

	st, err := h.svc.Login(r.Context(), user, pass)
	if err != nil {
		if errors.Is(err, apperr.ErrUnauthenticated) {
			writeJSON(w, http.StatusUnauthorized, errorBody("invalid credentials"))
			return
		}
		h.writeError(w, "login", err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// Logout handles POST /api/logout.
//
//	@Summary		Clear the session
//	@Tags			session
//	@Success		204
//	@Router			/logout [post]
func (h *Handler) Logout(w http.ResponseWriter, _ *http.Request) {
	h.svc.Logout()
	w.WriteHeader(http.StatusNoContent)
}

// Sidebar handles GET /api/sidebar.
//
//	@Summary		Notebook tree grouped by category
//	@Tags			sidebar
//	@Produce		json
//	@Success		200	{object}	SidebarResponse
//	@Failure		401	{object}	errResponse
//	@Router			/sidebar [get]
func (h *Handler) Sidebar(w http.ResponseWriter, _ *http.Request) {
	view, err := h.svc.Sidebar()
	if err != nil {
		h.writeError(w, "get sidebar", err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// RefreshSidebar handles POST /api/sidebar/refresh.
//
//	@Summary		Reload the notebook listing and rebuild the tree
//	@Tags			sidebar
//	@Produce		json
//	@Success		200	{object}	RefreshResponse
//	@Failure		401	{object}	errResponse
//	@Failure		502	{object}	errResponse
//	@Router			/sidebar/refresh [post]
func (h *Handler) RefreshSidebar(w http.ResponseWriter, r *http.Request) {
	ch, err := h.svc.RefreshSidebar(r.Context())
	if err != nil {
		h.writeError(w, "refresh sidebar", err)
		return
	}
	resp := RefreshResponse{TreeChanged: ch.TreeChanged, LandingSet: ch.LandingSet}
	if id, ok := h.svc.Landing(); ok {
		resp.DefaultLanding = id
	}
	writeJSON(w, http.StatusOK, resp)
}

// ToggleCategory handles POST /api/sidebar/categories/{name}/toggle.
//
//	@Summary		Expand or collapse a category
//	@Tags			sidebar
//	@Param			name	path	string	true	"Category name"
//	@Success		204
//	@Failure		404	{object}	errResponse
//	@Router			/sidebar/categories/{name}/toggle [post]
func (h *Handler) ToggleCategory(w http.ResponseWriter, r *http.Request) {
	name := pathParam(r, "name")
	if err := h.svc.ToggleCategory(name); err != nil {
		h.writeError(w, "toggle category", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Types handles GET /api/types.
//
//	@Summary		Field type map used for display formatting
//	@Tags			types
//	@Produce		json
//	@Success		200	{object}	TypesResponse
//	@Router			/types [get]
func (h *Handler) Types(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, TypesResponse{Types: h.svc.Types()})
}

// Format handles POST /api/format.
//
//	@Summary		Format a record according to the type map
//	@Tags			types
//	@Accept			json
//	@Produce		json
//	@Success		200	{object}	FormatResponse
//	@Failure		400	{object}	errResponse
//	@Router			/format [post]
func (h *Handler) Format(w http.ResponseWriter, r *http.Request) {
	var rec map[string]any
	if err := json.NewDecoder(io.LimitReader(r.Body, maxFormatBody)).Decode(&rec); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON"))
		return
	}
	writeJSON(w, http.StatusOK, FormatResponse{Fields: h.svc.Format(rec)})
}

// View returns a handler that reports a parameterless view.
func (h *Handler) View(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, ViewResponse{View: name})
	}
}

// DefaultView handles GET /default: redirect to the landing notebook once
// known, otherwise ask the client to wait.
func (h *Handler) DefaultView(w http.ResponseWriter, r *http.Request) {
	if id, ok := h.svc.Landing(); ok {
		http.Redirect(w, r, "/notebook/"+url.PathEscape(id), http.StatusFound)
		return
	}
	writeJSON(w, http.StatusAccepted, ViewResponse{View: navigation.ViewDefault, Message: "Please wait.."})
}

// NotebookView handles GET /notebook/{noteId} and its paragraph variant.
func (h *Handler) NotebookView(w http.ResponseWriter, r *http.Request) {
	params := map[string]string{"noteId": pathParam(r, "noteId")}
	view := navigation.ViewNotebook
	if p := pathParam(r, "paragraphId"); p != "" {
		params["paragraphId"] = p
		view = navigation.ViewParagraph
	}
	writeJSON(w, http.StatusOK, ViewResponse{View: view, Params: params})
}

// SearchView handles GET /search/{searchTerm}.
func (h *Handler) SearchView(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, ViewResponse{
		View:   navigation.ViewSearch,
		Params: map[string]string{"searchTerm": pathParam(r, "searchTerm")},
	})
}

// Otherwise sends unknown paths to the default view.
func (h *Handler) Otherwise(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, navigation.Path(navigation.ViewDefault), http.StatusFound)
}

// pathParam returns a decoded chi URL parameter.
func pathParam(r *http.Request, name string) string {
	raw := chi.URLParam(r, name)
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

func (h *Handler) writeError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, apperr.ErrUnauthenticated):
		writeJSON(w, http.StatusUnauthorized, errorBody("unauthorized"))
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
	case errors.Is(err, apperr.ErrTransport), errors.Is(err, apperr.ErrMalformedResponse):
		slog.Warn(op+" failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadGateway, errorBody("notebook server unavailable"))
	default:
		slog.Error(op+" failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}
