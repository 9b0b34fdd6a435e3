// Package navigation decides whether a view transition may proceed given
// the cached authentication flag.
package navigation

import (
	"net/http"
	"strings"
)

// View names.
const (
	ViewLogin         = "login"
	ViewDefault       = "app.default"
	ViewNotebook      = "app.notebook"
	ViewParagraph     = "app.paragraph"
	ViewInterpreter   = "app.interpreter"
	ViewConfiguration = "app.configuration"
	ViewSearch        = "app.search"
)

// Decision is the outcome of a navigation attempt.
type Decision struct {
	Allow      bool
	RedirectTo string // view name, set when Allow is false
}

// Decide is a pure function of the authenticated flag and the target view.
func Decide(authenticated bool, target string) Decision {
	switch {
	case !authenticated && target != ViewLogin:
		return Decision{RedirectTo: ViewLogin}
	case authenticated && target == ViewLogin:
		return Decision{RedirectTo: ViewDefault}
	default:
		return Decision{Allow: true}
	}
}

// Path returns the URL path of a parameterless view.
func Path(view string) string {
	switch view {
	case ViewLogin:
		return "/login"
	case ViewInterpreter:
		return "/interpreter"
	case ViewConfiguration:
		return "/configuration"
	default:
		return "/default"
	}
}

// Resolve maps a request path to its view name. Unknown paths resolve to
// the default view.
func Resolve(path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	switch parts[0] {
	case "login":
		return ViewLogin
	case "interpreter":
		return ViewInterpreter
	case "configuration":
		return ViewConfiguration
	case "search":
		return ViewSearch
	case "notebook":
		if len(parts) >= 3 && parts[2] == "paragraph" {
			return ViewParagraph
		}
		return ViewNotebook
	default:
		return ViewDefault
	}
}

// Guard returns middleware that applies Decide to every request using the
// flag reported by authenticated. It never contacts the server.
func Guard(authenticated func() bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			d := Decide(authenticated(), Resolve(r.URL.Path))
			if !d.Allow {
				http.Redirect(w, r, Path(d.RedirectTo), http.StatusFound)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
