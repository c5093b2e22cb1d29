package rbac

import (
	"log/slog"
	"net/http"
	"net/url"

	"github.com/harborlane/harborlane/internal/shared"
	"github.com/harborlane/harborlane/internal/view"
)

// Middleware gates admin console routes on session plus permission grants.
type Middleware struct {
	Service   *Service
	Logger    *slog.Logger
	Templates *view.Engine
}

// Require ensures the principal holds the grant for (resource, action).
// Anonymous GETs are redirected to the sign-in flow carrying a next hop;
// anonymous mutations are rejected. A present session without the grant
// renders the access-denied page with HTTP 200, so the response does not
// leak whether the resource exists.
func (m Middleware) Require(resource, action string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := shared.SessionFromContext(r.Context())
			principalID, ok := shared.PrincipalID(sess)
			if !ok {
				if r.Method == http.MethodGet || r.Method == http.MethodHead {
					http.Redirect(w, r, "/auth/login?next="+url.QueryEscape(r.URL.RequestURI()), http.StatusSeeOther)
					return
				}
				http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
				return
			}
			allowed, err := m.Service.HasPermission(r.Context(), principalID, resource, action)
			if err != nil {
				if m.Logger != nil {
					m.Logger.Error("permission lookup", slog.String("resource", resource), slog.String("action", action), slog.Any("error", err))
				}
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}
			if !allowed {
				m.renderAccessDenied(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireSession only checks authentication, without a grant lookup.
func (m Middleware) RequireSession() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := shared.SessionFromContext(r.Context())
			if _, ok := shared.PrincipalID(sess); !ok {
				if r.Method == http.MethodGet || r.Method == http.MethodHead {
					http.Redirect(w, r, "/auth/login?next="+url.QueryEscape(r.URL.RequestURI()), http.StatusSeeOther)
					return
				}
				http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (m Middleware) renderAccessDenied(w http.ResponseWriter, r *http.Request) {
	data := view.TemplateData{Title: "Access Denied", CurrentPath: r.URL.Path}
	if err := m.Templates.Render(w, "pages/access_denied.html", data); err != nil {
		if m.Logger != nil {
			m.Logger.Error("render access denied", slog.Any("error", err))
		}
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}
