package app

import (
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/harborlane/harborlane/internal/auth"
	"github.com/harborlane/harborlane/internal/leads"
	"github.com/harborlane/harborlane/internal/maintenance"
	"github.com/harborlane/harborlane/internal/pages"
	"github.com/harborlane/harborlane/internal/properties"
	"github.com/harborlane/harborlane/internal/rbac"
	"github.com/harborlane/harborlane/internal/roles"
	"github.com/harborlane/harborlane/internal/shared"
	"github.com/harborlane/harborlane/internal/view"
	"github.com/harborlane/harborlane/jobs"
	"github.com/harborlane/harborlane/web"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	Templates      *view.Engine
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager
	RBACMiddleware rbac.Middleware

	AuthHandler        *auth.Handler
	PagesHandler       *pages.Handler
	RolesHandler       *roles.Handler
	PropertiesHandler  *properties.Handler
	MaintenanceHandler *maintenance.Handler
	LeadsHandler       *leads.Handler
	JobsHandler        *jobs.Handler

	PropertiesService  *properties.Service
	MaintenanceService *maintenance.Service
	LeadsService       *leads.Service
}

// NewRouter constructs the chi.Router with Harborlane defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/admin/dashboard", http.StatusSeeOther)
	})

	r.Route("/auth", params.AuthHandler.MountRoutes)
	params.PagesHandler.MountRoutes(r)

	r.Route("/admin", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(params.RBACMiddleware.RequireSession())
			r.Get("/dashboard", params.dashboard)
		})
		r.Route("/roles", params.RolesHandler.MountRoutes)
		r.Route("/properties", params.PropertiesHandler.MountRoutes)
		r.Route("/maintenance", params.MaintenanceHandler.MountRoutes)
		r.Route("/leads", params.LeadsHandler.MountRoutes)
		if params.JobsHandler != nil {
			r.Group(func(r chi.Router) {
				r.Use(params.RBACMiddleware.RequireSession())
				r.Route("/jobs", params.JobsHandler.MountRoutes)
			})
		}
	})

	r.Route("/api", func(r chi.Router) {
		params.PropertiesHandler.MountAPI(r)
		params.MaintenanceHandler.MountAPI(r)
		params.LeadsHandler.MountAPI(r)
	})

	staticFS, err := fs.Sub(web.Static, "static")
	if err != nil {
		params.Logger.Error("create static sub filesystem", slog.Any("error", err))
	} else {
		fileServer := http.StripPrefix("/static/", http.FileServer(http.FS(staticFS)))
		r.Handle("/static/*", staticCacheHandler(fileServer))
	}

	if params.Config != nil && params.Config.MediaDir != "" {
		mediaServer := http.StripPrefix("/media/", http.FileServer(http.Dir(params.Config.MediaDir)))
		r.Handle("/media/*", staticCacheHandler(mediaServer))
	}

	return r
}

// dashboard summarizes the workload: active listings, open maintenance
// requests and captured leads.
func (p RouterParams) dashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var listings, pending, captured int
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		listings, err = p.PropertiesService.Total(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		pending, err = p.MaintenanceService.PendingCount(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		captured, err = p.LeadsService.Total(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		p.Logger.Error("load dashboard counts", slog.Any("error", err))
	}

	sess := shared.SessionFromContext(ctx)
	csrfToken, _ := p.CSRFManager.EnsureToken(ctx, sess)
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	data := view.TemplateData{
		Title:       "Dashboard",
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Data: map[string]any{
			"Listings":           listings,
			"PendingMaintenance": pending,
			"Leads":              captured,
		},
	}
	if err := p.Templates.Render(w, "pages/dashboard.html", data); err != nil {
		p.Logger.Error("render dashboard", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// staticCacheHandler wraps a file server with Cache-Control headers. Assets
// are cached for an hour in browsers and CDNs.
func staticCacheHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		next.ServeHTTP(w, r)
	})
}
