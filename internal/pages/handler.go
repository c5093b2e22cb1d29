// Package pages serves the public site: the home page, property browsing and
// the static marketing pages. Nothing here requires a signed-in principal.
package pages

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/harborlane/harborlane/internal/properties"
	"github.com/harborlane/harborlane/internal/shared"
	"github.com/harborlane/harborlane/internal/view"
)

// Handler serves the public site.
type Handler struct {
	logger     *slog.Logger
	properties *properties.Service
	templates  *view.Engine
	csrf       *shared.CSRFManager
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, props *properties.Service, templates *view.Engine, csrf *shared.CSRFManager) *Handler {
	return &Handler{logger: logger, properties: props, templates: templates, csrf: csrf}
}

// MountRoutes registers the public routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/home", h.home)
	r.Get("/properties", h.browse)
	r.Get("/properties/{id}", h.detail)
	r.Get("/enquiry", h.static("Enquiry", "pages/enquiry.html"))
	r.Get("/maintenance-request", h.static("Maintenance Request", "pages/maintenance_request.html"))
	r.Get("/about", h.static("About Us", "pages/about.html"))
	r.Get("/services", h.static("Services", "pages/services.html"))
	r.Get("/terms", h.static("Terms of Service", "pages/terms.html"))
	r.Get("/privacy", h.static("Privacy Policy", "pages/privacy.html"))
}

// home shows the latest listings above the fold.
func (h *Handler) home(w http.ResponseWriter, r *http.Request) {
	catalog, err := h.properties.Browse(r.Context(), properties.Query{Page: 1})
	if err != nil {
		h.logger.Error("load home listings", slog.Any("error", err))
		catalog = properties.Catalog{}
	}
	h.render(w, r, "Home", "pages/home.html", map[string]any{"Catalog": catalog}, http.StatusOK)
}

// browse is the searchable listing page. Unknown filter values are dropped
// rather than rejected.
func (h *Handler) browse(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	catalog, err := h.properties.Browse(r.Context(), properties.Query{
		Search:      r.URL.Query().Get("search"),
		City:        r.URL.Query().Get("city"),
		ListingType: r.URL.Query().Get("listing_type"),
		Type:        r.URL.Query().Get("property_type"),
		Budget:      r.URL.Query().Get("budget"),
		Sort:        r.URL.Query().Get("sort"),
		Page:        page,
	})
	if err != nil {
		h.logger.Error("browse listings", slog.Any("error", err))
		h.render(w, r, "Properties", "pages/browse.html", map[string]any{"Errors": shared.FieldErrors{"general": shared.UserSafeMessage(err)}}, http.StatusInternalServerError)
		return
	}
	h.render(w, r, "Properties", "pages/browse.html", map[string]any{"Catalog": catalog}, http.StatusOK)
}

func (h *Handler) detail(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	prop, err := h.properties.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		h.logger.Error("load listing", slog.Any("error", err), slog.Int64("id", id))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	h.render(w, r, prop.Title, "pages/property_detail.html", map[string]any{"Property": prop}, http.StatusOK)
}

func (h *Handler) static(title, template string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.render(w, r, title, template, nil, http.StatusOK)
	}
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, title, template string, data map[string]any, status int) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	viewData := view.TemplateData{Title: title, CSRFToken: csrfToken, Flash: flash, CurrentPath: r.URL.Path, Data: data}
	w.WriteHeader(status)
	if err := h.templates.Render(w, template, viewData); err != nil {
		h.logger.Error("render template", slog.Any("error", err), slog.String("template", template))
	}
}
