package leads

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/harborlane/harborlane/internal/platform/httpx"
	"github.com/harborlane/harborlane/internal/rbac"
	"github.com/harborlane/harborlane/internal/shared"
	"github.com/harborlane/harborlane/internal/view"
)

// Handler manages lead endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	templates *view.Engine
	csrf      *shared.CSRFManager
	sessions  *shared.SessionManager
	rbac      rbac.Middleware
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, templates *view.Engine, csrf *shared.CSRFManager, sessions *shared.SessionManager, rbacmw rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, templates: templates, csrf: csrf, sessions: sessions, rbac: rbacmw}
}

// MountRoutes registers the admin lead routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(shared.ResourceLead, shared.ActionList))
		r.Get("/", h.listPage)
		r.Post("/", h.listData)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(shared.ResourceLead, shared.ActionUpdate))
		r.Get("/{id}", h.showDetail)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(shared.ResourceLead, shared.ActionDelete))
		r.Post("/{id}/delete", h.handleDelete)
	})
}

// MountAPI registers the public enquiry endpoint used by the site's contact
// forms.
func (h *Handler) MountAPI(r chi.Router) {
	r.Post("/enquiry", httpx.Guard(h.logger, h.handleEnquiryJSON))
}

func (h *Handler) listPage(w http.ResponseWriter, r *http.Request) {
	table, err := h.buildTable(r)
	if err != nil {
		h.logger.Error("build lead table", slog.Any("error", err))
		h.render(w, r, "pages/leads_list.html", map[string]any{"Errors": shared.FieldErrors{"general": shared.UserSafeMessage(err)}}, http.StatusInternalServerError)
		return
	}
	h.render(w, r, "pages/leads_list.html", map[string]any{"Table": table, "Search": r.URL.Query().Get("search")}, http.StatusOK)
}

// listData serves the table payload consumed by the list page's async refresh.
func (h *Handler) listData(w http.ResponseWriter, r *http.Request) {
	table, err := h.buildTable(r)
	if err != nil {
		h.logger.Error("build lead table", slog.Any("error", err))
		httpx.Error(w, shared.UserSafeMessage(err))
		return
	}
	httpx.JSON(w, http.StatusOK, table)
}

func (h *Handler) buildTable(r *http.Request) (shared.TableView, error) {
	principalID, _ := shared.PrincipalID(shared.SessionFromContext(r.Context()))
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	return h.service.BuildTable(r.Context(), principalID, Query{
		Search: r.URL.Query().Get("search"),
		Page:   page,
	})
}

func (h *Handler) showDetail(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid lead ID", http.StatusBadRequest)
		return
	}
	lead, err := h.service.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			http.Error(w, "Lead not found", http.StatusNotFound)
			return
		}
		h.logger.Error("get lead", slog.Any("error", err), slog.Int64("id", id))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	h.render(w, r, "pages/lead_detail.html", map[string]any{"Lead": lead}, http.StatusOK)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Fail(w, "invalid lead id")
		return
	}
	principalID, _ := shared.PrincipalID(shared.SessionFromContext(r.Context()))
	if err := h.service.Delete(r.Context(), principalID, id); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			httpx.Fail(w, shared.UserSafeMessage(err))
			return
		}
		h.logger.Error("delete lead", slog.Any("error", err), slog.Int64("id", id))
		httpx.Error(w, shared.UserSafeMessage(err))
		return
	}
	httpx.Success(w, "Lead deleted successfully")
}

// handleEnquiryJSON is the public enquiry submission. Validation problems
// come back as a fail envelope; nothing is committed on any failure.
func (h *Handler) handleEnquiryJSON(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		httpx.Fail(w, "could not read submitted form")
		return
	}
	errs := shared.FieldErrors{}
	in := Input{
		Name:         shared.FormText(r, "name"),
		Email:        shared.FormText(r, "email"),
		Phone:        shared.FormText(r, "phone"),
		Message:      shared.FormText(r, "message"),
		PropertyType: shared.FormText(r, "property_type"),
	}
	if propertyID := shared.FormInt64(r, "property_id", errs); propertyID > 0 {
		in.PropertyID = &propertyID
	}
	if errs.Any() {
		httpx.Fail(w, errs.First())
		return
	}

	if _, err := h.service.Capture(r.Context(), in); err != nil {
		if errors.Is(err, shared.ErrValidation) {
			httpx.Fail(w, shared.UserSafeMessage(err))
			return
		}
		h.logger.Error("capture lead", slog.Any("error", err))
		httpx.Error(w, shared.UserSafeMessage(err))
		return
	}
	httpx.Success(w, "Thanks, we will be in touch shortly")
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, template string, data map[string]any, status int) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	viewData := view.TemplateData{Title: "Leads", CSRFToken: csrfToken, Flash: flash, CurrentPath: r.URL.Path, Data: data}
	w.WriteHeader(status)
	if err := h.templates.Render(w, template, viewData); err != nil {
		h.logger.Error("render template", slog.Any("error", err), slog.String("template", template))
	}
}
