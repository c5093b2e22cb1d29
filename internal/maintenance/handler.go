package maintenance

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/harborlane/harborlane/internal/platform/httpx"
	"github.com/harborlane/harborlane/internal/rbac"
	"github.com/harborlane/harborlane/internal/shared"
	"github.com/harborlane/harborlane/internal/view"
)

const maxUploadBytes = 16 << 20

// Handler manages maintenance request endpoints.
type Handler struct {
	logger      *slog.Logger
	service     *Service
	attachments *AttachmentStore
	templates   *view.Engine
	csrf        *shared.CSRFManager
	sessions    *shared.SessionManager
	rbac        rbac.Middleware
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, attachments *AttachmentStore, templates *view.Engine, csrf *shared.CSRFManager, sessions *shared.SessionManager, rbacmw rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, attachments: attachments, templates: templates, csrf: csrf, sessions: sessions, rbac: rbacmw}
}

// MountRoutes registers the admin maintenance routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(shared.ResourceMaintenance, shared.ActionList))
		r.Get("/", h.listPage)
		r.Post("/", h.listData)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(shared.ResourceMaintenance, shared.ActionUpdate))
		r.Get("/{id}", h.showDetail)
		r.Post("/{id}/status", h.handleStatus)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(shared.ResourceMaintenance, shared.ActionDelete))
		r.Post("/{id}/delete", h.handleDelete)
	})
}

// MountAPI registers the public intake endpoint used by the site's
// maintenance form.
func (h *Handler) MountAPI(r chi.Router) {
	r.Post("/maintenance", httpx.Guard(h.logger, h.handleSubmitJSON))
}

func (h *Handler) listPage(w http.ResponseWriter, r *http.Request) {
	table, err := h.buildTable(r)
	if err != nil {
		h.logger.Error("build maintenance table", slog.Any("error", err))
		h.render(w, r, "pages/maintenance_list.html", map[string]any{"Errors": shared.FieldErrors{"general": shared.UserSafeMessage(err)}}, http.StatusInternalServerError)
		return
	}
	h.render(w, r, "pages/maintenance_list.html", map[string]any{
		"Table":  table,
		"Search": r.URL.Query().Get("search"),
		"Status": r.URL.Query().Get("status"),
	}, http.StatusOK)
}

// listData serves the table payload consumed by the list page's async refresh.
func (h *Handler) listData(w http.ResponseWriter, r *http.Request) {
	table, err := h.buildTable(r)
	if err != nil {
		h.logger.Error("build maintenance table", slog.Any("error", err))
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
		Status: r.URL.Query().Get("status"),
		Page:   page,
	})
}

func (h *Handler) showDetail(w http.ResponseWriter, r *http.Request) {
	req, ok := h.loadRequest(w, r)
	if !ok {
		return
	}
	h.render(w, r, "pages/maintenance_detail.html", map[string]any{
		"Request":  req,
		"Statuses": []string{StatusPending, StatusInProgress, StatusResolved},
		"Errors":   shared.FieldErrors{},
	}, http.StatusOK)
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	req, ok := h.loadRequest(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	principalID, _ := shared.PrincipalID(shared.SessionFromContext(r.Context()))

	if _, err := h.service.UpdateStatus(r.Context(), principalID, req.ID, shared.FormText(r, "status")); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, shared.ErrValidation) {
			status = http.StatusBadRequest
		} else {
			h.logger.Error("update maintenance status", slog.Any("error", err), slog.Int64("id", req.ID))
		}
		h.render(w, r, "pages/maintenance_detail.html", map[string]any{
			"Request":  req,
			"Statuses": []string{StatusPending, StatusInProgress, StatusResolved},
			"Errors":   shared.FieldErrors{"general": shared.UserSafeMessage(err)},
		}, status)
		return
	}
	h.redirectWithFlash(w, r, "/admin/maintenance/"+strconv.FormatInt(req.ID, 10), "success", "Status updated")
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Fail(w, "invalid request id")
		return
	}
	principalID, _ := shared.PrincipalID(shared.SessionFromContext(r.Context()))
	if err := h.service.Delete(r.Context(), principalID, id); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			httpx.Fail(w, shared.UserSafeMessage(err))
			return
		}
		h.logger.Error("delete maintenance request", slog.Any("error", err), slog.Int64("id", id))
		httpx.Error(w, shared.UserSafeMessage(err))
		return
	}
	httpx.Success(w, "Request deleted successfully")
}

// handleSubmitJSON is the public intake submission. Validation problems come
// back as a fail envelope; nothing is committed on any failure.
func (h *Handler) handleSubmitJSON(w http.ResponseWriter, r *http.Request) {
	in, errs, err := h.parseInput(r)
	if err != nil {
		httpx.Fail(w, "could not read submitted form")
		return
	}
	if errs.Any() {
		httpx.Fail(w, errs.First())
		return
	}

	if _, err := h.service.Submit(r.Context(), in); err != nil {
		if errors.Is(err, shared.ErrValidation) {
			httpx.Fail(w, shared.UserSafeMessage(err))
			return
		}
		h.logger.Error("submit maintenance request", slog.Any("error", err))
		httpx.Error(w, shared.UserSafeMessage(err))
		return
	}
	httpx.Success(w, "Your maintenance request has been received")
}

func (h *Handler) parseInput(r *http.Request) (Input, shared.FieldErrors, error) {
	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "multipart/form-data") {
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			return Input{}, nil, err
		}
	} else if err := r.ParseForm(); err != nil {
		return Input{}, nil, err
	}

	errs := shared.FieldErrors{}
	in := Input{
		Name:        shared.FormText(r, "name"),
		Email:       shared.FormText(r, "email"),
		Phone:       shared.FormText(r, "phone"),
		Address:     shared.FormText(r, "address"),
		Description: shared.FormText(r, "description"),
		Urgency:     shared.FormText(r, "urgency"),
	}

	if raw := shared.FormText(r, "preferred_date"); raw != "" {
		when, err := time.Parse("2006-01-02", raw)
		if err != nil {
			errs["preferred_date"] = "preferred_date must be a date like 2026-01-31"
		} else {
			in.PreferredDate = &when
		}
	}

	if r.MultipartForm != nil && h.attachments != nil {
		if files := r.MultipartForm.File["attachment"]; len(files) > 0 {
			path, err := h.attachments.Save(files[0])
			if err != nil {
				if errors.Is(err, shared.ErrValidation) {
					errs["attachment"] = shared.UserSafeMessage(err)
				} else {
					return Input{}, nil, err
				}
			}
			in.Attachment = path
		}
	}
	return in, errs, nil
}

func (h *Handler) loadRequest(w http.ResponseWriter, r *http.Request) (Request, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid request ID", http.StatusBadRequest)
		return Request{}, false
	}
	req, err := h.service.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			http.Error(w, "Request not found", http.StatusNotFound)
			return Request{}, false
		}
		h.logger.Error("get maintenance request", slog.Any("error", err), slog.Int64("id", id))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return Request{}, false
	}
	return req, true
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, template string, data map[string]any, status int) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	viewData := view.TemplateData{Title: "Maintenance", CSRFToken: csrfToken, Flash: flash, CurrentPath: r.URL.Path, Data: data}
	w.WriteHeader(status)
	if err := h.templates.Render(w, template, viewData); err != nil {
		h.logger.Error("render template", slog.Any("error", err), slog.String("template", template))
	}
}

func (h *Handler) redirectWithFlash(w http.ResponseWriter, r *http.Request, location, kind, message string) {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: kind, Message: message})
	}
	http.Redirect(w, r, location, http.StatusSeeOther)
}
