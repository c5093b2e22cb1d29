package properties

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/harborlane/harborlane/internal/platform/httpx"
	"github.com/harborlane/harborlane/internal/rbac"
	"github.com/harborlane/harborlane/internal/shared"
	"github.com/harborlane/harborlane/internal/view"
)

const maxUploadBytes = 32 << 20

// Handler manages property administration endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	images    *ImageStore
	templates *view.Engine
	csrf      *shared.CSRFManager
	sessions  *shared.SessionManager
	rbac      rbac.Middleware
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, images *ImageStore, templates *view.Engine, csrf *shared.CSRFManager, sessions *shared.SessionManager, rbacmw rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, images: images, templates: templates, csrf: csrf, sessions: sessions, rbac: rbacmw}
}

// MountRoutes registers the admin property routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(shared.ResourceProperty, shared.ActionList))
		r.Get("/", h.listPage)
		r.Post("/", h.listData)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(shared.ResourceProperty, shared.ActionCreate))
		r.Get("/create", h.showCreateForm)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(shared.ResourceProperty, shared.ActionUpdate))
		r.Get("/{id}/edit", h.showEditForm)
		r.Post("/{id}/edit", h.handleUpdate)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(shared.ResourceProperty, shared.ActionDelete))
		r.Post("/{id}/delete", h.handleDelete)
	})
}

// MountAPI registers the AJAX endpoint backing the create form's async
// submission.
func (h *Handler) MountAPI(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(shared.ResourceProperty, shared.ActionCreate))
		r.Post("/properties", httpx.Guard(h.logger, h.handleCreateJSON))
	})
}

func (h *Handler) listPage(w http.ResponseWriter, r *http.Request) {
	table, err := h.buildTable(r)
	if err != nil {
		h.logger.Error("build property table", slog.Any("error", err))
		h.render(w, r, "pages/properties_list.html", map[string]any{"Errors": shared.FieldErrors{"general": shared.UserSafeMessage(err)}}, http.StatusInternalServerError)
		return
	}
	h.render(w, r, "pages/properties_list.html", map[string]any{"Table": table, "Search": r.URL.Query().Get("search")}, http.StatusOK)
}

// listData serves the table payload consumed by the list page's async refresh.
func (h *Handler) listData(w http.ResponseWriter, r *http.Request) {
	table, err := h.buildTable(r)
	if err != nil {
		h.logger.Error("build property table", slog.Any("error", err))
		httpx.Error(w, shared.UserSafeMessage(err))
		return
	}
	httpx.JSON(w, http.StatusOK, table)
}

func (h *Handler) buildTable(r *http.Request) (shared.TableView, error) {
	principalID, _ := shared.PrincipalID(shared.SessionFromContext(r.Context()))
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	return h.service.BuildTable(r.Context(), principalID, Query{
		Search:      r.URL.Query().Get("search"),
		City:        r.URL.Query().Get("city"),
		ListingType: r.URL.Query().Get("listing_type"),
		Type:        r.URL.Query().Get("property_type"),
		Budget:      r.URL.Query().Get("budget"),
		Sort:        r.URL.Query().Get("sort"),
		Page:        page,
	})
}

func (h *Handler) showCreateForm(w http.ResponseWriter, r *http.Request) {
	types, err := h.service.TypeNames(r.Context())
	if err != nil {
		h.logger.Error("load property types", slog.Any("error", err))
	}
	h.render(w, r, "pages/property_form.html", map[string]any{"Form": Input{}, "Types": types, "Errors": shared.FieldErrors{}}, http.StatusOK)
}

// handleCreateJSON is the async create submission. Validation problems come
// back as a fail envelope; nothing is committed on any failure.
func (h *Handler) handleCreateJSON(w http.ResponseWriter, r *http.Request) {
	in, errs, err := h.parseInput(r)
	if err != nil {
		httpx.Fail(w, "could not read submitted form")
		return
	}
	if errs.Any() {
		httpx.Fail(w, errs.First())
		return
	}

	if _, err := h.service.Create(r.Context(), in); err != nil {
		if errors.Is(err, shared.ErrValidation) {
			httpx.Fail(w, shared.UserSafeMessage(err))
			return
		}
		h.logger.Error("create property", slog.Any("error", err))
		httpx.Error(w, shared.UserSafeMessage(err))
		return
	}
	httpx.Success(w, "Property created successfully")
}

func (h *Handler) showEditForm(w http.ResponseWriter, r *http.Request) {
	prop, ok := h.loadProperty(w, r)
	if !ok {
		return
	}
	types, err := h.service.TypeNames(r.Context())
	if err != nil {
		h.logger.Error("load property types", slog.Any("error", err))
	}
	h.render(w, r, "pages/property_form.html", map[string]any{
		"Form": inputFrom(prop), "Property": prop, "Types": types, "Errors": shared.FieldErrors{},
	}, http.StatusOK)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	prop, ok := h.loadProperty(w, r)
	if !ok {
		return
	}
	in, errs, err := h.parseInput(r)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	if errs.Any() {
		h.render(w, r, "pages/property_form.html", map[string]any{"Form": in, "Property": prop, "Errors": errs}, http.StatusBadRequest)
		return
	}

	if _, err := h.service.Update(r.Context(), prop.ID, in); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, shared.ErrValidation) {
			status = http.StatusBadRequest
		} else {
			h.logger.Error("update property", slog.Any("error", err), slog.Int64("id", prop.ID))
		}
		h.render(w, r, "pages/property_form.html", map[string]any{"Form": in, "Property": prop, "Errors": shared.FieldErrors{"general": shared.UserSafeMessage(err)}}, status)
		return
	}
	h.redirectWithFlash(w, r, "/admin/properties", "success", "Property updated successfully")
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Fail(w, "invalid property id")
		return
	}
	principalID, _ := shared.PrincipalID(shared.SessionFromContext(r.Context()))
	if err := h.service.Delete(r.Context(), principalID, id); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			httpx.Fail(w, shared.UserSafeMessage(err))
			return
		}
		h.logger.Error("delete property", slog.Any("error", err), slog.Int64("id", id))
		httpx.Error(w, shared.UserSafeMessage(err))
		return
	}
	httpx.Success(w, "Property deleted successfully")
}

// parseInput coerces the posted form, multipart or urlencoded, into an Input.
// Uploaded images are stored before the database write; the stored paths ride
// along in the input.
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
	principalID, _ := shared.PrincipalID(shared.SessionFromContext(r.Context()))
	in := Input{
		Title:       shared.FormText(r, "title"),
		Address:     shared.FormText(r, "address"),
		City:        shared.FormText(r, "city"),
		State:       shared.FormText(r, "state"),
		Zipcode:     shared.FormText(r, "zipcode"),
		Description: shared.FormText(r, "description"),
		Price:       shared.FormFloat(r, "price", errs),
		Bedrooms:    shared.FormInt(r, "bedrooms", errs),
		Bathrooms:   shared.FormInt(r, "bathrooms", errs),
		Sqft:        shared.FormInt(r, "sqft", errs),
		Garage:      shared.FormInt(r, "garage", errs),
		ListingType: shared.FormText(r, "listing_type"),
		TypeName:    shared.FormText(r, "property_type"),
		ActorID:     principalID,
	}

	if r.MultipartForm != nil && h.images != nil {
		paths, err := h.images.SaveAll(r.MultipartForm.File["images"])
		if err != nil {
			if errors.Is(err, shared.ErrValidation) {
				errs["images"] = shared.UserSafeMessage(err)
			} else {
				return Input{}, nil, err
			}
		}
		in.ImagePaths = paths
	}
	return in, errs, nil
}

func inputFrom(p Property) Input {
	return Input{
		Title: p.Title, Address: p.Address, City: p.City, State: p.State, Zipcode: p.Zipcode,
		Description: p.Description, Price: p.Price, Bedrooms: p.Bedrooms, Bathrooms: p.Bathrooms,
		Sqft: p.Sqft, Garage: p.Garage, ListingType: p.ListingType, TypeName: p.TypeName,
	}
}

func (h *Handler) loadProperty(w http.ResponseWriter, r *http.Request) (Property, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid property ID", http.StatusBadRequest)
		return Property{}, false
	}
	prop, err := h.service.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			http.Error(w, "Property not found", http.StatusNotFound)
			return Property{}, false
		}
		h.logger.Error("get property", slog.Any("error", err), slog.Int64("id", id))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return Property{}, false
	}
	return prop, true
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, template string, data map[string]any, status int) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	viewData := view.TemplateData{Title: "Properties", CSRFToken: csrfToken, Flash: flash, CurrentPath: r.URL.Path, Data: data}
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
