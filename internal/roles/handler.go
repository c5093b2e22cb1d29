package roles

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

// Handler manages role administration endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	grants    *rbac.Service
	templates *view.Engine
	csrf      *shared.CSRFManager
	sessions  *shared.SessionManager
	rbac      rbac.Middleware
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, grants *rbac.Service, templates *view.Engine, csrf *shared.CSRFManager, sessions *shared.SessionManager, rbacmw rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, grants: grants, templates: templates, csrf: csrf, sessions: sessions, rbac: rbacmw}
}

// MountRoutes registers role routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(shared.ResourceRole, shared.ActionList))
		r.Get("/", h.listPage)
		r.Post("/", h.listData)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(shared.ResourceRole, shared.ActionCreate))
		r.Get("/create", h.showCreateForm)
		r.Post("/create", h.handleCreate)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(shared.ResourceRole, shared.ActionUpdate))
		r.Get("/{id}/edit", h.showEditForm)
		r.Post("/{id}/edit", h.handleUpdate)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(shared.ResourceRole, shared.ActionDelete))
		r.Post("/{id}/delete", h.handleDelete)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(shared.ResourceRole, shared.ActionUpdatePermission))
		r.Get("/{id}/permissions", h.showPermissions)
		r.Post("/{id}/permissions", h.handlePermissions)
	})
}

type roleForm struct {
	Name        string
	Description string
}

func (h *Handler) listPage(w http.ResponseWriter, r *http.Request) {
	table, err := h.buildTable(r)
	if err != nil {
		h.logger.Error("build role table", slog.Any("error", err))
		h.render(w, r, "pages/roles_list.html", map[string]any{"Errors": shared.FieldErrors{"general": shared.UserSafeMessage(err)}}, http.StatusInternalServerError)
		return
	}
	h.render(w, r, "pages/roles_list.html", map[string]any{"Table": table, "Search": r.URL.Query().Get("search")}, http.StatusOK)
}

// listData serves the table payload consumed by the list page's async refresh.
func (h *Handler) listData(w http.ResponseWriter, r *http.Request) {
	table, err := h.buildTable(r)
	if err != nil {
		h.logger.Error("build role table", slog.Any("error", err))
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

func (h *Handler) showCreateForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "pages/role_form.html", map[string]any{"Form": roleForm{}, "Errors": shared.FieldErrors{}}, http.StatusOK)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	principalID, _ := shared.PrincipalID(shared.SessionFromContext(r.Context()))
	form := roleForm{Name: shared.FormText(r, "name"), Description: shared.FormText(r, "description")}

	if _, err := h.service.Create(r.Context(), principalID, form.Name, form.Description); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, shared.ErrValidation) {
			status = http.StatusBadRequest
		} else {
			h.logger.Error("create role", slog.Any("error", err))
		}
		h.render(w, r, "pages/role_form.html", map[string]any{"Form": form, "Errors": shared.FieldErrors{"general": shared.UserSafeMessage(err)}}, status)
		return
	}
	h.redirectWithFlash(w, r, "/admin/roles", "success", "Role created successfully")
}

func (h *Handler) showEditForm(w http.ResponseWriter, r *http.Request) {
	role, ok := h.loadRole(w, r)
	if !ok {
		return
	}
	form := roleForm{Name: role.Name, Description: role.Description}
	h.render(w, r, "pages/role_form.html", map[string]any{"Form": form, "Errors": shared.FieldErrors{}, "Role": role}, http.StatusOK)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	role, ok := h.loadRole(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	principalID, _ := shared.PrincipalID(shared.SessionFromContext(r.Context()))
	form := roleForm{Name: shared.FormText(r, "name"), Description: shared.FormText(r, "description")}

	if _, err := h.service.Update(r.Context(), principalID, role.ID, form.Name, form.Description); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, shared.ErrValidation) {
			status = http.StatusBadRequest
		} else {
			h.logger.Error("update role", slog.Any("error", err), slog.Int64("id", role.ID))
		}
		h.render(w, r, "pages/role_form.html", map[string]any{"Form": form, "Errors": shared.FieldErrors{"general": shared.UserSafeMessage(err)}, "Role": role}, status)
		return
	}
	h.redirectWithFlash(w, r, "/admin/roles", "success", "Role updated successfully")
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Fail(w, "invalid role id")
		return
	}
	principalID, _ := shared.PrincipalID(shared.SessionFromContext(r.Context()))
	if err := h.service.Delete(r.Context(), principalID, id); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			httpx.Fail(w, shared.UserSafeMessage(err))
			return
		}
		h.logger.Error("delete role", slog.Any("error", err), slog.Int64("id", id))
		httpx.Error(w, shared.UserSafeMessage(err))
		return
	}
	httpx.Success(w, "Role deleted successfully")
}

func (h *Handler) showPermissions(w http.ResponseWriter, r *http.Request) {
	role, ok := h.loadRole(w, r)
	if !ok {
		return
	}
	granted, err := h.grants.RoleGrants(r.Context(), role.ID)
	if err != nil {
		h.logger.Error("load role grants", slog.Any("error", err), slog.Int64("id", role.ID))
		h.render(w, r, "pages/role_permissions.html", map[string]any{"Role": role, "Errors": shared.FieldErrors{"general": shared.UserSafeMessage(err)}}, http.StatusInternalServerError)
		return
	}
	h.render(w, r, "pages/role_permissions.html", map[string]any{
		"Role":   role,
		"Matrix": permissionMatrix(granted),
		"Errors": shared.FieldErrors{},
	}, http.StatusOK)
}

// handlePermissions replaces the role's full grant set from the submitted
// matrix. Two racing submissions resolve to whichever commits last; grants
// are never merged across submissions.
func (h *Handler) handlePermissions(w http.ResponseWriter, r *http.Request) {
	role, ok := h.loadRole(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	var grants []rbac.Grant
	for _, resource := range shared.Resources() {
		for _, action := range shared.Actions(resource) {
			grants = append(grants, rbac.Grant{
				Resource: resource,
				Action:   action,
				Allowed:  r.PostFormValue("grant:"+resource+":"+action) != "",
			})
		}
	}
	if err := h.grants.ReplaceRoleGrants(r.Context(), role.ID, grants); err != nil {
		h.logger.Error("replace role grants", slog.Any("error", err), slog.Int64("id", role.ID))
		h.render(w, r, "pages/role_permissions.html", map[string]any{"Role": role, "Errors": shared.FieldErrors{"general": shared.UserSafeMessage(err)}}, http.StatusInternalServerError)
		return
	}
	h.redirectWithFlash(w, r, "/admin/roles/"+strconv.FormatInt(role.ID, 10)+"/permissions", "success", "Permissions updated")
}

// PermissionRow feeds one resource row of the permission matrix template.
type PermissionRow struct {
	Resource string
	Actions  []PermissionCell
}

// PermissionCell is a single checkbox in the matrix.
type PermissionCell struct {
	Action  string
	Field   string
	Allowed bool
}

func permissionMatrix(granted map[rbac.GrantKey]bool) []PermissionRow {
	rows := make([]PermissionRow, 0, len(shared.Resources()))
	for _, resource := range shared.Resources() {
		row := PermissionRow{Resource: resource}
		for _, action := range shared.Actions(resource) {
			row.Actions = append(row.Actions, PermissionCell{
				Action:  action,
				Field:   "grant:" + resource + ":" + action,
				Allowed: granted[rbac.GrantKey{Resource: resource, Action: action}],
			})
		}
		rows = append(rows, row)
	}
	return rows
}

func (h *Handler) loadRole(w http.ResponseWriter, r *http.Request) (Role, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid role ID", http.StatusBadRequest)
		return Role{}, false
	}
	role, err := h.service.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			http.Error(w, "Role not found", http.StatusNotFound)
			return Role{}, false
		}
		h.logger.Error("get role", slog.Any("error", err), slog.Int64("id", id))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return Role{}, false
	}
	return role, true
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, template string, data map[string]any, status int) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	viewData := view.TemplateData{Title: "Roles", CSRFToken: csrfToken, Flash: flash, CurrentPath: r.URL.Path, Data: data}
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
