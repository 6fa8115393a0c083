package grades

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/hisham-mhammed-afifi/school-management-system-sub001/internal/masterdata/shared"
	"github.com/hisham-mhammed-afifi/school-management-system-sub001/internal/platform/httpx"
	internalshared "github.com/hisham-mhammed-afifi/school-management-system-sub001/internal/shared"
)

type Handler struct {
	logger  *slog.Logger
	service *Service
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers the grade routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/grades", func(r chi.Router) {
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Get("/{id}", h.get)
		r.Put("/{id}", h.update)
		r.Delete("/{id}", h.delete)
	})
}

type gradeRequest struct {
	Name  string `json:"name"`
	Level int    `json:"level"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	schoolID := internalshared.SchoolFromContext(r.Context())
	q := r.URL.Query()
	filters := shared.ListFilters{
		Page:    internalshared.QueryInt(q, "page", shared.DefaultPage),
		Limit:   internalshared.QueryInt(q, "per_page", shared.DefaultLimit),
		Search:  q.Get("search"),
		SortBy:  q.Get("sort"),
		SortDir: q.Get("dir"),
	}

	list, total, err := h.service.List(r.Context(), schoolID, filters)
	if err != nil {
		h.logger.Error("list grades failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if list == nil {
		list = []Grade{}
	}
	filters = filters.Normalized()
	httpx.JSON(w, http.StatusOK, map[string]any{
		"items":      list,
		"pagination": internalshared.NewPagination(filters.Page, filters.Limit, total),
	})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	schoolID := internalshared.SchoolFromContext(r.Context())
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid grade id")
		return
	}

	grade, err := h.service.Get(r.Context(), schoolID, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, grade)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	schoolID := internalshared.SchoolFromContext(r.Context())

	var req gradeRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	created, err := h.service.Create(r.Context(), Grade{
		SchoolID: schoolID,
		Name:     req.Name,
		Level:    req.Level,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	schoolID := internalshared.SchoolFromContext(r.Context())
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid grade id")
		return
	}

	var req gradeRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	updated, err := h.service.Update(r.Context(), schoolID, id, Grade{Name: req.Name, Level: req.Level})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, updated)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	schoolID := internalshared.SchoolFromContext(r.Context())
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid grade id")
		return
	}

	if err := h.service.Delete(r.Context(), schoolID, id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
