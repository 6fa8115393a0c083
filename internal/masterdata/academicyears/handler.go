package academicyears

import (
	"log/slog"
	"net/http"
	"time"

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

// MountRoutes registers the academic year routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/academic-years", func(r chi.Router) {
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Get("/{id}", h.get)
		r.Put("/{id}", h.update)
		r.Delete("/{id}", h.delete)
	})
}

type yearRequest struct {
	Name      string `json:"name"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

func (req yearRequest) toModel() (AcademicYear, error) {
	var y AcademicYear
	y.Name = req.Name
	if req.StartDate != "" {
		start, err := time.Parse("2006-01-02", req.StartDate)
		if err != nil {
			return y, err
		}
		y.StartDate = start
	}
	if req.EndDate != "" {
		end, err := time.Parse("2006-01-02", req.EndDate)
		if err != nil {
			return y, err
		}
		y.EndDate = end
	}
	return y, nil
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

	years, total, err := h.service.List(r.Context(), schoolID, filters)
	if err != nil {
		h.logger.Error("list academic years failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if years == nil {
		years = []AcademicYear{}
	}
	filters = filters.Normalized()
	httpx.JSON(w, http.StatusOK, map[string]any{
		"items":      years,
		"pagination": internalshared.NewPagination(filters.Page, filters.Limit, total),
	})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	schoolID := internalshared.SchoolFromContext(r.Context())
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid academic year id")
		return
	}

	year, err := h.service.Get(r.Context(), schoolID, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, year)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	schoolID := internalshared.SchoolFromContext(r.Context())

	var req yearRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	year, err := req.toModel()
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "dates must use the 2006-01-02 format")
		return
	}
	year.SchoolID = schoolID

	created, err := h.service.Create(r.Context(), year)
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
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid academic year id")
		return
	}

	var req yearRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	year, err := req.toModel()
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "dates must use the 2006-01-02 format")
		return
	}

	updated, err := h.service.Update(r.Context(), schoolID, id, year)
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
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid academic year id")
		return
	}

	if err := h.service.Delete(r.Context(), schoolID, id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
