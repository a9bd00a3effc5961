// Package handler exposes the staff-facing case lifecycle API.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/HungFPTU/be-sep490-pacsfr-sub000/internal/casefile"
	"github.com/HungFPTU/be-sep490-pacsfr-sub000/internal/casefile/service"
	"github.com/HungFPTU/be-sep490-pacsfr-sub000/internal/casefile/store"
	id "github.com/HungFPTU/be-sep490-pacsfr-sub000/pkg/domain"
	dErrors "github.com/HungFPTU/be-sep490-pacsfr-sub000/pkg/domain-errors"
	"github.com/HungFPTU/be-sep490-pacsfr-sub000/pkg/platform/httputil"
	"github.com/HungFPTU/be-sep490-pacsfr-sub000/pkg/requestcontext"
)

// Service defines the case lifecycle operations the handler needs.
type Service interface {
	Open(ctx context.Context, params service.OpenParams) (*casefile.Case, error)
	Advance(ctx context.Context, caseID id.CaseID, note string) (*casefile.Case, error)
	Transition(ctx context.Context, caseID id.CaseID, to casefile.Status, reason, note string) (*casefile.Case, error)
	Update(ctx context.Context, caseID id.CaseID, patch casefile.FieldPatch) (*casefile.Case, error)
	Snapshot(ctx context.Context, caseID id.CaseID) (*casefile.Case, error)
	Search(ctx context.Context, filter store.Filter) ([]*casefile.Case, error)
}

// Handler wires the case endpoints to the lifecycle service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the staff case endpoints. The caller wraps the router in
// the staff auth middleware; the handler itself only reads the resulting
// context identity.
func (h *Handler) Register(r chi.Router) {
	r.Post("/cases", h.HandleOpen)
	r.Get("/cases", h.HandleSearch)
	r.Get("/cases/{caseID}", h.HandleGet)
	r.Post("/cases/{caseID}/advance", h.HandleAdvance)
	r.Post("/cases/{caseID}/status", h.HandleTransition)
	r.Patch("/cases/{caseID}", h.HandleUpdate)
}

// HandleOpen handles POST /cases.
func (h *Handler) HandleOpen(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[OpenCaseRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	c, err := h.service.Open(ctx, req.ToParams())
	if err != nil {
		h.logger.ErrorContext(ctx, "case open failed",
			"request_id", requestID,
			"service_id", req.ServiceID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, FromCase(c))
}

// HandleGet handles GET /cases/{caseID}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	caseID, ok := h.caseID(w, r)
	if !ok {
		return
	}
	c, err := h.service.Snapshot(r.Context(), caseID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromCase(c))
}

// HandleSearch handles GET /cases.
func (h *Handler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	cases, err := h.service.Search(r.Context(), filter)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromCases(cases))
}

// HandleAdvance handles POST /cases/{caseID}/advance.
func (h *Handler) HandleAdvance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	caseID, ok := h.caseID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[AdvanceRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	c, err := h.service.Advance(ctx, caseID, req.Note)
	if err != nil {
		h.logger.WarnContext(ctx, "step advance rejected",
			"request_id", requestID,
			"case_id", caseID.String(),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromCase(c))
}

// HandleTransition handles POST /cases/{caseID}/status.
func (h *Handler) HandleTransition(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	caseID, ok := h.caseID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[TransitionRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	c, err := h.service.Transition(ctx, caseID, req.parsedStatus, req.Reason, req.Note)
	if err != nil {
		h.logger.WarnContext(ctx, "status transition rejected",
			"request_id", requestID,
			"case_id", caseID.String(),
			"to_status", req.Status,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromCase(c))
}

// HandleUpdate handles PATCH /cases/{caseID}.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	caseID, ok := h.caseID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[UpdateCaseRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	c, err := h.service.Update(ctx, caseID, req.ToPatch())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromCase(c))
}

func (h *Handler) caseID(w http.ResponseWriter, r *http.Request) (id.CaseID, bool) {
	caseID, err := id.ParseCaseID(chi.URLParam(r, "caseID"))
	if err != nil {
		httputil.WriteError(w, err)
		return id.CaseID{}, false
	}
	return caseID, true
}

func parseFilter(r *http.Request) (store.Filter, error) {
	q := r.URL.Query()
	filter := store.Filter{
		CodeContains: strings.TrimSpace(q.Get("code")),
	}
	if raw := q.Get("status"); raw != "" {
		status, err := casefile.ParseStatus(raw)
		if err != nil {
			return store.Filter{}, err
		}
		filter.Status = &status
	}
	if raw := q.Get("guest_id"); raw != "" {
		guestID, err := id.ParseGuestID(raw)
		if err != nil {
			return store.Filter{}, err
		}
		filter.GuestID = &guestID
	}
	if raw := q.Get("min_priority"); raw != "" {
		minPriority, err := strconv.Atoi(raw)
		if err != nil {
			return store.Filter{}, dErrors.New(dErrors.CodeInvalidInput, "min_priority must be an integer")
		}
		filter.MinPriority = &minPriority
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return store.Filter{}, dErrors.New(dErrors.CodeInvalidInput, "limit must be a non-negative integer")
		}
		filter.Limit = limit
	}
	return filter, nil
}
