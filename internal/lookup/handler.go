package lookup

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/HungFPTU/be-sep490-pacsfr-sub000/internal/casefile"
	dErrors "github.com/HungFPTU/be-sep490-pacsfr-sub000/pkg/domain-errors"
	"github.com/HungFPTU/be-sep490-pacsfr-sub000/pkg/platform/httputil"
	"github.com/HungFPTU/be-sep490-pacsfr-sub000/pkg/requestcontext"
)

// Handler exposes the anonymous tracking endpoints. These sit outside the
// staff auth middleware; the OTP challenge is the only gate.
type Handler struct {
	service *Service
	logger  *slog.Logger
}

func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the lookup endpoints.
func (h *Handler) Register(r chi.Router) {
	r.Post("/lookup/{caseCode}/request", h.HandleRequest)
	r.Post("/lookup/{caseCode}/resend", h.HandleResend)
	r.Post("/lookup/{caseCode}/verify", h.HandleVerify)
	r.Get("/lookup/{caseCode}", h.HandleSnapshot)
}

// VerifyRequest is the HTTP request body for POST /lookup/{caseCode}/verify.
type VerifyRequest struct {
	Code string `json:"code"`
}

func (r *VerifyRequest) Validate() error {
	r.Code = strings.TrimSpace(r.Code)
	if r.Code == "" {
		return dErrors.New(dErrors.CodeValidation, "code is required")
	}
	return nil
}

// trackingResponse is the citizen-facing case view: status and progress
// only, no staff notes and no fee internals.
type trackingResponse struct {
	CaseCode                string         `json:"case_code"`
	Status                  string         `json:"status"`
	Terminal                bool           `json:"terminal"`
	Steps                   []trackingStep `json:"steps"`
	EstimatedCompletionDate *time.Time     `json:"estimated_completion_date,omitempty"`
	ActualCompletionDate    *time.Time     `json:"actual_completion_date,omitempty"`
	ResultDescription       string         `json:"result_description,omitempty"`
}

type trackingStep struct {
	StepNumber int    `json:"step_number"`
	StepName   string `json:"step_name"`
	IsCurrent  bool   `json:"is_current"`
	IsFinished bool   `json:"is_finished"`
}

func fromCase(c *casefile.Case) *trackingResponse {
	resp := &trackingResponse{
		CaseCode:                c.CaseCode,
		Status:                  string(c.CurrentStatus),
		Terminal:                c.CurrentStatus.IsTerminal(),
		Steps:                   make([]trackingStep, 0, len(c.Steps)),
		EstimatedCompletionDate: c.EstimatedCompletionDate,
		ActualCompletionDate:    c.ActualCompletionDate,
		ResultDescription:       c.ResultDescription,
	}
	for _, s := range c.Steps {
		resp.Steps = append(resp.Steps, trackingStep{
			StepNumber: s.StepNumber,
			StepName:   s.StepName,
			IsCurrent:  s.IsCurrent,
			IsFinished: s.IsFinished,
		})
	}
	return resp
}

// HandleRequest handles POST /lookup/{caseCode}/request.
func (h *Handler) HandleRequest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.service.Request(ctx, chi.URLParam(r, "caseCode")); err != nil {
		h.logger.ErrorContext(ctx, "lookup request failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusAccepted, map[string]string{"status": "sent"})
}

// HandleResend handles POST /lookup/{caseCode}/resend.
func (h *Handler) HandleResend(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.service.Resend(ctx, chi.URLParam(r, "caseCode")); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusAccepted, map[string]string{"status": "sent"})
}

// HandleVerify handles POST /lookup/{caseCode}/verify.
func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[VerifyRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	c, err := h.service.Verify(ctx, chi.URLParam(r, "caseCode"), req.Code)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, fromCase(c))
}

// HandleSnapshot handles GET /lookup/{caseCode}.
func (h *Handler) HandleSnapshot(w http.ResponseWriter, r *http.Request) {
	c, err := h.service.Snapshot(r.Context(), chi.URLParam(r, "caseCode"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, fromCase(c))
}
