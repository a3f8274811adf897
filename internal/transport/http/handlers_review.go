package httptransport

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"irgate/internal/applicant"
	"irgate/internal/audit"
	"irgate/internal/dupguard"
	dErrors "irgate/pkg/domain-errors"
	"irgate/pkg/platform/httputil"
	"irgate/pkg/platform/sentinel"
	"irgate/pkg/requestcontext"
)

// Guard is the duplicate-registration check run before any record creation.
type Guard interface {
	Check(ctx context.Context, email, phone, fullName, selfID string) error
}

// AuditPublisher is the audit subset the review endpoints use.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event)
}

// ReviewHandler serves staff review decisions, the applicant listing, and
// registry imports.
type ReviewHandler struct {
	store  applicant.Store
	guard  Guard
	audit  AuditPublisher
	logger *slog.Logger
}

// NewReviewHandler constructs the handler.
func NewReviewHandler(store applicant.Store, guard Guard, pub AuditPublisher, logger *slog.Logger) *ReviewHandler {
	return &ReviewHandler{store: store, guard: guard, audit: pub, logger: logger}
}

// Register mounts the staff routes.
func (h *ReviewHandler) Register(r chi.Router) {
	r.Get("/applicants", h.handleList)
	r.Post("/applicants/import", h.handleImport)
	r.Post("/applicants/{id}/review", h.handleReview)
	r.Post("/applicants/{id}/request-info", h.handleRequestInfo)
}

type applicantResponse struct {
	ID            string `json:"id"`
	FullName      string `json:"fullName"`
	Email         string `json:"email"`
	Status        string `json:"status"`
	IsPreVerified bool   `json:"isPreVerified"`
	WorkflowStage string `json:"workflowStage,omitempty"`
	SystemStatus  string `json:"systemStatus"`
	AccountStatus string `json:"accountStatus"`
	EmailSent     int    `json:"emailSentCount"`
	EmailOpened   int    `json:"emailOpenedCount"`
	LinkClicked   int    `json:"linkClickedCount"`
}

func toResponse(rec applicant.Record) applicantResponse {
	labels := applicant.Resolve(rec)
	return applicantResponse{
		ID:            rec.ID,
		FullName:      rec.FullName,
		Email:         rec.Email,
		Status:        string(rec.Status),
		IsPreVerified: rec.IsPreVerified,
		WorkflowStage: string(rec.WorkflowStage),
		SystemStatus:  labels.System,
		AccountStatus: labels.Account,
		EmailSent:     rec.EmailSentCount,
		EmailOpened:   rec.EmailOpenedCount,
		LinkClicked:   rec.LinkClickedCount,
	}
}

func (h *ReviewHandler) handleList(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid limit"))
			return
		}
		limit = parsed
	}

	records, err := h.store.ListBySubmission(r.Context(), limit)
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "list applicants"))
		return
	}

	out := make([]applicantResponse, 0, len(records))
	for _, rec := range records {
		out = append(out, toResponse(rec))
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"applicants": out})
}

type reviewRequest struct {
	IsMatch bool `json:"isMatch"`
}

func (h *ReviewHandler) handleReview(w http.ResponseWriter, r *http.Request) {
	req, err := httputil.Decode[reviewRequest](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.applyDecision(w, r, func(rec applicant.Record) (applicant.Record, error) {
		return applicant.RecordManualReview(rec, req.IsMatch, requestcontext.Now(r.Context()))
	}, map[string]string{"is_match": strconv.FormatBool(req.IsMatch)})
}

func (h *ReviewHandler) handleRequestInfo(w http.ResponseWriter, r *http.Request) {
	h.applyDecision(w, r, func(rec applicant.Record) (applicant.Record, error) {
		return applicant.RecordRequestInfo(rec, requestcontext.Now(r.Context()))
	}, map[string]string{"decision": "request_info"})
}

func (h *ReviewHandler) applyDecision(w http.ResponseWriter, r *http.Request, decide func(applicant.Record) (applicant.Record, error), detail map[string]string) {
	id := chi.URLParam(r, "id")

	rec, err := h.store.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "applicant not found"))
			return
		}
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "applicant lookup"))
		return
	}

	decided, err := decide(rec)
	if err != nil {
		if errors.Is(err, sentinel.ErrInvalidState) {
			httputil.WriteError(w, dErrors.New(dErrors.CodeConflict, "pre-verified applicants are not manually reviewed"))
			return
		}
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "review decision"))
		return
	}

	updated, err := h.store.Update(r.Context(), id, applicant.Patch{Status: &decided.Status})
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "persist review decision"))
		return
	}

	if h.audit != nil {
		h.audit.Emit(r.Context(), audit.Event{
			Kind:        audit.KindReviewRecorded,
			ApplicantID: id,
			Detail:      detail,
		})
	}
	httputil.WriteJSON(w, http.StatusOK, toResponse(updated))
}

type importRequest struct {
	Rows []map[string]any `json:"rows"`
}

type importResponse struct {
	Created int      `json:"created"`
	Blocked int      `json:"blocked"`
	Invalid int      `json:"invalid"`
	Flagged []string `json:"flagged,omitempty"`
}

// handleImport loads raw registry rows. Each row is decoded with named
// defaults, screened by the duplicate guard, and only then created; rows
// carrying unrecognized keys are created but reported as flagged.
func (h *ReviewHandler) handleImport(w http.ResponseWriter, r *http.Request) {
	req, err := httputil.Decode[importRequest](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if len(req.Rows) == 0 {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "rows are required"))
		return
	}

	var resp importResponse
	for _, row := range req.Rows {
		decoded, err := applicant.DecodeRaw(row)
		if err != nil {
			resp.Invalid++
			continue
		}
		rec := decoded.Record

		if err := h.guard.Check(r.Context(), rec.Email, rec.PhoneNumber, rec.FullName, rec.ID); err != nil {
			var locked *dupguard.LockedAccountError
			if errors.As(err, &locked) {
				resp.Blocked++
				continue
			}
			httputil.WriteError(w, err)
			return
		}

		created, err := h.store.Create(r.Context(), rec)
		if err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				resp.Invalid++
				continue
			}
			httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "create applicant"))
			return
		}
		resp.Created++
		if len(decoded.UnknownKeys) > 0 {
			resp.Flagged = append(resp.Flagged, created.ID)
			h.logger.WarnContext(r.Context(), "registry row carried unknown keys",
				"applicant_id", created.ID, "keys", decoded.UnknownKeys)
		}
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}
