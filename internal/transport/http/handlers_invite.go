package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/asaskevich/govalidator"
	"github.com/go-chi/chi/v5"

	"irgate/internal/delivery"
	"irgate/internal/invitation/generation"
	dErrors "irgate/pkg/domain-errors"
	"irgate/pkg/platform/httputil"
)

// Sender is the delivery pipeline subset the invite handler uses.
type Sender interface {
	Send(ctx context.Context, req delivery.SendRequest) (delivery.SendResult, error)
}

// InviteHandler serves invitation preview and dispatch.
type InviteHandler struct {
	sender Sender
	logger *slog.Logger
}

// NewInviteHandler constructs the handler.
func NewInviteHandler(sender Sender, logger *slog.Logger) *InviteHandler {
	return &InviteHandler{sender: sender, logger: logger}
}

// Register mounts the invitation routes.
func (h *InviteHandler) Register(r chi.Router) {
	r.Post("/invitations/send", h.handleSend)
}

type sendRequest struct {
	ToEmail        string `json:"toEmail"`
	FirstName      string `json:"firstName"`
	LastName       string `json:"lastName"`
	RegistrationID string `json:"registrationId"`
	MessageStyle   string `json:"messageStyle"`
	Preview        bool   `json:"preview"`
	CustomSubject  string `json:"customSubject,omitempty"`
	CustomBody     string `json:"customBody,omitempty"`
}

type sendResponse struct {
	OK               bool   `json:"ok"`
	Subject          string `json:"subject,omitempty"`
	Body             string `json:"body,omitempty"`
	RegistrationLink string `json:"registrationLink"`
	ExpiresAt        string `json:"expiresAt"`
	RateLimitWarning string `json:"rateLimitWarning,omitempty"`
	Warning          string `json:"warning,omitempty"`
}

func (h *InviteHandler) handleSend(w http.ResponseWriter, r *http.Request) {
	req, err := httputil.Decode[sendRequest](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := validateSendRequest(req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.sender.Send(r.Context(), delivery.SendRequest{
		ToEmail:        req.ToEmail,
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		RegistrationID: req.RegistrationID,
		MessageStyle:   req.MessageStyle,
		CustomSubject:  req.CustomSubject,
		CustomBody:     req.CustomBody,
		Preview:        req.Preview,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	resp := sendResponse{
		OK:               true,
		RegistrationLink: result.RegistrationLink,
		ExpiresAt:        result.ExpiresAt.Format(time.RFC3339),
		RateLimitWarning: rateLimitWarning(result.RateLimitState),
		Warning:          result.PersistenceWarning,
	}
	if req.Preview {
		resp.Subject = result.Subject
		resp.Body = result.Body
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func validateSendRequest(req sendRequest) error {
	if !govalidator.StringLength(req.ToEmail, "1", "255") || !govalidator.IsEmail(req.ToEmail) {
		return dErrors.New(dErrors.CodeInvalidInput, "invalid toEmail")
	}
	if !govalidator.StringLength(req.FirstName, "0", "100") {
		return dErrors.New(dErrors.CodeInvalidInput, "firstName too long")
	}
	if !govalidator.StringLength(req.LastName, "0", "100") {
		return dErrors.New(dErrors.CodeInvalidInput, "lastName too long")
	}
	return nil
}

// rateLimitWarning renders degraded generation states as actionable text
// rather than raw provider errors.
func rateLimitWarning(state generation.RateLimitState) string {
	switch state {
	case generation.RateLimitPrimaryDegraded:
		return "primary generation provider is rate-limited; the fallback model styled this invitation"
	case generation.RateLimitBothUnavailable:
		return "both generation providers are temporarily rate-limited; using the default template"
	default:
		return ""
	}
}
