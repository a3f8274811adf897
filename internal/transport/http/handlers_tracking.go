package httptransport

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/mssola/useragent"

	"irgate/internal/invitation/token"
)

// pixelGIF is a 1x1 transparent GIF, served for every open-tracking hit.
var pixelGIF = []byte{
	0x47, 0x49, 0x46, 0x38, 0x39, 0x61, 0x01, 0x00, 0x01, 0x00, 0x80, 0x00,
	0x00, 0x00, 0x00, 0x00, 0xff, 0xff, 0xff, 0x21, 0xf9, 0x04, 0x01, 0x00,
	0x00, 0x00, 0x00, 0x2c, 0x00, 0x00, 0x00, 0x00, 0x01, 0x00, 0x01, 0x00,
	0x00, 0x02, 0x02, 0x44, 0x01, 0x00, 0x3b,
}

// Tracker is the delivery tracker subset the tracking endpoints use.
type Tracker interface {
	OnOpen(ctx context.Context, applicantID string, detail map[string]string) error
	OnClick(ctx context.Context, applicantID string, detail map[string]string) error
}

// TokenVerifier validates tracking tokens from query strings.
type TokenVerifier interface {
	Verify(tokenString string, want token.Kind) (string, error)
}

// TrackingHandler serves the open-pixel and click-redirect endpoints. Both
// endpoints succeed from the client's point of view no matter what happens
// internally: the pixel always renders and the redirect always fires.
type TrackingHandler struct {
	tracker Tracker
	tokens  TokenVerifier
	logger  *slog.Logger
}

// NewTrackingHandler constructs the handler.
func NewTrackingHandler(tracker Tracker, tokens TokenVerifier, logger *slog.Logger) *TrackingHandler {
	return &TrackingHandler{tracker: tracker, tokens: tokens, logger: logger}
}

// Register mounts the tracking routes.
func (h *TrackingHandler) Register(r chi.Router) {
	r.Get("/track-email-open", h.handleOpen)
	r.Get("/track-link-click", h.handleClick)
}

func (h *TrackingHandler) handleOpen(w http.ResponseWriter, r *http.Request) {
	if id, ok := h.authorize(r); ok {
		_ = h.tracker.OnOpen(r.Context(), id, clientDetail(r))
	}

	w.Header().Set("Content-Type", "image/gif")
	w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pixelGIF)
}

func (h *TrackingHandler) handleClick(w http.ResponseWriter, r *http.Request) {
	if id, ok := h.authorize(r); ok {
		_ = h.tracker.OnClick(r.Context(), id, clientDetail(r))
	}

	redirect := r.URL.Query().Get("redirect")
	if redirect == "" {
		redirect = "/"
	}
	http.Redirect(w, r, redirect, http.StatusFound)
}

// authorize checks the applicantId/token pair. A mismatch or bad token only
// suppresses recording; the response proceeds either way.
func (h *TrackingHandler) authorize(r *http.Request) (string, bool) {
	applicantID := r.URL.Query().Get("applicantId")
	raw := r.URL.Query().Get("token")
	if applicantID == "" || raw == "" {
		return "", false
	}

	id, err := h.tokens.Verify(raw, token.KindTracking)
	if err != nil || id != applicantID {
		h.logger.WarnContext(r.Context(), "tracking token rejected",
			"applicant_id", applicantID, "error", err)
		return "", false
	}
	return id, true
}

// clientDetail classifies the caller for the audit trail.
func clientDetail(r *http.Request) map[string]string {
	raw := r.UserAgent()
	if raw == "" {
		return nil
	}
	ua := useragent.New(raw)
	name, version := ua.Browser()
	return map[string]string{
		"browser": name,
		"version": version,
		"os":      ua.OS(),
		"mobile":  boolString(ua.Mobile()),
		"bot":     boolString(ua.Bot()),
	}
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
