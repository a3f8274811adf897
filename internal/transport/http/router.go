// Package httptransport is the thin HTTP layer. Handlers delegate to domain
// services without embedding business logic so transport concerns remain
// isolated.
package httptransport

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"irgate/pkg/platform/middleware/metadata"
	"irgate/pkg/platform/middleware/requesttime"
)

// NewRouter wires all public endpoints behind the shared middleware chain.
func NewRouter(invite *InviteHandler, tracking *TrackingHandler, review *ReviewHandler, health http.HandlerFunc) http.Handler {
	r := chi.NewRouter()
	r.Use(requesttime.Middleware)
	r.Use(metadata.Middleware)

	invite.Register(r)
	tracking.Register(r)
	review.Register(r)

	if health != nil {
		r.Get("/healthz", health)
	}
	r.Handle("/metrics", promhttp.Handler())
	return r
}
