// Package http provides the webhook endpoints
package http

import (
	"net/http"

	"docbridge/internal/modkit/httpkit"
	"docbridge/internal/platform/logger"
	"docbridge/internal/platform/net/http/bind"
	"docbridge/internal/services/webhook/domain"
	"docbridge/internal/services/webhook/service"
)

// Deps are the handler dependencies
type Deps struct {
	Service *service.Service
}

type handlers struct {
	deps Deps
}

// Register mounts the webhook routes
func Register(r httpkit.Router, d Deps) {
	h := &handlers{deps: d}

	httpkit.Post(r, "/v1/pipeline-of-events-and-notes-for-leads", h.pipelineOfEventsAndNotesForLeads)
	httpkit.Get(r, "/healthz", h.healthz)
}

// pipelineOfEventsAndNotesForLeads accepts a CRM webhook delivery.
// The CRM disables webhooks that answer non-200, so every outcome is a
// 200 ack; an unreadable body gets the invalid-account message the same
// way a missing account block does
func (h *handlers) pipelineOfEventsAndNotesForLeads(r *http.Request) (any, error) {
	body, err := bind.ParseJSON[domain.Body](r, bind.JSONOptions{
		MaxBytes:        1 << 20,
		DisallowUnknown: false,
	})
	if err != nil {
		logger.C(r.Context()).Warn().Err(err).Msg("unparseable webhook body")
		return domain.Ack{Message: domain.AckInvalidAccount}, nil
	}
	return h.deps.Service.Handle(r.Context(), body), nil
}

// HealthResponse is the health payload
type HealthResponse struct {
	OK      bool   `json:"ok"`
	Service string `json:"service"`
}

func (h *handlers) healthz(_ *http.Request) (any, error) {
	return HealthResponse{OK: true, Service: "docbridge-webhook"}, nil
}
