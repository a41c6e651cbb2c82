// Package service turns webhook bodies into pipeline chains
package service

import (
	"context"

	"docbridge/internal/core/notefilter"
	"docbridge/internal/platform/logger"
	pipedomain "docbridge/internal/services/pipeline/domain"
	"docbridge/internal/services/webhook/domain"
)

// amoDomainSuffix completes a bare account subdomain into a CRM host
const amoDomainSuffix = ".amocrm.ru"

// Service filters the delivered events and starts one chain per
// eligible note. It never fails the caller: a chain that cannot start
// is logged and the rest keep going
type Service struct {
	log        logger.Logger
	dispatcher pipedomain.DispatcherPort
}

// New constructs the webhook service
func New(log logger.Logger, dispatcher pipedomain.DispatcherPort) *Service {
	return &Service{log: log, dispatcher: dispatcher}
}

// Handle processes one webhook body and returns the ack to answer with
func (s *Service) Handle(ctx context.Context, body domain.Body) domain.Ack {
	if body.Account == nil || body.Account.Subdomain == "" {
		return domain.Ack{Message: domain.AckInvalidAccount}
	}
	if len(body.Leads) == 0 {
		return domain.Ack{Message: domain.AckInvalidLeads}
	}

	notes := notefilter.Filter(body.Leads)
	if len(notes) == 0 {
		return domain.Ack{Message: domain.AckHandled}
	}

	subdomain := body.Account.Subdomain + amoDomainSuffix
	for _, note := range notes {
		err := s.dispatcher.Dispatch(ctx, pipedomain.Task{
			Subdomain: subdomain,
			Note:      note,
		})
		if err != nil {
			s.log.Error().
				Int64("lead_id", note.LeadID).
				Int64("note_id", note.NoteID).
				Err(err).
				Msg("failed to start pipeline chain")
		}
	}
	return domain.Ack{Message: domain.AckHandled}
}
