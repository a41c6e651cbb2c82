// Package enrich implements the first chain stage: pull CRM data for an
// eligible note and cache the hand-off record for the later stages
package enrich

import (
	"context"

	"docbridge/internal/platform/logger"
	amodomain "docbridge/internal/services/amocrm/domain"
	"docbridge/internal/services/payload"
	pipedomain "docbridge/internal/services/pipeline/domain"
)

// Service implements pipeline/domain.Stage
type Service struct {
	log    logger.Logger
	crm    amodomain.Fetcher
	fields amodomain.FieldIDs
	cache  *payload.Cache
}

// New constructs the enrichment stage
func New(log logger.Logger, crm amodomain.Fetcher, fields amodomain.FieldIDs, cache *payload.Cache) *Service {
	return &Service{log: log, crm: crm, fields: fields, cache: cache}
}

// ID satisfies pipeline/domain.Stage
func (s *Service) ID() pipedomain.StageID { return pipedomain.StageEnrich }

// Run fetches the lead and its company, fills the hand-off record and
// caches it. A failed lead fetch is absorbed: nothing gets cached, the
// later stages report the miss, and the chain stops there instead of
// failing the whole delivery. A failed company fetch only degrades the
// record; the validators downstream decide whether that is fatal
func (s *Service) Run(ctx context.Context, task pipedomain.Task) error {
	p := payload.Skeleton(task.Note)

	lead, err := s.crm.FetchLead(ctx, task.Subdomain, task.Note.LeadID)
	if err != nil {
		s.log.Warn().
			Int64("lead_id", task.Note.LeadID).
			Int64("note_id", task.Note.NoteID).
			Err(err).
			Msg("lead fetch failed, nothing cached for this note")
		return nil
	}

	amount := int64(0)
	if lead.Price != nil {
		amount = *lead.Price
	}
	p.PaymentAmount = &amount
	p.DateAct = lead.Fields.Ptr(s.fields.DateAct)
	p.PeriodAct = lead.Fields.Ptr(s.fields.PeriodAct)
	p.StaffAct = lead.Fields.Ptr(s.fields.StaffAct)
	p.Lead = map[string]any{
		"id":    lead.ID,
		"name":  lead.Name,
		"price": amount,
	}

	if lead.CompanyID != 0 {
		p.CompanyID = lead.CompanyID
		co, err := s.crm.FetchCompany(ctx, task.Subdomain, lead.CompanyID)
		if err != nil {
			s.log.Warn().
				Int64("lead_id", task.Note.LeadID).
				Int64("company_id", lead.CompanyID).
				Err(err).
				Msg("company fetch failed, record cached without company name")
		} else {
			p.CompanyName = co.Name
		}
	}

	return s.cache.Put(ctx, p)
}
