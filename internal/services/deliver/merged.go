package deliver

import (
	"context"
	"net/http"

	perr "docbridge/internal/platform/errors"
	"docbridge/internal/platform/logger"
	amodomain "docbridge/internal/services/amocrm/domain"
	"docbridge/internal/services/payload"
	pipedomain "docbridge/internal/services/pipeline/domain"
)

// Merged is the single-stage pipeline variant: fetch, validate and post
// in one step, no cache hand-off and no database write. It demands every
// field the full purpose template needs, so partially filled leads are
// skipped instead of delivered with a shorter purpose line
type Merged struct {
	log    logger.Logger
	crm    amodomain.Fetcher
	fields amodomain.FieldIDs
	sink   Sink
	cfg    Config
}

// NewMerged constructs the merged stage
func NewMerged(log logger.Logger, crm amodomain.Fetcher, fields amodomain.FieldIDs, sink Sink, cfg Config) *Merged {
	return &Merged{log: log, crm: crm, fields: fields, sink: sink, cfg: cfg}
}

// ID satisfies pipeline/domain.Stage
func (m *Merged) ID() pipedomain.StageID { return pipedomain.StageProcess }

// Run processes one note end to end. Fetch failures and incomplete leads
// are logged and absorbed; only the sink call can abort, and then only
// when FailHard is set
func (m *Merged) Run(ctx context.Context, task pipedomain.Task) error {
	lead, err := m.crm.FetchLead(ctx, task.Subdomain, task.Note.LeadID)
	if err != nil {
		m.log.Warn().
			Int64("lead_id", task.Note.LeadID).
			Int64("note_id", task.Note.NoteID).
			Err(err).
			Msg("lead fetch failed, note skipped")
		return nil
	}

	p := payload.Skeleton(task.Note)
	if lead.Price != nil {
		p.PaymentAmount = lead.Price
	}
	p.DateAct = lead.Fields.Ptr(m.fields.DateAct)
	p.PeriodAct = lead.Fields.Ptr(m.fields.PeriodAct)
	p.StaffAct = lead.Fields.Ptr(m.fields.StaffAct)

	if lead.CompanyID != 0 {
		co, err := m.crm.FetchCompany(ctx, task.Subdomain, lead.CompanyID)
		if err == nil {
			p.CompanyID = co.ID
			p.CompanyName = co.Name
		}
	}

	if missing := m.missing(p); missing != "" {
		m.log.Warn().
			Int64("lead_id", p.LeadID).
			Int64("note_id", p.NoteID).
			Str("missing", missing).
			Msg("lead lacks a required field, note skipped")
		return nil
	}

	p.Purpose = p.BuildPurpose()
	status, err := m.sink.Send(ctx, recordOf(p))
	if err == nil && status == http.StatusOK {
		m.log.Info().
			Int64("lead_id", p.LeadID).
			Int64("note_id", p.NoteID).
			Msg("record delivered to sheet")
		return nil
	}
	if m.cfg.FailHard {
		return perr.WithPayload(
			perr.Deliveryf("sheet delivery for lead %d note %d failed, status %d",
				p.LeadID, p.NoteID, status),
			p,
		)
	}
	m.log.Error().
		Int64("lead_id", p.LeadID).
		Int64("note_id", p.NoteID).
		Int("status", status).
		Err(err).
		Msg("sheet delivery failed, note dropped")
	return nil
}

// missing names the first absent field under the merged stage's stricter
// rules: the full template must be buildable
func (m *Merged) missing(p *payload.LeadNote) string {
	switch {
	case p.PaymentAmount == nil:
		return "document_payment_amount"
	case p.DateAct == nil:
		return "document_date_act"
	case p.PeriodAct == nil:
		return "document_date_period_act"
	case p.StaffAct == nil:
		return "document_staff_act"
	case p.CompanyName == "":
		return "lead_company_name"
	}
	return ""
}
