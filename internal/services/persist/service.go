package persist

import (
	"context"

	perr "docbridge/internal/platform/errors"
	"docbridge/internal/platform/logger"
	"docbridge/internal/services/payload"
	pipedomain "docbridge/internal/services/pipeline/domain"
)

// Service is the persistence stage. It reads the delivered record from
// the cache and mirrors it into Postgres: company first, then lead, then
// the document row
type Service struct {
	log     logger.Logger
	cache   *payload.Cache
	storage Storage
}

// New constructs the persistence stage
func New(log logger.Logger, cache *payload.Cache, storage Storage) *Service {
	return &Service{log: log, cache: cache, storage: storage}
}

// ID satisfies pipeline/domain.Stage
func (s *Service) ID() pipedomain.StageID { return pipedomain.StagePersist }

// Run mirrors one record. A cache miss or an incomplete record aborts;
// so does a failed company or lead upsert, since the document row has
// nowhere to point. A failed document upsert is only logged: the sheet
// already has the row and a later webhook for the same note retries it
func (s *Service) Run(ctx context.Context, task pipedomain.Task) error {
	p, err := s.cache.Get(ctx, task.Note.LeadID, task.Note.NoteID)
	if err != nil {
		return err
	}
	if missing := p.MissingForPersistence(); missing != "" {
		return perr.WithPayload(
			perr.IncompletePayloadf("delivered record for lead %d note %d is missing %s",
				p.LeadID, p.NoteID, missing),
			p,
		)
	}

	companyRowID, ok := s.cache.GetID(ctx, payload.CompanyIDKey(p.CompanyID))
	if !ok {
		companyRowID, err = s.storage.UpsertCompany(ctx, p.CompanyID, p.CompanyName)
		if err != nil {
			return perr.WithPayload(err, p)
		}
		s.cache.PutID(ctx, payload.CompanyIDKey(p.CompanyID), companyRowID)
	}

	leadRowID, ok := s.cache.GetID(ctx, payload.LeadIDKey(p.LeadID))
	if !ok {
		leadRowID, err = s.storage.UpsertLead(ctx, p.LeadID, companyRowID)
		if err != nil {
			return perr.WithPayload(err, p)
		}
		s.cache.PutID(ctx, payload.LeadIDKey(p.LeadID), leadRowID)
	}

	docID, err := s.storage.UpsertDocument(ctx, DocumentWrite{
		AccountID:      p.AccountID,
		DocumentTypeID: int(p.DocumentTypeID),
		LeadRowID:      leadRowID,
		Purpose:        p.Purpose,
		DocumentNumber: p.DocumentNumber,
		DateAct:        *p.DateAct,
		PaymentAmount:  *p.PaymentAmount,
	})
	if err != nil {
		s.log.Error().
			Int64("lead_id", p.LeadID).
			Int64("note_id", p.NoteID).
			Err(err).
			Msg("document upsert failed, company and lead rows kept")
		return nil
	}

	s.log.Info().
		Int64("lead_id", p.LeadID).
		Int64("note_id", p.NoteID).
		Int64("document_id", docID).
		Msg("record mirrored to database")
	return nil
}
