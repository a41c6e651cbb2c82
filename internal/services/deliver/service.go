package deliver

import (
	"context"
	"net/http"
	"time"

	perr "docbridge/internal/platform/errors"
	"docbridge/internal/platform/logger"
	"docbridge/internal/services/payload"
	pipedomain "docbridge/internal/services/pipeline/domain"
)

// sleepFn is a seam so tests do not wait out real retry delays
var sleepFn = time.Sleep

// Config tunes the chained delivery stage
type Config struct {
	// Attempts is the total try budget per record, default 3
	Attempts int

	// RetryDelay is the fixed pause between tries, default 5s
	RetryDelay time.Duration

	// FailHard makes a spent retry budget abort the chain instead of
	// logging and letting persistence proceed
	FailHard bool
}

// Service is the chained delivery stage. It reads the cached hand-off
// record, derives the payment purpose, posts the record to the sheet and
// writes the record back so persistence sees the purpose
type Service struct {
	log   logger.Logger
	cache *payload.Cache
	sink  Sink
	cfg   Config
}

// New constructs the delivery stage and applies config defaults
func New(log logger.Logger, cache *payload.Cache, sink Sink, cfg Config) *Service {
	if cfg.Attempts <= 0 {
		cfg.Attempts = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 5 * time.Second
	}
	return &Service{log: log, cache: cache, sink: sink, cfg: cfg}
}

// ID satisfies pipeline/domain.Stage
func (s *Service) ID() pipedomain.StageID { return pipedomain.StageDeliver }

// Run delivers the cached record. An absent cache entry or an incomplete
// record aborts the chain before any HTTP leaves the process; the
// incomplete-record error carries the record so the chain log shows what
// was on hand. The record is re-cached after the send loop no matter how
// the loop ended
func (s *Service) Run(ctx context.Context, task pipedomain.Task) error {
	p, err := s.cache.Get(ctx, task.Note.LeadID, task.Note.NoteID)
	if err != nil {
		return err
	}

	p.Purpose = p.BuildPurpose()
	if missing := p.MissingForDelivery(); missing != "" {
		return perr.WithPayload(
			perr.IncompletePayloadf("cached record for lead %d note %d is missing %s",
				p.LeadID, p.NoteID, missing),
			p,
		)
	}

	rec := recordOf(p)
	status := 0
	attempts := 0
	var sendErr error
	for attempt := 1; attempt <= s.cfg.Attempts; attempt++ {
		if attempt > 1 {
			sleepFn(s.cfg.RetryDelay)
		}
		if ctx.Err() != nil {
			break
		}
		attempts++
		status, sendErr = s.sink.Send(ctx, rec)
		if sendErr == nil && status == http.StatusOK {
			break
		}
		s.log.Warn().
			Int64("lead_id", p.LeadID).
			Int64("note_id", p.NoteID).
			Int("attempt", attempt).
			Int("status", status).
			Err(sendErr).
			Msg("sheet delivery attempt failed")
	}

	if cerr := s.cache.Put(ctx, p); cerr != nil {
		s.log.Warn().Err(cerr).Msg("re-caching delivered record failed")
	}

	if sendErr == nil && status == http.StatusOK {
		s.log.Info().
			Int64("lead_id", p.LeadID).
			Int64("note_id", p.NoteID).
			Msg("record delivered to sheet")
		return nil
	}

	if s.cfg.FailHard {
		return perr.WithPayload(
			perr.Deliveryf("sheet delivery for lead %d note %d failed after %d attempts, last status %d",
				p.LeadID, p.NoteID, attempts, status),
			p,
		)
	}
	s.log.Error().
		Int64("lead_id", p.LeadID).
		Int64("note_id", p.NoteID).
		Int("status", status).
		Err(sendErr).
		Msg("sheet delivery failed, continuing the chain")
	return nil
}

func recordOf(p *payload.LeadNote) Record {
	rec := Record{
		Purpose:        p.Purpose,
		DocumentNumber: p.DocumentNumber,
		CompanyName:    p.CompanyName,
		DocumentTypeID: int(p.DocumentTypeID),
	}
	if p.DateAct != nil {
		rec.DateAct = *p.DateAct
	}
	if p.PaymentAmount != nil {
		rec.PaymentAmount = *p.PaymentAmount
	}
	return rec
}
