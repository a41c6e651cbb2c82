package persist

import (
	"context"

	perr "docbridge/internal/platform/errors"
	"docbridge/internal/platform/store"

	"docbridge/internal/modkit/repokit"
)

type (
	pg     struct{ q repokit.Queryer }
	binder struct{}
)

// NewPG constructs a new repo binder for Postgres
func NewPG() repokit.Binder[Storage] { return binder{} }

// Bind implements repokit.Binder
func (binder) Bind(q repokit.Queryer) Storage { return &pg{q: q} }

// UpsertCompany implements Storage
func (s *pg) UpsertCompany(ctx context.Context, companyID int64, name string) (int64, error) {
	id, err := store.Scalar[int64](ctx, s.q, `
		INSERT INTO amo_crm_companies (amo_crm_company_id, amo_crm_company_name)
		VALUES ($1, $2)
		ON CONFLICT (amo_crm_company_id)
		DO UPDATE SET amo_crm_company_name = EXCLUDED.amo_crm_company_name,
			updated_at = now()
		RETURNING id`,
		companyID, name,
	)
	if err != nil {
		return 0, perr.FromPostgres(err, "upsert company")
	}
	return id, nil
}

// UpsertLead implements Storage
func (s *pg) UpsertLead(ctx context.Context, leadID, companyRowID int64) (int64, error) {
	id, err := store.Scalar[int64](ctx, s.q, `
		INSERT INTO amo_crm_leads (amo_crm_lead_id, amo_crm_companies_id)
		VALUES ($1, $2)
		ON CONFLICT (amo_crm_lead_id)
		DO UPDATE SET amo_crm_companies_id = EXCLUDED.amo_crm_companies_id,
			updated_at = now()
		RETURNING id`,
		leadID, companyRowID,
	)
	if err != nil {
		return 0, perr.FromPostgres(err, "upsert lead")
	}
	return id, nil
}

// UpsertDocument implements Storage.
// The conflict target mirrors the business identity of a document:
// one number per document type per lead
func (s *pg) UpsertDocument(ctx context.Context, w DocumentWrite) (int64, error) {
	id, err := store.Scalar[int64](ctx, s.q, `
		INSERT INTO amo_crm_documents
			(amo_crm_account_id, amo_crm_document_types_id, amo_crm_leads_id,
			purpose_of_payment, document_number, document_date, payment_amount)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (amo_crm_document_types_id, amo_crm_leads_id, document_number)
		DO UPDATE SET amo_crm_account_id = EXCLUDED.amo_crm_account_id,
			purpose_of_payment = EXCLUDED.purpose_of_payment,
			document_date = EXCLUDED.document_date,
			payment_amount = EXCLUDED.payment_amount,
			updated_at = now()
		RETURNING id`,
		w.AccountID, w.DocumentTypeID, w.LeadRowID,
		w.Purpose, w.DocumentNumber, w.DateAct, w.PaymentAmount,
	)
	if err != nil {
		return 0, perr.FromPostgres(err, "upsert document")
	}
	return id, nil
}
