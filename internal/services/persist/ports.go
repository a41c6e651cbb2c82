// Package persist implements the final chain stage: write the delivered
// record into the relational mirror of companies, leads and documents
package persist

import "context"

// DocumentWrite is the row image for one document upsert
type DocumentWrite struct {
	AccountID      int64
	DocumentTypeID int
	LeadRowID      int64
	Purpose        string
	DocumentNumber int
	DateAct        string
	PaymentAmount  int64
}

// Storage is the relational write surface for the mirror tables.
// Every method upserts on the external identifier and returns the
// durable row id
type Storage interface {
	UpsertCompany(ctx context.Context, companyID int64, name string) (int64, error)
	UpsertLead(ctx context.Context, leadID, companyRowID int64) (int64, error)
	UpsertDocument(ctx context.Context, w DocumentWrite) (int64, error)
}
