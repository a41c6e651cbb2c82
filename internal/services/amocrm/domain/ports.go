package domain

import "context"

// Fetcher is the typed CRM read surface the enrichment stages depend on.
// Implementations retry transient failures within a bounded budget;
// a lead that does not exist is an error, a company that does not exist
// surfaces as a not-found error the caller may tolerate
type Fetcher interface {
	FetchLead(ctx context.Context, subdomain string, id int64) (*Lead, error)
	FetchCompany(ctx context.Context, subdomain string, id int64) (*Company, error)
}
