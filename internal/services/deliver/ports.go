// Package deliver implements the sheet delivery stages: the chained stage
// that reads the cached hand-off record, and the merged stage that fetches
// and delivers in one step
package deliver

import "context"

// Record is one row for the spreadsheet intake form
type Record struct {
	Purpose        string
	DocumentNumber int
	DateAct        string
	PaymentAmount  int64
	CompanyName    string
	DocumentTypeID int
}

// Sink posts one record to the spreadsheet intake endpoint and reports
// the HTTP status it got back. A non-200 status is not an error at this
// level; the stage owns the retry decision
type Sink interface {
	Send(ctx context.Context, rec Record) (int, error)
}
