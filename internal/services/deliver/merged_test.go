package deliver

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	perr "docbridge/internal/platform/errors"
	amodomain "docbridge/internal/services/amocrm/domain"
)

type fakeCRM struct {
	lead    *amodomain.Lead
	leadErr error
	company *amodomain.Company
}

func (f *fakeCRM) FetchLead(context.Context, string, int64) (*amodomain.Lead, error) {
	return f.lead, f.leadErr
}

func (f *fakeCRM) FetchCompany(context.Context, string, int64) (*amodomain.Company, error) {
	if f.company == nil {
		return nil, perr.NotFoundf("no company")
	}
	return f.company, nil
}

var fieldIDs = amodomain.FieldIDs{DateAct: 578632, PeriodAct: 578634, StaffAct: 584218}

func fullLead() *amodomain.Lead {
	price := int64(35000)
	return &amodomain.Lead{
		ID:        777,
		Price:     &price,
		CompanyID: 9001,
		Fields: amodomain.FieldSet{
			578632: "20.01.2025",
			578634: "2025-Q1",
			584218: "10",
		},
	}
}

func TestMergedDeliversFullTemplate(t *testing.T) {
	t.Parallel()

	crm := &fakeCRM{lead: fullLead(), company: &amodomain.Company{ID: 9001, Name: "ООО Ромашка"}}
	sink := &fakeSink{statuses: []int{200}}
	m := NewMerged(zerolog.Nop(), crm, fieldIDs, sink, Config{})

	if err := m.Run(context.Background(), task()); err != nil {
		t.Fatal(err)
	}
	if len(sink.sent) != 1 {
		t.Fatalf("sent %d records", len(sink.sent))
	}
	if sink.sent[0].Purpose != "Аутсорсинг охраны труда (2025-Q1) Штат до 10 чел." {
		t.Fatalf("purpose %q", sink.sent[0].Purpose)
	}
	if sink.sent[0].CompanyName != "ООО Ромашка" || sink.sent[0].PaymentAmount != 35000 {
		t.Fatalf("record %+v", sink.sent[0])
	}
}

func TestMergedSkipsPartialLeads(t *testing.T) {
	t.Parallel()

	lead := fullLead()
	delete(lead.Fields, 578634)
	crm := &fakeCRM{lead: lead, company: &amodomain.Company{ID: 9001, Name: "ООО Ромашка"}}
	sink := &fakeSink{statuses: []int{200}}
	m := NewMerged(zerolog.Nop(), crm, fieldIDs, sink, Config{})

	if err := m.Run(context.Background(), task()); err != nil {
		t.Fatalf("a partial lead is skipped, not failed: %v", err)
	}
	if len(sink.sent) != 0 {
		t.Fatal("partial lead must not be delivered")
	}
}

func TestMergedAbsorbsLeadFetchFailure(t *testing.T) {
	t.Parallel()

	crm := &fakeCRM{leadErr: perr.Upstreamf("crm down")}
	sink := &fakeSink{statuses: []int{200}}
	m := NewMerged(zerolog.Nop(), crm, fieldIDs, sink, Config{})

	if err := m.Run(context.Background(), task()); err != nil {
		t.Fatal(err)
	}
	if len(sink.sent) != 0 {
		t.Fatal("no fetch, no delivery")
	}
}

func TestMergedFailHardOnSinkFailure(t *testing.T) {
	t.Parallel()

	crm := &fakeCRM{lead: fullLead(), company: &amodomain.Company{ID: 9001, Name: "ООО Ромашка"}}
	m := NewMerged(zerolog.Nop(), crm, fieldIDs, &fakeSink{statuses: []int{502}}, Config{FailHard: true})

	err := m.Run(context.Background(), task())
	if !perr.IsCode(err, perr.ErrorCodeDelivery) {
		t.Fatalf("got %v", err)
	}
}
