// Package payload defines the cache-mediated hand-off record the pipeline
// stages share, plus its cache keys and TTLs
package payload

import (
	"fmt"

	"docbridge/internal/core/notefilter"
	pstrings "docbridge/internal/platform/strings"
)

// LeadNote is the intermediate record one pipeline chain builds up.
// Enrichment creates it, delivery adds the purpose string, persistence
// reads it. Pointer fields are nullable: nil means the CRM never supplied
// a value, which the downstream validators treat as missing
type LeadNote struct {
	AccountID      int64                   `json:"account_id"`
	Lead           map[string]any          `json:"lead,omitempty"`
	LeadID         int64                   `json:"lead_id"`
	CompanyID      int64                   `json:"lead_company_id,omitempty"`
	CompanyName    string                  `json:"lead_company_name"`
	DocumentTypeID notefilter.DocType      `json:"document_type_id"`
	DocumentNumber int                     `json:"document_number"`
	DateAct        *string                 `json:"document_date_act"`
	PeriodAct      *string                 `json:"document_date_period_act"`
	PaymentAmount  *int64                  `json:"document_payment_amount"`
	StaffAct       *string                 `json:"document_staff_act"`
	Purpose        string                  `json:"purpose_of_payment"`
	Note           notefilter.EligibleNote `json:"note"`
	NoteID         int64                   `json:"note_id"`
}

// Skeleton builds the initial record for a note before any CRM data arrives
func Skeleton(n notefilter.EligibleNote) *LeadNote {
	return &LeadNote{
		AccountID:      n.AccountID,
		LeadID:         n.LeadID,
		DocumentTypeID: n.DocType,
		DocumentNumber: n.DocNum,
		Note:           n,
		NoteID:         n.NoteID,
	}
}

// purpose-of-payment template variants; which one applies depends on
// which of period/staff the CRM supplied
const (
	purposeFull       = "Аутсорсинг охраны труда (%s) Штат до %s чел."
	purposePeriodOnly = "Аутсорсинг охраны труда (%s)"
	purposeStaffOnly  = "Аутсорсинг охраны труда Штат до %s чел."
	purposeBare       = "Аутсорсинг охраны труда"
)

// BuildPurpose derives the human-readable payment description from the
// period and staff fields currently on the record
func (p *LeadNote) BuildPurpose() string {
	period := pstrings.Deref(p.PeriodAct)
	staff := pstrings.Deref(p.StaffAct)
	switch {
	case period != "" && staff != "":
		return fmt.Sprintf(purposeFull, period, staff)
	case period != "":
		return fmt.Sprintf(purposePeriodOnly, period)
	case staff != "":
		return fmt.Sprintf(purposeStaffOnly, staff)
	default:
		return purposeBare
	}
}

// MissingForDelivery names the first field delivery cannot proceed without
func (p *LeadNote) MissingForDelivery() string {
	switch {
	case p.DocumentTypeID == 0:
		return "document_type_id"
	case p.DocumentNumber == 0:
		return "document_number"
	case p.DateAct == nil:
		return "document_date_act"
	case p.PaymentAmount == nil:
		return "document_payment_amount"
	case p.CompanyName == "":
		return "company_name"
	}
	return ""
}

// MissingForPersistence names the first field persistence cannot proceed without
func (p *LeadNote) MissingForPersistence() string {
	switch {
	case p.AccountID == 0:
		return "account_id"
	case p.DocumentTypeID == 0:
		return "document_type_id"
	case p.DocumentNumber == 0:
		return "document_number"
	case p.DateAct == nil:
		return "document_date_act"
	case p.PaymentAmount == nil:
		return "document_payment_amount"
	case p.Purpose == "":
		return "purpose_of_payment"
	case p.CompanyID == 0:
		return "lead_company_id"
	case p.CompanyName == "":
		return "lead_company_name"
	}
	return ""
}
