// Package domain holds the AmoCRM entity shapes the pipeline consumes
package domain

import (
	"encoding/json"
	"strings"
)

// Lead is the slice of an AmoCRM lead the pipeline cares about
type Lead struct {
	ID        int64
	Name      string
	Price     *int64
	CompanyID int64
	Fields    FieldSet
}

// Company is an AmoCRM company reference
type Company struct {
	ID   int64
	Name string
}

// FieldSet maps a custom field id to its first value, resolved once per
// lead fetch so stages never re-walk the variant field collection
type FieldSet map[int64]string

// Ptr returns the value for id, nil when the field is absent or blank
func (f FieldSet) Ptr(id int64) *string {
	v, ok := f[id]
	if !ok || v == "" {
		return nil
	}
	return &v
}

// FieldIDs names the semantic slots inside the lead's custom field
// collection. The ids are account-specific and configured, not hard-coded
type FieldIDs struct {
	DateAct   int64
	PeriodAct int64
	StaffAct  int64
}

// flexValue tolerates string, number, and bool custom field values
type flexValue string

func (f *flexValue) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexValue(s)
		return nil
	}
	*f = flexValue(strings.TrimSpace(string(b)))
	return nil
}

// wire shapes for the v4 REST decode

type wireFieldValue struct {
	Value flexValue `json:"value"`
}

type wireField struct {
	FieldID int64            `json:"field_id"`
	Values  []wireFieldValue `json:"values"`
}

// WireLead is the decode target for GET /api/v4/leads/{id}
type WireLead struct {
	ID       int64       `json:"id"`
	Name     string      `json:"name"`
	Price    *int64      `json:"price"`
	Fields   []wireField `json:"custom_fields_values"`
	Embedded struct {
		Companies []struct {
			ID int64 `json:"id"`
		} `json:"companies"`
	} `json:"_embedded"`
}

// WireCompany is the decode target for GET /api/v4/companies/{id}
type WireCompany struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Lead converts the wire shape into the domain shape
func (w WireLead) Lead() *Lead {
	fs := make(FieldSet, len(w.Fields))
	for _, f := range w.Fields {
		if len(f.Values) == 0 {
			continue
		}
		if _, seen := fs[f.FieldID]; seen {
			continue
		}
		fs[f.FieldID] = string(f.Values[0].Value)
	}
	l := &Lead{
		ID:     w.ID,
		Name:   w.Name,
		Price:  w.Price,
		Fields: fs,
	}
	if len(w.Embedded.Companies) > 0 {
		l.CompanyID = w.Embedded.Companies[0].ID
	}
	return l
}

// Company converts the wire shape into the domain shape
func (w WireCompany) Company() *Company {
	return &Company{ID: w.ID, Name: w.Name}
}
