// Package domain holds the webhook body shapes
package domain

import (
	"bytes"
	"encoding/json"
	"sort"

	"docbridge/internal/core/notefilter"
	pipedomain "docbridge/internal/services/pipeline/domain"
)

// Ack is the only body the webhook ever answers with
type Ack struct {
	Message string `json:"message"`
}

// Ack messages. The endpoint answers 200 with one of these no matter
// what arrived; failures are observable in logs only
const (
	AckHandled        = "Webhook handled successfully"
	AckInvalidAccount = "Invalid account request data"
	AckInvalidLeads   = "Invalid leads request data"
)

// Account identifies the CRM account the webhook came from
type Account struct {
	Subdomain string `json:"subdomain" validate:"required"`
}

// LeadGroups tolerates both serializations of the leads collection:
// a JSON array of per-lead event lists, or an object keyed by event
// kind. Object keys are walked in sorted order for determinism
type LeadGroups []notefilter.LeadEvents

// UnmarshalJSON implements the tolerant decode
func (g *LeadGroups) UnmarshalJSON(b []byte) error {
	t := bytes.TrimSpace(b)
	if len(t) > 0 && t[0] == '[' {
		var xs []notefilter.LeadEvents
		if err := json.Unmarshal(t, &xs); err != nil {
			return err
		}
		*g = xs
		return nil
	}

	var m map[string]notefilter.LeadEvents
	if err := json.Unmarshal(t, &m); err != nil {
		return err
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]notefilter.LeadEvents, 0, len(m))
	for _, k := range keys {
		out = append(out, m[k])
	}
	*g = out
	return nil
}

// Body is the webhook request shape
type Body struct {
	Account *Account   `json:"account"`
	Leads   LeadGroups `json:"leads"`
}

// Ports are the cross-module dependencies the webhook needs wired in
type Ports struct {
	Dispatcher pipedomain.DispatcherPort
}
