// Package notefilter extracts document-creation notes from AmoCRM lead events.
// It is pure: webhook payload in, eligible notes out, no IO
package notefilter

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
)

// DocType identifies the recognized accounting document kinds
type DocType int

// Document kinds. The numeric values are the durable document type ids
const (
	DocTypeUPD     DocType = 1
	DocTypeInvoice DocType = 2
)

// note type for system messages generated by integrations
const systemMessageNoteType = "25"

// markers the filter looks for inside the decoded note body
const (
	authorMarker   = "интроверт"
	serviceMarker  = "документы"
	createdMarker  = "создан"
	numberMarker   = "№"
	updMarker      = "упд"
	invoiceMarker  = "счет-фактура"
	numberEndToken = "от"
)

// FlexString decodes a JSON string or number into a plain string.
// AmoCRM webhooks are inconsistent about quoting ids and note types
type FlexString string

// UnmarshalJSON implements json.Unmarshaler
func (f *FlexString) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	*f = FlexString(strings.TrimSpace(string(b)))
	return nil
}

// Int64 parses the value as a base-10 integer, 0 when empty or malformed
func (f FlexString) Int64() int64 {
	v, _ := strconv.ParseInt(string(f), 10, 64)
	return v
}

// RawNote is the event fragment AmoCRM attaches to a lead.
// Text and Metadata arrive as JSON-encoded strings inside the JSON body
type RawNote struct {
	ID        FlexString `json:"id"`
	ElementID FlexString `json:"element_id"`
	AccountID FlexString `json:"account_id"`
	NoteType  FlexString `json:"note_type"`
	Text      string     `json:"text"`
	Metadata  string     `json:"metadata"`
}

// NoteEvent wraps a RawNote the way the webhook body nests it
type NoteEvent struct {
	Note RawNote `json:"note"`
}

// LeadEvents is the per-lead event collection. AmoCRM serializes it either
// as a JSON array or as an object keyed by numeric index, so decoding
// accepts both and preserves numeric key order
type LeadEvents []NoteEvent

// UnmarshalJSON implements json.Unmarshaler
func (l *LeadEvents) UnmarshalJSON(b []byte) error {
	trimmed := strings.TrimSpace(string(b))
	if strings.HasPrefix(trimmed, "[") {
		var arr []NoteEvent
		if err := json.Unmarshal(b, &arr); err != nil {
			return err
		}
		*l = arr
		return nil
	}

	var m map[string]NoteEvent
	if err := json.Unmarshal(b, &m); err != nil {
		return err
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		x, xerr := strconv.Atoi(keys[i])
		y, yerr := strconv.Atoi(keys[j])
		if xerr != nil || yerr != nil {
			return keys[i] < keys[j]
		}
		return x < y
	})
	out := make([]NoteEvent, 0, len(keys))
	for _, k := range keys {
		out = append(out, m[k])
	}
	*l = out
	return nil
}

// EligibleNote is a qualifying document-creation note with its parsed
// document attributes. Immutable after the filter emits it
type EligibleNote struct {
	NoteID    int64
	LeadID    int64
	AccountID int64
	DocNum    int
	DocType   DocType
	Raw       RawNote
}

// noteMetadata is the decoded shape of RawNote.Metadata
type noteMetadata struct {
	EventSource struct {
		AuthorName string `json:"author_name"`
	} `json:"event_source"`
}

// noteText is the decoded shape of RawNote.Text
type noteText struct {
	Service string `json:"service"`
	Text    string `json:"text"`
}

// fold lowercases with full Unicode case folding so Cyrillic markers
// match regardless of the case AmoCRM sends
func fold(s string) string { return cases.Fold().String(s) }

// Filter walks every note of every lead in encounter order and returns the
// notes announcing a recognized accounting document. Duplicates are not
// collapsed here; the persistence upsert keys take care of redelivery
func Filter(leads []LeadEvents) []EligibleNote {
	var out []EligibleNote
	for _, lead := range leads {
		for _, ev := range lead {
			if en, ok := inspect(ev.Note); ok {
				out = append(out, en)
			}
		}
	}
	return out
}

func inspect(n RawNote) (EligibleNote, bool) {
	if n.ID == "" || n.Text == "" || n.NoteType == "" || n.Metadata == "" {
		return EligibleNote{}, false
	}
	if string(n.NoteType) != systemMessageNoteType {
		return EligibleNote{}, false
	}

	var meta noteMetadata
	if err := json.Unmarshal([]byte(n.Metadata), &meta); err != nil {
		return EligibleNote{}, false
	}
	if !strings.Contains(fold(meta.EventSource.AuthorName), authorMarker) {
		return EligibleNote{}, false
	}

	var body noteText
	if err := json.Unmarshal([]byte(n.Text), &body); err != nil {
		return EligibleNote{}, false
	}
	if body.Service == "" || body.Text == "" {
		return EligibleNote{}, false
	}

	service := fold(body.Service)
	text := fold(body.Text)

	if service != serviceMarker {
		return EligibleNote{}, false
	}
	if !strings.Contains(text, updMarker) && !strings.Contains(text, invoiceMarker) {
		return EligibleNote{}, false
	}
	if !strings.Contains(text, numberMarker) || !strings.Contains(text, createdMarker) {
		return EligibleNote{}, false
	}

	docNum, ok := ParseDocumentNumber(text)
	if !ok || docNum == 0 {
		return EligibleNote{}, false
	}

	docType := DocTypeInvoice
	if strings.Contains(text, updMarker) {
		docType = DocTypeUPD
	}

	return EligibleNote{
		NoteID:    n.ID.Int64(),
		LeadID:    n.ElementID.Int64(),
		AccountID: n.AccountID.Int64(),
		DocNum:    docNum,
		DocType:   docType,
		Raw:       n,
	}, true
}

// ParseDocumentNumber extracts the document number from a notification
// text: the substring between the number marker and the following
// date preposition, trimmed, with a leading integer parse
func ParseDocumentNumber(text string) (int, bool) {
	begin := strings.Index(text, numberMarker)
	if begin < 0 {
		return 0, false
	}
	begin += len(numberMarker)

	end := strings.Index(text[begin:], numberEndToken)
	if end < 0 {
		return 0, false
	}

	raw := strings.TrimSpace(text[begin : begin+end])
	return leadingInt(raw)
}

// leadingInt mirrors a loose integer parse: consume leading digits,
// ignore the rest
func leadingInt(s string) (int, bool) {
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == 0 {
		return 0, false
	}
	v, err := strconv.Atoi(s[:i])
	if err != nil {
		return 0, false
	}
	return v, true
}
