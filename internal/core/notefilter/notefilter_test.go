package notefilter

import (
	"encoding/json"
	"reflect"
	"testing"
)

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	return string(b)
}

func docNote(t *testing.T, id, lead string, author, service, text string) RawNote {
	t.Helper()
	return RawNote{
		ID:        FlexString(id),
		ElementID: FlexString(lead),
		AccountID: "31231231",
		NoteType:  "25",
		Text:      mustJSON(t, map[string]string{"service": service, "text": text}),
		Metadata: mustJSON(t, map[string]any{
			"event_source": map[string]string{"author_name": author},
		}),
	}
}

func updNote(t *testing.T, id, lead string) RawNote {
	return docNote(t, id, lead, "Интроверт", "Документы", "Документ УПД №145 от 20.01.2025 создан")
}

func wrap(notes ...RawNote) []LeadEvents {
	evs := make(LeadEvents, 0, len(notes))
	for _, n := range notes {
		evs = append(evs, NoteEvent{Note: n})
	}
	return []LeadEvents{evs}
}

func TestFilterAcceptsQualifyingUPDNote(t *testing.T) {
	t.Parallel()

	got := Filter(wrap(updNote(t, "555", "777")))
	if len(got) != 1 {
		t.Fatalf("want 1 note, got %d", len(got))
	}
	n := got[0]
	if n.NoteID != 555 || n.LeadID != 777 {
		t.Fatalf("ids=%d/%d", n.NoteID, n.LeadID)
	}
	if n.DocNum != 145 || n.DocType != DocTypeUPD {
		t.Fatalf("doc=%d type=%d", n.DocNum, n.DocType)
	}
}

func TestFilterRecognizesInvoice(t *testing.T) {
	t.Parallel()

	n := docNote(t, "1", "2", "интроверт", "документы", "Счет-фактура №88 от 01.02.2025 создан")
	got := Filter(wrap(n))
	if len(got) != 1 || got[0].DocType != DocTypeInvoice || got[0].DocNum != 88 {
		t.Fatalf("got %+v", got)
	}
}

func TestFilterRejections(t *testing.T) {
	t.Parallel()

	base := updNote(t, "1", "2")

	cases := []struct {
		name   string
		mutate func(*RawNote)
	}{
		{"wrong note type", func(n *RawNote) { n.NoteType = "4" }},
		{"missing metadata", func(n *RawNote) { n.Metadata = "" }},
		{"metadata not json", func(n *RawNote) { n.Metadata = "{{" }},
		{"foreign author", func(n *RawNote) {
			n.Metadata = mustJSON(t, map[string]any{"event_source": map[string]string{"author_name": "Manager"}})
		}},
		{"wrong service", func(n *RawNote) {
			n.Text = mustJSON(t, map[string]string{"service": "счета", "text": "УПД №145 от создан"})
		}},
		{"no creation marker", func(n *RawNote) {
			n.Text = mustJSON(t, map[string]string{"service": "документы", "text": "УПД №145 от 20.01.2025 удален"})
		}},
		{"unknown document kind", func(n *RawNote) {
			n.Text = mustJSON(t, map[string]string{"service": "документы", "text": "Акт №145 от 20.01.2025 создан"})
		}},
		{"no number", func(n *RawNote) {
			n.Text = mustJSON(t, map[string]string{"service": "документы", "text": "УПД создан"})
		}},
		{"number without date token", func(n *RawNote) {
			n.Text = mustJSON(t, map[string]string{"service": "документы", "text": "УПД №145 создан"})
		}},
	}
	for _, tc := range cases {
		n := base
		tc.mutate(&n)
		if got := Filter(wrap(n)); len(got) != 0 {
			t.Errorf("%s: expected rejection, got %+v", tc.name, got)
		}
	}
}

func TestFilterCaseFoldsMarkers(t *testing.T) {
	t.Parallel()

	n := docNote(t, "1", "2", "ООО ИНТРОВЕРТ", "ДОКУМЕНТЫ", "УПД №9 от 01.01.2025 СОЗДАН")
	if got := Filter(wrap(n)); len(got) != 1 {
		t.Fatalf("uppercase Cyrillic should still match, got %v", got)
	}
}

func TestFilterPreservesEncounterOrder(t *testing.T) {
	t.Parallel()

	leads := []LeadEvents{
		{NoteEvent{Note: updNote(t, "10", "1")}},
		{NoteEvent{Note: updNote(t, "20", "2")}, NoteEvent{Note: updNote(t, "30", "2")}},
	}
	got := Filter(leads)
	if len(got) != 3 || got[0].NoteID != 10 || got[1].NoteID != 20 || got[2].NoteID != 30 {
		t.Fatalf("order lost: %+v", got)
	}
}

func TestFilterIdempotentOnAcceptedSet(t *testing.T) {
	t.Parallel()

	first := Filter(wrap(
		updNote(t, "555", "777"),
		docNote(t, "1", "2", "интроверт", "документы", "Счет-фактура №88 от 01.02.2025 создан"),
	))
	if len(first) != 2 {
		t.Fatalf("want 2 accepted notes, got %d", len(first))
	}

	rewrapped := make([]LeadEvents, 0, len(first))
	for _, en := range first {
		rewrapped = append(rewrapped, LeadEvents{NoteEvent{Note: en.Raw}})
	}
	second := Filter(rewrapped)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("refiltering the accepted set changed it:\nfirst  %+v\nsecond %+v", first, second)
	}
}

func TestFilterOutputNeverExceedsInput(t *testing.T) {
	t.Parallel()

	leads := wrap(updNote(t, "1", "2"), RawNote{}, updNote(t, "3", "4"))
	if got := Filter(leads); len(got) > 3 {
		t.Fatalf("filter grew the input: %d", len(got))
	}
}

func TestLeadEventsDecodesArrayAndIndexObject(t *testing.T) {
	t.Parallel()

	note := `{"note":{"id":"5","element_id":"6","note_type":25,"text":"t","metadata":"m"}}`

	var fromArr LeadEvents
	if err := json.Unmarshal([]byte(`[`+note+`]`), &fromArr); err != nil {
		t.Fatal(err)
	}

	var fromObj LeadEvents
	if err := json.Unmarshal([]byte(`{"1":`+note+`,"0":`+note+`}`), &fromObj); err != nil {
		t.Fatal(err)
	}

	if len(fromArr) != 1 || len(fromObj) != 2 {
		t.Fatalf("arr=%d obj=%d", len(fromArr), len(fromObj))
	}
	if fromArr[0].Note.NoteType != "25" {
		t.Fatalf("numeric note_type should decode as string, got %q", fromArr[0].Note.NoteType)
	}
}

func TestParseDocumentNumber(t *testing.T) {
	t.Parallel()

	cases := []struct {
		text string
		want int
		ok   bool
	}{
		{"упд №145 от 20.01.2025 создан", 145, true},
		{"упд № 7 от 01.01.2025 создан", 7, true},
		{"упд №145/2 от 20.01.2025 создан", 145, true},
		{"упд №abc от создан", 0, false},
		{"упд 145 от создан", 0, false},
		{"упд №145 создан", 0, false},
	}
	for _, tc := range cases {
		got, ok := ParseDocumentNumber(tc.text)
		if got != tc.want || ok != tc.ok {
			t.Errorf("ParseDocumentNumber(%q)=%d,%v want %d,%v", tc.text, got, ok, tc.want, tc.ok)
		}
	}
}
