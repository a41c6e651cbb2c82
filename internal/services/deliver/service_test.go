package deliver

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"docbridge/internal/core/notefilter"
	perr "docbridge/internal/platform/errors"
	"docbridge/internal/platform/store/kv"
	"docbridge/internal/platform/testkit"
	"docbridge/internal/services/payload"
	pipedomain "docbridge/internal/services/pipeline/domain"
)

type fakeSink struct {
	statuses []int
	err      error
	sent     []Record
}

func (f *fakeSink) Send(_ context.Context, rec Record) (int, error) {
	f.sent = append(f.sent, rec)
	if f.err != nil {
		return 0, f.err
	}
	i := len(f.sent) - 1
	if i >= len(f.statuses) {
		i = len(f.statuses) - 1
	}
	return f.statuses[i], nil
}

func str(s string) *string { return &s }

func amt(v int64) *int64 { return &v }

func testCache(t *testing.T) *payload.Cache {
	t.Helper()
	c := kv.Open(kv.Config{SweepEvery: time.Hour})
	t.Cleanup(func() { _ = c.Close() })
	return payload.NewCache(c)
}

func cached(t *testing.T, cache *payload.Cache) *payload.LeadNote {
	t.Helper()
	p := payload.Skeleton(notefilter.EligibleNote{
		NoteID:    555,
		LeadID:    777,
		AccountID: 42,
		DocNum:    145,
		DocType:   notefilter.DocTypeUPD,
	})
	p.CompanyID = 9001
	p.CompanyName = "ООО Ромашка"
	p.DateAct = str("20.01.2025")
	p.PeriodAct = str("2025-Q1")
	p.StaffAct = str("10")
	p.PaymentAmount = amt(35000)
	if err := cache.Put(context.Background(), p); err != nil {
		t.Fatal(err)
	}
	return p
}

func task() pipedomain.Task {
	return pipedomain.Task{
		ChainID:   "c1",
		Subdomain: "acme.amocrm.ru",
		Note:      notefilter.EligibleNote{NoteID: 555, LeadID: 777, AccountID: 42},
	}
}

func TestRunDeliversAndRecachesPurpose(t *testing.T) {
	t.Parallel()

	cache := testCache(t)
	cached(t, cache)
	sink := &fakeSink{statuses: []int{200}}
	s := New(zerolog.Nop(), cache, sink, Config{})

	if err := s.Run(context.Background(), task()); err != nil {
		t.Fatal(err)
	}
	if len(sink.sent) != 1 {
		t.Fatalf("sent %d records", len(sink.sent))
	}
	want := "Аутсорсинг охраны труда (2025-Q1) Штат до 10 чел."
	if sink.sent[0].Purpose != want {
		t.Fatalf("purpose %q", sink.sent[0].Purpose)
	}
	if sink.sent[0].DocumentNumber != 145 || sink.sent[0].DocumentTypeID != 1 {
		t.Fatalf("record %+v", sink.sent[0])
	}

	p, err := cache.Get(context.Background(), 777, 555)
	if err != nil {
		t.Fatal(err)
	}
	if p.Purpose != want {
		t.Fatalf("re-cached record lost the purpose, got %q", p.Purpose)
	}
}

func TestRunRetriesUntilOK(t *testing.T) {
	testkit.Serial(t)

	var slept int
	testkit.Swap(t, &sleepFn, func(time.Duration) { slept++ })

	cache := testCache(t)
	cached(t, cache)
	sink := &fakeSink{statuses: []int{500, 502, 200}}
	s := New(zerolog.Nop(), cache, sink, Config{})

	if err := s.Run(context.Background(), task()); err != nil {
		t.Fatal(err)
	}
	if len(sink.sent) != 3 {
		t.Fatalf("sent %d records", len(sink.sent))
	}
	if slept != 2 {
		t.Fatalf("slept %d times", slept)
	}
}

func TestRunCacheMissAborts(t *testing.T) {
	t.Parallel()

	sink := &fakeSink{statuses: []int{200}}
	s := New(zerolog.Nop(), testCache(t), sink, Config{})

	err := s.Run(context.Background(), task())
	if !perr.IsCode(err, perr.ErrorCodeCacheMiss) {
		t.Fatalf("got %v", err)
	}
	if len(sink.sent) != 0 {
		t.Fatal("nothing should be posted on a cache miss")
	}
}

func TestRunIncompleteRecordAbortsBeforeHTTP(t *testing.T) {
	t.Parallel()

	cache := testCache(t)
	p := cached(t, cache)
	p.PaymentAmount = nil
	if err := cache.Put(context.Background(), p); err != nil {
		t.Fatal(err)
	}

	sink := &fakeSink{statuses: []int{200}}
	s := New(zerolog.Nop(), cache, sink, Config{})

	err := s.Run(context.Background(), task())
	if !perr.IsCode(err, perr.ErrorCodeIncompletePayload) {
		t.Fatalf("got %v", err)
	}
	if len(sink.sent) != 0 {
		t.Fatal("incomplete record must not reach the sink")
	}
	if _, ok := perr.PayloadOf(err); !ok {
		t.Fatal("incomplete-record error should carry the record")
	}
}

func TestRunReportsActualAttemptsWhenContextEnds(t *testing.T) {
	t.Parallel()

	cache := testCache(t)
	cached(t, cache)
	sink := &fakeSink{statuses: []int{500}}
	s := New(zerolog.Nop(), cache, sink, Config{FailHard: true})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.Run(ctx, task())
	if !perr.IsCode(err, perr.ErrorCodeDelivery) {
		t.Fatalf("got %v", err)
	}
	if len(sink.sent) != 0 {
		t.Fatal("no send should happen once the context is done")
	}
	if !strings.Contains(err.Error(), "after 0 attempts") {
		t.Fatalf("error should report the attempts actually made, got %q", err)
	}
}

func TestRunExhaustionPolicies(t *testing.T) {
	testkit.Serial(t)

	testkit.Swap(t, &sleepFn, func(time.Duration) {})

	cache := testCache(t)
	cached(t, cache)
	soft := New(zerolog.Nop(), cache, &fakeSink{statuses: []int{500}}, Config{})
	if err := soft.Run(context.Background(), task()); err != nil {
		t.Fatalf("soft exhaustion must be absorbed, got %v", err)
	}

	hard := New(zerolog.Nop(), cache, &fakeSink{statuses: []int{500}}, Config{FailHard: true})
	err := hard.Run(context.Background(), task())
	if !perr.IsCode(err, perr.ErrorCodeDelivery) {
		t.Fatalf("got %v", err)
	}

	// re-cache happens either way, purpose included
	p, gerr := cache.Get(context.Background(), 777, 555)
	if gerr != nil {
		t.Fatal(gerr)
	}
	if p.Purpose == "" {
		t.Fatal("failed delivery should still re-cache the purposed record")
	}
}
