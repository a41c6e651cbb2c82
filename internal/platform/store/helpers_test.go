package store

import (
	"context"
	"errors"
	"testing"
)

// fakeQuerier serves a canned first row for helper tests
type fakeQuerier struct {
	rows [][]any
	err  error
}

func (f *fakeQuerier) Exec(context.Context, string, ...any) (CommandTag, error) {
	if f.err != nil {
		return nil, f.err
	}
	return fakeTag("INSERT 0 1"), nil
}

func (f *fakeQuerier) Query(context.Context, string, ...any) (Rows, error) {
	return nil, errors.New("not used")
}

func (f *fakeQuerier) QueryRow(context.Context, string, ...any) Row {
	return &fakeRow{q: f}
}

type fakeTag string

func (t fakeTag) String() string      { return string(t) }
func (t fakeTag) RowsAffected() int64 { return 1 }

type fakeRow struct{ q *fakeQuerier }

func (r *fakeRow) Scan(dest ...any) error {
	if r.q.err != nil {
		return r.q.err
	}
	if len(r.q.rows) == 0 {
		return errors.New("no rows in result set")
	}
	src := r.q.rows[0]
	for i := range dest {
		switch d := dest[i].(type) {
		case *int64:
			*d = src[i].(int64)
		case *string:
			*d = src[i].(string)
		default:
			return errors.New("unsupported scan dest")
		}
	}
	return nil
}

func TestScalar(t *testing.T) {
	t.Parallel()
	q := &fakeQuerier{rows: [][]any{{int64(42)}}}
	got, err := Scalar[int64](context.Background(), q, "SELECT id")
	if err != nil || got != 42 {
		t.Fatalf("Scalar=%d,%v", got, err)
	}
}

func TestScalarSurfacesScanError(t *testing.T) {
	t.Parallel()
	q := &fakeQuerier{}
	if _, err := Scalar[int64](context.Background(), q, "SELECT id"); err == nil {
		t.Fatal("empty result should error")
	}
	q = &fakeQuerier{err: errors.New("boom")}
	if _, err := Scalar[int64](context.Background(), q, "SELECT id"); err == nil {
		t.Fatal("driver error should surface")
	}
}
