package http

import (
	"encoding/json"
	stdhttp "net/http"
	"net/http/httptest"
	"testing"

	perr "docbridge/internal/platform/errors"
)

func TestHandleSuccessEnvelope(t *testing.T) {
	t.Parallel()

	h := Handle(func(r *stdhttp.Request) Response {
		return OK(map[string]string{"message": "handled"})
	})
	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(stdhttp.MethodPost, "/", nil))

	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("status=%d", rec.Code)
	}
	var env Envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatal(err)
	}
	if env.StatusCode != 200 || env.Error != "" {
		t.Fatalf("unexpected envelope %+v", env)
	}
}

func TestHandleErrorEnvelopeStatus(t *testing.T) {
	t.Parallel()

	h := Handle(func(r *stdhttp.Request) Response {
		return Error(perr.IncompletePayloadf("company_name missing"))
	})
	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(stdhttp.MethodPost, "/", nil))

	if rec.Code != stdhttp.StatusUnprocessableEntity {
		t.Fatalf("status=%d want 422", rec.Code)
	}
	var env Envelope
	_ = json.Unmarshal(rec.Body.Bytes(), &env)
	if env.Code != perr.ErrorCodeIncompletePayload {
		t.Fatalf("code=%v", env.Code)
	}
}
