package deliver

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	perr "docbridge/internal/platform/errors"
)

// SinkConfig tunes the form sink
type SinkConfig struct {
	// URL is the spreadsheet web-app intake endpoint
	URL string

	// Timeout bounds one POST, default 30s
	Timeout time.Duration
}

// FormSink posts records as an HTML form, which is what the spreadsheet
// web app accepts
type FormSink struct {
	cfg  SinkConfig
	http *http.Client
}

// NewFormSink builds a FormSink and applies defaults
func NewFormSink(cfg SinkConfig) *FormSink {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &FormSink{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}
}

// Send satisfies Sink
func (s *FormSink) Send(ctx context.Context, rec Record) (int, error) {
	form := url.Values{
		"purpose_of_payment":      {rec.Purpose},
		"document_number":         {strconv.Itoa(rec.DocumentNumber)},
		"document_date_act":       {rec.DateAct},
		"document_payment_amount": {strconv.FormatInt(rec.PaymentAmount, 10)},
		"company_name":            {rec.CompanyName},
		"document_type_id":        {strconv.Itoa(rec.DocumentTypeID)},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.URL, strings.NewReader(form.Encode()))
	if err != nil {
		return 0, perr.Deliveryf("build sheet request: %v", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.http.Do(req)
	if err != nil {
		return 0, perr.Deliveryf("sheet request failed: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	return resp.StatusCode, nil
}
