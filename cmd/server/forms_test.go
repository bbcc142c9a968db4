package main

import (
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"
)

func TestParseDraftForm_Success(t *testing.T) {
	form := url.Values{}
	form.Set("productName", " Widget ")
	form.Set("quantity", "")
	form.Set("startDate", "2024-01-01")
	form.Set("endDate", "2024-01-11")
	form.Set("unitPrice", "1,200")
	form.Set("weightKg", "")

	req := httptest.NewRequest("POST", "/records", nil)
	req.Form = form

	d, err := parseDraftForm(req)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if d.ProductName != "Widget" || d.Quantity != 1 {
		t.Fatalf("unexpected draft: %+v", d)
	}
	if d.UnitPrice == nil || *d.UnitPrice != 1200 {
		t.Fatalf("unexpected unit price: %v", d.UnitPrice)
	}
	if d.MaterialCost != nil || d.WeightKg != nil {
		t.Fatalf("empty overrides must stay nil: %+v", d)
	}
}

func TestParseDraftForm_Invalid(t *testing.T) {
	cases := map[string]url.Values{
		"missing name":      {"quantity": {"1"}, "startDate": {"2024-01-01"}, "endDate": {"2024-01-01"}},
		"negative quantity": {"productName": {"W"}, "quantity": {"-1"}, "startDate": {"2024-01-01"}, "endDate": {"2024-01-01"}},
		"missing date":      {"productName": {"W"}, "startDate": {"2024-01-01"}},
		"bad amount":        {"productName": {"W"}, "startDate": {"2024-01-01"}, "endDate": {"2024-01-01"}, "revenue": {"abc"}},
		"negative amount":   {"productName": {"W"}, "startDate": {"2024-01-01"}, "endDate": {"2024-01-01"}, "materialCost": {"-5"}},
		"NaN price":         {"productName": {"W"}, "startDate": {"2024-01-01"}, "endDate": {"2024-01-01"}, "unitPrice": {"NaN"}},
		"infinite revenue":  {"productName": {"W"}, "startDate": {"2024-01-01"}, "endDate": {"2024-01-01"}, "revenue": {"+Inf"}},
	}

	for name, form := range cases {
		req := httptest.NewRequest("POST", "/records", nil)
		req.Form = form
		if _, err := parseDraftForm(req); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
}

func TestParseEntryForm(t *testing.T) {
	req := httptest.NewRequest("POST", "/master", nil)
	req.Form = url.Values{"productName": {"Widget"}, "unitPrice": {"1000"}, "materialCost": {""}}

	e, err := parseEntryForm(req)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if e.UnitPrice != 1000 || e.MaterialCost != 0 {
		t.Fatalf("unexpected entry: %+v", e)
	}
}

func TestSessionValueRoundTrip(t *testing.T) {
	issued := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	now := issued
	a := newSessionService(nil, "secret", time.Hour, nil)
	a.now = func() time.Time { return now }

	value := a.createSessionValue("abc-123")
	id, ok := a.verifySessionValue(value)
	if !ok || id != "abc-123" {
		t.Fatalf("verify = %q, %v", id, ok)
	}

	if _, ok := a.verifySessionValue(value + "0"); ok {
		t.Fatalf("tampered signature must be rejected")
	}
	other := newSessionService(nil, "other", time.Hour, nil)
	if _, ok := other.verifySessionValue(value); ok {
		t.Fatalf("value signed with another secret must be rejected")
	}
	if _, ok := a.verifySessionValue("garbage"); ok {
		t.Fatalf("malformed value must be rejected")
	}

	forged := strings.Replace(value, ".1709287200.", ".1909287200.", 1)
	if forged == value {
		t.Fatalf("expected issued time in %q", value)
	}
	if _, ok := a.verifySessionValue(forged); ok {
		t.Fatalf("value with a rewritten issue time must be rejected")
	}

	now = issued.Add(59 * time.Minute)
	if _, ok := a.verifySessionValue(value); !ok {
		t.Fatalf("value within the TTL must be accepted")
	}
	now = issued.Add(61 * time.Minute)
	if _, ok := a.verifySessionValue(value); ok {
		t.Fatalf("value older than the TTL must be rejected")
	}
}
