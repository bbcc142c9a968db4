package main

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Simplici0/tplt/internal/ledger"
	"github.com/Simplici0/tplt/internal/master"
	"github.com/Simplici0/tplt/internal/tabular"
)

// recordForm is the record form as rendered, with every value as text.
type recordForm struct {
	Editing bool
	Index   int

	ProductName     string
	Quantity        string
	StartDate       string
	EndDate         string
	UnitPrice       string
	MaterialCost    string
	OutsourcingCost string
	Revenue         string
	WeightKg        string
}

func emptyRecordForm(today time.Time) recordForm {
	day := today.Format("2006-01-02")
	return recordForm{Quantity: "1", StartDate: day, EndDate: day}
}

func recordFormFromDraft(i int, d ledger.Draft) recordForm {
	return recordForm{
		Editing:         true,
		Index:           i,
		ProductName:     d.ProductName,
		Quantity:        fmt.Sprint(d.Quantity),
		StartDate:       d.StartDate.Format("2006-01-02"),
		EndDate:         d.EndDate.Format("2006-01-02"),
		UnitPrice:       formatOptional(d.UnitPrice),
		MaterialCost:    formatOptional(d.MaterialCost),
		OutsourcingCost: formatOptional(d.OutsourcingCost),
		Revenue:         formatOptional(d.Revenue),
		WeightKg:        formatOptional(d.WeightKg),
	}
}

func formatOptional(v *float64) string {
	if v == nil {
		return ""
	}
	return tabular.FormatFloat(*v)
}

// parseDraftForm reads a record form. An empty quantity means 1; empty
// overrides fall back to the product master.
func parseDraftForm(r *http.Request) (ledger.Draft, error) {
	d := ledger.Draft{ProductName: strings.TrimSpace(r.FormValue("productName"))}
	if d.ProductName == "" {
		return d, fmt.Errorf("productName is required")
	}

	var err error
	if d.Quantity, err = parseQuantity(r.FormValue("quantity")); err != nil {
		return d, err
	}
	if d.StartDate, err = parseDate(r.FormValue("startDate"), "startDate"); err != nil {
		return d, err
	}
	if d.EndDate, err = parseDate(r.FormValue("endDate"), "endDate"); err != nil {
		return d, err
	}

	optionals := []struct {
		field string
		dst   **float64
	}{
		{"unitPrice", &d.UnitPrice},
		{"materialCost", &d.MaterialCost},
		{"outsourcingCost", &d.OutsourcingCost},
		{"revenue", &d.Revenue},
		{"weightKg", &d.WeightKg},
	}
	for _, o := range optionals {
		if *o.dst, err = parseOptionalAmount(r.FormValue(o.field), o.field); err != nil {
			return d, err
		}
	}

	return d, nil
}

// parseEntryForm reads the product registration form. Empty amounts are 0.
func parseEntryForm(r *http.Request) (master.Entry, error) {
	e := master.Entry{Name: strings.TrimSpace(r.FormValue("productName"))}
	if e.Name == "" {
		return e, fmt.Errorf("productName is required")
	}

	amounts := []struct {
		field string
		dst   *float64
	}{
		{"unitPrice", &e.UnitPrice},
		{"materialCost", &e.MaterialCost},
		{"outsourcingCost", &e.OutsourcingCost},
		{"weightUnitCost", &e.WeightUnitCost},
	}
	for _, a := range amounts {
		v, err := parseOptionalAmount(r.FormValue(a.field), a.field)
		if err != nil {
			return e, err
		}
		if v != nil {
			*a.dst = *v
		}
	}

	return e, nil
}

func parseQuantity(raw string) (int, error) {
	if strings.TrimSpace(raw) == "" {
		return 1, nil
	}
	q, err := tabular.ParseInt(raw)
	if err != nil {
		return 0, fmt.Errorf("quantity must be a whole number")
	}
	if q < 0 {
		return 0, fmt.Errorf("quantity must be 0 or more")
	}
	return q, nil
}

func parseOptionalAmount(raw, field string) (*float64, error) {
	v, err := tabular.ParseFloat(raw)
	if errors.Is(err, tabular.ErrEmptyCell) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s must be numeric", field)
	}
	if v < 0 {
		return nil, fmt.Errorf("%s must be 0 or more", field)
	}
	return &v, nil
}

func parseDate(raw, field string) (time.Time, error) {
	t, err := tabular.ParseDate(raw)
	if errors.Is(err, tabular.ErrEmptyCell) {
		return t, fmt.Errorf("%s is required", field)
	}
	if err != nil {
		return t, fmt.Errorf("%s must be a date (YYYY-MM-DD)", field)
	}
	return t, nil
}
