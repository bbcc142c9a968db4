package ledger

import (
	"fmt"
	"strings"
	"time"

	"github.com/Simplici0/tplt/internal/master"
	"github.com/Simplici0/tplt/internal/metrics"
)

// Record is one shipment with its derived metrics.
type Record struct {
	ProductName string
	Quantity    int
	UnitPrice   float64
	StartDate   time.Time
	EndDate     time.Time
	// Resolved is false when the product name had no master entry.
	Resolved bool

	metrics.Metrics

	OrderPlaced bool
	OrderDate   *time.Time

	// Draft is what the record was built from, kept so it can be edited.
	Draft Draft
}

// Draft is a record as entered by a user or read from a file, before the
// master is consulted. Nil pointers mean "not provided".
type Draft struct {
	ProductName string
	Quantity    int

	// Manual per-unit overrides of the master values.
	UnitPrice       *float64
	MaterialCost    *float64
	OutsourcingCost *float64

	// Direct totals, used verbatim when set.
	Revenue              *float64
	MaterialCostTotal    *float64
	OutsourcingCostTotal *float64

	// WeightKg prices material by weight when the entry has a WeightUnitCost.
	WeightKg *float64

	StartDate time.Time
	EndDate   time.Time
}

// Resolve combines a draft with the master. Manual values win over the
// master entry, which wins over zero. The bool reports whether the master
// had an entry for the product.
func Resolve(m *master.Master, d Draft) (metrics.Input, bool) {
	var (
		entry master.Entry
		found bool
	)
	if m != nil {
		entry, found = m.Lookup(d.ProductName)
	}

	materialPerUnit := entry.MaterialCost
	if d.WeightKg != nil && entry.WeightUnitCost > 0 {
		materialPerUnit = *d.WeightKg * entry.WeightUnitCost
	}

	return metrics.Input{
		Quantity:               d.Quantity,
		UnitPrice:              valueOr(d.UnitPrice, entry.UnitPrice),
		MaterialCostPerUnit:    valueOr(d.MaterialCost, materialPerUnit),
		OutsourcingCostPerUnit: valueOr(d.OutsourcingCost, entry.OutsourcingCost),
		Revenue:                d.Revenue,
		MaterialCostTotal:      d.MaterialCostTotal,
		OutsourcingCostTotal:   d.OutsourcingCostTotal,
		StartDate:              d.StartDate,
		EndDate:                d.EndDate,
	}, found
}

// Build resolves and computes a record. Nothing is stored.
func Build(m *master.Master, d Draft) (Record, error) {
	d.ProductName = strings.TrimSpace(d.ProductName)
	if d.ProductName == "" {
		return Record{}, master.ErrEmptyName
	}

	in, found := Resolve(m, d)
	mt, err := metrics.Compute(in)
	if err != nil {
		return Record{}, fmt.Errorf("%s: %w", d.ProductName, err)
	}

	return Record{
		ProductName: d.ProductName,
		Quantity:    d.Quantity,
		UnitPrice:   in.UnitPrice,
		StartDate:   in.StartDate,
		EndDate:     in.EndDate,
		Resolved:    found,
		Metrics:     mt,
		Draft:       d,
	}, nil
}

func valueOr(v *float64, fallback float64) float64 {
	if v != nil {
		return *v
	}
	return fallback
}

func (r Record) clone() Record {
	r.OrderDate = clonePtr(r.OrderDate)
	r.PerUnitThroughput = clonePtr(r.PerUnitThroughput)
	r.PerUnitThroughputPerLeadTime = clonePtr(r.PerUnitThroughputPerLeadTime)
	r.Draft.UnitPrice = clonePtr(r.Draft.UnitPrice)
	r.Draft.MaterialCost = clonePtr(r.Draft.MaterialCost)
	r.Draft.OutsourcingCost = clonePtr(r.Draft.OutsourcingCost)
	r.Draft.Revenue = clonePtr(r.Draft.Revenue)
	r.Draft.MaterialCostTotal = clonePtr(r.Draft.MaterialCostTotal)
	r.Draft.OutsourcingCostTotal = clonePtr(r.Draft.OutsourcingCostTotal)
	r.Draft.WeightKg = clonePtr(r.Draft.WeightKg)
	return r
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
