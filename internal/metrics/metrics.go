package metrics

import (
	"errors"
	"fmt"
	"math"
	"time"
)

const dateLayout = "2006-01-02"

var (
	// ErrNegativeQuantity is returned when a record carries a quantity below zero.
	ErrNegativeQuantity = errors.New("quantity must not be negative")
	// ErrMissingDate is returned when the start or end date is the zero time.
	ErrMissingDate = errors.New("start and end dates are required")
)

// DateOrderError reports a shipment date that precedes the start date.
type DateOrderError struct {
	Start time.Time
	End   time.Time
}

func (e *DateOrderError) Error() string {
	return fmt.Sprintf("end date %s is before start date %s", e.End.Format(dateLayout), e.Start.Format(dateLayout))
}

// Input is the canonical shape of one production record before derivation.
// Explicit totals take precedence over values derived from per-unit fields.
type Input struct {
	Quantity int

	UnitPrice              float64
	MaterialCostPerUnit    float64
	OutsourcingCostPerUnit float64

	Revenue              *float64
	MaterialCostTotal    *float64
	OutsourcingCostTotal *float64

	StartDate time.Time
	EndDate   time.Time
}

// Metrics contains every value derived from an Input.
type Metrics struct {
	LeadTimeDays          int
	Revenue               float64
	MaterialCostTotal     float64
	OutsourcingCostTotal  float64
	Throughput            float64
	ThroughputPerLeadTime float64

	// Nil when the quantity is zero.
	PerUnitThroughput            *float64
	PerUnitThroughputPerLeadTime *float64
}

// Validate checks the input before any derivation runs.
func (in Input) Validate() error {
	if in.Quantity < 0 {
		return ErrNegativeQuantity
	}
	if in.StartDate.IsZero() || in.EndDate.IsZero() {
		return ErrMissingDate
	}
	if dayNumber(in.EndDate) < dayNumber(in.StartDate) {
		return &DateOrderError{Start: in.StartDate, End: in.EndDate}
	}
	return nil
}

// Compute validates the input and derives lead time, throughput and TP/LT.
func Compute(in Input) (Metrics, error) {
	if err := in.Validate(); err != nil {
		return Metrics{}, err
	}

	qty := float64(in.Quantity)
	leadTime := LeadTimeDays(in.StartDate, in.EndDate)

	revenue := pick(in.Revenue, in.UnitPrice*qty)
	materialCost := pick(in.MaterialCostTotal, in.MaterialCostPerUnit*qty)
	outsourcingCost := pick(in.OutsourcingCostTotal, in.OutsourcingCostPerUnit*qty)

	throughput := revenue - materialCost - outsourcingCost

	m := Metrics{
		LeadTimeDays:          leadTime,
		Revenue:               revenue,
		MaterialCostTotal:     materialCost,
		OutsourcingCostTotal:  outsourcingCost,
		Throughput:            throughput,
		ThroughputPerLeadTime: throughput / float64(leadTime),
	}

	if in.Quantity > 0 {
		perUnit := throughput / qty
		perUnitPerLT := perUnit / float64(leadTime)
		m.PerUnitThroughput = &perUnit
		m.PerUnitThroughputPerLeadTime = &perUnitPerLT
	}

	return m, nil
}

// LeadTimeDays returns the whole calendar days between start and end, never less than 1.
func LeadTimeDays(start, end time.Time) int {
	days := dayNumber(end) - dayNumber(start)
	if days < 1 {
		return 1
	}
	return days
}

// Round2 rounds half away from zero to two decimals for display.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func pick(explicit *float64, derived float64) float64 {
	if explicit != nil {
		return *explicit
	}
	return derived
}

// dayNumber maps a time to a day count using only its calendar date, so the
// clock and the location's UTC offset never shift the difference.
func dayNumber(t time.Time) int {
	y, m, d := t.Date()
	return int(time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / 86400)
}
