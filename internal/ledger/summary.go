package ledger

import (
	"sort"

	"github.com/samber/lo"
)

// Summary aggregates a record list globally and per product.
type Summary struct {
	RecordCount  int `json:"recordCount"`
	ProductCount int `json:"productCount"`

	SumRevenue                float64 `json:"sumRevenue"`
	SumThroughput             float64 `json:"sumThroughput"`
	MeanThroughput            float64 `json:"meanThroughput"`
	MeanThroughputPerLeadTime float64 `json:"meanThroughputPerLeadTime"`
	MeanLeadTimeDays          float64 `json:"meanLeadTimeDays"`

	// Sorted by mean TP/LT, highest first.
	Products []ProductSummary `json:"products"`
}

// ProductSummary holds the grouped means of one product.
type ProductSummary struct {
	ProductName   string `json:"productName"`
	Records       int    `json:"records"`
	TotalQuantity int    `json:"totalQuantity"`

	SumThroughput             float64 `json:"sumThroughput"`
	MeanThroughput            float64 `json:"meanThroughput"`
	MeanThroughputPerLeadTime float64 `json:"meanThroughputPerLeadTime"`
	MeanLeadTimeDays          float64 `json:"meanLeadTimeDays"`

	// Nil when no record of the product has a per-unit metric.
	MeanPerUnitThroughput            *float64 `json:"meanPerUnitThroughput"`
	MeanPerUnitThroughputPerLeadTime *float64 `json:"meanPerUnitThroughputPerLeadTime"`
}

// Aggregate computes the summary of records. An empty list yields an empty
// summary.
func Aggregate(records []Record) Summary {
	s := Summary{Products: []ProductSummary{}}
	if len(records) == 0 {
		return s
	}

	s.RecordCount = len(records)
	s.SumRevenue = lo.SumBy(records, func(r Record) float64 { return r.Revenue })
	s.SumThroughput = lo.SumBy(records, func(r Record) float64 { return r.Throughput })
	s.MeanThroughput = s.SumThroughput / float64(len(records))
	s.MeanThroughputPerLeadTime = mean(records, func(r Record) float64 { return r.ThroughputPerLeadTime })
	s.MeanLeadTimeDays = mean(records, func(r Record) float64 { return float64(r.LeadTimeDays) })

	groups := lo.GroupBy(records, func(r Record) string { return r.ProductName })
	s.ProductCount = len(groups)

	for _, name := range lo.Keys(groups) {
		s.Products = append(s.Products, summarizeProduct(name, groups[name]))
	}
	sort.Slice(s.Products, func(i, j int) bool {
		a, b := s.Products[i], s.Products[j]
		if a.MeanThroughputPerLeadTime != b.MeanThroughputPerLeadTime {
			return a.MeanThroughputPerLeadTime > b.MeanThroughputPerLeadTime
		}
		return a.ProductName < b.ProductName
	})

	return s
}

func summarizeProduct(name string, records []Record) ProductSummary {
	p := ProductSummary{
		ProductName:               name,
		Records:                   len(records),
		TotalQuantity:             lo.SumBy(records, func(r Record) int { return r.Quantity }),
		SumThroughput:             lo.SumBy(records, func(r Record) float64 { return r.Throughput }),
		MeanThroughputPerLeadTime: mean(records, func(r Record) float64 { return r.ThroughputPerLeadTime }),
		MeanLeadTimeDays:          mean(records, func(r Record) float64 { return float64(r.LeadTimeDays) }),
	}
	p.MeanThroughput = p.SumThroughput / float64(len(records))

	perUnit := lo.FilterMap(records, func(r Record, _ int) (float64, bool) {
		if r.PerUnitThroughput == nil {
			return 0, false
		}
		return *r.PerUnitThroughput, true
	})
	if len(perUnit) > 0 {
		v := lo.Sum(perUnit) / float64(len(perUnit))
		p.MeanPerUnitThroughput = &v
	}

	perUnitPerLT := lo.FilterMap(records, func(r Record, _ int) (float64, bool) {
		if r.PerUnitThroughputPerLeadTime == nil {
			return 0, false
		}
		return *r.PerUnitThroughputPerLeadTime, true
	})
	if len(perUnitPerLT) > 0 {
		v := lo.Sum(perUnitPerLT) / float64(len(perUnitPerLT))
		p.MeanPerUnitThroughputPerLeadTime = &v
	}

	return p
}

func mean(records []Record, value func(Record) float64) float64 {
	if len(records) == 0 {
		return 0
	}
	return lo.SumBy(records, value) / float64(len(records))
}
