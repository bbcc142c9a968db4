package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"

	"github.com/Simplici0/tplt/internal/ledger"
)

type SummaryCmd struct {
	inputFlags
}

func (c *SummaryCmd) Run(ctx *context) error {
	records, err := c.load(ctx)
	if err != nil {
		return err
	}

	s := ledger.Aggregate(records)
	fmt.Fprintf(ctx.out, "records: %d  products: %d  total TP: %s  mean TP/LT: %s  mean LT: %s days\n\n",
		s.RecordCount, s.ProductCount, money(s.SumThroughput), money(s.MeanThroughputPerLeadTime), money(s.MeanLeadTimeDays))

	tw := tabwriter.NewWriter(ctx.out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "product\trecords\tqty\tmean TP\tmean TP/LT\tmean TP/unit\t")
	for _, p := range s.Products {
		perUnit := "-"
		if p.MeanPerUnitThroughput != nil {
			perUnit = money(*p.MeanPerUnitThroughput)
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\t%s\t\n",
			p.ProductName, p.Records, humanize.Comma(int64(p.TotalQuantity)),
			money(p.MeanThroughput), money(p.MeanThroughputPerLeadTime), perUnit)
	}
	return tw.Flush()
}
