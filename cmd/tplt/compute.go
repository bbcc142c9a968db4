package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"

	"github.com/Simplici0/tplt/internal/ledger"
	"github.com/Simplici0/tplt/internal/metrics"
	"github.com/Simplici0/tplt/internal/tabular"
)

type ComputeCmd struct {
	inputFlags

	CSV  string `name:"csv" help:"Write the computed records as CSV to this path." type:"path"`
	XLSX string `name:"xlsx" help:"Write the computed records and summary as XLSX to this path." type:"path"`
}

func (c *ComputeCmd) Run(ctx *context) error {
	records, err := c.load(ctx)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(ctx.out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "product\tqty\tLT\tTP\tTP/LT\t")
	for _, r := range records {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\t\n",
			r.ProductName, humanize.Comma(int64(r.Quantity)), r.LeadTimeDays, money(r.Throughput), money(r.ThroughputPerLeadTime))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if c.CSV != "" {
		if err := writeFile(c.CSV, func(f *os.File) error {
			return tabular.WriteCSV(f, ledger.ExportHeader, ledger.ExportRows(records))
		}); err != nil {
			return err
		}
		fmt.Fprintf(ctx.out, "wrote %s\n", c.CSV)
	}
	if c.XLSX != "" {
		if err := writeFile(c.XLSX, func(f *os.File) error {
			return tabular.WriteXLSX(f, ledger.Sheets(records)...)
		}); err != nil {
			return err
		}
		fmt.Fprintf(ctx.out, "wrote %s\n", c.XLSX)
	}

	return nil
}

func writeFile(path string, write func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "error creating %v", path)
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return errors.Wrapf(err, "error writing %v", path)
	}
	return errors.Wrapf(f.Close(), "error closing %v", path)
}

func money(v float64) string {
	return humanize.CommafWithDigits(metrics.Round2(v), 2)
}
