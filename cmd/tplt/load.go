package main

import (
	"fmt"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Simplici0/tplt/internal/ledger"
	"github.com/Simplici0/tplt/internal/master"
	"github.com/Simplici0/tplt/internal/tabular"
)

// inputFlags are shared by the commands that read a master and a record file.
type inputFlags struct {
	Master  string `short:"m" help:"Product master file (CSV/TSV, UTF-8 or Shift-JIS)." type:"existingfile"`
	Records string `short:"r" required:"" help:"Record file (CSV/TSV, UTF-8 or Shift-JIS)." type:"existingfile"`
	Strict  bool   `help:"Fail when any record row is rejected."`
}

func (f *inputFlags) load(ctx *context) ([]ledger.Record, error) {
	m := master.New()
	if f.Master != "" {
		table, err := tabular.ReadFile(f.Master)
		if err != nil {
			return nil, errors.Wrapf(err, "error reading product master %v", f.Master)
		}
		result, err := m.BulkLoad(table, master.ModeMerge)
		if err != nil {
			return nil, errors.Wrapf(err, "error loading product master %v", f.Master)
		}
		for _, skipped := range result.Skipped {
			ctx.logger.Warn("master row skipped", zap.Error(skipped))
		}
		ctx.logger.Info("product master loaded", zap.Int("entries", m.Len()), zap.Int("skipped", len(result.Skipped)))
	}

	table, err := tabular.ReadFile(f.Records)
	if err != nil {
		return nil, errors.Wrapf(err, "error reading records %v", f.Records)
	}
	result, err := ledger.Import(table, m)
	if err != nil {
		return nil, errors.Wrapf(err, "error importing records %v", f.Records)
	}

	for _, rejected := range result.Rejected {
		fmt.Fprintf(ctx.out, "rejected: %v\n", rejected)
	}
	for _, name := range result.Unresolved {
		fmt.Fprintf(ctx.out, "warning: %s is not in the product master\n", name)
	}
	if f.Strict && len(result.Rejected) > 0 {
		return nil, errors.Errorf("%d rows rejected in %v", len(result.Rejected), f.Records)
	}

	l := ledger.New()
	for _, rec := range result.Records {
		l.Append(rec)
	}
	return l.Records(), nil
}
