package main

import (
	"io"
	"os"

	"github.com/alecthomas/kong"
	"go.uber.org/zap"

	"github.com/Simplici0/tplt/internal/logger"
)

var cli struct {
	Verbose bool `short:"v" help:"Log rejected rows and load statistics to stderr."`

	Compute ComputeCmd `cmd:"" help:"Compute TP/LT for a record file and optionally export the result."`
	Summary SummaryCmd `cmd:"" help:"Print the per-product TP/LT summary of a record file."`
}

type context struct {
	out    io.Writer
	logger *zap.Logger
}

func main() {
	ctx := kong.Parse(&cli,
		kong.Name("tplt"),
		kong.Description("Cash-productivity (throughput per lead time) calculator."),
		kong.ShortUsageOnError(),
	)

	log := zap.NewNop()
	if cli.Verbose {
		log = logger.Must(logger.NewDevelopment("debug"))
	}
	defer func() { _ = log.Sync() }()

	err := ctx.Run(&context{out: os.Stdout, logger: log})
	ctx.FatalIfErrorf(err)
}
