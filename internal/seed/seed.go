package seed

import (
	"errors"
	"fmt"
	"os"

	"github.com/Simplici0/tplt/internal/master"
	"github.com/Simplici0/tplt/internal/tabular"
)

// Stats contains seed operation counters.
type Stats struct {
	Inserts int
	Updates int
	Skipped int
}

// Run merges the product master file at path into m. An empty path or a
// missing file is a no-op. Running it again with the same file inserts
// nothing.
func Run(m *master.Master, path string) (Stats, error) {
	if path == "" {
		return Stats{}, nil
	}

	table, err := tabular.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Stats{}, nil
	}
	if err != nil {
		return Stats{}, fmt.Errorf("read master seed: %w", err)
	}

	before := m.Entries()
	result, err := m.BulkLoad(table, master.ModeMerge)
	if err != nil {
		return Stats{}, fmt.Errorf("load master seed %s: %w", path, err)
	}

	return Stats{
		Inserts: result.Inserted,
		Updates: changed(before, m),
		Skipped: len(result.Skipped),
	}, nil
}

// changed counts entries of before whose values differ in m.
func changed(before []master.Entry, m *master.Master) int {
	n := 0
	for _, old := range before {
		if cur, ok := m.Lookup(old.Name); ok && cur != old {
			n++
		}
	}
	return n
}

// Loader returns a function that seeds every master it is given from path,
// reporting failures to onErr. It is meant for session initialization.
func Loader(path string, onErr func(error)) func(*master.Master) Stats {
	return func(m *master.Master) Stats {
		stats, err := Run(m, path)
		if err != nil && onErr != nil {
			onErr(err)
		}
		return stats
	}
}
