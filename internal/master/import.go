package master

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Simplici0/tplt/internal/tabular"
)

// Mode selects how BulkLoad combines a file with the current entries.
type Mode int

const (
	// ModeMerge upserts the file's entries by name, keeping the others.
	ModeMerge Mode = iota
	// ModeReplace makes the master exactly the file's entries.
	ModeReplace
)

func (m Mode) String() string {
	if m == ModeReplace {
		return "replace"
	}
	return "merge"
}

// ParseMode maps "merge" (or "") and "replace" to a Mode.
func ParseMode(raw string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "merge":
		return ModeMerge, nil
	case "replace":
		return ModeReplace, nil
	}
	return ModeMerge, fmt.Errorf("unknown import mode %q", raw)
}

// Header columns accepted in a product master file.
var (
	NameColumn            = tabular.Column{Name: "productName", Aliases: []string{"product", "name", "品名", "製品名"}}
	UnitPriceColumn       = tabular.Column{Name: "unitPrice", Aliases: []string{"売上単価", "単価"}}
	MaterialCostColumn    = tabular.Column{Name: "materialCost", Aliases: []string{"材料費"}}
	OutsourcingCostColumn = tabular.Column{Name: "outsourcingCost", Aliases: []string{"外注費", "外注費用"}}
	WeightUnitCostColumn  = tabular.Column{Name: "weightUnitCost", Aliases: []string{"重量単価", "kg単価"}}
)

var standardShape = []tabular.Requirement{
	{NameColumn},
	{MaterialCostColumn},
	{OutsourcingCostColumn},
	{UnitPriceColumn},
}

// LoadResult summarizes a BulkLoad.
type LoadResult struct {
	Inserted int
	Updated  int
	Removed  int
	Skipped  []*tabular.ParseError
}

// BulkLoad reads entries from t and merges or replaces them into m. A table
// with a weight unit-cost column and a name column is accepted in place of
// the standard shape. On a schema error m is left untouched; rows with bad
// cells are skipped and reported.
func (m *Master) BulkLoad(t *tabular.Table, mode Mode) (LoadResult, error) {
	volumetric := t.Has(NameColumn) && t.Has(WeightUnitCostColumn)
	if !volumetric {
		if err := t.Require(standardShape...); err != nil {
			return LoadResult{}, err
		}
	}

	staged := New()
	if mode == ModeMerge {
		staged = m.clone()
	}

	var (
		result LoadResult
		seen   = make(map[string]bool)
	)

	nameIdx := t.Index(NameColumn)
	for i := range t.Rows {
		entry, perr := parseEntryRow(t, i, nameIdx)
		if perr != nil {
			result.Skipped = append(result.Skipped, perr)
			continue
		}

		if _, err := staged.upsert(entry); err != nil {
			result.Skipped = append(result.Skipped, &tabular.ParseError{
				Line: t.Line(i), Column: NameColumn.Name, Value: entry.Name, Err: err,
			})
			continue
		}
		seen[entry.Name] = true
	}

	for name := range seen {
		if _, existed := m.entries[name]; existed {
			result.Updated++
		} else {
			result.Inserted++
		}
	}
	if mode == ModeReplace {
		for name := range m.entries {
			if !seen[name] {
				result.Removed++
			}
		}
	}

	m.entries, m.order = staged.entries, staged.order
	return result, nil
}

func parseEntryRow(t *tabular.Table, i, nameIdx int) (Entry, *tabular.ParseError) {
	entry := Entry{Name: t.Cell(i, nameIdx)}
	if entry.Name == "" {
		return entry, &tabular.ParseError{Line: t.Line(i), Column: NameColumn.Name, Err: ErrEmptyName}
	}

	amounts := []struct {
		col tabular.Column
		dst *float64
	}{
		{UnitPriceColumn, &entry.UnitPrice},
		{MaterialCostColumn, &entry.MaterialCost},
		{OutsourcingCostColumn, &entry.OutsourcingCost},
		{WeightUnitCostColumn, &entry.WeightUnitCost},
	}
	for _, a := range amounts {
		raw := t.Cell(i, t.Index(a.col))
		value, err := tabular.ParseFloat(raw)
		switch {
		case errors.Is(err, tabular.ErrEmptyCell):
			value = 0
		case err != nil:
			return entry, &tabular.ParseError{Line: t.Line(i), Column: a.col.Name, Value: raw, Err: err}
		case value < 0:
			return entry, &tabular.ParseError{Line: t.Line(i), Column: a.col.Name, Value: raw, Err: ErrNegativeAmount}
		}
		*a.dst = value
	}

	return entry, nil
}

// ExportHeader is the column order of a master download; it is also a valid
// import header.
var ExportHeader = []string{
	NameColumn.Name,
	MaterialCostColumn.Name,
	OutsourcingCostColumn.Name,
	UnitPriceColumn.Name,
	WeightUnitCostColumn.Name,
}

// ExportRows renders every entry in registration order.
func (m *Master) ExportRows() [][]string {
	rows := make([][]string, 0, m.Len())
	for _, e := range m.Entries() {
		rows = append(rows, []string{
			e.Name,
			tabular.FormatFloat(e.MaterialCost),
			tabular.FormatFloat(e.OutsourcingCost),
			tabular.FormatFloat(e.UnitPrice),
			tabular.FormatFloat(e.WeightUnitCost),
		})
	}
	return rows
}
