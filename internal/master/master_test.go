package master

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/Simplici0/tplt/internal/tabular"
)

func mustTable(t *testing.T, csv string) *tabular.Table {
	t.Helper()
	table, err := tabular.Read(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("read table: %v", err)
	}
	return table
}

func TestRegisterUpsertsByTrimmedName(t *testing.T) {
	m := New()

	if err := m.Register("  Widget ", 1000, 300, 200); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := m.Register("Widget", 1200, 300, 100); err != nil {
		t.Fatalf("overwrite: %v", err)
	}

	if m.Len() != 1 {
		t.Fatalf("len = %d, want 1", m.Len())
	}
	e, ok := m.Lookup("Widget")
	if !ok {
		t.Fatalf("expected Widget to be found")
	}
	if e.UnitPrice != 1200 || e.OutsourcingCost != 100 {
		t.Fatalf("expected last write to win, got %+v", e)
	}
}

func TestRegisterIsCaseSensitive(t *testing.T) {
	m := New()
	_ = m.Register("widget", 1, 0, 0)
	_ = m.Register("Widget", 2, 0, 0)

	if m.Len() != 2 {
		t.Fatalf("len = %d, want 2", m.Len())
	}
	if _, ok := m.Lookup("WIDGET"); ok {
		t.Fatalf("lookup must be case-sensitive")
	}
}

func TestRegisterRejectsEmptyNameAndNegativeAmounts(t *testing.T) {
	m := New()

	if err := m.Register("   ", 1, 1, 1); !errors.Is(err, ErrEmptyName) {
		t.Fatalf("err = %v, want ErrEmptyName", err)
	}
	if err := m.Register("Widget", -1, 0, 0); !errors.Is(err, ErrNegativeAmount) {
		t.Fatalf("err = %v, want ErrNegativeAmount", err)
	}
	if err := m.Register("Widget", 10, math.NaN(), 0); !errors.Is(err, ErrNegativeAmount) {
		t.Fatalf("NaN cost: err = %v, want ErrNegativeAmount", err)
	}
	if err := m.Register("Widget", math.Inf(1), 0, 0); !errors.Is(err, ErrNegativeAmount) {
		t.Fatalf("+Inf price: err = %v, want ErrNegativeAmount", err)
	}
	if m.Len() != 0 {
		t.Fatalf("master must stay empty, got %d entries", m.Len())
	}
}

func TestLookupMissIsNotAnError(t *testing.T) {
	m := New()
	e, ok := m.Lookup("Unknown")
	if ok {
		t.Fatalf("expected miss")
	}
	if e != (Entry{}) {
		t.Fatalf("expected zero entry, got %+v", e)
	}
}

func TestBulkLoadMergeDeduplicatesLastWins(t *testing.T) {
	m := New()
	_ = m.Register("Existing", 10, 1, 1)
	_ = m.Register("Widget", 5, 1, 1)

	table := mustTable(t, "品名,材料費,外注費用,売上単価\nWidget,300,200,1000\nGadget,10,0,50\nWidget,310,200,1100\n")
	result, err := m.BulkLoad(table, ModeMerge)
	if err != nil {
		t.Fatalf("bulk load: %v", err)
	}

	if result.Inserted != 1 || result.Updated != 1 || result.Removed != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if got := m.Names(); strings.Join(got, ",") != "Existing,Widget,Gadget" {
		t.Fatalf("names = %v", got)
	}
	if e, _ := m.Lookup("Widget"); e.UnitPrice != 1100 || e.MaterialCost != 310 {
		t.Fatalf("expected last occurrence to win, got %+v", e)
	}
}

func TestBulkLoadReplace(t *testing.T) {
	m := New()
	_ = m.Register("Old", 10, 1, 1)

	table := mustTable(t, "productName,materialCost,outsourcingCost,unitPrice\nNew,1,2,3\n")
	result, err := m.BulkLoad(table, ModeReplace)
	if err != nil {
		t.Fatalf("bulk load: %v", err)
	}

	if result.Inserted != 1 || result.Removed != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if _, ok := m.Lookup("Old"); ok {
		t.Fatalf("replace must drop entries absent from the file")
	}
}

func TestBulkLoadMissingColumnLeavesMasterUnchanged(t *testing.T) {
	m := New()
	_ = m.Register("Widget", 1000, 300, 200)

	table := mustTable(t, "productName,outsourcingCost,unitPrice\nGadget,0,50\n")
	_, err := m.BulkLoad(table, ModeReplace)

	var schemaErr *tabular.SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("err = %v, want SchemaError", err)
	}
	if strings.Join(schemaErr.Required, ",") != "productName,materialCost,outsourcingCost,unitPrice" {
		t.Fatalf("required = %v", schemaErr.Required)
	}
	if strings.Join(schemaErr.Missing, ",") != "materialCost" {
		t.Fatalf("missing = %v", schemaErr.Missing)
	}
	if m.Len() != 1 {
		t.Fatalf("master changed: %v", m.Names())
	}
	if e, _ := m.Lookup("Widget"); e.UnitPrice != 1000 {
		t.Fatalf("master entry changed: %+v", e)
	}
}

func TestBulkLoadSkipsBadRows(t *testing.T) {
	m := New()

	table := mustTable(t, "productName,materialCost,outsourcingCost,unitPrice\nGood,1,,3\nBad,abc,0,1\n,1,1,1\nNeg,-1,0,0\n")
	result, err := m.BulkLoad(table, ModeMerge)
	if err != nil {
		t.Fatalf("bulk load: %v", err)
	}

	if m.Len() != 1 || result.Inserted != 1 {
		t.Fatalf("expected only Good to load, got %v (%+v)", m.Names(), result)
	}
	if len(result.Skipped) != 3 {
		t.Fatalf("skipped = %d, want 3", len(result.Skipped))
	}
	if result.Skipped[0].Line != 3 || result.Skipped[0].Column != "materialCost" {
		t.Fatalf("unexpected first skip: %+v", result.Skipped[0])
	}
	if e, _ := m.Lookup("Good"); e.OutsourcingCost != 0 {
		t.Fatalf("empty cell must default to 0, got %+v", e)
	}
}

func TestBulkLoadSkipsNonFiniteAmounts(t *testing.T) {
	m := New()

	table := mustTable(t, "productName,materialCost,outsourcingCost,unitPrice\nWidget,NaN,0,Inf\nGadget,1,+Inf,2\n")
	result, err := m.BulkLoad(table, ModeMerge)
	if err != nil {
		t.Fatalf("bulk load: %v", err)
	}
	if m.Len() != 0 {
		t.Fatalf("non-finite amounts must not load, got %v", m.Names())
	}
	if len(result.Skipped) != 2 {
		t.Fatalf("skipped = %d, want 2", len(result.Skipped))
	}
	if result.Skipped[0].Column != "unitPrice" || result.Skipped[1].Column != "outsourcingCost" {
		t.Fatalf("unexpected skips: %+v, %+v", result.Skipped[0], result.Skipped[1])
	}
}

func TestBulkLoadVolumetricShape(t *testing.T) {
	m := New()

	table := mustTable(t, "品名,重量単価\nSteel bar,850\n")
	if _, err := m.BulkLoad(table, ModeMerge); err != nil {
		t.Fatalf("bulk load: %v", err)
	}

	e, ok := m.Lookup("Steel bar")
	if !ok || e.WeightUnitCost != 850 {
		t.Fatalf("unexpected entry: %+v (found=%v)", e, ok)
	}
}

func TestExportRowsReimport(t *testing.T) {
	m := New()
	_ = m.Register("Widget", 1000.5, 300.25, 200)

	var b strings.Builder
	if err := tabular.WriteCSV(&b, ExportHeader, m.ExportRows()); err != nil {
		t.Fatalf("write csv: %v", err)
	}

	reloaded := New()
	if _, err := reloaded.BulkLoad(mustTable(t, b.String()), ModeReplace); err != nil {
		t.Fatalf("reload: %v", err)
	}
	got, _ := reloaded.Lookup("Widget")
	want, _ := m.Lookup("Widget")
	if got != want {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, want)
	}
}

func TestParseMode(t *testing.T) {
	if mode, err := ParseMode(""); err != nil || mode != ModeMerge {
		t.Fatalf("empty mode = %v, %v", mode, err)
	}
	if mode, err := ParseMode("Replace"); err != nil || mode != ModeReplace {
		t.Fatalf("replace mode = %v, %v", mode, err)
	}
	if _, err := ParseMode("append"); err == nil {
		t.Fatalf("expected error for unknown mode")
	}
}
